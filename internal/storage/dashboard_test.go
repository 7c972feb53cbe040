package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDashboardEmpty(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	d, err := store.GetDashboard(context.Background(), day("2024-03-31"))
	require.NoError(t, err)
	assert.Zero(t, d.Totals.Transactions)
	assert.Equal(t, 0, d.StatusCounts[model.StatusInTransit])
	assert.Empty(t, d.Discrepancies)
	assert.Empty(t, d.TopVehicles)
	assert.NotNil(t, d.InactiveVehicles)
}

func TestGetDashboard(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	idle := model.Vehicle{Number: "WB01Z0001"}
	require.NoError(t, store.CreateVehicle(ctx, &idle))
	resting := model.Driver{Name: "Anil"}
	require.NoError(t, store.CreateDriver(ctx, &resting))

	short := f.unloaded("2024-03-20", "2024-03-21", "9.25")
	sold := f.unloaded("2024-03-10", "2024-03-12", "8")
	exact := f.unloaded("2024-03-15", "2024-03-16", "10")
	exact.TransportExpense = dec("225")
	onRoad := f.inTransit("2024-03-25")
	for _, txn := range []*model.Transaction{short, sold, exact, onRoad} {
		require.NoError(t, store.CreateTransaction(ctx, txn))
	}
	require.NoError(t, store.MarkSold(ctx, sold.ID, true))

	d, err := store.GetDashboard(ctx, day("2024-03-31"))
	require.NoError(t, err)

	assert.Equal(t, 1, d.Totals.Products)
	assert.Equal(t, 1, d.Totals.LoadingClients)
	assert.Equal(t, 1, d.Totals.UnloadingClients)
	assert.Equal(t, 2, d.Totals.Vehicles)
	assert.Equal(t, 2, d.Totals.Drivers)
	assert.Equal(t, 4, d.Totals.Transactions)

	assert.Equal(t, 1, d.StatusCounts[model.StatusInTransit])
	assert.Equal(t, 2, d.StatusCounts[model.StatusUnloaded])
	assert.Equal(t, 1, d.StatusCounts[model.StatusCompleted])

	require.Len(t, d.Discrepancies, 1, "sold and exact trips are not discrepancies")
	assert.Equal(t, short.ID, d.Discrepancies[0].TransactionID)
	assert.Equal(t, "0.75", d.Discrepancies[0].Difference.String())

	require.Len(t, d.TopVehicles, 1)
	assert.Equal(t, "JH10AB1234", d.TopVehicles[0].Name)
	assert.Equal(t, 4, d.TopVehicles[0].TransactionCount)
	assert.Equal(t, "187.5", d.TopVehicles[0].AverageExpense.String())

	require.Len(t, d.TopRoutes, 1)
	assert.Equal(t, "Jharia Colliery → Raipur Steel", d.TopRoutes[0].Name)
	assert.Equal(t, 3, d.TopRoutes[0].TransactionCount)

	require.Len(t, d.InactiveVehicles, 1)
	assert.Equal(t, "WB01Z0001", d.InactiveVehicles[0].Number)
	require.Len(t, d.InactiveDrivers, 1)
	assert.Equal(t, "Anil", d.InactiveDrivers[0].Name)

	later, err := store.GetDashboard(ctx, day("2024-06-30"))
	require.NoError(t, err)
	assert.Len(t, later.InactiveVehicles, 2)
}

func TestTalliesTop(t *testing.T) {
	ts := tallies{}
	for _, name := range []string{"b", "a", "c", "a", "b", "d", "e", "f"} {
		ts.add(name, dec2null("10"))
	}
	ts.add("", dec2null("10"))

	top := ts.top(3)
	require.Len(t, top, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{top[0].Name, top[1].Name, top[2].Name})
	assert.Equal(t, 2, top[0].TransactionCount)
}

func dec2null(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: *dec(s), Valid: true}
}
