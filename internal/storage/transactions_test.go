package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGetTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	txn := f.unloaded("2024-03-01", "2024-03-03", "9.5")
	txn.DONumber = " DO-1 "
	txn.ChallanNumber = "CH-9"
	require.NoError(t, store.CreateTransaction(ctx, txn))
	require.Positive(t, txn.ID)

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)

	assert.Equal(t, "Coal", got.Product.Name)
	assert.Equal(t, "MT", got.ProductUnit)
	assert.Equal(t, "Jharia Colliery", got.Loading.Client.Name)
	assert.Equal(t, "JH10AB1234", got.Loading.Vehicle.Name)
	require.NotNil(t, got.Loading.Driver)
	assert.Equal(t, "Ramesh", got.Loading.Driver.Name)
	assert.Equal(t, day("2024-03-01"), got.Loading.Date)
	assert.True(t, got.Loading.Quantity.Equal(*dec("10")))
	assert.True(t, got.TransportExpense.Equal(*dec("175")))
	assert.Equal(t, "DO-1", got.DONumber)
	assert.Equal(t, "CH-9", got.ChallanNumber)

	require.NotNil(t, got.Unloading)
	assert.Equal(t, "Raipur Steel", got.Unloading.Client.Name)
	assert.Equal(t, day("2024-03-03"), got.Unloading.Date)
	assert.True(t, got.Unloading.Quantity.Equal(*dec("9.5")))
	assert.Equal(t, model.StatusUnloaded, got.Status())
}

func TestGetTransactionInTransit(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	txn := f.inTransit("2024-03-01")
	txn.Loading.Rate = nil
	txn.Loading.Driver = nil
	require.NoError(t, store.CreateTransaction(ctx, txn))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Unloading)
	assert.Nil(t, got.Loading.Rate)
	assert.Nil(t, got.Loading.Driver)
	assert.Equal(t, model.StatusInTransit, got.Status())

	_, err = store.GetTransaction(ctx, 12345)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateTransactionRejects(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	tests := []struct {
		mutate  func(*model.Transaction)
		wantErr error
		name    string
	}{
		{
			name:    "missing product",
			mutate:  func(txn *model.Transaction) { txn.Product = model.Ref{} },
			wantErr: ErrInvalidTransaction,
		},
		{
			name:    "unknown product",
			mutate:  func(txn *model.Transaction) { txn.Product.ID = 999 },
			wantErr: ErrInvalidReference,
		},
		{
			name:    "unloading point used as loading point",
			mutate:  func(txn *model.Transaction) { txn.Loading.Client = f.unloading.Ref() },
			wantErr: ErrInvalidReference,
		},
		{
			name:    "loading point used as unloading point",
			mutate:  func(txn *model.Transaction) { txn.Unloading.Client = f.loading.Ref() },
			wantErr: ErrInvalidReference,
		},
		{
			name:    "unknown unloading driver",
			mutate:  func(txn *model.Transaction) { txn.Unloading.Driver = &model.Ref{ID: 77} },
			wantErr: ErrInvalidReference,
		},
		{
			name:    "negative quantity",
			mutate:  func(txn *model.Transaction) { txn.Loading.Quantity = dec("-1") },
			wantErr: ErrInvalidTransaction,
		},
		{
			name:    "unloaded before loaded",
			mutate:  func(txn *model.Transaction) { txn.Unloading.Date = day("2024-02-28") },
			wantErr: ErrInvalidTransaction,
		},
		{
			name:    "missing loading date",
			mutate:  func(txn *model.Transaction) { txn.Loading.Date = time.Time{} },
			wantErr: ErrInvalidTransaction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := f.unloaded("2024-03-01", "2024-03-02", "10")
			tt.mutate(txn)
			assert.ErrorIs(t, store.CreateTransaction(ctx, txn), tt.wantErr)
		})
	}

	page, err := store.SearchTransactions(ctx, service.TransactionFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, page.Total, "rejected transactions must not be stored")
}

func TestUpdateTransaction(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	txn := f.inTransit("2024-03-01")
	require.NoError(t, store.CreateTransaction(ctx, txn))

	update := f.unloaded("2024-03-01", "2024-03-04", "9.8")
	update.ID = txn.ID
	update.CreatedAt = txn.CreatedAt
	require.NoError(t, store.UpdateTransaction(ctx, update))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Unloading)
	assert.True(t, got.Unloading.Quantity.Equal(*dec("9.8")))
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	missing := f.inTransit("2024-03-01")
	missing.ID = 4040
	assert.ErrorIs(t, store.UpdateTransaction(ctx, missing), common.ErrNotFound)

	unsaved := f.inTransit("2024-03-01")
	assert.ErrorIs(t, store.UpdateTransaction(ctx, unsaved), ErrInvalidReference)
}

func TestMarkSoldAndDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	txn := f.unloaded("2024-03-01", "2024-03-02", "10")
	require.NoError(t, store.CreateTransaction(ctx, txn))

	require.NoError(t, store.MarkSold(ctx, txn.ID, true))
	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status())

	require.NoError(t, store.MarkSold(ctx, txn.ID, false))
	got, err = store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnloaded, got.Status())

	assert.ErrorIs(t, store.MarkSold(ctx, 999, true), common.ErrNotFound)

	require.NoError(t, store.DeleteTransaction(ctx, txn.ID))
	_, err = store.GetTransaction(ctx, txn.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSearchTransactionsPaging(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	for i := 1; i <= 20; i++ {
		require.NoError(t, store.CreateTransaction(ctx, f.inTransit(fmt.Sprintf("2024-01-%02d", i))))
	}

	page, err := store.SearchTransactions(ctx, service.TransactionFilter{}, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, 20, page.Total)
	assert.Equal(t, 3, page.LastPage)
	assert.Equal(t, 3, page.CurrentPage)
	require.Len(t, page.Transactions, 6)
	assert.Equal(t, day("2024-01-06"), page.Transactions[0].Loading.Date, "newest loading date first")
	assert.Equal(t, "Showing 15 to 20 of 20", page.Summary())

	beyond, err := store.SearchTransactions(ctx, service.TransactionFilter{}, 9, 7)
	require.NoError(t, err)
	assert.Empty(t, beyond.Transactions)
	assert.NotNil(t, beyond.Transactions)

	_, err = store.SearchTransactions(ctx, service.TransactionFilter{}, 0, 7)
	assert.ErrorIs(t, err, ErrInvalidPage)
	_, err = store.SearchTransactions(ctx, service.TransactionFilter{}, 1, maxPageSize+1)
	assert.ErrorIs(t, err, ErrInvalidPage)
}

func TestSearchTransactionsFilters(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	small := model.Client{Name: "Corner Shop", Type: model.ClientUnloadingPoint, Size: model.SizeSmall}
	require.NoError(t, store.CreateClient(ctx, &small))

	inTransit := f.inTransit("2024-02-01")
	toMedium := f.unloaded("2024-02-10", "2024-02-11", "10")
	toSmall := f.unloaded("2024-02-20", "2024-02-22", "10")
	toSmall.Unloading.Client = small.Ref()
	for _, txn := range []*model.Transaction{inTransit, toMedium, toSmall} {
		require.NoError(t, store.CreateTransaction(ctx, txn))
	}
	require.NoError(t, store.MarkSold(ctx, toSmall.ID, true))

	from, to := day("2024-02-05"), day("2024-02-15")
	sold, unsold := true, false

	tests := []struct {
		name   string
		filter service.TransactionFilter
		want   []int64
	}{
		{name: "everything", want: []int64{toSmall.ID, toMedium.ID, inTransit.ID}},
		{name: "loading range", filter: service.TransactionFilter{LoadingFrom: &from, LoadingTo: &to}, want: []int64{toMedium.ID}},
		{name: "unloaded from", filter: service.TransactionFilter{UnloadingFrom: &from}, want: []int64{toSmall.ID, toMedium.ID}},
		{name: "sold", filter: service.TransactionFilter{Sold: &sold}, want: []int64{toSmall.ID}},
		{name: "unsold", filter: service.TransactionFilter{Sold: &unsold}, want: []int64{toMedium.ID, inTransit.ID}},
		{name: "unloading size", filter: service.TransactionFilter{UnloadingClientSizes: []model.ClientSize{model.SizeSmall}}, want: []int64{toSmall.ID}},
		{name: "loading size", filter: service.TransactionFilter{LoadingClientSizes: []model.ClientSize{model.SizeSmall}}, want: nil},
		{name: "unloading point", filter: service.TransactionFilter{UnloadingPointIDs: []int64{f.unloading.ID}}, want: []int64{toMedium.ID}},
		{name: "product and vehicle", filter: service.TransactionFilter{ProductIDs: []int64{f.product.ID}, VehicleIDs: []int64{f.vehicle.ID}}, want: []int64{toSmall.ID, toMedium.ID, inTransit.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.SearchTransactions(ctx, tt.filter, 1, 50)
			require.NoError(t, err)
			var ids []int64
			for _, txn := range page.Transactions {
				ids = append(ids, txn.ID)
			}
			assert.Equal(t, tt.want, ids)
			assert.Equal(t, len(tt.want), page.Total)
		})
	}

	t.Run("inverted range", func(t *testing.T) {
		_, err := store.SearchTransactions(ctx, service.TransactionFilter{LoadingFrom: &to, LoadingTo: &from}, 1, 10)
		assert.ErrorIs(t, err, ErrInvalidDateRange)
	})
}

func TestCreateTransactionBumpsUsage(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)

	require.NoError(t, store.CreateTransaction(ctx, f.unloaded("2024-03-01", "2024-03-02", "10")))
	require.NoError(t, store.CreateTransaction(ctx, f.inTransit("2024-03-05")))

	p, err := store.GetProduct(ctx, f.product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, p.FrequencyOfUse)

	lc, err := store.GetClient(ctx, f.loading.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, lc.FrequencyOfUse)

	uc, err := store.GetClient(ctx, f.unloading.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, uc.FrequencyOfUse)

	v, err := store.GetVehicle(ctx, f.vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, v.FrequencyOfUse)
}
