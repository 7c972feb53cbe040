package viewmodel

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func sampleTransaction() model.Transaction {
	return model.Transaction{
		ID:               7,
		Product:          model.Ref{ID: 1, Name: "Cement"},
		ProductUnit:      "MT",
		DONumber:         "DO-42",
		TransportExpense: decPtr("200"),
		Loading: model.Leg{
			Date:     day(10),
			Client:   model.Ref{ID: 2, Name: "Plant A"},
			Vehicle:  model.Ref{ID: 3, Name: "MH12AB1234"},
			Driver:   &model.Ref{ID: 4, Name: "Ravi"},
			Quantity: decPtr("100"),
			Rate:     decPtr("20"),
		},
		Unloading: &model.Leg{
			Date:     day(12),
			Client:   model.Ref{ID: 5, Name: "Site B"},
			Vehicle:  model.Ref{ID: 3, Name: "MH12AB1234"},
			Quantity: decPtr("95"),
			Rate:     decPtr("25"),
		},
	}
}

func ids(records []model.Transaction) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestNewTransactionTable_Defaults(t *testing.T) {
	table := NewTransactionTable(NewMemoryPreferences())

	assert.Len(t, table.VisibleColumns(), len(AllColumns()))
	assert.Equal(t, Pagination{Page: 1, PageSize: DefaultPageSize}, table.Pagination())
	assert.Equal(t, SortConfig{Field: SortByLoadingDate, Order: SortDescending}, table.SortConfig())
}

func TestNewTransactionTable_StoredPreferences(t *testing.T) {
	tests := []struct {
		name       string
		columns    string
		pagination string
		wantHidden []ColumnKey
		wantPage   Pagination
	}{
		{
			name:       "valid values",
			columns:    `{"vehicle":"hide","status":"show"}`,
			pagination: `{"page":3,"pageSize":20}`,
			wantHidden: []ColumnKey{ColumnVehicle},
			wantPage:   Pagination{Page: 3, PageSize: 20},
		},
		{
			name:       "unknown column keys ignored",
			columns:    `{"colour":"hide","do_number":"hide"}`,
			wantHidden: []ColumnKey{ColumnDONumber},
			wantPage:   Pagination{Page: 1, PageSize: DefaultPageSize},
		},
		{
			name:       "malformed values fall back",
			columns:    `not json`,
			pagination: `{"page":`,
			wantPage:   Pagination{Page: 1, PageSize: DefaultPageSize},
		},
		{
			name:       "nonsense pagination numbers ignored",
			pagination: `{"page":0,"pageSize":-4}`,
			wantPage:   Pagination{Page: 1, PageSize: DefaultPageSize},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewMemoryPreferences()
			if tt.columns != "" {
				require.NoError(t, store.Set(ColumnsPreferenceKey, tt.columns))
			}
			if tt.pagination != "" {
				require.NoError(t, store.Set(PaginationPreferenceKey, tt.pagination))
			}

			table := NewTransactionTable(store)
			for _, k := range AllColumns() {
				hidden := false
				for _, h := range tt.wantHidden {
					if h == k {
						hidden = true
					}
				}
				assert.Equal(t, !hidden, table.IsVisible(k), k.String())
			}
			assert.Equal(t, tt.wantPage, table.Pagination())
		})
	}
}

func TestWithDefaultPageSize(t *testing.T) {
	table := NewTransactionTable(nil, WithDefaultPageSize(25))
	assert.Equal(t, 25, table.Pagination().PageSize)
}

func TestSetColumnVisibility_PersistsAcrossReload(t *testing.T) {
	store := NewMemoryPreferences()
	table := NewTransactionTable(store)
	rec := sampleTransaction()

	table.SetColumnVisibility(ColumnTransactionID, false)

	_, ok := table.ProjectRow(&rec).Get(ColumnTransactionID)
	assert.False(t, ok)

	raw, ok := store.Get(ColumnsPreferenceKey)
	require.True(t, ok)
	var stored map[string]string
	require.NoError(t, json.Unmarshal([]byte(raw), &stored))
	assert.Equal(t, VisibilityHide, stored["transaction_id"])

	reloaded := NewTransactionTable(store)
	other := sampleTransaction()
	other.ID = 99
	for _, r := range []model.Transaction{rec, other} {
		row := reloaded.ProjectRow(&r)
		_, ok := row.Get(ColumnTransactionID)
		assert.False(t, ok)
		assert.Len(t, row.Cells, len(AllColumns())-1)
	}
}

func TestSetColumnVisibility_PersistenceFailureIsSilent(t *testing.T) {
	store := NewMemoryPreferences()
	store.Err = errors.New("disk full")
	table := NewTransactionTable(store)

	table.SetColumnVisibility(ColumnStatus, false)
	assert.False(t, table.IsVisible(ColumnStatus))

	store.Err = nil
	_, ok := store.Get(ColumnsPreferenceKey)
	assert.False(t, ok)
}

func TestProjectRow_OnlyProduct(t *testing.T) {
	store := NewMemoryPreferences()
	table := NewTransactionTable(store)
	for _, k := range AllColumns() {
		table.SetColumnVisibility(k, k == ColumnProduct)
	}
	table.SetColumnVisibility(ColumnTransactionID, false)

	rec := sampleTransaction()
	row := table.ProjectRow(&rec)

	require.Len(t, row.Cells, 1)
	assert.Equal(t, Cell{Key: ColumnProduct, Value: "Cement"}, row.Cells[0])
	assert.Equal(t, []string{"Product"}, table.Headers())
}

func TestProjectRow_Formatting(t *testing.T) {
	table := NewTransactionTable(nil)
	rec := sampleTransaction()
	row := table.ProjectRow(&rec)

	want := map[ColumnKey]string{
		ColumnTransactionID:     "7",
		ColumnLoadingDate:       "Jan 10, 2024",
		ColumnUnloadingDate:     "Jan 12, 2024",
		ColumnProduct:           "Cement",
		ColumnLoadingPoint:      "Plant A",
		ColumnUnloadingPoint:    "Site B",
		ColumnLoadingRate:       "₹20.00",
		ColumnLoadingQuantity:   "100.00 MT",
		ColumnUnloadingRate:     "₹25.00",
		ColumnUnloadingQuantity: "95.00 MT",
		ColumnLoadingPrice:      "₹2,000.00",
		ColumnUnloadingPrice:    "₹2,375.00",
		ColumnStatus:            "Unloaded",
		ColumnVehicle:           "MH12AB1234",
		ColumnDONumber:          "DO-42",
		ColumnChallanNumber:     "N/A",
		ColumnLoadingDriver:     "Ravi",
		ColumnUnloadingDriver:   "-",
		ColumnTransportExpense:  "₹200.00",
	}

	require.Len(t, row.Cells, len(want))
	for i, c := range row.Cells {
		assert.Equal(t, ColumnKey(i), c.Key, "canonical order")
		assert.Equal(t, want[c.Key], c.Value, c.Key.String())
	}
}

func TestProjectRow_InTransitPlaceholders(t *testing.T) {
	table := NewTransactionTable(nil)
	rec := sampleTransaction()
	rec.Unloading = nil
	rec.TransportExpense = nil
	row := table.ProjectRow(&rec)

	get := func(k ColumnKey) string {
		v, ok := row.Get(k)
		require.True(t, ok)
		return v
	}
	assert.Equal(t, PlaceholderNotUnloaded, get(ColumnUnloadingDate))
	assert.Equal(t, PlaceholderNotSet, get(ColumnUnloadingPoint))
	assert.Equal(t, PlaceholderMissing, get(ColumnUnloadingQuantity))
	assert.Equal(t, PlaceholderMissing, get(ColumnUnloadingRate))
	assert.Equal(t, PlaceholderMissing, get(ColumnUnloadingPrice))
	assert.Equal(t, PlaceholderMissing, get(ColumnUnloadingDriver))
	assert.Equal(t, PlaceholderMissing, get(ColumnTransportExpense))
	assert.Equal(t, "In Transit", get(ColumnStatus))
}

func TestComputeStatus(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Transaction)
		want   model.Status
	}{
		{"unloaded", func(*model.Transaction) {}, model.StatusUnloaded},
		{"sold", func(r *model.Transaction) { r.IsSold = true }, model.StatusCompleted},
		{"sold while in transit", func(r *model.Transaction) { r.IsSold = true; r.Unloading = nil }, model.StatusCompleted},
		{"in transit", func(r *model.Transaction) { r.Unloading = nil }, model.StatusInTransit},
		{"unloading without quantity", func(r *model.Transaction) { r.Unloading.Quantity = nil }, model.StatusInTransit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := sampleTransaction()
			tt.mutate(&rec)
			assert.Equal(t, tt.want, ComputeStatus(&rec))
		})
	}
}

func TestSetSort(t *testing.T) {
	t.Run("same field twice flips", func(t *testing.T) {
		table := NewTransactionTable(nil)
		table.SetSort(SortByID)
		first := table.SortConfig()
		table.SetSort(SortByID)
		second := table.SortConfig()

		assert.Equal(t, SortByID, first.Field)
		assert.Equal(t, SortByID, second.Field)
		assert.NotEqual(t, first.Order, second.Order)
	})

	t.Run("loading date toggles then product adopts ascending", func(t *testing.T) {
		table := NewTransactionTable(nil)
		table.SetSort(SortByLoadingDate)
		first := table.SortConfig().Order
		table.SetSort(SortByLoadingDate)
		second := table.SortConfig().Order
		assert.NotEqual(t, first, second)

		table.SetSort(SortByProductName)
		assert.Equal(t, SortConfig{Field: SortByProductName, Order: SortAscending}, table.SortConfig())
	})

	t.Run("sorting by id yields opposite orders", func(t *testing.T) {
		table := NewTransactionTable(nil)
		page := []model.Transaction{{ID: 2}, {ID: 3}, {ID: 1}}

		table.SetSort(SortByID)
		asc := ids(table.Sort(page))
		table.SetSort(SortByID)
		desc := ids(table.Sort(page))

		assert.Equal(t, []int64{1, 2, 3}, asc)
		assert.Equal(t, []int64{3, 2, 1}, desc)
		assert.Equal(t, []int64{2, 3, 1}, ids(page), "input page untouched")
	})
}

func TestSort_MissingValues(t *testing.T) {
	withQty := sampleTransaction()
	withQty.ID = 1
	withQty.Unloading.Quantity = decPtr("10.5")

	noQty := sampleTransaction()
	noQty.ID = 2
	noQty.Unloading = nil

	page := []model.Transaction{withQty, noQty}
	table := NewTransactionTable(nil)

	table.SetSort(SortByUnloadingQuantity)
	require.Equal(t, SortAscending, table.SortConfig().Order)
	assert.Equal(t, []int64{2, 1}, ids(table.Sort(page)), "missing sorts first ascending")

	table.SetSort(SortByUnloadingQuantity)
	assert.Equal(t, []int64{1, 2}, ids(table.Sort(page)), "missing sorts last descending")

	table.SetSort(SortByUnloadingDate)
	assert.Equal(t, []int64{2, 1}, ids(table.Sort(page)))
}

func TestSort_Fields(t *testing.T) {
	a := sampleTransaction()
	a.ID = 1
	a.Product.Name = "sand"
	a.Loading.Date = day(5)
	a.Loading.Quantity = decPtr("30")
	a.TransportExpense = decPtr("50")

	b := sampleTransaction()
	b.ID = 2
	b.Product.Name = "Cement"
	b.Loading.Date = day(9)
	b.Loading.Quantity = decPtr("5")
	b.TransportExpense = nil

	c := sampleTransaction()
	c.ID = 3
	c.Product.Name = "Gravel"
	c.Loading.Date = day(1)
	c.Loading.Quantity = decPtr("12.25")
	c.TransportExpense = decPtr("10")

	page := []model.Transaction{a, b, c}

	tests := []struct {
		field SortField
		want  []int64
	}{
		{SortByProductName, []int64{2, 3, 1}},
		{SortByLoadingDate, []int64{3, 1, 2}},
		{SortByLoadingQuantity, []int64{2, 3, 1}},
		{SortByTransportExpense, []int64{2, 3, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			table := NewTransactionTable(nil)
			table.SetSort(SortByID)
			table.SetSort(tt.field)
			if tt.field == SortByLoadingDate {
				// loading_date is the initial field; from id it starts ascending.
				require.Equal(t, SortAscending, table.SortConfig().Order)
			}
			assert.Equal(t, tt.want, ids(table.Sort(page)))
		})
	}
}

func TestSort_StableOnTies(t *testing.T) {
	page := []model.Transaction{
		{ID: 5, Product: model.Ref{Name: "Coal"}},
		{ID: 3, Product: model.Ref{Name: "coal"}},
		{ID: 9, Product: model.Ref{Name: "Ash"}},
		{ID: 1, Product: model.Ref{Name: "COAL"}},
	}
	table := NewTransactionTable(nil)
	table.SetSort(SortByProductName)
	assert.Equal(t, []int64{9, 5, 3, 1}, ids(table.Sort(page)))

	table.SetSort(SortByProductName)
	assert.Equal(t, []int64{5, 3, 1, 9}, ids(table.Sort(page)))
}

func TestPagination(t *testing.T) {
	store := NewMemoryPreferences()
	table := NewTransactionTable(store)

	table.SetPage(4)
	assert.Equal(t, Pagination{Page: 4, PageSize: DefaultPageSize}, table.Pagination())

	table.SetPageSize(20)
	assert.Equal(t, Pagination{Page: 1, PageSize: 20}, table.Pagination())

	table.SetPage(0)
	assert.Equal(t, 1, table.Pagination().Page)

	table.SetPage(2)
	reloaded := NewTransactionTable(store)
	assert.Equal(t, Pagination{Page: 2, PageSize: 20}, reloaded.Pagination())
}

func TestRows(t *testing.T) {
	table := NewTransactionTable(nil)
	for _, k := range AllColumns() {
		table.SetColumnVisibility(k, k == ColumnTransactionID || k == ColumnStatus)
	}
	a := sampleTransaction()
	b := sampleTransaction()
	b.ID = 8
	b.IsSold = true

	assert.Equal(t, []string{"ID", "Status"}, table.Headers())
	assert.Equal(t, [][]string{{"7", "Unloaded"}, {"8", "Completed"}}, table.Rows([]model.Transaction{a, b}))
}
