package viewmodel

import (
	"encoding/json"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/haulbook/internal/format"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
)

// DefaultPageSize is used when no pagination preference is stored.
const DefaultPageSize = 7

// Placeholders rendered for values a record does not have.
const (
	PlaceholderNotUnloaded = "Not unloaded"
	PlaceholderNotSet      = "Not set"
	PlaceholderMissing     = "-"
	PlaceholderNoDocument  = "N/A"
)

// Cell is one projected column value.
type Cell struct {
	Value string
	Key   ColumnKey
}

// RenderableRow is a record projected onto the visible columns, in
// canonical column order.
type RenderableRow struct {
	Cells []Cell
	ID    int64
}

// Values returns the cell values in order.
func (r RenderableRow) Values() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Value
	}
	return out
}

// Get returns the value projected for key, if the column is present.
func (r RenderableRow) Get(key ColumnKey) (string, bool) {
	for _, c := range r.Cells {
		if c.Key == key {
			return c.Value, true
		}
	}
	return "", false
}

// TableOption configures a TransactionTable.
type TableOption func(*TransactionTable)

// WithDefaultPageSize sets the page size used when none is stored.
func WithDefaultPageSize(n int) TableOption {
	return func(t *TransactionTable) {
		if n > 0 {
			t.defaultPageSize = n
		}
	}
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) TableOption {
	return func(t *TransactionTable) {
		if l != nil {
			t.logger = l
		}
	}
}

// TransactionTable turns a fetched page of transactions into the rows to
// render. Sorting only reorders the page it is given; it never reaches the
// rest of the data set.
type TransactionTable struct {
	store           PreferenceStore
	logger          *slog.Logger
	visible         map[ColumnKey]bool
	sort            SortConfig
	pagination      Pagination
	defaultPageSize int
}

// NewTransactionTable reads the stored column and pagination preferences
// once. A nil store disables persistence.
func NewTransactionTable(store PreferenceStore, opts ...TableOption) *TransactionTable {
	t := &TransactionTable{
		store:           store,
		logger:          slog.Default(),
		defaultPageSize: DefaultPageSize,
		sort:            SortConfig{Field: SortByLoadingDate, Order: SortDescending},
	}
	for _, opt := range opts {
		opt(t)
	}

	var rawColumns, rawPagination string
	if store != nil {
		rawColumns, _ = store.Get(ColumnsPreferenceKey)
		rawPagination, _ = store.Get(PaginationPreferenceKey)
	}
	t.visible = decodeColumns(rawColumns)
	t.pagination = decodePagination(rawPagination, t.defaultPageSize)
	return t
}

// IsVisible reports whether a column is shown.
func (t *TransactionTable) IsVisible(key ColumnKey) bool {
	return t.visible[key]
}

// VisibleColumns returns the shown columns in canonical order.
func (t *TransactionTable) VisibleColumns() []ColumnKey {
	var cols []ColumnKey
	for _, k := range AllColumns() {
		if t.visible[k] {
			cols = append(cols, k)
		}
	}
	return cols
}

// SetColumnVisibility shows or hides a column and persists the change.
func (t *TransactionTable) SetColumnVisibility(key ColumnKey, visible bool) {
	if !key.Valid() {
		return
	}
	t.visible[key] = visible
	t.persistColumns()
}

// ToggleColumn flips the visibility of a column.
func (t *TransactionTable) ToggleColumn(key ColumnKey) {
	t.SetColumnVisibility(key, !t.visible[key])
}

// ShowAllColumns resets every column to shown.
func (t *TransactionTable) ShowAllColumns() {
	for _, k := range AllColumns() {
		t.visible[k] = true
	}
	t.persistColumns()
}

// SortConfig returns the active sort.
func (t *TransactionTable) SortConfig() SortConfig {
	return t.sort
}

// SetSort selects a sort field. Selecting the active field flips the
// order; a new field starts ascending.
func (t *TransactionTable) SetSort(field SortField) {
	if field == t.sort.Field {
		t.sort.Order = t.sort.Order.Flip()
		return
	}
	t.sort = SortConfig{Field: field, Order: SortAscending}
}

// Sort returns a copy of the page ordered by the active sort. Missing
// values sort before present ones in ascending order. The sort is stable.
func (t *TransactionTable) Sort(records []model.Transaction) []model.Transaction {
	out := make([]model.Transaction, len(records))
	copy(out, records)

	cfg := t.sort
	sort.SliceStable(out, func(i, j int) bool {
		c := compareBy(cfg.Field, &out[i], &out[j])
		if cfg.Order == SortDescending {
			return c > 0
		}
		return c < 0
	})
	return out
}

// Pagination returns the current paging preference.
func (t *TransactionTable) Pagination() Pagination {
	return t.pagination
}

// SetPage moves to page n (minimum 1) and persists the preference.
func (t *TransactionTable) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	t.pagination.Page = n
	t.persistPagination()
}

// SetPageSize changes the page size, returns to page 1 and persists.
func (t *TransactionTable) SetPageSize(n int) {
	if n < 1 {
		n = 1
	}
	t.pagination = Pagination{Page: 1, PageSize: n}
	t.persistPagination()
}

// Headers returns the titles of the visible columns.
func (t *TransactionTable) Headers() []string {
	cols := t.VisibleColumns()
	headers := make([]string, len(cols))
	for i, k := range cols {
		headers[i] = k.Title()
	}
	return headers
}

// Rows projects records in the order given.
func (t *TransactionTable) Rows(records []model.Transaction) [][]string {
	rows := make([][]string, len(records))
	for i := range records {
		rows[i] = t.ProjectRow(&records[i]).Values()
	}
	return rows
}

// ProjectRow formats the visible columns of one record. Hidden columns
// are omitted, not blanked.
func (t *TransactionTable) ProjectRow(rec *model.Transaction) RenderableRow {
	row := RenderableRow{ID: rec.ID}
	for _, k := range AllColumns() {
		if !t.visible[k] {
			continue
		}
		row.Cells = append(row.Cells, Cell{Key: k, Value: columnValue(k, rec)})
	}
	return row
}

// ComputeStatus derives the status of a record.
func ComputeStatus(rec *model.Transaction) model.Status {
	return rec.Status()
}

func (t *TransactionTable) persistColumns() {
	if t.store == nil {
		return
	}
	raw, err := encodeColumns(t.visible)
	if err != nil {
		t.logger.Warn("failed to encode column preferences", "error", err)
		return
	}
	if err := t.store.Set(ColumnsPreferenceKey, raw); err != nil {
		t.logger.Warn("failed to persist column preferences", "error", err)
	}
}

func (t *TransactionTable) persistPagination() {
	if t.store == nil {
		return
	}
	raw, err := json.Marshal(t.pagination)
	if err != nil {
		t.logger.Warn("failed to encode pagination preference", "error", err)
		return
	}
	if err := t.store.Set(PaginationPreferenceKey, string(raw)); err != nil {
		t.logger.Warn("failed to persist pagination preference", "error", err)
	}
}

func columnValue(k ColumnKey, rec *model.Transaction) string {
	unit := rec.ProductUnit
	switch k {
	case ColumnTransactionID:
		return strconv.FormatInt(rec.ID, 10)
	case ColumnLoadingDate:
		return format.Date(rec.Loading.Date)
	case ColumnUnloadingDate:
		if d := rec.UnloadingDate(); d != nil {
			return format.Date(*d)
		}
		return PlaceholderNotUnloaded
	case ColumnProduct:
		return orMissing(rec.Product.Name)
	case ColumnLoadingPoint:
		return orMissing(rec.Loading.Client.Name)
	case ColumnUnloadingPoint:
		if rec.Unloading == nil || rec.Unloading.Client.Name == "" {
			return PlaceholderNotSet
		}
		return rec.Unloading.Client.Name
	case ColumnLoadingRate:
		return currencyOrMissing(rec.Loading.Rate)
	case ColumnLoadingQuantity:
		return quantityOrMissing(rec.Loading.Quantity, unit)
	case ColumnUnloadingRate:
		if rec.Unloading == nil {
			return PlaceholderMissing
		}
		return currencyOrMissing(rec.Unloading.Rate)
	case ColumnUnloadingQuantity:
		return quantityOrMissing(rec.UnloadingQuantity(), unit)
	case ColumnLoadingPrice:
		return currencyOrMissing(rec.LoadingPrice())
	case ColumnUnloadingPrice:
		return currencyOrMissing(rec.UnloadingPrice())
	case ColumnStatus:
		return string(ComputeStatus(rec))
	case ColumnVehicle:
		return orMissing(rec.Loading.Vehicle.Name)
	case ColumnDONumber:
		return orDocument(rec.DONumber)
	case ColumnChallanNumber:
		return orDocument(rec.ChallanNumber)
	case ColumnLoadingDriver:
		return driverName(rec.Loading.Driver)
	case ColumnUnloadingDriver:
		if rec.Unloading == nil {
			return PlaceholderMissing
		}
		return driverName(rec.Unloading.Driver)
	case ColumnTransportExpense:
		return currencyOrMissing(rec.TransportExpense)
	default:
		return ""
	}
}

func orMissing(s string) string {
	if s == "" {
		return PlaceholderMissing
	}
	return s
}

func orDocument(s string) string {
	if strings.TrimSpace(s) == "" {
		return PlaceholderNoDocument
	}
	return s
}

func driverName(r *model.Ref) string {
	if r == nil {
		return PlaceholderMissing
	}
	return orMissing(r.Name)
}

func currencyOrMissing(d *decimal.Decimal) string {
	if d == nil {
		return PlaceholderMissing
	}
	return format.Currency(*d)
}

func quantityOrMissing(d *decimal.Decimal, unit string) string {
	if d == nil {
		return PlaceholderMissing
	}
	return format.Quantity(*d, unit)
}

// compareBy orders two records on one field. A missing value is less than
// any present value; two missing values are equal.
func compareBy(field SortField, a, b *model.Transaction) int {
	switch field {
	case SortByID:
		return compareInt(a.ID, b.ID)
	case SortByLoadingDate:
		return compareTime(&a.Loading.Date, &b.Loading.Date)
	case SortByUnloadingDate:
		return compareTime(a.UnloadingDate(), b.UnloadingDate())
	case SortByProductName:
		return strings.Compare(strings.ToLower(a.Product.Name), strings.ToLower(b.Product.Name))
	case SortByLoadingQuantity:
		return compareDecimal(a.Loading.Quantity, b.Loading.Quantity)
	case SortByUnloadingQuantity:
		return compareDecimal(a.UnloadingQuantity(), b.UnloadingQuantity())
	case SortByTransportExpense:
		return compareDecimal(a.TransportExpense, b.TransportExpense)
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Compare(*b)
	}
}

func compareDecimal(a, b *decimal.Decimal) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return a.Cmp(*b)
	}
}
