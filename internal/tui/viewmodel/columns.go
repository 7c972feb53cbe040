package viewmodel

import (
	"fmt"
	"strings"
)

// ColumnKey identifies one column of the transaction table.
type ColumnKey int

// Table columns in canonical display order.
const (
	ColumnTransactionID ColumnKey = iota
	ColumnLoadingDate
	ColumnUnloadingDate
	ColumnProduct
	ColumnLoadingPoint
	ColumnUnloadingPoint
	ColumnLoadingRate
	ColumnLoadingQuantity
	ColumnUnloadingRate
	ColumnUnloadingQuantity
	ColumnLoadingPrice
	ColumnUnloadingPrice
	ColumnStatus
	ColumnVehicle
	ColumnDONumber
	ColumnChallanNumber
	ColumnLoadingDriver
	ColumnUnloadingDriver
	ColumnTransportExpense

	columnCount
)

var columnKeys = [columnCount]string{
	"transaction_id",
	"loading_date",
	"unloading_date",
	"product",
	"loading_point",
	"unloading_point",
	"loading_rate",
	"loading_quantity",
	"unloading_rate",
	"unloading_quantity",
	"loading_price",
	"unloading_price",
	"status",
	"vehicle",
	"do_number",
	"challan_number",
	"loading_driver",
	"unloading_driver",
	"transport_expense",
}

var columnTitles = [columnCount]string{
	"ID",
	"Loading Date",
	"Unloading Date",
	"Product",
	"Loading Point",
	"Unloading Point",
	"Loading Rate",
	"Loading Qty",
	"Unloading Rate",
	"Unloading Qty",
	"Loading Price",
	"Unloading Price",
	"Status",
	"Vehicle",
	"DO Number",
	"Challan Number",
	"Loading Driver",
	"Unloading Driver",
	"Transport Expense",
}

// AllColumns returns every column key in canonical order.
func AllColumns() []ColumnKey {
	cols := make([]ColumnKey, columnCount)
	for i := range cols {
		cols[i] = ColumnKey(i)
	}
	return cols
}

// Valid reports whether k is a known column.
func (k ColumnKey) Valid() bool {
	return k >= 0 && k < columnCount
}

// String returns the persisted key of the column.
func (k ColumnKey) String() string {
	if !k.Valid() {
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
	return columnKeys[k]
}

// Title returns the column header.
func (k ColumnKey) Title() string {
	if !k.Valid() {
		return ""
	}
	return columnTitles[k]
}

// ParseColumnKey resolves a persisted key such as "loading_date".
func ParseColumnKey(s string) (ColumnKey, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, key := range columnKeys {
		if key == s {
			return ColumnKey(i), nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", s)
}
