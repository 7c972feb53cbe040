package viewmodel

import (
	"fmt"
	"strings"
)

// SortField represents the field to sort by.
type SortField int

const (
	// SortByID sorts by transaction id.
	SortByID SortField = iota
	// SortByLoadingDate sorts by loading date.
	SortByLoadingDate
	// SortByUnloadingDate sorts by unloading date.
	SortByUnloadingDate
	// SortByProductName sorts by product name, ignoring case.
	SortByProductName
	// SortByLoadingQuantity sorts by loading quantity.
	SortByLoadingQuantity
	// SortByUnloadingQuantity sorts by unloading quantity.
	SortByUnloadingQuantity
	// SortByTransportExpense sorts by transport expense.
	SortByTransportExpense
)

var sortFieldNames = []string{
	"id",
	"loading_date",
	"unloading_date",
	"product_name",
	"loading_quantity",
	"unloading_quantity",
	"transport_expense",
}

// SortFields returns every sortable field in cycling order.
func SortFields() []SortField {
	fields := make([]SortField, len(sortFieldNames))
	for i := range fields {
		fields[i] = SortField(i)
	}
	return fields
}

// ParseSortField resolves a field name such as "product_name".
func ParseSortField(s string) (SortField, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range sortFieldNames {
		if name == s {
			return SortField(i), nil
		}
	}
	return 0, fmt.Errorf("unknown sort field %q", s)
}

// SortOrder represents sort direction.
type SortOrder int

const (
	// SortAscending sorts in ascending order.
	SortAscending SortOrder = iota
	// SortDescending sorts in descending order.
	SortDescending
)

// SortConfig is the active visible-page sort.
type SortConfig struct {
	Field SortField
	Order SortOrder
}

// Flip returns the opposite order.
func (o SortOrder) Flip() SortOrder {
	if o == SortAscending {
		return SortDescending
	}
	return SortAscending
}

// Arrow is the header indicator for the order.
func (o SortOrder) Arrow() string {
	if o == SortDescending {
		return "↓"
	}
	return "↑"
}
