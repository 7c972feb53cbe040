package draft

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/haulbook/internal/format"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
)

// Update errors.
var (
	ErrUnknownField = errors.New("unknown draft field")
	ErrInvalidValue = errors.New("invalid value for draft field")
)

// Field names one settable draft field.
type Field int

// Draft fields.
const (
	FieldTransactionDate Field = iota
	FieldProduct
	FieldTransportExpense
	FieldDONumber
	FieldChallanNumber
	FieldLoadingClient
	FieldLoadingVehicle
	FieldLoadingDriver
	FieldLoadingDate
	FieldLoadingQuantity
	FieldLoadingRate
	FieldUnloadingClient
	FieldUnloadingVehicle
	FieldUnloadingDriver
	FieldUnloadingDate
	FieldUnloadingQuantity
	FieldUnloadingRate
)

var fieldNames = map[Field]string{
	FieldTransactionDate:   "transaction_date",
	FieldProduct:           "product",
	FieldTransportExpense:  "transport_expense",
	FieldDONumber:          "do_number",
	FieldChallanNumber:     "challan_number",
	FieldLoadingClient:     "loading_client",
	FieldLoadingVehicle:    "loading_vehicle",
	FieldLoadingDriver:     "loading_driver",
	FieldLoadingDate:       "loading_date",
	FieldLoadingQuantity:   "loading_quantity",
	FieldLoadingRate:       "loading_rate",
	FieldUnloadingClient:   "unloading_client",
	FieldUnloadingVehicle:  "unloading_vehicle",
	FieldUnloadingDriver:   "unloading_driver",
	FieldUnloadingDate:     "unloading_date",
	FieldUnloadingQuantity: "unloading_quantity",
	FieldUnloadingRate:     "unloading_rate",
}

// String returns the snake_case name of the field.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(f))
}

// Section returns the form section the field belongs to.
func (f Field) Section() Section {
	switch {
	case f >= FieldUnloadingClient && f <= FieldUnloadingRate:
		return SectionUnloading
	case f >= FieldLoadingClient && f <= FieldLoadingRate:
		return SectionLoading
	default:
		return SectionDetails
	}
}

// Set assigns value to one field of the draft. References accept
// model.Ref, *model.Ref or nil; dates accept time.Time, *time.Time or nil;
// amounts accept decimal.Decimal, string, int or float64 and must not be
// negative; document numbers accept strings.
func (d *Draft) Set(field Field, value any) error {
	switch field {
	case FieldTransactionDate:
		return setDate(&d.TransactionDate, field, value)
	case FieldProduct:
		return setRef(&d.Product, field, value)
	case FieldTransportExpense:
		return setAmount(&d.TransportExpense, field, value)
	case FieldDONumber:
		return setString(&d.DONumber, field, value)
	case FieldChallanNumber:
		return setString(&d.ChallanNumber, field, value)
	case FieldLoadingClient:
		return setRef(&d.Loading.Client, field, value)
	case FieldLoadingVehicle:
		return setRef(&d.Loading.Vehicle, field, value)
	case FieldLoadingDriver:
		return setRef(&d.Loading.Driver, field, value)
	case FieldLoadingDate:
		return setDate(&d.Loading.Date, field, value)
	case FieldLoadingQuantity:
		return setAmount(&d.Loading.Quantity, field, value)
	case FieldLoadingRate:
		return setAmount(&d.Loading.Rate, field, value)
	case FieldUnloadingClient:
		return setRef(&d.Unloading.Client, field, value)
	case FieldUnloadingVehicle:
		return setRef(&d.Unloading.Vehicle, field, value)
	case FieldUnloadingDriver:
		return setRef(&d.Unloading.Driver, field, value)
	case FieldUnloadingDate:
		return setDate(&d.Unloading.Date, field, value)
	case FieldUnloadingQuantity:
		return setAmount(&d.Unloading.Quantity, field, value)
	case FieldUnloadingRate:
		return setAmount(&d.Unloading.Rate, field, value)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownField, int(field))
	}
}

func setRef(dst **model.Ref, field Field, value any) error {
	switch v := value.(type) {
	case nil:
		*dst = nil
	case model.Ref:
		if v.ID == 0 {
			*dst = nil
			return nil
		}
		*dst = &v
	case *model.Ref:
		if v == nil || v.ID == 0 {
			*dst = nil
			return nil
		}
		ref := *v
		*dst = &ref
	default:
		return fmt.Errorf("%w: %s wants a reference, got %T", ErrInvalidValue, field, value)
	}
	return nil
}

func setDate(dst **time.Time, field Field, value any) error {
	switch v := value.(type) {
	case nil:
		*dst = nil
	case time.Time:
		if v.IsZero() {
			*dst = nil
			return nil
		}
		*dst = &v
	case *time.Time:
		if v == nil || v.IsZero() {
			*dst = nil
			return nil
		}
		t := *v
		*dst = &t
	default:
		return fmt.Errorf("%w: %s wants a date, got %T", ErrInvalidValue, field, value)
	}
	return nil
}

func setAmount(dst *decimal.Decimal, field Field, value any) error {
	var d decimal.Decimal
	switch v := value.(type) {
	case decimal.Decimal:
		d = v
	case string:
		parsed, err := format.ParseDecimal(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidValue, field, err)
		}
		d = parsed
	case int:
		d = decimal.NewFromInt(int64(v))
	case int64:
		d = decimal.NewFromInt(v)
	case float64:
		d = decimal.NewFromFloat(v)
	case nil:
		d = decimal.Zero
	default:
		return fmt.Errorf("%w: %s wants a number, got %T", ErrInvalidValue, field, value)
	}
	if d.IsNegative() {
		return fmt.Errorf("%w: %s cannot be negative", ErrInvalidValue, field)
	}
	*dst = d
	return nil
}

func setString(dst *string, field Field, value any) error {
	switch v := value.(type) {
	case nil:
		*dst = ""
	case string:
		*dst = v
	default:
		return fmt.Errorf("%w: %s wants text, got %T", ErrInvalidValue, field, value)
	}
	return nil
}
