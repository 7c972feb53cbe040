package draft

import (
	"fmt"
	"time"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
)

// PayloadDateLayout is the date encoding used in payloads.
const PayloadDateLayout = "2006-01-02"

// Payload is the flat submission form of a draft handed to the data layer.
// Reference fields carry ids only; zero means unset.
type Payload struct {
	TransactionDate   string          `json:"transaction_date"`
	LoadingDate       string          `json:"loading_date"`
	UnloadingDate     string          `json:"unloading_date"`
	DONumber          string          `json:"do_number,omitempty"`
	ChallanNumber     string          `json:"challan_number,omitempty"`
	TransportExpense  decimal.Decimal `json:"transport_expense"`
	LoadingQuantity   decimal.Decimal `json:"loading_quantity"`
	LoadingRate       decimal.Decimal `json:"loading_rate"`
	UnloadingQuantity decimal.Decimal `json:"unloading_quantity"`
	UnloadingRate     decimal.Decimal `json:"unloading_rate"`
	LoadingCost       decimal.Decimal `json:"loading_cost"`
	UnloadingRevenue  decimal.Decimal `json:"unloading_revenue"`
	EstimatedProfit   decimal.Decimal `json:"estimated_profit"`
	ProfitMargin      decimal.Decimal `json:"profit_margin"`
	ID                int64           `json:"id,omitempty"`
	ProductID         int64           `json:"product_id"`
	LoadingPointID    int64           `json:"loading_point_id"`
	LoadingVehicleID  int64           `json:"loading_vehicle_id"`
	LoadingDriverID   int64           `json:"loading_driver_id,omitempty"`
	UnloadingPointID  int64           `json:"unloading_point_id"`
	UnloadingVehicle  int64           `json:"unloading_vehicle_id"`
	UnloadingDriverID int64           `json:"unloading_driver_id,omitempty"`
}

// Payload flattens the draft, including its computed fields.
func (d *Draft) Payload() Payload {
	sum := d.Summary()
	return Payload{
		ID:                d.EditingID,
		TransactionDate:   formatDate(d.TransactionDate),
		ProductID:         refID(d.Product),
		TransportExpense:  d.TransportExpense,
		DONumber:          d.DONumber,
		ChallanNumber:     d.ChallanNumber,
		LoadingPointID:    refID(d.Loading.Client),
		LoadingVehicleID:  refID(d.Loading.Vehicle),
		LoadingDriverID:   refID(d.Loading.Driver),
		LoadingDate:       formatDate(d.Loading.Date),
		LoadingQuantity:   d.Loading.Quantity,
		LoadingRate:       d.Loading.Rate,
		UnloadingPointID:  refID(d.Unloading.Client),
		UnloadingVehicle:  refID(d.Unloading.Vehicle),
		UnloadingDriverID: refID(d.Unloading.Driver),
		UnloadingDate:     formatDate(d.Unloading.Date),
		UnloadingQuantity: d.Unloading.Quantity,
		UnloadingRate:     d.Unloading.Rate,
		LoadingCost:       sum.LoadingCost,
		UnloadingRevenue:  sum.UnloadingRevenue,
		EstimatedProfit:   sum.EstimatedProfit,
		ProfitMargin:      sum.ProfitMargin,
	}
}

// FromPayload rebuilds a draft from a payload. Computed fields in the
// payload are ignored; they are always derived again.
func FromPayload(p Payload) (Draft, error) {
	d := Draft{
		EditingID:        p.ID,
		Product:          idRef(p.ProductID),
		TransportExpense: p.TransportExpense,
		DONumber:         p.DONumber,
		ChallanNumber:    p.ChallanNumber,
		Loading: LegDraft{
			Client:   idRef(p.LoadingPointID),
			Vehicle:  idRef(p.LoadingVehicleID),
			Driver:   idRef(p.LoadingDriverID),
			Quantity: p.LoadingQuantity,
			Rate:     p.LoadingRate,
		},
		Unloading: LegDraft{
			Client:   idRef(p.UnloadingPointID),
			Vehicle:  idRef(p.UnloadingVehicle),
			Driver:   idRef(p.UnloadingDriverID),
			Quantity: p.UnloadingQuantity,
			Rate:     p.UnloadingRate,
		},
	}

	var err error
	if d.TransactionDate, err = parseDate(p.TransactionDate); err != nil {
		return Draft{}, fmt.Errorf("transaction_date: %w", err)
	}
	if d.Loading.Date, err = parseDate(p.LoadingDate); err != nil {
		return Draft{}, fmt.Errorf("loading_date: %w", err)
	}
	if d.Unloading.Date, err = parseDate(p.UnloadingDate); err != nil {
		return Draft{}, fmt.Errorf("unloading_date: %w", err)
	}
	for _, amt := range []decimal.Decimal{d.TransportExpense, d.Loading.Quantity, d.Loading.Rate, d.Unloading.Quantity, d.Unloading.Rate} {
		if amt.IsNegative() {
			return Draft{}, fmt.Errorf("%w: amounts cannot be negative", ErrInvalidValue)
		}
	}
	return d, nil
}

func refID(r *model.Ref) int64 {
	if r == nil {
		return 0
	}
	return r.ID
}

func idRef(id int64) *model.Ref {
	if id <= 0 {
		return nil
	}
	return &model.Ref{ID: id}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(PayloadDateLayout)
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(PayloadDateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	return &t, nil
}
