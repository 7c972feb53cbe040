package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the derived state of a transaction.
type Status string

// Transaction statuses.
const (
	StatusInTransit Status = "In Transit"
	StatusUnloaded  Status = "Unloaded"
	StatusCompleted Status = "Completed"
)

// Leg is one side of a trip: where, with what, by whom, when, how much and at what rate.
type Leg struct {
	Date     time.Time        `json:"date"`
	Driver   *Ref             `json:"driver,omitempty"`
	Quantity *decimal.Decimal `json:"quantity,omitempty"`
	Rate     *decimal.Decimal `json:"rate,omitempty"`
	Client   Ref              `json:"client"`
	Vehicle  Ref              `json:"vehicle"`
}

// Transaction is a persisted buy/sell record. The unloading leg is nil
// while the load is still on the road.
type Transaction struct {
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Unloading        *Leg             `json:"unloading,omitempty"`
	TransportExpense *decimal.Decimal `json:"transport_expense,omitempty"`
	ProductUnit      string           `json:"product_unit,omitempty"`
	DONumber         string           `json:"do_number,omitempty"`
	ChallanNumber    string           `json:"challan_number,omitempty"`
	Product          Ref              `json:"product"`
	Loading          Leg              `json:"loading"`
	ID               int64            `json:"id"`
	IsSold           bool             `json:"is_sold"`
}

// Status derives the transaction state from the sold flag and whether an
// unloading quantity has been recorded. It is never stored.
func (t *Transaction) Status() Status {
	if t.IsSold {
		return StatusCompleted
	}
	if t.UnloadingQuantity() != nil {
		return StatusUnloaded
	}
	return StatusInTransit
}

// UnloadingQuantity returns the unloaded quantity or nil.
func (t *Transaction) UnloadingQuantity() *decimal.Decimal {
	if t.Unloading == nil {
		return nil
	}
	return t.Unloading.Quantity
}

// UnloadingDate returns the unloading date or nil when not unloaded.
func (t *Transaction) UnloadingDate() *time.Time {
	if t.Unloading == nil || t.Unloading.Date.IsZero() {
		return nil
	}
	d := t.Unloading.Date
	return &d
}

// LoadingPrice is loading quantity times loading rate, or nil when either is missing.
func (t *Transaction) LoadingPrice() *decimal.Decimal {
	return legPrice(&t.Loading)
}

// UnloadingPrice is unloading quantity times unloading rate, or nil.
func (t *Transaction) UnloadingPrice() *decimal.Decimal {
	if t.Unloading == nil {
		return nil
	}
	return legPrice(t.Unloading)
}

// QuantityDiscrepancy is the quantity lost between loading and unloading.
// It is zero when nothing has been unloaded yet.
func (t *Transaction) QuantityDiscrepancy() decimal.Decimal {
	uq := t.UnloadingQuantity()
	if uq == nil || t.Loading.Quantity == nil {
		return decimal.Zero
	}
	return t.Loading.Quantity.Sub(*uq)
}

func legPrice(l *Leg) *decimal.Decimal {
	if l.Quantity == nil || l.Rate == nil {
		return nil
	}
	p := l.Quantity.Mul(*l.Rate)
	return &p
}
