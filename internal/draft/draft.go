// Package draft holds an in-progress transaction entry, derives its
// financial summary and gates submission behind ordered validation.
package draft

import (
	"time"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Section is the form section (tab) a field lives in.
type Section string

// Form sections in display order.
const (
	SectionDetails   Section = "details"
	SectionLoading   Section = "loading"
	SectionUnloading Section = "unloading"
)

// LegDraft is the editable half of a trip.
type LegDraft struct {
	Client   *model.Ref
	Vehicle  *model.Ref
	Driver   *model.Ref
	Date     *time.Time
	Quantity decimal.Decimal
	Rate     decimal.Decimal
}

// Draft is a transaction being composed. A nil reference or date means the
// user has not chosen one yet.
type Draft struct {
	TransactionDate  *time.Time
	Product          *model.Ref
	ProductUnit      string
	DONumber         string
	ChallanNumber    string
	Unloading        LegDraft
	Loading          LegDraft
	TransportExpense decimal.Decimal
	// EditingID is the id of the persisted transaction being edited, 0 for a new one.
	EditingID int64
}

// Summary is the derived financial view of a draft.
type Summary struct {
	LoadingCost      decimal.Decimal
	UnloadingRevenue decimal.Decimal
	EstimatedProfit  decimal.Decimal
	ProfitMargin     decimal.Decimal
}

// LoadingCost is loading quantity times loading rate.
func (d *Draft) LoadingCost() decimal.Decimal {
	return d.Loading.Quantity.Mul(d.Loading.Rate)
}

// UnloadingRevenue is unloading quantity times unloading rate.
func (d *Draft) UnloadingRevenue() decimal.Decimal {
	return d.Unloading.Quantity.Mul(d.Unloading.Rate)
}

// EstimatedProfit is revenue minus cost minus transport expense.
func (d *Draft) EstimatedProfit() decimal.Decimal {
	return d.UnloadingRevenue().Sub(d.LoadingCost()).Sub(d.TransportExpense)
}

// ProfitMargin is profit as a percentage of revenue, 0 when there is no revenue.
func (d *Draft) ProfitMargin() decimal.Decimal {
	revenue := d.UnloadingRevenue()
	if revenue.IsZero() {
		return decimal.Zero
	}
	return d.EstimatedProfit().Div(revenue).Mul(hundred)
}

// Summary computes every derived field from the current values.
func (d *Draft) Summary() Summary {
	return Summary{
		LoadingCost:      d.LoadingCost(),
		UnloadingRevenue: d.UnloadingRevenue(),
		EstimatedProfit:  d.EstimatedProfit(),
		ProfitMargin:     d.ProfitMargin(),
	}
}

// FromTransaction builds a draft pre-populated from a persisted transaction.
func FromTransaction(txn *model.Transaction) Draft {
	d := Draft{
		EditingID:     txn.ID,
		ProductUnit:   txn.ProductUnit,
		DONumber:      txn.DONumber,
		ChallanNumber: txn.ChallanNumber,
	}
	if txn.Product.ID != 0 {
		p := txn.Product
		d.Product = &p
	}
	if !txn.CreatedAt.IsZero() {
		created := txn.CreatedAt
		d.TransactionDate = &created
	}
	if txn.TransportExpense != nil {
		d.TransportExpense = *txn.TransportExpense
	}
	d.Loading = legFromModel(&txn.Loading)
	if txn.Unloading != nil {
		d.Unloading = legFromModel(txn.Unloading)
	}
	return d
}

func legFromModel(l *model.Leg) LegDraft {
	var out LegDraft
	if l.Client.ID != 0 {
		c := l.Client
		out.Client = &c
	}
	if l.Vehicle.ID != 0 {
		v := l.Vehicle
		out.Vehicle = &v
	}
	if l.Driver != nil {
		drv := *l.Driver
		out.Driver = &drv
	}
	if !l.Date.IsZero() {
		date := l.Date
		out.Date = &date
	}
	if l.Quantity != nil {
		out.Quantity = *l.Quantity
	}
	if l.Rate != nil {
		out.Rate = *l.Rate
	}
	return out
}
