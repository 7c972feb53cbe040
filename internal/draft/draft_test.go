package draft

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

// validDraft returns a draft that passes every check.
func validDraft() Draft {
	return Draft{
		TransactionDate:  datePtr(2024, 1, 10),
		Product:          &model.Ref{ID: 1, Name: "Cement"},
		TransportExpense: dec("200"),
		Loading: LegDraft{
			Client:   &model.Ref{ID: 10, Name: "Plant A"},
			Vehicle:  &model.Ref{ID: 20, Name: "MH12AB1234"},
			Driver:   &model.Ref{ID: 30, Name: "Ravi"},
			Date:     datePtr(2024, 1, 10),
			Quantity: dec("100"),
			Rate:     dec("20"),
		},
		Unloading: LegDraft{
			Client:   &model.Ref{ID: 11, Name: "Site B"},
			Vehicle:  &model.Ref{ID: 20, Name: "MH12AB1234"},
			Driver:   &model.Ref{ID: 31, Name: "Suresh"},
			Date:     datePtr(2024, 1, 12),
			Quantity: dec("95"),
			Rate:     dec("25"),
		},
	}
}

func TestSummary(t *testing.T) {
	d := validDraft()
	sum := d.Summary()

	assert.True(t, sum.LoadingCost.Equal(dec("2000")), "loading cost %s", sum.LoadingCost)
	assert.True(t, sum.UnloadingRevenue.Equal(dec("2375")), "revenue %s", sum.UnloadingRevenue)
	assert.True(t, sum.EstimatedProfit.Equal(dec("175")), "profit %s", sum.EstimatedProfit)
	assert.Equal(t, "7.37", sum.ProfitMargin.StringFixed(2))
}

func TestLoadingCostIsExact(t *testing.T) {
	tests := []struct {
		qty, rate, want string
	}{
		{"0.1", "0.2", "0.02"},
		{"33.333", "3", "99.999"},
		{"1234.5", "0", "0"},
		{"0", "999.99", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.qty+"x"+tt.rate, func(t *testing.T) {
			d := Draft{Loading: LegDraft{Quantity: dec(tt.qty), Rate: dec(tt.rate)}}
			assert.True(t, d.LoadingCost().Equal(dec(tt.want)), "got %s", d.LoadingCost())
		})
	}
}

func TestProfitMarginZeroRevenue(t *testing.T) {
	tests := []struct {
		name string
		d    Draft
	}{
		{name: "empty", d: Draft{}},
		{name: "loss without revenue", d: Draft{
			Loading:          LegDraft{Quantity: dec("10"), Rate: dec("5")},
			TransportExpense: dec("100"),
		}},
		{name: "quantity without rate", d: Draft{
			Unloading: LegDraft{Quantity: dec("10")},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.d.ProfitMargin().IsZero())
		})
	}
}

func TestValidateEmptyDraft(t *testing.T) {
	d := Draft{}
	res := d.Validate()

	assert.False(t, res.OK())
	assert.Equal(t, CheckTransactionDate, res.Check)
	assert.Equal(t, SectionDetails, res.Section)
	assert.Equal(t, "Please select a transaction date", res.Message)
}

func TestValidateValidDraft(t *testing.T) {
	d := validDraft()
	res := d.Validate()
	assert.True(t, res.OK(), res.String())
}

func TestValidateSingleFailure(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		check   Check
		section Section
	}{
		{"no transaction date", func(d *Draft) { d.TransactionDate = nil }, CheckTransactionDate, SectionDetails},
		{"no product", func(d *Draft) { d.Product = nil }, CheckProduct, SectionDetails},
		{"no loading client", func(d *Draft) { d.Loading.Client = nil }, CheckLoadingClient, SectionLoading},
		{"no loading vehicle", func(d *Draft) { d.Loading.Vehicle = nil }, CheckLoadingVehicle, SectionLoading},
		{"no loading driver", func(d *Draft) { d.Loading.Driver = nil }, CheckLoadingDriver, SectionLoading},
		{"no loading date", func(d *Draft) { d.Loading.Date = nil }, CheckLoadingDate, SectionLoading},
		{"zero loading quantity", func(d *Draft) { d.Loading.Quantity = decimal.Zero }, CheckLoadingQuantity, SectionLoading},
		{"negative loading rate", func(d *Draft) { d.Loading.Rate = dec("-1") }, CheckLoadingRate, SectionLoading},
		{"no unloading client", func(d *Draft) { d.Unloading.Client = nil }, CheckUnloadingClient, SectionUnloading},
		{"no unloading vehicle", func(d *Draft) { d.Unloading.Vehicle = nil }, CheckUnloadingVehicle, SectionUnloading},
		{"no unloading driver", func(d *Draft) { d.Unloading.Driver = nil }, CheckUnloadingDriver, SectionUnloading},
		{"no unloading date", func(d *Draft) { d.Unloading.Date = nil }, CheckUnloadingDate, SectionUnloading},
		{"zero unloading quantity", func(d *Draft) { d.Unloading.Quantity = decimal.Zero }, CheckUnloadingQuantity, SectionUnloading},
		{"zero unloading rate", func(d *Draft) { d.Unloading.Rate = decimal.Zero }, CheckUnloadingRate, SectionUnloading},
		{"unloaded before loaded", func(d *Draft) {
			d.Loading.Date = datePtr(2024, 1, 10)
			d.Unloading.Date = datePtr(2024, 1, 5)
		}, CheckDateOrder, SectionUnloading},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)
			res := d.Validate()
			assert.Equal(t, tt.check, res.Check)
			assert.Equal(t, tt.section, res.Section)
			assert.NotEmpty(t, res.Message)
		})
	}
}

func TestValidateZeroLoadingRateAllowed(t *testing.T) {
	d := validDraft()
	d.Loading.Rate = decimal.Zero
	assert.True(t, d.Validate().OK())
}

func TestValidateSameDayAllowed(t *testing.T) {
	d := validDraft()
	d.Unloading.Date = datePtr(2024, 1, 10)
	assert.True(t, d.Validate().OK())
}

func TestValidateSameDayAgainstDefaultDate(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
	}{
		{name: "utc morning", now: fixedNow},
		{name: "ist early morning", now: time.Date(2024, 3, 15, 1, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))},
		{name: "late evening", now: time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithClock(func() time.Time { return tt.now }))
			d := validDraft()
			d.Loading.Date = c.Draft().Loading.Date
			d.Unloading.Date = datePtr(2024, 3, 15)
			c.LoadDraft(d)
			assert.True(t, c.Validate().OK(), c.Validate().Message)

			// The other way round: typed loading day, default unloading day.
			d = validDraft()
			d.Loading.Date = datePtr(2024, 3, 15)
			d.Unloading.Date = New(WithClock(func() time.Time { return tt.now })).Draft().Unloading.Date
			c.LoadDraft(d)
			assert.True(t, c.Validate().OK(), c.Validate().Message)
		})
	}
}

func TestValidateDateOrderIgnoresTimeOfDay(t *testing.T) {
	d := validDraft()
	loaded := time.Date(2024, 1, 10, 18, 0, 0, 0, time.UTC)
	unloaded := time.Date(2024, 1, 10, 6, 0, 0, 0, time.UTC)
	d.Loading.Date, d.Unloading.Date = &loaded, &unloaded
	assert.True(t, d.Validate().OK())

	earlier := time.Date(2024, 1, 9, 23, 0, 0, 0, time.UTC)
	d.Unloading.Date = &earlier
	assert.Equal(t, CheckDateOrder, d.Validate().Check)
}

func TestValidateMissingUnloadingDriver(t *testing.T) {
	c := New(WithClock(func() time.Time { return fixedNow }))
	c.LoadDraft(validDraft())
	require.NoError(t, c.Update(FieldUnloadingDriver, nil))

	res := c.Validate()
	assert.Equal(t, CheckUnloadingDriver, res.Check)
	assert.Equal(t, "Please select an unloading driver", res.Message)
	assert.Equal(t, SectionUnloading, c.ActiveSection())
}

func TestUpdate(t *testing.T) {
	c := New(WithClock(func() time.Time { return fixedNow }))

	require.NoError(t, c.Update(FieldLoadingQuantity, "100"))
	require.NoError(t, c.Update(FieldLoadingRate, 20))
	require.NoError(t, c.Update(FieldUnloadingQuantity, dec("95")))
	require.NoError(t, c.Update(FieldUnloadingRate, 25.0))
	require.NoError(t, c.Update(FieldTransportExpense, "₹200"))
	require.NoError(t, c.Update(FieldProduct, model.Ref{ID: 4, Name: "Sand"}))
	require.NoError(t, c.Update(FieldDONumber, "DO-77"))

	d := c.Draft()
	assert.Equal(t, "DO-77", d.DONumber)
	require.NotNil(t, d.Product)
	assert.Equal(t, "Sand", d.Product.Name)
	assert.True(t, c.Summary().EstimatedProfit.Equal(dec("175")))

	require.NoError(t, c.Update(FieldProduct, nil))
	assert.Nil(t, c.Draft().Product)
}

func TestUpdateRejects(t *testing.T) {
	tests := []struct {
		name  string
		field Field
		value any
		want  error
	}{
		{"negative quantity", FieldLoadingQuantity, "-5", ErrInvalidValue},
		{"negative rate", FieldUnloadingRate, -1, ErrInvalidValue},
		{"negative expense", FieldTransportExpense, dec("-0.01"), ErrInvalidValue},
		{"unparseable amount", FieldLoadingRate, "twenty", ErrInvalidValue},
		{"wrong type for ref", FieldProduct, "Cement", ErrInvalidValue},
		{"wrong type for date", FieldLoadingDate, "2024-01-01", ErrInvalidValue},
		{"wrong type for text", FieldChallanNumber, 12, ErrInvalidValue},
		{"unknown field", Field(99), 1, ErrUnknownField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			before := c.Draft()
			err := c.Update(tt.field, tt.value)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, before, c.Draft())
		})
	}
}

func TestFieldSection(t *testing.T) {
	assert.Equal(t, SectionDetails, FieldTransportExpense.Section())
	assert.Equal(t, SectionLoading, FieldLoadingDriver.Section())
	assert.Equal(t, SectionUnloading, FieldUnloadingRate.Section())
	assert.Equal(t, "unloading_quantity", FieldUnloadingQuantity.String())
}

func TestReset(t *testing.T) {
	c := New(WithClock(func() time.Time { return fixedNow }))
	c.LoadDraft(validDraft())
	c.SetActiveSection(SectionUnloading)

	c.Reset()
	d := c.Draft()

	require.NotNil(t, d.TransactionDate)
	require.NotNil(t, d.Loading.Date)
	require.NotNil(t, d.Unloading.Date)
	today := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, today, *d.TransactionDate)
	assert.Equal(t, today, *d.Loading.Date)
	assert.Equal(t, today, *d.Unloading.Date)
	assert.Nil(t, d.Product)
	assert.Nil(t, d.Loading.Client)
	assert.True(t, d.Loading.Quantity.IsZero())
	assert.True(t, d.TransportExpense.IsZero())
	assert.Equal(t, SectionDetails, c.ActiveSection())

	res := c.Validate()
	assert.Equal(t, CheckProduct, res.Check)
}

type fakeSubmitter struct {
	err      error
	payloads []Payload
	sawBusy  bool
	calc     *Calculator
}

func (f *fakeSubmitter) SubmitDraft(_ context.Context, p Payload) error {
	f.payloads = append(f.payloads, p)
	if f.calc != nil {
		f.sawBusy = f.calc.InFlight()
	}
	return f.err
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name      string
		submitErr error
	}{
		{name: "success"},
		{name: "collaborator failure", submitErr: errors.New("server unavailable")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(WithClock(func() time.Time { return fixedNow }))
			c.LoadDraft(validDraft())
			sub := &fakeSubmitter{err: tt.submitErr, calc: c}

			res, err := c.Submit(context.Background(), sub)
			assert.True(t, res.OK())
			if tt.submitErr != nil {
				assert.ErrorIs(t, err, tt.submitErr)
			} else {
				assert.NoError(t, err)
			}

			require.Len(t, sub.payloads, 1)
			p := sub.payloads[0]
			assert.Equal(t, "2024-01-10", p.LoadingDate)
			assert.Equal(t, "2024-01-12", p.UnloadingDate)
			assert.Equal(t, int64(1), p.ProductID)
			assert.Equal(t, int64(31), p.UnloadingDriverID)
			assert.True(t, p.EstimatedProfit.Equal(dec("175")))
			assert.True(t, sub.sawBusy)

			// Reset happens regardless of outcome.
			assert.False(t, c.InFlight())
			assert.Nil(t, c.Draft().Product)
			assert.Equal(t, *datePtr(2024, 3, 15), *c.Draft().TransactionDate)
		})
	}
}

func TestSubmitInvalid(t *testing.T) {
	c := New()
	c.LoadDraft(validDraft())
	require.NoError(t, c.Update(FieldUnloadingRate, 0))
	sub := &fakeSubmitter{}

	res, err := c.Submit(context.Background(), sub)
	require.NoError(t, err)
	assert.Equal(t, CheckUnloadingRate, res.Check)
	assert.Empty(t, sub.payloads)
	assert.Equal(t, SectionUnloading, c.ActiveSection())

	// Draft is untouched.
	require.NotNil(t, c.Draft().Product)
	assert.Equal(t, "Cement", c.Draft().Product.Name)
}

func TestPayloadRoundTrip(t *testing.T) {
	d := validDraft()
	d.DONumber = "DO-1"
	d.EditingID = 42

	back, err := FromPayload(d.Payload())
	require.NoError(t, err)

	assert.Equal(t, int64(42), back.EditingID)
	assert.Equal(t, "DO-1", back.DONumber)
	require.NotNil(t, back.Unloading.Driver)
	assert.Equal(t, int64(31), back.Unloading.Driver.ID)
	assert.True(t, back.Validate().OK())
	assert.True(t, back.Summary().EstimatedProfit.Equal(dec("175")))
}

func TestFromPayloadRejects(t *testing.T) {
	_, err := FromPayload(Payload{LoadingDate: "10/01/2024"})
	assert.ErrorIs(t, err, ErrInvalidValue)

	_, err = FromPayload(Payload{LoadingQuantity: dec("-3")})
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFromTransaction(t *testing.T) {
	qty := dec("50")
	rate := dec("12.5")
	expense := dec("80")
	txn := &model.Transaction{
		ID:               9,
		CreatedAt:        time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Product:          model.Ref{ID: 2, Name: "Coal"},
		ProductUnit:      "MT",
		TransportExpense: &expense,
		Loading: model.Leg{
			Client:   model.Ref{ID: 5, Name: "Mine"},
			Vehicle:  model.Ref{ID: 6, Name: "KA01"},
			Date:     time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
			Quantity: &qty,
			Rate:     &rate,
		},
	}

	c := New()
	c.Load(txn)
	d := c.Draft()

	assert.Equal(t, int64(9), d.EditingID)
	require.NotNil(t, d.Product)
	assert.Equal(t, "Coal", d.Product.Name)
	assert.Nil(t, d.Loading.Driver)
	assert.Nil(t, d.Unloading.Client)
	assert.Nil(t, d.Unloading.Date)
	assert.True(t, d.LoadingCost().Equal(dec("625")))

	res := c.Validate()
	assert.Equal(t, CheckLoadingDriver, res.Check)
	assert.Equal(t, SectionLoading, c.ActiveSection())
}
