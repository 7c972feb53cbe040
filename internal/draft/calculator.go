package draft

import (
	"context"
	"errors"
	"time"

	"github.com/Veraticus/haulbook/internal/model"
)

// ErrInFlight is returned by Submit while a previous submission is pending.
var ErrInFlight = errors.New("a submission is already in flight")

// Submitter hands a validated draft to the data layer.
type Submitter interface {
	SubmitDraft(ctx context.Context, p Payload) error
}

// SubmitterFunc adapts a function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, p Payload) error

// SubmitDraft calls f.
func (f SubmitterFunc) SubmitDraft(ctx context.Context, p Payload) error {
	return f(ctx, p)
}

// Option configures a Calculator.
type Option func(*Calculator)

// WithClock overrides the clock used to stamp dates on reset.
func WithClock(now func() time.Time) Option {
	return func(c *Calculator) {
		c.now = now
	}
}

// Calculator owns one draft, the active form section and the in-flight flag.
type Calculator struct {
	now      func() time.Time
	section  Section
	draft    Draft
	inFlight bool
}

// New returns a calculator holding a freshly reset draft.
func New(opts ...Option) *Calculator {
	c := &Calculator{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.Reset()
	return c
}

// Draft returns a copy of the current draft.
func (c *Calculator) Draft() Draft {
	return c.draft
}

// Summary returns the derived figures for the current values.
func (c *Calculator) Summary() Summary {
	return c.draft.Summary()
}

// ActiveSection is the form section currently focused.
func (c *Calculator) ActiveSection() Section {
	return c.section
}

// SetActiveSection focuses a section.
func (c *Calculator) SetActiveSection(s Section) {
	c.section = s
}

// InFlight reports whether a submission is pending.
func (c *Calculator) InFlight() bool {
	return c.inFlight
}

// Update sets one field of the draft.
func (c *Calculator) Update(field Field, value any) error {
	return c.draft.Set(field, value)
}

// Validate runs the ordered checks and focuses the failing section.
func (c *Calculator) Validate() ValidationResult {
	res := c.draft.Validate()
	if !res.OK() {
		c.section = res.Section
	}
	return res
}

// Submit validates the draft and, when it passes, hands the payload to s.
// The draft is reset once s returns, whether or not it succeeded; the
// submitter's error is returned for the caller to surface.
func (c *Calculator) Submit(ctx context.Context, s Submitter) (ValidationResult, error) {
	if c.inFlight {
		return ValidationResult{}, ErrInFlight
	}
	res := c.Validate()
	if !res.OK() {
		return res, nil
	}

	c.inFlight = true
	payload := c.draft.Payload()
	defer func() {
		c.inFlight = false
		c.Reset()
	}()

	return res, s.SubmitDraft(ctx, payload)
}

// Reset clears every field and stamps all three dates with the current day.
func (c *Calculator) Reset() {
	today := calendarDay(c.now())
	txnDate, loadDate, unloadDate := today, today, today
	c.draft = Draft{
		TransactionDate: &txnDate,
		Loading:         LegDraft{Date: &loadDate},
		Unloading:       LegDraft{Date: &unloadDate},
	}
	c.section = SectionDetails
}

// Load replaces the draft with one pre-populated from txn for editing.
func (c *Calculator) Load(txn *model.Transaction) {
	c.draft = FromTransaction(txn)
	c.section = SectionDetails
}

// LoadDraft replaces the draft wholesale.
func (c *Calculator) LoadDraft(d Draft) {
	c.draft = d
	c.section = SectionDetails
}

// calendarDay is t's date in its own location as UTC midnight, the form
// dates parsed from YYYY-MM-DD input take.
func calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
