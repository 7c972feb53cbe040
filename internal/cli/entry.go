package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Veraticus/haulbook/internal/draft"
	"github.com/Veraticus/haulbook/internal/format"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
)

// InputDateLayout is the date format typed at prompts.
const InputDateLayout = "2006-01-02"

// clearInput empties an optional field.
const clearInput = "-"

// Choices are the reference lists offered while filling a draft.
type Choices struct {
	Products         []model.Ref
	LoadingClients   []model.Ref
	UnloadingClients []model.Ref
	Vehicles         []model.Ref
	Drivers          []model.Ref
}

type fieldKind int

const (
	kindRef fieldKind = iota
	kindDate
	kindAmount
	kindText
)

type fieldPrompt struct {
	options func(Choices) []model.Ref
	label   string
	field   draft.Field
	kind    fieldKind
}

func products(c Choices) []model.Ref         { return c.Products }
func loadingClients(c Choices) []model.Ref   { return c.LoadingClients }
func unloadingClients(c Choices) []model.Ref { return c.UnloadingClients }
func vehicles(c Choices) []model.Ref         { return c.Vehicles }
func drivers(c Choices) []model.Ref          { return c.Drivers }

var sectionOrder = []draft.Section{draft.SectionDetails, draft.SectionLoading, draft.SectionUnloading}

var sectionTitles = map[draft.Section]string{
	draft.SectionDetails:   "Transaction Details",
	draft.SectionLoading:   "Loading",
	draft.SectionUnloading: "Unloading",
}

var sectionFields = map[draft.Section][]fieldPrompt{
	draft.SectionDetails: {
		{field: draft.FieldTransactionDate, label: "Transaction date", kind: kindDate},
		{field: draft.FieldProduct, label: "Product", kind: kindRef, options: products},
		{field: draft.FieldDONumber, label: "DO number", kind: kindText},
		{field: draft.FieldChallanNumber, label: "Challan number", kind: kindText},
		{field: draft.FieldTransportExpense, label: "Transport expense", kind: kindAmount},
	},
	draft.SectionLoading: {
		{field: draft.FieldLoadingClient, label: "Loading point", kind: kindRef, options: loadingClients},
		{field: draft.FieldLoadingVehicle, label: "Vehicle", kind: kindRef, options: vehicles},
		{field: draft.FieldLoadingDriver, label: "Driver", kind: kindRef, options: drivers},
		{field: draft.FieldLoadingDate, label: "Loading date", kind: kindDate},
		{field: draft.FieldLoadingQuantity, label: "Quantity", kind: kindAmount},
		{field: draft.FieldLoadingRate, label: "Rate", kind: kindAmount},
	},
	draft.SectionUnloading: {
		{field: draft.FieldUnloadingClient, label: "Unloading point", kind: kindRef, options: unloadingClients},
		{field: draft.FieldUnloadingVehicle, label: "Vehicle", kind: kindRef, options: vehicles},
		{field: draft.FieldUnloadingDriver, label: "Driver", kind: kindRef, options: drivers},
		{field: draft.FieldUnloadingDate, label: "Unloading date", kind: kindDate},
		{field: draft.FieldUnloadingQuantity, label: "Quantity", kind: kindAmount},
		{field: draft.FieldUnloadingRate, label: "Rate", kind: kindAmount},
	},
}

// EntryPrompter walks a transaction draft field by field on a terminal.
// Blank input keeps the current value and "-" clears it.
type EntryPrompter struct {
	reader  *NonBlockingReader
	writer  io.Writer
	choices Choices
}

// NewEntryPrompter creates a prompter reading answers from reader.
func NewEntryPrompter(reader io.Reader, writer io.Writer, choices Choices) *EntryPrompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}
	return &EntryPrompter{
		reader:  NewNonBlockingReader(reader),
		writer:  writer,
		choices: choices,
	}
}

// Run fills every section, then validates. A failing check reopens the
// section it belongs to until the draft passes, after which the user
// confirms and the draft goes to s. It reports whether anything was saved.
func (p *EntryPrompter) Run(ctx context.Context, calc *draft.Calculator, s draft.Submitter) (bool, error) {
	for _, section := range sectionOrder {
		if err := p.FillSection(ctx, calc, section); err != nil {
			return false, err
		}
	}

	for {
		p.printSummary(calc)

		res := calc.Validate()
		if !res.OK() {
			p.println(FormatError(res.Message))
			if err := p.FillSection(ctx, calc, calc.ActiveSection()); err != nil {
				return false, err
			}
			continue
		}

		ok, err := p.confirm(ctx, "Save transaction? [Y/n]")
		if err != nil {
			return false, err
		}
		if !ok {
			p.println(FormatWarning("Discarded"))
			return false, nil
		}

		res, err = calc.Submit(ctx, s)
		if err != nil {
			return false, err
		}
		if res.OK() {
			return true, nil
		}
	}
}

// FillSection prompts for every field of one section.
func (p *EntryPrompter) FillSection(ctx context.Context, calc *draft.Calculator, section draft.Section) error {
	calc.SetActiveSection(section)
	p.println("")
	p.println(FormatTitle(sectionTitles[section]))

	for _, fp := range sectionFields[section] {
		if err := p.fill(ctx, calc, fp); err != nil {
			return err
		}
	}
	return nil
}

func (p *EntryPrompter) fill(ctx context.Context, calc *draft.Calculator, fp fieldPrompt) error {
	var options []model.Ref
	if fp.kind == kindRef {
		options = fp.options(p.choices)
		p.printOptions(options)
	}

	for {
		d := calc.Draft()
		current := currentValue(&d, fp.field)
		prompt := fp.label
		if current != "" {
			prompt += " [" + current + "]"
		}
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return fmt.Errorf("failed to write prompt: %w", err)
		}

		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			return err
		}
		if input == "" {
			return nil
		}

		value, err := parseInput(fp, input, options)
		if err == nil {
			err = calc.Update(fp.field, value)
		}
		if err != nil {
			p.println(FormatError(err.Error()))
			continue
		}
		return nil
	}
}

func (p *EntryPrompter) confirm(ctx context.Context, prompt string) (bool, error) {
	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(prompt)); err != nil {
			return false, fmt.Errorf("failed to write prompt: %w", err)
		}
		input, err := p.reader.ReadLine(ctx)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(input) {
		case "", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		p.println(FormatError("please answer y or n"))
	}
}

func (p *EntryPrompter) printOptions(options []model.Ref) {
	if len(options) == 0 {
		p.println(SubtleStyle.Render("  (no entries yet)"))
		return
	}
	for i, o := range options {
		p.println(SubtleStyle.Render(fmt.Sprintf("  %2d) %s", i+1, o.Name)))
	}
}

func (p *EntryPrompter) printSummary(calc *draft.Calculator) {
	s := calc.Summary()
	profit := format.Currency(s.EstimatedProfit)
	if s.EstimatedProfit.IsNegative() {
		profit = ErrorStyle.Render(profit)
	} else {
		profit = SuccessStyle.Render(profit)
	}
	content := strings.Join([]string{
		"Loading cost:      " + format.Currency(s.LoadingCost),
		"Unloading revenue: " + format.Currency(s.UnloadingRevenue),
		"Estimated profit:  " + profit,
		"Profit margin:     " + format.Percent(s.ProfitMargin),
	}, "\n")
	p.println("")
	p.println(RenderBox("Financial Summary", content))
}

func (p *EntryPrompter) println(s string) {
	// Prompt output is best effort; the read that follows surfaces a dead terminal.
	_, _ = fmt.Fprintln(p.writer, s)
}

func parseInput(fp fieldPrompt, input string, options []model.Ref) (any, error) {
	if input == clearInput {
		return nil, nil
	}
	switch fp.kind {
	case kindRef:
		return matchRef(input, options)
	case kindDate:
		t, err := time.Parse(InputDateLayout, input)
		if err != nil {
			return nil, fmt.Errorf("dates are YYYY-MM-DD")
		}
		return t, nil
	default:
		return input, nil
	}
}

// matchRef resolves input as a 1-based option number, an exact name
// (ignoring case) or a unique name prefix.
func matchRef(input string, options []model.Ref) (model.Ref, error) {
	if n, err := strconv.Atoi(input); err == nil {
		if n < 1 || n > len(options) {
			return model.Ref{}, fmt.Errorf("choose a number between 1 and %d", len(options))
		}
		return options[n-1], nil
	}

	var prefixed []model.Ref
	for _, o := range options {
		if strings.EqualFold(o.Name, input) {
			return o, nil
		}
		if strings.HasPrefix(strings.ToLower(o.Name), strings.ToLower(input)) {
			prefixed = append(prefixed, o)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
		return model.Ref{}, fmt.Errorf("no entry matches %q", input)
	default:
		return model.Ref{}, errors.New("more than one entry matches, type more of the name")
	}
}

func currentValue(d *draft.Draft, field draft.Field) string {
	switch field {
	case draft.FieldTransactionDate:
		return dateValue(d.TransactionDate)
	case draft.FieldProduct:
		return refValue(d.Product)
	case draft.FieldTransportExpense:
		return amountValue(d.TransportExpense)
	case draft.FieldDONumber:
		return d.DONumber
	case draft.FieldChallanNumber:
		return d.ChallanNumber
	case draft.FieldLoadingClient:
		return refValue(d.Loading.Client)
	case draft.FieldLoadingVehicle:
		return refValue(d.Loading.Vehicle)
	case draft.FieldLoadingDriver:
		return refValue(d.Loading.Driver)
	case draft.FieldLoadingDate:
		return dateValue(d.Loading.Date)
	case draft.FieldLoadingQuantity:
		return amountValue(d.Loading.Quantity)
	case draft.FieldLoadingRate:
		return amountValue(d.Loading.Rate)
	case draft.FieldUnloadingClient:
		return refValue(d.Unloading.Client)
	case draft.FieldUnloadingVehicle:
		return refValue(d.Unloading.Vehicle)
	case draft.FieldUnloadingDriver:
		return refValue(d.Unloading.Driver)
	case draft.FieldUnloadingDate:
		return dateValue(d.Unloading.Date)
	case draft.FieldUnloadingQuantity:
		return amountValue(d.Unloading.Quantity)
	case draft.FieldUnloadingRate:
		return amountValue(d.Unloading.Rate)
	}
	return ""
}

func refValue(r *model.Ref) string {
	if r == nil {
		return ""
	}
	return r.Name
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(InputDateLayout)
}

func amountValue(d decimal.Decimal) string {
	if d.IsZero() {
		return ""
	}
	return d.String()
}

// ChoicesFrom builds prompt choices from the reference lists.
func ChoicesFrom(products []model.Product, clients []model.Client, vehicles []model.Vehicle, drivers []model.Driver) Choices {
	var c Choices
	for _, p := range products {
		c.Products = append(c.Products, p.Ref())
	}
	for _, cl := range clients {
		switch cl.Type {
		case model.ClientLoadingPoint:
			c.LoadingClients = append(c.LoadingClients, cl.Ref())
		case model.ClientUnloadingPoint:
			c.UnloadingClients = append(c.UnloadingClients, cl.Ref())
		}
	}
	for _, v := range vehicles {
		c.Vehicles = append(c.Vehicles, v.Ref())
	}
	for _, d := range drivers {
		if d.Active {
			c.Drivers = append(c.Drivers, d.Ref())
		}
	}
	return c
}
