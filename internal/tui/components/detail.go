package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/haulbook/internal/format"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/tui/themes"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const labelWidth = 20

// TransactionDetail renders every field of one transaction, grouped the
// way the entry form groups them.
func TransactionDetail(txn *model.Transaction, theme themes.Theme, width int) string {
	label := theme.Bold.Width(labelWidth).Align(lipgloss.Right)
	line := func(name, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, label.Render(name+": "), theme.Normal.Render(value))
	}
	section := func(title string, lines ...string) string {
		return lipgloss.JoinVertical(lipgloss.Left, append([]string{theme.Subtitle.Render(title)}, lines...)...)
	}

	status := txn.Status()
	details := section("Details",
		line("Transaction", fmt.Sprintf("#%d", txn.ID)),
		line("Date", format.Date(txn.CreatedAt)),
		line("Product", orDash(txn.Product.Name)),
		line("Status", theme.StatusStyle(status).Render(string(status))),
		line("DO Number", orNA(txn.DONumber)),
		line("Challan Number", orNA(txn.ChallanNumber)),
		line("Transport Expense", currency(txn.TransportExpense)),
	)

	loading := section("Loading", legLines(&txn.Loading, txn.ProductUnit, line)...)

	var unloading string
	if txn.Unloading == nil {
		unloading = section("Unloading", line("Status", "Not unloaded"))
	} else {
		unloading = section("Unloading", legLines(txn.Unloading, txn.ProductUnit, line)...)
	}

	summary := section("Summary",
		line("Loading Price", currency(txn.LoadingPrice())),
		line("Unloading Price", currency(txn.UnloadingPrice())),
		line("Discrepancy", format.Quantity(txn.QuantityDiscrepancy(), txn.ProductUnit)),
	)

	box := theme.RoundedBox
	if width > 4 {
		box = box.Width(width - 4)
	}
	return box.Render(strings.Join([]string{details, loading, unloading, summary}, "\n\n"))
}

func legLines(leg *model.Leg, unit string, line func(string, string) string) []string {
	driver := "-"
	if leg.Driver != nil && leg.Driver.Name != "" {
		driver = leg.Driver.Name
	}
	date := "Not set"
	if !leg.Date.IsZero() {
		date = format.Date(leg.Date)
	}
	quantity := "-"
	if leg.Quantity != nil {
		quantity = format.Quantity(*leg.Quantity, unit)
	}
	return []string{
		line("Client", orNotSet(leg.Client.Name)),
		line("Vehicle", orDash(leg.Vehicle.Name)),
		line("Driver", driver),
		line("Date", date),
		line("Quantity", quantity),
		line("Rate", currency(leg.Rate)),
	}
}

func currency(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return format.Currency(*d)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNotSet(s string) string {
	if s == "" {
		return "Not set"
	}
	return s
}
