package components

import (
	"fmt"
	"strings"

	"github.com/Veraticus/haulbook/internal/format"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/Veraticus/haulbook/internal/tui/themes"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

const barWidth = 30

// Dashboard renders the book overview.
func Dashboard(d *service.Dashboard, theme themes.Theme) string {
	sections := []string{
		theme.Title.Render("Haulbook Dashboard"),
		renderTotals(d.Totals, theme),
		renderStatus(d, theme),
		renderPerformers("Top Vehicles", d.TopVehicles, theme),
		renderPerformers("Top Drivers", d.TopDrivers, theme),
		renderPerformers("Top Routes", d.TopRoutes, theme),
		renderDiscrepancies(d.Discrepancies, theme),
		renderInactive(d, theme),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderTotals(t service.Totals, theme themes.Theme) string {
	cells := []struct {
		label string
		value int
	}{
		{"Products", t.Products},
		{"Loading Points", t.LoadingClients},
		{"Unloading Points", t.UnloadingClients},
		{"Vehicles", t.Vehicles},
		{"Drivers", t.Drivers},
		{"Transactions", t.Transactions},
	}
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = theme.BorderedBox.Padding(0, 1).Render(
			lipgloss.JoinVertical(lipgloss.Center, theme.Bold.Render(fmt.Sprint(c.value)), theme.Subtitle.MarginBottom(0).Render(c.label)),
		)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func renderStatus(d *service.Dashboard, theme themes.Theme) string {
	total := d.Totals.Transactions
	bar := progress.New(progress.WithSolidFill(string(theme.Primary)), progress.WithoutPercentage())
	bar.Width = barWidth
	bar.EmptyColor = string(theme.Border)

	lines := []string{theme.Subtitle.Render("Status")}
	for _, status := range []model.Status{model.StatusInTransit, model.StatusUnloaded, model.StatusCompleted} {
		n := d.StatusCounts[status]
		pct := 0.0
		if total > 0 {
			pct = float64(n) / float64(total)
		}
		lines = append(lines, fmt.Sprintf("%s %s %d", theme.StatusStyle(status).Width(12).Render(string(status)), bar.ViewAs(pct), n))
	}
	return strings.Join(lines, "\n")
}

func renderPerformers(title string, performers []service.Performer, theme themes.Theme) string {
	lines := []string{theme.Subtitle.Render(title)}
	if len(performers) == 0 {
		return strings.Join(append(lines, theme.Italic.Render("  no trips yet")), "\n")
	}
	for i, p := range performers {
		lines = append(lines, fmt.Sprintf("  %d. %-28s %4d trips  avg expense %s",
			i+1, Truncate(p.Name, 28), p.TransactionCount, format.Currency(p.AverageExpense)))
	}
	return strings.Join(lines, "\n")
}

func renderDiscrepancies(items []service.Discrepancy, theme themes.Theme) string {
	lines := []string{theme.Subtitle.Render("Quantity Discrepancies")}
	if len(items) == 0 {
		return strings.Join(append(lines, theme.Italic.Render("  none")), "\n")
	}
	for _, d := range items {
		lines = append(lines, theme.StatusWarning.Render(fmt.Sprintf("  #%d %s on %s: loaded %s, unloaded %s, short %s",
			d.TransactionID, d.Product, d.Vehicle,
			format.IndianNumber(d.LoadingQuantity), format.IndianNumber(d.UnloadingQuantity), format.IndianNumber(d.Difference))))
	}
	return strings.Join(lines, "\n")
}

func renderInactive(d *service.Dashboard, theme themes.Theme) string {
	vehicles := make([]string, len(d.InactiveVehicles))
	for i, v := range d.InactiveVehicles {
		vehicles[i] = v.Number
	}
	drivers := make([]string, len(d.InactiveDrivers))
	for i, dr := range d.InactiveDrivers {
		drivers[i] = dr.Name
	}
	return strings.Join([]string{
		theme.Subtitle.Render("Inactive (30 days)"),
		"  Vehicles: " + joinOrNone(vehicles),
		"  Drivers:  " + joinOrNone(drivers),
	}, "\n")
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
