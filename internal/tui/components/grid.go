// Package components holds the reusable pieces of the terminal views.
package components

import (
	"github.com/Veraticus/haulbook/internal/tui/themes"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Column width bounds in cells.
const (
	minColumnWidth = 4
	maxColumnWidth = 24
)

// Grid renders projected transaction rows in a scrollable table.
type Grid struct {
	theme   themes.Theme
	headers []string
	rows    [][]string
	table   table.Model
	width   int
	height  int
}

// NewGrid creates an empty grid.
func NewGrid(theme themes.Theme) Grid {
	t := table.New(
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(theme.Border).
		BorderBottom(true).
		Bold(true)
	s.Selected = theme.Selected
	t.SetStyles(s)

	return Grid{theme: theme, table: t}
}

// SetData replaces the headers and rows. Every row must have one cell per header.
func (g *Grid) SetData(headers []string, rows [][]string) {
	g.headers = headers
	g.rows = rows

	// Rows are cleared first: the table renders on SetColumns and would
	// index past the new column set with the old rows.
	g.table.SetRows(nil)
	g.table.SetColumns(columnsFor(headers, rows))

	tableRows := make([]table.Row, len(rows))
	for i, r := range rows {
		tableRows[i] = table.Row(r)
	}
	g.table.SetRows(tableRows)
	if g.table.Cursor() >= len(rows) {
		g.table.SetCursor(max(0, len(rows)-1))
	}
}

// Resize fits the grid into width by height cells.
func (g *Grid) Resize(width, height int) {
	g.width = width
	g.height = height
	g.table.SetWidth(width)
	g.table.SetHeight(max(1, height))
}

// Cursor is the index of the highlighted row.
func (g Grid) Cursor() int {
	return g.table.Cursor()
}

// Len is the number of rows.
func (g Grid) Len() int {
	return len(g.rows)
}

// Update forwards navigation keys to the table.
func (g Grid) Update(msg tea.Msg) (Grid, tea.Cmd) {
	var cmd tea.Cmd
	g.table, cmd = g.table.Update(msg)
	return g, cmd
}

// View renders the grid.
func (g Grid) View() string {
	if len(g.headers) == 0 {
		return lipgloss.NewStyle().Foreground(g.theme.Muted).Render("All columns are hidden. Press c to choose columns.")
	}
	return g.table.View()
}

func columnsFor(headers []string, rows [][]string) []table.Column {
	cols := make([]table.Column, len(headers))
	for i, h := range headers {
		w := lipgloss.Width(h)
		for _, r := range rows {
			if i < len(r) {
				w = max(w, lipgloss.Width(r[i]))
			}
		}
		cols[i] = table.Column{Title: h, Width: min(max(w, minColumnWidth), maxColumnWidth)}
	}
	return cols
}

// Truncate shortens s to width cells with an ellipsis.
func Truncate(s string, width int) string {
	return viewmodel.TruncateString(viewmodel.SanitizeForDisplay(s), width)
}
