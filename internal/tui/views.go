package tui

import (
	"fmt"
	"strings"

	"github.com/Veraticus/haulbook/internal/tui/components"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/charmbracelet/lipgloss"
)

// View renders the model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.detail != nil {
		return lipgloss.JoinVertical(lipgloss.Left,
			components.TransactionDetail(m.detail, m.theme, m.width),
			m.muted("esc to go back"),
		)
	}

	var body string
	switch m.state {
	case viewmodel.StateError:
		body = m.renderError()
	case viewmodel.StatePickingColumns:
		body = m.renderPicker()
	case viewmodel.StateLoading:
		if !m.loaded {
			body = m.renderLoading()
		} else {
			body = m.grid.View()
		}
	default:
		body = m.grid.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderFooter(),
		m.help.View(m.keymap),
	)
}

func (m Model) renderHeader() string {
	cfg := m.table.SortConfig()
	sort := m.muted(fmt.Sprintf("sorted by %s %s (this page)", cfg.Field, cfg.Order.Arrow()))
	return lipgloss.JoinHorizontal(lipgloss.Bottom, m.theme.Header.Render("Transaction History"), " ", sort)
}

func (m Model) renderFooter() string {
	if !m.loaded {
		return ""
	}
	status := fmt.Sprintf("%s · page %d of %d · %d per page",
		m.page.Summary(), m.page.CurrentPage, m.page.LastPage, m.page.PerPage)
	if m.state == viewmodel.StateLoading {
		status += " · loading…"
	}
	return m.theme.StatusInfo.Render(status)
}

func (m Model) renderLoading() string {
	return m.theme.Box.Render(m.theme.Italic.Render("Loading transactions…"))
}

func (m Model) renderError() string {
	msg := "unknown error"
	if m.err != nil {
		msg = m.err.Error()
	}
	return m.theme.RoundedBox.BorderForeground(m.theme.Error).Render(lipgloss.JoinVertical(lipgloss.Left,
		m.theme.StatusError.Render("Failed to load transactions"),
		m.theme.Normal.Render(msg),
		"",
		m.muted("r to retry · q to quit"),
	))
}

func (m Model) renderPicker() string {
	lines := []string{m.theme.Subtitle.Render("Columns")}
	for i, k := range viewmodel.AllColumns() {
		check := "[ ]"
		if m.table.IsVisible(k) {
			check = "[x]"
		}
		shortcut := "  "
		if i < 9 {
			shortcut = fmt.Sprintf("%d ", i+1)
		}
		line := fmt.Sprintf("%s%s %s", shortcut, check, k.Title())
		if i == m.picker {
			line = m.theme.Selected.Render(line)
		} else {
			line = m.theme.Normal.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", m.muted("space toggle · 1-9 quick toggle · a show all · esc done"))
	return m.theme.RoundedBox.Render(strings.Join(lines, "\n"))
}

func (m Model) muted(s string) string {
	return lipgloss.NewStyle().Foreground(m.theme.Muted).Render(s)
}
