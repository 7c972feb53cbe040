package tui

import (
	"context"
	"fmt"

	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	tea "github.com/charmbracelet/bubbletea"
)

// RunHistory runs the history browser until the user quits or ctx is done.
func RunHistory(ctx context.Context, table *viewmodel.TransactionTable, loader PageLoader, opts ...Option) error {
	if table == nil {
		return fmt.Errorf("transaction table is required")
	}
	if loader == nil {
		return fmt.Errorf("page loader is required")
	}

	m := New(ctx, table, loader, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("history browser: %w", err)
	}
	return nil
}
