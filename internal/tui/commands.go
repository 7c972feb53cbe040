package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Veraticus/haulbook/internal/service"
	tea "github.com/charmbracelet/bubbletea"
)

// loadTimeout bounds a single page fetch.
const loadTimeout = 30 * time.Second

// PageLoader fetches one page of transactions. Pages are 1-based.
type PageLoader func(ctx context.Context, page, pageSize int) (*service.TransactionPage, error)

// StorePageLoader loads pages matching filter from a transaction store.
func StorePageLoader(store service.TransactionStore, filter service.TransactionFilter) PageLoader {
	return func(ctx context.Context, page, pageSize int) (*service.TransactionPage, error) {
		return store.SearchTransactions(ctx, filter, page, pageSize)
	}
}

// loadPage fetches a page in the background.
func (m Model) loadPage(page, pageSize int) tea.Cmd {
	loader := m.loader
	ctx := m.ctx
	return func() tea.Msg {
		if loader == nil {
			return pageLoadedMsg{requested: page, pageSize: pageSize, err: fmt.Errorf("no page loader configured")}
		}

		ctx, cancel := context.WithTimeout(ctx, loadTimeout)
		defer cancel()

		result, err := loader(ctx, page, pageSize)
		if err != nil {
			return pageLoadedMsg{requested: page, pageSize: pageSize, err: err}
		}
		return pageLoadedMsg{requested: page, pageSize: pageSize, page: result}
	}
}
