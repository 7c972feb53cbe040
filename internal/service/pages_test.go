package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pagedStore struct {
	*memoryTransactions
	failOn int
	total  int
	calls  int
}

func (p *pagedStore) SearchTransactions(_ context.Context, _ TransactionFilter, page, size int) (*TransactionPage, error) {
	p.calls++
	if page == p.failOn {
		return nil, errors.New("database is locked")
	}
	info := viewmodel.NewPageInfo(page, size, p.total)
	txns := []model.Transaction{}
	for i := info.From(); i > 0 && i <= info.To(); i++ {
		txns = append(txns, model.Transaction{ID: int64(i)})
	}
	return &TransactionPage{Transactions: txns, PageInfo: info}, nil
}

func TestAllTransactions(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		wantCalls int
	}{
		{name: "empty", total: 0, wantCalls: 1},
		{name: "single page", total: 12, wantCalls: 1},
		{name: "exact pages", total: 2 * ExportPageSize, wantCalls: 2},
		{name: "partial last page", total: 2*ExportPageSize + 1, wantCalls: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &pagedStore{memoryTransactions: newMemoryTransactions(), total: tt.total}
			var lastDone, lastTotal int
			txns, err := AllTransactions(context.Background(), store, TransactionFilter{}, func(done, total int) {
				lastDone, lastTotal = done, total
			})
			require.NoError(t, err)
			assert.Len(t, txns, tt.total)
			assert.Equal(t, tt.wantCalls, store.calls)
			assert.Equal(t, tt.total, lastDone)
			assert.Equal(t, tt.total, lastTotal)
			if tt.total > 0 {
				assert.Equal(t, int64(tt.total), txns[len(txns)-1].ID)
			}
		})
	}
}

func TestAllTransactionsStopsOnError(t *testing.T) {
	store := &pagedStore{memoryTransactions: newMemoryTransactions(), total: 3 * ExportPageSize, failOn: 2}
	_, err := AllTransactions(context.Background(), store, TransactionFilter{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "page 2")
}

func TestAllTransactionsCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	store := &pagedStore{memoryTransactions: newMemoryTransactions(), total: 5}
	_, err := AllTransactions(ctx, store, TransactionFilter{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, store.calls)
}
