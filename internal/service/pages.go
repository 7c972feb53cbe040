package service

import (
	"context"
	"fmt"

	"github.com/Veraticus/haulbook/internal/model"
)

// ExportPageSize is the page size used when walking every matching row.
const ExportPageSize = 500

// AllTransactions collects every transaction matching filter, page by page.
// progress, when not nil, receives the running count and the total.
func AllTransactions(ctx context.Context, store TransactionStore, filter TransactionFilter, progress func(done, total int)) ([]model.Transaction, error) {
	var out []model.Transaction
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		res, err := store.SearchTransactions(ctx, filter, page, ExportPageSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load page %d: %w", page, err)
		}
		if out == nil {
			out = make([]model.Transaction, 0, res.Total)
		}
		out = append(out, res.Transactions...)
		if progress != nil {
			progress(len(out), res.Total)
		}
		if !res.HasNext() {
			return out, nil
		}
	}
}
