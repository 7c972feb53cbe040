package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/haulbook/internal/draft"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/shopspring/decimal"
)

var _ draft.Submitter = (*DraftSubmitter)(nil)

// DraftSubmitter stores submitted drafts. A payload with an id updates that
// transaction; one without creates a new transaction.
type DraftSubmitter struct {
	store   TransactionStore
	onSaved func(*model.Transaction)
}

// NewDraftSubmitter returns a submitter writing to store. onSaved, when not
// nil, runs after every successful write.
func NewDraftSubmitter(store TransactionStore, onSaved func(*model.Transaction)) *DraftSubmitter {
	return &DraftSubmitter{store: store, onSaved: onSaved}
}

// SubmitDraft implements draft.Submitter.
func (s *DraftSubmitter) SubmitDraft(ctx context.Context, p draft.Payload) error {
	_, err := s.Save(ctx, p)
	return err
}

// Save stores the payload and returns the transaction as written.
func (s *DraftSubmitter) Save(ctx context.Context, p draft.Payload) (*model.Transaction, error) {
	txn, err := TransactionFromPayload(p)
	if err != nil {
		return nil, err
	}

	if txn.ID > 0 {
		existing, err := s.store.GetTransaction(ctx, txn.ID)
		if err != nil {
			return nil, err
		}
		txn.IsSold = existing.IsSold
		if txn.CreatedAt.IsZero() {
			txn.CreatedAt = existing.CreatedAt
		}
		if err := s.store.UpdateTransaction(ctx, txn); err != nil {
			return nil, fmt.Errorf("failed to update transaction %d: %w", txn.ID, err)
		}
		slog.Info("updated transaction", "id", txn.ID)
	} else {
		if err := s.store.CreateTransaction(ctx, txn); err != nil {
			return nil, fmt.Errorf("failed to create transaction: %w", err)
		}
		slog.Info("created transaction", "id", txn.ID)
	}

	if s.onSaved != nil {
		s.onSaved(txn)
	}
	return txn, nil
}

// TransactionFromPayload maps a flat payload onto a transaction. The
// transaction date becomes the creation time.
func TransactionFromPayload(p draft.Payload) (*model.Transaction, error) {
	d, err := draft.FromPayload(p)
	if err != nil {
		return nil, err
	}

	txn := &model.Transaction{
		ID:               d.EditingID,
		DONumber:         d.DONumber,
		ChallanNumber:    d.ChallanNumber,
		TransportExpense: amount(d.TransportExpense),
		Loading:          legFromDraft(d.Loading),
	}
	if d.Product != nil {
		txn.Product = *d.Product
	}
	if d.TransactionDate != nil {
		txn.CreatedAt = *d.TransactionDate
	}
	if u := legFromDraft(d.Unloading); u.Client.ID > 0 || !u.Date.IsZero() {
		txn.Unloading = &u
	}
	return txn, nil
}

func legFromDraft(l draft.LegDraft) model.Leg {
	leg := model.Leg{
		Driver:   l.Driver,
		Quantity: amount(l.Quantity),
		Rate:     amount(l.Rate),
	}
	if l.Client != nil {
		leg.Client = *l.Client
	}
	if l.Vehicle != nil {
		leg.Vehicle = *l.Vehicle
	}
	if l.Date != nil {
		leg.Date = time.Date(l.Date.Year(), l.Date.Month(), l.Date.Day(), 0, 0, 0, 0, time.UTC)
	}
	return leg
}

func amount(d decimal.Decimal) *decimal.Decimal {
	v := d
	return &v
}
