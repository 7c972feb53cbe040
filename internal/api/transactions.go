package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/draft"
	"github.com/Veraticus/haulbook/internal/export"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// SearchRequest is the filter body of the search and export endpoints.
// Dates use the YYYY-MM-DD layout; empty values match everything.
type SearchRequest struct {
	LoadingDateFrom      string             `json:"loading_date_from"`
	LoadingDateTo        string             `json:"loading_date_to"`
	UnloadingDateFrom    string             `json:"unloading_date_from"`
	UnloadingDateTo      string             `json:"unloading_date_to"`
	IsSold               *bool              `json:"is_sold"`
	ProductIDs           []int64            `json:"product_ids"`
	VehicleIDs           []int64            `json:"vehicle_ids"`
	LoadingPointIDs      []int64            `json:"loading_point_ids"`
	UnloadingPointIDs    []int64            `json:"unloading_point_ids"`
	LoadingClientSizes   []model.ClientSize `json:"loading_client_sizes"`
	UnloadingClientSizes []model.ClientSize `json:"unloading_client_sizes"`
}

// Filter converts the request into a storage filter.
func (req SearchRequest) Filter() (service.TransactionFilter, error) {
	f := service.TransactionFilter{
		Sold:                 req.IsSold,
		ProductIDs:           req.ProductIDs,
		VehicleIDs:           req.VehicleIDs,
		LoadingPointIDs:      req.LoadingPointIDs,
		UnloadingPointIDs:    req.UnloadingPointIDs,
		LoadingClientSizes:   req.LoadingClientSizes,
		UnloadingClientSizes: req.UnloadingClientSizes,
	}
	dates := []struct {
		dst  **time.Time
		name string
		raw  string
	}{
		{&f.LoadingFrom, "loading_date_from", req.LoadingDateFrom},
		{&f.LoadingTo, "loading_date_to", req.LoadingDateTo},
		{&f.UnloadingFrom, "unloading_date_from", req.UnloadingDateFrom},
		{&f.UnloadingTo, "unloading_date_to", req.UnloadingDateTo},
	}
	for _, d := range dates {
		if d.raw == "" {
			continue
		}
		t, err := time.Parse(draft.PayloadDateLayout, d.raw)
		if err != nil {
			return service.TransactionFilter{}, fmt.Errorf("%w: %s must be YYYY-MM-DD", errBadRequest, d.name)
		}
		*d.dst = &t
	}
	for _, size := range append(append([]model.ClientSize{}, f.LoadingClientSizes...), f.UnloadingClientSizes...) {
		if !size.Valid() {
			return service.TransactionFilter{}, fmt.Errorf("%w: unknown client size %q", errBadRequest, size)
		}
	}
	return f, nil
}

type transactionView struct {
	*model.Transaction
	LoadingPrice        *decimal.Decimal `json:"loading_price,omitempty"`
	UnloadingPrice      *decimal.Decimal `json:"unloading_price,omitempty"`
	Status              model.Status     `json:"status"`
	QuantityDiscrepancy decimal.Decimal  `json:"quantity_discrepancy"`
}

func newTransactionView(txn *model.Transaction) transactionView {
	return transactionView{
		Transaction:         txn,
		Status:              txn.Status(),
		LoadingPrice:        txn.LoadingPrice(),
		UnloadingPrice:      txn.UnloadingPrice(),
		QuantityDiscrepancy: txn.QuantityDiscrepancy(),
	}
}

type pageResponse struct {
	Transactions []transactionView `json:"transactions"`
	viewmodel.PageInfo
}

type validationResponse struct {
	Section draft.Section `json:"section"`
	Message string        `json:"message"`
	Check   draft.Check   `json:"check"`
}

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	s.writePage(w, r, service.TransactionFilter{})
}

func (s *Server) searchTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := decodeFilter(r)
	if err != nil {
		writeError(w, r, "invalid filter", err)
		return
	}
	s.writePage(w, r, filter)
}

func (s *Server) writePage(w http.ResponseWriter, r *http.Request, filter service.TransactionFilter) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil {
		writeError(w, r, "invalid page", fmt.Errorf("%w: page", errBadRequest))
		return
	}
	// The second path segment is the page size, named offset by the web client.
	perPage, err := strconv.Atoi(chi.URLParam(r, "offset"))
	if err != nil {
		writeError(w, r, "invalid page size", fmt.Errorf("%w: offset", errBadRequest))
		return
	}

	res, err := s.store.SearchTransactions(r.Context(), filter, page, perPage)
	if err != nil {
		writeError(w, r, "failed to list transactions", err)
		return
	}

	out := pageResponse{PageInfo: res.PageInfo, Transactions: make([]transactionView, len(res.Transactions))}
	for i := range res.Transactions {
		out.Transactions[i] = newTransactionView(&res.Transactions[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) exportTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := decodeFilter(r)
	if err != nil {
		writeError(w, r, "invalid filter", err)
		return
	}

	txns, err := service.AllTransactions(r.Context(), s.store, filter, nil)
	if err != nil {
		writeError(w, r, "failed to load transactions", err)
		return
	}
	if len(txns) == 0 {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": common.ErrNothingToExport.Error()})
		return
	}

	table := viewmodel.NewTransactionTable(s.store.Preferences(r.Context()))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.csv"`)
	if err := export.NewCSVWriter(w).Write(r.Context(), table, txns); err != nil {
		common.LoggerFrom(r.Context()).Error("failed to write export", "error", err)
	}
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	s.saveDraft(w, r, 0)
}

func (s *Server) updateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, "invalid id", err)
		return
	}
	s.saveDraft(w, r, id)
}

// saveDraft runs the payload through the draft calculator so the API
// enforces the same ordered checks as the terminal form.
func (s *Server) saveDraft(w http.ResponseWriter, r *http.Request, id int64) {
	var p draft.Payload
	if err := decode(r, &p); err != nil {
		writeError(w, r, "invalid transaction", err)
		return
	}
	if id > 0 {
		p.ID = id
	}
	d, err := draft.FromPayload(p)
	if err != nil {
		writeError(w, r, "invalid transaction", err)
		return
	}

	calc := draft.New(draft.WithClock(s.now))
	calc.LoadDraft(d)

	var saved *model.Transaction
	res, err := calc.Submit(r.Context(), draft.SubmitterFunc(func(ctx context.Context, p draft.Payload) error {
		txn, err := s.submitter.Save(ctx, p)
		saved = txn
		return err
	}))
	if err != nil {
		writeError(w, r, "failed to save transaction", err)
		return
	}
	if !res.OK() {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Check:   res.Check,
			Section: res.Section,
			Message: res.Message,
		})
		return
	}

	txn, err := s.store.GetTransaction(r.Context(), saved.ID)
	if err != nil {
		writeError(w, r, "failed to load saved transaction", err)
		return
	}
	status := http.StatusCreated
	if id > 0 {
		status = http.StatusOK
	}
	writeJSON(w, status, newTransactionView(txn))
}

func (s *Server) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, "invalid id", err)
		return
	}
	txn, err := s.store.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, r, "failed to load transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, newTransactionView(txn))
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, "invalid id", err)
		return
	}
	if err := s.store.DeleteTransaction(r.Context(), id); err != nil {
		writeError(w, r, "failed to delete transaction", err)
		return
	}
	s.catalog.InvalidateAll()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) markSold(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt(r, "id")
	if err != nil {
		writeError(w, r, "invalid id", err)
		return
	}
	var body struct {
		IsSold *bool `json:"is_sold"`
	}
	if err := decode(r, &body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, r, "invalid body", err)
		return
	}
	sold := body.IsSold == nil || *body.IsSold
	if err := s.store.MarkSold(r.Context(), id, sold); err != nil {
		writeError(w, r, "failed to update transaction", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_sold": sold})
}

// decodeFilter reads an optional SearchRequest body.
func decodeFilter(r *http.Request) (service.TransactionFilter, error) {
	var req SearchRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		return service.TransactionFilter{}, err
	}
	return req.Filter()
}
