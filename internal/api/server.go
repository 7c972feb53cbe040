// Package api serves the transaction book over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Veraticus/haulbook/internal/catalog"
	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// DefaultTimeout bounds how long a single request may run.
const DefaultTimeout = 60 * time.Second

// Server wires the HTTP routes to the storage layer.
type Server struct {
	store     service.Storage
	catalog   *catalog.Catalog
	submitter *service.DraftSubmitter
	now       func() time.Time
	timeout   time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithClock overrides the clock used for dashboards and draft defaults.
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewServer returns a server over store. Reference lists are read through cat.
func NewServer(store service.Storage, cat *catalog.Catalog, opts ...Option) *Server {
	s := &Server{
		store:   store,
		catalog: cat,
		now:     time.Now,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.submitter = service.NewDraftSubmitter(store, func(*model.Transaction) {
		cat.InvalidateAll()
	})
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(requestLogger)

	r.Get("/health", s.health)
	r.Get("/dashboard", s.dashboard)

	r.Get("/transactions/{page}/{offset}", s.listTransactions)
	r.Post("/search-transactions/{page}/{offset}", s.searchTransactions)
	r.Post("/export-transactions", s.exportTransactions)
	r.Post("/new-transaction", s.createTransaction)
	r.Post("/update-transaction/{id}", s.updateTransaction)
	r.Get("/transaction-details/{id}", s.getTransaction)
	r.Delete("/transaction/{id}", s.deleteTransaction)
	r.Put("/transaction/{id}/sold", s.markSold)

	r.Get("/products", s.listProducts)
	r.Post("/new-product", s.createProduct)
	r.Delete("/product/{id}", s.deleteProduct)

	r.Get("/clients", s.listClients)
	r.Post("/new-client", s.createClient)
	r.Delete("/client/{id}", s.deleteClient)

	r.Get("/vehicles", s.listVehicles)
	r.Get("/all-vehicles", s.listVehicles)
	r.Post("/new-vehicle", s.createVehicle)
	r.Delete("/vehicle/{id}", s.deleteVehicle)

	r.Get("/drivers", s.listDrivers)
	r.Post("/new-driver", s.createDriver)
	r.Delete("/driver/{id}", s.deleteDriver)

	return r
}

// Serve listens on addr until ctx is canceled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "address", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// requestLogger puts a logger tagged with the request id on the context.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := slog.Default().With("request_id", middleware.GetReqID(r.Context()))
		next.ServeHTTP(w, r.WithContext(common.WithLogger(r.Context(), logger)))
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDashboard(r.Context(), s.now())
	if err != nil {
		writeError(w, r, "failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}
