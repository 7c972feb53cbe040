package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/sheets/v4"
)

func sampleTransactions() []model.Transaction {
	qty := decimal.NewFromInt(10)
	rate := decimal.NewFromInt(200)
	return []model.Transaction{
		{
			ID:          7,
			Product:     model.Ref{ID: 1, Name: "Coal"},
			ProductUnit: "MT",
			Loading: model.Leg{
				Client:   model.Ref{ID: 2, Name: "Mine"},
				Vehicle:  model.Ref{ID: 3, Name: "JH10AB1234"},
				Date:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
				Quantity: &qty,
				Rate:     &rate,
			},
		},
	}
}

func narrowTable() *viewmodel.TransactionTable {
	table := viewmodel.NewTransactionTable(viewmodel.NewMemoryPreferences())
	for _, k := range viewmodel.AllColumns() {
		table.SetColumnVisibility(k, k == viewmodel.ColumnTransactionID || k == viewmodel.ColumnProduct)
	}
	return table
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVWriter(&buf).Write(context.Background(), narrowTable(), sampleTransactions())
	require.NoError(t, err)

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{viewmodel.ColumnTransactionID.Title(), viewmodel.ColumnProduct.Title()}, records[0])
	assert.Equal(t, []string{"7", "Coal"}, records[1])
}

func TestCSVWriterNothingToExport(t *testing.T) {
	var buf bytes.Buffer
	err := NewCSVWriter(&buf).Write(context.Background(), narrowTable(), nil)
	assert.ErrorIs(t, err, common.ErrNothingToExport)
	assert.Zero(t, buf.Len())
}

type fakeSheets struct {
	updates   [][][]any
	clears    int
	formats   int
	failClear int
	created   bool
}

func (f *fakeSheets) Get(context.Context, string) error { return nil }
func (f *fakeSheets) Create(context.Context, string, string, string) (string, string, error) {
	f.created = true
	return "new-sheet", "https://example.invalid/new-sheet", nil
}
func (f *fakeSheets) Clear(context.Context, string, string) error {
	f.clears++
	if f.failClear > 0 {
		f.failClear--
		return errors.New("503 backend error")
	}
	return nil
}
func (f *fakeSheets) Update(_ context.Context, _, _ string, values [][]any) error {
	f.updates = append(f.updates, values)
	return nil
}
func (f *fakeSheets) BatchUpdate(context.Context, string, []*sheets.Request) error {
	f.formats++
	return nil
}

func TestSheetsWriter(t *testing.T) {
	cfg := DefaultSheetsConfig()
	cfg.BatchSize = 1
	cfg.RetryDelay = time.Millisecond
	api := &fakeSheets{failClear: 1}

	w := newSheetsWriter(api, cfg, nil)
	require.NoError(t, w.Write(context.Background(), narrowTable(), sampleTransactions()))

	assert.True(t, api.created, "no spreadsheet id creates one")
	assert.Equal(t, 2, api.clears, "clear is retried")
	require.Len(t, api.updates, 2, "one batch per row")
	assert.Equal(t, []any{"7", "Coal"}, api.updates[1][0])
	assert.Equal(t, 1, api.formats)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name          string
		code          int
		wantRateLimit bool
		wantRetry     bool
	}{
		{name: "quota", code: http.StatusTooManyRequests, wantRateLimit: true, wantRetry: true},
		{name: "timeout", code: http.StatusRequestTimeout, wantRetry: true},
		{name: "forbidden", code: http.StatusForbidden},
		{name: "bad range", code: http.StatusBadRequest},
		{name: "server", code: http.StatusServiceUnavailable, wantRetry: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(fmt.Errorf("clear: %w", &googleapi.Error{Code: tt.code}))
			assert.Equal(t, tt.wantRateLimit, errors.Is(err, common.ErrRateLimit))

			var re *common.RetryableError
			permanent := errors.As(err, &re) && !re.Retryable
			assert.Equal(t, !tt.wantRetry, permanent)
		})
	}

	plain := errors.New("connection reset")
	assert.Equal(t, plain, classify(plain))
	assert.NoError(t, classify(nil))
}

func TestSheetsWriterNothingToExport(t *testing.T) {
	w := newSheetsWriter(&fakeSheets{}, DefaultSheetsConfig(), nil)
	assert.ErrorIs(t, w.Write(context.Background(), narrowTable(), nil), common.ErrNothingToExport)
}

func TestSheetsConfigValidate(t *testing.T) {
	tests := []struct {
		mutate  func(*SheetsConfig)
		name    string
		wantIs  error
		errMsg  string
		wantErr bool
	}{
		{
			name: "oauth",
			mutate: func(c *SheetsConfig) {
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "refresh"
			},
		},
		{
			name:   "service account",
			mutate: func(c *SheetsConfig) { c.ServiceAccountPath = "/keys/sa.json" },
		},
		{
			name:    "missing auth",
			mutate:  func(*SheetsConfig) {},
			wantErr: true,
			wantIs:  common.ErrMissingConfig,
			errMsg:  "no authentication method configured",
		},
		{
			name: "both auth methods",
			mutate: func(c *SheetsConfig) {
				c.ClientID, c.ClientSecret, c.RefreshToken = "id", "secret", "refresh"
				c.ServiceAccountPath = "/keys/sa.json"
			},
			wantErr: true,
			wantIs:  common.ErrInvalidConfig,
			errMsg:  "multiple authentication methods",
		},
		{
			name: "zero batch size",
			mutate: func(c *SheetsConfig) {
				c.ServiceAccountPath = "/keys/sa.json"
				c.BatchSize = 0
			},
			wantErr: true,
			wantIs:  common.ErrInvalidConfig,
			errMsg:  "batch size must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSheetsConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantIs)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTokenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tokens", "sheets.json")
	token := &oauth2.Token{AccessToken: "access", RefreshToken: "refresh", TokenType: "Bearer"}

	require.NoError(t, SaveToken(path, token))
	got, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "refresh", got.RefreshToken)

	_, err = LoadToken(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
