package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// spreadsheetAPI is the slice of the Sheets API the writer needs.
type spreadsheetAPI interface {
	Get(ctx context.Context, spreadsheetID string) error
	Create(ctx context.Context, title, timeZone, sheetTitle string) (id, url string, err error)
	Clear(ctx context.Context, spreadsheetID, rng string) error
	Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error
	BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error
}

// SheetsWriter writes transaction tables to a Google spreadsheet.
type SheetsWriter struct {
	api    spreadsheetAPI
	logger *slog.Logger
	config SheetsConfig
}

var _ Writer = (*SheetsWriter)(nil)

// NewSheetsWriter authenticates against Google and returns a writer.
func NewSheetsWriter(ctx context.Context, config SheetsConfig, logger *slog.Logger) (*SheetsWriter, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	srv, err := createSheetsService(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return newSheetsWriter(googleSheets{srv: srv}, config, logger), nil
}

func newSheetsWriter(api spreadsheetAPI, config SheetsConfig, logger *slog.Logger) *SheetsWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SheetsWriter{api: api, config: config, logger: logger}
}

// Write implements Writer. It replaces the sheet contents with the table.
func (w *SheetsWriter) Write(ctx context.Context, table *viewmodel.TransactionTable, txns []model.Transaction) error {
	if len(txns) == 0 {
		return common.ErrNothingToExport
	}
	w.logger.Info("starting sheets export", "transactions", len(txns))

	spreadsheetID, err := w.getOrCreateSpreadsheet(ctx)
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	retryOpts := common.RetryOptions{
		MaxAttempts:  w.config.RetryAttempts,
		InitialDelay: w.config.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}

	if err := common.WithRetry(ctx, func() error {
		return w.api.Clear(ctx, spreadsheetID, w.sheetRange("A:Z"))
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to clear sheet: %w", err)
	}

	values := toCells(Values(table, txns))
	if err := common.WithRetry(ctx, func() error {
		return w.writeData(ctx, spreadsheetID, values)
	}, retryOpts); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}

	if w.config.EnableFormatting {
		err = common.WithRetry(ctx, func() error {
			return w.api.BatchUpdate(ctx, spreadsheetID, formatRequests(len(table.VisibleColumns())))
		}, retryOpts)
		if err != nil {
			w.logger.Warn("failed to apply formatting", "error", err)
		}
	}

	w.logger.Info("sheets export completed", "spreadsheet_id", spreadsheetID, "rows_written", len(values))
	return nil
}

func (w *SheetsWriter) sheetRange(cells string) string {
	if w.config.SheetTitle == "" {
		return cells
	}
	return fmt.Sprintf("'%s'!%s", w.config.SheetTitle, cells)
}

func (w *SheetsWriter) getOrCreateSpreadsheet(ctx context.Context) (string, error) {
	if w.config.SpreadsheetID != "" {
		if err := w.api.Get(ctx, w.config.SpreadsheetID); err != nil {
			return "", fmt.Errorf("unable to access spreadsheet %s: %w", w.config.SpreadsheetID, err)
		}
		return w.config.SpreadsheetID, nil
	}

	id, url, err := w.api.Create(ctx, w.config.SpreadsheetName, w.config.TimeZone, w.config.SheetTitle)
	if err != nil {
		return "", fmt.Errorf("unable to create spreadsheet: %w", err)
	}
	w.logger.Info("created new spreadsheet", "id", id, "url", url)
	return id, nil
}

// writeData writes values in batches to stay under API request limits.
func (w *SheetsWriter) writeData(ctx context.Context, spreadsheetID string, values [][]any) error {
	batchSize := w.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(values)
	}
	for i := 0; i < len(values); i += batchSize {
		end := min(i+batchSize, len(values))
		if err := w.api.Update(ctx, spreadsheetID, w.sheetRange(fmt.Sprintf("A%d", i+1)), values[i:end]); err != nil {
			return fmt.Errorf("failed to write batch starting at row %d: %w", i+1, err)
		}
		w.logger.Debug("wrote batch", "start_row", i+1, "rows", end-i)
	}
	return nil
}

func toCells(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

func formatRequests(columns int) []*sheets.Request {
	return []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          0,
					StartRowIndex:    0,
					EndRowIndex:      1,
					StartColumnIndex: 0,
					EndColumnIndex:   int64(columns),
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						TextFormat: &sheets.TextFormat{Bold: true},
					},
				},
				Fields: "userEnteredFormat.textFormat",
			},
		},
		{
			AutoResizeDimensions: &sheets.AutoResizeDimensionsRequest{
				Dimensions: &sheets.DimensionRange{
					SheetId:    0,
					Dimension:  "COLUMNS",
					StartIndex: 0,
					EndIndex:   int64(columns),
				},
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        0,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
}

func createSheetsService(ctx context.Context, config SheetsConfig) (*sheets.Service, error) {
	var tokenSource oauth2.TokenSource

	if config.ServiceAccountPath != "" {
		jsonKey, err := os.ReadFile(config.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, sheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		tokenSource = jwtConfig.TokenSource(ctx)
	} else {
		token := &oauth2.Token{RefreshToken: config.RefreshToken, TokenType: "Bearer"}
		tokenSource = oauthConfig(config.ClientID, config.ClientSecret, "").TokenSource(ctx, token)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(oauth2.NewClient(ctx, tokenSource)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}

// googleSheets adapts *sheets.Service to spreadsheetAPI.
type googleSheets struct {
	srv *sheets.Service
}

func (g googleSheets) Get(ctx context.Context, spreadsheetID string) error {
	_, err := g.srv.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	return err
}

func (g googleSheets) Create(ctx context.Context, title, timeZone, sheetTitle string) (string, string, error) {
	created, err := g.srv.Spreadsheets.Create(&sheets.Spreadsheet{
		Properties: &sheets.SpreadsheetProperties{Title: title, TimeZone: timeZone},
		Sheets: []*sheets.Sheet{
			{Properties: &sheets.SheetProperties{Title: sheetTitle}},
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", "", err
	}
	return created.SpreadsheetId, created.SpreadsheetUrl, nil
}

func (g googleSheets) Clear(ctx context.Context, spreadsheetID, rng string) error {
	_, err := g.srv.Spreadsheets.Values.Clear(spreadsheetID, rng, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	return classify(err)
}

func (g googleSheets) Update(ctx context.Context, spreadsheetID, rng string, values [][]any) error {
	_, err := g.srv.Spreadsheets.Values.Update(spreadsheetID, rng, &sheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return classify(err)
}

func (g googleSheets) BatchUpdate(ctx context.Context, spreadsheetID string, requests []*sheets.Request) error {
	_, err := g.srv.Spreadsheets.BatchUpdate(spreadsheetID, &sheets.BatchUpdateSpreadsheetRequest{Requests: requests}).Context(ctx).Do()
	return classify(err)
}

// classify maps Sheets API failures onto the retry policy: quota errors
// wait longest, other client errors are not retried.
func classify(err error) error {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", common.ErrRateLimit, err)
	case apiErr.Code == http.StatusRequestTimeout:
		return err
	case apiErr.Code >= 400 && apiErr.Code < 500:
		return common.Permanent(err)
	}
	return err
}
