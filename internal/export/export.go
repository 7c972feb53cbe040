// Package export writes transaction tables to CSV files and Google Sheets.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
)

// Writer writes the visible columns of a set of transactions somewhere.
type Writer interface {
	Write(ctx context.Context, table *viewmodel.TransactionTable, txns []model.Transaction) error
}

// Values returns the header row followed by one row per transaction,
// projected onto the table's visible columns.
func Values(table *viewmodel.TransactionTable, txns []model.Transaction) [][]string {
	out := make([][]string, 0, len(txns)+1)
	out = append(out, table.Headers())
	return append(out, table.Rows(txns)...)
}

// CSVWriter writes comma separated rows to an io.Writer.
type CSVWriter struct {
	w io.Writer
}

// NewCSVWriter returns a writer targeting w.
func NewCSVWriter(w io.Writer) *CSVWriter {
	return &CSVWriter{w: w}
}

// Write implements Writer. An empty transaction list is an error so callers
// never hand out a header-only file.
func (c *CSVWriter) Write(_ context.Context, table *viewmodel.TransactionTable, txns []model.Transaction) error {
	if len(txns) == 0 {
		return common.ErrNothingToExport
	}

	cw := csv.NewWriter(c.w)
	if err := cw.WriteAll(Values(table, txns)); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}
