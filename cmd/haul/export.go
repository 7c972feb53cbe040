package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/Veraticus/haulbook/internal/cli"
	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/config"
	"github.com/Veraticus/haulbook/internal/export"
	"github.com/Veraticus/haulbook/internal/service"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export transactions to CSV or Google Sheets",
		Long: `Export every transaction matching the filters, using the visible
columns of the transaction table in their canonical order.`,
	}

	cmd.AddCommand(exportCSVCmd())
	cmd.AddCommand(exportSheetsCmd())
	return cmd
}

func exportCSVCmd() *cobra.Command {
	var (
		filters filterFlags
		output  string
	)

	cmd := &cobra.Command{
		Use:   "csv",
		Short: "Write transactions as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(config.ExpandPath(output)) //nolint:gosec // user-chosen output path
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer func() {
					if err := f.Close(); err != nil {
						slog.Error("failed to close export file", "error", err)
					}
				}()
				w = f
			}

			n, err := runExport(cmd, filters, export.NewCSVWriter(w), output != "" && output != "-")
			if err != nil {
				return err
			}
			if output != "" && output != "-" {
				fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to %s", n, output)))
			}
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	return cmd
}

func exportSheetsCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Write transactions to a Google spreadsheet",
		Long: `Write transactions to a Google spreadsheet, replacing its contents.

Authenticate once with 'haul sheets auth', or point export.service_account_path
at a service account key. The spreadsheet is created on first export unless
export.spreadsheet_id names an existing one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sheetsConfig, err := config.LoadSheetsConfig()
			if err != nil {
				return common.NewUserError("Google Sheets is not configured, run 'haul sheets auth' first", err)
			}

			writer, err := export.NewSheetsWriter(cmd.Context(), *sheetsConfig, slog.Default())
			if err != nil {
				return fmt.Errorf("failed to connect to Google Sheets: %w", err)
			}

			n, err := runExport(cmd, filters, writer, true)
			if err != nil {
				return err
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Exported %d transactions to Google Sheets", n)))
			return nil
		},
	}

	filters.register(cmd)
	return cmd
}

// runExport loads every matching transaction and hands them to w. The
// progress bar goes to stderr when showProgress is set.
func runExport(cmd *cobra.Command, filters filterFlags, w export.Writer, showProgress bool) (int, error) {
	filter, err := filters.build()
	if err != nil {
		return 0, err
	}

	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return 0, err
	}
	defer closeStorage(store)

	if filters.hasNames() {
		if err := filters.resolve(ctx, newCatalog(store), &filter); err != nil {
			return 0, err
		}
	}

	var progress func(done, total int)
	if showProgress {
		var bar *progressbar.ProgressBar
		progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(cmd.ErrOrStderr(), total, "Loading transactions...")
			}
			if err := bar.Set(done); err != nil {
				slog.Warn("Failed to update progress bar", "error", err)
			}
		}
	}

	txns, err := service.AllTransactions(ctx, store, filter, progress)
	if err != nil {
		return 0, err
	}

	if err := w.Write(ctx, newTable(ctx, store), txns); err != nil {
		if errors.Is(err, common.ErrNothingToExport) {
			return 0, common.NewUserError("No transactions match the filters", err)
		}
		return 0, fmt.Errorf("export failed: %w", err)
	}
	return len(txns), nil
}

func newProgressBar(w io.Writer, total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("[yellow][bold]"+description+"[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[yellow]=[reset]",
			SaucerHead:    "[yellow]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)
}
