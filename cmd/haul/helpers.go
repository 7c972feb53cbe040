package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/Veraticus/haulbook/internal/catalog"
	"github.com/Veraticus/haulbook/internal/cli"
	"github.com/Veraticus/haulbook/internal/common"
	"github.com/Veraticus/haulbook/internal/config"
	"github.com/Veraticus/haulbook/internal/storage"
	"github.com/Veraticus/haulbook/internal/tui/themes"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/viper"
)

// initStorage opens the configured database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func closeStorage(store *storage.SQLiteStorage) {
	if err := store.Close(); err != nil {
		slog.Error("failed to close storage", "error", err)
	}
}

// newTable builds the transaction table over the stored preferences.
func newTable(ctx context.Context, store *storage.SQLiteStorage) *viewmodel.TransactionTable {
	return viewmodel.NewTransactionTable(store.Preferences(ctx),
		viewmodel.WithDefaultPageSize(viper.GetInt("table.default_page_size")),
		viewmodel.WithLogger(slog.Default()),
	)
}

func newCatalog(store *storage.SQLiteStorage) *catalog.Catalog {
	return catalog.New(store, viper.GetDuration("catalog.ttl"))
}

func checkTheme(name string) error {
	if slices.Contains(themes.Names(), name) {
		return nil
	}
	return fmt.Errorf("%w: unknown theme %q (choose from %s)", common.ErrInvalidConfig, name, strings.Join(themes.Names(), ", "))
}

func currentTheme() themes.Theme {
	return themes.GetTheme(viper.GetString("ui.theme"))
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(cli.InputDateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return &t, nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(cli.PrimaryColor)

// printTable writes aligned columns with a styled header row.
func printTable(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	styled := make([]string, len(headers))
	for i, h := range headers {
		styled[i] = headerStyle.Render(h)
	}
	if _, err := fmt.Fprintln(tw, strings.Join(styled, "\t")); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return tw.Flush()
}

func formatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
