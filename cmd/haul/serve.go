package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/Veraticus/haulbook/internal/api"
	"github.com/Veraticus/haulbook/internal/cli"
	"github.com/Veraticus/haulbook/internal/tui/components"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func dashboardCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show totals, top performers and discrepancies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			when := time.Now()
			if asOf != "" {
				t, err := parseDate(asOf)
				if err != nil {
					return err
				}
				when = *t
			}

			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			d, err := store.GetDashboard(ctx, when)
			if err != nil {
				return fmt.Errorf("failed to build dashboard: %w", err)
			}
			fmt.Println(components.Dashboard(d, currentTheme()))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "compute inactivity relative to this date (YYYY-MM-DD)")
	return cmd
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the book over HTTP",
		Long: `Serve the dashboard, reference lists and transactions as JSON.

The server stops cleanly on Ctrl+C.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			addr := viper.GetString("server.addr")
			srv := api.NewServer(store, newCatalog(store),
				api.WithTimeout(viper.GetDuration("server.timeout")),
			)

			fmt.Println(cli.FormatInfo("Listening on " + addr))
			if err := srv.Serve(ctx, addr); err != nil {
				return fmt.Errorf("server failed: %w", err)
			}
			slog.Info("server stopped")
			return nil
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from server.addr)")
	_ = viper.BindPFlag("server.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

Every other command migrates on start, so this is mostly useful with
--status or right after restoring an old backup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetBool("status")
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer closeStorage(store)

			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			if status {
				fmt.Println(cli.FormatTitle("Database Migration Status"))
				fmt.Printf("Database: %s\nSchema version: %d\n", store.Path(), version)
				return nil
			}

			slog.Info("database migrated", "path", store.Path(), "version", version)
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Database is at schema version %d", version)))
			return nil
		},
	}

	cmd.Flags().Bool("status", false, "show the current schema version")
	return cmd
}
