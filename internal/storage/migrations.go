package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application expects.
// If the database cannot be migrated to this version, it's a fatal error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

func execAll(tx *sql.Tx, queries []string) error {
	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// Amounts are stored as decimal strings and dates as YYYY-MM-DD text so
// that values round-trip exactly and dates order lexically.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS products (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL UNIQUE COLLATE NOCASE,
					unit TEXT NOT NULL DEFAULT '',
					description TEXT NOT NULL DEFAULT '',
					rate TEXT NOT NULL DEFAULT '0',
					frequency_of_use INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS clients (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL COLLATE NOCASE,
					address TEXT NOT NULL DEFAULT '',
					state TEXT NOT NULL DEFAULT '',
					pin TEXT NOT NULL DEFAULT '',
					type TEXT NOT NULL CHECK (type IN ('loading_point', 'unloading_point')),
					client_size TEXT NOT NULL CHECK (client_size IN ('big', 'medium', 'small', 'misc')),
					frequency_of_use INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					UNIQUE (name, type)
				)`,
				`CREATE TABLE IF NOT EXISTS vehicles (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					number TEXT NOT NULL UNIQUE COLLATE NOCASE,
					type TEXT NOT NULL DEFAULT '',
					frequency_of_use INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS drivers (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					name TEXT NOT NULL,
					phone TEXT NOT NULL DEFAULT '',
					active INTEGER NOT NULL DEFAULT 1,
					created_at DATETIME NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS transactions (
					id INTEGER PRIMARY KEY AUTOINCREMENT,
					product_id INTEGER NOT NULL REFERENCES products(id),
					loading_point_id INTEGER NOT NULL REFERENCES clients(id),
					loading_vehicle_id INTEGER NOT NULL REFERENCES vehicles(id),
					loading_driver_id INTEGER REFERENCES drivers(id),
					loading_date TEXT NOT NULL,
					loading_quantity TEXT,
					loading_rate TEXT,
					unloading_point_id INTEGER REFERENCES clients(id),
					unloading_vehicle_id INTEGER REFERENCES vehicles(id),
					unloading_driver_id INTEGER REFERENCES drivers(id),
					unloading_date TEXT,
					unloading_quantity TEXT,
					unloading_rate TEXT,
					transport_expense TEXT,
					do_number TEXT NOT NULL DEFAULT '',
					challan_number TEXT NOT NULL DEFAULT '',
					is_sold INTEGER NOT NULL DEFAULT 0,
					created_at DATETIME NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
			})
		},
	},
	{
		Version:     2,
		Description: "Index transaction search columns",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE INDEX IF NOT EXISTS idx_transactions_loading_date ON transactions(loading_date DESC, id DESC)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_product ON transactions(product_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_loading_point ON transactions(loading_point_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_unloading_point ON transactions(unloading_point_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_vehicle ON transactions(loading_vehicle_id)`,
				`CREATE INDEX IF NOT EXISTS idx_clients_type ON clients(type)`,
			})
		},
	},
	{
		Version:     3,
		Description: "Add preferences table",
		Up: func(tx *sql.Tx) error {
			return execAll(tx, []string{
				`CREATE TABLE IF NOT EXISTS preferences (
					key TEXT PRIMARY KEY,
					value TEXT NOT NULL,
					updated_at DATETIME NOT NULL
				)`,
			})
		},
	},
}

// SchemaVersion returns the current PRAGMA user_version.
func (s *SQLiteStorage) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return v, nil
}

// Migrate applies all pending database migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	currentVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, txErr := s.db.BeginTx(ctx, nil)
		if txErr != nil {
			return fmt.Errorf("failed to begin transaction: %w", txErr)
		}

		if upErr := migration.Up(tx); upErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d failed: %w", migration.Version, upErr)
		}

		if _, execErr := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); execErr != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to update schema version: %w", execErr)
		}

		if commitErr := tx.Commit(); commitErr != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, commitErr)
		}

		slog.Info("Applied migration",
			"version", migration.Version,
			"description", migration.Description)
	}

	finalVersion, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}
	if finalVersion != ExpectedSchemaVersion {
		return fmt.Errorf("database schema version mismatch: expected %d, got %d", ExpectedSchemaVersion, finalVersion)
	}

	return nil
}
