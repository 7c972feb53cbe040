package storage

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
)

// preferenceStore persists view preferences in the preferences table.
type preferenceStore struct {
	ctx context.Context
	db  *sql.DB
}

// Preferences returns a key/value store backed by the database. The store
// uses ctx for every query it runs.
func (s *SQLiteStorage) Preferences(ctx context.Context) viewmodel.PreferenceStore {
	if ctx == nil {
		ctx = context.Background()
	}
	return &preferenceStore{ctx: ctx, db: s.db}
}

func (p *preferenceStore) Get(key string) (string, bool) {
	var value string
	err := p.db.QueryRowContext(p.ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			slog.Warn("failed to read preference", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

func (p *preferenceStore) Set(key, value string) error {
	if err := validateString(key, "preference key"); err != nil {
		return err
	}
	_, err := p.db.ExecContext(p.ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now())
	return err
}
