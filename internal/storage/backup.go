package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Backup errors.
var (
	ErrBackupNotFound  = errors.New("backup not found")
	ErrBackupCorrupted = errors.New("backup integrity check failed")
	ErrBackupExists    = errors.New("backup already exists")
	ErrInvalidBackupID = errors.New("invalid backup id: cannot contain path separators")
)

const maxAutoBackups = 5

// BackupManager snapshots the database file into a backups directory
// next to it. Every snapshot has a .db file and a .meta.json sidecar.
type BackupManager struct {
	db         *sql.DB
	dbPath     string
	backupsDir string
}

// BackupInfo describes one snapshot.
type BackupInfo struct {
	CreatedAt     time.Time      `json:"created_at"`
	RowCounts     map[string]int `json:"row_counts"`
	ID            string         `json:"id"`
	Description   string         `json:"description"`
	FileSize      int64          `json:"file_size"`
	SchemaVersion int            `json:"schema_version"`
	IsAuto        bool           `json:"is_auto"`
}

// Transactions is the number of transactions in the snapshot.
func (b BackupInfo) Transactions() int { return b.RowCounts["transactions"] }

// NewBackupManager creates the backups directory if needed.
func NewBackupManager(db *sql.DB, dbPath string) (*BackupManager, error) {
	backupsDir := filepath.Join(filepath.Dir(dbPath), "backups")
	if err := os.MkdirAll(backupsDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create backups directory: %w", err)
	}
	return &BackupManager{db: db, dbPath: dbPath, backupsDir: backupsDir}, nil
}

// Dir returns the directory snapshots are written to.
func (bm *BackupManager) Dir() string { return bm.backupsDir }

func validBackupID(id string) error {
	if id == "" || strings.ContainsAny(id, `/\'";`) || strings.Contains(id, "..") {
		return ErrInvalidBackupID
	}
	return nil
}

func (bm *BackupManager) paths(id string) (dbFile, metaFile string) {
	return filepath.Join(bm.backupsDir, id+".db"), filepath.Join(bm.backupsDir, id+".meta.json")
}

// Create snapshots the database under tag. An empty tag gets a timestamp.
func (bm *BackupManager) Create(ctx context.Context, tag, description string) (*BackupInfo, error) {
	return bm.create(ctx, tag, description, false)
}

func (bm *BackupManager) create(ctx context.Context, tag, description string, auto bool) (*BackupInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if tag == "" {
		tag = "backup-" + time.Now().Format("2006-01-02-150405")
	}
	if err := validBackupID(tag); err != nil {
		return nil, err
	}

	dbFile, metaFile := bm.paths(tag)
	if _, err := os.Stat(dbFile); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrBackupExists, tag)
	}

	var schemaVersion int
	if err := bm.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&schemaVersion); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	if err := bm.snapshot(ctx, dbFile); err != nil {
		return nil, fmt.Errorf("failed to snapshot database: %w", err)
	}

	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat backup: %w", err)
	}

	info := BackupInfo{
		ID:            tag,
		CreatedAt:     time.Now(),
		Description:   description,
		FileSize:      stat.Size(),
		RowCounts:     bm.rowCounts(ctx),
		SchemaVersion: schemaVersion,
		IsAuto:        auto,
	}
	if err := writeJSONAtomic(metaFile, info); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("failed to remove backup after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save backup metadata: %w", err)
	}

	slog.Info("created backup", "id", tag, "size", info.FileSize)
	return &info, nil
}

// List returns every snapshot, newest first. Unreadable sidecars are skipped.
func (bm *BackupManager) List(_ context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(bm.backupsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backups directory: %w", err)
	}

	backups := make([]BackupInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := readInfo(filepath.Join(bm.backupsDir, entry.Name()))
		if err != nil {
			slog.Debug("skipping unreadable backup metadata", "file", entry.Name(), "error", err)
			continue
		}
		backups = append(backups, *info)
	}

	sort.SliceStable(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns one snapshot's metadata.
func (bm *BackupManager) Get(_ context.Context, id string) (*BackupInfo, error) {
	if err := validBackupID(id); err != nil {
		return nil, err
	}
	_, metaFile := bm.paths(id)
	info, err := readInfo(metaFile)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrBackupNotFound, id)
	}
	return info, err
}

// Restore replaces the database file with a snapshot. It closes the
// database handle, so the owning storage must be reopened afterwards.
func (bm *BackupManager) Restore(ctx context.Context, id string) error {
	if _, err := bm.Get(ctx, id); err != nil {
		return err
	}
	dbFile, _ := bm.paths(id)
	if _, err := os.Stat(dbFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		return fmt.Errorf("failed to access backup: %w", err)
	}
	if err := checkIntegrity(dbFile); err != nil {
		return fmt.Errorf("%w: %w", ErrBackupCorrupted, err)
	}

	if _, err := bm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		slog.Warn("failed to checkpoint WAL before restore", "error", err)
	}
	if err := bm.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	previous := bm.dbPath + ".restore-previous"
	if err := copyFile(bm.dbPath, previous); err != nil {
		return fmt.Errorf("failed to save current database: %w", err)
	}
	if err := copyFile(dbFile, bm.dbPath); err != nil {
		if undoErr := copyFile(previous, bm.dbPath); undoErr != nil {
			slog.Error("failed to put back database after restore failure", "error", undoErr)
		}
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	for _, suffix := range []string{"-wal", "-shm", ".restore-previous"} {
		if err := os.Remove(bm.dbPath + suffix); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("failed to remove stale database file", "file", bm.dbPath+suffix, "error", err)
		}
	}

	slog.Info("restored backup", "id", id)
	return nil
}

// Delete removes a snapshot and its metadata.
func (bm *BackupManager) Delete(_ context.Context, id string) error {
	if err := validBackupID(id); err != nil {
		return err
	}
	dbFile, metaFile := bm.paths(id)
	if err := os.Remove(dbFile); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrBackupNotFound, id)
		}
		return fmt.Errorf("failed to remove backup: %w", err)
	}
	if err := os.Remove(metaFile); err != nil {
		slog.Debug("failed to remove backup metadata", "error", err, "path", metaFile)
	}
	return nil
}

// AutoBackup snapshots the database before a risky operation and prunes
// older automatic snapshots.
func (bm *BackupManager) AutoBackup(ctx context.Context, operation string) (*BackupInfo, error) {
	tag := fmt.Sprintf("auto-%s-%d", operation, time.Now().UnixNano())
	info, err := bm.create(ctx, tag, "Automatic backup before "+operation, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create automatic backup: %w", err)
	}
	bm.pruneAuto(ctx)
	return info, nil
}

func (bm *BackupManager) pruneAuto(ctx context.Context) {
	backups, err := bm.List(ctx)
	if err != nil {
		slog.Warn("failed to list backups for pruning", "error", err)
		return
	}
	kept := 0
	for _, b := range backups {
		if !b.IsAuto {
			continue
		}
		kept++
		if kept > maxAutoBackups {
			if err := bm.Delete(ctx, b.ID); err != nil {
				slog.Debug("failed to prune automatic backup", "id", b.ID, "error", err)
			}
		}
	}
}

func (bm *BackupManager) rowCounts(ctx context.Context) map[string]int {
	counts := make(map[string]int)
	for table, query := range map[string]string{
		"products":     "SELECT COUNT(*) FROM products",
		"clients":      "SELECT COUNT(*) FROM clients",
		"vehicles":     "SELECT COUNT(*) FROM vehicles",
		"drivers":      "SELECT COUNT(*) FROM drivers",
		"transactions": "SELECT COUNT(*) FROM transactions",
	} {
		var n int
		if err := bm.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
			slog.Debug("failed to count rows for backup", "table", table, "error", err)
		}
		counts[table] = n
	}
	return counts
}

// snapshot writes a consistent copy with VACUUM INTO, falling back to a
// file copy when the SQLite build lacks it.
func (bm *BackupManager) snapshot(ctx context.Context, dest string) error {
	if _, err := bm.db.ExecContext(ctx, "PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to checkpoint WAL: %w", err)
	}
	if strings.ContainsAny(dest, `'";`) {
		return errors.New("invalid backup path")
	}
	// #nosec G201 - dest is built from a validated id
	if _, err := bm.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", dest)); err != nil {
		slog.Debug("VACUUM INTO failed, copying file", "error", err)
		return copyFile(bm.dbPath, dest)
	}
	return nil
}

func checkIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check: %s", result)
	}
	return nil
}

func copyFile(src, dst string) error {
	// #nosec G304 - paths come from the storage location
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	tmp := dst + ".tmp"
	// #nosec G304
	out, err := os.Create(filepath.Clean(tmp))
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}

func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func readInfo(path string) (*BackupInfo, error) {
	// #nosec G304 - path is inside the backups directory
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	var info BackupInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
