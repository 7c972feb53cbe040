package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Veraticus/haulbook/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCreateListDelete(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()
	f := createFixture(t, store)
	require.NoError(t, store.CreateTransaction(ctx, f.inTransit("2024-03-01")))

	bm, err := store.NewBackupManager()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(filepath.Dir(store.Path()), "backups"), bm.Dir())

	info, err := bm.Create(ctx, "before-import", "manual")
	require.NoError(t, err)
	assert.Equal(t, "before-import", info.ID)
	assert.Equal(t, 1, info.Transactions())
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.Positive(t, info.FileSize)

	_, err = bm.Create(ctx, "before-import", "again")
	assert.ErrorIs(t, err, ErrBackupExists)

	_, err = bm.Create(ctx, "../escape", "")
	assert.ErrorIs(t, err, ErrInvalidBackupID)

	list, err := bm.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "manual", list[0].Description)

	require.NoError(t, bm.Delete(ctx, "before-import"))
	assert.ErrorIs(t, bm.Delete(ctx, "before-import"), ErrBackupNotFound)
	_, err = bm.Get(ctx, "before-import")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestBackupRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haul.db")
	ctx := context.Background()

	store, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	f := createFixture(t, store)
	require.NoError(t, store.CreateTransaction(ctx, f.inTransit("2024-03-01")))

	bm, err := store.NewBackupManager()
	require.NoError(t, err)
	_, err = bm.Create(ctx, "one-trip", "")
	require.NoError(t, err)

	require.NoError(t, store.CreateTransaction(ctx, f.inTransit("2024-03-02")))
	require.NoError(t, bm.Restore(ctx, "one-trip"))

	reopened, err := NewSQLiteStorage(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	require.NoError(t, reopened.Migrate(ctx))

	page, err := reopened.SearchTransactions(ctx, service.TransactionFilter{}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)

	_, err = os.Stat(path + ".restore-previous")
	assert.True(t, os.IsNotExist(err))
}

func TestAutoBackupPrunes(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	bm, err := store.NewBackupManager()
	require.NoError(t, err)
	_, err = bm.Create(ctx, "manual", "")
	require.NoError(t, err)

	for i := 0; i < maxAutoBackups+2; i++ {
		info, err := bm.AutoBackup(ctx, "restore")
		require.NoError(t, err)
		assert.True(t, info.IsAuto)
	}

	list, err := bm.List(ctx)
	require.NoError(t, err)
	auto := 0
	for _, b := range list {
		if b.IsAuto {
			auto++
		}
	}
	assert.Equal(t, maxAutoBackups, auto)
	assert.Len(t, list, maxAutoBackups+1)
}
