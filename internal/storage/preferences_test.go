package storage

import (
	"context"
	"testing"

	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreferences(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	prefs := store.Preferences(context.Background())

	_, ok := prefs.Get(viewmodel.ColumnsPreferenceKey)
	assert.False(t, ok)

	require.NoError(t, prefs.Set(viewmodel.ColumnsPreferenceKey, `{"do_number":"hide"}`))
	require.NoError(t, prefs.Set(viewmodel.ColumnsPreferenceKey, `{"do_number":"show"}`))

	got, ok := prefs.Get(viewmodel.ColumnsPreferenceKey)
	require.True(t, ok)
	assert.Equal(t, `{"do_number":"show"}`, got)

	assert.ErrorIs(t, prefs.Set(" ", "x"), ErrEmptyString)
}

func TestPreferencesDriveTable(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	table := viewmodel.NewTransactionTable(store.Preferences(ctx))
	table.SetColumnVisibility(viewmodel.ColumnDONumber, false)
	table.SetPageSize(20)

	reloaded := viewmodel.NewTransactionTable(store.Preferences(ctx))
	assert.False(t, reloaded.IsVisible(viewmodel.ColumnDONumber))
	assert.Equal(t, 20, reloaded.Pagination().PageSize)
}
