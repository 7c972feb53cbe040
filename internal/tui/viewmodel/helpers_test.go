package viewmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppState_String(t *testing.T) {
	tests := []struct {
		want  string
		state AppState
	}{
		{"Loading", StateLoading},
		{"Browsing", StateBrowsing},
		{"PickingColumns", StatePickingColumns},
		{"Error", StateError},
		{"Unknown(42)", AppState(42)},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.String())
		})
	}
}

func TestParseColumnKey(t *testing.T) {
	tests := []struct {
		input   string
		want    ColumnKey
		wantErr bool
	}{
		{input: "transaction_id", want: ColumnTransactionID},
		{input: " Loading_Date ", want: ColumnLoadingDate},
		{input: "transport_expense", want: ColumnTransportExpense},
		{input: "colour", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseColumnKey(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestColumnKeys(t *testing.T) {
	cols := AllColumns()
	require.Len(t, cols, 19)
	for _, k := range cols {
		back, err := ParseColumnKey(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, back)
		assert.NotEmpty(t, k.Title())
	}
	assert.False(t, ColumnKey(-1).Valid())
	assert.Empty(t, ColumnKey(99).Title())
}

func TestParseSortField(t *testing.T) {
	for _, f := range SortFields() {
		got, err := ParseSortField(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseSortField("vehicle")
	assert.Error(t, err)
}

func TestSortOrder(t *testing.T) {
	assert.Equal(t, SortDescending, SortAscending.Flip())
	assert.Equal(t, SortAscending, SortDescending.Flip())
	assert.Equal(t, "asc", SortAscending.String())
	assert.Equal(t, "↓", SortDescending.Arrow())
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   string
		maxLen int
	}{
		{"fits", "Cement", "Cement", 10},
		{"truncated", "Ultratech Cement OPC", "Ultrat...", 9},
		{"tiny limit", "Cement", "Cem", 3},
		{"multibyte", "₹₹₹₹₹₹", "₹₹...", 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateString(tt.input, tt.maxLen))
		})
	}
}

func TestSanitizeForDisplay(t *testing.T) {
	assert.Equal(t, "Plant A Gate 2", SanitizeForDisplay("Plant A\nGate\x00  2"))
}

func TestPageInfo(t *testing.T) {
	tests := []struct {
		name     string
		summary  string
		page     int
		perPage  int
		total    int
		lastPage int
		hasNext  bool
		hasPrev  bool
	}{
		{"first page", "Showing 1 to 7 of 20", 1, 7, 20, 3, true, false},
		{"last partial page", "Showing 15 to 20 of 20", 3, 7, 20, 3, false, true},
		{"empty", "Showing 0 to 0 of 0", 1, 7, 0, 1, false, false},
		{"exact fit", "Showing 11 to 20 of 20", 2, 10, 20, 2, false, true},
		{"past the end", "Showing 0 to 0 of 5", 4, 7, 5, 1, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPageInfo(tt.page, tt.perPage, tt.total)
			assert.Equal(t, tt.lastPage, p.LastPage)
			assert.Equal(t, tt.summary, p.Summary())
			assert.Equal(t, tt.hasNext, p.HasNext())
			assert.Equal(t, tt.hasPrev, p.HasPrev())
		})
	}
}
