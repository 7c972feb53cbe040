package viewmodel

import (
	"encoding/json"
	"sync"
)

// Preference keys read by the transaction table.
const (
	ColumnsPreferenceKey    = "transaction_table.columns"
	PaginationPreferenceKey = "transaction_table.pagination"
)

// Visibility values stored in the columns preference.
const (
	VisibilityShow = "show"
	VisibilityHide = "hide"
)

// PreferenceStore is a small persistent key/value store.
type PreferenceStore interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// Pagination is the persisted paging preference.
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

// MemoryPreferences keeps preferences in a map. Setting Err makes every
// Set fail, which is handy for exercising best-effort persistence.
type MemoryPreferences struct {
	Err    error
	values map[string]string
	mu     sync.Mutex
}

// NewMemoryPreferences returns an empty in-memory store.
func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{values: make(map[string]string)}
}

// Get returns the stored value for key.
func (m *MemoryPreferences) Get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key.
func (m *MemoryPreferences) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	if m.values == nil {
		m.values = make(map[string]string)
	}
	m.values[key] = value
	return nil
}

func decodeColumns(raw string) map[ColumnKey]bool {
	visible := make(map[ColumnKey]bool, columnCount)
	for _, k := range AllColumns() {
		visible[k] = true
	}
	if raw == "" {
		return visible
	}

	var stored map[string]string
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return visible
	}
	for name, state := range stored {
		k, err := ParseColumnKey(name)
		if err != nil {
			continue
		}
		visible[k] = state != VisibilityHide
	}
	return visible
}

func encodeColumns(visible map[ColumnKey]bool) (string, error) {
	out := make(map[string]string, len(visible))
	for k, show := range visible {
		state := VisibilityShow
		if !show {
			state = VisibilityHide
		}
		out[k.String()] = state
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodePagination(raw string, defaultSize int) Pagination {
	p := Pagination{Page: 1, PageSize: defaultSize}
	if raw == "" {
		return p
	}
	var stored Pagination
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return p
	}
	if stored.Page >= 1 {
		p.Page = stored.Page
	}
	if stored.PageSize >= 1 {
		p.PageSize = stored.PageSize
	}
	return p
}
