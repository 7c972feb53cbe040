package viewmodel

// AppState represents the overall application state.
type AppState int

const (
	// StateLoading indicates a page is being fetched.
	StateLoading AppState = iota
	// StateBrowsing indicates the table has focus.
	StateBrowsing
	// StatePickingColumns indicates the column picker is open.
	StatePickingColumns
	// StateError indicates an error has occurred.
	StateError
)
