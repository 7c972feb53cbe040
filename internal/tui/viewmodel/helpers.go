package viewmodel

import (
	"fmt"
	"strings"
)

// String returns the name of the sort field.
func (f SortField) String() string {
	if f < 0 || int(f) >= len(sortFieldNames) {
		return fmt.Sprintf("Unknown(%d)", f)
	}
	return sortFieldNames[f]
}

// String returns a string representation of the sort order.
func (o SortOrder) String() string {
	switch o {
	case SortAscending:
		return "asc"
	case SortDescending:
		return "desc"
	default:
		return fmt.Sprintf("Unknown(%d)", o)
	}
}

// String returns a string representation of the app state.
func (s AppState) String() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateBrowsing:
		return "Browsing"
	case StatePickingColumns:
		return "PickingColumns"
	case StateError:
		return "Error"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// TruncateString truncates a string to the specified length with ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeForDisplay removes potentially problematic characters for terminal display.
func SanitizeForDisplay(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return ' '
		}
		return r
	}, s)

	return strings.Join(strings.Fields(s), " ")
}
