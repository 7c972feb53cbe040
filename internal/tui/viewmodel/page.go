package viewmodel

import (
	"fmt"
	"math"
)

// PageInfo is the pagination metadata of a fetched page.
type PageInfo struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	LastPage    int `json:"last_page"`
	Total       int `json:"total"`
}

// NewPageInfo computes the last page for total items at perPage per page.
// An empty result still has one (empty) page.
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	lastPage := int(math.Ceil(float64(total) / float64(perPage)))
	if lastPage < 1 {
		lastPage = 1
	}
	return PageInfo{CurrentPage: page, PerPage: perPage, LastPage: lastPage, Total: total}
}

// From is the 1-based index of the first item on the page, 0 when empty.
func (p PageInfo) From() int {
	if p.Total == 0 {
		return 0
	}
	from := (p.CurrentPage-1)*p.PerPage + 1
	if from > p.Total {
		return 0
	}
	return from
}

// To is the 1-based index of the last item on the page.
func (p PageInfo) To() int {
	if p.From() == 0 {
		return 0
	}
	return min(p.CurrentPage*p.PerPage, p.Total)
}

// HasNext reports whether a later page exists.
func (p PageInfo) HasNext() bool {
	return p.CurrentPage < p.LastPage
}

// HasPrev reports whether an earlier page exists.
func (p PageInfo) HasPrev() bool {
	return p.CurrentPage > 1
}

// Offset is the number of items before the page.
func (p PageInfo) Offset() int {
	return (p.CurrentPage - 1) * p.PerPage
}

// Summary renders the footer line, e.g. "Showing 1 to 7 of 20".
func (p PageInfo) Summary() string {
	return fmt.Sprintf("Showing %d to %d of %d", p.From(), p.To(), p.Total)
}
