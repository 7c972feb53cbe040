package tui

import "github.com/Veraticus/haulbook/internal/service"

// pageLoadedMsg carries the result of a page fetch. requested is the page
// number that was asked for, so stale responses can be dropped.
type pageLoadedMsg struct {
	page      *service.TransactionPage
	err       error
	requested int
	pageSize  int
}
