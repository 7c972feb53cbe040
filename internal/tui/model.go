// Package tui is the terminal history browser over the transaction book.
package tui

import (
	"context"
	"log/slog"
	"slices"

	"github.com/Veraticus/haulbook/internal/model"
	"github.com/Veraticus/haulbook/internal/tui/components"
	"github.com/Veraticus/haulbook/internal/tui/themes"
	"github.com/Veraticus/haulbook/internal/tui/viewmodel"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// pageSizes are the steps + and - move through.
var pageSizes = []int{5, 7, 10, 15, 20, 25, 50, 100}

// chromeHeight is the number of lines the header, footer and help take.
const chromeHeight = 6

// Model holds the history browser state.
type Model struct {
	ctx      context.Context
	loader   PageLoader
	table    *viewmodel.TransactionTable
	logger   *slog.Logger
	err      error
	detail   *model.Transaction
	theme    themes.Theme
	keymap   KeyMap
	help     help.Model
	grid     components.Grid
	fetched  []model.Transaction // page as loaded, sorts start from it
	records  []model.Transaction
	page     viewmodel.PageInfo
	state    viewmodel.AppState
	picker   int
	width    int
	height   int
	loaded   bool
	quitting bool
}

// New creates a browser over table that fetches pages with loader.
func New(ctx context.Context, table *viewmodel.TransactionTable, loader PageLoader, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	h := help.New()

	m := Model{
		ctx:    ctx,
		loader: loader,
		table:  table,
		logger: cfg.Logger,
		theme:  cfg.Theme,
		keymap: DefaultKeyMap(),
		help:   h,
		grid:   components.NewGrid(cfg.Theme),
		state:  viewmodel.StateLoading,
		width:  cfg.Width,
		height: cfg.Height,
	}
	m.resize()
	return m
}

// Init loads the stored page.
func (m Model) Init() tea.Cmd {
	p := m.table.Pagination()
	return m.loadPage(p.Page, p.PageSize)
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case pageLoadedMsg:
		return m.handlePageLoaded(msg)

	case tea.KeyMsg:
		if key.Matches(msg, m.keymap.ForceQuit) {
			m.quitting = true
			return m, tea.Quit
		}
		switch {
		case m.detail != nil:
			return m.updateDetail(msg)
		case m.state == viewmodel.StatePickingColumns:
			return m.updatePicker(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) handlePageLoaded(msg pageLoadedMsg) (tea.Model, tea.Cmd) {
	p := m.table.Pagination()
	if msg.requested != p.Page || msg.pageSize != p.PageSize {
		return m, nil
	}
	if msg.err != nil {
		m.logger.Error("failed to load transactions", "page", msg.requested, "error", msg.err)
		m.err = msg.err
		m.state = viewmodel.StateError
		return m, nil
	}

	// A stored page past the end (rows deleted since) falls back to the last page.
	if msg.page.Total > 0 && msg.requested > msg.page.LastPage {
		m.table.SetPage(msg.page.LastPage)
		return m, m.loadPage(msg.page.LastPage, p.PageSize)
	}

	m.err = nil
	m.loaded = true
	m.fetched = msg.page.Transactions
	m.page = msg.page.PageInfo
	m.state = viewmodel.StateBrowsing
	m.refresh()
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()

	case key.Matches(msg, m.keymap.Refresh):
		return m.reload()

	case m.state != viewmodel.StateBrowsing:
		// Loading or failed: only quit, help and refresh apply.

	case key.Matches(msg, m.keymap.CycleSort):
		m.table.SetSort(nextSortField(m.table.SortConfig().Field))
		m.refresh()

	case key.Matches(msg, m.keymap.FlipOrder):
		m.table.SetSort(m.table.SortConfig().Field)
		m.refresh()

	case key.Matches(msg, m.keymap.NextPage):
		if m.page.HasNext() {
			m.table.SetPage(m.page.CurrentPage + 1)
			return m.reload()
		}

	case key.Matches(msg, m.keymap.PrevPage):
		if m.page.HasPrev() {
			m.table.SetPage(m.page.CurrentPage - 1)
			return m.reload()
		}

	case key.Matches(msg, m.keymap.GrowPage):
		if size := nextPageSize(m.table.Pagination().PageSize, +1); size != m.table.Pagination().PageSize {
			m.table.SetPageSize(size)
			return m.reload()
		}

	case key.Matches(msg, m.keymap.ShrinkPage):
		if size := nextPageSize(m.table.Pagination().PageSize, -1); size != m.table.Pagination().PageSize {
			m.table.SetPageSize(size)
			return m.reload()
		}

	case key.Matches(msg, m.keymap.Columns):
		m.state = viewmodel.StatePickingColumns

	case key.Matches(msg, m.keymap.Detail):
		if rec := m.selected(); rec != nil {
			m.detail = rec
		}

	default:
		var cmd tea.Cmd
		m.grid, cmd = m.grid.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	columns := viewmodel.AllColumns()
	switch {
	case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Columns), key.Matches(msg, m.keymap.Quit):
		m.state = viewmodel.StateBrowsing
		m.refresh()
	case key.Matches(msg, m.keymap.Up):
		m.picker = max(0, m.picker-1)
	case key.Matches(msg, m.keymap.Down):
		m.picker = min(len(columns)-1, m.picker+1)
	case key.Matches(msg, m.keymap.Toggle), key.Matches(msg, m.keymap.Detail):
		m.table.ToggleColumn(columns[m.picker])
	case key.Matches(msg, m.keymap.ShowAll):
		m.table.ShowAllColumns()
	default:
		if n, ok := digit(msg); ok && n <= len(columns) {
			m.picker = n - 1
			m.table.ToggleColumn(columns[n-1])
		}
	}
	return m, nil
}

func (m Model) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Back), key.Matches(msg, m.keymap.Detail), key.Matches(msg, m.keymap.Quit):
		m.detail = nil
	}
	return m, nil
}

// reload fetches the current page preference again.
func (m Model) reload() (tea.Model, tea.Cmd) {
	m.state = viewmodel.StateLoading
	p := m.table.Pagination()
	return m, m.loadPage(p.Page, p.PageSize)
}

// refresh re-sorts the loaded page and pushes it into the grid.
func (m *Model) refresh() {
	m.records = m.table.Sort(m.fetched)
	m.grid.SetData(m.headers(), m.table.Rows(m.records))
}

// headers returns the visible titles with the sort arrow on the sorted column.
func (m Model) headers() []string {
	headers := m.table.Headers()
	cfg := m.table.SortConfig()
	sorted, ok := sortColumn(cfg.Field)
	if !ok {
		return headers
	}
	for i, k := range m.table.VisibleColumns() {
		if k == sorted {
			headers[i] += " " + cfg.Order.Arrow()
		}
	}
	return headers
}

func (m *Model) resize() {
	gridHeight := m.height - chromeHeight
	if m.help.ShowAll {
		gridHeight -= len(m.keymap.FullHelp()[0])
	}
	m.grid.Resize(m.width, gridHeight)
}

func (m Model) selected() *model.Transaction {
	i := m.grid.Cursor()
	if i < 0 || i >= len(m.records) {
		return nil
	}
	rec := m.records[i]
	return &rec
}

// Records returns the loaded page in display order.
func (m Model) Records() []model.Transaction {
	return m.records
}

// State returns the browser state.
func (m Model) State() viewmodel.AppState {
	return m.state
}

// Err returns the last load error.
func (m Model) Err() error {
	return m.err
}

// Page returns the metadata of the loaded page.
func (m Model) Page() viewmodel.PageInfo {
	return m.page
}

func nextSortField(current viewmodel.SortField) viewmodel.SortField {
	fields := viewmodel.SortFields()
	i := slices.Index(fields, current)
	return fields[(i+1)%len(fields)]
}

func nextPageSize(current, step int) int {
	if step > 0 {
		for _, s := range pageSizes {
			if s > current {
				return s
			}
		}
		return current
	}
	for i := len(pageSizes) - 1; i >= 0; i-- {
		if pageSizes[i] < current {
			return pageSizes[i]
		}
	}
	return current
}

func sortColumn(field viewmodel.SortField) (viewmodel.ColumnKey, bool) {
	switch field {
	case viewmodel.SortByID:
		return viewmodel.ColumnTransactionID, true
	case viewmodel.SortByLoadingDate:
		return viewmodel.ColumnLoadingDate, true
	case viewmodel.SortByUnloadingDate:
		return viewmodel.ColumnUnloadingDate, true
	case viewmodel.SortByProductName:
		return viewmodel.ColumnProduct, true
	case viewmodel.SortByLoadingQuantity:
		return viewmodel.ColumnLoadingQuantity, true
	case viewmodel.SortByUnloadingQuantity:
		return viewmodel.ColumnUnloadingQuantity, true
	case viewmodel.SortByTransportExpense:
		return viewmodel.ColumnTransportExpense, true
	}
	return 0, false
}

func digit(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '0'), true
}
