package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/waabox/runnerstat/internal/domain"
)

// ReportLoadedMsg is sent when the report has been collected and aggregated.
// It is exported so that tests can inject it directly into AppModel.Update.
type ReportLoadedMsg struct {
	Report domain.Report
	Err    error
}

// Loader collects and aggregates a report.
type Loader func(ctx context.Context) (domain.Report, error)

// viewState indicates the current navigation level.
type viewState int

const (
	viewRows viewState = iota
	viewDetail
)

// chrome is the number of lines the header, separators and footer take.
const chrome = 6

// AppModel is the root Bubbletea model for the report browser.
type AppModel struct {
	ctx  context.Context
	org  string
	load Loader
	// Navigation
	view   viewState
	list   RowListModel
	detail DetailModel
	// General state
	report  domain.Report
	loading bool
	err     error
	width   int
	height  int
}

// NewAppModel creates the root application model.
func NewAppModel(ctx context.Context, org string, load Loader) AppModel {
	return AppModel{
		ctx:     ctx,
		org:     org,
		load:    load,
		list:    NewRowListModel(nil, 0),
		loading: true,
	}
}

// Init triggers the initial report load.
func (m AppModel) Init() tea.Cmd {
	return m.loadReport()
}

func (m AppModel) loadReport() tea.Cmd {
	return func() tea.Msg {
		r, err := m.load(m.ctx)
		return ReportLoadedMsg{Report: r, Err: err}
	}
}

// Update handles all incoming messages and key events.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list = m.list.Resize(m.listHeight())

	case ReportLoadedMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.report = msg.Report
		m.list = NewRowListModel(RowsFromReport(msg.Report), m.listHeight())
		m.view = viewRows

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}
		switch m.view {
		case viewRows:
			return m.updateRows(msg)
		case viewDetail:
			return m.updateDetail(msg)
		}
	}
	return m, nil
}

func (m AppModel) updateRows(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "down", "j":
		m.list = m.list.MoveDown()
	case "up", "k":
		m.list = m.list.MoveUp()
	case "home", "g":
		m.list = m.list.Home()
	case "end", "G":
		m.list = m.list.End()
	case "enter":
		if len(m.list.Rows()) > 0 {
			m.detail = NewDetailModel(m.list.SelectedRow())
			m.view = viewDetail
		}
	}
	return m, nil
}

func (m AppModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "backspace":
		m.view = viewRows
	case "down", "j":
		m.list = m.list.MoveDown()
		m.detail = NewDetailModel(m.list.SelectedRow())
	case "up", "k":
		m.list = m.list.MoveUp()
		m.detail = NewDetailModel(m.list.SelectedRow())
	}
	return m, nil
}

func (m AppModel) listHeight() int {
	if m.height == 0 {
		return 0
	}
	if h := m.height - chrome; h > 3 {
		return h
	}
	return 3
}

// View renders the full TUI.
func (m AppModel) View() string {
	if m.loading {
		return fmt.Sprintf("Collecting runner usage for %s...\n", m.org)
	}
	if m.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n\nPress 'q' to quit.\n"
	}

	header := headerStyle.Render(fmt.Sprintf(" runnerstat | %s | %s", m.org, m.scope())) + "\n"
	switch m.view {
	case viewDetail:
		title := fmt.Sprintf(" %s\n", m.list.SelectedRow().Title)
		footer := " ↑/↓: previous/next   esc: back   q: quit\n"
		return header + separator + title + m.detail.View() + separator + footer
	default:
		title := " Jobs\n"
		if m.report.Grouped() {
			title = fmt.Sprintf(" Groups by %s\n", m.report.GroupBy.Title())
		}
		footer := " ↑/↓: navigate   enter: details   g/G: top/bottom   q: quit\n"
		return header + separator + title + m.list.View() + separator + footer
	}
}

func (m AppModel) scope() string {
	jobs := m.report.TotalJobs()
	if m.report.Grouped() {
		return fmt.Sprintf("%d jobs in %d groups", jobs, len(m.report.Groups))
	}
	return fmt.Sprintf("%d jobs", jobs)
}

// Run starts the Bubbletea program and blocks until the user quits.
func Run(ctx context.Context, org string, load Loader) error {
	p := tea.NewProgram(NewAppModel(ctx, org, load), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
