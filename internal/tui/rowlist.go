package tui

import (
	"fmt"
	"strings"
)

// RowListModel is an immutable Bubbletea-compatible model for the row list panel.
type RowListModel struct {
	rows   []Row
	cursor int
	offset int
	height int
}

// NewRowListModel creates a row list model showing at most height rows at once.
// A height below one shows every row.
func NewRowListModel(rows []Row, height int) RowListModel {
	return RowListModel{rows: rows, height: height}
}

// Rows returns the rows in the list.
func (m RowListModel) Rows() []Row {
	return m.rows
}

// MoveDown returns a new model with the cursor moved down by one.
func (m RowListModel) MoveDown() RowListModel {
	if m.cursor < len(m.rows)-1 {
		m.cursor++
	}
	return m.scroll()
}

// MoveUp returns a new model with the cursor moved up by one.
func (m RowListModel) MoveUp() RowListModel {
	if m.cursor > 0 {
		m.cursor--
	}
	return m.scroll()
}

// Home returns a new model with the cursor on the first row.
func (m RowListModel) Home() RowListModel {
	m.cursor = 0
	return m.scroll()
}

// End returns a new model with the cursor on the last row.
func (m RowListModel) End() RowListModel {
	if len(m.rows) > 0 {
		m.cursor = len(m.rows) - 1
	}
	return m.scroll()
}

// Resize returns a new model showing height rows at once.
func (m RowListModel) Resize(height int) RowListModel {
	m.height = height
	return m.scroll()
}

// SelectedIndex returns the current cursor position.
func (m RowListModel) SelectedIndex() int {
	return m.cursor
}

// SelectedRow returns the currently highlighted row.
// Returns zero-value Row if the list is empty.
func (m RowListModel) SelectedRow() Row {
	if len(m.rows) == 0 {
		return Row{}
	}
	return m.rows[m.cursor]
}

// scroll keeps the cursor inside the visible window.
func (m RowListModel) scroll() RowListModel {
	if m.height < 1 {
		m.offset = 0
		return m
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+m.height {
		m.offset = m.cursor - m.height + 1
	}
	return m
}

// View renders the visible rows as a string.
func (m RowListModel) View() string {
	if len(m.rows) == 0 {
		return "No jobs matched the specified criteria."
	}
	end := len(m.rows)
	if m.height > 0 && m.offset+m.height < end {
		end = m.offset + m.height
	}
	var sb strings.Builder
	for i := m.offset; i < end; i++ {
		r := m.rows[i]
		line := fmt.Sprintf("%s %-40s %s", r.Icon, truncate(r.Title, 40), strings.Join(r.Columns, "  "))
		if i == m.cursor {
			sb.WriteString(selectedStyle.Render("> " + line))
		} else {
			sb.WriteString("  " + line)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
