package tui

import (
	"fmt"
	"strings"
)

// DetailModel renders every field of the selected row.
type DetailModel struct {
	row Row
}

// NewDetailModel creates a detail model for row.
func NewDetailModel(row Row) DetailModel {
	return DetailModel{row: row}
}

// View renders the fields as aligned label/value lines.
func (m DetailModel) View() string {
	if len(m.row.Fields) == 0 {
		return "Select a row to see its details."
	}
	width := 0
	for _, f := range m.row.Fields {
		if len(f.Label) > width {
			width = len(f.Label)
		}
	}
	var sb strings.Builder
	for _, f := range m.row.Fields {
		value := f.Value
		if value == "" {
			value = "--"
		}
		sb.WriteString(fmt.Sprintf(" %s  %s\n", labelStyle.Render(fmt.Sprintf("%-*s", width, f.Label)), value))
	}
	return sb.String()
}
