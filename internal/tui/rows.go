package tui

import (
	"fmt"
	"strconv"

	"github.com/waabox/runnerstat/internal/domain"
)

// Field is one labelled value in the detail pane.
type Field struct {
	Label string
	Value string
}

// Row is one line of the browser: a job in a flat report or a group summary
// in a grouped one.
type Row struct {
	Icon    string
	Title   string
	Columns []string
	Fields  []Field
}

// RowsFromReport builds the browser rows for a report.
func RowsFromReport(r domain.Report) []Row {
	if r.Grouped() {
		rows := make([]Row, 0, len(r.Groups))
		for _, g := range r.Groups {
			rows = append(rows, groupRow(g))
		}
		return rows
	}
	rows := make([]Row, 0, len(r.Jobs))
	for _, j := range r.Jobs {
		rows = append(rows, jobRow(j))
	}
	return rows
}

func jobRow(j domain.JobRecord) Row {
	return Row{
		Icon:    statusIcon(j.Status),
		Title:   j.Repo + " / " + j.JobName,
		Columns: []string{j.WorkflowName, j.RunnerLabels(), j.Duration()},
		Fields: []Field{
			{"Repository", j.Repo},
			{"Branch", j.Branch},
			{"Workflow", fmt.Sprintf("%s (%s)", j.WorkflowName, j.WorkflowFile)},
			{"Job", fmt.Sprintf("%s #%d", j.JobName, j.JobID)},
			{"Run", strconv.FormatInt(j.RunID, 10)},
			{"Runner labels", j.RunnerLabels()},
			{"Runner type", string(j.RunnerType)},
			{"Cost category", string(j.CostCategory)},
			{"Status", j.Status},
			{"Conclusion", j.Conclusion},
			{"Started", j.StartedAt},
			{"Completed", j.CompletedAt},
			{"Duration", j.Duration()},
			{"URL", j.HTMLURL},
		},
	}
}

func groupRow(g domain.GroupSummary) Row {
	return Row{
		Icon:    rateIcon(g),
		Title:   g.Key,
		Columns: []string{fmt.Sprintf("%d jobs", g.Total), g.SuccessRate, g.AverageDuration},
		Fields: []Field{
			{g.GroupBy.Title(), g.Key},
			{"Total jobs", strconv.Itoa(g.Total)},
			{"Successful", strconv.Itoa(g.Successful)},
			{"Failed", strconv.Itoa(g.Failed)},
			{"Success rate", g.SuccessRate},
			{"Average duration", g.AverageDuration},
			{"Sample repository", g.SampleRepo},
		},
	}
}

func statusIcon(status string) string {
	switch status {
	case "completed", "success":
		return "✓"
	case "failure":
		return "✗"
	case "in_progress":
		return "●"
	case "queued", "waiting":
		return "↷"
	case "cancelled":
		return "○"
	default:
		return "?"
	}
}

func rateIcon(g domain.GroupSummary) string {
	if g.Total == 0 {
		return "?"
	}
	pct := float64(g.Successful) / float64(g.Total) * 100
	switch {
	case pct > 80:
		return "✓"
	case pct < 50:
		return "✗"
	default:
		return "●"
	}
}
