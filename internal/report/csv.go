package report

import (
	"encoding/csv"
	"io"
	"log/slog"
	"strconv"

	"github.com/waabox/runnerstat/internal/domain"
)

// JobHeader is the CSV header of a flat report.
var JobHeader = []string{
	"Org", "Repo", "Branch", "Workflow File", "Workflow Name", "Runner Labels",
	"Runner Type", "Cost Category", "Job Name", "Job Status", "Run Date",
	"Completed Date", "Duration", "Run ID", "Job ID", "Conclusion", "HTML URL",
	"Repository Size", "Repository Language", "Repository Visibility",
}

// GroupHeader is the CSV header of a grouped report.
var GroupHeader = []string{
	"Group", "Group Type", "Total Jobs", "Successful Jobs", "Failed Jobs",
	"Success Rate", "Average Duration", "Sample Repository",
}

// CSVWriter exports a report as CSV, one row per job or group.
type CSVWriter struct {
	Path   string
	Logger *slog.Logger
}

func (w *CSVWriter) Name() string { return "csv" }

// Emit writes the CSV file. An empty report logs a warning and writes nothing.
func (w *CSVWriter) Emit(r domain.Report) (Artifact, error) {
	a := Artifact{Name: w.Name(), Path: w.Path, ContentType: "text/csv"}
	if r.Len() == 0 {
		orDiscard(w.Logger).Warn("no data to export to CSV")
		return a, nil
	}
	if err := writeFile(a.Name, w.Path, func(out io.Writer) error { return WriteCSV(out, r) }); err != nil {
		return a, err
	}
	a.Written = true
	orDiscard(w.Logger).Info("CSV report exported", "path", w.Path)
	return a, nil
}

// WriteCSV renders r as CSV with a header row.
func WriteCSV(out io.Writer, r domain.Report) error {
	cw := csv.NewWriter(out)
	if r.Grouped() {
		if err := cw.Write(GroupHeader); err != nil {
			return err
		}
		for _, g := range r.Groups {
			if err := cw.Write(groupRow(g)); err != nil {
				return err
			}
		}
	} else {
		if err := cw.Write(JobHeader); err != nil {
			return err
		}
		for _, j := range r.Jobs {
			if err := cw.Write(jobRow(j)); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func jobRow(j domain.JobRecord) []string {
	return []string{
		j.Org,
		j.Repo,
		j.Branch,
		j.WorkflowFile,
		j.WorkflowName,
		j.RunnerLabels(),
		string(j.RunnerType),
		string(j.CostCategory),
		j.JobName,
		j.Status,
		j.StartedAt,
		j.CompletedAt,
		j.Duration(),
		strconv.FormatInt(j.RunID, 10),
		strconv.FormatInt(j.JobID, 10),
		j.Conclusion,
		j.HTMLURL,
		strconv.Itoa(j.RepoSize),
		j.RepoLanguage,
		j.RepoVisibility,
	}
}

func groupRow(g domain.GroupSummary) []string {
	return []string{
		g.Key,
		g.GroupBy.Title(),
		strconv.Itoa(g.Total),
		strconv.Itoa(g.Successful),
		strconv.Itoa(g.Failed),
		g.SuccessRate,
		g.AverageDuration,
		g.SampleRepo,
	}
}
