package report

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/waabox/runnerstat/internal/domain"
)

const (
	summaryTop    = 5
	summaryRecent = 10
)

// StepSummaryEnv names the file GitHub Actions renders as the job summary.
const StepSummaryEnv = "GITHUB_STEP_SUMMARY"

// SummaryWriter renders a condensed markdown summary. It writes Path and, when
// StepSummaryPath is set, the same content there.
type SummaryWriter struct {
	Path            string
	StepSummaryPath string
	Org             string
	Logger          *slog.Logger
	// Now stamps the summary; defaults to time.Now.
	Now func() time.Time
}

func (w *SummaryWriter) Name() string { return "summary" }

func (w *SummaryWriter) Emit(r domain.Report) (Artifact, error) {
	logger := orDiscard(w.Logger)
	now := time.Now
	if w.Now != nil {
		now = w.Now
	}
	var b strings.Builder
	WriteSummary(&b, r, w.Org, now())
	content := b.String()

	a := Artifact{Name: w.Name(), Path: w.Path, ContentType: "text/markdown; charset=utf-8"}
	if w.Path != "" {
		if err := writeFile(a.Name, w.Path, func(out io.Writer) error {
			_, err := io.WriteString(out, content)
			return err
		}); err != nil {
			return a, err
		}
		a.Written = true
		logger.Info("summary written", "path", w.Path)
	}

	if w.StepSummaryPath == "" {
		logger.Debug("GitHub Actions summary not available")
		return a, nil
	}
	if err := writeFile("step summary", w.StepSummaryPath, func(out io.Writer) error {
		_, err := io.WriteString(out, content)
		return err
	}); err != nil {
		return a, err
	}
	logger.Info("GitHub Actions summary updated")
	return a, nil
}

// WriteSummary renders r as markdown for org, stamped with generated.
func WriteSummary(out io.Writer, r domain.Report, org string, generated time.Time) {
	fmt.Fprint(out, "# 🏃‍♂️ Runner Usage Report\n\n")

	if r.Len() == 0 {
		fmt.Fprint(out, "**No runner usage data found.**\n")
	} else {
		s := Summarize(r)
		fmt.Fprint(out, "## 📊 Summary Statistics\n")
		fmt.Fprintf(out, "- **Total Jobs**: %d\n", s.TotalJobs)
		fmt.Fprintf(out, "- **Repositories Analyzed**: %d\n", s.Repositories)
		if r.Grouped() {
			fmt.Fprintf(out, "- **Groups (%s)**: %d\n", r.GroupBy.Title(), s.Groups)
		} else {
			fmt.Fprintf(out, "- **Unique Workflow Files**: %d\n", s.WorkflowFiles)
		}
		fmt.Fprintf(out, "- **Organization**: %s\n", org)
		fmt.Fprintf(out, "- **Successful Jobs**: %d\n", s.Successful)
		fmt.Fprintf(out, "- **Failed Jobs**: %d\n", s.Failed)

		fmt.Fprint(out, "\n## 🔝 Top Repositories by Runner Usage\n")
		writeRanked(out, Top(s.ByRepo, summaryTop))

		if r.Grouped() {
			fmt.Fprintf(out, "\n## 🏃‍♂️ Top Groups by %s\n", r.GroupBy.Title())
		} else {
			fmt.Fprint(out, "\n## 🏃‍♂️ Top Runner Labels\n")
		}
		writeRanked(out, Top(s.ByLabel, summaryTop))

		if r.Grouped() {
			writeGroupTable(out, r.Groups)
		} else {
			writeRecentJobs(out, r.Jobs)
		}
	}

	fmt.Fprintf(out, "\n*Report generated on %s*", generated.UTC().Format("2006-01-02 15:04:05 UTC"))
}

func writeRanked(out io.Writer, counts []Count) {
	for _, c := range counts {
		fmt.Fprintf(out, "- **%s**: %d jobs\n", c.Key, c.N)
	}
}

func writeRecentJobs(out io.Writer, jobs []domain.JobRecord) {
	fmt.Fprint(out, "\n## 📋 Recent Jobs\n")
	fmt.Fprint(out, "| Repository | Workflow | Job Name | Runner Labels | Status | Date |\n")
	fmt.Fprint(out, "|------------|----------|----------|---------------|--------|------|\n")
	recent := newestFirst(jobs)
	if len(recent) > summaryRecent {
		recent = recent[:summaryRecent]
	}
	for _, j := range recent {
		writeRow(out, j.Repo, j.WorkflowName, j.JobName, j.RunnerLabels(), j.Status, j.StartedAt)
	}
}

func writeGroupTable(out io.Writer, groups []domain.GroupSummary) {
	fmt.Fprint(out, "\n## 📋 Group Summary\n")
	fmt.Fprint(out, "| Group | Total Jobs | Successful | Failed | Success Rate | Avg Duration |\n")
	fmt.Fprint(out, "|-------|------------|------------|--------|--------------|--------------|\n")
	for _, g := range largestFirst(groups) {
		writeRow(out, g.Key, fmt.Sprint(g.Total), fmt.Sprint(g.Successful), fmt.Sprint(g.Failed), g.SuccessRate, g.AverageDuration)
	}
}

func writeRow(out io.Writer, cells ...string) {
	for i, c := range cells {
		cells[i] = strings.ReplaceAll(c, "|", `\|`)
	}
	fmt.Fprintf(out, "| %s |\n", strings.Join(cells, " | "))
}
