package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/waabox/runnerstat/internal/domain"
)

//go:embed templates/report.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/report.html.tmpl"))

const (
	// ChartSize is the number of entries in each bar breakdown.
	ChartSize = 10
	// maxBarLabel is the longest bar label shown before truncation.
	maxBarLabel = 30

	generatedLayout = "January 02, 2006 at 15:04 UTC"
)

// HTMLWriter renders a report as a standalone styled HTML document.
type HTMLWriter struct {
	Path   string
	Org    string
	Logger *slog.Logger
	// Now stamps the document; defaults to time.Now.
	Now func() time.Time
}

func (w *HTMLWriter) Name() string { return "html" }

// Emit writes the HTML document. An empty report yields a short "no data" page.
func (w *HTMLWriter) Emit(r domain.Report) (Artifact, error) {
	a := Artifact{Name: w.Name(), Path: w.Path, ContentType: "text/html; charset=utf-8"}
	if r.Len() == 0 {
		orDiscard(w.Logger).Warn("no data to generate HTML report")
	}
	render := func(out io.Writer) error { return WriteHTML(out, r, w.Org, w.now()) }
	if err := writeFile(a.Name, w.Path, render); err != nil {
		return a, err
	}
	a.Written = true
	orDiscard(w.Logger).Info("HTML report exported", "path", w.Path)
	return a, nil
}

func (w *HTMLWriter) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

type htmlPage struct {
	Org       string
	Generated string
	Grouped   bool
	GroupType string
	Stats     Stats
	RepoBars  []htmlBar
	LabelBars []htmlBar
	Jobs      []htmlJob
	Groups    []htmlGroup
}

type htmlBar struct {
	Label string
	Title string
	N     int
	Unit  string
	Style template.CSS
}

type htmlJob struct {
	Repo         string
	Workflow     string
	JobName      string
	URL          string
	Labels       string
	RunnerType   string
	CostCategory string
	Status       string
	StatusClass  string
	Duration     string
	DurationSort int64
	RunDate      string
}

type htmlGroup struct {
	Key         string
	Type        string
	Total       int
	Successful  int
	Failed      int
	Rate        string
	RateValue   float64
	RateClass   string
	Average     string
	AverageSort int64
	SampleRepo  string
}

// WriteHTML renders r as an HTML document for org, stamped with generated.
func WriteHTML(out io.Writer, r domain.Report, org string, generated time.Time) error {
	page := htmlPage{
		Org:       org,
		Generated: generated.UTC().Format(generatedLayout),
		Grouped:   r.Grouped(),
	}
	if r.Len() == 0 {
		return pageTemplate.ExecuteTemplate(out, "empty", page)
	}

	page.Stats = Summarize(r)
	page.RepoBars = bars(Top(page.Stats.ByRepo, ChartSize))
	page.LabelBars = bars(Top(page.Stats.ByLabel, ChartSize))

	if page.Grouped {
		page.GroupType = r.GroupBy.Title()
		for _, g := range largestFirst(r.Groups) {
			rate := rateValue(g.SuccessRate)
			page.Groups = append(page.Groups, htmlGroup{
				Key:         g.Key,
				Type:        g.GroupBy.Title(),
				Total:       g.Total,
				Successful:  g.Successful,
				Failed:      g.Failed,
				Rate:        g.SuccessRate,
				RateValue:   rate,
				RateClass:   RateClass(rate),
				Average:     g.AverageDuration,
				AverageSort: durationSort(g.AverageDuration),
				SampleRepo:  g.SampleRepo,
			})
		}
	} else {
		for _, j := range newestFirst(r.Jobs) {
			secs, ok := j.Elapsed.Seconds()
			if !ok {
				secs = -1
			}
			page.Jobs = append(page.Jobs, htmlJob{
				Repo:         j.Repo,
				Workflow:     j.WorkflowName,
				JobName:      j.JobName,
				URL:          j.HTMLURL,
				Labels:       j.RunnerLabels(),
				RunnerType:   string(j.RunnerType),
				CostCategory: string(j.CostCategory),
				Status:       j.Status,
				StatusClass:  StatusClass(j.Status),
				Duration:     j.Duration(),
				DurationSort: secs,
				RunDate:      j.StartedAt,
			})
		}
	}
	return pageTemplate.ExecuteTemplate(out, "report", page)
}

func bars(counts []Count) []htmlBar {
	if len(counts) == 0 {
		return nil
	}
	peak := counts[0].N
	if peak <= 0 {
		peak = 1
	}
	out := make([]htmlBar, 0, len(counts))
	for _, c := range counts {
		unit := "jobs"
		if c.N == 1 {
			unit = "job"
		}
		width := float64(c.N) / float64(peak) * 100
		out = append(out, htmlBar{
			Label: TruncateLabel(c.Key),
			Title: c.Key,
			N:     c.N,
			Unit:  unit,
			Style: template.CSS(fmt.Sprintf("width: %.1f%%", width)),
		})
	}
	return out
}

// TruncateLabel shortens labels longer than 30 characters to 27 plus "...".
func TruncateLabel(s string) string {
	r := []rune(s)
	if len(r) <= maxBarLabel {
		return s
	}
	return string(r[:maxBarLabel-3]) + "..."
}

// StatusClass maps a job status to its badge class.
func StatusClass(status string) string {
	switch strings.ToLower(status) {
	case "completed", "success":
		return "badge-success"
	case "failure", "cancelled":
		return "badge-failure"
	case "in_progress", "queued":
		return "badge-in-progress"
	default:
		return "badge-default"
	}
}

// RateClass maps a success rate percentage to its badge class: above 80 is
// green, below 50 red, anything between amber.
func RateClass(rate float64) string {
	switch {
	case rate > 80:
		return "badge-success"
	case rate < 50:
		return "badge-failure"
	default:
		return "badge-in-progress"
	}
}

// durationSort turns "MM:SS" into seconds for client-side sorting; unknown is -1.
func durationSort(d string) int64 {
	var m, s int64
	if _, err := fmt.Sscanf(d, "%d:%d", &m, &s); err != nil {
		return -1
	}
	return m*60 + s
}
