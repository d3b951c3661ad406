package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/waabox/runnerstat/internal/domain"
)

// Count is one entry of a ranked breakdown.
type Count struct {
	Key string
	N   int
}

// Stats are the headline numbers shared by the HTML and markdown reports.
type Stats struct {
	TotalJobs     int
	Repositories  int
	WorkflowFiles int
	Groups        int
	Successful    int
	Failed        int
	ByRepo        []Count
	ByLabel       []Count
}

// Summarize computes the headline numbers of a report. For grouped reports the
// repository breakdown uses each group's sample repository and the label
// breakdown uses the group keys, both weighted by group size.
func Summarize(r domain.Report) Stats {
	var s Stats
	repos := newCounter()
	labels := newCounter()

	if r.Grouped() {
		s.Groups = len(r.Groups)
		for _, g := range r.Groups {
			s.TotalJobs += g.Total
			s.Successful += g.Successful
			s.Failed += g.Failed
			repos.add(g.SampleRepo, g.Total)
			labels.add(g.Key, g.Total)
		}
	} else {
		workflows := make(map[string]struct{})
		for _, j := range r.Jobs {
			s.TotalJobs++
			switch j.Status {
			case "completed":
				s.Successful++
			case "failure":
				s.Failed++
			}
			workflows[j.WorkflowFile] = struct{}{}
			repos.add(j.Repo, 1)
			labels.add(j.RunnerLabels(), 1)
		}
		s.WorkflowFiles = len(workflows)
	}

	s.Repositories = len(repos.order)
	s.ByRepo = repos.ranked()
	s.ByLabel = labels.ranked()
	return s
}

// Top returns at most n entries of a ranked breakdown.
func Top(counts []Count, n int) []Count {
	if len(counts) > n {
		return counts[:n]
	}
	return counts
}

type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(key string, n int) {
	if _, ok := c.counts[key]; !ok {
		c.order = append(c.order, key)
	}
	c.counts[key] += n
}

// ranked orders keys by descending count; ties keep first-appearance order.
func (c *counter) ranked() []Count {
	out := make([]Count, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, Count{Key: k, N: c.counts[k]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].N > out[j].N })
	return out
}

// newestFirst returns the jobs ordered by start time, most recent first.
// Timestamps compare as text, so jobs that never started sort last.
func newestFirst(jobs []domain.JobRecord) []domain.JobRecord {
	out := append([]domain.JobRecord(nil), jobs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return out
}

// largestFirst returns the groups ordered by descending size.
func largestFirst(groups []domain.GroupSummary) []domain.GroupSummary {
	out := append([]domain.GroupSummary(nil), groups...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Total > out[j].Total })
	return out
}

// rateValue parses a rendered success rate such as "83.3%".
func rateValue(rate string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(rate, "%"), 64)
	if err != nil {
		return 0
	}
	return v
}
