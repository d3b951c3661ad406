package domain

import (
	"fmt"
	"strings"
	"time"
)

// RunnerType is the kind of machine a job ran on, derived from its runner labels.
type RunnerType string

const (
	RunnerSelfHosted   RunnerType = "Self-hosted"
	RunnerGitHubHosted RunnerType = "GitHub-hosted"
	RunnerUbuntu       RunnerType = "Ubuntu"
	RunnerWindows      RunnerType = "Windows"
	RunnerMacOS        RunnerType = "macOS"
	RunnerLinux        RunnerType = "Linux"
	RunnerUnknown      RunnerType = "Unknown"
)

// CostCategory is the billing bucket a job falls into, derived from its runner labels.
type CostCategory string

const (
	CostSelfHosted           CostCategory = "Self-hosted (Custom Cost)"
	CostLargeInstance        CostCategory = "Large Instance"
	CostStandardGitHubHosted CostCategory = "Standard GitHub-hosted"
	CostStandard             CostCategory = "Standard"
)

// UnknownDuration is rendered wherever a duration cannot be computed.
const UnknownDuration = "unknown"

// Elapsed is the wall-clock run time of a job in whole seconds.
// The zero value is an unknown duration.
type Elapsed struct {
	seconds int64
	known   bool
}

// KnownElapsed returns an Elapsed for d truncated to whole seconds.
// Negative durations are unknown.
func KnownElapsed(d time.Duration) Elapsed {
	if d < 0 {
		return Elapsed{}
	}
	return Elapsed{seconds: int64(d / time.Second), known: true}
}

// Seconds returns the elapsed seconds and whether they are known.
func (e Elapsed) Seconds() (int64, bool) {
	return e.seconds, e.known
}

// String renders the duration as MM:SS, or "unknown".
func (e Elapsed) String() string {
	if !e.known {
		return UnknownDuration
	}
	return FormatMinutesSeconds(e.seconds)
}

// FormatMinutesSeconds renders seconds as zero-padded MM:SS. Minutes are not
// wrapped into hours, so 7500 seconds renders as "125:00".
func FormatMinutesSeconds(seconds int64) string {
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// JobRecord is one CI job as observed by the collector. It is built once and
// then only read; filtering and grouping produce new slices.
type JobRecord struct {
	Org          string
	Repo         string
	Branch       string
	WorkflowFile string
	WorkflowName string
	RunID        int64
	JobID        int64
	JobName      string

	Labels       []string
	RunnerType   RunnerType
	CostCategory CostCategory

	StartedAt   string
	CompletedAt string
	Elapsed     Elapsed

	Status     string
	Conclusion string
	HTMLURL    string

	RepoSize       int
	RepoLanguage   string
	RepoVisibility string
}

// RunnerLabels joins the labels for display, or returns "unknown" when the job
// reported none.
func (r JobRecord) RunnerLabels() string {
	if len(r.Labels) == 0 {
		return "unknown"
	}
	return strings.Join(r.Labels, ", ")
}

// Duration renders the elapsed time as MM:SS, or "unknown".
func (r JobRecord) Duration() string {
	return r.Elapsed.String()
}
