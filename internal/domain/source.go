package domain

import (
	"context"
	"time"
)

// Repository is an organization repository as listed by the source.
type Repository struct {
	Name          string
	DefaultBranch string
	Size          int
	Language      string
	Visibility    string
}

// WorkflowRun is one execution of a workflow file.
type WorkflowRun struct {
	ID   int64
	Name string
	Path string
}

// WorkflowJob is one job of a workflow run. Timestamps are kept as reported;
// either may be empty for jobs that never started or are still running.
type WorkflowJob struct {
	ID          int64
	Name        string
	Labels      []string
	Status      string
	Conclusion  string
	StartedAt   string
	CompletedAt string
	HTMLURL     string
}

// UsageSource is the port the collector reads CI history from.
// Implementations return *FetchError on failure.
type UsageSource interface {
	// ListRepositories returns one page (1-based) of the organization's repositories,
	// most recently updated first. An empty page means there are no more.
	ListRepositories(ctx context.Context, org string, page int) ([]Repository, error)
	// ListWorkflowRuns returns the runs on branch created at or after since.
	ListWorkflowRuns(ctx context.Context, org, repo, branch string, since time.Time) ([]WorkflowRun, error)
	// ListJobs returns the jobs of one run.
	ListJobs(ctx context.Context, org, repo string, runID int64) ([]WorkflowJob, error)
}
