package provider

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/waabox/runnerstat/internal/domain"
	"github.com/waabox/runnerstat/internal/observability"
)

// Operation names used for logging and metric labels.
const (
	OpListRepositories = "list_repositories"
	OpListWorkflowRuns = "list_workflow_runs"
	OpListJobs         = "list_jobs"
)

// InstrumentedSource wraps a UsageSource, logging every call at debug level and
// counting calls and failures. The first 401 is reported once as a credential problem.
type InstrumentedSource struct {
	inner   domain.UsageSource
	logger  *slog.Logger
	metrics *observability.Metrics

	unauthorizedOnce sync.Once
}

// Ensure InstrumentedSource implements UsageSource.
var _ domain.UsageSource = (*InstrumentedSource)(nil)

// NewInstrumentedSource creates an InstrumentedSource. logger and metrics may be nil.
func NewInstrumentedSource(inner domain.UsageSource, logger *slog.Logger, metrics *observability.Metrics) *InstrumentedSource {
	if logger == nil {
		logger = observability.Discard()
	}
	return &InstrumentedSource{inner: inner, logger: logger, metrics: metrics}
}

func (s *InstrumentedSource) ListRepositories(ctx context.Context, org string, page int) ([]domain.Repository, error) {
	start := time.Now()
	repos, err := s.inner.ListRepositories(ctx, org, page)
	s.observe(OpListRepositories, start, err, "org", org, "page", page, "count", len(repos))
	return repos, err
}

func (s *InstrumentedSource) ListWorkflowRuns(ctx context.Context, org, repo, branch string, since time.Time) ([]domain.WorkflowRun, error) {
	start := time.Now()
	runs, err := s.inner.ListWorkflowRuns(ctx, org, repo, branch, since)
	s.observe(OpListWorkflowRuns, start, err, "repo", repo, "branch", branch, "count", len(runs))
	return runs, err
}

func (s *InstrumentedSource) ListJobs(ctx context.Context, org, repo string, runID int64) ([]domain.WorkflowJob, error) {
	start := time.Now()
	jobs, err := s.inner.ListJobs(ctx, org, repo, runID)
	s.observe(OpListJobs, start, err, "repo", repo, "run_id", runID, "count", len(jobs))
	return jobs, err
}

func (s *InstrumentedSource) observe(op string, start time.Time, err error, attrs ...any) {
	s.metrics.IncCall(op)
	attrs = append(attrs, "op", op, "elapsed", time.Since(start))
	if err == nil {
		s.logger.Debug("api call", attrs...)
		return
	}
	s.metrics.IncFailure(op)
	s.logger.Debug("api call failed", append(attrs, "error", err)...)
	if errors.Is(err, domain.ErrUnauthorized) {
		s.unauthorizedOnce.Do(func() {
			s.logger.Error("github rejected the token; check GITHUB_TOKEN and its scopes")
		})
	}
}
