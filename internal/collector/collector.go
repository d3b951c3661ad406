// Package collector walks an organization's repositories, workflow runs and jobs
// and turns every retained job into a domain.JobRecord.
package collector

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/waabox/runnerstat/internal/classify"
	"github.com/waabox/runnerstat/internal/domain"
	"github.com/waabox/runnerstat/internal/observability"
	"github.com/waabox/runnerstat/internal/timing"
)

const (
	defaultMaxRepoPages = 100
	defaultDaysBack     = 30
)

// Options controls which jobs are collected.
type Options struct {
	Org string
	// TargetLabel keeps only jobs carrying exactly this runner label. Empty keeps all jobs.
	TargetLabel string
	DaysBack    int
	// StatusFilter keeps only jobs whose status equals it, ignoring case. Empty keeps all.
	StatusFilter string
	// RepoFilter keeps only repositories whose name contains it, ignoring case.
	RepoFilter string
	// MaxRepoPages caps repository discovery. Zero means 100 pages.
	MaxRepoPages int
	// Concurrency is the number of repositories processed at once. Values below 2
	// process them one after another.
	Concurrency int
	Now         func() time.Time
}

// Collector builds JobRecords from a UsageSource.
type Collector struct {
	source  domain.UsageSource
	opts    Options
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Collector. metrics may be nil.
func New(source domain.UsageSource, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Collector {
	if opts.MaxRepoPages <= 0 {
		opts.MaxRepoPages = defaultMaxRepoPages
	}
	if opts.DaysBack <= 0 {
		opts.DaysBack = defaultDaysBack
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = observability.Discard()
	}
	return &Collector{source: source, opts: opts, logger: logger, metrics: metrics}
}

// Collect returns the retained jobs of every repository in discovery order, runs
// in listing order and jobs in listing order. Only a repository discovery failure
// is returned; run and job listing failures are logged and skipped.
func (c *Collector) Collect(ctx context.Context) ([]domain.JobRecord, error) {
	if c.opts.TargetLabel != "" {
		c.logger.Info("analyzing runner usage for label", "label", c.opts.TargetLabel)
	} else {
		c.logger.Info("analyzing all runner usage (no label filter)")
	}
	if c.opts.StatusFilter != "" {
		c.logger.Info("filtering by status", "status", c.opts.StatusFilter)
	}
	if c.opts.RepoFilter != "" {
		c.logger.Info("filtering by repository pattern", "pattern", c.opts.RepoFilter)
	}

	repos, err := c.discover(ctx)
	if err != nil {
		return nil, err
	}
	if c.opts.RepoFilter != "" {
		repos = FilterRepositories(repos, c.opts.RepoFilter)
		c.logger.Info("repository filter applied", "matching", len(repos), "pattern", c.opts.RepoFilter)
	}

	since := c.opts.Now().AddDate(0, 0, -c.opts.DaysBack)
	if c.opts.Concurrency > 1 {
		return c.collectParallel(ctx, repos, since)
	}

	var records []domain.JobRecord
	for i, repo := range repos {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		records = append(records, c.collectRepo(ctx, i, len(repos), repo, since)...)
	}
	return records, nil
}

func (c *Collector) collectParallel(ctx context.Context, repos []domain.Repository, since time.Time) ([]domain.JobRecord, error) {
	slots := make([][]domain.JobRecord, len(repos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)
	for i, repo := range repos {
		i, repo := i, repo
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = c.collectRepo(gctx, i, len(repos), repo, since)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var records []domain.JobRecord
	for _, slot := range slots {
		records = append(records, slot...)
	}
	return records, nil
}

// discover pages through the organization's repositories until an empty page or
// the page ceiling.
func (c *Collector) discover(ctx context.Context) ([]domain.Repository, error) {
	c.logger.Info("fetching repositories", "org", c.opts.Org)
	var repos []domain.Repository
	for page := 1; page <= c.opts.MaxRepoPages; page++ {
		batch, err := c.source.ListRepositories(ctx, c.opts.Org, page)
		if err != nil {
			return nil, fmt.Errorf("discovering repositories for %s: %w", c.opts.Org, err)
		}
		if len(batch) == 0 {
			c.logger.Info("found repositories", "count", len(repos))
			return repos, nil
		}
		repos = append(repos, batch...)
		c.logger.Debug("fetched repository page", "page", page, "count", len(batch))
	}
	c.logger.Warn("reached maximum page limit for repositories", "pages", c.opts.MaxRepoPages)
	c.logger.Info("found repositories", "count", len(repos))
	return repos, nil
}

func (c *Collector) collectRepo(ctx context.Context, idx, total int, repo domain.Repository, since time.Time) []domain.JobRecord {
	logger := observability.WithRepo(c.logger, repo.Name)
	logger.Info("processing repository", "position", fmt.Sprintf("%d/%d", idx+1, total))
	c.metrics.IncRepo()

	runs, err := c.source.ListWorkflowRuns(ctx, c.opts.Org, repo.Name, repo.DefaultBranch, since)
	if err != nil {
		logger.Error("failed to fetch workflow runs", "branch", repo.DefaultBranch, "error", err)
		return nil
	}
	logger.Debug("found workflow runs", "count", len(runs))

	var records []domain.JobRecord
	for _, run := range runs {
		c.metrics.IncRun()
		jobs, err := c.source.ListJobs(ctx, c.opts.Org, repo.Name, run.ID)
		if err != nil {
			logger.Error("failed to fetch jobs", "run_id", run.ID, "error", err)
			continue
		}
		for _, job := range jobs {
			c.metrics.IncJob()
			if !MatchesStatus(job, c.opts.StatusFilter) {
				c.metrics.IncSkipped("status")
				continue
			}
			if !HasLabel(job, c.opts.TargetLabel) {
				c.metrics.IncSkipped("label")
				continue
			}
			records = append(records, c.newRecord(repo, run, job))
			c.metrics.IncRecord()
		}
	}
	return records
}

func (c *Collector) newRecord(repo domain.Repository, run domain.WorkflowRun, job domain.WorkflowJob) domain.JobRecord {
	labels := append([]string(nil), job.Labels...)
	return domain.JobRecord{
		Org:            c.opts.Org,
		Repo:           repo.Name,
		Branch:         repo.DefaultBranch,
		WorkflowFile:   run.Path,
		WorkflowName:   run.Name,
		RunID:          run.ID,
		JobID:          job.ID,
		JobName:        job.Name,
		Labels:         labels,
		RunnerType:     classify.RunnerType(labels),
		CostCategory:   classify.CostCategory(labels),
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
		Elapsed:        timing.Between(job.StartedAt, job.CompletedAt),
		Status:         job.Status,
		Conclusion:     job.Conclusion,
		HTMLURL:        job.HTMLURL,
		RepoSize:       repo.Size,
		RepoLanguage:   repo.Language,
		RepoVisibility: repo.Visibility,
	}
}

// FilterRepositories returns the repositories whose name contains pattern,
// ignoring case. An empty pattern keeps every repository.
func FilterRepositories(repos []domain.Repository, pattern string) []domain.Repository {
	if pattern == "" {
		return repos
	}
	p := strings.ToLower(pattern)
	var kept []domain.Repository
	for _, r := range repos {
		if strings.Contains(strings.ToLower(r.Name), p) {
			kept = append(kept, r)
		}
	}
	return kept
}

// MatchesStatus reports whether job passes the status filter. An empty filter
// matches every job.
func MatchesStatus(job domain.WorkflowJob, filter string) bool {
	return filter == "" || strings.EqualFold(filter, job.Status)
}

// HasLabel reports whether job carries label exactly. An empty label matches
// every job.
func HasLabel(job domain.WorkflowJob, label string) bool {
	if label == "" {
		return true
	}
	for _, l := range job.Labels {
		if l == label {
			return true
		}
	}
	return false
}
