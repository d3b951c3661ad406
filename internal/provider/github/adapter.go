package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v62/github"
	"github.com/google/go-querystring/query"

	"github.com/waabox/runnerstat/internal/domain"
	"github.com/waabox/runnerstat/internal/observability"
)

const (
	defaultBaseURL = "https://api.github.com/"

	// DefaultTimeout bounds every HTTP call made by the adapter.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxPages bounds how many pages of runs or jobs are followed per listing.
	DefaultMaxPages = 100
	// RateLimitWarning is the remaining-request count below which a warning is logged.
	RateLimitWarning = 100

	perPage = 100
)

// Adapter implements domain.UsageSource for GitHub Actions using the REST API.
type Adapter struct {
	client   *gh.Client
	logger   *slog.Logger
	maxPages int
}

// Ensure Adapter implements UsageSource.
var _ domain.UsageSource = (*Adapter)(nil)

// Option customises an Adapter.
type Option func(*Adapter)

// WithMaxPages bounds how many pages of runs and jobs are followed per call.
func WithMaxPages(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.maxPages = n
		}
	}
}

// NewAdapter creates a GitHub Actions adapter.
// baseURL is used for testing and GitHub Enterprise; pass empty string to use the real GitHub API.
func NewAdapter(token, baseURL string, logger *slog.Logger, opts ...Option) (*Adapter, error) {
	if logger == nil {
		logger = observability.Discard()
	}
	client := gh.NewClient(&http.Client{Timeout: DefaultTimeout})
	if token != "" {
		client = client.WithAuthToken(token)
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing api url %q: %w", baseURL, err)
	}
	client.BaseURL = u

	a := &Adapter{client: client, logger: logger, maxPages: DefaultMaxPages}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// ListRepositories returns one page of the organization's repositories, most
// recently updated first.
func (a *Adapter) ListRepositories(ctx context.Context, org string, page int) ([]domain.Repository, error) {
	opts := &gh.RepositoryListByOrgOptions{
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: gh.ListOptions{Page: page, PerPage: perPage},
	}
	repos, resp, err := a.client.Repositories.ListByOrg(ctx, org, opts)
	if err != nil {
		return nil, a.fetchError("list repositories", fmt.Sprintf("orgs/%s/repos", org), err)
	}
	a.checkRate(resp)

	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, toRepository(r))
	}
	a.logger.Debug("fetched repository page", "org", org, "page", page, "count", len(out))
	return out, nil
}

// ListWorkflowRuns returns the runs on branch created at or after since. All pages
// are followed, up to the adapter's page ceiling.
func (a *Adapter) ListWorkflowRuns(ctx context.Context, org, repo, branch string, since time.Time) ([]domain.WorkflowRun, error) {
	opts := &gh.ListWorkflowRunsOptions{
		Branch:      branch,
		Created:     ">=" + since.UTC().Format(time.RFC3339),
		ListOptions: gh.ListOptions{PerPage: perPage},
	}
	var out []domain.WorkflowRun
	for page := 1; page <= a.maxPages; page++ {
		opts.Page = page
		runs, resp, err := a.listRuns(ctx, org, repo, opts)
		if err != nil {
			return nil, a.fetchError("list workflow runs", fmt.Sprintf("repos/%s/%s/actions/runs", org, repo), err)
		}
		a.checkRate(resp)
		for _, r := range runs.WorkflowRuns {
			out = append(out, domain.WorkflowRun{ID: r.ID, Name: r.Name, Path: r.Path})
		}
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage - 1
	}
	a.logger.Debug("fetched workflow runs", "repo", repo, "count", len(out))
	return out, nil
}

// workflowRuns is the runs listing payload. gh.WorkflowRun does not carry the
// workflow file path, so runs are decoded here instead.
type workflowRuns struct {
	TotalCount   int `json:"total_count"`
	WorkflowRuns []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
		Path string `json:"path"`
	} `json:"workflow_runs"`
}

// listRuns requests one page of runs through the go-github client.
func (a *Adapter) listRuns(ctx context.Context, org, repo string, opts *gh.ListWorkflowRunsOptions) (*workflowRuns, *gh.Response, error) {
	qs, err := query.Values(opts)
	if err != nil {
		return nil, nil, err
	}
	u := fmt.Sprintf("repos/%s/%s/actions/runs?%s", url.PathEscape(org), url.PathEscape(repo), qs.Encode())
	req, err := a.client.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, err
	}
	runs := new(workflowRuns)
	resp, err := a.client.Do(ctx, req, runs)
	if err != nil {
		return nil, resp, err
	}
	return runs, resp, nil
}

// ListJobs returns the jobs of the latest attempt of one run.
func (a *Adapter) ListJobs(ctx context.Context, org, repo string, runID int64) ([]domain.WorkflowJob, error) {
	opts := &gh.ListWorkflowJobsOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	var out []domain.WorkflowJob
	for page := 1; page <= a.maxPages; page++ {
		opts.Page = page
		jobs, resp, err := a.client.Actions.ListWorkflowJobs(ctx, org, repo, runID, opts)
		if err != nil {
			return nil, a.fetchError("list jobs", fmt.Sprintf("repos/%s/%s/actions/runs/%d/jobs", org, repo, runID), err)
		}
		a.checkRate(resp)
		for _, j := range jobs.Jobs {
			out = append(out, toJob(j))
		}
		if resp.NextPage == 0 {
			break
		}
		page = resp.NextPage - 1
	}
	return out, nil
}

// checkRate warns when the remaining request budget runs low. Responses without
// rate limit headers are ignored.
func (a *Adapter) checkRate(resp *gh.Response) {
	if resp == nil || resp.Response == nil || resp.Header.Get("X-RateLimit-Remaining") == "" {
		return
	}
	if resp.Rate.Remaining < RateLimitWarning {
		a.logger.Warn("rate limit running low", "remaining", resp.Rate.Remaining, "reset", resp.Rate.Reset.Time)
	}
}

func (a *Adapter) fetchError(op, path string, err error) error {
	u := a.client.BaseURL.String() + path
	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		if errResp.Response.Request != nil && errResp.Response.Request.URL != nil {
			u = errResp.Response.Request.URL.String()
		}
		if errResp.Response.StatusCode == http.StatusUnauthorized {
			err = fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
		}
	}
	return &domain.FetchError{Op: op, URL: u, Err: err}
}

func toRepository(r *gh.Repository) domain.Repository {
	return domain.Repository{
		Name:          r.GetName(),
		DefaultBranch: r.GetDefaultBranch(),
		Size:          r.GetSize(),
		Language:      r.GetLanguage(),
		Visibility:    r.GetVisibility(),
	}
}

func toJob(j *gh.WorkflowJob) domain.WorkflowJob {
	labels := make([]string, len(j.Labels))
	copy(labels, j.Labels)
	return domain.WorkflowJob{
		ID:          j.GetID(),
		Name:        j.GetName(),
		Labels:      labels,
		Status:      j.GetStatus(),
		Conclusion:  j.GetConclusion(),
		StartedAt:   formatTimestamp(j.StartedAt),
		CompletedAt: formatTimestamp(j.CompletedAt),
		HTMLURL:     j.GetHTMLURL(),
	}
}

// formatTimestamp renders ts the way the API reports it, or "" when absent.
func formatTimestamp(ts *gh.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
