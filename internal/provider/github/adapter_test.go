package github_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/waabox/runnerstat/internal/domain"
	githubprovider "github.com/waabox/runnerstat/internal/provider/github"
)

func newAdapter(t *testing.T, srv *httptest.Server, opts ...githubprovider.Option) *githubprovider.Adapter {
	t.Helper()
	adapter, err := githubprovider.NewAdapter("test-token", srv.URL, nil, opts...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return adapter
}

func TestListRepositories_ReturnsPage(t *testing.T) {
	var query map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orgs/acme/repos" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token, got '%s'", got)
		}
		query = map[string]string{}
		for k := range r.URL.Query() {
			query[k] = r.URL.Query().Get(k)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]map[string]interface{}{
			{"name": "web", "default_branch": "main", "size": 1024, "language": "Go", "visibility": "private"},
			{"name": "ml", "default_branch": "trunk"},
		})
	}))
	defer srv.Close()

	repos, err := newAdapter(t, srv).ListRepositories(context.Background(), "acme", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 2 {
		t.Fatalf("expected 2 repositories, got %d", len(repos))
	}
	want := domain.Repository{Name: "web", DefaultBranch: "main", Size: 1024, Language: "Go", Visibility: "private"}
	if repos[0] != want {
		t.Errorf("expected %+v, got %+v", want, repos[0])
	}
	if repos[1].DefaultBranch != "trunk" {
		t.Errorf("expected branch 'trunk', got '%s'", repos[1].DefaultBranch)
	}
	expected := map[string]string{"page": "3", "per_page": "100", "sort": "updated", "direction": "desc"}
	for k, v := range expected {
		if query[k] != v {
			t.Errorf("expected query %s=%s, got '%s'", k, v, query[k])
		}
	}
}

func TestListRepositories_EmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	repos, err := newAdapter(t, srv).ListRepositories(context.Background(), "acme", 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repos) != 0 {
		t.Errorf("expected no repositories, got %d", len(repos))
	}
}

func TestListWorkflowRuns_FiltersByBranchAndDate(t *testing.T) {
	since := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/web/actions/runs" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("branch"); got != "main" {
			t.Errorf("expected branch 'main', got '%s'", got)
		}
		if got := r.URL.Query().Get("created"); got != ">=2024-05-01T12:00:00Z" {
			t.Errorf("expected created filter, got '%s'", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total_count": 1,
			"workflow_runs": []map[string]interface{}{
				{"id": 1001, "name": "CI", "path": ".github/workflows/ci.yml"},
			},
		})
	}))
	defer srv.Close()

	runs, err := newAdapter(t, srv).ListWorkflowRuns(context.Background(), "acme", "web", "main", since)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []domain.WorkflowRun{{ID: 1001, Name: "CI", Path: ".github/workflows/ci.yml"}}
	if len(runs) != 1 || runs[0] != want[0] {
		t.Errorf("expected %+v, got %+v", want, runs)
	}
}

func TestListWorkflowRuns_KeepsWorkflowFilePathAndToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer token, got '%s'", got)
		}
		if got := r.URL.Query().Get("per_page"); got != "100" {
			t.Errorf("expected per_page 100, got '%s'", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total_count":2,"workflow_runs":[` +
			`{"id":7,"name":"CI","path":".github/workflows/ci.yml"},` +
			`{"id":8,"name":"Release","path":".github/workflows/release.yaml"}]}`))
	}))
	defer srv.Close()

	runs, err := newAdapter(t, srv).ListWorkflowRuns(context.Background(), "acme", "web", "main", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Path != ".github/workflows/ci.yml" || runs[1].Path != ".github/workflows/release.yaml" {
		t.Errorf("expected workflow file paths, got '%s' and '%s'", runs[0].Path, runs[1].Path)
	}
}

func TestListWorkflowRuns_UnauthorizedIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer srv.Close()

	_, err := newAdapter(t, srv).ListWorkflowRuns(context.Background(), "acme", "web", "main", time.Now())
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.Op != "list workflow runs" {
		t.Errorf("expected op 'list workflow runs', got '%s'", fetchErr.Op)
	}
	if !strings.Contains(fetchErr.URL, "/repos/acme/web/actions/runs") {
		t.Errorf("expected request url in error, got '%s'", fetchErr.URL)
	}
}

func TestListWorkflowRuns_FollowsNextPage(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		w.Header().Set("Content-Type", "application/json")
		if page == "" || page == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/web/actions/runs?page=2>; rel="next"`, srv.URL))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"workflow_runs": []map[string]interface{}{{"id": 1}, {"id": 2}},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"workflow_runs": []map[string]interface{}{{"id": 3}},
		})
	}))
	defer srv.Close()

	runs, err := newAdapter(t, srv).ListWorkflowRuns(context.Background(), "acme", "web", "main", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i, r := range runs {
		if r.ID != int64(i+1) {
			t.Errorf("expected run %d at position %d, got %d", i+1, i, r.ID)
		}
	}
}

func TestListWorkflowRuns_StopsAtPageCeiling(t *testing.T) {
	calls := 0
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Link", fmt.Sprintf(`<%s/repos/acme/web/actions/runs?page=%d>; rel="next"`, srv.URL, calls+1))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"workflow_runs": []map[string]interface{}{{"id": calls}},
		})
	}))
	defer srv.Close()

	runs, err := newAdapter(t, srv, githubprovider.WithMaxPages(3)).ListWorkflowRuns(context.Background(), "acme", "web", "main", time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 requests, got %d", calls)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
}

func TestListJobs_MapsJobFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/web/actions/runs/1001/jobs" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"total_count": 2,
			"jobs": []map[string]interface{}{
				{
					"id":           2001,
					"name":         "build",
					"labels":       []string{"self-hosted", "gpu"},
					"status":       "completed",
					"conclusion":   "success",
					"started_at":   "2024-01-01T10:00:00Z",
					"completed_at": "2024-01-01T10:02:38Z",
					"html_url":     "https://github.com/acme/web/actions/runs/1001/job/2001",
				},
				{
					"id":     2002,
					"name":   "deploy",
					"status": "queued",
				},
			},
		})
	}))
	defer srv.Close()

	jobs, err := newAdapter(t, srv).ListJobs(context.Background(), "acme", "web", 1001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	build := jobs[0]
	if build.ID != 2001 || build.Name != "build" {
		t.Errorf("unexpected job identity: %+v", build)
	}
	if strings.Join(build.Labels, ",") != "self-hosted,gpu" {
		t.Errorf("expected labels in source order, got %v", build.Labels)
	}
	if build.StartedAt != "2024-01-01T10:00:00Z" || build.CompletedAt != "2024-01-01T10:02:38Z" {
		t.Errorf("unexpected timestamps: %s %s", build.StartedAt, build.CompletedAt)
	}
	if build.HTMLURL != "https://github.com/acme/web/actions/runs/1001/job/2001" {
		t.Errorf("unexpected html url '%s'", build.HTMLURL)
	}
	queued := jobs[1]
	if queued.StartedAt != "" || queued.CompletedAt != "" {
		t.Errorf("expected empty timestamps, got '%s' '%s'", queued.StartedAt, queued.CompletedAt)
	}
	if len(queued.Labels) != 0 {
		t.Errorf("expected no labels, got %v", queued.Labels)
	}
}

func TestListJobs_UnauthorizedIsReported(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Bad credentials"}`))
	}))
	defer srv.Close()

	_, err := newAdapter(t, srv).ListJobs(context.Background(), "acme", "web", 1001)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fetchErr.Op != "list jobs" {
		t.Errorf("expected op 'list jobs', got '%s'", fetchErr.Op)
	}
	if !strings.Contains(fetchErr.URL, "/repos/acme/web/actions/runs/1001/jobs") {
		t.Errorf("expected request url in error, got '%s'", fetchErr.URL)
	}
}

func TestListRepositories_ServerErrorIsFetchError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newAdapter(t, srv).ListRepositories(context.Background(), "acme", 1)
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if errors.Is(err, domain.ErrUnauthorized) {
		t.Error("did not expect ErrUnauthorized for a 500")
	}
	if fetchErr.Timeout() {
		t.Error("did not expect a timeout")
	}
}

func TestListRepositories_DeadlineIsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newAdapter(t, srv).ListRepositories(ctx, "acme", 1)
	var fetchErr *domain.FetchError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("expected *FetchError, got %v", err)
	}
	if !fetchErr.Timeout() {
		t.Errorf("expected a timeout, got %v", fetchErr.Err)
	}
}

func TestListRepositories_WarnsWhenRateLimitLow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-RateLimit-Remaining", "42")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	adapter, err := githubprovider.NewAdapter("", srv.URL, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := adapter.ListRepositories(context.Background(), "acme", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "rate limit running low") || !strings.Contains(buf.String(), "remaining=42") {
		t.Errorf("expected rate limit warning, got %q", buf.String())
	}
}

func TestListRepositories_NoWarningWithoutRateHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	adapter, _ := githubprovider.NewAdapter("", srv.URL, logger)
	if _, err := adapter.ListRepositories(context.Background(), "acme", 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(buf.String(), "rate limit") {
		t.Errorf("did not expect a rate limit warning, got %q", buf.String())
	}
}
