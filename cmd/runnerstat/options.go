package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/waabox/runnerstat/internal/aggregate"
	"github.com/waabox/runnerstat/internal/collector"
	"github.com/waabox/runnerstat/internal/config"
	"github.com/waabox/runnerstat/internal/domain"
	"github.com/waabox/runnerstat/internal/git"
	"github.com/waabox/runnerstat/internal/observability"
	"github.com/waabox/runnerstat/internal/provider"
	githubprovider "github.com/waabox/runnerstat/internal/provider/github"
	"github.com/waabox/runnerstat/internal/report"
)

// options holds the persistent flags shared by analyze and browse.
type options struct {
	configPath  string
	org         string
	label       string
	days        int
	groupBy     string
	status      string
	repo        string
	outputDir   string
	concurrency int
	logFormat   string
	logLevel    string
}

func (o *options) bind(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "config file (.toml, .yaml or .yml; default ~/.config/runnerstat/config.toml)")
	f.StringVar(&o.org, "org", "", "GitHub organization to analyze")
	f.StringVar(&o.label, "label", "", "keep only jobs carrying this runner label")
	f.IntVar(&o.days, "days", 0, "number of days to look back (default 30)")
	f.StringVar(&o.groupBy, "group-by", "", "group by repo, label, status, workflow, branch, runner_type or cost_category")
	f.StringVar(&o.status, "status", "", "keep only jobs with this status")
	f.StringVar(&o.repo, "repo", "", "keep only repositories whose name contains this text")
	f.StringVar(&o.outputDir, "output-dir", "", "directory the reports are written to")
	f.IntVar(&o.concurrency, "concurrency", 0, "number of repositories collected at once")
	f.StringVar(&o.logFormat, "log-format", "", "log format: text or json")
	f.StringVar(&o.logLevel, "log-level", "", "log level: debug, info, warn or error")
}

// loadConfig reads the config file and environment, applies the flags that were
// set explicitly, infers the organization when missing and validates the result.
func (o *options) loadConfig(cmd *cobra.Command) (config.Config, error) {
	path := o.configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return config.Config{}, err
	}
	o.apply(cmd, &cfg)

	if cfg.Org == "" {
		if owner, err := git.DetectOwner("."); err == nil {
			cfg.Org = owner
		}
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	if err := report.DefaultRegistry().Check(cfg.OutputsOrDefault()); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	strs := []struct {
		flag string
		src  string
		dst  *string
	}{
		{"org", o.org, &cfg.Org},
		{"label", o.label, &cfg.TargetLabel},
		{"group-by", o.groupBy, &cfg.GroupBy},
		{"status", o.status, &cfg.StatusFilter},
		{"repo", o.repo, &cfg.RepoFilter},
		{"output-dir", o.outputDir, &cfg.Output.Dir},
		{"log-format", o.logFormat, &cfg.Log.Format},
		{"log-level", o.logLevel, &cfg.Log.Level},
	}
	for _, s := range strs {
		if f.Changed(s.flag) {
			*s.dst = s.src
		}
	}
	if f.Changed("days") {
		cfg.DaysBack = o.days
	}
	if f.Changed("concurrency") {
		cfg.Concurrency = o.concurrency
	}
}

// session is one collection run: its configuration, correlated logger and counters.
type session struct {
	cfg     config.Config
	runID   string
	logger  *slog.Logger
	metrics *observability.Metrics
}

func newSession(cfg config.Config, logOut io.Writer) (*session, error) {
	logger, err := observability.NewLogger(logOut, "runnerstat", observability.LogOptions{
		Format: cfg.Log.Format,
		Level:  cfg.Log.Level,
	})
	if err != nil {
		return nil, &domain.ConfigurationError{Field: "log", Reason: err.Error()}
	}
	runID := observability.NewRunID()
	return &session{
		cfg:     cfg,
		runID:   runID,
		logger:  observability.WithRun(logger, runID),
		metrics: observability.NewMetrics(),
	}, nil
}

// collect fetches every matching job and aggregates them by the configured field.
func (s *session) collect(ctx context.Context) ([]domain.JobRecord, domain.Report, error) {
	field, err := s.cfg.GroupField()
	if err != nil {
		return nil, domain.Report{}, err
	}

	adapter, err := githubprovider.NewAdapter(s.cfg.GitHub.Token, s.cfg.GitHub.APIURL, s.logger,
		githubprovider.WithMaxPages(s.cfg.MaxRepoPagesOrDefault()))
	if err != nil {
		return nil, domain.Report{}, err
	}
	source := provider.NewInstrumentedSource(adapter, s.logger, s.metrics)

	c := collector.New(source, collector.Options{
		Org:          s.cfg.Org,
		TargetLabel:  s.cfg.TargetLabel,
		DaysBack:     s.cfg.DaysBackOrDefault(),
		StatusFilter: s.cfg.StatusFilter,
		RepoFilter:   s.cfg.RepoFilter,
		MaxRepoPages: s.cfg.MaxRepoPagesOrDefault(),
		Concurrency:  s.cfg.ConcurrencyOrDefault(),
	}, s.logger, s.metrics)

	s.logger.Info("collecting runner usage",
		"org", s.cfg.Org,
		"label", s.cfg.TargetLabel,
		"days_back", s.cfg.DaysBackOrDefault(),
		"group_by", string(field),
	)
	records, err := c.Collect(ctx)
	if err != nil {
		return nil, domain.Report{}, err
	}
	return records, aggregate.Aggregate(records, field), nil
}

// writeMetrics writes the counters to the configured textfile, if any.
func (s *session) writeMetrics() {
	if err := s.metrics.WriteTextfile(s.cfg.MetricsFile); err != nil {
		s.logger.Warn("writing metrics textfile failed", "path", s.cfg.MetricsFile, "error", err)
	}
}

// foundMessage is the line printed once collection finishes.
func foundMessage(n int, label string) string {
	switch {
	case n == 0:
		return "No jobs found matching the specified criteria"
	case label != "":
		return fmt.Sprintf("Found %d jobs using runner label: %s", n, label)
	default:
		return fmt.Sprintf("Found %d total jobs across all runners", n)
	}
}
