package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/waabox/runnerstat/internal/domain"
)

// GitHubConfig holds API access configuration for GitHub.
type GitHubConfig struct {
	Token  string `toml:"token" yaml:"token"`
	APIURL string `toml:"api_url" yaml:"api_url"`
}

// OutputConfig controls where report artifacts are written.
type OutputConfig struct {
	Dir     string `toml:"dir" yaml:"dir"`
	CSV     string `toml:"csv" yaml:"csv"`
	HTML    string `toml:"html" yaml:"html"`
	Summary string `toml:"summary" yaml:"summary"`
}

// S3Config enables uploading the produced artifacts to a bucket.
type S3Config struct {
	Bucket string `toml:"bucket" yaml:"bucket"`
	Prefix string `toml:"prefix" yaml:"prefix"`
	Region string `toml:"region" yaml:"region"`
}

// LogConfig selects the log format and level.
type LogConfig struct {
	Format string `toml:"format" yaml:"format"`
	Level  string `toml:"level" yaml:"level"`
}

// Config holds all runnerstat configuration.
type Config struct {
	Org          string       `toml:"org" yaml:"org"`
	GitHub       GitHubConfig `toml:"github" yaml:"github"`
	TargetLabel  string       `toml:"target_label" yaml:"target_label"`
	DaysBack     int          `toml:"days_back" yaml:"days_back"`
	GroupBy      string       `toml:"group_by" yaml:"group_by"`
	StatusFilter string       `toml:"status_filter" yaml:"status_filter"`
	RepoFilter   string       `toml:"repo_filter" yaml:"repo_filter"`
	Concurrency  int          `toml:"concurrency" yaml:"concurrency"`
	MaxRepoPages int          `toml:"max_repo_pages" yaml:"max_repo_pages"`
	Outputs      []string     `toml:"outputs" yaml:"outputs"`
	Output       OutputConfig `toml:"output" yaml:"output"`
	MetricsFile  string       `toml:"metrics_file" yaml:"metrics_file"`
	S3           S3Config     `toml:"s3" yaml:"s3"`
	Log          LogConfig    `toml:"log" yaml:"log"`
}

const (
	defaultDaysBack     = 30
	defaultConcurrency  = 1
	defaultMaxRepoPages = 100
	defaultCSVFile      = "runner_usage_report.csv"
	defaultHTMLFile     = "runner_usage_report.html"
	defaultSummaryFile  = "runner_usage_summary.md"
)

// DefaultOutputs are the emitters run when none are configured.
var DefaultOutputs = []string{"csv", "html", "summary"}

// DaysBackOrDefault returns DaysBack if set, otherwise defaultDaysBack.
func (c Config) DaysBackOrDefault() int {
	if c.DaysBack > 0 {
		return c.DaysBack
	}
	return defaultDaysBack
}

// ConcurrencyOrDefault returns Concurrency if set, otherwise sequential collection.
func (c Config) ConcurrencyOrDefault() int {
	if c.Concurrency > 0 {
		return c.Concurrency
	}
	return defaultConcurrency
}

// MaxRepoPagesOrDefault returns MaxRepoPages if set, otherwise defaultMaxRepoPages.
func (c Config) MaxRepoPagesOrDefault() int {
	if c.MaxRepoPages > 0 {
		return c.MaxRepoPages
	}
	return defaultMaxRepoPages
}

// OutputsOrDefault returns the configured emitter names, lower-cased, or DefaultOutputs.
func (c Config) OutputsOrDefault() []string {
	if len(c.Outputs) == 0 {
		return append([]string(nil), DefaultOutputs...)
	}
	out := make([]string, 0, len(c.Outputs))
	for _, o := range c.Outputs {
		if o = strings.ToLower(strings.TrimSpace(o)); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// GroupField returns the parsed group-by field.
func (c Config) GroupField() (domain.GroupField, error) {
	return domain.ParseGroupField(c.GroupBy)
}

// CSVPath returns the path of the CSV artifact inside the output directory.
func (c Config) CSVPath() string {
	return c.outputPath(c.Output.CSV, defaultCSVFile)
}

// HTMLPath returns the path of the HTML artifact inside the output directory.
func (c Config) HTMLPath() string {
	return c.outputPath(c.Output.HTML, defaultHTMLFile)
}

// SummaryPath returns the path of the markdown summary inside the output directory.
func (c Config) SummaryPath() string {
	return c.outputPath(c.Output.Summary, defaultSummaryFile)
}

func (c Config) outputPath(name, fallback string) string {
	if name == "" {
		name = fallback
	}
	if filepath.IsAbs(name) || c.Output.Dir == "" {
		return name
	}
	return filepath.Join(c.Output.Dir, name)
}

// Validate reports the first missing or invalid setting as a *domain.ConfigurationError.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GitHub.Token) == "" {
		return &domain.ConfigurationError{Field: "github.token", Reason: "GITHUB_TOKEN environment variable is required"}
	}
	if strings.TrimSpace(c.Org) == "" {
		return &domain.ConfigurationError{Field: "org", Reason: "ORG_NAME environment variable is required"}
	}
	if c.DaysBack < 0 {
		return &domain.ConfigurationError{Field: "days_back", Reason: fmt.Sprintf("must be positive, got %d", c.DaysBack)}
	}
	if c.Concurrency < 0 {
		return &domain.ConfigurationError{Field: "concurrency", Reason: fmt.Sprintf("must be positive, got %d", c.Concurrency)}
	}
	if c.MaxRepoPages < 0 {
		return &domain.ConfigurationError{Field: "max_repo_pages", Reason: fmt.Sprintf("must be positive, got %d", c.MaxRepoPages)}
	}
	if _, err := c.GroupField(); err != nil {
		return err
	}
	return nil
}

// LoadFrom reads configuration from the given TOML or YAML file path; the format is
// chosen by extension (.yaml and .yml are YAML, anything else TOML).
// If the file does not exist, it returns an empty config without error.
// Environment variables always take precedence over file values:
//   - GITHUB_TOKEN           overrides github.token
//   - GITHUB_API_URL         overrides github.api_url
//   - ORG_NAME               overrides org
//   - TARGET_RUNNER_LABEL    overrides target_label
//   - DAYS_BACK              overrides days_back
//   - GROUP_BY               overrides group_by
//   - STATUS_FILTER          overrides status_filter
//   - REPO_FILTER            overrides repo_filter
//   - RUNNERSTAT_OUTPUT_DIR  overrides output.dir
//   - RUNNERSTAT_CONCURRENCY overrides concurrency
//   - RUNNERSTAT_S3_BUCKET   overrides s3.bucket
func LoadFrom(path string) (Config, error) {
	var cfg Config
	if _, err := os.Stat(path); err == nil {
		if err := decodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("reading config %s: %w", path, err)
		}
	}
	if err := applyEnvOverrides(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return yaml.Unmarshal(data, cfg)
	default:
		_, err := toml.DecodeFile(path, cfg)
		return err
	}
}

// DefaultConfigPath returns the default path for the runnerstat config file.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "runnerstat", "config.toml")
}

func applyEnvOverrides(cfg *Config) error {
	strs := map[string]*string{
		"GITHUB_TOKEN":          &cfg.GitHub.Token,
		"GITHUB_API_URL":        &cfg.GitHub.APIURL,
		"ORG_NAME":              &cfg.Org,
		"TARGET_RUNNER_LABEL":   &cfg.TargetLabel,
		"GROUP_BY":              &cfg.GroupBy,
		"STATUS_FILTER":         &cfg.StatusFilter,
		"REPO_FILTER":           &cfg.RepoFilter,
		"RUNNERSTAT_OUTPUT_DIR": &cfg.Output.Dir,
		"RUNNERSTAT_S3_BUCKET":  &cfg.S3.Bucket,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	ints := []struct {
		env   string
		field string
		dst   *int
	}{
		{"DAYS_BACK", "days_back", &cfg.DaysBack},
		{"RUNNERSTAT_CONCURRENCY", "concurrency", &cfg.Concurrency},
	}
	for _, i := range ints {
		v := os.Getenv(i.env)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return &domain.ConfigurationError{Field: i.field, Reason: fmt.Sprintf("%s=%q is not an integer", i.env, v)}
		}
		*i.dst = n
	}
	return nil
}
