package report

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/waabox/runnerstat/internal/domain"
)

// Settings carries what a Factory needs to build an emitter.
type Settings struct {
	Org             string
	CSVPath         string
	HTMLPath        string
	SummaryPath     string
	StepSummaryPath string
	Logger          *slog.Logger
	Now             func() time.Time
}

// Factory builds an Emitter from settings.
type Factory func(Settings) Emitter

// Registry maps output names to emitter factories.
type Registry struct {
	entries []entry
}

type entry struct {
	name    string
	factory Factory
}

// NewRegistry creates an empty emitter registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns a registry holding the csv, html and summary emitters.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("csv", func(s Settings) Emitter {
		return &CSVWriter{Path: s.CSVPath, Logger: s.Logger}
	})
	r.Register("html", func(s Settings) Emitter {
		return &HTMLWriter{Path: s.HTMLPath, Org: s.Org, Logger: s.Logger, Now: s.Now}
	})
	r.Register("summary", func(s Settings) Emitter {
		return &SummaryWriter{Path: s.SummaryPath, StepSummaryPath: s.StepSummaryPath, Org: s.Org, Logger: s.Logger, Now: s.Now}
	})
	return r
}

// Register associates an output name (e.g., "csv") with a factory.
// Registering a name again replaces the earlier factory.
func (r *Registry) Register(name string, f Factory) {
	name = strings.ToLower(name)
	for i, e := range r.entries {
		if e.name == name {
			r.entries[i].factory = f
			return
		}
	}
	r.entries = append(r.entries, entry{name: name, factory: f})
}

// Names returns the registered output names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.entries))
	for _, e := range r.entries {
		names = append(names, e.name)
	}
	sort.Strings(names)
	return names
}

// Check reports the first requested name that has no registered emitter as a
// *domain.ConfigurationError.
func (r *Registry) Check(names []string) error {
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if _, ok := r.lookup(n); !ok {
			return &domain.ConfigurationError{
				Field:  "outputs",
				Reason: fmt.Sprintf("unknown output %q (expected one of %s)", n, strings.Join(r.Names(), ", ")),
			}
		}
	}
	return nil
}

// Build returns one emitter per requested name, in request order. Duplicate
// names are built once. An unknown name is a *domain.ConfigurationError.
func (r *Registry) Build(names []string, s Settings) ([]Emitter, error) {
	if err := r.Check(names); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(names))
	var out []Emitter
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		if seen[n] {
			continue
		}
		seen[n] = true
		f, _ := r.lookup(n)
		out = append(out, f(s))
	}
	return out, nil
}

func (r *Registry) lookup(name string) (Factory, bool) {
	for _, e := range r.entries {
		if e.name == name {
			return e.factory, true
		}
	}
	return nil, false
}
