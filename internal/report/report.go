// Package report renders an aggregated usage report into its artifacts: a CSV
// export, a standalone HTML document and a markdown summary.
package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/waabox/runnerstat/internal/domain"
	"github.com/waabox/runnerstat/internal/observability"
)

// Artifact describes a file produced by an Emitter.
type Artifact struct {
	Name        string
	Path        string
	ContentType string
	// Written is false when the emitter had nothing to write.
	Written bool
}

// Emitter renders a report into one artifact. Failures are *domain.RenderError.
type Emitter interface {
	Name() string
	Emit(report domain.Report) (Artifact, error)
}

// EmitAll runs every emitter, even after one fails, and returns the artifacts
// that were produced along with the joined render errors.
func EmitAll(emitters []Emitter, report domain.Report, logger *slog.Logger) ([]Artifact, error) {
	var (
		artifacts []Artifact
		errs      []error
	)
	for _, e := range emitters {
		a, err := e.Emit(report)
		if err != nil {
			orDiscard(logger).Error("report failed", "artifact", e.Name(), "error", err)
			errs = append(errs, err)
			continue
		}
		if a.Written {
			artifacts = append(artifacts, a)
		}
	}
	return artifacts, errors.Join(errs...)
}

// writeFile renders into path through a buffered writer, creating parent
// directories. Any failure is returned as a *domain.RenderError.
func writeFile(artifact, path string, render func(io.Writer) error) error {
	if err := write(path, render); err != nil {
		return &domain.RenderError{Artifact: artifact, Path: path, Err: err}
	}
	return nil
}

func write(path string, render func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(f)
	if err := render(bw); err != nil {
		f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func orDiscard(l *slog.Logger) *slog.Logger {
	if l == nil {
		return observability.Discard()
	}
	return l
}
