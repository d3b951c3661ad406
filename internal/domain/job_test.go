package domain_test

import (
	"testing"
	"time"

	"github.com/waabox/runnerstat/internal/domain"
)

func TestElapsed_ZeroValueIsUnknown(t *testing.T) {
	var e domain.Elapsed
	if e.String() != "unknown" {
		t.Errorf("expected 'unknown', got '%s'", e.String())
	}
	if _, ok := e.Seconds(); ok {
		t.Error("expected zero Elapsed to be unknown")
	}
}

func TestElapsed_TruncatesToWholeSeconds(t *testing.T) {
	e := domain.KnownElapsed(158*time.Second + 900*time.Millisecond)
	if e.String() != "02:38" {
		t.Errorf("expected '02:38', got '%s'", e.String())
	}
}

func TestElapsed_MinutesAreNotWrapped(t *testing.T) {
	e := domain.KnownElapsed(125 * time.Minute)
	if e.String() != "125:00" {
		t.Errorf("expected '125:00', got '%s'", e.String())
	}
}

func TestElapsed_NegativeIsUnknown(t *testing.T) {
	e := domain.KnownElapsed(-time.Second)
	if e.String() != "unknown" {
		t.Errorf("expected 'unknown', got '%s'", e.String())
	}
}

func TestJobRecord_RunnerLabels(t *testing.T) {
	r := domain.JobRecord{Labels: []string{"self-hosted", "gpu"}}
	if r.RunnerLabels() != "self-hosted, gpu" {
		t.Errorf("expected 'self-hosted, gpu', got '%s'", r.RunnerLabels())
	}
	if (domain.JobRecord{}).RunnerLabels() != "unknown" {
		t.Error("expected empty label set to render as 'unknown'")
	}
}
