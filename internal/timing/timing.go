// Package timing parses API timestamps and computes job run times.
package timing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/waabox/runnerstat/internal/domain"
)

// ErrMissingTimestamp is returned by ParseTimestamp for an empty value.
var ErrMissingTimestamp = errors.New("missing timestamp")

// ErrNegativeDuration is returned by Elapsed when completion precedes start.
var ErrNegativeDuration = errors.New("completed before started")

// ParseTimestamp parses a timezone-qualified RFC 3339 timestamp. A trailing "Z"
// is accepted as UTC, as are fractional seconds.
func ParseTimestamp(s string) (time.Time, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return time.Time{}, ErrMissingTimestamp
	}
	if strings.HasSuffix(v, "Z") {
		v = strings.TrimSuffix(v, "Z") + "+00:00"
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t, nil
}

// Elapsed returns completed minus started, or the reason it cannot be computed.
func Elapsed(started, completed string) (time.Duration, error) {
	start, err := ParseTimestamp(started)
	if err != nil {
		return 0, fmt.Errorf("started_at: %w", err)
	}
	end, err := ParseTimestamp(completed)
	if err != nil {
		return 0, fmt.Errorf("completed_at: %w", err)
	}
	d := end.Sub(start)
	if d < 0 {
		return 0, ErrNegativeDuration
	}
	return d, nil
}

// Between is the soft form of Elapsed: any failure yields an unknown duration.
func Between(started, completed string) domain.Elapsed {
	d, err := Elapsed(started, completed)
	if err != nil {
		return domain.Elapsed{}
	}
	return domain.KnownElapsed(d)
}
