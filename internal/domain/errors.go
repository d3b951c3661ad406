package domain

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrUnauthorized is returned by sources when the API responds with HTTP 401.
// Callers can check for it using errors.Is to report a credential problem.
var ErrUnauthorized = errors.New("unauthorized")

// FetchError is returned by a UsageSource when the API cannot be reached, answers
// with a non-2xx status, or returns a payload that cannot be decoded.
type FetchError struct {
	Op  string
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was caused by a request deadline rather than
// by the API answering with an error.
func (e *FetchError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// ConfigurationError reports missing or invalid settings. It is returned before any
// request is made.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// RenderError reports that one report artifact could not be written.
type RenderError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s report to %s: %v", e.Artifact, e.Path, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
