package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Markers tag errors for Classify. Wrap attaches one to every error that
// crosses a package boundary.
var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap formats "marker: stage: operation: message: cause" with empty parts
// left out. A nil marker means ErrTransient.
func Wrap(marker error, stage, operation, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	var parts []string
	for _, p := range []string{stage, operation, message} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	detail := strings.Join(parts, ": ")
	if detail == "" {
		detail = "service failure"
	}
	if err == nil {
		return fmt.Errorf("%w: %s", marker, detail)
	}
	return fmt.Errorf("%w: %s: %w", marker, detail, err)
}

// categories is checked in order; the first match wins.
var categories = []struct {
	name    string
	targets []error
}{
	{"canceled", []error{context.Canceled}},
	{"external_tool", []error{ErrExternalTool}},
	{"validation", []error{ErrValidation}},
	{"configuration", []error{ErrConfiguration}},
	{"not_found", []error{ErrNotFound}},
	{"timeout", []error{ErrTimeout, context.DeadlineExceeded}},
}

// Classify returns the stable category recorded in logs and the run
// history. Unmarked errors are "transient"; nil is "".
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range categories {
		for _, target := range c.targets {
			if errors.Is(err, target) {
				return c.name
			}
		}
	}
	return "transient"
}
