package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"whisperbatch/internal/language"
)

// Validate ensures the configuration is usable. Every problem found is
// reported; each wraps ErrInvalid.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...)))
	}

	if !slices.Contains(validDevices, c.DeviceType()) {
		invalid("device.type must be one of %s, got %q", strings.Join(validDevices, ", "), c.DeviceType())
	}
	if c.ComputeType() == "" {
		invalid("device.compute_type must be set")
	}

	backend := c.Backend()
	if !slices.Contains(validBackends, backend) {
		invalid("whisper.backend must be one of %s, got %q", strings.Join(validBackends, ", "), backend)
	}
	model := c.ModelSize()
	switch {
	case model == "":
		invalid("whisper.model_size must be set")
	case backend == BackendWhisperX && !slices.Contains(ValidModelSizes, model):
		invalid("whisper.model_size must be one of %s, got %q", strings.Join(ValidModelSizes, ", "), model)
	}
	if _, err := language.Canonicalize(c.GetString("whisper.language", defaultLanguage)); err != nil {
		invalid("whisper.language: %v", err)
	}
	if c.BatchSize() <= 0 {
		invalid("whisper.batch_size must be positive, got %d", c.BatchSize())
	}

	if len(c.AudioExtensions()) == 0 {
		invalid("processing.audio_extensions must list at least one extension")
	}

	minSpk, maxSpk := c.MinSpeakers(), c.MaxSpeakers()
	if minSpk < 0 || maxSpk < 0 {
		invalid("diarization speaker bounds must not be negative")
	}
	if minSpk > 0 && maxSpk > 0 && minSpk > maxSpk {
		invalid("diarization.min_speakers (%d) exceeds diarization.max_speakers (%d)", minSpk, maxSpk)
	}

	if c.JSONIndent() < 0 {
		invalid("output.json.indent must not be negative")
	}

	if !slices.Contains(validLogLevels, c.LogLevel()) {
		invalid("logging.level must be one of DEBUG, INFO, WARNING, ERROR, got %q", c.LogLevel())
	}
	if !slices.Contains(validFormats, c.LogFormat()) {
		invalid("logging.format must be console or json, got %q", c.LogFormat())
	}
	if c.LogRetentionDays() < 0 {
		invalid("logging.retention_days must not be negative")
	}

	return errors.Join(errs...)
}
