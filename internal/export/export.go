package export

import (
	"fmt"
	"log/slog"
	"strings"

	"whisperbatch/internal/config"
	"whisperbatch/internal/fileutil"
	"whisperbatch/internal/logging"
	"whisperbatch/internal/transcript"
)

const (
	FormatJSON = "json"
	FormatTXT  = "txt"
	FormatSRT  = "srt"
)

// Options tunes the individual formats.
type Options struct {
	JSONEnsureASCII      bool
	JSONIndent           int
	TXTIncludeSpeakers   bool
	TXTIncludeTimestamps bool
	SRTIncludeSpeakers   bool
}

// DefaultOptions matches the configuration defaults.
func DefaultOptions() Options {
	return Options{JSONIndent: 2, TXTIncludeSpeakers: true}
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		JSONEnsureASCII:      cfg.JSONEnsureASCII(),
		JSONIndent:           cfg.JSONIndent(),
		TXTIncludeSpeakers:   cfg.TXTIncludeSpeakers(),
		TXTIncludeTimestamps: cfg.TXTIncludeTimestamps(),
		SRTIncludeSpeakers:   cfg.SRTIncludeSpeakers(),
	}
}

type encoder func(*transcript.Result, Options) ([]byte, error)

var encoders = map[string]encoder{
	FormatJSON: encodeJSON,
	FormatTXT:  encodeTXT,
	FormatSRT:  encodeSRT,
}

// Supported reports whether format has an encoder.
func Supported(format string) bool {
	_, ok := encoders[strings.ToLower(strings.TrimSpace(format))]
	return ok
}

type Exporter struct {
	opts   Options
	logger *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Exporter{opts: opts, logger: logger}
}

// Export writes base.<format> for each format and returns the paths written,
// in request order. Unknown formats and write failures are logged and skipped.
func (e *Exporter) Export(result *transcript.Result, base string, formats []string) []string {
	written := make([]string, 0, len(formats))
	seen := make(map[string]struct{}, len(formats))
	for _, raw := range formats {
		format := strings.ToLower(strings.TrimSpace(raw))
		if _, dup := seen[format]; dup {
			continue
		}
		seen[format] = struct{}{}

		enc, ok := encoders[format]
		if !ok {
			logging.WarnWithContext(e.logger, "unknown output format ignored", "export_unknown_format",
				logging.String("format", raw),
				logging.String(logging.FieldImpact, "no file written for this format"),
				logging.String(logging.FieldErrorHint, "use json, txt, or srt in output.formats"),
			)
			continue
		}
		path := base + "." + format
		if err := e.write(enc, result, path); err != nil {
			logging.ErrorWithContext(e.logger, "export failed", "export_failed",
				logging.String("format", format),
				logging.String("path", path),
				logging.Error(err),
			)
			continue
		}
		e.logger.Info("exported", logging.String("format", format), logging.String("path", path))
		written = append(written, path)
	}
	return written
}

func (e *Exporter) write(enc encoder, result *transcript.Result, path string) error {
	data, err := enc(result, e.opts)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return fileutil.WriteFileAtomic(path, data, 0o644)
}
