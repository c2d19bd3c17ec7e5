package testsupport

import (
	"path/filepath"
	"testing"

	"whisperbatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	baseDir string
	tree    map[string]any
}

// NewConfig produces a config whose input, output and logs directories are
// unique temp directories. Diarization credentials are cleared so tests do
// not depend on the caller's environment.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")

	base := t.TempDir()
	builder := &configBuilder{
		baseDir: base,
		tree: map[string]any{
			"device": map[string]any{"type": "cpu", "compute_type": "float32"},
			"paths": map[string]any{
				"input":  filepath.Join(base, "input"),
				"output": filepath.Join(base, "output"),
				"logs":   filepath.Join(base, "logs"),
			},
			"logging": map[string]any{"console": false},
		},
	}
	for _, opt := range opts {
		opt(builder)
	}
	return config.FromMap(builder.tree)
}

// With sets a dotted key on the test config.
func With(key string, value any) ConfigOption {
	return func(b *configBuilder) {
		cfg := config.FromMap(b.tree)
		cfg.Set(key, value)
		b.tree = cfg.Tree()
	}
}

// WithFormats sets output.formats.
func WithFormats(formats ...string) ConfigOption {
	values := make([]any, len(formats))
	for i, f := range formats {
		values[i] = f
	}
	return With("output.formats", values)
}

// WithHFToken exposes a diarization credential through the environment the
// config reads it from.
func WithHFToken(t testing.TB, token string) ConfigOption {
	return func(b *configBuilder) {
		t.Setenv("HF_TOKEN", token)
	}
}
