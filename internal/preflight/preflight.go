package preflight

import (
	"context"

	"whisperbatch/internal/config"
	"whisperbatch/internal/models"
)

// Result reports the outcome of a single preflight check. Advisory results
// are printed but never block a run.
type Result struct {
	Name     string
	Passed   bool
	Advisory bool
	Detail   string
}

// Blocking reports whether the result should stop a run.
func (r Result) Blocking() bool {
	return !r.Passed && !r.Advisory
}

// Option customizes RunAll.
type Option func(*runner)

type runner struct {
	detectGPUs func() ([]models.GPU, error)
}

// WithGPUDetector replaces PCI based GPU detection.
func WithGPUDetector(detect func() ([]models.GPU, error)) Option {
	return func(r *runner) {
		if detect != nil {
			r.detectGPUs = detect
		}
	}
}

// RunAll executes every applicable preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config, opts ...Option) []Result {
	if cfg == nil {
		return nil
	}
	r := &runner{detectGPUs: models.DetectGPUs}
	for _, opt := range opts {
		opt(r)
	}

	results := []Result{
		CheckInputDir(cfg.InputDir()),
		CheckOutputDir(cfg.OutputDir()),
		CheckOutputFormats(cfg.OutputFormats()),
	}

	for _, status := range CheckSystemDeps(ctx, cfg) {
		results = append(results, fromStatus(status))
	}

	backend := cfg.Backend()
	if backend == config.BackendWhisperX && cfg.DeviceType() != models.DeviceCPU {
		results = append(results, CheckGPU(cfg.DeviceType(), r.detectGPUs))
	}

	switch backend {
	case config.BackendWhisperX:
		if url := cfg.WorkerURL(); url != "" {
			results = append(results, CheckWorker(ctx, url))
		}
	case config.BackendOpenAI:
		results = append(results, CheckOpenAI(ctx, cfg.WorkerBaseURL(), cfg.WorkerAPIKey()))
	}

	if cfg.DiarizationEnabled() {
		results = append(results, CheckCredential(cfg.HFToken()))
	}
	return results
}

// Failed returns the blocking results.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Blocking() {
			out = append(out, r)
		}
	}
	return out
}
