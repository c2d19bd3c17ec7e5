package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"whisperbatch/internal/config"
	"whisperbatch/internal/deps"
	"whisperbatch/internal/export"
	"whisperbatch/internal/models"
)

const (
	endpointTimeout = 5 * time.Second
	publicOpenAIURL = "https://api.openai.com/v1"
)

// CheckInputDir verifies that the input directory is readable. A missing
// directory is advisory: the run creates it and finds nothing to process.
func CheckInputDir(path string) Result {
	const name = "Input directory"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Advisory: true, Detail: fmt.Sprintf("%s (does not exist, nothing to process)", path)}
	}
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckOutputDir verifies that the output directory is writable. A missing
// directory passes when its nearest existing parent is writable, since the
// run creates it.
func CheckOutputDir(path string) Result {
	const name = "Output directory"
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		parent := filepath.Dir(path)
		for parent != filepath.Dir(parent) {
			if _, err := os.Stat(parent); err == nil {
				break
			}
			parent = filepath.Dir(parent)
		}
		if err := unix.Access(parent, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, parent, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
	}
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckGPU reports whether an NVIDIA card is visible. With device "auto" a
// missing card is advisory because the run falls back to cpu.
func CheckGPU(device string, detect func() ([]models.GPU, error)) Result {
	const name = "GPU"
	advisory := device == models.DeviceAuto
	gpus, err := detect()
	if err != nil {
		return Result{Name: name, Advisory: advisory, Detail: fmt.Sprintf("detection failed (%v)", err)}
	}
	for _, g := range gpus {
		if g.IsNVIDIA() {
			return Result{Name: name, Passed: true, Detail: strings.TrimSpace(g.Vendor + " " + g.Product)}
		}
	}
	if advisory {
		return Result{Name: name, Advisory: true, Detail: "no NVIDIA card found, models will run on cpu"}
	}
	return Result{Name: name, Detail: "no NVIDIA card found (set device.type to cpu or auto)"}
}

// CheckOutputFormats reports configured formats without an exporter. They
// are skipped at export time, so only a list with no usable format blocks.
func CheckOutputFormats(formats []string) Result {
	const name = "Output formats"
	if len(formats) == 0 {
		return Result{Name: name, Advisory: true, Detail: "output.formats is empty, no transcripts will be written"}
	}
	var known, unknown []string
	for _, f := range formats {
		if export.Supported(f) {
			known = append(known, f)
		} else {
			unknown = append(unknown, f)
		}
	}
	switch {
	case len(known) == 0:
		return Result{Name: name, Detail: fmt.Sprintf("none of %s can be exported (use json, txt or srt)", strings.Join(unknown, ", "))}
	case len(unknown) > 0:
		return Result{Name: name, Advisory: true, Detail: fmt.Sprintf("unknown formats ignored: %s", strings.Join(unknown, ", "))}
	}
	return Result{Name: name, Passed: true, Detail: strings.Join(known, ", ")}
}

// CheckCredential verifies a diarization token is configured. Diarization
// degrades without one, so a missing token is advisory.
func CheckCredential(token string) Result {
	const name = "Diarization credential"
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Advisory: true, Detail: "HF_TOKEN not set, speaker labels will be skipped"}
	}
	return Result{Name: name, Passed: true, Detail: "token configured"}
}

// CheckWorker verifies that an already running whisperx worker answers its
// health endpoint.
func CheckWorker(ctx context.Context, baseURL string) Result {
	const name = "WhisperX worker"
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing url"}
	}
	status, err := probe(ctx, base+"/health", "")
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%s)", summarizeHTTPError(err))}
	}
	if status != http.StatusOK {
		return Result{Name: name, Detail: fmt.Sprintf("health check failed (%d)", status)}
	}
	return Result{Name: name, Passed: true, Detail: base}
}

// CheckOpenAI verifies connectivity and authentication against an
// OpenAI-compatible endpoint by listing its models. Self-hosted endpoints
// may run without a key.
func CheckOpenAI(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Transcription API"
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = publicOpenAIURL
		if strings.TrimSpace(apiKey) == "" {
			return Result{Name: name, Detail: "missing api key (set worker.api_key or OPENAI_API_KEY)"}
		}
	}
	status, err := probe(ctx, base+"/models", apiKey)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%s)", summarizeHTTPError(err))}
	}
	switch status {
	case http.StatusOK:
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", base)}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", status)}
	}
}

func probe(ctx context.Context, url, apiKey string) (int, error) {
	checkCtx, cancel := context.WithTimeout(ctx, endpointTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}
	if key := strings.TrimSpace(apiKey); key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	client := &http.Client{Timeout: endpointTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

// CheckSystemDeps evaluates the external programs the configured backend
// needs. The worker launcher is only required when the run starts its own
// whisperx worker.
func CheckSystemDeps(ctx context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio decoding",
			VersionArgs: []string{"-version"},
		},
	}
	if cfg.Backend() == config.BackendWhisperX && cfg.WorkerURL() == "" {
		launcher := ""
		if cmd := cfg.WorkerCommand(); len(cmd) > 0 {
			launcher = cmd[0]
		}
		requirements = append(requirements, deps.Requirement{
			Name:        "Worker launcher",
			Command:     launcher,
			Description: "Required to start the whisperx worker",
			VersionArgs: []string{"--version"},
		})
	}
	return deps.CheckBinaries(ctx, requirements)
}

func fromStatus(s deps.Status) Result {
	if s.Available {
		detail := s.Path
		if s.Version != "" {
			detail = fmt.Sprintf("%s (%s)", s.Path, s.Version)
		}
		return Result{Name: s.Name, Passed: true, Detail: detail}
	}
	detail := s.Detail
	if s.Description != "" {
		detail = fmt.Sprintf("%s: %s", s.Description, s.Detail)
	}
	return Result{Name: s.Name, Advisory: s.Optional, Detail: detail}
}

func summarizeHTTPError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
