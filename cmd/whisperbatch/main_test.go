package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"whisperbatch/internal/config"
	"whisperbatch/internal/history"
	"whisperbatch/internal/testsupport"
)

type cliEnv struct {
	dir        string
	configPath string
	inputDir   string
	outputDir  string
	logsDir    string
}

// newCLIEnv writes a config file pointing every path into a temp dir. extra
// is appended verbatim to the YAML document.
func newCLIEnv(t *testing.T, extra string) cliEnv {
	t.Helper()
	t.Setenv("HF_TOKEN", "")
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	dir := t.TempDir()
	env := cliEnv{
		dir:        dir,
		configPath: filepath.Join(dir, "config.yaml"),
		inputDir:   filepath.Join(dir, "input"),
		outputDir:  filepath.Join(dir, "output"),
		logsDir:    filepath.Join(dir, "logs"),
	}
	body := fmt.Sprintf(`device:
  type: cpu
  compute_type: float32
paths:
  input: %s
  output: %s
  logs: %s
logging:
  console: false
%s`, env.inputDir, env.outputDir, env.logsDir, extra)
	if err := os.WriteFile(env.configPath, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func runCLI(t *testing.T, ctx context.Context, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestMissingConfigExitsWithGuidance(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.yaml")
	code, _, stderr := runCLI(t, context.Background(), "--config", missing, "check")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stderr, "config init") || !strings.Contains(stderr, "--config") {
		t.Fatalf("expected guidance in stderr, got %q", stderr)
	}
}

func TestMalformedConfigExitsOne(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("device: [unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, context.Background(), "--config", path, "config", "show")
	if code != 1 || !strings.Contains(stderr, "malformed") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestInvalidOverrideExitsOne(t *testing.T) {
	env := newCLIEnv(t, "")
	code, _, stderr := runCLI(t, context.Background(), "--config", env.configPath, "--device", "tpu", "config", "show")
	if code != 1 || !strings.Contains(stderr, "device.type") {
		t.Fatalf("code=%d stderr=%q", code, stderr)
	}
}

func TestConfigInitAndShow(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "whisperbatch.yaml")
	code, stdout, stderr := runCLI(t, context.Background(), "config", "init", target)
	if code != 0 {
		t.Fatalf("config init failed: %s", stderr)
	}
	if !strings.Contains(stdout, target) {
		t.Fatalf("expected target path in output, got %q", stdout)
	}

	code, _, stderr = runCLI(t, context.Background(), "config", "init", target)
	if code != 1 || !strings.Contains(stderr, "already exists") {
		t.Fatalf("expected refusal to overwrite, code=%d stderr=%q", code, stderr)
	}

	code, stdout, stderr = runCLI(t, context.Background(), "--config", target, "--model", "small", "config", "show")
	if code != 0 {
		t.Fatalf("config show failed: %s", stderr)
	}
	if !strings.Contains(stdout, "model_size: small") {
		t.Fatalf("expected override in effective config, got:\n%s", stdout)
	}
}

func TestConfigInitPrintsSample(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	code, stdout, stderr := runCLI(t, context.Background(), "config", "init", "-")
	if code != 0 {
		t.Fatalf("config init - failed: %s", stderr)
	}
	if stdout != config.SampleConfig() {
		t.Fatalf("expected the sample config on stdout, got:\n%s", stdout)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("expected no files written, found %d", len(entries))
	}
}

func TestHistoryCommand(t *testing.T) {
	env := newCLIEnv(t, "history:\n  enabled: true\n")

	code, stdout, _ := runCLI(t, context.Background(), "--config", env.configPath, "history")
	if code != 0 || !strings.Contains(stdout, "No history recorded") {
		t.Fatalf("code=%d stdout=%q", code, stdout)
	}

	store, err := history.Open(filepath.Join(env.logsDir, "history.db"))
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	ctx := context.Background()
	started := time.Now().Add(-time.Minute)
	if err := store.BeginRun(ctx, history.Run{ID: "run-1", StartedAt: started, Backend: "whisperx", Model: "small"}); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordFile(ctx, history.FileRecord{RunID: "run-1", Path: "/in/aula.mp3", Outcome: "success", Language: "pt", Segments: 4}); err != nil {
		t.Fatal(err)
	}
	if err := store.FinishRun(ctx, "run-1", history.RunCompleted, history.Totals{Total: 1, Success: 1}); err != nil {
		t.Fatal(err)
	}
	store.Close()

	code, stdout, stderr := runCLI(t, ctx, "--config", env.configPath, "history")
	if code != 0 {
		t.Fatalf("history failed: %s", stderr)
	}
	if !strings.Contains(stdout, "run-1") || !strings.Contains(stdout, "completed") {
		t.Fatalf("unexpected history listing:\n%s", stdout)
	}

	code, stdout, stderr = runCLI(t, ctx, "--config", env.configPath, "history", "run-1")
	if code != 0 {
		t.Fatalf("history run failed: %s", stderr)
	}
	if !strings.Contains(stdout, "aula.mp3") {
		t.Fatalf("expected file row, got:\n%s", stdout)
	}

	code, _, _ = runCLI(t, ctx, "--config", env.configPath, "history", "missing")
	if code != 1 {
		t.Fatalf("expected missing run to fail, got %d", code)
	}
}

func TestCheckReportsFailures(t *testing.T) {
	env := newCLIEnv(t, "processing:\n  ffmpeg: definitely-missing-ffmpeg\n")
	code, stdout, stderr := runCLI(t, context.Background(), "--config", env.configPath, "check")
	if code != 1 {
		t.Fatalf("exit code = %d, want 1", code)
	}
	if !strings.Contains(stdout, "FFmpeg") || !strings.Contains(stdout, "FAIL") {
		t.Fatalf("expected failing FFmpeg row, got:\n%s", stdout)
	}
	if !strings.Contains(stderr, "failed") {
		t.Fatalf("expected failure summary, got %q", stderr)
	}
}

func newTranscriptionServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"language": "portuguese",
			"duration": 0.2,
			"text":     "bom dia",
			"segments": []map[string]any{{"id": 0, "start": 0.0, "end": 0.2, "text": " bom dia"}},
			"words": []map[string]any{
				{"word": "bom", "start": 0.0, "end": 0.1},
				{"word": "dia", "start": 0.1, "end": 0.2},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func openAIConfig(srv *httptest.Server) string {
	return fmt.Sprintf("whisper:\n  backend: openai\n  model_size: whisper-1\nworker:\n  base_url: %s/v1\n  api_key: sk-test\n", srv.URL)
}

func TestRunTranscribesWithOpenAIBackend(t *testing.T) {
	srv := newTranscriptionServer(t)
	env := newCLIEnv(t, openAIConfig(srv))
	testsupport.WriteWAV(t, filepath.Join(env.inputDir, "aula.wav"), 16000, 1, 0.2)

	code, stdout, stderr := runCLI(t, context.Background(), "--config", env.configPath, "run", "--skip-preflight")
	if code != 0 {
		t.Fatalf("run failed: %s", stderr)
	}
	if !strings.Contains(stdout, "Run complete") {
		t.Fatalf("expected summary, got:\n%s", stdout)
	}
	data, err := os.ReadFile(filepath.Join(env.outputDir, "aula_transcricao.txt"))
	if err != nil {
		t.Fatalf("read txt output: %v", err)
	}
	if string(data) != "bom dia\n" {
		t.Fatalf("txt = %q", data)
	}
	for _, ext := range []string{"json", "srt"} {
		if _, err := os.Stat(filepath.Join(env.outputDir, "aula_transcricao."+ext)); err != nil {
			t.Fatalf("missing %s output: %v", ext, err)
		}
	}
}

func TestInterruptedRunExitsZero(t *testing.T) {
	srv := newTranscriptionServer(t)
	env := newCLIEnv(t, openAIConfig(srv))
	testsupport.WriteWAV(t, filepath.Join(env.inputDir, "aula.wav"), 16000, 1, 0.2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	code, _, stderr := runCLI(t, ctx, "--config", env.configPath, "--skip-preflight")
	if code != 0 {
		t.Fatalf("exit code = %d, want 0 (stderr %q)", code, stderr)
	}
	if _, err := os.Stat(filepath.Join(env.outputDir, "aula_transcricao.txt")); err == nil {
		t.Fatal("interrupted run should not process files")
	}
}

func TestLogsCommandFiltersByRun(t *testing.T) {
	env := newCLIEnv(t, "")
	if err := os.MkdirAll(env.logsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "INFO run-a - run started\nINFO run-b - run started\nINFO run-a - run finished\n"
	if err := os.WriteFile(filepath.Join(env.logsDir, "transcription.log"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCLI(t, context.Background(), "--config", env.configPath, "logs", "--run", "run-a", "-n", "5")
	if code != 0 {
		t.Fatalf("logs failed: %s", stderr)
	}
	if stdout != "INFO run-a - run started\nINFO run-a - run finished\n" {
		t.Fatalf("unexpected logs output %q", stdout)
	}
}
