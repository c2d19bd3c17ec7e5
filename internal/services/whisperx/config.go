package whisperx

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"whisperbatch/internal/logging"
)

const (
	defaultStartupTimeout = 10 * time.Minute
	healthInterval        = 500 * time.Millisecond
	shutdownGrace         = 5 * time.Second
)

var defaultCommand = []string{"uv", "run", "--with", "whisperx", "python"}

// Options configures the worker backend.
type Options struct {
	// Command is the launcher prefix; the script path and --addr are appended.
	Command []string
	// StartupTimeout bounds the wait for the first successful health check.
	StartupTimeout time.Duration
	// URL attaches to a worker that is already running. No process is
	// launched or stopped when set.
	URL string
	// WorkDir holds the extracted worker script. Defaults to the OS temp dir.
	WorkDir string
	// Env is appended to the current environment of the worker process.
	Env        []string
	Logger     *slog.Logger
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if len(o.Command) == 0 {
		o.Command = append([]string(nil), defaultCommand...)
	}
	if o.StartupTimeout <= 0 {
		o.StartupTimeout = defaultStartupTimeout
	}
	if o.WorkDir == "" {
		o.WorkDir = os.TempDir()
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{}
	}
	return o
}

// environment is the worker process environment. PyTorch 2.6 refuses the
// pickled pyannote checkpoints unless weights-only loading is disabled.
func (o Options) environment() []string {
	env := append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1", "PYTHONUNBUFFERED=1")
	return append(env, o.Env...)
}
