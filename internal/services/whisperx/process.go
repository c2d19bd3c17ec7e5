package whisperx

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hpcloud/tail"
	process "github.com/mudler/go-processmanager"
	"github.com/phayes/freeport"
	gopsutil "github.com/shirou/gopsutil/v3/process"

	"whisperbatch/internal/logging"
	"whisperbatch/internal/services"
)

//go:embed worker.py
var workerScript []byte

// worker is a launched Python worker process.
type worker struct {
	proc      *process.Process
	addr      string
	scriptDir string
	tails     []*tail.Tail
	logger    *slog.Logger
}

// writeScript extracts the embedded worker into a fresh directory under dir.
func writeScript(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create worker dir: %w", err)
	}
	scratch, err := os.MkdirTemp(dir, "whisperx-worker-")
	if err != nil {
		return "", fmt.Errorf("create worker dir: %w", err)
	}
	path := filepath.Join(scratch, "worker.py")
	if err := os.WriteFile(path, workerScript, 0o644); err != nil {
		_ = os.RemoveAll(scratch)
		return "", fmt.Errorf("write worker script: %w", err)
	}
	return path, nil
}

func startWorker(opts Options) (*worker, error) {
	bin, err := exec.LookPath(opts.Command[0])
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "models", "launch worker",
			fmt.Sprintf("worker launcher %q not found", opts.Command[0]), err)
	}
	script, err := writeScript(opts.WorkDir)
	if err != nil {
		return nil, err
	}
	port, err := freeport.GetFreePort()
	if err != nil {
		_ = os.RemoveAll(filepath.Dir(script))
		return nil, fmt.Errorf("allocate worker port: %w", err)
	}
	addr := net.JoinHostPort("127.0.0.1", strconv.Itoa(port))

	args := append(append([]string(nil), opts.Command[1:]...), script, "--addr", addr)
	proc := process.New(
		process.WithTemporaryStateDir(),
		process.WithName(bin),
		process.WithArgs(args...),
		process.WithEnvironment(opts.environment()...),
	)
	opts.Logger.Info("starting model worker",
		logging.String("command", strings.Join(opts.Command, " ")),
		logging.String("addr", addr),
	)
	if err := proc.Run(); err != nil {
		_ = os.RemoveAll(filepath.Dir(script))
		return nil, services.Wrap(services.ErrExternalTool, "models", "launch worker", "worker did not start", err)
	}

	w := &worker{proc: proc, addr: addr, scriptDir: filepath.Dir(script), logger: opts.Logger}
	w.follow(proc.StderrPath(), "stderr")
	w.follow(proc.StdoutPath(), "stdout")
	opts.Logger.Debug("model worker state dir", logging.String("dir", proc.StateDir()))
	return w, nil
}

// follow re-logs a worker output file at debug level until the tail is stopped.
func (w *worker) follow(path, stream string) {
	t, err := tail.TailFile(path, tail.Config{Follow: true, ReOpen: true, MustExist: false, Logger: tail.DiscardingLogger})
	if err != nil {
		w.logger.Debug("could not follow worker output", logging.String("stream", stream), logging.Error(err))
		return
	}
	w.tails = append(w.tails, t)
	go func() {
		for line := range t.Lines {
			if line == nil || strings.TrimSpace(line.Text) == "" {
				continue
			}
			w.logger.Debug("worker output", logging.String("stream", stream), logging.String("line", line.Text))
		}
	}()
}

func (w *worker) baseURL() string {
	return "http://" + w.addr
}

func (w *worker) pid() (int, error) {
	return strconv.Atoi(strings.TrimSpace(w.proc.PID))
}

// alive reports whether the process is still running.
func (w *worker) alive() bool {
	return w.proc.IsAlive()
}

// waitHealthy polls /health until it answers or the timeout elapses.
func (w *worker) waitHealthy(ctx context.Context, c *client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(healthInterval)
	defer ticker.Stop()
	for {
		if err := c.health(ctx); err == nil {
			w.logger.Info("model worker ready", logging.String("addr", w.addr))
			return nil
		}
		if !w.alive() {
			return services.Wrap(services.ErrExternalTool, "models", "launch worker",
				"worker exited during startup; check the debug log for its output", nil)
		}
		if time.Now().After(deadline) {
			return services.Wrap(services.ErrTimeout, "models", "launch worker",
				fmt.Sprintf("worker not ready after %s", timeout), nil)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// logMemory records the worker's resident memory before it is stopped.
func (w *worker) logMemory() {
	pid, err := w.pid()
	if err != nil {
		return
	}
	proc, err := gopsutil.NewProcess(int32(pid))
	if err != nil {
		return
	}
	mem, err := proc.MemoryInfo()
	if err != nil || mem == nil {
		return
	}
	w.logger.Debug("model worker memory",
		logging.Int("pid", pid),
		logging.Int64("rss_bytes", int64(mem.RSS)),
		logging.Int64("vms_bytes", int64(mem.VMS)),
	)
}

// stop asks the worker to exit, then stops the process and its followers.
func (w *worker) stop(ctx context.Context, c *client) error {
	w.logMemory()
	var errs []error
	if w.alive() {
		shutdownCtx, cancel := context.WithTimeout(ctx, shutdownGrace)
		if err := c.shutdown(shutdownCtx); err != nil {
			w.logger.Debug("worker shutdown request failed", logging.Error(err))
		}
		cancel()
		if err := w.proc.Stop(); err != nil && w.alive() {
			errs = append(errs, fmt.Errorf("stop worker: %w", err))
		}
	}
	for _, t := range w.tails {
		_ = t.Stop()
		t.Cleanup()
	}
	if err := os.RemoveAll(w.scriptDir); err != nil {
		errs = append(errs, fmt.Errorf("remove worker script: %w", err))
	}
	if dir := w.proc.StateDir(); dir != "" {
		_ = os.RemoveAll(dir)
	}
	w.logger.Info("model worker stopped", logging.String("addr", w.addr))
	return errors.Join(errs...)
}
