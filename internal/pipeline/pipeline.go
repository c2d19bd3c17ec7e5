package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"whisperbatch/internal/config"
	"whisperbatch/internal/export"
	"whisperbatch/internal/files"
	"whisperbatch/internal/history"
	"whisperbatch/internal/logging"
	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/models"
	"whisperbatch/internal/notifications"
	"whisperbatch/internal/services"
	"whisperbatch/internal/staging"
)

// AudioLoader turns an input file into a normalized clip.
type AudioLoader interface {
	Load(ctx context.Context, path string) (*audio.Clip, error)
}

// Recorder persists run and file outcomes. *history.Store satisfies it.
type Recorder interface {
	BeginRun(ctx context.Context, run history.Run) error
	RecordFile(ctx context.Context, rec history.FileRecord) error
	FinishRun(ctx context.Context, runID string, status history.RunStatus, totals history.Totals) error
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithLoader replaces the ffmpeg-backed audio loader. No scratch directory
// is prepared when a loader is supplied.
func WithLoader(loader AudioLoader) Option {
	return func(p *Pipeline) { p.loader = loader }
}

// WithRecorder records the run in a history store.
func WithRecorder(rec Recorder) Option {
	return func(p *Pipeline) { p.recorder = rec }
}

// WithProgress overrides the automatically selected progress reporter.
func WithProgress(progress Progress) Option {
	return func(p *Pipeline) { p.progress = progress }
}

// WithNotifier publishes the run outcome when the run ends.
func WithNotifier(n notifications.Service) Option {
	return func(p *Pipeline) { p.notifier = n }
}

// WithGPUDetector replaces the PCI-based GPU probe used for device auto-selection.
func WithGPUDetector(detect func() ([]models.GPU, error)) Option {
	return func(p *Pipeline) { p.detectGPU = detect }
}

// Pipeline runs one batch over the configured input directory.
type Pipeline struct {
	cfg       *config.Config
	backend   models.Backend
	logger    *slog.Logger
	loader    AudioLoader
	recorder  Recorder
	notifier  notifications.Service
	progress  Progress
	detectGPU func() ([]models.GPU, error)
	exporter  *export.Exporter
}

func New(cfg *config.Config, backend models.Backend, logger *slog.Logger, opts ...Option) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "pipeline")
	p := &Pipeline{
		cfg:      cfg,
		backend:  backend,
		logger:   logger,
		exporter: export.New(export.OptionsFromConfig(cfg), logging.NewComponentLogger(logger, "export")),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.progress == nil {
		p.progress = NewProgress(os.Stderr, logger)
	}
	return p
}

// Run processes every discovered file and returns the run statistics. The
// returned error is non-nil when the run could not start, the transcription
// model could not be loaded, discovery failed, or ctx was canceled.
func (p *Pipeline) Run(ctx context.Context) (Stats, error) {
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, p.logger)

	lock, err := acquireRunLock(p.cfg.OutputDir())
	if err != nil {
		return Stats{}, err
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Debug("release run lock failed", logging.Error(err))
		}
	}()

	started := time.Now()
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("input_dir", p.cfg.InputDir()),
		logging.String("output_dir", p.cfg.OutputDir()),
		logging.String("backend", p.backend.Name()),
		logging.String("model", p.cfg.ModelSize()),
	)
	p.beginRun(ctx, logger, runID, started)

	loader := p.loader
	if loader == nil {
		dir, err := p.prepareScratch(ctx, logger, runID)
		if err != nil {
			p.summarize(ctx, logger, runID, started, Stats{}, err)
			return Stats{}, err
		}
		defer staging.Remove(dir, logger)
		loader = audio.Loader{FFmpeg: p.cfg.FFmpegBinary(), WorkDir: dir}
	}

	var managerOpts []models.ManagerOption
	if p.detectGPU != nil {
		managerOpts = append(managerOpts, models.WithGPUDetector(p.detectGPU))
	}
	manager := models.NewManager(p.backend,
		models.Placement{Device: p.cfg.DeviceType(), ComputeType: p.cfg.ComputeType()},
		logger, managerOpts...)

	stats, runErr := func() (stats Stats, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("run aborted: panic: %v", r)
			}
			_ = manager.Cleanup(context.WithoutCancel(ctx))
		}()
		return p.execute(ctx, logger, runID, manager, loader)
	}()

	p.summarize(ctx, logger, runID, started, stats, runErr)
	return stats, runErr
}

func (p *Pipeline) execute(ctx context.Context, logger *slog.Logger, runID string, manager *models.Manager, loader AudioLoader) (Stats, error) {
	var stats Stats
	if _, err := manager.LoadTranscriptionModel(ctx, p.cfg.ModelSize(), p.cfg.Language()); err != nil {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		return stats, err
	}

	handler, err := files.NewHandler(p.cfg.InputDir(), p.cfg.OutputDir(), p.cfg.AudioExtensions(), logger)
	if err != nil {
		return stats, err
	}
	inputs, err := handler.FindAudioFiles()
	if err != nil {
		return stats, err
	}
	stats.Total = len(inputs)
	if len(inputs) == 0 {
		return stats, nil
	}

	run := &fileRun{
		pipeline: p,
		manager:  manager,
		loader:   loader,
		handler:  handler,
		formats:  p.cfg.OutputFormats(),
		runID:    runID,
	}
	p.progress.Start(len(inputs))
	defer p.progress.Finish()

	for i, input := range inputs {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		logger.Info("processing file",
			logging.String(logging.FieldEventType, "file_start"),
			logging.String("name", input.Name()),
			logging.Int("index", i+1),
			logging.Int("total", len(inputs)),
		)
		res := run.process(ctx, input)
		if res.canceled {
			logger.Info("file interrupted", logging.String("name", input.Name()))
			return stats, context.Canceled
		}
		stats.count(res.state)
		run.record(ctx, input, res)
		p.progress.Advance(input.Name(), res.state)
	}
	return stats, nil
}

// prepareScratch removes run directories abandoned by earlier crashes and
// creates this run's directory.
func (p *Pipeline) prepareScratch(ctx context.Context, logger *slog.Logger, runID string) (string, error) {
	root := p.cfg.ScratchDir()
	staging.CleanStale(ctx, root, staging.StaleAfter, logger)
	dir, err := staging.RunDir(root, runID)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "pipeline", "prepare scratch", root, err)
	}
	return dir, nil
}

func (p *Pipeline) beginRun(ctx context.Context, logger *slog.Logger, runID string, started time.Time) {
	if p.recorder == nil {
		return
	}
	err := p.recorder.BeginRun(ctx, history.Run{
		ID:        runID,
		StartedAt: started,
		InputDir:  p.cfg.InputDir(),
		OutputDir: p.cfg.OutputDir(),
		Backend:   p.backend.Name(),
		Model:     p.cfg.ModelSize(),
	})
	if err != nil {
		logging.WarnWithContext(logger, "history unavailable for this run", "history_begin_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will be missing from whisperbatch history"),
		)
	}
}

func (p *Pipeline) summarize(ctx context.Context, logger *slog.Logger, runID string, started time.Time, stats Stats, runErr error) {
	elapsed := time.Since(started)
	status := history.RunCompleted
	switch {
	case errors.Is(runErr, context.Canceled):
		status = history.RunInterrupted
	case runErr != nil:
		status = history.RunFailed
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "run_summary"),
		logging.String("status", string(status)),
		logging.Int("total", stats.Total),
		logging.Int("success", stats.Success),
		logging.Int("failed", stats.Failed),
		logging.Int("skipped", stats.Skipped),
		logging.Duration("duration", elapsed.Round(time.Second)),
	}
	switch status {
	case history.RunFailed:
		logging.ErrorWithContext(logger, "run failed", "run_failed", append(attrs,
			logging.Error(runErr),
			logging.String("error_kind", services.Classify(runErr)),
		)...)
	case history.RunInterrupted:
		logger.Info("run interrupted", logging.Args(attrs...)...)
	default:
		logger.Info("run finished", logging.Args(attrs...)...)
	}

	if path := p.cfg.MetricsTextfile(); path != "" {
		if err := writeMetrics(path, stats, elapsed); err != nil {
			logging.WarnWithContext(logger, "metrics textfile not written", "metrics_write_failed",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics for this run are missing"),
			)
		}
	}
	if p.recorder != nil {
		totals := history.Totals{Total: stats.Total, Success: stats.Success, Failed: stats.Failed, Skipped: stats.Skipped}
		if err := p.recorder.FinishRun(context.WithoutCancel(ctx), runID, status, totals); err != nil {
			logger.Debug("history finish failed", logging.Error(err))
		}
	}
	p.notify(context.WithoutCancel(ctx), logger, runID, status, stats, elapsed, runErr)
}

func (p *Pipeline) notify(ctx context.Context, logger *slog.Logger, runID string, status history.RunStatus, stats Stats, elapsed time.Duration, runErr error) {
	if p.notifier == nil {
		return
	}
	var err error
	if status == history.RunFailed {
		err = p.notifier.NotifyRunFailed(ctx, runID, runErr)
	} else {
		err = p.notifier.NotifyRunCompleted(ctx, notifications.RunSummary{
			RunID:       runID,
			Interrupted: status == history.RunInterrupted,
			Total:       stats.Total,
			Success:     stats.Success,
			Failed:      stats.Failed,
			Skipped:     stats.Skipped,
			Duration:    elapsed,
			OutputDir:   p.cfg.OutputDir(),
		})
	}
	if err != nil {
		logging.WarnWithContext(logger, "run notification not sent", "notification_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.String(logging.FieldImpact, "no push notification for this run"),
		)
	}
}
