package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"whisperbatch/internal/config"
	"whisperbatch/internal/history"
	"whisperbatch/internal/logging"
	"whisperbatch/internal/models"
	"whisperbatch/internal/notifications"
	"whisperbatch/internal/pipeline"
	"whisperbatch/internal/preflight"
	"whisperbatch/internal/services/openaiasr"
	"whisperbatch/internal/services/whisperx"
)

// runBatch executes one batch run and prints the summary to out.
func runBatch(ctx context.Context, cc *commandContext, out io.Writer) error {
	cfg, err := cc.ensureConfig()
	if err != nil {
		return err
	}
	logger, closer, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer closer.Close()
	logger = logging.NewComponentLogger(logger, "cli")

	if path := cfg.LogFilePath(); path != "" {
		logging.CleanupOldLogs(logger, cfg.LogRetentionDays(), filepath.Dir(path), "*"+filepath.Ext(path), path)
	}

	if !cc.flags.skipPreflight {
		if err := runPreflight(ctx, cfg, logger); err != nil {
			return err
		}
	}

	opts := []pipeline.Option{pipeline.WithNotifier(notifications.NewService(cfg))}
	if cfg.HistoryEnabled() {
		store, err := history.Open(cfg.HistoryPath())
		if err != nil {
			logging.WarnWithContext(logger, "history store unavailable", "history_open_failed",
				logging.String("path", cfg.HistoryPath()),
				logging.Error(err),
				logging.String(logging.FieldImpact, "this run will not be recorded"),
			)
		} else {
			defer store.Close()
			opts = append(opts, pipeline.WithRecorder(store))
		}
	}

	p := pipeline.New(cfg, newBackend(cfg, logger), logger, opts...)
	stats, err := p.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	printSummary(out, stats, errors.Is(err, context.Canceled))
	return nil
}

// newBackend builds the model host selected by whisper.backend.
func newBackend(cfg *config.Config, logger *slog.Logger) models.Backend {
	if cfg.Backend() == config.BackendOpenAI {
		return openaiasr.New(openaiasr.Options{
			BaseURL: cfg.WorkerBaseURL(),
			APIKey:  cfg.WorkerAPIKey(),
			Logger:  logger,
		})
	}
	return whisperx.New(whisperx.Options{
		Command:        cfg.WorkerCommand(),
		StartupTimeout: cfg.WorkerStartupTimeout(),
		URL:            cfg.WorkerURL(),
		Logger:         logger,
	})
}

func runPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	results := preflight.RunAll(ctx, cfg)
	for _, r := range results {
		if !r.Passed && r.Advisory {
			logging.WarnWithContext(logger, "preflight advisory", "preflight_advisory",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
			)
		}
	}
	failed := preflight.Failed(results)
	if len(failed) == 0 {
		return nil
	}
	lines := make([]string, 0, len(failed))
	for _, r := range failed {
		lines = append(lines, fmt.Sprintf("  %s: %s", r.Name, r.Detail))
	}
	return fmt.Errorf("preflight failed:\n%s\nrun `whisperbatch check` for details or pass --skip-preflight",
		strings.Join(lines, "\n"))
}

func printSummary(out io.Writer, stats pipeline.Stats, interrupted bool) {
	title := "Run complete"
	if interrupted {
		title = "Run interrupted"
	}
	fmt.Fprintln(out, title)
	rows := [][]string{
		{"Total", strconv.Itoa(stats.Total)},
		{"Succeeded", strconv.Itoa(stats.Success)},
		{"Failed", strconv.Itoa(stats.Failed)},
		{"Skipped", strconv.Itoa(stats.Skipped)},
	}
	fmt.Fprintln(out, renderTable([]string{"Files", "Count"}, rows))
}
