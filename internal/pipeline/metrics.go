package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// writeMetrics writes run gauges in the node_exporter textfile format.
func writeMetrics(path string, stats Stats, duration time.Duration) error {
	reg := prometheus.NewRegistry()
	files := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "whisperbatch_files",
		Help: "Files handled by the last run, by outcome.",
	}, []string{"outcome"})
	runDuration := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "whisperbatch_run_duration_seconds",
		Help: "Wall-clock duration of the last run.",
	})
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "whisperbatch_last_run_timestamp_seconds",
		Help: "Unix time the last run finished.",
	})
	reg.MustRegister(files, runDuration, lastRun)

	files.WithLabelValues("total").Set(float64(stats.Total))
	files.WithLabelValues("success").Set(float64(stats.Success))
	files.WithLabelValues("failed").Set(float64(stats.Failed))
	files.WithLabelValues("skipped").Set(float64(stats.Skipped))
	runDuration.Set(duration.Seconds())
	lastRun.SetToCurrentTime()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
