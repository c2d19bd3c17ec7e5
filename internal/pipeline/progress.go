package pipeline

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"whisperbatch/internal/logging"
)

// Progress observes per-file completion.
type Progress interface {
	Start(total int)
	Advance(file string, state State)
	Finish()
}

// NewProgress returns a progress bar when w is a terminal, and a sampled
// log reporter otherwise. With neither a writer nor a logger progress is
// dropped.
func NewProgress(w io.Writer, logger *slog.Logger) Progress {
	if w == nil && logger == nil {
		return nopProgress{}
	}
	if f, ok := w.(*os.File); ok {
		fd := f.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return &barProgress{w: w}
		}
	}
	return &logProgress{logger: logger, sampler: logging.NewProgressSampler(10)}
}

type barProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *barProgress) Start(total int) {
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription("transcribing"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionClearOnFinish(),
	)
}

func (p *barProgress) Advance(file string, state State) {
	if p.bar == nil {
		return
	}
	p.bar.Describe(fmt.Sprintf("%s (%s)", file, state))
	_ = p.bar.Add(1)
}

func (p *barProgress) Finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}

type logProgress struct {
	logger  *slog.Logger
	sampler *logging.ProgressSampler
	total   int
	done    int
}

func (p *logProgress) Start(total int) {
	p.total, p.done = total, 0
	p.sampler.Reset()
}

func (p *logProgress) Advance(_ string, _ State) {
	p.done++
	if p.total <= 0 {
		return
	}
	if p.sampler.ShouldLog(p.done, p.total) {
		p.logger.Info("run progress",
			logging.Int("processed", p.done),
			logging.Int("total", p.total),
			logging.String("percent", fmt.Sprintf("%.0f", float64(p.done)*100/float64(p.total))),
		)
	}
}

func (p *logProgress) Finish() {}

type nopProgress struct{}

func (nopProgress) Start(int)             {}
func (nopProgress) Advance(string, State) {}
func (nopProgress) Finish()               {}
