package pipeline

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewProgressFallsBackToLogs(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, nil))
	p := NewProgress(&bytes.Buffer{}, logger)
	if _, ok := p.(*logProgress); !ok {
		t.Fatalf("expected log progress for non-terminal writer, got %T", p)
	}

	p.Start(20)
	for i := 0; i < 20; i++ {
		p.Advance("a.wav", StateDone)
	}
	p.Finish()

	lines := strings.Count(out.String(), "run progress")
	if lines == 0 || lines > 11 {
		t.Fatalf("expected sampled progress lines, got %d:\n%s", lines, out.String())
	}
	if !strings.Contains(out.String(), "processed=20") {
		t.Fatalf("final progress not logged:\n%s", out.String())
	}
}

func TestNewProgressWithoutOutputIsSilent(t *testing.T) {
	p := NewProgress(nil, nil)
	if _, ok := p.(nopProgress); !ok {
		t.Fatalf("expected no-op progress, got %T", p)
	}
	p.Start(2)
	p.Advance("a.wav", StateDone)
	p.Finish()

	if _, ok := NewProgress(nil, slog.New(slog.DiscardHandler)).(*logProgress); !ok {
		t.Fatal("expected log progress when only a logger is given")
	}
}

func TestStatsCount(t *testing.T) {
	var s Stats
	for _, st := range []State{StateDone, StateFailed, StateSkipped, StateDone, StateAligned} {
		s.count(st)
	}
	if s.Success != 2 || s.Failed != 1 || s.Skipped != 1 || s.Processed() != 4 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}
