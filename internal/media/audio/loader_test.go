package audio_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/services"
	"whisperbatch/internal/testsupport"
)

func TestLoadCopiesTargetWAV(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "talk.wav")
	testsupport.WriteWAV(t, src, audio.TargetSampleRate, 1, 1.5)

	loader := audio.Loader{FFmpeg: "ffmpeg-not-needed", WorkDir: filepath.Join(dir, "work")}
	clip, err := loader.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if clip.Source != src || clip.Path == src {
		t.Fatalf("unexpected clip paths %+v", clip)
	}
	if clip.SampleRate != audio.TargetSampleRate {
		t.Fatalf("unexpected sample rate %d", clip.SampleRate)
	}
	if clip.Duration < 1400*time.Millisecond || clip.Duration > 1600*time.Millisecond {
		t.Fatalf("unexpected duration %v", clip.Duration)
	}

	if err := clip.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := os.Stat(clip.Path); !os.IsNotExist(err) {
		t.Fatalf("expected scratch file removed, stat err=%v", err)
	}
	if err := clip.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("source must survive: %v", err)
	}
}

func TestLoadConversionFailureIsExternalTool(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "stereo.wav")
	testsupport.WriteWAV(t, src, 44100, 2, 0.2)

	loader := audio.Loader{FFmpeg: filepath.Join(dir, "no-such-ffmpeg"), WorkDir: filepath.Join(dir, "work")}
	_, err := loader.Load(context.Background(), src)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool, got %v", err)
	}

	entries, readErr := os.ReadDir(filepath.Join(dir, "work"))
	if readErr != nil {
		t.Fatal(readErr)
	}
	if len(entries) != 0 {
		t.Fatalf("expected scratch dir to be empty, found %d entries", len(entries))
	}
}
