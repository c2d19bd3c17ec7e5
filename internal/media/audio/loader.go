package audio

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-audio/wav"

	"whisperbatch/internal/fileutil"
	"whisperbatch/internal/services"
)

const (
	// TargetSampleRate is the rate every model expects.
	TargetSampleRate = 16000
	targetBitDepth   = 16
	targetChannels   = 1
)

// Clip is a normalized WAV copy of an input file.
type Clip struct {
	Source     string
	Path       string
	Duration   time.Duration
	SampleRate int
}

// Release removes the scratch WAV. Safe to call more than once.
func (c *Clip) Release() error {
	if c == nil || c.Path == "" {
		return nil
	}
	if err := os.Remove(c.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove scratch audio: %w", err)
	}
	return nil
}

// Loader normalizes audio into WorkDir using the FFmpeg binary.
type Loader struct {
	FFmpeg  string
	WorkDir string
}

// Load produces a Clip for path. Conversion failures wrap
// services.ErrExternalTool; undecodable output wraps services.ErrValidation.
func (l Loader) Load(ctx context.Context, path string) (*Clip, error) {
	if err := os.MkdirAll(l.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create audio work dir: %w", err)
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	tmp, err := os.CreateTemp(l.WorkDir, stem+"-*.wav")
	if err != nil {
		return nil, fmt.Errorf("create scratch audio: %w", err)
	}
	dst := tmp.Name()
	_ = tmp.Close()

	clip := &Clip{Source: path, Path: dst}
	if isTargetWAV(path) {
		if err := fileutil.CopyFile(path, dst); err != nil {
			_ = clip.Release()
			return nil, fmt.Errorf("copy audio: %w", err)
		}
	} else if err := l.convert(ctx, path, dst); err != nil {
		_ = clip.Release()
		return nil, err
	}

	duration, rate, err := probeWAV(dst)
	if err != nil {
		_ = clip.Release()
		return nil, services.Wrap(services.ErrValidation, "audio", "decode", filepath.Base(path), err)
	}
	clip.Duration = duration
	clip.SampleRate = rate
	return clip, nil
}

func (l Loader) convert(ctx context.Context, src, dst string) error {
	binary := strings.TrimSpace(l.FFmpeg)
	if binary == "" {
		binary = "ffmpeg"
	}
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-ac", fmt.Sprint(targetChannels),
		"-ar", fmt.Sprint(TargetSampleRate),
		"-c:a", "pcm_s16le",
		dst,
	}
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return services.Wrap(services.ErrExternalTool, "audio", "ffmpeg", strings.TrimSpace(string(output)), err)
	}
	return nil
}

// isTargetWAV reports whether src is already 16 kHz mono 16-bit PCM.
func isTargetWAV(src string) bool {
	if !strings.EqualFold(filepath.Ext(src), ".wav") {
		return false
	}
	f, err := os.Open(src)
	if err != nil {
		return false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return false
	}
	return dec.BitDepth == targetBitDepth && dec.NumChans == targetChannels && dec.SampleRate == TargetSampleRate && dec.WavAudioFormat == 1
}

func probeWAV(path string) (time.Duration, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return 0, 0, errors.New("not a valid WAV file")
	}
	duration, err := dec.Duration()
	if err != nil {
		return 0, 0, err
	}
	return duration, int(dec.SampleRate), nil
}
