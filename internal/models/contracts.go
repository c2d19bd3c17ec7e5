package models

import (
	"context"
	"errors"

	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/transcript"
)

var (
	// ErrNotLoaded is returned when a model is requested before it was loaded.
	ErrNotLoaded = errors.New("model not loaded")
	// ErrMissingCredential is returned when the diarization model has no access token.
	ErrMissingCredential = errors.New("diarization credential missing")
	// ErrUnsupported is returned by backends that cannot host a model kind.
	ErrUnsupported = errors.New("operation not supported by backend")
	// ErrLanguageRequired is returned when alignment is requested without a language.
	ErrLanguageRequired = errors.New("alignment requires a language")
)

type TranscribeOptions struct {
	BatchSize int
	// Language is a base language code; empty asks the model to detect it.
	Language string
}

type AlignOptions struct {
	ReturnCharAlignments bool
}

// DiarizeOptions bounds the speaker count; zero means unbounded.
type DiarizeOptions struct {
	MinSpeakers int
	MaxSpeakers int
}

// AlignMetadata describes the alignment model that was loaded.
type AlignMetadata struct {
	Language string `json:"language"`
	Model    string `json:"model"`
}

// SpeechModel converts audio to a segmented transcript.
type SpeechModel interface {
	Transcribe(ctx context.Context, clip *audio.Clip, opts TranscribeOptions) (*transcript.Result, error)
	Unload(ctx context.Context) error
}

// AlignmentModel refines segment timing and produces word timestamps.
type AlignmentModel interface {
	Align(ctx context.Context, clip *audio.Clip, result *transcript.Result, opts AlignOptions) (*transcript.Result, error)
	Unload(ctx context.Context) error
}

// DiarizationModel splits audio into speaker turns.
type DiarizationModel interface {
	Diarize(ctx context.Context, clip *audio.Clip, opts DiarizeOptions) ([]transcript.SpeakerTurn, error)
	Unload(ctx context.Context) error
}

// SpeechSpec selects the speech checkpoint to load.
type SpeechSpec struct {
	ModelSize string
	Language  string
	Placement Placement
}

// Backend hosts models. Loaded models are released through their own Unload;
// Close releases whatever the backend itself holds (a worker process, an
// HTTP client).
type Backend interface {
	Name() string
	LoadSpeech(ctx context.Context, spec SpeechSpec) (SpeechModel, error)
	LoadAlignment(ctx context.Context, language string, placement Placement) (AlignmentModel, AlignMetadata, error)
	LoadDiarization(ctx context.Context, credential string, placement Placement) (DiarizationModel, error)
	Close(ctx context.Context) error
}
