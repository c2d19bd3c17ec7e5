package models

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"whisperbatch/internal/language"
	"whisperbatch/internal/logging"
)

// Manager caches loaded models for one run.
type Manager struct {
	mu        sync.Mutex
	backend   Backend
	placement Placement
	logger    *slog.Logger

	speech     SpeechModel
	speechSpec SpeechSpec

	align     AlignmentModel
	alignLang string
	alignMeta AlignMetadata

	diarize DiarizationModel

	closed bool
}

// ManagerOption customizes a Manager.
type ManagerOption func(*managerOptions)

type managerOptions struct {
	detect func() ([]GPU, error)
}

// WithGPUDetector replaces hardware detection, mainly for tests.
func WithGPUDetector(detect func() ([]GPU, error)) ManagerOption {
	return func(o *managerOptions) { o.detect = detect }
}

// NewManager resolves the requested placement and returns a manager with no
// models loaded.
func NewManager(backend Backend, requested Placement, logger *slog.Logger, opts ...ManagerOption) *Manager {
	options := managerOptions{detect: DetectGPUs}
	for _, opt := range opts {
		opt(&options)
	}
	logger = logging.NewComponentLogger(logger, "models")
	placement, notes := ResolvePlacement(requested, options.detect)
	for _, note := range notes {
		if strings.HasPrefix(note, "float16") {
			logging.WarnWithContext(logger, "compute type adjusted for cpu", "compute_type_downgraded",
				logging.String("requested", requested.ComputeType),
				logging.String("compute_type", placement.ComputeType),
				logging.String(logging.FieldErrorHint, "set device.compute_type to float32 or int8 for cpu runs"),
				logging.String(logging.FieldImpact, "inference runs at full precision and is slower"),
			)
			continue
		}
		logger.Info(note, logging.String("device", placement.Device))
	}
	return &Manager{backend: backend, placement: placement, logger: logger}
}

func (m *Manager) Device() string      { return m.placement.Device }
func (m *Manager) ComputeType() string { return m.placement.ComputeType }

// LoadTranscriptionModel loads the speech model on first use and returns
// the cached instance afterwards.
func (m *Manager) LoadTranscriptionModel(ctx context.Context, modelSize, lang string) (SpeechModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("model manager closed")
	}
	if m.speech != nil {
		return m.speech, nil
	}

	spec := SpeechSpec{ModelSize: modelSize, Language: language.Normalize(lang), Placement: m.placement}
	start := time.Now()
	m.logger.Info("loading transcription model",
		logging.String("model", modelSize),
		logging.String("language", language.DisplayName(spec.Language)),
		logging.String("device", m.placement.Device),
		logging.String("compute_type", m.placement.ComputeType),
		logging.String("backend", m.backend.Name()),
	)
	model, err := m.backend.LoadSpeech(ctx, spec)
	if err != nil {
		return nil, fmt.Errorf("load transcription model %s: %w", modelSize, err)
	}
	m.speech = model
	m.speechSpec = spec
	m.logger.Info("transcription model loaded",
		logging.String("model", modelSize),
		logging.Duration("duration", time.Since(start)),
		logging.String(logging.FieldEventType, "model_loaded"),
	)
	return model, nil
}

// TranscriptionModel returns the loaded speech model or ErrNotLoaded.
func (m *Manager) TranscriptionModel() (SpeechModel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.speech == nil {
		return nil, ErrNotLoaded
	}
	return m.speech, nil
}

// LoadAlignmentModel returns the alignment model for lang, replacing a model
// cached for a different language.
func (m *Manager) LoadAlignmentModel(ctx context.Context, lang string) (AlignmentModel, AlignMetadata, error) {
	code := language.Normalize(lang)
	if code == "" {
		return nil, AlignMetadata{}, ErrLanguageRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, AlignMetadata{}, errors.New("model manager closed")
	}
	if m.align != nil && m.alignLang == code {
		return m.align, m.alignMeta, nil
	}
	if m.align != nil {
		m.logger.Debug("switching alignment model", logging.String("from", m.alignLang), logging.String("to", code))
		if err := m.align.Unload(ctx); err != nil {
			logging.WarnWithContext(m.logger, "alignment model unload failed", "model_unload_failed",
				logging.String("language", m.alignLang),
				logging.Error(err),
				logging.String(logging.FieldImpact, "accelerator memory may stay allocated until the run ends"),
			)
		}
		m.align = nil
		m.alignLang = ""
		m.alignMeta = AlignMetadata{}
	}

	model, meta, err := m.backend.LoadAlignment(ctx, code, m.placement)
	if err != nil {
		return nil, AlignMetadata{}, fmt.Errorf("load alignment model for %s: %w", code, err)
	}
	if meta.Language == "" {
		meta.Language = code
	}
	m.align = model
	m.alignLang = code
	m.alignMeta = meta
	m.logger.Info("alignment model loaded",
		logging.String("language", code),
		logging.String("model", meta.Model),
		logging.String(logging.FieldEventType, "model_loaded"),
	)
	return model, meta, nil
}

// LoadDiarizationModel loads the diarization model once. An empty credential
// fails with ErrMissingCredential.
func (m *Manager) LoadDiarizationModel(ctx context.Context, credential string) (DiarizationModel, error) {
	if strings.TrimSpace(credential) == "" {
		return nil, ErrMissingCredential
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, errors.New("model manager closed")
	}
	if m.diarize != nil {
		return m.diarize, nil
	}
	model, err := m.backend.LoadDiarization(ctx, credential, m.placement)
	if err != nil {
		return nil, fmt.Errorf("load diarization model: %w", err)
	}
	m.diarize = model
	m.logger.Info("diarization model loaded", logging.String(logging.FieldEventType, "model_loaded"))
	return model, nil
}

// Cleanup unloads every loaded model and closes the backend. Failures are
// logged and joined; later calls are no-ops.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true

	var errs []error
	unload := func(kind string, u interface{ Unload(context.Context) error }) {
		if u == nil {
			return
		}
		if err := u.Unload(ctx); err != nil {
			errs = append(errs, fmt.Errorf("unload %s model: %w", kind, err))
		}
	}
	if m.diarize != nil {
		unload("diarization", m.diarize)
	}
	if m.align != nil {
		unload("alignment", m.align)
	}
	if m.speech != nil {
		unload("transcription", m.speech)
	}
	m.diarize, m.align, m.speech = nil, nil, nil
	m.alignLang = ""

	if err := m.backend.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("close %s backend: %w", m.backend.Name(), err))
	}

	err := errors.Join(errs...)
	if err != nil {
		logging.WarnWithContext(m.logger, "model cleanup incomplete", "model_cleanup_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check for a leftover worker process"),
			logging.String(logging.FieldImpact, "accelerator memory may remain allocated"),
		)
		return err
	}
	m.logger.Debug("models released")
	return nil
}
