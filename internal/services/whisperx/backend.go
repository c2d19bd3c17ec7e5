package whisperx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"whisperbatch/internal/logging"
	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/models"
	"whisperbatch/internal/services"
	"whisperbatch/internal/transcript"
)

// Name identifies the backend in configuration and logs.
const Name = "whisperx"

var errClosed = errors.New("whisperx backend closed")

// Backend launches the worker on first use and hands out model handles.
type Backend struct {
	opts Options

	mu     sync.Mutex
	client *client
	worker *worker
	closed bool
}

var _ models.Backend = (*Backend)(nil)

// New returns a backend; no process is started until a model is loaded.
func New(opts Options) *Backend {
	return &Backend{opts: opts.withDefaults()}
}

func (b *Backend) Name() string { return Name }

// connect returns a client for a healthy worker, launching one if needed.
func (b *Backend) connect(ctx context.Context) (*client, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errClosed
	}
	if b.client != nil {
		return b.client, nil
	}
	if b.opts.URL != "" {
		c := newClient(b.opts.URL, b.opts.HTTPClient)
		if err := c.health(ctx); err != nil {
			return nil, services.Wrap(services.ErrExternalTool, "models", "connect worker",
				fmt.Sprintf("worker at %s is not reachable", b.opts.URL), err)
		}
		b.client = c
		return c, nil
	}

	w, err := startWorker(b.opts)
	if err != nil {
		return nil, err
	}
	c := newClient(w.baseURL(), b.opts.HTTPClient)
	if err := w.waitHealthy(ctx, c, b.opts.StartupTimeout); err != nil {
		if stopErr := w.stop(context.WithoutCancel(ctx), c); stopErr != nil {
			b.opts.Logger.Debug("stop failed worker", logging.Error(stopErr))
		}
		return nil, err
	}
	b.worker, b.client = w, c
	return c, nil
}

func (b *Backend) LoadSpeech(ctx context.Context, spec models.SpeechSpec) (models.SpeechModel, error) {
	c, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.load(ctx, loadRequest{
		Kind:        "speech",
		Model:       spec.ModelSize,
		Language:    spec.Language,
		Device:      spec.Placement.Device,
		ComputeType: spec.Placement.ComputeType,
	})
	if err != nil {
		return nil, err
	}
	return &speechModel{client: c, handle: resp.Handle}, nil
}

func (b *Backend) LoadAlignment(ctx context.Context, language string, placement models.Placement) (models.AlignmentModel, models.AlignMetadata, error) {
	if language == "" {
		return nil, models.AlignMetadata{}, models.ErrLanguageRequired
	}
	c, err := b.connect(ctx)
	if err != nil {
		return nil, models.AlignMetadata{}, err
	}
	resp, err := c.load(ctx, loadRequest{
		Kind:     "align",
		Language: language,
		Device:   placement.Device,
	})
	if err != nil {
		return nil, models.AlignMetadata{}, err
	}
	meta := models.AlignMetadata{Language: resp.Metadata.Language, Model: resp.Metadata.Model}
	if meta.Language == "" {
		meta.Language = language
	}
	return &alignModel{client: c, handle: resp.Handle}, meta, nil
}

func (b *Backend) LoadDiarization(ctx context.Context, credential string, placement models.Placement) (models.DiarizationModel, error) {
	if credential == "" {
		return nil, models.ErrMissingCredential
	}
	c, err := b.connect(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := c.load(ctx, loadRequest{
		Kind:   "diarize",
		Device: placement.Device,
		Token:  credential,
	})
	if err != nil {
		return nil, err
	}
	return &diarizeModel{client: c, handle: resp.Handle}, nil
}

// Close stops a launched worker. An attached worker is left running.
func (b *Backend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	w, c := b.worker, b.client
	b.worker, b.client = nil, nil
	if w == nil {
		return nil
	}
	return w.stop(ctx, c)
}

type speechModel struct {
	client *client
	handle string
}

func (m *speechModel) Transcribe(ctx context.Context, clip *audio.Clip, opts models.TranscribeOptions) (*transcript.Result, error) {
	res, err := m.client.transcribe(ctx, transcribeRequest{
		Handle:    m.handle,
		Audio:     clip.Path,
		BatchSize: opts.BatchSize,
		Language:  opts.Language,
	})
	if err != nil {
		return nil, err
	}
	if res.Language == "" {
		res.Language = opts.Language
	}
	res.Stage = transcript.StageTranscribed
	return res, nil
}

func (m *speechModel) Unload(ctx context.Context) error {
	return m.client.unload(ctx, m.handle)
}

type alignModel struct {
	client *client
	handle string
}

func (m *alignModel) Align(ctx context.Context, clip *audio.Clip, result *transcript.Result, opts models.AlignOptions) (*transcript.Result, error) {
	resp, err := m.client.align(ctx, alignRequest{
		Handle:               m.handle,
		Audio:                clip.Path,
		Segments:             result.Segments,
		ReturnCharAlignments: opts.ReturnCharAlignments,
	})
	if err != nil {
		return nil, err
	}
	return result.WithAlignment(&transcript.Result{
		Segments:     resp.Segments,
		WordSegments: resp.WordSegments,
	}), nil
}

func (m *alignModel) Unload(ctx context.Context) error {
	return m.client.unload(ctx, m.handle)
}

type diarizeModel struct {
	client *client
	handle string
}

func (m *diarizeModel) Diarize(ctx context.Context, clip *audio.Clip, opts models.DiarizeOptions) ([]transcript.SpeakerTurn, error) {
	return m.client.diarize(ctx, diarizeRequest{
		Handle:      m.handle,
		Audio:       clip.Path,
		MinSpeakers: opts.MinSpeakers,
		MaxSpeakers: opts.MaxSpeakers,
	})
}

func (m *diarizeModel) Unload(ctx context.Context) error {
	return m.client.unload(ctx, m.handle)
}
