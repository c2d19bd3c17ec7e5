package testsupport

import (
	"context"
	"errors"
	"sync"

	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/models"
	"whisperbatch/internal/transcript"
)

// FakeBackend is an in-memory models.Backend that records calls.
type FakeBackend struct {
	mu sync.Mutex

	// TranscribeFunc overrides the canned transcription for a clip.
	TranscribeFunc func(clip *audio.Clip, opts models.TranscribeOptions) (*transcript.Result, error)
	AlignErr       error
	DiarizeErr     error
	LoadSpeechErr  error
	LoadAlignErr   error
	LoadDiarizeErr error
	Turns          []transcript.SpeakerTurn

	SpeechLoads     int
	AlignLoads      []string
	DiarizeLoads    int
	Transcriptions  []string
	Unloads         []string
	Closed          int
	LastPlacement   models.Placement
	LastTranscribe  models.TranscribeOptions
	LastDiarizeOpts models.DiarizeOptions
}

func (b *FakeBackend) Name() string { return "fake" }

func (b *FakeBackend) LoadSpeech(_ context.Context, spec models.SpeechSpec) (models.SpeechModel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.LoadSpeechErr != nil {
		return nil, b.LoadSpeechErr
	}
	b.SpeechLoads++
	b.LastPlacement = spec.Placement
	return &fakeSpeech{backend: b}, nil
}

func (b *FakeBackend) LoadAlignment(_ context.Context, lang string, _ models.Placement) (models.AlignmentModel, models.AlignMetadata, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.LoadAlignErr != nil {
		return nil, models.AlignMetadata{}, b.LoadAlignErr
	}
	b.AlignLoads = append(b.AlignLoads, lang)
	return &fakeAlign{backend: b, lang: lang}, models.AlignMetadata{Language: lang, Model: "fake-align-" + lang}, nil
}

func (b *FakeBackend) LoadDiarization(_ context.Context, _ string, _ models.Placement) (models.DiarizationModel, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.LoadDiarizeErr != nil {
		return nil, b.LoadDiarizeErr
	}
	b.DiarizeLoads++
	return &fakeDiarize{backend: b}, nil
}

func (b *FakeBackend) Close(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed++
	return nil
}

func (b *FakeBackend) unloaded(kind string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Unloads = append(b.Unloads, kind)
}

type fakeSpeech struct{ backend *FakeBackend }

func (m *fakeSpeech) Transcribe(_ context.Context, clip *audio.Clip, opts models.TranscribeOptions) (*transcript.Result, error) {
	b := m.backend
	b.mu.Lock()
	b.Transcriptions = append(b.Transcriptions, clip.Source)
	b.LastTranscribe = opts
	fn := b.TranscribeFunc
	b.mu.Unlock()
	if fn != nil {
		return fn(clip, opts)
	}
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}
	return &transcript.Result{
		Language: lang,
		Segments: []transcript.Segment{
			{Start: 0, End: 1.5, Text: " hello there "},
			{Start: 1.5, End: 3, Text: "general kenobi"},
		},
	}, nil
}

func (m *fakeSpeech) Unload(context.Context) error {
	m.backend.unloaded("speech")
	return nil
}

type fakeAlign struct {
	backend *FakeBackend
	lang    string
}

func (m *fakeAlign) Align(_ context.Context, _ *audio.Clip, result *transcript.Result, _ models.AlignOptions) (*transcript.Result, error) {
	if m.backend.AlignErr != nil {
		return nil, m.backend.AlignErr
	}
	out := result.Clone()
	for i := range out.Segments {
		seg := &out.Segments[i]
		seg.Words = []transcript.Word{{
			Word:  seg.Text,
			Start: transcript.Float(seg.Start),
			End:   transcript.Float(seg.End),
			Score: transcript.Float(0.9),
		}}
	}
	return result.WithAlignment(out), nil
}

func (m *fakeAlign) Unload(context.Context) error {
	m.backend.unloaded("align-" + m.lang)
	return nil
}

type fakeDiarize struct{ backend *FakeBackend }

func (m *fakeDiarize) Diarize(_ context.Context, _ *audio.Clip, opts models.DiarizeOptions) ([]transcript.SpeakerTurn, error) {
	b := m.backend
	b.mu.Lock()
	b.LastDiarizeOpts = opts
	b.mu.Unlock()
	if b.DiarizeErr != nil {
		return nil, b.DiarizeErr
	}
	if b.Turns != nil {
		return b.Turns, nil
	}
	return []transcript.SpeakerTurn{
		{Start: 0, End: 1.5, Speaker: "SPEAKER_00"},
		{Start: 1.5, End: 3, Speaker: "SPEAKER_01"},
	}, nil
}

func (m *fakeDiarize) Unload(context.Context) error {
	m.backend.unloaded("diarize")
	return nil
}

// ErrFake is a generic failure for tests that need one.
var ErrFake = errors.New("fake failure")
