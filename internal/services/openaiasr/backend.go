package openaiasr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"whisperbatch/internal/language"
	"whisperbatch/internal/logging"
	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/models"
	"whisperbatch/internal/services"
	"whisperbatch/internal/transcript"
)

// Name identifies the backend in configuration and logs.
const Name = "openai"

// Options configures the endpoint. An empty BaseURL targets the public API,
// which requires APIKey.
type Options struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

type Backend struct {
	client *openai.Client
	public bool
	hasKey bool
	logger *slog.Logger
}

var _ models.Backend = (*Backend)(nil)

func New(opts Options) *Backend {
	cfg := openai.DefaultConfig(opts.APIKey)
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base != "" {
		cfg.BaseURL = base
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Backend{
		client: openai.NewClientWithConfig(cfg),
		public: base == "",
		hasKey: opts.APIKey != "",
		logger: logger,
	}
}

func (b *Backend) Name() string { return Name }

// LoadSpeech checks credentials only; the endpoint holds the model. The
// public API serves a single whisper model, so local model sizes map to it.
func (b *Backend) LoadSpeech(_ context.Context, spec models.SpeechSpec) (models.SpeechModel, error) {
	if b.public && !b.hasKey {
		return nil, services.Wrap(services.ErrConfiguration, "models", "load speech",
			"OPENAI_API_KEY or worker.api_key is required for the public API", nil)
	}
	model := strings.TrimSpace(spec.ModelSize)
	if b.public && !strings.HasPrefix(model, "whisper-") {
		b.logger.Info("public API serves whisper-1 only",
			logging.String("requested_model", model),
			logging.String("model", openai.Whisper1),
		)
		model = openai.Whisper1
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &speechModel{client: b.client, model: model}, nil
}

func (b *Backend) LoadAlignment(_ context.Context, lang string, _ models.Placement) (models.AlignmentModel, models.AlignMetadata, error) {
	return wordAligner{}, models.AlignMetadata{Language: lang, Model: "transcription word timestamps"}, nil
}

func (b *Backend) LoadDiarization(context.Context, string, models.Placement) (models.DiarizationModel, error) {
	return nil, fmt.Errorf("%s backend diarization: %w", Name, models.ErrUnsupported)
}

func (b *Backend) Close(context.Context) error {
	return nil
}

type speechModel struct {
	client *openai.Client
	model  string
}

func (m *speechModel) Transcribe(ctx context.Context, clip *audio.Clip, opts models.TranscribeOptions) (*transcript.Result, error) {
	resp, err := m.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    m.model,
		FilePath: clip.Path,
		Language: opts.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularityWord,
			openai.TranscriptionTimestampGranularitySegment,
		},
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, services.Wrap(services.ErrExternalTool, "models", "transcribe", describe(err), err)
	}
	return convert(resp, opts.Language), nil
}

func (m *speechModel) Unload(context.Context) error { return nil }

// convert maps a verbose_json response. Language arrives as an English
// name ("portuguese") and is reduced to its base code.
func convert(resp openai.AudioResponse, requested string) *transcript.Result {
	res := &transcript.Result{Language: requested, Stage: transcript.StageTranscribed}
	if code, err := language.Canonicalize(resp.Language); err == nil && code != "" {
		res.Language = code
	}
	res.Segments = make([]transcript.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		res.Segments = append(res.Segments, transcript.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	if len(res.Segments) == 0 && strings.TrimSpace(resp.Text) != "" {
		res.Segments = append(res.Segments, transcript.Segment{Start: 0, End: resp.Duration, Text: resp.Text})
	}
	for _, w := range resp.Words {
		res.WordSegments = append(res.WordSegments, transcript.Word{
			Word:  w.Word,
			Start: transcript.Float(w.Start),
			End:   transcript.Float(w.End),
		})
	}
	res.Sanitize()
	return res
}

func describe(err error) string {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("endpoint returned status %d", apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Sprintf("endpoint returned status %d", reqErr.HTTPStatusCode)
	}
	return "transcription request failed"
}
