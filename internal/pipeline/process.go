package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"whisperbatch/internal/files"
	"whisperbatch/internal/history"
	"whisperbatch/internal/logging"
	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/models"
	"whisperbatch/internal/services"
	"whisperbatch/internal/transcript"
)

var errNoOutputs = errors.New("no output file was written")

// fileRun holds what every file of a run shares.
type fileRun struct {
	pipeline *Pipeline
	manager  *models.Manager
	loader   AudioLoader
	handler  *files.Handler
	formats  []string
	runID    string
}

type fileResult struct {
	state    State
	canceled bool
	language string
	segments int
	speakers int
	outputs  []string
	err      error
	duration time.Duration
}

// process runs one file through the state machine. It never panics and
// reports cancellation separately so the file is not counted.
func (r *fileRun) process(ctx context.Context, input files.AudioFile) (res fileResult) {
	ctx = services.WithFile(ctx, input.Name())
	logger := logging.WithContext(ctx, r.pipeline.logger)
	start := time.Now()
	state := StatePending

	defer func() {
		if rec := recover(); rec != nil {
			res = fileResult{state: StateFailed, err: fmt.Errorf("panic in %s: %v", state, rec)}
			logger.Debug("panic stack", logging.String("stack", string(debug.Stack())))
		}
		res.duration = time.Since(start)
		if res.state == StateFailed && !res.canceled {
			r.logFailure(logger, state, res.err)
		}
	}()

	advance := func(next State) {
		logger.Debug("file state", logging.String("from", string(state)), logging.String("to", string(next)))
		state = next
	}
	fail := func(err error) fileResult {
		if ctx.Err() != nil {
			return fileResult{canceled: true, err: ctx.Err()}
		}
		return fileResult{state: StateFailed, err: err}
	}

	cfg := r.pipeline.cfg
	if cfg.SkipExisting() && r.handler.OutputExists(input.Path, r.formats) {
		advance(StateSkipped)
		logger.Info("outputs already exist, skipping",
			logging.String(logging.FieldEventType, "file_skipped"),
			logging.String("name", input.Name()),
		)
		return fileResult{state: StateSkipped}
	}

	clip, err := r.loader.Load(ctx, input.Path)
	if err != nil {
		return fail(fmt.Errorf("load audio: %w", err))
	}
	defer func() {
		if err := clip.Release(); err != nil {
			logger.Debug("scratch audio not removed", logging.Error(err))
		}
	}()
	advance(StateAudioLoaded)
	logger.Debug("audio loaded",
		logging.Duration("audio_duration", clip.Duration),
		logging.Int("sample_rate", clip.SampleRate),
	)

	speech, err := r.manager.TranscriptionModel()
	if err != nil {
		return fail(err)
	}
	result, err := speech.Transcribe(ctx, clip, models.TranscribeOptions{
		BatchSize: cfg.BatchSize(),
		Language:  cfg.Language(),
	})
	if err != nil {
		return fail(fmt.Errorf("transcribe: %w", err))
	}
	if result == nil {
		return fail(services.Wrap(services.ErrExternalTool, "transcribed", "transcribe", "model returned no result", nil))
	}
	if fixed := result.Sanitize(); fixed > 0 {
		logger.Debug("clamped inverted segments", logging.Int("segments", fixed))
	}
	advance(StateTranscribed)
	logger.Info("transcription complete",
		logging.String("language", result.Language),
		logging.Int("segments", len(result.Segments)),
	)

	if cfg.AlignmentEnabled() {
		result, err = r.align(ctx, clip, result)
		if err != nil {
			return fail(fmt.Errorf("align: %w", err))
		}
		advance(StateAligned)
	}

	if cfg.DiarizationEnabled() {
		if diarized, ok := r.diarize(ctx, logger, clip, result); ok {
			result = diarized
			advance(StateDiarized)
		} else if ctx.Err() != nil {
			return fail(ctx.Err())
		}
	}

	outputs := r.pipeline.exporter.Export(result, r.handler.OutputBase(input.Path), r.formats)
	if len(r.formats) > 0 && len(outputs) == 0 {
		return fail(services.Wrap(services.ErrValidation, string(state), "export", errNoOutputs.Error(), errNoOutputs))
	}
	advance(StateExported)
	advance(StateDone)

	logger.Info("file complete",
		logging.String(logging.FieldEventType, "file_done"),
		logging.String("name", input.Name()),
		logging.Int("outputs", len(outputs)),
		logging.Duration("duration", time.Since(start).Round(time.Millisecond)),
	)
	return fileResult{
		state:    StateDone,
		language: result.Language,
		segments: len(result.Segments),
		speakers: len(result.Speakers()),
		outputs:  outputs,
	}
}

// align loads the model for the detected language, falling back to the
// configured one.
func (r *fileRun) align(ctx context.Context, clip *audio.Clip, result *transcript.Result) (*transcript.Result, error) {
	lang := result.Language
	if lang == "" {
		lang = r.pipeline.cfg.Language()
	}
	aligner, _, err := r.manager.LoadAlignmentModel(ctx, lang)
	if err != nil {
		return nil, err
	}
	aligned, err := aligner.Align(ctx, clip, result, models.AlignOptions{
		ReturnCharAlignments: r.pipeline.cfg.ReturnCharAlignments(),
	})
	if err != nil {
		return nil, err
	}
	if aligned.Language == "" {
		aligned.Language = lang
	}
	return aligned, nil
}

// diarize attaches speakers. Every failure is logged and reported as !ok so
// the caller keeps the speaker-less result.
func (r *fileRun) diarize(ctx context.Context, logger *slog.Logger, clip *audio.Clip, result *transcript.Result) (out *transcript.Result, ok bool) {
	degrade := func(msg, hint string, err error) {
		if ctx.Err() != nil {
			return
		}
		logging.WarnWithContext(logger, msg, "diarization_degraded",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hint),
			logging.String(logging.FieldImpact, "transcript exported without speaker labels"),
		)
	}
	defer func() {
		if rec := recover(); rec != nil {
			degrade("speaker assignment failed", "check diarization model output", fmt.Errorf("panic: %v", rec))
			out, ok = nil, false
		}
	}()

	cfg := r.pipeline.cfg
	model, err := r.manager.LoadDiarizationModel(ctx, cfg.HFToken())
	if err != nil {
		hint := "check the diarization backend"
		if errors.Is(err, models.ErrMissingCredential) {
			hint = "set HF_TOKEN to a Hugging Face token with access to the pyannote models"
		} else if errors.Is(err, models.ErrUnsupported) {
			hint = "use the whisperx backend or disable diarization"
		}
		degrade("diarization model unavailable", hint, err)
		return nil, false
	}
	turns, err := model.Diarize(ctx, clip, models.DiarizeOptions{
		MinSpeakers: cfg.MinSpeakers(),
		MaxSpeakers: cfg.MaxSpeakers(),
	})
	if err != nil {
		degrade("diarization failed", "check the worker log output", err)
		return nil, false
	}
	diarized := transcript.AssignSpeakers(result, turns, cfg.FillNearest())
	logger.Info("speakers assigned",
		logging.Int("turns", len(turns)),
		logging.Int("speakers", len(diarized.Speakers())),
	)
	return diarized, true
}

func (r *fileRun) logFailure(logger *slog.Logger, state State, err error) {
	logging.ErrorWithContext(logger, "file failed", "file_failed",
		logging.String(logging.FieldStage, string(state)),
		logging.String("error_kind", services.Classify(err)),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "see the error above; the run continues with the next file"),
	)
}

func (r *fileRun) record(ctx context.Context, input files.AudioFile, res fileResult) {
	rec := r.pipeline.recorder
	if rec == nil {
		return
	}
	entry := history.FileRecord{
		RunID:    r.runID,
		Path:     input.Path,
		Outcome:  string(res.state),
		Language: res.language,
		Segments: res.segments,
		Speakers: res.speakers,
		Outputs:  res.outputs,
		Duration: res.duration,
	}
	if res.err != nil {
		entry.Error = res.err.Error()
		entry.ErrorKind = services.Classify(res.err)
	}
	if err := rec.RecordFile(ctx, entry); err != nil {
		r.pipeline.logger.Debug("history record failed", logging.Error(err))
	}
}
