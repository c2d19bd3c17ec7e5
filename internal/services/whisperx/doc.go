// Package whisperx hosts WhisperX speech, alignment, and pyannote diarization
// models in a Python worker process and exposes them as a models.Backend.
//
// The worker script is embedded in the binary, written to a scratch directory
// at first use, and launched through a configurable command prefix
// (uv run --with whisperx python by default). The Go side talks to it over
// JSON on a loopback HTTP port:
//
//	GET  /health
//	POST /load        {kind, model, language, device, compute_type, token}
//	POST /transcribe  {handle, audio, batch_size, language}
//	POST /align       {handle, audio, segments, return_char_alignments}
//	POST /diarize     {handle, audio, min_speakers, max_speakers}
//	POST /unload      {handle}
//	POST /shutdown
//
// Worker output is re-logged at debug level. Failed requests surface as
// services.ErrExternalTool.
package whisperx
