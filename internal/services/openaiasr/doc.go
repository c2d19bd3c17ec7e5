// Package openaiasr is a models.Backend backed by an OpenAI-compatible
// /audio/transcriptions endpoint, either the public API or a local server
// such as LocalAI.
//
// Word timings come back with the transcription, so alignment only
// distributes them into their segments. Diarization is not available and
// reports models.ErrUnsupported.
package openaiasr
