// Package pipeline drives a batch transcription run.
//
// A run takes the output-directory lock, loads the transcription model once,
// discovers the input files, and processes them one at a time:
//
//	pending -> audio-loaded -> transcribed -> [aligned] -> [diarized] -> exported -> done
//
// A file may instead end skipped (outputs already present) or failed. A
// failure, including a panic, affects only its own file. Diarization failures
// degrade the result to speaker-less output instead of failing the file.
// Models are released when the run ends however it ends, and the run returns
// context.Canceled with partial statistics when interrupted.
package pipeline
