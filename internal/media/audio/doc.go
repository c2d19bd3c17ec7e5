// Package audio prepares input files for the speech models.
//
// Every model in the pipeline consumes 16 kHz mono 16-bit PCM. Load converts
// an input into that shape inside a scratch directory with ffmpeg, or copies
// it unchanged when it already matches, and reports the decoded duration.
// The caller owns the returned Clip and must Release it.
package audio
