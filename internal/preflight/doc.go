// Package preflight provides readiness checks for the filesystem paths,
// hardware, credentials and endpoints a transcription run depends on.
//
// The CLI "check" command prints every result; the run command calls
// RunAll before loading models and stops when a required check fails, so a
// long batch is not started against a missing ffmpeg or an unreachable
// worker.
//
// Each check is gated by its config toggle. Disabled features are skipped.
package preflight
