// Package export writes a transcript.Result to disk as JSON, plain text, and
// SubRip subtitles.
//
// Every format is written independently and atomically; a failure in one
// format is logged and does not prevent the others.
package export
