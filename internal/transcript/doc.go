// Package transcript defines the transcription result that flows from the
// speech model through alignment and diarization to the exporters.
//
// A Result is enriched in place of being mutated: alignment and speaker
// assignment return new values whose Stage records how far the result has
// progressed. Optional timing and confidence fields are pointers so that an
// absent value is distinguishable from zero and is omitted on export.
package transcript
