package openaiasr

import (
	"context"

	"whisperbatch/internal/media/audio"
	"whisperbatch/internal/models"
	"whisperbatch/internal/transcript"
)

// wordAligner places the word timings returned by the endpoint into the
// segment whose span contains the word midpoint.
type wordAligner struct{}

func (wordAligner) Align(_ context.Context, _ *audio.Clip, result *transcript.Result, _ models.AlignOptions) (*transcript.Result, error) {
	out := result.Clone()
	for i := range out.Segments {
		out.Segments[i].Words = nil
	}
	seg := 0
	for _, w := range out.WordSegments {
		if !w.Timed() || len(out.Segments) == 0 {
			continue
		}
		mid := (*w.Start + *w.End) / 2
		for seg < len(out.Segments)-1 && mid >= out.Segments[seg].End {
			seg++
		}
		out.Segments[seg].Words = append(out.Segments[seg].Words, w)
	}
	return result.WithAlignment(out), nil
}

func (wordAligner) Unload(context.Context) error { return nil }
