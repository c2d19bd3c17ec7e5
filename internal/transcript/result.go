package transcript

// Stage records how far a Result has been enriched.
type Stage string

const (
	StageTranscribed Stage = "transcribed"
	StageAligned     Stage = "aligned"
	StageDiarized    Stage = "diarized"
)

// Word is a single aligned token. Start, End and Score are absent for tokens
// the aligner could not place (numerals, symbols).
type Word struct {
	Word    string   `json:"word"`
	Start   *float64 `json:"start,omitempty"`
	End     *float64 `json:"end,omitempty"`
	Score   *float64 `json:"score,omitempty"`
	Speaker string   `json:"speaker,omitempty"`
}

// Timed reports whether the word carries both boundaries.
func (w Word) Timed() bool {
	return w.Start != nil && w.End != nil
}

// Char is a character-level alignment, present only when requested.
type Char struct {
	Char  string   `json:"char"`
	Start *float64 `json:"start,omitempty"`
	End   *float64 `json:"end,omitempty"`
	Score *float64 `json:"score,omitempty"`
}

// Segment is a contiguous span of recognized speech in seconds.
type Segment struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
	Words   []Word  `json:"words,omitempty"`
	Chars   []Char  `json:"chars,omitempty"`
	Speaker string  `json:"speaker,omitempty"`
}

// SpeakerTurn is one interval attributed to a speaker by the diarization model.
type SpeakerTurn struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Speaker string  `json:"speaker"`
}

// Result is the transcription of one audio file.
type Result struct {
	Language     string    `json:"language"`
	Segments     []Segment `json:"segments"`
	WordSegments []Word    `json:"word_segments,omitempty"`
	Stage        Stage     `json:"-"`
}

// Float returns a pointer to v, for building optional fields.
func Float(v float64) *float64 {
	return &v
}

// Clone returns a deep copy of r.
func (r *Result) Clone() *Result {
	if r == nil {
		return nil
	}
	out := &Result{
		Language:     r.Language,
		Stage:        r.Stage,
		Segments:     make([]Segment, len(r.Segments)),
		WordSegments: cloneWords(r.WordSegments),
	}
	for i, seg := range r.Segments {
		seg.Words = cloneWords(seg.Words)
		if seg.Chars != nil {
			seg.Chars = append([]Char(nil), seg.Chars...)
		}
		out.Segments[i] = seg
	}
	return out
}

func cloneWords(words []Word) []Word {
	if words == nil {
		return nil
	}
	return append([]Word(nil), words...)
}

// Sanitize clamps segments whose end precedes their start and guarantees a
// non-nil segment list. It returns the number of segments fixed.
func (r *Result) Sanitize() int {
	if r.Segments == nil {
		r.Segments = []Segment{}
	}
	if r.Stage == "" {
		r.Stage = StageTranscribed
	}
	fixed := 0
	for i := range r.Segments {
		if r.Segments[i].End < r.Segments[i].Start {
			r.Segments[i].End = r.Segments[i].Start
			fixed++
		}
	}
	return fixed
}

// WithAlignment returns aligned marked as aligned. The detected language of
// r is kept when the aligner does not report one.
func (r *Result) WithAlignment(aligned *Result) *Result {
	out := aligned.Clone()
	if out.Language == "" {
		out.Language = r.Language
	}
	out.Stage = StageAligned
	out.Sanitize()
	return out
}

// Speakers lists distinct segment and word speaker labels in order of first
// appearance.
func (r *Result) Speakers() []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(label string) {
		if label == "" {
			return
		}
		if _, ok := seen[label]; ok {
			return
		}
		seen[label] = struct{}{}
		out = append(out, label)
	}
	for _, seg := range r.Segments {
		add(seg.Speaker)
		for _, w := range seg.Words {
			add(w.Speaker)
		}
	}
	return out
}
