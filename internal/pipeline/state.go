package pipeline

// State is the processing state of one file.
type State string

const (
	StatePending     State = "pending"
	StateAudioLoaded State = "audio-loaded"
	StateTranscribed State = "transcribed"
	StateAligned     State = "aligned"
	StateDiarized    State = "diarized"
	StateExported    State = "exported"
	StateDone        State = "done"
	StateSkipped     State = "skipped"
	StateFailed      State = "failed"
)

// Stats are the outcome counts of a run. Total is the number of files
// discovered; on interrupt Success+Failed+Skipped may be lower.
type Stats struct {
	Total   int
	Success int
	Failed  int
	Skipped int
}

func (s *Stats) count(state State) {
	switch state {
	case StateDone:
		s.Success++
	case StateSkipped:
		s.Skipped++
	case StateFailed:
		s.Failed++
	}
}

// Processed is the number of files that reached a terminal state.
func (s Stats) Processed() int {
	return s.Success + s.Failed + s.Skipped
}
