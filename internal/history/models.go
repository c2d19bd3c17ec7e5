package history

import "time"

// RunStatus is the terminal or current state of a run.
type RunStatus string

const (
	RunRunning     RunStatus = "running"
	RunCompleted   RunStatus = "completed"
	RunInterrupted RunStatus = "interrupted"
	RunFailed      RunStatus = "failed"
)

// Totals are the aggregate counts of a run.
type Totals struct {
	Total   int
	Success int
	Failed  int
	Skipped int
}

type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Status     RunStatus
	InputDir   string
	OutputDir  string
	Backend    string
	Model      string
	Totals
}

// FileRecord is the outcome of one audio file within a run.
type FileRecord struct {
	RunID      string
	Path       string
	Outcome    string
	Language   string
	Segments   int
	Speakers   int
	Outputs    []string
	Error      string
	ErrorKind  string
	Duration   time.Duration
	RecordedAt time.Time
}
