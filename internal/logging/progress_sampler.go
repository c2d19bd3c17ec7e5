package logging

// ProgressSampler thins "n of total" progress records for non-interactive
// output. It reports the first and last item and otherwise once per step
// percent of the total.
type ProgressSampler struct {
	step     int
	lastStep int
}

// NewProgressSampler returns a sampler with the given step in percent.
// Values outside 1..100 fall back to 10.
func NewProgressSampler(stepPercent int) *ProgressSampler {
	if stepPercent < 1 || stepPercent > 100 {
		stepPercent = 10
	}
	return &ProgressSampler{step: stepPercent, lastStep: -1}
}

// ShouldLog reports whether progress at done of total is worth a record.
// A nil sampler logs everything.
func (s *ProgressSampler) ShouldLog(done, total int) bool {
	if s == nil {
		return true
	}
	if total <= 0 || done <= 0 {
		return false
	}
	if done >= total {
		s.lastStep = 100 / s.step
		return true
	}
	current := done * 100 / total / s.step
	if s.lastStep < 0 || current > s.lastStep {
		s.lastStep = current
		return true
	}
	return false
}

// Reset forgets earlier calls so the next item is reported again.
func (s *ProgressSampler) Reset() {
	if s != nil {
		s.lastStep = -1
	}
}
