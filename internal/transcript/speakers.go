package transcript

import "math"

// AssignSpeakers labels every segment and timed word with the speaker whose
// turns overlap it the most. Ties go to the speaker that appears first in
// turns. Items that overlap no turn stay unlabeled unless fillNearest is set,
// in which case the closest turn wins. Words without timing are never
// labeled. The returned result is a copy at StageDiarized.
func AssignSpeakers(r *Result, turns []SpeakerTurn, fillNearest bool) *Result {
	out := r.Clone()
	out.Stage = StageDiarized
	if len(turns) == 0 {
		return out
	}
	for i := range out.Segments {
		seg := &out.Segments[i]
		seg.Speaker = pickSpeaker(seg.Start, seg.End, turns, fillNearest)
		assignWords(seg.Words, turns, fillNearest)
	}
	assignWords(out.WordSegments, turns, fillNearest)
	return out
}

func assignWords(words []Word, turns []SpeakerTurn, fillNearest bool) {
	for j := range words {
		if !words[j].Timed() {
			continue
		}
		words[j].Speaker = pickSpeaker(*words[j].Start, *words[j].End, turns, fillNearest)
	}
}

func pickSpeaker(start, end float64, turns []SpeakerTurn, fillNearest bool) string {
	totals := make(map[string]float64)
	order := make([]string, 0, 4)
	for _, turn := range turns {
		overlap := math.Min(end, turn.End) - math.Max(start, turn.Start)
		if overlap <= 0 {
			continue
		}
		if _, ok := totals[turn.Speaker]; !ok {
			order = append(order, turn.Speaker)
		}
		totals[turn.Speaker] += overlap
	}

	best := ""
	bestTotal := 0.0
	for _, speaker := range order {
		if totals[speaker] > bestTotal {
			best = speaker
			bestTotal = totals[speaker]
		}
	}
	if best != "" || !fillNearest {
		return best
	}

	nearest := math.Inf(1)
	for _, turn := range turns {
		gap := math.Max(turn.Start-end, start-turn.End)
		if gap < nearest {
			nearest = gap
			best = turn.Speaker
		}
	}
	return best
}
