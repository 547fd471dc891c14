package highlights

import (
	"sort"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

// Fit selects the final reel under the target duration. Segments are taken
// greedily best-score-first; a segment too long for the remaining room can
// still contribute a trimmed prefix when the room is worth filling and the
// segment is strong enough. The returned slice is strictly non-overlapping
// and chronological.
func Fit(segs []types.ScoredSegment, target time.Duration, mode Mode) []types.ScoredSegment {
	if len(segs) == 0 || target <= 0 {
		return nil
	}
	byScore := append([]types.ScoredSegment(nil), segs...)
	sort.SliceStable(byScore, func(i, j int) bool { return byScore[i].Score > byScore[j].Score })

	minRemaining := 2 * time.Second
	if mode == ModeAction {
		minRemaining = 1500 * time.Millisecond
	}

	var picked []types.ScoredSegment
	var total time.Duration
	for _, s := range byScore {
		remaining := target - total
		if remaining <= 0 {
			break
		}
		d := s.Dur()
		switch {
		case d <= remaining:
			// whole segment fits
		case remaining >= minRemaining && s.Score > 0.7:
			s.End = s.Start + remaining
			d = remaining
		default:
			continue
		}
		if overlapsAny(s.TimeWindow, picked) {
			continue
		}
		picked = append(picked, s)
		total += d
	}

	sort.Slice(picked, func(i, j int) bool { return picked[i].Start < picked[j].Start })
	return picked
}

func overlapsAny(w types.TimeWindow, segs []types.ScoredSegment) bool {
	for _, s := range segs {
		if w.Overlaps(s.TimeWindow) {
			return true
		}
	}
	return false
}
