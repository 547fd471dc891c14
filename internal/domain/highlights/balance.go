package highlights

import (
	"sort"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

const (
	perThirdKeep = 2
	balancedCap  = 10
)

// Balance spreads the kept segments across the video timeline instead of
// letting one busy stretch monopolize the reel. The video is split into
// thirds, the best segments of each third are kept, and any leftover room
// is filled with the globally best of the remainder.
func Balance(segs []types.ScoredSegment, duration time.Duration) []types.ScoredSegment {
	if len(segs) <= perThirdKeep {
		return segs
	}
	limit := balancedCap
	if len(segs) < limit {
		limit = len(segs)
	}

	third := duration / 3
	var buckets [3][]types.ScoredSegment
	for _, s := range segs {
		idx := 0
		if third > 0 {
			idx = int(s.TimeWindow.Mid() / third)
		}
		if idx > 2 {
			idx = 2
		}
		buckets[idx] = append(buckets[idx], s)
	}

	picked := make(map[types.TimeWindow]bool)
	var out []types.ScoredSegment
	for _, b := range buckets {
		sort.SliceStable(b, func(i, j int) bool { return b[i].Score > b[j].Score })
		for i := 0; i < len(b) && i < perThirdKeep; i++ {
			out = append(out, b[i])
			picked[b[i].TimeWindow] = true
		}
	}

	if len(out) < limit {
		rest := make([]types.ScoredSegment, 0, len(segs))
		for _, s := range segs {
			if !picked[s.TimeWindow] {
				rest = append(rest, s)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].Score > rest[j].Score })
		for _, s := range rest {
			if len(out) >= limit {
				break
			}
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}
