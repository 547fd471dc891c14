package highlights

import (
	"hash/fnv"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

// FallbackSegments produces a watchable reel when scoring yielded nothing
// usable. Prompt runs get evenly spaced sample windows; example runs get
// windows clustered around the example's relative position in the video.
// The result is never empty for a positive-length video.
func FallbackSegments(duration, target time.Duration, obj types.Objective) []types.ScoredSegment {
	if duration <= 0 || target <= 0 {
		return nil
	}
	var wins []types.TimeWindow
	if obj.Example != nil {
		wins = exampleRelativeWindows(duration, target, obj.Example)
	} else {
		wins = evenlySpacedWindows(duration, target)
	}
	if len(wins) == 0 {
		end := target
		if end > duration {
			end = duration
		}
		wins = []types.TimeWindow{{Start: 0, End: end}}
	}

	out := make([]types.ScoredSegment, 0, len(wins))
	for _, w := range wins {
		out = append(out, types.ScoredSegment{
			TimeWindow: w,
			Score:      0.5,
			Label:      types.LabelFallback,
		})
	}
	return out
}

// evenlySpacedWindows drops three to five ~8s windows at regular intervals,
// skipping the extreme head and tail of the video.
func evenlySpacedWindows(duration, target time.Duration) []types.TimeWindow {
	n := int(target / (8 * time.Second))
	if n < 3 {
		n = 3
	}
	if n > 5 {
		n = 5
	}
	size := 8 * time.Second
	if per := target / time.Duration(n); per < size {
		size = per
	}
	if size > duration {
		size = duration
	}
	if size <= 0 {
		return nil
	}

	step := duration / time.Duration(n+1)
	var out []types.TimeWindow
	var total time.Duration
	for i := 1; i <= n; i++ {
		center := step * time.Duration(i)
		w := clampWindow(center-size/2, size, duration)
		if len(out) > 0 && w.Start < out[len(out)-1].End {
			continue
		}
		if total+w.Dur() > target {
			break
		}
		out = append(out, w)
		total += w.Dur()
	}
	return out
}

// exampleRelativeWindows places windows around the example's position in
// the timeline. The jitter is a hash of the example bounds, so repeated runs
// on the same input produce the same reel.
func exampleRelativeWindows(duration, target time.Duration, ex *types.ExampleProfile) []types.TimeWindow {
	const n = 3
	size := target / n
	if limit := scaleDur(ex.Window.Dur(), 1.5); limit > 0 && size > limit {
		size = limit
	}
	if size > duration {
		size = duration
	}
	if size <= 0 {
		return nil
	}

	anchor := ex.Window.Mid()
	spread := duration / 6
	jitter := deterministicJitter(ex.Window, spread/2)

	var out []types.TimeWindow
	var total time.Duration
	for i := 0; i < n; i++ {
		center := anchor + time.Duration(i-1)*spread + jitter
		w := clampWindow(center-size/2, size, duration)
		if len(out) > 0 && w.Start < out[len(out)-1].End {
			continue
		}
		if total+w.Dur() > target {
			break
		}
		out = append(out, w)
		total += w.Dur()
	}
	return out
}

func deterministicJitter(w types.TimeWindow, max time.Duration) time.Duration {
	if max <= 0 {
		return 0
	}
	h := fnv.New64a()
	var buf [16]byte
	putInt64(buf[:8], int64(w.Start))
	putInt64(buf[8:], int64(w.End))
	h.Write(buf[:])
	return time.Duration(int64(h.Sum64()%uint64(2*max))) - max
}

func putInt64(b []byte, v int64) {
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

func clampWindow(start, size, duration time.Duration) types.TimeWindow {
	if start < 0 {
		start = 0
	}
	if start+size > duration {
		start = duration - size
		if start < 0 {
			start = 0
			size = duration
		}
	}
	return types.TimeWindow{Start: start, End: start + size}
}
