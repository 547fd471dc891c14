package highlights

import (
	"sort"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

// Assembler turns scored windows into merged, context-expanded segments.
type Assembler struct {
	duration time.Duration
	mode     Mode
	padding  time.Duration
	minGap   time.Duration
}

// NewAssembler builds an assembler for one run. minGap is the smallest
// distance between two windows still treated as separate segments.
func NewAssembler(duration time.Duration, mode Mode, padding, minGap time.Duration) *Assembler {
	if minGap <= 0 {
		minGap = time.Second
	}
	return &Assembler{duration: duration, mode: mode, padding: padding, minGap: minGap}
}

// Assemble sorts the scored windows chronologically, merges near-adjacent
// ones, and resolves overlaps. Context expansion runs only when the merged
// segments fall short of target; the deficit is split evenly across the
// segments and drives how much lead-in and follow-through each one gets.
func (a *Assembler) Assemble(scored []types.ScoredSegment, target time.Duration) []types.ScoredSegment {
	if len(scored) == 0 {
		return nil
	}
	segs := append([]types.ScoredSegment(nil), scored...)
	sort.Slice(segs, func(i, j int) bool { return segs[i].Start < segs[j].Start })

	merged := a.merge(segs)

	var raw time.Duration
	for _, s := range merged {
		raw += s.Dur()
	}
	if deficit := target - raw; deficit > 0 && a.padding > 0 {
		per := deficit / time.Duration(len(merged))
		if per > a.padding {
			per = a.padding
		}
		for i := range merged {
			merged[i] = a.expand(merged[i], per)
		}
	}
	return a.resolveOverlaps(merged)
}

// mergeGap is the maximum silence between two windows that still reads as
// one continuous moment. Similarity mode uses a fixed gap since example
// windows are uniform in size; otherwise the gap tracks the window length.
func (a *Assembler) mergeGap(w types.TimeWindow) time.Duration {
	if a.mode == ModeSimilarity {
		return 3 * time.Second
	}
	gap := w.Dur() / 2
	if gap > 3*time.Second {
		gap = 3 * time.Second
	}
	if gap < a.minGap {
		gap = a.minGap
	}
	return gap
}

func (a *Assembler) merge(segs []types.ScoredSegment) []types.ScoredSegment {
	out := make([]types.ScoredSegment, 0, len(segs))
	cur := segs[0]
	count := 1
	for _, s := range segs[1:] {
		if s.Start-cur.End <= a.mergeGap(cur.TimeWindow) {
			if s.End > cur.End {
				cur.End = s.End
			}
			cur.Score = (cur.Score*float64(count) + s.Score) / float64(count+1)
			count++
			continue
		}
		out = append(out, cur)
		cur = s
		count = 1
	}
	return append(out, cur)
}

// expand grows a segment with lead-in and follow-through, spending per of
// the duration deficit on it. Shorter clips get proportionally more context
// because an isolated two second moment is unwatchable without its setup.
func (a *Assembler) expand(seg types.ScoredSegment, per time.Duration) types.ScoredSegment {
	if per <= 0 {
		return seg
	}
	var pre, post time.Duration
	switch d := seg.Dur(); {
	case d <= 2*time.Second:
		pre = minDur(1500*time.Millisecond, scaleDur(per, 0.6))
		post = minDur(time.Second, scaleDur(per, 0.4))
	case d <= 4*time.Second:
		pre = minDur(time.Second, scaleDur(per, 0.5))
		post = minDur(800*time.Millisecond, scaleDur(per, 0.5))
	default:
		pre = minDur(500*time.Millisecond, scaleDur(per, 0.3))
		post = pre
	}

	start := seg.Start - pre
	if start < 0 {
		start = 0
	}
	end := seg.End + post
	if end > a.duration {
		end = a.duration
	}
	gotPre := seg.Start - start
	gotPost := end - seg.End
	if gotPre+gotPost <= 0 {
		return seg
	}

	seg.Start, seg.End = start, end
	seg.Label = types.LabelContextExpanded
	bonus := float64(gotPre+gotPost) / float64(5*time.Second)
	if bonus > 0.1 {
		bonus = 0.1
	}
	seg.Score = clamp01(seg.Score + bonus)
	return seg
}

// resolveOverlaps walks the expanded segments in order. An overlap with the
// previous keeper is tolerated when the newcomer scores at least 0.8, on the
// theory that two strong moments deserve both their context even if the
// cuts touch. Weaker overlapping segments are dropped.
func (a *Assembler) resolveOverlaps(segs []types.ScoredSegment) []types.ScoredSegment {
	if len(segs) <= 1 {
		return segs
	}
	out := segs[:1]
	for _, s := range segs[1:] {
		prev := out[len(out)-1]
		if !s.TimeWindow.Overlaps(prev.TimeWindow) || s.Score >= 0.8 {
			out = append(out, s)
			continue
		}
		if s.Score > prev.Score {
			out[len(out)-1] = s
		}
	}
	return out
}

func minDur(a, b time.Duration) time.Duration {
	if a < b {
		return a
	}
	return b
}

func scaleDur(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}
