package highlights

import (
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

// Mode is the run classification picked from the objective. It drives window
// sizing, merge gaps, and the scoring strategy.
type Mode int

const (
	ModeGeneral Mode = iota
	ModeAction
	ModeSimilarity
)

func (m Mode) String() string {
	switch m {
	case ModeAction:
		return "action"
	case ModeSimilarity:
		return "similarity"
	default:
		return "general"
	}
}

// shortVideoThreshold separates the dense short-video window plan from the
// sparser long-video plan.
const shortVideoThreshold = 180 * time.Second

// Classify picks the run mode from the objective. An example profile always
// wins; otherwise the prompt decides action vs general.
func Classify(obj types.Objective) Mode {
	if obj.Example != nil {
		return ModeSimilarity
	}
	if isActionPrompt(obj.Prompt) {
		return ModeAction
	}
	return ModeGeneral
}

// Generate produces overlapping candidate windows across the whole timeline.
// It is deterministic: identical inputs yield identical windows.
//
// Window plans:
//   - action, or any video ≤ 180s: 2s windows (action) / 8s windows
//     (general), advancing 30% of the window per step;
//   - longer general videos: 15s windows advancing 20% per step;
//   - similarity: windows sized to the example clip, clamped to 2–8s.
//
// A trailing window always covers any remainder longer than the mode's tail
// minimum so the end of the video is never silently dropped.
func Generate(duration time.Duration, obj types.Objective) []types.TimeWindow {
	if duration <= 0 {
		return nil
	}

	mode := Classify(obj)
	window, advance, tailMin := windowPlan(duration, mode, obj)

	step := time.Duration(float64(window) * advance)
	if step <= 0 {
		step = window
	}

	var out []types.TimeWindow
	var cursor time.Duration
	for cursor+window <= duration {
		out = append(out, types.TimeWindow{Start: cursor, End: cursor + window})
		cursor += step
	}
	if cursor < duration && duration-cursor > tailMin {
		out = append(out, types.TimeWindow{Start: cursor, End: duration})
	}
	if len(out) == 0 {
		// Video shorter than one window: the whole thing is the candidate.
		out = append(out, types.TimeWindow{Start: 0, End: duration})
	}
	return out
}

func windowPlan(duration time.Duration, mode Mode, obj types.Objective) (window time.Duration, advance float64, tailMin time.Duration) {
	switch {
	case mode == ModeSimilarity:
		window = 4 * time.Second
		if obj.Example != nil {
			window = clampDur(obj.Example.Window.Dur(), 2*time.Second, 8*time.Second)
		}
		return window, 0.3, time.Second
	case mode == ModeAction:
		return 2 * time.Second, 0.3, time.Second
	case duration <= shortVideoThreshold:
		return 8 * time.Second, 0.3, time.Second
	default:
		return 15 * time.Second, 0.2, 3 * time.Second
	}
}

func clampDur(d, lo, hi time.Duration) time.Duration {
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
