package highlights

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/types"
)

const (
	coarseWindowSize = 15 * time.Second
	coarseStride     = 45 * time.Second
	sceneWindowSize  = 8 * time.Second
	extendedBuckets  = 10
	sceneThreshold   = 0.35
	silenceNoiseDB   = -35.0
	silenceMinSec    = 2.0
)

// SelectHighlightsExtended handles long recordings under a cost ceiling.
// Short inputs are delegated to the standard path; long ones get a coarse
// scan that narrows hours of footage to a bounded set of analysis windows
// before any oracle spend.
func (e *Engine) SelectHighlightsExtended(ctx context.Context, prompt string, target time.Duration, maxCost float64) (*types.SelectionResult, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target duration must be positive, got %v", target)
	}
	if maxCost <= 0 {
		maxCost = e.opts.ExtendedCostCeiling
	}
	maxCalls := int(maxCost / e.opts.CostPerCall)
	if maxCalls < 1 {
		maxCalls = 1
	}
	budget := NewBudget(maxCalls, e.opts.MaxConsecutiveFailures, maxCost, e.opts.CostPerCall)
	obj := types.Objective{Prompt: strings.TrimSpace(prompt)}

	duration, err := e.source.Duration(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}
	if duration <= e.opts.LongVideoThreshold {
		return e.selectWithBudget(ctx, obj, target, e.opts.ContextPadding, budget)
	}
	if duration <= target {
		whole := types.TimeWindow{Start: 0, End: duration}
		return &types.SelectionResult{
			Segments: []types.TimeWindow{whole},
			Scored:   []types.ScoredSegment{{TimeWindow: whole, Score: 1, Label: types.LabelRaw}},
			Message:  "video is already short enough",
		}, nil
	}

	mode := Classify(obj)
	e.log.Info().
		Dur("duration", duration).
		Dur("target", target).
		Float64("max_cost", maxCost).
		Int("max_calls", maxCalls).
		Msg("extended selection over long video")

	wins := e.coarseScan(ctx, duration)
	admitted := e.pickAnalysisWindows(ctx, wins, duration, budget.RemainingCalls())

	strategy := StrategyFor(obj, e.opts.Lexicon)
	scored := NewScorer(e.source, e.oracle, strategy, budget, e.log).Score(ctx, obj, admitted)
	assembled := NewAssembler(duration, mode, e.opts.ContextPadding, e.opts.MinSegmentGap).Assemble(scored, target)
	balanced := Balance(assembled, duration)
	final := Fit(balanced, target, mode)

	res := &types.SelectionResult{Scored: final, OracleCalls: budget.CallsUsed()}
	if len(final) == 0 {
		res.Scored = Fit(FallbackSegments(duration, target, obj), target, mode)
		res.FallbackUsed = true
		res.Message = "coarse scan produced no usable segments, using sampled fallback"
	}
	for _, s := range res.Scored {
		res.Segments = append(res.Segments, s.TimeWindow)
	}
	e.log.Info().
		Int("segments", len(res.Segments)).
		Int("oracle_calls", res.OracleCalls).
		Bool("fallback", res.FallbackUsed).
		Msg("extended selection complete")
	return res, nil
}

// coarseScan builds candidate windows from a sparse sweep of the timeline
// plus whatever cheap whole-file signals the probe offers. Probe failures
// only shrink the candidate pool.
func (e *Engine) coarseScan(ctx context.Context, duration time.Duration) []types.TimeWindow {
	var wins []types.TimeWindow
	for start := time.Duration(0); start < duration; start += coarseStride {
		end := start + coarseWindowSize
		if end > duration {
			end = duration
		}
		if end-start >= time.Second {
			wins = append(wins, types.TimeWindow{Start: start, End: end})
		}
	}

	if e.probe == nil {
		return wins
	}

	if cuts, err := e.probe.DetectScenes(ctx, sceneThreshold); err != nil {
		e.log.Debug().Err(err).Msg("scene detection unavailable")
	} else {
		for _, cut := range cuts {
			end := cut + sceneWindowSize
			if end > duration {
				end = duration
			}
			if end-cut >= time.Second {
				wins = append(wins, types.TimeWindow{Start: cut, End: end})
			}
		}
	}

	// The silence floor tracks the recording's own mean level so quiet
	// footage is not written off wholesale and loud footage still has its
	// lulls detected.
	noiseDB := silenceNoiseDB
	if stats, err := e.probe.AnalyzeVolume(ctx); err != nil {
		e.log.Debug().Err(err).Msg("volume analysis unavailable")
	} else {
		noiseDB = silenceFloor(stats.MeanDB)
		e.log.Debug().
			Float64("mean_db", stats.MeanDB).
			Float64("max_db", stats.MaxDB).
			Float64("noise_db", noiseDB).
			Msg("volume profile")
	}

	silences, err := e.probe.DetectSilence(ctx, noiseDB, silenceMinSec)
	if err != nil {
		e.log.Debug().Err(err).Msg("silence detection unavailable")
		silences = nil
	}

	wins = dedupeWindows(wins)
	if len(silences) > 0 {
		wins = dropSilent(wins, silences)
	}
	return wins
}

// silenceFloor places the silencedetect threshold 25dB under the mean
// volume, clamped so extreme recordings keep a usable floor.
func silenceFloor(meanDB float64) float64 {
	db := meanDB - 25
	if db < -60 {
		db = -60
	}
	if db > -20 {
		db = -20
	}
	return db
}

// dedupeWindows sorts and collapses overlapping candidates into one.
func dedupeWindows(wins []types.TimeWindow) []types.TimeWindow {
	if len(wins) <= 1 {
		return wins
	}
	sort.Slice(wins, func(i, j int) bool { return wins[i].Start < wins[j].Start })
	out := wins[:1]
	for _, w := range wins[1:] {
		last := &out[len(out)-1]
		if w.Start < last.End {
			if w.End > last.End {
				last.End = w.End
			}
			continue
		}
		out = append(out, w)
	}
	return out
}

// dropSilent removes windows that sit entirely inside a silent stretch;
// a long recording's dead air is the cheapest thing to rule out.
func dropSilent(wins []types.TimeWindow, silences []ports.SilencePeriod) []types.TimeWindow {
	out := wins[:0]
	for _, w := range wins {
		silent := false
		for _, s := range silences {
			if w.Start >= s.Start && w.End <= s.End {
				silent = true
				break
			}
		}
		if !silent {
			out = append(out, w)
		}
	}
	return out
}

// pickAnalysisWindows scores candidates by motion, then spreads the
// analysis budget across ten temporal buckets so a single eventful stretch
// cannot absorb every oracle call. Leftover budget goes to the globally
// best of the remainder.
func (e *Engine) pickAnalysisWindows(ctx context.Context, wins []types.TimeWindow, duration time.Duration, maxAnalyses int) []MotionScore {
	if len(wins) == 0 || maxAnalyses <= 0 {
		return nil
	}
	pf := NewPrefilter(e.source, e.opts.PrefilterWorkers, e.log)
	measured := pf.Measure(ctx, wins)
	if len(measured) <= maxAnalyses {
		sort.Slice(measured, func(i, j int) bool { return measured[i].Window.Start < measured[j].Window.Start })
		return measured
	}

	bucketDur := duration / extendedBuckets
	best := make([]*MotionScore, extendedBuckets)
	for i := range measured {
		idx := 0
		if bucketDur > 0 {
			idx = int(measured[i].Window.Mid() / bucketDur)
		}
		if idx >= extendedBuckets {
			idx = extendedBuckets - 1
		}
		if best[idx] == nil || measured[i].Motion > best[idx].Motion {
			best[idx] = &measured[i]
		}
	}

	picked := make(map[types.TimeWindow]bool)
	var out []MotionScore
	for _, b := range best {
		if b == nil || len(out) >= maxAnalyses {
			continue
		}
		out = append(out, *b)
		picked[b.Window] = true
	}

	if len(out) < maxAnalyses {
		rest := make([]MotionScore, 0, len(measured))
		for _, m := range measured {
			if !picked[m.Window] {
				rest = append(rest, m)
			}
		}
		sort.SliceStable(rest, func(i, j int) bool { return rest[i].Motion > rest[j].Motion })
		for _, m := range rest {
			if len(out) >= maxAnalyses {
				break
			}
			out = append(out, m)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Window.Start < out[j].Window.Start })
	return out
}
