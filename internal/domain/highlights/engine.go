package highlights

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/types"
)

// Options tunes the selection pipeline. Zero values fall back to defaults.
type Options struct {
	MaxOracleCalls         int
	MaxConsecutiveFailures int
	MinSegmentGap          time.Duration
	ContextPadding         time.Duration
	LongVideoThreshold     time.Duration
	CostPerCall            float64
	ExtendedCostCeiling    float64
	PrefilterWorkers       int
	Lexicon                Lexicon
}

func (o Options) withDefaults() Options {
	if o.MaxOracleCalls <= 0 {
		o.MaxOracleCalls = 20
	}
	if o.MaxConsecutiveFailures <= 0 {
		o.MaxConsecutiveFailures = 5
	}
	if o.MinSegmentGap <= 0 {
		o.MinSegmentGap = time.Second
	}
	if o.ContextPadding <= 0 {
		o.ContextPadding = 2 * time.Second
	}
	if o.LongVideoThreshold <= 0 {
		o.LongVideoThreshold = 30 * time.Minute
	}
	if o.CostPerCall <= 0 {
		o.CostPerCall = 0.01
	}
	if o.ExtendedCostCeiling <= 0 {
		o.ExtendedCostCeiling = 1.0
	}
	if o.PrefilterWorkers <= 0 {
		o.PrefilterWorkers = 4
	}
	if o.Lexicon == nil {
		o.Lexicon = DefaultLexicon()
	}
	return o
}

// Engine selects highlight segments from a video. It owns no process-wide
// state; every run builds its strategy and budget from the objective, so
// one Engine can serve concurrent selections.
type Engine struct {
	source ports.FrameSource
	oracle ports.ContentOracle
	probe  ports.SignalProbe
	opts   Options
	log    zerolog.Logger
}

// NewEngine wires an engine from its ports. probe may be nil; extended runs
// then rely on motion sampling alone.
func NewEngine(source ports.FrameSource, oracle ports.ContentOracle, probe ports.SignalProbe, opts Options, log zerolog.Logger) *Engine {
	return &Engine{
		source: source,
		oracle: oracle,
		probe:  probe,
		opts:   opts.withDefaults(),
		log:    log.With().Str("component", "engine").Logger(),
	}
}

// SelectHighlights picks non-overlapping segments matching the prompt with
// total duration at most target. The result always carries at least one
// segment for a playable input; oracle trouble degrades quality, not
// availability.
func (e *Engine) SelectHighlights(ctx context.Context, prompt string, target time.Duration) (*types.SelectionResult, error) {
	obj := types.Objective{Prompt: strings.TrimSpace(prompt)}
	return e.selectWithBudget(ctx, obj, target, e.opts.ContextPadding, e.newBudget(0))
}

// SelectHighlightsFromExample selects segments resembling the given example
// range. A content profile is derived from up to three frames inside the
// range; when profiling fails entirely the run still proceeds and the
// fallback clusters segments around the example's position. padding
// overrides the configured context padding when positive, and prompt text,
// if given, feeds the similarity blend alongside the derived profile.
func (e *Engine) SelectHighlightsFromExample(ctx context.Context, example types.TimeWindow, target, padding time.Duration, prompt string) (*types.SelectionResult, error) {
	duration, err := e.source.Duration(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}
	if !example.Valid() || example.End > duration {
		return nil, fmt.Errorf("example range %v-%v outside video bounds", example.Start, example.End)
	}
	if padding <= 0 {
		padding = e.opts.ContextPadding
	}

	budget := e.newBudget(0)
	profile := e.profileExample(ctx, example, budget)
	obj := types.Objective{Prompt: strings.TrimSpace(prompt), Example: profile}
	return e.selectWithBudget(ctx, obj, target, padding, budget)
}

func (e *Engine) newBudget(maxCost float64) *Budget {
	return NewBudget(e.opts.MaxOracleCalls, e.opts.MaxConsecutiveFailures, maxCost, e.opts.CostPerCall)
}

// profileExample describes up to three frames across the example range and
// folds the answers into keywords plus a free-form description. Individual
// failures are tolerated; an all-failed profile keeps only the window.
func (e *Engine) profileExample(ctx context.Context, example types.TimeWindow, budget *Budget) *types.ExampleProfile {
	profile := &types.ExampleProfile{Window: example}
	times := sampleTimes(example)
	seen := make(map[string]bool)
	var descs []string
	for _, t := range times {
		if !budget.Reserve() {
			break
		}
		frame, err := e.source.FrameAt(ctx, t)
		if err != nil {
			budget.Failure()
			e.log.Debug().Err(err).Dur("at", t).Msg("example frame extraction failed")
			continue
		}
		res, err := e.oracle.Describe(ctx, frame)
		if err != nil {
			budget.Failure()
			e.log.Debug().Err(err).Dur("at", t).Msg("example frame description failed")
			continue
		}
		budget.Success()
		if d := res.Attributes["description"]; d != "" {
			descs = append(descs, d)
		}
		for _, kw := range strings.Split(res.Attributes["keywords"], ",") {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" || seen[kw] {
				continue
			}
			seen[kw] = true
			profile.Keywords = append(profile.Keywords, kw)
		}
	}
	profile.Description = strings.Join(descs, " ")
	if len(profile.Keywords) == 0 && profile.Description == "" {
		e.log.Warn().Msg("example profiling produced no content signal, relying on position")
	}
	return profile
}

func (e *Engine) selectWithBudget(ctx context.Context, obj types.Objective, target, padding time.Duration, budget *Budget) (*types.SelectionResult, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target duration must be positive, got %v", target)
	}
	duration, err := e.source.Duration(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe duration: %w", err)
	}
	if duration <= 0 {
		return nil, fmt.Errorf("video reports non-positive duration %v", duration)
	}

	if duration <= target {
		whole := types.TimeWindow{Start: 0, End: duration}
		return &types.SelectionResult{
			Segments:    []types.TimeWindow{whole},
			Scored:      []types.ScoredSegment{{TimeWindow: whole, Score: 1, Label: types.LabelRaw}},
			OracleCalls: budget.CallsUsed(),
			Message:     "video is already short enough",
		}, nil
	}

	mode := Classify(obj)
	e.log.Info().
		Stringer("mode", mode).
		Dur("duration", duration).
		Dur("target", target).
		Msg("selecting highlights")

	cands := Generate(duration, obj)
	admitted := NewPrefilter(e.source, e.opts.PrefilterWorkers, e.log).Run(ctx, cands)
	strategy := StrategyFor(obj, e.opts.Lexicon)
	scored := NewScorer(e.source, e.oracle, strategy, budget, e.log).Score(ctx, obj, admitted)

	assembled := NewAssembler(duration, mode, padding, e.opts.MinSegmentGap).Assemble(scored, target)
	balanced := Balance(assembled, duration)
	final := Fit(balanced, target, mode)

	res := &types.SelectionResult{Scored: final, OracleCalls: budget.CallsUsed()}
	if len(final) == 0 {
		fb := Fit(FallbackSegments(duration, target, obj), target, mode)
		res.Scored = fb
		res.FallbackUsed = true
		res.Message = "scoring produced no usable segments, using sampled fallback"
		e.log.Warn().Int("segments", len(fb)).Msg("selection fell back to sampled segments")
	}
	for _, s := range res.Scored {
		res.Segments = append(res.Segments, s.TimeWindow)
	}
	if len(res.Segments) == 0 {
		end := target
		if end > duration {
			end = duration
		}
		res.Segments = []types.TimeWindow{{Start: 0, End: end}}
		res.Scored = []types.ScoredSegment{{TimeWindow: res.Segments[0], Score: 0.5, Label: types.LabelFallback}}
		res.FallbackUsed = true
		res.Message = "selection exhausted, returning leading segment"
	}
	e.log.Info().
		Int("segments", len(res.Segments)).
		Int("oracle_calls", res.OracleCalls).
		Bool("fallback", res.FallbackUsed).
		Dur("total", res.TotalDuration()).
		Msg("selection complete")
	return res, nil
}
