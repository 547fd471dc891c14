package highlights

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/types"
)

// Budget tracks oracle spend across a run. Safe for concurrent use so the
// extended orchestrator can share one budget between scanning passes.
type Budget struct {
	mu sync.Mutex

	maxCalls            int
	maxCost             float64
	costPerCall         float64
	maxConsecFailures   int
	calls               int
	consecutiveFailures int
}

// NewBudget caps the number of oracle calls. maxCost <= 0 disables the cost
// ceiling and leaves only the call cap in force.
func NewBudget(maxCalls, maxConsecFailures int, maxCost, costPerCall float64) *Budget {
	if maxCalls <= 0 {
		maxCalls = 20
	}
	if maxConsecFailures <= 0 {
		maxConsecFailures = 5
	}
	return &Budget{
		maxCalls:          maxCalls,
		maxCost:           maxCost,
		costPerCall:       costPerCall,
		maxConsecFailures: maxConsecFailures,
	}
}

// Reserve claims one oracle call. It reports false when the budget is spent
// and the caller must switch to the cheap fallback path.
func (b *Budget) Reserve() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.calls >= b.maxCalls {
		return false
	}
	if b.maxCost > 0 && float64(b.calls+1)*b.costPerCall > b.maxCost {
		return false
	}
	b.calls++
	return true
}

// Success resets the consecutive failure window.
func (b *Budget) Success() {
	b.mu.Lock()
	b.consecutiveFailures = 0
	b.mu.Unlock()
}

// Failure records a failed oracle call and reports whether the failure
// streak has tripped the circuit breaker.
func (b *Budget) Failure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.consecutiveFailures++
	return b.consecutiveFailures >= b.maxConsecFailures
}

func (b *Budget) Tripped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutiveFailures >= b.maxConsecFailures
}

// CallsUsed reports the number of calls reserved so far.
func (b *Budget) CallsUsed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

// RemainingCalls reports how many calls the budget will still admit.
func (b *Budget) RemainingCalls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	left := b.maxCalls - b.calls
	if b.maxCost > 0 && b.costPerCall > 0 {
		byCost := int(b.maxCost/b.costPerCall) - b.calls
		if byCost < left {
			left = byCost
		}
	}
	if left < 0 {
		return 0
	}
	return left
}

// Scorer evaluates candidate windows against the objective, one oracle call
// per window mid-frame, falling back to a motion-derived score when the
// budget runs out or the oracle keeps failing.
type Scorer struct {
	source   ports.FrameSource
	oracle   ports.ContentOracle
	strategy ScoringStrategy
	budget   *Budget
	log      zerolog.Logger
}

func NewScorer(source ports.FrameSource, oracle ports.ContentOracle, strategy ScoringStrategy, budget *Budget, log zerolog.Logger) *Scorer {
	return &Scorer{
		source:   source,
		oracle:   oracle,
		strategy: strategy,
		budget:   budget,
		log:      log.With().Str("component", "scorer").Logger(),
	}
}

// Score walks the admitted candidates in order. Windows are never dropped:
// an exhausted budget or a tripped failure breaker downgrades a window to a
// motion-only score instead of skipping it, so downstream stages always see
// every admitted window exactly once.
func (s *Scorer) Score(ctx context.Context, obj types.Objective, admitted []MotionScore) []types.ScoredSegment {
	out := make([]types.ScoredSegment, 0, len(admitted))
	for _, ms := range admitted {
		out = append(out, types.ScoredSegment{
			TimeWindow: ms.Window,
			Score:      s.scoreOne(ctx, obj, ms),
			Label:      types.LabelRaw,
		})
	}
	return out
}

// motionFallbackScore maps a 0..1 motion signal into the 0.4..0.8 band so
// that motion-only windows stay rankable but never outscore a strong oracle
// verdict.
func motionFallbackScore(motion float64) float64 {
	return 0.4 + clamp01(motion)*0.4
}

func (s *Scorer) scoreOne(ctx context.Context, obj types.Objective, ms MotionScore) float64 {
	if ctx.Err() != nil || s.budget.Tripped() || !s.budget.Reserve() {
		return motionFallbackScore(ms.Motion)
	}

	frame, err := s.source.FrameAt(ctx, ms.Window.Mid())
	if err != nil {
		s.log.Debug().Err(err).Dur("at", ms.Window.Mid()).Msg("frame extraction failed")
		s.budget.Failure()
		return motionFallbackScore(ms.Motion)
	}

	res, err := s.oracle.Evaluate(ctx, frame, obj)
	if err != nil {
		var oerr *ports.OracleError
		if errors.As(err, &oerr) {
			s.log.Debug().Str("reason", oerr.Reason).Dur("at", ms.Window.Mid()).Msg("oracle call failed")
		} else {
			s.log.Debug().Err(err).Dur("at", ms.Window.Mid()).Msg("oracle call failed")
		}
		if s.budget.Failure() {
			s.log.Warn().Int("calls", s.budget.CallsUsed()).Msg("oracle failure streak, switching to motion-only scoring")
		}
		return motionFallbackScore(ms.Motion)
	}

	s.budget.Success()
	score := s.strategy.Blend(res, obj)
	s.log.Debug().
		Dur("start", ms.Window.Start).
		Dur("end", ms.Window.End).
		Float64("relevance", res.Relevance).
		Float64("score", score).
		Msg("window scored")
	return score
}
