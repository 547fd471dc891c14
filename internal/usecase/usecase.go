package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reelcut/reelcut/internal/domain/highlights"
	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/types"
)

type Deps struct {
	Source ports.FrameSource
	Oracle ports.ContentOracle
	Probe  ports.SignalProbe
	Writer ports.VideoWriter
}

type Usecase struct {
	d    Deps
	opts highlights.Options
	log  zerolog.Logger
}

func New(d Deps, opts highlights.Options, log zerolog.Logger) Usecase {
	return Usecase{d: d, opts: opts, log: log}
}

type Input struct {
	InputPath string
	Prompt    string
	Example   *types.TimeWindow
	Padding   time.Duration
	Target    time.Duration
	Extended  bool
	MaxCost   float64
	OutDir    string
}

type Result struct {
	Manifest  types.Manifest
	Selection types.SelectionResult
}

// Run selects highlight segments and renders them into one output file.
// The manifest records every segment with its score and provenance label.
func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	engine := highlights.NewEngine(u.d.Source, u.d.Oracle, u.d.Probe, u.opts, u.log)

	var (
		sel *types.SelectionResult
		err error
	)
	switch {
	case in.Example != nil:
		sel, err = engine.SelectHighlightsFromExample(ctx, *in.Example, in.Target, in.Padding, in.Prompt)
	case in.Extended:
		sel, err = engine.SelectHighlightsExtended(ctx, in.Prompt, in.Target, in.MaxCost)
	default:
		sel, err = engine.SelectHighlights(ctx, in.Prompt, in.Target)
	}
	if err != nil {
		return Result{}, err
	}

	outPath := filepath.Join(in.OutDir, "highlights.mp4")
	if err := u.d.Writer.Write(ctx, sel.Segments, outPath); err != nil {
		return Result{}, fmt.Errorf("render output: %w", err)
	}

	m := types.Manifest{
		RunID:       uuid.NewString(),
		Input:       in.InputPath,
		Output:      filepath.ToSlash(outPath),
		Prompt:      in.Prompt,
		TargetSec:   in.Target.Seconds(),
		OracleCalls: sel.OracleCalls,
		Fallback:    sel.FallbackUsed,
		Message:     sel.Message,
	}
	for i, s := range sel.Scored {
		m.Segments = append(m.Segments, types.ManifestSegment{
			ID:       fmt.Sprintf("%03d", i+1),
			StartSec: s.Start.Seconds(),
			EndSec:   s.End.Seconds(),
			Score:    s.Score,
			Label:    string(s.Label),
		})
	}
	return Result{Manifest: m, Selection: *sel}, nil
}
