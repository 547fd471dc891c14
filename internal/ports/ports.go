package ports

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

// FrameSource exposes a seekable video timeline. Implementations own
// decoding; the engine only ever asks for single frames and the total
// duration.
type FrameSource interface {
	Duration(ctx context.Context) (time.Duration, error)
	FrameAt(ctx context.Context, t time.Duration) (image.Image, error)
}

// ContentOracle judges how well a single frame matches an objective.
// Evaluate returns a relevance on 0..10 plus descriptive attributes, or an
// *OracleError; both outcomes are expected and neither aborts a run.
// Describe is Evaluate without an objective, used to build example profiles.
type ContentOracle interface {
	Evaluate(ctx context.Context, frame image.Image, objective types.Objective) (types.OracleResult, error)
	Describe(ctx context.Context, frame image.Image) (types.OracleResult, error)
}

type SilencePeriod struct {
	Start time.Duration
	End   time.Duration
}

type VolumeStats struct {
	MeanDB float64
	MaxDB  float64
}

// SignalProbe provides whole-file audio/visual signal detection. It is
// optional: only the extended long-video path uses it, and a nil probe
// degrades to motion-only coarse scanning.
type SignalProbe interface {
	DetectScenes(ctx context.Context, threshold float64) ([]time.Duration, error)
	DetectSilence(ctx context.Context, noiseDB, minDuration float64) ([]SilencePeriod, error)
	AnalyzeVolume(ctx context.Context) (VolumeStats, error)
}

// VideoWriter renders the selected source ranges into one output file.
type VideoWriter interface {
	Write(ctx context.Context, segments []types.TimeWindow, outPath string) error
}

// OracleError marks a recoverable oracle failure: timeout, malformed
// response, unreadable frame. The scorer counts these against the failure
// budget; they are never surfaced to callers.
type OracleError struct {
	Reason string
	Err    error
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oracle: %s: %v", e.Reason, e.Err)
	}
	return "oracle: " + e.Reason
}

func (e *OracleError) Unwrap() error { return e.Err }

func Oraclef(err error, format string, args ...any) *OracleError {
	return &OracleError{Reason: fmt.Sprintf(format, args...), Err: err}
}
