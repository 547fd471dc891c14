package highlights

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/types"
)

// fakeSource serves synthetic frames. Brightness follows the timestamp so
// consecutive samples inside a window differ and produce non-zero motion.
type fakeSource struct {
	mu         sync.Mutex
	duration   time.Duration
	frameErrAt func(t time.Duration) error
	frameCalls int
}

func (f *fakeSource) Duration(ctx context.Context) (time.Duration, error) {
	return f.duration, nil
}

func (f *fakeSource) FrameAt(ctx context.Context, t time.Duration) (image.Image, error) {
	f.mu.Lock()
	f.frameCalls++
	f.mu.Unlock()
	if f.frameErrAt != nil {
		if err := f.frameErrAt(t); err != nil {
			return nil, err
		}
	}
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	v := byte(int(t/time.Second*37) % 256)
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img, nil
}

// fakeOracle answers with a fixed relevance and attributes, or errors for
// timestamps the test marks as failing. Evaluate order is recorded.
type fakeOracle struct {
	mu         sync.Mutex
	relevance  float64
	attrs      map[string]string
	failAll    bool
	failNext   int
	calls      int
	lastPrompt string
}

func (f *fakeOracle) Evaluate(ctx context.Context, frame image.Image, obj types.Objective) (types.OracleResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastPrompt = obj.Prompt
	if f.failAll {
		return types.OracleResult{}, ports.Oraclef(nil, "scripted failure")
	}
	if f.failNext > 0 {
		f.failNext--
		return types.OracleResult{}, ports.Oraclef(nil, "scripted failure")
	}
	return types.OracleResult{Relevance: f.relevance, Attributes: f.attrs}, nil
}

func (f *fakeOracle) Describe(ctx context.Context, frame image.Image) (types.OracleResult, error) {
	return f.Evaluate(ctx, frame, types.Objective{})
}

func (f *fakeOracle) lastSeenPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPrompt
}

func (f *fakeOracle) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeProbe struct {
	scenes   []time.Duration
	silences []ports.SilencePeriod
	stats    ports.VolumeStats
	err      error

	gotNoiseDB float64
}

func (f *fakeProbe) DetectScenes(ctx context.Context, threshold float64) ([]time.Duration, error) {
	return f.scenes, f.err
}

func (f *fakeProbe) DetectSilence(ctx context.Context, noiseDB, minDuration float64) ([]ports.SilencePeriod, error) {
	f.gotNoiseDB = noiseDB
	return f.silences, f.err
}

func (f *fakeProbe) AnalyzeVolume(ctx context.Context) (ports.VolumeStats, error) {
	return f.stats, f.err
}

func assertNonOverlapping(segs []types.TimeWindow) error {
	for i := 1; i < len(segs); i++ {
		if segs[i].Start < segs[i-1].End {
			return fmt.Errorf("segments %d and %d overlap: %v-%v then %v-%v",
				i-1, i, segs[i-1].Start, segs[i-1].End, segs[i].Start, segs[i].End)
		}
	}
	return nil
}
