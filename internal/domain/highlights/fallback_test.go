package highlights

import (
	"testing"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

func TestFallbackSegments_EvenSpacingForPrompts(t *testing.T) {
	t.Parallel()

	duration := 5 * time.Minute
	got := FallbackSegments(duration, 40*time.Second, types.Objective{Prompt: "anything"})
	if len(got) < 3 || len(got) > 5 {
		t.Fatalf("got %d segments, want 3-5", len(got))
	}

	var total time.Duration
	wins := make([]types.TimeWindow, 0, len(got))
	for _, s := range got {
		if s.Label != types.LabelFallback {
			t.Fatalf("label = %q, want fallback", s.Label)
		}
		if s.Start < 0 || s.End > duration {
			t.Fatalf("segment %v-%v outside video", s.Start, s.End)
		}
		total += s.Dur()
		wins = append(wins, s.TimeWindow)
	}
	if total > 40*time.Second {
		t.Fatalf("total %v exceeds target", total)
	}
	if err := assertNonOverlapping(wins); err != nil {
		t.Fatal(err)
	}
}

func TestFallbackSegments_ExampleClustersNearExamplePosition(t *testing.T) {
	t.Parallel()

	duration := 10 * time.Minute
	ex := &types.ExampleProfile{Window: types.TimeWindow{
		Start: 7 * time.Minute,
		End:   7*time.Minute + 6*time.Second,
	}}
	got := FallbackSegments(duration, 30*time.Second, types.Objective{Example: ex})
	if len(got) == 0 {
		t.Fatal("expected fallback segments")
	}
	anchor := ex.Window.Mid()
	for _, s := range got {
		dist := s.TimeWindow.Mid() - anchor
		if dist < 0 {
			dist = -dist
		}
		if dist > duration/3 {
			t.Fatalf("segment at %v too far from example anchor %v", s.TimeWindow.Mid(), anchor)
		}
	}
	// Segment size respects the example length cap (1.5x of 6s).
	for _, s := range got {
		if s.Dur() > 9*time.Second {
			t.Fatalf("segment duration %v exceeds example cap", s.Dur())
		}
	}
}

func TestFallbackSegments_Deterministic(t *testing.T) {
	t.Parallel()

	ex := &types.ExampleProfile{Window: types.TimeWindow{
		Start: 100 * time.Second,
		End:   108 * time.Second,
	}}
	obj := types.Objective{Example: ex}
	a := FallbackSegments(10*time.Minute, 30*time.Second, obj)
	b := FallbackSegments(10*time.Minute, 30*time.Second, obj)
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("segment %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestFallbackSegments_TinyVideoLastResort(t *testing.T) {
	t.Parallel()

	got := FallbackSegments(500*time.Millisecond, 30*time.Second, types.Objective{Prompt: "x"})
	if len(got) == 0 {
		t.Fatal("expected at least one segment")
	}
	if got[0].Start != 0 {
		t.Fatalf("last resort start = %v, want 0", got[0].Start)
	}
	if got[0].End > 500*time.Millisecond {
		t.Fatalf("last resort end = %v, exceeds video", got[0].End)
	}
}

func TestFallbackSegments_ZeroInputs(t *testing.T) {
	t.Parallel()

	if got := FallbackSegments(0, time.Minute, types.Objective{}); got != nil {
		t.Fatalf("zero duration = %v, want nil", got)
	}
	if got := FallbackSegments(time.Minute, 0, types.Objective{}); got != nil {
		t.Fatalf("zero target = %v, want nil", got)
	}
}
