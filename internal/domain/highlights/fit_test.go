package highlights

import (
	"testing"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

func TestFit_TakesBestUnderTarget(t *testing.T) {
	t.Parallel()

	segs := []types.ScoredSegment{
		seg(10, 18, 0.9),
		seg(50, 58, 0.8),
		seg(100, 108, 0.4),
	}
	got := Fit(segs, 16*time.Second, ModeGeneral)
	if len(got) != 2 {
		t.Fatalf("got %d segments, want 2", len(got))
	}
	var total time.Duration
	for _, s := range got {
		total += s.Dur()
	}
	if total > 16*time.Second {
		t.Fatalf("total %v exceeds target", total)
	}
	if got[0].Score != 0.9 || got[1].Score != 0.8 {
		t.Fatalf("kept wrong segments: %+v", got)
	}
}

func TestFit_TrimsStrongSegmentIntoRemainingRoom(t *testing.T) {
	t.Parallel()

	segs := []types.ScoredSegment{
		seg(10, 18, 0.9),
		seg(50, 60, 0.8), // 10s, only 4s of room left
	}
	got := Fit(segs, 12*time.Second, ModeGeneral)
	if len(got) != 2 {
		t.Fatalf("got %d segments, want trimmed second segment kept", len(got))
	}
	if got[1].Dur() != 4*time.Second {
		t.Fatalf("trimmed duration = %v, want 4s", got[1].Dur())
	}
	if got[1].Start != 50*time.Second {
		t.Fatalf("trim must keep the segment prefix, start = %v", got[1].Start)
	}
}

func TestFit_WeakSegmentNotTrimmed(t *testing.T) {
	t.Parallel()

	segs := []types.ScoredSegment{
		seg(10, 18, 0.9),
		seg(50, 60, 0.5), // weak: not worth a partial cut
	}
	got := Fit(segs, 12*time.Second, ModeGeneral)
	if len(got) != 1 {
		t.Fatalf("got %d segments, want weak segment skipped", len(got))
	}
}

func TestFit_TinyRemainderNotFilled(t *testing.T) {
	t.Parallel()

	segs := []types.ScoredSegment{
		seg(10, 18, 0.9),
		seg(50, 60, 0.8),
	}
	// 1s of room left after the first pick: below both mode minimums.
	got := Fit(segs, 9*time.Second, ModeGeneral)
	if len(got) != 1 {
		t.Fatalf("got %d segments, want 1", len(got))
	}
}

func TestFit_ActionModeAcceptsSmallerRemainder(t *testing.T) {
	t.Parallel()

	segs := []types.ScoredSegment{
		seg(10, 18, 0.95),
		seg(50, 60, 0.9),
	}
	// 1.6s remainder: below the 2s general minimum, above the 1.5s action one.
	if got := Fit(segs, 9600*time.Millisecond, ModeGeneral); len(got) != 1 {
		t.Fatalf("general mode kept %d segments, want 1", len(got))
	}
	if got := Fit(segs, 9600*time.Millisecond, ModeAction); len(got) != 2 {
		t.Fatalf("action mode kept %d segments, want 2", len(got))
	}
}

func TestFit_OutputNonOverlappingAndChronological(t *testing.T) {
	t.Parallel()

	segs := []types.ScoredSegment{
		seg(10, 20, 0.9),
		seg(15, 25, 0.85), // overlaps the first pick
		seg(100, 108, 0.8),
	}
	got := Fit(segs, 60*time.Second, ModeGeneral)
	wins := make([]types.TimeWindow, 0, len(got))
	for _, s := range got {
		wins = append(wins, s.TimeWindow)
	}
	if err := assertNonOverlapping(wins); err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start < got[i-1].Start {
			t.Fatalf("output not chronological at %d", i)
		}
	}
	if len(got) != 2 {
		t.Fatalf("got %d segments, want overlapping pick dropped", len(got))
	}
}

func TestFit_EmptyInputs(t *testing.T) {
	t.Parallel()

	if got := Fit(nil, time.Minute, ModeGeneral); got != nil {
		t.Fatalf("Fit(nil) = %v, want nil", got)
	}
	if got := Fit([]types.ScoredSegment{seg(0, 5, 1)}, 0, ModeGeneral); got != nil {
		t.Fatalf("Fit with zero target = %v, want nil", got)
	}
}
