package highlights

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelcut/reelcut/internal/ports"
)

func TestSelectHighlightsExtended_LongVideoRespectsCostCeiling(t *testing.T) {
	t.Parallel()

	src := &fakeSource{duration: 4 * time.Hour}
	oracle := &fakeOracle{relevance: 8, attrs: map[string]string{
		"description": "a goal being scored",
	}}
	e := NewEngine(src, oracle, nil, Options{CostPerCall: 0.01}, zerolog.Nop())

	// $0.40 ceiling at $0.01 per call caps analysis at 40 oracle calls.
	res, err := e.SelectHighlightsExtended(context.Background(), "scoring a goal", 60*time.Second, 0.40)
	if err != nil {
		t.Fatalf("SelectHighlightsExtended: %v", err)
	}
	if res.OracleCalls > 40 {
		t.Fatalf("oracle calls %d exceed cost ceiling", res.OracleCalls)
	}
	if len(res.Segments) == 0 {
		t.Fatal("expected segments")
	}
	if res.TotalDuration() > 60*time.Second {
		t.Fatalf("total %v exceeds target", res.TotalDuration())
	}
}

func TestSelectHighlightsExtended_ShortVideoDelegates(t *testing.T) {
	t.Parallel()

	src := &fakeSource{duration: 5 * time.Minute}
	oracle := &fakeOracle{relevance: 8}
	e := NewEngine(src, oracle, nil, Options{}, zerolog.Nop())

	res, err := e.SelectHighlightsExtended(context.Background(), "a sunset", 30*time.Second, 1.0)
	if err != nil {
		t.Fatalf("SelectHighlightsExtended: %v", err)
	}
	if len(res.Segments) == 0 {
		t.Fatal("expected segments from the delegated standard path")
	}
}

func TestSelectHighlightsExtended_ProbeSignalsExtendCandidates(t *testing.T) {
	t.Parallel()

	src := &fakeSource{duration: 2 * time.Hour}
	oracle := &fakeOracle{relevance: 8, attrs: map[string]string{"description": "exciting moment"}}
	probe := &fakeProbe{
		scenes: []time.Duration{10 * time.Minute, 55 * time.Minute, 90 * time.Minute},
		silences: []ports.SilencePeriod{
			{Start: 30 * time.Minute, End: 45 * time.Minute},
		},
	}
	e := NewEngine(src, oracle, probe, Options{}, zerolog.Nop())

	res, err := e.SelectHighlightsExtended(context.Background(), "exciting moments", 60*time.Second, 0.5)
	if err != nil {
		t.Fatalf("SelectHighlightsExtended: %v", err)
	}
	if len(res.Segments) == 0 {
		t.Fatal("expected segments")
	}
	if err := assertNonOverlapping(res.Segments); err != nil {
		t.Fatal(err)
	}
}

func TestCoarseScan_NoiseFloorTracksMeanVolume(t *testing.T) {
	t.Parallel()

	src := &fakeSource{duration: 2 * time.Hour}
	probe := &fakeProbe{stats: ports.VolumeStats{MeanDB: -12, MaxDB: -1}}
	e := NewEngine(src, &fakeOracle{}, probe, Options{}, zerolog.Nop())

	e.coarseScan(context.Background(), 2*time.Hour)
	if want := -37.0; probe.gotNoiseDB != want {
		t.Fatalf("noise floor = %v, want %v", probe.gotNoiseDB, want)
	}
}

func TestSilenceFloorClamped(t *testing.T) {
	t.Parallel()

	cases := []struct {
		meanDB float64
		want   float64
	}{
		{meanDB: -12, want: -37},
		{meanDB: -5, want: -30},
		{meanDB: 10, want: -20},
		{meanDB: -50, want: -60},
	}
	for _, tc := range cases {
		if got := silenceFloor(tc.meanDB); got != tc.want {
			t.Errorf("silenceFloor(%v) = %v, want %v", tc.meanDB, got, tc.want)
		}
	}
}

func TestCoarseScanWindowsBounded(t *testing.T) {
	t.Parallel()

	src := &fakeSource{duration: 4 * time.Hour}
	e := NewEngine(src, &fakeOracle{}, nil, Options{}, zerolog.Nop())

	wins := e.coarseScan(context.Background(), 4*time.Hour)
	if len(wins) == 0 {
		t.Fatal("expected coarse windows")
	}
	// 45s stride over 4h is 320 sweep windows.
	if len(wins) > 321 {
		t.Fatalf("too many coarse windows: %d", len(wins))
	}
	for _, w := range wins {
		if w.End > 4*time.Hour {
			t.Fatalf("window %+v exceeds duration", w)
		}
	}
}

func TestDropSilent(t *testing.T) {
	t.Parallel()

	wins := windowsEvery(4, 10*time.Second, 60*time.Second)
	silences := []ports.SilencePeriod{{Start: 55 * time.Second, End: 75 * time.Second}}
	got := dropSilent(wins, silences)
	if len(got) != 3 {
		t.Fatalf("kept %d windows, want 3 (one fully silent dropped)", len(got))
	}
	for _, w := range got {
		if w.Start == 60*time.Second {
			t.Fatal("silent window survived")
		}
	}
}

func TestDedupeWindows(t *testing.T) {
	t.Parallel()

	wins := append(windowsEvery(3, 10*time.Second, 5*time.Second), windowsEvery(2, 10*time.Second, 100*time.Second)...)
	got := dedupeWindows(wins)
	if err := assertNonOverlapping(got); err != nil {
		t.Fatal(err)
	}
}

func TestPickAnalysisWindows_CapRespected(t *testing.T) {
	t.Parallel()

	src := &fakeSource{duration: time.Hour}
	e := NewEngine(src, &fakeOracle{}, nil, Options{}, zerolog.Nop())

	wins := windowsEvery(50, 15*time.Second, 45*time.Second)
	got := e.pickAnalysisWindows(context.Background(), wins, time.Hour, 12)
	if len(got) > 12 {
		t.Fatalf("picked %d windows, cap was 12", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Window.Start < got[i-1].Window.Start {
			t.Fatalf("picked windows not chronological at %d", i)
		}
	}
}
