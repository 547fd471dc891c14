package ffmpeg

import (
	"testing"
	"time"
)

func TestParseSceneTimes(t *testing.T) {
	t.Parallel()

	output := `
[Parsed_showinfo_1 @ 0x7f] n:   0 pts:  12345 pts_time:5.005   pos: 1234 fmt:yuv420p
[Parsed_showinfo_1 @ 0x7f] n:   1 pts:  67890 pts_time:27.36   pos: 5678 fmt:yuv420p
garbage line without marker
[Parsed_showinfo_1 @ 0x7f] pts_time:notanumber extra
`
	got := parseSceneTimes(output)
	if len(got) != 2 {
		t.Fatalf("parsed %d scenes, want 2", len(got))
	}
	if got[0] != 5005*time.Millisecond {
		t.Fatalf("scene[0] = %v, want 5.005s", got[0])
	}
	if got[1] != 27360*time.Millisecond {
		t.Fatalf("scene[1] = %v, want 27.36s", got[1])
	}
}

func TestParseSilence(t *testing.T) {
	t.Parallel()

	output := `
[silencedetect @ 0x7f] silence_start: 12.5
[silencedetect @ 0x7f] silence_end: 18.25 | silence_duration: 5.75
[silencedetect @ 0x7f] silence_start: 100
[silencedetect @ 0x7f] silence_end: 130 | silence_duration: 30
`
	got := parseSilence(output)
	if len(got) != 2 {
		t.Fatalf("parsed %d periods, want 2", len(got))
	}
	if got[0].Start != 12500*time.Millisecond || got[0].End != 18250*time.Millisecond {
		t.Fatalf("period[0] = %+v, want 12.5s-18.25s", got[0])
	}
	if got[1].Start != 100*time.Second || got[1].End != 130*time.Second {
		t.Fatalf("period[1] = %+v, want 100s-130s", got[1])
	}
}

func TestParseSilence_DanglingStartIgnored(t *testing.T) {
	t.Parallel()

	got := parseSilence("[silencedetect @ 0x7f] silence_start: 42\n")
	if len(got) != 0 {
		t.Fatalf("parsed %d periods from dangling start, want 0", len(got))
	}
}

func TestParseVolume(t *testing.T) {
	t.Parallel()

	output := `
[Parsed_volumedetect_0 @ 0x7f] n_samples: 4096000
[Parsed_volumedetect_0 @ 0x7f] mean_volume: -23.5 dB
[Parsed_volumedetect_0 @ 0x7f] max_volume: -4.0 dB
`
	got := parseVolume(output)
	if got.MeanDB != -23.5 {
		t.Fatalf("mean = %v, want -23.5", got.MeanDB)
	}
	if got.MaxDB != -4.0 {
		t.Fatalf("max = %v, want -4.0", got.MaxDB)
	}
}

func TestTolerableRunOutput(t *testing.T) {
	t.Parallel()

	if !tolerableRunOutput("frame= 0 ... Conversion failed!") {
		t.Fatal("conversion failure should be tolerated")
	}
	if tolerableRunOutput("No such file or directory") {
		t.Fatal("missing input must not be tolerated")
	}
}

func TestFmtSeconds(t *testing.T) {
	t.Parallel()

	if got := fmtSeconds(90*time.Second + 250*time.Millisecond); got != "90.250" {
		t.Fatalf("fmtSeconds = %q, want 90.250", got)
	}
	if got := fmtSeconds(0); got != "0.000" {
		t.Fatalf("fmtSeconds(0) = %q, want 0.000", got)
	}
}
