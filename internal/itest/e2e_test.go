//go:build integration

package itest

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/reelcut/reelcut/internal/config"
	"github.com/reelcut/reelcut/internal/pipeline"
	"github.com/reelcut/reelcut/internal/types"
)

func TestE2E(t *testing.T) {
	if os.Getenv("OPENROUTER_API_KEY") == "" {
		t.Fatalf("OPENROUTER_API_KEY is required for itest")
	}

	tmp := t.TempDir()
	in := filepath.Join(tmp, "input.mp4")

	// Build a 60s fixture: moving test pattern so the motion
	// pre-filter has contrast to rank.
	ff := exec.Command("ffmpeg",
		"-y",
		"-f", "lavfi",
		"-i", "testsrc2=size=1280x720:rate=25:duration=60",
		"-f", "lavfi",
		"-i", "sine=frequency=440:duration=60",
		"-shortest",
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		in,
	)
	if b, err := ff.CombinedOutput(); err != nil {
		t.Fatalf("ffmpeg fixture failed: %v\n%s", err, string(b))
	}

	app := &config.Config{
		MaxOracleCalls:         10,
		MaxConsecutiveFailures: 5,
		MinSegmentGapSec:       1,
		ContextPaddingSec:      2,
		LongVideoThresholdSec:  1800,
		CostPerCall:            0.01,
		ExtendedCostCeiling:    1.0,
		PrefilterWorkers:       4,
	}
	app.Oracle.APIKey = os.Getenv("OPENROUTER_API_KEY")
	app.Oracle.Model = os.Getenv("OPENROUTER_MODEL")
	app.Oracle.BaseURL = os.Getenv("OPENROUTER_BASE_URL")
	app.FFmpeg.FFmpegPath = "ffmpeg"
	app.FFmpeg.FFprobePath = "ffprobe"
	if app.Oracle.Model == "" {
		app.Oracle.Model = "anthropic/claude-3.5-sonnet"
	}
	if app.Oracle.BaseURL == "" {
		app.Oracle.BaseURL = "https://openrouter.ai"
	}

	outDir := filepath.Join(tmp, "out")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
	defer cancel()

	cfg := pipeline.Config{
		Input:  in,
		OutDir: outDir,
		Prompt: "moving geometric shapes and color bars",
		Target: 15 * time.Second,
		App:    app,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}
	if err := pipeline.Run(ctx, cfg); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	runDir := findRunDir(t, outDir)

	manifestPath := filepath.Join(runDir, "manifest.json")
	mb, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("missing manifest: %v", err)
	}
	var m types.Manifest
	if err := json.Unmarshal(mb, &m); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(m.Segments) == 0 {
		t.Fatalf("manifest has no segments")
	}
	for i := 1; i < len(m.Segments); i++ {
		if m.Segments[i].StartSec < m.Segments[i-1].EndSec {
			t.Fatalf("segments overlap: %v then %v", m.Segments[i-1], m.Segments[i])
		}
	}

	outFile := filepath.Join(runDir, "highlights.mp4")
	if _, err := os.Stat(outFile); err != nil {
		t.Fatalf("missing highlights file: %v", err)
	}
	got, err := outputDuration(outFile)
	if err != nil {
		t.Fatalf("probe output: %v", err)
	}
	if got <= 0 {
		t.Fatalf("output has zero duration")
	}
	// Concat render drifts a little around keyframes; allow slack
	// over the 15s target.
	if got > 20*time.Second {
		t.Fatalf("output too long: %v", got)
	}
}

func findRunDir(t *testing.T, outDir string) string {
	t.Helper()

	entries, err := os.ReadDir(outDir)
	if err != nil {
		t.Fatalf("read out dir: %v", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			return filepath.Join(outDir, e.Name())
		}
	}
	t.Fatalf("no run dir under %s", outDir)
	return ""
}
