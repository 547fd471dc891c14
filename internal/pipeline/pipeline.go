package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/reelcut/reelcut/internal/config"
	"github.com/reelcut/reelcut/internal/domain/highlights"
	"github.com/reelcut/reelcut/internal/logging"
	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/ports/adapters/ffmpeg"
	"github.com/reelcut/reelcut/internal/ports/adapters/openrouter"
	"github.com/reelcut/reelcut/internal/types"
	"github.com/reelcut/reelcut/internal/usecase"
)

type Config struct {
	Input    string
	OutDir   string
	Prompt   string
	Example  *types.TimeWindow
	Padding  time.Duration
	Target   time.Duration
	Extended bool
	MaxCost  float64

	App *config.Config
}

func (c Config) Validate() error {
	if c.Input == "" {
		return errors.New("input is empty")
	}
	if _, err := os.Stat(c.Input); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}
	if c.Target <= 0 {
		return fmt.Errorf("target duration must be > 0")
	}
	if c.Prompt == "" && c.Example == nil {
		return errors.New("either a prompt or an example range is required")
	}
	if c.Example != nil && !c.Example.Valid() {
		return fmt.Errorf("example range %v-%v is invalid", c.Example.Start, c.Example.End)
	}
	if c.App == nil {
		return errors.New("app config is required")
	}
	if c.App.Oracle.APIKey == "" {
		return errors.New("OPENROUTER_API_KEY is required (set it in .env)")
	}
	return openrouter.ValidateBaseURL(c.App.Oracle.BaseURL, c.App.Oracle.AllowedHosts)
}

func Run(ctx context.Context, cfg Config) error {
	log := logging.WithComponent("pipeline")

	// adapters
	av := ffmpeg.New(cfg.App.FFmpeg.FFmpegPath, cfg.App.FFmpeg.FFprobePath, cfg.Input)
	oracle := openrouter.New(cfg.App.Oracle.APIKey, cfg.App.Oracle.Model, cfg.App.Oracle.BaseURL)

	outDir := cfg.OutDir
	if outDir == "" {
		outDir = "out"
	}
	runOutDir := buildRunOutDir(outDir, cfg.Input, time.Now().UTC())
	if err := os.MkdirAll(runOutDir, 0o755); err != nil {
		return err
	}
	log.Info().Str("dir", runOutDir).Msg("output run dir")

	uc := usecase.New(usecase.Deps{
		Source: av,
		Oracle: oracle,
		Probe:  av,
		Writer: av,
	}, engineOptions(cfg.App), log)

	res, err := uc.Run(ctx, usecase.Input{
		InputPath: cfg.Input,
		Prompt:    cfg.Prompt,
		Example:   cfg.Example,
		Padding:   cfg.Padding,
		Target:    cfg.Target,
		Extended:  cfg.Extended,
		MaxCost:   cfg.MaxCost,
		OutDir:    runOutDir,
	})
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, "manifest.json")
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return err
	}
	log.Info().
		Int("segments", len(res.Manifest.Segments)).
		Str("manifest", manifestPath).
		Msg("manifest written")

	fmt.Println(renderSummary(res.Selection))
	return nil
}

func engineOptions(app *config.Config) highlights.Options {
	return highlights.Options{
		MaxOracleCalls:         app.MaxOracleCalls,
		MaxConsecutiveFailures: app.MaxConsecutiveFailures,
		MinSegmentGap:          secDur(app.MinSegmentGapSec),
		ContextPadding:         secDur(app.ContextPaddingSec),
		LongVideoThreshold:     secDur(app.LongVideoThresholdSec),
		CostPerCall:            app.CostPerCall,
		ExtendedCostCeiling:    app.ExtendedCostCeiling,
		PrefilterWorkers:       app.PrefilterWorkers,
	}
}

func secDur(sec float64) time.Duration {
	return time.Duration(sec * float64(time.Second))
}

// renderSummary prints the selected segments as a terminal table.
func renderSummary(sel types.SelectionResult) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Start", "End", "Dur", "Score", "Label"})
	for i, s := range sel.Scored {
		t.AppendRow(table.Row{
			i + 1,
			fmtClock(s.Start),
			fmtClock(s.End),
			s.Dur().Round(100 * time.Millisecond),
			fmt.Sprintf("%.2f", s.Score),
			string(s.Label),
		})
	}
	t.AppendFooter(table.Row{"", "", "", sel.TotalDuration().Round(100 * time.Millisecond),
		fmt.Sprintf("calls: %d", sel.OracleCalls), fallbackNote(sel.FallbackUsed)})
	return t.Render()
}

func fmtClock(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%04.1f", h, m, s)
	}
	return fmt.Sprintf("%d:%04.1f", m, s)
}

func fallbackNote(used bool) string {
	if used {
		return "fallback"
	}
	return ""
}

func buildRunOutDir(outRoot, input string, now time.Time) string {
	name := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	name = normalizePathSegment(name)
	if name == "" {
		name = "input"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", input, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.FrameSource = (*ffmpeg.Adapter)(nil)
var _ ports.SignalProbe = (*ffmpeg.Adapter)(nil)
var _ ports.VideoWriter = (*ffmpeg.Adapter)(nil)
var _ ports.ContentOracle = (*openrouter.Adapter)(nil)
