package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelcut/reelcut/internal/config"
	"github.com/reelcut/reelcut/internal/pipeline"
	"github.com/reelcut/reelcut/internal/types"
)

func run(cmd *cobra.Command, input string) error {
	outDir, _ := cmd.Flags().GetString("out")
	prompt, _ := cmd.Flags().GetString("prompt")
	exampleStr, _ := cmd.Flags().GetString("example")
	targetSec, _ := cmd.Flags().GetFloat64("target")
	extended, _ := cmd.Flags().GetBool("extended")
	maxCost, _ := cmd.Flags().GetFloat64("max-cost")
	configPath, _ := cmd.Flags().GetString("config")
	paddingSec, _ := cmd.Flags().GetFloat64("padding")

	if prompt == "" && exampleStr == "" {
		return errors.New("either --prompt or --example is required")
	}

	var example *types.TimeWindow
	if exampleStr != "" {
		w, err := parseExampleRange(exampleStr)
		if err != nil {
			return err
		}
		example = &w
	}

	app, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Hour)
	defer cancel()

	cfg := pipeline.Config{
		Input:    absIn,
		OutDir:   outDir,
		Prompt:   prompt,
		Example:  example,
		Padding:  time.Duration(paddingSec * float64(time.Second)),
		Target:   time.Duration(targetSec * float64(time.Second)),
		Extended: extended,
		MaxCost:  maxCost,
		App:      app,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return pipeline.Run(ctx, cfg)
}

// parseExampleRange reads "start-end" in seconds, decimals allowed.
func parseExampleRange(s string) (types.TimeWindow, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return types.TimeWindow{}, fmt.Errorf("example must be start-end seconds, got %q", s)
	}
	start, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return types.TimeWindow{}, fmt.Errorf("parse example start %q: %w", parts[0], err)
	}
	end, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return types.TimeWindow{}, fmt.Errorf("parse example end %q: %w", parts[1], err)
	}
	w := types.TimeWindow{
		Start: time.Duration(start * float64(time.Second)),
		End:   time.Duration(end * float64(time.Second)),
	}
	if !w.Valid() {
		return types.TimeWindow{}, fmt.Errorf("example range %s is not a valid range", s)
	}
	return w, nil
}
