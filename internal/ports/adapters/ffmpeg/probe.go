package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/reelcut/reelcut/internal/ports"
)

// Filter-to-null runs exit non-zero on some builds even when the filter
// produced usable stderr. Those exits are tolerated; real failures are not.
func tolerableRunOutput(out string) bool {
	return strings.Contains(out, "Conversion failed") ||
		strings.Contains(out, "Invalid return value") ||
		strings.Contains(out, "Output file is empty")
}

func (a *Adapter) runFilter(ctx context.Context, filterFlag, filter string) (string, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-i", a.input,
		filterFlag, filter,
		"-f", "null",
		"-",
	)
	b, err := cmd.CombinedOutput()
	out := string(b)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if !tolerableRunOutput(out) {
			return "", fmt.Errorf("ffmpeg %s: %w\n%s", filter, err, out)
		}
	}
	return out, nil
}

func (a *Adapter) DetectScenes(ctx context.Context, threshold float64) ([]time.Duration, error) {
	out, err := a.runFilter(ctx, "-vf", fmt.Sprintf("select='gt(scene,%f)',showinfo", threshold))
	if err != nil {
		return nil, err
	}
	return parseSceneTimes(out), nil
}

func parseSceneTimes(output string) []time.Duration {
	var scenes []time.Duration
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "pts_time:") {
			continue
		}
		parts := strings.Split(line, "pts_time:")
		if len(parts) != 2 {
			continue
		}
		fields := strings.Fields(strings.TrimSpace(parts[1]))
		if len(fields) == 0 {
			continue
		}
		if sec, err := strconv.ParseFloat(fields[0], 64); err == nil {
			scenes = append(scenes, time.Duration(sec*float64(time.Second)))
		}
	}
	return scenes
}

func (a *Adapter) DetectSilence(ctx context.Context, noiseDB, minDuration float64) ([]ports.SilencePeriod, error) {
	out, err := a.runFilter(ctx, "-af", fmt.Sprintf("silencedetect=noise=%.2fdB:d=%.2f", noiseDB, minDuration))
	if err != nil {
		return nil, err
	}
	return parseSilence(out), nil
}

func parseSilence(output string) []ports.SilencePeriod {
	var periods []ports.SilencePeriod
	var start float64
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "silence_start:"):
			parts := strings.Split(line, "silence_start:")
			if len(parts) == 2 {
				start, _ = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
			}
		case strings.Contains(line, "silence_end:"):
			parts := strings.Split(line, "silence_end:")
			if len(parts) != 2 {
				continue
			}
			fields := strings.Fields(strings.TrimSpace(parts[1]))
			if len(fields) == 0 {
				continue
			}
			end, err := strconv.ParseFloat(fields[0], 64)
			if err != nil {
				continue
			}
			periods = append(periods, ports.SilencePeriod{
				Start: time.Duration(start * float64(time.Second)),
				End:   time.Duration(end * float64(time.Second)),
			})
		}
	}
	return periods
}

func (a *Adapter) AnalyzeVolume(ctx context.Context) (ports.VolumeStats, error) {
	out, err := a.runFilter(ctx, "-af", "volumedetect")
	if err != nil {
		return ports.VolumeStats{}, err
	}
	if out == "" {
		return ports.VolumeStats{}, fmt.Errorf("volume analysis produced no output")
	}
	return parseVolume(out), nil
}

func parseVolume(output string) ports.VolumeStats {
	var stats ports.VolumeStats
	for _, line := range strings.Split(output, "\n") {
		switch {
		case strings.Contains(line, "mean_volume:"):
			if v, ok := trailingFloat(line, "mean_volume:"); ok {
				stats.MeanDB = v
			}
		case strings.Contains(line, "max_volume:"):
			if v, ok := trailingFloat(line, "max_volume:"); ok {
				stats.MaxDB = v
			}
		}
	}
	return stats
}

func trailingFloat(line, marker string) (float64, bool) {
	parts := strings.Split(line, marker)
	if len(parts) != 2 {
		return 0, false
	}
	fields := strings.Fields(strings.TrimSpace(parts[1]))
	if len(fields) == 0 {
		return 0, false
	}
	v, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
