//go:build integration

package itest

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// outputDuration reads a rendered file's duration with ffprobe, for
// asserting that a reel stays near its target length.
func outputDuration(path string) (time.Duration, error) {
	b, err := exec.Command("ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w\n%s", path, err, string(b))
	}
	sec, err := strconv.ParseFloat(strings.TrimSpace(string(b)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: bad duration %q: %w", path, strings.TrimSpace(string(b)), err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}
