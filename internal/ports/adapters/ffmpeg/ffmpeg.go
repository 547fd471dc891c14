package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/reelcut/reelcut/internal/types"
)

// Adapter runs ffmpeg/ffprobe against one input file. It implements the
// frame source, signal probe, and video writer ports.
type Adapter struct {
	ffmpeg  string
	ffprobe string
	input   string
}

func New(ffmpegPath, ffprobePath, input string) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, input: input}
}

func (a *Adapter) Duration(ctx context.Context) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		a.input,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))
	}
	s := strings.TrimSpace(string(b))
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	return time.Duration(sec * float64(time.Second)), nil
}

// FrameAt decodes a single frame at t as JPEG over a pipe, avoiding temp
// files on the hot path.
func (a *Adapter) FrameAt(ctx context.Context, t time.Duration) (image.Image, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-ss", fmtSeconds(t),
		"-i", a.input,
		"-frames:v", "1",
		"-q:v", "2",
		"-f", "mjpeg",
		"pipe:1",
	)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame at %s: %w\n%s", fmtSeconds(t), err, errb.String())
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg frame at %s: empty output", fmtSeconds(t))
	}
	img, err := jpeg.Decode(&out)
	if err != nil {
		return nil, fmt.Errorf("decode frame at %s: %w", fmtSeconds(t), err)
	}
	return img, nil
}

// Write trims each segment into a temp clip, then joins them with the
// concat demuxer. Trims re-encode for frame accuracy; the join is a stream
// copy.
func (a *Adapter) Write(ctx context.Context, segments []types.TimeWindow, outPath string) error {
	if len(segments) == 0 {
		return fmt.Errorf("no segments to write")
	}

	tmpDir, err := os.MkdirTemp("", "reelcut-clips-*")
	if err != nil {
		return fmt.Errorf("create clip dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	clips := make([]string, 0, len(segments))
	for i, seg := range segments {
		clip := filepath.Join(tmpDir, fmt.Sprintf("clip_%03d.mp4", i))
		if err := a.renderClip(ctx, seg, clip); err != nil {
			return err
		}
		clips = append(clips, clip)
	}

	list := filepath.Join(tmpDir, "concat.txt")
	var b strings.Builder
	for _, c := range clips {
		fmt.Fprintf(&b, "file '%s'\n", c)
	}
	if err := os.WriteFile(list, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write concat list: %w", err)
	}

	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", list,
		"-c", "copy",
		outPath,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg concat: %w\n%s", err, string(out))
	}
	return nil
}

func (a *Adapter) renderClip(ctx context.Context, seg types.TimeWindow, outMP4 string) error {
	cmd := exec.CommandContext(ctx, a.ffmpeg,
		"-y",
		"-ss", fmtSeconds(seg.Start),
		"-to", fmtSeconds(seg.End),
		"-i", a.input,
		"-c:v", "libx264",
		"-preset", "veryfast",
		"-crf", "18",
		"-c:a", "aac",
		"-b:a", "192k",
		outMP4,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg render clip %s-%s: %w\n%s", fmtSeconds(seg.Start), fmtSeconds(seg.End), err, string(b))
	}
	return nil
}

func fmtSeconds(d time.Duration) string {
	sec := float64(d) / float64(time.Second)
	return strconv.FormatFloat(sec, 'f', 3, 64)
}
