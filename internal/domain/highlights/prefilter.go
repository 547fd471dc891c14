package highlights

import (
	"context"
	"image"
	"image/draw"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/reelcut/reelcut/internal/ports"
	"github.com/reelcut/reelcut/internal/types"
)

// MotionScore pairs a candidate window with its cheap motion estimate in
// [0,1]. No oracle calls are involved in producing one.
type MotionScore struct {
	Window types.TimeWindow
	Motion float64
}

// neutralMotion is assigned when frames cannot be extracted or compared.
// Failed candidates are kept, not dropped: pre-filter failures must never
// reduce candidate diversity.
const neutralMotion = 0.5

// Prefilter scores candidates by inter-frame difference and keeps only the
// most promising ones to bound downstream oracle cost.
type Prefilter struct {
	source  ports.FrameSource
	workers int
	log     zerolog.Logger
}

func NewPrefilter(source ports.FrameSource, workers int, log zerolog.Logger) *Prefilter {
	if workers <= 0 {
		workers = 4
	}
	return &Prefilter{
		source:  source,
		workers: workers,
		log:     log.With().Str("component", "prefilter").Logger(),
	}
}

// admissionCap bounds how many candidates survive into oracle scoring. The
// shape min(15, max(8, n/2)) keeps small runs intact while halving large
// ones.
func admissionCap(n int) int {
	keep := n / 2
	if keep < 8 {
		keep = 8
	}
	if keep > 15 {
		keep = 15
	}
	if keep > n {
		keep = n
	}
	return keep
}

// Measure computes a motion score for every candidate without dropping any.
// Frame extraction is parallelized across a bounded worker pool; results
// are written by index so the output order matches the input.
func (p *Prefilter) Measure(ctx context.Context, cands []types.TimeWindow) []MotionScore {
	if len(cands) == 0 {
		return nil
	}
	scores := make([]MotionScore, len(cands))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.workers)
	for i, w := range cands {
		wg.Add(1)
		go func(i int, w types.TimeWindow) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			scores[i] = MotionScore{Window: w, Motion: p.motionFor(ctx, w)}
		}(i, w)
	}
	wg.Wait()
	return scores
}

// Run measures every candidate and returns the top ones by motion, ties
// broken by start time.
func (p *Prefilter) Run(ctx context.Context, cands []types.TimeWindow) []MotionScore {
	scores := p.Measure(ctx, cands)
	if len(scores) == 0 {
		return nil
	}

	keep := admissionCap(len(scores))
	sorted := make([]MotionScore, len(scores))
	copy(sorted, scores)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Motion == sorted[j].Motion {
			return sorted[i].Window.Start < sorted[j].Window.Start
		}
		return sorted[i].Motion > sorted[j].Motion
	})
	sorted = sorted[:keep]

	p.log.Debug().
		Int("candidates", len(cands)).
		Int("kept", len(sorted)).
		Msg("motion pre-filter complete")
	return sorted
}

// motionFor samples up to three frames from the window and averages their
// pairwise difference. Any extraction failure yields the neutral score.
func (p *Prefilter) motionFor(ctx context.Context, w types.TimeWindow) float64 {
	var frames []*image.Gray
	for _, t := range sampleTimes(w) {
		img, err := p.source.FrameAt(ctx, t)
		if err != nil {
			continue
		}
		frames = append(frames, toGray(img))
	}
	if len(frames) < 2 {
		return neutralMotion
	}

	var total float64
	pairs := 0
	for i := 0; i < len(frames)-1; i++ {
		total += meanAbsDiff(frames[i], frames[i+1])
		pairs++
	}
	return clamp01(total / float64(pairs))
}

// sampleTimes picks start+0.2s, midpoint, and end-0.2s, collapsed for very
// short windows.
func sampleTimes(w types.TimeWindow) []time.Duration {
	const edge = 200 * time.Millisecond
	if w.Dur() <= 2*edge {
		return []time.Duration{w.Mid()}
	}
	if w.Dur() < 2*time.Second {
		return []time.Duration{w.Start + edge, w.End - edge}
	}
	return []time.Duration{w.Start + edge, w.Mid(), w.End - edge}
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(b)
	draw.Draw(g, b, img, b.Min, draw.Src)
	return g
}

// meanAbsDiff is the mean absolute pixel difference of two grayscale frames,
// normalized to [0,1]. Differently sized frames compare over the shared
// top-left region.
func meanAbsDiff(a, b *image.Gray) float64 {
	aw, ah := a.Bounds().Dx(), a.Bounds().Dy()
	bw, bh := b.Bounds().Dx(), b.Bounds().Dy()
	w, h := minInt(aw, bw), minInt(ah, bh)
	if w == 0 || h == 0 {
		return 0
	}

	var sum int64
	for y := 0; y < h; y++ {
		ra := a.Pix[y*a.Stride : y*a.Stride+w]
		rb := b.Pix[y*b.Stride : y*b.Stride+w]
		for x := 0; x < w; x++ {
			d := int64(ra[x]) - int64(rb[x])
			if d < 0 {
				d = -d
			}
			sum += d
		}
	}
	return float64(sum) / float64(w*h) / 255.0
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
