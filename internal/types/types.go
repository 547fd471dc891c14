package types

import "time"

// TimeWindow is a contiguous slice of the source timeline. Start is
// inclusive; windows that abut exactly do not overlap.
type TimeWindow struct {
	Start time.Duration
	End   time.Duration
}

func (w TimeWindow) Dur() time.Duration { return w.End - w.Start }

func (w TimeWindow) Mid() time.Duration { return w.Start + (w.End-w.Start)/2 }

func (w TimeWindow) Valid() bool { return w.Start >= 0 && w.End > w.Start }

// Overlaps reports whether the two windows share any time.
func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start < o.End && o.Start < w.End
}

type SegmentLabel string

const (
	LabelRaw             SegmentLabel = "raw"
	LabelContextExpanded SegmentLabel = "context_expanded"
	LabelFallback        SegmentLabel = "fallback"
)

// ScoredSegment is a window with a relevance estimate in [0,1]. Scored
// segments are treated as immutable: assembly and expansion produce new
// values instead of mutating inputs.
type ScoredSegment struct {
	TimeWindow
	Score float64
	Label SegmentLabel
}

// Objective is what the caller wants in the output: a free-text prompt, an
// example profile derived from a reference range, or both.
type Objective struct {
	Prompt  string
	Example *ExampleProfile
}

// ExampleProfile aggregates descriptive features of a user-chosen reference
// range. It is derived once per run and read-only afterwards.
type ExampleProfile struct {
	Window      TimeWindow
	Keywords    []string
	Description string
}

// OracleResult is a single relevance judgment. Relevance is on the oracle's
// native 0..10 scale; Attributes carry free-form descriptive key/value text
// used for keyword blending.
type OracleResult struct {
	Relevance  float64
	Attributes map[string]string
}

// SelectionResult is the engine output. Segments are sorted by Start and
// non-overlapping; Scored keeps per-segment detail for manifests and logs.
type SelectionResult struct {
	Segments     []TimeWindow
	Scored       []ScoredSegment
	OracleCalls  int
	FallbackUsed bool
	Message      string
}

func (r SelectionResult) TotalDuration() time.Duration {
	var total time.Duration
	for _, w := range r.Segments {
		total += w.Dur()
	}
	return total
}

type Manifest struct {
	RunID       string            `json:"run_id"`
	Input       string            `json:"input"`
	Output      string            `json:"output"`
	Prompt      string            `json:"prompt,omitempty"`
	TargetSec   float64           `json:"target_sec"`
	OracleCalls int               `json:"oracle_calls"`
	Fallback    bool              `json:"fallback"`
	Message     string            `json:"message,omitempty"`
	Segments    []ManifestSegment `json:"segments"`
}

type ManifestSegment struct {
	ID       string  `json:"id"`
	StartSec float64 `json:"start_sec"`
	EndSec   float64 `json:"end_sec"`
	Score    float64 `json:"score"`
	Label    string  `json:"label"`
}
