package entity

import (
	"errors"
	"fmt"
)

// Sentinel errors for the comparison pipeline. Everything here aborts
// the whole comparison; a frame-count mismatch is not an error but a
// normal negative outcome.
var (
	ErrScratchAllocation = errors.New("scratch directory allocation failed")
	ErrFrameExtraction   = errors.New("frame extraction failed")
	ErrFrameListing      = errors.New("frame listing failed")
	ErrImageRead         = errors.New("frame image could not be decoded")
	ErrFrameSizeMismatch = errors.New("frame dimensions differ")
)

const (
	DefaultFrameInterval = 1
	DefaultDiffThreshold = 0.1
)

// ComparisonSettings configures a single comparison run.
type ComparisonSettings struct {
	// StopOnFirstFail aborts diffing at the first mismatching frame.
	StopOnFirstFail bool `json:"stopOnFirstFail"`
	// FrameInterval samples every Nth frame starting at index 1.
	// Zero means unset and defaults to 1.
	FrameInterval int `json:"frameInterval,omitempty"`
	// Threshold is the per-pixel perceptual sensitivity in [0,1].
	// Zero means unset and defaults to 0.1.
	Threshold float64 `json:"threshold,omitempty"`
	// WriteToFile persists the result as JSON to report.json.
	WriteToFile bool `json:"writeToFile"`

	// DiffImageDir, when non-empty, receives a visual diff image for
	// every mismatching sampled frame. Owned by the caller.
	DiffImageDir string `json:"-"`
}

// ApplyDefaults fills unset fields with their documented defaults.
func (s *ComparisonSettings) ApplyDefaults() {
	if s.FrameInterval == 0 {
		s.FrameInterval = DefaultFrameInterval
	}
	if s.Threshold == 0 {
		s.Threshold = DefaultDiffThreshold
	}
}

// Validate rejects settings that cannot drive a comparison. Call after
// ApplyDefaults.
func (s *ComparisonSettings) Validate() error {
	if s.FrameInterval < 1 {
		return fmt.Errorf("frameInterval must be a positive integer, got %d", s.FrameInterval)
	}
	if s.Threshold < 0 || s.Threshold > 1 {
		return fmt.Errorf("threshold must be within [0,1], got %g", s.Threshold)
	}
	return nil
}

type ResultType string

const (
	ResultTypeFull    ResultType = "full"
	ResultTypePartial ResultType = "partial"
)

// FrameDiffResult holds the outcome for one sampled frame index.
type FrameDiffResult struct {
	// Diff is the count of mismatching pixels; 0 means identical
	// under the configured threshold.
	Diff int `json:"diff"`
	// Time is the diff duration in milliseconds.
	Time int64 `json:"time"`
}

// PhaseTimes carries wall-clock totals per pipeline phase, in
// milliseconds.
type PhaseTimes struct {
	SplitToFrames int64 `json:"splitToFrames"`
	DiffFrames    int64 `json:"diffFrames"`
}

type VideoStats struct {
	FrameCount int `json:"frameCount"`
}

// ComparisonResult is the aggregate outcome of one comparison run.
// Frames is sparse: interval sampling leaves gaps, so it is keyed by
// frame index rather than stored as a sequence.
type ComparisonResult struct {
	Pass     bool                    `json:"pass"`
	Type     ResultType              `json:"type"`
	Error    string                  `json:"error,omitempty"`
	Settings ComparisonSettings      `json:"settings"`
	Times    PhaseTimes              `json:"times"`
	VideoA   VideoStats              `json:"videoA"`
	VideoB   VideoStats              `json:"videoB"`
	Frames   map[int]FrameDiffResult `json:"frames"`

	// DiffImages lists visual diff artifacts written during the run,
	// one per mismatching frame, when DiffImageDir was set.
	DiffImages []string `json:"-"`
}

func NewComparisonResult(settings ComparisonSettings) *ComparisonResult {
	return &ComparisonResult{
		Pass:     true,
		Type:     ResultTypeFull,
		Settings: settings,
		Frames:   make(map[int]FrameDiffResult),
	}
}

// RecordFrame stores the diff outcome for one sampled index. Any
// mismatching pixel fails the comparison.
func (r *ComparisonResult) RecordFrame(index int, diff int, elapsedMs int64) {
	r.Frames[index] = FrameDiffResult{Diff: diff, Time: elapsedMs}
	if diff > 0 {
		r.Pass = false
	}
}

// MarkPartial flags an early exit triggered by StopOnFirstFail.
func (r *ComparisonResult) MarkPartial() {
	r.Type = ResultTypePartial
}

// MarkCountMismatch records a frame-count mismatch: the comparison
// fails without a diff phase, and that is a completed comparison, not
// an error.
func (r *ComparisonResult) MarkCountMismatch() {
	r.Pass = false
	r.Error = fmt.Sprintf("frame counts differ: videoA has %d frames, videoB has %d",
		r.VideoA.FrameCount, r.VideoB.FrameCount)
}
