// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// Format is the coarse media kind of an input file.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatAudio   Format = "audio"
	FormatVideo   Format = "video"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// Strategy names the processing path chosen for one file. It is fixed once
// selected.
type Strategy string

const (
	StrategyPDFText      Strategy = "pdf_text"
	StrategyPDFOCR       Strategy = "pdf_ocr"
	StrategyPDFHybrid    Strategy = "pdf_hybrid"
	StrategyAudioDirect  Strategy = "audio_direct"
	StrategyAudioChunked Strategy = "audio_chunked"
	StrategyVideoDirect  Strategy = "video_direct"
	StrategyVideoChunked Strategy = "video_chunked"
	StrategyImageOCR     Strategy = "image_ocr"
)

// Chunked reports whether the strategy splits media into segments.
func (s Strategy) Chunked() bool {
	return s == StrategyAudioChunked || s == StrategyVideoChunked
}

// Decision is the per-page extraction route for a PDF page.
type Decision string

const (
	DecisionText Decision = "text"
	DecisionOCR  Decision = "ocr"
)

// PageAssessment records how one PDF page will be extracted. Decision is
// text iff Chars is at or above the configured threshold.
type PageAssessment struct {
	// Index is the zero-based page index.
	Index    int      `json:"index" yaml:"index"`
	Chars    int      `json:"chars" yaml:"chars"`
	Decision Decision `json:"decision" yaml:"decision"`
}

// Segment is one fixed-duration slice of an audio stream. Segments of a
// stream are ordered by Index, contiguous and non-overlapping.
type Segment struct {
	Index    int           `json:"index" yaml:"index"`
	Start    time.Duration `json:"start" yaml:"start"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// End returns the exclusive end offset of the segment.
func (s Segment) End() time.Duration {
	return s.Start + s.Duration
}

// MediaInfo describes the audio stream that an audio or video file routes on.
// For video it is the derived audio track.
type MediaInfo struct {
	AudioPath string        `json:"audio_path" yaml:"audio_path"`
	AudioSize int64         `json:"audio_size" yaml:"audio_size"`
	Duration  time.Duration `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// InputDescriptor is built once during classification and never mutated.
type InputDescriptor struct {
	Path   string           `json:"path" yaml:"path"`
	Size   int64            `json:"size" yaml:"size"`
	Format Format           `json:"format" yaml:"format"`
	Pages  []PageAssessment `json:"pages,omitempty" yaml:"pages,omitempty"`
	Media  *MediaInfo       `json:"media,omitempty" yaml:"media,omitempty"`
}

// UnitKind is the granularity of a retryable piece of work.
type UnitKind string

const (
	UnitPage    UnitKind = "page"
	UnitSegment UnitKind = "segment"
	UnitFile    UnitKind = "file"
)

// Unit identifies the smallest retryable piece of work within one file.
type Unit struct {
	Kind  UnitKind `json:"kind" yaml:"kind"`
	Index int      `json:"index" yaml:"index"`
}

func (u Unit) String() string {
	return fmt.Sprintf("%s %d", u.Kind, u.Index)
}

// ExtractionResult is what the retry executor returns for one unit.
type ExtractionResult struct {
	Unit     Unit
	Text     string
	OK       bool
	Err      error
	Attempts int
}

// UnitFailure is the report form of a failed ExtractionResult.
type UnitFailure struct {
	Unit     Unit   `json:"unit" yaml:"unit"`
	Attempts int    `json:"attempts" yaml:"attempts"`
	Error    string `json:"error" yaml:"error"`
}

// State is the router's position in its per-file state machine.
type State string

const (
	StateClassifying      State = "classifying"
	StateStrategySelected State = "strategy_selected"
	StateExecuting        State = "executing"
	StateAssembling       State = "assembling"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

// Outcome is the terminal artifact of processing one file.
type Outcome struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Path     string        `json:"path" yaml:"path"`
	Format   Format        `json:"format" yaml:"format"`
	Strategy Strategy      `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	State    State         `json:"state" yaml:"state"`
	Success  bool          `json:"success" yaml:"success"`
	Partial  bool          `json:"partial" yaml:"partial"`
	Markdown string        `json:"-" yaml:"-"`
	Units    int           `json:"units" yaml:"units"`
	Attempts int           `json:"attempts" yaml:"attempts"`
	Failures []UnitFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Error    string        `json:"error,omitempty" yaml:"error,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}
