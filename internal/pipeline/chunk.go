// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"

	"github.com/pdiddy/docpipe/pkg/types"
)

// Split tiles [0, total) with segments of length chunk. The last segment
// may be shorter; there are ceil(total/chunk) segments and their durations
// sum to total. The sequence is deterministic and can be ranged over any
// number of times. A non-positive chunk yields a single segment.
func Split(total, chunk time.Duration) iter.Seq[types.Segment] {
	return func(yield func(types.Segment) bool) {
		if total <= 0 {
			return
		}
		if chunk <= 0 {
			chunk = total
		}
		for i, start := 0, time.Duration(0); start < total; i, start = i+1, start+chunk {
			d := min(chunk, total-start)
			if !yield(types.Segment{Index: i, Start: start, Duration: d}) {
				return
			}
		}
	}
}

// SegmentCount returns ceil(total/chunk) without materialising segments.
func SegmentCount(total, chunk time.Duration) int {
	if total <= 0 {
		return 0
	}
	if chunk <= 0 {
		return 1
	}
	return int((total + chunk - 1) / chunk)
}

// SegmentFile is a materialised segment on disk. It exists only while the
// segment is being processed.
type SegmentFile struct {
	types.Segment
	Path string
}

// Release removes the segment file. Releasing twice is harmless.
func (f SegmentFile) Release() error {
	if err := os.Remove(f.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("releasing segment %d: %w", f.Index, err)
	}
	return nil
}

// Chunker cuts segments of one audio stream on demand.
type Chunker struct {
	Cutter SegmentCutter

	// Dir holds the materialised segment files.
	Dir string
}

// Materialize writes seg of src to a file under c.Dir. The caller releases
// it once the segment's result is known.
func (c *Chunker) Materialize(ctx context.Context, src string, seg types.Segment) (SegmentFile, error) {
	if c.Cutter == nil {
		return SegmentFile{}, errors.New("no segment cutter configured")
	}
	dst := filepath.Join(c.Dir, fmt.Sprintf("segment_%04d.wav", seg.Index))
	if err := c.Cutter.Cut(ctx, src, seg.Start, seg.Duration, dst); err != nil {
		_ = os.Remove(dst)
		return SegmentFile{}, fmt.Errorf("cutting segment %d at %s: %w", seg.Index, seg.Start, err)
	}
	return SegmentFile{Segment: seg, Path: dst}, nil
}
