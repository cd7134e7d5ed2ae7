// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/pdiddy/docpipe/internal/pipeline"
	"github.com/pdiddy/docpipe/pkg/types"
)

// priority orders formats within a batch: cheap text extraction first,
// long transcriptions last.
var priority = map[types.Format]int{
	types.FormatPDF:   1,
	types.FormatImage: 2,
	types.FormatAudio: 3,
	types.FormatVideo: 4,
}

// Candidate is a supported file found by Scan.
type Candidate struct {
	Path   string
	Format types.Format
	Size   int64
}

// Scan lists the supported files directly inside dir (no recursion),
// matching extensions case-insensitively, ordered by format priority and
// then by size ascending. Ties keep name order.
func Scan(dir string) ([]Candidate, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	var found []Candidate
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f := formatOf(e.Name())
		if f == types.FormatUnknown {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		found = append(found, Candidate{Path: filepath.Join(dir, e.Name()), Format: f, Size: info.Size()})
	}

	slices.SortStableFunc(found, func(a, b Candidate) int {
		if pa, pb := priority[a.Format], priority[b.Format]; pa != pb {
			return pa - pb
		}
		switch {
		case a.Size < b.Size:
			return -1
		case a.Size > b.Size:
			return 1
		}
		return 0
	})
	return found, nil
}

// Paths returns the candidate paths in order.
func Paths(cs []Candidate) []string {
	paths := make([]string, len(cs))
	for i, c := range cs {
		paths[i] = c.Path
	}
	return paths
}

func formatOf(path string) types.Format {
	return pipeline.FormatForExtension(filepath.Ext(path))
}
