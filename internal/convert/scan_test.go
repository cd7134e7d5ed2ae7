// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdiddy/docpipe/pkg/types"
)

func TestScan_OrderAndFilter(t *testing.T) {
	dir := t.TempDir()
	files := map[string]int{
		"movie.MP4":   10,
		"big.pdf":     300,
		"small.PDF":   5,
		"scan.png":    50,
		"talk.mp3":    20,
		"notes.txt":   1,
		"archive.zip": 1,
	}
	for name, size := range files {
		writeInput(t, dir, name, strings.Repeat("x", size))
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.pdf"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeInput(t, filepath.Join(dir, "nested.pdf"), "deep.pdf", "x")

	got, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}

	var names []string
	for _, c := range got {
		names = append(names, filepath.Base(c.Path))
	}
	want := "small.PDF,big.pdf,scan.png,talk.mp3,movie.MP4"
	if strings.Join(names, ",") != want {
		t.Errorf("order = %s, want %s", strings.Join(names, ","), want)
	}
	if got[4].Format != types.FormatVideo || got[4].Size != 10 {
		t.Errorf("unexpected candidate %+v", got[4])
	}
	if len(Paths(got)) != 5 {
		t.Errorf("Paths returned %d entries", len(Paths(got)))
	}
}

func TestScan_MissingDir(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}
