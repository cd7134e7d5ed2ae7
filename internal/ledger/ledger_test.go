// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docpipe/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state", "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleEntry(runID, hash string, success bool, at time.Time) Entry {
	e := Entry{
		RunID:       runID,
		Path:        "/in/" + runID + ".pdf",
		Name:        runID + ".pdf",
		Hash:        hash,
		Format:      types.FormatPDF,
		Strategy:    types.StrategyPDFHybrid,
		Success:     success,
		Units:       3,
		Attempts:    4,
		Duration:    1500 * time.Millisecond,
		TextLength:  42,
		ProcessedAt: at,
	}
	if !success {
		e.Error = "document could not be opened"
		e.Failures = []types.UnitFailure{{Unit: types.Unit{Kind: types.UnitPage, Index: 2}, Attempts: 4, Error: "boom"}}
	}
	return e
}

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	h, err := FileHash(path)
	require.NoError(t, err)
	// sha256("hello") = 2cf24dba5fb0a30e26e83b2ac5b9e29e...
	assert.Equal(t, "2cf24dba5fb0a30e", h)

	_, err = FileHash(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestOpen_CreatesParentDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "ledger.db")
	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()
	assert.FileExists(t, path)
}

func TestRecordAndList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, sampleEntry("r1", "h1", true, base)))
	require.NoError(t, s.Record(ctx, sampleEntry("r2", "h2", false, base.Add(time.Minute))))

	entries, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "r2", entries[0].RunID, "newest first")
	assert.False(t, entries[0].Success)
	require.Len(t, entries[0].Failures, 1)
	assert.Equal(t, types.Unit{Kind: types.UnitPage, Index: 2}, entries[0].Failures[0].Unit)
	assert.Equal(t, "document could not be opened", entries[0].Error)

	r1 := entries[1]
	assert.Equal(t, types.StrategyPDFHybrid, r1.Strategy)
	assert.Equal(t, 1500*time.Millisecond, r1.Duration)
	assert.Equal(t, 42, r1.TextLength)
	assert.True(t, r1.ProcessedAt.Equal(base))
	assert.Empty(t, r1.Failures)
}

func TestRecord_SameRunIDReplaces(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	at := time.Now()

	require.NoError(t, s.Record(ctx, sampleEntry("r1", "h1", false, at)))
	require.NoError(t, s.Record(ctx, sampleEntry("r1", "h1", true, at)))

	entries, err := s.List(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].Success)
}

func TestList_Options(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.Record(ctx, sampleEntry("ok1", "a", true, base)))
	require.NoError(t, s.Record(ctx, sampleEntry("bad1", "b", false, base.Add(time.Second))))
	require.NoError(t, s.Record(ctx, sampleEntry("ok2", "c", true, base.Add(2*time.Second))))

	failed, err := s.List(ctx, ListOptions{FailedOnly: true})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "bad1", failed[0].RunID)

	limited, err := s.List(ctx, ListOptions{Limit: 2})
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "ok2", limited[0].RunID)
	assert.Equal(t, "bad1", limited[1].RunID)
}

func TestSucceeded(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	ok, err := s.Succeeded(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Record(ctx, sampleEntry("r1", "h1", false, time.Now())))
	ok, err = s.Succeeded(ctx, "h1")
	require.NoError(t, err)
	assert.False(t, ok, "failed runs do not count")

	partial := sampleEntry("r2", "h1", true, time.Now())
	partial.Partial = true
	require.NoError(t, s.Record(ctx, partial))
	ok, err = s.Succeeded(ctx, "h1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEntryFromOutcome(t *testing.T) {
	out := &types.Outcome{
		RunID:    "run",
		Path:     "/data/talk.mp3",
		Format:   types.FormatAudio,
		Strategy: types.StrategyAudioChunked,
		Success:  true,
		Partial:  true,
		Markdown: "# talk.mp3\n\nh\u00e9",
		Units:    2,
		Attempts: 5,
	}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	e := EntryFromOutcome(out, "abc", "/out/talk.md", at)

	assert.Equal(t, "talk.mp3", e.Name)
	assert.Equal(t, "abc", e.Hash)
	assert.Equal(t, 14, e.TextLength, "counted in runes")
	assert.Equal(t, time.UTC, e.ProcessedAt.Location())
	assert.Equal(t, "/out/talk.md", e.OutputPath)
	assert.True(t, e.Partial)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Record(ctx, sampleEntry("r1", "h1", true, time.Now())))
	require.NoError(t, s.Record(ctx, sampleEntry("r2", "h2", false, time.Now())))

	var jb bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &jb, ListOptions{}))
	var fromJSON []Entry
	require.NoError(t, json.Unmarshal(jb.Bytes(), &fromJSON))
	assert.Len(t, fromJSON, 2)

	var yb bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &yb, ListOptions{FailedOnly: true}))
	var fromYAML []map[string]any
	require.NoError(t, yaml.Unmarshal(yb.Bytes(), &fromYAML))
	require.Len(t, fromYAML, 1)
	assert.Equal(t, "r2", fromYAML[0]["run_id"])
}

func TestExport_Empty(t *testing.T) {
	s := testStore(t)
	var b bytes.Buffer
	require.NoError(t, s.ExportJSON(context.Background(), &b, ListOptions{}))
	assert.Equal(t, "[]\n", b.String())
}
