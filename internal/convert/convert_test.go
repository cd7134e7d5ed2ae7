// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docpipe/internal/ledger"
	"github.com/pdiddy/docpipe/internal/report"
	"github.com/pdiddy/docpipe/pkg/types"
)

// fakeProcessor returns canned outcomes keyed by file base name. Unknown
// names fail.
type fakeProcessor struct {
	outputs map[string]string
	partial map[string]bool
	errors  map[string]error
	calls   []string
}

func (f *fakeProcessor) Process(_ context.Context, path string) (*types.Outcome, error) {
	name := filepath.Base(path)
	f.calls = append(f.calls, name)
	out := &types.Outcome{
		RunID:    "run-" + name,
		Path:     path,
		Format:   formatOf(path),
		Strategy: types.StrategyPDFText,
		Units:    2,
		Duration: 250 * time.Millisecond,
	}
	if err, ok := f.errors[name]; ok {
		out.State = types.StateFailed
		out.Error = err.Error()
		return out, err
	}
	body, ok := f.outputs[name]
	if !ok {
		return out, errors.New("unexpected path: " + path)
	}
	out.State = types.StateDone
	out.Success = true
	out.Markdown = "# " + name + "\n\n" + body
	if f.partial[name] {
		out.Partial = true
		out.Failures = []types.UnitFailure{{Unit: types.Unit{Kind: types.UnitSegment, Index: 1}, Attempts: 4, Error: "asr down"}}
	}
	return out, nil
}

// memLedger is an in-memory Ledger.
type memLedger struct {
	entries []ledger.Entry
	done    map[string]bool
}

func (m *memLedger) Succeeded(_ context.Context, hash string) (bool, error) {
	return m.done[hash], nil
}

func (m *memLedger) Record(_ context.Context, e ledger.Entry) error {
	m.entries = append(m.entries, e)
	if e.Success {
		if m.done == nil {
			m.done = map[string]bool{}
		}
		m.done[e.Hash] = true
	}
	return nil
}

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertFile(t *testing.T) {
	tests := []struct {
		name       string
		proc       *fakeProcessor
		wantStatus report.Status
		wantLog    string
	}{
		{
			name:       "successful conversion",
			proc:       &fakeProcessor{outputs: map[string]string{"doc.pdf": "Content here."}},
			wantStatus: report.StatusConverted,
			wantLog:    "converted: doc.pdf\n",
		},
		{
			name: "partial conversion",
			proc: &fakeProcessor{
				outputs: map[string]string{"doc.pdf": "Content here."},
				partial: map[string]bool{"doc.pdf": true},
			},
			wantStatus: report.StatusConverted,
			wantLog:    "converted: doc.pdf (partial, 1 of 2 units missing)",
		},
		{
			name:       "processing failure",
			proc:       &fakeProcessor{errors: map[string]error{"doc.pdf": errors.New("document could not be opened")}},
			wantStatus: report.StatusFailed,
			wantLog:    "failed:  doc.pdf (document could not be opened)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := t.TempDir()
			out := filepath.Join(t.TempDir(), "md")
			path := writeInput(t, in, "doc.pdf", "%PDF-1.4")
			led := &memLedger{}
			c := New(tt.proc, out, WithLedger(led))

			var log bytes.Buffer
			res := c.ConvertFile(context.Background(), path, &log)

			if res.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", res.Status, tt.wantStatus)
			}
			if !strings.Contains(log.String(), tt.wantLog) {
				t.Errorf("log output %q does not contain %q", log.String(), tt.wantLog)
			}
			if len(led.entries) != 1 {
				t.Fatalf("ledger entries = %d, want 1", len(led.entries))
			}
			if led.entries[0].Success != (tt.wantStatus == report.StatusConverted) {
				t.Errorf("ledger success = %v", led.entries[0].Success)
			}
			_, statErr := os.Stat(filepath.Join(out, "doc.md"))
			if tt.wantStatus == report.StatusFailed && statErr == nil {
				t.Error("failed conversion must not write Markdown")
			}
			if tt.wantStatus == report.StatusConverted && statErr != nil {
				t.Errorf("expected Markdown output: %v", statErr)
			}
		})
	}
}

func TestConvertFile_Frontmatter(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	path := writeInput(t, in, "talk.mp3", "ID3")
	proc := &fakeProcessor{outputs: map[string]string{"talk.mp3": "[00:00:00] hello"}}
	c := New(proc, out)
	c.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	var log bytes.Buffer
	res := c.ConvertFile(context.Background(), path, &log)
	if res.Status != report.StatusConverted {
		t.Fatalf("expected converted, got %q (%s)", res.Status, res.Error)
	}

	data, err := os.ReadFile(filepath.Join(out, "talk.md"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "---\n") {
		t.Fatal("output should start with YAML frontmatter delimiter")
	}
	end := strings.Index(content[4:], "\n---\n")
	if end < 0 {
		t.Fatal("frontmatter is not terminated")
	}
	var fm map[string]any
	if err := yaml.Unmarshal([]byte(content[4:4+end]), &fm); err != nil {
		t.Fatalf("frontmatter is not YAML: %v", err)
	}
	if fm["source"] != path {
		t.Errorf("source = %v, want %s", fm["source"], path)
	}
	if fm["format"] != "audio" {
		t.Errorf("format = %v", fm["format"])
	}
	if fm["run_id"] != "run-talk.mp3" {
		t.Errorf("run_id = %v", fm["run_id"])
	}
	if fm["converted_at"] != "2026-02-03T04:05:06Z" {
		t.Errorf("converted_at = %v", fm["converted_at"])
	}
	if fm["partial"] != false {
		t.Errorf("partial = %v", fm["partial"])
	}
	if !strings.Contains(content, "---\n\n# talk.mp3\n\n[00:00:00] hello\n") {
		t.Errorf("body missing from output:\n%s", content)
	}
	if res.TextLength == 0 || res.Output != filepath.Join(out, "talk.md") {
		t.Errorf("unexpected report row %+v", res)
	}
}

func TestConvertFile_MissingInput(t *testing.T) {
	c := New(&fakeProcessor{}, t.TempDir())
	var log bytes.Buffer
	res := c.ConvertFile(context.Background(), filepath.Join(t.TempDir(), "gone.pdf"), &log)
	if res.Status != report.StatusFailed {
		t.Errorf("status = %q, want failed", res.Status)
	}
	if !strings.HasPrefix(log.String(), "failed:  gone.pdf") {
		t.Errorf("log = %q", log.String())
	}
}

func TestConvertBatch(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	a := writeInput(t, in, "a.pdf", "pdf a")
	b := writeInput(t, in, "b.pdf", "pdf b")
	c := writeInput(t, in, "c.mp4", "video c")

	// b already converted in an earlier run.
	hashB, err := ledger.FileHash(b)
	if err != nil {
		t.Fatal(err)
	}
	led := &memLedger{done: map[string]bool{hashB: true}}

	proc := &fakeProcessor{
		outputs: map[string]string{"a.pdf": "Paper A", "b.pdf": "Paper B"},
		errors:  map[string]error{"c.mp4": errors.New("no audio stream")},
	}
	conv := New(proc, out, WithLedger(led))

	var log bytes.Buffer
	result := conv.ConvertBatch(context.Background(), []string{a, b, c}, in, &log)

	if result.Converted != 1 {
		t.Errorf("converted = %d, want 1", result.Converted)
	}
	if result.Skipped != 1 {
		t.Errorf("skipped = %d, want 1", result.Skipped)
	}
	if result.Failed != 1 {
		t.Errorf("failed = %d, want 1", result.Failed)
	}
	if !result.HasFailures() {
		t.Error("HasFailures should be true")
	}
	if result.Total() != 3 {
		t.Errorf("total = %d, want 3", result.Total())
	}
	if got := strings.Join(proc.calls, ","); got != "a.pdf,c.mp4" {
		t.Errorf("processed %s, want a.pdf,c.mp4", got)
	}

	output := log.String()
	if !strings.Contains(output, "skipped: b.pdf (already converted)") {
		t.Errorf("missing skip line in %q", output)
	}
	if !strings.Contains(output, "\nBatch summary: 1 converted, 1 skipped, 1 failed (total: 3)\n") {
		t.Errorf("missing summary line in %q", output)
	}

	rep := result.Report
	if rep.TotalFiles != 3 || rep.Failed != 1 || rep.Results[2].Error != "no audio stream" {
		t.Errorf("unexpected report %+v", rep)
	}
	if rep.Results[1].Type != types.FormatPDF {
		t.Errorf("skipped row type = %q", rep.Results[1].Type)
	}
}

func TestConvertBatch_ForceIgnoresLedger(t *testing.T) {
	in := t.TempDir()
	a := writeInput(t, in, "a.pdf", "pdf a")
	hash, err := ledger.FileHash(a)
	if err != nil {
		t.Fatal(err)
	}
	led := &memLedger{done: map[string]bool{hash: true}}
	proc := &fakeProcessor{outputs: map[string]string{"a.pdf": "again"}}

	var log bytes.Buffer
	result := New(proc, t.TempDir(), WithLedger(led), WithForce(true)).
		ConvertBatch(context.Background(), []string{a}, in, &log)
	if result.Converted != 1 || result.Skipped != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestConvertBatch_RerunSkipsWithRealLedger(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	a := writeInput(t, in, "a.pdf", "pdf a")

	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	proc := &fakeProcessor{outputs: map[string]string{"a.pdf": "Paper A"}}
	conv := New(proc, out, WithLedger(store))

	var log bytes.Buffer
	first := conv.ConvertBatch(context.Background(), []string{a}, in, &log)
	second := conv.ConvertBatch(context.Background(), []string{a}, in, &log)

	if first.Converted != 1 {
		t.Errorf("first run converted = %d", first.Converted)
	}
	if second.Skipped != 1 {
		t.Errorf("second run skipped = %d", second.Skipped)
	}
	if len(proc.calls) != 1 {
		t.Errorf("processor called %d times, want 1", len(proc.calls))
	}
}

func TestConvertBatch_CancelledStops(t *testing.T) {
	in := t.TempDir()
	a := writeInput(t, in, "a.pdf", "pdf a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &fakeProcessor{outputs: map[string]string{"a.pdf": "A"}}
	var log bytes.Buffer
	result := New(proc, t.TempDir()).ConvertBatch(ctx, []string{a}, in, &log)
	if result.Total() != 0 || len(proc.calls) != 0 {
		t.Errorf("cancelled batch processed files: %+v", result)
	}
}
