// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report writes the summary of a batch run as JSON, YAML and an
// XLSX workbook.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docpipe/pkg/types"
)

// Format is a report file type.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// AllFormats is every format Write knows.
var AllFormats = []Format{FormatJSON, FormatYAML, FormatXLSX}

// Status is the per-file result of a batch.
type Status string

const (
	StatusConverted Status = "converted"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// FileResult is one row of the report.
type FileResult struct {
	File       string         `json:"file" yaml:"file"`
	Type       types.Format   `json:"type" yaml:"type"`
	Status     Status         `json:"status" yaml:"status"`
	Strategy   types.Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Partial    bool           `json:"partial" yaml:"partial"`
	TextLength int            `json:"text_length" yaml:"text_length"`
	Duration   float64        `json:"duration" yaml:"duration"`
	Output     string         `json:"output,omitempty" yaml:"output,omitempty"`
	RunID      string         `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
}

// Batch is the report for one batch run.
type Batch struct {
	Timestamp    time.Time    `json:"timestamp" yaml:"timestamp"`
	InputDir     string       `json:"input_dir" yaml:"input_dir"`
	OutputDir    string       `json:"output_dir" yaml:"output_dir"`
	TotalFiles   int          `json:"total_files" yaml:"total_files"`
	Converted    int          `json:"converted" yaml:"converted"`
	Skipped      int          `json:"skipped" yaml:"skipped"`
	Failed       int          `json:"failed" yaml:"failed"`
	TotalTimeSec float64      `json:"total_time_sec" yaml:"total_time_sec"`
	Results      []FileResult `json:"results" yaml:"results"`
}

// New starts an empty report.
func New(inputDir, outputDir string, at time.Time) *Batch {
	return &Batch{Timestamp: at, InputDir: inputDir, OutputDir: outputDir, Results: []FileResult{}}
}

// Add appends r and updates the counters.
func (b *Batch) Add(r FileResult) {
	b.Results = append(b.Results, r)
	b.TotalFiles++
	b.TotalTimeSec += r.Duration
	switch r.Status {
	case StatusConverted:
		b.Converted++
	case StatusSkipped:
		b.Skipped++
	case StatusFailed:
		b.Failed++
	}
}

// Filename returns batch_report_<YYYYMMDD_HHMMSS>.<ext> for the report's
// timestamp.
func (b *Batch) Filename(f Format) string {
	return fmt.Sprintf("batch_report_%s.%s", b.Timestamp.Format("20060102_150405"), f)
}

// Write renders the report in each format into dir and returns the paths
// written.
func Write(b *Batch, dir string, formats ...Format) ([]string, error) {
	if len(formats) == 0 {
		formats = AllFormats
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}

	var paths []string
	for _, f := range formats {
		data, err := Render(b, f)
		if err != nil {
			return paths, err
		}
		path := filepath.Join(dir, b.Filename(f))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Render encodes the report as f.
func Render(b *Batch, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		data, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshaling JSON: %w", err)
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("marshaling YAML: %w", err)
		}
		return data, nil
	case FormatXLSX:
		return XLSX(b)
	}
	return nil, fmt.Errorf("unknown report format %q", f)
}

const (
	resultsSheet = "Results"
	summarySheet = "Summary"
)

var resultHeaders = []string{
	"File", "Type", "Status", "Strategy", "Partial", "Text Length", "Duration (s)", "Output", "Run ID", "Error",
}

// XLSX renders the report as a workbook with a Results sheet (one row per
// file) and a Summary sheet.
func XLSX(b *Batch) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(resultsSheet)
	f.SetActiveSheet(idx)

	for i, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(resultsSheet, cell, h)
	}
	for i, r := range b.Results {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(resultsSheet, cell, v)
		}
		write(1, r.File)
		write(2, string(r.Type))
		write(3, string(r.Status))
		write(4, string(r.Strategy))
		write(5, r.Partial)
		write(6, r.TextLength)
		write(7, r.Duration)
		write(8, r.Output)
		write(9, r.RunID)
		write(10, truncate(r.Error, 200))
	}

	_ = f.SetColWidth(resultsSheet, "A", "A", 36)
	_ = f.SetColWidth(resultsSheet, "B", "E", 14)
	_ = f.SetColWidth(resultsSheet, "F", "G", 12)
	_ = f.SetColWidth(resultsSheet, "H", "H", 48)
	_ = f.SetColWidth(resultsSheet, "I", "I", 38)
	_ = f.SetColWidth(resultsSheet, "J", "J", 60)

	summary := [][2]any{
		{"Timestamp", b.Timestamp.Format(time.RFC3339)},
		{"Input", b.InputDir},
		{"Output", b.OutputDir},
		{"Total", b.TotalFiles},
		{"Converted", b.Converted},
		{"Skipped", b.Skipped},
		{"Failed", b.Failed},
		{"Total time (s)", b.TotalTimeSec},
	}
	for i, kv := range summary {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+1), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+1), kv[1])
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 16)
	_ = f.SetColWidth(summarySheet, "B", "B", 48)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n-1])) + "…"
}
