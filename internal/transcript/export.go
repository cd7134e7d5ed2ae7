// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format is an export target.
type Format string

const (
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
	FormatJSON Format = "json"
	FormatTXT  Format = "txt"
)

// Formats lists the supported export targets.
var Formats = []Format{FormatSRT, FormatVTT, FormatJSON, FormatTXT}

// Extension returns the file extension for f, with the dot.
func (f Format) Extension() string { return "." + string(f) }

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported export format %q (want one of %v)", s, Formats)
}

// Export renders the transcript in content as f.
func Export(content string, f Format) (string, error) {
	segs := ParseOrWhole(content)
	switch f {
	case FormatSRT:
		return SRT(segs), nil
	case FormatVTT:
		return VTT(segs), nil
	case FormatJSON:
		return JSON(segs)
	case FormatTXT:
		return TXT(segs), nil
	}
	return "", fmt.Errorf("unsupported export format %q", f)
}

// ExportFile converts the Markdown file at in and writes the result to out.
// An empty out writes next to in with the format's extension. It returns
// the path written.
func ExportFile(in string, f Format, out string) (string, error) {
	data, err := os.ReadFile(in)
	if err != nil {
		return "", fmt.Errorf("reading transcript: %w", err)
	}
	rendered, err := Export(stripFrontmatter(string(data)), f)
	if err != nil {
		return "", err
	}
	if out == "" {
		out = strings.TrimSuffix(in, filepath.Ext(in)) + f.Extension()
	}
	if err := os.WriteFile(out, []byte(rendered), 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", out, err)
	}
	return out, nil
}

// stripFrontmatter drops a leading YAML frontmatter block.
func stripFrontmatter(s string) string {
	if !strings.HasPrefix(s, "---\n") {
		return s
	}
	rest := s[len("---\n"):]
	if i := strings.Index(rest, "\n---\n"); i >= 0 {
		return rest[i+len("\n---\n"):]
	}
	return s
}

// SRT renders SubRip cues. Speakers are prefixed in brackets.
func SRT(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		fmt.Fprintf(&b, "%d\n", s.Index)
		fmt.Fprintf(&b, "%s --> %s\n", clock(s.Start, ','), clock(s.End, ','))
		text := s.Text
		if s.Speaker != "" {
			text = "[" + s.Speaker + "] " + text
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// VTT renders WebVTT cues with voice spans for speakers.
func VTT(segs []Segment) string {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, s := range segs {
		fmt.Fprintf(&b, "%s --> %s\n", clock(s.Start, '.'), clock(s.End, '.'))
		text := s.Text
		if s.Speaker != "" {
			text = "<v " + s.Speaker + ">" + text
		}
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return b.String()
}

type jsonDocument struct {
	Format   string        `json:"format"`
	Version  string        `json:"version"`
	Segments []jsonSegment `json:"segments"`
}

type jsonSegment struct {
	Index     int     `json:"index"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Text      string  `json:"text"`
	Speaker   *string `json:"speaker"`
}

// JSON renders cues as an indented JSON document. Times are in seconds.
func JSON(segs []Segment) (string, error) {
	doc := jsonDocument{Format: "docpipe transcript", Version: "1.0", Segments: make([]jsonSegment, len(segs))}
	for i, s := range segs {
		js := jsonSegment{
			Index:     s.Index,
			StartTime: s.Start.Seconds(),
			EndTime:   s.End.Seconds(),
			Text:      s.Text,
		}
		if s.Speaker != "" {
			sp := s.Speaker
			js.Speaker = &sp
		}
		doc.Segments[i] = js
	}
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding transcript: %w", err)
	}
	return string(out), nil
}

// TXT renders one line per cue with Markdown removed.
func TXT(segs []Segment) string {
	lines := make([]string, 0, len(segs))
	for _, s := range segs {
		text := PlainText(s.Text)
		if s.Speaker != "" {
			text = s.Speaker + ": " + text
		}
		lines = append(lines, text)
	}
	return strings.Join(lines, "\n")
}

// clock formats d as HH:MM:SS followed by sep and milliseconds.
func clock(d time.Duration, sep byte) string {
	ms := d.Milliseconds()
	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d%c%03d", h, m, s, sep, ms%1000)
}
