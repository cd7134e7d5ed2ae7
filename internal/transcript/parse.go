// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transcript reads timestamped Markdown transcripts and exports
// them as SRT, WebVTT, JSON or plain text.
package transcript

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// defaultCue is the length given to cues whose line carries only a start
// time.
const defaultCue = 5 * time.Second

// Segment is one cue of a transcript. Index is 1-based.
type Segment struct {
	Index   int
	Start   time.Duration
	End     time.Duration
	Text    string
	Speaker string
}

var (
	rangeLine   = regexp.MustCompile(`^\[(\d{1,2}:\d{2}:\d{2})\s*-\s*(\d{1,2}:\d{2}:\d{2})\]\s*(.+)`)
	stampLine   = regexp.MustCompile(`^\[(\d{1,2}:\d{2}:\d{2})\]\s*(.+)`)
	speakerLine = regexp.MustCompile(`^\*\*(.+?)\*\*\s*\[(\d{1,2}:\d{2}:\d{2})\]:\s*(.+)`)
)

// Parse extracts cues from lines of the forms
//
//	[HH:MM:SS - HH:MM:SS] text
//	[HH:MM:SS] text
//	**Speaker** [HH:MM:SS]: text
//
// Other lines, including gap markers, are ignored.
func Parse(content string) []Segment {
	var segs []Segment
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		seg, ok := parseLine(line)
		if !ok {
			continue
		}
		seg.Index = len(segs) + 1
		segs = append(segs, seg)
	}
	return segs
}

// ParseOrWhole parses content and, when no line carries a timestamp,
// returns the whole document as a single zero-length cue.
func ParseOrWhole(content string) []Segment {
	if segs := Parse(content); len(segs) > 0 {
		return segs
	}
	return []Segment{{Index: 1, Text: content}}
}

func parseLine(line string) (Segment, bool) {
	if m := rangeLine.FindStringSubmatch(line); m != nil {
		start, ok1 := ParseTimestamp(m[1])
		end, ok2 := ParseTimestamp(m[2])
		if ok1 && ok2 {
			return Segment{Start: start, End: end, Text: m[3]}, true
		}
	}
	if m := stampLine.FindStringSubmatch(line); m != nil {
		if start, ok := ParseTimestamp(m[1]); ok {
			return Segment{Start: start, End: start + defaultCue, Text: m[2]}, true
		}
	}
	if m := speakerLine.FindStringSubmatch(line); m != nil {
		if start, ok := ParseTimestamp(m[2]); ok {
			return Segment{Start: start, End: start + defaultCue, Text: m[3], Speaker: m[1]}, true
		}
	}
	return Segment{}, false
}

// ParseTimestamp reads H:MM:SS, HH:MM:SS or MM:SS.
func ParseTimestamp(ts string) (time.Duration, bool) {
	parts := strings.Split(ts, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}
	var total time.Duration
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + time.Duration(n)
	}
	return total * time.Second, true
}
