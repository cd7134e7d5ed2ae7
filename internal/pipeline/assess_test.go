// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/docpipe/pkg/types"
)

func TestCountChars(t *testing.T) {
	assert.Equal(t, 0, CountChars(""))
	assert.Equal(t, 0, CountChars(" \n\t "))
	assert.Equal(t, 5, CountChars("  hello \n"))
	// "é" as e + combining acute composes to one rune.
	assert.Equal(t, 4, CountChars("cafe\u0301"))
	assert.Equal(t, 3, CountChars("日本語"))
	assert.Equal(t, 2, CountChars("\x00+\x00H\x03"), "control characters do not count")
	assert.Equal(t, 4, CountChars("a\nb c"), "line breaks do not count")
}

func TestAssessPage_Threshold(t *testing.T) {
	tests := []struct {
		name  string
		chars int
		want  types.Decision
	}{
		{"empty", 0, types.DecisionOCR},
		{"just below", 49, types.DecisionOCR},
		{"exactly at", 50, types.DecisionText},
		{"well above", 150, types.DecisionText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AssessPage(7, strings.Repeat("x", tt.chars), 50)
			assert.Equal(t, tt.want, got.Decision)
			assert.Equal(t, tt.chars, got.Chars)
			assert.Equal(t, 7, got.Index)
		})
	}
}

func TestAssessPages_ReadErrorRoutesToOCR(t *testing.T) {
	doc := &fakeDoc{
		pages:   []string{strings.Repeat("a", 80), strings.Repeat("b", 80)},
		textErr: map[int]error{1: errors.New("bad content stream")},
	}
	pages := AssessPages(doc, 50)
	assert.Equal(t, types.DecisionText, pages[0].Decision)
	assert.Equal(t, types.DecisionOCR, pages[1].Decision)
	assert.Equal(t, 0, pages[1].Chars)
}

func TestPDFStrategy(t *testing.T) {
	page := func(d types.Decision) types.PageAssessment { return types.PageAssessment{Decision: d} }
	text, ocr := page(types.DecisionText), page(types.DecisionOCR)

	tests := []struct {
		name  string
		pages []types.PageAssessment
		want  types.Strategy
	}{
		{"no pages", nil, types.StrategyPDFText},
		{"all text", []types.PageAssessment{text, text, text}, types.StrategyPDFText},
		{"all ocr", []types.PageAssessment{ocr, ocr}, types.StrategyPDFOCR},
		{"single ocr", []types.PageAssessment{ocr}, types.StrategyPDFOCR},
		{"mixed", []types.PageAssessment{text, ocr, text}, types.StrategyPDFHybrid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PDFStrategy(tt.pages))
		})
	}
}

func TestAssessPages_HybridScenario(t *testing.T) {
	doc := &fakeDoc{pages: []string{strings.Repeat("a", 200), strings.Repeat("b", 10), strings.Repeat("c", 150)}}
	got := AssessPages(doc, 50)
	assert.Equal(t, []types.PageAssessment{
		{Index: 0, Chars: 200, Decision: types.DecisionText},
		{Index: 1, Chars: 10, Decision: types.DecisionOCR},
		{Index: 2, Chars: 150, Decision: types.DecisionText},
	}, got)
	assert.Equal(t, types.StrategyPDFHybrid, PDFStrategy(got))
}

func TestAssessPages_ManyPages(t *testing.T) {
	// 200 pages: ten scanned pages with 10 characters, the rest with 150.
	pages := make([]string, 200)
	scanned := map[int]bool{}
	for _, i := range []int{0, 3, 17, 42, 43, 99, 120, 150, 198, 199} {
		scanned[i] = true
	}
	for i := range pages {
		if scanned[i] {
			pages[i] = strings.Repeat("s", 10)
		} else {
			pages[i] = strings.Repeat("t", 150)
		}
	}

	got := AssessPages(&fakeDoc{pages: pages}, 50)
	assert.Len(t, got, 200)
	var ocrCount int
	for i, p := range got {
		assert.Equal(t, i, p.Index)
		if p.Decision == types.DecisionOCR {
			ocrCount++
			assert.True(t, scanned[i], "page %d should be text", i)
		}
	}
	assert.Equal(t, 10, ocrCount)
	assert.Equal(t, types.StrategyPDFHybrid, PDFStrategy(got))
}
