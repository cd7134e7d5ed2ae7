// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/pdiddy/docpipe/pkg/types"
)

// CountChars returns the number of graphic characters in text after NFC
// normalisation, so decomposed accents count once. Spaces between words
// count; control characters and line breaks do not.
func CountChars(text string) int {
	var n int
	for _, r := range norm.NFC.String(strings.TrimSpace(text)) {
		if unicode.IsGraphic(r) {
			n++
		}
	}
	return n
}

// AssessPage decides how one page with the given native text is extracted.
func AssessPage(index int, text string, minChars int) types.PageAssessment {
	n := CountChars(text)
	d := types.DecisionOCR
	if n >= minChars {
		d = types.DecisionText
	}
	return types.PageAssessment{Index: index, Chars: n, Decision: d}
}

// AssessPages classifies every page of doc in order. A page whose native
// text cannot be read is assessed as having none, which routes it to OCR.
func AssessPages(doc PDFDocument, minChars int) []types.PageAssessment {
	n := doc.PageCount()
	pages := make([]types.PageAssessment, n)
	for i := 0; i < n; i++ {
		text, err := doc.PageText(i)
		if err != nil {
			text = ""
		}
		pages[i] = AssessPage(i, text, minChars)
	}
	return pages
}

// PDFStrategy aggregates page decisions: all text is pdf_text, all OCR is
// pdf_ocr, anything mixed is pdf_hybrid. A document with no pages has
// nothing to OCR and reports pdf_text.
func PDFStrategy(pages []types.PageAssessment) types.Strategy {
	var text, ocr int
	for _, p := range pages {
		if p.Decision == types.DecisionText {
			text++
		} else {
			ocr++
		}
	}
	switch {
	case ocr == 0:
		return types.StrategyPDFText
	case text == 0:
		return types.StrategyPDFOCR
	default:
		return types.StrategyPDFHybrid
	}
}
