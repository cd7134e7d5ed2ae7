// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package hocr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<div class='ocr_page' id='page_1' title='image "scan.png"; bbox 0 0 1700 2200; ppageno 0'>
 <div class='ocr_carea' id='block_1_1' title="bbox 100 100 900 200">
  <p class='ocr_par' id='par_1_1' lang='eng' title="bbox 100 100 900 200">
   <span class='ocr_line' id='line_1_1' title="bbox 100 100 900 140">
    <span class='ocrx_word' id='word_1_1' title='bbox 100 100 300 140; x_wconf 96'>Invoice</span>
    <span class='ocrx_word' id='word_1_2' title='bbox 320 100 400 140; x_wconf 95'>42</span>
   </span>
  </p>
 </div>
 <div class='ocr_carea' id='block_1_2' title="bbox 100 300 900 400">
  <p class='ocr_par' id='par_1_2' lang='eng' title="bbox 100 300 900 400">
   <span class='ocr_line' id='line_1_2' title="bbox 100 300 900 340">
    <span class='ocrx_word' id='word_1_3' title='bbox 100 300 300 340; x_wconf 91'>Total</span>
    <span class='ocrx_word' id='word_1_4' title='bbox 320 300 500 340; x_wconf 90'>due</span>
   </span>
  </p>
 </div>
</div>`

func nonEmptyLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func TestToMarkdown_Paragraphs(t *testing.T) {
	md, err := ToMarkdown(samplePage)
	require.NoError(t, err)

	assert.Equal(t, []string{"Invoice 42", "Total due"}, nonEmptyLines(md))
	assert.Contains(t, md, "\n\n", "paragraphs stay separated")
	assert.NotContains(t, md, "bbox")
	assert.NotContains(t, md, "\n\n\n")
}

func TestToMarkdown_Empty(t *testing.T) {
	md, err := ToMarkdown("  \n")
	require.NoError(t, err)
	assert.Empty(t, md)
}
