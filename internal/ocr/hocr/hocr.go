// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package hocr turns tesseract hOCR output into Markdown, keeping the
// paragraph structure tesseract detected.
package hocr

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

var conv = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// blankRun collapses the runs of empty lines empty hOCR blocks leave behind.
var blankRun = regexp.MustCompile(`\n{3,}`)

// ToMarkdown converts one hOCR page. Each ocr_par becomes a Markdown
// paragraph; word spans are joined with single spaces.
func ToMarkdown(hocr string) (string, error) {
	if strings.TrimSpace(hocr) == "" {
		return "", nil
	}
	md, err := conv.ConvertString(hocr)
	if err != nil {
		return "", fmt.Errorf("converting hOCR: %w", err)
	}
	md = blankRun.ReplaceAllString(strings.TrimSpace(md), "\n\n")
	return md, nil
}
