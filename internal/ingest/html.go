package ingest

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractHTML returns the visible text of an HTML document, with scripts and
// styles removed and block text joined by newlines.
func extractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	doc.Find("script, style, noscript").Remove()

	var parts []string
	doc.Find("body").Each(func(_ int, body *goquery.Selection) {
		text := strings.TrimSpace(body.Text())
		if text != "" {
			parts = append(parts, text)
		}
	})

	// Documents without a body tag still carry text at the root.
	if len(parts) == 0 {
		text := strings.TrimSpace(doc.Text())
		if text != "" {
			parts = append(parts, text)
		}
	}

	return collapseBlankLines(strings.Join(parts, "\n")), nil
}

func collapseBlankLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, trimmed)
	}
	return strings.Join(out, "\n")
}
