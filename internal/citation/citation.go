// Package citation derives page citations from finished assistant text.
package citation

import (
	"regexp"
	"strconv"

	"github.com/quillview/pagetutor/internal/domain"
)

// The server never sends citations; they are always re-derived from the
// complete response text. Matching is case-sensitive and non-overlapping.
var markerPattern = regexp.MustCompile(`\[Page (\d+)\]`)

// Extract returns every page-reference marker in text, in order of first
// appearance. Duplicate markers for the same page each produce an entry.
// Malformed markers are left alone and produce nothing.
func Extract(text string) []domain.Citation {
	matches := markerPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	citations := make([]domain.Citation, 0, len(matches))
	for _, m := range matches {
		page, err := strconv.Atoi(m[1])
		if err != nil {
			// Unreachable with the digit-only pattern, but a marker that
			// overflows int is not a usable citation either.
			continue
		}
		citations = append(citations, domain.Citation{
			PageNumber: page,
			Text:       m[0],
		})
	}
	return citations
}
