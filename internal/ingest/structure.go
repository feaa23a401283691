package ingest

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStructure marks documents that exceed structural limits. A job that
// hits it fails before any paragraph is analyzed.
var ErrStructure = errors.New("document structure limit exceeded")

// Paragraphs splits normalized document text into its ordered paragraph
// sequence. Whitespace-only paragraphs are dropped; a paragraph's index is
// its position in the filtered sequence. When the filtered count exceeds
// maxParagraphs the whole document is rejected.
func Paragraphs(text string, maxParagraphs int) ([]string, error) {
	lines := strings.Split(text, "\n")
	paragraphs := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		paragraphs = append(paragraphs, line)
	}

	if maxParagraphs > 0 && len(paragraphs) > maxParagraphs {
		return nil, fmt.Errorf("%w: %d paragraphs, limit %d", ErrStructure, len(paragraphs), maxParagraphs)
	}
	return paragraphs, nil
}
