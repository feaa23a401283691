package analyze

import (
	"strings"
	"unicode/utf8"

	"minddoc/internal/textfeat"
)

// Options tunes the analyzer. The zero value disables the word ceiling.
type Options struct {
	MaxWordsPerParagraph int
}

// Analyze sanitizes the text and produces the full analysis bundle for one
// paragraph. It never fails on well-formed input; the caller owns the index.
func Analyze(text string, index int, opts Options) ParagraphAnalysis {
	clean := Sanitize(text)
	features := textfeat.Extract(clean)
	wordCount := len(strings.Fields(clean))

	in := RuleInputs{
		WordCount:   wordCount,
		Readability: features.Readability,
		Features:    features,
		WordCeiling: opts.MaxWordsPerParagraph,
	}

	return ParagraphAnalysis{
		Index:        index,
		Text:         clean,
		OriginalText: clean,
		WordCount:    wordCount,
		CharCount:    utf8.RuneCountInString(clean),
		Readability:  features.Readability,
		Entities:     features.Entities,
		PassiveCount: features.PassiveCount,
		Comments:     BuildComments(in),
		RiskScore:    RiskScore(in),
	}
}

// Reanalyze runs the full analysis for edited text while preserving the
// paragraph's original-text snapshot.
func Reanalyze(prev ParagraphAnalysis, newText string, opts Options) ParagraphAnalysis {
	next := Analyze(newText, prev.Index, opts)
	next.OriginalText = prev.OriginalText
	return next
}
