package analyze

import (
	"fmt"

	"minddoc/internal/textfeat"
)

// RuleInputs is what the comment and risk rules see for one paragraph.
type RuleInputs struct {
	WordCount   int
	Readability float64
	Features    textfeat.Features
	// WordCeiling flags paragraphs above a configured word limit; zero
	// disables the check.
	WordCeiling int
}

type rule func(in RuleInputs) (Comment, bool)

// Rules fire independently and in a fixed order, so the comment list is
// deterministic for identical input.
var commentRules = []rule{
	func(in RuleInputs) (Comment, bool) {
		if in.WordCount >= 10 {
			return Comment{}, false
		}
		return Comment{
			Kind:     KindWarning,
			Message:  "This paragraph is quite short. Consider adding more detail.",
			Priority: PriorityMedium,
		}, true
	},
	func(in RuleInputs) (Comment, bool) {
		if in.WordCount <= 100 {
			return Comment{}, false
		}
		return Comment{
			Kind:     KindInfo,
			Message:  "This paragraph is quite long. Consider splitting it into smaller ones.",
			Priority: PriorityLow,
		}, true
	},
	func(in RuleInputs) (Comment, bool) {
		if in.Readability >= 30 {
			return Comment{}, false
		}
		return Comment{
			Kind:     KindError,
			Message:  "This paragraph is difficult to read. Consider simplifying the language.",
			Priority: PriorityHigh,
		}, true
	},
	func(in RuleInputs) (Comment, bool) {
		if in.Readability <= 80 {
			return Comment{}, false
		}
		return Comment{
			Kind:     KindSuccess,
			Message:  "Excellent readability.",
			Priority: PriorityLow,
		}, true
	},
	func(in RuleInputs) (Comment, bool) {
		if in.Features.PassiveCount == 0 {
			return Comment{}, false
		}
		return Comment{
			Kind:     KindWarning,
			Message:  fmt.Sprintf("Consider using active voice instead of passive voice (%d instances).", in.Features.PassiveCount),
			Priority: PriorityMedium,
		}, true
	},
	func(in RuleInputs) (Comment, bool) {
		if len(in.Features.Entities) == 0 {
			return Comment{}, false
		}
		return Comment{
			Kind:     KindInfo,
			Message:  fmt.Sprintf("Mentions %d named entities.", len(in.Features.Entities)),
			Priority: PriorityLow,
		}, true
	},
	func(in RuleInputs) (Comment, bool) {
		if in.WordCeiling <= 0 || in.WordCount <= in.WordCeiling {
			return Comment{}, false
		}
		return Comment{
			Kind:     KindWarning,
			Message:  fmt.Sprintf("Paragraph exceeds the %d word limit (%d words). Analysis continues but results may be less precise.", in.WordCeiling, in.WordCount),
			Priority: PriorityHigh,
		}, true
	},
}

// BuildComments folds the ordered rule list over the inputs. All applicable
// rules fire; the short/long and low/high readability pairs exclude each
// other through disjoint thresholds.
func BuildComments(in RuleInputs) []Comment {
	comments := []Comment{}
	for _, r := range commentRules {
		if c, ok := r(in); ok {
			comments = append(comments, c)
		}
	}
	return comments
}

// RiskScore computes the 0-10 paragraph risk from the same inputs the
// comment rules consume. All terms are non-negative.
func RiskScore(in RuleInputs) int {
	score := 0
	switch {
	case in.Readability < 30:
		score += 3
	case in.Readability < 50:
		score++
	}
	if in.WordCount < 10 {
		score += 2
	}
	if in.WordCount > 100 {
		score++
	}
	for _, e := range in.Features.Entities {
		if e.IsPersonOrOrg() {
			score++
			break
		}
	}
	if score > 10 {
		score = 10
	}
	return score
}
