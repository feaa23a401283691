package textfeat

import (
	"strings"
	"unicode"
)

// Entity labels follow the usual NER conventions.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
	LabelLoc    = "LOC"
	LabelMisc   = "MISC"
)

type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// IsPersonOrOrg reports whether the entity carries a person-like or
// organization-like label.
func (e Entity) IsPersonOrOrg() bool {
	return e.Label == LabelPerson || e.Label == LabelOrg
}

var honorifics = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {},
	"president": {}, "senator": {}, "captain": {}, "judge": {},
}

var orgSuffixes = map[string]struct{}{
	"inc": {}, "corp": {}, "ltd": {}, "llc": {}, "co": {},
	"company": {}, "corporation": {}, "university": {}, "institute": {},
	"agency": {}, "department": {}, "bank": {}, "group": {},
	"committee": {}, "association": {}, "foundation": {},
}

var commonStarters = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "this": {}, "that": {},
	"these": {}, "those": {}, "his": {}, "her": {}, "their": {}, "our": {},
	"in": {}, "on": {}, "at": {}, "by": {}, "for": {}, "with": {},
	"from": {}, "after": {}, "before": {}, "when": {}, "while": {},
}

var locPrepositions = map[string]struct{}{
	"in": {}, "at": {}, "from": {}, "near": {}, "to": {},
}

// DetectEntities finds capitalized spans and classifies each one. A single
// capitalized word opening a sentence is ignored unless an honorific
// precedes it or an organization suffix follows, which keeps ordinary
// sentence-initial words out of the entity list.
func DetectEntities(text string) []Entity {
	tokens := strings.Fields(text)
	entities := []Entity{}

	sentenceStart := true
	for i := 0; i < len(tokens); i++ {
		word := trimToken(tokens[i])
		if word == "" {
			sentenceStart = endsSentence(tokens[i])
			continue
		}
		if !isCapitalized(word) {
			sentenceStart = endsSentence(tokens[i])
			continue
		}
		// Honorifics qualify the following name, they are not entities.
		if _, ok := honorifics[strings.ToLower(word)]; ok {
			sentenceStart = endsSentence(tokens[i])
			continue
		}

		// Collect the full capitalized span.
		span := []string{word}
		start := i
		for i+1 < len(tokens) && !endsSentence(tokens[i]) {
			next := trimToken(tokens[i+1])
			if next == "" || !isCapitalized(next) {
				break
			}
			i++
			span = append(span, next)
		}

		// A sentence-initial determiner is capitalization, not naming.
		if sentenceStart && len(span) > 1 {
			if _, common := commonStarters[strings.ToLower(span[0])]; common {
				span = span[1:]
				start++
				sentenceStart = false
			}
		}

		label, keep := classifySpan(span, tokens, start, sentenceStart)
		if keep {
			entities = append(entities, Entity{Text: strings.Join(span, " "), Label: label})
		}
		sentenceStart = endsSentence(tokens[i])
	}
	return entities
}

func classifySpan(span, tokens []string, start int, sentenceStart bool) (string, bool) {
	last := strings.ToLower(strings.TrimRight(trimToken(span[len(span)-1]), "."))
	if _, ok := orgSuffixes[last]; ok {
		return LabelOrg, true
	}

	prevHonorific := false
	prevPreposition := false
	if start > 0 {
		prev := strings.ToLower(strings.TrimRight(tokens[start-1], "."))
		_, prevHonorific = honorifics[prev]
		_, prevPreposition = locPrepositions[prev]
	}

	if prevHonorific {
		return LabelPerson, true
	}
	if len(span) == 1 {
		if sentenceStart {
			return "", false
		}
		if prevPreposition {
			return LabelLoc, true
		}
		return LabelMisc, true
	}
	if sentenceStart && len(span) < 2 {
		return "", false
	}
	return LabelPerson, true
}

func trimToken(token string) string {
	return strings.TrimFunc(token, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isCapitalized(word string) bool {
	r := []rune(word)
	return len(r) > 0 && unicode.IsUpper(r[0]) && len(r) > 1 && unicode.IsLower(r[1])
}

func endsSentence(token string) bool {
	return strings.ContainsAny(token, ".!?")
}
