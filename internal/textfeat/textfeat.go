// Package textfeat extracts linguistic features from plain text. Every
// function is deterministic and side-effect-free so extractors can be shared
// across concurrent jobs.
package textfeat

import (
	"regexp"
	"strings"
)

var wordPattern = regexp.MustCompile(`[A-Za-z']+`)
var sentencePattern = regexp.MustCompile(`[.!?]+`)

// Features bundles everything the paragraph analyzer needs from one text.
type Features struct {
	Readability  float64
	Entities     []Entity
	PassiveCount int
}

func Extract(text string) Features {
	return Features{
		Readability:  FleschReadingEase(text),
		Entities:     DetectEntities(text),
		PassiveCount: CountPassiveVoice(text),
	}
}

// FleschReadingEase scores text on the standard Flesch scale. Higher is
// easier; typical prose lands between 30 and 80.
func FleschReadingEase(text string) float64 {
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}
	sentences := countSentences(text)
	if sentences < 1 {
		sentences = 1
	}

	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	wordsPerSentence := float64(len(words)) / float64(sentences)
	syllablesPerWord := float64(syllables) / float64(len(words))
	return 206.835 - 1.015*wordsPerSentence - 84.6*syllablesPerWord
}

func countSentences(text string) int {
	count := 0
	for _, s := range sentencePattern.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			count++
		}
	}
	return count
}

// countSyllables approximates syllables as vowel groups, discounting a
// trailing silent e. Never returns less than 1.
func countSyllables(word string) int {
	word = strings.ToLower(strings.Trim(word, "'"))
	if word == "" {
		return 1
	}

	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}

func tokenize(text string) []string {
	return wordPattern.FindAllString(text, -1)
}
