package textfeat

import (
	"regexp"
	"strings"
)

var auxiliaryPattern = regexp.MustCompile(`(?i)\b(am|is|are|was|were|be|been|being)\s+([a-z']+)\b`)

// Participles that do not end in -ed but still signal passive constructions.
var irregularParticiples = map[string]struct{}{
	"known": {}, "seen": {}, "taken": {}, "given": {}, "made": {},
	"done": {}, "found": {}, "held": {}, "shown": {}, "told": {},
	"written": {}, "brought": {}, "built": {}, "bought": {}, "caught": {},
	"chosen": {}, "driven": {}, "eaten": {}, "broken": {}, "kept": {},
	"left": {}, "lost": {}, "meant": {}, "paid": {}, "put": {},
	"read": {}, "sent": {}, "set": {}, "sold": {}, "spent": {},
	"taught": {}, "thought": {}, "thrown": {}, "understood": {}, "won": {}, "worn": {},
}

// Words ending in -ed that follow an auxiliary without being participles.
var edExceptions = map[string]struct{}{
	"red": {}, "bed": {}, "wicked": {}, "naked": {}, "sacred": {},
	"hundred": {}, "indeed": {},
}

// CountPassiveVoice counts auxiliary-plus-participle constructions, the
// same signal the nsubjpass dependency tag gives a full parser.
func CountPassiveVoice(text string) int {
	count := 0
	for _, m := range auxiliaryPattern.FindAllStringSubmatch(text, -1) {
		candidate := strings.ToLower(m[2])
		if _, ok := irregularParticiples[candidate]; ok {
			count++
			continue
		}
		if strings.HasSuffix(candidate, "ed") && len(candidate) > 3 {
			if _, skip := edExceptions[candidate]; !skip {
				count++
			}
		}
	}
	return count
}
