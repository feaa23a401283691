package analyze

// Aggregate computes the document-level statistics from a complete set of
// paragraph analyses. It runs once at job completion; edits after that do
// not change the snapshot.
func Aggregate(paragraphs []ParagraphAnalysis) OverallAnalysis {
	overall := OverallAnalysis{TotalParagraphs: len(paragraphs)}
	if len(paragraphs) == 0 {
		return overall
	}

	var readability, risk float64
	for _, p := range paragraphs {
		overall.TotalWords += p.WordCount
		overall.TotalEntities += len(p.Entities)
		readability += p.Readability
		risk += float64(p.RiskScore)
	}
	overall.AverageReadability = readability / float64(len(paragraphs))
	overall.AverageRisk = risk / float64(len(paragraphs))
	overall.OverallScore = clampScore(overall.AverageReadability)
	return overall
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
