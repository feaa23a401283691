// Package analyze scores individual paragraphs and aggregates document
// level statistics.
package analyze

import "minddoc/internal/textfeat"

// Comment kinds.
const (
	KindError   = "error"
	KindWarning = "warning"
	KindInfo    = "info"
	KindSuccess = "success"
)

// Comment priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Comment is an immutable finding attached to a paragraph. Re-analysis
// replaces a paragraph's comment list wholesale.
type Comment struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Priority string `json:"priority"`
}

// ParagraphAnalysis is the per-paragraph metrics bundle. Index is assigned
// once at structure extraction and never changes; OriginalText is the
// snapshot taken before any edits.
type ParagraphAnalysis struct {
	Index        int               `json:"paragraph_index"`
	Text         string            `json:"text"`
	OriginalText string            `json:"original_text"`
	WordCount    int               `json:"word_count"`
	CharCount    int               `json:"char_count"`
	Readability  float64           `json:"readability"`
	Entities     []textfeat.Entity `json:"entities"`
	PassiveCount int               `json:"passive_count"`
	Comments     []Comment         `json:"comments"`
	RiskScore    int               `json:"risk_score"`
}

// OverallAnalysis is the document-level aggregate, computed once when a job
// completes.
type OverallAnalysis struct {
	TotalParagraphs    int     `json:"total_paragraphs"`
	TotalWords         int     `json:"total_words"`
	AverageReadability float64 `json:"average_readability"`
	TotalEntities      int     `json:"total_entities"`
	AverageRisk        float64 `json:"average_risk"`
	OverallScore       float64 `json:"overall_score"`
}
