// Package jobstore holds the authoritative record of every analysis job.
package jobstore

import (
	"errors"
	"fmt"
	"time"

	"minddoc/internal/analyze"
	"minddoc/internal/textfeat"
)

type Status string

const (
	StatusQueued     = Status("queued")
	StatusProcessing = Status("processing")
	StatusCompleted  = Status("completed")
	StatusFailed     = Status("failed")
)

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

var statusRank = map[Status]int{
	StatusQueued:     0,
	StatusProcessing: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
}

// ErrNotFound covers unknown and expired job ids.
var ErrNotFound = errors.New("job not found")

// LogLine is one structured entry in a job's processing log.
type LogLine struct {
	Time    string `json:"time"`
	Level   string `json:"level"`
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

// Job is one document-analysis request and its evolving state. It is only
// mutated through Store.Update, which serializes writers.
type Job struct {
	ID          string                      `json:"job_id"`
	Status      Status                      `json:"status"`
	Message     string                      `json:"message"`
	FileName    string                      `json:"file_name"`
	FilePath    string                      `json:"file_path"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	ExpiresAt   time.Time                   `json:"expires_at"`
	Paragraphs  []analyze.ParagraphAnalysis `json:"paragraph_analyses,omitempty"`
	Overall     *analyze.OverallAnalysis    `json:"overall_analysis,omitempty"`
	Suggestions []string                    `json:"suggestions,omitempty"`
	Logs        []LogLine                   `json:"logs,omitempty"`
}

// Transition advances the job status. Transitions only move forward
// (queued -> processing -> completed|failed) and terminal states absorb.
func (j *Job) Transition(to Status, message string) error {
	if j.Status.Terminal() {
		return fmt.Errorf("job %s is %s, cannot transition to %s", j.ID, j.Status, to)
	}
	if statusRank[to] <= statusRank[j.Status] {
		return fmt.Errorf("job %s cannot move from %s to %s", j.ID, j.Status, to)
	}
	j.Status = to
	j.Message = message
	return nil
}

// Expired reports whether the retention window has passed.
func (j *Job) Expired(now time.Time) bool {
	return !j.ExpiresAt.IsZero() && now.After(j.ExpiresAt)
}

// Clone returns a deep copy so readers never share slices with the stored
// record. Empty slices stay empty rather than collapsing to nil, so a clone
// compares equal to the source.
func (j *Job) Clone() *Job {
	out := *j
	if j.Paragraphs != nil {
		out.Paragraphs = make([]analyze.ParagraphAnalysis, len(j.Paragraphs))
		for i, p := range j.Paragraphs {
			out.Paragraphs[i] = cloneParagraph(p)
		}
	}
	if j.Overall != nil {
		overall := *j.Overall
		out.Overall = &overall
	}
	if j.Suggestions != nil {
		out.Suggestions = make([]string, len(j.Suggestions))
		copy(out.Suggestions, j.Suggestions)
	}
	if j.Logs != nil {
		out.Logs = make([]LogLine, len(j.Logs))
		copy(out.Logs, j.Logs)
	}
	return &out
}

func cloneParagraph(p analyze.ParagraphAnalysis) analyze.ParagraphAnalysis {
	out := p
	if p.Entities != nil {
		out.Entities = make([]textfeat.Entity, len(p.Entities))
		copy(out.Entities, p.Entities)
	}
	if p.Comments != nil {
		out.Comments = make([]analyze.Comment, len(p.Comments))
		copy(out.Comments, p.Comments)
	}
	return out
}
