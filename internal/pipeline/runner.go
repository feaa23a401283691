// Package pipeline orchestrates document analysis jobs: structure
// extraction, bounded-time paragraph analysis, aggregation and the job
// lifecycle state machine.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"minddoc/internal/analyze"
	"minddoc/internal/config"
	"minddoc/internal/dify"
	"minddoc/internal/ingest"
	"minddoc/internal/jobstore"
)

// Runner owns the analysis pipeline and exposes the job-facing operations.
// Each job runs on a worker off the submitter's path; submitters poll.
type Runner struct {
	store     jobstore.Store
	cfg       config.ProcessingConfig
	maxBytes  int64
	suggester *dify.Client
	pool      *pool

	// now is swapped out by tests to drive the time-budget check.
	now func() time.Time
}

func NewRunner(store jobstore.Store, cfg config.ProcessingConfig, maxBytes int64, suggester *dify.Client) *Runner {
	r := &Runner{
		store:     store,
		cfg:       cfg,
		maxBytes:  maxBytes,
		suggester: suggester,
		now:       time.Now,
	}
	r.pool = newPool(cfg.Workers, cfg.QueueSize, r.run)
	return r
}

// Close drains the worker pool. Submit must not be called afterwards.
func (r *Runner) Close() error {
	return r.pool.close()
}

// Submit registers a new job for the stored file and schedules it. A full
// queue fails the job immediately and returns ErrQueueFull so callers see
// the backpressure. Every job carries a retention expiry from creation, so
// jobs that end up failed are evicted on the same schedule as completed
// ones; completion refreshes the expiry from the completion time.
func (r *Runner) Submit(filePath, fileName string) (string, error) {
	now := r.now()
	job := &jobstore.Job{
		ID:        uuid.NewString(),
		Status:    jobstore.StatusQueued,
		Message:   "Document uploaded and queued for analysis",
		FileName:  fileName,
		FilePath:  filePath,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(r.cfg.Retention),
	}
	if err := r.store.Put(job); err != nil {
		return "", fmt.Errorf("store job: %w", err)
	}
	if err := r.pool.enqueue(job.ID); err != nil {
		r.fail(job.ID, "Analysis queue is full, try again later")
		return job.ID, err
	}
	return job.ID, nil
}

// StatusInfo is the poll response for one job.
type StatusInfo struct {
	Status  jobstore.Status `json:"status"`
	Message string          `json:"message"`
}

func (r *Runner) Status(jobID string) (StatusInfo, error) {
	job, err := r.store.Get(jobID)
	if err != nil {
		return StatusInfo{}, err
	}
	return StatusInfo{Status: job.Status, Message: job.Message}, nil
}

// Results returns the completed job snapshot. Jobs that are still running,
// failed, expired or unknown all read as not found: there is never a
// partial result set.
func (r *Runner) Results(jobID string) (*jobstore.Job, error) {
	job, err := r.store.Get(jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != jobstore.StatusCompleted {
		return nil, jobstore.ErrNotFound
	}
	return job, nil
}

// UpdateParagraph re-analyzes a single edited paragraph of a completed job
// and patches it in place. The original-text snapshot survives the edit and
// the overall analysis keeps its completion-time values.
func (r *Runner) UpdateParagraph(jobID string, index int, newText string) (analyze.ParagraphAnalysis, error) {
	var updated analyze.ParagraphAnalysis
	err := r.store.Update(jobID, func(job *jobstore.Job) error {
		if job.Status != jobstore.StatusCompleted {
			return jobstore.ErrNotFound
		}
		if index < 0 || index >= len(job.Paragraphs) {
			return fmt.Errorf("%w: %d of %d paragraphs", ErrInvalidIndex, index, len(job.Paragraphs))
		}
		updated = analyze.Reanalyze(job.Paragraphs[index], newText, r.analyzeOptions())
		job.Paragraphs[index] = updated
		return nil
	})
	if err != nil {
		return analyze.ParagraphAnalysis{}, err
	}
	return updated, nil
}

// run executes the pipeline for one job. Every failure is converted into a
// terminal job status; nothing escapes the worker.
func (r *Runner) run(jobID string) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("job %s: pipeline panic: %v", jobID, rec)
			r.fail(jobID, fmt.Sprintf("Analysis failed: internal error (%v)", rec))
		}
	}()

	job, err := r.store.Get(jobID)
	if err != nil {
		log.Printf("job %s: vanished before processing: %v", jobID, err)
		return
	}

	started := r.now()
	deadline := started.Add(r.cfg.Timeout)
	r.logStage(jobID, "INFO", "BOOT", "Analysis started", job.FileName)

	if err := ingest.ValidateFile(job.FilePath, r.maxBytes); err != nil {
		r.logStage(jobID, "RISK", "VALIDATE", "Source file rejected", err.Error())
		r.fail(jobID, "Validation failed: "+err.Error())
		return
	}
	r.logStage(jobID, "INFO", "VALIDATE", "Source file accepted", "")

	if err := r.transition(jobID, jobstore.StatusProcessing, "Starting analysis..."); err != nil {
		log.Printf("job %s: %v", jobID, err)
		return
	}

	parsed, err := ingest.ParseFile(job.FilePath)
	if err != nil {
		r.logStage(jobID, "RISK", "INGEST", "Document parsing failed", err.Error())
		r.fail(jobID, "Analysis failed: "+err.Error())
		return
	}

	paragraphs, err := ingest.Paragraphs(parsed.Text, r.cfg.MaxParagraphs)
	if err != nil {
		r.logStage(jobID, "RISK", "STRUCTURE", "Structure limit exceeded", err.Error())
		r.fail(jobID, "Analysis failed: "+err.Error())
		return
	}
	r.logStage(jobID, "INFO", "STRUCTURE", fmt.Sprintf("%d paragraphs extracted", len(paragraphs)), "")

	// Paragraphs run strictly in order so the elapsed-time check reflects
	// real wall-clock spend against the shared budget. On timeout the
	// partial set is discarded: aggregation needs the complete document.
	analyses := make([]analyze.ParagraphAnalysis, 0, len(paragraphs))
	for i, text := range paragraphs {
		if r.now().After(deadline) {
			msg := fmt.Sprintf("Analysis failed: %v after %d of %d paragraphs", ErrTimeout, i, len(paragraphs))
			r.logStage(jobID, "RISK", "ANALYZE", "Time budget exceeded", msg)
			r.fail(jobID, msg)
			return
		}
		analyses = append(analyses, analyze.Analyze(text, i, r.analyzeOptions()))
	}
	overall := analyze.Aggregate(analyses)
	r.logStage(jobID, "INFO", "ANALYZE", "Paragraph analysis complete", fmt.Sprintf("words=%d readability=%.1f", overall.TotalWords, overall.AverageReadability))

	suggestions := r.collectSuggestions(jobID, paragraphs)

	completedAt := r.now()
	err = r.store.Update(jobID, func(job *jobstore.Job) error {
		if err := job.Transition(jobstore.StatusCompleted, "Analysis completed"); err != nil {
			return err
		}
		job.Paragraphs = analyses
		job.Overall = &overall
		job.Suggestions = suggestions
		job.ExpiresAt = completedAt.Add(r.cfg.Retention)
		return nil
	})
	if err != nil {
		log.Printf("job %s: completion store update failed: %v", jobID, err)
		return
	}
	r.logStage(jobID, "INFO", "DONE", "Analysis completed", fmt.Sprintf("duration=%s paragraphs=%d", completedAt.Sub(started), len(analyses)))
	log.Printf("job %s: completed, %d paragraphs in %s", jobID, len(analyses), completedAt.Sub(started))
}

// collectSuggestions asks the external service for extra comments. Failures
// are logged on the job and swallowed; local results stand on their own.
func (r *Runner) collectSuggestions(jobID string, paragraphs []string) []string {
	if !r.suggester.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	suggestions, err := r.suggester.Suggest(ctx, paragraphs)
	if err != nil {
		r.logStage(jobID, "RISK", "SUGGEST", "AI suggestion service unavailable", err.Error())
		log.Printf("job %s: suggestion service: %v", jobID, err)
		return nil
	}
	r.logStage(jobID, "INFO", "SUGGEST", fmt.Sprintf("%d suggestions received", len(suggestions)), "")
	return suggestions
}

func (r *Runner) analyzeOptions() analyze.Options {
	return analyze.Options{MaxWordsPerParagraph: r.cfg.MaxWordsPerParagraph}
}

func (r *Runner) transition(jobID string, to jobstore.Status, message string) error {
	return r.store.Update(jobID, func(job *jobstore.Job) error {
		return job.Transition(to, message)
	})
}

func (r *Runner) fail(jobID, message string) {
	if err := r.transition(jobID, jobstore.StatusFailed, message); err != nil && !errors.Is(err, jobstore.ErrNotFound) {
		log.Printf("job %s: failed to record failure: %v", jobID, err)
	}
}

func (r *Runner) logStage(jobID, level, stage, message, detail string) {
	err := r.store.Update(jobID, func(job *jobstore.Job) error {
		job.Logs = append(job.Logs, jobstore.LogLine{
			Time:    r.now().Format("15:04:05.000"),
			Level:   level,
			Stage:   stage,
			Message: message,
			Detail:  detail,
		})
		return nil
	})
	if err != nil && !errors.Is(err, jobstore.ErrNotFound) {
		log.Printf("job %s: log append failed: %v", jobID, err)
	}
}
