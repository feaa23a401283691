package pipeline

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minddoc/internal/config"
	"minddoc/internal/dify"
	"minddoc/internal/jobstore"
)

func testConfig() config.ProcessingConfig {
	return config.ProcessingConfig{
		MaxParagraphs:        1000,
		MaxWordsPerParagraph: 1000,
		Timeout:              30 * time.Second,
		Retention:            24 * time.Hour,
		Workers:              2,
		QueueSize:            16,
	}
}

func newTestRunner(t *testing.T, cfg config.ProcessingConfig) (*Runner, *jobstore.MemoryStore) {
	t.Helper()
	store := jobstore.NewMemoryStore(0)
	runner := NewRunner(store, cfg, 16*1024*1024, dify.New("", ""))
	t.Cleanup(func() {
		_ = runner.Close()
		_ = store.Close()
	})
	return runner, store
}

func writeDOCX(t *testing.T, paragraphs []string) string {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<w:document><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>`)
		body.WriteString(p)
		body.WriteString(`</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	path := filepath.Join(t.TempDir(), "doc.docx")
	require.NoError(t, os.WriteFile(path, b.Bytes(), 0o644))
	return path
}

func waitForTerminal(t *testing.T, r *Runner, jobID string) jobstore.Status {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		info, err := r.Status(jobID)
		require.NoError(t, err)
		if info.Status.Terminal() {
			return info.Status
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return ""
}

func TestSubmitReachesCompleted(t *testing.T) {
	runner, _ := newTestRunner(t, testConfig())
	path := writeDOCX(t, []string{
		"The report was written by John Smith of Acme Corp last week.",
		"Cats sleep a lot. Dogs run fast. Birds sing well.",
		"Short one.",
	})

	jobID, err := runner.Submit(path, "doc.docx")
	require.NoError(t, err)
	require.NotEmpty(t, jobID)

	status := waitForTerminal(t, runner, jobID)
	require.Equal(t, jobstore.StatusCompleted, status)

	job, err := runner.Results(jobID)
	require.NoError(t, err)
	require.Len(t, job.Paragraphs, 3)
	for i, p := range job.Paragraphs {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, p.Text, p.OriginalText)
	}
	require.NotNil(t, job.Overall)
	assert.Equal(t, 3, job.Overall.TotalParagraphs)
	assert.Greater(t, job.Overall.TotalWords, 0)
	assert.False(t, job.ExpiresAt.IsZero(), "completed jobs carry a retention expiry")
	assert.Equal(t, "Analysis completed", job.Message)
}

func TestValidationFailureNeverStartsProcessing(t *testing.T) {
	runner, _ := newTestRunner(t, testConfig())
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a real docx"), 0o644))

	jobID, err := runner.Submit(path, "fake.docx")
	require.NoError(t, err)

	status := waitForTerminal(t, runner, jobID)
	require.Equal(t, jobstore.StatusFailed, status)

	info, err := runner.Status(jobID)
	require.NoError(t, err)
	assert.Contains(t, info.Message, "Validation failed")

	_, err = runner.Results(jobID)
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
}

func TestFailedJobsCarryRetentionExpiry(t *testing.T) {
	cfg := testConfig()
	runner, store := newTestRunner(t, cfg)
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("not a real docx"), 0o644))

	jobID, err := runner.Submit(path, "fake.docx")
	require.NoError(t, err)
	require.Equal(t, jobstore.StatusFailed, waitForTerminal(t, runner, jobID))

	job, err := store.Get(jobID)
	require.NoError(t, err)
	require.False(t, job.ExpiresAt.IsZero(), "failed jobs must not be retained forever")
	assert.Equal(t, job.CreatedAt.Add(cfg.Retention), job.ExpiresAt)
	assert.False(t, job.Expired(job.CreatedAt.Add(cfg.Retention/2)))
	assert.True(t, job.Expired(job.CreatedAt.Add(cfg.Retention+time.Second)))
}

func TestStructureCeilingFailsBeforeAnalysis(t *testing.T) {
	cfg := testConfig()
	cfg.MaxParagraphs = 2
	runner, store := newTestRunner(t, cfg)
	path := writeDOCX(t, []string{"One.", "Two.", "Three.", "Four."})

	jobID, err := runner.Submit(path, "doc.docx")
	require.NoError(t, err)

	status := waitForTerminal(t, runner, jobID)
	require.Equal(t, jobstore.StatusFailed, status)

	_, err = runner.Results(jobID)
	assert.ErrorIs(t, err, jobstore.ErrNotFound)

	job, err := store.Get(jobID)
	require.NoError(t, err)
	assert.Empty(t, job.Paragraphs, "no paragraph analyses may exist after a structure failure")
	assert.Contains(t, job.Message, "structure limit")
}

func TestTimeoutDiscardsPartialResults(t *testing.T) {
	cfg := testConfig()
	cfg.Timeout = 8 * time.Second
	runner, store := newTestRunner(t, cfg)

	// Each clock read advances one second. The worker reads the clock once
	// when it starts and once per paragraph, so an 8 second budget expires
	// after the fifth paragraph of ten.
	var ticks atomic.Int64
	base := time.Now()
	runner.now = func() time.Time {
		return base.Add(time.Duration(ticks.Add(1)) * time.Second)
	}

	paragraphs := make([]string, 10)
	for i := range paragraphs {
		paragraphs[i] = "A plain paragraph with a handful of ordinary words inside."
	}
	path := writeDOCX(t, paragraphs)

	jobID, err := runner.Submit(path, "doc.docx")
	require.NoError(t, err)

	status := waitForTerminal(t, runner, jobID)
	require.Equal(t, jobstore.StatusFailed, status)

	info, err := runner.Status(jobID)
	require.NoError(t, err)
	assert.Contains(t, info.Message, "time budget exceeded")
	assert.Contains(t, info.Message, "after 5 of 10 paragraphs")

	_, err = runner.Results(jobID)
	assert.ErrorIs(t, err, jobstore.ErrNotFound)

	job, err := store.Get(jobID)
	require.NoError(t, err)
	assert.Empty(t, job.Paragraphs, "partial paragraph results must be discarded on timeout")
}

func completedJob(t *testing.T, runner *Runner, paragraphs []string) string {
	t.Helper()
	path := writeDOCX(t, paragraphs)
	jobID, err := runner.Submit(path, "doc.docx")
	require.NoError(t, err)
	require.Equal(t, jobstore.StatusCompleted, waitForTerminal(t, runner, jobID))
	return jobID
}

func TestUpdateParagraphEditIsolation(t *testing.T) {
	runner, _ := newTestRunner(t, testConfig())
	jobID := completedJob(t, runner, []string{
		"Paragraph zero talks about the weather today.",
		"Paragraph one covers the quarterly budget numbers.",
		"Paragraph two describes the project timeline in detail.",
		"Paragraph three lists the open risks for the team.",
		"Paragraph four closes with a short summary statement.",
	})

	before, err := runner.Results(jobID)
	require.NoError(t, err)

	updated, err := runner.UpdateParagraph(jobID, 2, "A fresh replacement text for the third paragraph.")
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Index)
	assert.Equal(t, before.Paragraphs[2].OriginalText, updated.OriginalText)

	after, err := runner.Results(jobID)
	require.NoError(t, err)
	for i := range before.Paragraphs {
		if i == 2 {
			assert.Equal(t, updated, after.Paragraphs[2])
			continue
		}
		assert.Equal(t, before.Paragraphs[i], after.Paragraphs[i], "paragraph %d must be untouched by the edit", i)
	}
	assert.Equal(t, before.Overall, after.Overall, "overall analysis is a completion-time snapshot")
}

func TestUpdateParagraphIdempotent(t *testing.T) {
	runner, _ := newTestRunner(t, testConfig())
	jobID := completedJob(t, runner, []string{"Only one paragraph lives in this document."})

	text := "The very same replacement text both times."
	first, err := runner.UpdateParagraph(jobID, 0, text)
	require.NoError(t, err)
	second, err := runner.UpdateParagraph(jobID, 0, text)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestUpdateParagraphErrors(t *testing.T) {
	runner, _ := newTestRunner(t, testConfig())

	_, err := runner.UpdateParagraph("missing", 0, "text")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)

	jobID := completedJob(t, runner, []string{"One paragraph only."})
	_, err = runner.UpdateParagraph(jobID, 5, "text")
	assert.ErrorIs(t, err, ErrInvalidIndex)
	_, err = runner.UpdateParagraph(jobID, -1, "text")
	assert.ErrorIs(t, err, ErrInvalidIndex)
}

func TestUpdateParagraphRejectsUnfinishedJob(t *testing.T) {
	runner, _ := newTestRunner(t, testConfig())
	path := filepath.Join(t.TempDir(), "fake.docx")
	require.NoError(t, os.WriteFile(path, []byte("junk"), 0o644))

	jobID, err := runner.Submit(path, "fake.docx")
	require.NoError(t, err)
	require.Equal(t, jobstore.StatusFailed, waitForTerminal(t, runner, jobID))

	_, err = runner.UpdateParagraph(jobID, 0, "text")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
}
