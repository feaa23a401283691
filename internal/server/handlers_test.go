package server

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minddoc/internal/config"
	"minddoc/internal/dify"
	"minddoc/internal/jobstore"
	"minddoc/internal/pipeline"
)

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := jobstore.NewMemoryStore(0)
	cfg := config.ProcessingConfig{
		MaxParagraphs:        1000,
		MaxWordsPerParagraph: 1000,
		Timeout:              30 * time.Second,
		Retention:            24 * time.Hour,
		Workers:              2,
		QueueSize:            16,
	}
	runner := pipeline.NewRunner(store, cfg, 16*1024*1024, dify.New("", ""))
	t.Cleanup(func() {
		_ = runner.Close()
		_ = store.Close()
	})

	return NewRouter(New(runner, t.TempDir(), 16*1024*1024))
}

func docxBytes(t *testing.T, paragraphs []string) []byte {
	t.Helper()
	var body strings.Builder
	body.WriteString(`<w:document><w:body>`)
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	body.WriteString(`</w:body></w:document>`)

	var b bytes.Buffer
	zw := zip.NewWriter(&b)
	f, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = f.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>` + body.String()))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return b.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func do(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func uploadAndWait(t *testing.T, router *gin.Engine, paragraphs []string) string {
	t.Helper()
	rec := do(router, uploadRequest(t, "doc.docx", docxBytes(t, paragraphs)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	jobID, _ := decode(t, rec)["job_id"].(string)
	require.NotEmpty(t, jobID)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		status := decode(t, do(router, httptest.NewRequest(http.MethodGet, "/status/"+jobID, nil)))
		if status["status"] == "completed" {
			return jobID
		}
		if status["status"] == "failed" {
			t.Fatalf("job failed: %v", status["message"])
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never completed")
	return ""
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUploadAndFetchResults(t *testing.T) {
	router := newTestRouter(t)
	jobID := uploadAndWait(t, router, []string{
		"The meeting notes were prepared by Jane Doe of Acme Corp.",
		"Second paragraph with plain simple words in it.",
	})

	rec := do(router, httptest.NewRequest(http.MethodGet, "/analysis/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	out := decode(t, rec)

	paragraphs, ok := out["paragraph_analyses"].([]any)
	require.True(t, ok, "expected paragraph_analyses in %v", out)
	assert.Len(t, paragraphs, 2)
	assert.NotNil(t, out["overall_analysis"])
	assert.Equal(t, "completed", out["status"])
}

func TestUploadRejectsMissingFile(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/upload", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	rec := do(router, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadRejectsWrongExtension(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, uploadRequest(t, "notes.txt", []byte("plain text")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid file type")
}

func TestStatusUnknownJob(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, httptest.NewRequest(http.MethodGet, "/status/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestResultsUnknownJob(t *testing.T) {
	router := newTestRouter(t)
	rec := do(router, httptest.NewRequest(http.MethodGet, "/analysis/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateParagraph(t *testing.T) {
	router := newTestRouter(t)
	jobID := uploadAndWait(t, router, []string{
		"First paragraph before any edits were made.",
		"Second paragraph before any edits were made.",
	})

	payload := fmt.Sprintf(`{"job_id":%q,"paragraph_id":1,"new_text":"Second paragraph after the edit."}`, jobID)
	req := httptest.NewRequest(http.MethodPost, "/api/update-paragraph", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := do(router, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, true, out["success"])
	updated, ok := out["updated_analysis"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), updated["paragraph_index"])
	assert.Equal(t, "Second paragraph after the edit.", updated["text"])
}

func TestUpdateParagraphValidation(t *testing.T) {
	router := newTestRouter(t)
	jobID := uploadAndWait(t, router, []string{"Only one paragraph here."})

	cases := []struct {
		name    string
		payload string
		code    int
	}{
		{"missing fields", `{"job_id":"x"}`, http.StatusBadRequest},
		{"unknown job", `{"job_id":"nope","paragraph_id":0,"new_text":"t"}`, http.StatusNotFound},
		{"bad index", fmt.Sprintf(`{"job_id":%q,"paragraph_id":9,"new_text":"t"}`, jobID), http.StatusBadRequest},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/update-paragraph", strings.NewReader(tc.payload))
		req.Header.Set("Content-Type", "application/json")
		rec := do(router, req)
		assert.Equal(t, tc.code, rec.Code, "%s: %s", tc.name, rec.Body.String())
	}
}
