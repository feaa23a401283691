package server

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minddoc/internal/jobstore"
	"minddoc/internal/pipeline"
)

var allowedExtensions = map[string]struct{}{
	".docx": {},
	".pdf":  {},
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Upload accepts a multipart document, stores it and starts analysis. The
// caller gets a job id back immediately and polls for progress.
func (s *Server) Upload(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxContentSize)

	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file provided"})
		return
	}
	if file.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if _, ok := allowedExtensions[ext]; !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file type, only .docx and .pdf files are allowed"})
		return
	}

	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload storage unavailable"})
		return
	}
	dst := filepath.Join(s.uploadDir, fmt.Sprintf("%s_%s", uuid.NewString(), sanitizeName(file.Filename)))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "upload failed: " + err.Error()})
		return
	}

	jobID, err := s.runner.Submit(dst, file.Filename)
	if err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "analysis queue is full, try again later", "job_id": jobID})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"job_id":  jobID,
		"message": "Document uploaded and processing started",
		"status":  jobstore.StatusQueued,
	})
}

func (s *Server) Status(c *gin.Context) {
	info, err := s.runner.Status(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, info)
}

func (s *Server) Results(c *gin.Context) {
	job, err := s.runner.Results(c.Param("job_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis results not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

type updateParagraphRequest struct {
	JobID       string `json:"job_id" binding:"required"`
	ParagraphID *int   `json:"paragraph_id" binding:"required"`
	NewText     string `json:"new_text" binding:"required"`
}

// UpdateParagraph re-analyzes one edited paragraph of a completed job.
func (s *Server) UpdateParagraph(c *gin.Context) {
	var req updateParagraphRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing required fields"})
		return
	}

	updated, err := s.runner.UpdateParagraph(req.JobID, *req.ParagraphID, req.NewText)
	switch {
	case errors.Is(err, jobstore.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "analysis results not found"})
		return
	case errors.Is(err, pipeline.ErrInvalidIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid paragraph id"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"updated_analysis": updated,
	})
}

func sanitizeName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "document"
	}
	return strings.ReplaceAll(base, "..", "")
}
