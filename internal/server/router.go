// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"minddoc/internal/pipeline"
)

type Server struct {
	runner         *pipeline.Runner
	uploadDir      string
	maxContentSize int64
}

func New(runner *pipeline.Runner, uploadDir string, maxContentSize int64) *Server {
	return &Server{
		runner:         runner,
		uploadDir:      uploadDir,
		maxContentSize: maxContentSize,
	}
}

// NewRouter builds the HTTP router used by the service binary and tests.
func NewRouter(s *Server) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}))

	router.GET("/health", s.Health)
	router.POST("/upload", s.Upload)
	router.GET("/status/:job_id", s.Status)
	router.GET("/analysis/:job_id", s.Results)
	router.POST("/api/update-paragraph", s.UpdateParagraph)

	return router
}
