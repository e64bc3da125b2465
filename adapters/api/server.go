package api

import (
	"context"
	"fmt"
	"net/http"

	"liquigen/domain/form"
	"liquigen/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// BatchRunner processes one stored source file
type BatchRunner interface {
	Run(ctx context.Context, path string) (*form.BatchResult, error)
}

// Config holds upload limits
type Config struct {
	UploadDir            string
	MaxUploadBytes       int64
	MaxConcurrentBatches int64
}

// Server exposes the pipeline over HTTP
type Server struct {
	router  *gin.Engine
	runner  BatchRunner
	fs      afero.Fs
	config  Config
	batches *semaphore.Weighted
}

// NewServer creates the upload server and registers its routes
func NewServer(runner BatchRunner, fs afero.Fs, config Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("runner dependency is required")
	}
	if fs == nil {
		return nil, fmt.Errorf("filesystem dependency is required")
	}
	if config.UploadDir == "" {
		return nil, fmt.Errorf("upload directory is required")
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = 50 * 1024 * 1024
	}
	if config.MaxConcurrentBatches <= 0 {
		config.MaxConcurrentBatches = 1
	}

	s := &Server{
		router:  gin.New(),
		runner:  runner,
		fs:      fs,
		config:  config,
		batches: semaphore.NewWeighted(config.MaxConcurrentBatches),
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.router.POST("/upload", s.handleUpload)
}

// Handler returns the router for use with http.Server or httptest
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run listens on addr until the listener fails
func (s *Server) Run(addr string) error {
	logging.Default().Info().Str("addr", addr).Msg("upload server listening")
	return s.router.Run(addr)
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logging.FromContext(c.Request.Context()).Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}
