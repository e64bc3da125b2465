package api

import (
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"liquigen/adapters/changelog"
	"liquigen/adapters/excel"
	"liquigen/domain/form"
	"liquigen/internal/errors"
	"liquigen/internal/logging"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/spf13/afero"
)

const (
	uploadField    = "excel"
	multipartSlack = 1 << 20
)

// UploadResponse summarises one processed upload
type UploadResponse struct {
	Message     string                   `json:"message"`
	BatchID     string                   `json:"batchId"`
	Passed      int                      `json:"passed"`
	Failed      int                      `json:"failed"`
	Skipped     int                      `json:"skipped"`
	Dropped     int                      `json:"dropped"`
	Errors      []form.RowFailure        `json:"errors"`
	SkippedRows []form.SkippedRow        `json:"skippedRows"`
	DroppedRows []form.DroppedRecord     `json:"droppedRows"`
	Files       []form.GeneratedDocument `json:"files"`
	Data        []form.Record            `json:"data"`
}

func newUploadResponse(result *form.BatchResult) UploadResponse {
	resp := UploadResponse{
		BatchID:     result.BatchID,
		Passed:      result.Accepted(),
		Failed:      result.Failed(),
		Skipped:     result.SkippedCount(),
		Dropped:     len(result.Dropped),
		Errors:      orEmpty(result.Errors),
		SkippedRows: orEmpty(result.Skipped),
		DroppedRows: orEmpty(result.Dropped),
		Files:       orEmpty(result.Documents),
		Data:        orEmpty(result.Records),
	}
	if resp.incomplete() {
		resp.Message = fmt.Sprintf("%d row(s) passed, %d failed, %d skipped, %d dropped.",
			resp.Passed, resp.Failed, resp.Skipped, resp.Dropped)
	} else {
		resp.Message = "All rows processed successfully."
	}
	return resp
}

// incomplete reports whether any row did not make it into a changelog
func (r UploadResponse) incomplete() bool {
	return r.Failed > 0 || r.Skipped > 0 || r.Dropped > 0 || len(r.Errors) > 0
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// handleUpload stores the uploaded spreadsheet and runs one batch over it
func (s *Server) handleUpload(c *gin.Context) {
	log := logging.FromContext(c.Request.Context())

	// headroom over the file limit for multipart framing
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxUploadBytes+multipartSlack)

	file, header, err := c.Request.FormFile(uploadField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.rejectTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded."})
		return
	}
	defer file.Close()

	if header.Size > s.config.MaxUploadBytes {
		s.rejectTooLarge(c)
		return
	}
	if !excel.IsSupported(header.Filename) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .xlsx, .xlsm and .csv files are supported"})
		return
	}

	if err := s.fs.MkdirAll(s.config.UploadDir, 0o755); err != nil {
		log.Error().Err(err).Str("dir", s.config.UploadDir).Msg("cannot create upload directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}
	stored := filepath.Join(s.config.UploadDir, storedName(header.Filename))
	if err := afero.WriteReader(s.fs, stored, file); err != nil {
		log.Error().Err(err).Str("path", stored).Msg("cannot store upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store upload"})
		return
	}

	if err := s.batches.Acquire(c.Request.Context(), 1); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Request cancelled while waiting for a batch slot"})
		return
	}
	defer s.batches.Release(1)

	log.Info().Str("file", header.Filename).Int64("bytes", header.Size).Str("stored", stored).Msg("upload received")
	result, err := s.runner.Run(c.Request.Context(), stored)
	if err != nil {
		s.writeBatchError(c, result, err)
		return
	}

	resp := newUploadResponse(result)
	status := http.StatusOK
	if resp.incomplete() {
		status = http.StatusMultiStatus
	}
	c.JSON(status, resp)
}

func (s *Server) rejectTooLarge(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error": fmt.Sprintf("File too large (max %dMB)", s.config.MaxUploadBytes/(1024*1024)),
	})
}

func (s *Server) writeBatchError(c *gin.Context, result *form.BatchResult, err error) {
	status := http.StatusInternalServerError
	if errors.IsStructural(err) {
		status = http.StatusUnprocessableEntity
	}
	body := gin.H{"error": err.Error()}
	if result != nil {
		body["batchId"] = result.BatchID
		body["files"] = orEmpty(result.Documents)
	}
	logging.FromContext(c.Request.Context()).Error().Err(err).Int("status", status).Msg("batch failed")
	c.JSON(status, body)
}

// storedName keeps uploads from colliding: <unix millis>-<short id>-<name>
func storedName(original string) string {
	return fmt.Sprintf("%d-%s-%s", time.Now().UnixMilli(), uuid.New().String()[:8],
		changelog.SanitizeFileName(filepath.Base(original)))
}
