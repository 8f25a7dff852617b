package api

import (
	"encoding/base64"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nuanxinpro/wallpaper-studio/internal/upload"
)

type enqueueRequest struct {
	Filename  string `json:"filename" binding:"required"`
	Data      string `json:"data" binding:"required"`
	MediaType string `json:"mediaType"`
	Series    string `json:"series" binding:"required"`
	Primary   string `json:"primary" binding:"required"`
	Secondary string `json:"secondary"`
}

type retryRequest struct {
	Exclude []string `json:"exclude"`
}

// listUploads returns the queue plus batch hints for the UI.
func (s *Server) listUploads(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{
		"items":             s.orch.Items(),
		"batchWarning":      s.orch.BatchWarning(),
		"estimatedDuration": s.orch.EstimateBatchDuration().String(),
	})
}

// enqueueUpload validates and queues one base64-encoded file.
func (s *Server) enqueueUpload(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	payload, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "data is not valid base64")
		return
	}

	item, err := s.orch.Enqueue(req.Filename, payload, req.MediaType, req.Series, req.Primary, req.Secondary)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidFileType), errors.Is(err, upload.ErrInvalidSeries):
			respondError(c, http.StatusBadRequest, "INVALID_FILE", err.Error())
		case errors.Is(err, upload.ErrFileTooLarge):
			respondError(c, http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
		}
		return
	}

	respondOK(c, http.StatusCreated, item)
}

// removeUpload drops a queued item that is not mid-flight.
func (s *Server) removeUpload(c *gin.Context) {
	if !s.orch.Remove(c.Param("id")) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "No removable item with that id")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"removed": true})
}

// runUploads drains the pending queue.
func (s *Server) runUploads(c *gin.Context) {
	result, err := s.orch.UploadAll(c.Request.Context())
	if err != nil {
		s.respondUploadError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

// retryUploads re-runs previously failed items, minus the excluded ids.
func (s *Server) retryUploads(c *gin.Context) {
	// The body is optional; without one every failed item is retried.
	var req retryRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	result, err := s.orch.RetryFailed(c.Request.Context(), req.Exclude...)
	if err != nil {
		s.respondUploadError(c, err)
		return
	}
	respondOK(c, http.StatusOK, result)
}

func (s *Server) respondUploadError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, upload.ErrUploadBusy):
		respondError(c, http.StatusConflict, "UPLOAD_BUSY", err.Error())
	case errors.Is(err, upload.ErrNothingPending):
		respondError(c, http.StatusBadRequest, "NOTHING_PENDING", err.Error())
	case errors.Is(err, upload.ErrNoTarget):
		respondError(c, http.StatusBadRequest, "NO_TARGET", err.Error())
	default:
		s.respondAPIError(c, err)
	}
}
