package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nuanxinpro/wallpaper-studio/internal/workflow"
)

type triggerRequest struct {
	Payload map[string]any `json:"payload"`
}

// workflowStatus reports the monitor state and the runs it tracks.
func (s *Server) workflowStatus(c *gin.Context) {
	respondOK(c, http.StatusOK, gin.H{
		"state":      s.monitor.State(),
		"runningRun": s.monitor.RunningRun(),
		"latestRun":  s.monitor.LatestRun(),
	})
}

// triggerWorkflow fires the remote processing workflow.
func (s *Server) triggerWorkflow(c *gin.Context) {
	var req triggerRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
			return
		}
	}

	if err := s.monitor.Trigger(c.Request.Context(), req.Payload); err != nil {
		switch {
		case errors.Is(err, workflow.ErrMonitorBusy):
			respondError(c, http.StatusConflict, "WORKFLOW_BUSY", err.Error())
		case errors.Is(err, workflow.ErrNoPendingWork):
			respondError(c, http.StatusBadRequest, "NO_PENDING_WORK", err.Error())
		case errors.Is(err, workflow.ErrMonitorClosed):
			respondError(c, http.StatusServiceUnavailable, "MONITOR_CLOSED", err.Error())
		default:
			s.respondAPIError(c, err)
		}
		return
	}

	respondOK(c, http.StatusAccepted, gin.H{"state": s.monitor.State()})
}

// checkWorkflow queries the remote runs once, adopting an externally started
// run when one is active.
func (s *Server) checkWorkflow(c *gin.Context) {
	running, latest, err := s.monitor.Check(c.Request.Context())
	if err != nil {
		s.respondAPIError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"state":      s.monitor.State(),
		"runningRun": running,
		"latestRun":  latest,
	})
}

// resetWorkflow returns a timed-out monitor to idle.
func (s *Server) resetWorkflow(c *gin.Context) {
	s.monitor.Reset()
	respondOK(c, http.StatusOK, gin.H{"state": s.monitor.State()})
}

// getPending reports the images waiting for the next workflow run.
func (s *Server) getPending(c *gin.Context) {
	report, err := s.client.PendingImages(c.Request.Context(), s.root)
	if err != nil {
		s.respondAPIError(c, err)
		return
	}
	respondOK(c, http.StatusOK, report)
}
