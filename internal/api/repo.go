package api

import (
	"encoding/base64"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nuanxinpro/wallpaper-studio/internal/ai"
	"github.com/nuanxinpro/wallpaper-studio/internal/category"
)

// getUser reports the identity and access level behind the configured token.
func (s *Server) getUser(c *gin.Context) {
	user, err := s.client.CurrentUser(c.Request.Context())
	if err != nil {
		s.respondAPIError(c, err)
		return
	}

	access, err := s.client.CheckRepoAccess(c.Request.Context())
	if err != nil {
		s.respondAPIError(c, err)
		return
	}

	respondOK(c, http.StatusOK, gin.H{"user": user, "access": access})
}

// getRateLimit returns the latest quota snapshot without issuing a request.
func (s *Server) getRateLimit(c *gin.Context) {
	respondOK(c, http.StatusOK, s.client.RateLimit())
}

// getCategories returns the taxonomy, narrowed by the optional series and
// primary query parameters.
func (s *Server) getCategories(c *gin.Context) {
	seriesKey := c.Query("series")
	if seriesKey == "" {
		all := make(map[string]category.Series, len(category.SeriesKeys()))
		for _, key := range category.SeriesKeys() {
			sr, _ := category.Get(key)
			all[key] = sr
		}
		respondOK(c, http.StatusOK, all)
		return
	}

	sr, ok := category.Get(seriesKey)
	if !ok {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Unknown series")
		return
	}

	if primary := c.Query("primary"); primary != "" {
		if !category.Valid(seriesKey, primary) {
			respondError(c, http.StatusNotFound, "NOT_FOUND", "Unknown category")
			return
		}
		respondOK(c, http.StatusOK, gin.H{
			"thirdLevel": category.ThirdLevel(seriesKey, primary),
		})
		return
	}

	respondOK(c, http.StatusOK, sr)
}

// getTags lists recent repository tags.
func (s *Server) getTags(c *gin.Context) {
	perPage, _ := strconv.Atoi(c.Query("per_page"))
	if perPage <= 0 {
		perPage = 10
	}
	tags, err := s.client.Tags(c.Request.Context(), perPage)
	if err != nil {
		s.respondAPIError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tags)
}

// getLatestTag returns the newest tag with commit details, or null when the
// repository has no tags yet.
func (s *Server) getLatestTag(c *gin.Context) {
	tag, err := s.client.LatestTag(c.Request.Context())
	if err != nil {
		s.respondAPIError(c, err)
		return
	}
	respondOK(c, http.StatusOK, tag)
}

type rollbackRequest struct {
	Tag string `json:"tag" binding:"required"`
}

// rollbackRelease dispatches the rollback workflow for an earlier tag.
func (s *Server) rollbackRelease(c *gin.Context) {
	var req rollbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}
	if err := s.client.RollbackRelease(c.Request.Context(), req.Tag); err != nil {
		s.respondAPIError(c, err)
		return
	}
	respondOK(c, http.StatusAccepted, gin.H{"tag": req.Tag})
}

// deleteTag removes a tag ref from the repository.
func (s *Server) deleteTag(c *gin.Context) {
	if err := s.client.DeleteTag(c.Request.Context(), c.Param("name")); err != nil {
		s.respondAPIError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{"deleted": true})
}

// listHistory returns upload records, newest first.
func (s *Server) listHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	records, err := s.history.List(c.Request.Context(), limit)
	if err != nil {
		s.log.Error(c.Request.Context(), "failed to list history", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
		return
	}
	respondOK(c, http.StatusOK, records)
}

// historyStats aggregates upload outcomes per day for the UI chart.
func (s *Server) historyStats(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	stats, err := s.history.StatsByDay(c.Request.Context(), limit)
	if err != nil {
		s.log.Error(c.Request.Context(), "failed to aggregate history", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
		return
	}
	respondOK(c, http.StatusOK, stats)
}

// clearHistory wipes the upload history.
func (s *Server) clearHistory(c *gin.Context) {
	if err := s.history.Clear(c.Request.Context()); err != nil {
		s.log.Error(c.Request.Context(), "failed to clear history", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"cleared": true})
}

type classifyRequest struct {
	Image   string `json:"image" binding:"required"`
	Series  string `json:"series" binding:"required"`
	Primary string `json:"primary"`
}

// classifyImage asks the AI proxy to categorize one image against the
// taxonomy for the requested series.
func (s *Server) classifyImage(c *gin.Context) {
	if s.classifier == nil {
		respondError(c, http.StatusServiceUnavailable, "AI_UNAVAILABLE", "AI classification is not configured")
		return
	}

	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	image, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "image is not valid base64")
		return
	}

	if _, ok := category.Get(req.Series); !ok {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Unknown series")
		return
	}

	var thirds []string
	if req.Primary != "" {
		thirds = category.ThirdLevel(req.Series, req.Primary)
	}
	prompt := ai.BuildPrompt(category.SubcategoryValues(req.Series), thirds)

	suggestion, err := s.classifier.Classify(c.Request.Context(), image, prompt)
	if err != nil {
		s.log.Warn(c.Request.Context(), "classification failed", "error", err)
		respondError(c, http.StatusBadGateway, "AI_ERROR", err.Error())
		return
	}

	respondOK(c, http.StatusOK, suggestion)
}
