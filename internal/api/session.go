package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nuanxinpro/wallpaper-studio/internal/credentials"
)

type sessionRequest struct {
	Passphrase string `json:"passphrase" binding:"required"`
}

// createSession exchanges the vault passphrase for a session token.
func (s *Server) createSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	if err := s.verify(c.Request.Context(), []byte(req.Passphrase)); err != nil {
		switch {
		case errors.Is(err, credentials.ErrWrongPassphrase):
			respondError(c, http.StatusUnauthorized, "WRONG_PASSPHRASE", "Wrong passphrase")
		case errors.Is(err, credentials.ErrNotConfigured):
			respondError(c, http.StatusConflict, "NOT_CONFIGURED", "No credentials saved, run login first")
		default:
			s.log.Error(c.Request.Context(), "session verify failed", "error", err)
			respondError(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
		}
		return
	}

	token, err := GenerateToken("admin", s.secret, s.sessionTTL)
	if err != nil {
		s.log.Error(c.Request.Context(), "failed to sign session token", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", "Internal error")
		return
	}

	respondOK(c, http.StatusCreated, gin.H{"token": token, "expiresIn": s.sessionTTL.String()})
}
