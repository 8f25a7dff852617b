// Package api exposes the local admin JSON API the browser UI talks to.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nuanxinpro/wallpaper-studio/internal/ai"
	"github.com/nuanxinpro/wallpaper-studio/internal/github"
	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
	"github.com/nuanxinpro/wallpaper-studio/internal/repositories/history"
	"github.com/nuanxinpro/wallpaper-studio/internal/upload"
	"github.com/nuanxinpro/wallpaper-studio/internal/workflow"
)

const defaultSessionTTL = 12 * time.Hour

// VerifyFunc authenticates a login passphrase. credentials.Store.Load fits
// after adapting the error to a bool.
type VerifyFunc func(ctx context.Context, passphrase []byte) error

// Server wires the studio components behind HTTP handlers. All routes except
// the session endpoint require a bearer session token.
type Server struct {
	client     *github.Client
	orch       *upload.Orchestrator
	monitor    *workflow.Monitor
	history    history.Repository
	classifier *ai.Classifier
	verify     VerifyFunc

	root       string
	secret     []byte
	sessionTTL time.Duration
	origins    []string
	log        logging.Logger
}

// ServerOption customizes a Server.
type ServerOption func(*Server)

func WithLogger(log logging.Logger) ServerOption { return func(s *Server) { s.log = log } }

// WithClassifier enables the AI classification endpoint.
func WithClassifier(c *ai.Classifier) ServerOption {
	return func(s *Server) { s.classifier = c }
}

func WithSessionTTL(d time.Duration) ServerOption {
	return func(s *Server) { s.sessionTTL = d }
}

// WithExtraOrigins adds CORS origins beyond the localhost defaults.
func WithExtraOrigins(origins ...string) ServerOption {
	return func(s *Server) { s.origins = origins }
}

// NewServer builds a Server. verify authenticates a login passphrase; it
// returns nil on success. root is the repository image root used for
// pending-image queries.
func NewServer(
	client *github.Client,
	orch *upload.Orchestrator,
	monitor *workflow.Monitor,
	hist history.Repository,
	verify VerifyFunc,
	root string,
	secret []byte,
	opts ...ServerOption,
) *Server {
	s := &Server{
		client:     client,
		orch:       orch,
		monitor:    monitor,
		history:    hist,
		verify:     verify,
		root:       root,
		secret:     secret,
		sessionTTL: defaultSessionTTL,
		log:        logging.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORS(s.origins...))

	api := r.Group("/api")
	api.POST("/session", s.createSession)

	protected := api.Group("")
	protected.Use(s.requireAuth())

	protected.GET("/user", s.getUser)
	protected.GET("/ratelimit", s.getRateLimit)
	protected.GET("/categories", s.getCategories)

	protected.GET("/uploads", s.listUploads)
	protected.POST("/uploads", s.enqueueUpload)
	protected.DELETE("/uploads/:id", s.removeUpload)
	protected.POST("/uploads/run", s.runUploads)
	protected.POST("/uploads/retry", s.retryUploads)

	protected.GET("/workflow/status", s.workflowStatus)
	protected.POST("/workflow/trigger", s.triggerWorkflow)
	protected.POST("/workflow/check", s.checkWorkflow)
	protected.POST("/workflow/reset", s.resetWorkflow)
	protected.GET("/pending", s.getPending)
	protected.GET("/tags", s.getTags)
	protected.GET("/tags/latest", s.getLatestTag)
	protected.POST("/tags/rollback", s.rollbackRelease)
	protected.DELETE("/tags/:name", s.deleteTag)

	protected.GET("/history", s.listHistory)
	protected.GET("/history/stats", s.historyStats)
	protected.DELETE("/history", s.clearHistory)

	protected.POST("/ai/classify", s.classifyImage)

	return r
}

func respondOK(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"success": false, "error": gin.H{"code": code, "message": message}})
}

// respondAPIError maps a transport failure to an HTTP status and the
// user-facing message for its kind.
func (s *Server) respondAPIError(c *gin.Context, err error) {
	kind, ok := github.KindOf(err)
	if !ok {
		s.log.Error(c.Request.Context(), "unclassified error", "error", err)
		respondError(c, http.StatusInternalServerError, "INTERNAL", upload.UserMessage(upload.ErrKindAPIError))
		return
	}

	switch kind {
	case github.KindRateLimited:
		respondError(c, http.StatusTooManyRequests, "RATE_LIMITED", upload.UserMessage(upload.ErrKindRateLimited))
	case github.KindTokenExpired:
		respondError(c, http.StatusUnauthorized, "TOKEN_EXPIRED", upload.UserMessage(upload.ErrKindTokenExpired))
	case github.KindPermissionDenied:
		respondError(c, http.StatusForbidden, "PERMISSION_DENIED", upload.UserMessage(upload.ErrKindPermissionDenied))
	case github.KindNotFound:
		respondError(c, http.StatusNotFound, "NOT_FOUND", upload.UserMessage(upload.ErrKindNotFound))
	case github.KindNetworkError:
		respondError(c, http.StatusBadGateway, "NETWORK_ERROR", upload.UserMessage(upload.ErrKindNetwork))
	default:
		respondError(c, http.StatusBadGateway, "API_ERROR", upload.UserMessage(upload.ErrKindAPIError))
	}
}
