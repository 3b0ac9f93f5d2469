package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/content"
	"github.com/GriffinCanCode/notebook/internal/domain/session"
	"github.com/GriffinCanCode/notebook/internal/editor"
	"github.com/GriffinCanCode/notebook/internal/editor/socket"
	"github.com/GriffinCanCode/notebook/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/notebook/internal/providers/theme"
	"github.com/GriffinCanCode/notebook/internal/service"
	"github.com/GriffinCanCode/notebook/internal/space"
)

// Version is reported by the root endpoint
const Version = "0.1.0"

// Deps are the components the handlers serve
type Deps struct {
	Scanner  *content.Scanner
	Store    *space.Store
	Sessions *session.Manager
	Editors  *editor.Registry
	Hub      *socket.Hub
	Services *service.Registry
	Themes   *theme.Provider
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
}

// Handlers contains all HTTP handlers
type Handlers struct {
	scanner  *content.Scanner
	store    *space.Store
	sessions *session.Manager
	editors  *editor.Registry
	hub      *socket.Hub
	services *service.Registry
	themes   *theme.Provider
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(deps Deps) *Handlers {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Handlers{
		scanner:  deps.Scanner,
		store:    deps.Store,
		sessions: deps.Sessions,
		editors:  deps.Editors,
		hub:      deps.Hub,
		services: deps.Services,
		themes:   deps.Themes,
		metrics:  deps.Metrics,
		logger:   deps.Logger,
	}
}

// Root handles the service banner
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "notebook",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":           "healthy",
		"pages":            len(h.store.Pages()),
		"editors":          len(h.editors.List()),
		"sessions":         len(h.sessions.List()),
		"service_registry": h.services.Stats(),
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// statusOf maps domain errors to HTTP statuses
func statusOf(err error) int {
	switch {
	case errors.Is(err, space.ErrNotFound),
		errors.Is(err, session.ErrNotFound),
		errors.Is(err, service.ErrUnknownService),
		errors.Is(err, service.ErrUnknownTool),
		errors.Is(err, theme.ErrUnknownTheme):
		return http.StatusNotFound
	case errors.Is(err, space.ErrOutsideSpace):
		return http.StatusBadRequest
	case errors.Is(err, editor.ErrNoMatchingEditor):
		return http.StatusUnprocessableEntity
	case errors.Is(err, editor.ErrNotReady),
		errors.Is(err, editor.ErrSaveInProgress):
		return http.StatusConflict
	case errors.Is(err, editor.ErrDestroyed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as a JSON error response
func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
