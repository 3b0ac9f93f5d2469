package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ClientLogEntry is a log entry from the notebook client or an editor frame
type ClientLogEntry struct {
	ID        string         `json:"id"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// ClientLogRequest is a batch of client logs
type ClientLogRequest struct {
	Source  string           `json:"source"`  // "ui" or "editor"
	Session string           `json:"session"` // editor session, for source "editor"
	Entries []ClientLogEntry `json:"entries"`
}

const maxLogBatch = 500

// StreamLogs ingests client logs into the structured logger
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req ClientLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid log request format")
		return
	}

	if req.Source != "ui" && req.Source != "editor" {
		badRequest(c, "Invalid log source")
		return
	}
	if len(req.Entries) == 0 {
		badRequest(c, "No log entries provided")
		return
	}
	if len(req.Entries) > maxLogBatch {
		badRequest(c, "Too many log entries")
		return
	}

	logger := h.logger.Named("client").With(zap.String("source", req.Source))
	if req.Session != "" {
		logger = logger.With(zap.String("session", req.Session))
	}
	for _, entry := range req.Entries {
		logClientEntry(logger, entry)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":          true,
		"entries_received": len(req.Entries),
		"timestamp":        time.Now().Unix(),
	})
}

func logClientEntry(logger *zap.Logger, entry ClientLogEntry) {
	fields := make([]zap.Field, 0, len(entry.Context)+2)
	fields = append(fields,
		zap.String("client_log_id", entry.ID),
		zap.String("client_timestamp", entry.Timestamp),
	)
	for key, value := range entry.Context {
		switch v := value.(type) {
		case string:
			fields = append(fields, zap.String(key, v))
		case float64:
			fields = append(fields, zap.Float64(key, v))
		case bool:
			fields = append(fields, zap.Bool(key, v))
		default:
			fields = append(fields, zap.Any(key, v))
		}
	}

	switch entry.Level {
	case "error":
		logger.Error(entry.Message, fields...)
	case "warn":
		logger.Warn(entry.Message, fields...)
	case "debug", "verbose":
		logger.Debug(entry.Message, fields...)
	default:
		logger.Info(entry.Message, fields...)
	}
}
