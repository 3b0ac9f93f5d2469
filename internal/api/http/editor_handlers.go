package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/editor/socket"
	"github.com/GriffinCanCode/notebook/internal/shared/id"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// ListEditors lists the registered editor implementations
func (h *Handlers) ListEditors(c *gin.Context) {
	defs := h.editors.List()
	editors := make([]gin.H, 0, len(defs))
	for _, def := range defs {
		editors = append(editors, gin.H{
			"name":       def.Name,
			"extensions": def.Extensions,
		})
	}
	c.JSON(http.StatusOK, gin.H{"editors": editors})
}

// ListSessions lists open editor sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}

// OpenSession opens a space file in its editor
func (h *Handlers) OpenSession(c *gin.Context) {
	var req struct {
		Path string `json:"path" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	s, err := h.sessions.Open(c.Request.Context(), req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"session": s.Info(),
		"frame":   "/editor/frame/" + s.ID.String(),
	})
}

func sessionID(c *gin.Context) id.EditorSessionID {
	return id.EditorSessionID(c.Param("id"))
}

// GetSession returns one session
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.sessions.Get(sessionID(c))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, s.Info())
}

// SaveSession asks the editor to save and waits for the outcome
func (h *Handlers) SaveSession(c *gin.Context) {
	outcome, err := h.sessions.Save(c.Request.Context(), sessionID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"outcome": outcome.String()})
}

// FocusSession focuses the editor
func (h *Handlers) FocusSession(c *gin.Context) {
	if err := h.sessions.Focus(sessionID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ReplaceContent swaps the session's document for the request body
func (h *Handlers) ReplaceContent(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "Failed to read body: "+err.Error())
		return
	}
	if err := h.sessions.Replace(c.Request.Context(), sessionID(c), body); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendMessage forwards a public message to the editor
func (h *Handlers) SendMessage(c *gin.Context) {
	var req struct {
		Type string `json:"type" binding:"required"`
		Data any    `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if err := h.sessions.Send(sessionID(c), req.Type, req.Data); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}

// CloseSession destroys the editor after its pending save settles
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.sessions.Close(c.Request.Context(), sessionID(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FramePage serves the isolated page hosting a session's editor
func (h *Handlers) FramePage(c *gin.Context) {
	sid := c.Param("id")
	if !h.hub.Has(sid) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no frame for session"})
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	// the frame runs third-party editor code; keep it away from the host origin
	c.Header("Content-Security-Policy", "sandbox allow-scripts")
	c.Status(http.StatusOK)
	if err := socket.WritePage(c.Writer, "/editor/frame/"+sid+"/ws"); err != nil {
		h.logger.Error("Failed to write frame page", zap.String("session", sid), zap.Error(err))
	}
}

// FrameSocket upgrades the frame page's connection and attaches it
func (h *Handlers) FrameSocket(c *gin.Context) {
	sid := c.Param("id")
	if !h.hub.Has(sid) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no frame for session"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("Frame websocket upgrade failed", zap.String("session", sid), zap.Error(err))
		return
	}
	if err := h.hub.Attach(sid, conn); err != nil {
		status := websocket.CloseInternalServerErr
		if errors.Is(err, socket.ErrAlreadyAttached) {
			status = websocket.ClosePolicyViolation
		}
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(status, err.Error()))
		conn.Close()
		h.logger.Warn("Frame attach rejected", zap.String("session", sid), zap.Error(err))
	}
}
