package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListServices lists the services editors can call
func (h *Handlers) ListServices(c *gin.Context) {
	services := h.services.List()
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    h.services.Stats(),
	})
}

// Syscall invokes "service.tool" with positional arguments
func (h *Handlers) Syscall(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
		Args []any  `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.services.Invoke(c.Request.Context(), req.Name, req.Args)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// ListThemes lists themes and the active one
func (h *Handlers) ListThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"themes":  h.themes.List(),
		"current": h.themes.Current(),
	})
}

// SetTheme switches the active theme, which open editors pick up
func (h *Handlers) SetTheme(c *gin.Context) {
	var req struct {
		ID string `json:"id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	theme, err := h.themes.Set(c.Request.Context(), req.ID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, theme)
}
