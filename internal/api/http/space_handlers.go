package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/notebook/internal/content/widget"
	"github.com/GriffinCanCode/notebook/internal/shared/paths"
)

// wildcard returns a catch-all route parameter without its leading slash
func wildcard(c *gin.Context, name string) string {
	return strings.TrimPrefix(c.Param(name), "/")
}

// ListPages lists every page in the space
func (h *Handlers) ListPages(c *gin.Context) {
	pages := h.store.Pages()
	c.JSON(http.StatusOK, gin.H{
		"pages": pages,
		"count": len(pages),
	})
}

// GetPage returns a page's markdown
func (h *Handlers) GetPage(c *gin.Context) {
	text, err := h.store.ReadPage(c.Request.Context(), wildcard(c, "name"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(text))
}

// PutPage replaces a page's markdown with the request body
func (h *Handlers) PutPage(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, "Failed to read body: "+err.Error())
		return
	}
	info, err := h.store.Write(c.Request.Context(), paths.PageFile(wildcard(c, "name")), body)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// DeletePage removes a page
func (h *Handlers) DeletePage(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), paths.PageFile(wildcard(c, "name"))); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListFiles lists space files matching the optional glob in ?pattern=
func (h *Handlers) ListFiles(c *gin.Context) {
	files, err := h.store.List(c.Query("pattern"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"files": files,
		"count": len(files),
	})
}

// ServeFile serves a space file, the target of local inline media
func (h *Handlers) ServeFile(c *gin.Context) {
	name := wildcard(c, "path")
	data, info, err := h.store.Read(c.Request.Context(), name)
	if err != nil {
		h.fail(c, err)
		return
	}

	contentType := widget.MIMEType(name)
	if contentType == "" {
		contentType = info.ContentType
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, contentType, data)
}
