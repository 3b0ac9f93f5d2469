package http

import (
	"bytes"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/GriffinCanCode/notebook/internal/content"
	"github.com/GriffinCanCode/notebook/internal/content/widget"
)

// ScanRequest is the editor state to decorate
type ScanRequest struct {
	Page          string          `json:"page"`
	Doc           string          `json:"doc"`
	Selection     []content.Range `json:"selection"`
	RenderWidgets *bool           `json:"renderWidgets"`
}

// DecorationView is the JSON form of a decoration
type DecorationView struct {
	Kind   string      `json:"kind"`
	From   int         `json:"from"`
	To     int         `json:"to"`
	Block  bool        `json:"block,omitempty"`
	Widget *WidgetView `json:"widget,omitempty"`
}

// WidgetView is a rendered widget
type WidgetView struct {
	Type       string `json:"type"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	Page       string `json:"page,omitempty"`
	MIMEType   string `json:"mimeType,omitempty"`
	ReadyEvent string `json:"readyEvent,omitempty"`
	HeightKey  string `json:"heightKey"`
	Height     int    `json:"height"`
	HTML       string `json:"html"`
	Error      string `json:"error,omitempty"`
}

// Decorations scans a document and returns its decorations with rendered
// widgets
func (h *Handlers) Decorations(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}

	// positions on the wire are UTF-16 code units, as browser editors count
	doc := []byte(req.Doc)
	offsets := content.NewOffsets(doc)
	selection := make([]content.Range, len(req.Selection))
	for i, r := range req.Selection {
		selection[i] = offsets.ToBytesRange(r)
	}

	state := content.State{
		Doc:           doc,
		Page:          req.Page,
		Selection:     selection,
		RenderWidgets: req.RenderWidgets == nil || *req.RenderWidgets,
	}

	ctx := c.Request.Context()
	start := time.Now()
	decorations, err := h.scanner.Scan(ctx, state)
	if err != nil {
		h.fail(c, err)
		return
	}

	views := make([]DecorationView, 0, len(decorations))
	var media, pages int
	for _, d := range decorations {
		view := DecorationView{
			Kind:  d.Kind.String(),
			From:  offsets.ToUnits(d.From),
			To:    offsets.ToUnits(d.To),
			Block: d.Block,
		}
		switch w := d.Widget.(type) {
		case *content.MediaWidget:
			view.Widget = h.mediaView(w)
			media++
		case *content.PageWidget:
			view.Widget = h.pageView(c, w)
			pages++
		}
		views = append(views, view)
	}
	if h.metrics != nil {
		h.metrics.RecordScan(time.Since(start), media, pages)
	}

	c.JSON(http.StatusOK, gin.H{
		"page":        req.Page,
		"decorations": views,
	})
}

func (h *Handlers) mediaView(w *content.MediaWidget) *WidgetView {
	frag := w.Fragment()
	view := &WidgetView{
		Type:       "media",
		URL:        w.URL,
		Title:      w.Title,
		MIMEType:   frag.MIMEType,
		ReadyEvent: frag.ReadyEvent,
		HeightKey:  widget.ContentKey(w.URL),
		Height:     w.EstimatedHeight(),
	}
	markup, err := frag.HTML()
	if err != nil {
		view.Error = err.Error()
		return view
	}
	view.HTML = markup
	return view
}

func (h *Handlers) pageView(c *gin.Context, w *content.PageWidget) *WidgetView {
	view := &WidgetView{
		Type:      "page",
		Page:      w.Page,
		HeightKey: w.CacheKey(),
		Height:    w.EstimatedHeight(),
	}
	node, err := w.Render(c.Request.Context())
	if err == nil {
		var buf bytes.Buffer
		if err = html.Render(&buf, node); err == nil {
			view.HTML = buf.String()
		}
	}
	if err != nil {
		h.logger.Warn("Failed to render embedded page",
			zap.String("page", w.Page),
			zap.Error(err))
		view.Error = err.Error()
	}
	return view
}

// HeightReport is a widget's measured height after its content loaded
type HeightReport struct {
	Key      string `json:"key" binding:"required"`
	Previous int    `json:"previous"`
	Height   int    `json:"height"`
}

// ReportHeight records a widget's loaded height in the shared cache
func (h *Handlers) ReportHeight(c *gin.Context) {
	var req HeightReport
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request: "+err.Error())
		return
	}
	if !strings.HasPrefix(req.Key, "content:") && !strings.HasPrefix(req.Key, "widget:") {
		badRequest(c, "Invalid height key")
		return
	}
	if req.Height < 0 {
		badRequest(c, "Height must not be negative")
		return
	}

	changed := h.scanner.Cache().Observe(req.Key, req.Previous, req.Height)
	if h.metrics != nil {
		h.metrics.RecordHeightReport(changed)
	}
	c.JSON(http.StatusOK, gin.H{"changed": changed})
}

// GetHeight returns the cached height for a key
func (h *Handlers) GetHeight(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		badRequest(c, "key is required")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"key":    key,
		"height": h.scanner.Cache().Get(key),
	})
}

// RenderPage returns the sanitized HTML of a page as an embedded widget
func (h *Handlers) RenderPage(c *gin.Context) {
	page := strings.TrimPrefix(c.Param("name"), "/")
	node, err := h.scanner.Pages().Render(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, node); err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
