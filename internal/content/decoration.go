package content

import (
	"context"

	"golang.org/x/net/html"

	"github.com/GriffinCanCode/notebook/internal/content/widget"
)

// DecorationKind distinguishes widget insertions from hidden source spans
type DecorationKind int

const (
	// KindWidget inserts a block widget at From
	KindWidget DecorationKind = iota
	// KindInvisible hides the source span [From, To)
	KindInvisible
)

func (k DecorationKind) String() string {
	switch k {
	case KindWidget:
		return "widget"
	case KindInvisible:
		return "invisible"
	default:
		return "unknown"
	}
}

// Decoration is a position-anchored overlay on the document
type Decoration struct {
	Kind   DecorationKind
	From   int
	To     int
	Block  bool
	Widget Widget
}

// Widget is a visual element injected in place of markup. The rendering
// engine rebuilds a widget's DOM only when Equal reports a change.
type Widget interface {
	Equal(other Widget) bool
	EstimatedHeight() int
	Render(ctx context.Context) (*html.Node, error)
}

// MediaWidget shows an image, video, audio clip or PDF
type MediaWidget struct {
	widget.Inline
	renderer *widget.Renderer
}

// Equal implements Widget.
func (w *MediaWidget) Equal(other Widget) bool {
	o, ok := other.(*MediaWidget)
	return ok && w.Inline.Equal(o.Inline)
}

// EstimatedHeight implements Widget.
func (w *MediaWidget) EstimatedHeight() int {
	return w.renderer.EstimatedHeight(w.Inline)
}

// Fragment renders the widget with its height instrumentation
func (w *MediaWidget) Fragment() *widget.Fragment {
	return w.renderer.Render(w.Inline)
}

// Render implements Widget.
func (w *MediaWidget) Render(ctx context.Context) (*html.Node, error) {
	return w.Fragment().Node, nil
}

// PageWidget renders another page's markdown inline
type PageWidget struct {
	Host  string
	Page  string
	pages *PageRenderer
}

// CacheKey is the height cache key of the widget
func (w *PageWidget) CacheKey() string {
	return "widget:" + w.Host + ":" + w.Page
}

// Equal implements Widget.
func (w *PageWidget) Equal(other Widget) bool {
	o, ok := other.(*PageWidget)
	return ok && w.Host == o.Host && w.Page == o.Page
}

// EstimatedHeight implements Widget.
func (w *PageWidget) EstimatedHeight() int {
	return w.pages.renderer.Cache().Get(w.CacheKey())
}

// Render implements Widget.
func (w *PageWidget) Render(ctx context.Context) (*html.Node, error) {
	return w.pages.Render(ctx, w.Page)
}
