package widget

import (
	"bytes"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/GriffinCanCode/notebook/internal/shared/paths"
)

// Inline is a media widget shown in place of image markup. Two widgets with
// the same URL, title and dimensions render identically.
type Inline struct {
	URL   string
	Title string
	Dims  *Dimensions
}

// Equal reports structural equality
func (w Inline) Equal(other Inline) bool {
	return w.URL == other.URL && w.Title == other.Title && equalDims(w.Dims, other.Dims)
}

// Fragment is a rendered widget. Node is the wrapper element handed to the
// client; Element is the media element inside it, nil for unsupported types.
type Fragment struct {
	Node       *html.Node
	Element    *html.Node
	MIMEType   string
	ReadyEvent string

	key    string
	cached int
	cache  *HeightCache
	once   sync.Once
}

// Loaded is the one-shot listener for the element's ready event. It records
// clientHeight when it differs from the height cached at render time.
func (f *Fragment) Loaded(clientHeight int) bool {
	if f.Element == nil {
		return false
	}
	written := false
	f.once.Do(func() {
		written = f.cache.Observe(f.key, f.cached, clientHeight)
	})
	return written
}

// HTML serializes the fragment
func (f *Fragment) HTML() (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, f.Node); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Renderer builds DOM fragments for inline widgets
type Renderer struct {
	cache     *HeightCache
	assetBase string
	logger    *zap.Logger
}

// Option configures a Renderer
type Option func(*Renderer)

// WithAssetBase prefixes local URLs, e.g. "/fs/"
func WithAssetBase(base string) Option {
	return func(r *Renderer) { r.assetBase = base }
}

// WithLogger sets the renderer logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Renderer) { r.logger = logger }
}

// NewRenderer creates a renderer backed by cache
func NewRenderer(cache *HeightCache, opts ...Option) *Renderer {
	r := &Renderer{
		cache:  cache,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Cache returns the height cache shared by rendered fragments
func (r *Renderer) Cache() *HeightCache {
	return r.cache
}

// EstimatedHeight returns the cached height for w, 0 when unknown
func (r *Renderer) EstimatedHeight(w Inline) int {
	return r.cache.Get(ContentKey(w.URL))
}

// Render builds the DOM fragment for w. Unknown or unsupported media types
// produce an empty container.
func (r *Renderer) Render(w Inline) *Fragment {
	div := element(atom.Div,
		attr("class", "sb-inline-content"),
		attr("style", "display: block"))

	frag := &Fragment{
		Node:     div,
		MIMEType: MIMEType(w.URL),
		key:      ContentKey(w.URL),
		cache:    r.cache,
	}
	if frag.MIMEType == "" {
		r.logger.Debug("No media type for inline content", zap.String("url", w.URL))
		return frag
	}

	src := w.URL
	if isLocal(src) {
		src = r.assetBase + paths.EncodeColons(src)
	}

	var el *html.Node
	style := &styleDecl{}
	switch {
	case strings.HasPrefix(frag.MIMEType, "image/"):
		el = element(atom.Img, attr("src", src), attr("alt", w.Title))
		frag.ReadyEvent = "load"
	case strings.HasPrefix(frag.MIMEType, "video/"):
		el = element(atom.Video, attr("src", src), attr("title", w.Title), attr("controls", ""))
		frag.ReadyEvent = "loadeddata"
	case strings.HasPrefix(frag.MIMEType, "audio/"):
		el = element(atom.Audio, attr("src", src), attr("title", w.Title), attr("controls", ""))
		frag.ReadyEvent = "loadeddata"
	case frag.MIMEType == "application/pdf":
		el = element(atom.Object, attr("type", frag.MIMEType), attr("data", src))
		style.set("width", "100%")
		style.set("height", "20em")
		frag.ReadyEvent = "load"
	default:
		return frag
	}

	frag.cached = r.cache.Get(frag.key)
	style.set("max-width", "100%")
	if w.Dims != nil {
		if w.Dims.Height > 0 {
			style.set("height", px(w.Dims.Height))
		}
		if w.Dims.Width > 0 {
			style.set("width", px(w.Dims.Width))
		}
	} else if frag.cached > 0 {
		style.set("height", px(frag.cached))
	}

	el.Attr = append(el.Attr,
		attr("style", style.String()),
		attr("data-ready-event", frag.ReadyEvent),
		attr("data-height-key", frag.key))
	div.AppendChild(el)
	frag.Element = el
	return frag
}

func isLocal(url string) bool {
	return paths.IsLocalPath(url)
}

func px(n int) string {
	return strconv.Itoa(n) + "px"
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: a,
		Data:     a.String(),
		Attr:     attrs,
	}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

// styleDecl is an ordered CSS declaration list where later sets replace
// earlier values of the same property in place.
type styleDecl struct {
	props []string
	vals  map[string]string
}

func (s *styleDecl) set(prop, val string) {
	if s.vals == nil {
		s.vals = make(map[string]string)
	}
	if _, ok := s.vals[prop]; !ok {
		s.props = append(s.props, prop)
	}
	s.vals[prop] = val
}

func (s *styleDecl) String() string {
	parts := make([]string, 0, len(s.props))
	for _, p := range s.props {
		parts = append(parts, p+": "+s.vals[p])
	}
	return strings.Join(parts, "; ")
}
