package content

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/util"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/GriffinCanCode/notebook/internal/content/widget"
)

// PageRenderer renders pages as markdown widgets, following embeds inside
// them up to a fixed depth.
type PageRenderer struct {
	store    Store
	renderer *widget.Renderer
	policy   *bluemonday.Policy
	maxDepth int
	logger   *zap.Logger
}

// NewPageRenderer creates a page renderer. maxDepth bounds how many pages
// deep embeds are expanded.
func NewPageRenderer(store Store, renderer *widget.Renderer, maxDepth int, logger *zap.Logger) *PageRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxDepth < 1 {
		maxDepth = 1
	}
	return &PageRenderer{
		store:    store,
		renderer: renderer,
		policy:   pagePolicy(),
		maxDepth: maxDepth,
		logger:   logger,
	}
}

func pagePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowDataAttributes()
	p.AllowStyles("display", "width", "height", "max-width").Globally()
	p.AllowElements("video", "audio", "object")
	p.AllowAttrs("src", "title", "controls").OnElements("video", "audio")
	p.AllowAttrs("type", "data").OnElements("object")
	return p
}

// Render returns the sanitized HTML of page wrapped in a markdown widget
// container.
func (p *PageRenderer) Render(ctx context.Context, page string) (*html.Node, error) {
	raw, err := p.renderPage(ctx, page, nil)
	if err != nil {
		return nil, err
	}

	wrapper := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "class", Val: "sb-markdown-widget-inline"},
			{Key: "data-page", Val: page},
		},
	}
	nodes, err := html.ParseFragment(strings.NewReader(p.policy.Sanitize(raw)), wrapper)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rendered page %s: %w", page, err)
	}
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	return wrapper, nil
}

func (p *PageRenderer) renderPage(ctx context.Context, page string, chain []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, err := p.store.ReadPage(ctx, page)
	if err != nil {
		return "", fmt.Errorf("failed to read page %s: %w", page, err)
	}
	chain = append(chain, page)

	md := goldmark.New(goldmark.WithExtensions(
		extension.GFM,
		&Embeds{Render: func(w util.BufWriter, source []byte, n *Embed) error {
			return p.renderEmbed(ctx, w, source, n, page, chain)
		}},
	))

	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render page %s: %w", page, err)
	}
	return buf.String(), nil
}

func (p *PageRenderer) renderEmbed(ctx context.Context, w util.BufWriter, source []byte, n *Embed, page string, chain []string) error {
	t, ok := resolveEmbed(p.store, page, n.Markup(source))
	if !ok {
		_, err := w.WriteString(html.EscapeString(string(n.Markup(source))))
		return err
	}

	if !t.isPage {
		frag := p.renderer.Render(widget.Inline{URL: t.url, Title: t.title, Dims: t.dims})
		return html.Render(w, frag.Node)
	}

	if len(chain) >= p.maxDepth || slices.Contains(chain, t.page) {
		p.logger.Debug("Not expanding embedded page",
			zap.String("page", t.page),
			zap.Strings("chain", chain))
		_, err := fmt.Fprintf(w, `<a href="/%s">%s</a>`, html.EscapeString(t.page), html.EscapeString(t.page))
		return err
	}

	inner, err := p.renderPage(ctx, t.page, chain)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, `<div class="sb-markdown-widget-inline" data-page="%s">%s</div>`, html.EscapeString(t.page), inner)
	return err
}
