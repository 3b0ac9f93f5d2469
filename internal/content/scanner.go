package content

import (
	"context"
	"net/url"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/notebook/internal/content/widget"
	"github.com/GriffinCanCode/notebook/internal/shared/paths"
)

// Store is the content store the scanner resolves embeds against
type Store interface {
	// FileExists reports whether name (e.g. "notes/a.md") is a known file
	FileExists(name string) bool
	// ReadPage returns the markdown of page
	ReadPage(ctx context.Context, page string) (string, error)
}

// Range is a document span; a cursor is a Range with From == To
type Range struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// State is the editor state a scan runs against
type State struct {
	Doc           []byte
	Page          string
	Selection     []Range
	RenderWidgets bool
}

func (s State) cursorIn(from, to int) bool {
	for _, r := range s.Selection {
		if from <= r.To && r.From <= to {
			return true
		}
	}
	return false
}

// Scanner turns image markup into widget decorations
type Scanner struct {
	store    Store
	renderer *widget.Renderer
	pages    *PageRenderer
	md       goldmark.Markdown
	logger   *zap.Logger
}

// Option configures a Scanner
type Option func(*scannerOptions)

type scannerOptions struct {
	logger     *zap.Logger
	embedDepth int
}

// WithLogger sets the scanner logger
func WithLogger(logger *zap.Logger) Option {
	return func(o *scannerOptions) { o.logger = logger }
}

// WithEmbedDepth bounds how many pages deep embedded pages expand
func WithEmbedDepth(depth int) Option {
	return func(o *scannerOptions) { o.embedDepth = depth }
}

// NewScanner creates a scanner resolving pages in store and rendering media
// with renderer.
func NewScanner(store Store, renderer *widget.Renderer, opts ...Option) *Scanner {
	o := scannerOptions{logger: zap.NewNop(), embedDepth: 3}
	for _, opt := range opts {
		opt(&o)
	}
	return &Scanner{
		store:    store,
		renderer: renderer,
		pages:    NewPageRenderer(store, renderer, o.embedDepth, o.logger),
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM, &Embeds{})),
		logger:   o.logger,
	}
}

// Pages returns the renderer used by embedded-page widgets
func (s *Scanner) Pages() *PageRenderer {
	return s.pages
}

// Cache returns the widget height cache shared by media and page widgets
func (s *Scanner) Cache() *widget.HeightCache {
	return s.renderer.Cache()
}

// Scan walks the document and returns its decorations in document order.
func (s *Scanner) Scan(ctx context.Context, st State) ([]Decoration, error) {
	decorations := []Decoration{}
	if !st.RenderWidgets {
		s.logger.Info("Not rendering widgets", zap.String("page", st.Page))
		return decorations, nil
	}

	root := s.md.Parser().Parse(text.NewReader(st.Doc))
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		embed, ok := n.(*Embed)
		if !ok {
			return ast.WalkContinue, nil
		}
		if err := ctx.Err(); err != nil {
			return ast.WalkStop, err
		}

		t, ok := resolveEmbed(s.store, st.Page, embed.Markup(st.Doc))
		if !ok {
			return ast.WalkSkipChildren, nil
		}

		var w Widget
		if t.isPage {
			w = &PageWidget{Host: st.Page, Page: t.page, pages: s.pages}
		} else {
			w = &MediaWidget{
				Inline:   widget.Inline{URL: t.url, Title: t.title, Dims: t.dims},
				renderer: s.renderer,
			}
		}

		at := afterRune(st.Doc, embed.To)
		decorations = append(decorations, Decoration{
			Kind:   KindWidget,
			From:   at,
			To:     at,
			Block:  true,
			Widget: w,
		})
		if !st.cursorIn(embed.From, embed.To) {
			decorations = append(decorations, Decoration{
				Kind: KindInvisible,
				From: embed.From,
				To:   embed.To,
			})
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return decorations, nil
}

// afterRune returns the offset one character past at, or len(doc) at the end
func afterRune(doc []byte, at int) int {
	if at >= len(doc) {
		return len(doc)
	}
	_, size := utf8.DecodeRune(doc[at:])
	return at + size
}

type embedTarget struct {
	url    string
	title  string
	dims   *widget.Dimensions
	page   string
	isPage bool
}

// resolveEmbed interprets embed markup written on page. Local targets are
// resolved against the page's folder; those naming an existing page become
// page targets.
func resolveEmbed(store Store, page string, markup []byte) (embedTarget, bool) {
	target, alias, ok := matchEmbed(markup)
	if !ok || target == "" {
		return embedTarget{}, false
	}

	t := embedTarget{title: alias}
	if alias != "" {
		parsed := ParseAlias(alias)
		if parsed.Name != "" {
			t.title = parsed.Name
		}
		t.dims = parsed.Dims
	}

	if paths.IsLocalPath(target) {
		if decoded, err := url.PathUnescape(target); err == nil {
			target = decoded
		}
		target = paths.Resolve(page, target)
		ref := paths.ParseRef(target)
		if ref.Page != "" && store.FileExists(paths.PageFile(ref.Page)) {
			t.page = ref.Page
			t.isPage = true
		}
	}
	t.url = target
	return t, true
}
