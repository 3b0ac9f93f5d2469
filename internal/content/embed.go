package content

import (
	"html"
	"regexp"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// KindEmbed is the NodeKind of Embed nodes
var KindEmbed = ast.NewNodeKind("Embed")

// Embed is an image reference: "![alias](url)" or "![[url|alias]]". It keeps
// the byte span of its markup in the source document.
type Embed struct {
	ast.BaseInline

	From int
	To   int
}

// Kind implements Node.Kind.
func (n *Embed) Kind() ast.NodeKind {
	return KindEmbed
}

// Dump implements Node.Dump.
func (n *Embed) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Markup": string(n.Markup(source)),
	}, nil)
}

// Markup returns the raw source of the embed
func (n *Embed) Markup(source []byte) []byte {
	return source[n.From:n.To]
}

var (
	embedMarkdownSyntax = regexp.MustCompile(`^!\[[^\]\n]*\]\([^)\n]+\)`)
	embedWikiSyntax     = regexp.MustCompile(`^!\[\[[^\]\n]+\]\]`)

	markdownTarget = regexp.MustCompile(`!?\[([^\]]*)\]\((.+)\)`)
	wikiTarget     = regexp.MustCompile(`!?\[\[([^\]|]+)(?:\|([^\]]+))?\]\]`)
)

// matchEmbed extracts the target and caption from embed markup. Wiki targets
// are rooted at the space ("/" prefixed).
func matchEmbed(markup []byte) (url, alias string, ok bool) {
	if m := markdownTarget.FindSubmatch(markup); m != nil {
		return string(m[2]), string(m[1]), true
	}
	if m := wikiTarget.FindSubmatch(markup); m != nil {
		return "/" + string(m[1]), string(m[2]), true
	}
	return "", "", false
}

type embedParser struct{}

func (p *embedParser) Trigger() []byte {
	return []byte{'!'}
}

func (p *embedParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, segment := block.PeekLine()
	loc := embedWikiSyntax.FindIndex(line)
	if loc == nil {
		loc = embedMarkdownSyntax.FindIndex(line)
	}
	if loc == nil {
		return nil
	}
	n := &Embed{
		From: segment.Start,
		To:   segment.Start + loc[1],
	}
	block.Advance(loc[1])
	return n
}

// EmbedRenderFunc writes the HTML for an embed node.
type EmbedRenderFunc func(w util.BufWriter, source []byte, n *Embed) error

type embedHTMLRenderer struct {
	render EmbedRenderFunc
}

func (r *embedHTMLRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindEmbed, r.renderEmbed)
}

func (r *embedHTMLRenderer) renderEmbed(w util.BufWriter, source []byte, n ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	embed := n.(*Embed)
	if r.render == nil {
		_, _ = w.WriteString(html.EscapeString(string(embed.Markup(source))))
		return ast.WalkSkipChildren, nil
	}
	if err := r.render(w, source, embed); err != nil {
		return ast.WalkStop, err
	}
	return ast.WalkSkipChildren, nil
}

// Embeds is a goldmark extension recognizing embed markup. Render, when set,
// controls how embeds appear in HTML output.
type Embeds struct {
	Render EmbedRenderFunc
}

// Extend implements goldmark.Extender.
func (e *Embeds) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&embedParser{}, 199),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&embedHTMLRenderer{render: e.Render}, 500),
	))
}
