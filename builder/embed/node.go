package embed

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/util"
)

// KindEmbed is the goldmark node kind of an embed block.
var KindEmbed = ast.NewNodeKind("Embed")

// Node replaces a link paragraph once its embed has been fetched.
type Node struct {
	ast.BaseBlock
	Embed *Embed
}

func NewNode(e *Embed) *Node {
	return &Node{Embed: e}
}

func (n *Node) Kind() ast.NodeKind {
	return KindEmbed
}

func (n *Node) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Kind": n.Embed.Kind.String(),
		"URL":  n.Embed.URL,
	}, nil)
}

// Renderer writes embed nodes as HTML cards.
type Renderer struct {
	html.Config
}

func NewRenderer(opts ...html.Option) renderer.NodeRenderer {
	r := &Renderer{Config: html.NewConfig()}
	for _, opt := range opts {
		opt.SetHTMLOption(&r.Config)
	}
	return r
}

func (r *Renderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindEmbed, r.renderEmbed)
}

const dateLayout = "Jan 2, 2006"

func (r *Renderer) renderEmbed(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	e := node.(*Node).Embed
	switch e.Kind {
	case KindPullRequest, KindIssue:
		r.renderGitHub(w, e)
	case KindPost:
		r.renderPost(w, e)
	default:
		return ast.WalkStop, fmt.Errorf("embed: unknown kind %d", e.Kind)
	}
	return ast.WalkSkipChildren, nil
}

func (r *Renderer) renderGitHub(w util.BufWriter, e *Embed) {
	_, _ = fmt.Fprintf(w, `<div class="embed embed-github" data-kind="%s">`, e.Kind)
	_, _ = fmt.Fprintf(w, `<a class="embed-github-link" href="%s"><span class="embed-github-repo">%s/%s</span> <span class="embed-github-number">#%d</span></a>`,
		attr(e.URL), esc(e.Repository.Owner), esc(e.Repository.Name), e.Number)
	_, _ = w.WriteString(`<p class="embed-github-title">`)
	if r.Unsafe && e.TitleHTML != "" {
		_, _ = w.WriteString(e.TitleHTML)
	} else {
		_, _ = w.WriteString(esc(e.Title))
	}
	_, _ = w.WriteString(`</p><div class="embed-meta">`)
	if e.Author.AvatarURL != "" {
		_, _ = fmt.Fprintf(w, `<img src="%s" alt="%s" width="20" height="20" loading="lazy">`,
			attr(e.Author.AvatarURL), esc(e.Author.Login))
	}
	if e.Author.Login != "" {
		_, _ = fmt.Fprintf(w, `<a href="%s">%s</a> `, attr(e.Author.URL), esc(e.Author.Login))
	}
	writeTime(w, e)
	_, _ = w.WriteString("</div></div>\n")
}

func (r *Renderer) renderPost(w util.BufWriter, e *Embed) {
	_, _ = fmt.Fprintf(w, `<blockquote class="embed embed-post" data-id="%s">`, esc(e.ID))
	_, _ = w.WriteString("<p>")
	_, _ = w.WriteString(strings.ReplaceAll(esc(e.Text), "\n", "<br>"))
	_, _ = w.WriteString(`</p><footer class="embed-meta">`)
	if e.Author.AvatarURL != "" {
		_, _ = fmt.Fprintf(w, `<img src="%s" alt="%s" width="20" height="20" loading="lazy">`,
			attr(e.Author.AvatarURL), esc(e.Author.Name))
	}
	_, _ = fmt.Fprintf(w, `<span class="embed-author">%s</span> <span class="embed-username">@%s</span> `,
		esc(e.Author.Name), esc(e.Author.Username))
	_, _ = fmt.Fprintf(w, `<a href="%s">`, attr(e.URL))
	writeTime(w, e)
	_, _ = w.WriteString("</a></footer></blockquote>\n")
}

func writeTime(w util.BufWriter, e *Embed) {
	if e.CreatedAt.IsZero() {
		return
	}
	_, _ = fmt.Fprintf(w, `<time datetime="%s">%s</time>`,
		e.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), e.CreatedAt.Format(dateLayout))
}

func esc(s string) string {
	return string(util.EscapeHTML([]byte(s)))
}

func attr(s string) string {
	return esc(string(util.URLEscape([]byte(s), false)))
}

// Extension registers the embedder and its renderer on a goldmark instance.
type Extension struct {
	Embedder *Embedder
	Priority int
}

func (x *Extension) Extend(m goldmark.Markdown) {
	prio := x.Priority
	if prio == 0 {
		prio = 500
	}
	m.Parser().AddOptions(parser.WithASTTransformers(util.Prioritized(x.Embedder, prio)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(util.Prioritized(NewRenderer(), 500)))
}

