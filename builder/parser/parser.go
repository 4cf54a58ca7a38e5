// Package parser compiles post bodies to HTML with goldmark.
package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	chroma_html "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/gohugoio/hugo-goldmark-extensions/passthrough"
	admonitions "github.com/stefanfritsch/goldmark-admonitions"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/Kush-Singh-26/inkwell/builder/embed"
	"github.com/Kush-Singh-26/inkwell/builder/images"
	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

func codeBlockWrapper(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if entering {
		langBytes, _ := c.Language()
		lang := string(langBytes)
		if lang == "" {
			lang = "text"
		}
		_, _ = w.WriteString(`<div class="code-wrapper" data-lang="` + lang + `">`)
	} else {
		_, _ = w.WriteString(`</div>`)
	}
}

var (
	directoryKey = parser.NewContextKey()
	contextKey   = parser.NewContextKey()
)

// Directory returns the post directory the body is compiled for.
func Directory(pc parser.Context) string {
	if v, ok := pc.Get(directoryKey).(string); ok {
		return v
	}
	return ""
}

func compileContext(pc parser.Context) context.Context {
	if ctx, ok := pc.Get(contextKey).(context.Context); ok {
		return ctx
	}
	return context.Background()
}

// Options wires the optional body transformers. Nil members are skipped.
type Options struct {
	Resolver *images.Resolver
	Embedder *embed.Embedder
	Diagrams *D2Renderer
	Minify   bool
	Logger   *slog.Logger
}

// Compiler turns markdown bodies into HTML. It is safe for concurrent use.
type Compiler struct {
	md     goldmark.Markdown
	minify bool
}

// Result is one compiled body.
type Result struct {
	HTML string
	Text string
	TOC  []models.TOCEntry
}

func New(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	transformers := []util.PrioritizedValue{
		util.Prioritized(&linkTransformer{}, 100),
		util.Prioritized(&tocTransformer{}, 200),
	}
	if opts.Diagrams != nil {
		transformers = append(transformers, util.Prioritized(&d2Transformer{Renderer: opts.Diagrams, Logger: logger}, 50))
	}
	if opts.Resolver != nil {
		transformers = append(transformers, util.Prioritized(&imageTransformer{Resolver: opts.Resolver, Logger: logger}, 300))
	}

	exts := []goldmark.Extender{
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("nord"),
			highlighting.WithFormatOptions(
				chroma_html.WithClasses(true),
			),
			highlighting.WithWrapperRenderer(codeBlockWrapper),
		),
		passthrough.New(passthrough.Config{
			InlineDelimiters: []passthrough.Delimiters{{Open: "$", Close: "$"}, {Open: "\\(", Close: "\\)"}},
			BlockDelimiters:  []passthrough.Delimiters{{Open: "$$", Close: "$$"}, {Open: "\\[", Close: "\\]"}},
		}),
		&admonitions.Extender{},
	}
	if opts.Embedder != nil {
		exts = append(exts, &embed.Extension{Embedder: opts.Embedder})
	}

	md := goldmark.New(
		goldmark.WithExtensions(exts...),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(transformers...),
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
	return &Compiler{md: md, minify: opts.Minify}
}

// Compile renders source, the body of the post stored in directory. Rich-link
// fetches honor ctx; a failed fetch under the fail policy fails the compile.
func (c *Compiler) Compile(ctx context.Context, directory string, source []byte) (*Result, error) {
	pc := parser.NewContext()
	pc.Set(directoryKey, directory)
	pc.Set(contextKey, ctx)
	embed.WithContext(pc, ctx)

	doc := c.md.Parser().Parse(text.NewReader(source), parser.WithContext(pc))
	if err := embed.Errors(pc); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := c.md.Renderer().Render(&buf, source, doc); err != nil {
		return nil, fmt.Errorf("render body: %w", err)
	}

	out := buf.Bytes()
	if diagrams := GetD2Diagrams(pc); len(diagrams) > 0 {
		out = ReplaceD2Blocks(out, diagrams)
	}
	if c.minify {
		out = utils.MinifyBytes("text/html", out)
	}

	return &Result{
		HTML: string(out),
		Text: ExtractPlainText(doc, source),
		TOC:  GetTOC(pc),
	}, nil
}
