package parser

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"oss.terrastruct.com/d2/d2graph"
	"oss.terrastruct.com/d2/d2layouts/d2dagrelayout"
	"oss.terrastruct.com/d2/d2lib"
	"oss.terrastruct.com/d2/d2renderers/d2svg"
	d2log "oss.terrastruct.com/d2/lib/log"
	"oss.terrastruct.com/d2/lib/textmeasure"
	"oss.terrastruct.com/util-go/go2"

	"github.com/Kush-Singh-26/inkwell/builder/cache"
)

const (
	D2LightTheme int64 = 0
	D2DarkTheme  int64 = 200
)

// D2Renderer renders d2 sources to SVG and caches the output in the checksum
// store, keyed by theme and source.
type D2Renderer struct {
	store  cache.Store
	rulers sync.Pool
}

func NewD2Renderer(store cache.Store) *D2Renderer {
	return &D2Renderer{store: store}
}

func d2Key(code string, themeID int64) string {
	return cache.KeyString("d2", strconv.FormatInt(themeID, 10), code)
}

// Render returns the SVG for code in the given theme.
func (r *D2Renderer) Render(ctx context.Context, code string, themeID int64) (string, error) {
	key := d2Key(code, themeID)
	if r.store != nil {
		if data, err := r.store.Get(key); err == nil {
			return string(data), nil
		}
	}

	svg, err := r.render(ctx, code, themeID)
	if err != nil {
		return "", err
	}
	if r.store != nil {
		_ = r.store.Put(key, svg)
	}
	return string(svg), nil
}

func (r *D2Renderer) render(ctx context.Context, code string, themeID int64) ([]byte, error) {
	ruler, _ := r.rulers.Get().(*textmeasure.Ruler)
	if ruler == nil {
		var err error
		if ruler, err = textmeasure.NewRuler(); err != nil {
			return nil, fmt.Errorf("d2 ruler: %w", err)
		}
	}
	defer r.rulers.Put(ruler)

	layout := func(ctx context.Context, g *d2graph.Graph) error {
		return d2dagrelayout.Layout(ctx, g, nil)
	}
	compileOpts := &d2lib.CompileOptions{
		Ruler: ruler,
		LayoutResolver: func(engine string) (d2graph.LayoutGraph, error) {
			return layout, nil
		},
	}
	renderOpts := &d2svg.RenderOpts{
		ThemeID: &themeID,
		Pad:     go2.Pointer(int64(0)),
	}

	diagram, _, err := d2lib.Compile(d2log.WithDefault(ctx), code, compileOpts, renderOpts)
	if err != nil {
		return nil, fmt.Errorf("d2 compile failed: %w", err)
	}
	out, err := d2svg.Render(diagram, renderOpts)
	if err != nil {
		return nil, fmt.Errorf("d2 render failed: %w", err)
	}
	return out, nil
}

// D2Diagram holds both theme renderings of one d2 block. OK is false when
// rendering failed and the block stays a code listing.
type D2Diagram struct {
	Light string
	Dark  string
	OK    bool
}

var d2DiagramsKey = parser.NewContextKey()

// GetD2Diagrams returns the diagrams of the compiled body in source order.
func GetD2Diagrams(pc parser.Context) []D2Diagram {
	if v, ok := pc.Get(d2DiagramsKey).([]D2Diagram); ok {
		return v
	}
	return nil
}

type d2Transformer struct {
	Renderer *D2Renderer
	Logger   *slog.Logger
}

func (t *d2Transformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()
	var codes []string

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok || strings.ToLower(strings.TrimSpace(string(fcb.Language(source)))) != "d2" {
			return ast.WalkContinue, nil
		}
		var b bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			b.Write(line.Value(source))
		}
		codes = append(codes, strings.TrimSpace(b.String()))
		return ast.WalkContinue, nil
	})
	if len(codes) == 0 {
		return
	}

	ctx := compileContext(pc)
	results := make([]D2Diagram, len(codes))
	var wg sync.WaitGroup
	for i, code := range codes {
		if code == "" {
			continue
		}
		wg.Add(1)
		go func(idx int, code string) {
			defer wg.Done()
			light, err := t.Renderer.Render(ctx, code, D2LightTheme)
			if err != nil {
				t.Logger.Warn("d2 light theme render failed", "error", err)
				return
			}
			dark, err := t.Renderer.Render(ctx, code, D2DarkTheme)
			if err != nil {
				t.Logger.Warn("d2 dark theme render failed", "error", err)
				return
			}
			results[idx] = D2Diagram{Light: light, Dark: dark, OK: true}
		}(i, code)
	}
	wg.Wait()

	pc.Set(d2DiagramsKey, results)
}

// d2BlockRegex matches a rendered d2 fence, highlighted or plain.
var d2BlockRegex = regexp.MustCompile(`(?s)<div class="code-wrapper" data-lang="d2">.*?</div>|<pre[^>]*><code class="language-d2">.*?</code></pre>`)

// ReplaceD2Blocks swaps rendered d2 fences for their light and dark SVGs, in order.
func ReplaceD2Blocks(html []byte, diagrams []D2Diagram) []byte {
	idx := 0
	return d2BlockRegex.ReplaceAllFunc(html, func(match []byte) []byte {
		if idx >= len(diagrams) {
			return match
		}
		d := diagrams[idx]
		idx++
		if !d.OK {
			return match
		}
		return []byte(fmt.Sprintf(`<div class="d2-container" data-diagram="true"><div class="d2-light">%s</div><div class="d2-dark">%s</div></div>`, d.Light, d.Dark))
	})
}
