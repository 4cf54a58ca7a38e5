package parser

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/Kush-Singh-26/inkwell/builder/models"
)

var tocKey = parser.NewContextKey()

func GetTOC(pc parser.Context) []models.TOCEntry {
	if v := pc.Get(tocKey); v != nil {
		return v.([]models.TOCEntry)
	}
	return nil
}

type tocTransformer struct{}

func (t *tocTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	var toc []models.TOCEntry

	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		heading, ok := n.(*ast.Heading)
		if !ok || heading.Level < 2 || heading.Level > 6 {
			return ast.WalkContinue, nil
		}

		var headerText strings.Builder
		_ = ast.Walk(heading, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
			if !entering {
				return ast.WalkContinue, nil
			}
			switch c := child.(type) {
			case *ast.Text:
				headerText.Write(c.Segment.Value(reader.Source()))
			case *ast.String:
				headerText.Write(c.Value)
			}
			return ast.WalkContinue, nil
		})

		if id, ok := heading.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				toc = append(toc, models.TOCEntry{
					ID:    string(b),
					Text:  headerText.String(),
					Level: heading.Level,
				})
			}
		}
		return ast.WalkSkipChildren, nil
	})

	pc.Set(tocKey, toc)
}
