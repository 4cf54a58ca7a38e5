package parser

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
)

// linkTransformer opens external links in a new tab and lazy-loads images.
type linkTransformer struct{}

func (t *linkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch target := n.(type) {
		case *ast.Link:
			if isExternalHref(string(target.Destination)) {
				target.SetAttribute([]byte("target"), []byte("_blank"))
				target.SetAttribute([]byte("rel"), []byte("noopener noreferrer"))
			}
		case *ast.AutoLink:
			if target.AutoLinkType == ast.AutoLinkURL {
				target.SetAttribute([]byte("target"), []byte("_blank"))
				target.SetAttribute([]byte("rel"), []byte("noopener noreferrer"))
			}
		case *ast.Image:
			target.SetAttribute([]byte("loading"), []byte("lazy"))
			target.SetAttribute([]byte("decoding"), []byte("async"))
		}
		return ast.WalkContinue, nil
	})
}

func isExternalHref(href string) bool {
	return strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") || strings.HasPrefix(href, "//")
}
