package parser

import (
	"strings"

	"github.com/yuin/goldmark/ast"

	"github.com/Kush-Singh-26/inkwell/builder/embed"
)

// ExtractPlainText walks the AST and returns a clean string of all text content
func ExtractPlainText(node ast.Node, source []byte) string {
	var out strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindText:
			t := n.(*ast.Text)
			out.Write(t.Segment.Value(source))
			out.WriteString(" ")
		case ast.KindString:
			out.Write(n.(*ast.String).Value)
			out.WriteString(" ")
		case ast.KindAutoLink:
			out.Write(n.(*ast.AutoLink).Label(source))
			out.WriteString(" ")
		case ast.KindCodeBlock, ast.KindFencedCodeBlock:
			l := n.Lines().Len()
			for i := 0; i < l; i++ {
				line := n.Lines().At(i)
				out.Write(line.Value(source))
			}
			out.WriteString(" ")
		case ast.KindHeading:
			out.WriteString("\n")
		case embed.KindEmbed:
			e := n.(*embed.Node).Embed
			out.WriteString(e.Title)
			out.WriteString(e.Text)
			out.WriteString(" ")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(strings.Fields(out.String()), " ")
}
