package parser

import (
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/Kush-Singh-26/inkwell/builder/images"
)

// imageTransformer copies local images next to the compiled post and
// annotates them with their size and blur placeholder.
type imageTransformer struct {
	Resolver *images.Resolver
	Logger   *slog.Logger
}

type imageJob struct {
	node   *ast.Image
	src    string
	result *images.InlineImage
	err    error
}

func (t *imageTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	directory := Directory(pc)

	var jobs []*imageJob
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if img, ok := n.(*ast.Image); ok {
			src := string(img.Destination)
			if images.IsLocalRef(src) {
				jobs = append(jobs, &imageJob{node: img, src: src})
			}
		}
		return ast.WalkContinue, nil
	})
	if len(jobs) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, j := range jobs {
		wg.Add(1)
		go func(j *imageJob) {
			defer wg.Done()
			j.result, j.err = t.Resolver.ResolveInlineImage(directory, j.src)
		}(j)
	}
	wg.Wait()

	for _, j := range jobs {
		if j.err != nil {
			t.Logger.Warn("inline image left unannotated", "directory", directory, "src", j.src, "error", j.err)
			continue
		}
		annotate(j.node, j.result)
	}
}

func annotate(n *ast.Image, img *images.InlineImage) {
	n.Destination = []byte(img.Src)
	n.SetAttribute([]byte("width"), []byte(strconv.Itoa(img.Width)))
	n.SetAttribute([]byte("height"), []byte(strconv.Itoa(img.Height)))
	if img.BlurDataURL != "" {
		n.SetAttribute([]byte("data-blur"), []byte(img.BlurDataURL))
		n.SetAttribute([]byte("style"), []byte(fmt.Sprintf("background-image:url(%s);background-size:cover", img.BlurDataURL)))
	}
}
