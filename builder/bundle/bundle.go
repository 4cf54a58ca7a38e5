// Package bundle compiles the per-post component directories with esbuild.
package bundle

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// ComponentsDir is the per-post directory holding component sources.
const ComponentsDir = "components"

// OutputName is the bundle written next to the post's public assets.
const OutputName = "components.js"

var sourceExts = map[string]api.Loader{
	".js":  api.LoaderJS,
	".jsx": api.LoaderJSX,
	".ts":  api.LoaderTS,
	".tsx": api.LoaderTSX,
}

// Bundler turns <SourceRoot>/<slug>/components/* into one ES module at
// <PublicRoot>/<slug>/components.js. esbuild resolves imports on the OS
// filesystem, so SourceRoot is a real directory.
type Bundler struct {
	SourceRoot string
	DestFs     afero.Fs
	PublicRoot string
	Minify     bool
	Workers    int
	Logger     *slog.Logger
}

// Components lists the component entry files of a post, sorted.
func (b *Bundler) Components(slug string) ([]string, error) {
	dir := filepath.Join(b.SourceRoot, slug, ComponentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if _, ok := sourceExts[strings.ToLower(filepath.Ext(e.Name()))]; ok {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

// exportName turns "code-sandbox.tsx" into "CodeSandbox".
func exportName(file string) string {
	base := strings.TrimSuffix(file, filepath.Ext(file))
	var sb strings.Builder
	upper := true
	for _, r := range base {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if sb.Len() == 0 && unicode.IsDigit(r) {
			sb.WriteRune('_')
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// entry is the synthetic module re-exporting every component namespace.
func entry(files []string) string {
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "export * as %s from %q;\n", exportName(f), "./"+ComponentsDir+"/"+f)
	}
	return sb.String()
}

// Bundle builds one post. It reports whether a bundle was written; posts
// without components produce nothing.
func (b *Bundler) Bundle(slug string) (bool, error) {
	files, err := b.Components(slug)
	if err != nil || len(files) == 0 {
		return false, err
	}
	resolveDir, err := filepath.Abs(filepath.Join(b.SourceRoot, slug))
	if err != nil {
		return false, err
	}

	result := api.Build(api.BuildOptions{
		Stdin: &api.StdinOptions{
			Contents:   entry(files),
			ResolveDir: resolveDir,
			Sourcefile: slug + "/" + OutputName,
			Loader:     api.LoaderJS,
		},
		Bundle:            true,
		Write:             false,
		Outfile:           OutputName,
		Format:            api.FormatESModule,
		Target:            api.ES2020,
		JSX:               api.JSXAutomatic,
		External:          []string{"react", "react-dom", "react/jsx-runtime"},
		MinifyWhitespace:  b.Minify,
		MinifyIdentifiers: b.Minify,
		MinifySyntax:      b.Minify,
		LogLevel:          api.LogLevelSilent,
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, m := range result.Errors {
			msgs = append(msgs, m.Text)
		}
		return false, fmt.Errorf("bundle %s: %s", slug, strings.Join(msgs, "; "))
	}
	if len(result.OutputFiles) == 0 {
		return false, fmt.Errorf("bundle %s: no output", slug)
	}

	dst := filepath.Join(b.PublicRoot, slug, OutputName)
	if _, err := utils.CopyIfChanged(b.DestFs, dst, result.OutputFiles[0].Contents); err != nil {
		return false, err
	}
	return true, nil
}

// BundleAll builds every slug and returns how many bundles exist afterwards.
func (b *Bundler) BundleAll(ctx context.Context, slugs []string) (int, error) {
	built := make([]bool, len(slugs))
	err := utils.ForEach(ctx, b.Workers, slugs, func(_ context.Context, i int, slug string) error {
		ok, err := b.Bundle(slug)
		built[i] = ok
		return err
	})
	n := 0
	for _, ok := range built {
		if ok {
			n++
		}
	}
	if n > 0 {
		b.logger().Debug("component bundles written", "count", n)
	}
	return n, err
}

func (b *Bundler) logger() *slog.Logger {
	if b.Logger != nil {
		return b.Logger
	}
	return slog.Default()
}
