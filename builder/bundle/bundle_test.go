package bundle

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/testutil"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestBundleAll(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "with", "components", "counter.ts"),
		"import { step } from './util';\nexport const start: number = step * 2;\n")
	writeFile(t, filepath.Join(root, "with", "components", "util.js"), "export const step = 21;\n")
	writeFile(t, filepath.Join(root, "with", "components", "notes.md"), "# not code\n")
	writeFile(t, filepath.Join(root, "without", "index.md"), "---\n---\n")

	dest := afero.NewMemMapFs()
	b := &Bundler{SourceRoot: root, DestFs: dest, PublicRoot: "public/posts", Workers: 2}

	n, err := b.BundleAll(context.Background(), []string{"with", "without"})
	if err != nil {
		t.Fatalf("BundleAll() error = %v", err)
	}
	if n != 1 {
		t.Errorf("bundles = %d, want 1", n)
	}

	out, err := afero.ReadFile(dest, "public/posts/with/components.js")
	if err != nil {
		t.Fatal(err)
	}
	js := string(out)
	if strings.Contains(js, ": number") {
		t.Error("type annotations survived bundling")
	}
	for _, want := range []string{"Counter", "Util", "export"} {
		if !strings.Contains(js, want) {
			t.Errorf("bundle missing %q:\n%s", want, js)
		}
	}
	testutil.AssertFileNotExists(t, dest, "public/posts/without/components.js")
}

func TestBundle_SyntaxError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "bad", "components", "broken.js"), "export const = ;\n")

	b := &Bundler{SourceRoot: root, DestFs: afero.NewMemMapFs(), PublicRoot: "public/posts"}
	if _, err := b.Bundle("bad"); err == nil || !strings.Contains(err.Error(), "bundle bad") {
		t.Errorf("Bundle() error = %v", err)
	}
}

func TestExportName(t *testing.T) {
	tests := map[string]string{
		"counter.ts":       "Counter",
		"code-sandbox.tsx": "CodeSandbox",
		"my_widget.jsx":    "MyWidget",
		"3d-view.js":       "_3dView",
	}
	for in, want := range tests {
		if got := exportName(in); got != want {
			t.Errorf("exportName(%q) = %q, want %q", in, got, want)
		}
	}
}
