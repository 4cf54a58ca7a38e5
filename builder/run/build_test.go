package run

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/generators"
	"github.com/Kush-Singh-26/inkwell/builder/search"
	"github.com/Kush-Singh-26/inkwell/builder/services"
	"github.com/Kush-Singh-26/inkwell/builder/testutil"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.BaseURL = "https://example.dev"
	cfg.CacheDir = t.TempDir()
	cfg.BuildTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	cfg.Features.Generators.Bundles = false
	return cfg
}

func newTestBuilder(t *testing.T, cfg *config.Config, files map[string][]byte) *Builder {
	t.Helper()
	src, dst := testutil.CreateTestFilesystemWithContent(files)
	b, err := NewBuilderWithFs(cfg, nil, src, dst)
	if err != nil {
		t.Fatalf("NewBuilderWithFs() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	b.Git = func(context.Context, string, string) (string, error) {
		return "2024-05-01 10:00:00 +0000", nil
	}
	b.Client = &http.Client{Transport: offline{}}
	return b
}

// offline fails every request, so external covers degrade to no placeholder.
type offline struct{}

func (offline) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("offline")
}

func source(title, date, image string, tags ...string) []byte {
	return []byte(testutil.PostSource(title, "About "+title, date, image, tags, "# Intro\n\nSome text about "+title+".\n"))
}

func TestBuild_WritesArtifacts(t *testing.T) {
	cfg := testConfig(t)
	b := newTestBuilder(t, cfg, map[string][]byte{
		"content/posts/alpha/index.md":  source("Alpha", "2024-01-01", "cover.png", "go"),
		"content/posts/alpha/cover.png": testutil.PNG(t, 20, 10),
		"content/posts/beta/index.md":   source("Beta", "2024-02-01", "https://img.test/b.jpg", "rust"),
	})

	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(res.Documents) != 2 {
		t.Fatalf("documents = %d, want 2", len(res.Documents))
	}
	if res.Documents[0].Slug != "beta" {
		t.Errorf("first document = %q, want newest first", res.Documents[0].Slug)
	}
	if res.BuildNumber != 1 {
		t.Errorf("BuildNumber = %d, want 1", res.BuildNumber)
	}

	for _, path := range []string{
		"public/rss.xml",
		"public/sitemap.xml",
		"public/robots.txt",
		"public/site.webmanifest",
		"public/posts/alpha/cover.png",
		"public/og/posts/alpha.webp",
		"public/og/posts/beta.webp",
		cfg.SnapshotPath(),
		cfg.SearchIndexPath(),
		cfg.SearchIndexPath() + ".gz",
	} {
		testutil.AssertFileExists(t, b.DestFs, path)
	}

	metas, err := generators.ReadSnapshot(b.DestFs, cfg.SnapshotPath())
	if err != nil {
		t.Fatal(err)
	}
	if metas[1].Image.BlurDataURL == nil || metas[0].Image.BlurDataURL != nil {
		t.Errorf("placeholders = %v, %v", metas[0].Image.BlurDataURL, metas[1].Image.BlurDataURL)
	}
	if want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC); !metas[0].LastModification.Equal(want) {
		t.Errorf("LastModification = %v, want %v", metas[0].LastModification, want)
	}

	idx, err := search.Read(b.DestFs, cfg.SearchIndexPath())
	if err != nil {
		t.Fatal(err)
	}
	if hits := idx.Search("alpha", search.Options{}); len(hits) == 0 || hits[0].URL != "/posts/alpha" {
		t.Errorf("search alpha = %+v", hits)
	}
	if got := res.Metrics.ArtifactsWritten.Load(); got != 7 {
		t.Errorf("ArtifactsWritten = %d, want 7", got)
	}

	res, err = b.Build(context.Background())
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}
	if res.BuildNumber != 2 {
		t.Errorf("second BuildNumber = %d, want 2", res.BuildNumber)
	}
}

func TestBuild_DisabledGenerators(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.Generators = config.Generators{Search: true}
	b := newTestBuilder(t, cfg, map[string][]byte{
		"content/posts/alpha/index.md": source("Alpha", "2024-01-01", "https://img.test/a.jpg"),
	})
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	testutil.AssertFileExists(t, b.DestFs, cfg.SearchIndexPath())
	testutil.AssertFileNotExists(t, b.DestFs, "public/rss.xml")
	testutil.AssertFileNotExists(t, b.DestFs, cfg.SnapshotPath())
}

func TestBuild_EmptyCorpus(t *testing.T) {
	cfg := testConfig(t)
	b := newTestBuilder(t, cfg, nil)
	res, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(res.Documents) != 0 {
		t.Errorf("documents = %d", len(res.Documents))
	}
	testutil.AssertFileNotExists(t, b.DestFs, cfg.SearchIndexPath())
	testutil.AssertFileExists(t, b.DestFs, cfg.SnapshotPath())
}

func TestBuild_FailureWritesNothing(t *testing.T) {
	tests := map[string]map[string][]byte{
		"duplicate slug": {
			"content/posts/alpha/index.md":  source("Alpha", "2024-01-01", "https://img.test/a.jpg"),
			"content/posts/alpha/index.mdx": source("Alpha again", "2024-01-02", "https://img.test/a.jpg"),
		},
		"missing cover": {
			"content/posts/alpha/index.md": source("Alpha", "2024-01-01", "missing.png"),
		},
		"invalid frontmatter": {
			"content/posts/alpha/index.md": []byte("---\ntitle: Alpha\n---\nbody"),
		},
	}
	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := testConfig(t)
			b := newTestBuilder(t, cfg, files)
			_, err := b.Build(context.Background())
			if err == nil {
				t.Fatal("Build() succeeded")
			}
			var docErr *services.DocumentError
			if !errors.As(err, &docErr) || docErr.Slug != "alpha" {
				t.Errorf("error = %v, want DocumentError for alpha", err)
			}
			testutil.AssertFileNotExists(t, b.DestFs, cfg.SnapshotPath())
			testutil.AssertFileNotExists(t, b.DestFs, cfg.SearchIndexPath())
			testutil.AssertFileNotExists(t, b.DestFs, "public/rss.xml")
		})
	}
}

func TestRelevant(t *testing.T) {
	cfg := config.Default()
	cfg.ConfigFile = "inkwell.yaml"
	tests := []struct {
		path string
		want bool
	}{
		{"content/posts/a/index.md", true},
		{"content/posts/a/cover.png", true},
		{"content/tweets/1.json", true},
		{"inkwell.yaml", true},
		{"public/rss.xml", false},
		{".generated/Post/withoutbody.json", false},
		{".inkwell-cache/meta.db", false},
		{"content/posts/a/.index.md.swp", false},
		{"content/posts/a/index.md~", false},
		{"main.go", false},
	}
	for _, tt := range tests {
		if got := Relevant(cfg, tt.path); got != tt.want {
			t.Errorf("Relevant(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestOpen_BadFlag(t *testing.T) {
	if _, err := Open([]string{"--no-such-flag"}); err == nil || !strings.Contains(err.Error(), "parse flags") {
		t.Errorf("Open() error = %v", err)
	}
}
