package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/images"
	"github.com/Kush-Singh-26/inkwell/builder/metrics"
	"github.com/Kush-Singh-26/inkwell/builder/parser"
	"github.com/Kush-Singh-26/inkwell/builder/testutil"
)

const postsRoot = "content/posts"

func post(title, date, image string, tags ...string) []byte {
	return []byte(testutil.PostSource(title, "About "+title, date, image, tags, "Hello **world**.\n"))
}

func TestLoader_Load(t *testing.T) {
	fs, _ := testutil.CreateTestFilesystemWithContent(map[string][]byte{
		postsRoot + "/beta/index.md":   post("Beta", "2024-02-01", "cover.png", "go", "web"),
		postsRoot + "/alpha/index.mdx": post("Alpha", "2024-01-05T10:30:00Z", "https://img.test/a.jpg"),
		postsRoot + "/_drafts/index.md": post("Draft", "2024-01-01", "x.png"),
		postsRoot + "/notes.txt":        []byte("ignored"),
	})
	l := &Loader{Fs: fs, Root: postsRoot}

	docs, err := l.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("Load() returned %d docs, want 2", len(docs))
	}
	alpha, beta := docs[0], docs[1]
	if alpha.Slug != "alpha" || beta.Slug != "beta" {
		t.Fatalf("slugs = %q, %q", alpha.Slug, beta.Slug)
	}
	if alpha.Tags == nil || len(alpha.Tags) != 0 {
		t.Errorf("alpha tags = %#v, want empty non-nil", alpha.Tags)
	}
	if want := time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC); !alpha.Date.Equal(want) {
		t.Errorf("alpha date = %v, want %v", alpha.Date, want)
	}
	if strings.Join(beta.Tags, ",") != "go,web" {
		t.Errorf("beta tags = %v", beta.Tags)
	}
	if beta.CoverImage != "cover.png" || beta.SourceDir != "beta" {
		t.Errorf("beta = %+v", beta)
	}
	if !strings.Contains(beta.RawBody, "Hello **world**.") || strings.Contains(beta.RawBody, "title:") {
		t.Errorf("RawBody = %q", beta.RawBody)
	}
	if beta.URL() != "/posts/beta" {
		t.Errorf("URL() = %q", beta.URL())
	}
}

func TestLoader_InvalidDocument(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing title", testutil.PostSource("", "s", "2024-01-01", "c.png", nil, "body")},
		{"missing summary", testutil.PostSource("T", "", "2024-01-01", "c.png", nil, "body")},
		{"missing image", testutil.PostSource("T", "s", "2024-01-01", "", nil, "body")},
		{"bad date", testutil.PostSource("T", "s", "yesterday", "c.png", nil, "body")},
		{"no frontmatter", "just a body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs, _ := testutil.CreateTestFilesystemWithContent(map[string][]byte{
				postsRoot + "/broken/index.md": []byte(tt.src),
			})
			_, err := (&Loader{Fs: fs, Root: postsRoot}).Load()
			if !errors.Is(err, ErrInvalidDocument) {
				t.Fatalf("Load() error = %v, want ErrInvalidDocument", err)
			}
			var de *DocumentError
			if !errors.As(err, &de) || de.Slug != "broken" {
				t.Errorf("error = %#v, want DocumentError for slug broken", err)
			}
		})
	}
}

func TestLoader_DuplicateSlug(t *testing.T) {
	tests := map[string]map[string][]byte{
		"md and mdx": {
			postsRoot + "/same/index.md":  post("A", "2024-01-01", "c.png"),
			postsRoot + "/same/index.mdx": post("B", "2024-01-01", "c.png"),
		},
		"case only": {
			postsRoot + "/Same/index.md": post("A", "2024-01-01", "c.png"),
			postsRoot + "/same/index.md": post("B", "2024-01-01", "c.png"),
		},
	}
	for name, files := range tests {
		t.Run(name, func(t *testing.T) {
			fs, _ := testutil.CreateTestFilesystemWithContent(files)
			_, err := (&Loader{Fs: fs, Root: postsRoot}).Load()
			if !errors.Is(err, ErrDuplicateSlug) {
				t.Fatalf("Load() error = %v, want ErrDuplicateSlug", err)
			}
		})
	}
}

func TestLoader_MissingRoot(t *testing.T) {
	docs, err := (&Loader{Fs: afero.NewMemMapFs(), Root: postsRoot}).Load()
	if err != nil || len(docs) != 0 {
		t.Errorf("Load() = %v, %v; want empty corpus", docs, err)
	}
}

func TestReadingTime(t *testing.T) {
	words := func(n int) string { return strings.Repeat("word ", n) }
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty", "", "1 min read"},
		{"short", words(50), "1 min read"},
		{"exactly two minutes", words(400), "2 min read"},
		{"just over", words(401), "3 min read"},
		{"svg ignored", words(250) + "<svg viewBox=\"0 0 1 1\">\n" + words(2000) + "</svg>", "2 min read"},
		{"two svgs", "<svg>" + words(900) + "</svg>" + words(10) + "<svg a=\"b\">" + words(900) + "</svg>", "1 min read"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ReadingTime(tt.raw); got != tt.want {
				t.Errorf("ReadingTime() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLastModifier_GitAndMemo(t *testing.T) {
	fs, _ := testutil.CreateTestFilesystemWithContent(map[string][]byte{"p/index.md": []byte("v1")})
	var calls atomic.Int32
	m := &LastModifier{
		Fs:        fs,
		BuildTime: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
		Memo:      testutil.CreateTestMemo(t),
		Metrics:   metrics.NewBuildMetrics(),
		Git: func(ctx context.Context, dir, path string) (string, error) {
			calls.Add(1)
			return "2024-02-03 04:05:06 +0200\n", nil
		},
	}

	want := time.Date(2024, 2, 3, 2, 5, 6, 0, time.UTC)
	for i := 0; i < 2; i++ {
		if got := m.LastModification(context.Background(), "p/index.md"); !got.Equal(want) {
			t.Errorf("LastModification() = %v, want %v", got, want)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("git called %d times, want 1", calls.Load())
	}

	_ = afero.WriteFile(fs, "p/index.md", []byte("v2"), 0644)
	m.LastModification(context.Background(), "p/index.md")
	if calls.Load() != 2 {
		t.Errorf("changed content should bypass the memo, git calls = %d", calls.Load())
	}
}

func TestLastModifier_FallbackToBuildTime(t *testing.T) {
	build := time.Now().UTC()
	fs, _ := testutil.CreateTestFilesystemWithContent(map[string][]byte{"p/index.md": []byte("x")})

	tests := map[string]GitLogFunc{
		"git error": func(context.Context, string, string) (string, error) {
			return "", errors.New("exit status 128")
		},
		"no history": func(context.Context, string, string) (string, error) { return "\n", nil },
		"garbage":    func(context.Context, string, string) (string, error) { return "not a date", nil },
	}
	for name, git := range tests {
		t.Run(name, func(t *testing.T) {
			m := &LastModifier{Fs: fs, BuildTime: build, Git: git}
			if got := m.LastModification(context.Background(), "p/index.md"); !got.Equal(build) {
				t.Errorf("LastModification() = %v, want build time %v", got, build)
			}
		})
	}
}

func TestLastModifier_UntrackedFile(t *testing.T) {
	dir := t.TempDir()
	before := time.Now().UTC()
	m := &LastModifier{Fs: afero.NewOsFs(), RepoDir: dir}
	got := m.LastModification(context.Background(), "content/posts/none/index.md")
	after := time.Now().UTC()
	if got.Before(before.Add(-time.Second)) || got.After(after.Add(time.Second)) {
		t.Errorf("LastModification() = %v, want within build window [%v, %v]", got, before, after)
	}
}

func newPipeline(t *testing.T, files map[string][]byte) (*PostService, *metrics.BuildMetrics) {
	t.Helper()
	src, dst := testutil.CreateTestFilesystemWithContent(files)
	resolver := &images.Resolver{
		SourceFs:     src,
		DestFs:       dst,
		SourceRoot:   postsRoot,
		PublicRoot:   "public/posts",
		ResourcePath: "/posts",
		Blur:         images.NewBlur(testutil.CreateTestStore(t)),
	}
	m := metrics.NewBuildMetrics()
	return &PostService{
		Loader:   &Loader{Fs: src, Root: postsRoot},
		Compiler: parser.New(parser.Options{Resolver: resolver}),
		Covers:   &MemoCovers{Resolver: resolver, Memo: testutil.CreateTestMemo(t), Metrics: m},
		LastMod: &LastModifier{Fs: src, BuildTime: time.Now().UTC(), Git: func(context.Context, string, string) (string, error) {
			return "", errors.New("no git")
		}},
		Workers: 3,
		Metrics: m,
	}, m
}

func TestPostService_Process(t *testing.T) {
	png := testutil.PNG(t, 16, 8)
	svc, m := newPipeline(t, map[string][]byte{
		postsRoot + "/first/index.md":   post("First", "2024-01-01", "cover.png", "go"),
		postsRoot + "/first/cover.png":  png,
		postsRoot + "/second/index.md":  post("Second", "2024-03-01", "https://img.test/2.jpg"),
		postsRoot + "/third/index.md":   post("Third", "2024-03-01", "https://img.test/3.jpg"),
		postsRoot + "/fourth/index.mdx": post("Fourth", "2023-12-31", "https://img.test/4.jpg"),
	})

	docs, err := svc.Process(context.Background())
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	var order []string
	urls := make(map[string]bool)
	for _, d := range docs {
		order = append(order, d.Slug)
		if d.URL() != "/posts/"+d.Slug {
			t.Errorf("URL() = %q for slug %q", d.URL(), d.Slug)
		}
		if urls[d.URL()] {
			t.Errorf("duplicate url %q", d.URL())
		}
		urls[d.URL()] = true
		if d.ReadingTime != "1 min read" || !strings.Contains(d.Body, "<strong>world</strong>") {
			t.Errorf("%s: ReadingTime = %q, Body = %q", d.Slug, d.ReadingTime, d.Body)
		}
	}
	if got := strings.Join(order, ","); got != "second,third,first,fourth" {
		t.Errorf("order = %s, want second,third,first,fourth", got)
	}

	first := docs[2]
	if first.Image.URL != "/posts/first/cover.png" || first.Image.BlurDataURL == nil {
		t.Errorf("first.Image = %+v", first.Image)
	}
	if docs[0].Image.URL != "https://img.test/2.jpg" || docs[0].Image.BlurDataURL != nil {
		t.Errorf("external cover = %+v", docs[0].Image)
	}
	if m.PostsProcessed.Load() != 4 {
		t.Errorf("PostsProcessed = %d, want 4", m.PostsProcessed.Load())
	}
}

func TestPostService_MissingCoverIsFatal(t *testing.T) {
	svc, _ := newPipeline(t, map[string][]byte{
		postsRoot + "/ok/index.md":      post("Ok", "2024-01-01", "https://img.test/x.jpg"),
		postsRoot + "/missing/index.md": post("Missing", "2024-01-02", "nope.png"),
	})
	_, err := svc.Process(context.Background())
	var de *DocumentError
	if !errors.As(err, &de) || de.Slug != "missing" {
		t.Fatalf("Process() error = %v, want DocumentError for missing", err)
	}
}

func TestMemoCovers_SecondBuildHitsMemo(t *testing.T) {
	png := testutil.PNG(t, 10, 10)
	svc, m := newPipeline(t, map[string][]byte{
		postsRoot + "/a/index.md": post("A", "2024-01-01", "c.png"),
		postsRoot + "/a/c.png":    png,
	})
	covers := svc.Covers.(*MemoCovers)

	first, err := covers.ResolveCover(context.Background(), "a", "c.png")
	if err != nil {
		t.Fatal(err)
	}
	second, err := covers.ResolveCover(context.Background(), "a", "c.png")
	if err != nil {
		t.Fatal(err)
	}
	if first.URL != second.URL || *first.BlurDataURL != *second.BlurDataURL {
		t.Errorf("memoized cover %+v differs from %+v", second, first)
	}
	if m.CacheHits.Load() != 1 || m.CacheMisses.Load() != 1 {
		t.Errorf("hits/misses = %d/%d, want 1/1", m.CacheHits.Load(), m.CacheMisses.Load())
	}
}

func TestMemoCovers_WriteFailureIsLogged(t *testing.T) {
	svc, _ := newPipeline(t, map[string][]byte{
		postsRoot + "/a/c.png": testutil.PNG(t, 10, 10),
	})
	covers := svc.Covers.(*MemoCovers)
	if err := covers.Memo.Close(); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	covers.Logger = slog.New(slog.NewTextHandler(&logs, nil))

	img, err := covers.ResolveCover(context.Background(), "a", "c.png")
	if err != nil {
		t.Fatalf("ResolveCover() error = %v", err)
	}
	if img.URL != "/posts/a/c.png" || img.BlurDataURL == nil {
		t.Errorf("ResolveCover() = %+v", img)
	}
	if out := logs.String(); !strings.Contains(out, "level=WARN") || !strings.Contains(out, "failed to memoize cover") {
		t.Errorf("memo write failure not logged: %q", out)
	}
}
