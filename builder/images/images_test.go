package images

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/cache"
	"github.com/Kush-Singh-26/inkwell/builder/embed"
	"github.com/Kush-Singh-26/inkwell/builder/testutil"
)

func decodeDataURL(t *testing.T, url string) (int, int) {
	t.Helper()
	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(url, prefix) {
		t.Fatalf("data URL %q lacks %q prefix", url, prefix)
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, prefix))
	if err != nil {
		t.Fatalf("base64 decode failed: %v", err)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("png decode failed: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestPlaceholder_PreservesAspectRatio(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		wantHeight    int
	}{
		{"landscape 2:1", 64, 32, 4},
		{"square", 40, 40, 8},
		{"portrait 1:2", 30, 60, 16},
		{"16:10", 160, 100, 5},
		{"very wide", 400, 10, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url, err := Placeholder(testutil.PNG(t, tt.width, tt.height))
			if err != nil {
				t.Fatalf("Placeholder() error = %v", err)
			}
			w, h := decodeDataURL(t, url)
			if w != PlaceholderWidth {
				t.Errorf("width = %d, want %d", w, PlaceholderWidth)
			}
			if h != tt.wantHeight {
				t.Errorf("height = %d, want %d", h, tt.wantHeight)
			}
		})
	}
}

func TestPlaceholder_InvalidImage(t *testing.T) {
	for _, data := range [][]byte{nil, []byte("not an image"), []byte("<svg></svg>")} {
		if _, err := Placeholder(data); !errors.Is(err, ErrInvalidImage) {
			t.Errorf("Placeholder(%q) error = %v, want ErrInvalidImage", data, err)
		}
	}
}

func TestBlur_UsesCache(t *testing.T) {
	store := testutil.CreateTestStore(t)
	blur := NewBlur(store)
	data := testutil.PNG(t, 20, 10)

	first, err := blur.DataURL(data)
	if err != nil {
		t.Fatalf("DataURL() error = %v", err)
	}
	if !store.Has(cache.Key(data)) {
		t.Error("placeholder should be stored under the image checksum")
	}
	second, _ := blur.DataURL(data)
	if first != second {
		t.Error("cached placeholder differs from the computed one")
	}
}

func newTestResolver(t *testing.T, files map[string][]byte) (*Resolver, afero.Fs) {
	t.Helper()
	src, dst := testutil.CreateTestFilesystemWithContent(files)
	return &Resolver{
		SourceFs:     src,
		DestFs:       dst,
		SourceRoot:   "content/posts",
		PublicRoot:   "public/posts",
		ResourcePath: "/posts",
		Blur:         NewBlur(testutil.CreateTestStore(t)),
	}, dst
}

func TestResolveCoverImage_External(t *testing.T) {
	r, _ := newTestResolver(t, nil)
	ref := "https://images.unsplash.com/photo-1"
	got, err := r.ResolveCoverImage("hello", ref)
	if err != nil {
		t.Fatalf("ResolveCoverImage() error = %v", err)
	}
	if got != ref {
		t.Errorf("ResolveCoverImage() = %q, want unchanged %q", got, ref)
	}
	if r.Copies() != 0 {
		t.Errorf("Copies() = %d, want 0", r.Copies())
	}
}

func TestResolveCoverImage_CopiesOnce(t *testing.T) {
	data := testutil.PNG(t, 16, 9)
	r, dst := newTestResolver(t, map[string][]byte{"content/posts/hello/cover.png": data})

	for i := 0; i < 2; i++ {
		got, err := r.ResolveCoverImage("hello", "cover.png")
		if err != nil {
			t.Fatalf("ResolveCoverImage() error = %v", err)
		}
		if got != "/posts/hello/cover.png" {
			t.Errorf("ResolveCoverImage() = %q, want %q", got, "/posts/hello/cover.png")
		}
	}

	testutil.AssertFileContent(t, dst, "public/posts/hello/cover.png", data)
	if r.Copies() != 1 {
		t.Errorf("Copies() = %d after two calls with unchanged bytes, want 1", r.Copies())
	}
}

func TestResolveCoverImage_RecopiesChangedSource(t *testing.T) {
	r, dst := newTestResolver(t, map[string][]byte{"content/posts/a/c.png": testutil.PNG(t, 4, 4)})
	if _, err := r.ResolveCoverImage("a", "c.png"); err != nil {
		t.Fatal(err)
	}
	changed := testutil.PNG(t, 8, 4)
	_ = afero.WriteFile(r.SourceFs, "content/posts/a/c.png", changed, 0644)
	if _, err := r.ResolveCoverImage("a", "c.png"); err != nil {
		t.Fatal(err)
	}
	testutil.AssertFileContent(t, dst, "public/posts/a/c.png", changed)
	if r.Copies() != 2 {
		t.Errorf("Copies() = %d, want 2", r.Copies())
	}
}

func TestResolveCoverImage_MissingSource(t *testing.T) {
	r, _ := newTestResolver(t, nil)
	if _, err := r.ResolveCoverImage("a", "missing.png"); err == nil {
		t.Error("ResolveCoverImage() should fail for a missing local image")
	}
}

func TestResolveCover_BlurOptional(t *testing.T) {
	r, _ := newTestResolver(t, map[string][]byte{
		"content/posts/a/cover.png": testutil.PNG(t, 10, 5),
		"content/posts/b/cover.svg": []byte("<svg xmlns='http://www.w3.org/2000/svg'></svg>"),
	})

	img, err := r.ResolveCover(context.Background(), "a", "cover.png")
	if err != nil {
		t.Fatalf("ResolveCover() error = %v", err)
	}
	if img.BlurDataURL == nil {
		t.Error("BlurDataURL should be set for a decodable image")
	}

	img, err = r.ResolveCover(context.Background(), "b", "cover.svg")
	if err != nil {
		t.Fatalf("ResolveCover() error = %v", err)
	}
	if img.URL != "/posts/b/cover.svg" || img.BlurDataURL != nil {
		t.Errorf("ResolveCover(svg) = %+v, want url set and no blur", img)
	}
}

func TestResolveInlineImage(t *testing.T) {
	r, dst := newTestResolver(t, map[string][]byte{
		"content/posts/a/img/diagram.png": testutil.PNG(t, 30, 20),
		"content/posts/a/broken.png":      []byte("garbage"),
	})

	img, err := r.ResolveInlineImage("a", "img/diagram.png")
	if err != nil {
		t.Fatalf("ResolveInlineImage() error = %v", err)
	}
	if img.Width != 30 || img.Height != 20 {
		t.Errorf("dimensions = %dx%d, want 30x20", img.Width, img.Height)
	}
	if img.Src != "/posts/a/img/diagram.png" {
		t.Errorf("Src = %q, want %q", img.Src, "/posts/a/img/diagram.png")
	}
	if !strings.HasPrefix(img.BlurDataURL, "data:image/png;base64,") {
		t.Errorf("BlurDataURL = %q", img.BlurDataURL)
	}
	testutil.AssertFileExists(t, dst, "public/posts/a/img/diagram.png")

	if _, err := r.ResolveInlineImage("a", "broken.png"); !errors.Is(err, ErrInvalidImage) {
		t.Errorf("ResolveInlineImage(broken) error = %v, want ErrInvalidImage", err)
	}
	testutil.AssertFileNotExists(t, dst, "public/posts/a/broken.png")
}

func TestIsLocalRef(t *testing.T) {
	tests := map[string]bool{
		"img.png":                true,
		"./img.png":              true,
		"/static/img.png":        false,
		"https://x.test/img.png": false,
		"//cdn.test/img.png":     false,
		"data:image/png;base64,": false,
		"":                       false,
	}
	for in, want := range tests {
		if got := IsLocalRef(in); got != want {
			t.Errorf("IsLocalRef(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestResolveCover_Remote(t *testing.T) {
	cover := testutil.PNG(t, 16, 8)
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		hits.Add(1)
		switch req.URL.Path {
		case "/cover.png":
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write(cover)
		case "/garbage.png":
			_, _ = w.Write([]byte("not an image"))
		default:
			http.NotFound(w, req)
		}
	}))
	defer srv.Close()

	r, _ := newTestResolver(t, nil)
	client := embed.NewHTTPClient(2 * time.Second)
	r.Fetch = func(ctx context.Context, url string) ([]byte, error) {
		return embed.Fetch(ctx, client, url)
	}
	ctx := context.Background()

	img, err := r.ResolveCover(ctx, "a", srv.URL+"/cover.png")
	if err != nil {
		t.Fatalf("ResolveCover() error = %v", err)
	}
	if img.URL != srv.URL+"/cover.png" {
		t.Errorf("URL = %q, want the external ref unchanged", img.URL)
	}
	if img.BlurDataURL == nil {
		t.Fatal("BlurDataURL should be derived from the downloaded cover")
	}
	if w, h := decodeDataURL(t, *img.BlurDataURL); w != PlaceholderWidth || h != 4 {
		t.Errorf("placeholder = %dx%d, want %dx4", w, h, PlaceholderWidth)
	}

	again, err := r.ResolveCover(ctx, "b", srv.URL+"/cover.png")
	if err != nil || again.BlurDataURL == nil || *again.BlurDataURL != *img.BlurDataURL {
		t.Errorf("second ResolveCover() = %+v, %v", again, err)
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1 (placeholder cached by URL)", n)
	}

	for _, path := range []string{"/missing.png", "/garbage.png"} {
		img, err := r.ResolveCover(ctx, "a", srv.URL+path)
		if err != nil {
			t.Fatalf("ResolveCover(%s) error = %v", path, err)
		}
		if img.URL != srv.URL+path || img.BlurDataURL != nil {
			t.Errorf("ResolveCover(%s) = %+v, want url and no blur", path, img)
		}
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if img, _ := r.ResolveCover(cancelled, "a", srv.URL+"/other.png"); img.BlurDataURL != nil {
		t.Error("cancelled context should leave BlurDataURL nil")
	}
}

func TestResolveCover_RemoteWithoutFetcher(t *testing.T) {
	r, _ := newTestResolver(t, nil)
	img, err := r.ResolveCover(context.Background(), "a", "https://images.unsplash.com/x")
	if err != nil || img.URL != "https://images.unsplash.com/x" || img.BlurDataURL != nil {
		t.Errorf("ResolveCover() = %+v, %v", img, err)
	}
}
