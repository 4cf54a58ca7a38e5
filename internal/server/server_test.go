package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/generators"
	"github.com/Kush-Singh-26/inkwell/builder/search"
	"github.com/Kush-Singh-26/inkwell/builder/testutil"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.Search.MaxResults = 3
	fs := afero.NewMemMapFs()

	docs := testutil.CreateSampleCorpus(4)
	docs[2].Title = "Kubernetes operators"
	if _, err := search.Write(fs, cfg.SearchIndexPath(), docs); err != nil {
		t.Fatal(err)
	}
	if err := generators.WriteSnapshot(fs, cfg.SnapshotPath(), docs); err != nil {
		t.Fatal(err)
	}
	_ = afero.WriteFile(fs, "public/index.html", []byte("<h1>home</h1>"), 0644)
	_ = afero.WriteFile(fs, "public/app.a1b2c3d4.js", []byte("console.log(1)"), 0644)

	s := New(cfg, fs, nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, body
}

func TestSearchEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/search")
	if resp.StatusCode != http.StatusBadRequest || !strings.Contains(string(body), "Missing query parameter") {
		t.Errorf("missing query = %d %q", resp.StatusCode, body)
	}

	resp, body = get(t, ts.URL+"/search?query=kube")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var results []search.Result
	if err := json.Unmarshal(body, &results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].URL != "/posts/post-03" {
		t.Errorf("prefix search = %+v", results)
	}

	_, body = get(t, ts.URL+"/search?query=post")
	results = nil
	_ = json.Unmarshal(body, &results)
	if len(results) != 3 {
		t.Errorf("results = %d, want MaxResults 3", len(results))
	}

	_, body = get(t, ts.URL+"/search?query=zzzz")
	if strings.TrimSpace(string(body)) != "[]" {
		t.Errorf("no hits = %q, want []", body)
	}
}

func TestSearchEndpoint_NoIndex(t *testing.T) {
	s := New(config.Default(), afero.NewMemMapFs(), nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/search?query=go", nil))
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("no index = %d %q", rec.Code, rec.Body.String())
	}
}

func TestSearchIndexReload(t *testing.T) {
	s, _ := newTestServer(t)
	first, err := s.searchIndex()
	if err != nil {
		t.Fatal(err)
	}
	again, _ := s.searchIndex()
	if first != again {
		t.Error("unchanged index was reloaded")
	}

	if _, err := search.Write(s.Fs, s.cfg.SearchIndexPath(), testutil.CreateSampleCorpus(1)); err != nil {
		t.Fatal(err)
	}
	_ = s.Fs.Chtimes(s.cfg.SearchIndexPath(), time.Now().Add(time.Hour), time.Now().Add(time.Hour))
	reloaded, _ := s.searchIndex()
	if reloaded.Len() != 1 {
		t.Errorf("Len() = %d after rewrite, want 1", reloaded.Len())
	}
}

func TestSocialCardEndpoint(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/api/og/posts/post-02")
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != "image/png" {
		t.Fatalf("card = %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}
	img, err := png.Decode(bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 1200 || b.Dy() != 630 {
		t.Errorf("card size = %v", b)
	}

	resp, body = get(t, ts.URL+"/api/og/posts/nope")
	if resp.StatusCode != http.StatusNotFound || strings.TrimSpace(string(body)) != `{"error":"post not found"}` {
		t.Errorf("unknown slug = %d %q", resp.StatusCode, body)
	}
}

func TestStaticFiles(t *testing.T) {
	_, ts := newTestServer(t)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "home") {
		t.Errorf("index = %d %q", resp.StatusCode, body)
	}
	if !strings.HasPrefix(resp.Header.Get("Cache-Control"), "no-store") {
		t.Errorf("index Cache-Control = %q", resp.Header.Get("Cache-Control"))
	}

	resp, _ = get(t, ts.URL+"/app.a1b2c3d4.js")
	if !strings.Contains(resp.Header.Get("Cache-Control"), "immutable") {
		t.Errorf("hashed Cache-Control = %q", resp.Header.Get("Cache-Control"))
	}

	resp, _ = get(t, ts.URL+"/missing.html")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing = %d", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/app.a1b2c3d4.js", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	gzResp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	defer gzResp.Body.Close()
	if gzResp.Header.Get("Content-Encoding") != "gzip" {
		t.Fatalf("Content-Encoding = %q", gzResp.Header.Get("Content-Encoding"))
	}
	zr, err := gzip.NewReader(gzResp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if plain, _ := io.ReadAll(zr); string(plain) != "console.log(1)" {
		t.Errorf("gzip body = %q", plain)
	}
}

func TestHub(t *testing.T) {
	h := NewHub()
	ts := httptest.NewServer(h)
	defer ts.Close()

	resp, err := http.Get(ts.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	buf := make([]byte, 64)
	n, _ := resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "data: connected") {
		t.Fatalf("first event = %q", buf[:n])
	}

	h.Broadcast()
	n, _ = resp.Body.Read(buf)
	if !strings.Contains(string(buf[:n]), "data: reload") {
		t.Errorf("second event = %q", buf[:n])
	}
	h.Close()
}

func TestIsHashedAsset(t *testing.T) {
	tests := map[string]bool{
		"layout.a1b2c3d4.css":  true,
		"main.1234567890ab.js": true,
		"main.js":              false,
		"post.notahash.js":     false,
		"a.b.c":                false,
	}
	for name, want := range tests {
		if got := isHashedAsset(name); got != want {
			t.Errorf("isHashedAsset(%q) = %v, want %v", name, got, want)
		}
	}
}
