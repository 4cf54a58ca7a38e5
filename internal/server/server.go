// Package server previews the built site and answers search and social
// card requests against the generated artifacts.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/search"
)

// Server serves cfg.PublicDir from Fs plus the dynamic endpoints.
type Server struct {
	cfg    *config.Config
	Fs     afero.Fs
	Logger *slog.Logger
	Hub    *Hub

	mu       sync.Mutex
	index    *search.Index
	indexMod time.Time
}

// New returns a server over fsys.
func New(cfg *config.Config, fsys afero.Fs, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, Fs: fsys, Logger: logger, Hub: NewHub()}
}

// Handler routes every endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /api/og/posts/{slug}", s.handleSocialCard)
	mux.HandleFunc("GET /events", s.Hub.ServeHTTP)
	mux.Handle("/", gzipHandler(s.fileHandler()))
	return mux
}

// gzipResponseWriter wraps the underlying ResponseWriter to enable Gzip compression
type gzipResponseWriter struct {
	io.Writer
	http.ResponseWriter
}

func (w *gzipResponseWriter) Write(b []byte) (int, error) {
	return w.Writer.Write(b)
}

func (w *gzipResponseWriter) WriteHeader(code int) {
	w.Header().Del("Content-Length")
	w.ResponseWriter.WriteHeader(code)
}

func gzipHandler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gz := gzip.NewWriter(w)
		defer func() { _ = gz.Close() }()
		next.ServeHTTP(&gzipResponseWriter{Writer: gz, ResponseWriter: w}, r)
	})
}

// fileHandler serves the public tree with cache headers.
func (s *Server) fileHandler() http.Handler {
	root := afero.NewBasePathFs(s.Fs, s.cfg.PublicDir)
	files := http.FileServer(afero.NewHttpFs(root))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := normalizeRequestPath(r.URL.Path)
		info, err := root.Stat(name)
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			if content, readErr := afero.ReadFile(root, "404.html"); readErr == nil {
				_, _ = w.Write(content)
			} else {
				_, _ = w.Write([]byte("404 - Page Not Found"))
			}
			return
		}
		w.Header().Set("Cache-Control", cacheControl(name, info.IsDir()))
		files.ServeHTTP(w, r)
	})
}

// Run listens on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	_ = mime.AddExtensionType(".webmanifest", "application/manifest+json")
	_ = mime.AddExtensionType(".wasm", "application/wasm")

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		fmt.Println("\n🛑 Shutting down HTTP server...")
		s.Hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.Logger.Warn("http server shutdown", "error", err)
		}
	}()

	fmt.Printf("🌐 Serving on http://%s\n", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	fmt.Println("✅ Server stopped.")
	return nil
}
