// Package run wires configuration, caches and services into a site build.
package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/bundle"
	"github.com/Kush-Singh-26/inkwell/builder/cache"
	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/embed"
	"github.com/Kush-Singh-26/inkwell/builder/images"
	"github.com/Kush-Singh-26/inkwell/builder/metrics"
	"github.com/Kush-Singh-26/inkwell/builder/parser"
	"github.com/Kush-Singh-26/inkwell/builder/services"
)

// Builder holds the long-lived state shared by successive builds.
type Builder struct {
	cfg      *config.Config
	SourceFs afero.Fs
	DestFs   afero.Fs
	Logger   *slog.Logger
	Client   *http.Client
	// Git overrides the git lookup; nil runs the git binary.
	Git services.GitLogFunc

	memo  *cache.Memo
	store *cache.FSStore
}

// NewBuilder opens the caches under cfg.CacheDir. Source and output live on
// the OS filesystem.
func NewBuilder(cfg *config.Config, logger *slog.Logger) (*Builder, error) {
	return NewBuilderWithFs(cfg, logger, afero.NewOsFs(), afero.NewOsFs())
}

// NewBuilderWithFs is NewBuilder over explicit filesystems.
func NewBuilderWithFs(cfg *config.Config, logger *slog.Logger, sourceFs, destFs afero.Fs) (*Builder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	memo, err := cache.OpenMemo(cfg.CacheDir, 0)
	if err != nil {
		return nil, fmt.Errorf("open memo: %w", err)
	}
	store, err := cache.NewFSStore(afero.NewOsFs(), filepath.Join(cfg.CacheDir, "store"))
	if err != nil {
		_ = memo.Close()
		return nil, fmt.Errorf("open checksum store: %w", err)
	}
	return &Builder{
		cfg:      cfg,
		SourceFs: sourceFs,
		DestFs:   destFs,
		Logger:   logger,
		Client:   embed.NewHTTPClient(cfg.HTTPTimeout),
		memo:     memo,
		store:    store,
	}, nil
}

// Config returns the builder's configuration
func (b *Builder) Config() *config.Config {
	return b.cfg
}

// Close releases the caches.
func (b *Builder) Close() error {
	return errors.Join(b.store.Close(), b.memo.Close())
}

// Providers returns the rich-link providers in match order.
func (b *Builder) Providers() []embed.Provider {
	e := b.cfg.Embeds
	return []embed.Provider{
		embed.NewGitHub(e.GitHubAPI, e.GitHubToken, b.Client, e.GitHubPolicy, b.Logger),
		embed.NewMicroblog(e.MicroblogBaseURL, e.SyndicationURL, b.SourceFs, b.cfg.TweetsDir, b.Client, e.MicroblogPolicy, b.Logger),
	}
}

// resolver copies post images into the public posts tree.
func (b *Builder) resolver() *images.Resolver {
	return &images.Resolver{
		SourceFs:     b.SourceFs,
		DestFs:       b.DestFs,
		SourceRoot:   b.cfg.PostsDir,
		PublicRoot:   b.cfg.PostsPublicDir,
		ResourcePath: b.cfg.ResourcePath,
		Blur:         images.NewBlur(b.store),
		Logger:       b.Logger,
		Fetch: func(ctx context.Context, url string) ([]byte, error) {
			return embed.Fetch(ctx, b.Client, url)
		},
	}
}

// postService assembles the per-document pipeline for one build.
func (b *Builder) postService(resolver *images.Resolver, m *metrics.BuildMetrics) *services.PostService {
	compiler := parser.New(parser.Options{
		Resolver: resolver,
		Embedder: embed.New(b.Logger, b.Providers()...),
		Diagrams: parser.NewD2Renderer(b.store),
		Minify:   b.cfg.Minify,
		Logger:   b.Logger,
	})
	return &services.PostService{
		Loader:   &services.Loader{Fs: b.SourceFs, Root: b.cfg.PostsDir, Logger: b.Logger},
		Compiler: compiler,
		Covers:   &services.MemoCovers{Resolver: resolver, Memo: b.memo, Metrics: m, Logger: b.Logger},
		LastMod: &services.LastModifier{
			Fs:        b.SourceFs,
			BuildTime: b.cfg.BuildTime,
			Memo:      b.memo,
			Git:       b.Git,
			Logger:    b.Logger,
			Metrics:   m,
		},
		Workers: b.cfg.Workers,
		Logger:  b.Logger,
		Metrics: m,
	}
}

// bundler compiles per-post components found under the posts directory.
func (b *Builder) bundler() *bundle.Bundler {
	return &bundle.Bundler{
		SourceRoot: b.cfg.PostsDir,
		DestFs:     b.DestFs,
		PublicRoot: b.cfg.PostsPublicDir,
		Minify:     b.cfg.Minify,
		Workers:    b.cfg.Workers,
		Logger:     b.Logger,
	}
}
