package run

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/Kush-Singh-26/inkwell/builder/generators"
	"github.com/Kush-Singh-26/inkwell/builder/metrics"
	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/search"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// SocialCardDir is where per-post cards are written, relative to the public dir.
const SocialCardDir = "og/posts"

// writeArtifacts runs the enabled generators concurrently.
func (b *Builder) writeArtifacts(ctx context.Context, docs []*models.EnrichedDocument, m *metrics.BuildMetrics) error {
	cfg := b.cfg
	gen := cfg.Features.Generators

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	spawn := func(name string, fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				return
			}
			m.IncrementArtifacts()
		}()
	}

	if gen.Search {
		spawn("search index", func() error {
			_, err := search.Write(b.DestFs, cfg.SearchIndexPath(), docs)
			if errors.Is(err, search.ErrEmptyCorpus) {
				b.Logger.Info("empty corpus, search index not written")
				return nil
			}
			return err
		})
	}
	if gen.Snapshot {
		spawn("snapshot", func() error {
			return generators.WriteSnapshot(b.DestFs, cfg.SnapshotPath(), docs)
		})
	}
	if gen.RSS {
		spawn("rss", func() error {
			data, err := generators.RSS(cfg, docs)
			if err != nil {
				return err
			}
			return b.writePublic("rss.xml", "application/rss+xml", data)
		})
	}
	if gen.Sitemap {
		spawn("sitemap", func() error {
			data, err := generators.Sitemap(cfg, docs, cfg.PostsPerPage, cfg.BuildTime)
			if err != nil {
				return err
			}
			return b.writePublic("sitemap.xml", "application/xml", data)
		})
	}
	if gen.Robots {
		spawn("robots", func() error {
			return b.writePublic("robots.txt", "", generators.Robots(cfg))
		})
	}
	if gen.Manifest {
		spawn("manifest", func() error {
			icons, err := generators.PWAIcons(b.SourceFs, filepath.Join(cfg.ContentDir, "favicon.png"),
				b.DestFs, filepath.Join(cfg.PublicDir, "icons"), "/icons")
			if err != nil {
				b.Logger.Warn("pwa icons skipped", "error", err)
			}
			data, err := generators.Manifest(cfg, icons)
			if err != nil {
				return err
			}
			return b.writePublic("site.webmanifest", "application/manifest+json", data)
		})
	}
	if gen.Social {
		spawn("social cards", func() error {
			return b.writeSocialCards(ctx, docs)
		})
	}

	wg.Wait()
	return errors.Join(errs...)
}

// writePublic stores data under the public dir, minified when enabled.
func (b *Builder) writePublic(name, mediatype string, data []byte) error {
	if b.cfg.Minify && mediatype != "" {
		data = utils.MinifyBytes(mediatype, data)
	}
	return utils.WriteFileAtomic(b.DestFs, filepath.Join(b.cfg.PublicDir, name), data)
}

func (b *Builder) writeSocialCards(ctx context.Context, docs []*models.EnrichedDocument) error {
	cfg := b.cfg
	dir := filepath.Join(cfg.PublicDir, SocialCardDir)
	return utils.ForEach(ctx, cfg.Workers, docs, func(_ context.Context, _ int, d *models.EnrichedDocument) error {
		opts := generators.CardOptions{
			SiteTitle: cfg.Title,
			Cover:     generators.LoadCover(b.DestFs, cfg.PostsPublicDir, cfg.ResourcePath, d.Image.URL),
		}
		if _, err := generators.WriteSocialCard(b.DestFs, dir, d.Meta(), opts); err != nil {
			return fmt.Errorf("%s: %w", d.Slug, err)
		}
		return nil
	})
}
