package services

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/cache"
	"github.com/Kush-Singh-26/inkwell/builder/images"
	"github.com/Kush-Singh-26/inkwell/builder/metrics"
	"github.com/Kush-Singh-26/inkwell/builder/models"
)

// CoverResolver resolves a post's cover image reference.
type CoverResolver interface {
	ResolveCover(ctx context.Context, directory, ref string) (models.ResolvedImage, error)
}

// MemoCovers skips placeholder work for covers whose bytes are unchanged
// since the last build and whose public copy is still present.
type MemoCovers struct {
	Resolver *images.Resolver
	Memo     *cache.Memo
	Metrics  *metrics.BuildMetrics
	Logger   *slog.Logger
}

func (c *MemoCovers) ResolveCover(ctx context.Context, directory, ref string) (models.ResolvedImage, error) {
	if images.IsExternal(ref) || c.Memo == nil {
		return c.Resolver.ResolveCover(ctx, directory, ref)
	}

	rel := filepath.Join(directory, ref)
	data, err := afero.ReadFile(c.Resolver.SourceFs, filepath.Join(c.Resolver.SourceRoot, rel))
	if err != nil {
		return c.Resolver.ResolveCover(ctx, directory, ref)
	}
	key := cache.KeyString(ref, directory)
	fingerprint := cache.Fingerprint(data)

	if rec, ok := c.Memo.Cover(key, fingerprint); ok {
		if exists, _ := afero.Exists(c.Resolver.DestFs, filepath.Join(c.Resolver.PublicRoot, rel)); exists {
			c.Metrics.IncrementCacheHit()
			img := models.ResolvedImage{URL: rec.URL}
			if rec.HasBlur {
				blur := rec.BlurDataURL
				img.BlurDataURL = &blur
			}
			return img, nil
		}
	}
	c.Metrics.IncrementCacheMiss()

	img, err := c.Resolver.ResolveCover(ctx, directory, ref)
	if err != nil {
		return img, err
	}
	rec := &cache.CoverRecord{Fingerprint: fingerprint, URL: img.URL}
	if img.BlurDataURL != nil {
		rec.BlurDataURL, rec.HasBlur = *img.BlurDataURL, true
	}
	if err := c.Memo.SetCover(key, rec); err != nil {
		c.logger().Warn("failed to memoize cover", "directory", directory, "image", ref, "error", err)
	}
	return img, nil
}

func (c *MemoCovers) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
