package run

import (
	"context"
	"fmt"
	"time"

	"github.com/Kush-Singh-26/inkwell/builder/metrics"
	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// Result summarizes one build.
type Result struct {
	Documents []*models.EnrichedDocument
	Metrics   *metrics.BuildMetrics
	// BuildNumber counts builds run against the cache directory.
	BuildNumber uint64
}

// Build runs a full pass: every post is enriched, then the side artifacts
// are written. Any document failure aborts the build before artifacts are
// touched.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	cfg := b.cfg
	if cfg.BuildTime.IsZero() {
		cfg.BuildTime = time.Now().UTC()
	}

	lock, err := utils.AcquireBuildLock(cfg.CacheDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Release() }()

	buildNumber, err := b.memo.IncrementBuildCount()
	if err != nil {
		b.Logger.Warn("failed to bump build counter", "error", err)
	}
	fmt.Printf("🔨 Building site... (Build: %d) | Workers: %d\n", buildNumber, utils.Workers(cfg.Workers))

	m := metrics.NewBuildMetrics()
	resolver := b.resolver()

	docs, err := b.postService(resolver, m).Process(ctx)
	if err != nil {
		return nil, fmt.Errorf("process posts: %w", err)
	}
	if len(docs) == 0 {
		fmt.Printf("⚠️  No posts found in %s\n", cfg.PostsDir)
	}

	if err := b.writeArtifacts(ctx, docs, m); err != nil {
		return nil, err
	}
	if cfg.Features.Generators.Bundles {
		if err := b.buildBundles(ctx, docs, m); err != nil {
			return nil, err
		}
	}

	m.ImagesCopied.Store(resolver.Copies())
	m.RecordEnd()
	m.Print()
	fmt.Println("✅ Build Complete.")

	return &Result{Documents: docs, Metrics: m, BuildNumber: buildNumber}, nil
}

// Run loads the configuration from args and performs one build.
func Run(ctx context.Context, args []string) error {
	b, err := Open(args)
	if err != nil {
		return err
	}
	defer func() { _ = b.Close() }()
	_, err = b.Build(ctx)
	return err
}
