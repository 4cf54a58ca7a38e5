package run

import (
	"context"

	"github.com/Kush-Singh-26/inkwell/builder/metrics"
	"github.com/Kush-Singh-26/inkwell/builder/models"
)

// buildBundles compiles the component directories of every post.
func (b *Builder) buildBundles(ctx context.Context, docs []*models.EnrichedDocument, m *metrics.BuildMetrics) error {
	slugs := make([]string, len(docs))
	for i, d := range docs {
		slugs[i] = d.SourceDir
	}
	n, err := b.bundler().BundleAll(ctx, slugs)
	for i := 0; i < n; i++ {
		m.IncrementArtifacts()
	}
	return err
}
