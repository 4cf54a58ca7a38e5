// Package services turns post sources into enriched documents.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/Kush-Singh-26/inkwell/builder/metrics"
	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/parser"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// Compiler compiles a post body stored in directory.
type Compiler interface {
	Compile(ctx context.Context, directory string, source []byte) (*parser.Result, error)
}

// PostService runs the per-document pipeline over the whole corpus.
type PostService struct {
	Loader   *Loader
	Compiler Compiler
	Covers   CoverResolver
	LastMod  *LastModifier
	Workers  int
	Logger   *slog.Logger
	Metrics  *metrics.BuildMetrics
}

// Process loads, enriches and orders every post. The first failing document
// cancels the rest and is returned as a *DocumentError.
func (s *PostService) Process(ctx context.Context) ([]*models.EnrichedDocument, error) {
	docs, err := s.Loader.Load()
	if err != nil {
		return nil, err
	}

	out := make([]*models.EnrichedDocument, len(docs))
	err = utils.ForEach(ctx, s.Workers, docs, func(ctx context.Context, i int, doc *models.ContentDocument) error {
		enriched, err := s.Enrich(ctx, doc)
		if err != nil {
			return err
		}
		out[i] = enriched
		s.Metrics.IncrementPostsProcessed()
		return nil
	})
	if err != nil {
		return nil, err
	}

	SortDocuments(out)
	return out, nil
}

// Enrich derives everything the build needs from one document.
func (s *PostService) Enrich(ctx context.Context, doc *models.ContentDocument) (*models.EnrichedDocument, error) {
	start := time.Now()
	fail := func(stage string, err error) error {
		return &DocumentError{Slug: doc.Slug, Path: doc.SourcePath, Err: fmt.Errorf("%s: %w", stage, err)}
	}

	image, err := s.Covers.ResolveCover(ctx, doc.SourceDir, doc.CoverImage)
	if err != nil {
		return nil, fail("cover image", err)
	}

	body, err := s.Compiler.Compile(ctx, doc.SourceDir, []byte(doc.RawBody))
	if err != nil {
		return nil, fail("compile", err)
	}

	lastMod := time.Now().UTC()
	if s.LastMod != nil {
		lastMod = s.LastMod.LastModification(ctx, doc.SourcePath)
	}

	s.logger().Debug("post enriched", "slug", doc.Slug, "duration", time.Since(start))
	return &models.EnrichedDocument{
		ContentDocument:  *doc,
		ReadingTime:      ReadingTime(doc.RawBody),
		LastModification: lastMod,
		Image:            image,
		Body:             body.HTML,
		Text:             body.Text,
		TOC:              body.TOC,
	}, nil
}

// SortDocuments orders by date, newest first, then by slug.
func SortDocuments(docs []*models.EnrichedDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		if !docs[i].Date.Equal(docs[j].Date) {
			return docs[i].Date.After(docs[j].Date)
		}
		return docs[i].Slug < docs[j].Slug
	})
}

func (s *PostService) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
