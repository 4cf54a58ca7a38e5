// Package testutil provides testing utilities and fixtures
package testutil

import (
	"fmt"
	"time"

	"github.com/Kush-Singh-26/inkwell/builder/models"
)

// PostSource renders an index.md with frontmatter.
func PostSource(title, summary, date, image string, tags []string, body string) string {
	tagList := ""
	for _, t := range tags {
		tagList += fmt.Sprintf("  - %s\n", t)
	}
	if tagList == "" {
		return fmt.Sprintf("---\ntitle: %q\nsummary: %q\ndate: %q\nimage: %q\ntags: []\n---\n%s", title, summary, date, image, body)
	}
	return fmt.Sprintf("---\ntitle: %q\nsummary: %q\ndate: %q\nimage: %q\ntags:\n%s---\n%s", title, summary, date, image, tagList, body)
}

// CreateSampleDocument returns an enriched document with every field populated.
func CreateSampleDocument(slug string, date time.Time) *models.EnrichedDocument {
	blur := "data:image/png;base64,AAAA"
	return &models.EnrichedDocument{
		ContentDocument: models.ContentDocument{
			Slug:       slug,
			Title:      "Post " + slug,
			Summary:    "Summary of " + slug,
			Date:       date,
			Tags:       []string{"go", "testing"},
			CoverImage: "cover.png",
			RawBody:    "Body of " + slug,
			SourceDir:  slug,
			SourcePath: "content/posts/" + slug + "/index.md",
		},
		ReadingTime:      "1 min read",
		LastModification: date.Add(24 * time.Hour),
		Image:            models.ResolvedImage{URL: "/posts/" + slug + "/cover.png", BlurDataURL: &blur},
		Body:             "<p>Body of " + slug + "</p>",
		Text:             "Body of " + slug,
	}
}

// CreateSampleCorpus returns n documents one day apart, newest last.
func CreateSampleCorpus(n int) []*models.EnrichedDocument {
	base := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	docs := make([]*models.EnrichedDocument, n)
	for i := range docs {
		docs[i] = CreateSampleDocument(fmt.Sprintf("post-%02d", i+1), base.AddDate(0, 0, i))
	}
	return docs
}
