package generators

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/models"
)

const (
	priorityRoot    = "1.00"
	priorityListing = "0.80"
	priorityPost    = "0.64"
)

// ListingPages is the number of paginated post listings for n documents.
func ListingPages(n, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	return (n + pageSize - 1) / pageSize
}

// Sitemap lists the root, every listing page and every document.
func Sitemap(cfg *config.Config, docs []*models.EnrichedDocument, pageSize int, now time.Time) ([]byte, error) {
	pages := ListingPages(len(docs), pageSize)
	urls := make([]models.Url, 0, 1+pages+len(docs))

	urls = append(urls, models.Url{Loc: cfg.BaseURL, LastMod: now.UTC().Format(time.RFC3339), Priority: priorityRoot})
	for i := 1; i <= pages; i++ {
		urls = append(urls, models.Url{Loc: fmt.Sprintf("%s/posts/pages/%d", cfg.BaseURL, i), Priority: priorityListing})
	}
	for _, d := range docs {
		u := models.Url{Loc: cfg.BaseURL + d.URL(), Priority: priorityPost}
		if !d.LastModification.IsZero() {
			u.LastMod = d.LastModification.UTC().Format(time.RFC3339)
		}
		urls = append(urls, u)
	}

	output, err := xml.MarshalIndent(models.UrlSet{Urls: urls}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode sitemap: %w", err)
	}
	return append([]byte(xml.Header), output...), nil
}

// Robots allows every crawler and points at the sitemap.
func Robots(cfg *config.Config) []byte {
	return []byte(fmt.Sprintf("User-Agent: *\nAllow: /\nSitemap: %s/sitemap.xml\n", cfg.BaseURL))
}
