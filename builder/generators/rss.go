// Package generators renders the site-wide artifacts derived from the
// enriched corpus: feeds, sitemap, robots, manifest, snapshot and cards.
package generators

import (
	"encoding/xml"
	"fmt"
	"mime"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Kush-Singh-26/inkwell/builder/config"
	"github.com/Kush-Singh-26/inkwell/builder/models"
)

const (
	feedCampaign = "?utm_campaign=feed&utm_source=rss2"
	// Items are stamped at this hour of their publication day.
	feedPubHour = 13
)

// CropImageURL asks the Unsplash CDN for a width x height crop. Other URLs,
// and Unsplash URLs that already carry a query, are returned unchanged.
func CropImageURL(src string, width, height int) string {
	if strings.HasPrefix(src, "https://images.unsplash.com/") && !strings.Contains(src, "?") {
		return fmt.Sprintf("%s?fit=crop&w=%d&h=%d", src, width, height)
	}
	return src
}

// absolute prefixes site-relative paths with the base URL.
func absolute(baseURL, ref string) string {
	if strings.Contains(ref, "://") {
		return ref
	}
	return baseURL + ref
}

// PubDate is the feed timestamp of a document published on date.
func PubDate(date time.Time) time.Time {
	y, m, d := date.UTC().Date()
	return time.Date(y, m, d, feedPubHour, 0, 0, 0, time.UTC)
}

func feedContent(site, imageURL, summary, link string) string {
	return fmt.Sprintf(`<img src="%s" width="1000" height="420" vspace="3" hspace="8" align="center">`+
		`<p>%s</p><p>Read the full article on <a href="%s">%s</a></p>`,
		CropImageURL(imageURL, 1000, 420), summary, link, site)
}

// RSS renders an RSS 2.0 feed of docs, newest first.
func RSS(cfg *config.Config, docs []*models.EnrichedDocument) ([]byte, error) {
	sorted := make([]*models.EnrichedDocument, len(docs))
	copy(sorted, docs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })

	items := make([]models.Item, 0, len(sorted))
	for _, d := range sorted {
		id := cfg.BaseURL + d.URL()
		link := id + feedCampaign
		image := absolute(cfg.BaseURL, d.Image.URL)

		item := models.Item{
			Title:       d.Title,
			Link:        link,
			Description: d.Summary,
			PubDate:     PubDate(d.Date).Format(time.RFC1123Z),
			Guid:        models.Guid{Value: id, IsPermaLink: false},
			Author:      cfg.Author.Name,
			Categories:  d.Tags,
			Content:     &models.ContentEncoded{Value: feedContent(cfg.Title, image, d.Summary, link)},
		}
		if image != "" {
			item.Enclosure = &models.Enclosure{
				URL:    CropImageURL(image, 256, 256),
				Length: "0",
				Type:   imageType(image),
			}
		}
		items = append(items, item)
	}

	channel := models.Channel{
		Title:       cfg.Title,
		Link:        cfg.BaseURL,
		Description: cfg.Description,
		Language:    cfg.Language,
		AtomLink: models.AtomLink{
			Href: cfg.BaseURL + "/rss.xml",
			Rel:  "self",
			Type: "application/rss+xml",
		},
		Items: items,
	}
	if cfg.Author.Name != "" {
		channel.Copyright = fmt.Sprintf("All rights reserved %d, %s", cfg.BuildTime.Year(), cfg.Author.Name)
	}
	if len(sorted) > 0 {
		channel.LastBuildDate = PubDate(sorted[0].Date).Format(time.RFC1123Z)
	}

	output, err := xml.MarshalIndent(models.Rss{
		Version:   "2.0",
		ContentNS: "http://purl.org/rss/1.0/modules/content/",
		AtomNS:    "http://www.w3.org/2005/Atom",
		Channel:   channel,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode rss: %w", err)
	}
	return append([]byte(xml.Header), output...), nil
}

// imageType guesses the enclosure MIME type from the URL path.
func imageType(ref string) string {
	p := ref
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if t := mime.TypeByExtension(path.Ext(p)); strings.HasPrefix(t, "image/") {
		return t
	}
	return "image/jpeg"
}
