// Package models defines the documents flowing through the build and the XML shapes of the feeds.
package models

import (
	"encoding/xml"
	"time"
)

// TOCEntry is one heading of a compiled body.
type TOCEntry struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// ContentDocument is a post as read from disk. It is never mutated after loading.
type ContentDocument struct {
	Slug       string
	Title      string
	Summary    string
	Date       time.Time
	Tags       []string
	CoverImage string
	RawBody    string

	// SourceDir is the post directory relative to the posts root.
	SourceDir string
	// SourcePath is the path of the index file on the source filesystem.
	SourcePath string
}

// URL is the canonical site path of the post.
func (d ContentDocument) URL() string {
	return "/posts/" + d.Slug
}

// ResolvedImage is a cover image after copying and placeholder generation.
type ResolvedImage struct {
	URL         string  `json:"url"`
	BlurDataURL *string `json:"blurDataURL"`
}

// EnrichedDocument is a ContentDocument plus everything derived during the build.
type EnrichedDocument struct {
	ContentDocument

	ReadingTime      string
	LastModification time.Time
	Image            ResolvedImage
	Body             string
	Text             string
	TOC              []TOCEntry
}

// DocumentMeta is the body-less projection written to the metadata snapshot.
type DocumentMeta struct {
	Slug             string        `json:"slug"`
	URL              string        `json:"url"`
	Title            string        `json:"title"`
	Summary          string        `json:"summary"`
	Date             time.Time     `json:"date"`
	Tags             []string      `json:"tags"`
	ReadingTime      string        `json:"readingTime"`
	LastModification time.Time     `json:"lastModification"`
	Image            ResolvedImage `json:"image"`
}

// Meta projects the document without its body.
func (d *EnrichedDocument) Meta() DocumentMeta {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return DocumentMeta{
		Slug:             d.Slug,
		URL:              d.URL(),
		Title:            d.Title,
		Summary:          d.Summary,
		Date:             d.Date,
		Tags:             tags,
		ReadingTime:      d.ReadingTime,
		LastModification: d.LastModification,
		Image:            d.Image,
	}
}

// --- Sitemap Structures ---

type UrlSet struct {
	XMLName xml.Name `xml:"http://www.sitemaps.org/schemas/sitemap/0.9 urlset"`
	Urls    []Url    `xml:"url"`
}

type Url struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// --- RSS Structures ---

type Rss struct {
	XMLName   xml.Name `xml:"rss"`
	Version   string   `xml:"version,attr"`
	ContentNS string   `xml:"xmlns:content,attr"`
	AtomNS    string   `xml:"xmlns:atom,attr"`
	Channel   Channel  `xml:"channel"`
}

type AtomLink struct {
	XMLName xml.Name `xml:"atom:link"`
	Href    string   `xml:"href,attr"`
	Rel     string   `xml:"rel,attr"`
	Type    string   `xml:"type,attr"`
}

type Channel struct {
	Title         string   `xml:"title"`
	Link          string   `xml:"link"`
	Description   string   `xml:"description"`
	Language      string   `xml:"language,omitempty"`
	Copyright     string   `xml:"copyright,omitempty"`
	LastBuildDate string   `xml:"lastBuildDate,omitempty"`
	AtomLink      AtomLink `xml:"atom:link"`
	Items         []Item   `xml:"item"`
}

type Enclosure struct {
	URL    string `xml:"url,attr"`
	Length string `xml:"length,attr"`
	Type   string `xml:"type,attr"`
}

type Guid struct {
	Value       string `xml:",chardata"`
	IsPermaLink bool   `xml:"isPermaLink,attr"`
}

type ContentEncoded struct {
	XMLName xml.Name `xml:"content:encoded"`
	Value   string   `xml:",cdata"`
}

type Item struct {
	Title       string          `xml:"title"`
	Link        string          `xml:"link"`
	Description string          `xml:"description"`
	PubDate     string          `xml:"pubDate"`
	Guid        Guid            `xml:"guid"`
	Author      string          `xml:"author,omitempty"`
	Categories  []string        `xml:"category"`
	Enclosure   *Enclosure      `xml:"enclosure,omitempty"`
	Content     *ContentEncoded `xml:"content:encoded,omitempty"`
}
