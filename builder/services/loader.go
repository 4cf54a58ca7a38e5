package services

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/adrg/frontmatter"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/models"
)

// sourceNames are the accepted post entry files, in lookup order.
var sourceNames = []string{"index.md", "index.mdx"}

// dateLayouts are tried in order when parsing frontmatter dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Loader discovers posts as <Root>/<slug>/index.md{,x}.
type Loader struct {
	Fs     afero.Fs
	Root   string
	Logger *slog.Logger
}

type frontMatter struct {
	Title   string   `yaml:"title"`
	Summary string   `yaml:"summary"`
	Date    string   `yaml:"date"`
	Image   string   `yaml:"image"`
	Tags    []string `yaml:"tags"`
}

func (f *frontMatter) Validate() error {
	return validation.ValidateStruct(f,
		validation.Field(&f.Title, validation.Required),
		validation.Field(&f.Summary, validation.Required),
		validation.Field(&f.Date, validation.Required, validation.By(func(v interface{}) error {
			_, err := ParseDate(v.(string))
			return err
		})),
		validation.Field(&f.Image, validation.Required),
		validation.Field(&f.Tags, validation.Each(validation.Required)),
	)
}

// ParseDate accepts ISO 8601 timestamps and plain dates. Dates without a zone are UTC.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Load reads every post. Any malformed post or slug collision is fatal.
func (l *Loader) Load() ([]*models.ContentDocument, error) {
	entries, err := afero.ReadDir(l.Fs, l.Root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.logger().Warn("content directory not found", "dir", l.Root)
			return nil, nil
		}
		return nil, fmt.Errorf("read content directory: %w", err)
	}

	seen := make(map[string]string)
	var docs []*models.ContentDocument
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") || strings.HasPrefix(entry.Name(), "_") {
			continue
		}
		slug := entry.Name()
		for _, name := range sourceNames {
			path := filepath.Join(l.Root, slug, name)
			if ok, _ := afero.Exists(l.Fs, path); !ok {
				continue
			}
			key := strings.ToLower(slug)
			if prev, dup := seen[key]; dup {
				return nil, &DocumentError{Slug: slug, Path: path, Err: fmt.Errorf("%w: also defined by %s", ErrDuplicateSlug, prev)}
			}
			seen[key] = path

			doc, err := l.LoadFile(slug, path)
			if err != nil {
				return nil, err
			}
			docs = append(docs, doc)
		}
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Slug < docs[j].Slug })
	return docs, nil
}

// LoadFile parses one post source.
func (l *Loader) LoadFile(slug, path string) (*models.ContentDocument, error) {
	data, err := afero.ReadFile(l.Fs, path)
	if err != nil {
		return nil, &DocumentError{Slug: slug, Path: path, Err: err}
	}

	var fm frontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &fm)
	if err != nil {
		return nil, &DocumentError{Slug: slug, Path: path, Err: fmt.Errorf("%w: %v", ErrInvalidDocument, err)}
	}
	if err := fm.Validate(); err != nil {
		return nil, &DocumentError{Slug: slug, Path: path, Err: fmt.Errorf("%w: %w", ErrInvalidDocument, err)}
	}
	date, _ := ParseDate(fm.Date)

	tags := fm.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.ContentDocument{
		Slug:       slug,
		Title:      fm.Title,
		Summary:    fm.Summary,
		Date:       date,
		Tags:       tags,
		CoverImage: fm.Image,
		RawBody:    string(body),
		SourceDir:  slug,
		SourcePath: path,
	}, nil
}

func (l *Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}
