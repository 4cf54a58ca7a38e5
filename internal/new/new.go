// Package new scaffolds a post directory with frontmatter.
package new

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// ErrExists is returned when the post directory already holds a source file.
var ErrExists = errors.New("post already exists")

// slugRegex matches characters that are unsafe for directories and URLs
var slugRegex = regexp.MustCompile(`[^a-z0-9\-_]`)

// Slugify converts a title to a directory-safe slug.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = strings.Join(strings.Fields(slug), "-")
	slug = slugRegex.ReplaceAllString(slug, "")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	slug = strings.Trim(slug, "-_")
	if len(slug) > 100 {
		slug = strings.TrimRight(slug[:100], "-_")
	}
	return slug
}

const template = `---
title: %q
summary: "Enter a short summary here..."
date: %q
image: "cover.png"
tags: []
---

## Introduction

Start writing here...
`

// Create writes <postsDir>/<slug>/index.md and returns its path.
func Create(fsys afero.Fs, postsDir, title string, now time.Time) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		return "", fmt.Errorf("title %q produces an empty slug", title)
	}
	dir := filepath.Join(postsDir, slug)
	for _, name := range []string{"index.md", "index.mdx"} {
		if ok, _ := afero.Exists(fsys, filepath.Join(dir, name)); ok {
			return "", fmt.Errorf("%w: %s", ErrExists, filepath.Join(dir, name))
		}
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "index.md")
	content := fmt.Sprintf(template, title, now.Format("2006-01-02"))
	if err := afero.WriteFile(fsys, path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}
