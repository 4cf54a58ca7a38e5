package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDocument means a post's frontmatter is missing or malformed.
	ErrInvalidDocument = errors.New("invalid document")
	// ErrDuplicateSlug means two sources resolve to the same slug.
	ErrDuplicateSlug = errors.New("duplicate slug")
)

// DocumentError ties a build failure to the post that caused it.
type DocumentError struct {
	Slug string
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("post %q (%s): %v", e.Slug, e.Path, e.Err)
	}
	return fmt.Sprintf("post %q: %v", e.Slug, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
