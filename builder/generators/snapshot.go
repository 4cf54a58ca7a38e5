package generators

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// ErrPostNotFound is returned by FindPost for unknown slugs.
var ErrPostNotFound = errors.New("post not found")

// WriteSnapshot stores the body-less metadata of docs at path. Readers never
// observe a partially written file.
func WriteSnapshot(fsys afero.Fs, path string, docs []*models.EnrichedDocument) error {
	metas := make([]models.DocumentMeta, len(docs))
	for i, d := range docs {
		metas[i] = d.Meta()
	}
	data, err := json.MarshalIndent(metas, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return utils.WriteFileAtomic(fsys, path, append(data, '\n'))
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(fsys afero.Fs, path string) ([]models.DocumentMeta, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var metas []models.DocumentMeta
	if err := json.Unmarshal(data, &metas); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	return metas, nil
}

// FindPost returns the snapshot entry for slug.
func FindPost(metas []models.DocumentMeta, slug string) (models.DocumentMeta, error) {
	for _, m := range metas {
		if m.Slug == slug {
			return m, nil
		}
	}
	return models.DocumentMeta{}, fmt.Errorf("%w: %s", ErrPostNotFound, slug)
}
