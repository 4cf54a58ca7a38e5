package search

import (
	"bytes"
	"fmt"

	"github.com/klauspost/compress/gzip"
	"github.com/spf13/afero"

	"github.com/Kush-Singh-26/inkwell/builder/models"
	"github.com/Kush-Singh-26/inkwell/builder/utils"
)

// Write builds the index for docs and stores it at path plus a gzip copy at
// path + ".gz". An empty corpus writes nothing and returns ErrEmptyCorpus.
func Write(fsys afero.Fs, path string, docs []*models.EnrichedDocument) (*Index, error) {
	idx, err := Build(docs)
	if err != nil {
		return nil, err
	}
	data, err := idx.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode search index: %w", err)
	}
	if err := utils.WriteFileAtomic(fsys, path, data); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	gw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := gw.Write(data); err != nil {
		return nil, fmt.Errorf("compress search index: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("compress search index: %w", err)
	}
	if err := utils.WriteFileAtomic(fsys, path+".gz", buf.Bytes()); err != nil {
		return nil, err
	}
	return idx, nil
}

// Read loads the index stored at path.
func Read(fsys afero.Fs, path string) (*Index, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read search index: %w", err)
	}
	return Load(data)
}
