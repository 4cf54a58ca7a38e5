package cache

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"sync/atomic"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/afero"
)

// ErrNotFound is returned by Get when no entry exists for a key.
var ErrNotFound = errors.New("cache: entry not found")

// Store is a content-addressed cache: the key is a hash of the inputs that produced the value.
type Store interface {
	Get(key string) ([]byte, error)
	Put(key string, data []byte) error
}

// FSStore keeps one file per key under root on an afero filesystem.
// Entries are never evicted. Concurrent writers of the same key race and
// the last rename wins, which is harmless because values depend only on the key.
type FSStore struct {
	fs      afero.Fs
	root    string
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	seq     atomic.Uint64
}

// NewFSStore creates a store rooted at root on fsys.
func NewFSStore(fsys afero.Fs, root string) (*FSStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		_ = encoder.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return &FSStore{
		fs:      fsys,
		root:    root,
		encoder: encoder,
		decoder: decoder,
	}, nil
}

// NewMemStore creates a store backed by an in-memory filesystem.
func NewMemStore() (*FSStore, error) {
	return NewFSStore(afero.NewMemMapFs(), "cache")
}

// Close releases resources
func (s *FSStore) Close() error {
	_ = s.encoder.Close()
	s.decoder.Close()
	return nil
}

func (s *FSStore) path(key string) string {
	return filepath.Join(s.root, key)
}

// determineCompression decides compression strategy based on size
func determineCompression(size int) CompressionType {
	if size < RawThreshold {
		return CompressionNone
	}
	if size < FastZstdMax {
		return CompressionZstdFast
	}
	return CompressionZstdLevel3
}

// Get returns the bytes stored under key, or ErrNotFound.
func (s *FSStore) Get(key string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("cache entry %s is truncated", key)
	}

	switch CompressionType(data[0]) {
	case CompressionNone:
		return data[1:], nil
	case CompressionZstdFast, CompressionZstdLevel3:
		out, err := s.decoder.DecodeAll(data[1:], nil)
		if err != nil {
			return nil, fmt.Errorf("decompress cache entry %s: %w", key, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cache entry %s has unknown encoding %d", key, data[0])
	}
}

// Has reports whether an entry exists for key.
func (s *FSStore) Has(key string) bool {
	_, err := s.fs.Stat(s.path(key))
	return err == nil
}

// Put stores data under key, creating directories on demand.
func (s *FSStore) Put(key string, data []byte) error {
	ct := determineCompression(len(data))

	var body []byte
	switch ct {
	case CompressionZstdLevel3:
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		body = enc.EncodeAll(data, nil)
		_ = enc.Close()
	case CompressionZstdFast:
		body = s.encoder.EncodeAll(data, nil)
	default:
		body = data
	}

	if err := s.fs.MkdirAll(s.root, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	buf := make([]byte, 0, len(body)+1)
	buf = append(buf, byte(ct))
	buf = append(buf, body...)

	path := s.path(key)
	tmpPath := path + "." + strconv.FormatUint(s.seq.Add(1), 10) + ".tmp"
	return writeAtomic(s.fs, tmpPath, path, buf)
}

// writeAtomic writes data to tmpPath, syncs it and renames it over path.
func writeAtomic(fsys afero.Fs, tmpPath, path string, data []byte) error {
	f, err := fsys.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("failed to write content: %w", err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := fsys.Rename(tmpPath, path); err != nil {
		_ = fsys.Remove(tmpPath)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Size returns total bytes used by the store.
func (s *FSStore) Size() (int64, error) {
	if _, err := s.fs.Stat(s.root); errors.Is(err, fs.ErrNotExist) {
		return 0, nil
	}

	var total int64
	err := afero.Walk(s.fs, s.root, func(_ string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}

// MemoizeString returns the cached value for key or computes, stores and returns it.
// Compute errors are returned without caching.
func MemoizeString(s Store, key string, compute func() (string, error)) (string, bool, error) {
	if data, err := s.Get(key); err == nil {
		return string(data), true, nil
	} else if !errors.Is(err, ErrNotFound) {
		return "", false, err
	}
	v, err := compute()
	if err != nil {
		return "", false, err
	}
	if err := s.Put(key, []byte(v)); err != nil {
		return v, false, err
	}
	return v, false, nil
}
