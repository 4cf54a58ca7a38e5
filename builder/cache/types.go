// Package cache provides the content-addressed checksum store and the bbolt memo
// that let repeated builds skip placeholder generation, asset copies and git lookups.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeebo/blake3"
)

// CompressionType indicates how an entry is stored on disk
type CompressionType byte

const (
	CompressionNone CompressionType = iota
	CompressionZstdFast
	CompressionZstdLevel3
)

// Constants for compression thresholds
const (
	RawThreshold  = 8 * 1024   // < 8KB stored raw
	FastZstdMax   = 128 * 1024 // 8KB-128KB use zstd fast
	SchemaVersion = 1
)

// Key computes the SHA-256 hex digest of the given inputs. Parts are
// separated so ("ab","c") and ("a","bc") produce different keys.
func Key(parts ...[]byte) string {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{0})
		}
		h.Write(p)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// KeyString is Key over strings.
func KeyString(parts ...string) string {
	bs := make([][]byte, len(parts))
	for i, p := range parts {
		bs[i] = []byte(p)
	}
	return Key(bs...)
}

// Fingerprint computes the BLAKE3 hash of content, used to detect source changes in the memo.
func Fingerprint(data []byte) string {
	hash := blake3.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// LastModRecord memoizes a version-control lookup for one source file.
type LastModRecord struct {
	Fingerprint string `msgpack:"fingerprint"`
	UnixNano    int64  `msgpack:"unix_nano"`
}

// Time returns the stored timestamp in UTC.
func (r LastModRecord) Time() time.Time {
	return time.Unix(0, r.UnixNano).UTC()
}

// CoverRecord memoizes a resolved cover image for one (image, directory) pair.
type CoverRecord struct {
	Fingerprint string `msgpack:"fingerprint"`
	URL         string `msgpack:"url"`
	BlurDataURL string `msgpack:"blur_data_url,omitempty"`
	HasBlur     bool   `msgpack:"has_blur"`
}

// Encode serializes a value to msgpack bytes
func Encode(v interface{}) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Decode deserializes msgpack bytes to a value
func Decode(data []byte, v interface{}) error {
	return msgpack.Unmarshal(data, v)
}
