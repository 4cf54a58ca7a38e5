package cache

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Memo persists small typed records across builds in BoltDB.
// A nil *Memo is valid and behaves as an always-empty cache.
type Memo struct {
	db   *bolt.DB
	path string
}

// OpenMemo opens or creates the memo database inside dir.
func OpenMemo(dir string, timeout time.Duration) (*Memo, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := &bolt.Options{
		Timeout:      timeout,
		FreelistType: bolt.FreelistArrayType,
	}

	dbPath := filepath.Join(dir, "memo.db")
	db, err := bolt.Open(dbPath, 0644, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BoltDB: %w", err)
	}

	m := &Memo{db: db, path: dbPath}
	if err := m.initSchema(); err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return m, nil
}

// Close closes the database
func (m *Memo) Close() error {
	if m == nil || m.db == nil {
		return nil
	}
	return m.db.Close()
}

// Path returns the database file location.
func (m *Memo) Path() string {
	if m == nil {
		return ""
	}
	return m.path
}

// initSchema creates all buckets if they don't exist
func (m *Memo) initSchema() error {
	return m.db.Update(func(tx *bolt.Tx) error {
		for _, name := range AllBuckets() {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", name, err)
			}
		}

		meta := tx.Bucket([]byte(BucketMeta))
		if meta.Get([]byte(KeySchemaVersion)) == nil {
			v := make([]byte, 4)
			binary.BigEndian.PutUint32(v, SchemaVersion)
			if err := meta.Put([]byte(KeySchemaVersion), v); err != nil {
				return err
			}
		}
		return nil
	})
}

// LastModification returns the memoized timestamp for path when the file
// content still has the given fingerprint.
func (m *Memo) LastModification(path, fingerprint string) (time.Time, bool) {
	if m == nil {
		return time.Time{}, false
	}
	rec, err := getRecord[LastModRecord](m.db, BucketLastMod, []byte(path))
	if err != nil || rec == nil || rec.Fingerprint != fingerprint {
		return time.Time{}, false
	}
	return rec.Time(), true
}

// SetLastModification stores the timestamp for path at the given fingerprint.
func (m *Memo) SetLastModification(path, fingerprint string, t time.Time) error {
	if m == nil {
		return nil
	}
	return putRecord(m.db, BucketLastMod, []byte(path), &LastModRecord{
		Fingerprint: fingerprint,
		UnixNano:    t.UnixNano(),
	})
}

// Cover returns the memoized cover resolution for key when the image bytes
// still have the given fingerprint.
func (m *Memo) Cover(key, fingerprint string) (*CoverRecord, bool) {
	if m == nil {
		return nil, false
	}
	rec, err := getRecord[CoverRecord](m.db, BucketCover, []byte(key))
	if err != nil || rec == nil || rec.Fingerprint != fingerprint {
		return nil, false
	}
	return rec, true
}

// SetCover stores a cover resolution.
func (m *Memo) SetCover(key string, rec *CoverRecord) error {
	if m == nil {
		return nil
	}
	return putRecord(m.db, BucketCover, []byte(key), rec)
}

// IncrementBuildCount bumps the persisted build counter and returns the new value.
func (m *Memo) IncrementBuildCount() (uint64, error) {
	if m == nil {
		return 0, nil
	}
	var count uint64
	err := m.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketStats))
		if v := b.Get([]byte(KeyBuildCount)); len(v) == 8 {
			count = binary.BigEndian.Uint64(v)
		}
		count++
		v := make([]byte, 8)
		binary.BigEndian.PutUint64(v, count)
		return b.Put([]byte(KeyBuildCount), v)
	})
	return count, err
}

// Stats summarizes the memo contents.
type Stats struct {
	SchemaVersion uint32
	LastModPaths  int
	Covers        int
	BuildCount    uint64
}

// Stats reads the record counts and counters.
func (m *Memo) Stats() (Stats, error) {
	var s Stats
	if m == nil {
		return s, nil
	}
	err := m.db.View(func(tx *bolt.Tx) error {
		s.LastModPaths = tx.Bucket([]byte(BucketLastMod)).Stats().KeyN
		s.Covers = tx.Bucket([]byte(BucketCover)).Stats().KeyN
		if v := tx.Bucket([]byte(BucketMeta)).Get([]byte(KeySchemaVersion)); len(v) == 4 {
			s.SchemaVersion = binary.BigEndian.Uint32(v)
		}
		if v := tx.Bucket([]byte(BucketStats)).Get([]byte(KeyBuildCount)); len(v) == 8 {
			s.BuildCount = binary.BigEndian.Uint64(v)
		}
		return nil
	})
	return s, err
}
