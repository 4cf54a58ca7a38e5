package cache

import (
	"fmt"

	bolt "go.etcd.io/bbolt"
)

// getRecord reads and decodes one msgpack record; a missing key yields (nil, nil).
func getRecord[T any](db *bolt.DB, bucketName string, key []byte) (*T, error) {
	var result *T
	err := db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if bucket == nil {
			return fmt.Errorf("bucket %s not found", bucketName)
		}
		data := bucket.Get(key)
		if data == nil {
			return nil
		}

		var item T
		if err := Decode(data, &item); err != nil {
			return err
		}
		result = &item
		return nil
	})
	return result, err
}

// putRecord encodes value with msgpack and stores it under key.
func putRecord[T any](db *bolt.DB, bucketName string, key []byte, value *T) error {
	data, err := Encode(value)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		if err != nil {
			return err
		}
		return bucket.Put(key, data)
	})
}
