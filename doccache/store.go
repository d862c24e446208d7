package doccache

import "errors"

var errBucketNotFound = errors.New("bucket not found")

// store is a sorted key-value backend: Bolt on disk, or a transient map.
type store interface {
	Begin(writable bool) (storeTx, error)
	Close() error
}

type storeTx interface {
	// Bucket returns the bucket sub nested in root, or nil if it doesn't exist.
	Bucket(root, sub string) storeBucket

	// CreateBucket creates root and sub as needed.
	CreateBucket(root, sub string) (storeBucket, error)

	// DeleteBucket drops sub from root, returning errBucketNotFound if either
	// is missing.
	DeleteBucket(root, sub string) error

	Commit() error

	// Rollback is a no-op after Commit or another Rollback.
	Rollback() error
}

type storeBucket interface {
	// Get returns nil for missing keys. The result is valid until the
	// transaction ends.
	Get(key []byte) []byte
	Put(key, value []byte) error
	Delete(key []byte) error
	Cursor() storeCursor
	KeyCount() int
}

type storeCursor interface {
	// Seek moves to the first key >= seek; a nil key means no such key.
	Seek(seek []byte) (key, value []byte)
	Next() (key, value []byte)
}
