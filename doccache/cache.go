// Package doccache keeps the backend's answers for individual documents
// (found, missing, or existing with unknown contents) in a Bolt file, in the
// same wire form the backend sent them.
//
// Each entry is a msgpack envelope holding the kind of answer, its version,
// and for found documents the serialized Document message, zstd-compressed
// when large and guarded by an xxhash checksum. A damaged entry is reported
// as data loss, never returned.
package doccache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/andreyvit/docwire"
	"github.com/andreyvit/docwire/model"
)

// DefaultCompressAbove is the Document message size, in bytes, above which
// payloads are zstd-compressed.
const DefaultCompressAbove = 4096

const rootBucket = "remote_documents"

type Options struct {
	Logger    *slog.Logger
	Verbose   bool
	IsTesting bool

	// InMemory keeps the cache in memory; the path passed to Open is
	// ignored.
	InMemory bool

	// CompressAbove overrides DefaultCompressAbove; negative disables
	// compression.
	CompressAbove int
}

// Cache is safe for concurrent use. Writers are serialized.
type Cache struct {
	st            store
	ser           *docwire.Serializer
	bucket        string
	logger        *slog.Logger
	verbose       bool
	compressAbove int
}

// Open opens or creates the cache file at path. Documents are stored per
// database, so one file can serve several serializers.
func Open(path string, ser *docwire.Serializer, opt Options) (*Cache, error) {
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.CompressAbove == 0 {
		opt.CompressAbove = DefaultCompressAbove
	}

	var st store
	if opt.InMemory {
		st = newMemStore()
	} else {
		var err error
		st, err = openBoltStore(path, opt.IsTesting)
		if err != nil {
			return nil, fmt.Errorf("doccache: %w", err)
		}
	}

	c := &Cache{
		st:            st,
		ser:           ser,
		bucket:        ser.DatabaseID().String(),
		logger:        opt.Logger,
		verbose:       opt.Verbose,
		compressAbove: opt.CompressAbove,
	}
	err := c.update(func(storeBucket) error { return nil })
	if err != nil {
		st.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) Close() error {
	return c.st.Close()
}

func (c *Cache) update(fn func(b storeBucket) error) error {
	tx, err := c.st.Begin(true)
	if err != nil {
		return fmt.Errorf("doccache: %w", err)
	}
	defer tx.Rollback()
	b, err := tx.CreateBucket(rootBucket, c.bucket)
	if err != nil {
		return fmt.Errorf("doccache: %w", err)
	}
	if err := fn(b); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("doccache: %w", err)
	}
	return nil
}

// view calls fn with nil if the bucket is gone.
func (c *Cache) view(fn func(b storeBucket) error) error {
	tx, err := c.st.Begin(false)
	if err != nil {
		return fmt.Errorf("doccache: %w", err)
	}
	defer tx.Rollback()
	return fn(tx.Bucket(rootBucket, c.bucket))
}

// Put stores docs in a single transaction, replacing earlier answers for
// the same keys.
func (c *Cache) Put(docs ...model.MaybeDocument) error {
	return c.update(func(b storeBucket) error {
		for _, doc := range docs {
			if doc == nil {
				return fmt.Errorf("doccache: nil document")
			}
			if doc.Key().IsEmpty() {
				return fmt.Errorf("doccache: document without a key")
			}
			raw, err := c.encodeEntry(doc)
			if err != nil {
				return fmt.Errorf("doccache: %s: %w", doc.Key(), err)
			}
			if c.verbose {
				c.logger.LogAttrs(context.Background(), slog.LevelDebug, "doccache: put", slog.String("key", doc.Key().String()), slog.Int("size", len(raw)))
			}
			if err := b.Put(appendPath(nil, doc.Key().Path()), raw); err != nil {
				return fmt.Errorf("doccache: %w", err)
			}
		}
		return nil
	})
}

// Get returns the cached answer for key, or nil if there is none.
func (c *Cache) Get(key model.DocumentKey) (model.MaybeDocument, error) {
	var result model.MaybeDocument
	err := c.view(func(b storeBucket) error {
		if b == nil {
			return nil
		}
		raw := b.Get(appendPath(nil, key.Path()))
		if raw == nil {
			return nil
		}
		var err error
		result, err = c.decode(key, raw)
		return err
	})
	return result, err
}

// Delete removes the answers for keys; absent keys are ignored.
func (c *Cache) Delete(keys ...model.DocumentKey) error {
	return c.update(func(b storeBucket) error {
		for _, key := range keys {
			if err := b.Delete(appendPath(nil, key.Path())); err != nil {
				return fmt.Errorf("doccache: %w", err)
			}
		}
		return nil
	})
}

// Clear drops every cached answer of this database. Other databases sharing
// the file are untouched.
func (c *Cache) Clear() error {
	tx, err := c.st.Begin(true)
	if err != nil {
		return fmt.Errorf("doccache: %w", err)
	}
	defer tx.Rollback()
	if err := tx.DeleteBucket(rootBucket, c.bucket); err != nil && !errors.Is(err, errBucketNotFound) {
		return fmt.Errorf("doccache: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("doccache: %w", err)
	}
	c.logger.LogAttrs(context.Background(), slog.LevelInfo, "doccache: cleared", slog.String("db", c.bucket))
	return nil
}

// Count returns the number of cached answers.
func (c *Cache) Count() (int, error) {
	var n int
	err := c.view(func(b storeBucket) error {
		if b != nil {
			n = b.KeyCount()
		}
		return nil
	})
	return n, err
}

// ScanCollection returns the cached answers for the documents directly in
// collection, ordered by key. Documents of nested collections are skipped.
func (c *Cache) ScanCollection(collection model.ResourcePath) ([]model.MaybeDocument, error) {
	if collection.Len()%2 != 1 {
		return nil, fmt.Errorf("doccache: %q is not a collection path", collection)
	}
	prefix := appendPath(nil, collection)
	var result []model.MaybeDocument
	err := c.view(func(b storeBucket) error {
		if b == nil {
			return nil
		}
		cur := b.Cursor()
		for k, v := cur.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = cur.Next() {
			key, err := decodeDocumentKey(k)
			if err != nil {
				return fmt.Errorf("doccache: %w", err)
			}
			if key.Path().Len() != collection.Len()+1 {
				continue
			}
			doc, err := c.decode(key, v)
			if err != nil {
				return err
			}
			result = append(result, doc)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(result, func(a, b model.MaybeDocument) int {
		return a.Key().Compare(b.Key())
	})
	return result, nil
}

func (c *Cache) decode(key model.DocumentKey, raw []byte) (model.MaybeDocument, error) {
	doc, err := c.decodeEntry(key, raw)
	if err != nil {
		c.logger.LogAttrs(context.Background(), slog.LevelWarn, "doccache: corrupt entry", slog.String("key", key.String()), hexAttr("raw", raw), slog.Any("err", err))
		return nil, fmt.Errorf("doccache: %w", err)
	}
	return doc, nil
}
