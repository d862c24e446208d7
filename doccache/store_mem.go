package doccache

import (
	"bytes"
	"errors"
	"slices"
	"sort"
	"sync"
)

var (
	errStoreClosed = errors.New("store closed")
	errReadOnly    = errors.New("transaction is read-only")
)

// memStore keeps everything in memory. Every transaction works on a private
// copy of all buckets; committing a writable one replaces the shared state.
// Writers are serialized, readers never block.
type memStore struct {
	mu      sync.Mutex
	cond    *sync.Cond
	buckets map[memBucketName]*memBucket
	writer  bool
	closed  bool
}

type memBucketName struct {
	root, sub string
}

func newMemStore() store {
	s := &memStore{buckets: make(map[memBucketName]*memBucket)}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *memStore) Begin(writable bool) (storeTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if writable {
		for s.writer && !s.closed {
			s.cond.Wait()
		}
	}
	if s.closed {
		return nil, errStoreClosed
	}
	if writable {
		s.writer = true
	}
	snap := make(map[memBucketName]*memBucket, len(s.buckets))
	for name, b := range s.buckets {
		snap[name] = b.clone()
	}
	return &memTx{store: s, writable: writable, buckets: snap}, nil
}

func (s *memStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.buckets = nil
	s.cond.Broadcast()
	return nil
}

type memTx struct {
	store    *memStore
	writable bool
	done     bool
	buckets  map[memBucketName]*memBucket
}

func (tx *memTx) Bucket(root, sub string) storeBucket {
	b := tx.buckets[memBucketName{root, sub}]
	if b == nil {
		return nil
	}
	return memBucketHandle{tx, b}
}

func (tx *memTx) CreateBucket(root, sub string) (storeBucket, error) {
	if !tx.writable {
		return nil, errReadOnly
	}
	name := memBucketName{root, sub}
	b := tx.buckets[name]
	if b == nil {
		b = &memBucket{}
		tx.buckets[name] = b
	}
	return memBucketHandle{tx, b}, nil
}

func (tx *memTx) DeleteBucket(root, sub string) error {
	if !tx.writable {
		return errReadOnly
	}
	name := memBucketName{root, sub}
	if tx.buckets[name] == nil {
		return errBucketNotFound
	}
	delete(tx.buckets, name)
	return nil
}

func (tx *memTx) Commit() error {
	if !tx.writable {
		return errReadOnly
	}
	s := tx.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if tx.done {
		return nil
	}
	tx.finishLocked()
	if s.closed {
		return errStoreClosed
	}
	s.buckets = tx.buckets
	return nil
}

func (tx *memTx) Rollback() error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.finishLocked()
	return nil
}

func (tx *memTx) finishLocked() {
	if tx.done {
		return
	}
	tx.done = true
	if tx.writable {
		tx.store.writer = false
		tx.store.cond.Broadcast()
	}
}

// memBucket is sorted by key.
type memBucket struct {
	items []memItem
}

type memItem struct {
	key, value []byte
}

func (b *memBucket) clone() *memBucket {
	items := make([]memItem, len(b.items))
	for i, it := range b.items {
		items[i] = memItem{slices.Clone(it.key), slices.Clone(it.value)}
	}
	return &memBucket{items}
}

func (b *memBucket) search(key []byte) (int, bool) {
	i := sort.Search(len(b.items), func(i int) bool {
		return bytes.Compare(b.items[i].key, key) >= 0
	})
	return i, i < len(b.items) && bytes.Equal(b.items[i].key, key)
}

type memBucketHandle struct {
	tx *memTx
	b  *memBucket
}

func (h memBucketHandle) Get(key []byte) []byte {
	if i, ok := h.b.search(key); ok {
		return h.b.items[i].value
	}
	return nil
}

func (h memBucketHandle) Put(key, value []byte) error {
	if !h.tx.writable {
		return errReadOnly
	}
	value = slices.Clone(value)
	if i, ok := h.b.search(key); ok {
		h.b.items[i].value = value
	} else {
		h.b.items = slices.Insert(h.b.items, i, memItem{slices.Clone(key), value})
	}
	return nil
}

func (h memBucketHandle) Delete(key []byte) error {
	if !h.tx.writable {
		return errReadOnly
	}
	if i, ok := h.b.search(key); ok {
		h.b.items = slices.Delete(h.b.items, i, i+1)
	}
	return nil
}

func (h memBucketHandle) Cursor() storeCursor {
	return &memCursor{b: h.b}
}

func (h memBucketHandle) KeyCount() int {
	return len(h.b.items)
}

type memCursor struct {
	b   *memBucket
	pos int
}

func (c *memCursor) Seek(seek []byte) ([]byte, []byte) {
	c.pos, _ = c.b.search(seek)
	return c.current()
}

func (c *memCursor) Next() ([]byte, []byte) {
	c.pos++
	return c.current()
}

func (c *memCursor) current() ([]byte, []byte) {
	if c.pos >= len(c.b.items) {
		return nil, nil
	}
	it := c.b.items[c.pos]
	return it.key, it.value
}
