package doccache

import (
	"errors"
	"unsafe"

	"go.etcd.io/bbolt"
)

type boltStore struct {
	bdb *bbolt.DB
}

func openBoltStore(path string, isTesting bool) (store, error) {
	opt := *bbolt.DefaultOptions
	if isTesting {
		opt.NoSync = true
		opt.NoFreelistSync = true
		opt.InitialMmapSize = 1024 * 1024
	} else {
		opt.FreelistType = bbolt.FreelistMapType
	}
	bdb, err := bbolt.Open(path, 0666, &opt)
	if err != nil {
		return nil, err
	}
	return &boltStore{bdb}, nil
}

func (s *boltStore) Begin(writable bool) (storeTx, error) {
	btx, err := s.bdb.Begin(writable)
	if err != nil {
		return nil, err
	}
	return boltTx{btx}, nil
}

func (s *boltStore) Close() error {
	return s.bdb.Close()
}

type boltTx struct {
	btx *bbolt.Tx
}

func (tx boltTx) Bucket(root, sub string) storeBucket {
	r := tx.btx.Bucket(unsafeBytes(root))
	if r == nil {
		return nil
	}
	b := r.Bucket(unsafeBytes(sub))
	if b == nil {
		return nil
	}
	return boltBucket{b}
}

func (tx boltTx) CreateBucket(root, sub string) (storeBucket, error) {
	r, err := tx.btx.CreateBucketIfNotExists(unsafeBytes(root))
	if err != nil {
		return nil, err
	}
	b, err := r.CreateBucketIfNotExists(unsafeBytes(sub))
	if err != nil {
		return nil, err
	}
	return boltBucket{b}, nil
}

func (tx boltTx) DeleteBucket(root, sub string) error {
	r := tx.btx.Bucket(unsafeBytes(root))
	if r == nil {
		return errBucketNotFound
	}
	err := r.DeleteBucket(unsafeBytes(sub))
	if errors.Is(err, bbolt.ErrBucketNotFound) {
		return errBucketNotFound
	}
	return err
}

func (tx boltTx) Commit() error {
	return tx.btx.Commit()
}

func (tx boltTx) Rollback() error {
	err := tx.btx.Rollback()
	if errors.Is(err, bbolt.ErrTxClosed) {
		return nil
	}
	return err
}

type boltBucket struct {
	b *bbolt.Bucket
}

func (b boltBucket) Get(key []byte) []byte       { return b.b.Get(key) }
func (b boltBucket) Put(key, value []byte) error { return b.b.Put(key, value) }
func (b boltBucket) Delete(key []byte) error     { return b.b.Delete(key) }
func (b boltBucket) Cursor() storeCursor         { return b.b.Cursor() }
func (b boltBucket) KeyCount() int               { return b.b.Stats().KeyN }

func unsafeBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}
