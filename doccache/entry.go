package doccache

import (
	"bytes"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreyvit/docwire/model"
)

type entryKind uint8

const (
	kindDocument entryKind = iota + 1
	kindNoDocument
	kindUnknownDocument
)

const (
	flagCompressed uint8 = 1 << iota
)

// entry is the stored form of a MaybeDocument. Data holds the Document
// message of a Document, possibly zstd-compressed, and is empty otherwise.
// Sum is the xxhash of the uncompressed Data.
type entry struct {
	_msgpack struct{} `msgpack:",as_array"`

	Kind    entryKind
	Seconds int64
	Nanos   int32
	Flags   uint8
	Sum     uint64
	Data    []byte
}

var (
	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error
	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("doccache: zstd encoder initialization failed: " + err.Error())
	}
	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("doccache: zstd decoder initialization failed: " + err.Error())
	}
}

func (c *Cache) encodeEntry(doc model.MaybeDocument) ([]byte, error) {
	v := doc.Version()
	e := entry{Seconds: v.Seconds, Nanos: v.Nanos}
	switch doc := doc.(type) {
	case model.Document:
		data, err := c.ser.EncodeDocument(doc.Key(), doc.Data())
		if err != nil {
			return nil, err
		}
		e.Kind = kindDocument
		e.Sum = xxhash.Sum64(data)
		if c.compressAbove >= 0 && len(data) > c.compressAbove {
			if compressed := zstdEncoder.EncodeAll(data, nil); len(compressed) < len(data) {
				data = compressed
				e.Flags |= flagCompressed
			}
		}
		e.Data = data
	case model.NoDocument:
		e.Kind = kindNoDocument
	case model.UnknownDocument:
		e.Kind = kindUnknownDocument
	default:
		return nil, fmt.Errorf("doccache: unsupported document type %T", doc)
	}
	var buf bytes.Buffer
	enc := msgpack.GetEncoder()
	enc.Reset(&buf)
	err := enc.Encode(&e)
	msgpack.PutEncoder(enc)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (c *Cache) decodeEntry(key model.DocumentKey, raw []byte) (model.MaybeDocument, error) {
	var e entry
	var r bytes.Reader
	r.Reset(raw)
	dec := msgpack.GetDecoder()
	dec.Reset(&r)
	err := dec.Decode(&e)
	msgpack.PutDecoder(dec)
	if err != nil {
		return nil, dataErrf(raw, 0, err, "failed to decode cache entry for %s", key)
	}
	version := model.SnapshotVersion{Seconds: e.Seconds, Nanos: e.Nanos}
	switch e.Kind {
	case kindDocument:
		data := e.Data
		if e.Flags&flagCompressed != 0 {
			var err error
			data, err = zstdDecoder.DecodeAll(data, nil)
			if err != nil {
				return nil, dataErrf(raw, 0, err, "failed to decompress cache entry for %s", key)
			}
		}
		if sum := xxhash.Sum64(data); sum != e.Sum {
			return nil, dataErrf(raw, 0, nil, "checksum mismatch in cache entry for %s: %016x, wanted %016x", key, sum, e.Sum)
		}
		doc, err := c.ser.DecodeDocument(data)
		if err != nil {
			return nil, err
		}
		if !doc.Key().Equal(key) {
			return nil, dataErrf(raw, 0, nil, "cache entry for %s holds %s", key, doc.Key())
		}
		return model.NewDocument(key, doc.Data(), version), nil
	case kindNoDocument:
		return model.NewNoDocument(key, version), nil
	case kindUnknownDocument:
		return model.NewUnknownDocument(key, version), nil
	default:
		return nil, dataErrf(raw, 0, nil, "unknown cache entry kind %d for %s", e.Kind, key)
	}
}
