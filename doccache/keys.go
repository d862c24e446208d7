package doccache

import (
	"encoding/binary"
	"encoding/hex"
	"log/slog"
	"math"

	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
)

// Keys are the path segments of a document, each prefixed by its length as
// a uvarint. A collection's key is therefore a prefix of the keys of every
// document below it, including documents of nested collections.

func appendPath(buf []byte, path model.ResourcePath) []byte {
	for i := 0; i < path.Len(); i++ {
		buf = appendVarstring(buf, path.Segment(i))
	}
	return buf
}

func appendVarstring(buf []byte, v string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(v)))
	return append(buf, v...)
}

func decodePath(key []byte) (model.ResourcePath, error) {
	d := makeByteDecoder(key)
	var segs []string
	for len(d.Buf) > 0 {
		seg, err := d.VarBytes()
		if err != nil {
			return model.ResourcePath{}, err
		}
		if len(seg) == 0 {
			return model.ResourcePath{}, dataErrf(d.Orig, d.Off(), nil, "empty path segment")
		}
		segs = append(segs, string(seg))
	}
	return model.NewPath(segs...), nil
}

func decodeDocumentKey(key []byte) (model.DocumentKey, error) {
	path, err := decodePath(key)
	if err != nil {
		return model.DocumentKey{}, err
	}
	if !path.IsDocumentPath() {
		return model.DocumentKey{}, dataErrf(key, 0, nil, "cache key %q is not a document path", path)
	}
	return model.KeyFromPath(path)
}

type byteDecoder struct {
	Orig []byte
	Buf  []byte
}

func makeByteDecoder(buf []byte) byteDecoder {
	return byteDecoder{buf, buf}
}

func (d *byteDecoder) Off() int {
	return len(d.Orig) - len(d.Buf)
}

func (d *byteDecoder) Uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.Buf)
	if n <= 0 {
		return 0, dataErrf(d.Orig, d.Off(), nil, "invalid uvarint")
	}
	d.Buf = d.Buf[n:]
	return v, nil
}

func (d *byteDecoder) Raw(n uint64) ([]byte, error) {
	if uint64(len(d.Buf)) < n || n > math.MaxInt {
		return nil, dataErrf(d.Orig, d.Off(), nil, "not enough data: %d bytes remaining, %d wanted", len(d.Buf), n)
	}
	v := d.Buf[:n]
	d.Buf = d.Buf[n:]
	return v, nil
}

func (d *byteDecoder) VarBytes() ([]byte, error) {
	n, err := d.Uvarint()
	if err != nil {
		return nil, err
	}
	return d.Raw(n)
}

func dataErrf(data []byte, off int, err error, format string, args ...any) error {
	return wire.NewDataError(data, off, err, format, args...)
}

func hexAttr(key string, b []byte) slog.Attr {
	return slog.String(key, hex.EncodeToString(b))
}
