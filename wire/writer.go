package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrInvalidInput marks a Writer failure caused by the value being encoded
// rather than by the output buffer, which never fails.
var ErrInvalidInput = errors.New("invalid input")

// Writer appends protobuf fields to a growable buffer. Like Reader it has a
// terminal error state: after Failf every write is a no-op.
type Writer struct {
	buf      []byte
	err      error
	depth    int
	maxDepth int
}

// NewWriter returns a writer appending to buf, which may be nil.
func NewWriter(buf []byte) *Writer {
	return &Writer{buf: buf, maxDepth: DefaultMaxDepth}
}

func (w *Writer) SetMaxDepth(n int) {
	if n <= 0 {
		n = DefaultMaxDepth
	}
	w.maxDepth = n
}

// Bytes returns the encoded data. The writer must not be used afterwards if
// the caller intends to own the result exclusively.
func (w *Writer) Bytes() []byte {
	return w.buf
}

func (w *Writer) Len() int {
	return len(w.buf)
}

func (w *Writer) Err() error {
	return w.err
}

func (w *Writer) OK() bool {
	return w.err == nil
}

func (w *Writer) Failf(format string, args ...any) {
	if w.err == nil {
		w.err = fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
	}
}

func (w *Writer) WriteTag(num protowire.Number, typ protowire.Type) {
	if w.err != nil {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, typ)
}

func (w *Writer) WriteVarint(num protowire.Number, v uint64) {
	if w.err != nil {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.VarintType)
	w.buf = protowire.AppendVarint(w.buf, v)
}

func (w *Writer) WriteInt64(num protowire.Number, v int64) {
	w.WriteVarint(num, uint64(v))
}

// WriteInt32 sign-extends negative values to ten bytes, as protobuf does.
func (w *Writer) WriteInt32(num protowire.Number, v int32) {
	w.WriteVarint(num, uint64(int64(v)))
}

func (w *Writer) WriteBool(num protowire.Number, v bool) {
	w.WriteVarint(num, protowire.EncodeBool(v))
}

func (w *Writer) WriteFixed64(num protowire.Number, v uint64) {
	if w.err != nil {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.Fixed64Type)
	w.buf = protowire.AppendFixed64(w.buf, v)
}

func (w *Writer) WriteDouble(num protowire.Number, v float64) {
	w.WriteFixed64(num, math.Float64bits(v))
}

// WriteBytes always emits the field, so a nil or empty slice still produces
// a present zero-length value.
func (w *Writer) WriteBytes(num protowire.Number, v []byte) {
	if w.err != nil {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendBytes(w.buf, v)
}

func (w *Writer) WriteString(num protowire.Number, v string) {
	if w.err != nil {
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	w.buf = protowire.AppendString(w.buf, v)
}

// WriteMessage emits a length-delimited field whose payload is produced by fn.
//
// One byte is reserved for the length; if the payload turns out to need a
// longer prefix, the payload is shifted right to make room.
func (w *Writer) WriteMessage(num protowire.Number, fn func(w *Writer)) {
	if w.err != nil {
		return
	}
	if w.depth >= w.maxDepth {
		w.Failf("message nesting exceeds %d levels", w.maxDepth)
		return
	}
	w.buf = protowire.AppendTag(w.buf, num, protowire.BytesType)
	lenOff, buf := grow(w.buf, 1)
	w.buf = buf
	start := len(w.buf)

	w.depth++
	fn(w)
	w.depth--
	if w.err != nil {
		return
	}

	n := len(w.buf) - start
	size := protowire.SizeVarint(uint64(n))
	if size > 1 {
		_, w.buf = grow(w.buf, size-1)
		copy(w.buf[start+size-1:], w.buf[start:start+n])
	}
	protowire.AppendVarint(w.buf[:lenOff], uint64(n)) // in place, capacity is already there
}
