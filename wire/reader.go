package wire

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// DefaultMaxDepth bounds message nesting for both Reader and Writer.
const DefaultMaxDepth = 100

// Reader walks a protobuf-encoded buffer field by field.
//
// The first contract violation (truncated varint, length prefix running past
// the end of the buffer, wire type mismatch, nesting deeper than the limit, or
// a semantic failure reported via Failf) puts the reader into a terminal error
// state. From then on every read returns a zero value and More reports false,
// so callers can run a whole decode sequence and check Err once at the end.
//
// Readers obtained through ReadMessage share the error state of their parent.
type Reader struct {
	st    *readerState
	buf   []byte
	end   int
	num   protowire.Number
	typ   protowire.Type
	depth int
}

type readerState struct {
	data     []byte
	err      error
	maxDepth int
}

func NewReader(data []byte) *Reader {
	return &Reader{
		st:  &readerState{data: data, maxDepth: DefaultMaxDepth},
		buf: data,
		end: len(data),
	}
}

// SetMaxDepth changes the nesting limit of the reader and all its children.
func (r *Reader) SetMaxDepth(n int) {
	if n <= 0 {
		n = DefaultMaxDepth
	}
	r.st.maxDepth = n
}

func (r *Reader) Err() error {
	return r.st.err
}

func (r *Reader) OK() bool {
	return r.st.err == nil
}

// Off returns the absolute offset of the read position in the original buffer.
func (r *Reader) Off() int {
	return r.end - len(r.buf)
}

// More reports whether another field can be read from the current message.
func (r *Reader) More() bool {
	return r.st.err == nil && len(r.buf) > 0
}

// Failf records a data-loss failure unless one has been recorded already.
func (r *Reader) Failf(format string, args ...any) {
	r.fail(nil, format, args...)
}

func (r *Reader) fail(err error, format string, args ...any) {
	if r.st.err == nil {
		r.st.err = dataErrf(r.st.data, r.Off(), err, format, args...)
	}
	r.buf = nil
}

// ReadTag consumes the next field key and returns its field number.
// The wire type is remembered for the following value read.
func (r *Reader) ReadTag() protowire.Number {
	if r.st.err != nil {
		return 0
	}
	num, typ, n := protowire.ConsumeTag(r.buf)
	if n < 0 {
		r.fail(protowire.ParseError(n), "invalid field tag")
		return 0
	}
	r.buf = r.buf[n:]
	r.num, r.typ = num, typ
	return num
}

// Type returns the wire type of the field whose tag was read last.
func (r *Reader) Type() protowire.Type {
	return r.typ
}

// Skip discards the value of the field whose tag was read last.
func (r *Reader) Skip() {
	if r.st.err != nil {
		return
	}
	n := protowire.ConsumeFieldValue(r.num, r.typ, r.buf)
	if n < 0 {
		r.fail(protowire.ParseError(n), "cannot skip field %d", r.num)
		return
	}
	r.buf = r.buf[n:]
}

func (r *Reader) expect(typ protowire.Type) bool {
	if r.st.err != nil {
		return false
	}
	if r.typ != typ {
		r.Failf("field %d has wire type %d, wanted %d", r.num, r.typ, typ)
		return false
	}
	return true
}

func (r *Reader) ReadVarint() uint64 {
	if !r.expect(protowire.VarintType) {
		return 0
	}
	v, n := protowire.ConsumeVarint(r.buf)
	if n < 0 {
		r.fail(protowire.ParseError(n), "invalid varint in field %d", r.num)
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *Reader) ReadInt64() int64 {
	return int64(r.ReadVarint())
}

// ReadInt32 follows protobuf int32 semantics: the varint is truncated to 32 bits.
func (r *Reader) ReadInt32() int32 {
	return int32(r.ReadVarint())
}

// ReadBool treats any non-zero varint as true.
func (r *Reader) ReadBool() bool {
	return protowire.DecodeBool(r.ReadVarint())
}

func (r *Reader) ReadFixed64() uint64 {
	if !r.expect(protowire.Fixed64Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed64(r.buf)
	if n < 0 {
		r.fail(protowire.ParseError(n), "truncated fixed64 in field %d", r.num)
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

func (r *Reader) ReadDouble() float64 {
	return math.Float64frombits(r.ReadFixed64())
}

func (r *Reader) ReadFixed32() uint32 {
	if !r.expect(protowire.Fixed32Type) {
		return 0
	}
	v, n := protowire.ConsumeFixed32(r.buf)
	if n < 0 {
		r.fail(protowire.ParseError(n), "truncated fixed32 in field %d", r.num)
		return 0
	}
	r.buf = r.buf[n:]
	return v
}

// ReadBytes returns a length-delimited payload. The result aliases the
// underlying buffer; callers that keep it must copy.
func (r *Reader) ReadBytes() []byte {
	if !r.expect(protowire.BytesType) {
		return nil
	}
	v, n := protowire.ConsumeBytes(r.buf)
	if n < 0 {
		r.fail(protowire.ParseError(n), "truncated length-delimited field %d", r.num)
		return nil
	}
	r.buf = r.buf[n:]
	return v
}

func (r *Reader) ReadString() string {
	return string(r.ReadBytes())
}

// ReadMessage reads a length-delimited field and hands its payload to fn as
// a nested reader sharing this reader's error state.
func (r *Reader) ReadMessage(fn func(m *Reader)) {
	if r.st.err != nil {
		return
	}
	if r.depth >= r.st.maxDepth {
		r.Failf("message nesting exceeds %d levels", r.st.maxDepth)
		return
	}
	payload := r.ReadBytes()
	if r.st.err != nil {
		return
	}
	m := &Reader{
		st:    r.st,
		buf:   payload,
		end:   r.Off(),
		depth: r.depth + 1,
	}
	fn(m)
	if r.st.err != nil {
		r.buf = nil
	}
}

func (r *Reader) String() string {
	if r.st.err != nil {
		return fmt.Sprintf("wire.Reader(failed: %v)", r.st.err)
	}
	return fmt.Sprintf("wire.Reader(off=%d, remaining=%d)", r.Off(), len(r.buf))
}
