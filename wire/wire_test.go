package wire

import (
	"bytes"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"

	"github.com/andreyvit/docwire/wiretest"
	"google.golang.org/protobuf/encoding/protowire"
)

var bytesEq = wiretest.BytesEq

func TestWriter_primitives(t *testing.T) {
	w := NewWriter(nil)
	w.WriteVarint(1, 150)
	w.WriteInt64(2, -1)
	w.WriteBool(3, true)
	w.WriteDouble(4, 1.5)
	w.WriteString(5, "hi")
	w.WriteBytes(6, nil)
	if err := w.Err(); err != nil {
		t.Fatal(err)
	}
	bytesEq(t, w.Bytes(), wiretest.Expand(
		"08 96_01",
		"10 ff*9 01",
		"18 01",
		"21 00_00_00_00_00_00_f8_3f",
		"2a 02 'hi",
		"32 00",
	))
}

func TestWriter_int32SignExtends(t *testing.T) {
	w := NewWriter(nil)
	w.WriteInt32(1, -2)
	bytesEq(t, w.Bytes(), wiretest.Expand("08 fe ff*8 01"))
}

func TestWriter_message(t *testing.T) {
	w := NewWriter(nil)
	w.WriteMessage(1, func(w *Writer) {
		w.WriteVarint(1, 150)
	})
	bytesEq(t, w.Bytes(), wiretest.Expand("0a 03 08 96_01"))
}

func TestWriter_emptyMessage(t *testing.T) {
	w := NewWriter(nil)
	w.WriteMessage(1, func(w *Writer) {})
	w.WriteVarint(2, 1)
	bytesEq(t, w.Bytes(), wiretest.Expand("0a 00 10 01"))
}

func TestWriter_messageLongerThanOneByteLength(t *testing.T) {
	w := NewWriter(nil)
	w.WriteMessage(1, func(w *Writer) {
		w.WriteBytes(2, bytes.Repeat([]byte{'x'}, 200))
	})
	w.WriteVarint(3, 7)
	bytesEq(t, w.Bytes(), wiretest.Expand("0a cb_01 12 c8_01 78*200 18 07"))
}

func TestWriter_nestedShifts(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 20000)
	w := NewWriter(nil)
	w.WriteMessage(1, func(w *Writer) {
		w.WriteMessage(2, func(w *Writer) {
			w.WriteMessage(3, func(w *Writer) {
				w.WriteBytes(4, payload)
			})
		})
	})

	var got []byte
	r := NewReader(w.Bytes())
	for r.More() {
		if r.ReadTag() != 1 {
			t.Fatalf("outer tag = %d, wanted 1", r.num)
		}
		r.ReadMessage(func(m *Reader) {
			m.ReadTag()
			m.ReadMessage(func(m *Reader) {
				m.ReadTag()
				m.ReadMessage(func(m *Reader) {
					m.ReadTag()
					got = m.ReadBytes()
				})
			})
		})
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("payload len = %d, wanted %d", len(got), len(payload))
	}
}

func TestWriter_failfIsTerminal(t *testing.T) {
	w := NewWriter(nil)
	w.WriteVarint(1, 1)
	w.Failf("bad %s", "thing")
	w.Failf("second")
	w.WriteVarint(2, 2)
	if !errors.Is(w.Err(), ErrInvalidInput) {
		t.Fatalf("Err = %v, wanted ErrInvalidInput", w.Err())
	}
	if !strings.Contains(w.Err().Error(), "bad thing") {
		t.Fatalf("Err = %q, wanted first message", w.Err())
	}
	if w.Len() != 2 {
		t.Fatalf("Len = %d, wanted 2", w.Len())
	}
}

func TestWriter_maxDepth(t *testing.T) {
	w := NewWriter(nil)
	w.SetMaxDepth(3)
	var nest func(w *Writer, n int)
	nest = func(w *Writer, n int) {
		if n == 0 {
			return
		}
		w.WriteMessage(1, func(w *Writer) { nest(w, n-1) })
	}
	nest(w, 3)
	if err := w.Err(); err != nil {
		t.Fatalf("depth 3: %v", err)
	}
	nest(w, 4)
	if !errors.Is(w.Err(), ErrInvalidInput) {
		t.Fatalf("depth 4: Err = %v, wanted ErrInvalidInput", w.Err())
	}
}

func TestReader_primitives(t *testing.T) {
	r := NewReader(wiretest.Expand(
		"08 96_01",
		"10 ff*9 01",
		"18 02",
		"21 00_00_00_00_00_00_f8_3f",
		"2a 02 'hi",
		"35 01_00_00_00",
	))
	type field struct {
		Num protowire.Number
		Val any
	}
	var got []field
	for r.More() {
		num := r.ReadTag()
		switch num {
		case 1:
			got = append(got, field{num, r.ReadVarint()})
		case 2:
			got = append(got, field{num, r.ReadInt64()})
		case 3:
			got = append(got, field{num, r.ReadBool()})
		case 4:
			got = append(got, field{num, r.ReadDouble()})
		case 5:
			got = append(got, field{num, r.ReadString()})
		case 6:
			got = append(got, field{num, r.ReadFixed32()})
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	deepEq(t, got, []field{
		{1, uint64(150)},
		{2, int64(-1)},
		{3, true},
		{4, 1.5},
		{5, "hi"},
		{6, uint32(1)},
	})
}

func TestReader_failures(t *testing.T) {
	tests := []struct {
		name string
		data string
		read func(r *Reader)
	}{
		{"truncated tag", "80", func(r *Reader) { r.ReadTag() }},
		{"zero field number", "00 00", func(r *Reader) { r.ReadTag() }},
		{"truncated varint", "08 80", func(r *Reader) { r.ReadTag(); r.ReadVarint() }},
		{"varint past 64 bits", "08 ff*10 01", func(r *Reader) { r.ReadTag(); r.ReadVarint() }},
		{"length past end", "0a 05 'a", func(r *Reader) { r.ReadTag(); r.ReadBytes() }},
		{"truncated fixed64", "09 00_00", func(r *Reader) { r.ReadTag(); r.ReadFixed64() }},
		{"truncated fixed32", "0d 00", func(r *Reader) { r.ReadTag(); r.ReadFixed32() }},
		{"wrong wire type", "08 01", func(r *Reader) { r.ReadTag(); r.ReadBytes() }},
		{"skip truncated", "fa_01 05", func(r *Reader) { r.ReadTag(); r.Skip() }},
		{"nested truncation", "0a 02 08 80", func(r *Reader) {
			r.ReadTag()
			r.ReadMessage(func(m *Reader) { m.ReadTag(); m.ReadVarint() })
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReader(wiretest.Expand(tt.data))
			tt.read(r)
			err := r.Err()
			if !errors.Is(err, ErrDataLoss) {
				t.Fatalf("Err = %v, wanted ErrDataLoss", err)
			}
			var de *DataError
			if !errors.As(err, &de) {
				t.Fatalf("Err = %T, wanted *DataError", err)
			}
			if r.More() {
				t.Fatalf("More = true after failure")
			}
			if v := r.ReadVarint(); v != 0 {
				t.Fatalf("ReadVarint after failure = %d, wanted 0", v)
			}
		})
	}
}

func TestReader_failfFirstWins(t *testing.T) {
	r := NewReader(wiretest.Expand("08 01 10 02"))
	r.ReadTag()
	r.ReadVarint()
	r.Failf("first")
	r.Failf("second")
	var de *DataError
	if !errors.As(r.Err(), &de) {
		t.Fatalf("Err = %T, wanted *DataError", r.Err())
	}
	if de.Msg != "first" || de.Off != 2 {
		t.Fatalf("DataError = %q at %d, wanted %q at 2", de.Msg, de.Off, "first")
	}
}

func TestReader_nestedShareState(t *testing.T) {
	r := NewReader(wiretest.Expand("0a 02 08 01 10 05"))
	r.ReadTag()
	r.ReadMessage(func(m *Reader) {
		m.ReadTag()
		m.ReadVarint()
		m.Failf("inner problem")
	})
	if r.OK() {
		t.Fatalf("OK = true after nested failure")
	}
	if r.More() {
		t.Fatalf("More = true after nested failure")
	}
	var de *DataError
	if !errors.As(r.Err(), &de) || de.Off != 4 {
		t.Fatalf("Err = %v, wanted failure at offset 4", r.Err())
	}
}

func TestReader_nestedOffsets(t *testing.T) {
	r := NewReader(wiretest.Expand("08 01 12 04 08 02 10 03 18 04"))
	var offs []int
	for r.More() {
		switch r.ReadTag() {
		case 2:
			r.ReadMessage(func(m *Reader) {
				for m.More() {
					m.ReadTag()
					m.ReadVarint()
					offs = append(offs, m.Off())
				}
			})
		default:
			r.ReadVarint()
		}
		offs = append(offs, r.Off())
	}
	deepEq(t, offs, []int{2, 6, 8, 8, 10})
}

func TestReader_maxDepth(t *testing.T) {
	// three levels of 0a-wrapped messages, innermost holding 08 01
	data := wiretest.Expand("0a 06 0a 04 0a 02 08 01")
	read := func(depth int) error {
		r := NewReader(data)
		r.SetMaxDepth(depth)
		var walk func(m *Reader)
		walk = func(m *Reader) {
			for m.More() {
				if m.ReadTag() == 1 && m.Type() == protowire.BytesType {
					m.ReadMessage(walk)
				} else {
					m.Skip()
				}
			}
		}
		walk(r)
		return r.Err()
	}
	if err := read(3); err != nil {
		t.Fatalf("depth 3: %v", err)
	}
	if err := read(2); !errors.Is(err, ErrDataLoss) {
		t.Fatalf("depth 2: Err = %v, wanted ErrDataLoss", err)
	}
}

func TestReader_skipAllWireTypes(t *testing.T) {
	r := NewReader(wiretest.Expand(
		"f8_01 05",
		"f9_01 00*8",
		"fa_01 02 'ab",
		"fd_01 00*4",
		"fb_01 08 01 fc_01",
		"08 2a",
	))
	var got uint64
	for r.More() {
		if r.ReadTag() == 1 {
			got = r.ReadVarint()
		} else {
			r.Skip()
		}
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	if got != 42 {
		t.Fatalf("got %d, wanted 42", got)
	}
}

func TestReader_doubleBits(t *testing.T) {
	for _, v := range []float64{0, math.Copysign(0, -1), math.Inf(1), math.MaxFloat64, math.SmallestNonzeroFloat64} {
		w := NewWriter(nil)
		w.WriteDouble(1, v)
		r := NewReader(w.Bytes())
		r.ReadTag()
		if a := r.ReadDouble(); math.Float64bits(a) != math.Float64bits(v) {
			t.Errorf("** ReadDouble = %v, wanted %v", a, v)
		}
	}
}

func TestDataError_Error(t *testing.T) {
	t.Run("small data", func(t *testing.T) {
		inner := errors.New("inner")
		err := NewDataError([]byte{0xAA, 0xBB}, 1, inner, "oops")
		if !errors.Is(err, inner) {
			t.Fatalf("errors.Is(err, inner) = false, wanted true")
		}
		if !errors.Is(err, ErrDataLoss) {
			t.Fatalf("errors.Is(err, ErrDataLoss) = false, wanted true")
		}
		s := err.Error()
		if !strings.Contains(s, "oops") || !strings.Contains(s, "inner") || !strings.Contains(s, "aabb") {
			t.Fatalf("err.Error() = %q, wanted message with oops/inner/aabb", s)
		}
	})

	t.Run("large data includes prefix+suffix", func(t *testing.T) {
		data := make([]byte, 200)
		for i := range data {
			data[i] = byte(i)
		}
		s := NewDataError(data, 0, nil, "oops").Error()
		if !strings.Contains(s, "(200)") || !strings.Contains(s, "...") {
			t.Fatalf("err.Error() = %q, wanted message with (200) and ...", s)
		}
	})
}

func deepEq[T any](t testing.TB, a, e T) bool {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
		return false
	}
	return true
}
