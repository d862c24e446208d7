// Package wiretest has helpers for tests that compare encoded messages
// byte by byte.
package wiretest

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"testing"
)

// Logger returns a debug-level logger that writes through t.Log.
func Logger(t testing.TB) *slog.Logger {
	return slog.New(slog.NewTextHandler(&logWriter{t}, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

type logWriter struct{ t testing.TB }

func (c *logWriter) Write(buf []byte) (int, error) {
	c.t.Helper()
	c.t.Log(strings.TrimSuffix(string(buf), "\n"))
	return len(buf), nil
}

// Expand builds a byte string from a compact notation. Each whitespace
// separated element is one of:
//
//	0a_02       hex bytes, underscores are ignored
//	#300        a varint holding the decimal number
//	'text       the literal text up to the next whitespace
//	ff*3        any non-text element repeated three times
//	08/seconds  anything after a slash in a non-text element is a comment
func Expand(specs ...string) []byte {
	var b []byte
	for _, spec := range specs {
		for _, elem := range strings.Fields(spec) {
			if text, ok := strings.CutPrefix(elem, "'"); ok {
				b = append(b, text...)
				continue
			}
			base, _, _ := strings.Cut(elem, "/")
			if base == "" {
				continue
			}

			base, repStr, _ := strings.Cut(base, "*")
			rep := 1
			if repStr != "" {
				var err error
				rep, err = strconv.Atoi(repStr)
				if err != nil {
					panic(fmt.Sprintf("invalid repeat count %q in element %q", repStr, elem))
				}
			}

			chunk, err := appendElement(nil, base)
			if err != nil {
				panic(fmt.Errorf("%w in element %q", err, elem))
			}
			for j := 0; j < rep; j++ {
				b = append(b, chunk...)
			}
		}
	}
	return b
}

func appendElement(data []byte, elem string) ([]byte, error) {
	if decimal, ok := strings.CutPrefix(elem, "#"); ok {
		v, err := strconv.ParseUint(decimal, 10, 64)
		if err != nil {
			return nil, err
		}
		return binary.AppendUvarint(data, v), nil
	}

	const none byte = 0xFF
	prev := none
	for _, c := range []byte(elem) {
		var half byte
		switch {
		case c == '_':
			continue
		case '0' <= c && c <= '9':
			half = c - '0'
		case 'a' <= c && c <= 'f':
			half = c - 'a' + 10
		case 'A' <= c && c <= 'F':
			half = c - 'A' + 10
		default:
			return nil, fmt.Errorf("invalid char '%c'", c)
		}
		if prev == none {
			prev = half
		} else {
			data = append(data, prev<<4|half)
			prev = none
		}
	}
	if prev != none {
		return nil, fmt.Errorf("odd number of hex digits")
	}
	return data, nil
}

// HexDump renders b sixteen bytes per line, marking the byte at highlightOff
// (pass -1 for none).
func HexDump(b []byte, highlightOff int) string {
	const width = 16
	var buf strings.Builder
	for off := 0; ; off += width {
		fmt.Fprintf(&buf, "%06x", off)
		if off >= len(b) {
			buf.WriteByte('\n')
			break
		}
		line := b[off:min(off+width, len(b))]
		for i := 0; i < width; i++ {
			if i >= len(line) {
				buf.WriteString("   ")
				continue
			}
			if off+i == highlightOff {
				buf.WriteByte('>')
			} else {
				buf.WriteByte(' ')
			}
			fmt.Fprintf(&buf, "%02x", line[i])
		}
		buf.WriteString("  |")
		for _, v := range line {
			if v >= 32 && v <= 126 {
				buf.WriteByte(v)
			} else {
				buf.WriteByte('.')
			}
		}
		buf.WriteString("|\n")
		if off+width >= len(b) {
			break
		}
	}
	return buf.String()
}

// BytesEq reports a test error showing both dumps when a and e differ.
func BytesEq(t testing.TB, a, e []byte) bool {
	if bytes.Equal(a, e) {
		return true
	}
	off := min(len(a), len(e))
	for i, n := 0, off; i < n; i++ {
		if a[i] != e[i] {
			off = i
			break
		}
	}
	t.Helper()
	t.Errorf("** got:\n%v\nwanted:\n%v\nfirst difference offset: 0x%x (%d)", HexDump(a, off), HexDump(e, off), off, off)
	return false
}
