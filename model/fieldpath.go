package model

import (
	"fmt"
	"slices"
	"strings"
)

// KeyFieldName is the reserved field path that refers to the document key.
const KeyFieldName = "__name__"

// FieldPath addresses a (possibly nested) field of a document.
type FieldPath struct {
	segs []string
}

// KeyFieldPath orders and filters by the document key.
var KeyFieldPath = FieldPath{[]string{KeyFieldName}}

func NewFieldPath(segments ...string) FieldPath {
	return FieldPath{slices.Clone(segments)}
}

// Field builds a path from a dot-separated list of simple segments, as used
// in literals: Field("a.b") is NewFieldPath("a", "b").
func Field(dotted string) FieldPath {
	return FieldPath{strings.Split(dotted, ".")}
}

func (fp FieldPath) Len() int {
	return len(fp.segs)
}

func (fp FieldPath) Segments() []string {
	return slices.Clone(fp.segs)
}

func (fp FieldPath) IsKeyField() bool {
	return len(fp.segs) == 1 && fp.segs[0] == KeyFieldName
}

func (fp FieldPath) Equal(another FieldPath) bool {
	return slices.Equal(fp.segs, another.segs)
}

// CanonicalString renders the server form: segments joined by dots, with
// any segment that is not a plain identifier wrapped in backticks and its
// backticks and backslashes escaped.
func (fp FieldPath) CanonicalString() string {
	var buf strings.Builder
	for i, seg := range fp.segs {
		if i > 0 {
			buf.WriteByte('.')
		}
		if isSimpleSegment(seg) {
			buf.WriteString(seg)
			continue
		}
		buf.WriteByte('`')
		for j := 0; j < len(seg); j++ {
			c := seg[j]
			if c == '`' || c == '\\' {
				buf.WriteByte('\\')
			}
			buf.WriteByte(c)
		}
		buf.WriteByte('`')
	}
	return buf.String()
}

func (fp FieldPath) String() string {
	return fp.CanonicalString()
}

func isSimpleSegment(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_', 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z':
		case '0' <= c && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// ParseFieldPath parses the server form produced by CanonicalString.
func ParseFieldPath(s string) (FieldPath, error) {
	var segs []string
	var cur strings.Builder
	var quoted, escaped, seen bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == '\\' && quoted:
			escaped = true
		case c == '`':
			quoted = !quoted
			seen = true
		case c == '.' && !quoted:
			if cur.Len() == 0 && !seen {
				return FieldPath{}, fmt.Errorf("invalid field path %q: empty segment", s)
			}
			segs = append(segs, cur.String())
			cur.Reset()
			seen = false
		default:
			cur.WriteByte(c)
			seen = true
		}
	}
	if quoted || escaped {
		return FieldPath{}, fmt.Errorf("invalid field path %q: unterminated quote", s)
	}
	if cur.Len() == 0 && !seen {
		return FieldPath{}, fmt.Errorf("invalid field path %q: empty segment", s)
	}
	segs = append(segs, cur.String())
	return FieldPath{segs}, nil
}
