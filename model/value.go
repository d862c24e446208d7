package model

import (
	"bytes"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

type Kind int

const (
	KindNull Kind = iota + 1
	KindBoolean
	KindInteger
	KindDouble
	KindTimestamp
	KindString
	KindBlob
	KindReference
	KindGeoPoint
	KindArray
	KindMap
)

var kindNames = [...]string{
	KindNull:      "null",
	KindBoolean:   "boolean",
	KindInteger:   "integer",
	KindDouble:    "double",
	KindTimestamp: "timestamp",
	KindString:    "string",
	KindBlob:      "blob",
	KindReference: "reference",
	KindGeoPoint:  "geopoint",
	KindArray:     "array",
	KindMap:       "map",
}

func (k Kind) String() string {
	if k > 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a field value of a document. The set of implementations is closed:
// Null, Boolean, Integer, Double, Timestamp, String, Blob, Reference,
// GeoPoint, Array and Map. A nil Value is never a valid field value.
type Value interface {
	Kind() Kind
	isValue()
}

type (
	Null    struct{}
	Boolean bool
	Integer int64
	Double  float64
	String  string

	// Blob is an opaque byte sequence. A nil Blob is an empty blob.
	Blob []byte

	// Array must not directly contain another Array; an Array inside a Map
	// inside an Array is fine.
	Array []Value

	Map map[string]Value
)

type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

// Reference points at a document, possibly in another database.
type Reference struct {
	Database DatabaseID
	Key      DocumentKey
}

func (Null) Kind() Kind      { return KindNull }
func (Boolean) Kind() Kind   { return KindBoolean }
func (Integer) Kind() Kind   { return KindInteger }
func (Double) Kind() Kind    { return KindDouble }
func (Timestamp) Kind() Kind { return KindTimestamp }
func (String) Kind() Kind    { return KindString }
func (Blob) Kind() Kind      { return KindBlob }
func (Reference) Kind() Kind { return KindReference }
func (GeoPoint) Kind() Kind  { return KindGeoPoint }
func (Array) Kind() Kind     { return KindArray }
func (Map) Kind() Kind       { return KindMap }

func (Null) isValue()      {}
func (Boolean) isValue()   {}
func (Integer) isValue()   {}
func (Double) isValue()    {}
func (Timestamp) isValue() {}
func (String) isValue()    {}
func (Blob) isValue()      {}
func (Reference) isValue() {}
func (GeoPoint) isValue()  {}
func (Array) isValue()     {}
func (Map) isValue()       {}

// IsNaN reports whether v is a Double holding NaN.
func IsNaN(v Value) bool {
	d, ok := v.(Double)
	return ok && math.IsNaN(float64(d))
}

// Equal compares values structurally. Integers and doubles never compare
// equal to each other. Doubles compare by bit pattern except that all NaNs
// are equal, so 0.0 and -0.0 differ.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch a := a.(type) {
	case Null:
		return true
	case Boolean:
		return a == b.(Boolean)
	case Integer:
		return a == b.(Integer)
	case Double:
		bd := b.(Double)
		if math.IsNaN(float64(a)) {
			return math.IsNaN(float64(bd))
		}
		return math.Float64bits(float64(a)) == math.Float64bits(float64(bd))
	case Timestamp:
		return a == b.(Timestamp)
	case String:
		return a == b.(String)
	case Blob:
		return bytes.Equal(a, b.(Blob))
	case Reference:
		bref := b.(Reference)
		return a.Database == bref.Database && a.Key.Equal(bref.Key)
	case GeoPoint:
		bg := b.(GeoPoint)
		return Equal(Double(a.Latitude), Double(bg.Latitude)) && Equal(Double(a.Longitude), Double(bg.Longitude))
	case Array:
		barr := b.(Array)
		if len(a) != len(barr) {
			return false
		}
		for i, el := range a {
			if !Equal(el, barr[i]) {
				return false
			}
		}
		return true
	case Map:
		return a.Equal(b.(Map))
	default:
		panic(fmt.Errorf("unknown value type %T", a))
	}
}

func (m Map) Equal(another Map) bool {
	if len(m) != len(another) {
		return false
	}
	for k, v := range m {
		w, ok := another[k]
		if !ok || !Equal(v, w) {
			return false
		}
	}
	return true
}

// SortedKeys returns the keys of m in ascending order.
func (m Map) SortedKeys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders v for debugging and test failure messages.
func Format(v Value) string {
	var buf strings.Builder
	formatValue(&buf, v)
	return buf.String()
}

func formatValue(buf *strings.Builder, v Value) {
	switch v := v.(type) {
	case nil:
		buf.WriteString("<invalid>")
	case Null:
		buf.WriteString("null")
	case Boolean:
		buf.WriteString(strconv.FormatBool(bool(v)))
	case Integer:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Double:
		s := strconv.FormatFloat(float64(v), 'g', -1, 64)
		buf.WriteString(s)
		if !strings.ContainsAny(s, ".eIN") {
			buf.WriteString(".0") // tell 1.0 apart from integer 1
		}
	case Timestamp:
		buf.WriteString(v.String())
	case String:
		buf.WriteString(strconv.Quote(string(v)))
	case Blob:
		fmt.Fprintf(buf, "<%x>", []byte(v))
	case Reference:
		fmt.Fprintf(buf, "&%s/%s", v.Database, v.Key)
	case GeoPoint:
		fmt.Fprintf(buf, "geo(%g, %g)", v.Latitude, v.Longitude)
	case Array:
		buf.WriteByte('[')
		for i, el := range v {
			if i > 0 {
				buf.WriteString(", ")
			}
			formatValue(buf, el)
		}
		buf.WriteByte(']')
	case Map:
		buf.WriteByte('{')
		for i, k := range v.SortedKeys() {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(strconv.Quote(k))
			buf.WriteString(": ")
			formatValue(buf, v[k])
		}
		buf.WriteByte('}')
	default:
		fmt.Fprintf(buf, "%v", v)
	}
}
