package model

import (
	"fmt"
	"maps"
)

// ObjectValue is the top-level field set of a document.
type ObjectValue struct {
	fields Map
}

func EmptyObject() ObjectValue {
	return ObjectValue{}
}

// ObjectFromMap takes a shallow copy of m.
func ObjectFromMap(m Map) ObjectValue {
	return ObjectValue{maps.Clone(m)}
}

// Fields returns the underlying map; callers must not modify it.
func (o ObjectValue) Fields() Map {
	if o.fields == nil {
		return Map{}
	}
	return o.fields
}

func (o ObjectValue) Len() int {
	return len(o.fields)
}

// Get returns the value at the given path, descending into nested maps.
func (o ObjectValue) Get(path FieldPath) (Value, bool) {
	var cur Value = o.Fields()
	for _, seg := range path.segs {
		m, ok := cur.(Map)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func (o ObjectValue) Equal(another ObjectValue) bool {
	return o.Fields().Equal(another.Fields())
}

func (o ObjectValue) String() string {
	return Format(o.Fields())
}

// MaybeDocument is the backend's answer for a key: Document, NoDocument or
// UnknownDocument. A nil MaybeDocument is never a valid answer.
type MaybeDocument interface {
	Key() DocumentKey
	Version() SnapshotVersion
	isMaybeDocument()
}

// Document is a document known to exist at Version.
type Document struct {
	key     DocumentKey
	data    ObjectValue
	version SnapshotVersion
}

// NoDocument records that no document existed at Version.
type NoDocument struct {
	key     DocumentKey
	version SnapshotVersion
}

// UnknownDocument records that a document existed at Version but its
// contents are not known.
type UnknownDocument struct {
	key     DocumentKey
	version SnapshotVersion
}

func NewDocument(key DocumentKey, data ObjectValue, version SnapshotVersion) Document {
	return Document{key, data, version}
}

func NewNoDocument(key DocumentKey, version SnapshotVersion) NoDocument {
	return NoDocument{key, version}
}

func NewUnknownDocument(key DocumentKey, version SnapshotVersion) UnknownDocument {
	return UnknownDocument{key, version}
}

func (d Document) Key() DocumentKey         { return d.key }
func (d Document) Version() SnapshotVersion { return d.version }
func (d Document) Data() ObjectValue        { return d.data }

func (d NoDocument) Key() DocumentKey         { return d.key }
func (d NoDocument) Version() SnapshotVersion { return d.version }

func (d UnknownDocument) Key() DocumentKey         { return d.key }
func (d UnknownDocument) Version() SnapshotVersion { return d.version }

func (Document) isMaybeDocument()        {}
func (NoDocument) isMaybeDocument()      {}
func (UnknownDocument) isMaybeDocument() {}

func (d Document) String() string {
	return fmt.Sprintf("Document(%s, %s, %s)", d.key, d.version, d.data)
}

func (d NoDocument) String() string {
	return fmt.Sprintf("NoDocument(%s, %s)", d.key, d.version)
}

func (d UnknownDocument) String() string {
	return fmt.Sprintf("UnknownDocument(%s, %s)", d.key, d.version)
}

// EqualDocuments compares two answers including their variant.
func EqualDocuments(a, b MaybeDocument) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if !a.Key().Equal(b.Key()) || a.Version() != b.Version() {
		return false
	}
	switch a := a.(type) {
	case Document:
		bd, ok := b.(Document)
		return ok && a.data.Equal(bd.data)
	case NoDocument:
		_, ok := b.(NoDocument)
		return ok
	case UnknownDocument:
		_, ok := b.(UnknownDocument)
		return ok
	default:
		panic(fmt.Errorf("unknown document type %T", a))
	}
}
