package model

import (
	"fmt"
	"slices"
	"strings"
)

// ResourcePath is an immutable slash-separated path relative to the root of
// a database, e.g. "rooms/1/messages".
type ResourcePath struct {
	segs []string
}

// NewPath copies the given segments into a path.
func NewPath(segments ...string) ResourcePath {
	return ResourcePath{slices.Clone(segments)}
}

// ParsePath splits s on slashes. Empty segments (from doubled, leading or
// trailing slashes) are rejected; the empty string is the root path.
func ParsePath(s string) (ResourcePath, error) {
	if s == "" {
		return ResourcePath{}, nil
	}
	segs := strings.Split(s, "/")
	for _, seg := range segs {
		if seg == "" {
			return ResourcePath{}, fmt.Errorf("invalid path %q: empty segment", s)
		}
	}
	return ResourcePath{segs}, nil
}

func (p ResourcePath) Len() int {
	return len(p.segs)
}

func (p ResourcePath) IsEmpty() bool {
	return len(p.segs) == 0
}

func (p ResourcePath) Segment(i int) string {
	return p.segs[i]
}

// Segments returns a copy of the path's segments.
func (p ResourcePath) Segments() []string {
	return slices.Clone(p.segs)
}

func (p ResourcePath) LastSegment() string {
	if len(p.segs) == 0 {
		return ""
	}
	return p.segs[len(p.segs)-1]
}

// Parent returns the path without its last segment; the parent of the root
// path is the root path.
func (p ResourcePath) Parent() ResourcePath {
	if len(p.segs) == 0 {
		return p
	}
	return ResourcePath{p.segs[:len(p.segs)-1:len(p.segs)-1]}
}

func (p ResourcePath) Append(segments ...string) ResourcePath {
	segs := make([]string, 0, len(p.segs)+len(segments))
	segs = append(segs, p.segs...)
	segs = append(segs, segments...)
	return ResourcePath{segs}
}

func (p ResourcePath) HasPrefix(prefix ResourcePath) bool {
	if len(prefix.segs) > len(p.segs) {
		return false
	}
	return slices.Equal(p.segs[:len(prefix.segs)], prefix.segs)
}

// IsDocumentPath reports whether p has a non-zero even number of segments.
func (p ResourcePath) IsDocumentPath() bool {
	return len(p.segs) > 0 && len(p.segs)%2 == 0
}

func (p ResourcePath) Equal(another ResourcePath) bool {
	return slices.Equal(p.segs, another.segs)
}

func (p ResourcePath) Compare(another ResourcePath) int {
	return slices.Compare(p.segs, another.segs)
}

func (p ResourcePath) String() string {
	return strings.Join(p.segs, "/")
}

// DocumentKey identifies a document within a database: a path with an even
// number of segments. The empty key is representable (it names the database
// root) but is never a valid document at a use site.
type DocumentKey struct {
	path ResourcePath
}

// KeyFromPath turns a path into a key, failing on an odd segment count.
func KeyFromPath(p ResourcePath) (DocumentKey, error) {
	if p.Len()%2 != 0 {
		return DocumentKey{}, fmt.Errorf("invalid document key %q: odd number of segments", p)
	}
	return DocumentKey{p}, nil
}

func ParseKey(s string) (DocumentKey, error) {
	p, err := ParsePath(s)
	if err != nil {
		return DocumentKey{}, err
	}
	return KeyFromPath(p)
}

// MustKey is ParseKey for literals; it panics on invalid input.
func MustKey(s string) DocumentKey {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

func (k DocumentKey) Path() ResourcePath {
	return k.path
}

func (k DocumentKey) IsEmpty() bool {
	return k.path.IsEmpty()
}

// CollectionPath is the path of the collection containing the document.
func (k DocumentKey) CollectionPath() ResourcePath {
	return k.path.Parent()
}

// ID is the last segment of the key.
func (k DocumentKey) ID() string {
	return k.path.LastSegment()
}

func (k DocumentKey) Equal(another DocumentKey) bool {
	return k.path.Equal(another.path)
}

func (k DocumentKey) Compare(another DocumentKey) int {
	return k.path.Compare(another.path)
}

func (k DocumentKey) String() string {
	return k.path.String()
}

const DefaultDatabase = "(default)"

// DatabaseID names a database within a project.
type DatabaseID struct {
	ProjectID  string
	DatabaseID string
}

func NewDatabaseID(project, database string) DatabaseID {
	if database == "" {
		database = DefaultDatabase
	}
	return DatabaseID{ProjectID: project, DatabaseID: database}
}

func (db DatabaseID) IsDefault() bool {
	return db.DatabaseID == DefaultDatabase
}

func (db DatabaseID) String() string {
	return db.ProjectID + "/" + db.DatabaseID
}
