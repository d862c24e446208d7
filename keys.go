package docwire

import (
	"fmt"
	"strings"

	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
)

// EncodeResourceName renders the fully-qualified name of a path in db:
// projects/{project}/databases/{database}/documents[/{segment}...].
func EncodeResourceName(db model.DatabaseID, path model.ResourcePath) string {
	var buf strings.Builder
	buf.WriteString("projects/")
	buf.WriteString(db.ProjectID)
	buf.WriteString("/databases/")
	buf.WriteString(db.DatabaseID)
	buf.WriteString("/documents")
	for i := 0; i < path.Len(); i++ {
		buf.WriteByte('/')
		buf.WriteString(path.Segment(i))
	}
	return buf.String()
}

// EncodeKey returns the fully-qualified name of key in this database. The
// empty key yields the name of the database's document root.
func (s *Serializer) EncodeKey(key model.DocumentKey) string {
	return EncodeResourceName(s.db, key.Path())
}

func (s *Serializer) EncodeQueryPath(path model.ResourcePath) string {
	if path.IsEmpty() {
		return s.rootName
	}
	return EncodeResourceName(s.db, path)
}

// ParseResourceName splits a fully-qualified name into its database and the
// path below "documents". A leading slash is tolerated.
func ParseResourceName(name string) (model.DatabaseID, model.ResourcePath, error) {
	segs := strings.Split(strings.TrimPrefix(name, "/"), "/")
	if len(segs) < 5 {
		return model.DatabaseID{}, model.ResourcePath{}, fmt.Errorf("resource name %q is too short", name)
	}
	if segs[0] != "projects" || segs[2] != "databases" || segs[4] != "documents" {
		return model.DatabaseID{}, model.ResourcePath{}, fmt.Errorf("resource name %q is not of the form projects/*/databases/*/documents", name)
	}
	for _, seg := range segs[1:] {
		if seg == "" {
			return model.DatabaseID{}, model.ResourcePath{}, fmt.Errorf("resource name %q has an empty segment", name)
		}
	}
	db := model.DatabaseID{ProjectID: segs[1], DatabaseID: segs[3]}
	return db, model.NewPath(segs[5:]...), nil
}

// DecodeKey parses the fully-qualified name of a document in this database.
// Any mismatch is recorded on r as data loss and an empty key is returned.
func (s *Serializer) DecodeKey(r *wire.Reader, name string) model.DocumentKey {
	path := s.decodeLocalPath(r, name)
	if !r.OK() {
		return model.DocumentKey{}
	}
	key, err := model.KeyFromPath(path)
	if err != nil {
		r.Failf("resource name %q: %v", name, err)
		return model.DocumentKey{}
	}
	return key
}

func (s *Serializer) decodeLocalPath(r *wire.Reader, name string) model.ResourcePath {
	db, path, err := ParseResourceName(name)
	if err != nil {
		r.Failf("%v", err)
		return model.ResourcePath{}
	}
	if db != s.db {
		r.Failf("resource name %q does not belong to database %s", name, s.db)
		return model.ResourcePath{}
	}
	return path
}

// decodeReference accepts names from any database.
func (s *Serializer) decodeReference(r *wire.Reader, name string) model.Reference {
	db, path, err := ParseResourceName(name)
	if err != nil {
		r.Failf("reference: %v", err)
		return model.Reference{}
	}
	if !path.IsDocumentPath() {
		r.Failf("reference %q does not name a document", name)
		return model.Reference{}
	}
	key, _ := model.KeyFromPath(path)
	return model.Reference{Database: db, Key: key}
}
