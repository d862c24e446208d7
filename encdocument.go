package docwire

import (
	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
)

// EncodeDocument produces a Document message. Create and update times are
// never written: the backend assigns them.
func (s *Serializer) EncodeDocument(key model.DocumentKey, data model.ObjectValue) ([]byte, error) {
	return s.encode("document", func(w *wire.Writer) {
		s.WriteDocument(w, key, data)
	})
}

func (s *Serializer) WriteDocument(w *wire.Writer, key model.DocumentKey, data model.ObjectValue) {
	if key.IsEmpty() {
		w.Failf("document without a key")
		return
	}
	w.WriteString(fieldDocumentName, s.EncodeKey(key))
	s.writeFields(w, fieldDocumentFields, data.Fields())
}

func (s *Serializer) DecodeDocument(data []byte) (model.Document, error) {
	return decode(s, "document", data, s.ReadDocument)
}

// ReadDocument reads a Document message. The update time becomes the
// document version; the create time is ignored.
func (s *Serializer) ReadDocument(r *wire.Reader) model.Document {
	var name string
	var hasName bool
	var version model.SnapshotVersion
	fields := model.Map{}
	for r.More() {
		switch r.ReadTag() {
		case fieldDocumentName:
			name, hasName = r.ReadString(), true
		case fieldDocumentFields:
			s.readFieldEntry(r, fields)
		case fieldDocumentUpdateTime:
			version = readVersion(r)
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return model.Document{}
	}
	if !hasName {
		r.Failf("document has no name")
		return model.Document{}
	}
	key := s.DecodeKey(r, name)
	if !r.OK() {
		return model.Document{}
	}
	if key.IsEmpty() {
		r.Failf("document name %q names the database root", name)
		return model.Document{}
	}
	return model.NewDocument(key, model.ObjectFromMap(fields), version)
}

func (s *Serializer) DecodeMaybeDocument(data []byte) (model.MaybeDocument, error) {
	return decode(s, "batch get response", data, s.ReadMaybeDocument)
}

// ReadMaybeDocument reads a BatchGetDocumentsResponse. A found document
// yields a Document versioned by its update time; a missing name yields a
// NoDocument versioned by the read time. The transaction is ignored. A
// response carrying neither is data loss, and nil is returned.
func (s *Serializer) ReadMaybeDocument(r *wire.Reader) model.MaybeDocument {
	const (
		none = iota
		found
		missing
	)
	var (
		result      = none
		doc         model.Document
		missingName string
		readTime    model.SnapshotVersion
	)
	for r.More() {
		switch r.ReadTag() {
		case fieldBatchGetFound:
			r.ReadMessage(func(m *wire.Reader) {
				doc = s.ReadDocument(m)
			})
			result = found
		case fieldBatchGetMissing:
			missingName = r.ReadString()
			result = missing
		case fieldBatchGetReadTime:
			readTime = readVersion(r)
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return nil
	}
	switch result {
	case found:
		return doc
	case missing:
		key := s.DecodeKey(r, missingName)
		if !r.OK() {
			return nil
		}
		if key.IsEmpty() {
			r.Failf("missing name %q names the database root", missingName)
			return nil
		}
		return model.NewNoDocument(key, readTime)
	default:
		r.Failf("batch get response has neither found nor missing set")
		return nil
	}
}
