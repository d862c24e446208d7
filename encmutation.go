package docwire

import (
	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
	"google.golang.org/protobuf/encoding/protowire"
)

// EncodeMutation produces a Write message.
func (s *Serializer) EncodeMutation(m model.Mutation) ([]byte, error) {
	return s.encode("mutation", func(w *wire.Writer) {
		s.WriteMutation(w, m)
	})
}

func (s *Serializer) WriteMutation(w *wire.Writer, m model.Mutation) {
	switch m := m.(type) {
	case nil:
		w.Failf("nil mutation")
		return
	case model.SetMutation:
		w.WriteMessage(fieldWriteUpdate, func(w *wire.Writer) {
			s.WriteDocument(w, m.Key(), m.Value())
		})
	case model.PatchMutation:
		w.WriteMessage(fieldWriteUpdate, func(w *wire.Writer) {
			s.WriteDocument(w, m.Key(), m.Value())
		})
		w.WriteMessage(fieldWriteUpdateMask, func(w *wire.Writer) {
			for _, f := range m.Mask().Fields {
				writeFieldPath(w, fieldMaskFieldPaths, f)
			}
		})
	case model.DeleteMutation:
		w.WriteString(fieldWriteDelete, s.encodeDocumentName(w, m.Key()))
	case model.VerifyMutation:
		w.WriteString(fieldWriteVerify, s.encodeDocumentName(w, m.Key()))
	default:
		w.Failf("unsupported mutation type %T", m)
		return
	}
	if cond := m.Precondition(); !cond.IsNone() {
		w.WriteMessage(fieldWriteCurrentDocument, func(w *wire.Writer) {
			writePrecondition(w, cond)
		})
	}
}

func (s *Serializer) encodeDocumentName(w *wire.Writer, key model.DocumentKey) string {
	if key.IsEmpty() {
		w.Failf("mutation without a key")
	}
	return s.EncodeKey(key)
}

func writePrecondition(w *wire.Writer, cond model.Precondition) {
	switch cond.Kind {
	case model.PreconditionExists:
		w.WriteBool(fieldPreconditionExists, cond.Exists)
	case model.PreconditionUpdateTime:
		writeVersion(w, fieldPreconditionUpdateTime, cond.UpdateTime)
	default:
		w.Failf("unknown precondition kind %d", cond.Kind)
	}
}

func writeFieldPath(w *wire.Writer, num protowire.Number, f model.FieldPath) {
	if f.Len() == 0 {
		w.Failf("empty field path")
		return
	}
	w.WriteString(num, f.CanonicalString())
}

func (s *Serializer) DecodeMutation(data []byte) (model.Mutation, error) {
	return decode(s, "mutation", data, s.ReadMutation)
}

// ReadMutation reads a Write message. An update with a mask is a patch, an
// update without one is a set. A Write with none of update, delete or verify
// is data loss, and nil is returned.
func (s *Serializer) ReadMutation(r *wire.Reader) model.Mutation {
	const (
		none = iota
		update
		del
		verify
	)
	var (
		op      = none
		doc     model.Document
		name    string
		mask    model.FieldMask
		hasMask bool
		cond    model.Precondition
	)
	for r.More() {
		switch r.ReadTag() {
		case fieldWriteUpdate:
			r.ReadMessage(func(m *wire.Reader) {
				doc = s.ReadDocument(m)
			})
			op = update
		case fieldWriteDelete:
			name, op = r.ReadString(), del
		case fieldWriteVerify:
			name, op = r.ReadString(), verify
		case fieldWriteUpdateMask:
			mask, hasMask = readFieldMask(r), true
		case fieldWriteCurrentDocument:
			cond = readPrecondition(r)
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return nil
	}
	switch op {
	case update:
		if hasMask {
			return model.NewPatchMutation(doc.Key(), doc.Data(), mask, cond)
		}
		return model.NewSetMutation(doc.Key(), doc.Data(), cond)
	case del, verify:
		key := s.DecodeKey(r, name)
		if !r.OK() {
			return nil
		}
		if key.IsEmpty() {
			r.Failf("write name %q names the database root", name)
			return nil
		}
		if op == del {
			return model.NewDeleteMutation(key, cond)
		}
		return model.NewVerifyMutation(key, cond)
	default:
		r.Failf("write has no operation set")
		return nil
	}
}

func readFieldMask(r *wire.Reader) model.FieldMask {
	var mask model.FieldMask
	r.ReadMessage(func(m *wire.Reader) {
		for m.More() {
			if m.ReadTag() == fieldMaskFieldPaths {
				if f, ok := readFieldPath(m); ok {
					mask.Fields = append(mask.Fields, f)
				}
			} else {
				m.Skip()
			}
		}
	})
	return mask
}

func readFieldPath(r *wire.Reader) (model.FieldPath, bool) {
	s := r.ReadString()
	if !r.OK() {
		return model.FieldPath{}, false
	}
	f, err := model.ParseFieldPath(s)
	if err != nil {
		r.Failf("%v", err)
		return model.FieldPath{}, false
	}
	return f, true
}

// readPrecondition reads a Precondition message. An empty message means no
// precondition.
func readPrecondition(r *wire.Reader) model.Precondition {
	var cond model.Precondition
	r.ReadMessage(func(m *wire.Reader) {
		for m.More() {
			switch m.ReadTag() {
			case fieldPreconditionExists:
				cond = model.ExistsPrecondition(m.ReadBool())
			case fieldPreconditionUpdateTime:
				cond = model.UpdateTimePrecondition(readVersion(m))
			default:
				m.Skip()
			}
		}
	})
	return cond
}
