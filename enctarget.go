package docwire

import (
	"bytes"
	"fmt"
	"math"
	"slices"

	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
	"google.golang.org/protobuf/encoding/protowire"
)

var fieldOperators = map[model.Operator]uint64{
	model.OpLessThan:           1,
	model.OpLessThanOrEqual:    2,
	model.OpGreaterThan:        3,
	model.OpGreaterThanOrEqual: 4,
	model.OpEqual:              5,
	model.OpNotEqual:           6,
	model.OpArrayContains:      7,
	model.OpIn:                 8,
	model.OpArrayContainsAny:   9,
	model.OpNotIn:              10,
}

var operatorsByWire = func() map[uint64]model.Operator {
	m := make(map[uint64]model.Operator, len(fieldOperators))
	for op, v := range fieldOperators {
		m[v] = op
	}
	return m
}()

// ListenTagsLabel is the listen request label carrying the purpose of a
// target that is not a plain listen.
const ListenTagsLabel = "goog-listen-tags"

// EncodeListenRequestLabels returns the labels to attach to a listen request
// for a target with the given purpose, or nil for plain listens.
func EncodeListenRequestLabels(purpose model.QueryPurpose) map[string]string {
	switch purpose {
	case model.PurposeListen:
		return nil
	case model.PurposeExistenceFilterMismatch:
		return map[string]string{ListenTagsLabel: "existence-filter-mismatch"}
	case model.PurposeLimboResolution:
		return map[string]string{ListenTagsLabel: "limbo-document"}
	default:
		panic(fmt.Errorf("unknown query purpose %d", purpose))
	}
}

// EncodeTarget produces a Target message. A query for a single document by
// key becomes a documents target; anything else becomes a query target.
func (s *Serializer) EncodeTarget(qd model.QueryData) ([]byte, error) {
	return s.encode("target", func(w *wire.Writer) {
		s.WriteTarget(w, qd)
	})
}

// WriteTarget writes the fields of a Target message. The resume token wins
// over the snapshot version: read_time is only sent when there is no token.
func (s *Serializer) WriteTarget(w *wire.Writer, qd model.QueryData) {
	q := qd.Query
	if q.IsDocumentQuery() {
		w.WriteMessage(fieldTargetDocuments, func(w *wire.Writer) {
			w.WriteString(fieldDocumentsTargetDocuments, s.EncodeQueryPath(q.Path))
		})
	} else {
		w.WriteMessage(fieldTargetQuery, func(w *wire.Writer) {
			s.WriteQueryTarget(w, q)
		})
	}
	if len(qd.ResumeToken) > 0 {
		w.WriteBytes(fieldTargetResumeToken, qd.ResumeToken)
	}
	if qd.TargetID != 0 {
		w.WriteInt32(fieldTargetTargetID, qd.TargetID)
	}
	if len(qd.ResumeToken) == 0 && !qd.SnapshotVersion.IsNone() {
		writeVersion(w, fieldTargetReadTime, qd.SnapshotVersion)
	}
}

// EncodeQueryTarget produces a QueryTarget message for q.
func (s *Serializer) EncodeQueryTarget(q model.Query) ([]byte, error) {
	return s.encode("query target", func(w *wire.Writer) {
		s.WriteQueryTarget(w, q)
	})
}

// WriteQueryTarget writes the parent and the structured query of q. The
// parent of a collection query is the collection's parent document, or the
// database root for top-level collections. A collection group query searches
// every collection with the group id below q.Path.
func (s *Serializer) WriteQueryTarget(w *wire.Writer, q model.Query) {
	var parent model.ResourcePath
	var collectionID string
	if q.CollectionGroup != "" {
		if q.Path.Len()%2 != 0 {
			w.Failf("collection group %q under collection path %s", q.CollectionGroup, q.Path)
			return
		}
		parent, collectionID = q.Path, q.CollectionGroup
	} else {
		if q.Path.Len()%2 != 1 {
			w.Failf("query path %q is not a collection", q.Path)
			return
		}
		parent, collectionID = q.Path.Parent(), q.Path.LastSegment()
	}

	w.WriteString(fieldQueryTargetParent, s.EncodeQueryPath(parent))
	w.WriteMessage(fieldQueryTargetStructuredQuery, func(w *wire.Writer) {
		w.WriteMessage(fieldQueryFrom, func(w *wire.Writer) {
			w.WriteString(fieldSelectorCollectionID, collectionID)
			if q.CollectionGroup != "" {
				w.WriteBool(fieldSelectorAllDescendants, true)
			}
		})
		if len(q.Filters) > 0 {
			w.WriteMessage(fieldQueryWhere, func(w *wire.Writer) {
				s.writeFilters(w, q.Filters)
			})
		}
		for _, o := range q.OrderBy() {
			w.WriteMessage(fieldQueryOrderBy, func(w *wire.Writer) {
				writeFieldReference(w, fieldOrderField, o.Field)
				if o.Direction == model.Descending {
					w.WriteVarint(fieldOrderDirection, directionDescending)
				} else {
					w.WriteVarint(fieldOrderDirection, directionAscending)
				}
			})
		}
		if q.Limit != 0 {
			w.WriteMessage(fieldQueryLimit, func(w *wire.Writer) {
				w.WriteInt32(fieldInt32Value, q.Limit)
			})
		}
		if q.StartAt != nil {
			w.WriteMessage(fieldQueryStartAt, func(w *wire.Writer) {
				s.writeCursor(w, q.StartAt)
			})
		}
		if q.EndAt != nil {
			w.WriteMessage(fieldQueryEndAt, func(w *wire.Writer) {
				s.writeCursor(w, q.EndAt)
			})
		}
	})
}

// writeFilters writes the fields of a Filter message: a single filter
// directly, several under a composite AND.
func (s *Serializer) writeFilters(w *wire.Writer, filters []model.Filter) {
	if len(filters) == 1 {
		s.writeFilter(w, filters[0])
		return
	}
	w.WriteMessage(fieldFilterComposite, func(w *wire.Writer) {
		w.WriteVarint(fieldCompositeOp, compositeOpAnd)
		for _, f := range filters {
			w.WriteMessage(fieldCompositeFilters, func(w *wire.Writer) {
				s.writeFilter(w, f)
			})
		}
	})
}

func (s *Serializer) writeFilter(w *wire.Writer, f model.Filter) {
	if op, ok := unaryOperator(f); ok {
		w.WriteMessage(fieldFilterUnary, func(w *wire.Writer) {
			w.WriteVarint(fieldUnaryFilterOp, op)
			writeFieldReference(w, fieldUnaryFilterField, f.Field)
		})
		return
	}
	op, ok := fieldOperators[f.Op]
	if !ok {
		w.Failf("unsupported operator %v in filter on %s", f.Op, f.Field)
		return
	}
	w.WriteMessage(fieldFilterField, func(w *wire.Writer) {
		writeFieldReference(w, fieldFieldFilterField, f.Field)
		w.WriteVarint(fieldFieldFilterOp, op)
		w.WriteMessage(fieldFieldFilterValue, func(w *wire.Writer) {
			s.WriteValue(w, f.Value)
		})
	})
}

// unaryOperator picks the unary form of equality and inequality filters
// against null and NaN.
func unaryOperator(f model.Filter) (uint64, bool) {
	switch f.Op {
	case model.OpEqual:
		if _, isNull := f.Value.(model.Null); isNull {
			return unaryIsNull, true
		}
		if model.IsNaN(f.Value) {
			return unaryIsNaN, true
		}
	case model.OpNotEqual:
		if _, isNull := f.Value.(model.Null); isNull {
			return unaryIsNotNull, true
		}
		if model.IsNaN(f.Value) {
			return unaryIsNotNaN, true
		}
	}
	return 0, false
}

func writeFieldReference(w *wire.Writer, num protowire.Number, f model.FieldPath) {
	w.WriteMessage(num, func(w *wire.Writer) {
		writeFieldPath(w, fieldReferencePath, f)
	})
}

func (s *Serializer) writeCursor(w *wire.Writer, b *model.Bound) {
	for _, v := range b.Position {
		w.WriteMessage(fieldCursorValues, func(w *wire.Writer) {
			s.WriteValue(w, v)
		})
	}
	if b.Before {
		w.WriteBool(fieldCursorBefore, true)
	}
}

func (s *Serializer) DecodeTarget(data []byte) (model.QueryData, error) {
	return decode(s, "target", data, s.ReadTarget)
}

// ReadTarget reads a Target message into a listen QueryData. A target with
// neither a query nor documents is data loss.
func (s *Serializer) ReadTarget(r *wire.Reader) model.QueryData {
	var qd model.QueryData
	var hasTarget bool
	for r.More() {
		switch r.ReadTag() {
		case fieldTargetQuery:
			r.ReadMessage(func(m *wire.Reader) {
				qd.Query = s.ReadQueryTarget(m)
			})
			hasTarget = true
		case fieldTargetDocuments:
			r.ReadMessage(func(m *wire.Reader) {
				qd.Query = s.ReadDocumentsTarget(m)
			})
			hasTarget = true
		case fieldTargetResumeToken:
			qd.ResumeToken = bytes.Clone(r.ReadBytes())
		case fieldTargetTargetID:
			qd.TargetID = r.ReadInt32()
		case fieldTargetReadTime:
			qd.SnapshotVersion = readVersion(r)
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return model.QueryData{}
	}
	if !hasTarget {
		r.Failf("target has neither query nor documents")
		return model.QueryData{}
	}
	qd.Purpose = model.PurposeListen
	return qd
}

func (s *Serializer) DecodeDocumentsTarget(data []byte) (model.Query, error) {
	return decode(s, "documents target", data, s.ReadDocumentsTarget)
}

// ReadDocumentsTarget reads a DocumentsTarget message, which must list
// exactly one document.
func (s *Serializer) ReadDocumentsTarget(r *wire.Reader) model.Query {
	var names []string
	for r.More() {
		if r.ReadTag() == fieldDocumentsTargetDocuments {
			names = append(names, r.ReadString())
		} else {
			r.Skip()
		}
	}
	if !r.OK() {
		return model.Query{}
	}
	if len(names) != 1 {
		r.Failf("documents target lists %d documents, wanted 1", len(names))
		return model.Query{}
	}
	key := s.DecodeKey(r, names[0])
	if !r.OK() {
		return model.Query{}
	}
	if key.IsEmpty() {
		r.Failf("documents target names the database root")
		return model.Query{}
	}
	return model.NewQuery(key.Path())
}

func (s *Serializer) DecodeQueryTarget(data []byte) (model.Query, error) {
	return decode(s, "query target", data, s.ReadQueryTarget)
}

// ReadQueryTarget reads a QueryTarget message. The trailing key ordering
// that encoding synthesizes is stripped, so the result equals the query that
// was encoded.
func (s *Serializer) ReadQueryTarget(r *wire.Reader) model.Query {
	var parentName string
	var sq structuredQuery
	var hasQuery bool
	for r.More() {
		switch r.ReadTag() {
		case fieldQueryTargetParent:
			parentName = r.ReadString()
		case fieldQueryTargetStructuredQuery:
			r.ReadMessage(func(m *wire.Reader) {
				sq = s.readStructuredQuery(m)
			})
			hasQuery = true
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return model.Query{}
	}
	if !hasQuery {
		r.Failf("query target has no structured query")
		return model.Query{}
	}
	parent := s.decodeLocalPath(r, parentName)
	if !r.OK() {
		return model.Query{}
	}
	if parent.Len()%2 != 0 {
		r.Failf("query parent %q is a collection", parentName)
		return model.Query{}
	}

	var q model.Query
	if sq.allDescendants {
		q.Path, q.CollectionGroup = parent, sq.collectionID
	} else {
		q.Path = parent.Append(sq.collectionID)
	}
	q.Filters = sq.filters
	q.Limit = sq.limit
	q.StartAt, q.EndAt = sq.startAt, sq.endAt
	q.ExplicitOrderBy = trimImplicitOrderBy(q, sq.orderBy)
	return q
}

// trimImplicitOrderBy returns the shortest prefix of orders from which
// Query.OrderBy would synthesize orders again.
func trimImplicitOrderBy(q model.Query, orders []model.OrderBy) []model.OrderBy {
	for k := 0; k < len(orders); k++ {
		q.ExplicitOrderBy = orders[:k:k]
		if slices.EqualFunc(q.OrderBy(), orders, model.OrderBy.Equal) {
			if k == 0 {
				return nil
			}
			return q.ExplicitOrderBy
		}
	}
	return orders
}

type structuredQuery struct {
	collectionID   string
	allDescendants bool
	filters        []model.Filter
	orderBy        []model.OrderBy
	limit          int32
	startAt        *model.Bound
	endAt          *model.Bound
}

func (s *Serializer) readStructuredQuery(r *wire.Reader) structuredQuery {
	var sq structuredQuery
	var fromCount int
	for r.More() {
		switch r.ReadTag() {
		case fieldQueryFrom:
			fromCount++
			r.ReadMessage(func(m *wire.Reader) {
				for m.More() {
					switch m.ReadTag() {
					case fieldSelectorCollectionID:
						sq.collectionID = m.ReadString()
					case fieldSelectorAllDescendants:
						sq.allDescendants = m.ReadBool()
					default:
						m.Skip()
					}
				}
			})
		case fieldQueryWhere:
			r.ReadMessage(func(m *wire.Reader) {
				sq.filters = s.readFilter(m, sq.filters)
			})
		case fieldQueryOrderBy:
			r.ReadMessage(func(m *wire.Reader) {
				if o, ok := readOrder(m); ok {
					sq.orderBy = append(sq.orderBy, o)
				}
			})
		case fieldQueryLimit:
			r.ReadMessage(func(m *wire.Reader) {
				for m.More() {
					if m.ReadTag() == fieldInt32Value {
						sq.limit = m.ReadInt32()
					} else {
						m.Skip()
					}
				}
			})
		case fieldQueryStartAt:
			sq.startAt = s.readCursor(r)
		case fieldQueryEndAt:
			sq.endAt = s.readCursor(r)
		default:
			r.Skip()
		}
	}
	if r.OK() && fromCount != 1 {
		r.Failf("structured query has %d collection selectors, wanted 1", fromCount)
	}
	if r.OK() && sq.collectionID == "" {
		r.Failf("structured query selects an empty collection id")
	}
	return sq
}

// readFilter reads the fields of a Filter message and appends the filters
// it holds to into. Nested composites are flattened; only AND is supported.
func (s *Serializer) readFilter(r *wire.Reader, into []model.Filter) []model.Filter {
	var got []model.Filter
	var hasFilter bool
	for r.More() {
		switch r.ReadTag() {
		case fieldFilterComposite:
			got, hasFilter = nil, true
			r.ReadMessage(func(m *wire.Reader) {
				var op uint64
				for m.More() {
					switch m.ReadTag() {
					case fieldCompositeOp:
						op = m.ReadVarint()
					case fieldCompositeFilters:
						m.ReadMessage(func(f *wire.Reader) {
							got = s.readFilter(f, got)
						})
					default:
						m.Skip()
					}
				}
				if m.OK() && op != compositeOpAnd {
					m.Failf("unsupported composite filter operator %d", op)
				}
			})
		case fieldFilterField:
			got, hasFilter = nil, true
			r.ReadMessage(func(m *wire.Reader) {
				if f, ok := s.readFieldFilter(m); ok {
					got = append(got, f)
				}
			})
		case fieldFilterUnary:
			got, hasFilter = nil, true
			r.ReadMessage(func(m *wire.Reader) {
				if f, ok := readUnaryFilter(m); ok {
					got = append(got, f)
				}
			})
		default:
			r.Skip()
		}
	}
	if r.OK() && !hasFilter {
		r.Failf("filter has no filter type set")
	}
	return append(into, got...)
}

func (s *Serializer) readFieldFilter(r *wire.Reader) (model.Filter, bool) {
	var f model.Filter
	var hasField bool
	var op uint64
	for r.More() {
		switch r.ReadTag() {
		case fieldFieldFilterField:
			f.Field, hasField = readFieldReference(r), true
		case fieldFieldFilterOp:
			op = r.ReadVarint()
		case fieldFieldFilterValue:
			f.Value = s.readValueMessage(r)
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return model.Filter{}, false
	}
	var ok bool
	if f.Op, ok = operatorsByWire[op]; !ok {
		r.Failf("unsupported field filter operator %d", op)
		return model.Filter{}, false
	}
	if !hasField {
		r.Failf("field filter has no field")
		return model.Filter{}, false
	}
	if f.Value == nil {
		r.Failf("field filter on %s has no value", f.Field)
		return model.Filter{}, false
	}
	return f, true
}

func readUnaryFilter(r *wire.Reader) (model.Filter, bool) {
	var f model.Filter
	var hasField bool
	var op uint64
	for r.More() {
		switch r.ReadTag() {
		case fieldUnaryFilterOp:
			op = r.ReadVarint()
		case fieldUnaryFilterField:
			f.Field, hasField = readFieldReference(r), true
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return model.Filter{}, false
	}
	switch op {
	case unaryIsNull:
		f.Op, f.Value = model.OpEqual, model.Null{}
	case unaryIsNaN:
		f.Op, f.Value = model.OpEqual, model.Double(math.NaN())
	case unaryIsNotNull:
		f.Op, f.Value = model.OpNotEqual, model.Null{}
	case unaryIsNotNaN:
		f.Op, f.Value = model.OpNotEqual, model.Double(math.NaN())
	default:
		r.Failf("unsupported unary filter operator %d", op)
		return model.Filter{}, false
	}
	if !hasField {
		r.Failf("unary filter has no field")
		return model.Filter{}, false
	}
	return f, true
}

// readOrder reads the fields of an Order message. An unspecified direction
// means ascending.
func readOrder(r *wire.Reader) (model.OrderBy, bool) {
	var o model.OrderBy
	var hasField bool
	for r.More() {
		switch r.ReadTag() {
		case fieldOrderField:
			o.Field, hasField = readFieldReference(r), true
		case fieldOrderDirection:
			switch dir := r.ReadVarint(); dir {
			case 0, directionAscending:
				o.Direction = model.Ascending
			case directionDescending:
				o.Direction = model.Descending
			default:
				r.Failf("unsupported order direction %d", dir)
			}
		default:
			r.Skip()
		}
	}
	if r.OK() && !hasField {
		r.Failf("order has no field")
	}
	return o, r.OK()
}

func readFieldReference(r *wire.Reader) model.FieldPath {
	var f model.FieldPath
	var hasPath bool
	r.ReadMessage(func(m *wire.Reader) {
		for m.More() {
			if m.ReadTag() == fieldReferencePath {
				f, hasPath = readFieldPath(m)
			} else {
				m.Skip()
			}
		}
		if m.OK() && !hasPath {
			m.Failf("field reference has no path")
		}
	})
	return f
}

func (s *Serializer) readCursor(r *wire.Reader) *model.Bound {
	b := &model.Bound{}
	r.ReadMessage(func(m *wire.Reader) {
		for m.More() {
			switch m.ReadTag() {
			case fieldCursorValues:
				if v := s.readValueMessage(m); v != nil {
					b.Position = append(b.Position, v)
				}
			case fieldCursorBefore:
				b.Before = m.ReadBool()
			default:
				m.Skip()
			}
		}
	})
	return b
}
