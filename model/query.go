package model

import (
	"fmt"
	"slices"
	"strings"
)

type Operator int

const (
	OpLessThan Operator = iota + 1
	OpLessThanOrEqual
	OpEqual
	OpNotEqual
	OpGreaterThanOrEqual
	OpGreaterThan
	OpArrayContains
	OpIn
	OpArrayContainsAny
	OpNotIn
)

var operatorNames = [...]string{
	OpLessThan:           "<",
	OpLessThanOrEqual:    "<=",
	OpEqual:              "==",
	OpNotEqual:           "!=",
	OpGreaterThanOrEqual: ">=",
	OpGreaterThan:        ">",
	OpArrayContains:      "array_contains",
	OpIn:                 "in",
	OpArrayContainsAny:   "array_contains_any",
	OpNotIn:              "not_in",
}

func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if name != "" && name == s {
			return Operator(op), nil
		}
	}
	return 0, fmt.Errorf("unknown operator %q", s)
}

func (op Operator) String() string {
	if op > 0 && int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

func (op Operator) IsInequality() bool {
	switch op {
	case OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual, OpNotEqual, OpNotIn:
		return true
	default:
		return false
	}
}

// Filter restricts a query to documents whose Field compares to Value
// under Op. Comparisons with null or NaN travel as unary filters.
type Filter struct {
	Field FieldPath
	Op    Operator
	Value Value
}

// NewFilter is a shorthand for literals: NewFilter("a.b", "<", Integer(3)).
func NewFilter(field, op string, v Value) Filter {
	o, err := ParseOperator(op)
	if err != nil {
		panic(err)
	}
	return Filter{Field(field), o, v}
}

func (f Filter) Equal(another Filter) bool {
	return f.Field.Equal(another.Field) && f.Op == another.Op && Equal(f.Value, another.Value)
}

func (f Filter) String() string {
	return fmt.Sprintf("%s %s %s", f.Field, f.Op, Format(f.Value))
}

type Direction int

const (
	Ascending Direction = iota
	Descending
)

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

type OrderBy struct {
	Field     FieldPath
	Direction Direction
}

func NewOrderBy(field, dir string) OrderBy {
	switch dir {
	case "asc", "":
		return OrderBy{Field(field), Ascending}
	case "desc":
		return OrderBy{Field(field), Descending}
	default:
		panic(fmt.Errorf("unknown direction %q", dir))
	}
}

func (o OrderBy) Equal(another OrderBy) bool {
	return o.Field.Equal(another.Field) && o.Direction == another.Direction
}

func (o OrderBy) String() string {
	return o.Field.String() + " " + o.Direction.String()
}

// Bound is a query cursor: a position given by one value per order-by, and
// whether the bound lies just before that position.
type Bound struct {
	Position []Value
	Before   bool
}

func (b *Bound) Equal(another *Bound) bool {
	if b == nil || another == nil {
		return b == nil && another == nil
	}
	return b.Before == another.Before && slices.EqualFunc(b.Position, another.Position, Equal)
}

// Query selects documents of a collection (or the single document at Path).
// When CollectionGroup is set, Path is the parent under which all
// collections with that id are searched.
type Query struct {
	Path            ResourcePath
	CollectionGroup string
	Filters         []Filter
	ExplicitOrderBy []OrderBy
	Limit           int32 // 0 means no limit
	StartAt         *Bound
	EndAt           *Bound
}

func NewQuery(path ResourcePath) Query {
	return Query{Path: path}
}

// MustQuery is NewQuery for path literals.
func MustQuery(path string) Query {
	p, err := ParsePath(path)
	if err != nil {
		panic(err)
	}
	return Query{Path: p}
}

func (q Query) AddingFilter(f Filter) Query {
	q.Filters = append(slices.Clip(q.Filters), f)
	return q
}

func (q Query) AddingOrderBy(o OrderBy) Query {
	q.ExplicitOrderBy = append(slices.Clip(q.ExplicitOrderBy), o)
	return q
}

func (q Query) WithLimit(n int32) Query {
	q.Limit = n
	return q
}

func (q Query) StartingAt(b Bound) Query {
	q.StartAt = &b
	return q
}

func (q Query) EndingAt(b Bound) Query {
	q.EndAt = &b
	return q
}

// IsDocumentQuery reports whether q selects exactly the document at Path.
func (q Query) IsDocumentQuery() bool {
	return q.Path.IsDocumentPath() && q.CollectionGroup == "" && len(q.Filters) == 0 &&
		len(q.ExplicitOrderBy) == 0 && q.Limit == 0 && q.StartAt == nil && q.EndAt == nil
}

// InequalityField returns the field of the first inequality filter.
func (q Query) InequalityField() (FieldPath, bool) {
	for _, f := range q.Filters {
		if f.Op.IsInequality() {
			return f.Field, true
		}
	}
	return FieldPath{}, false
}

// OrderBy returns the full ordering of the query results. Without explicit
// ordering, results are ordered by the inequality field, if any. The
// document key always comes last so that the order is total; it inherits the
// direction of the last explicit ordering.
func (q Query) OrderBy() []OrderBy {
	if len(q.ExplicitOrderBy) == 0 {
		if f, ok := q.InequalityField(); ok && !f.IsKeyField() {
			return []OrderBy{{f, Ascending}, {KeyFieldPath, Ascending}}
		}
		return []OrderBy{{KeyFieldPath, Ascending}}
	}
	last := q.ExplicitOrderBy[len(q.ExplicitOrderBy)-1]
	if last.Field.IsKeyField() {
		return slices.Clone(q.ExplicitOrderBy)
	}
	result := make([]OrderBy, 0, len(q.ExplicitOrderBy)+1)
	result = append(result, q.ExplicitOrderBy...)
	return append(result, OrderBy{KeyFieldPath, last.Direction})
}

// Equal compares queries as callers see them: by their effective ordering
// rather than by how the ordering was spelled.
func (q Query) Equal(another Query) bool {
	return q.Path.Equal(another.Path) &&
		q.CollectionGroup == another.CollectionGroup &&
		slices.EqualFunc(q.Filters, another.Filters, Filter.Equal) &&
		slices.EqualFunc(q.OrderBy(), another.OrderBy(), OrderBy.Equal) &&
		q.Limit == another.Limit &&
		q.StartAt.Equal(another.StartAt) &&
		q.EndAt.Equal(another.EndAt)
}

func (q Query) String() string {
	var buf strings.Builder
	buf.WriteString("Query(")
	buf.WriteString(q.Path.String())
	if q.CollectionGroup != "" {
		fmt.Fprintf(&buf, " group=%s", q.CollectionGroup)
	}
	for _, f := range q.Filters {
		fmt.Fprintf(&buf, " where %s", f)
	}
	for _, o := range q.OrderBy() {
		fmt.Fprintf(&buf, " order %s", o)
	}
	if q.Limit != 0 {
		fmt.Fprintf(&buf, " limit %d", q.Limit)
	}
	if q.StartAt != nil {
		fmt.Fprintf(&buf, " start %s", Format(Array(q.StartAt.Position)))
	}
	if q.EndAt != nil {
		fmt.Fprintf(&buf, " end %s", Format(Array(q.EndAt.Position)))
	}
	buf.WriteByte(')')
	return buf.String()
}

// QueryPurpose says why a query is being listened to.
type QueryPurpose int

const (
	PurposeListen QueryPurpose = iota
	PurposeExistenceFilterMismatch
	PurposeLimboResolution
)

// QueryData is a query registered with the backend as a listen target.
type QueryData struct {
	Query           Query
	TargetID        int32
	SequenceNumber  int64
	Purpose         QueryPurpose
	SnapshotVersion SnapshotVersion
	ResumeToken     []byte
}

func NewQueryData(q Query, targetID int32, seq int64, purpose QueryPurpose) QueryData {
	return QueryData{Query: q, TargetID: targetID, SequenceNumber: seq, Purpose: purpose}
}
