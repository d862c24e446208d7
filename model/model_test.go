package model

import (
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestEqual(t *testing.T) {
	nan := Double(math.NaN())
	db := NewDatabaseID("p", "d")
	tests := []struct {
		a, b Value
		e    bool
	}{
		{Null{}, Null{}, true},
		{Boolean(true), Boolean(true), true},
		{Boolean(true), Boolean(false), false},
		{Integer(1), Double(1), false},
		{Double(1), Double(1), true},
		{nan, Double(math.NaN()), true},
		{Double(0), Double(math.Copysign(0, -1)), false},
		{String("a"), String("a"), true},
		{String(""), Blob(nil), false},
		{Blob(nil), Blob{}, true},
		{Timestamp{1, 2}, Timestamp{1, 2}, true},
		{Timestamp{1, 2}, Timestamp{1, 3}, false},
		{GeoPoint{1, 2}, GeoPoint{1, 2}, true},
		{Reference{db, MustKey("a/b")}, Reference{db, MustKey("a/b")}, true},
		{Reference{db, MustKey("a/b")}, Reference{NewDatabaseID("p", ""), MustKey("a/b")}, false},
		{Array{Integer(1), nan}, Array{Integer(1), nan}, true},
		{Array{Integer(1)}, Array{Integer(1), Integer(1)}, false},
		{Map{"a": Array{}}, Map{"a": Array{}}, true},
		{Map{"a": Null{}}, Map{"b": Null{}}, false},
		{Map{}, nil, false},
	}
	for _, tt := range tests {
		if a := Equal(tt.a, tt.b); a != tt.e {
			t.Errorf("** Equal(%s, %s) = %v, wanted %v", Format(tt.a), Format(tt.b), a, tt.e)
		}
		if a := Equal(tt.b, tt.a); a != tt.e {
			t.Errorf("** Equal(%s, %s) = %v, wanted %v", Format(tt.b), Format(tt.a), a, tt.e)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		v Value
		e string
	}{
		{Null{}, "null"},
		{Integer(-3), "-3"},
		{Double(1), "1.0"},
		{Double(1.5), "1.5"},
		{Double(1e100), "1e+100"},
		{Double(math.Inf(-1)), "-Inf"},
		{Double(math.NaN()), "NaN"},
		{String("a\x00b"), `"a\x00b"`},
		{Blob{0xca, 0xfe}, "<cafe>"},
		{Array{Boolean(true), Map{"b": Integer(2), "a": Null{}}}, `[true, {"a": null, "b": 2}]`},
		{nil, "<invalid>"},
	}
	for _, tt := range tests {
		if a := Format(tt.v); a != tt.e {
			t.Errorf("** Format(%#v) = %q, wanted %q", tt.v, a, tt.e)
		}
	}
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		s    string
		segs []string
		ok   bool
	}{
		{"", nil, true},
		{"rooms", []string{"rooms"}, true},
		{"rooms/1/messages", []string{"rooms", "1", "messages"}, true},
		{"/rooms", nil, false},
		{"rooms/", nil, false},
		{"rooms//1", nil, false},
	}
	for _, tt := range tests {
		p, err := ParsePath(tt.s)
		if (err == nil) != tt.ok {
			t.Errorf("** ParsePath(%q) err = %v, wanted ok=%v", tt.s, err, tt.ok)
			continue
		}
		if tt.ok && !reflect.DeepEqual(p.Segments(), tt.segs) && !(len(tt.segs) == 0 && p.IsEmpty()) {
			t.Errorf("** ParsePath(%q) = %v, wanted %v", tt.s, p.Segments(), tt.segs)
		}
	}
}

func TestResourcePath(t *testing.T) {
	p := NewPath("rooms", "1", "messages")
	if a, e := p.Parent().String(), "rooms/1"; a != e {
		t.Fatalf("Parent = %q, wanted %q", a, e)
	}
	if a, e := p.LastSegment(), "messages"; a != e {
		t.Fatalf("LastSegment = %q, wanted %q", a, e)
	}
	if p.IsDocumentPath() {
		t.Fatalf("IsDocumentPath(%s) = true", p)
	}
	child := p.Append("m1")
	if !child.IsDocumentPath() || !child.HasPrefix(p) || p.HasPrefix(child) {
		t.Fatalf("Append/HasPrefix mismatch for %s", child)
	}
	if p.String() != "rooms/1/messages" {
		t.Fatalf("Append modified the receiver: %s", p)
	}
	if !NewPath().Parent().IsEmpty() {
		t.Fatalf("parent of root is not root")
	}
	if NewPath("a").Compare(NewPath("a", "b")) >= 0 {
		t.Fatalf("a >= a/b")
	}
}

func TestDocumentKey(t *testing.T) {
	k := MustKey("rooms/1/messages/m1")
	if a, e := k.ID(), "m1"; a != e {
		t.Fatalf("ID = %q, wanted %q", a, e)
	}
	if a, e := k.CollectionPath().String(), "rooms/1/messages"; a != e {
		t.Fatalf("CollectionPath = %q, wanted %q", a, e)
	}
	if _, err := ParseKey("rooms/1/messages"); err == nil {
		t.Fatalf("ParseKey accepted an odd path")
	}
	empty, err := ParseKey("")
	if err != nil || !empty.IsEmpty() {
		t.Fatalf("ParseKey(\"\") = %v, %v, wanted empty key", empty, err)
	}
}

func TestFieldPath_canonical(t *testing.T) {
	tests := []struct {
		segs []string
		e    string
	}{
		{[]string{"a"}, "a"},
		{[]string{"a", "b_1"}, "a.b_1"},
		{[]string{"__name__"}, "__name__"},
		{[]string{"1a"}, "`1a`"},
		{[]string{"a.b"}, "`a.b`"},
		{[]string{"a`b"}, "`a\\`b`"},
		{[]string{"a\\b"}, "`a\\\\b`"},
		{[]string{""}, "``"},
		{[]string{"é", "x y"}, "`é`.`x y`"},
	}
	for _, tt := range tests {
		f := NewFieldPath(tt.segs...)
		if a := f.CanonicalString(); a != tt.e {
			t.Errorf("** CanonicalString(%q) = %s, wanted %s", tt.segs, a, tt.e)
			continue
		}
		back, err := ParseFieldPath(tt.e)
		if err != nil {
			t.Errorf("** ParseFieldPath(%s): %v", tt.e, err)
			continue
		}
		if !back.Equal(f) {
			t.Errorf("** ParseFieldPath(%s) = %q, wanted %q", tt.e, back.Segments(), tt.segs)
		}
	}
}

func TestParseFieldPath_invalid(t *testing.T) {
	for _, s := range []string{"", "a.", ".a", "a..b", "`a", "`a\\"} {
		if f, err := ParseFieldPath(s); err == nil {
			t.Errorf("** ParseFieldPath(%q) = %q, wanted error", s, f.Segments())
		}
	}
}

func TestTimestamp_Validate(t *testing.T) {
	tests := []struct {
		ts Timestamp
		ok bool
	}{
		{Timestamp{}, true},
		{MinTimestamp, true},
		{MaxTimestamp, true},
		{Timestamp{MinTimestamp.Seconds - 1, 999999999}, false},
		{Timestamp{MaxTimestamp.Seconds + 1, 0}, false},
		{Timestamp{0, -1}, false},
		{Timestamp{0, 1e9}, false},
	}
	for _, tt := range tests {
		if err := tt.ts.Validate(); (err == nil) != tt.ok {
			t.Errorf("** %v.Validate() = %v, wanted ok=%v", tt.ts, err, tt.ok)
		}
	}
	if a, e := MinTimestamp.Time(), time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC); !a.Equal(e) {
		t.Errorf("** MinTimestamp = %v, wanted %v", a, e)
	}
	if a, e := MaxTimestamp.Time(), time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC); !a.Equal(e) {
		t.Errorf("** MaxTimestamp = %v, wanted %v", a, e)
	}
	ts := Timestamp{1500000000, 123}
	if a := TimestampFromTime(ts.Time()); a != ts {
		t.Errorf("** TimestampFromTime round trip = %v, wanted %v", a, ts)
	}
}

func TestObjectValue_Get(t *testing.T) {
	o := ObjectFromMap(Map{
		"a": Map{"b": Integer(1)},
		"c": Array{Integer(2)},
	})
	if v, ok := o.Get(Field("a.b")); !ok || !Equal(v, Integer(1)) {
		t.Fatalf("Get(a.b) = %v, %v", v, ok)
	}
	if _, ok := o.Get(Field("c.0")); ok {
		t.Fatalf("Get(c.0) found a value inside an array")
	}
	if _, ok := o.Get(Field("x")); ok {
		t.Fatalf("Get(x) found a value")
	}
	if EmptyObject().Fields() == nil {
		t.Fatalf("EmptyObject().Fields() = nil")
	}
}

func TestQuery_OrderBy(t *testing.T) {
	key := func(dir string) OrderBy { return OrderBy{KeyFieldPath, map[string]Direction{"asc": Ascending, "desc": Descending}[dir]} }
	tests := []struct {
		name string
		q    Query
		e    []OrderBy
	}{
		{"default", MustQuery("rooms"), []OrderBy{key("asc")}},
		{"inequality", MustQuery("rooms").AddingFilter(NewFilter("prop", "<", Integer(42))),
			[]OrderBy{NewOrderBy("prop", "asc"), key("asc")}},
		{"equality only", MustQuery("rooms").AddingFilter(NewFilter("prop", "==", Integer(42))),
			[]OrderBy{key("asc")}},
		{"inequality on key", MustQuery("rooms").AddingFilter(NewFilter("__name__", ">", Reference{})),
			[]OrderBy{key("asc")}},
		{"explicit desc", MustQuery("rooms").AddingOrderBy(NewOrderBy("prop", "desc")),
			[]OrderBy{NewOrderBy("prop", "desc"), key("desc")}},
		{"explicit key", MustQuery("rooms").AddingOrderBy(NewOrderBy("a", "asc")).AddingOrderBy(NewOrderBy("__name__", "desc")),
			[]OrderBy{NewOrderBy("a", "asc"), key("desc")}},
		{"explicit overrides inequality", MustQuery("rooms").AddingFilter(NewFilter("prop", ">=", Integer(1))).AddingOrderBy(NewOrderBy("other", "asc")),
			[]OrderBy{NewOrderBy("other", "asc"), key("asc")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := tt.q.OrderBy()
			if len(a) != len(tt.e) {
				t.Fatalf("OrderBy = %v, wanted %v", a, tt.e)
			}
			for i := range a {
				if !a[i].Equal(tt.e[i]) {
					t.Fatalf("OrderBy = %v, wanted %v", a, tt.e)
				}
			}
		})
	}
}

func TestQuery_Equal(t *testing.T) {
	base := MustQuery("rooms").AddingFilter(NewFilter("prop", "<", Integer(42)))
	same := base.AddingOrderBy(NewOrderBy("prop", "asc"))
	if !base.Equal(same) {
		t.Fatalf("%v != %v", base, same)
	}
	if base.Equal(base.WithLimit(10)) {
		t.Fatalf("limit ignored by Equal")
	}
	if base.Equal(base.StartingAt(Bound{Position: []Value{Integer(1)}})) {
		t.Fatalf("bound ignored by Equal")
	}
	b1 := base.EndingAt(Bound{Position: []Value{Double(math.NaN())}, Before: true})
	b2 := base.EndingAt(Bound{Position: []Value{Double(math.NaN())}, Before: true})
	if !b1.Equal(b2) {
		t.Fatalf("%v != %v", b1, b2)
	}
	extended := base.AddingFilter(NewFilter("x", "==", Null{}))
	if len(base.Filters) != 1 || len(extended.Filters) != 2 {
		t.Fatalf("AddingFilter shares storage: %d, %d", len(base.Filters), len(extended.Filters))
	}
}

func TestQuery_String(t *testing.T) {
	q := MustQuery("rooms").AddingFilter(NewFilter("a", "<", Integer(1))).WithLimit(5)
	s := q.String()
	for _, sub := range []string{"rooms", "where a < 1", "order a asc", "order __name__ asc", "limit 5"} {
		if !strings.Contains(s, sub) {
			t.Errorf("** String() = %q, missing %q", s, sub)
		}
	}
}

func TestIsDocumentQuery(t *testing.T) {
	if !MustQuery("rooms/1").IsDocumentQuery() {
		t.Fatalf("rooms/1 is not a document query")
	}
	if MustQuery("rooms").IsDocumentQuery() {
		t.Fatalf("rooms is a document query")
	}
	if MustQuery("rooms/1").WithLimit(1).IsDocumentQuery() {
		t.Fatalf("limited rooms/1 is a document query")
	}
}

func TestEqualDocuments(t *testing.T) {
	k := MustKey("a/b")
	v := SnapshotVersion{Seconds: 5}
	data := ObjectFromMap(Map{"x": Integer(1)})
	tests := []struct {
		a, b MaybeDocument
		e    bool
	}{
		{NewDocument(k, data, v), NewDocument(k, ObjectFromMap(Map{"x": Integer(1)}), v), true},
		{NewDocument(k, data, v), NewDocument(k, EmptyObject(), v), false},
		{NewDocument(k, data, v), NewNoDocument(k, v), false},
		{NewNoDocument(k, v), NewNoDocument(k, NoVersion), false},
		{NewNoDocument(k, v), NewUnknownDocument(k, v), false},
		{NewUnknownDocument(k, v), NewUnknownDocument(k, v), true},
		{NewNoDocument(k, v), NewNoDocument(MustKey("a/c"), v), false},
	}
	for _, tt := range tests {
		if a := EqualDocuments(tt.a, tt.b); a != tt.e {
			t.Errorf("** EqualDocuments(%v, %v) = %v, wanted %v", tt.a, tt.b, a, tt.e)
		}
	}
}

func TestEqualMutations(t *testing.T) {
	k := MustKey("a/b")
	data := ObjectFromMap(Map{"x": Integer(1)})
	mask := FieldMask{[]FieldPath{Field("x")}}
	tests := []struct {
		a, b Mutation
		e    bool
	}{
		{NewSetMutation(k, data, NoPrecondition()), NewSetMutation(k, data, NoPrecondition()), true},
		{NewSetMutation(k, data, NoPrecondition()), NewSetMutation(k, data, ExistsPrecondition(true)), false},
		{NewSetMutation(k, data, NoPrecondition()), NewPatchMutation(k, data, mask, NoPrecondition()), false},
		{NewPatchMutation(k, data, mask, NoPrecondition()), NewPatchMutation(k, data, FieldMask{}, NoPrecondition()), false},
		{NewDeleteMutation(k, UpdateTimePrecondition(SnapshotVersion{Seconds: 1})), NewDeleteMutation(k, UpdateTimePrecondition(SnapshotVersion{Seconds: 1})), true},
		{NewDeleteMutation(k, NoPrecondition()), NewVerifyMutation(k, NoPrecondition()), false},
	}
	for _, tt := range tests {
		if a := EqualMutations(tt.a, tt.b); a != tt.e {
			t.Errorf("** EqualMutations(%v, %v) = %v, wanted %v", tt.a, tt.b, a, tt.e)
		}
	}
}
