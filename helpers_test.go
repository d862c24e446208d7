package docwire

import (
	"errors"
	"reflect"
	"testing"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
	"github.com/andreyvit/docwire/wiretest"
)

var (
	testDB  = model.NewDatabaseID("p", "d")
	bytesEq = wiretest.BytesEq
)

func setup(t testing.TB) *Serializer {
	return New(testDB, Options{
		Logger:  wiretest.Logger(t),
		Verbose: true,
	})
}

// protoBytes marshals m the way a conformant producer would.
func protoBytes(t testing.TB, m proto.Message) []byte {
	t.Helper()
	b, err := proto.MarshalOptions{Deterministic: true}.Marshal(m)
	if err != nil {
		t.Fatalf("proto.Marshal(%T): %v", m, err)
	}
	return b
}

// protoParse decodes data with the conformant parser into a fresh message
// of the same type as e and compares the result against e.
func protoParse(t testing.TB, data []byte, e proto.Message) bool {
	t.Helper()
	a := e.ProtoReflect().New().Interface()
	if err := proto.Unmarshal(data, a); err != nil {
		t.Errorf("** proto.Unmarshal(%T): %v\n%s", e, err, wiretest.HexDump(data, -1))
		return false
	}
	if !proto.Equal(a, e) {
		t.Errorf("** got:\n%s\nwanted:\n%s", prototext.Format(a), prototext.Format(e))
		return false
	}
	return true
}

func ts(seconds int64, nanos int32) *timestamppb.Timestamp {
	return &timestamppb.Timestamp{Seconds: seconds, Nanos: nanos}
}

func isDataLoss(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatalf("** got no error, wanted data loss")
	}
	if !IsDataLoss(err) {
		t.Fatalf("** got %v, wanted data loss", err)
	}
	var de *wire.DataError
	if !errors.As(err, &de) {
		t.Fatalf("** got %T, wanted *wire.DataError", err)
	}
}

func deepEqual[T any](t testing.TB, a, e T) {
	if !reflect.DeepEqual(a, e) {
		t.Helper()
		t.Errorf("** got %v, wanted %v", a, e)
	}
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
