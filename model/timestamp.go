package model

import (
	"fmt"
	"time"
)

// Timestamp is a point in time with nanosecond precision, restricted to
// years 0001 through 9999 UTC.
type Timestamp struct {
	Seconds int64
	Nanos   int32
}

var (
	// MinTimestamp is 0001-01-01T00:00:00Z.
	MinTimestamp = Timestamp{Seconds: -62135596800, Nanos: 0}

	// MaxTimestamp is 9999-12-31T23:59:59.999999999Z.
	MaxTimestamp = Timestamp{Seconds: 253402300799, Nanos: 999999999}
)

func TimestampFromTime(t time.Time) Timestamp {
	return Timestamp{Seconds: t.Unix(), Nanos: int32(t.Nanosecond())}
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(ts.Seconds, int64(ts.Nanos)).UTC()
}

// Validate reports why ts is outside the representable range, or nil.
func (ts Timestamp) Validate() error {
	if ts.Nanos < 0 || ts.Nanos >= 1e9 {
		return fmt.Errorf("timestamp nanos %d out of range [0, 1e9)", ts.Nanos)
	}
	if ts.Seconds < MinTimestamp.Seconds {
		return fmt.Errorf("timestamp seconds %d before %d", ts.Seconds, MinTimestamp.Seconds)
	}
	if ts.Seconds > MaxTimestamp.Seconds {
		return fmt.Errorf("timestamp seconds %d after %d", ts.Seconds, MaxTimestamp.Seconds)
	}
	return nil
}

func (ts Timestamp) Compare(another Timestamp) int {
	switch {
	case ts.Seconds < another.Seconds:
		return -1
	case ts.Seconds > another.Seconds:
		return 1
	case ts.Nanos < another.Nanos:
		return -1
	case ts.Nanos > another.Nanos:
		return 1
	default:
		return 0
	}
}

func (ts Timestamp) IsZero() bool {
	return ts.Seconds == 0 && ts.Nanos == 0
}

func (ts Timestamp) String() string {
	return fmt.Sprintf("Timestamp(%d, %d)", ts.Seconds, ts.Nanos)
}

// SnapshotVersion is the version of a document or of a consistent snapshot
// of the database, as reported by the backend.
type SnapshotVersion Timestamp

// NoVersion is the version of something the backend has never reported on.
var NoVersion = SnapshotVersion{}

func (v SnapshotVersion) Timestamp() Timestamp {
	return Timestamp(v)
}

func (v SnapshotVersion) IsNone() bool {
	return Timestamp(v).IsZero()
}

func (v SnapshotVersion) String() string {
	return fmt.Sprintf("Version(%d, %d)", v.Seconds, v.Nanos)
}
