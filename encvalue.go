package docwire

import (
	"bytes"
	"math"

	"github.com/andreyvit/docwire/model"
	"github.com/andreyvit/docwire/wire"
	"google.golang.org/protobuf/encoding/protowire"
)

func (s *Serializer) EncodeValue(v model.Value) ([]byte, error) {
	return s.encode("value", func(w *wire.Writer) {
		s.WriteValue(w, v)
	})
}

func (s *Serializer) DecodeValue(data []byte) (model.Value, error) {
	return decode(s, "value", data, s.ReadValue)
}

// WriteValue writes the fields of a Value message. Exactly one oneof field is
// emitted, even when it holds the zero value of its type.
func (s *Serializer) WriteValue(w *wire.Writer, v model.Value) {
	switch v := v.(type) {
	case nil:
		w.Failf("nil value")
	case model.Null:
		w.WriteVarint(fieldValueNull, nullValue)
	case model.Boolean:
		w.WriteBool(fieldValueBoolean, bool(v))
	case model.Integer:
		w.WriteInt64(fieldValueInteger, int64(v))
	case model.Double:
		w.WriteDouble(fieldValueDouble, float64(v))
	case model.Timestamp:
		w.WriteMessage(fieldValueTimestamp, func(w *wire.Writer) {
			writeTimestamp(w, v)
		})
	case model.String:
		w.WriteString(fieldValueString, string(v))
	case model.Blob:
		w.WriteBytes(fieldValueBytes, v)
	case model.Reference:
		if v.Key.IsEmpty() {
			w.Failf("reference without a document key")
			return
		}
		if v.Database.ProjectID == "" || v.Database.DatabaseID == "" {
			w.Failf("reference to %s without a database", v.Key)
			return
		}
		w.WriteString(fieldValueReference, EncodeResourceName(v.Database, v.Key.Path()))
	case model.GeoPoint:
		w.WriteMessage(fieldValueGeoPoint, func(w *wire.Writer) {
			writeNonZeroDouble(w, fieldLatLngLatitude, v.Latitude)
			writeNonZeroDouble(w, fieldLatLngLongitude, v.Longitude)
		})
	case model.Array:
		w.WriteMessage(fieldValueArray, func(w *wire.Writer) {
			for _, el := range v {
				w.WriteMessage(fieldArrayValues, func(w *wire.Writer) {
					s.WriteValue(w, el)
				})
			}
		})
	case model.Map:
		w.WriteMessage(fieldValueMap, func(w *wire.Writer) {
			s.writeFields(w, fieldMapFields, v)
		})
	default:
		w.Failf("unsupported value type %T", v)
	}
}

// writeFields writes m as a protobuf map<string, Value> under num, with keys
// in sorted order so that the output is deterministic.
func (s *Serializer) writeFields(w *wire.Writer, num protowire.Number, m model.Map) {
	for _, k := range m.SortedKeys() {
		v := m[k]
		w.WriteMessage(num, func(w *wire.Writer) {
			w.WriteString(fieldEntryKey, k)
			w.WriteMessage(fieldEntryValue, func(w *wire.Writer) {
				s.WriteValue(w, v)
			})
		})
	}
}

func writeNonZeroDouble(w *wire.Writer, num protowire.Number, v float64) {
	if math.Float64bits(v) != 0 {
		w.WriteDouble(num, v)
	}
}

func writeTimestamp(w *wire.Writer, ts model.Timestamp) {
	if err := ts.Validate(); err != nil {
		w.Failf("%v", err)
		return
	}
	if ts.Seconds != 0 {
		w.WriteInt64(fieldTimestampSeconds, ts.Seconds)
	}
	if ts.Nanos != 0 {
		w.WriteInt32(fieldTimestampNanos, ts.Nanos)
	}
}

func writeVersion(w *wire.Writer, num protowire.Number, v model.SnapshotVersion) {
	w.WriteMessage(num, func(w *wire.Writer) {
		writeTimestamp(w, v.Timestamp())
	})
}

// ReadValue reads the fields of a Value message up to the end of r. When
// several oneof fields are present the last one wins; unknown fields are
// skipped. A message with no known field is data loss. On failure the result
// is nil and the error is recorded on r.
func (s *Serializer) ReadValue(r *wire.Reader) model.Value {
	var result model.Value
	for r.More() {
		switch r.ReadTag() {
		case fieldValueNull:
			if n := r.ReadVarint(); n != nullValue {
				r.Failf("invalid null value %d", n)
			}
			result = model.Null{}
		case fieldValueBoolean:
			result = model.Boolean(r.ReadBool())
		case fieldValueInteger:
			result = model.Integer(r.ReadInt64())
		case fieldValueDouble:
			result = model.Double(r.ReadDouble())
		case fieldValueTimestamp:
			result = readTimestampMessage(r)
		case fieldValueString:
			result = model.String(r.ReadString())
		case fieldValueBytes:
			result = model.Blob(bytes.Clone(r.ReadBytes()))
		case fieldValueReference:
			result = s.decodeReference(r, r.ReadString())
		case fieldValueGeoPoint:
			var geo model.GeoPoint
			r.ReadMessage(func(m *wire.Reader) {
				for m.More() {
					switch m.ReadTag() {
					case fieldLatLngLatitude:
						geo.Latitude = m.ReadDouble()
					case fieldLatLngLongitude:
						geo.Longitude = m.ReadDouble()
					default:
						m.Skip()
					}
				}
			})
			result = geo
		case fieldValueArray:
			arr := model.Array{}
			r.ReadMessage(func(m *wire.Reader) {
				for m.More() {
					if m.ReadTag() == fieldArrayValues {
						if el := s.readValueMessage(m); el != nil {
							arr = append(arr, el)
						}
					} else {
						m.Skip()
					}
				}
			})
			result = arr
		case fieldValueMap:
			mv := model.Map{}
			r.ReadMessage(func(m *wire.Reader) {
				for m.More() {
					if m.ReadTag() == fieldMapFields {
						s.readFieldEntry(m, mv)
					} else {
						m.Skip()
					}
				}
			})
			result = mv
		default:
			r.Skip()
		}
	}
	if !r.OK() {
		return nil
	}
	if result == nil {
		r.Failf("value message has no value field set")
	}
	return result
}

// readValueMessage reads a length-delimited Value field.
func (s *Serializer) readValueMessage(r *wire.Reader) model.Value {
	var v model.Value
	r.ReadMessage(func(m *wire.Reader) {
		v = s.ReadValue(m)
	})
	return v
}

// readFieldEntry reads one map<string, Value> entry into into. An entry
// without a value is data loss; a missing key is the empty string.
func (s *Serializer) readFieldEntry(r *wire.Reader, into model.Map) {
	r.ReadMessage(func(m *wire.Reader) {
		var key string
		var val model.Value
		for m.More() {
			switch m.ReadTag() {
			case fieldEntryKey:
				key = m.ReadString()
			case fieldEntryValue:
				val = s.readValueMessage(m)
			default:
				m.Skip()
			}
		}
		if !m.OK() {
			return
		}
		if val == nil {
			m.Failf("map entry %q has no value", key)
			return
		}
		into[key] = val
	})
}

func readTimestampMessage(r *wire.Reader) model.Timestamp {
	var ts model.Timestamp
	r.ReadMessage(func(m *wire.Reader) {
		for m.More() {
			switch m.ReadTag() {
			case fieldTimestampSeconds:
				ts.Seconds = m.ReadInt64()
			case fieldTimestampNanos:
				ts.Nanos = m.ReadInt32()
			default:
				m.Skip()
			}
		}
		if !m.OK() {
			return
		}
		if err := ts.Validate(); err != nil {
			m.Failf("%v", err)
		}
	})
	return ts
}

func readVersion(r *wire.Reader) model.SnapshotVersion {
	return model.SnapshotVersion(readTimestampMessage(r))
}
