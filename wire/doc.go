// Package wire is the byte cursor of the codec: a Reader and a Writer for the
// protobuf wire format, each carrying a terminal error state so that a whole
// sequence of primitive operations can be checked once at the end.
package wire
