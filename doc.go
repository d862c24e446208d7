/*
Package docwire converts a document database's client-side model (values,
documents, mutations, queries) to and from the protobuf messages of the
google.firestore.v1 API, without a generated protobuf runtime.

We implement:

1. Resource names: document keys as projects/{p}/databases/{d}/documents/...

2. Values: the eleven value kinds of the model package.

3. Documents: Document messages and BatchGetDocumentsResponse answers.

4. Mutations: Write messages for set, patch, delete and verify.

5. Targets: listen targets for single documents and structured queries.

# Technical Details

**Encoding** goes through a wire.Writer and never fails for well-formed model
values. A nil Value, an unknown operator or nesting beyond the depth limit puts
the writer into its error state, and the Encode* functions return an error
wrapping ErrInvalidModel.

**Decoding** goes through a wire.Reader. The first problem with the input
(truncation, wrong wire type, missing required field, out-of-range timestamp,
foreign resource name) is recorded on the reader as a *wire.DataError and every
later read is a no-op. Use IsDataLoss to recognize these errors.

**Leniency.**
Unknown field numbers are skipped. When a oneof has several fields set, the
last one wins. Booleans decode any non-zero varint as true. Unknown enum values
(filter operators, directions, null discriminants) are data loss.

**Determinism.**
Each message type writes its fields in a fixed order and map fields in sorted
key order, so equal model values always produce identical bytes.

**Ordering.**
Every encoded query carries a trailing __name__ ordering in the direction of
the last explicit ordering. Decoding strips it again, so a decoded query equals
the query that was encoded.
*/
package docwire
