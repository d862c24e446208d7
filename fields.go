package docwire

import "google.golang.org/protobuf/encoding/protowire"

// Field numbers of the google.firestore.v1 messages this package speaks.

// Value
const (
	fieldValueBoolean   protowire.Number = 1
	fieldValueInteger   protowire.Number = 2
	fieldValueDouble    protowire.Number = 3
	fieldValueReference protowire.Number = 5
	fieldValueMap       protowire.Number = 6
	fieldValueGeoPoint  protowire.Number = 8
	fieldValueArray     protowire.Number = 9
	fieldValueTimestamp protowire.Number = 10
	fieldValueNull      protowire.Number = 11
	fieldValueString    protowire.Number = 17
	fieldValueBytes     protowire.Number = 18
)

// ArrayValue, MapValue and map entries
const (
	fieldArrayValues protowire.Number = 1
	fieldMapFields   protowire.Number = 1
	fieldEntryKey    protowire.Number = 1
	fieldEntryValue  protowire.Number = 2
)

// google.protobuf.Timestamp, google.type.LatLng, google.protobuf.Int32Value
const (
	fieldTimestampSeconds protowire.Number = 1
	fieldTimestampNanos   protowire.Number = 2
	fieldLatLngLatitude   protowire.Number = 1
	fieldLatLngLongitude  protowire.Number = 2
	fieldInt32Value       protowire.Number = 1
)

// Document
const (
	fieldDocumentName       protowire.Number = 1
	fieldDocumentFields     protowire.Number = 2
	fieldDocumentCreateTime protowire.Number = 3
	fieldDocumentUpdateTime protowire.Number = 4
)

// BatchGetDocumentsResponse
const (
	fieldBatchGetFound       protowire.Number = 1
	fieldBatchGetMissing     protowire.Number = 2
	fieldBatchGetTransaction protowire.Number = 3
	fieldBatchGetReadTime    protowire.Number = 4
)

// Write, DocumentMask, Precondition
const (
	fieldWriteUpdate          protowire.Number = 1
	fieldWriteDelete          protowire.Number = 2
	fieldWriteUpdateMask      protowire.Number = 3
	fieldWriteCurrentDocument protowire.Number = 4
	fieldWriteVerify          protowire.Number = 5

	fieldMaskFieldPaths protowire.Number = 1

	fieldPreconditionExists     protowire.Number = 1
	fieldPreconditionUpdateTime protowire.Number = 2
)

// Target, QueryTarget, DocumentsTarget
const (
	fieldTargetQuery       protowire.Number = 2
	fieldTargetDocuments   protowire.Number = 3
	fieldTargetResumeToken protowire.Number = 4
	fieldTargetTargetID    protowire.Number = 5
	fieldTargetReadTime    protowire.Number = 11

	fieldQueryTargetParent          protowire.Number = 1
	fieldQueryTargetStructuredQuery protowire.Number = 2

	fieldDocumentsTargetDocuments protowire.Number = 2
)

// StructuredQuery and its nested messages
const (
	fieldQueryFrom    protowire.Number = 2
	fieldQueryWhere   protowire.Number = 3
	fieldQueryOrderBy protowire.Number = 4
	fieldQueryLimit   protowire.Number = 5
	fieldQueryStartAt protowire.Number = 7
	fieldQueryEndAt   protowire.Number = 8

	fieldSelectorCollectionID   protowire.Number = 2
	fieldSelectorAllDescendants protowire.Number = 3

	fieldFilterComposite protowire.Number = 1
	fieldFilterField     protowire.Number = 2
	fieldFilterUnary     protowire.Number = 3

	fieldCompositeOp      protowire.Number = 1
	fieldCompositeFilters protowire.Number = 2

	fieldFieldFilterField protowire.Number = 1
	fieldFieldFilterOp    protowire.Number = 2
	fieldFieldFilterValue protowire.Number = 3

	fieldUnaryFilterOp    protowire.Number = 1
	fieldUnaryFilterField protowire.Number = 2

	fieldReferencePath protowire.Number = 2

	fieldOrderField     protowire.Number = 1
	fieldOrderDirection protowire.Number = 2

	fieldCursorValues protowire.Number = 1
	fieldCursorBefore protowire.Number = 2
)

// Enum values
const (
	compositeOpAnd = 1

	directionAscending  = 1
	directionDescending = 2

	unaryIsNaN     = 2
	unaryIsNull    = 3
	unaryIsNotNaN  = 4
	unaryIsNotNull = 5

	nullValue = 0
)
