package serialization

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ParseNode is one node of a deserialized payload tree.
// Scalar getters return nil when the node holds an explicit null.
type ParseNode interface {
	GetChildNode(index string) (ParseNode, error)
	GetObjectValue(ctor ParsableFactory) (Parsable, error)
	GetCollectionOfObjectValues(ctor ParsableFactory) ([]Parsable, error)
	GetCollectionOfPrimitiveValues(kind PrimitiveKind) ([]any, error)
	GetCollectionOfEnumValues(parser EnumFactory) ([]any, error)
	GetEnumValue(parser EnumFactory) (any, error)

	GetStringValue() (*string, error)
	GetBoolValue() (*bool, error)
	GetInt8Value() (*int8, error)
	GetInt16Value() (*int16, error)
	GetInt32Value() (*int32, error)
	GetInt64Value() (*int64, error)
	GetFloat32Value() (*float32, error)
	GetFloat64Value() (*float64, error)
	GetDecimalValue() (*decimal.Decimal, error)
	GetUUIDValue() (*uuid.UUID, error)
	GetTimeValue() (*time.Time, error)
	GetDateOnlyValue() (*DateOnly, error)
	GetTimeOnlyValue() (*TimeOnly, error)
	GetISODurationValue() (*ISODuration, error)
	GetByteArrayValue() ([]byte, error)
	GetRawValue() (any, error)

	GetOnBeforeAssignFieldValues() ParsableAction
	SetOnBeforeAssignFieldValues(action ParsableAction) error
	GetOnAfterAssignFieldValues() ParsableAction
	SetOnAfterAssignFieldValues(action ParsableAction) error
}

// ParseNodeFactory builds parse-node trees for one content type.
type ParseNodeFactory interface {
	GetValidContentType() (string, error)
	GetRootParseNode(contentType string, content []byte) (ParseNode, error)
}
