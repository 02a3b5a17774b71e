package serialization

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SerializationWriter writes models and scalars into a content-type specific payload.
// Properties written with a nil value are omitted; use WriteNullValue for an explicit null.
type SerializationWriter interface {
	WriteStringValue(key string, value *string) error
	WriteBoolValue(key string, value *bool) error
	WriteInt32Value(key string, value *int32) error
	WriteInt64Value(key string, value *int64) error
	WriteFloat64Value(key string, value *float64) error
	WriteDecimalValue(key string, value *decimal.Decimal) error
	WriteUUIDValue(key string, value *uuid.UUID) error
	WriteTimeValue(key string, value *time.Time) error
	WriteDateOnlyValue(key string, value *DateOnly) error
	WriteTimeOnlyValue(key string, value *TimeOnly) error
	WriteISODurationValue(key string, value *ISODuration) error
	WriteByteArrayValue(key string, value []byte) error
	WriteObjectValue(key string, item Parsable, additionalValuesToMerge ...Parsable) error
	WriteCollectionOfObjectValues(key string, collection []Parsable) error
	WriteCollectionOfStringValues(key string, collection []string) error
	WriteAnyValue(key string, value any) error
	WriteNullValue(key string) error
	WriteAdditionalData(value map[string]any) error
	GetSerializedContent() ([]byte, error)
	Close() error

	GetOnBeforeSerialization() ParsableAction
	SetOnBeforeSerialization(action ParsableAction) error
	GetOnAfterObjectSerialization() ParsableAction
	SetOnAfterObjectSerialization(action ParsableAction) error
	GetOnStartObjectSerialization() ParsableWriter
	SetOnStartObjectSerialization(action ParsableWriter) error
}

// SerializationWriterFactory builds writers for one content type.
type SerializationWriterFactory interface {
	GetValidContentType() (string, error)
	GetSerializationWriter(contentType string) (SerializationWriter, error)
}
