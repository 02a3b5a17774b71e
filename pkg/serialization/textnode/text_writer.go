package textnode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

var (
	errKeyedValue     = errors.New("text does not support keyed values")
	errSecondValue    = errors.New("a value was already written for this text payload")
	errTextStructured = errors.New("text does not support objects or collections")
)

// TextSerializationWriter writes a single unkeyed scalar.
type TextSerializationWriter struct {
	value    *string
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
	onStart  serialization.ParsableWriter
}

// NewTextSerializationWriter returns an empty writer.
func NewTextSerializationWriter() *TextSerializationWriter {
	return &TextSerializationWriter{}
}

func (w *TextSerializationWriter) write(key, value string) error {
	if key != "" {
		return errKeyedValue
	}
	if w.value != nil {
		return errSecondValue
	}
	w.value = &value
	return nil
}

func (w *TextSerializationWriter) WriteStringValue(key string, value *string) error {
	if value == nil {
		return nil
	}
	return w.write(key, *value)
}

func (w *TextSerializationWriter) WriteBoolValue(key string, value *bool) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatBool(*value))
}

func (w *TextSerializationWriter) WriteInt32Value(key string, value *int32) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatInt(int64(*value), 10))
}

func (w *TextSerializationWriter) WriteInt64Value(key string, value *int64) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatInt(*value, 10))
}

func (w *TextSerializationWriter) WriteFloat64Value(key string, value *float64) error {
	if value == nil {
		return nil
	}
	return w.write(key, strconv.FormatFloat(*value, 'g', -1, 64))
}

func (w *TextSerializationWriter) WriteDecimalValue(key string, value *decimal.Decimal) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.String())
}

func (w *TextSerializationWriter) WriteUUIDValue(key string, value *uuid.UUID) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.String())
}

func (w *TextSerializationWriter) WriteTimeValue(key string, value *time.Time) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.Format(time.RFC3339Nano))
}

func (w *TextSerializationWriter) WriteDateOnlyValue(key string, value *serialization.DateOnly) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.String())
}

func (w *TextSerializationWriter) WriteTimeOnlyValue(key string, value *serialization.TimeOnly) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.String())
}

func (w *TextSerializationWriter) WriteISODurationValue(key string, value *serialization.ISODuration) error {
	if value == nil {
		return nil
	}
	return w.write(key, value.String())
}

func (w *TextSerializationWriter) WriteByteArrayValue(key string, value []byte) error {
	if value == nil {
		return nil
	}
	return w.write(key, base64.StdEncoding.EncodeToString(value))
}

func (w *TextSerializationWriter) WriteNullValue(key string) error {
	return w.write(key, "null")
}

func (w *TextSerializationWriter) WriteObjectValue(string, serialization.Parsable, ...serialization.Parsable) error {
	return errTextStructured
}

func (w *TextSerializationWriter) WriteCollectionOfObjectValues(string, []serialization.Parsable) error {
	return errTextStructured
}

func (w *TextSerializationWriter) WriteCollectionOfStringValues(string, []string) error {
	return errTextStructured
}

func (w *TextSerializationWriter) WriteAdditionalData(value map[string]any) error {
	if len(value) == 0 {
		return nil
	}
	return errTextStructured
}

func (w *TextSerializationWriter) WriteAnyValue(key string, value any) error {
	switch v := value.(type) {
	case nil:
		return w.WriteNullValue(key)
	case string:
		return w.write(key, v)
	case time.Time:
		return w.WriteTimeValue(key, &v)
	case fmt.Stringer:
		return w.write(key, v.String())
	case bool, int, int8, int16, int32, int64, uint8, uint16, uint32, uint64, float32, float64:
		return w.write(key, fmt.Sprint(v))
	case []byte:
		return w.WriteByteArrayValue(key, v)
	}
	return fmt.Errorf("%w: %T", errTextStructured, value)
}

// GetSerializedContent returns the written scalar, or an empty payload.
func (w *TextSerializationWriter) GetSerializedContent() ([]byte, error) {
	if w.value == nil {
		return []byte{}, nil
	}
	return []byte(*w.value), nil
}

func (w *TextSerializationWriter) Close() error {
	w.value = nil
	return nil
}

func (w *TextSerializationWriter) GetOnBeforeSerialization() serialization.ParsableAction {
	return w.onBefore
}

func (w *TextSerializationWriter) SetOnBeforeSerialization(action serialization.ParsableAction) error {
	w.onBefore = action
	return nil
}

func (w *TextSerializationWriter) GetOnAfterObjectSerialization() serialization.ParsableAction {
	return w.onAfter
}

func (w *TextSerializationWriter) SetOnAfterObjectSerialization(action serialization.ParsableAction) error {
	w.onAfter = action
	return nil
}

func (w *TextSerializationWriter) GetOnStartObjectSerialization() serialization.ParsableWriter {
	return w.onStart
}

func (w *TextSerializationWriter) SetOnStartObjectSerialization(action serialization.ParsableWriter) error {
	w.onStart = action
	return nil
}

// TextSerializationWriterFactory builds text writers.
type TextSerializationWriterFactory struct{}

func NewTextSerializationWriterFactory() *TextSerializationWriterFactory {
	return &TextSerializationWriterFactory{}
}

func (f *TextSerializationWriterFactory) GetValidContentType() (string, error) {
	return ContentType, nil
}

func (f *TextSerializationWriterFactory) GetSerializationWriter(contentType string) (serialization.SerializationWriter, error) {
	if ct := serialization.CleanContentType(contentType); ct != ContentType {
		return nil, fmt.Errorf("expected content type %s, got %s", ContentType, ct)
	}
	return NewTextSerializationWriter(), nil
}
