package jsonnode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

// JsonSerializationWriter streams JSON into a buffer. Every value is followed by a comma which
// is trimmed when the enclosing object or array closes.
type JsonSerializationWriter struct {
	buf      bytes.Buffer
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
	onStart  serialization.ParsableWriter
}

// NewJsonSerializationWriter returns an empty writer.
func NewJsonSerializationWriter() *JsonSerializationWriter {
	return &JsonSerializationWriter{}
}

func (w *JsonSerializationWriter) writeKey(key string) {
	if key == "" {
		return
	}
	w.writeQuoted(key)
	w.buf.WriteByte(':')
}

func (w *JsonSerializationWriter) writeQuoted(s string) {
	encoded, _ := json.Marshal(s)
	w.buf.Write(encoded)
}

func (w *JsonSerializationWriter) writeSeparator() { w.buf.WriteByte(',') }

func (w *JsonSerializationWriter) trimSeparator() {
	if b := w.buf.Bytes(); len(b) > 0 && b[len(b)-1] == ',' {
		w.buf.Truncate(len(b) - 1)
	}
}

func (w *JsonSerializationWriter) writeRaw(key, raw string) error {
	w.writeKey(key)
	w.buf.WriteString(raw)
	w.writeSeparator()
	return nil
}

func (w *JsonSerializationWriter) writeString(key, s string) error {
	w.writeKey(key)
	w.writeQuoted(s)
	w.writeSeparator()
	return nil
}

func (w *JsonSerializationWriter) WriteStringValue(key string, value *string) error {
	if value == nil {
		return nil
	}
	return w.writeString(key, *value)
}

func (w *JsonSerializationWriter) WriteBoolValue(key string, value *bool) error {
	if value == nil {
		return nil
	}
	return w.writeRaw(key, fmt.Sprintf("%t", *value))
}

func (w *JsonSerializationWriter) WriteInt32Value(key string, value *int32) error {
	if value == nil {
		return nil
	}
	return w.writeRaw(key, fmt.Sprintf("%d", *value))
}

func (w *JsonSerializationWriter) WriteInt64Value(key string, value *int64) error {
	if value == nil {
		return nil
	}
	return w.writeRaw(key, fmt.Sprintf("%d", *value))
}

func (w *JsonSerializationWriter) WriteFloat64Value(key string, value *float64) error {
	if value == nil {
		return nil
	}
	encoded, err := json.Marshal(*value)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	return w.writeRaw(key, string(encoded))
}

func (w *JsonSerializationWriter) WriteDecimalValue(key string, value *decimal.Decimal) error {
	if value == nil {
		return nil
	}
	return w.writeRaw(key, value.String())
}

func (w *JsonSerializationWriter) WriteUUIDValue(key string, value *uuid.UUID) error {
	if value == nil {
		return nil
	}
	return w.writeString(key, value.String())
}

func (w *JsonSerializationWriter) WriteTimeValue(key string, value *time.Time) error {
	if value == nil {
		return nil
	}
	return w.writeString(key, value.Format(time.RFC3339Nano))
}

func (w *JsonSerializationWriter) WriteDateOnlyValue(key string, value *serialization.DateOnly) error {
	if value == nil {
		return nil
	}
	return w.writeString(key, value.String())
}

func (w *JsonSerializationWriter) WriteTimeOnlyValue(key string, value *serialization.TimeOnly) error {
	if value == nil {
		return nil
	}
	return w.writeString(key, value.String())
}

func (w *JsonSerializationWriter) WriteISODurationValue(key string, value *serialization.ISODuration) error {
	if value == nil {
		return nil
	}
	return w.writeString(key, value.String())
}

func (w *JsonSerializationWriter) WriteByteArrayValue(key string, value []byte) error {
	if value == nil {
		return nil
	}
	return w.writeString(key, base64.StdEncoding.EncodeToString(value))
}

func (w *JsonSerializationWriter) WriteNullValue(key string) error {
	return w.writeRaw(key, "null")
}

func (w *JsonSerializationWriter) WriteObjectValue(key string, item serialization.Parsable, additionalValuesToMerge ...serialization.Parsable) error {
	if item == nil && len(additionalValuesToMerge) == 0 {
		return nil
	}

	w.writeKey(key)
	w.buf.WriteByte('{')
	if item != nil {
		if w.onBefore != nil {
			if err := w.onBefore(item); err != nil {
				return err
			}
		}
		if w.onStart != nil {
			if err := w.onStart(item, w); err != nil {
				return err
			}
		}
		if err := item.Serialize(w); err != nil {
			return err
		}
	}
	for _, extra := range additionalValuesToMerge {
		if extra == nil {
			continue
		}
		if err := extra.Serialize(w); err != nil {
			return err
		}
	}
	w.trimSeparator()
	w.buf.WriteByte('}')
	if item != nil && w.onAfter != nil {
		if err := w.onAfter(item); err != nil {
			return err
		}
	}
	w.writeSeparator()
	return nil
}

func (w *JsonSerializationWriter) WriteCollectionOfObjectValues(key string, collection []serialization.Parsable) error {
	if collection == nil {
		return nil
	}
	w.writeKey(key)
	w.buf.WriteByte('[')
	for _, item := range collection {
		if item == nil {
			if err := w.WriteNullValue(""); err != nil {
				return err
			}
			continue
		}
		if err := w.WriteObjectValue("", item); err != nil {
			return err
		}
	}
	w.trimSeparator()
	w.buf.WriteByte(']')
	w.writeSeparator()
	return nil
}

func (w *JsonSerializationWriter) WriteCollectionOfStringValues(key string, collection []string) error {
	if collection == nil {
		return nil
	}
	w.writeKey(key)
	w.buf.WriteByte('[')
	for _, s := range collection {
		_ = w.writeString("", s)
	}
	w.trimSeparator()
	w.buf.WriteByte(']')
	w.writeSeparator()
	return nil
}

func (w *JsonSerializationWriter) WriteAdditionalData(value map[string]any) error {
	for k, v := range value {
		if err := w.WriteAnyValue(k, v); err != nil {
			return fmt.Errorf("write additional data %q: %w", k, err)
		}
	}
	return nil
}

// WriteAnyValue writes scalars, models, slices and maps; anything else goes through encoding/json.
func (w *JsonSerializationWriter) WriteAnyValue(key string, value any) error {
	switch v := value.(type) {
	case nil:
		return w.WriteNullValue(key)
	case string:
		return w.writeString(key, v)
	case *string:
		return w.WriteStringValue(key, v)
	case bool:
		return w.WriteBoolValue(key, &v)
	case *bool:
		return w.WriteBoolValue(key, v)
	case int:
		return w.writeRaw(key, fmt.Sprintf("%d", v))
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		return w.writeRaw(key, fmt.Sprintf("%d", v))
	case *int32:
		return w.WriteInt32Value(key, v)
	case *int64:
		return w.WriteInt64Value(key, v)
	case float32:
		f := float64(v)
		return w.WriteFloat64Value(key, &f)
	case float64:
		return w.WriteFloat64Value(key, &v)
	case *float64:
		return w.WriteFloat64Value(key, v)
	case decimal.Decimal:
		return w.WriteDecimalValue(key, &v)
	case uuid.UUID:
		return w.WriteUUIDValue(key, &v)
	case time.Time:
		return w.WriteTimeValue(key, &v)
	case serialization.DateOnly:
		return w.WriteDateOnlyValue(key, &v)
	case serialization.TimeOnly:
		return w.WriteTimeOnlyValue(key, &v)
	case serialization.ISODuration:
		return w.WriteISODurationValue(key, &v)
	case []byte:
		return w.WriteByteArrayValue(key, v)
	case []string:
		return w.WriteCollectionOfStringValues(key, v)
	case serialization.Parsable:
		return w.WriteObjectValue(key, v)
	case []serialization.Parsable:
		return w.WriteCollectionOfObjectValues(key, v)
	case []any:
		w.writeKey(key)
		w.buf.WriteByte('[')
		for _, item := range v {
			if err := w.WriteAnyValue("", item); err != nil {
				return err
			}
		}
		w.trimSeparator()
		w.buf.WriteByte(']')
		w.writeSeparator()
		return nil
	case map[string]any:
		w.writeKey(key)
		w.buf.WriteByte('{')
		if err := w.WriteAdditionalData(v); err != nil {
			return err
		}
		w.trimSeparator()
		w.buf.WriteByte('}')
		w.writeSeparator()
		return nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %q of type %T: %w", key, value, err)
		}
		return w.writeRaw(key, string(encoded))
	}
}

// GetSerializedContent returns the payload written so far.
func (w *JsonSerializationWriter) GetSerializedContent() ([]byte, error) {
	w.trimSeparator()
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out, nil
}

func (w *JsonSerializationWriter) Close() error {
	w.buf.Reset()
	return nil
}

func (w *JsonSerializationWriter) GetOnBeforeSerialization() serialization.ParsableAction {
	return w.onBefore
}

func (w *JsonSerializationWriter) SetOnBeforeSerialization(action serialization.ParsableAction) error {
	w.onBefore = action
	return nil
}

func (w *JsonSerializationWriter) GetOnAfterObjectSerialization() serialization.ParsableAction {
	return w.onAfter
}

func (w *JsonSerializationWriter) SetOnAfterObjectSerialization(action serialization.ParsableAction) error {
	w.onAfter = action
	return nil
}

func (w *JsonSerializationWriter) GetOnStartObjectSerialization() serialization.ParsableWriter {
	return w.onStart
}

func (w *JsonSerializationWriter) SetOnStartObjectSerialization(action serialization.ParsableWriter) error {
	w.onStart = action
	return nil
}
