// Package jsonnode implements the application/json parse node and serialization writer.
package jsonnode

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

// JsonParseNode wraps one decoded JSON value: map[string]any, []any, json.Number, string, bool or nil.
type JsonParseNode struct {
	value    any
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
}

// NewJsonParseNode decodes content into a node tree. Numbers keep their textual precision.
func NewJsonParseNode(content []byte) (*JsonParseNode, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, errors.New("content is empty")
	}
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode json: unexpected data after top-level value")
	}
	return &JsonParseNode{value: value}, nil
}

func (n *JsonParseNode) child(value any) *JsonParseNode {
	return &JsonParseNode{value: value, onBefore: n.onBefore, onAfter: n.onAfter}
}

func (n *JsonParseNode) isNull() bool { return n == nil || n.value == nil }

// GetChildNode returns the property node, or nil when the property is absent.
func (n *JsonParseNode) GetChildNode(index string) (serialization.ParseNode, error) {
	if n.isNull() {
		return nil, nil
	}
	obj, ok := n.value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot read property %q of a non-object value", index)
	}
	v, ok := obj[index]
	if !ok {
		return nil, nil
	}
	return n.child(v), nil
}

func (n *JsonParseNode) GetObjectValue(ctor serialization.ParsableFactory) (serialization.Parsable, error) {
	if ctor == nil {
		return nil, errors.New("constructor is nil")
	}
	if n.isNull() {
		return nil, nil
	}
	obj, ok := n.value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("value of type %T cannot be read as an object", n.value)
	}

	result, err := ctor(n)
	if err != nil {
		return nil, fmt.Errorf("create model: %w", err)
	}
	if result == nil {
		return nil, nil
	}
	if n.onBefore != nil {
		if err := n.onBefore(result); err != nil {
			return nil, err
		}
	}

	fields := result.GetFieldDeserializers()
	holder, holdsExtra := result.(serialization.AdditionalDataHolder)
	var extra map[string]any
	for key, raw := range obj {
		if assign, ok := fields[key]; ok {
			if err := assign(n.child(raw)); err != nil {
				return nil, fmt.Errorf("assign %q: %w", key, err)
			}
			continue
		}
		if holdsExtra {
			if extra == nil {
				extra = holder.GetAdditionalData()
				if extra == nil {
					extra = make(map[string]any)
				}
			}
			extra[key] = toRaw(raw)
		}
	}
	if extra != nil {
		holder.SetAdditionalData(extra)
	}

	if n.onAfter != nil {
		if err := n.onAfter(result); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (n *JsonParseNode) elements() ([]any, error) {
	if n.isNull() {
		return nil, nil
	}
	arr, ok := n.value.([]any)
	if !ok {
		return nil, fmt.Errorf("value of type %T cannot be read as a collection", n.value)
	}
	return arr, nil
}

func (n *JsonParseNode) GetCollectionOfObjectValues(ctor serialization.ParsableFactory) ([]serialization.Parsable, error) {
	arr, err := n.elements()
	if err != nil || arr == nil {
		return nil, err
	}
	out := make([]serialization.Parsable, len(arr))
	for i, v := range arr {
		item, err := n.child(v).GetObjectValue(ctor)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}

func (n *JsonParseNode) GetCollectionOfPrimitiveValues(kind serialization.PrimitiveKind) ([]any, error) {
	arr, err := n.elements()
	if err != nil || arr == nil {
		return nil, err
	}
	out := make([]any, len(arr))
	for i, v := range arr {
		item, err := serialization.GetPrimitiveValue(n.child(v), kind)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}

func (n *JsonParseNode) GetCollectionOfEnumValues(parser serialization.EnumFactory) ([]any, error) {
	arr, err := n.elements()
	if err != nil || arr == nil {
		return nil, err
	}
	out := make([]any, len(arr))
	for i, v := range arr {
		item, err := n.child(v).GetEnumValue(parser)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = item
	}
	return out, nil
}

func (n *JsonParseNode) GetEnumValue(parser serialization.EnumFactory) (any, error) {
	if parser == nil {
		return nil, errors.New("enum parser is nil")
	}
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return parser(*s)
}

func (n *JsonParseNode) GetStringValue() (*string, error) {
	if n.isNull() {
		return nil, nil
	}
	s, ok := n.value.(string)
	if !ok {
		return nil, fmt.Errorf("value %v is not compatible with type string", n.value)
	}
	return &s, nil
}

func (n *JsonParseNode) GetBoolValue() (*bool, error) {
	if n.isNull() {
		return nil, nil
	}
	b, ok := n.value.(bool)
	if !ok {
		return nil, fmt.Errorf("value %v is not compatible with type bool", n.value)
	}
	return &b, nil
}

func (n *JsonParseNode) number() (json.Number, bool, error) {
	if n.isNull() {
		return "", false, nil
	}
	num, ok := n.value.(json.Number)
	if !ok {
		return "", false, fmt.Errorf("value %v is not a number", n.value)
	}
	return num, true, nil
}

func (n *JsonParseNode) integer(bits int) (int64, bool, error) {
	num, ok, err := n.number()
	if err != nil || !ok {
		return 0, ok, err
	}
	v, err := num.Int64()
	if err != nil {
		return 0, false, fmt.Errorf("value %s is not an integer: %w", num, err)
	}
	if bits < 64 {
		lo, hi := int64(-1)<<(bits-1), int64(1)<<(bits-1)-1
		if v < lo || v > hi {
			return 0, false, fmt.Errorf("value %d overflows int%d", v, bits)
		}
	}
	return v, true, nil
}

func (n *JsonParseNode) GetInt8Value() (*int8, error) {
	v, ok, err := n.integer(8)
	if err != nil || !ok {
		return nil, err
	}
	r := int8(v)
	return &r, nil
}

func (n *JsonParseNode) GetInt16Value() (*int16, error) {
	v, ok, err := n.integer(16)
	if err != nil || !ok {
		return nil, err
	}
	r := int16(v)
	return &r, nil
}

func (n *JsonParseNode) GetInt32Value() (*int32, error) {
	v, ok, err := n.integer(32)
	if err != nil || !ok {
		return nil, err
	}
	r := int32(v)
	return &r, nil
}

func (n *JsonParseNode) GetInt64Value() (*int64, error) {
	v, ok, err := n.integer(64)
	if err != nil || !ok {
		return nil, err
	}
	return &v, nil
}

func (n *JsonParseNode) GetFloat64Value() (*float64, error) {
	num, ok, err := n.number()
	if err != nil || !ok {
		return nil, err
	}
	v, err := num.Float64()
	if err != nil {
		return nil, fmt.Errorf("value %s is not a float: %w", num, err)
	}
	return &v, nil
}

func (n *JsonParseNode) GetFloat32Value() (*float32, error) {
	v, err := n.GetFloat64Value()
	if err != nil || v == nil {
		return nil, err
	}
	if math.Abs(*v) > math.MaxFloat32 {
		return nil, fmt.Errorf("value %v overflows float32", *v)
	}
	r := float32(*v)
	return &r, nil
}

func (n *JsonParseNode) GetDecimalValue() (*decimal.Decimal, error) {
	if n.isNull() {
		return nil, nil
	}
	var raw string
	switch v := n.value.(type) {
	case json.Number:
		raw = v.String()
	case string:
		raw = v
	default:
		return nil, fmt.Errorf("value %v is not compatible with type decimal", n.value)
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", raw, err)
	}
	return &d, nil
}

func (n *JsonParseNode) GetUUIDValue() (*uuid.UUID, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, fmt.Errorf("parse uuid %q: %w", *s, err)
	}
	return &id, nil
}

func (n *JsonParseNode) GetTimeValue() (*time.Time, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, *s)
	if err != nil {
		return nil, fmt.Errorf("parse date-time %q: %w", *s, err)
	}
	return &t, nil
}

func (n *JsonParseNode) GetDateOnlyValue() (*serialization.DateOnly, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return serialization.ParseDateOnly(*s)
}

func (n *JsonParseNode) GetTimeOnlyValue() (*serialization.TimeOnly, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return serialization.ParseTimeOnly(*s)
}

func (n *JsonParseNode) GetISODurationValue() (*serialization.ISODuration, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return serialization.ParseISODuration(*s)
}

func (n *JsonParseNode) GetByteArrayValue() ([]byte, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	b, err := base64.StdEncoding.DecodeString(*s)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return b, nil
}

// GetRawValue returns the node as plain Go values; integral numbers become int64.
func (n *JsonParseNode) GetRawValue() (any, error) {
	if n.isNull() {
		return nil, nil
	}
	return toRaw(n.value), nil
}

func toRaw(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = toRaw(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = toRaw(item)
		}
		return out
	default:
		return val
	}
}

func (n *JsonParseNode) GetOnBeforeAssignFieldValues() serialization.ParsableAction {
	return n.onBefore
}

func (n *JsonParseNode) SetOnBeforeAssignFieldValues(action serialization.ParsableAction) error {
	n.onBefore = action
	return nil
}

func (n *JsonParseNode) GetOnAfterAssignFieldValues() serialization.ParsableAction {
	return n.onAfter
}

func (n *JsonParseNode) SetOnAfterAssignFieldValues(action serialization.ParsableAction) error {
	n.onAfter = action
	return nil
}
