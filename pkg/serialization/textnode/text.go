// Package textnode handles text/plain payloads. Only scalars are supported.
package textnode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

// ContentType is the MIME type handled by this package.
const ContentType = "text/plain"

var errStructured = errors.New("text does not support structured data")

// TextParseNode holds a whole text/plain body as one scalar.
type TextParseNode struct {
	value    string
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
}

// NewTextParseNode wraps content; surrounding quotes are stripped.
func NewTextParseNode(content []byte) (*TextParseNode, error) {
	if len(content) == 0 {
		return nil, errors.New("content is empty")
	}
	v := strings.TrimSpace(string(content))
	if len(v) >= 2 && strings.HasPrefix(v, `"`) && strings.HasSuffix(v, `"`) {
		v = v[1 : len(v)-1]
	}
	return &TextParseNode{value: v}, nil
}

func (n *TextParseNode) GetChildNode(string) (serialization.ParseNode, error) {
	return nil, errStructured
}

func (n *TextParseNode) GetObjectValue(serialization.ParsableFactory) (serialization.Parsable, error) {
	return nil, errStructured
}

func (n *TextParseNode) GetCollectionOfObjectValues(serialization.ParsableFactory) ([]serialization.Parsable, error) {
	return nil, errStructured
}

func (n *TextParseNode) GetCollectionOfPrimitiveValues(serialization.PrimitiveKind) ([]any, error) {
	return nil, errStructured
}

func (n *TextParseNode) GetCollectionOfEnumValues(serialization.EnumFactory) ([]any, error) {
	return nil, errStructured
}

func (n *TextParseNode) GetEnumValue(parser serialization.EnumFactory) (any, error) {
	if parser == nil {
		return nil, errors.New("enum parser is nil")
	}
	return parser(n.value)
}

func (n *TextParseNode) GetStringValue() (*string, error) {
	v := n.value
	return &v, nil
}

func (n *TextParseNode) GetBoolValue() (*bool, error) {
	b, err := strconv.ParseBool(n.value)
	if err != nil {
		return nil, fmt.Errorf("parse bool %q: %w", n.value, err)
	}
	return &b, nil
}

func (n *TextParseNode) parseInt(bits int) (int64, error) {
	v, err := strconv.ParseInt(n.value, 10, bits)
	if err != nil {
		return 0, fmt.Errorf("parse int%d %q: %w", bits, n.value, err)
	}
	return v, nil
}

func (n *TextParseNode) GetInt8Value() (*int8, error) {
	v, err := n.parseInt(8)
	if err != nil {
		return nil, err
	}
	r := int8(v)
	return &r, nil
}

func (n *TextParseNode) GetInt16Value() (*int16, error) {
	v, err := n.parseInt(16)
	if err != nil {
		return nil, err
	}
	r := int16(v)
	return &r, nil
}

func (n *TextParseNode) GetInt32Value() (*int32, error) {
	v, err := n.parseInt(32)
	if err != nil {
		return nil, err
	}
	r := int32(v)
	return &r, nil
}

func (n *TextParseNode) GetInt64Value() (*int64, error) {
	v, err := n.parseInt(64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (n *TextParseNode) GetFloat32Value() (*float32, error) {
	v, err := strconv.ParseFloat(n.value, 32)
	if err != nil {
		return nil, fmt.Errorf("parse float32 %q: %w", n.value, err)
	}
	r := float32(v)
	return &r, nil
}

func (n *TextParseNode) GetFloat64Value() (*float64, error) {
	v, err := strconv.ParseFloat(n.value, 64)
	if err != nil {
		return nil, fmt.Errorf("parse float64 %q: %w", n.value, err)
	}
	return &v, nil
}

func (n *TextParseNode) GetDecimalValue() (*decimal.Decimal, error) {
	d, err := decimal.NewFromString(n.value)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", n.value, err)
	}
	return &d, nil
}

func (n *TextParseNode) GetUUIDValue() (*uuid.UUID, error) {
	id, err := uuid.Parse(n.value)
	if err != nil {
		return nil, fmt.Errorf("parse uuid %q: %w", n.value, err)
	}
	return &id, nil
}

func (n *TextParseNode) GetTimeValue() (*time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, n.value)
	if err != nil {
		return nil, fmt.Errorf("parse date-time %q: %w", n.value, err)
	}
	return &t, nil
}

func (n *TextParseNode) GetDateOnlyValue() (*serialization.DateOnly, error) {
	return serialization.ParseDateOnly(n.value)
}

func (n *TextParseNode) GetTimeOnlyValue() (*serialization.TimeOnly, error) {
	return serialization.ParseTimeOnly(n.value)
}

func (n *TextParseNode) GetISODurationValue() (*serialization.ISODuration, error) {
	return serialization.ParseISODuration(n.value)
}

func (n *TextParseNode) GetByteArrayValue() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(n.value)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}
	return b, nil
}

func (n *TextParseNode) GetRawValue() (any, error) { return n.value, nil }

func (n *TextParseNode) GetOnBeforeAssignFieldValues() serialization.ParsableAction {
	return n.onBefore
}

func (n *TextParseNode) SetOnBeforeAssignFieldValues(action serialization.ParsableAction) error {
	n.onBefore = action
	return nil
}

func (n *TextParseNode) GetOnAfterAssignFieldValues() serialization.ParsableAction {
	return n.onAfter
}

func (n *TextParseNode) SetOnAfterAssignFieldValues(action serialization.ParsableAction) error {
	n.onAfter = action
	return nil
}

// TextParseNodeFactory builds text parse nodes.
type TextParseNodeFactory struct{}

func NewTextParseNodeFactory() *TextParseNodeFactory { return &TextParseNodeFactory{} }

func (f *TextParseNodeFactory) GetValidContentType() (string, error) { return ContentType, nil }

func (f *TextParseNodeFactory) GetRootParseNode(contentType string, content []byte) (serialization.ParseNode, error) {
	if ct := serialization.CleanContentType(contentType); ct != ContentType {
		return nil, fmt.Errorf("expected content type %s, got %s", ContentType, ct)
	}
	node, err := NewTextParseNode(content)
	if err != nil {
		return nil, err
	}
	return node, nil
}
