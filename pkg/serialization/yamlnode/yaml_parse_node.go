// Package yamlnode parses application/yaml and text/yaml payloads.
package yamlnode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

const (
	// ContentType is the primary YAML MIME type.
	ContentType = "application/yaml"
	// TextContentType is the legacy YAML MIME type, registered as an alias.
	TextContentType = "text/yaml"
)

// YamlParseNode wraps one yaml.v3 node.
type YamlParseNode struct {
	node     *yaml.Node
	onBefore serialization.ParsableAction
	onAfter  serialization.ParsableAction
}

// NewYamlParseNode decodes the first document of content.
func NewYamlParseNode(content []byte) (*YamlParseNode, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil, errors.New("content is empty")
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return &YamlParseNode{node: unwrap(&doc)}, nil
}

func unwrap(n *yaml.Node) *yaml.Node {
	for n != nil {
		switch {
		case n.Kind == yaml.DocumentNode && len(n.Content) > 0:
			n = n.Content[0]
		case n.Kind == yaml.AliasNode && n.Alias != nil:
			n = n.Alias
		default:
			return n
		}
	}
	return nil
}

func (n *YamlParseNode) child(node *yaml.Node) *YamlParseNode {
	return &YamlParseNode{node: unwrap(node), onBefore: n.onBefore, onAfter: n.onAfter}
}

func (n *YamlParseNode) isNull() bool {
	return n == nil || n.node == nil || n.node.Kind == 0 || (n.node.Kind == yaml.ScalarNode && n.node.Tag == "!!null")
}

// pairs walks a mapping node's alternating key and value entries.
func (n *YamlParseNode) pairs(fn func(key string, value *yaml.Node) error) error {
	content := n.node.Content
	for i := 0; i+1 < len(content); i += 2 {
		if err := fn(content[i].Value, content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func (n *YamlParseNode) GetChildNode(index string) (serialization.ParseNode, error) {
	if n.isNull() {
		return nil, nil
	}
	if n.node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("cannot read property %q of a non-mapping node", index)
	}
	var found *yaml.Node
	_ = n.pairs(func(key string, value *yaml.Node) error {
		if key == index && found == nil {
			found = value
		}
		return nil
	})
	if found == nil {
		return nil, nil
	}
	return n.child(found), nil
}

func (n *YamlParseNode) GetObjectValue(ctor serialization.ParsableFactory) (serialization.Parsable, error) {
	if ctor == nil {
		return nil, errors.New("constructor is nil")
	}
	if n.isNull() {
		return nil, nil
	}
	if n.node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("yaml node at line %d cannot be read as an object", n.node.Line)
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
	err = n.pairs(func(key string, value *yaml.Node) error {
		if assign, ok := fields[key]; ok {
			if err := assign(n.child(value)); err != nil {
				return fmt.Errorf("assign %q: %w", key, err)
			}
			return nil
		}
		if !holdsExtra {
			return nil
		}
		raw, err := n.child(value).GetRawValue()
		if err != nil {
			return fmt.Errorf("read %q: %w", key, err)
		}
		if extra == nil {
			if extra = holder.GetAdditionalData(); extra == nil {
				extra = make(map[string]any)
			}
		}
		extra[key] = raw
		return nil
	})
	if err != nil {
		return nil, err
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

func (n *YamlParseNode) elements() ([]*yaml.Node, error) {
	if n.isNull() {
		return nil, nil
	}
	if n.node.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("yaml node at line %d cannot be read as a collection", n.node.Line)
	}
	return n.node.Content, nil
}

func (n *YamlParseNode) GetCollectionOfObjectValues(ctor serialization.ParsableFactory) ([]serialization.Parsable, error) {
	items, err := n.elements()
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]serialization.Parsable, len(items))
	for i, item := range items {
		v, err := n.child(item).GetObjectValue(ctor)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (n *YamlParseNode) GetCollectionOfPrimitiveValues(kind serialization.PrimitiveKind) ([]any, error) {
	items, err := n.elements()
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := serialization.GetPrimitiveValue(n.child(item), kind)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (n *YamlParseNode) GetCollectionOfEnumValues(parser serialization.EnumFactory) ([]any, error) {
	items, err := n.elements()
	if err != nil || items == nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, item := range items {
		v, err := n.child(item).GetEnumValue(parser)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

func (n *YamlParseNode) GetEnumValue(parser serialization.EnumFactory) (any, error) {
	if parser == nil {
		return nil, errors.New("enum parser is nil")
	}
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return parser(*s)
}

// scalar decodes a scalar node into a fresh T; null yields nil.
func scalar[T any](n *YamlParseNode) (*T, error) {
	if n.isNull() {
		return nil, nil
	}
	if n.node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("yaml node at line %d is not a scalar", n.node.Line)
	}
	var v T
	if err := n.node.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %T at line %d: %w", v, n.node.Line, err)
	}
	return &v, nil
}

func (n *YamlParseNode) GetStringValue() (*string, error) {
	if n.isNull() {
		return nil, nil
	}
	if n.node.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("yaml node at line %d is not a scalar", n.node.Line)
	}
	v := n.node.Value
	return &v, nil
}

func (n *YamlParseNode) GetBoolValue() (*bool, error)       { return scalar[bool](n) }
func (n *YamlParseNode) GetInt8Value() (*int8, error)       { return scalar[int8](n) }
func (n *YamlParseNode) GetInt16Value() (*int16, error)     { return scalar[int16](n) }
func (n *YamlParseNode) GetInt32Value() (*int32, error)     { return scalar[int32](n) }
func (n *YamlParseNode) GetInt64Value() (*int64, error)     { return scalar[int64](n) }
func (n *YamlParseNode) GetFloat32Value() (*float32, error) { return scalar[float32](n) }
func (n *YamlParseNode) GetFloat64Value() (*float64, error) { return scalar[float64](n) }

func (n *YamlParseNode) GetDecimalValue() (*decimal.Decimal, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, fmt.Errorf("parse decimal %q: %w", *s, err)
	}
	return &d, nil
}

func (n *YamlParseNode) GetUUIDValue() (*uuid.UUID, error) {
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

func (n *YamlParseNode) GetTimeValue() (*time.Time, error) {
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

func (n *YamlParseNode) GetDateOnlyValue() (*serialization.DateOnly, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return serialization.ParseDateOnly(*s)
}

func (n *YamlParseNode) GetTimeOnlyValue() (*serialization.TimeOnly, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return serialization.ParseTimeOnly(*s)
}

func (n *YamlParseNode) GetISODurationValue() (*serialization.ISODuration, error) {
	s, err := n.GetStringValue()
	if err != nil || s == nil {
		return nil, err
	}
	return serialization.ParseISODuration(*s)
}

func (n *YamlParseNode) GetByteArrayValue() ([]byte, error) {
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

// GetRawValue decodes the node into plain Go values using yaml.v3's default typing.
func (n *YamlParseNode) GetRawValue() (any, error) {
	if n.isNull() {
		return nil, nil
	}
	var v any
	if err := n.node.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode yaml node at line %d: %w", n.node.Line, err)
	}
	return v, nil
}

func (n *YamlParseNode) GetOnBeforeAssignFieldValues() serialization.ParsableAction {
	return n.onBefore
}

func (n *YamlParseNode) SetOnBeforeAssignFieldValues(action serialization.ParsableAction) error {
	n.onBefore = action
	return nil
}

func (n *YamlParseNode) GetOnAfterAssignFieldValues() serialization.ParsableAction {
	return n.onAfter
}

func (n *YamlParseNode) SetOnAfterAssignFieldValues(action serialization.ParsableAction) error {
	n.onAfter = action
	return nil
}

// YamlParseNodeFactory builds YAML parse nodes for one of the YAML content types.
type YamlParseNodeFactory struct {
	contentType string
}

// NewYamlParseNodeFactory serves application/yaml.
func NewYamlParseNodeFactory() *YamlParseNodeFactory {
	return &YamlParseNodeFactory{contentType: ContentType}
}

// NewTextYamlParseNodeFactory serves text/yaml.
func NewTextYamlParseNodeFactory() *YamlParseNodeFactory {
	return &YamlParseNodeFactory{contentType: TextContentType}
}

func (f *YamlParseNodeFactory) GetValidContentType() (string, error) { return f.contentType, nil }

func (f *YamlParseNodeFactory) GetRootParseNode(contentType string, content []byte) (serialization.ParseNode, error) {
	if ct := serialization.CleanContentType(contentType); ct != ContentType && ct != TextContentType {
		return nil, fmt.Errorf("expected a yaml content type, got %s", ct)
	}
	node, err := NewYamlParseNode(content)
	if err != nil {
		return nil, err
	}
	return node, nil
}
