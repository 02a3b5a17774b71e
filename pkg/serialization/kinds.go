package serialization

import (
	"errors"
	"fmt"
	"strings"
)

// PrimitiveKind tags the scalar shape a caller expects from a response payload.
type PrimitiveKind int

const (
	KindUnknown PrimitiveKind = iota
	KindBool
	KindInt8
	KindString
	KindInt16
	KindDecimal
	KindFloat64
	KindInt32
	KindFloat32
	KindInt64
	KindUUID
	KindDateTime
	KindDateOnly
	KindTimeOnly
	KindDuration
	KindByteArray
	// KindStream hands back the raw body; it never goes through a parse node.
	KindStream
)

// ErrUnsupportedKind is returned when no extractor is registered for a requested kind.
var ErrUnsupportedKind = errors.New("unsupported primitive kind")

var kindNames = map[PrimitiveKind]string{
	KindBool:      "bool",
	KindInt8:      "int8",
	KindString:    "string",
	KindInt16:     "int16",
	KindDecimal:   "decimal",
	KindFloat64:   "float64",
	KindInt32:     "int32",
	KindFloat32:   "float32",
	KindInt64:     "int64",
	KindUUID:      "uuid",
	KindDateTime:  "datetime",
	KindDateOnly:  "dateonly",
	KindTimeOnly:  "timeonly",
	KindDuration:  "duration",
	KindByteArray: "bytes",
	KindStream:    "stream",
}

var kindAliases = map[string]PrimitiveKind{
	"boolean":    KindBool,
	"byte":       KindInt8,
	"short":      KindInt16,
	"bigdecimal": KindDecimal,
	"double":     KindFloat64,
	"int":        KindInt32,
	"integer":    KindInt32,
	"float":      KindFloat32,
	"long":       KindInt64,
	"time":       KindDateTime,
	"date":       KindDateOnly,
	"base64":     KindByteArray,
}

// String returns the canonical kind name.
func (k PrimitiveKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParsePrimitiveKind resolves a kind from its canonical name or a common alias.
func ParsePrimitiveKind(name string) (PrimitiveKind, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for kind, n := range kindNames {
		if n == key {
			return kind, nil
		}
	}
	if kind, ok := kindAliases[key]; ok {
		return kind, nil
	}
	return KindUnknown, fmt.Errorf("%w %q", ErrUnsupportedKind, name)
}

type primitiveExtractor func(ParseNode) (any, error)

// primitiveExtractors is the single dispatch table from kind to parse-node getter.
var primitiveExtractors = map[PrimitiveKind]primitiveExtractor{
	KindBool:      func(n ParseNode) (any, error) { return deref(n.GetBoolValue()) },
	KindInt8:      func(n ParseNode) (any, error) { return deref(n.GetInt8Value()) },
	KindString:    func(n ParseNode) (any, error) { return deref(n.GetStringValue()) },
	KindInt16:     func(n ParseNode) (any, error) { return deref(n.GetInt16Value()) },
	KindDecimal:   func(n ParseNode) (any, error) { return deref(n.GetDecimalValue()) },
	KindFloat64:   func(n ParseNode) (any, error) { return deref(n.GetFloat64Value()) },
	KindInt32:     func(n ParseNode) (any, error) { return deref(n.GetInt32Value()) },
	KindFloat32:   func(n ParseNode) (any, error) { return deref(n.GetFloat32Value()) },
	KindInt64:     func(n ParseNode) (any, error) { return deref(n.GetInt64Value()) },
	KindUUID:      func(n ParseNode) (any, error) { return deref(n.GetUUIDValue()) },
	KindDateTime:  func(n ParseNode) (any, error) { return deref(n.GetTimeValue()) },
	KindDateOnly:  func(n ParseNode) (any, error) { return deref(n.GetDateOnlyValue()) },
	KindTimeOnly:  func(n ParseNode) (any, error) { return deref(n.GetTimeOnlyValue()) },
	KindDuration:  func(n ParseNode) (any, error) { return deref(n.GetISODurationValue()) },
	KindByteArray: extractByteArray,
}

func extractByteArray(n ParseNode) (any, error) {
	v, err := n.GetByteArrayValue()
	if err != nil || v == nil {
		return nil, err
	}
	return v, nil
}

func deref[T any](v *T, err error) (any, error) {
	if err != nil || v == nil {
		return nil, err
	}
	return *v, nil
}

// SupportsPrimitive reports whether kind can be read from a parse node.
func SupportsPrimitive(kind PrimitiveKind) bool {
	_, ok := primitiveExtractors[kind]
	return ok
}

// GetPrimitiveValue reads the node as the requested kind. A null node yields (nil, nil).
func GetPrimitiveValue(node ParseNode, kind PrimitiveKind) (any, error) {
	if node == nil {
		return nil, nil
	}
	extract, ok := primitiveExtractors[kind]
	if !ok {
		return nil, fmt.Errorf("%w %s", ErrUnsupportedKind, kind)
	}
	return extract(node)
}
