package jsonnode

import (
	"fmt"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

// ContentType is the MIME type handled by this package.
const ContentType = "application/json"

// JsonParseNodeFactory builds JSON parse nodes.
type JsonParseNodeFactory struct{}

func NewJsonParseNodeFactory() *JsonParseNodeFactory { return &JsonParseNodeFactory{} }

func (f *JsonParseNodeFactory) GetValidContentType() (string, error) { return ContentType, nil }

func (f *JsonParseNodeFactory) GetRootParseNode(contentType string, content []byte) (serialization.ParseNode, error) {
	if ct := serialization.CleanContentType(contentType); ct != ContentType {
		return nil, fmt.Errorf("expected content type %s, got %s", ContentType, ct)
	}
	node, err := NewJsonParseNode(content)
	if err != nil {
		return nil, err
	}
	return node, nil
}

// JsonSerializationWriterFactory builds JSON writers.
type JsonSerializationWriterFactory struct{}

func NewJsonSerializationWriterFactory() *JsonSerializationWriterFactory {
	return &JsonSerializationWriterFactory{}
}

func (f *JsonSerializationWriterFactory) GetValidContentType() (string, error) {
	return ContentType, nil
}

func (f *JsonSerializationWriterFactory) GetSerializationWriter(contentType string) (serialization.SerializationWriter, error) {
	if ct := serialization.CleanContentType(contentType); ct != ContentType {
		return nil, fmt.Errorf("expected content type %s, got %s", ContentType, ct)
	}
	return NewJsonSerializationWriter(), nil
}
