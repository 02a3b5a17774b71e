package app

import "github.com/samvad-hq/restyadapter/pkg/serialization"

// document is a schemaless model: every property lands in its additional data.
type document struct {
	additional map[string]any
}

func newDocument(serialization.ParseNode) (serialization.Parsable, error) {
	return &document{}, nil
}

func (d *document) Serialize(writer serialization.SerializationWriter) error {
	return writer.WriteAdditionalData(d.additional)
}

func (d *document) GetFieldDeserializers() map[string]func(serialization.ParseNode) error {
	return map[string]func(serialization.ParseNode) error{}
}

func (d *document) GetAdditionalData() map[string]any { return d.additional }

func (d *document) SetAdditionalData(value map[string]any) { d.additional = value }
