// Package serialization defines the model, parse-node and writer contracts the request adapter
// consumes, plus content-type keyed factory registries.
package serialization

// Parsable is a model that can be hydrated from a ParseNode and written to a SerializationWriter.
type Parsable interface {
	// Serialize writes the model's properties to the writer.
	Serialize(writer SerializationWriter) error
	// GetFieldDeserializers returns one assignment function per wire property name.
	GetFieldDeserializers() map[string]func(ParseNode) error
}

// ParsableFactory creates a new model instance, optionally discriminating on the node content.
type ParsableFactory func(parseNode ParseNode) (Parsable, error)

// EnumFactory maps the wire representation of an enum member to its typed value.
type EnumFactory func(value string) (any, error)

// ParsableAction is a hook invoked around model hydration or serialization.
type ParsableAction func(Parsable) error

// ParsableWriter is a hook invoked when a writer starts serializing a model.
type ParsableWriter func(Parsable, SerializationWriter) error

// AdditionalDataHolder stores properties the model does not declare.
type AdditionalDataHolder interface {
	GetAdditionalData() map[string]any
	SetAdditionalData(value map[string]any)
}
