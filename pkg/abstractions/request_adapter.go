package abstractions

import (
	"context"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
	"github.com/samvad-hq/restyadapter/pkg/store"
)

// RequestAdapter executes request descriptors and deserializes the responses.
type RequestAdapter interface {
	Send(ctx context.Context, requestInfo *RequestInformation, constructor serialization.ParsableFactory, errorMappings ErrorMappings) (serialization.Parsable, error)
	SendCollection(ctx context.Context, requestInfo *RequestInformation, constructor serialization.ParsableFactory, errorMappings ErrorMappings) ([]serialization.Parsable, error)
	SendPrimitive(ctx context.Context, requestInfo *RequestInformation, kind serialization.PrimitiveKind, errorMappings ErrorMappings) (any, error)
	SendPrimitiveCollection(ctx context.Context, requestInfo *RequestInformation, kind serialization.PrimitiveKind, errorMappings ErrorMappings) ([]any, error)
	SendEnum(ctx context.Context, requestInfo *RequestInformation, parser serialization.EnumFactory, errorMappings ErrorMappings) (any, error)
	SendEnumCollection(ctx context.Context, requestInfo *RequestInformation, parser serialization.EnumFactory, errorMappings ErrorMappings) ([]any, error)
	SendNoContent(ctx context.Context, requestInfo *RequestInformation, errorMappings ErrorMappings) error

	GetSerializationWriterFactory() serialization.SerializationWriterFactory
	EnableBackingStore(factory store.BackingStoreFactory)
	SetBaseUrl(baseUrl string)
	GetBaseUrl() string
	ConvertToNativeRequest(ctx context.Context, requestInfo *RequestInformation) (any, error)
}
