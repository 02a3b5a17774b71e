package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/samvad-hq/restyadapter/pkg/abstractions"
	"github.com/samvad-hq/restyadapter/pkg/httpclient"
	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

func responseHandlerOf(ri *abstractions.RequestInformation) abstractions.ResponseHandler {
	for _, opt := range ri.GetRequestOptions() {
		if h, ok := opt.(*abstractions.ResponseHandlerOption); ok && h.GetResponseHandler() != nil {
			return h.GetResponseHandler()
		}
	}
	return nil
}

// delegateAs hands the native request to handler and asserts its result to T.
func delegateAs[T any](ctx context.Context, a *RestyRequestAdapter, ri *abstractions.RequestInformation, handler abstractions.ResponseHandler, errorMappings abstractions.ErrorMappings) (T, error) {
	var zero T
	native, err := a.ConvertToNativeRequest(ctx, ri)
	if err != nil {
		return zero, err
	}
	result, err := handler(ctx, native, errorMappings)
	if err != nil {
		return zero, err
	}
	if result == nil {
		return zero, nil
	}
	typed, ok := result.(T)
	if !ok {
		return zero, fmt.Errorf("response handler returned %T, expected %T", result, zero)
	}
	return typed, nil
}

// exchange sends ri and fails on non-2xx statuses. A nil response means 204.
func (a *RestyRequestAdapter) exchange(ctx context.Context, ri *abstractions.RequestInformation, errorMappings abstractions.ErrorMappings) (httpclient.Response, error) {
	resp, err := a.getHttpResponseMessage(ctx, ri, "")
	if err != nil {
		return nil, err
	}
	if err := a.throwIfFailedResponse(resp, errorMappings); err != nil {
		return nil, err
	}
	if resp.StatusCode() == http.StatusNoContent {
		return nil, nil
	}
	return resp, nil
}

// exchangeForNode is exchange followed by parsing; a nil node means there is nothing to read.
func (a *RestyRequestAdapter) exchangeForNode(ctx context.Context, ri *abstractions.RequestInformation, errorMappings abstractions.ErrorMappings) (serialization.ParseNode, error) {
	resp, err := a.exchange(ctx, ri, errorMappings)
	if err != nil || resp == nil {
		return nil, err
	}
	return a.getRootParseNode(resp)
}

// Send returns the response body as a model built by constructor.
func (a *RestyRequestAdapter) Send(ctx context.Context, ri *abstractions.RequestInformation, constructor serialization.ParsableFactory, errorMappings abstractions.ErrorMappings) (serialization.Parsable, error) {
	if ri == nil {
		return nil, ErrNilRequestInfo
	}
	if constructor == nil {
		return nil, ErrNilFactory
	}
	if handler := responseHandlerOf(ri); handler != nil {
		return delegateAs[serialization.Parsable](ctx, a, ri, handler, errorMappings)
	}

	node, err := a.exchangeForNode(ctx, ri, errorMappings)
	if err != nil || node == nil {
		return nil, err
	}
	return node.GetObjectValue(constructor)
}

// SendCollection returns the response body as a list of models.
func (a *RestyRequestAdapter) SendCollection(ctx context.Context, ri *abstractions.RequestInformation, constructor serialization.ParsableFactory, errorMappings abstractions.ErrorMappings) ([]serialization.Parsable, error) {
	if ri == nil {
		return nil, ErrNilRequestInfo
	}
	if constructor == nil {
		return nil, ErrNilFactory
	}
	if handler := responseHandlerOf(ri); handler != nil {
		return delegateAs[[]serialization.Parsable](ctx, a, ri, handler, errorMappings)
	}

	node, err := a.exchangeForNode(ctx, ri, errorMappings)
	if err != nil || node == nil {
		return nil, err
	}
	return node.GetCollectionOfObjectValues(constructor)
}

// SendPrimitive returns the body as a scalar of the requested kind. KindStream hands back the raw
// body as an io.ReadCloser regardless of its content type.
func (a *RestyRequestAdapter) SendPrimitive(ctx context.Context, ri *abstractions.RequestInformation, kind serialization.PrimitiveKind, errorMappings abstractions.ErrorMappings) (any, error) {
	if ri == nil {
		return nil, ErrNilRequestInfo
	}
	if kind != serialization.KindStream && !serialization.SupportsPrimitive(kind) {
		return nil, fmt.Errorf("%w %s", ErrUnsupportedKind, kind)
	}
	if handler := responseHandlerOf(ri); handler != nil {
		return delegateAs[any](ctx, a, ri, handler, errorMappings)
	}

	resp, err := a.exchange(ctx, ri, errorMappings)
	if err != nil || resp == nil {
		return nil, err
	}
	if kind == serialization.KindStream {
		body := resp.Body()
		if len(body) == 0 {
			return nil, nil
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	node, err := a.getRootParseNode(resp)
	if err != nil || node == nil {
		return nil, err
	}
	return serialization.GetPrimitiveValue(node, kind)
}

// SendPrimitiveCollection returns the body as a list of scalars of the requested kind.
func (a *RestyRequestAdapter) SendPrimitiveCollection(ctx context.Context, ri *abstractions.RequestInformation, kind serialization.PrimitiveKind, errorMappings abstractions.ErrorMappings) ([]any, error) {
	if ri == nil {
		return nil, ErrNilRequestInfo
	}
	if !serialization.SupportsPrimitive(kind) {
		return nil, fmt.Errorf("%w %s", ErrUnsupportedKind, kind)
	}
	if handler := responseHandlerOf(ri); handler != nil {
		return delegateAs[[]any](ctx, a, ri, handler, errorMappings)
	}

	node, err := a.exchangeForNode(ctx, ri, errorMappings)
	if err != nil || node == nil {
		return nil, err
	}
	return node.GetCollectionOfPrimitiveValues(kind)
}

// SendEnum returns the body parsed as an enum member.
func (a *RestyRequestAdapter) SendEnum(ctx context.Context, ri *abstractions.RequestInformation, parser serialization.EnumFactory, errorMappings abstractions.ErrorMappings) (any, error) {
	if ri == nil {
		return nil, ErrNilRequestInfo
	}
	if parser == nil {
		return nil, ErrNilEnumParser
	}
	if handler := responseHandlerOf(ri); handler != nil {
		return delegateAs[any](ctx, a, ri, handler, errorMappings)
	}

	node, err := a.exchangeForNode(ctx, ri, errorMappings)
	if err != nil || node == nil {
		return nil, err
	}
	return node.GetEnumValue(parser)
}

// SendEnumCollection returns the body parsed as a list of enum members.
func (a *RestyRequestAdapter) SendEnumCollection(ctx context.Context, ri *abstractions.RequestInformation, parser serialization.EnumFactory, errorMappings abstractions.ErrorMappings) ([]any, error) {
	if ri == nil {
		return nil, ErrNilRequestInfo
	}
	if parser == nil {
		return nil, ErrNilEnumParser
	}
	if handler := responseHandlerOf(ri); handler != nil {
		return delegateAs[[]any](ctx, a, ri, handler, errorMappings)
	}

	node, err := a.exchangeForNode(ctx, ri, errorMappings)
	if err != nil || node == nil {
		return nil, err
	}
	return node.GetCollectionOfEnumValues(parser)
}

// SendNoContent sends ri and only reports failures; any body is ignored.
func (a *RestyRequestAdapter) SendNoContent(ctx context.Context, ri *abstractions.RequestInformation, errorMappings abstractions.ErrorMappings) error {
	if ri == nil {
		return ErrNilRequestInfo
	}
	if handler := responseHandlerOf(ri); handler != nil {
		_, err := delegateAs[any](ctx, a, ri, handler, errorMappings)
		return err
	}

	_, err := a.exchange(ctx, ri, errorMappings)
	return err
}
