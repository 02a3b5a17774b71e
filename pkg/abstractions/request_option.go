package abstractions

import "context"

// RequestOptionKey identifies a kind of request option.
type RequestOptionKey struct {
	Key string
}

// RequestOption tweaks how one request is processed.
type RequestOption interface {
	GetKey() RequestOptionKey
}

// ResponseHandlerOptionKey is the key of ResponseHandlerOption.
var ResponseHandlerOptionKey = RequestOptionKey{Key: "ResponseHandlerOption"}

// ResponseHandler takes over a request entirely. It receives the native request built by the
// adapter and the caller's error mappings; whatever it returns is handed back unchanged.
type ResponseHandler func(ctx context.Context, nativeRequest any, errorMappings ErrorMappings) (any, error)

// ResponseHandlerOption carries a ResponseHandler on a request.
type ResponseHandlerOption struct {
	handler ResponseHandler
}

// NewResponseHandlerOption wraps handler.
func NewResponseHandlerOption(handler ResponseHandler) *ResponseHandlerOption {
	return &ResponseHandlerOption{handler: handler}
}

func (o *ResponseHandlerOption) GetKey() RequestOptionKey { return ResponseHandlerOptionKey }

func (o *ResponseHandlerOption) GetResponseHandler() ResponseHandler { return o.handler }

func (o *ResponseHandlerOption) SetResponseHandler(handler ResponseHandler) { o.handler = handler }
