package adapter

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/samvad-hq/restyadapter/pkg/abstractions"
	"github.com/samvad-hq/restyadapter/pkg/httpclient"
	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

var (
	ErrNilRequestInfo     = errors.New("request information cannot be nil")
	ErrNilFactory         = errors.New("parsable factory cannot be nil")
	ErrNilEnumParser      = errors.New("enum parser cannot be nil")
	ErrNoParseNodeFactory = errors.New("no parse node factory is configured")
	// ErrUnsupportedKind is returned before any exchange when a primitive kind cannot be produced.
	ErrUnsupportedKind = serialization.ErrUnsupportedKind
)

// TransportError reports a failure to complete an exchange: an unbuildable URL, an I/O error,
// an abandoned wait or a request body that could not be rewound for a retry.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	if e.URL == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s %s: %v", e.Op, e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func isSuccess(code int) bool { return code >= 200 && code < 300 }

// errorFactoryFor resolves the mapping for code: exact match first, then the 4XX or 5XX class.
func errorFactoryFor(code int, errorMappings abstractions.ErrorMappings) serialization.ParsableFactory {
	if len(errorMappings) == 0 {
		return nil
	}
	if f, ok := errorMappings[strconv.Itoa(code)]; ok && f != nil {
		return f
	}
	switch {
	case code >= 400 && code < 500:
		return errorMappings["4XX"]
	case code >= 500 && code < 600:
		return errorMappings["5XX"]
	}
	return nil
}

// throwIfFailedResponse returns nil for 2xx responses and the mapped or generic error otherwise.
func (a *RestyRequestAdapter) throwIfFailedResponse(resp httpclient.Response, errorMappings abstractions.ErrorMappings) error {
	code := resp.StatusCode()
	if isSuccess(code) {
		return nil
	}
	headers := resp.Header().Clone()
	if headers == nil {
		headers = make(http.Header)
	}

	factory := errorFactoryFor(code, errorMappings)
	if factory == nil {
		return &abstractions.ApiError{
			Message:            fmt.Sprintf("the server returned an unexpected status code and no error class is registered for this code %d", code),
			ResponseStatusCode: code,
			ResponseHeaders:    headers,
		}
	}

	missingBody := func(cause error) error {
		return &abstractions.ApiError{
			Message:            fmt.Sprintf("service returned status code %d but no response body was found", code),
			ResponseStatusCode: code,
			ResponseHeaders:    headers,
			Err:                cause,
		}
	}

	node, err := a.getRootParseNode(resp)
	if err != nil {
		return missingBody(err)
	}
	if node == nil {
		return missingBody(nil)
	}
	model, err := node.GetObjectValue(factory)
	if err != nil {
		return missingBody(err)
	}
	if model == nil {
		return missingBody(nil)
	}

	if setter, ok := model.(abstractions.ResponseErrorSetter); ok {
		setter.SetStatusCode(code)
		setter.SetResponseHeaders(headers)
	}
	if mapped, ok := model.(error); ok {
		return mapped
	}
	return &abstractions.ApiError{
		Message:            fmt.Sprintf("the server returned status code %d", code),
		ResponseStatusCode: code,
		ResponseHeaders:    headers,
		Payload:            model,
	}
}
