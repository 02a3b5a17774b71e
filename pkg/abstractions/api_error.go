package abstractions

import (
	"errors"
	"net/http"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

// ErrorMappings maps a status code ("404") or a class wildcard ("4XX", "5XX") to the factory of
// the error model raised for it.
type ErrorMappings map[string]serialization.ParsableFactory

// ResponseErrorSetter is implemented by error models that want the status and headers of the
// response that produced them.
type ResponseErrorSetter interface {
	SetStatusCode(code int)
	SetResponseHeaders(headers http.Header)
}

// ApiError is returned for failed responses that have no usable error model.
type ApiError struct {
	Message            string
	ResponseStatusCode int
	ResponseHeaders    http.Header
	// Payload holds a mapped error model that does not itself implement error.
	Payload any
	Err     error
}

func (e *ApiError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "error status code received from the API"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ApiError) Unwrap() error { return e.Err }

func (e *ApiError) SetStatusCode(code int) { e.ResponseStatusCode = code }

func (e *ApiError) SetResponseHeaders(headers http.Header) { e.ResponseHeaders = headers }

// IsApiError reports whether err wraps an *ApiError.
func IsApiError(err error) (*ApiError, bool) {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
