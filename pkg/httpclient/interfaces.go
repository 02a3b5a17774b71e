package httpclient

import "net/http"

// Response is a minimal HTTP response contract. The body is fully buffered.
type Response interface {
	Body() []byte
	StatusCode() int
	Header() http.Header
}
