// Package abstractions holds the request descriptor, request options, error mapping and
// authentication contracts shared by generated clients and the request adapter.
package abstractions

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	stduritemplate "github.com/std-uritemplate/std-uritemplate/go/v2"

	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

// HttpMethod is the verb of a request.
type HttpMethod int

const (
	GET HttpMethod = iota
	POST
	PATCH
	DELETE
	OPTIONS
	CONNECT
	PUT
	TRACE
	HEAD
)

var methodNames = [...]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS", "CONNECT", "PUT", "TRACE", "HEAD"}

func (m HttpMethod) String() string {
	if int(m) < 0 || int(m) >= len(methodNames) {
		return fmt.Sprintf("HttpMethod(%d)", int(m))
	}
	return methodNames[m]
}

// ParseHttpMethod resolves a verb name, case-insensitively.
func ParseHttpMethod(name string) (HttpMethod, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for i, n := range methodNames {
		if n == upper {
			return HttpMethod(i), nil
		}
	}
	return GET, fmt.Errorf("unknown http method %q", name)
}

const (
	// RawUrlKey is the path parameter that, when set, replaces template expansion.
	RawUrlKey = "request-raw-url"
	// BaseUrlKey is the path parameter the adapter fills with its base URL.
	BaseUrlKey = "baseurl"

	contentTypeHeader  = "Content-Type"
	binaryContentType  = "application/octet-stream"
	baseUrlPlaceholder = "{+baseurl}"
)

// RequestInformation describes one API call before it is turned into a native request.
type RequestInformation struct {
	Method          HttpMethod
	UrlTemplate     string
	PathParameters  map[string]string
	QueryParameters map[string]string
	Headers         http.Header
	// Content is the request body. It can be replayed only when it also implements io.Seeker.
	Content io.Reader
	options []RequestOption
}

// NewRequestInformation returns an empty GET descriptor.
func NewRequestInformation() *RequestInformation {
	return &RequestInformation{
		PathParameters:  make(map[string]string),
		QueryParameters: make(map[string]string),
		Headers:         make(http.Header),
	}
}

// NewRequestInformationWithMethodAndUrlAndPathParameters builds a descriptor for a templated URL.
func NewRequestInformationWithMethodAndUrlAndPathParameters(method HttpMethod, urlTemplate string, pathParameters map[string]string) *RequestInformation {
	ri := NewRequestInformation()
	ri.Method = method
	ri.UrlTemplate = urlTemplate
	for k, v := range pathParameters {
		ri.PathParameters[k] = v
	}
	return ri
}

// GetUri expands the URL template with the path and query parameters.
func (r *RequestInformation) GetUri() (*url.URL, error) {
	if raw := r.PathParameters[RawUrlKey]; raw != "" {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse raw url: %w", err)
		}
		return u, nil
	}
	if r.UrlTemplate == "" {
		return nil, errors.New("url template is empty")
	}
	if strings.Contains(strings.ToLower(r.UrlTemplate), baseUrlPlaceholder) && r.PathParameters[BaseUrlKey] == "" {
		return nil, errors.New(`pathParameters must contain a value for "baseurl" for the url to be built`)
	}

	subs := make(stduritemplate.Substitutions, len(r.PathParameters)+len(r.QueryParameters))
	for k, v := range r.PathParameters {
		subs[k] = v
	}
	for k, v := range r.QueryParameters {
		subs[k] = v
	}
	expanded, err := stduritemplate.Expand(r.UrlTemplate, subs)
	if err != nil {
		return nil, fmt.Errorf("expand url template: %w", err)
	}
	u, err := url.Parse(expanded)
	if err != nil {
		return nil, fmt.Errorf("parse expanded url %q: %w", expanded, err)
	}
	return u, nil
}

// SetUri pins the request to an absolute URL, bypassing the template.
func (r *RequestInformation) SetUri(u *url.URL) {
	if u == nil {
		return
	}
	r.ensureMaps()
	for k := range r.PathParameters {
		delete(r.PathParameters, k)
	}
	for k := range r.QueryParameters {
		delete(r.QueryParameters, k)
	}
	r.PathParameters[RawUrlKey] = u.String()
}

func (r *RequestInformation) ensureMaps() {
	if r.PathParameters == nil {
		r.PathParameters = make(map[string]string)
	}
	if r.QueryParameters == nil {
		r.QueryParameters = make(map[string]string)
	}
	if r.Headers == nil {
		r.Headers = make(http.Header)
	}
}

// SetStreamContent sets a binary body.
func (r *RequestInformation) SetStreamContent(content io.Reader) {
	r.ensureMaps()
	r.Content = content
	r.Headers.Set(contentTypeHeader, binaryContentType)
}

// SetContentFromParsable serializes item with the adapter's writer factory.
func (r *RequestInformation) SetContentFromParsable(ctx context.Context, adapter RequestAdapter, contentType string, item serialization.Parsable) error {
	return r.setContent(ctx, adapter, contentType, func(w serialization.SerializationWriter) error {
		return w.WriteObjectValue("", item)
	})
}

// SetContentFromScalar serializes a single scalar value.
func (r *RequestInformation) SetContentFromScalar(ctx context.Context, adapter RequestAdapter, contentType string, value any) error {
	return r.setContent(ctx, adapter, contentType, func(w serialization.SerializationWriter) error {
		return w.WriteAnyValue("", value)
	})
}

func (r *RequestInformation) setContent(ctx context.Context, adapter RequestAdapter, contentType string, write func(serialization.SerializationWriter) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if adapter == nil {
		return errors.New("request adapter cannot be nil")
	}
	if contentType == "" {
		return errors.New("content type cannot be empty")
	}
	factory := adapter.GetSerializationWriterFactory()
	if factory == nil {
		return errors.New("request adapter has no serialization writer factory")
	}
	writer, err := factory.GetSerializationWriter(contentType)
	if err != nil {
		return fmt.Errorf("get serialization writer: %w", err)
	}
	defer writer.Close()

	if err := write(writer); err != nil {
		return fmt.Errorf("serialize request body: %w", err)
	}
	content, err := writer.GetSerializedContent()
	if err != nil {
		return fmt.Errorf("read serialized content: %w", err)
	}
	r.ensureMaps()
	r.Content = bytes.NewReader(content)
	r.Headers.Set(contentTypeHeader, contentType)
	return nil
}

// AddRequestOptions adds options, replacing any existing option with the same key.
func (r *RequestInformation) AddRequestOptions(options ...RequestOption) {
	for _, opt := range options {
		if opt == nil {
			continue
		}
		key := opt.GetKey()
		replaced := false
		for i, existing := range r.options {
			if existing.GetKey() == key {
				r.options[i] = opt
				replaced = true
				break
			}
		}
		if !replaced {
			r.options = append(r.options, opt)
		}
	}
}

// RemoveRequestOptions drops the options with the given keys.
func (r *RequestInformation) RemoveRequestOptions(keys ...RequestOptionKey) {
	kept := r.options[:0]
	for _, opt := range r.options {
		drop := false
		for _, k := range keys {
			if opt.GetKey() == k {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, opt)
		}
	}
	r.options = kept
}

// GetRequestOptions returns the options in insertion order.
func (r *RequestInformation) GetRequestOptions() []RequestOption {
	out := make([]RequestOption, len(r.options))
	copy(out, r.options)
	return out
}

// GetRequestOption returns the option registered under key, if any.
func (r *RequestInformation) GetRequestOption(key RequestOptionKey) (RequestOption, bool) {
	for _, opt := range r.options {
		if opt.GetKey() == key {
			return opt, true
		}
	}
	return nil, false
}
