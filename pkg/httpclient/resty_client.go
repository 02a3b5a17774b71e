package httpclient

import (
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout      = 100 * time.Second
	defaultMaxRedirects = 10
)

// Options configures the resty client used by the request adapter.
type Options struct {
	Timeout      time.Duration
	MaxRedirects int
	UserAgent    string
	Headers      map[string]string
	Debug        bool
}

// NewRestyHTTPClient returns a resty.Client following up to MaxRedirects redirects.
// GET payloads are sent like any other body.
func NewRestyHTTPClient(opts Options) *resty.Client {
	return newRestyBaseClient(opts)
}

func newRestyBaseClient(opts Options) *resty.Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.MaxRedirects <= 0 {
		opts.MaxRedirects = defaultMaxRedirects
	}

	c := resty.New()
	c.SetTimeout(opts.Timeout)
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(opts.MaxRedirects))
	c.SetAllowGetMethodPayload(true)
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}
	if len(opts.Headers) > 0 {
		c.SetHeaders(opts.Headers)
	}
	c.SetDebug(opts.Debug)
	return c
}

// FromResty adapts a resty response. A nil response yields nil.
func FromResty(resp *resty.Response) Response {
	if resp == nil {
		return nil
	}
	return &restyResponseAdapter{resp: resp}
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	resp *resty.Response
}

func (r *restyResponseAdapter) Body() []byte        { return r.resp.Body() }
func (r *restyResponseAdapter) StatusCode() int     { return r.resp.StatusCode() }
func (r *restyResponseAdapter) Header() http.Header { return r.resp.Header() }
