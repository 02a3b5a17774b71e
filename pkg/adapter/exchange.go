package adapter

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/restyadapter/pkg/abstractions"
	"github.com/samvad-hq/restyadapter/pkg/httpclient"
	"github.com/samvad-hq/restyadapter/pkg/serialization"
)

const (
	contentTypeHeader     = "Content-Type"
	authenticateHeader    = "WWW-Authenticate"
	opBuildRequest        = "build request"
	opSend                = "send"
	opRewindRequestBody   = "rewind request body"
	opReadRequestBody     = "read request body"
	opAuthenticateRequest = "authenticate request"
)

var (
	bearerPattern       = regexp.MustCompile(`(?i)^Bearer\s.*`)
	bearerPrefixPattern = regexp.MustCompile(`(?i)^Bearer\s`)
	claimsPattern       = regexp.MustCompile(`(?i)^\s?claims="([^"]+)"$`)
)

type exchangeResult struct {
	resp *resty.Response
	err  error
}

// getHttpResponseMessage authenticates, sends and, when challenged, re-sends ri once.
func (a *RestyRequestAdapter) getHttpResponseMessage(ctx context.Context, ri *abstractions.RequestInformation, claims string) (httpclient.Response, error) {
	a.setBaseUrlForRequestInformation(ri)

	additionalContext := make(map[string]any)
	if claims != "" {
		additionalContext[abstractions.ClaimsKey] = claims
	}
	if err := a.authProvider.AuthenticateRequest(ctx, ri, additionalContext); err != nil {
		return nil, &TransportError{Op: opAuthenticateRequest, Err: err}
	}

	req, err := a.getRequestFromRequestInformation(ctx, ri)
	if err != nil {
		return nil, err
	}
	resp, err := a.dispatch(ctx, req)
	if err != nil {
		return nil, err
	}
	return a.retryCAEResponseIfRequired(ctx, resp, ri, claims)
}

// dispatch runs the blocking resty call on its own goroutine and waits for it or for ctx.
// The channel is buffered so an abandoned exchange never blocks its goroutine.
func (a *RestyRequestAdapter) dispatch(ctx context.Context, req *resty.Request) (httpclient.Response, error) {
	done := make(chan exchangeResult, 1)
	start := time.Now()
	go func() {
		resp, err := req.Send()
		done <- exchangeResult{resp: resp, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, &TransportError{Op: opSend, Method: req.Method, URL: req.URL, Err: res.err}
		}
		a.log.DebugObj("http exchange completed", "exchange", map[string]any{
			"method":     req.Method,
			"url":        req.URL,
			"status":     res.resp.StatusCode(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		})
		return httpclient.FromResty(res.resp), nil
	case <-ctx.Done():
		return nil, &TransportError{Op: opSend, Method: req.Method, URL: req.URL, Err: ctx.Err()}
	}
}

// retryCAEResponseIfRequired re-issues the request once when a 401 carries a claims challenge.
// The second response is returned as is, whatever its status.
func (a *RestyRequestAdapter) retryCAEResponseIfRequired(ctx context.Context, resp httpclient.Response, ri *abstractions.RequestInformation, claims string) (httpclient.Response, error) {
	responseClaims := getClaimsFromResponse(resp, ri, claims)
	if responseClaims == "" {
		return resp, nil
	}
	if seeker, ok := ri.Content.(io.Seeker); ok {
		if _, err := seeker.Seek(0, io.SeekStart); err != nil {
			return nil, &TransportError{Op: opRewindRequestBody, Err: err}
		}
	}
	a.log.InfoObj("retrying request after claims challenge", "retry", map[string]any{
		"method": ri.Method.String(),
		"status": resp.StatusCode(),
	})
	return a.getHttpResponseMessage(ctx, ri, responseClaims)
}

// getClaimsFromResponse extracts the claims directive of the first Bearer challenge. It returns
// "" unless the response is a 401, no claims were sent yet and the body can be replayed.
func getClaimsFromResponse(resp httpclient.Response, ri *abstractions.RequestInformation, claims string) string {
	if resp.StatusCode() != http.StatusUnauthorized || claims != "" || !isRewindable(ri.Content) {
		return ""
	}
	for _, entry := range resp.Header().Values(authenticateHeader) {
		if !bearerPattern.MatchString(entry) {
			continue
		}
		raw := bearerPrefixPattern.ReplaceAllString(entry, "")
		for _, parameter := range strings.Split(raw, ",") {
			if m := claimsPattern.FindStringSubmatch(parameter); m != nil {
				return m[1]
			}
		}
		return ""
	}
	return ""
}

func isRewindable(content io.Reader) bool {
	if content == nil {
		return true
	}
	_, ok := content.(io.Seeker)
	return ok
}

func (a *RestyRequestAdapter) setBaseUrlForRequestInformation(ri *abstractions.RequestInformation) {
	if ri.PathParameters == nil {
		ri.PathParameters = make(map[string]string)
	}
	ri.PathParameters[abstractions.BaseUrlKey] = a.GetBaseUrl()
}

// getRequestFromRequestInformation builds the resty request. The body is attached only when the
// content yields at least one byte.
func (a *RestyRequestAdapter) getRequestFromRequestInformation(ctx context.Context, ri *abstractions.RequestInformation) (*resty.Request, error) {
	uri, err := ri.GetUri()
	if err != nil {
		return nil, &TransportError{Op: opBuildRequest, Err: err}
	}

	req := a.client.R().SetContext(ctx)
	req.Method = ri.Method.String()
	req.URL = uri.String()
	for name, values := range ri.Headers {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}

	if ri.Content != nil {
		body, err := io.ReadAll(ri.Content)
		if err != nil {
			return nil, &TransportError{Op: opReadRequestBody, Method: req.Method, URL: req.URL, Err: err}
		}
		if len(body) > 0 {
			req.SetBody(body)
		}
	}
	return req, nil
}

// ConvertToNativeRequest returns the authenticated *resty.Request for ri without sending it.
func (a *RestyRequestAdapter) ConvertToNativeRequest(ctx context.Context, ri *abstractions.RequestInformation) (any, error) {
	return a.ToRestyRequest(ctx, ri)
}

// ToRestyRequest is ConvertToNativeRequest with a concrete return type.
func (a *RestyRequestAdapter) ToRestyRequest(ctx context.Context, ri *abstractions.RequestInformation) (*resty.Request, error) {
	if ri == nil {
		return nil, ErrNilRequestInfo
	}
	a.setBaseUrlForRequestInformation(ri)
	if err := a.authProvider.AuthenticateRequest(ctx, ri, map[string]any{}); err != nil {
		return nil, &TransportError{Op: opAuthenticateRequest, Err: err}
	}
	return a.getRequestFromRequestInformation(ctx, ri)
}

// getRootParseNode returns nil when the response has no body or no content type.
func (a *RestyRequestAdapter) getRootParseNode(resp httpclient.Response) (serialization.ParseNode, error) {
	body := resp.Body()
	if len(body) == 0 {
		return nil, nil
	}
	contentType := resp.Header().Get(contentTypeHeader)
	if contentType == "" {
		return nil, nil
	}
	factory := a.getParseNodeFactory()
	if factory == nil {
		return nil, ErrNoParseNodeFactory
	}
	node, err := factory.GetRootParseNode(contentType, body)
	if err != nil {
		return nil, fmt.Errorf("parse %s response: %w", serialization.CleanContentType(contentType), err)
	}
	return node, nil
}
