package abstractions

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

const (
	// ClaimsKey carries a step-up claims challenge in the additional authentication context.
	ClaimsKey = "claims"

	authorizationHeader = "Authorization"
)

// AuthenticationProvider decorates a request with credentials before it is sent.
type AuthenticationProvider interface {
	AuthenticateRequest(ctx context.Context, request *RequestInformation, additionalAuthenticationContext map[string]any) error
}

// AnonymousAuthenticationProvider leaves requests untouched.
type AnonymousAuthenticationProvider struct{}

func (AnonymousAuthenticationProvider) AuthenticateRequest(context.Context, *RequestInformation, map[string]any) error {
	return nil
}

// AccessTokenProvider returns bearer tokens for a target URL.
type AccessTokenProvider interface {
	GetAuthorizationToken(ctx context.Context, uri *url.URL, additionalAuthenticationContext map[string]any) (string, error)
	GetAllowedHostsValidator() *AllowedHostsValidator
}

// BaseBearerTokenAuthenticationProvider sets an Authorization: Bearer header from an AccessTokenProvider.
type BaseBearerTokenAuthenticationProvider struct {
	accessTokenProvider AccessTokenProvider
}

// NewBaseBearerTokenAuthenticationProvider wraps provider.
func NewBaseBearerTokenAuthenticationProvider(provider AccessTokenProvider) *BaseBearerTokenAuthenticationProvider {
	return &BaseBearerTokenAuthenticationProvider{accessTokenProvider: provider}
}

// AuthenticateRequest adds the header unless one is present. A claims challenge in the
// additional context discards the existing header so a fresh token is requested.
func (p *BaseBearerTokenAuthenticationProvider) AuthenticateRequest(ctx context.Context, request *RequestInformation, additionalAuthenticationContext map[string]any) error {
	if request == nil {
		return errors.New("request cannot be nil")
	}
	if p.accessTokenProvider == nil {
		return errors.New("access token provider cannot be nil")
	}
	request.ensureMaps()

	if claims, ok := additionalAuthenticationContext[ClaimsKey].(string); ok && claims != "" {
		request.Headers.Del(authorizationHeader)
	}
	if request.Headers.Get(authorizationHeader) != "" {
		return nil
	}

	uri, err := request.GetUri()
	if err != nil {
		return err
	}
	token, err := p.accessTokenProvider.GetAuthorizationToken(ctx, uri, additionalAuthenticationContext)
	if err != nil {
		return err
	}
	if token != "" {
		request.Headers.Set(authorizationHeader, "Bearer "+token)
	}
	return nil
}

// GetAuthorizationTokenProvider returns the wrapped provider.
func (p *BaseBearerTokenAuthenticationProvider) GetAuthorizationTokenProvider() AccessTokenProvider {
	return p.accessTokenProvider
}

// AllowedHostsValidator restricts which hosts receive tokens. An empty list allows every host.
type AllowedHostsValidator struct {
	mu    sync.RWMutex
	hosts map[string]struct{}
}

// NewAllowedHostsValidator returns a validator for hosts.
func NewAllowedHostsValidator(hosts []string) *AllowedHostsValidator {
	v := &AllowedHostsValidator{}
	v.SetAllowedHosts(hosts)
	return v
}

// SetAllowedHosts replaces the allowed host list. Entries are lower-cased; schemes are rejected silently.
func (v *AllowedHostsValidator) SetAllowedHosts(hosts []string) {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || strings.Contains(h, "://") {
			continue
		}
		set[h] = struct{}{}
	}
	v.mu.Lock()
	v.hosts = set
	v.mu.Unlock()
}

// GetAllowedHosts lists the allowed hosts in sorted order.
func (v *AllowedHostsValidator) GetAllowedHosts() []string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	out := make([]string, 0, len(v.hosts))
	for h := range v.hosts {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}

// IsUrlHostValid reports whether u may receive a token.
func (v *AllowedHostsValidator) IsUrlHostValid(u *url.URL) bool {
	if u == nil {
		return false
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	if len(v.hosts) == 0 {
		return true
	}
	host := strings.ToLower(u.Hostname())
	if _, ok := v.hosts[host]; ok {
		return true
	}
	_, ok := v.hosts[strings.ToLower(u.Host)]
	return ok
}

// StaticAccessTokenProvider hands out a fixed token to allowed hosts. Plain http is refused
// except for localhost.
type StaticAccessTokenProvider struct {
	token     string
	validator *AllowedHostsValidator
}

// NewStaticAccessTokenProvider returns a provider for token restricted to allowedHosts.
func NewStaticAccessTokenProvider(token string, allowedHosts []string) *StaticAccessTokenProvider {
	return &StaticAccessTokenProvider{token: token, validator: NewAllowedHostsValidator(allowedHosts)}
}

func (p *StaticAccessTokenProvider) GetAuthorizationToken(ctx context.Context, uri *url.URL, _ map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !p.validator.IsUrlHostValid(uri) {
		return "", nil
	}
	if !strings.EqualFold(uri.Scheme, "https") && !isLocalhost(uri) {
		return "", fmt.Errorf("refusing to send access token over %q to %s: https is required", uri.Scheme, uri.Host)
	}
	return p.token, nil
}

func isLocalhost(u *url.URL) bool {
	switch strings.ToLower(u.Hostname()) {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

func (p *StaticAccessTokenProvider) GetAllowedHostsValidator() *AllowedHostsValidator {
	return p.validator
}
