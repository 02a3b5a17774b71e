package abstractions

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBearerProviderAddsToken(t *testing.T) {
	provider := NewBaseBearerTokenAuthenticationProvider(NewStaticAccessTokenProvider("abc", []string{"graph.example.com"}))
	ri := NewRequestInformationWithMethodAndUrlAndPathParameters(GET, "{+baseurl}/me", map[string]string{"baseurl": "https://graph.example.com"})

	require.NoError(t, provider.AuthenticateRequest(context.Background(), ri, nil))
	assert.Equal(t, "Bearer abc", ri.Headers.Get("Authorization"))
}

func TestBearerProviderSkipsDisallowedHosts(t *testing.T) {
	provider := NewBaseBearerTokenAuthenticationProvider(NewStaticAccessTokenProvider("abc", []string{"graph.example.com"}))
	ri := NewRequestInformationWithMethodAndUrlAndPathParameters(GET, "{+baseurl}/me", map[string]string{"baseurl": "https://evil.example.com"})

	require.NoError(t, provider.AuthenticateRequest(context.Background(), ri, nil))
	assert.Empty(t, ri.Headers.Get("Authorization"))
}

func TestStaticTokenRequiresHttps(t *testing.T) {
	provider := NewStaticAccessTokenProvider("abc", nil)
	parse := func(raw string) *url.URL {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return u
	}
	cases := []struct {
		raw     string
		wantErr bool
	}{
		{"https://graph.example.com/me", false},
		{"http://graph.example.com/me", true},
		{"http://localhost:8080/me", false},
		{"http://127.0.0.1:8080/me", false},
		{"http://[::1]:8080/me", false},
	}
	for _, tc := range cases {
		token, err := provider.GetAuthorizationToken(context.Background(), parse(tc.raw), nil)
		if tc.wantErr {
			assert.Error(t, err, tc.raw)
			assert.Empty(t, token, tc.raw)
			continue
		}
		require.NoError(t, err, tc.raw)
		assert.Equal(t, "abc", token, tc.raw)
	}

	bearer := NewBaseBearerTokenAuthenticationProvider(provider)
	ri := NewRequestInformationWithMethodAndUrlAndPathParameters(GET, "{+baseurl}/me", map[string]string{"baseurl": "http://graph.example.com"})
	assert.Error(t, bearer.AuthenticateRequest(context.Background(), ri, nil))
	assert.Empty(t, ri.Headers.Get("Authorization"))
}

type claimsAwareProvider struct {
	seen []string
}

func (p *claimsAwareProvider) GetAuthorizationToken(_ context.Context, _ *url.URL, additional map[string]any) (string, error) {
	c, _ := additional[ClaimsKey].(string)
	p.seen = append(p.seen, c)
	return fmt.Sprintf("token-%d", len(p.seen)), nil
}

func (p *claimsAwareProvider) GetAllowedHostsValidator() *AllowedHostsValidator {
	return NewAllowedHostsValidator(nil)
}

func TestBearerProviderReplacesHeaderForClaims(t *testing.T) {
	tokens := &claimsAwareProvider{}
	provider := NewBaseBearerTokenAuthenticationProvider(tokens)
	ri := NewRequestInformationWithMethodAndUrlAndPathParameters(GET, "{+baseurl}/me", map[string]string{"baseurl": "https://graph.example.com"})

	require.NoError(t, provider.AuthenticateRequest(context.Background(), ri, nil))
	require.NoError(t, provider.AuthenticateRequest(context.Background(), ri, map[string]any{}))
	assert.Equal(t, "Bearer token-1", ri.Headers.Get("Authorization"))

	require.NoError(t, provider.AuthenticateRequest(context.Background(), ri, map[string]any{ClaimsKey: "xyz"}))
	assert.Equal(t, "Bearer token-2", ri.Headers.Get("Authorization"))
	assert.Equal(t, []string{"", "xyz"}, tokens.seen)
}

func TestBearerProviderRejectsMissingInputs(t *testing.T) {
	assert.Error(t, NewBaseBearerTokenAuthenticationProvider(nil).AuthenticateRequest(context.Background(), NewRequestInformation(), nil))
	assert.Error(t, NewBaseBearerTokenAuthenticationProvider(&claimsAwareProvider{}).AuthenticateRequest(context.Background(), nil, nil))
}

func TestAnonymousProviderLeavesRequestAlone(t *testing.T) {
	ri := NewRequestInformation()
	require.NoError(t, AnonymousAuthenticationProvider{}.AuthenticateRequest(context.Background(), ri, nil))
	assert.Empty(t, ri.Headers)
}

func TestAllowedHostsValidator(t *testing.T) {
	v := NewAllowedHostsValidator([]string{"API.example.com", "https://bad.example.com", "local:8080", " "})
	assert.Equal(t, []string{"api.example.com", "local:8080"}, v.GetAllowedHosts())

	mustParse := func(raw string) *url.URL {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		return u
	}
	assert.True(t, v.IsUrlHostValid(mustParse("https://api.example.com/x")))
	assert.True(t, v.IsUrlHostValid(mustParse("http://local:8080/x")))
	assert.False(t, v.IsUrlHostValid(mustParse("https://other.example.com")))
	assert.False(t, v.IsUrlHostValid(nil))

	v.SetAllowedHosts(nil)
	assert.True(t, v.IsUrlHostValid(mustParse("https://other.example.com")))
}

func TestApiError(t *testing.T) {
	cause := errors.New("boom")
	err := error(&ApiError{Message: "bad", Err: cause})
	assert.Equal(t, "bad: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	wrapped := fmt.Errorf("call: %w", &ApiError{ResponseStatusCode: 500})
	apiErr, ok := IsApiError(wrapped)
	require.True(t, ok)
	assert.Equal(t, 500, apiErr.ResponseStatusCode)
	assert.Equal(t, "error status code received from the API", apiErr.Error())

	_, ok = IsApiError(cause)
	assert.False(t, ok)
}
