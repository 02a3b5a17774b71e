package httpclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRestyHTTPClientDefaults(t *testing.T) {
	c := NewRestyHTTPClient(Options{})
	assert.Equal(t, defaultTimeout, c.GetClient().Timeout)
	assert.True(t, c.AllowGetMethodPayload)

	c = NewRestyHTTPClient(Options{Timeout: time.Second, UserAgent: "ua/1", Headers: map[string]string{"X-Env": "test"}})
	assert.Equal(t, time.Second, c.GetClient().Timeout)
	assert.Equal(t, "ua/1", c.Header.Get("User-Agent"))
	assert.Equal(t, "test", c.Header.Get("X-Env"))
}

func TestRedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	c := NewRestyHTTPClient(Options{MaxRedirects: 2})
	_, err := c.R().Get(srv.URL + "/")
	assert.Error(t, err)
}

func TestFromResty(t *testing.T) {
	assert.Nil(t, FromResty(nil))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("X-Id", "1")
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	resp, err := NewRestyHTTPClient(Options{}).R().Get(srv.URL)
	require.NoError(t, err)
	adapted := FromResty(resp)
	assert.Equal(t, http.StatusAccepted, adapted.StatusCode())
	assert.Equal(t, "1", adapted.Header().Get("X-Id"))
	assert.Equal(t, []byte("ok"), adapted.Body())
}
