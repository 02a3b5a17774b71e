package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.example.com/v1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "restyadapter-probe", cfg.AppName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.MaxRedirects)
	assert.Equal(t, "none", cfg.BackingStore)
	assert.Equal(t, 24*time.Hour, cfg.BackingStoreTTL)
	assert.Equal(t, "stream", cfg.ProbeKind)
	assert.Equal(t, "GET", cfg.ProbeMethod)
	assert.Empty(t, cfg.AllowedHosts)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("BASE_URL", "https://api.example.com")
	t.Setenv("LOG_LEVEL", " DEBUG ")
	t.Setenv("TIMEOUT_SECONDS", "5")
	t.Setenv("ACCESS_TOKEN", "secret")
	t.Setenv("ALLOWED_HOSTS", "api.example.com, localhost:8080")
	t.Setenv("BACKING_STORE", "BBolt")
	t.Setenv("BBOLT_PATH", "/tmp/store.db")
	t.Setenv("PROBE_METHOD", "post")
	t.Setenv("PROBE_KIND", "object")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "secret", cfg.AccessToken)
	assert.Equal(t, []string{"api.example.com", "localhost:8080"}, cfg.AllowedHosts)
	assert.Equal(t, "bbolt", cfg.BackingStore)
	assert.Equal(t, "/tmp/store.db", cfg.BBoltPath)
	assert.Equal(t, "POST", cfg.ProbeMethod)
	assert.Equal(t, "object", cfg.ProbeKind)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing base url", map[string]string{}},
		{"relative base url", map[string]string{"BASE_URL": "/v1"}},
		{"unknown backing store", map[string]string{"BASE_URL": "https://a.example.com", "BACKING_STORE": "redis"}},
		{"non positive timeout", map[string]string{"BASE_URL": "https://a.example.com", "TIMEOUT_SECONDS": "0"}},
		{"unknown method", map[string]string{"BASE_URL": "https://a.example.com", "PROBE_METHOD": "FETCH"}},
		{"bad log level", map[string]string{"BASE_URL": "https://a.example.com", "LOG_LEVEL": "loud"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSplitHosts(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, splitHosts([]string{"a, b", " ", "c,"}))
	assert.Nil(t, splitHosts(nil))
}
