package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/samvad-hq/restyadapter/internal/config"
	"github.com/samvad-hq/restyadapter/internal/logger"
	"github.com/samvad-hq/restyadapter/pkg/abstractions"
	"github.com/samvad-hq/restyadapter/pkg/adapter"
	"github.com/samvad-hq/restyadapter/pkg/httpclient"
	"github.com/samvad-hq/restyadapter/pkg/serialization"
	"github.com/samvad-hq/restyadapter/pkg/store"
)

// KindObject asks the probe for the body as a JSON/YAML object kept as additional data.
const KindObject = "object"

const probeUrlTemplate = "{+baseurl}{+path}"

// Runtime wires configuration, authentication, the resty client and the request adapter.
type Runtime struct {
	cfg     *config.Config
	adapter *adapter.RestyRequestAdapter
	backend store.Backend
	log     logger.Logger
}

// NewRuntime builds the adapter described by cfg.
func NewRuntime(cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}

	var auth abstractions.AuthenticationProvider = abstractions.AnonymousAuthenticationProvider{}
	if cfg.AccessToken != "" {
		auth = abstractions.NewBaseBearerTokenAuthenticationProvider(
			abstractions.NewStaticAccessTokenProvider(cfg.AccessToken, cfg.AllowedHosts),
		)
	}

	client := httpclient.NewRestyHTTPClient(httpclient.Options{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UserAgent:    cfg.UserAgent,
	})
	ad, err := adapter.New(auth,
		adapter.WithHTTPClient(client),
		adapter.WithBaseUrl(strings.TrimRight(cfg.BaseURL, "/")),
		adapter.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("init request adapter: %w", err)
	}

	backend, err := store.Open(cfg.BackingStore, cfg.BBoltPath, store.Options{TTL: cfg.BackingStoreTTL, Logger: log})
	if err != nil {
		return nil, fmt.Errorf("init backing store: %w", err)
	}
	if factory := backend.Factory(); factory != nil {
		ad.EnableBackingStore(factory)
	}
	log.InfoObj("request adapter initialized", "adapter_config", map[string]any{
		"base_url":      ad.GetBaseUrl(),
		"authenticated": cfg.AccessToken != "",
		"backing_store": cfg.BackingStore,
		"timeout":       cfg.Timeout.String(),
		"max_redirects": cfg.MaxRedirects,
	})

	return &Runtime{cfg: cfg, adapter: ad, backend: backend, log: log}, nil
}

// Adapter exposes the configured request adapter.
func (r *Runtime) Adapter() *adapter.RestyRequestAdapter { return r.adapter }

// ProbeResult is the outcome of one probe request.
type ProbeResult struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Value  any    `json:"value"`
}

// Probe sends the configured probe request and reads the body as the configured kind.
func (r *Runtime) Probe(ctx context.Context) (*ProbeResult, error) {
	method, err := abstractions.ParseHttpMethod(r.cfg.ProbeMethod)
	if err != nil {
		return nil, err
	}
	ri := abstractions.NewRequestInformationWithMethodAndUrlAndPathParameters(method, probeUrlTemplate, map[string]string{
		"path": r.cfg.ProbePath,
	})
	kind := strings.ToLower(strings.TrimSpace(r.cfg.ProbeKind))
	result := &ProbeResult{Method: method.String(), Path: r.cfg.ProbePath, Kind: kind}

	if kind == KindObject {
		model, err := r.adapter.Send(ctx, ri, newDocument, nil)
		if err != nil {
			return nil, err
		}
		if doc, ok := model.(*document); ok {
			result.Value = doc.GetAdditionalData()
		}
		return result, nil
	}

	primitive, err := serialization.ParsePrimitiveKind(kind)
	if err != nil {
		return nil, err
	}
	value, err := r.adapter.SendPrimitive(ctx, ri, primitive, nil)
	if err != nil {
		return nil, err
	}
	if stream, ok := value.(io.ReadCloser); ok {
		defer stream.Close()
		body, err := io.ReadAll(stream)
		if err != nil {
			return nil, fmt.Errorf("read probe body: %w", err)
		}
		value = string(body)
	}
	result.Value = value
	return result, nil
}

// Close releases the backing store.
func (r *Runtime) Close() error {
	if r == nil || r.backend == nil {
		return nil
	}
	if err := r.backend.Close(); err != nil {
		r.log.ErrorObj("backing store close failed", "error", err)
		return err
	}
	return nil
}
