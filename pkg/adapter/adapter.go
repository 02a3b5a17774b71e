// Package adapter implements abstractions.RequestAdapter on top of resty.
//
// Every send operation validates its arguments, hands off to a ResponseHandlerOption when the
// request carries one, and otherwise performs a single synchronous exchange (plus at most one
// retry for a 401 claims challenge) before interpreting the response.
package adapter

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-resty/resty/v2"

	"github.com/samvad-hq/restyadapter/pkg/abstractions"
	"github.com/samvad-hq/restyadapter/pkg/httpclient"
	"github.com/samvad-hq/restyadapter/pkg/serialization"
	"github.com/samvad-hq/restyadapter/pkg/serialization/jsonnode"
	"github.com/samvad-hq/restyadapter/pkg/serialization/textnode"
	"github.com/samvad-hq/restyadapter/pkg/serialization/yamlnode"
	"github.com/samvad-hq/restyadapter/pkg/store"
)

var _ abstractions.RequestAdapter = (*RestyRequestAdapter)(nil)

// RestyRequestAdapter sends request descriptors through a resty client.
type RestyRequestAdapter struct {
	client       *resty.Client
	authProvider abstractions.AuthenticationProvider
	log          Logger

	mu               sync.RWMutex
	baseUrl          string
	parseNodeFactory serialization.ParseNodeFactory
	writerFactory    serialization.SerializationWriterFactory
	storeFactory     store.BackingStoreFactory
}

// Option customizes a RestyRequestAdapter.
type Option func(*RestyRequestAdapter)

// WithHTTPClient sets the resty client. The default follows redirects and times out after 100s.
// The client is switched to send GET payloads.
func WithHTTPClient(client *resty.Client) Option {
	return func(a *RestyRequestAdapter) {
		if client != nil {
			a.client = client
		}
	}
}

// WithParseNodeFactory replaces the default json/text/yaml parse node registry.
func WithParseNodeFactory(factory serialization.ParseNodeFactory) Option {
	return func(a *RestyRequestAdapter) {
		if factory != nil {
			a.parseNodeFactory = factory
		}
	}
}

// WithSerializationWriterFactory replaces the default json/text writer registry.
func WithSerializationWriterFactory(factory serialization.SerializationWriterFactory) Option {
	return func(a *RestyRequestAdapter) {
		if factory != nil {
			a.writerFactory = factory
		}
	}
}

func WithLogger(log Logger) Option {
	return func(a *RestyRequestAdapter) { a.log = ensureLogger(log) }
}

func WithBaseUrl(baseUrl string) Option {
	return func(a *RestyRequestAdapter) { a.baseUrl = baseUrl }
}

// New builds an adapter. authProvider is required; use abstractions.AnonymousAuthenticationProvider
// for unauthenticated APIs.
func New(authProvider abstractions.AuthenticationProvider, opts ...Option) (*RestyRequestAdapter, error) {
	if authProvider == nil {
		return nil, errors.New("authentication provider cannot be nil")
	}
	a := &RestyRequestAdapter{
		authProvider: authProvider,
		log:          noopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	if a.client == nil {
		a.client = httpclient.NewRestyHTTPClient(httpclient.Options{})
	}
	a.client.SetAllowGetMethodPayload(true)
	if a.parseNodeFactory == nil {
		reg, err := DefaultParseNodeFactoryRegistry()
		if err != nil {
			return nil, err
		}
		a.parseNodeFactory = reg
	}
	if a.writerFactory == nil {
		reg, err := DefaultSerializationWriterFactoryRegistry()
		if err != nil {
			return nil, err
		}
		a.writerFactory = reg
	}
	return a, nil
}

// DefaultParseNodeFactoryRegistry returns a fresh registry for JSON, text and YAML payloads.
func DefaultParseNodeFactoryRegistry() (*serialization.ParseNodeFactoryRegistry, error) {
	reg, err := serialization.NewParseNodeFactoryRegistry(
		jsonnode.NewJsonParseNodeFactory(),
		textnode.NewTextParseNodeFactory(),
		yamlnode.NewYamlParseNodeFactory(),
		yamlnode.NewTextYamlParseNodeFactory(),
	)
	if err != nil {
		return nil, fmt.Errorf("build parse node registry: %w", err)
	}
	return reg, nil
}

// DefaultSerializationWriterFactoryRegistry returns a fresh registry for JSON and text payloads.
func DefaultSerializationWriterFactoryRegistry() (*serialization.SerializationWriterFactoryRegistry, error) {
	reg, err := serialization.NewSerializationWriterFactoryRegistry(
		jsonnode.NewJsonSerializationWriterFactory(),
		textnode.NewTextSerializationWriterFactory(),
	)
	if err != nil {
		return nil, fmt.Errorf("build serialization writer registry: %w", err)
	}
	return reg, nil
}

func (a *RestyRequestAdapter) GetBaseUrl() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.baseUrl
}

func (a *RestyRequestAdapter) SetBaseUrl(baseUrl string) {
	a.mu.Lock()
	a.baseUrl = baseUrl
	a.mu.Unlock()
}

func (a *RestyRequestAdapter) GetSerializationWriterFactory() serialization.SerializationWriterFactory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.writerFactory
}

func (a *RestyRequestAdapter) getParseNodeFactory() serialization.ParseNodeFactory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.parseNodeFactory
}

// EnableBackingStore wraps the parse node and writer factories so backed models track changes,
// and keeps factory as the store factory for models created through this adapter.
func (a *RestyRequestAdapter) EnableBackingStore(factory store.BackingStoreFactory) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.parseNodeFactory != nil {
		a.parseNodeFactory = store.NewBackingStoreParseNodeFactory(a.parseNodeFactory)
	}
	if a.writerFactory != nil {
		a.writerFactory = store.NewBackingStoreSerializationWriterProxyFactory(a.writerFactory)
	}
	if factory != nil {
		a.storeFactory = factory
	}
}

// GetBackingStoreFactory returns the factory set by EnableBackingStore, or nil.
func (a *RestyRequestAdapter) GetBackingStoreFactory() store.BackingStoreFactory {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.storeFactory
}
