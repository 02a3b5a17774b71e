// Package store tracks model property values and which of them changed since deserialization,
// so that writers can emit partial (PATCH-style) payloads.
package store

import (
	"fmt"
	"strings"
	"time"
)

// BackingStoreSubscriber is notified after a value is set.
type BackingStoreSubscriber func(key string, oldVal any, newVal any)

// BackingStore holds the property values of one model instance.
type BackingStore interface {
	Get(key string) (any, error)
	Set(key string, value any) error
	Enumerate() map[string]any
	EnumerateKeysForValuesChangedToNil() []string
	Subscribe(callback BackingStoreSubscriber) string
	SubscribeWithId(callback BackingStoreSubscriber, subscriptionId string) error
	Unsubscribe(subscriptionId string) error
	Clear()
	GetInitializationCompleted() bool
	SetInitializationCompleted(val bool)
	GetReturnOnlyChangedValues() bool
	SetReturnOnlyChangedValues(val bool)
}

// BackedModel is a model whose properties live in a BackingStore.
type BackedModel interface {
	GetBackingStore() BackingStore
}

// BackingStoreFactory creates the store of a new model instance.
type BackingStoreFactory func() BackingStore

// Options controls retention for persisted stores.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	Logger          Logger
}

const (
	defaultTTL             = 24 * time.Hour
	defaultCleanupInterval = time.Hour
)

// Backend produces backing stores of one kind.
type Backend interface {
	// Factory returns nil when backing stores are disabled.
	Factory() BackingStoreFactory
	Close() error
}

// Open creates the configured backend: none, memory or bbolt.
func Open(typ, path string, opts Options) (Backend, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopBackend{}, nil
	case "memory":
		return memoryBackend{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt backing store requires a path")
		}
		return OpenBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported backing store type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	opts.Logger = ensureLogger(opts.Logger)
	return opts
}

type noopBackend struct{}

func (noopBackend) Factory() BackingStoreFactory { return nil }
func (noopBackend) Close() error                 { return nil }

type memoryBackend struct{}

func (memoryBackend) Factory() BackingStoreFactory {
	return func() BackingStore { return NewInMemoryBackingStore() }
}
func (memoryBackend) Close() error { return nil }
