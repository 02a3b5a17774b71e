package store

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type storedValue struct {
	changed bool
	value   any
}

// InMemoryBackingStore keeps values in a map guarded by an RWMutex.
type InMemoryBackingStore struct {
	mu                      sync.RWMutex
	values                  map[string]storedValue
	subscribers             map[string]BackingStoreSubscriber
	initializationCompleted bool
	returnOnlyChangedValues bool
}

// NewInMemoryBackingStore returns an empty store with initialization completed, so values set by
// callers count as changed.
func NewInMemoryBackingStore() *InMemoryBackingStore {
	return &InMemoryBackingStore{
		values:                  make(map[string]storedValue),
		subscribers:             make(map[string]BackingStoreSubscriber),
		initializationCompleted: true,
	}
}

// Get returns the value for key. While returning only changed values, unchanged ones read as nil.
func (s *InMemoryBackingStore) Get(key string) (any, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errors.New("key cannot be empty")
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	if !ok {
		return nil, nil
	}
	if s.returnOnlyChangedValues && !v.changed {
		return nil, nil
	}
	return v.value, nil
}

// Set stores value and notifies subscribers. Setting an equal value is a no-op.
func (s *InMemoryBackingStore) Set(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("key cannot be empty")
	}

	s.mu.Lock()
	current, exists := s.values[key]
	if exists && sameValue(current.value, value) {
		s.mu.Unlock()
		return nil
	}
	s.values[key] = storedValue{changed: s.initializationCompleted, value: value}
	subscribers := s.snapshotSubscribers()
	s.mu.Unlock()

	if nested, ok := value.(BackedModel); ok && nested.GetBackingStore() != nil {
		_ = nested.GetBackingStore().SubscribeWithId(func(string, any, any) { s.markChanged(key) }, key)
	}
	for _, cb := range subscribers {
		cb(key, current.value, value)
	}
	return nil
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return false
}

func (s *InMemoryBackingStore) markChanged(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initializationCompleted {
		return
	}
	if v, ok := s.values[key]; ok {
		v.changed = true
		s.values[key] = v
	}
}

func (s *InMemoryBackingStore) snapshotSubscribers() []BackingStoreSubscriber {
	ids := make([]string, 0, len(s.subscribers))
	for id := range s.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]BackingStoreSubscriber, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.subscribers[id])
	}
	return out
}

// Enumerate returns a copy of the visible values.
func (s *InMemoryBackingStore) Enumerate() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		if s.returnOnlyChangedValues && !v.changed {
			continue
		}
		out[k] = v.value
	}
	return out
}

// EnumerateKeysForValuesChangedToNil lists keys explicitly set to nil after initialization.
func (s *InMemoryBackingStore) EnumerateKeysForValuesChangedToNil() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k, v := range s.values {
		if v.changed && isNil(v.value) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// Subscribe registers callback under a generated id.
func (s *InMemoryBackingStore) Subscribe(callback BackingStoreSubscriber) string {
	id := uuid.NewString()
	_ = s.SubscribeWithId(callback, id)
	return id
}

func (s *InMemoryBackingStore) SubscribeWithId(callback BackingStoreSubscriber, subscriptionId string) error {
	subscriptionId = strings.TrimSpace(subscriptionId)
	if subscriptionId == "" {
		return errors.New("subscription id cannot be empty")
	}
	if callback == nil {
		return errors.New("callback cannot be nil")
	}
	s.mu.Lock()
	s.subscribers[subscriptionId] = callback
	s.mu.Unlock()
	return nil
}

func (s *InMemoryBackingStore) Unsubscribe(subscriptionId string) error {
	subscriptionId = strings.TrimSpace(subscriptionId)
	if subscriptionId == "" {
		return errors.New("subscription id cannot be empty")
	}
	s.mu.Lock()
	delete(s.subscribers, subscriptionId)
	s.mu.Unlock()
	return nil
}

func (s *InMemoryBackingStore) Clear() {
	s.mu.Lock()
	s.values = make(map[string]storedValue)
	s.mu.Unlock()
}

func (s *InMemoryBackingStore) GetInitializationCompleted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializationCompleted
}

// SetInitializationCompleted marks every value unchanged (true) or changed (false), including
// the stores of nested models.
func (s *InMemoryBackingStore) SetInitializationCompleted(val bool) {
	s.mu.Lock()
	s.initializationCompleted = val
	var nested []BackingStore
	for k, v := range s.values {
		v.changed = !val
		s.values[k] = v
		if m, ok := v.value.(BackedModel); ok && m.GetBackingStore() != nil {
			nested = append(nested, m.GetBackingStore())
		}
	}
	s.mu.Unlock()

	for _, n := range nested {
		n.SetInitializationCompleted(val)
	}
}

func (s *InMemoryBackingStore) GetReturnOnlyChangedValues() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.returnOnlyChangedValues
}

func (s *InMemoryBackingStore) SetReturnOnlyChangedValues(val bool) {
	s.mu.Lock()
	s.returnOnlyChangedValues = val
	var nested []BackingStore
	for _, v := range s.values {
		if m, ok := v.value.(BackedModel); ok && m.GetBackingStore() != nil {
			nested = append(nested, m.GetBackingStore())
		}
	}
	s.mu.Unlock()

	for _, n := range nested {
		n.SetReturnOnlyChangedValues(val)
	}
}
