package serialization

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var vendorSpecificPattern = regexp.MustCompile(`[^/]+\+`)

// CleanContentType strips parameters and vendor prefixes:
// "application/vnd.api+json; charset=utf-8" becomes "application/json".
func CleanContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return vendorSpecificPattern.ReplaceAllString(ct, "")
}

var errRegistryContentType = errors.New("registries hold several content types; ask a registered factory instead")

// ParseNodeFactoryRegistry routes payloads to the parse-node factory registered for their content type.
type ParseNodeFactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]ParseNodeFactory
}

// NewParseNodeFactoryRegistry registers each factory under its own content type.
func NewParseNodeFactoryRegistry(factories ...ParseNodeFactory) (*ParseNodeFactoryRegistry, error) {
	r := &ParseNodeFactoryRegistry{factories: make(map[string]ParseNodeFactory)}
	for _, f := range factories {
		if f == nil {
			continue
		}
		ct, err := f.GetValidContentType()
		if err != nil {
			return nil, fmt.Errorf("resolve parse node factory content type: %w", err)
		}
		r.Register(ct, f)
	}
	return r, nil
}

// Register associates a factory with a content type.
func (r *ParseNodeFactoryRegistry) Register(contentType string, factory ParseNodeFactory) {
	if contentType = CleanContentType(contentType); contentType == "" || factory == nil {
		return
	}

	r.mu.Lock()
	r.factories[contentType] = factory
	r.mu.Unlock()
}

// ContentTypes lists the registered content types in sorted order.
func (r *ParseNodeFactoryRegistry) ContentTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.factories))
	for ct := range r.factories {
		out = append(out, ct)
	}
	sort.Strings(out)
	return out
}

func (r *ParseNodeFactoryRegistry) GetValidContentType() (string, error) {
	return "", errRegistryContentType
}

// GetRootParseNode parses content with the factory registered for contentType.
func (r *ParseNodeFactoryRegistry) GetRootParseNode(contentType string, content []byte) (ParseNode, error) {
	if strings.TrimSpace(contentType) == "" {
		return nil, errors.New("content type cannot be empty")
	}
	if len(content) == 0 {
		return nil, errors.New("content cannot be empty")
	}

	cleaned := CleanContentType(contentType)
	r.mu.RLock()
	factory := r.factories[cleaned]
	r.mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("content type %s does not have a factory registered to be parsed", cleaned)
	}
	return factory.GetRootParseNode(cleaned, content)
}

// SerializationWriterFactoryRegistry routes writer requests by content type.
type SerializationWriterFactoryRegistry struct {
	mu        sync.RWMutex
	factories map[string]SerializationWriterFactory
}

// NewSerializationWriterFactoryRegistry registers each factory under its own content type.
func NewSerializationWriterFactoryRegistry(factories ...SerializationWriterFactory) (*SerializationWriterFactoryRegistry, error) {
	r := &SerializationWriterFactoryRegistry{factories: make(map[string]SerializationWriterFactory)}
	for _, f := range factories {
		if f == nil {
			continue
		}
		ct, err := f.GetValidContentType()
		if err != nil {
			return nil, fmt.Errorf("resolve serialization writer factory content type: %w", err)
		}
		r.Register(ct, f)
	}
	return r, nil
}

// Register associates a factory with a content type.
func (r *SerializationWriterFactoryRegistry) Register(contentType string, factory SerializationWriterFactory) {
	if contentType = CleanContentType(contentType); contentType == "" || factory == nil {
		return
	}

	r.mu.Lock()
	r.factories[contentType] = factory
	r.mu.Unlock()
}

func (r *SerializationWriterFactoryRegistry) GetValidContentType() (string, error) {
	return "", errRegistryContentType
}

// GetSerializationWriter returns a writer from the factory registered for contentType.
func (r *SerializationWriterFactoryRegistry) GetSerializationWriter(contentType string) (SerializationWriter, error) {
	if strings.TrimSpace(contentType) == "" {
		return nil, errors.New("content type cannot be empty")
	}

	cleaned := CleanContentType(contentType)
	r.mu.RLock()
	factory := r.factories[cleaned]
	r.mu.RUnlock()

	if factory == nil {
		return nil, fmt.Errorf("content type %s does not have a factory registered to be serialized", cleaned)
	}
	return factory.GetSerializationWriter(cleaned)
}
