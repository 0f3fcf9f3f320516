// Package providers resolves responder implementations by name.
//
// The bundled backends register themselves in the default registry; callers
// embedding the engine can register their own factories alongside them.
package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/agentry-dev/agentry/pkg/ports"
	"github.com/agentry-dev/agentry/pkg/providers/mock"
	"github.com/agentry-dev/agentry/pkg/providers/openaiapi"
)

// Settings carries the flat configuration a factory may need. Factories
// ignore the fields that do not apply to them.
type Settings struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Factory builds a responder from settings.
type Factory func(s Settings) (ports.Responder, error)

// Registry maps provider names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory under the given name. An existing factory with the
// same name is overwritten.
func (r *Registry) Register(name string, fn Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = fn
}

// New resolves a factory by name and builds the responder. The empty name
// resolves to "mock" so bare configurations stay runnable offline.
func (r *Registry) New(name string, s Settings) (ports.Responder, error) {
	if name == "" {
		name = "mock"
	}

	r.mu.RLock()
	fn, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %s)",
			name, strings.Join(r.Names(), ", "))
	}
	return fn(s)
}

// Names lists the registered provider names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register("mock", func(s Settings) (ports.Responder, error) {
		return mock.New("ok"), nil
	})
	defaultRegistry.Register("openai", func(s Settings) (ports.Responder, error) {
		if s.APIKey == "" {
			return nil, fmt.Errorf("openai provider requires an API key")
		}
		opts := []openaiapi.Option{}
		if s.Model != "" {
			opts = append(opts, openaiapi.WithDefaultModel(s.Model))
		}
		return openaiapi.New(s.BaseURL, s.APIKey, opts...), nil
	})
}

// Register adds a factory to the default registry.
func Register(name string, fn Factory) { defaultRegistry.Register(name, fn) }

// New resolves a responder from the default registry.
func New(name string, s Settings) (ports.Responder, error) {
	return defaultRegistry.New(name, s)
}

// Names lists the default registry's provider names.
func Names() []string { return defaultRegistry.Names() }
