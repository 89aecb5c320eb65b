package registry

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/chatspan-ml/chatspan/internal/conversation"
)

// Registry errors.
var (
	// ErrDuplicateName rejects re-registration: duplicates are a programmer
	// error, not a silent overwrite.
	ErrDuplicateName = errors.New("template name already registered")
	// ErrUnknownTemplate reports a lookup for a name never registered.
	ErrUnknownTemplate = errors.New("unknown template")
)

// Registry maps template names to renderers. Entries are immutable once
// registered; lookups are read-only and safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]conversation.Renderer
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entries: map[string]conversation.Renderer{}}
}

// Register adds a renderer under its own name.
func (r *Registry) Register(t conversation.Renderer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := t.Name()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	r.entries[name] = t
	return nil
}

// Lookup returns the renderer registered under name.
func (r *Registry) Lookup(name string) (conversation.Renderer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.entries[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return t, nil
}

// Names returns all registered template names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// defaultRegistry holds the built-in template set, populated once at
// process start.
var defaultRegistry = New()

func init() {
	for _, t := range builtins() {
		if err := defaultRegistry.Register(t); err != nil {
			panic(err)
		}
	}
}

// Register adds a renderer to the default registry.
func Register(t conversation.Renderer) error {
	return defaultRegistry.Register(t)
}

// Lookup finds a renderer in the default registry.
func Lookup(name string) (conversation.Renderer, error) {
	return defaultRegistry.Lookup(name)
}

// Names lists the default registry, sorted.
func Names() []string {
	return defaultRegistry.Names()
}
