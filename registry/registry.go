// Package registry provides the process-wide template registry.
//
// The default registry is populated at startup with the built-in template
// set; additional templates can be registered before rendering begins.
//
// Example usage:
//
//	tmpl, err := registry.Lookup("qwen3")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := tmpl.Render(messages, tools, opts)
package registry

import (
	"github.com/chatspan-ml/chatspan/conversation"
	"github.com/chatspan-ml/chatspan/internal/registry"
)

// Registry errors.
var (
	ErrDuplicateName   = registry.ErrDuplicateName
	ErrUnknownTemplate = registry.ErrUnknownTemplate
)

// Registry maps template names to renderers.
type Registry = registry.Registry

// New returns an empty registry, for callers that do not want the built-in
// set.
func New() *Registry { return registry.New() }

// Register adds a renderer to the default registry.
func Register(t conversation.Renderer) error { return registry.Register(t) }

// Lookup finds a renderer in the default registry.
func Lookup(name string) (conversation.Renderer, error) { return registry.Lookup(name) }

// Names lists the default registry's template names, sorted.
func Names() []string { return registry.Names() }
