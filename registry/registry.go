// Package registry holds the two flat handler tables a resolved document
// dispatches into: named event callbacks and named custom-component
// layout adjusters. A Registry is a plain value owned by whoever is
// running a document — never a package-level global — so multiple
// documents (or multiple tests) can hold independent registrations at
// once instead of fighting over one process-wide map.
package registry

import (
	"fmt"
	"sync"

	"github.com/kryonlabs/kryon-runtime/krb"
	"github.com/kryonlabs/kryon-runtime/resolve"
)

// LayoutAdjuster is a custom component's one extensibility point into
// layout: invoked once per instance, after the two-pass layout engine has
// placed it and its subtree, with the freedom to mutate that subtree's
// geometry and visibility (a tab bar repositioning itself and resizing
// its sibling content area, for instance).
type LayoutAdjuster interface {
	HandleLayoutAdjustment(el *resolve.RenderElement, doc *krb.Document) error
}

// EventHandler is a named, zero-argument callback bound to an
// EventBinding.HandlerName at registration time.
type EventHandler func()

// Registry is the per-runtime handler/component table.
type Registry struct {
	mu         sync.RWMutex
	handlers   map[string]EventHandler
	components map[string]LayoutAdjuster
}

func New() *Registry {
	return &Registry{
		handlers:   make(map[string]EventHandler),
		components: make(map[string]LayoutAdjuster),
	}
}

// RegisterEventHandler binds name to fn, silently replacing any prior
// binding — re-registering the same event name is a normal part of
// hot-reloading a document's handlers, not a bug signal.
func (r *Registry) RegisterEventHandler(name string, fn EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = fn
}

func (r *Registry) LookupEventHandler(name string) (EventHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.handlers[name]
	return fn, ok
}

// ErrAlreadyRegistered is returned by RegisterCustomComponent for a
// duplicate identifier: unlike event handlers, a second registration for
// the same component name almost always means a copy-pasted identifier
// bug rather than an intentional override, so this is rejected instead of
// silently replacing the first registration.
var ErrAlreadyRegistered = fmt.Errorf("registry: custom component identifier already registered")

func (r *Registry) RegisterCustomComponent(identifier string, adj LayoutAdjuster) error {
	if identifier == "" {
		return fmt.Errorf("registry: empty custom component identifier")
	}
	if adj == nil {
		return fmt.Errorf("registry: nil layout adjuster for %q", identifier)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.components[identifier]; exists {
		return fmt.Errorf("%w: %q", ErrAlreadyRegistered, identifier)
	}
	r.components[identifier] = adj
	return nil
}

func (r *Registry) LookupCustomComponent(identifier string) (LayoutAdjuster, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	adj, ok := r.components[identifier]
	return adj, ok
}
