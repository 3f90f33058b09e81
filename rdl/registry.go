package rdl

import (
	"fmt"
	"slices"
	"sync"
)

// Registry holds the class schemas available to scene contexts. It is
// passed explicitly to every context that uses it; independent
// registries never share state. Lookups are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*SceneClass
}

// NewRegistry returns a registry holding the built-in classes.
func NewRegistry() *Registry {
	r := &Registry{classes: make(map[string]*SceneClass)}
	for _, c := range builtinClasses() {
		r.classes[c.Name()] = c
	}
	return r
}

// Register adds a class. Registering a second class under a used name is
// a schema error.
func (r *Registry) Register(c *SceneClass) error {
	if c == nil {
		return fmt.Errorf("%w: nil class", ErrSchema)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.classes[c.Name()]; dup {
		return fmt.Errorf("%w: class %s already registered", ErrSchema, c.Name())
	}
	r.classes[c.Name()] = c
	return nil
}

// Lookup returns the class registered under name.
func (r *Registry) Lookup(name string) (*SceneClass, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.classes[name]
	return c, ok
}

// Known reports whether a class is registered under name.
func (r *Registry) Known(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// Names returns every registered class name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.classes))
	for name := range r.classes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.classes)
}
