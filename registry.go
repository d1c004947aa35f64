package reactive

import (
	"sync"
)

// Registry maps directive names (attribute names) to directives. Names keep
// their registration order.
type Registry struct {
	mu    sync.RWMutex
	names []string
	list  map[string]Directive
}

func NewRegistry() *Registry {
	return &Registry{list: make(map[string]Directive)}
}

// DefaultRegistry holds the built-in directives. Contexts use it unless
// created WithRegistry.
var DefaultRegistry = NewRegistry()

func init() {
	DefaultRegistry.Use(builtinDirectives)
}

// Bind registers fn under name, replacing any previous directive of that
// name.
func (g *Registry) Bind(name string, fn Directive) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.list[name]; !ok {
		g.names = append(g.names, name)
	}
	g.list[name] = fn
}

func (g *Registry) Lookup(name string) (Directive, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn, ok := g.list[name]
	return fn, ok
}

// Names returns the registered names in registration order.
func (g *Registry) Names() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.names...)
}

func (g *Registry) Clone() *Registry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c := &Registry{names: append([]string(nil), g.names...), list: make(map[string]Directive, len(g.list))}
	for k, v := range g.list {
		c.list[k] = v
	}
	return c
}

// Use applies plugins to the registry, typically to bind a set of
// directives at once.
func (g *Registry) Use(plugins ...func(*Registry)) {
	for _, p := range plugins {
		p(g)
	}
}

// Bind registers a directive on DefaultRegistry.
func Bind(name string, fn Directive) {
	DefaultRegistry.Bind(name, fn)
}

// Use applies plugins to DefaultRegistry.
func Use(plugins ...func(*Registry)) {
	DefaultRegistry.Use(plugins...)
}
