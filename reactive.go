package reactive

import (
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/atdiar/reactive/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Reactive is a binding context: it ties the element tree rooted at one node
// to a model and a view. Contexts are not safe for concurrent use; every call
// is expected to come from the goroutine owning the tree.
type Reactive struct {
	el     *html.Node
	model  any
	view   View
	parent *Reactive

	adapt       AdapterFunc
	registry    *Registry
	ownRegistry bool
	settings    *Settings
	logger      *slog.Logger

	adapters  map[string]Adapter
	bus       changeBus
	events    *eventListeners
	lists     []*reconciler
	destroyed bool
}

type Option func(*Reactive)

// WithView sets the namespace consulted before the model for values,
// formatters and event handlers.
func WithView(v View) Option {
	return func(r *Reactive) {
		r.view = v
	}
}

// WithAdapter replaces the adapter factory, for models whose accessors or
// change events do not follow the default conventions.
func WithAdapter(fn AdapterFunc) Option {
	return func(r *Reactive) {
		if fn != nil {
			r.adapt = fn
		}
	}
}

func WithRegistry(g *Registry) Option {
	return func(r *Reactive) {
		if g != nil {
			r.registry = g
		}
	}
}

func WithSettings(s *Settings) Option {
	return func(r *Reactive) {
		if s != nil {
			r.settings = s
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(r *Reactive) {
		if l != nil {
			r.logger = l
		}
	}
}

// New binds the tree rooted at el to model. Directives which fail to set up
// are reported in the returned error, one *BindError each; the rest of the
// tree is bound regardless and the context is usable.
func New(el *html.Node, model any, opts ...Option) (*Reactive, error) {
	r := &Reactive{
		el:       el,
		model:    model,
		adapt:    NewModelAdapter,
		registry: DefaultRegistry,
		settings: DefaultSettings,
		logger:   logger(),
		adapters: make(map[string]Adapter),
		events:   newEventListeners(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if el == nil {
		return r, ErrNotANode
	}
	return r, r.bind(el)
}

// child creates the context of a list item. It shares the adapter factory,
// registry, settings, logger and event table of r, and delegates view
// lookups to r.
func (r *Reactive) child(el *html.Node, model any) *Reactive {
	c := &Reactive{
		el:       el,
		model:    model,
		parent:   r,
		adapt:    r.adapt,
		registry: r.registry,
		settings: r.settings,
		logger:   r.logger,
		adapters: make(map[string]Adapter),
		events:   r.events,
	}
	c.bind(el)
	return c
}

func (r *Reactive) bind(n *html.Node) error {
	var errs []error
	r.traverse(n, &errs)
	err := errors.Join(errs...)
	if err != nil {
		r.logger.Error("bind failed", slog.Any("err", err))
	}
	return err
}

func (r *Reactive) traverse(n *html.Node, errs *[]error) {
	switch n.Type {
	case html.TextNode:
		if HasInterpolation(n.Data) {
			r.bindText(n)
		}
		return
	case html.ElementNode, html.DocumentNode:
	default:
		return
	}

	children := dom.ChildNodes(n)
	if n.Type == html.ElementNode && !r.bindElement(n, errs) {
		return
	}
	if rawText(n) {
		return
	}
	for _, c := range children {
		if c.Parent != n {
			continue
		}
		r.traverse(c, errs)
	}
}

// rawText reports whether the content of n is script or stylesheet source,
// where braces are not interpolations.
func rawText(n *html.Node) bool {
	if n.Type != html.ElementNode || n.Namespace != "" {
		return false
	}
	return n.DataAtom == atom.Script || n.DataAtom == atom.Style
}

// bindElement binds the directives then the interpolated attributes of el.
// It returns false when the children of el must not be traversed.
func (r *Reactive) bindElement(el *html.Node, errs *[]error) bool {
	if v, ok := dom.Attr(el, "each"); ok {
		if _, ok := r.registry.Lookup("each"); ok {
			if err := r.bindDirective("each", v, el); err != nil && !errors.Is(err, SkipChildren) {
				*errs = append(*errs, err)
			}
			return false
		}
	}

	attrs := dom.Attrs(el)
	for _, a := range attrs {
		if _, ok := r.registry.Lookup(a.Key); !ok {
			continue
		}
		err := r.bindDirective(a.Key, a.Val, el)
		if errors.Is(err, SkipChildren) {
			return false
		}
		if err != nil {
			*errs = append(*errs, err)
		}
	}
	for _, a := range attrs {
		if _, ok := r.registry.Lookup(a.Key); ok || !HasInterpolation(a.Val) {
			continue
		}
		r.bindAttr(el, a.Key, a.Val)
	}
	return true
}

func (r *Reactive) bindDirective(name, value string, el *html.Node) error {
	fn, ok := r.registry.Lookup(name)
	if !ok {
		return nil
	}
	r.logger.Debug("bind", slog.String("directive", name), slog.String("value", value))
	err := fn(&binding{r: r, el: el, name: name, value: value}, el, value, r)
	if err == nil || errors.Is(err, SkipChildren) {
		return err
	}
	return &BindError{Directive: name, Value: value, Err: err}
}

// Get returns the value of key. The view is consulted first, including the
// views of the contexts r was created from, then the model through its
// adapter. "this" designates the model itself.
func (r *Reactive) Get(key string) any {
	if key == thisKey || strings.HasPrefix(key, thisKey+".") {
		v, _ := Resolve(r.model, key)
		return v
	}
	top := topLevel(key)
	for c := r; c != nil; c = c.parent {
		if _, ok := c.view[top]; ok {
			v, _ := Resolve(map[string]any(c.view), key)
			return v
		}
	}
	return r.Adapter(key).Get()
}

// Set writes value to the model through the adapter of key, then notifies
// every binding depending on key.
func (r *Reactive) Set(key string, value any) *Reactive {
	if r.destroyed {
		r.logger.Debug("set on destroyed context", slog.String("key", key))
		return r
	}
	r.Adapter(key).Set(value)
	r.logger.Debug("set", slog.String("key", key))
	r.bus.Publish(key, value)
	return r
}

// SetAll sets several keys, in key order.
func (r *Reactive) SetAll(values map[string]any) *Reactive {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Set(k, values[k])
	}
	return r
}

// Sub registers h for changes of key, of its prefixes and of its extensions.
// An adapter is created for key if there was none.
func (r *Reactive) Sub(key string, h *ChangeHandler) {
	r.Adapter(key)
	r.bus.Subscribe(key, h)
}

func (r *Reactive) Unsub(key string, h *ChangeHandler) {
	r.bus.Unsubscribe(key, h)
}

// Adapter returns the adapter of key, creating it on first use.
func (r *Reactive) Adapter(key string) Adapter {
	if a, ok := r.adapters[key]; ok {
		return a
	}
	a := r.adapt(r, r.model, key)
	r.adapters[key] = a
	if r.destroyed {
		a.Teardown()
	}
	return a
}

// Bind registers a directive on this context only and binds it on the
// elements of the tree which already carry the attribute. Elements belonging
// to list items are left to the item contexts.
func (r *Reactive) Bind(name string, fn Directive) error {
	if !r.ownRegistry {
		r.registry = r.registry.Clone()
		r.ownRegistry = true
	}
	r.registry.Bind(name, fn)

	var errs []error
	for _, el := range dom.QueryAll(r.el, name) {
		if r.ownedByList(el) {
			continue
		}
		v, _ := dom.Attr(el, name)
		if err := r.bindDirective(name, v, el); err != nil && !errors.Is(err, SkipChildren) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *Reactive) ownedByList(el *html.Node) bool {
	for n := el; n != nil && n != r.el; n = n.Parent {
		for _, l := range r.lists {
			if l.owns(n) {
				return true
			}
		}
	}
	return false
}

// Use runs plugins against the context.
func (r *Reactive) Use(plugins ...func(*Reactive)) *Reactive {
	for _, p := range plugins {
		p(r)
	}
	return r
}

func (r *Reactive) Model() any { return r.model }

func (r *Reactive) View() View { return r.view }

// Element returns the root of the bound tree.
func (r *Reactive) Element() *html.Node { return r.el }

// Parent returns the context a list item context was created from.
func (r *Reactive) Parent() *Reactive { return r.parent }

func (r *Reactive) Settings() *Settings { return r.settings }

func (r *Reactive) Destroyed() bool { return r.destroyed }

// Destroy tears down every adapter, list and subscription of the context and
// detaches its root element. Further model changes have no effect on the
// tree. Calling Destroy again is a no-op.
func (r *Reactive) Destroy() {
	r.destroy(true)
}

func (r *Reactive) destroy(detach bool) {
	if r.destroyed {
		return
	}
	r.destroyed = true
	for _, l := range r.lists {
		l.teardown()
	}
	for _, a := range r.adapters {
		a.Teardown()
	}
	r.bus.Clear()
	r.events.removeOwner(r)
	if detach {
		dom.Detach(r.el)
	}
	r.logger.Debug("destroyed", slog.Int("adapters", len(r.adapters)))
}
