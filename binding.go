package reactive

import (
	"errors"
	"log/slog"

	"github.com/atdiar/reactive/dom"
	"golang.org/x/net/html"
)

// SkipChildren is returned by a directive which takes over the subtree of its
// element: the remaining attributes and the children of the element are not
// bound by the traversal.
var SkipChildren = errors.New("skip children")

// Binding is the capability a directive receives for its element.
type Binding interface {
	// Change calls fn now, then again whenever a keypath referenced by the
	// directive value changes.
	Change(fn func())
	// Value returns the current value of key.
	Value(key string) any
	// Interpolate renders the {expr} spans of text.
	Interpolate(text string) string
	// Formatted evaluates an expression with its formatter chain.
	Formatted(expr string) any
}

// Directive sets up the binding of one attribute. It runs once, when the
// context traverses its element.
type Directive func(b Binding, el *html.Node, value string, r *Reactive) error

type binding struct {
	r     *Reactive
	el    *html.Node
	name  string
	value string
}

func (b *binding) Change(fn func()) {
	b.r.watchProps(valueProps(b.value), fn)
}

func (b *binding) Value(key string) any {
	return b.r.Get(key)
}

func (b *binding) Interpolate(text string) string {
	return b.r.interpolate(text)
}

func (b *binding) Formatted(expr string) any {
	x, err := ParseExpr(expr)
	if err != nil {
		b.r.logger.Warn("binding: bad expression", slog.String("directive", b.name), slog.Any("err", err))
		return nil
	}
	v, err := x.Eval(b.r)
	if err != nil {
		b.r.logger.Warn("binding: evaluation failed", slog.String("directive", b.name), slog.Any("err", err))
	}
	return v
}

// valueProps lists the keypaths a directive value depends on.
func valueProps(value string) []string {
	if HasInterpolation(value) {
		return InterpolationProps(value)
	}
	x, err := ParseExpr(value)
	if err != nil {
		return nil
	}
	return x.Props()
}

func (r *Reactive) interpolate(text string) string {
	s, err := ParseTemplate(text).Render(r)
	if err != nil {
		r.logger.Warn("interpolation failed", slog.String("text", text), slog.Any("err", err))
	}
	return s
}

// watchProps makes sure an adapter exists for every keypath in props, so that
// deep model events are mirrored, then subscribes fn once per distinct top
// level key and runs it.
func (r *Reactive) watchProps(props []string, fn func()) {
	h := NewChangeHandler(func(ChangeEvent) { fn() })
	seen := make(map[string]bool)
	for _, p := range props {
		r.Adapter(p)
		top := topLevel(p)
		if seen[top] {
			continue
		}
		seen[top] = true
		r.Sub(top, h)
	}
	fn()
}

// bindText keeps a text node holding {expr} spans rendered.
func (r *Reactive) bindText(n *html.Node) {
	t := ParseTemplate(n.Data)
	r.watchProps(t.Props(), func() {
		dom.SetTextContent(n, r.interpolate(t.Source))
	})
}

// bindAttr keeps an attribute holding {expr} spans rendered.
func (r *Reactive) bindAttr(el *html.Node, name, text string) {
	t := ParseTemplate(text)
	r.watchProps(t.Props(), func() {
		dom.SetAttr(el, name, r.interpolate(t.Source))
	})
}
