package reactive

import (
	"fmt"
	"log/slog"

	"github.com/atdiar/reactive/dom"
	"golang.org/x/net/html"
)

// boundAttrs are the attributes settable through data-<attr>.
var boundAttrs = []string{
	"id", "src", "rel", "cols", "rows", "name", "href", "title",
	"class", "style", "width", "value", "height", "tabindex", "placeholder",
}

// domEvents are the event types bindable through on-<type>.
var domEvents = []string{
	"change", "click", "dblclick", "mousedown", "mouseup", "mouseenter",
	"mouseleave", "blur", "focus", "input", "submit", "keydown", "keypress", "keyup",
}

func builtinDirectives(g *Registry) {
	g.Bind("each", eachDirective)
	g.Bind("data-text", textDirective)
	g.Bind("data-html", htmlDirective)
	g.Bind("data-show", visibilityDirective(true))
	g.Bind("data-hide", visibilityDirective(false))
	g.Bind("data-checked", checkedDirective)
	g.Bind("data-append", appendDirective)
	g.Bind("data-replace", replaceDirective)
	for _, attr := range boundAttrs {
		g.Bind("data-"+attr, attrDirective(attr))
	}
	for _, typ := range domEvents {
		g.Bind("on-"+typ, eventDirective(typ))
	}
}

// render returns the text a directive value evaluates to.
func render(b Binding, value string) string {
	if HasInterpolation(value) {
		return b.Interpolate(value)
	}
	return toString(b.Formatted(value))
}

func textDirective(b Binding, el *html.Node, value string, r *Reactive) error {
	b.Change(func() {
		dom.SetTextContent(el, render(b, value))
	})
	return nil
}

func htmlDirective(b Binding, el *html.Node, value string, r *Reactive) error {
	b.Change(func() {
		if err := dom.SetInnerHTML(el, render(b, value)); err != nil {
			r.logger.Warn("data-html: bad markup", slog.String("value", value), slog.Any("err", err))
		}
	})
	return nil
}

func attrDirective(attr string) Directive {
	return func(b Binding, el *html.Node, value string, r *Reactive) error {
		b.Change(func() {
			dom.SetAttr(el, attr, render(b, value))
		})
		return nil
	}
}

// visibilityDirective toggles the hide and show classes of the element.
// With show set, a truthy value shows the element; otherwise it hides it.
func visibilityDirective(show bool) Directive {
	return func(b Binding, el *html.Node, value string, r *Reactive) error {
		b.Change(func() {
			hide, showc := r.settings.Get(HideClass), r.settings.Get(ShowClass)
			if Truthy(b.Formatted(value)) == show {
				dom.RemoveClass(el, hide)
				dom.AddClass(el, showc)
				return
			}
			dom.RemoveClass(el, showc)
			dom.AddClass(el, hide)
		})
		return nil
	}
}

func checkedDirective(b Binding, el *html.Node, value string, r *Reactive) error {
	b.Change(func() {
		if Truthy(b.Formatted(value)) {
			dom.SetAttr(el, "checked", "checked")
			return
		}
		dom.RemoveAttr(el, "checked")
	})
	return nil
}

// elementer is implemented by values owning a node, such as a context.
type elementer interface {
	Element() *html.Node
}

func nodeOf(v any) (*html.Node, error) {
	switch t := v.(type) {
	case *html.Node:
		if t != nil {
			return t, nil
		}
	case elementer:
		if n := t.Element(); n != nil {
			return n, nil
		}
	}
	return nil, fmt.Errorf("%w: %T", ErrNotANode, v)
}

func appendDirective(b Binding, el *html.Node, value string, r *Reactive) error {
	n, err := nodeOf(b.Value(value))
	if err != nil {
		return err
	}
	if n.Type == html.DocumentNode {
		for _, c := range dom.ChildNodes(n) {
			dom.InsertBefore(el, c, nil)
		}
		return nil
	}
	dom.InsertBefore(el, n, nil)
	return nil
}

func replaceDirective(b Binding, el *html.Node, value string, r *Reactive) error {
	n, err := nodeOf(b.Value(value))
	if err != nil {
		return err
	}
	if !dom.Replace(el, n) {
		return ErrDetached
	}
	if r.el == el {
		r.el = n
	}
	return SkipChildren
}

// eventDirective calls the view method named by the attribute value when an
// event of type typ reaches the element.
func eventDirective(typ string) Directive {
	return func(b Binding, el *html.Node, value string, r *Reactive) error {
		fn, ok := r.method(value)
		if !ok {
			return fmt.Errorf("%w: .%s()", ErrMissingMethod, value)
		}
		r.Listen(el, typ, NewEventHandler(func(evt Event) {
			evt.PreventDefault()
			fn(evt, r)
		}))
		return nil
	}
}
