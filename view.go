package reactive

// View is the namespace a context consults before its model: computed values
// (zero-argument functions), formatters, event handlers and plain values.
type View map[string]any

// Formatter transforms a value inside an expression. Args are the literal
// arguments of the call, in source order: {created | date:'%Y'}.
type Formatter func(value any, args ...string) any

// asFormatter accepts the function shapes usable as formatters.
func asFormatter(v any) (Formatter, bool) {
	switch f := v.(type) {
	case Formatter:
		return f, true
	case func(any, ...string) any:
		return f, true
	case func(any) any:
		return func(v any, _ ...string) any { return f(v) }, true
	case func(any) string:
		return func(v any, _ ...string) any { return f(v) }, true
	case func(string) string:
		return func(v any, _ ...string) any { return f(toString(v)) }, true
	case func(string, ...string) string:
		return func(v any, args ...string) any { return f(toString(v), args...) }, true
	}
	return nil, false
}

// asEventFunc accepts the function shapes usable as event handlers.
func asEventFunc(v any) (EventFunc, bool) {
	switch f := v.(type) {
	case EventFunc:
		return f, true
	case func(Event, *Reactive):
		return f, true
	case func(Event):
		return func(e Event, _ *Reactive) { f(e) }, true
	case func():
		return func(Event, *Reactive) { f() }, true
	}
	return nil, false
}

// lookupView finds name in the view of r, then in the views of the contexts
// r was created from.
func (r *Reactive) lookupView(name string) (any, bool) {
	for c := r; c != nil; c = c.parent {
		if v, ok := c.view[name]; ok {
			return v, true
		}
	}
	return nil, false
}

func (r *Reactive) formatter(name string) (Formatter, bool) {
	v, ok := r.lookupView(name)
	if !ok {
		return nil, false
	}
	return asFormatter(v)
}

func (r *Reactive) method(name string) (EventFunc, bool) {
	v, ok := r.lookupView(name)
	if !ok {
		return nil, false
	}
	return asEventFunc(v)
}
