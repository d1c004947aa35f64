package reactive

import (
	"golang.org/x/net/html"
)

// Event phases.
const (
	PhaseNone = iota
	PhaseCapture
	PhaseTarget
	PhaseBubble
)

// Event is delivered to the handlers registered on a node by on-<type>
// directives or by Listen.
type Event interface {
	Type() string
	Target() *html.Node
	CurrentTarget() *html.Node

	PreventDefault()
	StopPropagation()          // handlers of the current node still run
	StopImmediatePropagation() // no other handler runs

	Phase() int
	Bubbles() bool
	DefaultPrevented() bool
	Stopped() bool

	Native() any // the event object of the host, if any
}

type eventObject struct {
	typ           string
	target        *html.Node
	currentTarget *html.Node

	defaultPrevented bool
	bubbles          bool
	stopped          bool
	immediate        bool
	phase            int

	nativeObject any
}

type defaultPreventer interface {
	PreventDefault()
}

func (e *eventObject) Type() string              { return e.typ }
func (e *eventObject) Target() *html.Node        { return e.target }
func (e *eventObject) CurrentTarget() *html.Node { return e.currentTarget }
func (e *eventObject) PreventDefault() {
	if v, ok := e.nativeObject.(defaultPreventer); ok {
		v.PreventDefault()
	}
	e.defaultPrevented = true
}
func (e *eventObject) StopPropagation() { e.stopped = true }
func (e *eventObject) StopImmediatePropagation() {
	e.stopped = true
	e.immediate = true
}
func (e *eventObject) Phase() int             { return e.phase }
func (e *eventObject) Bubbles() bool          { return e.bubbles }
func (e *eventObject) DefaultPrevented() bool { return e.defaultPrevented }
func (e *eventObject) Stopped() bool          { return e.stopped }
func (e *eventObject) Native() any            { return e.nativeObject }

func NewEvent(typ string, bubbles bool, target *html.Node, nativeEvent any) Event {
	return &eventObject{typ: typ, target: target, currentTarget: target, bubbles: bubbles, nativeObject: nativeEvent}
}

// EventFunc is the shape of view methods bound with on-<type>. r is the
// context which bound the directive: for list items, the item context.
type EventFunc func(evt Event, r *Reactive)

type EventHandler struct {
	Fn      func(Event)
	Capture bool // run while the event travels down towards its target
	Once    bool
}

func NewEventHandler(fn func(Event)) *EventHandler {
	return &EventHandler{Fn: fn}
}

func (h *EventHandler) ForCapture() *EventHandler {
	h.Capture = true
	return h
}

func (h *EventHandler) TriggerOnce() *EventHandler {
	h.Once = true
	return h
}

type listener struct {
	typ   string
	h     *EventHandler
	owner *Reactive
}

// eventListeners is the node -> handlers table. One table is shared by a
// context and every context created from it, so that events bubble across
// list items into their container.
type eventListeners struct {
	list map[*html.Node][]listener
}

func newEventListeners() *eventListeners {
	return &eventListeners{list: make(map[*html.Node][]listener)}
}

func (e *eventListeners) add(n *html.Node, l listener) {
	e.list[n] = append(e.list[n], l)
}

func (e *eventListeners) remove(n *html.Node, h *EventHandler) {
	ls := e.list[n]
	for i, l := range ls {
		if l.h == h {
			ls = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	if len(ls) == 0 {
		delete(e.list, n)
		return
	}
	e.list[n] = ls
}

// removeOwner drops every handler registered by r.
func (e *eventListeners) removeOwner(r *Reactive) {
	for n, ls := range e.list {
		kept := ls[:0]
		for _, l := range ls {
			if l.owner != r {
				kept = append(kept, l)
			}
		}
		if len(kept) == 0 {
			delete(e.list, n)
			continue
		}
		e.list[n] = kept
	}
}

func (e *eventListeners) handle(n *html.Node, evt *eventObject) {
	ls := append([]listener(nil), e.list[n]...)
	for _, l := range ls {
		if l.typ != evt.typ {
			continue
		}
		switch evt.phase {
		case PhaseCapture:
			if !l.h.Capture {
				continue
			}
		case PhaseBubble:
			if l.h.Capture {
				continue
			}
		}
		if l.h.Once {
			e.remove(n, l.h)
		}
		l.h.Fn(evt)
		if evt.immediate {
			return
		}
	}
}

// dispatch runs the capture phase from the outermost ancestor down to the
// target's parent, the target phase, then the bubble phase back up.
func (e *eventListeners) dispatch(evt *eventObject) {
	var path []*html.Node
	for n := evt.target.Parent; n != nil; n = n.Parent {
		path = append(path, n)
	}

	evt.phase = PhaseCapture
	for i := len(path) - 1; i >= 0; i-- {
		evt.currentTarget = path[i]
		e.handle(path[i], evt)
		if evt.stopped {
			return
		}
	}

	evt.phase = PhaseTarget
	evt.currentTarget = evt.target
	e.handle(evt.target, evt)
	if evt.stopped || !evt.bubbles {
		return
	}

	evt.phase = PhaseBubble
	for _, n := range path {
		evt.currentTarget = n
		e.handle(n, evt)
		if evt.stopped {
			return
		}
	}
}

// Listen registers h for events of type typ on n. The handler is dropped
// when r is destroyed.
func (r *Reactive) Listen(n *html.Node, typ string, h *EventHandler) {
	r.events.add(n, listener{typ: typ, h: h, owner: r})
}

func (r *Reactive) Unlisten(n *html.Node, h *EventHandler) {
	r.events.remove(n, h)
}

// Dispatch delivers a bubbling event of type typ to target and its ancestors.
// native is made available through Event.Native.
func (r *Reactive) Dispatch(target *html.Node, typ string, native any) Event {
	evt := NewEvent(typ, true, target, native).(*eventObject)
	r.events.dispatch(evt)
	evt.phase = PhaseNone
	return evt
}
