package reactive

// Handler is a wrapper type around a callback registered on an Emitter.
// Handlers are compared by pointer, which is what allows Off to find them.
type Handler struct {
	Fn func(args ...any)
}

func NewHandler(f func(args ...any)) *Handler {
	return &Handler{f}
}

func (h *Handler) Handle(args ...any) {
	h.Fn(args...)
}

// Observable is the optional change notification capability of a model.
// Adapters subscribe to "change <key>" events through it.
type Observable interface {
	On(event string, h *Handler)
	Off(event string, h *Handler)
}

// Emitter is a minimal event emitter that models can embed to become
// Observable. The zero value is ready to use.
type Emitter struct {
	list map[string][]*Handler
}

func (e *Emitter) On(event string, h *Handler) {
	if e.list == nil {
		e.list = make(map[string][]*Handler)
	}
	e.list[event] = append(e.list[event], h)
}

func (e *Emitter) Off(event string, h *Handler) {
	hs, ok := e.list[event]
	if !ok {
		return
	}
	index := -1
	for k, v := range hs {
		if v == h {
			index = k
			break
		}
	}
	if index < 0 {
		return
	}
	hs = append(hs[:index:index], hs[index+1:]...)
	if len(hs) == 0 {
		delete(e.list, event)
		return
	}
	e.list[event] = hs
}

// Emit calls the handlers registered for event, in registration order.
// Handlers added or removed while emitting take effect on the next Emit.
func (e *Emitter) Emit(event string, args ...any) {
	hs := e.list[event]
	if len(hs) == 0 {
		return
	}
	snapshot := make([]*Handler, len(hs))
	copy(snapshot, hs)
	for _, h := range snapshot {
		h.Handle(args...)
	}
}

// Listeners returns the number of handlers registered for event.
func (e *Emitter) Listeners(event string) int {
	return len(e.list[event])
}

func changeEvent(key string) string {
	return "change " + key
}
