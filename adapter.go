package reactive

import (
	"log/slog"
)

// Adapter normalizes one keypath of a model into a get/set/teardown contract.
type Adapter interface {
	Get() any
	Set(value any)
	Teardown()
}

// AdapterFunc creates the adapter serving key on model for the context r.
// It is the extension point for models whose change events or accessors do
// not follow the default conventions.
type AdapterFunc func(r *Reactive, model any, key string) Adapter

// ModelAdapter is the default Adapter. Reads go through Resolve, writes
// through Assign (or the model's Setter). If the model is Observable, a
// "change <key>" event is mirrored into the owning context.
type ModelAdapter struct {
	r     *Reactive
	model any
	key   string

	// settingInProgress is raised while the adapter writes to the model or
	// mirrors a model event. It swallows the echo of either operation.
	settingInProgress bool
	handler           *Handler
}

func NewModelAdapter(r *Reactive, model any, key string) Adapter {
	a := &ModelAdapter{r: r, model: model, key: key}
	obs, ok := model.(Observable)
	if !ok {
		return a
	}
	a.handler = NewHandler(func(...any) { a.mirror() })
	obs.On(changeEvent(key), a.handler)
	return a
}

// mirror republishes the current value of the key through the context so
// that every dependent binding re-renders the same way a context write would.
func (a *ModelAdapter) mirror() {
	if a.settingInProgress {
		return
	}
	a.settingInProgress = true
	defer func() { a.settingInProgress = false }()
	a.r.Set(a.key, a.r.Get(a.key))
}

func (a *ModelAdapter) Key() string { return a.key }

func (a *ModelAdapter) Get() any {
	v, _ := Resolve(a.model, a.key)
	return v
}

func (a *ModelAdapter) Set(value any) {
	if a.settingInProgress {
		return
	}
	a.settingInProgress = true
	defer func() { a.settingInProgress = false }()

	if s, ok := a.model.(Setter); ok {
		s.Set(a.key, value)
		return
	}
	if err := Assign(a.model, a.key, value); err != nil {
		a.r.logger.Debug("adapter: write dropped", slog.String("key", a.key), slog.Any("err", err))
	}
}

// Teardown unsubscribes from the model. It may be called any number of times.
func (a *ModelAdapter) Teardown() {
	if a.handler == nil {
		return
	}
	if obs, ok := a.model.(Observable); ok {
		obs.Off(changeEvent(a.key), a.handler)
	}
	a.handler = nil
}
