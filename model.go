package reactive

import (
	"log/slog"
)

// Model is a map backed model announcing its writes. Setting "name" emits
// "change name"; setting a nested path such as "name.last" emits
// "change name.last" and then "change name".
type Model struct {
	Emitter
	attrs map[string]any
}

func NewModel(attrs map[string]any) *Model {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	return &Model{attrs: attrs}
}

func (m *Model) Get(key string) (any, bool) {
	v, ok := m.attrs[key]
	return v, ok
}

func (m *Model) Set(key string, value any) {
	if err := Assign(m.attrs, key, value); err != nil {
		logger().Debug("model: write dropped", slog.String("key", key), slog.Any("err", err))
		return
	}
	m.Emit(changeEvent(key), value)
	if top := topLevel(key); top != key {
		m.Emit(changeEvent(top), m.attrs[top])
	}
}

// Attrs returns the underlying attribute map.
func (m *Model) Attrs() map[string]any {
	return m.attrs
}
