package reactive

import (
	"github.com/goccy/go-json"
)

// Edit describes one splice applied to a Sequence: Removed were taken out at
// Index and Inserted were put in their place.
type Edit struct {
	Index    int
	Removed  []any
	Inserted []any
}

// EditHandler is a wrapper type around a callback run after a Sequence was
// edited. Handlers are compared by pointer.
type EditHandler struct {
	Fn func(Edit)
}

func NewEditHandler(f func(Edit)) *EditHandler {
	return &EditHandler{f}
}

func (h *EditHandler) Handle(e Edit) {
	h.Fn(e)
}

// Sequence is an ordered collection announcing its edits. It is what a list
// binding needs in order to update only the fragments an edit touches.
type Sequence interface {
	Len() int
	At(i int) any
	Watch(h *EditHandler)
	Unwatch(h *EditHandler)
}

// List is the stock Sequence. Every mutating method emits exactly one Edit,
// after the items have been updated.
type List struct {
	items    []any
	watchers []*EditHandler
}

func NewList(items ...any) *List {
	return &List{items: append([]any(nil), items...)}
}

func (l *List) Len() int { return len(l.items) }

func (l *List) At(i int) any { return l.items[i] }

// Items returns a copy of the items.
func (l *List) Items() []any {
	return append([]any(nil), l.items...)
}

func (l *List) Watch(h *EditHandler) {
	l.watchers = append(l.watchers, h)
}

func (l *List) Unwatch(h *EditHandler) {
	for i, w := range l.watchers {
		if w == h {
			l.watchers = append(l.watchers[:i:i], l.watchers[i+1:]...)
			return
		}
	}
}

func (l *List) notify(e Edit) {
	if len(e.Removed) == 0 && len(e.Inserted) == 0 {
		return
	}
	watchers := append([]*EditHandler(nil), l.watchers...)
	for _, w := range watchers {
		w.Handle(e)
	}
}

// Splice removes deleteCount items at start and inserts items in their
// place. A negative start counts from the end. Out of range arguments are
// clamped. The removed items are returned.
func (l *List) Splice(start, deleteCount int, items ...any) []any {
	n := len(l.items)
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if start > n {
		start = n
	}
	if deleteCount < 0 {
		deleteCount = 0
	}
	if start+deleteCount > n {
		deleteCount = n - start
	}

	removed := append([]any(nil), l.items[start:start+deleteCount]...)
	inserted := append([]any(nil), items...)

	next := make([]any, 0, n-deleteCount+len(items))
	next = append(next, l.items[:start]...)
	next = append(next, inserted...)
	next = append(next, l.items[start+deleteCount:]...)
	l.items = next

	l.notify(Edit{Index: start, Removed: removed, Inserted: inserted})
	return removed
}

// Push appends items and returns the new length.
func (l *List) Push(items ...any) int {
	l.Splice(len(l.items), 0, items...)
	return len(l.items)
}

// Unshift prepends items and returns the new length.
func (l *List) Unshift(items ...any) int {
	l.Splice(0, 0, items...)
	return len(l.items)
}

// Pop removes the last item. It returns nil on an empty list.
func (l *List) Pop() any {
	if len(l.items) == 0 {
		return nil
	}
	return l.Splice(len(l.items)-1, 1)[0]
}

// Shift removes the first item. It returns nil on an empty list.
func (l *List) Shift() any {
	if len(l.items) == 0 {
		return nil
	}
	return l.Splice(0, 1)[0]
}

func (l *List) Insert(index int, items ...any) {
	l.Splice(index, 0, items...)
}

// Remove deletes the item at index and returns it, or nil when index is out
// of range.
func (l *List) Remove(index int) any {
	if index < 0 || index >= len(l.items) {
		return nil
	}
	return l.Splice(index, 1)[0]
}

// Replace swaps the item at index for item and returns the previous one.
func (l *List) Replace(index int, item any) any {
	if index < 0 || index >= len(l.items) {
		return nil
	}
	return l.Splice(index, 1, item)[0]
}

// Reset replaces every item at once.
func (l *List) Reset(items ...any) {
	l.Splice(0, len(l.items), items...)
}

// Patch turns the list into items with the shortest series of single item
// insertions and removals. Items are matched by identity: values compare by
// type and content, references by address.
func (l *List) Patch(items ...any) {
	target := append([]any(nil), items...)
	for _, op := range diffItems(l.items, target) {
		switch op.Operation {
		case opInsert:
			l.Splice(op.Index, 0, target[op.Item])
		case opRemove:
			l.Splice(op.Index, 1)
		}
	}
}

func (l *List) MarshalJSON() ([]byte, error) {
	if l.items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.items)
}

func (l *List) UnmarshalJSON(data []byte) error {
	var items []any
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	l.Reset(items...)
	return nil
}
