package reactive

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/atdiar/reactive/dom"
	"golang.org/x/net/html"
)

// itemScope is the model of a list item bound with `each="item in list"`:
// the alias names the item, "this" is the item, and the item's own keys stay
// reachable.
type itemScope struct {
	alias string
	item  any
}

func (s itemScope) Get(key string) (any, bool) {
	if key == s.alias {
		return s.item, true
	}
	if isNil(s.item) {
		return nil, false
	}
	return lookup(s.item, key)
}

func (s itemScope) Set(key string, value any) {
	if key == s.alias {
		return
	}
	key = strings.TrimPrefix(key, s.alias+".")
	if err := Assign(s.item, key, value); err != nil {
		logger().Debug("each: item write dropped", slog.String("key", key), slog.Any("err", err))
	}
}

// parseEach reads `list` or `item in list`.
func parseEach(value string) (alias, key string, err error) {
	fields := strings.Fields(value)
	switch {
	case len(fields) == 1:
		return "", fields[0], nil
	case len(fields) == 3 && fields[1] == "in":
		return fields[0], fields[2], nil
	}
	return "", "", fmt.Errorf("reactive: bad each expression %q", value)
}

type fragment struct {
	item any
	node *html.Node
	view *Reactive
}

// reconciler keeps one fragment per item of a list, in list order, between
// the previous siblings of its marker and the marker itself.
type reconciler struct {
	r        *Reactive
	template *html.Node
	marker   *html.Node
	alias    string
	key      string

	seq     Sequence
	watcher *EditHandler
	frags   []*fragment
}

func eachDirective(b Binding, el *html.Node, value string, r *Reactive) error {
	alias, key, err := parseEach(value)
	if err != nil {
		return err
	}
	if el.Parent == nil {
		return ErrDetached
	}
	dom.RemoveAttr(el, "each")

	l := &reconciler{r: r, template: el, alias: alias, key: key, marker: dom.NewText("")}
	l.watcher = NewEditHandler(l.apply)
	dom.Replace(el, l.marker)
	r.lists = append(r.lists, l)
	r.watchProps([]string{key}, l.sync)
	return SkipChildren
}

// sync brings the fragments in line with the current value of the list key.
// A new sequence is diffed against the rendered items and watched in place
// of the previous one.
func (l *reconciler) sync() {
	v := l.r.Get(l.key)
	seq, _ := v.(Sequence)
	if isNil(seq) {
		seq = nil
	}
	if identity(seq) != identity(l.seq) {
		if l.seq != nil {
			l.seq.Unwatch(l.watcher)
		}
		l.seq = seq
		if seq != nil {
			seq.Watch(l.watcher)
		}
	}

	items := itemsOf(v)
	current := make([]any, len(l.frags))
	for i, f := range l.frags {
		current[i] = f.item
	}
	ops := diffItems(current, items)
	for _, op := range ops {
		switch op.Operation {
		case opInsert:
			l.insert(op.Index, items[op.Item])
		case opRemove:
			l.remove(op.Index, 1)
		}
	}
	if len(ops) > 0 {
		l.r.logger.Debug("each: synced", slog.String("key", l.key), slog.Int("ops", len(ops)), slog.Int("len", len(l.frags)))
	}
}

// apply mirrors one edit of the watched sequence.
func (l *reconciler) apply(e Edit) {
	l.remove(e.Index, len(e.Removed))
	l.insert(e.Index, e.Inserted...)
	l.r.logger.Debug("each: edit", slog.String("key", l.key), slog.Int("index", e.Index),
		slog.Int("removed", len(e.Removed)), slog.Int("inserted", len(e.Inserted)))
}

func (l *reconciler) remove(index, n int) {
	if n <= 0 || index >= len(l.frags) {
		return
	}
	if index+n > len(l.frags) {
		n = len(l.frags) - index
	}
	for _, f := range l.frags[index : index+n] {
		f.view.Destroy()
	}
	l.frags = append(l.frags[:index:index], l.frags[index+n:]...)
}

func (l *reconciler) insert(index int, items ...any) {
	parent := l.marker.Parent
	if len(items) == 0 || parent == nil {
		return
	}
	if index > len(l.frags) {
		index = len(l.frags)
	}
	ref := l.marker
	if index < len(l.frags) {
		ref = l.frags[index].node
	}

	added := make([]*fragment, len(items))
	for i, item := range items {
		node := dom.Clone(l.template)
		dom.InsertBefore(parent, node, ref)
		added[i] = &fragment{item: item, node: node, view: l.r.child(node, l.scope(item))}
	}

	frags := make([]*fragment, 0, len(l.frags)+len(added))
	frags = append(frags, l.frags[:index]...)
	frags = append(frags, added...)
	frags = append(frags, l.frags[index:]...)
	l.frags = frags
}

func (l *reconciler) scope(item any) any {
	if l.alias == "" {
		return item
	}
	return itemScope{alias: l.alias, item: item}
}

func (l *reconciler) owns(n *html.Node) bool {
	for _, f := range l.frags {
		if f.node == n {
			return true
		}
	}
	return false
}

// teardown stops watching the list and destroys the item contexts. Their
// nodes stay where they are.
func (l *reconciler) teardown() {
	if l.seq != nil {
		l.seq.Unwatch(l.watcher)
		l.seq = nil
	}
	for _, f := range l.frags {
		f.view.destroy(false)
	}
}

// itemsOf returns the items of a Sequence, slice or array. Anything else,
// nil included, has no items.
func itemsOf(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case Sequence:
		if isNil(t) {
			return nil
		}
		items := make([]any, t.Len())
		for i := range items {
			items[i] = t.At(i)
		}
		return items
	case []any:
		return t
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items
	}
	return nil
}
