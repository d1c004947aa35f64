package reactive

import (
	"sort"
	"strings"
)

// ChangeEvent is what subscribers of a context receive when a key changes.
type ChangeEvent struct {
	Key   string
	Value any
}

// Name returns the event name, "change <key>".
func (c ChangeEvent) Name() string { return changeEvent(c.Key) }

// ChangeHandler is a wrapper type around a callback run after a change was
// published on a context.
type ChangeHandler struct {
	Fn func(ChangeEvent)
}

func NewChangeHandler(f func(evt ChangeEvent)) *ChangeHandler {
	return &ChangeHandler{f}
}

func (h *ChangeHandler) Handle(evt ChangeEvent) {
	h.Fn(evt)
}

type subscription struct {
	h   *ChangeHandler
	seq uint64
}

// topic is one keypath segment of the bus. Subscribers registered on a topic
// are notified for changes of the topic itself, of any of its prefixes and of
// any longer path sharing it as a prefix.
type topic struct {
	children map[string]*topic
	subs     []subscription
}

func (t *topic) child(segment string, create bool) *topic {
	c, ok := t.children[segment]
	if ok || !create {
		return c
	}
	if t.children == nil {
		t.children = make(map[string]*topic)
	}
	c = &topic{}
	t.children[segment] = c
	return c
}

func (t *topic) collect(list []subscription) []subscription {
	list = append(list, t.subs...)
	for _, c := range t.children {
		list = c.collect(list)
	}
	return list
}

func (t *topic) count() int {
	n := len(t.subs)
	for _, c := range t.children {
		n += c.count()
	}
	return n
}

// changeBus is the publish/subscribe hub of one context, organized as a trie
// of keypath segments.
type changeBus struct {
	root topic
	seq  uint64
}

func (b *changeBus) node(key string, create bool) *topic {
	t := &b.root
	for _, segment := range strings.Split(key, ".") {
		t = t.child(segment, create)
		if t == nil {
			return nil
		}
	}
	return t
}

func (b *changeBus) Subscribe(key string, h *ChangeHandler) {
	b.seq++
	t := b.node(key, true)
	t.subs = append(t.subs, subscription{h, b.seq})
}

func (b *changeBus) Unsubscribe(key string, h *ChangeHandler) {
	t := b.node(key, false)
	if t == nil {
		return
	}
	for i, s := range t.subs {
		if s.h == h {
			t.subs = append(t.subs[:i:i], t.subs[i+1:]...)
			return
		}
	}
}

// Publish synchronously runs, in subscription order, every handler
// registered on key, on a prefix of key, or on an extension of key.
func (b *changeBus) Publish(key string, value any) {
	var list []subscription
	t := &b.root
	segments := strings.Split(key, ".")
	for i, segment := range segments {
		t = t.child(segment, false)
		if t == nil {
			break
		}
		if i == len(segments)-1 {
			list = t.collect(list)
			break
		}
		list = append(list, t.subs...)
	}
	if len(list) == 0 {
		return
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq < list[j].seq })

	evt := ChangeEvent{Key: key, Value: value}
	for _, s := range list {
		s.h.Handle(evt)
	}
}

func (b *changeBus) Clear() {
	b.root = topic{}
}

// Len returns the number of live subscriptions.
func (b *changeBus) Len() int {
	return b.root.count()
}
