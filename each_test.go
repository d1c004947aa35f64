package reactive

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/atdiar/reactive/dom"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func texts(n *html.Node) []string {
	var list []string
	for _, c := range dom.Children(n) {
		list = append(list, dom.TextContent(c))
	}
	return list
}

func TestEachPushUnshift(t *testing.T) {
	todos := NewList()
	ul := dom.MustDomify(`<ul><li each="todos">{this}</li></ul>`)
	_, err := New(ul, map[string]any{"todos": todos})
	require.NoError(t, err)
	assert.Empty(t, dom.Children(ul))

	todos.Push("milk")
	assert.Equal(t, []string{"milk"}, texts(ul))

	todos.Unshift("cereal")
	assert.Equal(t, []string{"cereal", "milk"}, texts(ul))
	assert.Equal(t, `<ul><li>cereal</li><li>milk</li></ul>`, dom.OuterHTML(ul))
}

func TestEachSplice(t *testing.T) {
	todos := NewList("milk", "eggs")
	ul := dom.MustDomify(`<ul><li each="todos">{this}</li></ul>`)
	_, err := New(ul, map[string]any{"todos": todos})
	require.NoError(t, err)
	eggs := dom.Children(ul)[1]

	todos.Splice(0, 1, "apples")
	assert.Equal(t, []string{"apples", "eggs"}, texts(ul))
	assert.Equal(t, []any{"apples", "eggs"}, todos.Items())
	assert.Same(t, eggs, dom.Children(ul)[1], "fragments outside the splice are kept")

	todos.Splice(1, 1)
	todos.Push("bread", "jam")
	todos.Splice(1, 1, "butter", "honey")
	assert.Equal(t, []string{"apples", "butter", "honey", "jam"}, texts(ul))
}

func TestEachMultipleLists(t *testing.T) {
	a, b := NewList(), NewList()
	div := dom.MustDomify(`<div><span each="a">{this}</span><p each="b">{this}</p></div>`)
	_, err := New(div, map[string]any{"a": a, "b": b})
	require.NoError(t, err)
	assert.Empty(t, dom.Children(div))

	b.Push("b1")
	a.Push("a1")
	b.Push("b2")
	a.Push("a2")
	a.Unshift("a0")
	assert.Equal(t, `<div><span>a0</span><span>a1</span><span>a2</span><p>b1</p><p>b2</p></div>`, dom.OuterHTML(div))
}

func TestEachObjects(t *testing.T) {
	tobi := map[string]any{"name": "Tobi"}
	users := NewList(tobi, &person{First: "Loki"})
	ul := dom.MustDomify(`<ul><li each="users"><b>{name}</b>{first}</li></ul>`)
	_, err := New(ul, map[string]any{"users": users})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tobi", "Loki"}, texts(ul))
}

func TestEachAlias(t *testing.T) {
	users := NewList(map[string]any{"name": "Tobi"}, map[string]any{"name": "Loki"})
	ul := dom.MustDomify(`<ul><li each="user in users">{user.name}/{this.name}/{name}</li></ul>`)
	_, err := New(ul, map[string]any{"users": users})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tobi/Tobi/Tobi", "Loki/Loki/Loki"}, texts(ul))
}

func TestEachItemContext(t *testing.T) {
	item := map[string]any{"title": "milk", "done": false}
	todos := NewList(item)
	ul := dom.MustDomify(`<ul><li each="todos" class="{done ? 'done' : 'todo'}">{title | upper}</li></ul>`)
	r, err := New(ul, map[string]any{"todos": todos}, WithView(View{"upper": func(s string) string { return s + "!" }}))
	require.NoError(t, err)
	assert.Equal(t, `<ul><li class="todo">milk!</li></ul>`, dom.OuterHTML(ul))

	require.Len(t, r.lists, 1)
	child := r.lists[0].frags[0].view
	assert.Same(t, r, child.Parent())
	child.Set("done", true)
	assert.Equal(t, true, item["done"])
	assert.Equal(t, `<ul><li class="done">milk!</li></ul>`, dom.OuterHTML(ul))
}

func TestEachReplaceList(t *testing.T) {
	old := NewList("cereal", "milk")
	ul := dom.MustDomify(`<ul><li each="todos">{this}</li></ul>`)
	r, err := New(ul, map[string]any{"todos": old})
	require.NoError(t, err)
	milk := dom.Children(ul)[1]

	next := NewList("bread", "milk")
	r.Set("todos", next)
	assert.Equal(t, []string{"bread", "milk"}, texts(ul))
	assert.Same(t, milk, dom.Children(ul)[1])

	old.Push("ignored")
	assert.Equal(t, []string{"bread", "milk"}, texts(ul))
	next.Push("jam")
	assert.Equal(t, []string{"bread", "milk", "jam"}, texts(ul))

	r.Set("todos", []string{"x", "y"})
	assert.Equal(t, []string{"x", "y"}, texts(ul))
	next.Push("ignored")
	assert.Equal(t, []string{"x", "y"}, texts(ul))

	r.Set("todos", nil)
	assert.Empty(t, dom.Children(ul))
}

func TestEachMissingCollection(t *testing.T) {
	ul := dom.MustDomify(`<ul><li each="nothing">{this}</li></ul>`)
	r, err := New(ul, map[string]any{})
	require.NoError(t, err)
	assert.Empty(t, dom.Children(ul))

	r.Set("nothing", NewList("a"))
	assert.Equal(t, []string{"a"}, texts(ul))
}

func TestEachNilList(t *testing.T) {
	model := &struct{ Todos *List }{}
	frag := dom.MustDomify(`<ul><li each="todos">{this}</li></ul><p>{todos ? 'some' : 'none'}</p>`)
	r, err := New(frag, model)
	require.NoError(t, err)
	list, p := dom.Children(frag)[0], dom.Children(frag)[1]
	assert.Empty(t, dom.Children(list))
	assert.Equal(t, "none", dom.TextContent(p))

	r.Set("todos", NewList("milk"))
	assert.Equal(t, []string{"milk"}, texts(list))
	assert.Equal(t, "some", dom.TextContent(p))

	model.Todos.Push("eggs")
	assert.Equal(t, []string{"milk", "eggs"}, texts(list))

	r.Set("todos", (*List)(nil))
	assert.Empty(t, dom.Children(list))
	assert.Equal(t, "none", dom.TextContent(p))
}

func TestEachErrors(t *testing.T) {
	_, err := New(dom.MustDomify(`<li each="a b c d"></li>`), nil)
	assert.Error(t, err)

	el := dom.MustDomify(`<li each="todos"></li>`)
	_, err = New(el, map[string]any{"todos": NewList()})
	assert.ErrorIs(t, err, ErrDetached)
}

func TestEachDestroy(t *testing.T) {
	todos := NewList("milk")
	parent := dom.MustDomify(`<div><ul><li each="todos">{this}</li></ul></div>`)
	ul := dom.Children(parent)[0]
	r, err := New(ul, map[string]any{"todos": todos})
	require.NoError(t, err)
	child := r.lists[0].frags[0].view

	r.Destroy()
	assert.True(t, child.Destroyed())
	assert.Nil(t, ul.Parent)
	todos.Push("eggs")
	assert.Equal(t, []string{"milk"}, texts(ul))
}

// TestEachRandomEdits checks that, after any edit, the rendered fragments
// match the list items in order.
func TestEachRandomEdits(t *testing.T) {
	list := NewList()
	ul := dom.MustDomify(`<ul><li each="items">{this}</li></ul>`)
	r, err := New(ul, map[string]any{"items": list})
	require.NoError(t, err)

	rnd := rand.New(rand.NewSource(7))
	next := 0
	item := func() any {
		next++
		return fmt.Sprintf("i%d", next)
	}
	want := func() []string {
		var s []string
		for _, v := range list.Items() {
			s = append(s, v.(string))
		}
		return s
	}

	for step := 0; step < 300; step++ {
		switch rnd.Intn(7) {
		case 0:
			list.Push(item())
		case 1:
			list.Unshift(item(), item())
		case 2:
			list.Pop()
		case 3:
			list.Shift()
		case 4:
			n := list.Len() + 1
			list.Splice(rnd.Intn(n), rnd.Intn(3), item(), item())
		case 5:
			if list.Len() > 0 {
				list.Replace(rnd.Intn(list.Len()), item())
			}
		case 6:
			items := list.Items()
			rnd.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
			list.Patch(items...)
		}
		if diff := cmp.Diff(want(), texts(ul)); diff != "" {
			t.Fatalf("step %d: fragments mismatch (-want +got):\n%s", step, diff)
		}
		require.Len(t, r.lists[0].frags, list.Len())
	}
}
