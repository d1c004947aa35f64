package reactive

import (
	"testing"

	"github.com/atdiar/reactive/dom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataAttributes(t *testing.T) {
	el := dom.MustDomify(`<a data-href="url" data-title="/users/{id}" data-class="kind | upper">x</a>`)
	r, err := New(el, map[string]any{"url": "/home", "id": 3, "kind": "link"}, WithView(View{"upper": func(s string) string { return s + "-up" }}))
	require.NoError(t, err)

	v, _ := dom.Attr(el, "href")
	assert.Equal(t, "/home", v)
	v, _ = dom.Attr(el, "title")
	assert.Equal(t, "/users/3", v)
	v, _ = dom.Attr(el, "class")
	assert.Equal(t, "link-up", v)

	r.Set("id", 4)
	v, _ = dom.Attr(el, "title")
	assert.Equal(t, "/users/4", v)
}

func TestDataText(t *testing.T) {
	el := dom.MustDomify(`<p data-text="Hi {name}">old <b>markup</b></p>`)
	_, err := New(el, map[string]any{"name": "Tobi"})
	require.NoError(t, err)
	assert.Equal(t, `<p data-text="Hi {name}">Hi Tobi</p>`, dom.OuterHTML(el))
}

func TestDataHTML(t *testing.T) {
	el := dom.MustDomify(`<div data-html="body"></div>`)
	r, err := New(el, map[string]any{"body": "<b>hi</b>"})
	require.NoError(t, err)
	assert.Equal(t, "<b>hi</b>", dom.InnerHTML(el))

	r.Set("body", "<i>bye</i>")
	assert.Equal(t, "<i>bye</i>", dom.InnerHTML(el))
}

func TestVisibility(t *testing.T) {
	el := dom.MustDomify(`<div data-show="visible" class="file"></div>`)
	r, err := New(el, map[string]any{"visible": false})
	require.NoError(t, err)
	assert.Equal(t, []string{"file", "hide"}, dom.Classes(el))

	r.Set("visible", true)
	assert.Equal(t, []string{"file", "show"}, dom.Classes(el))

	settings := NewSettings(map[string]string{HideClass: "hidden", ShowClass: "visible"})
	el = dom.MustDomify(`<div data-hide="done"></div>`)
	r, err = New(el, map[string]any{"done": true}, WithSettings(settings))
	require.NoError(t, err)
	assert.Equal(t, []string{"hidden"}, dom.Classes(el))

	r.Set("done", 0)
	assert.Equal(t, []string{"visible"}, dom.Classes(el))
}

func TestChecked(t *testing.T) {
	el := dom.MustDomify(`<input type="checkbox" data-checked="!pending">`)
	r, err := New(el, map[string]any{"pending": true})
	require.NoError(t, err)
	assert.False(t, dom.HasAttr(el, "checked"))

	r.Set("pending", false)
	v, ok := dom.Attr(el, "checked")
	assert.True(t, ok)
	assert.Equal(t, "checked", v)
}

func TestAppendReplace(t *testing.T) {
	sub := dom.MustDomify(`<span>{name}</span>`)
	subview, err := New(sub, map[string]any{"name": "nested"})
	require.NoError(t, err)

	el := dom.MustDomify(`<div><p data-append="child"></p><i data-replace="other">gone</i><ul data-append="items"></ul></div>`)
	model := map[string]any{
		"child": subview,
		"other": dom.MustDomify(`<em>{name}</em>`),
		"items": dom.MustDomify(`<li>a</li><li>b</li>`),
		"name":  "outer",
	}
	r, err := New(el, model)
	require.NoError(t, err)
	assert.Equal(t, `<div><p data-append="child"><span>nested</span></p><em>{name}</em><ul data-append="items"><li>a</li><li>b</li></ul></div>`, dom.OuterHTML(r.Element()))
}

func TestEvents(t *testing.T) {
	var removed []string
	view := View{
		"remove": func(evt Event, r *Reactive) {
			removed = append(removed, toString(r.Get("this")))
		},
	}
	todos := NewList("a", "b")
	ul := dom.MustDomify(`<ul><li each="todos"><button on-click="remove">{this}</button></li></ul>`)
	r, err := New(ul, map[string]any{"todos": todos}, WithView(view))
	require.NoError(t, err)

	var phases []int
	r.Listen(ul, "click", NewEventHandler(func(evt Event) { phases = append(phases, evt.Phase()) }))
	r.Listen(ul, "click", NewEventHandler(func(evt Event) { phases = append(phases, -evt.Phase()) }).ForCapture())

	buttons := dom.QueryAll(ul, "on-click")
	require.Len(t, buttons, 2)
	evt := r.Dispatch(buttons[1], "click", nil)
	assert.Equal(t, []string{"b"}, removed)
	assert.True(t, evt.DefaultPrevented())
	assert.Same(t, buttons[1], evt.Target())
	assert.Equal(t, []int{-PhaseCapture, PhaseBubble}, phases)

	r.Dispatch(buttons[0], "dblclick", nil)
	assert.Equal(t, []string{"b"}, removed)

	todos.Remove(1)
	r.Dispatch(buttons[1], "click", nil)
	assert.Equal(t, []string{"b"}, removed, "listeners of removed items are dropped")
}

func TestEventPropagation(t *testing.T) {
	el := dom.MustDomify(`<div><p><button>x</button></p></div>`)
	r, err := New(el, nil)
	require.NoError(t, err)
	p := dom.Children(el)[0]
	button := dom.Children(p)[0]

	var got []string
	r.Listen(p, "click", NewEventHandler(func(evt Event) {
		got = append(got, "p")
		evt.StopPropagation()
	}))
	r.Listen(el, "click", NewEventHandler(func(evt Event) { got = append(got, "div") }))
	once := NewEventHandler(func(evt Event) { got = append(got, "once") }).TriggerOnce()
	r.Listen(button, "click", once)

	r.Dispatch(button, "click", nil)
	r.Dispatch(button, "click", nil)
	assert.Equal(t, []string{"once", "p", "p"}, got)

	r.Unlisten(p, nil)
	r.Destroy()
	got = nil
	r.Dispatch(button, "click", nil)
	assert.Empty(t, got)
}

type preventer struct{ called bool }

func (p *preventer) PreventDefault() { p.called = true }

func TestEventNative(t *testing.T) {
	calls := 0
	el := dom.MustDomify(`<form on-submit="save"></form>`)
	r, err := New(el, nil, WithView(View{"save": func() { calls++ }}))
	require.NoError(t, err)

	native := &preventer{}
	evt := r.Dispatch(el, "submit", native)
	assert.Equal(t, 1, calls)
	assert.True(t, native.called)
	assert.Same(t, native, evt.Native())
}
