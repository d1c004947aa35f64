package reactive

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestChangeBus(t *testing.T) {
	var b changeBus
	var got []string
	sub := func(name string) *ChangeHandler {
		return NewChangeHandler(func(evt ChangeEvent) {
			got = append(got, name+"<"+evt.Key)
		})
	}

	name := sub("name")
	b.Subscribe("name", name)
	b.Subscribe("name.first", sub("first"))
	b.Subscribe("age", sub("age"))
	b.Subscribe("name", sub("name2"))
	assert.Equal(t, 4, b.Len())

	tests := []struct {
		key  string
		want []string
	}{
		{"name.first", []string{"name<name.first", "first<name.first", "name2<name.first"}},
		{"name", []string{"name<name", "first<name", "name2<name"}},
		{"name.last", []string{"name<name.last", "name2<name.last"}},
		{"age", []string{"age<age"}},
		{"other", nil},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got = nil
			b.Publish(tt.key, nil)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Publish(%q) mismatch (-want +got):\n%s", tt.key, diff)
			}
		})
	}

	b.Unsubscribe("name", name)
	b.Unsubscribe("nowhere", name)
	assert.Equal(t, 3, b.Len())

	got = nil
	b.Publish("name", nil)
	assert.Equal(t, []string{"first<name", "name2<name"}, got)

	b.Clear()
	assert.Zero(t, b.Len())
}

func TestChangeEventName(t *testing.T) {
	assert.Equal(t, "change name.first", ChangeEvent{Key: "name.first"}.Name())
}
