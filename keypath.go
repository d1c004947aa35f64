// Package reactive binds a tree of HTML nodes to a data model. Text, attributes,
// visibility and repeated fragments follow the model as it changes, and writes
// performed through the binding context flow back into the model.
package reactive

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Getter is implemented by models which resolve their own keys. It is
// consulted for one keypath segment at a time.
type Getter interface {
	Get(key string) (any, bool)
}

// Setter is implemented by models which assign their own keys. The key is
// the full keypath being written.
type Setter interface {
	Set(key string, value any)
}

const thisKey = "this"

// SplitKeypath returns the segments of a dotted keypath.
func SplitKeypath(path string) []string {
	return strings.Split(path, ".")
}

// topLevel returns the first segment of a keypath.
func topLevel(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// Resolve evaluates a keypath against root. Segments are resolved left to
// right; zero-argument accessors found on the way are invoked and their
// result is used for the next segment. The special key "this" designates root
// itself. The second result is false as soon as a segment is missing or an
// intermediate value is nil. Falsy values such as 0, false or "" resolve
// normally.
func Resolve(root any, path string) (any, bool) {
	if path == thisKey {
		if s, ok := root.(itemScope); ok {
			return s.item, true
		}
		return root, root != nil
	}
	path = strings.TrimPrefix(path, thisKey+".")

	obj := root
	for _, segment := range SplitKeypath(path) {
		if isNil(obj) {
			return nil, false
		}
		v, ok := lookup(obj, segment)
		if !ok {
			return nil, false
		}
		obj = v
	}
	return obj, true
}

// Assign writes value at the keypath. The parent path is resolved first; the
// last segment is then written through a Setter, a single-argument function
// stored under the key, a Set<Key> method, a map entry or a struct field.
func Assign(root any, path string, value any) error {
	segments := SplitKeypath(strings.TrimPrefix(path, thisKey+"."))
	parent := root
	if len(segments) > 1 {
		p, ok := Resolve(root, strings.Join(segments[:len(segments)-1], "."))
		if !ok || isNil(p) {
			return fmt.Errorf("%w: %s", ErrNotAssignable, path)
		}
		parent = p
	}
	key := segments[len(segments)-1]
	if key == thisKey || isNil(parent) {
		return fmt.Errorf("%w: %s", ErrNotAssignable, path)
	}
	if err := assign(parent, key, value); err != nil {
		return fmt.Errorf("%w: %s", err, path)
	}
	return nil
}

func lookup(obj any, segment string) (any, bool) {
	switch o := obj.(type) {
	case Getter:
		v, ok := o.Get(segment)
		if !ok {
			return nil, false
		}
		return invoke(v), true
	case map[string]any:
		v, ok := o[segment]
		if !ok {
			return nil, false
		}
		return invoke(v), true
	case Sequence:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= o.Len() {
			return nil, false
		}
		return invoke(o.At(i)), true
	}

	rv := reflect.ValueOf(obj)
	if m := rv.MethodByName(exportedName(segment)); m.IsValid() && isAccessor(m) {
		return m.Call(nil)[0].Interface(), true
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return invoke(v.Interface()), true
	case reflect.Struct:
		f, ok := field(rv, segment)
		if !ok || !f.CanInterface() {
			return nil, false
		}
		return invoke(f.Interface()), true
	case reflect.Slice, reflect.Array:
		i, err := strconv.Atoi(segment)
		if err != nil || i < 0 || i >= rv.Len() {
			return nil, false
		}
		return invoke(rv.Index(i).Interface()), true
	}
	return nil, false
}

func assign(obj any, key string, value any) error {
	switch o := obj.(type) {
	case Setter:
		o.Set(key, value)
		return nil
	case map[string]any:
		if callSetter(o[key], value) {
			return nil
		}
		o[key] = value
		return nil
	}

	rv := reflect.ValueOf(obj)
	if m := rv.MethodByName("Set" + exportedName(key)); m.IsValid() && m.Type().NumIn() == 1 {
		if arg, ok := convert(value, m.Type().In(0)); ok {
			m.Call([]reflect.Value{arg})
			return nil
		}
	}
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return ErrNotAssignable
		}
		rv = rv.Elem()
	}

	switch rv.Kind() {
	case reflect.Map:
		t := rv.Type()
		if t.Key().Kind() != reflect.String {
			return ErrNotAssignable
		}
		k := reflect.ValueOf(key).Convert(t.Key())
		if cur := rv.MapIndex(k); cur.IsValid() && callSetter(cur.Interface(), value) {
			return nil
		}
		v, ok := convert(value, t.Elem())
		if !ok {
			return ErrNotAssignable
		}
		rv.SetMapIndex(k, v)
		return nil
	case reflect.Struct:
		f, ok := field(rv, key)
		if !ok {
			return ErrNotAssignable
		}
		if f.CanInterface() && callSetter(f.Interface(), value) {
			return nil
		}
		if !f.CanSet() {
			return ErrNotAssignable
		}
		v, ok := convert(value, f.Type())
		if !ok {
			return ErrNotAssignable
		}
		f.Set(v)
		return nil
	}
	return ErrNotAssignable
}

// field finds a struct field by its `reactive` tag, then by name ignoring case.
func field(rv reflect.Value, name string) (reflect.Value, bool) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		if tag, ok := t.Field(i).Tag.Lookup("reactive"); ok && tag == name {
			return rv.Field(i), true
		}
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.IsExported() && strings.EqualFold(f.Name, name) {
			return rv.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// invoke calls v when it is a zero-argument accessor and returns its first
// result. Any other value is returned as is.
func invoke(v any) any {
	switch fn := v.(type) {
	case nil:
		return nil
	case func() any:
		return fn()
	case func() string:
		return fn()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func && !rv.IsNil() && isAccessor(rv) {
		return rv.Call(nil)[0].Interface()
	}
	return v
}

func isAccessor(fn reflect.Value) bool {
	t := fn.Type()
	return t.NumIn() == 0 && t.NumOut() >= 1
}

// callSetter calls fn with value when fn is a single-argument function.
func callSetter(fn any, value any) bool {
	switch f := fn.(type) {
	case nil:
		return false
	case func(any):
		f(value)
		return true
	}
	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func || rv.IsNil() || rv.Type().NumIn() != 1 {
		return false
	}
	arg, ok := convert(value, rv.Type().In(0))
	if !ok {
		return false
	}
	rv.Call([]reflect.Value{arg})
	return true
}

// convert makes value usable where a t is expected. Only assignment and
// numeric conversions are performed: model values are not coerced.
func convert(value any, t reflect.Type) (reflect.Value, bool) {
	if value == nil {
		switch t.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(t), true
		}
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(value)
	if v.Type().AssignableTo(t) {
		return v, true
	}
	if isNumeric(v.Kind()) && isNumeric(t.Kind()) {
		return v.Convert(t), true
	}
	if v.Kind() == reflect.String && t.Kind() == reflect.String {
		return v.Convert(t), true
	}
	return reflect.Value{}, false
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func exportedName(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
