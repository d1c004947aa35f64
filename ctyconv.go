package reactive

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

// maxCtyDepth bounds the conversion of cyclic model graphs.
const maxCtyDepth = 16

// toCty converts a model value into a cty value so that hcl can evaluate
// expressions over it. Values with no cty counterpart become their string
// rendition.
func toCty(v any) cty.Value {
	return toCtyDepth(v, 0)
}

func toCtyDepth(v any, depth int) cty.Value {
	if depth > maxCtyDepth {
		return cty.NullVal(cty.DynamicPseudoType)
	}
	switch t := v.(type) {
	case nil:
		return cty.NullVal(cty.DynamicPseudoType)
	case cty.Value:
		return t
	case string:
		return cty.StringVal(t)
	case bool:
		return cty.BoolVal(t)
	case int:
		return cty.NumberIntVal(int64(t))
	case int8:
		return cty.NumberIntVal(int64(t))
	case int16:
		return cty.NumberIntVal(int64(t))
	case int32:
		return cty.NumberIntVal(int64(t))
	case int64:
		return cty.NumberIntVal(t)
	case uint:
		return cty.NumberUIntVal(uint64(t))
	case uint8:
		return cty.NumberUIntVal(uint64(t))
	case uint16:
		return cty.NumberUIntVal(uint64(t))
	case uint32:
		return cty.NumberUIntVal(uint64(t))
	case uint64:
		return cty.NumberUIntVal(t)
	case float32:
		return floatVal(float64(t))
	case float64:
		return floatVal(t)
	case *Model:
		if t == nil {
			return cty.NullVal(cty.DynamicPseudoType)
		}
		return toCtyDepth(t.Attrs(), depth+1)
	case Sequence:
		if isNil(t) {
			return cty.NullVal(cty.DynamicPseudoType)
		}
		items := make([]cty.Value, t.Len())
		for i := range items {
			items[i] = toCtyDepth(t.At(i), depth+1)
		}
		return tupleVal(items)
	case map[string]any:
		attrs := make(map[string]cty.Value, len(t))
		for k, e := range t {
			attrs[k] = toCtyDepth(invoke(e), depth+1)
		}
		return cty.ObjectVal(attrs)
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String:
		return cty.StringVal(rv.String())
	case reflect.Bool:
		return cty.BoolVal(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return cty.NumberIntVal(rv.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return cty.NumberUIntVal(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return floatVal(rv.Float())
	case reflect.Slice, reflect.Array:
		items := make([]cty.Value, rv.Len())
		for i := range items {
			items[i] = toCtyDepth(rv.Index(i).Interface(), depth+1)
		}
		return tupleVal(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		attrs := make(map[string]cty.Value, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			attrs[iter.Key().String()] = toCtyDepth(invoke(iter.Value().Interface()), depth+1)
		}
		return cty.ObjectVal(attrs)
	case reflect.Struct:
		attrs := make(map[string]cty.Value)
		t := rv.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			val := toCtyDepth(rv.Field(i).Interface(), depth+1)
			if tag, ok := f.Tag.Lookup("reactive"); ok && tag != "" {
				attrs[tag] = val
				continue
			}
			attrs[f.Name] = val
			if lower := strings.ToLower(f.Name[:1]) + f.Name[1:]; lower != f.Name {
				attrs[lower] = val
			}
		}
		return cty.ObjectVal(attrs)
	}
	return cty.StringVal(fmt.Sprint(v))
}

func floatVal(f float64) cty.Value {
	if math.IsNaN(f) {
		return cty.NullVal(cty.Number)
	}
	return cty.NumberFloatVal(f)
}

func tupleVal(items []cty.Value) cty.Value {
	if len(items) == 0 {
		return cty.EmptyTupleVal
	}
	return cty.TupleVal(items)
}

// fromCty converts an evaluation result back to plain Go values: string,
// bool, int64 or float64, []any and map[string]any.
func fromCty(v cty.Value) any {
	if v.IsNull() || !v.IsKnown() {
		return nil
	}
	t := v.Type()
	switch {
	case t == cty.String:
		return v.AsString()
	case t == cty.Bool:
		return v.True()
	case t == cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return i
			}
		}
		f, _ := bf.Float64()
		return f
	case t.IsListType() || t.IsTupleType() || t.IsSetType():
		items := make([]any, 0, v.LengthInt())
		for it := v.ElementIterator(); it.Next(); {
			_, e := it.Element()
			items = append(items, fromCty(e))
		}
		return items
	case t.IsMapType() || t.IsObjectType():
		m := make(map[string]any)
		for it := v.ElementIterator(); it.Next(); {
			k, e := it.Element()
			m[k.AsString()] = fromCty(e)
		}
		return m
	}
	return nil
}
