package reactive

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"
)

var interpolationPattern = regexp.MustCompile(`\{([^}]+)\}`)

// HasInterpolation reports whether text contains at least one {expr} span.
func HasInterpolation(text string) bool {
	return interpolationPattern.MatchString(text)
}

// Template is a string made of literal spans and {expr} spans.
type Template struct {
	Source string
	parts  []templatePart
	props  []string
}

type templatePart struct {
	literal string
	src     string
	expr    *Expr
	err     error
}

var templateCache = newCache[*Template](cacheSize)

// ParseTemplate splits text into its literal and expression spans. Spans
// which fail to parse are kept: they render empty and Render reports them.
// Templates are cached per source.
func ParseTemplate(text string) *Template {
	if t, ok := templateCache.Get(text); ok {
		return t
	}
	t := parseTemplate(text)
	templateCache.Add(text, t)
	return t
}

func parseTemplate(text string) *Template {
	t := &Template{Source: text}
	seen := make(map[string]bool)
	last := 0
	for _, m := range interpolationPattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			t.parts = append(t.parts, templatePart{literal: text[last:m[0]]})
		}
		src := strings.TrimSpace(text[m[2]:m[3]])
		x, err := ParseExpr(src)
		t.parts = append(t.parts, templatePart{src: src, expr: x, err: err})
		if x != nil {
			for _, p := range x.Props() {
				if !seen[p] {
					seen[p] = true
					t.props = append(t.props, p)
				}
			}
		}
		last = m[1]
	}
	if last < len(text) {
		t.parts = append(t.parts, templatePart{literal: text[last:]})
	}
	return t
}

// Props returns the distinct keypaths referenced by the template, in order of
// first appearance.
func (t *Template) Props() []string {
	return t.props
}

// Render evaluates every expression span and concatenates the result with the
// literal spans. Spans failing to evaluate render empty; their errors are
// returned joined alongside the rendered string.
func (t *Template) Render(s scope) (string, error) {
	var sb strings.Builder
	var errs []error
	for _, p := range t.parts {
		if p.expr == nil && p.err == nil {
			sb.WriteString(p.literal)
			continue
		}
		if p.err != nil {
			errs = append(errs, p.err)
			continue
		}
		v, err := p.expr.Eval(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("{%s}: %w", p.src, err))
		}
		sb.WriteString(toString(v))
	}
	return sb.String(), errors.Join(errs...)
}

// InterpolationProps returns the distinct keypaths referenced in the {expr}
// spans of text. Formatter names and literal arguments are not included.
func InterpolationProps(text string) []string {
	return ParseTemplate(text).Props()
}

// Truthy reports whether v counts as true in a conditional: nil, false, zero
// numbers, empty strings and empty collections are false.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case Sequence:
		return !isNil(t) && t.Len() > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.String:
		return rv.Len() > 0
	case reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	case reflect.Map, reflect.Slice:
		return !rv.IsNil() && rv.Len() > 0
	}
	return true
}

// toString renders a value inside text or attribute content. Nil renders
// empty.
func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case fmt.Stringer:
		return t.String()
	case error:
		return t.Error()
	}
	if isNil(v) {
		return ""
	}
	return fmt.Sprint(v)
}
