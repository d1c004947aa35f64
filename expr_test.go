package reactive

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testScope struct {
	values     map[string]any
	formatters map[string]Formatter
}

func (s testScope) Get(key string) any {
	v, _ := Resolve(s.values, key)
	return v
}

func (s testScope) formatter(name string) (Formatter, bool) {
	f, ok := s.formatters[name]
	return f, ok
}

func newTestScope(values map[string]any) testScope {
	return testScope{
		values: values,
		formatters: map[string]Formatter{
			"upper": func(v any, _ ...string) any { return strings.ToUpper(toString(v)) },
			"wrap": func(v any, args ...string) any {
				return strings.Join(args, "") + toString(v) + strings.Join(args, "")
			},
		},
	}
}

func TestParseExpr(t *testing.T) {
	x, err := ParseExpr(`name.first | upper | wrap:'"':' '`)
	require.NoError(t, err)
	assert.Equal(t, "name.first", x.Path)
	assert.Equal(t, []FormatterCall{
		{Name: "upper"},
		{Name: "wrap", Args: []string{`"`, " "}},
	}, x.Formatters)
	assert.Equal(t, []string{"name.first"}, x.Props())

	x, err = ParseExpr(`a || b`)
	require.NoError(t, err)
	assert.Empty(t, x.Path)
	assert.Empty(t, x.Formatters)
	assert.Equal(t, []string{"a", "b"}, x.Props())

	same, _ := ParseExpr(`a || b`)
	assert.Same(t, x, same)

	_, err = ParseExpr(`  | upper`)
	assert.Error(t, err)
	_, err = ParseExpr(`name |`)
	assert.Error(t, err)
	_, err = ParseExpr(`a ? : b`)
	assert.Error(t, err)
}

func TestInterpolationProps(t *testing.T) {
	props := InterpolationProps(`{first} and {name.last | wrap:'x'} {a ? b : 'c'} {first}`)
	assert.ElementsMatch(t, []string{"first", "name.last", "a", "b"}, props)

	assert.Empty(t, InterpolationProps("no expressions here"))
	assert.Equal(t, []string{"user.name"}, InterpolationProps(`{upper(user.name)}`))
}

func TestEval(t *testing.T) {
	s := newTestScope(map[string]any{
		"name":    "tobi",
		"empty":   "",
		"count":   41,
		"price":   2.5,
		"done":    false,
		"user":    map[string]any{"name": "loki", "tags": []any{"a", "b"}},
		"missing": nil,
	})

	tests := []struct {
		expr string
		want string
	}{
		{`name`, "tobi"},
		{`name | upper`, "TOBI"},
		{`name | upper | wrap:'*'`, "*TOBI*"},
		{`name ? name : 'no name given'`, "tobi"},
		{`empty ? empty : 'no name given'`, "no name given"},
		{`missing ? missing : "none"`, "none"},
		{`empty || 'fallback'`, "fallback"},
		{`name && 'yes'`, "yes"},
		{`done && 'yes'`, "false"},
		{`!done`, "true"},
		{`count + 1`, "42"},
		{`price * 2`, "5"},
		{`count > 40 ? 'many' : 'few'`, "many"},
		{`user.name | upper`, "LOKI"},
		{`upper(user.name)`, "LOKI"},
		{`length(user.tags)`, "2"},
		{`join("-", user.tags)`, "a-b"},
		{`name == 'tobi' ? 'it\'s tobi' : 'other'`, "it's tobi"},
		{`(name)`, "tobi"},
		{`'${name}'`, "${name}"},
		{`missing.deeper`, ""},
		{`count`, "41"},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			x, err := ParseExpr(tt.expr)
			require.NoError(t, err)
			v, err := x.Eval(s)
			require.NoError(t, err)
			assert.Equal(t, tt.want, toString(v))
		})
	}
}

func TestEvalMissingFormatter(t *testing.T) {
	s := newTestScope(map[string]any{"name": "tobi"})
	x, err := ParseExpr(`name | nope | upper`)
	require.NoError(t, err)
	v, err := x.Eval(s)
	assert.True(t, errors.Is(err, ErrMissingFormatter))
	assert.Equal(t, "TOBI", v)
}

func TestTemplateRender(t *testing.T) {
	s := newTestScope(map[string]any{"first": "Tobi", "last": "Ferret", "age": 0})

	tmpl := ParseTemplate("Hello {first} {last | upper}, age {age}!")
	got, err := tmpl.Render(s)
	require.NoError(t, err)
	assert.Equal(t, "Hello Tobi FERRET, age 0!", got)
	assert.Same(t, tmpl, ParseTemplate("Hello {first} {last | upper}, age {age}!"))

	got, err = ParseTemplate("{first} {a ? : b}").Render(s)
	assert.Error(t, err)
	assert.Equal(t, "Tobi ", got)

	assert.True(t, HasInterpolation("a {b} c"))
	assert.False(t, HasInterpolation("a {} c"))
}

func TestTruthy(t *testing.T) {
	falsy := []any{nil, false, "", 0, 0.0, uint(0), []any{}, map[string]any{}, NewList(), (*List)(nil), (*person)(nil)}
	for _, v := range falsy {
		assert.False(t, Truthy(v), "%#v", v)
	}
	truthy := []any{true, "a", 1, -1, 0.5, []any{1}, map[string]any{"a": 1}, NewList(1), &person{}, struct{}{}}
	for _, v := range truthy {
		assert.True(t, Truthy(v), "%#v", v)
	}
}

func TestToCtyNil(t *testing.T) {
	assert.True(t, toCty((*List)(nil)).IsNull())
	assert.True(t, toCty((*Model)(nil)).IsNull())

	x, err := ParseExpr(`todos ? 'some' : 'none'`)
	require.NoError(t, err)
	v, err := x.Eval(newTestScope(map[string]any{"todos": (*List)(nil)}))
	require.NoError(t, err)
	assert.Equal(t, "none", v)
}

func TestCachesAreBounded(t *testing.T) {
	for i := 0; i < cacheSize+100; i++ {
		ParseTemplate(fmt.Sprintf("{n%d} items", i))
	}
	assert.LessOrEqual(t, exprCache.Len(), cacheSize)
	assert.LessOrEqual(t, templateCache.Len(), cacheSize)

	tmpl := ParseTemplate("{recent} items")
	assert.Same(t, tmpl, ParseTemplate("{recent} items"))
}

func TestNormalizeQuotes(t *testing.T) {
	assert.Equal(t, `a ? "b" : "c"`, normalizeQuotes(`a ? 'b' : 'c'`))
	assert.Equal(t, `"say \"hi\""`, normalizeQuotes(`'say "hi"'`))
	assert.Equal(t, `"it's"`, normalizeQuotes(`'it\'s'`))
	assert.Equal(t, `"$${x} %%{y}"`, normalizeQuotes(`'${x} %{y}'`))
}
