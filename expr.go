package reactive

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

var keypathPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*(?:\.[\w$]+)*$`)

// functions are callable from general expressions, e.g. {upper(name)}.
var functions = map[string]function.Function{
	"upper":     stdlib.UpperFunc,
	"lower":     stdlib.LowerFunc,
	"trimspace": stdlib.TrimSpaceFunc,
	"strlen":    stdlib.StrlenFunc,
	"length":    stdlib.LengthFunc,
	"join":      stdlib.JoinFunc,
	"format":    stdlib.FormatFunc,
	"max":       stdlib.MaxFunc,
	"min":       stdlib.MinFunc,
}

// FormatterCall is one step of a formatter chain: `| name:'arg1':'arg2'`.
type FormatterCall struct {
	Name string
	Args []string
}

// Expr is a parsed binding expression: a value expression optionally
// followed by a formatter chain. The value expression is either a plain
// keypath or a general expression (conditionals, boolean operators,
// comparisons, literals, function calls).
type Expr struct {
	Source     string
	Path       string
	Formatters []FormatterCall

	syntax hclsyntax.Expression
	props  []string
}

// scope is what expressions are evaluated against.
type scope interface {
	Get(key string) any
	formatter(name string) (Formatter, bool)
}

type parsedExpr struct {
	x   *Expr
	err error
}

// cacheSize bounds the expression and template caches. Directives may build
// their sources at run time, so the set of sources is open ended.
const cacheSize = 4096

var exprCache = newCache[parsedExpr](cacheSize)

func newCache[V any](size int) *lru.Cache[string, V] {
	c, err := lru.New[string, V](size)
	if err != nil {
		panic(err)
	}
	return c
}

// ParseExpr parses a binding expression. Results are cached per source, the
// least recently used sources being evicted first.
func ParseExpr(src string) (*Expr, error) {
	if p, ok := exprCache.Get(src); ok {
		return p.x, p.err
	}
	x, err := parseExpr(src)
	exprCache.Add(src, parsedExpr{x, err})
	return x, err
}

func parseExpr(src string) (*Expr, error) {
	parts := splitOutsideQuotes(src, '|')
	value := strings.TrimSpace(parts[0])
	if value == "" {
		return nil, fmt.Errorf("reactive: empty expression in %q", src)
	}

	x := &Expr{Source: src}
	for _, p := range parts[1:] {
		call, err := parseFormatter(p)
		if err != nil {
			return nil, fmt.Errorf("reactive: %q: %w", src, err)
		}
		x.Formatters = append(x.Formatters, call)
	}

	if keypathPattern.MatchString(value) {
		x.Path = value
		x.props = []string{value}
		return x, nil
	}

	syntax, diags := hclsyntax.ParseExpression([]byte(normalizeQuotes(value)), "interpolation", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("reactive: parse %q: %w", value, diags)
	}
	x.syntax = syntax
	x.props = traversalProps(syntax.Variables())
	return x, nil
}

func parseFormatter(src string) (FormatterCall, error) {
	parts := splitOutsideQuotes(src, ':')
	name := strings.TrimSpace(parts[0])
	if name == "" {
		return FormatterCall{}, errors.New("formatter name missing")
	}
	call := FormatterCall{Name: name}
	for _, a := range parts[1:] {
		call.Args = append(call.Args, unquote(strings.TrimSpace(a)))
	}
	return call, nil
}

// Props returns the keypaths the expression depends on. Formatter names,
// function names and literals are not part of it.
func (x *Expr) Props() []string {
	return x.props
}

// Eval computes the value of the expression and runs it through the
// formatter chain, left to right. A missing formatter is skipped: the value
// passes through and the returned error names it.
func (x *Expr) Eval(s scope) (any, error) {
	var v any
	if x.Path != "" {
		v = s.Get(x.Path)
	} else {
		var err error
		v, err = evalSyntax(x.syntax, s)
		if err != nil {
			return nil, err
		}
	}

	var errs []error
	for _, call := range x.Formatters {
		fn, ok := s.formatter(call.Name)
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingFormatter, call.Name))
			continue
		}
		v = fn(v, call.Args...)
	}
	return v, errors.Join(errs...)
}

// evalSyntax evaluates general expressions. Conditionals and boolean
// operators follow truthiness rules so that `name ? name : 'none'` works on
// any value; everything else is evaluated by hcl.
func evalSyntax(e hclsyntax.Expression, s scope) (any, error) {
	switch n := e.(type) {
	case *hclsyntax.ParenthesesExpr:
		return evalSyntax(n.Expression, s)
	case *hclsyntax.ScopeTraversalExpr:
		if key, ok := traversalKeypath(n.Traversal); ok {
			return s.Get(key), nil
		}
	case *hclsyntax.ConditionalExpr:
		c, err := evalSyntax(n.Condition, s)
		if err != nil {
			return nil, err
		}
		if Truthy(c) {
			return evalSyntax(n.TrueResult, s)
		}
		return evalSyntax(n.FalseResult, s)
	case *hclsyntax.UnaryOpExpr:
		if n.Op == hclsyntax.OpLogicalNot {
			v, err := evalSyntax(n.Val, s)
			if err != nil {
				return nil, err
			}
			return !Truthy(v), nil
		}
	case *hclsyntax.BinaryOpExpr:
		switch n.Op {
		case hclsyntax.OpLogicalOr:
			l, err := evalSyntax(n.LHS, s)
			if err != nil || Truthy(l) {
				return l, err
			}
			return evalSyntax(n.RHS, s)
		case hclsyntax.OpLogicalAnd:
			l, err := evalSyntax(n.LHS, s)
			if err != nil || !Truthy(l) {
				return l, err
			}
			return evalSyntax(n.RHS, s)
		}
	}

	v, diags := e.Value(evalContext(e, s))
	if diags.HasErrors() {
		return nil, diags
	}
	return fromCty(v), nil
}

func evalContext(e hclsyntax.Expression, s scope) *hcl.EvalContext {
	vars := make(map[string]cty.Value)
	for _, t := range e.Variables() {
		root := t.RootName()
		if _, ok := vars[root]; ok {
			continue
		}
		vars[root] = toCty(s.Get(root))
	}
	return &hcl.EvalContext{Variables: vars, Functions: functions}
}

// traversalKeypath turns a traversal made of attribute steps into a keypath.
func traversalKeypath(t hcl.Traversal) (string, bool) {
	if len(t) == 0 {
		return "", false
	}
	parts := []string{t.RootName()}
	for _, step := range t[1:] {
		attr, ok := step.(hcl.TraverseAttr)
		if !ok {
			return "", false
		}
		parts = append(parts, attr.Name)
	}
	return strings.Join(parts, "."), true
}

func traversalProps(traversals []hcl.Traversal) []string {
	var props []string
	seen := make(map[string]bool)
	for _, t := range traversals {
		parts := []string{t.RootName()}
		for _, step := range t[1:] {
			attr, ok := step.(hcl.TraverseAttr)
			if !ok {
				break
			}
			parts = append(parts, attr.Name)
		}
		key := strings.Join(parts, ".")
		if !seen[key] {
			seen[key] = true
			props = append(props, key)
		}
	}
	return props
}

// splitOutsideQuotes splits s on sep, ignoring separators inside quoted
// strings. A '|' doubled into '||' is an operator, not a separator.
func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == sep:
			if sep == '|' && ((i+1 < len(s) && s[i+1] == '|') || (i > 0 && s[i-1] == '|')) {
				continue
			}
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

func unquote(s string) string {
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') || s[len(s)-1] != s[0] {
		return s
	}
	inner := s[1 : len(s)-1]
	var sb strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		sb.WriteByte(inner[i])
	}
	return sb.String()
}

// normalizeQuotes rewrites single quoted string literals as double quoted
// ones and escapes template sequences, so that the expression can be read
// by the hcl parser.
func normalizeQuotes(s string) string {
	var sb strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote == 0 {
			if c == '\'' || c == '"' {
				quote = c
				sb.WriteByte('"')
				continue
			}
			sb.WriteByte(c)
			continue
		}
		switch {
		case c == '\\' && i+1 < len(s):
			i++
			if s[i] == '\'' {
				sb.WriteByte('\'')
			} else {
				sb.WriteByte('\\')
				sb.WriteByte(s[i])
			}
		case c == quote:
			quote = 0
			sb.WriteByte('"')
		case c == '"':
			sb.WriteString(`\"`)
		case (c == '$' || c == '%') && i+1 < len(s) && s[i+1] == '{':
			sb.WriteByte(c)
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
