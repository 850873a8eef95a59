package scenario

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
)

// env holds the fixtures and bindings visible to a step.
type env map[string]ir.Value

// expr is a step argument with its references unresolved.
type expr interface {
	eval(e env) (ir.Value, error)

	// refs appends the names the expression reads.
	refs(names []string) []string
}

type literal struct{ v ir.Value }

func (l literal) eval(env) (ir.Value, error) { return l.v, nil }
func (l literal) refs(names []string) []string { return names }

type ref struct{ name string }

func (r ref) eval(e env) (ir.Value, error) {
	v, ok := e[r.name]
	if !ok {
		return nil, harness.Throw(harness.KindReference, "%s is not defined", r.name)
	}
	return v, nil
}

func (r ref) refs(names []string) []string { return append(names, r.name) }

type arrayExpr []expr

func (a arrayExpr) eval(e env) (ir.Value, error) {
	out := make(ir.Array, len(a))
	for i, elem := range a {
		v, err := elem.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (a arrayExpr) refs(names []string) []string {
	for _, elem := range a {
		names = elem.refs(names)
	}
	return names
}

type objectExpr map[string]expr

func (o objectExpr) eval(e env) (ir.Value, error) {
	out := make(ir.Object, len(o))
	for k, elem := range o {
		v, err := elem.eval(e)
		if err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, nil
}

func (o objectExpr) refs(names []string) []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		names = o[k].refs(names)
	}
	return names
}

// parseExpr converts a decoded suite value into an expression.
//
// A string "$name" becomes a reference; "$$text" is the literal "$text".
// Containers holding no references collapse into a single literal.
func parseExpr(raw any) (expr, error) {
	switch val := raw.(type) {
	case string:
		switch {
		case strings.HasPrefix(val, "$$"):
			return literal{ir.String(val[1:])}, nil
		case strings.HasPrefix(val, "$") && len(val) > 1:
			return ref{val[1:]}, nil
		}
		return literal{ir.String(val)}, nil
	case []any:
		arr := make(arrayExpr, len(val))
		dynamic := false
		for i, elem := range val {
			ex, err := parseExpr(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			if _, ok := ex.(literal); !ok {
				dynamic = true
			}
			arr[i] = ex
		}
		if !dynamic {
			v, _ := arr.eval(nil)
			return literal{v}, nil
		}
		return arr, nil
	case map[string]any:
		obj := make(objectExpr, len(val))
		dynamic := false
		for k, elem := range val {
			ex, err := parseExpr(elem)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			if _, ok := ex.(literal); !ok {
				dynamic = true
			}
			obj[k] = ex
		}
		if !dynamic {
			v, _ := obj.eval(nil)
			return literal{v}, nil
		}
		return obj, nil
	}

	v, err := ir.FromGo(raw)
	if err != nil {
		return nil, err
	}
	return literal{v}, nil
}
