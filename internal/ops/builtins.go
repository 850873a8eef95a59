package ops

import (
	"strings"
	"unicode/utf8"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
)

// MaxSerializeDepth is the deepest nesting serialize accepts.
const MaxSerializeDepth = 64

func builtins() []Op {
	return []Op{
		{Name: "to_string", Doc: "string conversion of a value", MinArgs: 1, MaxArgs: 1, Fn: toString},
		{Name: "split", Doc: "split the string form of a value by a separator, up to a limit", MinArgs: 1, MaxArgs: 3, Fn: split},
		{Name: "substr", Doc: "characters of the string form of a value from start, up to a count", MinArgs: 2, MaxArgs: 3, Fn: substr},
		{Name: "join", Doc: "join the string forms of array elements (default separator \",\")", MinArgs: 1, MaxArgs: 2, Fn: join},
		{Name: "length", Doc: "characters of a string, elements of an array, or keys of an object", MinArgs: 1, MaxArgs: 1, Fn: length},
		{Name: "index", Doc: "array element at a position", MinArgs: 2, MaxArgs: 2, Fn: index},
		{Name: "get", Doc: "object field, or null when absent", MinArgs: 2, MaxArgs: 2, Fn: get},
		{Name: "keys", Doc: "sorted keys of an object", MinArgs: 1, MaxArgs: 1, Fn: keys},
		{Name: "contains", Doc: "whether an array holds a value", MinArgs: 2, MaxArgs: 2, Fn: contains},
		{Name: "concat", Doc: "concatenation of arrays", MinArgs: 0, MaxArgs: -1, Fn: concat},
		{Name: "without", Doc: "array elements equal to none of the given values", MinArgs: 1, MaxArgs: -1, Fn: without},
		{Name: "type_of", Doc: "type name of a value", MinArgs: 1, MaxArgs: 1, Fn: typeOf},
		{Name: "serialize", Doc: "canonical JSON text of a value", MinArgs: 1, MaxArgs: 1, Fn: serialize},
		{Name: "raise", Doc: "throw a value of the given kind", MinArgs: 2, MaxArgs: 2, Fn: raise},
	}
}

func toString(args []ir.Value) (ir.Value, error) {
	return ir.String(ir.Text(args[0])), nil
}

// split mirrors string splitting applied to any receiver: the receiver is
// converted to text first. A missing or null separator yields the whole text
// as the only element; an empty separator yields single characters.
func split(args []ir.Value) (ir.Value, error) {
	s := ir.Text(args[0])

	var parts []string
	switch {
	case len(args) < 2 || isNull(args[1]):
		parts = []string{s}
	default:
		sep, err := stringArg("split", "separator", args[1])
		if err != nil {
			return nil, err
		}
		parts = strings.Split(s, sep)
	}

	if len(args) == 3 && !isNull(args[2]) {
		limit, err := intArg("split", "limit", args[2])
		if err != nil {
			return nil, err
		}
		if limit < 0 {
			return nil, harness.Throw(harness.KindRange, "split: limit %d is negative", limit)
		}
		if int(limit) < len(parts) {
			parts = parts[:limit]
		}
	}

	out := make(ir.Array, len(parts))
	for i, p := range parts {
		out[i] = ir.String(p)
	}
	return out, nil
}

// substr clamps start and count to the text, so it never throws for
// positions past the end.
func substr(args []ir.Value) (ir.Value, error) {
	runes := []rune(ir.Text(args[0]))
	start, err := intArg("substr", "start", args[1])
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start = max(int64(len(runes))+start, 0)
	}
	start = min(start, int64(len(runes)))

	end := int64(len(runes))
	if len(args) == 3 && !isNull(args[2]) {
		count, err := intArg("substr", "count", args[2])
		if err != nil {
			return nil, err
		}
		if count < end-start {
			end = start + max(count, 0)
		}
	}
	return ir.String(runes[start:end]), nil
}

func join(args []ir.Value) (ir.Value, error) {
	arr, err := arrayArg("join", args[0])
	if err != nil {
		return nil, err
	}
	sep := ","
	if len(args) == 2 && !isNull(args[1]) {
		if sep, err = stringArg("join", "separator", args[1]); err != nil {
			return nil, err
		}
	}
	parts := make([]string, len(arr))
	for i, elem := range arr {
		if !isNull(elem) {
			parts[i] = ir.Text(elem)
		}
	}
	return ir.String(strings.Join(parts, sep)), nil
}

func length(args []ir.Value) (ir.Value, error) {
	switch v := args[0].(type) {
	case ir.String:
		return ir.Int(utf8.RuneCountInString(string(v))), nil
	case ir.Array:
		return ir.Int(len(v)), nil
	case ir.Object:
		return ir.Int(len(v)), nil
	}
	return nil, harness.Throw(harness.KindType, "length: %s has no length", ir.TypeOf(args[0]))
}

func index(args []ir.Value) (ir.Value, error) {
	arr, err := arrayArg("index", args[0])
	if err != nil {
		return nil, err
	}
	i, err := intArg("index", "position", args[1])
	if err != nil {
		return nil, err
	}
	if i < 0 || int(i) >= len(arr) {
		return nil, harness.Throw(harness.KindRange, "index %d out of range [0, %d)", i, len(arr))
	}
	return arr[i], nil
}

func get(args []ir.Value) (ir.Value, error) {
	obj, ok := args[0].(ir.Object)
	if !ok {
		return nil, harness.Throw(harness.KindType, "get: expected object, got %s", ir.TypeOf(args[0]))
	}
	key, err := stringArg("get", "key", args[1])
	if err != nil {
		return nil, err
	}
	if v, ok := obj[key]; ok {
		return v, nil
	}
	return ir.Null{}, nil
}

func keys(args []ir.Value) (ir.Value, error) {
	obj, ok := args[0].(ir.Object)
	if !ok {
		return nil, harness.Throw(harness.KindType, "keys: expected object, got %s", ir.TypeOf(args[0]))
	}
	sorted := obj.SortedKeys()
	out := make(ir.Array, len(sorted))
	for i, k := range sorted {
		out[i] = ir.String(k)
	}
	return out, nil
}

func contains(args []ir.Value) (ir.Value, error) {
	arr, err := arrayArg("contains", args[0])
	if err != nil {
		return nil, err
	}
	for _, elem := range arr {
		if ir.Equal(elem, args[1]) {
			return ir.Bool(true), nil
		}
	}
	return ir.Bool(false), nil
}

func concat(args []ir.Value) (ir.Value, error) {
	out := ir.Array{}
	for _, a := range args {
		arr, err := arrayArg("concat", a)
		if err != nil {
			return nil, err
		}
		out = append(out, arr...)
	}
	return out, nil
}

func without(args []ir.Value) (ir.Value, error) {
	arr, err := arrayArg("without", args[0])
	if err != nil {
		return nil, err
	}
	out := ir.Array{}
outer:
	for _, elem := range arr {
		for _, drop := range args[1:] {
			if ir.Equal(elem, drop) {
				continue outer
			}
		}
		out = append(out, elem)
	}
	return out, nil
}

func typeOf(args []ir.Value) (ir.Value, error) {
	return ir.String(ir.TypeOf(args[0])), nil
}

// serialize renders canonical JSON. Nesting deeper than MaxSerializeDepth
// is an internal error of the serializer, not of the value.
func serialize(args []ir.Value) (ir.Value, error) {
	if d := depth(args[0]); d > MaxSerializeDepth {
		return nil, harness.Throw(harness.KindInternal, "serialize: depth %d exceeds %d", d, MaxSerializeDepth)
	}
	data, err := ir.MarshalCanonical(args[0])
	if err != nil {
		return nil, harness.WrapThrown(harness.KindInternal, err)
	}
	return ir.String(data), nil
}

func raise(args []ir.Value) (ir.Value, error) {
	name, err := stringArg("raise", "kind", args[0])
	if err != nil {
		return nil, err
	}
	kind, err := harness.ParseKind(name)
	if err != nil {
		return nil, harness.WrapThrown(harness.KindType, err)
	}
	return nil, harness.Throw(kind, "%s", ir.Text(args[1]))
}

func depth(v ir.Value) int {
	deepest := 0
	switch val := v.(type) {
	case ir.Array:
		for _, elem := range val {
			deepest = max(deepest, depth(elem))
		}
		return deepest + 1
	case ir.Object:
		for _, elem := range val {
			deepest = max(deepest, depth(elem))
		}
		return deepest + 1
	}
	return 0
}

func isNull(v ir.Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(ir.Null)
	return ok
}

func stringArg(op, name string, v ir.Value) (string, error) {
	s, ok := v.(ir.String)
	if !ok {
		return "", harness.Throw(harness.KindType, "%s: %s must be a string, got %s", op, name, ir.TypeOf(v))
	}
	return string(s), nil
}

func intArg(op, name string, v ir.Value) (int64, error) {
	n, ok := v.(ir.Int)
	if !ok {
		return 0, harness.Throw(harness.KindType, "%s: %s must be an int, got %s", op, name, ir.TypeOf(v))
	}
	return int64(n), nil
}

func arrayArg(op string, v ir.Value) (ir.Array, error) {
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, harness.Throw(harness.KindType, "%s: expected array, got %s", op, ir.TypeOf(v))
	}
	return arr, nil
}
