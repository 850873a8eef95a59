package ir

import (
	"strconv"
	"strings"
)

// Equal reports structural equality of two values.
// A nil interface equals Null. Object comparison ignores key order.
func Equal(a, b Value) bool {
	if a == nil {
		a = Null{}
	}
	if b == nil {
		b = Null{}
	}

	switch x := a.(type) {
	case Null:
		_, ok := b.(Null)
		return ok
	case String:
		y, ok := b.(String)
		return ok && x == y
	case Int:
		y, ok := b.(Int)
		return ok && x == y
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Array:
		y, ok := b.(Array)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case Object:
		y, ok := b.(Object)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, xv := range x {
			yv, exists := y[k]
			if !exists || !Equal(xv, yv) {
				return false
			}
		}
		return true
	}
	return false
}

// Text converts a value to its string form.
//
// Strings are returned as-is, integers in decimal, booleans as true/false,
// null as "null". Arrays join the text of their elements with "," and
// render null elements as the empty string, so [1,[2,3]] becomes "1,2,3".
// Objects are rendered as canonical JSON.
func Text(v Value) string {
	switch val := v.(type) {
	case nil, Null:
		return "null"
	case String:
		return string(val)
	case Int:
		return strconv.FormatInt(int64(val), 10)
	case Bool:
		return strconv.FormatBool(bool(val))
	case Array:
		parts := make([]string, len(val))
		for i, elem := range val {
			if _, isNull := elem.(Null); isNull || elem == nil {
				continue
			}
			parts[i] = Text(elem)
		}
		return strings.Join(parts, ",")
	case Object:
		data, err := MarshalCanonical(val)
		if err != nil {
			return "{}"
		}
		return string(data)
	}
	return ""
}

// Literal renders a value as it would be written in a suite file:
// canonical JSON, so strings are quoted and "" stays visible. Strings are
// not normalized.
func Literal(v Value) string {
	data, err := MarshalLiteral(v)
	if err != nil {
		return Text(v)
	}
	return string(data)
}
