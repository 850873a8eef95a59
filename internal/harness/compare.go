package harness

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/verdict/internal/ir"
)

// compareOptions apply when a value falls outside the ir value model.
// NaNs compare equal so Compare stays reflexive; unexported fields are
// compared instead of panicking.
var compareOptions = []cmp.Option{
	cmpopts.EquateNaNs(),
	cmp.Exporter(func(reflect.Type) bool { return true }),
}

// Compare reports whether actual and expected are equal by value.
//
// Both sides are normalized with ir.FromGo, so 5, int64(5) and ir.Int(5)
// are equal, and []string{"a"} equals []any{"a"}. Values that cannot be
// normalized (structs, fractional floats, funcs) are compared with go-cmp.
// Compare is reflexive and symmetric for every normalizable value.
func Compare(actual, expected any) bool {
	a, aerr := ir.FromGo(actual)
	e, eerr := ir.FromGo(expected)
	if aerr == nil && eerr == nil {
		return ir.Equal(a, e)
	}
	return cmp.Equal(actual, expected, compareOptions...)
}

// normalize returns the ir form of v when it has one, so records hold
// values that cannot be mutated through the caller's slices and maps.
func normalize(v any) any {
	if val, err := ir.FromGo(v); err == nil {
		return val
	}
	return v
}

// Describe renders a value literally for diagnostics: ir values as
// canonical JSON (strings quoted, "" visible), anything else with %#v.
func Describe(v any) string {
	if val, err := ir.FromGo(v); err == nil {
		return ir.Literal(val)
	}
	return fmt.Sprintf("%#v", v)
}

// Diff returns a readable difference between expected and actual, or ""
// when a one-line Expected/Actual pair already says everything.
// Multi-line strings get a unified diff; values outside the ir model get a
// go-cmp diff. Strings that differ only in Unicode normalization look the
// same on a terminal, so they are shown again with non-ASCII escaped.
func Diff(expected, actual any) string {
	es, eok := asString(expected)
	as, aok := asString(actual)
	if eok && aok {
		if !strings.Contains(es, "\n") && !strings.Contains(as, "\n") {
			if es != as && norm.NFC.String(es) == norm.NFC.String(as) {
				return fmt.Sprintf("Escaped: expected %s, actual %s", strconv.QuoteToASCII(es), strconv.QuoteToASCII(as))
			}
			return ""
		}
		diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
			A:        difflib.SplitLines(es),
			B:        difflib.SplitLines(as),
			FromFile: "expected",
			ToFile:   "actual",
			Context:  2,
		})
		if err != nil {
			return ""
		}
		return diff
	}

	_, eerr := ir.FromGo(expected)
	_, aerr := ir.FromGo(actual)
	if eerr == nil && aerr == nil {
		return ""
	}
	return cmp.Diff(expected, actual, compareOptions...)
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case ir.String:
		return string(s), true
	}
	return "", false
}
