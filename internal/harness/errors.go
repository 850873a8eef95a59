package harness

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Kind categorizes a thrown value.
type Kind string

const (
	// KindInternal is an engine-internal error (the category a regression
	// test expects when it provokes an internal assertion).
	KindInternal Kind = "internal"

	// KindRuntime is an ordinary runtime error, including Go runtime panics.
	KindRuntime Kind = "runtime"

	// KindType is a value of the wrong type or an arity violation.
	KindType Kind = "type"

	// KindRange is an index or count outside its valid range.
	KindRange Kind = "range"

	// KindReference is an unknown name (unbound variable, missing operation).
	KindReference Kind = "reference"

	// KindPanic is a panic whose value is not an error.
	KindPanic Kind = "panic"

	// KindUnknown is a plain error with no category.
	KindUnknown Kind = "unknown"
)

// Kinds lists every kind in a stable order.
var Kinds = []Kind{KindInternal, KindRuntime, KindType, KindRange, KindReference, KindPanic, KindUnknown}

// ParseKind resolves a kind name. Matching is case-insensitive.
func ParseKind(name string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown kind %q: must be one of %v", name, Kinds)
}

// Thrown is a categorized thrown value.
//
// Operations and test bodies signal failure by returning (or panicking
// with) a *Thrown. Plain errors and other panic values are classified into
// one when they reach the harness.
type Thrown struct {
	// Kind is the category used by Throws and by outcome reporting.
	Kind Kind

	// Message is the human-readable description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *Thrown) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error.
func (e *Thrown) Unwrap() error {
	return e.Err
}

// Throw creates a thrown value of the given kind.
func Throw(kind Kind, format string, args ...any) *Thrown {
	return &Thrown{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// WrapThrown categorizes an existing error.
func WrapThrown(kind Kind, err error) *Thrown {
	return &Thrown{Kind: kind, Message: err.Error(), Err: err}
}

// KindOf returns the category of err, looking through wrapping.
// Returns "" for a nil error and KindUnknown for uncategorized errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var th *Thrown
	if errors.As(err, &th) {
		return th.Kind
	}
	var re runtime.Error
	if errors.As(err, &re) {
		return KindRuntime
	}
	return KindUnknown
}

// classify converts a returned error or recovered panic value into a *Thrown.
func classify(v any) *Thrown {
	switch x := v.(type) {
	case *Thrown:
		return x
	case error:
		var th *Thrown
		if errors.As(x, &th) {
			return &Thrown{Kind: th.Kind, Message: th.Message, Err: x}
		}
		return &Thrown{Kind: KindOf(x), Message: x.Error(), Err: x}
	default:
		return &Thrown{Kind: KindPanic, Message: fmt.Sprint(x)}
	}
}

// capture invokes fn, converting a panic into a thrown value.
// The error fn returns is passed through untouched so identity checks work.
// A panicking *InternalError is re-raised: the harness itself is broken.
func capture(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*InternalError); ok {
				panic(ie)
			}
			err = classify(r)
		}
	}()
	return fn()
}

// InternalError reports a harness malfunction: a malformed TestCase or a *T
// used outside its execution. It is fatal for that TestCase and never retried.
type InternalError struct {
	// Case names the affected TestCase, if known.
	Case string

	// Reason describes what went wrong.
	Reason string
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	if e.Case != "" {
		return fmt.Sprintf("harness internal error (case %q): %s", e.Case, e.Reason)
	}
	return fmt.Sprintf("harness internal error: %s", e.Reason)
}

// IsInternalError reports whether err is a harness malfunction.
// Uses errors.As to handle wrapped errors.
func IsInternalError(err error) bool {
	var ie *InternalError
	return errors.As(err, &ie)
}
