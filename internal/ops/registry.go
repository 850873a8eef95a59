// Package ops provides the named value operations declarative suites call.
//
// Operations take and return ir values. They fail by returning a
// *harness.Thrown, so a failing call inside a test body is classified the
// same way as any other thrown value.
package ops

import (
	"fmt"
	"sort"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
)

// Func is the implementation of an operation. Arity is checked before it
// is called.
type Func func(args []ir.Value) (ir.Value, error)

// Op is a named operation.
type Op struct {
	Name string
	Doc  string

	// MinArgs and MaxArgs bound the argument count. MaxArgs < 0 means variadic.
	MinArgs int
	MaxArgs int

	Fn Func
}

// Arity renders the accepted argument count, e.g. "1", "1-3", "1+".
func (op *Op) Arity() string {
	switch {
	case op.MaxArgs < 0:
		return fmt.Sprintf("%d+", op.MinArgs)
	case op.MinArgs == op.MaxArgs:
		return fmt.Sprintf("%d", op.MinArgs)
	default:
		return fmt.Sprintf("%d-%d", op.MinArgs, op.MaxArgs)
	}
}

// Registry holds named operations. A Registry is built once and then only
// read, so it is safe for concurrent calls after construction.
type Registry struct {
	ops map[string]*Op
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		ops: make(map[string]*Op),
	}
}

// Default returns a new registry holding the built-in operations.
func Default() *Registry {
	r := NewRegistry()
	for _, op := range builtins() {
		r.MustRegister(op)
	}
	return r
}

// Register adds an operation.
func (r *Registry) Register(op Op) error {
	if op.Name == "" {
		return fmt.Errorf("operation has no name")
	}
	if op.Fn == nil {
		return fmt.Errorf("operation %q has no implementation", op.Name)
	}
	if op.MinArgs < 0 || (op.MaxArgs >= 0 && op.MaxArgs < op.MinArgs) {
		return fmt.Errorf("operation %q has invalid arity %d..%d", op.Name, op.MinArgs, op.MaxArgs)
	}
	if _, exists := r.ops[op.Name]; exists {
		return fmt.Errorf("operation %q already registered", op.Name)
	}
	r.ops[op.Name] = &op
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(op Op) {
	if err := r.Register(op); err != nil {
		panic(err)
	}
}

// Get retrieves an operation by name.
func (r *Registry) Get(name string) (*Op, bool) {
	op, ok := r.ops[name]
	return op, ok
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call invokes the named operation.
//
// An unknown name throws KindReference and a wrong argument count throws
// KindType.
func (r *Registry) Call(name string, args []ir.Value) (ir.Value, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, harness.Throw(harness.KindReference, "%s is not defined", name)
	}
	if err := op.CheckArity(len(args)); err != nil {
		return nil, err
	}
	return op.Fn(args)
}

// CheckArity reports a KindType throw when n arguments do not fit op.
func (op *Op) CheckArity(n int) error {
	if n < op.MinArgs || (op.MaxArgs >= 0 && n > op.MaxArgs) {
		return harness.Throw(harness.KindType, "%s takes %s arguments, got %d", op.Name, op.Arity(), n)
	}
	return nil
}
