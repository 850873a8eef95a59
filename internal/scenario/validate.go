package scenario

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
	"github.com/roach88/verdict/internal/ops"
)

// Validation error codes (E200-E299)
const (
	ErrNameRequired      = "E201" // scenario name is required
	ErrNoSteps           = "E202" // at least one step required
	ErrUnknownStepType   = "E203" // step type not recognized
	ErrUnknownOp         = "E204" // operation not registered
	ErrUnknownKind       = "E205" // thrown kind not recognized
	ErrUnknownType       = "E206" // type name not recognized
	ErrInvalidValue      = "E207" // value not representable (floats)
	ErrUndefinedRef      = "E208" // reference to a name not bound earlier
	ErrMissingField      = "E209" // required step field missing
	ErrArity             = "E210" // wrong argument count for an operation
	ErrDuplicateBinding  = "E211" // binding shadows a fixture or earlier binding
	ErrDuplicateScenario = "E212" // two scenarios share a name
	ErrUnusedField       = "E213" // field set that the step type ignores
)

// ValidationError is a problem with a scenario's content.
type ValidationError struct {
	Scenario string `json:"scenario,omitempty"`
	Field    string `json:"field"`
	Message  string `json:"message"`
	Code     string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Scenario != "" {
		return fmt.Sprintf("[%s] %s: %s: %s", e.Code, e.Scenario, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

// Error implements the error interface.
func (errs ValidationErrors) Error() string {
	msgs := make([]string, len(errs))
	for i, e := range errs {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// AsValidationErrors extracts validation errors from err, if any.
func AsValidationErrors(err error) (ValidationErrors, bool) {
	var errs ValidationErrors
	if errors.As(err, &errs) {
		return errs, true
	}
	return nil, false
}

// Validate checks s against reg without compiling it.
// Returns all errors found (does not fail-fast).
func Validate(s *Scenario, reg *ops.Registry) ValidationErrors {
	_, errs := build(s, reg)
	return errs
}

// ValidateAll validates every scenario and also rejects duplicate names.
func ValidateAll(scenarios []*Scenario, reg *ops.Registry) ValidationErrors {
	var errs ValidationErrors
	seen := make(map[string]string)
	for _, s := range scenarios {
		errs = append(errs, Validate(s, reg)...)
		if s.Name == "" {
			continue
		}
		if prev, dup := seen[s.Name]; dup {
			errs = append(errs, ValidationError{
				Scenario: s.Name,
				Field:    "name",
				Message:  fmt.Sprintf("also defined in %s", prev),
				Code:     ErrDuplicateScenario,
			})
			continue
		}
		seen[s.Name] = s.Source
	}
	return errs
}

// program is a validated scenario ready to execute.
type program struct {
	fixtures env
	steps    []compiledStep
}

type compiledStep struct {
	num     int
	typ     string
	message string

	op   string
	args []expr
	bind string

	actual   expr
	expected expr
	value    expr

	is   ir.Type
	kind harness.Kind
}

// build validates s and, when it is valid, returns its program.
func build(s *Scenario, reg *ops.Registry) (*program, ValidationErrors) {
	var errs ValidationErrors
	fail := func(field, code, format string, args ...any) {
		errs = append(errs, ValidationError{
			Scenario: s.Name,
			Field:    field,
			Message:  fmt.Sprintf(format, args...),
			Code:     code,
		})
	}

	if s.Name == "" {
		fail("name", ErrNameRequired, "name is required")
	}
	if len(s.Steps) == 0 {
		fail("steps", ErrNoSteps, "steps list is required and must be non-empty")
	}

	names := make([]string, 0, len(s.Fixtures))
	for name := range s.Fixtures {
		names = append(names, name)
	}
	sort.Strings(names)

	p := &program{fixtures: make(env, len(s.Fixtures))}
	for _, name := range names {
		v, err := ir.FromGo(s.Fixtures[name])
		if err != nil {
			fail("fixtures."+name, ErrInvalidValue, "%v", err)
			continue
		}
		p.fixtures[name] = v
	}

	bound := make(map[string]bool, len(names))
	for _, name := range names {
		bound[name] = true
	}

	for i, step := range s.Steps {
		field := fmt.Sprintf("steps[%d]", i)
		cs := compiledStep{num: i + 1, typ: step.EffectiveType(), message: step.Message}

		parse := func(name string, raw any) expr {
			ex, err := parseExpr(raw)
			if err != nil {
				fail(field+"."+name, ErrInvalidValue, "%v", err)
				return literal{ir.Null{}}
			}
			for _, r := range ex.refs(nil) {
				if !bound[r] {
					fail(field+"."+name, ErrUndefinedRef, "$%s is not a fixture or an earlier binding", r)
				}
			}
			return ex
		}
		parseArgs := func() {
			op, ok := reg.Get(step.Call)
			switch {
			case step.Call == "":
				fail(field+".call", ErrMissingField, "%s step requires call", cs.typ)
			case !ok:
				fail(field+".call", ErrUnknownOp, "unknown operation %q: must be one of %v", step.Call, reg.Names())
			default:
				if err := op.CheckArity(len(step.Args)); err != nil {
					var th *harness.Thrown
					if errors.As(err, &th) {
						fail(field+".args", ErrArity, "%s", th.Message)
					}
				}
			}
			cs.op = step.Call
			for j, raw := range step.Args {
				cs.args = append(cs.args, parse(fmt.Sprintf("args[%d]", j), raw))
			}
		}
		unused := func(fields ...string) {
			for _, name := range fields {
				if stepFieldSet(step, name) {
					fail(field+"."+name, ErrUnusedField, "%s is not used by %s steps", name, cs.typ)
				}
			}
		}

		switch cs.typ {
		case StepCall:
			parseArgs()
			unused("actual", "expected", "value", "is", "kind")
			if step.Bind != "" {
				if bound[step.Bind] {
					fail(field+".bind", ErrDuplicateBinding, "%s is already bound", step.Bind)
				}
				cs.bind = step.Bind
			}
		case StepEqual, StepNotEqual:
			unused("call", "args", "bind", "value", "is", "kind")
			if !stepFieldSet(step, "actual") && !stepFieldSet(step, "expected") {
				fail(field, ErrMissingField, "%s step requires actual or expected", cs.typ)
			}
			cs.actual = parse("actual", step.Actual)
			cs.expected = parse("expected", step.Expected)
		case StepIsType:
			unused("call", "args", "bind", "actual", "expected", "kind")
			cs.value = parse("value", step.Value)
			if step.Is == "" {
				fail(field+".is", ErrMissingField, "is_type step requires is")
			} else if typ, err := ir.ParseType(step.Is); err != nil {
				fail(field+".is", ErrUnknownType, "unknown type %q: must be one of %v", step.Is, ir.Types)
			} else {
				cs.is = typ
			}
		case StepCheck:
			unused("call", "args", "bind", "actual", "expected", "is", "kind")
			cs.value = parse("value", step.Value)
		case StepThrows:
			parseArgs()
			unused("actual", "expected", "value", "is", "bind")
			if step.Kind == "" {
				fail(field+".kind", ErrMissingField, "throws step requires kind")
			} else if kind, err := harness.ParseKind(step.Kind); err != nil {
				fail(field+".kind", ErrUnknownKind, "unknown kind %q: must be one of %v", step.Kind, harness.Kinds)
			} else {
				cs.kind = kind
			}
		case "":
			fail(field+".type", ErrMissingField, "step requires type or call")
			continue
		default:
			fail(field+".type", ErrUnknownStepType, "unknown step type %q: must be one of %v", step.Type, StepTypes)
			continue
		}

		// Bound after the step so a call cannot read its own result.
		if cs.bind != "" {
			bound[cs.bind] = true
		}
		p.steps = append(p.steps, cs)
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return p, nil
}

// stepFieldSet reports whether the named field carries a value.
func stepFieldSet(step Step, name string) bool {
	switch name {
	case "call":
		return step.Call != ""
	case "args":
		return len(step.Args) > 0
	case "bind":
		return step.Bind != ""
	case "actual":
		return step.Actual != nil
	case "expected":
		return step.Expected != nil
	case "value":
		return step.Value != nil
	case "is":
		return step.Is != ""
	case "kind":
		return step.Kind != ""
	}
	return false
}
