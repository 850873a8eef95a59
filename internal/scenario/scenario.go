// Package scenario loads declarative test suites and compiles them into
// harness test cases.
//
// A YAML file holds one scenario. A CUE file holds any number under
// scenario: <name>: {...}. Both decode into the same Scenario type with
// strict field checking, so a typo like "expect:" for "expected:" is an
// error rather than a silently ignored key.
package scenario

// Scenario is one declarative test case.
type Scenario struct {
	// Name identifies the scenario. Required. In CUE files it defaults to
	// the field label.
	Name string `yaml:"name"`

	// ID is the bug or reference id shown in the status line.
	ID string `yaml:"id,omitempty"`

	// Summary is the human-readable description. Defaults to Name.
	Summary string `yaml:"summary,omitempty"`

	// Fixtures are named input values, bound before the first step and
	// copied into every execution.
	Fixtures map[string]any `yaml:"fixtures,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Source is the file the scenario was loaded from.
	Source string `yaml:"-"`
}

// Step is a single action or check.
//
// Strings that start with "$" refer to a fixture or an earlier binding;
// "$$" escapes a literal "$".
type Step struct {
	// Type is one of the Step* constants. Empty means StepCall when Call is set.
	Type string `yaml:"type,omitempty"`

	// Call names an operation (call and throws steps).
	Call string `yaml:"call,omitempty"`

	// Args are the operation arguments (call and throws steps).
	Args []any `yaml:"args,omitempty"`

	// Bind names the result of a call step.
	Bind string `yaml:"bind,omitempty"`

	// Actual and Expected are compared by equal and not_equal steps.
	Actual   any `yaml:"actual,omitempty"`
	Expected any `yaml:"expected,omitempty"`

	// Value is the subject of is_type and check steps.
	Value any `yaml:"value,omitempty"`

	// Is is the type name an is_type step requires.
	Is string `yaml:"is,omitempty"`

	// Kind is the thrown kind a throws step requires.
	Kind string `yaml:"kind,omitempty"`

	// Message is reported when the step fails.
	Message string `yaml:"message,omitempty"`
}

// Step types.
const (
	StepCall     = "call"
	StepEqual    = "equal"
	StepNotEqual = "not_equal"
	StepIsType   = "is_type"
	StepCheck    = "check"
	StepThrows   = "throws"
)

// StepTypes lists every step type.
var StepTypes = []string{StepCall, StepEqual, StepNotEqual, StepIsType, StepCheck, StepThrows}

// EffectiveType returns the step type with the call default applied.
func (s *Step) EffectiveType() string {
	if s.Type == "" && s.Call != "" {
		return StepCall
	}
	return s.Type
}

// Label returns the text used in the status line.
func (s *Scenario) Label() string {
	if s.Summary != "" {
		return s.Summary
	}
	return s.Name
}
