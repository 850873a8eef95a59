package scenario

import (
	"fmt"
	"maps"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ir"
	"github.com/roach88/verdict/internal/ops"
)

// Compile validates s and turns it into a TestCase that executes its steps
// against reg. Invalid scenarios return ValidationErrors.
//
// Each execution starts from a fresh copy of the fixtures, so running the
// TestCase twice gives the same Outcome.
func Compile(s *Scenario, reg *ops.Registry) (*harness.TestCase, error) {
	p, errs := build(s, reg)
	if len(errs) > 0 {
		return nil, errs
	}
	return &harness.TestCase{
		ID:      s.ID,
		Name:    s.Name,
		Summary: s.Summary,
		Body:    p.body(reg),
	}, nil
}

// CompileAll compiles scenarios in order. Every scenario is validated
// before any error is returned.
func CompileAll(scenarios []*Scenario, reg *ops.Registry) ([]*harness.TestCase, error) {
	if errs := ValidateAll(scenarios, reg); len(errs) > 0 {
		return nil, errs
	}
	cases := make([]*harness.TestCase, 0, len(scenarios))
	for _, s := range scenarios {
		tc, err := Compile(s, reg)
		if err != nil {
			return nil, err
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func (p *program) body(reg *ops.Registry) harness.Body {
	return func(t *harness.T) error {
		e := maps.Clone(p.fixtures)
		for _, step := range p.steps {
			if err := step.run(t, reg, e); err != nil {
				return err
			}
		}
		return nil
	}
}

// run executes one step. A returned error escapes the body.
func (s *compiledStep) run(t *harness.T, reg *ops.Registry, e env) error {
	msg := s.message
	if msg == "" {
		msg = fmt.Sprintf("#%d: %s", s.num, s.typ)
	}

	switch s.typ {
	case StepCall:
		args, err := evalAll(s.args, e)
		if err != nil {
			return err
		}
		result, err := reg.Call(s.op, args)
		if err != nil {
			return err
		}
		if s.bind != "" {
			e[s.bind] = result
		}

	case StepEqual, StepNotEqual:
		actual, err := s.actual.eval(e)
		if err != nil {
			return err
		}
		expected, err := s.expected.eval(e)
		if err != nil {
			return err
		}
		if s.typ == StepEqual {
			t.Equal(actual, expected, msg)
		} else {
			t.NotEqual(actual, expected, msg)
		}

	case StepIsType:
		v, err := s.value.eval(e)
		if err != nil {
			return err
		}
		t.IsType(v, s.is, msg)

	case StepCheck:
		v, err := s.value.eval(e)
		if err != nil {
			return err
		}
		b, ok := v.(ir.Bool)
		if !ok {
			t.Condition(false, "%s: expected a bool, got %s", msg, ir.Literal(v))
			return nil
		}
		t.Condition(bool(b), msg)

	case StepThrows:
		t.Throws(func() error {
			args, err := evalAll(s.args, e)
			if err != nil {
				return err
			}
			_, err = reg.Call(s.op, args)
			return err
		}, s.kind, msg)
	}
	return nil
}

func evalAll(exprs []expr, e env) ([]ir.Value, error) {
	vals := make([]ir.Value, len(exprs))
	for i, ex := range exprs {
		v, err := ex.eval(e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}
