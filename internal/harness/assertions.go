package harness

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/roach88/verdict/internal/ir"
	"github.com/roach88/verdict/internal/testutil"
)

// T is the assertion scope of one TestCase execution.
//
// Assertions record and return; they never abort the body. A failed
// assertion marks the TestCase failed. T is safe for use from goroutines the
// body waits for, but must not be used after the body returns.
type T struct {
	mu       sync.Mutex
	name     string
	seq      *testutil.Sequence
	records  []AssertionRecord
	finished bool
	logger   *zap.Logger
}

func newT(name string, logger *zap.Logger) *T {
	return &T{
		name:   name,
		seq:    testutil.NewSequence(),
		logger: logger,
	}
}

// Name returns the name of the executing TestCase.
func (t *T) Name() string {
	return t.name
}

// Condition records a condition check. On failure the record is a mismatch
// of actual false against expected true, carrying the message.
func (t *T) Condition(cond bool, msgAndArgs ...any) bool {
	rec := AssertionRecord{
		Type:     AssertCondition,
		Message:  formatMessage(msgAndArgs),
		Passed:   cond,
		Actual:   ir.Bool(cond),
		Expected: ir.Bool(true),
	}
	return t.record(rec, StatusMismatch)
}

// Errorf records an unconditional failure.
func (t *T) Errorf(format string, args ...any) {
	t.Condition(false, append([]any{format}, args...)...)
}

// Equal records an equality check using Compare.
func (t *T) Equal(actual, expected any, msgAndArgs ...any) bool {
	rec := AssertionRecord{
		Type:     AssertEqual,
		Message:  formatMessage(msgAndArgs),
		Passed:   Compare(actual, expected),
		Actual:   normalize(actual),
		Expected: normalize(expected),
	}
	return t.record(rec, StatusMismatch)
}

// NotEqual records an inequality check using Compare.
func (t *T) NotEqual(actual, unexpected any, msgAndArgs ...any) bool {
	rec := AssertionRecord{
		Type:     AssertNotEqual,
		Message:  formatMessage(msgAndArgs),
		Passed:   !Compare(actual, unexpected),
		Actual:   normalize(actual),
		Expected: normalize(unexpected),
	}
	return t.record(rec, StatusMismatch)
}

// IsType records a type-membership check of v against want.
// Values outside the ir model are never members of any type.
func (t *T) IsType(v any, want ir.Type, msgAndArgs ...any) bool {
	rec := AssertionRecord{
		Type:     AssertType,
		Message:  formatMessage(msgAndArgs),
		Expected: ir.String(want),
	}
	if val, err := ir.FromGo(v); err == nil {
		got := ir.TypeOf(val)
		rec.Passed = got == want
		rec.Actual = ir.String(got)
	} else {
		rec.Actual = ir.String(fmt.Sprintf("%T", v))
	}
	return t.record(rec, StatusMismatch)
}

// Throws runs fn and records whether it threw a value of kind want.
//
// No throw records expected_exception_missing. A throw of another kind
// records unexpected_exception with the actual kind. Panics inside fn are
// recovered and classified. Returns the thrown error, if any.
func (t *T) Throws(fn func() error, want Kind, msgAndArgs ...any) error {
	err := capture(fn)
	rec := AssertionRecord{
		Type:         AssertThrows,
		Message:      formatMessage(msgAndArgs),
		ExpectedKind: want,
	}
	switch {
	case err == nil:
		t.record(rec, StatusExpectedExceptionMissing)
	case KindOf(err) != want:
		rec.Kind = KindOf(err)
		rec.Error = thrownText(err)
		t.record(rec, StatusUnexpectedException)
	default:
		rec.Passed = true
		rec.Kind = want
		rec.Error = thrownText(err)
		t.record(rec, StatusPass)
	}
	return err
}

// ThrowsError runs fn and records whether it threw target, matched by
// identity with errors.Is rather than by category.
func (t *T) ThrowsError(fn func() error, target error, msgAndArgs ...any) error {
	err := capture(fn)
	rec := AssertionRecord{
		Type:     AssertThrows,
		Message:  formatMessage(msgAndArgs),
		Expected: ir.String(target.Error()),
	}
	switch {
	case err == nil:
		t.record(rec, StatusExpectedExceptionMissing)
	case !errors.Is(err, target):
		rec.Kind = KindOf(err)
		rec.Error = thrownText(err)
		t.record(rec, StatusUnexpectedException)
	default:
		rec.Passed = true
		rec.Kind = KindOf(err)
		rec.Error = thrownText(err)
		t.record(rec, StatusPass)
	}
	return err
}

// uncaught records a value thrown out of the body.
func (t *T) uncaught(th *Thrown) {
	rec := AssertionRecord{
		Type:  AssertUncaught,
		Kind:  th.Kind,
		Error: th.Message,
	}
	t.record(rec, StatusUnexpectedException)
}

// thrownText is the message of a thrown value without its kind prefix.
func thrownText(err error) string {
	return classify(err).Message
}

// record stamps and appends rec. failStatus applies when rec did not pass.
func (t *T) record(rec AssertionRecord, failStatus Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.finished {
		panic(&InternalError{Case: t.name, Reason: fmt.Sprintf("%s assertion made after the execution finished", rec.Type)})
	}

	rec.Seq = t.seq.Next()
	if rec.Passed {
		rec.Status = StatusPass
	} else {
		rec.Status = failStatus
		t.logger.Debug("assertion failed",
			zap.String("case", t.name),
			zap.Int64("seq", rec.Seq),
			zap.String("type", string(rec.Type)),
			zap.String("status", string(rec.Status)),
			zap.String("message", rec.Message),
		)
	}
	t.records = append(t.records, rec)
	return rec.Passed
}

// finish closes the scope and returns its records.
func (t *T) finish() []AssertionRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finished = true
	out := make([]AssertionRecord, len(t.records))
	copy(out, t.records)
	return out
}

// formatMessage follows testify: a lone value is printed, a leading format
// string is applied to the remaining arguments.
func formatMessage(msgAndArgs []any) string {
	switch len(msgAndArgs) {
	case 0:
		return ""
	case 1:
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprint(msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprint(msgAndArgs...)
}
