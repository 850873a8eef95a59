package harness

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/roach88/verdict/internal/ir"
)

// splitReceiver converts an array receiver to text and splits it with no
// separator, the way a string method applied to an array behaves.
func splitReceiver(receiver []int) []string {
	parts := make([]string, len(receiver))
	for i, n := range receiver {
		parts[i] = fmt.Sprint(n)
	}
	return []string{strings.Join(parts, ",")}
}

func TestRun_EqualEmptyStrings(t *testing.T) {
	tc := &TestCase{
		ID:      "369696",
		Name:    "leave-sharp-object",
		Summary: "Do not assert: map->depth > 0 in js_LeaveSharpObject",
		Body: func(t *T) error {
			actual := ""
			expect := ""
			t.Equal(actual, expect)
			return nil
		},
	}

	outcome, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, StatusPass, outcome.Status)
}

func TestRun_ExpectedKind(t *testing.T) {
	tests := []struct {
		name   string
		body   func() error
		status Status
		kind   Kind
	}{
		{
			name:   "wrong kind",
			body:   func() error { return Throw(KindRuntime, "didn't throw") },
			status: StatusUnexpectedException,
			kind:   KindRuntime,
		},
		{
			name:   "expected kind",
			body:   func() error { return Throw(KindInternal, "map->depth > 0") },
			status: StatusPass,
		},
		{
			name:   "no throw",
			body:   func() error { return nil },
			status: StatusExpectedExceptionMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := &TestCase{
				ID:   "369696",
				Name: "expected-kind",
				Body: func(t *T) error {
					t.Throws(tt.body, KindInternal)
					return nil
				},
			}

			outcome, err := Run(tc)
			require.NoError(t, err)
			assert.Equal(t, tt.status, outcome.Status)
			assert.Equal(t, tt.kind, outcome.Kind)
		})
	}
}

func TestRun_SplitArrayReceiver(t *testing.T) {
	instance := []int{1, 2, 3, 4, 5}

	pass := &TestCase{
		ID:   "S15.5.4.14_A3_T8",
		Name: "split-array-receiver",
		Body: func(t *T) error {
			parts := splitReceiver(instance)
			t.IsType(parts, ir.TypeArray, "#1: split returns an array")
			t.Equal(len(parts), 1, "#2: one element")
			t.Equal(parts, []string{"1,2,3,4,5"}, "#3: joined text")
			return nil
		},
	}
	outcome, err := Run(pass)
	require.NoError(t, err)
	assert.Equal(t, StatusPass, outcome.Status)

	fail := &TestCase{
		ID:   "S15.5.4.14_A3_T8",
		Name: "split-array-receiver",
		Body: func(t *T) error {
			t.Equal(splitReceiver(instance), []string{"1", "2", "3", "4", "5"}, "#3: joined text")
			return nil
		},
	}
	outcome, err = Run(fail)
	require.NoError(t, err)
	assert.Equal(t, StatusMismatch, outcome.Status)
	assert.Equal(t, "#3: joined text", outcome.Message)
	assert.Equal(t, ir.NewArray(ir.String("1,2,3,4,5")), outcome.Actual)
}

func TestRun_EmptyBodyPasses(t *testing.T) {
	outcome, err := Run(&TestCase{Name: "empty", Body: func(*T) error { return nil }})
	require.NoError(t, err)
	assert.Equal(t, StatusPass, outcome.Status)
}

func TestRun_FirstFailureWins(t *testing.T) {
	outcome, err := Run(&TestCase{
		Name: "first-failure",
		Body: func(t *T) error {
			t.Equal(1, 1)
			t.Condition(false, "first")
			t.Throws(func() error { return nil }, KindRange, "second")
			return nil
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusMismatch, outcome.Status)
	assert.Equal(t, AssertCondition, outcome.Assertion)
	assert.Equal(t, "first", outcome.Message)
}

func TestRun_UncaughtThrow(t *testing.T) {
	tests := []struct {
		name string
		body Body
		kind Kind
		text string
	}{
		{
			name: "returned thrown",
			body: func(*T) error { return Throw(KindReference, "instance is not defined") },
			kind: KindReference,
			text: "instance is not defined",
		},
		{
			name: "returned plain error",
			body: func(*T) error { return errors.New("plain") },
			kind: KindUnknown,
			text: "plain",
		},
		{
			name: "panic value",
			body: func(*T) error { panic("boom") },
			kind: KindPanic,
			text: "boom",
		},
		{
			name: "nil map write",
			body: func(*T) error {
				var m map[string]int
				m["x"] = 1
				return nil
			},
			kind: KindRuntime,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := New().Execute(&TestCase{Name: "uncaught", Body: tt.body})
			require.NoError(t, err)
			assert.Equal(t, StatusUnexpectedException, res.Outcome.Status)
			assert.Equal(t, AssertUncaught, res.Outcome.Assertion)
			assert.Equal(t, tt.kind, res.Outcome.Kind)
			if tt.text != "" {
				assert.Equal(t, tt.text, res.Outcome.Error)
			}
		})
	}
}

func TestRun_UncaughtAfterFailureKeepsFirst(t *testing.T) {
	outcome, err := Run(&TestCase{
		Name: "mismatch-then-throw",
		Body: func(t *T) error {
			t.Equal("a", "b")
			return Throw(KindRuntime, "later")
		},
	})
	require.NoError(t, err)
	assert.Equal(t, StatusMismatch, outcome.Status)
}

func TestRun_Idempotent(t *testing.T) {
	tc := &TestCase{
		Name: "repeat",
		Body: func(t *T) error {
			t.Equal([]int{1, 2}, []int{1, 3})
			return nil
		},
	}

	first, err := Run(tc)
	require.NoError(t, err)
	second, err := Run(tc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRun_InternalErrors(t *testing.T) {
	tests := []struct {
		name string
		tc   *TestCase
	}{
		{"nil case", nil},
		{"no name", &TestCase{ID: "1", Body: func(*T) error { return nil }}},
		{"no body", &TestCase{Name: "no-body"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(tt.tc)
			require.Error(t, err)
			assert.True(t, IsInternalError(err))
		})
	}
}

func TestRun_StaleScopeIsInternalError(t *testing.T) {
	var stale *T
	_, err := Run(&TestCase{Name: "first", Body: func(t *T) error {
		stale = t
		return nil
	}})
	require.NoError(t, err)

	_, err = Run(&TestCase{Name: "second", Body: func(*T) error {
		stale.Condition(true)
		return nil
	}})
	require.Error(t, err)
	var ie *InternalError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "first", ie.Case)
}

func TestExecute_Records(t *testing.T) {
	res, err := New().Execute(&TestCase{
		ID:      "S15.5.4.14_A3_T8",
		Name:    "records",
		Summary: "records in order",
		Body: func(t *T) error {
			t.Condition(true)
			t.Equal(1, 2)
			return nil
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "S15.5.4.14_A3_T8", res.ID)
	assert.Equal(t, "records in order", res.Label())
	require.Len(t, res.Records, 2)
	assert.Equal(t, int64(1), res.Records[0].Seq)
	assert.Equal(t, int64(2), res.Records[1].Seq)
	require.Len(t, res.Failures(), 1)
	assert.Equal(t, AssertEqual, res.Failures()[0].Type)
}

func TestExecute_WritesReport(t *testing.T) {
	var buf bytes.Buffer
	h := New(WithOutput(&buf))

	_, err := h.Execute(&TestCase{ID: "7", Name: "ok", Body: func(*T) error { return nil }})
	require.NoError(t, err)
	assert.Equal(t, "PASSED: ok (7)\n", buf.String())
}

func TestExecute_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	h := New(WithLogger(zap.New(core)))

	_, err := h.Execute(&TestCase{Name: "logged", Body: func(t *T) error {
		t.Condition(false, "nope")
		return nil
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("case started").Len())
	assert.Equal(t, 1, logs.FilterMessage("assertion failed").Len())

	failed := logs.FilterMessage("case failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.InfoLevel, failed[0].Level)
	assert.Equal(t, "mismatch", failed[0].ContextMap()["status"])
}

func TestRunAll_OrderAndIsolation(t *testing.T) {
	cases := []*TestCase{
		{Name: "a", Body: func(t *T) error { t.Equal(1, 1); return nil }},
		{Name: "b", Body: func(t *T) error { t.Equal(1, 2); return nil }},
		{Name: "c"},
		{Name: "d", Body: func(*T) error { panic("d") }},
	}

	for _, parallel := range []int{0, 1, 3} {
		t.Run(fmt.Sprintf("parallel=%d", parallel), func(t *testing.T) {
			var buf bytes.Buffer
			entries, err := New(WithOutput(&buf)).RunAll(context.Background(), cases, parallel)
			require.NoError(t, err)
			require.Len(t, entries, 4)

			assert.Equal(t, StatusPass, entries[0].Result.Outcome.Status)
			assert.Equal(t, StatusMismatch, entries[1].Result.Outcome.Status)
			assert.Nil(t, entries[2].Result)
			assert.True(t, IsInternalError(entries[2].Err))
			assert.Equal(t, StatusUnexpectedException, entries[3].Result.Outcome.Status)

			for i, e := range entries {
				assert.Same(t, cases[i], e.Case)
				if e.Result != nil {
					assert.Len(t, e.Result.Records, 1)
				}
			}

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			require.Len(t, lines, 5)
			assert.Equal(t, "PASSED: a", lines[0])
			assert.Equal(t, "FAILED: b", lines[1])
			assert.Equal(t, "FAILED: d", lines[3])
		})
	}
}

func TestRunAll_Parallel(t *testing.T) {
	var running, peak atomic.Int32
	release := make(chan struct{})

	cases := make([]*TestCase, 6)
	for i := range cases {
		cases[i] = &TestCase{
			Name: fmt.Sprintf("case-%d", i),
			Body: func(t *T) error {
				n := running.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				<-release
				running.Add(-1)
				return nil
			},
		}
	}

	done := make(chan []Entry)
	go func() {
		entries, _ := New().RunAll(context.Background(), cases, 2)
		done <- entries
	}()
	close(release)

	entries := <-done
	require.Len(t, entries, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	for _, e := range entries {
		require.NoError(t, e.Err)
		assert.True(t, e.Result.Outcome.Passed())
	}
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int32
	cases := []*TestCase{
		{Name: "a", Body: func(*T) error { ran.Add(1); return nil }},
		{Name: "b", Body: func(*T) error { ran.Add(1); return nil }},
	}

	entries, err := New().RunAll(ctx, cases, 1)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, entries, 2)
	assert.Equal(t, int32(0), ran.Load())
	for _, e := range entries {
		assert.ErrorIs(t, e.Err, context.Canceled)
	}
}
