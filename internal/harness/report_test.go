package harness

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, tc *TestCase) *Result {
	t.Helper()
	res, err := New().Execute(tc)
	require.NoError(t, err)
	return res
}

func TestStatusLine(t *testing.T) {
	pass := execute(t, &TestCase{ID: "S15.5.4.14_A3_T8", Name: "split", Summary: "split on an array receiver", Body: func(*T) error { return nil }})
	assert.Equal(t, "PASSED: split on an array receiver (S15.5.4.14_A3_T8)", StatusLine(pass))

	noID := execute(t, &TestCase{Name: "visits", Body: func(t *T) error { t.Condition(false); return nil }})
	assert.Equal(t, "FAILED: visits", StatusLine(noID))
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		body Body
		want []string
	}{
		{
			name: "pass",
			body: func(*T) error { return nil },
			want: nil,
		},
		{
			name: "condition",
			body: func(t *T) error { t.Condition(false, "result count is 3"); return nil },
			want: []string{"result count is 3", "Condition was false"},
		},
		{
			name: "equal",
			body: func(t *T) error { t.Equal([]string{"1", "2"}, []string{"1,2"}); return nil },
			want: []string{`Expected value ["1,2"], Actual value ["1","2"]`},
		},
		{
			name: "empty string literal",
			body: func(t *T) error { t.Equal("", "x"); return nil },
			want: []string{`Expected value "x", Actual value ""`},
		},
		{
			name: "unicode normalization",
			body: func(t *T) error { t.Equal("e\u0301", "\u00e9"); return nil },
			want: []string{
				"Expected value \"\u00e9\", Actual value \"e\u0301\"",
				`Escaped: expected "\u00e9", actual "e\u0301"`,
			},
		},
		{
			name: "not equal",
			body: func(t *T) error { t.NotEqual(3, 3); return nil },
			want: []string{"Expected a value other than 3"},
		},
		{
			name: "type",
			body: func(t *T) error { t.IsType("x", "array"); return nil },
			want: []string{"Expected type array, Actual type string"},
		},
		{
			name: "wrong kind",
			body: func(t *T) error {
				t.Throws(func() error { return Throw(KindRuntime, "didn't throw") }, KindInternal)
				return nil
			},
			want: []string{"Unexpected exception runtime: didn't throw (expected internal)"},
		},
		{
			name: "missing",
			body: func(t *T) error { t.Throws(func() error { return nil }, KindRange, "#2"); return nil },
			want: []string{"#2", "Expected exception range was not thrown"},
		},
		{
			name: "uncaught",
			body: func(*T) error { return Throw(KindReference, "instance is not defined") },
			want: []string{"Unexpected exception reference: instance is not defined"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, &TestCase{Name: tt.name, Body: tt.body})
			assert.Equal(t, tt.want, Diagnostics(res))
		})
	}
}

func TestDiagnostics_MultilineDiff(t *testing.T) {
	res := execute(t, &TestCase{Name: "text", Body: func(t *T) error {
		t.Equal("one\ntwo\n", "one\n2\n")
		return nil
	}})

	lines := Diagnostics(res)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, `Expected value "one\n2\n", Actual value "one\ntwo\n"`, lines[0])
	assert.Contains(t, lines, "--- expected")
	assert.Contains(t, lines, "-2")
	assert.Contains(t, lines, "+two")
}

func TestWriteReport(t *testing.T) {
	res := execute(t, &TestCase{ID: "1", Name: "n", Body: func(t *T) error { t.Equal(1, 2, "count"); return nil }})

	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, res))
	assert.Equal(t, "FAILED: n (1)\n    count\n    Expected value 2, Actual value 1\n", buf.String())
	assert.Equal(t, buf.Bytes(), RenderReport(res))
}
