package harness

import (
	"testing"
)

func goldenCases() []*TestCase {
	return []*TestCase{
		{
			ID:      "369696",
			Name:    "leave-sharp-object",
			Summary: "Do not assert: map->depth > 0 in js_LeaveSharpObject",
			Body: func(t *T) error {
				t.Throws(func() error { return Throw(KindRuntime, "didn't throw") }, KindInternal)
				return nil
			},
		},
		{
			ID:      "S15.5.4.14_A3_T8",
			Name:    "split-array-receiver",
			Summary: "split on an array receiver",
			Body: func(t *T) error {
				t.Equal(splitReceiver([]int{1, 2, 3, 4, 5}), []string{"1,2,3,4,5"}, "#3: joined text")
				return nil
			},
		},
		{
			Name: "visit-count",
			Body: func(t *T) error {
				t.Equal(2, 3, "wrong number of results")
				return nil
			},
		},
		{
			ID:   "m1",
			Name: "missing-throw",
			Body: func(t *T) error {
				t.Throws(func() error { return nil }, KindRange)
				return nil
			},
		},
	}
}

func TestRunWithGolden_Scenarios(t *testing.T) {
	results := RunWithGolden(t, "scenarios", goldenCases()...)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
}

func TestAssertGolden_Idempotent(t *testing.T) {
	var results []*Result
	for _, tc := range goldenCases() {
		res, err := New().Execute(tc)
		if err != nil {
			t.Fatal(err)
		}
		results = append(results, res)
	}
	AssertGolden(t, "scenarios", results...)
}
