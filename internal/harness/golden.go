package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"
)

// GoldenDir is where golden report files live, relative to the test's package.
const GoldenDir = "testdata/golden"

// AssertGolden compares the rendered reports of results against the golden
// file testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Durations are not part of a report, so golden files are deterministic.
func AssertGolden(t *testing.T, name string, results ...*Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, RenderReport(results...))
}

// RunWithGolden executes cases with a default Harness and compares their
// reports against the golden file {name}.golden. A *InternalError fails t.
func RunWithGolden(t *testing.T, name string, cases ...*TestCase) []*Result {
	t.Helper()

	h := New()
	results := make([]*Result, 0, len(cases))
	for i, tc := range cases {
		res, err := h.Execute(tc)
		if err != nil {
			t.Fatalf("execute case %d: %v", i, err)
		}
		results = append(results, res)
	}
	AssertGolden(t, name, results...)
	return results
}
