package cli

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/roach88/verdict/internal/harness"
	"github.com/roach88/verdict/internal/ops"
	"github.com/roach88/verdict/internal/scenario"
)

// Suite is one loaded suite file and the scenarios it defines.
type Suite struct {
	Path      string
	Scenarios []*scenario.Scenario
}

// LoadResult holds the suites found under a set of paths.
type LoadResult struct {
	Suites []Suite
}

// Scenarios returns every scenario in file order.
func (r *LoadResult) Scenarios() []*scenario.Scenario {
	var all []*scenario.Scenario
	for _, s := range r.Suites {
		all = append(all, s.Scenarios...)
	}
	return all
}

// Count returns the number of scenarios.
func (r *LoadResult) Count() int {
	n := 0
	for _, s := range r.Suites {
		n += len(s.Scenarios)
	}
	return n
}

// LoadSuites expands paths into suite files and loads each one.
// Errors are *scenario.LoadError.
func LoadSuites(paths []string) (*LoadResult, error) {
	files, err := scenario.FindSuiteFiles(paths...)
	if err != nil {
		return nil, err
	}

	res := &LoadResult{Suites: make([]Suite, 0, len(files))}
	for _, f := range files {
		scenarios, err := scenario.LoadFile(f)
		if err != nil {
			return nil, err
		}
		res.Suites = append(res.Suites, Suite{Path: f, Scenarios: scenarios})
	}
	return res, nil
}

// Filter keeps scenarios whose names match the glob pattern. Suites left
// empty are dropped. An empty pattern keeps everything.
func (r *LoadResult) Filter(pattern string) (*LoadResult, error) {
	if pattern == "" {
		return r, nil
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}

	out := &LoadResult{}
	for _, s := range r.Suites {
		var kept []*scenario.Scenario
		for _, sc := range s.Scenarios {
			if ok, _ := path.Match(pattern, sc.Name); ok {
				kept = append(kept, sc)
			}
		}
		if len(kept) > 0 {
			out.Suites = append(out.Suites, Suite{Path: s.Path, Scenarios: kept})
		}
	}
	return out, nil
}

// Compile validates every scenario and compiles them in file order.
// Errors are scenario.ValidationErrors.
func (r *LoadResult) Compile(reg *ops.Registry) ([]*harness.TestCase, error) {
	return scenario.CompileAll(r.Scenarios(), reg)
}

// goldenFilePath returns the golden report path for a suite file:
// golden/<file>.golden next to it. The suite's extension is kept, so x.yaml
// and x.yml in one directory get separate reports.
func goldenFilePath(suiteFile string) string {
	dir := filepath.Dir(suiteFile)
	return filepath.Join(dir, "golden", filepath.Base(suiteFile)+".golden")
}
