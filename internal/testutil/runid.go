package testutil

import (
	"fmt"
	"sync"
)

// FixedRunIDGenerator returns predetermined run ids for testing.
//
// Runs recorded with a FixedRunIDGenerator get stable ids, so run log
// contents and outcome ids can be asserted exactly.
//
// Thread-safety: FixedRunIDGenerator is safe for concurrent use via internal mutex.
type FixedRunIDGenerator struct {
	mu  sync.Mutex
	ids []string
	idx int
}

// NewFixedRunIDGenerator creates a generator that returns ids in order.
// With no ids it returns "test-run-1", "test-run-2", ... indefinitely.
func NewFixedRunIDGenerator(ids ...string) *FixedRunIDGenerator {
	return &FixedRunIDGenerator{ids: ids}
}

// Generate returns the next run id.
//
// Panics if an explicit id list has been exhausted. Failing fast keeps a
// test from silently reusing an id.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.idx++
	if len(g.ids) == 0 {
		return fmt.Sprintf("test-run-%d", g.idx)
	}
	if g.idx > len(g.ids) {
		panic(fmt.Sprintf("FixedRunIDGenerator: all %d ids exhausted", len(g.ids)))
	}
	return g.ids[g.idx-1]
}
