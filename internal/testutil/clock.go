package testutil

import "sync/atomic"

// Sequence is a monotonic logical clock.
//
// The harness gives every execution its own Sequence, so assertion records
// are numbered 1..n per TestCase however many cases run concurrently.
// Wall-clock time never orders records; only seq values do.
//
// Thread-safety: all methods are safe for concurrent use.
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence whose first Next() returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next increments and returns the next sequence number.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the last issued sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
