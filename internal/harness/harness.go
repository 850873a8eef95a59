package harness

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Harness executes TestCases and reports their Outcomes.
//
// The zero configuration writes no report and logs nothing. A Harness holds
// no per-execution state and may be shared across goroutines.
type Harness struct {
	out    io.Writer
	logger *zap.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithOutput sets the sink for status lines and diagnostics.
func WithOutput(w io.Writer) Option {
	return func(h *Harness) {
		h.out = w
	}
}

// WithLogger sets the logger. Defaults to zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(h *Harness) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// New creates a Harness.
func New(opts ...Option) *Harness {
	h := &Harness{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Run executes tc with a default Harness and returns its Outcome.
func Run(tc *TestCase) (Outcome, error) {
	return New().Run(tc)
}

// Run executes tc and returns its Outcome.
//
// The error is non-nil only for a *InternalError. Anything the body throws
// is captured in the Outcome.
func (h *Harness) Run(tc *TestCase) (Outcome, error) {
	res, err := h.Execute(tc)
	if err != nil {
		return Outcome{}, err
	}
	return res.Outcome, nil
}

// Execute runs tc to completion and returns everything it produced.
//
// Execution flow:
//  1. Validate the TestCase
//  2. Invoke the body synchronously with a fresh *T
//  3. Record a returned error or recovered panic as an uncaught record
//  4. Reduce the records to one Outcome
//  5. Write the report, when an output sink is configured
func (h *Harness) Execute(tc *TestCase) (*Result, error) {
	res, err := h.execute(tc)
	if err != nil {
		return nil, err
	}
	if h.out != nil {
		if err := WriteReport(h.out, res); err != nil {
			h.logger.Warn("failed to write report", zap.String("case", res.Name), zap.Error(err))
		}
	}
	return res, nil
}

func (h *Harness) execute(tc *TestCase) (*Result, error) {
	if err := validate(tc); err != nil {
		return nil, err
	}

	t := newT(tc.Name, h.logger)
	h.logger.Debug("case started", zap.String("case", tc.Name), zap.String("id", tc.ID))

	start := time.Now()
	thrown, ierr := invoke(tc, t)
	elapsed := time.Since(start)
	if ierr != nil {
		t.finish()
		h.logger.Error("harness internal error", zap.String("case", tc.Name), zap.Error(ierr))
		return nil, ierr
	}
	if thrown != nil {
		t.uncaught(classify(thrown))
	}

	records := t.finish()
	res := &Result{
		ID:       tc.ID,
		Name:     tc.Name,
		Summary:  tc.Summary,
		Outcome:  reduce(records),
		Records:  records,
		Duration: elapsed,
	}

	if res.Outcome.Passed() {
		h.logger.Debug("case passed",
			zap.String("case", tc.Name),
			zap.Int("records", len(records)),
			zap.Duration("duration", elapsed),
		)
	} else {
		h.logger.Info("case failed",
			zap.String("case", tc.Name),
			zap.String("id", tc.ID),
			zap.String("status", string(res.Outcome.Status)),
			zap.String("assertion", string(res.Outcome.Assertion)),
		)
	}
	return res, nil
}

// invoke runs the body. A *InternalError raised while it runs is returned
// separately from what the body threw.
func invoke(tc *TestCase, t *T) (thrown error, ierr *InternalError) {
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			ierr = ie
		}
	}()
	return capture(func() error { return tc.Body(t) }), nil
}

func validate(tc *TestCase) error {
	switch {
	case tc == nil:
		return &InternalError{Reason: "test case is nil"}
	case tc.Name == "":
		return &InternalError{Case: tc.ID, Reason: "test case has no name"}
	case tc.Body == nil:
		return &InternalError{Case: tc.Name, Reason: "test case has no body"}
	}
	return nil
}

// Entry is the result of one TestCase in a RunAll batch.
// Exactly one of Result and Err is set.
type Entry struct {
	Case   *TestCase
	Result *Result
	Err    error
}

// RunAll executes cases and returns one Entry per case, in input order.
//
// With parallel <= 1 cases run one after another. Otherwise at most parallel
// cases run at once. Reports are written in input order once every case has
// finished. When ctx is cancelled no further cases start; their entries
// carry the context error, which RunAll also returns.
func (h *Harness) RunAll(ctx context.Context, cases []*TestCase, parallel int) ([]Entry, error) {
	if parallel < 1 {
		parallel = 1
	}

	entries := make([]Entry, len(cases))
	var g errgroup.Group
	g.SetLimit(parallel)

	for i, tc := range cases {
		entries[i].Case = tc
		if err := ctx.Err(); err != nil {
			entries[i].Err = err
			continue
		}
		g.Go(func() error {
			entries[i].Result, entries[i].Err = h.execute(tc)
			return nil
		})
	}
	_ = g.Wait()

	if h.out != nil {
		for _, e := range entries {
			if e.Result == nil {
				continue
			}
			if err := WriteReport(h.out, e.Result); err != nil {
				h.logger.Warn("failed to write report", zap.String("case", e.Result.Name), zap.Error(err))
			}
		}
	}
	return entries, ctx.Err()
}
