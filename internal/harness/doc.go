// Package harness runs test cases and classifies how they ended.
//
// A TestCase is a named body of verification logic. The harness invokes the
// body synchronously, collects the AssertionRecords it makes through its *T,
// and reduces them to exactly one Outcome:
//
//   - pass: no record failed (an empty body passes)
//   - mismatch: a condition, equality, inequality, or type check failed
//   - unexpected_exception: the body threw, or a Throws check saw the wrong kind
//   - expected_exception_missing: a Throws check's body returned normally
//
// The first failed record in sequence order decides the Outcome.
//
// # Phases
//
// Setup builds the TestCase and its fixtures (the caller's job). Execute
// invokes the body, recovering panics and treating a returned error as a
// thrown value. Report reduces the records and, when an output sink is
// configured, writes one status line:
//
//	PASSED: split on an array receiver (S15.5.4.14_A3_T8)
//	FAILED: Do not assert: map->depth > 0 in js_LeaveSharpObject (369696)
//	    Unexpected exception runtime: didn't throw (expected internal)
//
// # Thrown values
//
// Thrown values are classified by Kind, a category such as internal or
// runtime. Throws matches by category; ThrowsError matches identity with
// errors.Is.
//
// # Isolation
//
// A thrown value never escapes Run: each TestCase is isolated. The only
// error Run returns is *InternalError, for a malformed TestCase or a *T
// used after its execution finished.
//
// # Usage
//
//	tc := &harness.TestCase{
//	    ID:      "S15.5.4.14_A3_T8",
//	    Name:    "split-array-receiver",
//	    Summary: "split on an array receiver",
//	    Body: func(t *harness.T) error {
//	        t.Equal(parts, []string{"1,2,3,4,5"}, "#3: joined text")
//	        return nil
//	    },
//	}
//	outcome, err := harness.Run(tc)
package harness
