package engine_test

import (
	"errors"
	"fmt"
	"testing"

	"pgregory.net/rapid"

	"github.com/unbound-force/mimic/internal/engine"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// newRapidExecution creates an execution for one rapid iteration.
func newRapidExecution(t *rapid.T, opts engine.Options) *engine.Execution {
	e, err := engine.New(opts)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return e
}

func rapidMust(t *rapid.T, err error) {
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Calling an expectation k times within [min, max] is clean; fewer is
// missing; the (max+1)th call is unexpected.
func TestProperty_CountAccounting(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lo := rapid.IntRange(0, 3).Draw(t, "min")
		hi := rapid.IntRange(lo, lo+3).Draw(t, "max")
		k := rapid.IntRange(0, hi+2).Draw(t, "calls")
		strict := rapid.Bool().Draw(t, "strict")

		e := newRapidExecution(t, engine.Options{})
		defer e.Rollback()
		rapidMust(t, e.BeginRecordingBlock(strict, 1))
		_, err := e.RecordOrReplay(on(instA, ownerA, getValue))
		rapidMust(t, err)
		rapidMust(t, e.MinTimes(lo))
		rapidMust(t, e.MaxTimes(hi))
		rapidMust(t, e.EndRecordingBlock())

		for i := 1; i <= k; i++ {
			_, err := e.RecordOrReplay(on(instA, ownerA, getValue))
			if i <= hi && err != nil {
				t.Fatalf("call %d of %d..%d: %v", i, lo, hi, err)
			}
			if i == hi+1 {
				if !errors.Is(err, taxonomy.ErrUnexpectedInvocation) {
					t.Fatalf("call %d of %d..%d: err = %v, want UnexpectedInvocation", i, lo, hi, err)
				}
				return
			}
		}

		err = e.FinishTestExecution(nil, false)
		switch {
		case k < lo && !errors.Is(err, taxonomy.ErrMissingInvocation):
			t.Fatalf("%d calls of %d..%d: err = %v, want MissingInvocation", k, lo, hi, err)
		case k >= lo && err != nil:
			t.Fatalf("%d calls of %d..%d: err = %v, want nil", k, lo, hi, err)
		}
	})
}

// Non-strict expectations with disjoint arguments accept any call
// order.
func TestProperty_NonStrictOrderIndependence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 6).Draw(t, "n")
		keys := make([]string, n)
		for i := range keys {
			keys[i] = fmt.Sprintf("k%d", i)
		}
		order := rapid.Permutation(keys).Draw(t, "order")

		e := newRapidExecution(t, engine.Options{})
		defer e.Rollback()
		rapidMust(t, e.BeginRecordingBlock(false, 1))
		for _, k := range keys {
			_, err := e.RecordOrReplay(on(instA, ownerA, "Get(string) string", k))
			rapidMust(t, err)
			rapidMust(t, e.Result("v-"+k))
			rapidMust(t, e.Times(1))
		}
		rapidMust(t, e.EndRecordingBlock())

		for _, k := range order {
			v, err := e.RecordOrReplay(on(instA, ownerA, "Get(string) string", k))
			if err != nil {
				t.Fatalf("Get(%s): %v", k, err)
			}
			if v != "v-"+k {
				t.Fatalf("Get(%s) = %v", k, v)
			}
		}
		for _, x := range e.Snapshot().Expectations {
			if x.Constraints.Count != 1 {
				t.Fatalf("expectation %d count = %d, want 1", x.Index, x.Constraints.Count)
			}
		}
		if err := e.FinishTestExecution(nil, false); err != nil {
			t.Fatalf("FinishTestExecution = %v", err)
		}
	})
}

// Replaying E2 before E1 is an ordering error unless E1 may be skipped.
func TestProperty_StrictOrderSensitivity(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		skippable := rapid.Bool().Draw(t, "skippable")

		e := newRapidExecution(t, engine.Options{})
		defer e.Rollback()
		rapidMust(t, e.BeginRecordingBlock(true, 1))
		_, err := e.RecordOrReplay(on(instA, ownerA, foo))
		rapidMust(t, err)
		if skippable {
			rapidMust(t, e.MinTimes(0))
		}
		_, err = e.RecordOrReplay(on(instB, ownerB, bar))
		rapidMust(t, err)
		rapidMust(t, e.EndRecordingBlock())

		_, err = e.RecordOrReplay(on(instB, ownerB, bar))
		switch {
		case skippable && err != nil:
			t.Fatalf("E2 first with skippable E1: %v", err)
		case !skippable && !errors.Is(err, taxonomy.ErrUnexpectedInvocationOrder):
			t.Fatalf("E2 first: err = %v, want UnexpectedInvocationOrder", err)
		}
	})
}

// A single replayed call satisfies only one of two sequential
// verification statements.
func TestProperty_VerificationNonReuse(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		noiseBefore := rapid.IntRange(0, 3).Draw(t, "before")
		noiseAfter := rapid.IntRange(0, 3).Draw(t, "after")

		e := newRapidExecution(t, engine.Options{Defaults: engine.MockOptions{Lenient: true}})
		defer e.Rollback()
		for i := 0; i < noiseBefore; i++ {
			_, _ = e.RecordOrReplay(on(instB, ownerB, bar))
		}
		_, _ = e.RecordOrReplay(on(instA, ownerA, getValue))
		for i := 0; i < noiseAfter; i++ {
			_, _ = e.RecordOrReplay(on(instB, ownerB, bar))
		}

		rapidMust(t, e.BeginVerificationBlock(false, false, 1, testerTID))
		_, err := e.RecordOrReplay(on(instA, ownerA, getValue))
		rapidMust(t, err)
		rapidMust(t, e.Times(1))
		_, err = e.RecordOrReplay(on(instA, ownerA, getValue))
		rapidMust(t, err)
		rapidMust(t, e.Times(1))
		err = e.EndVerificationBlock()

		if !errors.Is(err, taxonomy.ErrMissingInvocation) {
			t.Fatalf("second statement: err = %v, want MissingInvocation", err)
		}
	})
}

// Rolling back twice is the same as rolling back once.
func TestProperty_RollbackIdempotence(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 5).Draw(t, "expectations")
		twice := rapid.Bool().Draw(t, "twice")

		e := newRapidExecution(t, engine.Options{})
		rapidMust(t, e.BeginRecordingBlock(rapid.Bool().Draw(t, "strict"), 1))
		for i := 0; i < n; i++ {
			_, err := e.RecordOrReplay(on(instA, ownerA, "Get(int) int", i))
			rapidMust(t, err)
		}
		rapidMust(t, e.EndRecordingBlock())

		e.Rollback()
		if twice {
			e.Rollback()
		}

		s := e.Snapshot()
		if len(s.Expectations) != 0 || len(s.History) != 0 || len(s.Errors) != 0 {
			t.Fatalf("residual state after rollback: %+v", s)
		}
		if _, err := e.RecordOrReplay(on(instA, ownerA, "Get(int) int", 0)); !errors.Is(err, taxonomy.ErrUnexpectedInvocation) {
			t.Fatalf("call after rollback: err = %v, want UnexpectedInvocation", err)
		}
	})
}
