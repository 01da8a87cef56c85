package engine_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/unbound-force/mimic/internal/engine"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

func TestConcurrency_CountsAreExact(t *testing.T) {
	const workers = 32
	e := newExecution(t, engine.Options{})
	record(t, e, false, func() {
		invoke(t, e, on(instA, ownerA, getValue))
		must(t, e.Result("X"))
		must(t, e.MaxTimes(workers))
	})

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			c := on(instA, ownerA, getValue)
			c.Thread = engine.ThreadID(100 + id)
			if _, err := e.RecordOrReplay(c); err != nil {
				failures.Add(1)
			}
		}(i)
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d of %d concurrent calls failed", failures.Load(), workers)
	}
	if got := e.Snapshot().Expectations[0].Constraints.Count; got != workers {
		t.Errorf("count = %d, want %d", got, workers)
	}
	_, err := e.RecordOrReplay(on(instA, ownerA, getValue))
	if !errors.Is(err, taxonomy.ErrUnexpectedInvocation) {
		t.Errorf("call %d = %v, want UnexpectedInvocation", workers+1, err)
	}
}

func TestConcurrency_StrictCursorIsPerThread(t *testing.T) {
	const workers = 16
	e := newExecution(t, engine.Options{})
	record(t, e, true, func() {
		invoke(t, e, on(instA, ownerA, foo))
		must(t, e.MinTimes(1))
		must(t, e.MaxTimes(workers))
		invoke(t, e, on(instB, ownerB, bar))
		must(t, e.MinTimes(1))
		must(t, e.MaxTimes(workers))
	})

	var wg sync.WaitGroup
	errs := make(chan error, 2*workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(id engine.ThreadID) {
			defer wg.Done()
			<-start
			for _, c := range []engine.Call{on(instA, ownerA, foo), on(instB, ownerB, bar)} {
				c.Thread = id
				if _, err := e.RecordOrReplay(c); err != nil {
					errs <- err
				}
			}
		}(engine.ThreadID(200 + i))
	}
	close(start)
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}
	if err := e.FinishTestExecution(nil, false); err != nil {
		t.Errorf("FinishTestExecution = %v, want nil", err)
	}
}

func TestConcurrency_VerificationIsANoMockingZone(t *testing.T) {
	e := newExecution(t, engine.Options{Defaults: engine.MockOptions{Lenient: true}})
	invoke(t, e, on(instA, ownerA, foo))

	must(t, e.BeginVerificationBlock(false, false, 1, testerTID))
	done := make(chan struct{})
	go func() {
		defer close(done)
		c := on(instB, ownerB, bar)
		c.Thread = 2
		_, _ = e.RecordOrReplay(c)
	}()

	select {
	case <-done:
		t.Fatal("a replay call completed inside the verification block")
	case <-time.After(20 * time.Millisecond):
	}

	invoke(t, e, on(instA, ownerA, foo))
	must(t, e.EndVerificationBlock())
	<-done

	s := e.Snapshot()
	if len(s.History) != 2 || s.History[1].Method != bar {
		t.Errorf("history = %+v, want the blocked call replayed after verification", s.History)
	}
}

func TestConcurrency_NestedVerificationIsRejected(t *testing.T) {
	e := newExecution(t, engine.Options{Defaults: engine.MockOptions{Lenient: true}})
	invoke(t, e, on(instA, ownerA, foo))

	must(t, e.BeginVerificationBlock(false, false, 1, testerTID))

	for _, ordered := range []bool{false, true} {
		errc := make(chan error, 1)
		go func() { errc <- e.BeginVerificationBlock(ordered, false, 1, testerTID) }()
		select {
		case err := <-errc:
			if !errors.Is(err, taxonomy.ErrConfiguration) {
				t.Errorf("nested BeginVerificationBlock(ordered=%v) = %v, want ConfigurationError", ordered, err)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("nested BeginVerificationBlock(ordered=%v) blocked", ordered)
		}
	}

	// The outer block is still usable and releases the zone.
	invoke(t, e, on(instA, ownerA, foo))
	must(t, e.EndVerificationBlock())
	must(t, verify(e, false, false, func() {}))
}
