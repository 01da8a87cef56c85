package expectation

import (
	"errors"
	"testing"

	"github.com/unbound-force/mimic/internal/invocation"
	"github.com/unbound-force/mimic/internal/matcher"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

type mockStore struct{}

var store = &mockStore{}

func call(method string, args ...any) *invocation.Descriptor {
	return invocation.New(store, 0, "store.Store", method, taxonomy.ModeInstance, args)
}

func record(r *Registry, strict bool, method string, args ...any) *Expectation {
	e := New(invocation.NewExpected(call(method, args...), nil), nil, strict)
	r.AddExpectation(e, strict)
	return e
}

func TestResults_LastRepeats(t *testing.T) {
	var r Results
	if _, ok := r.Next(); ok {
		t.Fatal("empty results must report !ok")
	}
	r.Add(Result{Kind: ReturnValue, Value: 1})
	r.Add(Result{Kind: Throw, Err: errors.New("boom")})

	want := []ResultKind{ReturnValue, Throw, Throw, Throw}
	for i, k := range want {
		res, ok := r.Next()
		if !ok || res.Kind != k {
			t.Errorf("call %d: kind = %s, want %s", i+1, res.Kind, k)
		}
	}
}

func TestResults_NilIsAValue(t *testing.T) {
	var r Results
	r.Add(Result{Kind: ReturnValue, Value: nil})
	res, ok := r.Next()
	if !ok || res.Kind != ReturnValue || res.Value != nil {
		t.Errorf("Next() = %+v, %v; want a nil return value", res, ok)
	}
}

func TestRegistry_FirstFitSkipsExhausted(t *testing.T) {
	r := NewRegistry()
	first := record(r, false, "Get(string) string", "k")
	first.Constraints.SetMaxTimes(1)
	second := record(r, false, "Get(string) string", "k")
	ctx := invocation.Context{}

	if got := r.FindMatchingNonStrict(call("Get(string) string", "k"), ctx); got != first {
		t.Fatal("first lookup did not return the first expectation")
	}
	first.Constraints.IncrementCount()

	if got := r.FindMatchingNonStrict(call("Get(string) string", "k"), ctx); got != second {
		t.Error("lookup after exhaustion did not return the second expectation")
	}
}

func TestRegistry_FallsBackToExhausted(t *testing.T) {
	r := NewRegistry()
	only := record(r, false, "Get(string) string", "k")
	only.Constraints.SetTimes(1)
	only.Constraints.IncrementCount()

	if got := r.FindMatchingNonStrict(call("Get(string) string", "k"), invocation.Context{}); got != only {
		t.Error("expected the exhausted expectation to be returned for overflow reporting")
	}
	if got := r.FindMatchingNonStrict(call("Get(string) string", "other"), invocation.Context{}); got != nil {
		t.Error("expected no match for different arguments")
	}
}

func TestRegistry_StrictSequence(t *testing.T) {
	r := NewRegistry()
	a := record(r, true, "Foo()")
	b := record(r, true, "Bar()")
	record(r, false, "Baz()")

	if len(r.Strict()) != 2 || r.Strict()[0] != a || r.Strict()[1] != b {
		t.Fatal("strict sequence must keep declaration order")
	}
	if got := r.IndexOfStrict(call("Bar()"), invocation.Context{}, 0); got != 1 {
		t.Errorf("IndexOfStrict(Bar) = %d, want 1", got)
	}
	if got := r.IndexOfStrict(call("Foo()"), invocation.Context{}, 1); got != -1 {
		t.Errorf("IndexOfStrict(Foo, from 1) = %d, want -1", got)
	}
	if !r.HasExpectationFor("store.Store#Baz()") {
		t.Error("expected HasExpectationFor(Baz)")
	}
	if r.Last().Expected.Method != "Baz()" {
		t.Errorf("Last() = %s, want Baz()", r.Last().Expected.Method)
	}
}

func TestRegistry_ClosestMismatch(t *testing.T) {
	r := NewRegistry()
	record(r, false, "Sum(...int) int", 1, 2)

	e, err := r.ClosestMismatch(call("Sum(...int) int", 1, 2, 3), invocation.Context{})
	if e == nil {
		t.Fatal("expected the Sum expectation")
	}
	if !errors.Is(err, matcher.ErrVarargsLength) {
		t.Errorf("reason = %v, want ErrVarargsLength", err)
	}
}

func TestRegistry_VerifiedLedger(t *testing.T) {
	r := NewRegistry()
	e := record(r, false, "Get(string) string", "k")
	r.MarkVerified(e, []any{"k"}, 3)

	if !r.IsVerified(3) || r.IsVerified(2) {
		t.Error("only position 3 should be verified")
	}
	if len(r.Verified()) != 1 {
		t.Errorf("len(Verified()) = %d, want 1", len(r.Verified()))
	}
}

func TestRegistry_ResetTwice(t *testing.T) {
	r := NewRegistry()
	e := record(r, true, "Foo()")
	r.MarkVerified(e, nil, 0)

	r.Reset()
	r.Reset()

	if r.Len() != 0 || len(r.Strict()) != 0 || len(r.Verified()) != 0 || r.IsVerified(0) {
		t.Error("expected an empty registry after reset")
	}
	if r.HasExpectationFor("store.Store#Foo()") {
		t.Error("expected member keys to be cleared")
	}
}

func TestHistory_Append(t *testing.T) {
	var h History
	if pos := h.Append(call("Foo()"), nil, 1); pos != 0 {
		t.Errorf("first position = %d, want 0", pos)
	}
	if pos := h.Append(call("Bar()"), nil, 2); pos != 1 {
		t.Errorf("second position = %d, want 1", pos)
	}
	if h.Entries()[1].Thread != 2 {
		t.Error("expected thread to be kept")
	}
	h.Reset()
	if h.Len() != 0 {
		t.Error("expected empty history after reset")
	}
}
