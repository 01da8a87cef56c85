package engine

import (
	"github.com/unbound-force/mimic/internal/expectation"
	"github.com/unbound-force/mimic/internal/matcher"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// ExpectationState is a point-in-time copy of one expectation.
type ExpectationState struct {
	Index       int
	Owner       string
	Method      string
	Arguments   string
	Strict      bool
	Block       int
	Constraints expectation.Constraints
	Results     []expectation.ResultKind
}

// CallState is a point-in-time copy of one replay history entry.
type CallState struct {
	Position    int
	Owner       string
	Method      string
	Arguments   string
	Thread      uint64
	Expectation int
	Verified    bool
}

// Snapshot is a consistent copy of an execution's state.
type Snapshot struct {
	ID           string
	Phase        taxonomy.Phase
	Expectations []ExpectationState
	History      []CallState
	Errors       []*taxonomy.Error
}

// Snapshot copies the execution's state under its lock.
func (e *Execution) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	s := Snapshot{ID: e.id, Phase: e.phases.Current()}
	for _, x := range e.registry.All() {
		st := ExpectationState{
			Index:       x.Index,
			Owner:       x.Expected.Owner,
			Method:      x.Expected.Method,
			Arguments:   matcher.DescribeAll(x.Expected.Matchers),
			Strict:      x.Strict,
			Block:       -1,
			Constraints: x.Constraints,
		}
		if x.Block != nil {
			st.Block = x.Block.Ordinal
		}
		for _, r := range x.Results.All() {
			st.Results = append(st.Results, r.Kind)
		}
		s.Expectations = append(s.Expectations, st)
	}
	for _, en := range e.history.Entries() {
		cs := CallState{
			Position:    en.Position,
			Owner:       en.Call.Owner,
			Method:      en.Call.Method,
			Arguments:   matcher.DescribeValues(en.Call.Args),
			Thread:      en.Thread,
			Expectation: -1,
			Verified:    e.registry.IsVerified(en.Position),
		}
		if en.Expectation != nil {
			cs.Expectation = en.Expectation.Index
		}
		s.History = append(s.History, cs)
	}
	switch {
	case e.result != nil:
		s.Errors = append(s.Errors, e.result)
	default:
		s.Errors = append(s.Errors, e.pending...)
	}
	s.Errors = append(s.Errors, e.failures...)
	return s
}
