package expectation

import (
	"github.com/unbound-force/mimic/internal/invocation"
)

// Verified is one replayed call accounted for by a verification
// statement.
type Verified struct {
	Expectation *Expectation
	Args        []any
	Position    int
}

// Registry holds a test's recorded expectations. Strict expectations
// form one totally ordered sequence; non-strict ones are searched
// first-fit in insertion order. Registry is not safe for concurrent
// use; the owning execution serializes access.
type Registry struct {
	all       []*Expectation
	strict    []*Expectation
	nonStrict []*Expectation
	keys      map[string]int

	verified  []Verified
	positions map[int]bool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		keys:      make(map[string]int),
		positions: make(map[int]bool),
	}
}

// AddExpectation appends e to the strict sequence or the non-strict
// list and assigns its declaration index.
func (r *Registry) AddExpectation(e *Expectation, strict bool) {
	e.Index = len(r.all)
	e.Strict = strict
	r.all = append(r.all, e)
	if strict {
		r.strict = append(r.strict, e)
	} else {
		r.nonStrict = append(r.nonStrict, e)
	}
	r.keys[e.Expected.Key()]++
}

// All returns every expectation in declaration order.
func (r *Registry) All() []*Expectation { return r.all }

// Strict returns the strict sequence.
func (r *Registry) Strict() []*Expectation { return r.strict }

// NonStrict returns the non-strict expectations in insertion order.
func (r *Registry) NonStrict() []*Expectation { return r.nonStrict }

// Len returns the number of recorded expectations.
func (r *Registry) Len() int { return len(r.all) }

// Last returns the most recently recorded expectation, or nil.
func (r *Registry) Last() *Expectation {
	if len(r.all) == 0 {
		return nil
	}
	return r.all[len(r.all)-1]
}

// FindMatchingNonStrict returns the first non-strict expectation that
// accepts call and still has room below its maximum. When every
// accepting expectation is exhausted the first of them is returned, so
// the caller can report the call as one too many.
func (r *Registry) FindMatchingNonStrict(call *invocation.Descriptor, ctx invocation.Context) *Expectation {
	var exhausted *Expectation
	for _, e := range r.nonStrict {
		if !e.Matches(call, ctx) {
			continue
		}
		if !e.Constraints.Exhausted() {
			return e
		}
		if exhausted == nil {
			exhausted = e
		}
	}
	return exhausted
}

// IndexOfStrict returns the position in the strict sequence, at or
// after from, of the first expectation accepting call, or -1.
func (r *Registry) IndexOfStrict(call *invocation.Descriptor, ctx invocation.Context, from int) int {
	for i := from; i < len(r.strict); i++ {
		if r.strict[i].Matches(call, ctx) {
			return i
		}
	}
	return -1
}

// ClosestMismatch returns the first expectation recorded for the same
// member as call, with the reason its arguments were rejected. It is
// used to explain unexpected invocations.
func (r *Registry) ClosestMismatch(call *invocation.Descriptor, ctx invocation.Context) (*Expectation, error) {
	for _, e := range r.all {
		if e.Expected.MatchMember(call, ctx) != nil {
			continue
		}
		if err := e.Expected.Match(call, ctx); err != nil {
			return e, err
		}
	}
	return nil, nil
}

// HasExpectationFor reports whether any expectation was recorded for
// the member identified by key (see invocation.Descriptor.Key).
func (r *Registry) HasExpectationFor(key string) bool { return r.keys[key] > 0 }

// MarkVerified records that the replayed call at position was
// accounted for by a verification statement.
func (r *Registry) MarkVerified(e *Expectation, args []any, position int) {
	r.verified = append(r.verified, Verified{Expectation: e, Args: args, Position: position})
	r.positions[position] = true
}

// IsVerified reports whether the replayed call at position was
// already accounted for.
func (r *Registry) IsVerified(position int) bool { return r.positions[position] }

// Verified returns the verification ledger in marking order.
func (r *Registry) Verified() []Verified { return r.verified }

// Reset drops all expectations and verification state.
func (r *Registry) Reset() {
	r.all, r.strict, r.nonStrict = nil, nil, nil
	r.verified = nil
	clear(r.keys)
	clear(r.positions)
}
