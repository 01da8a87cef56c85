package expectation

import (
	"github.com/unbound-force/mimic/internal/invocation"
)

// ResultKind selects what an expectation produces when invoked.
type ResultKind int

// Result kinds.
const (
	// ReturnValue produces a fixed value; nil is a valid value.
	ReturnValue ResultKind = iota
	// Throw produces a recorded error.
	Throw
	// Delegate runs test-supplied logic against the call.
	Delegate
	// ForwardToReal runs the real implementation, optionally on a
	// substituted receiver.
	ForwardToReal
)

func (k ResultKind) String() string {
	switch k {
	case ReturnValue:
		return "return"
	case Throw:
		return "throw"
	case Delegate:
		return "delegate"
	case ForwardToReal:
		return "forward"
	default:
		return "unknown"
	}
}

// DelegateFunc computes a result from the intercepted call.
type DelegateFunc func(call *invocation.Descriptor) (any, error)

// Result is one entry of a result policy.
type Result struct {
	Kind     ResultKind
	Value    any
	Err      error
	Delegate DelegateFunc
	Receiver any
}

// Results is an ordered result policy: one entry is consumed per call
// and the last one repeats once the list is exhausted.
type Results struct {
	list []Result
	next int
}

// Add appends a result.
func (r *Results) Add(res Result) { r.list = append(r.list, res) }

// Len returns the number of recorded results.
func (r *Results) Len() int { return len(r.list) }

// All returns the recorded results in order.
func (r *Results) All() []Result { return r.list }

// Next returns the result for the current call. ok is false when no
// result was recorded.
func (r *Results) Next() (res Result, ok bool) {
	if len(r.list) == 0 {
		return Result{}, false
	}
	res = r.list[r.next]
	if r.next < len(r.list)-1 {
		r.next++
	}
	return res, true
}

// Forwards reports whether the next result forwards to the real
// implementation.
func (r *Results) Forwards() bool {
	return len(r.list) > 0 && r.list[r.next].Kind == ForwardToReal
}
