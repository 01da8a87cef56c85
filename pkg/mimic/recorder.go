package mimic

import (
	"github.com/unbound-force/mimic/internal/engine"
	"github.com/unbound-force/mimic/internal/invocation"
)

// Invocation is the call a delegate computes a result for.
type Invocation = invocation.Descriptor

// DelegateFunc computes a mocked result from the call.
type DelegateFunc = engine.DelegateFunc

// Recorder attaches results and counts to the call most recently
// recorded in an expectation block.
type Recorder struct {
	s *Session
}

// Result sets the next result. An error value is returned as the
// call's error.
func (r *Recorder) Result(v any) *Recorder {
	r.s.t.Helper()
	r.s.check("Result", r.s.exec.Result(v))
	return r
}

// Returns sets consecutive results; the last one repeats.
func (r *Recorder) Returns(vs ...any) *Recorder {
	r.s.t.Helper()
	r.s.check("Returns", r.s.exec.Returns(vs...))
	return r
}

// Throws makes the call return err.
func (r *Recorder) Throws(err error) *Recorder {
	r.s.t.Helper()
	r.s.check("Throws", r.s.exec.Throws(err))
	return r
}

// Delegate computes the result with fn at replay time.
func (r *Recorder) Delegate(fn DelegateFunc) *Recorder {
	r.s.t.Helper()
	r.s.check("Delegate", r.s.exec.Delegate(fn))
	return r
}

// ForwardToReal runs the implementation set with Mock.Implement, on
// receiver when non-nil.
func (r *Recorder) ForwardToReal(receiver any) *Recorder {
	r.s.t.Helper()
	r.s.check("ForwardToReal", r.s.exec.ForwardToReal(receiver))
	return r
}

// Times expects exactly n calls.
func (r *Recorder) Times(n int) *Recorder {
	r.s.t.Helper()
	r.s.check("Times", r.s.exec.Times(n))
	return r
}

// MinTimes expects at least n calls.
func (r *Recorder) MinTimes(n int) *Recorder {
	r.s.t.Helper()
	r.s.check("MinTimes", r.s.exec.MinTimes(n))
	return r
}

// MaxTimes allows at most n calls.
func (r *Recorder) MaxTimes(n int) *Recorder {
	r.s.t.Helper()
	r.s.check("MaxTimes", r.s.exec.MaxTimes(n))
	return r
}

// With replaces the argument matchers, one per argument. A nil entry
// keeps equality with the recorded argument.
func (r *Recorder) With(ms ...Matcher) *Recorder {
	r.s.t.Helper()
	r.s.check("With", withMatchers(r.s.exec, ms))
	return r
}

// Verifier attaches counts and matchers to the call most recently
// stated in a verification block.
type Verifier struct {
	s *Session
}

// Times requires exactly n matching calls.
func (v *Verifier) Times(n int) *Verifier {
	v.s.t.Helper()
	v.s.check("Times", v.s.exec.Times(n))
	return v
}

// MinTimes requires at least n matching calls.
func (v *Verifier) MinTimes(n int) *Verifier {
	v.s.t.Helper()
	v.s.check("MinTimes", v.s.exec.MinTimes(n))
	return v
}

// MaxTimes allows at most n matching calls.
func (v *Verifier) MaxTimes(n int) *Verifier {
	v.s.t.Helper()
	v.s.check("MaxTimes", v.s.exec.MaxTimes(n))
	return v
}

// With replaces the argument matchers of the statement.
func (v *Verifier) With(ms ...Matcher) *Verifier {
	v.s.t.Helper()
	v.s.check("With", withMatchers(v.s.exec, ms))
	return v
}

// AllowReuse lets the statement match calls already verified by an
// earlier statement.
func (v *Verifier) AllowReuse() *Verifier {
	v.s.t.Helper()
	v.s.check("AllowReuse", v.s.exec.AllowReuse())
	return v
}

func withMatchers(e *engine.Execution, ms []Matcher) error {
	for _, m := range ms {
		if bad, ok := m.(invalidMatcher); ok {
			return bad.err
		}
	}
	return e.WithMatchers(ms...)
}
