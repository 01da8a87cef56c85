package engine

import (
	"github.com/unbound-force/mimic/internal/expectation"
	"github.com/unbound-force/mimic/internal/invocation"
	"github.com/unbound-force/mimic/internal/matcher"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// BeginRecordingBlock starts declaring expectations. Every call until
// EndRecordingBlock records an expectation with the block's
// strictness; the block's calls are expected iterations times.
func (e *Execution) BeginRecordingBlock(strict bool, iterations int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.phases.Fire(eventBeginRecord); err != nil {
		return err
	}
	if iterations < 1 {
		iterations = 1
	}
	block := &expectation.RecordingBlock{
		Ordinal:    len(e.blocks),
		Strict:     strict,
		Iterations: iterations,
	}
	e.blocks = append(e.blocks, block)
	e.recording = &recordingState{block: block}
	return nil
}

// EndRecordingBlock returns to replaying.
func (e *Execution) EndRecordingBlock() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.phases.Fire(eventEndRecord); err != nil {
		return err
	}
	block := e.recording.block
	for _, x := range block.Expectations {
		x.Constraints.Multiply(block.Iterations)
	}
	e.recording = nil
	return nil
}

// record declares an expectation for c in the current block.
func (e *Execution) record(c Call) (action, error) {
	d := c.descriptor()
	block := e.recording.block
	x := expectation.New(invocation.NewExpected(d, e.instances), block, block.Strict)
	e.registry.AddExpectation(x, block.Strict)

	// Recorded cascades hand back the same mock replay will return.
	if e.optionsFor(d.Owner).Cascading {
		if v, ok := e.cascade(d); ok {
			return action{value: v}, nil
		}
	}
	return action{}, nil
}

// lastRecorded returns the expectation that recording modifiers
// attach to.
func (e *Execution) lastRecorded(modifier string) (*expectation.Expectation, error) {
	if e.phases.Current() != taxonomy.Recording {
		return nil, taxonomy.Errorf(taxonomy.ConfigurationError, "",
			"%s is only valid inside a recording block", modifier)
	}
	x := e.registry.Last()
	if x == nil || x.Block != e.recording.block {
		return nil, taxonomy.Errorf(taxonomy.ConfigurationError, "",
			"missing invocation to mocked type before %s", modifier)
	}
	return x, nil
}

func (e *Execution) addResult(modifier string, res expectation.Result) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	x, err := e.lastRecorded(modifier)
	if err != nil {
		return err
	}
	x.Results.Add(res)
	return nil
}

// Result sets the next result of the last recorded expectation. An
// error value is thrown rather than returned.
func (e *Execution) Result(v any) error {
	if err, ok := v.(error); ok {
		return e.Throws(err)
	}
	return e.addResult("result", expectation.Result{Kind: expectation.ReturnValue, Value: v})
}

// Returns appends one result per value; the last one repeats.
func (e *Execution) Returns(vs ...any) error {
	for _, v := range vs {
		if err := e.Result(v); err != nil {
			return err
		}
	}
	return nil
}

// Throws makes the last recorded expectation return err.
func (e *Execution) Throws(err error) error {
	return e.addResult("throws", expectation.Result{Kind: expectation.Throw, Err: err})
}

// Delegate computes the last recorded expectation's result with fn.
func (e *Execution) Delegate(fn DelegateFunc) error {
	if fn == nil {
		return taxonomy.Errorf(taxonomy.ConfigurationError, "", "nil delegate")
	}
	return e.addResult("delegate", expectation.Result{Kind: expectation.Delegate, Delegate: fn})
}

// ForwardToReal runs the real implementation for the last recorded
// expectation, on receiver when non-nil, otherwise on the called
// instance.
func (e *Execution) ForwardToReal(receiver any) error {
	return e.addResult("forward", expectation.Result{Kind: expectation.ForwardToReal, Receiver: receiver})
}

// constraintsFor returns the constraints a count modifier applies to:
// the last recorded expectation, or the current verification
// statement.
func (e *Execution) constraintsFor(modifier string) (*expectation.Constraints, error) {
	if e.phases.Current().IsVerifying() {
		st, err := e.currentStatement(modifier)
		if err != nil {
			return nil, err
		}
		return &st.constraints, nil
	}
	x, err := e.lastRecorded(modifier)
	if err != nil {
		return nil, err
	}
	return &x.Constraints, nil
}

func (e *Execution) setCount(modifier string, n int, set func(c *expectation.Constraints)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n < 0 {
		return taxonomy.Errorf(taxonomy.ConfigurationError, "", "negative %s: %d", modifier, n)
	}
	c, err := e.constraintsFor(modifier)
	if err != nil {
		return err
	}
	set(c)
	return nil
}

// Times requires exactly n invocations.
func (e *Execution) Times(n int) error {
	return e.setCount("times", n, func(c *expectation.Constraints) { c.SetTimes(n) })
}

// MinTimes requires at least n invocations.
func (e *Execution) MinTimes(n int) error {
	return e.setCount("minTimes", n, func(c *expectation.Constraints) { c.SetMinTimes(n) })
}

// MaxTimes allows at most n invocations.
func (e *Execution) MaxTimes(n int) error {
	return e.setCount("maxTimes", n, func(c *expectation.Constraints) { c.SetMaxTimes(n) })
}

// WithMatchers replaces the argument matchers of the last recorded
// expectation or verification statement. A nil entry keeps equality
// with the recorded argument.
func (e *Execution) WithMatchers(ms ...matcher.Matcher) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	ms = matcher.Bind(ms, e.instances)
	if e.phases.Current().IsVerifying() {
		st, err := e.currentStatement("withMatchers")
		if err != nil {
			return err
		}
		return st.expected.SetMatchers(ms)
	}
	x, err := e.lastRecorded("withMatchers")
	if err != nil {
		return err
	}
	return x.Expected.SetMatchers(ms)
}
