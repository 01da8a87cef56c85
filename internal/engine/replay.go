package engine

import (
	"github.com/unbound-force/mimic/internal/expectation"
	"github.com/unbound-force/mimic/internal/invocation"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// replay matches c against the recorded expectations. Every call is
// logged to the replay history whatever the outcome.
func (e *Execution) replay(c Call) (action, error) {
	d := c.descriptor()
	opts := e.optionsFor(d.Owner)
	ctx := e.context()

	if opts.Cascading && !e.registry.HasExpectationFor(d.Key()) {
		if v, ok := e.cascade(d); ok {
			e.history.Append(d, nil, uint64(c.Thread))
			return action{value: v}, nil
		}
	}

	if x := e.registry.FindMatchingNonStrict(d, ctx); x != nil {
		x.Constraints.IncrementCount()
		e.history.Append(d, x, uint64(c.Thread))
		if x.Constraints.IsAboveMaximum() {
			err := x.Constraints.ErrorForUnexpectedInvocation(d.String())
			e.addPending(err)
			return action{}, err
		}
		e.linkConstructed(x, d)
		return e.produce(x, c, d), nil
	}

	x, next, err := e.matchStrict(d, ctx, e.thread(c.Thread))
	e.history.Append(d, x, uint64(c.Thread))
	if err != nil {
		e.addPending(err)
		return action{}, err
	}
	if x != nil {
		e.linkConstructed(x, d)
		return e.produce(x, c, d), nil
	}

	if err := e.strictOverrun(d, ctx); err != nil {
		e.addPending(err)
		return action{}, err
	}

	switch {
	case opts.Partial || d.Mode == taxonomy.ModePartial:
		return action{proceed: true}, nil
	case opts.Lenient:
		return action{value: e.defaultValue(d)}, nil
	}

	err = e.unexpected(d, ctx, next)
	e.addPending(err)
	return action{}, err
}

// strictOverrun reports a call to a strict expectation the cursor has
// already moved past: one invocation too many when the expectation is
// exhausted, otherwise an ordering failure.
func (e *Execution) strictOverrun(d *invocation.Descriptor, ctx invocation.Context) *taxonomy.Error {
	i := e.registry.IndexOfStrict(d, ctx, 0)
	if i < 0 {
		return nil
	}
	x := e.registry.Strict()[i]
	x.Constraints.IncrementCount()
	if x.Constraints.IsAboveMaximum() {
		return x.Constraints.ErrorForUnexpectedInvocation(d.String())
	}
	return taxonomy.Errorf(taxonomy.UnexpectedInvocationOrder, d.String(),
		"Unexpected invocation of:").
		WithDetail("invoked after later strict expectations")
}

// matchStrict advances the calling thread's cursor through the strict
// sequence. It returns the matched expectation, or the expectation
// the cursor is waiting on when nothing matched, or an ordering error
// when the call belongs to a later expectation while an earlier one
// is still below its minimum.
func (e *Execution) matchStrict(d *invocation.Descriptor, ctx invocation.Context, ts *threadState) (matched, next *expectation.Expectation, err *taxonomy.Error) {
	strict := e.registry.Strict()
	for ts.cursor < len(strict) {
		x := strict[ts.cursor]
		if x.Constraints.Exhausted() {
			ts.cursor++
			continue
		}
		if x.Matches(d, ctx) {
			if x.Constraints.IncrementCount() {
				ts.cursor++
			}
			return x, nil, nil
		}
		if x.Constraints.IsBelowMinimum() {
			later := e.registry.IndexOfStrict(d, ctx, ts.cursor+1)
			if later < 0 {
				return nil, x, nil
			}
			missing := x.Constraints.ErrorForMissingInvocation(x.String())
			e.reportedMissing[x] = true
			err := taxonomy.Errorf(taxonomy.UnexpectedInvocationOrder, d.String(),
				"Unexpected invocation of:").
				WithDetail("expected next: %s", firstLine(x.String())).
				WithCause(missing)
			return strict[later], nil, err
		}
		ts.cursor++
	}
	return nil, nil, nil
}

// unexpected explains a call that matched no expectation.
func (e *Execution) unexpected(d *invocation.Descriptor, ctx invocation.Context, next *expectation.Expectation) *taxonomy.Error {
	err := taxonomy.Errorf(taxonomy.UnexpectedInvocation, d.String(), "Unexpected invocation to:")
	if next != nil {
		err.WithDetail("expected next: %s", firstLine(next.String()))
	}
	if x, reason := e.registry.ClosestMismatch(d, ctx); x != nil {
		err.WithDetail("closest expectation: %s", firstLine(x.String())).
			WithDetail("mismatch: %v", reason).
			WithReason(reason)
	}
	return err
}

// linkConstructed relates an instance constructed during replay to the
// instance recorded for the same constructor.
func (e *Execution) linkConstructed(x *expectation.Expectation, d *invocation.Descriptor) {
	if d.Mode != taxonomy.ModeConstructor || x.Expected.Mode != taxonomy.ModeConstructor {
		return
	}
	if x.Expected.Instance == nil || d.Instance == nil {
		return
	}
	e.instances.Link(d.Instance, x.Expected.Instance)
}
