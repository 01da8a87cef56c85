package engine

import (
	"github.com/unbound-force/mimic/internal/expectation"
	"github.com/unbound-force/mimic/internal/invocation"
)

// action is the outcome of dispatching a call, produced under the
// execution lock and run after it is released so that delegates and
// real implementations may call back into mocked code.
type action struct {
	value   any
	err     error
	proceed bool

	delegate DelegateFunc
	call     *invocation.Descriptor

	real     RealFunc
	receiver any
	args     []any
}

func (a action) run() (any, error) {
	switch {
	case a.proceed:
		return Proceed, nil
	case a.delegate != nil:
		return a.delegate(a.call)
	case a.real != nil:
		return a.real(a.receiver, a.args)
	case a.err != nil:
		return nil, a.err
	default:
		return a.value, nil
	}
}

// produce turns the next result of x into an action. Calls to
// expectations without recorded results return the default value for
// the member.
func (e *Execution) produce(x *expectation.Expectation, c Call, d *invocation.Descriptor) action {
	res, ok := x.Results.Next()
	if !ok {
		return action{value: e.defaultValue(d)}
	}
	switch res.Kind {
	case expectation.Throw:
		return action{err: res.Err}
	case expectation.Delegate:
		return action{delegate: res.Delegate, call: d}
	case expectation.ForwardToReal:
		if c.Real == nil {
			return action{proceed: true}
		}
		receiver := res.Receiver
		if receiver == nil {
			receiver = c.Instance
		}
		return action{real: c.Real, receiver: receiver, args: c.Args}
	default:
		return action{value: res.Value}
	}
}

// defaultValue is the result of a call without a recorded result: a
// cascaded mock when the owner cascades and the return type can be
// produced, nil otherwise.
func (e *Execution) defaultValue(d *invocation.Descriptor) any {
	if !e.optionsFor(d.Owner).Cascading {
		return nil
	}
	v, _ := e.cascade(d)
	return v
}

// cascade returns the mock produced for d's member on d's receiver,
// creating it on first use. Produced types cascade in turn.
func (e *Execution) cascade(d *invocation.Descriptor) (any, bool) {
	ret := typeName(d.Signature().ReturnType())
	if ret == "" || !e.stubs.Knows(ret) {
		return nil, false
	}

	key := cascadeKey{member: d.Key()}
	if origin := e.instances.Origin(d.Instance); origin != nil && hashable(origin) {
		key.instance = origin
	}
	if v, ok := e.cascaded[key]; ok {
		return v, true
	}

	v, err := e.stubs.New(ret)
	if err != nil {
		e.logger.Warn("cascading failed", "execution", e.id, "type", ret, "err", err)
		return nil, false
	}
	e.cascaded[key] = v
	if _, declared := e.types[ret]; !declared {
		e.types[ret] = MockOptions{Lenient: true, Cascading: true}
	}
	e.logger.Debug("cascaded mock", "execution", e.id, "member", d.Key(), "type", ret)
	return v, true
}
