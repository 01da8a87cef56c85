package mimic

import (
	"errors"
	"sync"

	"github.com/unbound-force/mimic/internal/engine"
	"github.com/unbound-force/mimic/internal/invocation"
	"github.com/unbound-force/mimic/internal/stub"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// RealFunc is the real implementation of a mocked member.
type RealFunc = engine.RealFunc

// MockOption adjusts how unmatched calls on a mocked type behave.
type MockOption func(*engine.MockOptions)

// Lenient makes unmatched calls return nil instead of failing.
func Lenient() MockOption {
	return func(o *engine.MockOptions) { o.Lenient = true }
}

// Cascading makes methods returning a Stubbed type produce mocks.
func Cascading() MockOption {
	return func(o *engine.MockOptions) { o.Cascading = true }
}

// Partial makes unmatched calls run the real implementation set with
// Mock.Implement.
func Partial() MockOption {
	return func(o *engine.MockOptions) { o.Partial = true }
}

// Mock is one mocked instance of a declared type.
type Mock struct {
	s        *Session
	owner    string
	instance any

	mu   sync.Mutex
	real map[string]RealFunc
}

// Mock declares owner as a mocked type and returns an instance of it.
// Without options the type follows the session's configured
// strictness.
func (s *Session) Mock(owner string, opts ...MockOption) *Mock {
	mo := engine.MockOptions{
		Lenient:   s.cfg.Lenient(),
		Cascading: s.cfg.Mocking.Cascading,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&mo)
		}
	}
	s.exec.Mock(owner, mo)
	return s.newMock(owner)
}

func (s *Session) newMock(owner string) *Mock {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.mu.Unlock()
	return &Mock{s: s, owner: owner, instance: &stub.Instance{Type: owner, ID: id}}
}

// Owner returns the declaring type name.
func (m *Mock) Owner() string { return m.owner }

// Instance returns the identity the engine sees as receiver.
func (m *Mock) Instance() any { return m.instance }

// As returns the same instance declared as owner, typically a
// supertype or interface, for calls dispatched through it.
func (m *Mock) As(owner string) *Mock {
	return &Mock{s: m.s, owner: owner, instance: m.instance}
}

// Implement sets the real implementation of method, used by partial
// mocks and by expectations that forward to the real code.
func (m *Mock) Implement(method string, fn RealFunc) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.real == nil {
		m.real = make(map[string]RealFunc)
	}
	m.real[method] = fn
	return m
}

func (m *Mock) realFor(method string) RealFunc {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.real[method]
}

// Call reports a call of method on this instance. method is the name
// and signature, e.g. "Get(string) (string, error)"; a trailing
// "...T" parameter makes the call variadic.
func (m *Mock) Call(method string, args ...any) Outcome {
	return m.call(engine.Call{
		Instance: m.instance,
		Method:   method,
		Mode:     taxonomy.ModeInstance,
		Args:     args,
	})
}

// Static reports a call of a package-level function declared by the
// mocked type's package.
func (m *Mock) Static(method string, args ...any) Outcome {
	return m.call(engine.Call{
		Access: invocation.AccessStatic,
		Method: method,
		Mode:   taxonomy.ModeStatic,
		Args:   args,
	})
}

// Construct reports a constructor call and returns the new instance.
// An instance constructed during replay stands in for the instance
// constructed by the matching recorded call.
func (m *Mock) Construct(ctor string, args ...any) (*Mock, Outcome) {
	created := m.s.newMock(m.owner)
	out := m.call(engine.Call{
		Instance: created.instance,
		Method:   ctor,
		Mode:     taxonomy.ModeConstructor,
		Args:     args,
	})
	return created, out
}

func (m *Mock) call(c engine.Call) Outcome {
	c.Owner = m.owner
	c.Thread = goroutineID()
	c.Real = m.realFor(c.Method)

	v, err := m.s.exec.RecordOrReplay(c)
	if err != nil {
		return Outcome{Err: err}
	}
	if v != engine.Proceed {
		return Outcome{Value: v}
	}
	if c.Real == nil {
		return Outcome{Proceed: true}
	}
	v, err = c.Real(c.Instance, c.Args)
	return Outcome{Value: v, Err: err, Proceed: true}
}

// Outcome is the result of a mocked call.
type Outcome struct {
	// Value is the mocked or real result; nil is a valid mocked value.
	Value any

	// Err is a recorded error for the code under test, or a *Error
	// when the call violated the expectations.
	Err error

	// Proceed is set when the real implementation ran, or must run
	// because the mock has none.
	Proceed bool
}

// Violation returns the mocking failure carried by the outcome, if
// any.
func (o Outcome) Violation() *Error {
	var e *taxonomy.Error
	if errors.As(o.Err, &e) {
		return e
	}
	return nil
}
