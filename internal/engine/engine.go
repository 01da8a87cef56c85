// Package engine implements the per-test record/replay/verify
// execution: the phase machine, the replay algorithm that matches
// intercepted calls against recorded expectations, and ordered,
// unordered and full verification against the replay history.
//
// An Execution is created when a test starts and rolled back when it
// ends. Interception layers report every call to a mocked member
// through RecordOrReplay; test-runner integrations drive the phases
// with the Begin/End block methods.
package engine

import (
	"io"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/unbound-force/mimic/internal/expectation"
	"github.com/unbound-force/mimic/internal/invocation"
	"github.com/unbound-force/mimic/internal/stub"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// ThreadID identifies the thread (goroutine) making a call.
type ThreadID uint64

// RealFunc runs the real implementation of an intercepted member on
// receiver.
type RealFunc func(receiver any, args []any) (any, error)

// DelegateFunc computes a mocked result from the intercepted call.
type DelegateFunc = expectation.DelegateFunc

// Call is one intercepted call as reported by the interception layer.
type Call struct {
	// Instance is the receiver; nil for static functions.
	Instance any

	Access           invocation.Access
	Owner            string
	Method           string
	GenericSignature string
	Exceptions       []string
	Mode             taxonomy.Mode
	Args             []any

	// Thread identifies the caller for per-thread strict ordering.
	Thread ThreadID

	// Real is the real implementation, used when the matched
	// expectation forwards to it. Without it, forwarding returns
	// Proceed and the interception layer runs the real code itself.
	Real RealFunc
}

func (c Call) descriptor() *invocation.Descriptor {
	d := invocation.New(c.Instance, c.Access, c.Owner, c.Method, c.Mode, c.Args)
	d.GenericSignature = c.GenericSignature
	d.Exceptions = c.Exceptions
	return d
}

type sentinel struct{ name string }

func (s *sentinel) String() string { return s.name }

// Proceed is returned by RecordOrReplay when the caller must run the
// real implementation. It is distinct from every mocked value,
// including nil.
var Proceed any = &sentinel{"proceed with real implementation"}

// MockOptions declares how unmatched calls on a mocked type behave.
type MockOptions struct {
	// Lenient types return nil for calls without a matching
	// expectation instead of failing.
	Lenient bool

	// Cascading types produce further mocks from methods whose
	// return type the stub factory knows.
	Cascading bool

	// Partial types run the real implementation for calls without a
	// matching expectation.
	Partial bool
}

// Options configures an Execution.
type Options struct {
	// Logger receives phase transitions (debug) and violations (warn).
	// Nil discards.
	Logger *log.Logger

	// Stubs produces cascaded mocks. Nil disables cascading.
	Stubs *stub.Factory

	// Hierarchy relates declaring types. Nil only relates identical
	// names.
	Hierarchy invocation.Hierarchy

	// Defaults apply to owners never declared with Mock.
	Defaults MockOptions
}

type threadState struct {
	cursor int
}

type cascadeKey struct {
	instance any
	member   string
}

type recordingState struct {
	block *expectation.RecordingBlock
}

// Execution is the engine state of one test.
type Execution struct {
	id        string
	logger    *log.Logger
	stubs     *stub.Factory
	hierarchy invocation.Hierarchy
	defaults  MockOptions

	// zone is the no-mocking zone: replay bookkeeping holds it for
	// reading, a verification block holds it for writing.
	zone      sync.RWMutex
	verifying atomic.Bool
	verifier  atomic.Uint64

	mu           sync.Mutex
	phases       *phases
	registry     *expectation.Registry
	history      expectation.History
	instances    *invocation.Instances
	types        map[string]MockOptions
	cascaded     map[cascadeKey]any
	threads      map[ThreadID]*threadState
	recording    *recordingState
	verification *verificationBlock
	blocks       []*expectation.RecordingBlock
	pending      []*taxonomy.Error
	failures     []*taxonomy.Error

	// reportedMissing holds expectations already reported missing as
	// the cause of a pending ordering error.
	reportedMissing map[*expectation.Expectation]bool
	result       *taxonomy.Error
	zoneHeld     bool
}

// New creates an execution in the replaying phase.
func New(opts Options) (*Execution, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	hierarchy := opts.Hierarchy
	if hierarchy == nil {
		hierarchy = invocation.FlatHierarchy{}
	}
	e := &Execution{
		id:        uuid.NewString(),
		logger:    logger,
		stubs:     opts.Stubs,
		hierarchy: hierarchy,
		defaults:  opts.Defaults,
		registry:  expectation.NewRegistry(),
		instances: invocation.NewInstances(),
		types:     make(map[string]MockOptions),
		cascaded:  make(map[cascadeKey]any),
		threads:   make(map[ThreadID]*threadState),

		reportedMissing: make(map[*expectation.Expectation]bool),
	}
	p, err := startPhases(e.id, logger)
	if err != nil {
		return nil, err
	}
	e.phases = p
	return e, nil
}

// ID returns the execution's unique identifier.
func (e *Execution) ID() string { return e.id }

// Phase returns the active phase.
func (e *Execution) Phase() taxonomy.Phase {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.phases.Current()
}

// Instances returns the instance-equivalence map.
func (e *Execution) Instances() *invocation.Instances { return e.instances }

// Mock declares owner as a mocked type.
func (e *Execution) Mock(owner string, opts MockOptions) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.types[typeName(owner)] = opts
}

func (e *Execution) optionsFor(owner string) MockOptions {
	if opts, ok := e.types[typeName(owner)]; ok {
		return opts
	}
	return e.defaults
}

func (e *Execution) context() invocation.Context {
	return invocation.Context{Instances: e.instances, Hierarchy: e.hierarchy}
}

func (e *Execution) thread(id ThreadID) *threadState {
	ts, ok := e.threads[id]
	if !ok {
		ts = &threadState{}
		e.threads[id] = ts
	}
	return ts
}

// RecordOrReplay is the single entry point for intercepted calls. The
// result is Proceed when the caller must run the real implementation,
// otherwise the mocked value (nil included) or an error: either a
// recorded error for the code under test or a *taxonomy.Error.
func (e *Execution) RecordOrReplay(c Call) (any, error) {
	bypass := e.isVerifier(c.Thread)
	if !bypass {
		e.zone.RLock()
	}
	act, err := e.dispatch(c)
	if !bypass {
		e.zone.RUnlock()
	}
	if err != nil {
		return nil, err
	}
	return act.run()
}

func (e *Execution) isVerifier(t ThreadID) bool {
	return e.verifying.Load() && ThreadID(e.verifier.Load()) == t
}

func (e *Execution) dispatch(c Call) (action, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.phases.Current() {
	case taxonomy.Recording:
		return e.record(c)
	case taxonomy.VerifyingUnordered, taxonomy.VerifyingOrdered:
		return e.verify(c)
	case taxonomy.Finished:
		return action{proceed: true}, nil
	default:
		return e.replay(c)
	}
}

// addPending keeps a replay violation for FinishTestExecution.
func (e *Execution) addPending(err *taxonomy.Error) {
	e.pending = append(e.pending, err)
	e.logger.Warn("mocking violation", "execution", e.id, "kind", string(err.Kind), "invocation", firstLine(err.Invocation))
}

// FinishTestExecution ends replay, checks every expectation for
// missing invocations, and returns at most one error with the rest
// chained behind it. testErr is the test body's own failure, if any;
// expected marks it as anticipated by the test. An unexpected testErr
// stays primary and the mocking failure is attached as suppressed.
func (e *Execution) FinishTestExecution(testErr error, expected bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.phases.Current() == taxonomy.Finished {
		return outcome(testErr, expected, e.result)
	}

	errs := append([]*taxonomy.Error(nil), e.pending...)
	errs = append(errs, e.endExecution()...)
	e.result = taxonomy.Chain(errs...)
	if err := e.phases.Fire(eventFinish); err != nil {
		return err
	}
	if e.result != nil {
		e.logger.Warn("test finished with mocking failures", "execution", e.id, "kind", string(e.result.Kind))
	}
	return outcome(testErr, expected, e.result)
}

func outcome(testErr error, expected bool, mockErr *taxonomy.Error) error {
	switch {
	case mockErr == nil && (testErr == nil || expected):
		return nil
	case mockErr == nil:
		return testErr
	case testErr == nil || expected:
		return mockErr
	default:
		return &taxonomy.TestFailure{Err: testErr, Suppressed: mockErr}
	}
}

// endExecution reports every expectation still below its minimum,
// except those an ordering error already reported.
func (e *Execution) endExecution() []*taxonomy.Error {
	var errs []*taxonomy.Error
	for _, x := range e.registry.All() {
		if x.Constraints.IsBelowMinimum() && !e.reportedMissing[x] {
			errs = append(errs, x.Constraints.ErrorForMissingInvocation(x.String()))
		}
	}
	return errs
}

// Rollback discards every expectation, the replay history, instance
// links and pending errors, and returns the execution to the replaying
// phase. It is safe to call more than once.
func (e *Execution) Rollback() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry.Reset()
	e.history.Reset()
	e.instances.Reset()
	clear(e.types)
	clear(e.cascaded)
	clear(e.threads)
	clear(e.reportedMissing)
	e.recording = nil
	e.verification = nil
	e.blocks = nil
	e.pending = nil
	e.failures = nil
	e.result = nil

	if e.zoneHeld {
		e.zoneHeld = false
		e.verifying.Store(false)
		e.zone.Unlock()
	}

	if e.phases.Current() != taxonomy.Replaying {
		e.phases.Stop()
		if p, err := startPhases(e.id, e.logger); err == nil {
			e.phases = p
		}
	}
}

func hashable(v any) bool {
	return v != nil && reflect.TypeOf(v).Comparable()
}

// typeName drops a pointer marker from a declared or returned type.
func typeName(t string) string {
	return strings.TrimPrefix(strings.TrimSpace(t), "*")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
