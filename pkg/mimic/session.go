// Package mimic is the test-facing API of the mimic record/replay/verify
// engine. A Session owns one engine execution for the lifetime of a
// test: expectations are recorded in blocks, the code under test calls
// mocks through Mock.Call, and verification blocks check the calls
// afterwards. At test end the session reports missing and unexpected
// invocations through the test, writes an execution report when
// configured, and discards all mocking state.
//
//	s := mimic.New(t)
//	store := s.Mock("store.Store")
//	s.Expectations(func(r *mimic.Recorder) {
//		store.Call("Get(string) string", "k")
//		r.Result("v").Times(1)
//	})
//	got := store.Call("Get(string) string", "k").Value
package mimic

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/mimic/internal/config"
	"github.com/unbound-force/mimic/internal/engine"
	"github.com/unbound-force/mimic/internal/invocation"
	"github.com/unbound-force/mimic/internal/loader"
	"github.com/unbound-force/mimic/internal/report"
	"github.com/unbound-force/mimic/internal/stub"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// Error is a mocking failure reported by the engine.
type Error = taxonomy.Error

// Sentinels for errors.Is comparisons by failure kind.
var (
	ErrMissingInvocation         = taxonomy.ErrMissingInvocation
	ErrUnexpectedInvocation      = taxonomy.ErrUnexpectedInvocation
	ErrUnexpectedInvocationOrder = taxonomy.ErrUnexpectedInvocationOrder
	ErrConfiguration             = taxonomy.ErrConfiguration
)

// Hierarchy relates declaring types for subtype matching.
type Hierarchy = invocation.Hierarchy

// errTestFailed stands in for the test body's own failure, which
// testing.TB only exposes as a flag.
var errTestFailed = errors.New("test failed")

// Session is the mocking state of one test.
type Session struct {
	t      testing.TB
	exec   *engine.Execution
	cfg    *config.Config
	cfgDir string
	logger *log.Logger

	mu         sync.Mutex
	nextID     int
	finished   bool
	reportPath string
}

// New starts a session for t. Settings come from the nearest
// .mimic.yaml unless overridden by options. The session finishes and
// rolls back in t.Cleanup.
func New(t testing.TB, opts ...Option) *Session {
	t.Helper()

	o := options{dir: "."}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	cfg, cfgDir, err := o.loadConfig()
	if err != nil {
		t.Fatalf("mimic: %v", err)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "mimic",
			Level:  cfg.Level(),
		})
	}

	stubs := stub.NewFactory()
	for _, typ := range o.stubbed {
		if err := stubs.Register(stub.Variant{Kind: stub.RecordStub, Type: typ}); err != nil {
			t.Fatalf("mimic: %v", err)
		}
	}
	for _, v := range o.variants {
		if err := stubs.Register(v); err != nil {
			t.Fatalf("mimic: %v", err)
		}
	}

	hierarchy := o.hierarchy
	if len(o.packages) > 0 {
		res, err := loader.LoadDir(o.dir, o.packages...)
		if err != nil {
			t.Fatalf("mimic: %v", err)
		}
		hierarchy = loader.BuildHierarchy(res.Pkgs)
	}

	exec, err := engine.New(engine.Options{
		Logger:    logger,
		Stubs:     stubs,
		Hierarchy: hierarchy,
		Defaults: engine.MockOptions{
			Lenient:   cfg.Lenient(),
			Cascading: cfg.Mocking.Cascading,
		},
	})
	if err != nil {
		t.Fatalf("mimic: %v", err)
	}

	s := &Session{
		t:      t,
		exec:   exec,
		cfg:    cfg,
		cfgDir: cfgDir,
		logger: logger,
	}
	t.Cleanup(s.cleanup)
	logger.Debug("session started", "test", t.Name(), "execution", exec.ID())
	return s
}

// ID returns the execution ID, also used in report file names.
func (s *Session) ID() string { return s.exec.ID() }

// ReportPath returns the report written at cleanup, if any.
func (s *Session) ReportPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reportPath
}

// Finish ends replay now and returns the mocking failure, if any,
// without failing the test. Cleanup then only writes the report and
// rolls back.
func (s *Session) Finish() error {
	s.mu.Lock()
	s.finished = true
	s.mu.Unlock()
	return s.exec.FinishTestExecution(nil, false)
}

func (s *Session) cleanup() {
	s.mu.Lock()
	finished := s.finished
	s.finished = true
	s.mu.Unlock()

	if !finished {
		var testErr error
		if s.t.Failed() {
			testErr = errTestFailed
		}
		err := s.exec.FinishTestExecution(testErr, false)
		var tf *taxonomy.TestFailure
		switch {
		case errors.As(err, &tf):
			s.t.Errorf("mimic: %v", tf.Suppressed)
		case err != nil && err != errTestFailed:
			s.t.Errorf("mimic: %v", err)
		}
	}

	s.writeReport()
	s.exec.Rollback()
}

func (s *Session) writeReport() {
	if s.cfg.Report.Dir == "" {
		return
	}
	dir := s.cfg.Report.Dir
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.cfgDir, dir)
	}
	rep := report.Build(s.exec)
	rep.Test = s.t.Name()
	path, err := report.WriteFile(dir, s.cfg.Report.Format, rep)
	if err != nil {
		s.t.Logf("mimic: %v", err)
		return
	}
	s.mu.Lock()
	s.reportPath = path
	s.mu.Unlock()
	s.logger.Debug("report written", "test", s.t.Name(), "path", path)
}

// check fails the test on a malformed recording or verification.
func (s *Session) check(op string, err error) {
	if err != nil {
		s.t.Helper()
		s.t.Fatalf("mimic: %s: %v", op, err)
	}
}

// Expectations records non-strict expectations: they may be called in
// any order, any number of times unless a count is set.
func (s *Session) Expectations(fn func(r *Recorder)) {
	s.t.Helper()
	s.Record(false, 1, fn)
}

// StrictExpectations records strict expectations: each is expected
// exactly once unless a count is set, in recording order.
func (s *Session) StrictExpectations(fn func(r *Recorder)) {
	s.t.Helper()
	s.Record(true, 1, fn)
}

// Record runs fn as a recording block whose calls are expected
// iterations times.
func (s *Session) Record(strict bool, iterations int, fn func(r *Recorder)) {
	s.t.Helper()
	s.check("begin recording", s.exec.BeginRecordingBlock(strict, iterations))
	fn(&Recorder{s: s})
	s.check("end recording", s.exec.EndRecordingBlock())
}

// Verifications checks the replayed calls in any order.
func (s *Session) Verifications(fn func(v *Verifier)) bool {
	s.t.Helper()
	return s.Verify(false, false, 1, fn)
}

// VerificationsInOrder checks the replayed calls in statement order.
func (s *Session) VerificationsInOrder(fn func(v *Verifier)) bool {
	s.t.Helper()
	return s.Verify(true, false, 1, fn)
}

// FullVerifications also fails on replayed calls no statement covers.
func (s *Session) FullVerifications(fn func(v *Verifier)) bool {
	s.t.Helper()
	return s.Verify(false, true, 1, fn)
}

// FullVerificationsInOrder combines ordered and full verification.
func (s *Session) FullVerificationsInOrder(fn func(v *Verifier)) bool {
	s.t.Helper()
	return s.Verify(true, true, 1, fn)
}

// Verify runs fn as a verification block and reports its failure
// through the test. Other goroutines calling mocks wait until the
// block ends.
func (s *Session) Verify(ordered, full bool, iterations int, fn func(v *Verifier)) bool {
	s.t.Helper()
	full = full || s.cfg.Verification.Full
	s.check("begin verification", s.exec.BeginVerificationBlock(ordered, full, iterations, goroutineID()))
	fn(&Verifier{s: s})
	if err := s.exec.EndVerificationBlock(); err != nil {
		s.t.Errorf("mimic: %v", err)
		return false
	}
	return true
}

// MockOf returns the mock for a value produced by a cascading call, or
// nil when v is not a mock produced by this session.
func (s *Session) MockOf(v any) *Mock {
	inst, ok := v.(*stub.Instance)
	if !ok {
		return nil
	}
	return &Mock{s: s, owner: inst.Type, instance: inst}
}

func (s *Session) String() string {
	return fmt.Sprintf("mimic session %s (%s)", s.exec.ID(), s.t.Name())
}
