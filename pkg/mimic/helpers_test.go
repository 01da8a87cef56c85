package mimic

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
)

// fakeTB records failures instead of failing the enclosing test so
// that tests can assert on mocking failures reported at cleanup.
type fakeTB struct {
	testing.TB

	name string

	mu       sync.Mutex
	errors   []string
	logs     []string
	cleanups []func()
	failed   bool
}

type fatalPanic struct{ msg string }

func newFakeTB(name string) *fakeTB { return &fakeTB{name: name} }

func (f *fakeTB) Helper()      {}
func (f *fakeTB) Name() string { return f.name }

func (f *fakeTB) Failed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failed
}

func (f *fakeTB) Errorf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors = append(f.errors, fmt.Sprintf(format, args...))
	f.failed = true
}

func (f *fakeTB) Fatalf(format string, args ...any) {
	f.Errorf(format, args...)
	panic(fatalPanic{fmt.Sprintf(format, args...)})
}

func (f *fakeTB) Logf(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, fmt.Sprintf(format, args...))
}

func (f *fakeTB) Cleanup(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups = append(f.cleanups, fn)
}

// finish runs the registered cleanups, last first, as testing does.
func (f *fakeTB) finish() {
	for i := len(f.cleanups) - 1; i >= 0; i-- {
		f.cleanups[i]()
	}
	f.cleanups = nil
}

func (f *fakeTB) errorText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.errors, "\n")
}

// expectFatal runs fn and reports whether it called Fatalf.
func expectFatal(fn func()) (msg string, fatal bool) {
	defer func() {
		if r := recover(); r != nil {
			p, ok := r.(fatalPanic)
			if !ok {
				panic(r)
			}
			msg, fatal = p.msg, true
		}
	}()
	fn()
	return "", false
}

// newSession starts a session on a fake TB, isolated from any
// .mimic.yaml and with logging discarded.
func newSession(t *testing.T, opts ...Option) (*Session, *fakeTB) {
	t.Helper()
	tb := newFakeTB(t.Name())
	base := []Option{WithDir(t.TempDir()), WithLogger(log.New(io.Discard)), WithReportDir("")}
	s := New(tb, append(base, opts...)...)
	return s, tb
}
