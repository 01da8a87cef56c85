// Package taxonomy defines the shared vocabulary of the mocking engine:
// execution phases, call modes, the error kinds produced when recorded
// expectations and observed calls disagree, and the error values that
// carry those diagnostics to test code.
package taxonomy

import (
	"fmt"
	"strings"
)

// Kind enumerates the categories of mocking failures.
type Kind string

// Failure kinds.
const (
	// MissingInvocation: an expectation was invoked fewer times than
	// its minimum by the end of replay or verification.
	MissingInvocation Kind = "MissingInvocation"

	// UnexpectedInvocation: a call matched no expectation, exceeded a
	// matched expectation's maximum, or (full verification) was left
	// unaccounted for.
	UnexpectedInvocation Kind = "UnexpectedInvocation"

	// UnexpectedInvocationOrder: a call matched an expectation other
	// than the one required by position.
	UnexpectedInvocationOrder Kind = "UnexpectedInvocationOrder"

	// ConfigurationError: malformed recording, such as an invalid
	// regular expression or a matcher list of the wrong length.
	ConfigurationError Kind = "ConfigurationError"
)

// Phase is one of the execution states of a test.
type Phase string

// Execution phases.
const (
	Recording          Phase = "recording"
	Replaying          Phase = "replaying"
	VerifyingUnordered Phase = "verifying_unordered"
	VerifyingOrdered   Phase = "verifying_ordered"
	Finished           Phase = "finished"
)

// IsVerifying reports whether p is one of the verification phases.
func (p Phase) IsVerifying() bool {
	return p == VerifyingUnordered || p == VerifyingOrdered
}

// Mode distinguishes the kind of intercepted member.
type Mode int

// Call modes.
const (
	ModeInstance Mode = iota
	ModeStatic
	ModeConstructor
	// ModePartial marks a call on a dynamically partial mock: calls
	// without a matching expectation run the real implementation.
	ModePartial
)

func (m Mode) String() string {
	switch m {
	case ModeInstance:
		return "instance"
	case ModeStatic:
		return "static"
	case ModeConstructor:
		return "constructor"
	case ModePartial:
		return "partial"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Error is a mocking failure. The zero-message values exported below
// act as per-kind sentinels for errors.Is.
type Error struct {
	// Kind is the failure category.
	Kind Kind

	// Message is the headline, e.g. "Missing 1 invocation to:".
	Message string

	// Invocation describes the expectation or call the failure is
	// about (owner#method plus arguments).
	Invocation string

	// Details holds extra diagnostic lines: mismatch descriptions,
	// the expected-next call for ordering failures, and so on.
	Details []string

	// Reason is the underlying mismatch, such as a varargs length
	// difference, when one was identified.
	Reason error

	// Cause chains secondary failures behind this one.
	Cause *Error
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrMissingInvocation         = &Error{Kind: MissingInvocation}
	ErrUnexpectedInvocation      = &Error{Kind: UnexpectedInvocation}
	ErrUnexpectedInvocationOrder = &Error{Kind: UnexpectedInvocationOrder}
	ErrConfiguration             = &Error{Kind: ConfigurationError}
)

// Errorf builds an Error of the given kind.
func Errorf(kind Kind, invocation string, format string, args ...any) *Error {
	return &Error{
		Kind:       kind,
		Message:    fmt.Sprintf(format, args...),
		Invocation: invocation,
	}
}

// WithDetail appends a diagnostic line and returns e.
func (e *Error) WithDetail(format string, args ...any) *Error {
	e.Details = append(e.Details, fmt.Sprintf(format, args...))
	return e
}

// WithReason records the underlying mismatch and returns e.
func (e *Error) WithReason(reason error) *Error {
	e.Reason = reason
	return e
}

// WithCause sets the cause and returns e.
func (e *Error) WithCause(cause *Error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Message == "" {
		sb.WriteString(string(e.Kind))
	} else {
		sb.WriteString(e.Message)
	}
	if e.Invocation != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Invocation)
	}
	for _, d := range e.Details {
		sb.WriteString("\n   ")
		sb.WriteString(d)
	}
	if e.Cause != nil {
		sb.WriteString("\nCaused by: ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

// Unwrap returns the mismatch reason and the chained cause.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Reason != nil {
		errs = append(errs, e.Reason)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// Is matches sentinels (errors without a message) by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Message == "" && t.Invocation == "" {
		return t.Kind == e.Kind
	}
	return t == e
}

// TestFailure is reported when the test body failed on its own and a
// mocking failure was also detected. The test body's error is primary;
// the mocking failure is kept as a suppressed cause.
type TestFailure struct {
	Err        error
	Suppressed error
}

func (f *TestFailure) Error() string {
	if f.Suppressed == nil {
		return f.Err.Error()
	}
	return f.Err.Error() + "\nSuppressed: " + f.Suppressed.Error()
}

// Unwrap exposes both errors to errors.Is and errors.As.
func (f *TestFailure) Unwrap() []error {
	if f.Suppressed == nil {
		return []error{f.Err}
	}
	return []error{f.Err, f.Suppressed}
}
