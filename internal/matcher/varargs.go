package matcher

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrVarargsLength is matched (via errors.Is) by every
// VarargsLengthError.
var ErrVarargsLength = errors.New("different vararg array lengths")

// NotVariadic is passed as the fixed-parameter count for methods
// without a variable-arity last parameter.
const NotVariadic = -1

// ArgumentCountError reports a different number of fixed arguments.
type ArgumentCountError struct {
	Expected, Actual int
}

func (e *ArgumentCountError) Error() string {
	return fmt.Sprintf("expected %d argument(s), got %d", e.Expected, e.Actual)
}

// VarargsLengthError reports variable-arity tails of different length.
// It is distinct from a per-position mismatch.
type VarargsLengthError struct {
	Expected, Actual int
}

func (e *VarargsLengthError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrVarargsLength, e.Expected, e.Actual)
}

// Is reports ErrVarargsLength.
func (e *VarargsLengthError) Is(target error) bool { return target == ErrVarargsLength }

// ArgumentMismatchError reports the first argument rejected by its
// matcher.
type ArgumentMismatchError struct {
	Index   int
	Matcher Matcher
	Actual  any
}

func (e *ArgumentMismatchError) Error() string {
	return fmt.Sprintf("parameter %d: %s", e.Index+1, Mismatch(e.Matcher, e.Actual))
}

// Spread normalizes the arguments of a call. For variadic methods
// (fixed >= 0), a single slice or array in the variadic slot is
// expanded so that f(1, []int{2, 3}) and f(1, 2, 3) produce the same
// list. Non-variadic argument lists are returned unchanged.
func Spread(args []any, fixed int) []any {
	if fixed < 0 || len(args) != fixed+1 {
		return args
	}
	last := args[fixed]
	if last == nil {
		return args
	}
	rv := reflect.ValueOf(last)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return args
	}
	out := make([]any, 0, fixed+rv.Len())
	out = append(out, args[:fixed]...)
	for i := 0; i < rv.Len(); i++ {
		out = append(out, rv.Index(i).Interface())
	}
	return out
}

// MatchArguments checks already-spread actual arguments against the
// per-position matchers ms. Leading fixed parameters are compared
// first; for variadic methods the tails must then have the same length
// before being compared element by element.
func MatchArguments(ms []Matcher, actual []any, fixed int) error {
	if fixed < 0 {
		if len(ms) != len(actual) {
			return &ArgumentCountError{Expected: len(ms), Actual: len(actual)}
		}
		return matchRange(ms, actual, 0, len(ms))
	}

	if len(ms) < fixed || len(actual) < fixed {
		return &ArgumentCountError{Expected: fixed, Actual: min(len(ms), len(actual))}
	}
	if err := matchRange(ms, actual, 0, fixed); err != nil {
		return err
	}
	if len(ms) != len(actual) {
		return &VarargsLengthError{Expected: len(ms) - fixed, Actual: len(actual) - fixed}
	}
	return matchRange(ms, actual, fixed, len(ms))
}

func matchRange(ms []Matcher, actual []any, from, to int) error {
	for i := from; i < to; i++ {
		if !ms[i].Matches(actual[i]) {
			return &ArgumentMismatchError{Index: i, Matcher: ms[i], Actual: actual[i]}
		}
	}
	return nil
}

// ForValues builds equality matchers for recorded argument values.
func ForValues(values []any, eq Equivalence) []Matcher {
	ms := make([]Matcher, len(values))
	for i, v := range values {
		ms[i] = Equal(v, eq)
	}
	return ms
}

// DescribeAll renders a matcher list as a comma separated argument
// description.
func DescribeAll(ms []Matcher) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = Describe(m)
	}
	return strings.Join(parts, ", ")
}

// DescribeValues renders argument values as a comma separated list.
func DescribeValues(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = DescribeValue(v)
	}
	return strings.Join(parts, ", ")
}
