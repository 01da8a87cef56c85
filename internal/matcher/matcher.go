// Package matcher implements the argument matchers used to decide
// whether a runtime argument satisfies a recorded expectation slot.
//
// Matchers are pure predicates over already-captured values. The
// equality matcher consults an Equivalence so that cascaded or
// captured mock instances compare equal to the instance they stand in
// for.
package matcher

import (
	"fmt"
	"io"
	"strings"
)

// Matcher decides whether a single argument value is acceptable.
type Matcher interface {
	// Matches reports whether value satisfies the matcher.
	Matches(value any) bool

	// DescribeTo writes a description of the accepted values.
	DescribeTo(w io.Writer)

	// DescribeMismatch writes why value was rejected.
	DescribeMismatch(w io.Writer, value any)
}

// Equivalence relates mock instances that must be treated as the same
// logical identity.
type Equivalence interface {
	Equivalent(a, b any) bool
}

// Describe returns the description of m as a string.
func Describe(m Matcher) string {
	var sb strings.Builder
	m.DescribeTo(&sb)
	return sb.String()
}

// Mismatch returns the mismatch description of value against m.
func Mismatch(m Matcher, value any) string {
	var sb strings.Builder
	m.DescribeMismatch(&sb, value)
	return sb.String()
}

// describeMismatch is the shared "expected X, got Y" rendering.
func describeMismatch(w io.Writer, m Matcher, value any) {
	io.WriteString(w, "expected ")
	m.DescribeTo(w)
	fmt.Fprintf(w, ", got %s", DescribeValue(value))
}

// Equality accepts values equal to Expected under value semantics:
// element-wise for slices and arrays, == for comparable values, deep
// equality for the rest, with Equivalence consulted first.
type Equality struct {
	Expected any
	eq       Equivalence
}

// Equal returns an equality matcher for v. eq may be nil.
func Equal(v any, eq Equivalence) *Equality {
	return &Equality{Expected: v, eq: eq}
}

// Bind returns ms with every equality matcher built without an
// Equivalence replaced by one consulting eq. Other matchers are kept.
func Bind(ms []Matcher, eq Equivalence) []Matcher {
	out := make([]Matcher, len(ms))
	for i, m := range ms {
		if e, ok := m.(*Equality); ok && e.eq == nil {
			m = Equal(e.Expected, eq)
		}
		out[i] = m
	}
	return out
}

// Matches implements Matcher.
func (m *Equality) Matches(value any) bool { return Equals(m.Expected, value, m.eq) }

// DescribeTo implements Matcher.
func (m *Equality) DescribeTo(w io.Writer) { io.WriteString(w, DescribeValue(m.Expected)) }

// DescribeMismatch implements Matcher.
func (m *Equality) DescribeMismatch(w io.Writer, value any) { describeMismatch(w, m, value) }

// AlwaysTrue accepts any value.
type AlwaysTrue struct{}

// Anything returns the "any" matcher.
func Anything() AlwaysTrue { return AlwaysTrue{} }

// Matches implements Matcher.
func (AlwaysTrue) Matches(any) bool { return true }

// DescribeTo implements Matcher.
func (AlwaysTrue) DescribeTo(w io.Writer) { io.WriteString(w, "any value") }

// DescribeMismatch implements Matcher.
func (m AlwaysTrue) DescribeMismatch(w io.Writer, value any) { describeMismatch(w, m, value) }

// NonNullity accepts any value that is not nil.
type NonNullity struct{}

// NotNil returns the non-nil matcher.
func NotNil() NonNullity { return NonNullity{} }

// Matches implements Matcher.
func (NonNullity) Matches(value any) bool { return !IsNil(value) }

// DescribeTo implements Matcher.
func (NonNullity) DescribeTo(w io.Writer) { io.WriteString(w, "not nil") }

// DescribeMismatch implements Matcher.
func (m NonNullity) DescribeMismatch(w io.Writer, value any) { describeMismatch(w, m, value) }

// Nullity accepts nil, including typed nil pointers, slices and maps.
type Nullity struct{}

// Nil returns the nil matcher.
func Nil() Nullity { return Nullity{} }

// Matches implements Matcher.
func (Nullity) Matches(value any) bool { return IsNil(value) }

// DescribeTo implements Matcher.
func (Nullity) DescribeTo(w io.Writer) { io.WriteString(w, "nil") }

// DescribeMismatch implements Matcher.
func (m Nullity) DescribeMismatch(w io.Writer, value any) { describeMismatch(w, m, value) }
