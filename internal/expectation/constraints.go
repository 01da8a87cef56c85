package expectation

import (
	"fmt"

	"github.com/unbound-force/mimic/internal/taxonomy"
)

// Unbounded is the Max value of constraints without an upper limit.
const Unbounded = -1

// Constraints bounds how many times an expectation may be invoked and
// counts the invocations observed so far. Count only grows until the
// owning execution is rolled back.
type Constraints struct {
	Min   int
	Max   int
	Count int

	explicit bool
}

// DefaultConstraints returns exactly-once for strict expectations and
// zero-or-more for non-strict ones.
func DefaultConstraints(strict bool) Constraints {
	if strict {
		return Constraints{Min: 1, Max: 1}
	}
	return Constraints{Min: 0, Max: Unbounded}
}

// RecordMinMax sets both limits explicitly.
func (c *Constraints) RecordMinMax(min, max int) {
	c.Min, c.Max = min, max
	c.explicit = true
}

// SetTimes requires exactly n invocations.
func (c *Constraints) SetTimes(n int) { c.RecordMinMax(n, n) }

// SetMinTimes sets the lower limit. An upper limit that was only a
// default, or that now falls below the minimum, is lifted.
func (c *Constraints) SetMinTimes(n int) {
	max := c.Max
	if !c.explicit || (max != Unbounded && max < n) {
		max = Unbounded
	}
	c.RecordMinMax(n, max)
}

// SetMaxTimes sets the upper limit, lowering the minimum if needed.
func (c *Constraints) SetMaxTimes(n int) {
	min := c.Min
	if n != Unbounded && min > n {
		min = n
	}
	c.RecordMinMax(min, n)
}

// Multiply scales both limits for a block repeated n times.
func (c *Constraints) Multiply(n int) {
	if n <= 1 {
		return
	}
	c.Min *= n
	if c.Max != Unbounded {
		c.Max *= n
	}
}

// Explicit reports whether the limits were set by the test rather
// than defaulted.
func (c *Constraints) Explicit() bool { return c.explicit }

// IncrementCount records one invocation and reports whether the
// maximum has now been reached.
func (c *Constraints) IncrementCount() bool {
	c.Count++
	return c.Max != Unbounded && c.Count >= c.Max
}

// Exhausted reports whether no further invocation is allowed.
func (c *Constraints) Exhausted() bool {
	return c.Max != Unbounded && c.Count >= c.Max
}

// IsBelowMinimum reports whether more invocations are still required.
func (c *Constraints) IsBelowMinimum() bool { return c.Count < c.Min }

// IsAboveMaximum reports whether the count has passed the maximum.
func (c *Constraints) IsAboveMaximum() bool {
	return c.Max != Unbounded && c.Count > c.Max
}

// String describes the limits, e.g. "exactly 2 times".
func (c Constraints) String() string {
	switch {
	case c.Max == Unbounded && c.Min == 0:
		return "any number of times"
	case c.Max == Unbounded:
		return fmt.Sprintf("at least %s", times(c.Min))
	case c.Min == c.Max:
		return fmt.Sprintf("exactly %s", times(c.Min))
	case c.Min == 0:
		return fmt.Sprintf("at most %s", times(c.Max))
	default:
		return fmt.Sprintf("between %d and %d times", c.Min, c.Max)
	}
}

// ErrorForMissingInvocation reports an expectation invoked fewer than
// Min times.
func (c Constraints) ErrorForMissingInvocation(invocation string) *taxonomy.Error {
	missing := c.Min - c.Count
	return taxonomy.Errorf(taxonomy.MissingInvocation, invocation,
		"Missing %s to:", plural(missing, "invocation")).
		WithDetail("expected %s, got %s", c, times(c.Count))
}

// ErrorForUnexpectedInvocation reports an invocation beyond Max.
func (c Constraints) ErrorForUnexpectedInvocation(invocation string) *taxonomy.Error {
	return taxonomy.Errorf(taxonomy.UnexpectedInvocation, invocation,
		"Unexpected invocation to:").
		WithDetail("expected %s, got %s", c, times(c.Count))
}

func times(n int) string {
	if n == 1 {
		return "1 time"
	}
	return fmt.Sprintf("%d times", n)
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
