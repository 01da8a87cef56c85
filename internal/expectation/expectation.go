// Package expectation holds recorded expectations, their invocation
// constraints and result policies, the per-test registry that orders
// them, and the replay history consulted during verification.
package expectation

import (
	"github.com/unbound-force/mimic/internal/invocation"
)

// RecordingBlock groups the expectations declared by one recording
// block.
type RecordingBlock struct {
	// Ordinal is the declaration order of the block within the test.
	Ordinal int

	// Strict marks every expectation of the block order-sensitive.
	Strict bool

	// Iterations is how many times the block's calls are expected to
	// repeat; always >= 1.
	Iterations int

	Expectations []*Expectation
}

// Expectation is one recorded behavior.
type Expectation struct {
	// Index is the declaration order across the whole test.
	Index int

	Expected    *invocation.Expected
	Results     Results
	Constraints Constraints
	Block       *RecordingBlock
	Strict      bool
}

// New creates an expectation with the default constraints for its
// strictness and appends it to block (which may be nil).
func New(expected *invocation.Expected, block *RecordingBlock, strict bool) *Expectation {
	e := &Expectation{
		Expected:    expected,
		Constraints: DefaultConstraints(strict),
		Block:       block,
		Strict:      strict,
	}
	if block != nil {
		block.Expectations = append(block.Expectations, e)
	}
	return e
}

// Matches reports whether call satisfies the recorded invocation.
func (e *Expectation) Matches(call *invocation.Descriptor, ctx invocation.Context) bool {
	return e.Expected.Match(call, ctx) == nil
}

func (e *Expectation) String() string {
	return e.Expected.String()
}
