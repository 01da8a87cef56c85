package engine

import (
	"github.com/unbound-force/mimic/internal/expectation"
	"github.com/unbound-force/mimic/internal/invocation"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// statement is one verified call and its constraints.
type statement struct {
	expected    *invocation.Expected
	constraints expectation.Constraints
	allowReuse  bool
}

func newStatement(d *invocation.Descriptor, eq *invocation.Instances) *statement {
	return &statement{
		expected:    invocation.NewExpected(d, eq),
		constraints: expectation.Constraints{Min: 1, Max: expectation.Unbounded},
	}
}

type verificationBlock struct {
	ordered    bool
	full       bool
	iterations int

	statements []*statement
	current    *statement

	// lastPos is the history position of the last entry consumed by an
	// ordered statement.
	lastPos int

	// positions lists the history entries this block verified.
	positions []int

	err *taxonomy.Error
}

// BeginVerificationBlock enters the no-mocking zone and starts a block
// of verification statements. thread is the verifying thread; its
// calls are verification statements, while calls from other threads
// wait until EndVerificationBlock.
func (e *Execution) BeginVerificationBlock(ordered, full bool, iterations int, thread ThreadID) error {
	ev := eventBeginVerify
	if ordered {
		ev = eventBeginVerifyOrdered
	}

	// A block already holding the zone would deadlock the Lock below.
	e.mu.Lock()
	err := e.phases.Check(ev)
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.zone.Lock()

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.phases.Fire(ev); err != nil {
		e.zone.Unlock()
		return err
	}
	if iterations < 1 {
		iterations = 1
	}
	e.verification = &verificationBlock{
		ordered:    ordered,
		full:       full,
		iterations: iterations,
		lastPos:    -1,
	}
	e.zoneHeld = true
	e.verifier.Store(uint64(thread))
	e.verifying.Store(true)
	return nil
}

// EndVerificationBlock evaluates the last statement, re-runs the block
// for any further iterations, applies full verification, and leaves
// the no-mocking zone. It returns the first failure of the block.
func (e *Execution) EndVerificationBlock() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.phases.Fire(eventEndVerify); err != nil {
		return err
	}
	b := e.verification
	e.verification = nil

	e.finishStatement(b)
	if b.ordered {
		for i := 1; i < b.iterations && b.err == nil; i++ {
			for _, st := range b.statements {
				if b.err = e.evaluate(b, st); b.err != nil {
					break
				}
			}
		}
	}
	if b.err == nil && b.full {
		b.err = e.verifyFully(b)
	}

	if e.zoneHeld {
		e.zoneHeld = false
		e.verifying.Store(false)
		e.zone.Unlock()
	}

	if b.err == nil {
		return nil
	}
	e.failures = append(e.failures, b.err)
	e.logger.Warn("verification failed", "execution", e.id, "kind", string(b.err.Kind))
	return b.err
}

// AllowReuse lets the current statement match history entries already
// verified by earlier statements, without marking them.
func (e *Execution) AllowReuse() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	st, err := e.currentStatement("allowReuse")
	if err != nil {
		return err
	}
	st.allowReuse = true
	return nil
}

func (e *Execution) currentStatement(modifier string) (*statement, error) {
	if e.verification == nil {
		return nil, taxonomy.Errorf(taxonomy.ConfigurationError, "",
			"%s is only valid inside a verification block", modifier)
	}
	if e.verification.current == nil {
		return nil, taxonomy.Errorf(taxonomy.ConfigurationError, "",
			"missing invocation to mocked type before %s", modifier)
	}
	return e.verification.current, nil
}

// verify starts a new statement for c after evaluating the previous
// one, whose modifiers are now complete. A failure of the previous
// statement is returned to the verifying call.
func (e *Execution) verify(c Call) (action, error) {
	b := e.verification
	prev := b.err
	e.finishStatement(b)

	d := c.descriptor()
	st := newStatement(d, e.instances)
	b.statements = append(b.statements, st)
	b.current = st

	if b.err != nil && prev == nil {
		return action{}, b.err
	}
	return action{value: e.cascadedFor(d)}, nil
}

func (e *Execution) finishStatement(b *verificationBlock) {
	st := b.current
	b.current = nil
	if st == nil || b.err != nil {
		return
	}
	if !b.ordered {
		st.constraints.Multiply(b.iterations)
	}
	b.err = e.evaluate(b, st)
}

func (e *Execution) evaluate(b *verificationBlock, st *statement) *taxonomy.Error {
	if b.ordered {
		return e.evaluateOrdered(b, st)
	}
	return e.evaluateUnordered(b, st)
}

// evaluateUnordered counts every matching history entry not yet
// verified and checks the count against the statement's constraints.
func (e *Execution) evaluateUnordered(b *verificationBlock, st *statement) *taxonomy.Error {
	ctx := e.context()
	var matched []expectation.Entry
	for _, en := range e.history.Entries() {
		if !st.allowReuse && e.registry.IsVerified(en.Position) {
			continue
		}
		if st.expected.Match(en.Call, ctx) == nil {
			matched = append(matched, en)
		}
	}

	if err := e.checkCount(st, len(matched)); err != nil {
		return err
	}
	e.markVerified(b, st, matched)
	return nil
}

// evaluateOrdered consumes matching entries after the previous
// statement's position. Once the minimum is reached consumption stops
// at the first entry that does not match.
func (e *Execution) evaluateOrdered(b *verificationBlock, st *statement) *taxonomy.Error {
	ctx := e.context()
	c := st.constraints
	var matched []expectation.Entry
	entries := e.history.Entries()
	for i := b.lastPos + 1; i < len(entries); i++ {
		en := entries[i]
		if c.Max != expectation.Unbounded && len(matched) >= c.Max {
			break
		}
		if !st.allowReuse && e.registry.IsVerified(en.Position) {
			continue
		}
		if st.expected.Match(en.Call, ctx) == nil {
			matched = append(matched, en)
			continue
		}
		if len(matched) > 0 && len(matched) >= c.Min {
			break
		}
	}

	if len(matched) < c.Min {
		if earlier := e.earlierMatch(b, st); earlier >= 0 {
			return taxonomy.Errorf(taxonomy.UnexpectedInvocationOrder, st.expected.String(),
				"Unexpected invocation order:").
				WithDetail("invoked at position %d, before the previously verified invocation at position %d",
					earlier, b.lastPos)
		}
		return e.checkCount(st, len(matched))
	}
	if len(matched) > 0 {
		b.lastPos = matched[len(matched)-1].Position
	}
	e.markVerified(b, st, matched)
	return nil
}

// earlierMatch returns the position of an unverified entry matching st
// that precedes the block's ordered position, or -1.
func (e *Execution) earlierMatch(b *verificationBlock, st *statement) int {
	ctx := e.context()
	entries := e.history.Entries()
	for i := 0; i <= b.lastPos && i < len(entries); i++ {
		en := entries[i]
		if !st.allowReuse && e.registry.IsVerified(en.Position) {
			continue
		}
		if st.expected.Match(en.Call, ctx) == nil {
			return en.Position
		}
	}
	return -1
}

func (e *Execution) checkCount(st *statement, n int) *taxonomy.Error {
	c := st.constraints
	c.Count = n
	switch {
	case c.IsBelowMinimum():
		err := c.ErrorForMissingInvocation(st.expected.String())
		if x, reason := e.closestEntry(st); x != nil {
			err.WithDetail("closest invocation: %s", firstLine(x.Call.String())).
				WithDetail("mismatch: %v", reason).
				WithReason(reason)
		}
		return err
	case c.IsAboveMaximum():
		return c.ErrorForUnexpectedInvocation(st.expected.String())
	}
	return nil
}

// closestEntry finds a replayed call to the same member whose
// arguments were rejected.
func (e *Execution) closestEntry(st *statement) (*expectation.Entry, error) {
	ctx := e.context()
	entries := e.history.Entries()
	for i := range entries {
		if st.expected.MatchMember(entries[i].Call, ctx) != nil {
			continue
		}
		if err := st.expected.Match(entries[i].Call, ctx); err != nil {
			return &entries[i], err
		}
	}
	return nil, nil
}

func (e *Execution) markVerified(b *verificationBlock, st *statement, matched []expectation.Entry) {
	if st.allowReuse {
		return
	}
	for _, en := range matched {
		e.registry.MarkVerified(en.Expectation, en.Call.Args, en.Position)
		b.positions = append(b.positions, en.Position)
	}
}

// verifyFully reports every replayed call no statement accounted for.
// Calls to expectations recorded with explicit counts were already
// checked during replay and are exempt.
func (e *Execution) verifyFully(b *verificationBlock) *taxonomy.Error {
	first, last := -1, -1
	for _, p := range b.positions {
		if first < 0 || p < first {
			first = p
		}
		if p > last {
			last = p
		}
	}

	var errs []*taxonomy.Error
	for _, en := range e.history.Entries() {
		if e.registry.IsVerified(en.Position) {
			continue
		}
		if en.Expectation != nil && en.Expectation.Constraints.Explicit() {
			continue
		}
		msg := "Unexpected invocation to:"
		if b.ordered && en.Position > first && en.Position < last {
			msg = "Unexpected invocation found between verified ones:"
		}
		errs = append(errs, taxonomy.Errorf(taxonomy.UnexpectedInvocation, en.Call.String(), "%s", msg))
	}
	return taxonomy.Chain(errs...)
}

// cascadedFor returns the mock already cascaded for d, so chained
// verification statements reach the same instance used in replay.
func (e *Execution) cascadedFor(d *invocation.Descriptor) any {
	key := cascadeKey{member: d.Key()}
	if origin := e.instances.Origin(d.Instance); hashable(origin) {
		key.instance = origin
	}
	return e.cascaded[key]
}
