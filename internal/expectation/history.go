package expectation

import "github.com/unbound-force/mimic/internal/invocation"

// Entry is one call observed while replaying.
type Entry struct {
	// Position is the zero-based replay order.
	Position int

	Call *invocation.Descriptor

	// Expectation is the recorded expectation the call matched, or nil.
	Expectation *Expectation

	// Thread identifies the calling thread.
	Thread uint64
}

// History is the ordered log of replayed calls.
type History struct {
	entries []Entry
}

// Append logs a call and returns its position.
func (h *History) Append(call *invocation.Descriptor, exp *Expectation, thread uint64) int {
	pos := len(h.entries)
	h.entries = append(h.entries, Entry{
		Position:    pos,
		Call:        call,
		Expectation: exp,
		Thread:      thread,
	})
	return pos
}

// Entries returns the logged calls in replay order.
func (h *History) Entries() []Entry { return h.entries }

// Len returns the number of logged calls.
func (h *History) Len() int { return len(h.entries) }

// Reset clears the log.
func (h *History) Reset() { h.entries = nil }
