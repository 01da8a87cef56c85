package invocation

import (
	"reflect"
	"sync"
)

// Instances is the per-test instance-equivalence map. It relates a
// captured or cascaded instance to the origin instance it stands in
// for; the relation is consulted symmetrically.
type Instances struct {
	mu    sync.RWMutex
	links map[any]any
}

// NewInstances returns an empty equivalence map.
func NewInstances() *Instances {
	return &Instances{links: make(map[any]any)}
}

// Link records that captured stands in for origin. Values of
// non-comparable types cannot be linked and are ignored.
func (m *Instances) Link(captured, origin any) {
	if !hashable(captured) || !hashable(origin) || same(captured, origin) {
		return
	}
	m.mu.Lock()
	m.links[captured] = origin
	m.mu.Unlock()
}

// Equivalent reports whether a and b are the same instance or one is
// linked to the other.
func (m *Instances) Equivalent(a, b any) bool {
	if same(a, b) {
		return true
	}
	if m == nil || !hashable(a) || !hashable(b) {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.links[a]; ok && same(o, b) {
		return true
	}
	if o, ok := m.links[b]; ok && same(o, a) {
		return true
	}
	return false
}

// Origin returns the instance x stands in for, or x itself.
func (m *Instances) Origin(x any) any {
	if m == nil || !hashable(x) {
		return x
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.links[x]; ok {
		return o
	}
	return x
}

// Len returns the number of recorded links.
func (m *Instances) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

// Reset drops every link.
func (m *Instances) Reset() {
	m.mu.Lock()
	m.links = make(map[any]any)
	m.mu.Unlock()
}

func hashable(v any) bool {
	return v != nil && reflect.TypeOf(v).Comparable()
}

// same compares identities without panicking on non-comparable values.
func same(a, b any) bool {
	if a == nil || b == nil {
		return false
	}
	if !hashable(a) || !hashable(b) {
		return false
	}
	return a == b
}
