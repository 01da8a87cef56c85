package invocation

// Hierarchy answers subtype questions about declaring types so that an
// expectation recorded on a base type can match a call dispatched
// through an overriding subtype.
type Hierarchy interface {
	IsSubtype(sub, super string) bool
}

// FlatHierarchy knows no relations: only identical names match.
type FlatHierarchy struct{}

// IsSubtype implements Hierarchy.
func (FlatHierarchy) IsSubtype(sub, super string) bool { return sub == super }

// StaticHierarchy maps a type name to its direct supertypes. Lookups
// are transitive.
type StaticHierarchy map[string][]string

// IsSubtype implements Hierarchy.
func (h StaticHierarchy) IsSubtype(sub, super string) bool {
	if sub == super {
		return true
	}
	seen := map[string]bool{sub: true}
	queue := []string{sub}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		for _, s := range h[t] {
			if s == super {
				return true
			}
			if !seen[s] {
				seen[s] = true
				queue = append(queue, s)
			}
		}
	}
	return false
}
