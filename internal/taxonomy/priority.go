package taxonomy

import "sort"

// Severity ranks failure kinds when several are detected in one test.
// Higher values are reported first.
type Severity int

// SeverityOf returns the reporting severity of a failure kind.
func SeverityOf(k Kind) Severity {
	s, ok := severityMap[k]
	if !ok {
		return 0
	}
	return s
}

var severityMap = map[Kind]Severity{
	ConfigurationError:        4,
	UnexpectedInvocationOrder: 3,
	UnexpectedInvocation:      2,
	MissingInvocation:         1,
}

// Chain selects a single primary error out of errs and links the rest
// behind it as causes, in descending severity and then detection order.
// Nil and repeated entries are ignored; Chain returns nil when nothing
// remains.
func Chain(errs ...*Error) *Error {
	var live []*Error
	seen := make(map[*Error]bool, len(errs))
	for _, e := range errs {
		if e == nil || seen[e] {
			continue
		}
		seen[e] = true
		live = append(live, e)
	}
	if len(live) == 0 {
		return nil
	}

	sort.SliceStable(live, func(i, j int) bool {
		return SeverityOf(live[i].Kind) > SeverityOf(live[j].Kind)
	})

	reached := make(map[*Error]bool)
	tail := walk(live[0], reached)
	for _, e := range live[1:] {
		if reached[e] {
			continue
		}
		if tail.Cause != nil {
			// The chain loops back on itself; nothing can be appended.
			break
		}
		tail.Cause = e
		tail = walk(e, reached)
	}
	return live[0]
}

// walk marks every error reachable from e through Cause and returns
// the last one.
func walk(e *Error, reached map[*Error]bool) *Error {
	for {
		reached[e] = true
		if e.Cause == nil || reached[e.Cause] {
			return e
		}
		e = e.Cause
	}
}
