package mimic

import (
	"io"

	"github.com/unbound-force/mimic/internal/matcher"
)

// Matcher decides whether an argument is acceptable.
type Matcher = matcher.Matcher

// Any accepts every value, nil included.
func Any() Matcher { return matcher.Anything() }

// NotNil accepts every non-nil value.
func NotNil() Matcher { return matcher.NotNil() }

// Nil accepts nil values, typed nil pointers included.
func Nil() Matcher { return matcher.Nil() }

// Equal accepts values equal to v.
func Equal(v any) Matcher { return matcher.Equal(v, nil) }

// HasPrefix accepts text starting with s.
func HasPrefix(s string) Matcher { return matcher.HasPrefix(s) }

// HasSuffix accepts text ending with s.
func HasSuffix(s string) Matcher { return matcher.HasSuffix(s) }

// Contains accepts text containing s.
func Contains(s string) Matcher { return matcher.Contains(s) }

// Pattern accepts text fully matching the regular expression expr. An
// invalid expression fails the test when the matcher is attached.
func Pattern(expr string) Matcher {
	m, err := matcher.Pattern(expr)
	if err != nil {
		return invalidMatcher{err: err}
	}
	return m
}

type invalidMatcher struct{ err error }

var _ Matcher = invalidMatcher{}

func (invalidMatcher) Matches(any) bool { return false }

func (m invalidMatcher) DescribeTo(w io.Writer) { io.WriteString(w, m.err.Error()) }

func (m invalidMatcher) DescribeMismatch(w io.Writer, _ any) { m.DescribeTo(w) }
