package matcher

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/unbound-force/mimic/internal/taxonomy"
)

// textOf extracts the character sequence from string-like values.
func textOf(value any) (string, bool) {
	if IsNil(value) {
		return "", false
	}
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case []rune:
		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// PatternMatcher accepts text that fully matches a regular expression.
type PatternMatcher struct {
	expr string
	re   *regexp.Regexp
}

// Pattern compiles expr once. An invalid expression is a configuration
// error, returned eagerly rather than deferred to matching time.
func Pattern(expr string) (*PatternMatcher, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, taxonomy.Errorf(taxonomy.ConfigurationError, "",
			"invalid regular expression %q", expr).WithReason(err)
	}
	return &PatternMatcher{expr: expr, re: re}, nil
}

// Matches implements Matcher.
func (m *PatternMatcher) Matches(value any) bool {
	s, ok := textOf(value)
	return ok && m.re.MatchString(s)
}

// DescribeTo implements Matcher.
func (m *PatternMatcher) DescribeTo(w io.Writer) {
	fmt.Fprintf(w, "a string matching %s", strconv.Quote(m.expr))
}

// DescribeMismatch implements Matcher.
func (m *PatternMatcher) DescribeMismatch(w io.Writer, value any) { describeMismatch(w, m, value) }

// textKind selects the substring relation checked by a TextMatcher.
type textKind int

const (
	prefixText textKind = iota
	suffixText
	containsText
)

// TextMatcher accepts text with a given prefix, suffix, or substring.
type TextMatcher struct {
	kind textKind
	text string
}

// HasPrefix returns a matcher for text starting with s.
func HasPrefix(s string) *TextMatcher { return &TextMatcher{kind: prefixText, text: s} }

// HasSuffix returns a matcher for text ending with s.
func HasSuffix(s string) *TextMatcher { return &TextMatcher{kind: suffixText, text: s} }

// Contains returns a matcher for text containing s.
func Contains(s string) *TextMatcher { return &TextMatcher{kind: containsText, text: s} }

// Matches implements Matcher.
func (m *TextMatcher) Matches(value any) bool {
	s, ok := textOf(value)
	if !ok {
		return false
	}
	switch m.kind {
	case prefixText:
		return strings.HasPrefix(s, m.text)
	case suffixText:
		return strings.HasSuffix(s, m.text)
	default:
		return strings.Contains(s, m.text)
	}
}

// DescribeTo implements Matcher.
func (m *TextMatcher) DescribeTo(w io.Writer) {
	switch m.kind {
	case prefixText:
		io.WriteString(w, "a string starting with ")
	case suffixText:
		io.WriteString(w, "a string ending with ")
	default:
		io.WriteString(w, "a string containing ")
	}
	io.WriteString(w, strconv.Quote(m.text))
}

// DescribeMismatch implements Matcher.
func (m *TextMatcher) DescribeMismatch(w io.Writer, value any) { describeMismatch(w, m, value) }
