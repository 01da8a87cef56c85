package invocation

import "strings"

// Signature is the parsed form of a method name and signature such as
// "Find(ctx context.Context, keys ...string) ([]Item, error)".
type Signature struct {
	Name     string
	Params   []string
	Results  []string
	Variadic bool
}

// ParseSignature splits a method signature into its name, parameter
// types, and result types. Parameter names are kept as written; a
// trailing "...T" parameter marks the method variadic. A bare name
// with no parameter list parses as a method with no parameters.
func ParseSignature(method string) Signature {
	method = strings.TrimSpace(method)
	open := strings.IndexByte(method, '(')
	if open < 0 {
		return Signature{Name: method}
	}
	sig := Signature{Name: strings.TrimSpace(method[:open])}

	end := matchingParen(method, open)
	if end < 0 {
		sig.Params = splitTopLevel(method[open+1:])
		return sig
	}
	sig.Params = splitTopLevel(method[open+1 : end])

	rest := strings.TrimSpace(method[end+1:])
	if strings.HasPrefix(rest, "(") {
		if e := matchingParen(rest, 0); e > 0 {
			rest = rest[1:e]
		}
		sig.Results = splitTopLevel(rest)
	} else if rest != "" {
		sig.Results = []string{rest}
	}

	if n := len(sig.Params); n > 0 {
		sig.Variadic = strings.HasPrefix(typeOf(sig.Params[n-1]), "...")
	}
	return sig
}

// Fixed returns the number of leading non-variadic parameters, or -1
// when the method is not variadic.
func (s Signature) Fixed() int {
	if !s.Variadic {
		return -1
	}
	return len(s.Params) - 1
}

// ResultTypes returns the result types with any names removed.
func (s Signature) ResultTypes() []string {
	out := make([]string, len(s.Results))
	for i, r := range s.Results {
		out[i] = typeOf(r)
	}
	return out
}

// ReturnType is the first non-error result type, or "" for methods
// returning nothing but (optionally) an error.
func (s Signature) ReturnType() string {
	for _, r := range s.ResultTypes() {
		if r != "error" {
			return r
		}
	}
	return ""
}

// typeOf strips a leading parameter name: "keys ...string" -> "...string".
func typeOf(param string) string {
	param = strings.TrimSpace(param)
	i := strings.IndexByte(param, ' ')
	if i <= 0 || strings.ContainsAny(param[:i], "*[](.") || typeKeywords[param[:i]] {
		return param
	}
	return strings.TrimSpace(param[i+1:])
}

var typeKeywords = map[string]bool{
	"chan": true, "<-chan": true, "func": true, "map": true, "struct": true, "interface": true,
}

func matchingParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitTopLevel splits on commas that are not nested in brackets.
func splitTopLevel(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	var parts []string
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(parts, strings.TrimSpace(s[start:]))
}
