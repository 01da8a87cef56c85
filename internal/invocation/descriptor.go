// Package invocation models the identity of an intercepted call and the
// rules for matching a recorded call against an observed one.
package invocation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/unbound-force/mimic/internal/matcher"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

// Access holds member access flags reported by the interception layer.
type Access uint32

// Access flags.
const (
	AccessStatic Access = 1 << iota
	AccessFinal
	AccessVarargs
)

// Mismatch reasons returned by Expected.Match.
var (
	ErrMethodMismatch   = errors.New("different method")
	ErrOwnerMismatch    = errors.New("unrelated declaring type")
	ErrInstanceMismatch = errors.New("different mock instance")
)

// Descriptor is the immutable identity of a call: the receiver (nil for
// static functions and constructors in record phase), the declaring type,
// the method name and signature, and the argument values. Args are
// stored spread: a variadic slice argument is expanded in place.
type Descriptor struct {
	Instance         any
	Access           Access
	Owner            string
	Method           string
	GenericSignature string
	Exceptions       []string
	Mode             taxonomy.Mode
	Args             []any

	sig Signature
}

// New builds a descriptor, parsing the method signature and spreading
// variadic arguments.
func New(instance any, access Access, owner, method string, mode taxonomy.Mode, args []any) *Descriptor {
	d := &Descriptor{
		Instance: instance,
		Access:   access,
		Owner:    owner,
		Method:   method,
		Mode:     mode,
		sig:      ParseSignature(method),
	}
	d.Args = matcher.Spread(args, d.Fixed())
	return d
}

// Signature returns the parsed method signature.
func (d *Descriptor) Signature() Signature { return d.sig }

// Fixed returns the number of fixed leading parameters for variadic
// methods, or matcher.NotVariadic.
func (d *Descriptor) Fixed() int {
	if d.sig.Variadic {
		return d.sig.Fixed()
	}
	if d.Access&AccessVarargs != 0 && len(d.sig.Params) > 0 {
		return len(d.sig.Params) - 1
	}
	return matcher.NotVariadic
}

// IsStatic reports whether the call has no receiver identity to match.
func (d *Descriptor) IsStatic() bool {
	return d.Access&AccessStatic != 0 || d.Mode == taxonomy.ModeStatic
}

// Key identifies the member independent of receiver and arguments.
func (d *Descriptor) Key() string { return d.Owner + "#" + d.Method }

// String renders the member and its arguments for diagnostics.
func (d *Descriptor) String() string {
	var sb strings.Builder
	sb.WriteString(d.Key())
	if len(d.Args) > 0 {
		fmt.Fprintf(&sb, "\n   with arguments: %s", matcher.DescribeValues(d.Args))
	}
	return sb.String()
}

// Context carries the per-test collaborators needed for matching.
type Context struct {
	Instances *Instances
	Hierarchy Hierarchy
}

// Expected is a recorded call: a descriptor plus one matcher per
// (spread) argument position.
type Expected struct {
	*Descriptor
	Matchers []matcher.Matcher
}

// NewExpected wraps d with equality matchers for its recorded arguments.
func NewExpected(d *Descriptor, eq matcher.Equivalence) *Expected {
	return &Expected{Descriptor: d, Matchers: matcher.ForValues(d.Args, eq)}
}

// SetMatchers replaces the argument matchers. The list must cover every
// spread argument position; nil entries keep the equality matcher.
func (e *Expected) SetMatchers(ms []matcher.Matcher) error {
	if len(ms) != len(e.Matchers) {
		return taxonomy.Errorf(taxonomy.ConfigurationError, e.Key(),
			"invalid use of argument matchers: %d matcher(s) for %d argument(s)",
			len(ms), len(e.Matchers))
	}
	for i, m := range ms {
		if m != nil {
			e.Matchers[i] = m
		}
	}
	return nil
}

// Match returns nil when call satisfies the expectation, otherwise the
// reason it does not.
func (e *Expected) Match(call *Descriptor, ctx Context) error {
	if err := e.MatchMember(call, ctx); err != nil {
		return err
	}
	return matcher.MatchArguments(e.Matchers, call.Args, e.Fixed())
}

// MatchMember checks method, declaring type and receiver, but not the
// arguments.
func (e *Expected) MatchMember(call *Descriptor, ctx Context) error {
	if e.Method != call.Method {
		return ErrMethodMismatch
	}
	if e.Owner != call.Owner {
		h := ctx.Hierarchy
		if h == nil {
			h = FlatHierarchy{}
		}
		if !h.IsSubtype(call.Owner, e.Owner) && !h.IsSubtype(e.Owner, call.Owner) {
			return ErrOwnerMismatch
		}
	}
	if e.Mode == taxonomy.ModeConstructor || e.IsStatic() || e.Instance == nil {
		return nil
	}
	if !ctx.Instances.Equivalent(e.Instance, call.Instance) {
		return ErrInstanceMismatch
	}
	return nil
}

// String renders the member with its argument matchers.
func (e *Expected) String() string {
	var sb strings.Builder
	sb.WriteString(e.Key())
	if len(e.Matchers) > 0 {
		fmt.Fprintf(&sb, "\n   with arguments: %s", matcher.DescribeAll(e.Matchers))
	}
	return sb.String()
}
