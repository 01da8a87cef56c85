// Package stub produces mock instances for types the engine must
// fabricate on its own, chiefly the return values of cascading
// methods. Go cannot synthesize new types at run time, so every
// producible type is declared up front as one of three variants.
package stub

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Kind selects how a registered type is produced.
type Kind int

// Stub variants.
const (
	// RecordStub produces an opaque *Instance identity. Calls on it
	// are routed through the engine by the test code that owns it.
	RecordStub Kind = iota
	// InterfaceStub produces a value from a test-supplied constructor,
	// typically a hand-written or generated struct implementing the
	// mocked interface.
	InterfaceStub
	// Callback delegates production to arbitrary test code.
	Callback
)

func (k Kind) String() string {
	switch k {
	case RecordStub:
		return "record"
	case InterfaceStub:
		return "interface"
	case Callback:
		return "callback"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Registration errors.
var (
	ErrInvalidVariant = errors.New("invalid stub variant")
	ErrVariantExists  = errors.New("stub variant already registered")
	ErrUnknownType    = errors.New("no stub variant registered for type")
)

// Instance is the value produced by a RecordStub.
type Instance struct {
	Type string
	ID   int
}

func (i *Instance) String() string { return fmt.Sprintf("%s@%d", i.Type, i.ID) }

// Variant declares how to produce values of one type.
type Variant struct {
	Kind Kind
	Type string

	// Construct is required for InterfaceStub.
	Construct func() any

	// Produce is required for Callback.
	Produce func(typeName string) (any, error)
}

func (v Variant) validate() error {
	if v.Type == "" {
		return fmt.Errorf("%w: empty type name", ErrInvalidVariant)
	}
	switch v.Kind {
	case RecordStub:
	case InterfaceStub:
		if v.Construct == nil {
			return fmt.Errorf("%w: %s: interface stub without constructor", ErrInvalidVariant, v.Type)
		}
	case Callback:
		if v.Produce == nil {
			return fmt.Errorf("%w: %s: callback stub without function", ErrInvalidVariant, v.Type)
		}
	default:
		return fmt.Errorf("%w: %s: %s", ErrInvalidVariant, v.Type, v.Kind)
	}
	return nil
}

// Factory is a closed registry of stub variants keyed by type name.
// It is safe for concurrent use.
type Factory struct {
	mu       sync.RWMutex
	variants map[string]Variant
	next     int
}

// NewFactory returns an empty factory.
func NewFactory() *Factory {
	return &Factory{variants: make(map[string]Variant)}
}

// Register adds a variant. Registering a type twice is an error.
func (f *Factory) Register(v Variant) error {
	if err := v.validate(); err != nil {
		return err
	}
	name := normalize(v.Type)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.variants[name]; exists {
		return fmt.Errorf("%w: %s", ErrVariantExists, name)
	}
	v.Type = name
	f.variants[name] = v
	return nil
}

// Knows reports whether typeName can be produced.
func (f *Factory) Knows(typeName string) bool {
	if f == nil || typeName == "" {
		return false
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.variants[normalize(typeName)]
	return ok
}

// New produces a fresh value of typeName.
func (f *Factory) New(typeName string) (any, error) {
	name := normalize(typeName)

	f.mu.Lock()
	v, ok := f.variants[name]
	if !ok {
		f.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}
	f.next++
	id := f.next
	f.mu.Unlock()

	switch v.Kind {
	case InterfaceStub:
		return v.Construct(), nil
	case Callback:
		out, err := v.Produce(name)
		if err != nil {
			return nil, fmt.Errorf("producing %s: %w", name, err)
		}
		return out, nil
	default:
		return &Instance{Type: name, ID: id}, nil
	}
}

// Types lists the registered type names in sorted order.
func (f *Factory) Types() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.variants))
	for name := range f.variants {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// normalize drops a leading pointer marker so that "*store.Item" and
// "store.Item" name the same variant.
func normalize(typeName string) string {
	return strings.TrimPrefix(strings.TrimSpace(typeName), "*")
}
