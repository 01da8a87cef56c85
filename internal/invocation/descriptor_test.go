package invocation

import (
	"errors"
	"testing"

	"github.com/unbound-force/mimic/internal/matcher"
	"github.com/unbound-force/mimic/internal/taxonomy"
)

func TestNew_SpreadsVarargs(t *testing.T) {
	d := New(nil, 0, "calc.Calc", "Sum(first int, rest ...int) int", taxonomy.ModeStatic, []any{1, []int{2, 3}})
	if len(d.Args) != 3 {
		t.Fatalf("len(Args) = %d, want 3", len(d.Args))
	}
	if d.Fixed() != 1 {
		t.Errorf("Fixed() = %d, want 1", d.Fixed())
	}
	if !d.IsStatic() {
		t.Error("expected static mode to be static")
	}
}

func TestNew_VarargsFromAccessFlag(t *testing.T) {
	d := New(nil, AccessVarargs, "fmt", "Sprintf(string, []any)", taxonomy.ModeStatic, []any{"%d %d", []any{1, 2}})
	if d.Fixed() != 1 || len(d.Args) != 3 {
		t.Errorf("Fixed() = %d, len(Args) = %d, want 1 and 3", d.Fixed(), len(d.Args))
	}
}

func TestExpected_Match(t *testing.T) {
	inst := &widget{"x"}
	other := &widget{"y"}
	ctx := Context{Instances: NewInstances()}
	exp := NewExpected(New(inst, 0, "store.Store", "Get(string) string", taxonomy.ModeInstance, []any{"k"}), ctx.Instances)

	tests := []struct {
		name string
		call *Descriptor
		want error
	}{
		{"same call", New(inst, 0, "store.Store", "Get(string) string", taxonomy.ModeInstance, []any{"k"}), nil},
		{"other method", New(inst, 0, "store.Store", "Put(string) string", taxonomy.ModeInstance, []any{"k"}), ErrMethodMismatch},
		{"other owner", New(inst, 0, "cache.Cache", "Get(string) string", taxonomy.ModeInstance, []any{"k"}), ErrOwnerMismatch},
		{"other instance", New(other, 0, "store.Store", "Get(string) string", taxonomy.ModeInstance, []any{"k"}), ErrInstanceMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := exp.Match(tt.call, ctx); !errors.Is(err, tt.want) && !(err == nil && tt.want == nil) {
				t.Errorf("Match = %v, want %v", err, tt.want)
			}
		})
	}

	var mismatch *matcher.ArgumentMismatchError
	call := New(inst, 0, "store.Store", "Get(string) string", taxonomy.ModeInstance, []any{"z"})
	if err := exp.Match(call, ctx); !errors.As(err, &mismatch) {
		t.Errorf("Match = %v, want an argument mismatch", err)
	}
}

func TestExpected_MatchThroughLinkedInstance(t *testing.T) {
	origin, captured := &widget{"o"}, &widget{"c"}
	ctx := Context{Instances: NewInstances()}
	ctx.Instances.Link(captured, origin)

	exp := NewExpected(New(origin, 0, "w.W", "Name() string", taxonomy.ModeInstance, nil), ctx.Instances)
	if err := exp.Match(New(captured, 0, "w.W", "Name() string", taxonomy.ModeInstance, nil), ctx); err != nil {
		t.Errorf("Match = %v, want nil for a linked instance", err)
	}
}

func TestExpected_MatchSubtypeOwner(t *testing.T) {
	ctx := Context{Hierarchy: StaticHierarchy{"store.Cached": {"store.Store"}}}
	exp := NewExpected(New(nil, 0, "store.Store", "Len() int", taxonomy.ModeInstance, nil), nil)
	if err := exp.Match(New(&widget{}, 0, "store.Cached", "Len() int", taxonomy.ModeInstance, nil), ctx); err != nil {
		t.Errorf("Match = %v, want nil for a subtype owner", err)
	}
}

func TestExpected_SetMatchers(t *testing.T) {
	exp := NewExpected(New(nil, 0, "s.S", "Put(k string, v int)", taxonomy.ModeStatic, []any{"k", 1}), nil)

	if err := exp.SetMatchers([]matcher.Matcher{matcher.HasPrefix("user:"), nil}); err != nil {
		t.Fatalf("SetMatchers: %v", err)
	}
	call := New(nil, 0, "s.S", "Put(k string, v int)", taxonomy.ModeStatic, []any{"user:42", 1})
	if err := exp.Match(call, Context{}); err != nil {
		t.Errorf("Match = %v, want nil", err)
	}
	call = New(nil, 0, "s.S", "Put(k string, v int)", taxonomy.ModeStatic, []any{"user:42", 2})
	if err := exp.Match(call, Context{}); err == nil {
		t.Error("nil matcher entries should keep equality on the recorded value")
	}

	err := exp.SetMatchers([]matcher.Matcher{matcher.Anything()})
	if !errors.Is(err, taxonomy.ErrConfiguration) {
		t.Errorf("SetMatchers with wrong length = %v, want ConfigurationError", err)
	}
}

func TestExpected_VarargsLengthDiagnostic(t *testing.T) {
	exp := NewExpected(New(nil, 0, "c.C", "Sum(...int) int", taxonomy.ModeStatic, []any{[]int{1, 2}}), nil)
	err := exp.Match(New(nil, 0, "c.C", "Sum(...int) int", taxonomy.ModeStatic, []any{1, 2, 3}), Context{})
	if !errors.Is(err, matcher.ErrVarargsLength) {
		t.Errorf("Match = %v, want ErrVarargsLength", err)
	}
}
