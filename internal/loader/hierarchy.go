package loader

import (
	"go/types"
	"sort"

	"golang.org/x/tools/go/packages"

	"github.com/unbound-force/mimic/internal/invocation"
)

// TypeName renders a named type the way mocked owners are declared:
// package name, a dot, and the type name.
func TypeName(obj *types.TypeName) string {
	if obj.Pkg() == nil {
		return obj.Name()
	}
	return obj.Pkg().Name() + "." + obj.Name()
}

// BuildHierarchy relates every named type declared in pkgs to the
// types it embeds and to the non-empty interfaces of pkgs it
// implements, directly or through its pointer.
func BuildHierarchy(pkgs []*packages.Package) invocation.StaticHierarchy {
	var named []*types.TypeName
	for _, pkg := range pkgs {
		if pkg.Types == nil {
			continue
		}
		scope := pkg.Types.Scope()
		for _, name := range scope.Names() {
			if tn, ok := scope.Lookup(name).(*types.TypeName); ok && !tn.IsAlias() {
				named = append(named, tn)
			}
		}
	}

	var ifaces []*types.TypeName
	for _, tn := range named {
		if it, ok := tn.Type().Underlying().(*types.Interface); ok && it.NumMethods() > 0 {
			ifaces = append(ifaces, tn)
		}
	}

	h := make(invocation.StaticHierarchy)
	for _, tn := range named {
		supers := map[string]bool{}
		for _, emb := range embedded(tn.Type()) {
			supers[TypeName(emb)] = true
		}
		for _, it := range ifaces {
			if it == tn {
				continue
			}
			iface := it.Type().Underlying().(*types.Interface)
			if implements(tn.Type(), iface) {
				supers[TypeName(it)] = true
			}
		}
		if len(supers) == 0 {
			continue
		}
		list := make([]string, 0, len(supers))
		for s := range supers {
			list = append(list, s)
		}
		sort.Strings(list)
		h[TypeName(tn)] = list
	}
	return h
}

func implements(t types.Type, iface *types.Interface) bool {
	if types.Implements(t, iface) {
		return true
	}
	if _, isIface := t.Underlying().(*types.Interface); isIface {
		return false
	}
	return types.Implements(types.NewPointer(t), iface)
}

// embedded returns the named types embedded in a struct or interface.
func embedded(t types.Type) []*types.TypeName {
	var out []*types.TypeName
	switch u := t.Underlying().(type) {
	case *types.Struct:
		for i := 0; i < u.NumFields(); i++ {
			f := u.Field(i)
			if !f.Embedded() {
				continue
			}
			ft := f.Type()
			if p, ok := ft.(*types.Pointer); ok {
				ft = p.Elem()
			}
			if n, ok := ft.(*types.Named); ok {
				out = append(out, n.Obj())
			}
		}
	case *types.Interface:
		for i := 0; i < u.NumEmbeddeds(); i++ {
			if n, ok := u.EmbeddedType(i).(*types.Named); ok {
				out = append(out, n.Obj())
			}
		}
	}
	return out
}
