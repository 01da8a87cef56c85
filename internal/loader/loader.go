// Package loader wraps go/packages to load Go packages with full type
// information and derives the subtype relations the engine uses to
// match calls dispatched through embedding or interface types.
package loader

import (
	"fmt"
	"go/token"
	"strings"

	"golang.org/x/tools/go/packages"
)

// LoadMode is the minimum set of flags needed for type relations.
const LoadMode = packages.NeedName |
	packages.NeedFiles |
	packages.NeedImports |
	packages.NeedDeps |
	packages.NeedTypes |
	packages.NeedTypesInfo

// Result holds the loaded packages along with convenience accessors.
type Result struct {
	// Pkgs are the loaded packages, in pattern order.
	Pkgs []*packages.Package

	// Fset is the shared file set for position information.
	Fset *token.FileSet
}

// Load loads the Go packages matching patterns from the current
// directory.
func Load(patterns ...string) (*Result, error) {
	return LoadDir("", patterns...)
}

// LoadDir loads the Go packages matching patterns relative to dir. It
// returns an error if loading or type-checking fails for any package.
func LoadDir(dir string, patterns ...string) (*Result, error) {
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	cfg := &packages.Config{
		Mode:  LoadMode,
		Dir:   dir,
		Tests: false,
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages %q: %w", patterns, err)
	}

	if len(pkgs) == 0 {
		return nil, fmt.Errorf("no packages found for patterns %q", patterns)
	}

	// Check for package-level errors (syntax, type errors, etc.).
	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, e.Error())
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("packages %q have errors:\n  %s",
			patterns, strings.Join(errs, "\n  "))
	}

	return &Result{
		Pkgs: pkgs,
		Fset: pkgs[0].Fset,
	}, nil
}
