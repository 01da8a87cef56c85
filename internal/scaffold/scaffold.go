// Package scaffold embeds the default mimic settings and writes them
// to a target project directory.
package scaffold

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

//go:embed assets/*
var assets embed.FS

// targets maps embedded asset paths to their location in the project.
var targets = map[string]string{
	"mimic.yaml":        ".mimic.yaml",
	"reports/README.md": filepath.Join("mimic-reports", "README.md"),
}

// Options configures the scaffold operation.
type Options struct {
	// TargetDir is the root directory to scaffold into.
	// Defaults to the current working directory.
	TargetDir string

	// Force overwrites existing files when true.
	// When false, existing files are skipped.
	Force bool

	// Version is the mimic version string to embed in the
	// version marker comment. Set by ldflags at build time.
	// Defaults to "dev" for development builds.
	Version string

	// Stdout is the writer for summary output.
	// Defaults to os.Stdout.
	Stdout io.Writer
}

// Result reports what the scaffold operation did.
type Result struct {
	// Created lists files that were written for the first time.
	Created []string

	// Skipped lists files that already existed and were not
	// overwritten (Force was false).
	Skipped []string

	// Overwritten lists files that existed and were replaced
	// (Force was true).
	Overwritten []string
}

// versionMarker returns the version marker comment for a file of the
// given extension.
func versionMarker(version, ext string) string {
	if version == "" {
		version = "dev"
	}
	if ext == ".md" {
		return fmt.Sprintf("<!-- scaffolded by mimic %s -->\n", version)
	}
	return fmt.Sprintf("# scaffolded by mimic %s\n", version)
}

// Run writes .mimic.yaml and the report directory README into the
// target directory, each prepended with a version marker comment.
//
// If a file already exists and opts.Force is false, the file is
// skipped. If opts.Force is true, the file is overwritten.
func Run(opts Options) (*Result, error) {
	if opts.TargetDir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting working directory: %w", err)
		}
		opts.TargetDir = cwd
	}
	if opts.Version == "" {
		opts.Version = "dev"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}

	// Check for go.mod and warn if absent.
	goModPath := filepath.Join(opts.TargetDir, "go.mod")
	if _, err := os.Stat(goModPath); os.IsNotExist(err) {
		fmt.Fprintln(opts.Stdout, "Warning: no go.mod found in current directory.")
		fmt.Fprintln(opts.Stdout, "mimic looks up .mimic.yaml from package directories; a module root is the usual place.")
		fmt.Fprintln(opts.Stdout)
	}

	result := &Result{}

	err := fs.WalkDir(assets, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		relPath, ok := targets[strings.TrimPrefix(path, "assets/")]
		if !ok {
			return fmt.Errorf("embedded asset %s has no target", path)
		}
		outPath := filepath.Join(opts.TargetDir, relPath)

		_, statErr := os.Stat(outPath)
		exists := statErr == nil

		if exists && !opts.Force {
			result.Skipped = append(result.Skipped, relPath)
			return nil
		}

		content, err := assets.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading embedded asset %s: %w", path, err)
		}

		dir := filepath.Dir(outPath)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}

		out := append([]byte(versionMarker(opts.Version, filepath.Ext(relPath))), content...)
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return fmt.Errorf("creating %s: %w", relPath, err)
		}

		if exists {
			result.Overwritten = append(result.Overwritten, relPath)
		} else {
			result.Created = append(result.Created, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	printSummary(opts.Stdout, result)

	return result, nil
}

// printSummary writes a human-readable summary of the scaffold
// operation to w.
func printSummary(w io.Writer, r *Result) {
	fmt.Fprintln(w, "mimic initialized:")

	for _, f := range r.Created {
		fmt.Fprintf(w, "  created: %s\n", f)
	}
	for _, f := range r.Skipped {
		fmt.Fprintf(w, "  skipped: %s (already exists)\n", f)
	}
	for _, f := range r.Overwritten {
		fmt.Fprintf(w, "  overwritten: %s\n", f)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run go test to write execution reports, then mimic inspect to read them.")

	if len(r.Skipped) > 0 {
		fmt.Fprintf(w, "%d file(s) skipped (use --force to overwrite).\n", len(r.Skipped))
	}
}

// AssetPaths returns the project-relative paths Run writes.
func AssetPaths() ([]string, error) {
	var paths []string
	err := fs.WalkDir(assets, "assets", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		paths = append(paths, targets[strings.TrimPrefix(path, "assets/")])
		return nil
	})
	return paths, err
}

// AssetContent returns the raw content of an embedded asset by its
// embedded path (e.g., "mimic.yaml").
func AssetContent(relPath string) ([]byte, error) {
	return assets.ReadFile("assets/" + relPath)
}
