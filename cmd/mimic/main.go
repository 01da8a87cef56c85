package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/mimic/internal/loader"
	"github.com/unbound-force/mimic/internal/report"
	"github.com/unbound-force/mimic/internal/scaffold"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "mimic",
		Short: "mimic: record, replay and verify mocked calls in Go tests",
		Long: `mimic records expectations on mocked types, replays the calls made
by the code under test against them, and verifies the calls afterwards.
This tool inspects the execution reports tests write, derives type
hierarchies for subtype matching, and scaffolds settings.`,
		Version: version,
	}

	root.AddCommand(newInspectCmd())
	root.AddCommand(newSummaryCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newHierarchyCmd())
	root.AddCommand(newInitCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// inspectParams holds the parsed flags for the inspect command.
type inspectParams struct {
	paths       []string
	format      string
	failedOnly  bool
	interactive bool
	stdout      io.Writer
	stderr      io.Writer
}

// runInspect is the extracted, testable body of the inspect command.
func runInspect(p inspectParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	reports, err := readReports(p.paths)
	if err != nil {
		return err
	}
	if p.failedOnly {
		reports = failed(reports)
		if len(reports) == 0 {
			logger.Info("no failing reports", "files", len(p.paths))
			return nil
		}
	}

	if p.interactive {
		return runInteractiveInspect(reports)
	}

	for i, r := range reports {
		if i > 0 && p.format == "text" {
			fmt.Fprintln(p.stdout)
		}
		switch p.format {
		case "json":
			err = report.WriteJSON(p.stdout, r)
		default:
			err = report.WriteText(p.stdout, r)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// readReports expands directories into the reports they contain and
// decodes every file.
func readReports(paths []string) ([]*report.Report, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(p, "*.json"))
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", p, err)
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no reports found in %s", strings.Join(paths, ", "))
	}

	reports := make([]*report.Report, 0, len(files))
	for _, f := range files {
		r, err := report.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func failed(reports []*report.Report) []*report.Report {
	var out []*report.Report
	for _, r := range reports {
		if r.Failed() {
			out = append(out, r)
		}
	}
	return out
}

func newInspectCmd() *cobra.Command {
	var (
		format      string
		failedOnly  bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "inspect [report.json | dir]...",
		Short: "Render execution reports",
		Long: `Render one or more mimic execution reports, written by tests when
report.dir is set in .mimic.yaml. A directory argument renders every
JSON report in it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(inspectParams{
				paths:       args,
				format:      format,
				failedOnly:  failedOnly,
				interactive: interactive,
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVar(&failedOnly, "failed", false,
		"only render reports with mocking failures")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing reports")

	return cmd
}

// summaryParams holds the parsed flags for the summary command.
type summaryParams struct {
	paths       []string
	maxFailures int
	stdout      io.Writer
	stderr      io.Writer
}

// runSummary prints one line per report and fails when more reports
// failed than allowed.
func runSummary(p summaryParams) error {
	reports, err := readReports(p.paths)
	if err != nil {
		return err
	}

	nFailed := 0
	for _, r := range reports {
		status := "PASS"
		detail := ""
		if r.Failed() {
			status = "FAIL"
			nFailed++
			detail = " " + r.Errors[0].Kind
		}
		name := r.Test
		if name == "" {
			name = r.ExecutionID
		}
		fmt.Fprintf(p.stdout, "%s  %s  %d expectation(s), %d call(s)%s\n",
			status, name, len(r.Expectations), len(r.History), detail)
	}
	fmt.Fprintf(p.stderr, "Reports: %d, failed: %d\n", len(reports), nFailed)

	if p.maxFailures >= 0 && nFailed > p.maxFailures {
		return fmt.Errorf("%d failing report(s) exceed maximum %d", nFailed, p.maxFailures)
	}
	return nil
}

func newSummaryCmd() *cobra.Command {
	var maxFailures int

	cmd := &cobra.Command{
		Use:   "summary [report.json | dir]...",
		Short: "Summarize execution reports for CI",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(summaryParams{
				paths:       args,
				maxFailures: maxFailures,
				stdout:      cmd.OutOrStdout(),
				stderr:      cmd.ErrOrStderr(),
			})
		},
	}

	cmd.Flags().IntVar(&maxFailures, "max-failures", 0,
		"fail if more reports than this have mocking failures (-1 = no limit)")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for mimic execution reports",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of mimic execution reports. Useful for validating
reports or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

// hierarchyParams holds the parsed flags for the hierarchy command.
type hierarchyParams struct {
	patterns []string
	dir      string
	format   string
	stdout   io.Writer
}

// runHierarchy prints the subtype relations of the given packages.
func runHierarchy(p hierarchyParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	logger.Info("loading packages", "patterns", p.patterns)
	res, err := loader.LoadDir(p.dir, p.patterns...)
	if err != nil {
		return err
	}
	h := loader.BuildHierarchy(res.Pkgs)
	logger.Info("hierarchy built", "types", len(h))

	if p.format == "json" {
		enc := json.NewEncoder(p.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(h)
	}

	names := make([]string, 0, len(h))
	for name := range h {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(p.stdout, "%s -> %s\n", name, strings.Join(h[name], ", "))
	}
	return nil
}

func newHierarchyCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "hierarchy [packages...]",
		Short: "Print the subtype relations mimic derives from Go packages",
		Long: `Load Go packages and print, for every named type, the types it
embeds and the interfaces it implements. Tests pass the same patterns
to mimic.WithPackages so that expectations on a supertype match calls
reported for a subtype.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHierarchy(hierarchyParams{
				patterns: args,
				format:   format,
				stdout:   cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")

	return cmd
}

// initParams holds the parsed flags for the init command.
type initParams struct {
	dir    string
	force  bool
	stdout io.Writer
}

// runInit scaffolds the settings file and report directory.
func runInit(p initParams) error {
	_, err := scaffold.Run(scaffold.Options{
		TargetDir: p.dir,
		Force:     p.force,
		Version:   version,
		Stdout:    p.stdout,
	})
	return err
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default .mimic.yaml",
		Long: `Write a default .mimic.yaml and the report directory into the
current directory. Existing files are kept unless --force is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(initParams{
				force:  force,
				stdout: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite existing files")

	return cmd
}
