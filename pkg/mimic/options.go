package mimic

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/unbound-force/mimic/internal/config"
	"github.com/unbound-force/mimic/internal/stub"
)

// Option configures a Session.
type Option func(*options)

type options struct {
	dir        string
	configFile string
	reportDir  *string
	logger     *log.Logger
	hierarchy  Hierarchy
	packages   []string
	stubbed    []string
	variants   []stub.Variant
}

// WithDir sets the directory .mimic.yaml is looked up from and
// packages are loaded relative to. Defaults to the test's working
// directory.
func WithDir(dir string) Option {
	return func(o *options) { o.dir = dir }
}

// WithConfigFile loads settings from path instead of looking them up.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithReportDir overrides report.dir. An empty dir disables reports.
func WithReportDir(dir string) Option {
	return func(o *options) { o.reportDir = &dir }
}

// WithLogger replaces the stderr logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHierarchy relates declaring types so that expectations on a
// supertype match calls reported for a subtype.
func WithHierarchy(h Hierarchy) Option {
	return func(o *options) { o.hierarchy = h }
}

// WithPackages derives the type hierarchy from the Go packages
// matching patterns.
func WithPackages(patterns ...string) Option {
	return func(o *options) { o.packages = append(o.packages, patterns...) }
}

// Stubbed lets cascading methods returning any of types produce
// further mocks. Use Session.MockOf to call them.
func Stubbed(types ...string) Option {
	return func(o *options) { o.stubbed = append(o.stubbed, types...) }
}

// Constructed lets cascading methods returning typ produce values with
// construct, typically a hand-written implementation of an interface.
func Constructed(typ string, construct func() any) Option {
	return func(o *options) {
		o.variants = append(o.variants, stub.Variant{Kind: stub.InterfaceStub, Type: typ, Construct: construct})
	}
}

// Produced lets cascading methods returning typ produce values with
// produce.
func Produced(typ string, produce func(typ string) (any, error)) Option {
	return func(o *options) {
		o.variants = append(o.variants, stub.Variant{Kind: stub.Callback, Type: typ, Produce: produce})
	}
}

// loadConfig returns the settings and the directory relative report
// paths resolve against.
func (o *options) loadConfig() (*config.Config, string, error) {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if o.configFile != "" {
		path = o.configFile
		cfg, err = config.Load(path)
	} else {
		cfg, path, err = config.Find(o.dir)
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading settings: %w", err)
	}

	dir := o.dir
	if path != "" {
		dir = filepath.Dir(path)
	}
	if dir, err = filepath.Abs(dir); err != nil {
		return nil, "", fmt.Errorf("resolving settings dir: %w", err)
	}
	if o.reportDir != nil {
		cfg.Report.Dir = *o.reportDir
	}
	return cfg, dir, nil
}
