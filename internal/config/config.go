// Package config loads mimic settings from .mimic.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"
)

// FileName is the settings file looked up by Find.
const FileName = ".mimic.yaml"

// Strictness values for Mocking.DefaultStrictness.
const (
	StrictnessStrict  = "strict"
	StrictnessLenient = "lenient"
)

// Report formats.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// ErrInvalid marks a settings file whose values are out of range.
var ErrInvalid = errors.New("invalid configuration")

// Config holds mimic settings.
type Config struct {
	Mocking      Mocking      `yaml:"mocking"`
	Verification Verification `yaml:"verification"`
	Report       Report       `yaml:"report"`
	Log          Log          `yaml:"log"`
}

// Mocking controls how undeclared owners behave.
type Mocking struct {
	// DefaultStrictness is "strict" (unmatched calls fail) or
	// "lenient" (unmatched calls return nil).
	DefaultStrictness string `yaml:"default_strictness"`

	// Cascading makes undeclared owners produce further mocks.
	Cascading bool `yaml:"cascading"`
}

// Verification controls verification blocks.
type Verification struct {
	// Full turns every verification block into a full one.
	Full bool `yaml:"full"`
}

// Report controls the end-of-test execution report.
type Report struct {
	// Dir receives one report per test. Empty disables reports.
	// Environment variables are expanded.
	Dir string `yaml:"dir"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// Log controls engine logging.
type Log struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the settings used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Mocking: Mocking{DefaultStrictness: StrictnessStrict},
		Report:  Report{Format: FormatJSON},
		Log:     Log{Level: "warn"},
	}
}

// Load reads path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", path, err)
	}
	cfg.Report.Dir = os.ExpandEnv(cfg.Report.Dir)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Find walks up from dir to the filesystem root and loads the first
// .mimic.yaml it meets. It returns the defaults and an empty path when
// there is none.
func Find(dir string) (*Config, string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, path, err
		} else if !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("stat %s: %w", path, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return DefaultConfig(), "", nil
		}
		dir = parent
	}
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Mocking.DefaultStrictness) {
	case StrictnessStrict, StrictnessLenient:
	default:
		return fmt.Errorf("%w: mocking.default_strictness %q, want %q or %q",
			ErrInvalid, c.Mocking.DefaultStrictness, StrictnessStrict, StrictnessLenient)
	}
	switch strings.ToLower(c.Report.Format) {
	case FormatJSON, FormatText:
	default:
		return fmt.Errorf("%w: report.format %q, want %q or %q",
			ErrInvalid, c.Report.Format, FormatJSON, FormatText)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
	}
	return nil
}

// Lenient reports whether undeclared owners are lenient.
func (c *Config) Lenient() bool {
	return strings.EqualFold(c.Mocking.DefaultStrictness, StrictnessLenient)
}

// Level returns the configured log level, warn when unparsable.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.WarnLevel
	}
	return lvl
}
