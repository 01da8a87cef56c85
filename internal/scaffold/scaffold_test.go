package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/unbound-force/mimic/internal/config"
)

func newModule(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	// Create go.mod so no warning is printed.
	if err := os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module test\n"), 0o644); err != nil {
		t.Fatalf("creating go.mod: %v", err)
	}
	return dir
}

var wantPaths = []string{".mimic.yaml", filepath.Join("mimic-reports", "README.md")}

// TestRun_CreatesFiles verifies mimic init creates the settings file
// and the report directory in an empty project.
func TestRun_CreatesFiles(t *testing.T) {
	dir := newModule(t)

	var buf bytes.Buffer
	result, err := Run(Options{
		TargetDir: dir,
		Version:   "1.2.3",
		Stdout:    &buf,
	})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if len(result.Created) != len(wantPaths) {
		t.Errorf("expected %d created files, got %d: %v", len(wantPaths), len(result.Created), result.Created)
	}
	if len(result.Skipped) != 0 || len(result.Overwritten) != 0 {
		t.Errorf("expected nothing skipped or overwritten, got %v / %v", result.Skipped, result.Overwritten)
	}

	for _, rel := range wantPaths {
		if _, err := os.Stat(filepath.Join(dir, rel)); os.IsNotExist(err) {
			t.Errorf("expected file %s to exist", rel)
		}
	}

	output := buf.String()
	if !strings.Contains(output, "created:") {
		t.Errorf("summary should mention 'created:', got:\n%s", output)
	}
	if strings.Contains(output, "Warning") {
		t.Errorf("unexpected go.mod warning, got:\n%s", output)
	}
}

// TestRun_SkipsExisting verifies mimic init skips existing files and
// reports them when --force is not set.
func TestRun_SkipsExisting(t *testing.T) {
	dir := newModule(t)

	if _, err := Run(Options{TargetDir: dir, Version: "1.0.0", Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatalf("first Run() returned error: %v", err)
	}

	var buf bytes.Buffer
	result, err := Run(Options{TargetDir: dir, Version: "1.0.0", Stdout: &buf})
	if err != nil {
		t.Fatalf("second Run() returned error: %v", err)
	}

	if len(result.Created) != 0 {
		t.Errorf("expected 0 created, got %d: %v", len(result.Created), result.Created)
	}
	if len(result.Skipped) != len(wantPaths) {
		t.Errorf("expected %d skipped, got %d: %v", len(wantPaths), len(result.Skipped), result.Skipped)
	}

	output := buf.String()
	if !strings.Contains(output, "use --force to overwrite") {
		t.Errorf("summary should suggest --force, got:\n%s", output)
	}
}

// TestRun_ForceOverwrites verifies mimic init --force overwrites all
// files and reports the overwrites.
func TestRun_ForceOverwrites(t *testing.T) {
	dir := newModule(t)

	if _, err := Run(Options{TargetDir: dir, Version: "1.0.0", Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatalf("first Run() returned error: %v", err)
	}

	var buf bytes.Buffer
	result, err := Run(Options{TargetDir: dir, Force: true, Version: "2.0.0", Stdout: &buf})
	if err != nil {
		t.Fatalf("second Run() with force returned error: %v", err)
	}

	if len(result.Overwritten) != len(wantPaths) {
		t.Errorf("expected %d overwritten, got %d: %v", len(wantPaths), len(result.Overwritten), result.Overwritten)
	}
	if !strings.Contains(buf.String(), "overwritten:") {
		t.Errorf("summary should mention 'overwritten:', got:\n%s", buf.String())
	}

	content, err := os.ReadFile(filepath.Join(dir, ".mimic.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(content), "# scaffolded by mimic 2.0.0\n") {
		t.Errorf("expected the 2.0.0 marker after --force, got %q", strings.SplitN(string(content), "\n", 2)[0])
	}
}

// TestRun_VersionMarker verifies every scaffolded file starts with a
// version marker in its own comment syntax.
func TestRun_VersionMarker(t *testing.T) {
	tests := []struct {
		version string
		want    map[string]string
	}{
		{"0.1.0", map[string]string{
			".mimic.yaml": "# scaffolded by mimic 0.1.0",
			filepath.Join("mimic-reports", "README.md"): "<!-- scaffolded by mimic 0.1.0 -->",
		}},
		{"", map[string]string{
			".mimic.yaml": "# scaffolded by mimic dev",
		}},
	}
	for _, tt := range tests {
		dir := newModule(t)
		if _, err := Run(Options{TargetDir: dir, Version: tt.version, Stdout: &bytes.Buffer{}}); err != nil {
			t.Fatalf("Run() returned error: %v", err)
		}
		for rel, want := range tt.want {
			content, err := os.ReadFile(filepath.Join(dir, rel))
			if err != nil {
				t.Fatalf("reading %s: %v", rel, err)
			}
			firstLine := strings.SplitN(string(content), "\n", 2)[0]
			if firstLine != want {
				t.Errorf("file %s: expected first line %q, got %q", rel, want, firstLine)
			}
		}
	}
}

// TestRun_NoGoMod_PrintsWarning verifies mimic init in a directory
// without go.mod prints a warning but still creates files.
func TestRun_NoGoMod_PrintsWarning(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	result, err := Run(Options{TargetDir: dir, Version: "1.0.0", Stdout: &buf})
	if err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	if len(result.Created) != len(wantPaths) {
		t.Errorf("expected %d created files, got %d", len(wantPaths), len(result.Created))
	}
	if !strings.Contains(buf.String(), "Warning: no go.mod found") {
		t.Errorf("expected go.mod warning, got:\n%s", buf.String())
	}
}

// TestRun_ScaffoldedSettingsLoad verifies the written .mimic.yaml
// passes config validation and matches the defaults apart from the
// report directory.
func TestRun_ScaffoldedSettingsLoad(t *testing.T) {
	dir := newModule(t)
	if _, err := Run(Options{TargetDir: dir, Stdout: &bytes.Buffer{}}); err != nil {
		t.Fatalf("Run() returned error: %v", err)
	}

	cfg, err := config.Load(filepath.Join(dir, ".mimic.yaml"))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	def := config.DefaultConfig()
	if cfg.Mocking != def.Mocking || cfg.Verification != def.Verification || cfg.Log != def.Log {
		t.Errorf("scaffolded settings %+v differ from defaults %+v", cfg, def)
	}
	if cfg.Report.Dir != "mimic-reports" || cfg.Report.Format != config.FormatJSON {
		t.Errorf("report = %+v, want mimic-reports in json", cfg.Report)
	}
}

// TestAssetPaths lists exactly the project files Run writes.
func TestAssetPaths(t *testing.T) {
	paths, err := AssetPaths()
	if err != nil {
		t.Fatalf("AssetPaths() returned error: %v", err)
	}
	sort.Strings(paths)
	want := append([]string(nil), wantPaths...)
	sort.Strings(want)
	if strings.Join(paths, ",") != strings.Join(want, ",") {
		t.Errorf("AssetPaths() = %v, want %v", paths, want)
	}
}

func TestAssetContent(t *testing.T) {
	content, err := AssetContent("mimic.yaml")
	if err != nil {
		t.Fatalf("AssetContent: %v", err)
	}
	if !bytes.Contains(content, []byte("default_strictness: strict")) {
		t.Error("embedded settings should default to strict")
	}
	if _, err := AssetContent("missing.yaml"); err == nil {
		t.Error("expected an error for a missing asset")
	}
}
