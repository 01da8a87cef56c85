package main

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unbound-force/mimic/internal/report"
)

func TestRenderInspectContent_Empty(t *testing.T) {
	output := renderInspectContent(nil, false)

	if !strings.Contains(output, "0 report(s), 0 failing") {
		t.Errorf("expected output to contain counts, got:\n%s", output)
	}
	if !strings.Contains(output, "No reports to show.") {
		t.Errorf("expected empty notice, got:\n%s", output)
	}
}

func TestRenderInspectContent_Reports(t *testing.T) {
	output := renderInspectContent([]*report.Report{passingReport(), failingReport()}, false)

	for _, want := range []string{"2 report(s), 1 failing", "TestPasses", "TestFails", "MissingInvocation"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, output)
		}
	}
}

func TestRenderInspectContent_FailedOnly(t *testing.T) {
	output := renderInspectContent([]*report.Report{passingReport(), failingReport()}, true)

	if !strings.Contains(output, "(failed only)") {
		t.Errorf("expected filter marker, got:\n%s", output)
	}
	if strings.Contains(output, "TestPasses") {
		t.Errorf("passing report should be hidden, got:\n%s", output)
	}
	if !strings.Contains(output, "TestFails") {
		t.Errorf("expected failing report, got:\n%s", output)
	}
}

func TestInspectModel_InitializesOnWindowSize(t *testing.T) {
	m := newInspectModel([]*report.Report{passingReport()})
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() before sizing = %q, want Initializing...", got)
	}

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(inspectModel)
	if !m.ready {
		t.Fatal("model not ready after WindowSizeMsg")
	}
	if got, want := m.viewport.Height, 22; got != want {
		t.Errorf("viewport height = %d, want %d", got, want)
	}
	if !strings.Contains(m.View(), "TestPasses") {
		t.Errorf("view missing report content:\n%s", m.View())
	}
}

func TestInspectModel_ToggleFailed(t *testing.T) {
	m := newInspectModel([]*report.Report{passingReport(), failingReport()})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 200})
	m = updated.(inspectModel)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = updated.(inspectModel)
	if !m.failedOnly {
		t.Fatal("failedOnly not set after pressing f")
	}
	if strings.Contains(m.content, "TestPasses") {
		t.Errorf("passing report still shown:\n%s", m.content)
	}

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = updated.(inspectModel)
	if m.failedOnly || !strings.Contains(m.content, "TestPasses") {
		t.Error("second f should show every report again")
	}
}

func TestInspectModel_Keys(t *testing.T) {
	m := newInspectModel(nil)

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'?'}})
	m = updated.(inspectModel)
	if !m.help.ShowAll {
		t.Error("? should expand help")
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}
