package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/mimic/internal/report"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Failed   key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Failed, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Failed, k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Failed:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "failed only")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// inspectModel is the Bubble Tea model for browsing execution reports.
type inspectModel struct {
	reports    []*report.Report
	failedOnly bool
	viewport   viewport.Model
	help       help.Model
	keys       keyMap
	ready      bool
	content    string
}

func newInspectModel(reports []*report.Report) inspectModel {
	return inspectModel{
		reports: reports,
		help:    help.New(),
		keys:    defaultKeyMap,
		content: renderInspectContent(reports, false),
	}
}

func renderInspectContent(reports []*report.Report, failedOnly bool) string {
	var sb strings.Builder

	nFailed := len(failed(reports))
	title := fmt.Sprintf("Mimic Reports: %d report(s), %d failing", len(reports), nFailed)
	if failedOnly {
		title += " (failed only)"
	}
	sb.WriteString(titleStyle.Render(title))
	sb.WriteString("\n\n")

	shown := reports
	if failedOnly {
		shown = failed(reports)
	}
	if len(shown) == 0 {
		sb.WriteString(statusStyle.Render("    No reports to show."))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, r := range shown {
		if err := report.WriteText(&sb, r); err != nil {
			sb.WriteString(statusStyle.Render("    " + err.Error()))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		footerHeight := 2

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-footerHeight)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - footerHeight
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Failed):
			m.failedOnly = !m.failedOnly
			m.content = renderInspectContent(m.reports, m.failedOnly)
			if m.ready {
				m.viewport.SetContent(m.content)
				m.viewport.GotoTop()
			}
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m inspectModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveInspect launches the Bubble Tea TUI for browsing
// execution reports.
func runInteractiveInspect(reports []*report.Report) error {
	p := tea.NewProgram(newInspectModel(reports), tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
