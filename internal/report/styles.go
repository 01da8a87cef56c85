package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/unbound-force/mimic/internal/taxonomy"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== Execution ... ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// Missing, Unexpected, Order and Config color-code failure kinds.
	Missing    lipgloss.Style
	Unexpected lipgloss.Style
	Order      lipgloss.Style
	Config     lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Pass styles PASS indicators.
	Pass lipgloss.Style

	// Fail styles FAIL indicators.
	Fail lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		Missing:    lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
		Unexpected: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Order:      lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		Config:     lipgloss.NewStyle().Foreground(lipgloss.Color("75")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		Pass: lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Fail: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// KindStyle returns the style for a failure kind.
func (s Styles) KindStyle(kind string) lipgloss.Style {
	switch taxonomy.Kind(kind) {
	case taxonomy.MissingInvocation:
		return s.Missing
	case taxonomy.UnexpectedInvocation:
		return s.Unexpected
	case taxonomy.UnexpectedInvocationOrder:
		return s.Order
	case taxonomy.ConfigurationError:
		return s.Config
	default:
		return s.Muted
	}
}
