// Package styles provides the colour palette and lipgloss styles of the TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Surface    lipgloss.Color
	Border     lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
}

// DefaultTheme returns a blue and teal palette for dark terminals.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#2563EB"),
		Secondary:  lipgloss.Color("#14B8A6"),
		Foreground: lipgloss.Color("#E2E8F0"),
		Muted:      lipgloss.Color("#64748B"),
		Surface:    lipgloss.Color("#0F172A"),
		Border:     lipgloss.Color("#334155"),
		Success:    lipgloss.Color("#22C55E"),
		Warning:    lipgloss.Color("#EAB308"),
		Error:      lipgloss.Color("#EF4444"),
	}
}

// Styles are the rendered styles derived from a Theme.
type Styles struct {
	theme *Theme

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Help     lipgloss.Style

	Error   lipgloss.Style
	Warning lipgloss.Style

	// InputField frames the question box.
	InputField lipgloss.Style

	// StatusBar is the bottom line of the ask view.
	StatusBar lipgloss.Style

	// Answer frames the generated answer.
	Answer lipgloss.Style

	// SourceLabel renders "[Source n: file]" headings.
	SourceLabel lipgloss.Style
}

// NewStyles derives styles from theme. A nil theme means DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	fg := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(c)
	}
	framed := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(c).
			Padding(0, 1)
	}

	return &Styles{
		theme:       theme,
		Title:       fg(theme.Primary).Bold(true),
		Subtitle:    fg(theme.Secondary),
		Normal:      fg(theme.Foreground),
		Muted:       fg(theme.Muted),
		Selected:    fg(theme.Foreground).Background(theme.Primary).Bold(true),
		Help:        fg(theme.Muted).Italic(true),
		Error:       fg(theme.Error).Bold(true),
		Warning:     fg(theme.Warning),
		InputField:  framed(theme.Border),
		StatusBar:   fg(theme.Muted).Background(theme.Surface).Padding(0, 1),
		Answer:      framed(theme.Primary).Foreground(theme.Foreground),
		SourceLabel: fg(theme.Secondary).Bold(true),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette behind these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
