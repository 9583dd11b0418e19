package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dimColor       = lipgloss.Color("7")
	accentColor    = lipgloss.Color("12")
	successColor   = lipgloss.Color("10")
	warningColor   = lipgloss.Color("11")
	dangerColor    = lipgloss.Color("9")
	highlightColor = lipgloss.Color("13")

	// User message style
	UserStyle = lipgloss.NewStyle().
			Foreground(successColor).
			Bold(true)

	// Assistant message style
	AssistantStyle = lipgloss.NewStyle().
			Foreground(accentColor)

	// System/timestamp style
	DimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	// Border style
	BorderStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	TitleStyle = lipgloss.NewStyle().
			Bold(true)

	StatusStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	SelectedStyle = lipgloss.NewStyle().
			Foreground(warningColor).
			Bold(true)

	ErrStyle = lipgloss.NewStyle().
			Foreground(dangerColor)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(highlightColor).
			Bold(true)

	ToolStyle = lipgloss.NewStyle().
			Foreground(warningColor)
)

// FormatFooter formats a footer string with alternating keys and
// descriptions. Keys remain default color, descriptions are rendered in
// accent blue+bold.
// Usage: FormatFooter("j/k", "Navigate", "Enter", "Select", "Esc", "Close")
func FormatFooter(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i < len(parts); i += 2 {
		if i+1 < len(parts) {
			result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
		}
	}
	return strings.Join(result, "  ")
}
