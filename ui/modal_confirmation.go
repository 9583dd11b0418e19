package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/teddytennant/Pro-Chat/tools"
)

// RenderToolConfirmModal draws the permission prompt for one pending tool
// call. The answer keys mirror the footer: y/a/n/d.
func RenderToolConfirmModal(confirm tools.Confirmation, width, height int) string {
	modalWidth := 60
	if width < modalWidth+10 {
		modalWidth = width - 10
	}
	if modalWidth < 20 {
		modalWidth = 20
	}

	// Title section (no borders)
	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(warningColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Tool wants to run: " + confirm.ToolName)

	// Message section (with top border)
	var messageLines []string
	messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Top padding

	messageStyle := lipgloss.NewStyle().
		Width(modalWidth).
		Align(lipgloss.Center)

	for _, line := range strings.Split(fitToWidth(confirm.Args, modalWidth-4), "\n") {
		messageLines = append(messageLines, messageStyle.Render(line))
	}

	messageLines = append(messageLines, strings.Repeat(" ", modalWidth)) // Bottom padding

	messageSection := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth).
		Render(strings.Join(messageLines, "\n"))

	// Footer section (with top border)
	footer := FormatFooter("y", "Allow", "a", "Always", "n", "Deny", "d", "Never")
	footerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	sections := []string{titleSection, messageSection, footerSection}
	content := strings.Join(sections, "\n")

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}

// fitToWidth truncates each display line to the cell width, accounting for
// wide runes.
func fitToWidth(s string, width int) string {
	if width < 4 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if runewidth.StringWidth(line) > width {
			lines[i] = runewidth.Truncate(line, width-3, "...")
		}
	}
	return strings.Join(lines, "\n")
}
