package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (a AppView) renderHelp() string {
	sections := []struct {
		title string
		rows  [][2]string
	}{
		{
			"Keys",
			[][2]string{
				{"enter", "send message"},
				{"esc", "cancel streaming response"},
				{"ctrl+r", "retry last response"},
				{"ctrl+e", "edit last message"},
				{"ctrl+n", "new conversation"},
				{"ctrl+h", "conversation history"},
				{"ctrl+f", "search all conversations"},
				{"ctrl+t", "toggle tools"},
				{"ctrl+y", "copy last response"},
				{"pgup/pgdn", "scroll transcript"},
				{"ctrl+c", "quit"},
			},
		},
		{
			"Commands",
			[][2]string{
				{"/new, /clear", "start a fresh conversation"},
				{"/retry", "regenerate the last response"},
				{"/edit", "pull the last message back into the input"},
				{"/model <id>", "show or switch the model (aliases ok)"},
				{"/models", "list model aliases"},
				{"/provider <name>", "switch between anthropic and openai"},
				{"/temp <0..2>", "show or set sampling temperature"},
				{"/system <text>", "show or set the system prompt"},
				{"/history", "browse saved conversations"},
				{"/search <query>", "search every conversation"},
				{"/tools [on|off]", "toggle tools and show permissions"},
				{"/copy", "copy the last response"},
				{"/save", "persist the conversation and config now"},
				{"/export [path]", "export the transcript as markdown"},
				{"/quit", "exit"},
			},
		},
		{
			"Tool confirmations",
			[][2]string{
				{"y", "allow this call"},
				{"a", "always allow this tool"},
				{"n", "deny this call"},
				{"d", "never allow this tool"},
			},
		},
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Pro-Chat help") + "\n")
	for _, section := range sections {
		b.WriteString("\n" + HighlightStyle.Render(section.title) + "\n")
		for _, row := range section.rows {
			key := lipgloss.NewStyle().Foreground(accentColor).Width(18).Render(row[0])
			b.WriteString("  " + key + DimStyle.Render(row[1]) + "\n")
		}
	}
	b.WriteString("\n" + DimStyle.Render("press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, b.String())
}
