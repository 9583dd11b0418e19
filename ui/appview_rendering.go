package ui

import (
	"fmt"
	"strings"
	"time"

	markdown "github.com/MichaelMure/go-term-markdown"
	tea "github.com/charmbracelet/bubbletea"

	appmodel "github.com/teddytennant/Pro-Chat/model"
	"github.com/teddytennant/Pro-Chat/tools"
)

// collapsedInvocationLines is the output-size threshold past which a tool
// invocation renders folded.
const collapsedInvocationLines = 10

func (a *AppView) updateViewportContent(gotoBottom bool) {
	if !a.ready {
		return
	}

	var b strings.Builder
	for i, entry := range a.dataModel.Conv.Entries {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(a.renderEntry(entry))
	}

	a.viewport.SetContent(b.String())
	if gotoBottom {
		a.viewport.GotoBottom()
	}
}

func (a *AppView) renderEntry(entry appmodel.ChatEntry) string {
	timestamp := DimStyle.Render(entry.Timestamp.Format("15:04"))

	var b strings.Builder
	switch entry.Role {
	case "user":
		b.WriteString(UserStyle.Render("You") + " " + timestamp + "\n")
		b.WriteString(entry.Content + "\n")
	case "assistant":
		b.WriteString(AssistantStyle.Render("Assistant") + " " + timestamp + "\n")
		content := entry.Content
		if entry.Rendered != "" {
			content = entry.Rendered
		}
		if content == "" && a.dataModel.Streaming {
			content = a.loadingSpinner.View()
		}
		b.WriteString(content + "\n")
	default:
		b.WriteString(DimStyle.Render(entry.Content) + "\n")
	}

	for _, inv := range entry.Invocations {
		b.WriteString(renderInvocation(inv))
	}
	return b.String()
}

func renderInvocation(inv tools.Invocation) string {
	marker := "✓"
	style := ToolStyle
	if !inv.Result.Success {
		marker = "✗"
		style = ErrStyle
	}

	header := style.Render(fmt.Sprintf("%s %s", marker, inv.ToolName)) +
		DimStyle.Render(" ("+inv.Args+")")

	output := inv.Result.Output
	lines := strings.Split(output, "\n")
	if inv.Collapsed && len(lines) > collapsedInvocationLines {
		shown := strings.Join(lines[:collapsedInvocationLines], "\n")
		output = shown + DimStyle.Render(fmt.Sprintf("\n... (%d more lines)", len(lines)-collapsedInvocationLines))
	}

	var b strings.Builder
	b.WriteString(header + "\n")
	if output != "" {
		for _, line := range strings.Split(output, "\n") {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

// renderMarkdownAsync renders one committed entry's markdown off the update
// loop; the result lands back as MarkdownRenderedMsg.
func (a AppView) renderMarkdownAsync(entryIndex int, content string) tea.Cmd {
	width := a.width - 4
	if width < 20 {
		width = 20
	}
	return func() tea.Msg {
		rendered := strings.TrimRight(string(markdown.Render(content, width, 0)), "\n")
		return appmodel.MarkdownRenderedMsg{EntryIndex: entryIndex, Rendered: rendered}
	}
}

// spinnerTick keeps the elapsed-time readout and spinner moving while a
// turn is streaming.
func spinnerTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return appmodel.SpinnerTickMsg{}
	})
}
