package ui

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/teddytennant/Pro-Chat/config"
)

// exportConversation writes the transcript as a markdown document. An empty
// path argument exports to ./chat-export-<timestamp>.md; ~ and environment
// variables in a given path are expanded.
func (a *AppView) exportConversation(pathArg string) {
	entries := a.dataModel.Conv.Entries
	if len(entries) == 0 {
		a.statusMessage = "No messages to export"
		return
	}

	path := config.ExpandPath(pathArg)
	if path == "" {
		path = fmt.Sprintf("chat-export-%s.md", time.Now().Format("20060102-150405"))
	}

	var b strings.Builder
	for _, entry := range entries {
		label := "System"
		switch entry.Role {
		case "user":
			label = "You"
		case "assistant":
			label = "Assistant"
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", label, entry.Content)

		for _, inv := range entry.Invocations {
			fmt.Fprintf(&b, "**Tool: %s**\nArgs: %s\n", inv.ToolName, inv.Args)
			status := "Error"
			if inv.Result.Success {
				status = "Success"
			}
			fmt.Fprintf(&b, "Result (%s):\n```\n%s\n```\n\n", status, inv.Result.Output)
		}
	}

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		a.statusMessage = fmt.Sprintf("Export failed: %v", err)
		return
	}
	a.statusMessage = "Exported to " + path
}

// resolveModelAlias maps a short model alias to its full identifier;
// unrecognized input passes through unchanged.
func resolveModelAlias(alias string) string {
	switch strings.TrimSpace(alias) {
	case "sonnet", "s":
		return "claude-sonnet-4-20250514"
	case "opus", "o":
		return "claude-opus-4-20250514"
	case "haiku", "h":
		return "claude-haiku-4-5-20251001"
	case "gpt4":
		return "gpt-4o"
	case "gpt4m":
		return "gpt-4o-mini"
	}
	return alias
}
