package ui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teddytennant/Pro-Chat/tools"
)

func TestExportConversationWritesMarkdown(t *testing.T) {
	a := newTestAppView(t)
	a.dataModel.Conv.AppendUser("what is in this directory?")
	a.dataModel.Conv.AppendAssistantPlaceholder()
	a.dataModel.Conv.AddInvocation(tools.Invocation{
		ToolName: "list_files",
		Args:     "path: .",
		Result:   tools.Ok("main.go"),
	})
	a.dataModel.Conv.CommitAssistant("Just main.go.")

	path := filepath.Join(t.TempDir(), "transcript.md")
	a.exportConversation(path)

	if !strings.HasPrefix(a.statusMessage, "Exported to ") {
		t.Fatalf("status = %q", a.statusMessage)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"## You\n\nwhat is in this directory?",
		"## Assistant\n\nJust main.go.",
		"**Tool: list_files**\nArgs: path: .",
		"Result (Success):\n```\nmain.go\n```",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("export missing %q:\n%s", want, out)
		}
	}
}

func TestExportConversationEmpty(t *testing.T) {
	a := newTestAppView(t)
	a.exportConversation("")
	if a.statusMessage != "No messages to export" {
		t.Errorf("status = %q", a.statusMessage)
	}
}

func TestResolveModelAlias(t *testing.T) {
	cases := map[string]string{
		"sonnet":          "claude-sonnet-4-20250514",
		"s":               "claude-sonnet-4-20250514",
		"opus":            "claude-opus-4-20250514",
		"haiku":           "claude-haiku-4-5-20251001",
		"gpt4":            "gpt-4o",
		"gpt4m":           "gpt-4o-mini",
		"claude-3-custom": "claude-3-custom",
	}
	for alias, want := range cases {
		if got := resolveModelAlias(alias); got != want {
			t.Errorf("resolveModelAlias(%q) = %q, want %q", alias, got, want)
		}
	}
}
