package ui

import (
	"strings"
	"testing"
)

func TestModelCommandResolvesAlias(t *testing.T) {
	a := newTestAppView(t)

	updated, _ := a.handleCommand("/model sonnet")
	av := updated.(AppView)
	if got := av.dataModel.Config.Model; got != "claude-sonnet-4-20250514" {
		t.Errorf("model = %q, want the resolved alias", got)
	}

	// Full ids pass through untouched.
	updated, _ = av.handleCommand("/model gpt-4o-mini")
	if got := updated.(AppView).dataModel.Config.Model; got != "gpt-4o-mini" {
		t.Errorf("model = %q", got)
	}
}

func TestModelsCommandListsAliases(t *testing.T) {
	a := newTestAppView(t)
	updated, _ := a.handleCommand("/models")
	status := updated.(AppView).statusMessage
	for _, alias := range []string{"sonnet/s", "opus/o", "haiku/h", "gpt4m"} {
		if !strings.Contains(status, alias) {
			t.Errorf("status missing %q: %q", alias, status)
		}
	}
}

func TestSaveCommandPersistsConversation(t *testing.T) {
	a := newTestAppView(t)
	a.dataModel.Conv.AppendUser("keep this")

	updated, cmd := a.handleCommand("/save")
	if cmd == nil {
		t.Fatal("/save produced no persist command")
	}
	if got := updated.(AppView).statusMessage; got != "saved" {
		t.Errorf("status = %q", got)
	}

	// Nothing to persist on an empty conversation.
	b := newTestAppView(t)
	if _, cmd := b.handleCommand("/save"); cmd != nil {
		t.Error("/save on an empty conversation produced a command")
	}
}
