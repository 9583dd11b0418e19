package model

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/teddytennant/Pro-Chat/config"
	"github.com/teddytennant/Pro-Chat/provider/testutil"
	"github.com/teddytennant/Pro-Chat/storage"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("ANTHROPIC_API_KEY", "")

	cfg := config.Default()
	cfg.AnthropicAPIKey = "test-key"

	store, err := storage.NewConversationStore(filepath.Join(t.TempDir(), "conversations"))
	if err != nil {
		t.Fatalf("NewConversationStore() error = %v", err)
	}

	return NewModel(cfg, testutil.NewMockStreamer("mock reply"), store, nil, nil)
}

func TestSendBlankInputIsNoOp(t *testing.T) {
	m := newTestModel(t)

	for _, input := range []string{"", "   ", "\n\t "} {
		cmd, err := m.Send(input)
		if err != nil {
			t.Errorf("Send(%q) error = %v", input, err)
		}
		if cmd != nil {
			t.Errorf("Send(%q) spawned a call", input)
		}
		if len(m.Conv.Entries) != 0 || len(m.Conv.Wire) != 0 {
			t.Errorf("Send(%q) mutated views", input)
		}
		if len(m.Conv.Snapshot().Messages) != 0 {
			t.Errorf("Send(%q) reached the persisted record", input)
		}
	}
}

func TestSendWithoutAPIKey(t *testing.T) {
	m := newTestModel(t)
	m.Config.AnthropicAPIKey = ""

	_, err := m.Send("hello")
	if err != ErrNoAPIKey {
		t.Fatalf("Send() error = %v, want ErrNoAPIKey", err)
	}
	if len(m.Conv.Entries) != 0 {
		t.Error("failed Send() mutated views")
	}
}

func TestSendAppendsUserAndPlaceholder(t *testing.T) {
	m := newTestModel(t)

	cmd, err := m.Send("hello")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if cmd == nil {
		t.Fatal("Send() returned no command")
	}

	if len(m.Conv.Entries) != 2 {
		t.Fatalf("entries = %d, want user + placeholder", len(m.Conv.Entries))
	}
	if m.Conv.Entries[0].Role != "user" || m.Conv.Entries[0].Content != "hello" {
		t.Errorf("entries[0] = %+v", m.Conv.Entries[0])
	}
	if m.Conv.Entries[1].Role != "assistant" || m.Conv.Entries[1].Content != "" {
		t.Errorf("entries[1] = %+v", m.Conv.Entries[1])
	}
	// Placeholder is display-only.
	if len(m.Conv.Wire) != 1 {
		t.Errorf("wire = %d messages, want 1", len(m.Conv.Wire))
	}
	if !m.Streaming {
		t.Error("Streaming flag not set")
	}
}

func TestFinishTurnCommitsToAllViews(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")
	m.ApplyChunk("part one, ")
	m.ApplyChunk("part two")
	m.FinishTurn()

	if m.Streaming {
		t.Error("Streaming still set after FinishTurn")
	}
	if got := m.Conv.Entries[1].Content; got != "part one, part two" {
		t.Errorf("entry content = %q", got)
	}
	if len(m.Conv.Wire) != 2 || m.Conv.Wire[1].Content.Text != "part one, part two" {
		t.Errorf("wire = %+v", m.Conv.Wire)
	}
	rec := m.Conv.Snapshot()
	if len(rec.Messages) != 2 || rec.Messages[1].Content != "part one, part two" {
		t.Errorf("record = %+v", rec.Messages)
	}
}

func TestRetryWhileStreamingFails(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")

	entriesBefore := len(m.Conv.Entries)
	wireBefore := len(m.Conv.Wire)

	_, err := m.Retry()
	if err != ErrStillStreaming {
		t.Fatalf("Retry() error = %v, want ErrStillStreaming", err)
	}
	if len(m.Conv.Entries) != entriesBefore || len(m.Conv.Wire) != wireBefore {
		t.Error("failed Retry() mutated views")
	}
}

func TestRetryWithoutAssistantMessage(t *testing.T) {
	m := newTestModel(t)

	_, err := m.Retry()
	if err != ErrNoAssistantMessage {
		t.Fatalf("Retry() error = %v, want ErrNoAssistantMessage", err)
	}
}

func TestRetryAfterLoadedConversation(t *testing.T) {
	m := newTestModel(t)

	rec := storage.NewConversation()
	rec.Messages = []storage.ConversationMessage{
		{Role: "user", Content: "old question", Timestamp: time.Now()},
		{Role: "assistant", Content: "old answer", Timestamp: time.Now()},
	}
	m.LoadConversation(rec)

	if len(m.Conv.Entries) != 2 || len(m.Conv.Wire) != 2 {
		t.Fatalf("loaded views = %d entries, %d wire", len(m.Conv.Entries), len(m.Conv.Wire))
	}

	m.Send("hi")
	m.ApplyChunk("new answer")
	m.FinishTurn()

	wireBeforeRetry := len(m.Conv.Wire) // loaded 2 + user + assistant

	cmd, err := m.Retry()
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if cmd == nil {
		t.Fatal("Retry() returned no command")
	}

	// The new answer is gone, the user message is reused, a fresh
	// placeholder is open.
	if len(m.Conv.Wire) != wireBeforeRetry-1 {
		t.Errorf("wire = %d, want %d", len(m.Conv.Wire), wireBeforeRetry-1)
	}
	if m.Conv.Wire[len(m.Conv.Wire)-1].Content.Text != "hi" {
		t.Errorf("wire tail = %+v, want the resent user message", m.Conv.Wire[len(m.Conv.Wire)-1])
	}
	last := m.Conv.Entries[len(m.Conv.Entries)-1]
	if last.Role != "assistant" || last.Content != "" {
		t.Errorf("trailing entry = %+v, want fresh placeholder", last)
	}
}

func TestRetryAfterFailedToolContinuation(t *testing.T) {
	m := newTestModel(t)
	m.ToolsEnabled = true
	m.Send("list my files")
	m.ApplyChunk("Let me check.")

	raw := []byte(`{"content":[
		{"type":"text","text":"Let me check."},
		{"type":"tool_use","id":"toolu_1","name":"list_files","input":{"path":"."}}
	]}`)
	if _, err := m.BeginToolResolution(raw); err != nil {
		t.Fatalf("BeginToolResolution() error = %v", err)
	}
	if out := m.StepTools(); !out.Done {
		t.Fatalf("StepTools() outcome = %+v, want done", out)
	}
	if _, err := m.ContinueAfterTools(); err != nil {
		t.Fatalf("ContinueAfterTools() error = %v", err)
	}

	// The continuation dies before producing any output.
	m.FailTurn()

	cmd, err := m.Retry()
	if err != nil {
		t.Fatalf("Retry() error = %v", err)
	}
	if cmd == nil {
		t.Fatal("Retry() returned no command")
	}

	// The tool_use message and its tool_result reply leave the wire
	// together; a tool_result with no preceding tool_use ids would make
	// every later call invalid.
	for i, msg := range m.Conv.Wire {
		if msg.Content.IsBlocks() {
			t.Errorf("wire[%d] = %+v, want no block messages left", i, msg)
		}
	}
	if len(m.Conv.Wire) != 1 || m.Conv.Wire[0].Content.Text != "list my files" {
		t.Errorf("wire = %+v, want only the original user message", m.Conv.Wire)
	}
}

func TestRetryAfterCompletedToolTurnKeepsResults(t *testing.T) {
	m := newTestModel(t)
	m.ToolsEnabled = true
	m.Send("list my files")
	m.ApplyChunk("Let me check.")

	raw := []byte(`{"content":[
		{"type":"text","text":"Let me check."},
		{"type":"tool_use","id":"toolu_1","name":"list_files","input":{"path":"."}}
	]}`)
	m.BeginToolResolution(raw)
	m.StepTools()
	m.ContinueAfterTools()
	m.ApplyChunk("Here are your files.")
	m.FinishTurn()

	if _, err := m.Retry(); err != nil {
		t.Fatalf("Retry() error = %v", err)
	}

	// Only the final text answer is regenerated; the tool exchange stays
	// on the wire so the continuation does not re-run the tools.
	wire := m.Conv.Wire
	if len(wire) != 3 {
		t.Fatalf("wire = %d messages, want user + tool_use + tool_result", len(wire))
	}
	if wire[1].Role != "assistant" || !wire[1].Content.IsBlocks() {
		t.Errorf("wire[1] = %+v, want assistant block message", wire[1])
	}
	if wire[2].Role != "user" || !wire[2].Content.IsBlocks() {
		t.Errorf("wire[2] = %+v, want tool_result user message", wire[2])
	}
}

func TestCancelCommitsPartialOutput(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")
	m.ApplyChunk("0123456789") // exactly 10 characters

	m.CancelStream()

	if m.Streaming {
		t.Error("Streaming still set after cancel")
	}
	rec := m.Conv.Snapshot()
	if len(rec.Messages) != 2 {
		t.Fatalf("record = %d messages, want user + partial assistant", len(rec.Messages))
	}
	if rec.Messages[1].Content != "0123456789" {
		t.Errorf("partial = %q, want the exact 10 characters", rec.Messages[1].Content)
	}
	// One assistant entry, no duplicated placeholder.
	assistants := 0
	for _, e := range m.Conv.Entries {
		if e.Role == "assistant" {
			assistants++
		}
	}
	if assistants != 1 {
		t.Errorf("assistant entries = %d, want 1", assistants)
	}
}

func TestCancelWithEmptyBufferDropsPlaceholder(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")
	m.CancelStream()

	if len(m.Conv.Entries) != 1 {
		t.Fatalf("entries = %d, want only the user message", len(m.Conv.Entries))
	}
	if len(m.Conv.Snapshot().Messages) != 1 {
		t.Error("empty placeholder reached the record")
	}
}

func TestStaleEventsAfterCancel(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")
	staleTurn := m.Turn
	m.CancelStream()

	m.Send("next question")
	if m.Turn == staleTurn {
		t.Fatal("new turn reused the cancelled turn id")
	}
}

func TestEditLastRemovesPair(t *testing.T) {
	m := newTestModel(t)
	m.Send("first")
	m.ApplyChunk("answer one")
	m.FinishTurn()
	m.Send("second")
	m.ApplyChunk("answer two")
	m.FinishTurn()

	text, err := m.EditLast()
	if err != nil {
		t.Fatalf("EditLast() error = %v", err)
	}
	if text != "second" {
		t.Errorf("EditLast() = %q", text)
	}
	if len(m.Conv.Entries) != 2 {
		t.Errorf("entries = %d, want the first pair only", len(m.Conv.Entries))
	}
	if len(m.Conv.Wire) != 2 {
		t.Errorf("wire = %d, want the first pair only", len(m.Conv.Wire))
	}
}

func TestEditLastWhileStreamingFails(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")

	if _, err := m.EditLast(); err != ErrStillStreaming {
		t.Fatalf("EditLast() error = %v, want ErrStillStreaming", err)
	}
}

func TestEditLastWithoutUserMessage(t *testing.T) {
	m := newTestModel(t)
	if _, err := m.EditLast(); err != ErrNoUserMessage {
		t.Fatalf("EditLast() error = %v, want ErrNoUserMessage", err)
	}
}

func TestFailTurnPreservesPartialOutput(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")
	m.ApplyChunk("partial")
	m.FailTurn()

	if m.Conv.Entries[1].Content != "partial" {
		t.Errorf("partial output lost: %+v", m.Conv.Entries[1])
	}

	// An error before any output removes the placeholder entirely.
	m2 := newTestModel(t)
	m2.Send("hello")
	m2.FailTurn()
	if len(m2.Conv.Entries) != 1 {
		t.Errorf("entries = %d, want placeholder dropped", len(m2.Conv.Entries))
	}
}

func TestToolResolutionRoundTrip(t *testing.T) {
	m := newTestModel(t)
	m.ToolsEnabled = true
	m.Send("list my files")
	m.ApplyChunk("Let me check.")

	raw := []byte(`{"content":[
		{"type":"text","text":"Let me check."},
		{"type":"tool_use","id":"toolu_1","name":"list_files","input":{"path":"."}}
	]}`)

	started, err := m.BeginToolResolution(raw)
	if err != nil {
		t.Fatalf("BeginToolResolution() error = %v", err)
	}
	if !started {
		t.Fatal("BeginToolResolution() found no calls")
	}

	// The raw assistant blocks joined the wire history verbatim.
	tail := m.Conv.Wire[len(m.Conv.Wire)-1]
	if tail.Role != "assistant" || !tail.Content.IsBlocks() {
		t.Fatalf("wire tail = %+v, want assistant block message", tail)
	}

	// list_files is read-only, so the step auto-executes.
	out := m.StepTools()
	if !out.Done {
		t.Fatalf("StepTools() outcome = %+v, want done", out)
	}
	if invs := m.Conv.Entries[1].Invocations; len(invs) != 1 || invs[0].ToolName != "list_files" {
		t.Errorf("invocations = %+v", m.Conv.Entries[1].Invocations)
	}

	cmd, err := m.ContinueAfterTools()
	if err != nil {
		t.Fatalf("ContinueAfterTools() error = %v", err)
	}
	if cmd == nil {
		t.Fatal("ContinueAfterTools() returned no command")
	}

	// One tool_result user message follows the assistant block message,
	// and a fresh placeholder is open for the continuation.
	tail = m.Conv.Wire[len(m.Conv.Wire)-1]
	if tail.Role != "user" || !tail.Content.IsBlocks() || len(tail.Content.Blocks) != 1 {
		t.Fatalf("wire tail = %+v, want one tool_result block", tail)
	}
	last := m.Conv.Entries[len(m.Conv.Entries)-1]
	if last.Role != "assistant" || last.Content != "" {
		t.Errorf("trailing entry = %+v, want fresh placeholder", last)
	}
}

func TestBeginToolResolutionTextFromPayload(t *testing.T) {
	m := newTestModel(t)
	m.ToolsEnabled = true
	m.Send("list my files")
	// No chunks preceded the payload; the text blocks fill the entry.

	raw := []byte(`{"content":[
		{"type":"text","text":"Checking now."},
		{"type":"tool_use","id":"toolu_1","name":"list_files","input":{"path":"."}}
	]}`)
	started, err := m.BeginToolResolution(raw)
	if err != nil || !started {
		t.Fatalf("BeginToolResolution() = %v, %v", started, err)
	}
	if got := m.Conv.Entries[1].Content; got != "Checking now." {
		t.Errorf("entry content = %q, want the payload text", got)
	}
}

func TestBeginToolResolutionWithoutCalls(t *testing.T) {
	m := newTestModel(t)
	m.Send("hello")
	m.ApplyChunk("plain answer")

	started, err := m.BeginToolResolution([]byte(`{"content":[{"type":"text","text":"plain answer"}]}`))
	if err != nil {
		t.Fatalf("BeginToolResolution() error = %v", err)
	}
	if started {
		t.Error("payload without tool_use must not start resolution")
	}
}

func TestSnapshotDerivesTitle(t *testing.T) {
	m := newTestModel(t)
	m.Send("what is a goroutine?")
	m.ApplyChunk("a lightweight thread")
	m.FinishTurn()

	rec := m.Conv.Snapshot()
	if rec.Title != "what is a goroutine?" {
		t.Errorf("Title = %q", rec.Title)
	}
}
