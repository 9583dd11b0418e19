package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func collectEvents(t *testing.T, s Streamer, req Request) []Event {
	t.Helper()
	events := make(chan Event, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Stream(context.Background(), req, events)
		close(events)
	}()
	var out []Event
	for ev := range events {
		out = append(out, ev)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	return out
}

func concatChunks(events []Event) string {
	var b strings.Builder
	for _, ev := range events {
		if ev.Kind == EventChunk {
			b.WriteString(ev.Text)
		}
	}
	return b.String()
}

func countKind(events []Event, kind EventKind) int {
	n := 0
	for _, ev := range events {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}

func newAnthropicFor(url string) *Anthropic {
	p := NewAnthropic("test-key")
	p.baseURL = url
	return p
}

func TestAnthropicStreamChunks(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("x-api-key = %q, want test-key", got)
		}
		if got := r.Header.Get("anthropic-version"); got != "2023-06-01" {
			t.Errorf("anthropic-version = %q", got)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["stream"] != true {
			t.Error("plain calls must set stream=true")
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(`data: {"type":"content_block_start"}` + "\n"))
		w.Write([]byte(`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":"Hello"}}` + "\n"))
		w.Write([]byte(`data: {"type":"content_block_delta","delta":{"type":"text_delta","text":", world"}}` + "\n"))
		w.Write([]byte(`data: {"type":"message_stop"}` + "\n"))
	}))
	defer srv.Close()

	events := collectEvents(t, newAnthropicFor(srv.URL), Request{
		Model:    "claude-sonnet-4-20250514",
		Messages: []Message{UserText("hi")},
	})

	if got := concatChunks(events); got != "Hello, world" {
		t.Errorf("concatenated chunks = %q, want %q", got, "Hello, world")
	}
	if n := countKind(events, EventDone); n != 1 {
		t.Errorf("Done events = %d, want exactly 1", n)
	}
	if events[len(events)-1].Kind != EventDone {
		t.Error("Done must be the last event")
	}
}

func TestAnthropicStreamMalformedLinesSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("data: {not json at all\n"))
		w.Write([]byte(`data: {"type":"content_block_delta","delta":{"text":"ok"}}` + "\n"))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	events := collectEvents(t, newAnthropicFor(srv.URL), Request{Messages: []Message{UserText("hi")}})

	if got := concatChunks(events); got != "ok" {
		t.Errorf("chunks = %q, want %q", got, "ok")
	}
	if countKind(events, EventError) != 0 {
		t.Error("malformed lines must not produce Error events")
	}
	if countKind(events, EventDone) != 1 {
		t.Error("want exactly one Done")
	}
}

func TestAnthropicStreamEndWithoutSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`data: {"type":"content_block_delta","delta":{"text":"partial"}}` + "\n"))
		// Connection closes with no message_stop or [DONE].
	}))
	defer srv.Close()

	events := collectEvents(t, newAnthropicFor(srv.URL), Request{Messages: []Message{UserText("hi")}})

	if countKind(events, EventDone) != 1 {
		t.Error("stream end without sentinel must still yield exactly one Done")
	}
}

func TestAnthropicHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid x-api-key"}}`))
	}))
	defer srv.Close()

	events := collectEvents(t, newAnthropicFor(srv.URL), Request{Messages: []Message{UserText("hi")}})

	if len(events) != 1 || events[0].Kind != EventError {
		t.Fatalf("want exactly one Error event, got %v", events)
	}
	if !strings.Contains(events[0].Err, "API error 401") {
		t.Errorf("Err = %q, want status code included", events[0].Err)
	}
	if !strings.Contains(events[0].Err, "invalid x-api-key") {
		t.Errorf("Err = %q, want body included", events[0].Err)
	}
}

func TestAnthropicToolCallBuffered(t *testing.T) {
	respBody := `{"content":[{"type":"text","text":"Let me check."},{"type":"tool_use","id":"toolu_1","name":"read_file","input":{"path":"main.go"}}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decoding request body: %v", err)
		}
		if body["stream"] != false {
			t.Error("tool-enabled calls must set stream=false")
		}
		if _, ok := body["tools"]; !ok {
			t.Error("tool-enabled calls must carry the tools key")
		}
		w.Write([]byte(respBody))
	}))
	defer srv.Close()

	events := collectEvents(t, newAnthropicFor(srv.URL), Request{
		Messages: []Message{UserText("read main.go")},
		Tools:    json.RawMessage(`[{"name":"read_file"}]`),
	})

	if got := concatChunks(events); got != "Let me check." {
		t.Errorf("chunks = %q", got)
	}
	last := events[len(events)-1]
	if last.Kind != EventToolPayload {
		t.Fatalf("last event = %v, want ToolPayload", last.Kind)
	}
	if string(last.Raw) != respBody {
		t.Error("ToolPayload must carry the raw response body")
	}
	if countKind(events, EventDone) != 0 {
		t.Error("a tool-use turn must not emit Done")
	}
}

func TestAnthropicToolCallWithoutToolUse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[{"type":"text","text":"No tools needed."}]}`))
	}))
	defer srv.Close()

	events := collectEvents(t, newAnthropicFor(srv.URL), Request{
		Messages: []Message{UserText("hi")},
		Tools:    json.RawMessage(`[]`),
	})

	if got := concatChunks(events); got != "No tools needed." {
		t.Errorf("chunks = %q", got)
	}
	if events[len(events)-1].Kind != EventDone {
		t.Error("a tool-enabled turn with no tool_use must end with Done")
	}
}

func TestAnthropicSystemPromptTopLevel(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&captured)
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	collectEvents(t, newAnthropicFor(srv.URL), Request{
		System:   "You are terse.",
		Messages: []Message{UserText("hi")},
	})

	if captured["system"] != "You are terse." {
		t.Errorf("system = %v, want top-level field", captured["system"])
	}
	msgs, _ := captured["messages"].([]any)
	if len(msgs) != 1 {
		t.Errorf("messages = %v, system must not ride as a message", msgs)
	}
}
