// Package provider implements the wire protocols of the supported LLM
// providers and normalizes both into one event stream.
//
// Pro-Chat talks to two wire formats: the Anthropic Messages API and the
// OpenAI-compatible chat-completions API. Both are decoded here, line by
// line, into the same four events (Chunk, Done, Error, ToolPayload) so the
// rest of the application never sees provider-specific framing.
//
// # Architecture
//
//   - provider.Streamer defines the contract (interface)
//   - provider.Anthropic implements the Messages API (SSE + buffered tool mode)
//   - provider.OpenAI implements chat completions (always SSE)
//   - provider.New() factory creates a streamer from a provider name
//
// A Streamer has no access to conversation state; its only side effect is
// emitting events on the channel it is given.
package provider

import (
	"context"
	"encoding/json"
	"fmt"
)

// EventKind discriminates the normalized stream events.
type EventKind int

const (
	// EventChunk carries one increment of assistant text.
	EventChunk EventKind = iota
	// EventDone marks the end of a successful turn.
	EventDone
	// EventError carries a transport or protocol failure; it terminates the
	// turn, no further events follow.
	EventError
	// EventToolPayload carries the raw response body of a tool-use turn for
	// the orchestrator to parse. It terminates adapter output for this call.
	EventToolPayload
)

// Event is one normalized item of provider output.
type Event struct {
	Kind EventKind
	Text string // EventChunk
	Err  string // EventError
	Raw  []byte // EventToolPayload: the full JSON response body
}

// Request is everything a provider call needs, captured at spawn time so the
// streaming goroutine never aliases coordinator-owned state.
type Request struct {
	Model       string
	System      string
	MaxTokens   int
	Temperature float64
	Messages    []Message
	// Tools holds the tool-definition JSON array for tool-enabled calls.
	// nil means a plain streamed call.
	Tools json.RawMessage
}

// Streamer issues one provider call and emits normalized events.
//
// A terminal event (Done, Error, ToolPayload) is always emitted before
// Stream returns, unless the context is cancelled or Stream returns a
// non-nil error; callers turn a returned error into exactly one EventError.
type Streamer interface {
	Stream(ctx context.Context, req Request, events chan<- Event) error
	Name() string
}

// New creates a streamer for the named provider.
func New(name, apiKey string) (Streamer, error) {
	switch name {
	case "anthropic":
		return NewAnthropic(apiKey), nil
	case "openai":
		return NewOpenAI(apiKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q (supported: anthropic, openai)", name)
	}
}

// emit sends an event unless the context is already cancelled, so a
// cancelled turn can never block its goroutine on a full channel.
func emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
