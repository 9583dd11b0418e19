// Package testutil provides mock streamers and fixtures for provider and
// coordinator tests.
package testutil

import (
	"context"

	"github.com/teddytennant/Pro-Chat/provider"
)

// MockStreamer implements provider.Streamer for testing
type MockStreamer struct {
	// StreamFunc overrides the default scripted behavior when set
	StreamFunc func(ctx context.Context, req provider.Request, events chan<- provider.Event) error

	// Script is emitted event-by-event by the default behavior
	Script []provider.Event

	// LastRequest records the most recent request for assertions
	LastRequest provider.Request
}

// NewMockStreamer creates a mock that streams the given text as one chunk
// followed by a Done event.
func NewMockStreamer(text string) *MockStreamer {
	return &MockStreamer{
		Script: []provider.Event{
			{Kind: provider.EventChunk, Text: text},
			{Kind: provider.EventDone},
		},
	}
}

// NewScriptedStreamer creates a mock emitting exactly the given events.
func NewScriptedStreamer(events ...provider.Event) *MockStreamer {
	return &MockStreamer{Script: events}
}

func (m *MockStreamer) Name() string { return "mock" }

func (m *MockStreamer) Stream(ctx context.Context, req provider.Request, events chan<- provider.Event) error {
	m.LastRequest = req
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, req, events)
	}
	for _, ev := range m.Script {
		select {
		case events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// SingleUserMessage builds a one-message history for tests.
func SingleUserMessage(text string) []provider.Message {
	return []provider.Message{provider.UserText(text)}
}

// Collect drains a streamer's full event output into a slice.
func Collect(ctx context.Context, s provider.Streamer, req provider.Request) ([]provider.Event, error) {
	events := make(chan provider.Event, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Stream(ctx, req, events)
		close(events)
	}()

	var out []provider.Event
	for ev := range events {
		out = append(out, ev)
	}
	return out, <-errCh
}
