package model

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teddytennant/Pro-Chat/config"
	"github.com/teddytennant/Pro-Chat/provider"
	"github.com/teddytennant/Pro-Chat/tools"
)

// startProviderCall spawns the network task for the current turn and
// returns the command that pumps its first event into the update loop.
//
// The request is built from copies of coordinator-owned state so the
// goroutine never aliases it. A Stream error that produced no event is
// folded into one EventError before the channel closes.
func (m *Model) startProviderCall() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelStream = cancel

	events := make(chan provider.Event, 32)
	m.events = events

	req := m.buildRequest()
	streamer := m.Streamer
	turn := m.Turn

	go func() {
		if err := streamer.Stream(ctx, req, events); err != nil {
			select {
			case events <- provider.Event{Kind: provider.EventError, Err: err.Error()}:
			case <-ctx.Done():
			}
		}
		close(events)
	}()

	if config.Debug {
		config.DebugLog.Printf("[Model] turn %d: provider call started (%s, %d messages, tools=%v)",
			turn, streamer.Name(), len(req.Messages), req.Tools != nil)
	}

	return listenEvents(turn, events)
}

// ListenCmd re-arms the event pump for the current stream. Called by the
// coordinator after it consumes each event.
func (m *Model) ListenCmd(turn int) tea.Cmd {
	return listenEvents(turn, m.events)
}

// listenEvents blocks on the captured channel for one event and converts
// it into the matching turn-tagged message.
func listenEvents(turn int, events <-chan provider.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamClosedMsg{Turn: turn}
		}
		switch ev.Kind {
		case provider.EventChunk:
			return StreamChunkMsg{Turn: turn, Chunk: ev.Text}
		case provider.EventError:
			return StreamErrorMsg{Turn: turn, Message: ev.Err}
		case provider.EventToolPayload:
			return ToolPayloadMsg{Turn: turn, Raw: ev.Raw}
		default:
			return StreamDoneMsg{Turn: turn}
		}
	}
}

// buildRequest captures the wire history and generation parameters for one
// provider call.
func (m *Model) buildRequest() provider.Request {
	messages := make([]provider.Message, len(m.Conv.Wire))
	copy(messages, m.Conv.Wire)

	req := provider.Request{
		Model:       m.Config.Model,
		System:      m.Config.SystemPrompt,
		MaxTokens:   m.Config.MaxTokens,
		Temperature: m.Config.Temperature,
		Messages:    messages,
	}
	if m.ToolsEnabled {
		req.Tools = tools.Definitions()
	}
	return req
}

// ListConversationsCmd fetches conversation metadata for the history picker.
func (m *Model) ListConversationsCmd() tea.Cmd {
	store := m.Store
	return func() tea.Msg {
		list, err := store.List()
		return ConversationListMsg{Conversations: list, Err: err}
	}
}

// LoadConversationCmd reads one conversation off the update loop.
func (m *Model) LoadConversationCmd(id string) tea.Cmd {
	store := m.Store
	return func() tea.Msg {
		rec, err := store.Load(id)
		return ConversationLoadedMsg{Conversation: rec, Err: err}
	}
}

// SearchCmd queries the cross-conversation index.
func (m *Model) SearchCmd(query string) tea.Cmd {
	index := m.SearchIndex
	return func() tea.Msg {
		if index == nil {
			return SearchResultsMsg{Query: query}
		}
		matches, err := index.Search(query)
		return SearchResultsMsg{Query: query, Matches: matches, Err: err}
	}
}
