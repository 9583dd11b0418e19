package model

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teddytennant/Pro-Chat/config"
	"github.com/teddytennant/Pro-Chat/provider"
	"github.com/teddytennant/Pro-Chat/storage"
	"github.com/teddytennant/Pro-Chat/tools"
)

// Model holds the core application state: the conversation views, the
// in-flight stream, and the tool-use machinery. It is owned by the event
// coordinator; nothing else mutates it.
type Model struct {
	// Core dependencies
	Config      *config.Config
	Streamer    provider.Streamer
	Store       *storage.ConversationStore
	SearchIndex *storage.SearchIndex

	// Application data
	Conv *Conversation

	// Tool-use machinery
	Permissions  *tools.PermissionTable
	Executor     *tools.Executor
	Orchestrator *tools.Orchestrator
	ToolsEnabled bool

	// Runtime state (not UI)
	Streaming    bool
	Session      StreamSession
	Turn         int
	LastTurnTime time.Duration
	Quitting     bool

	events       chan provider.Event
	cancelStream context.CancelFunc
}

// NewModel wires a Model from its dependencies, resuming the given
// conversation record when non-nil.
func NewModel(cfg *config.Config, streamer provider.Streamer, store *storage.ConversationStore, index *storage.SearchIndex, resume *storage.Conversation) *Model {
	conv := NewConversationState()
	if resume != nil {
		conv = LoadRecord(resume)
	}

	permissions := tools.NewPermissionTable()
	executor := tools.NewExecutor()
	if cfg.CommandTimeoutSecs > 0 {
		executor.SetCommandTimeout(time.Duration(cfg.CommandTimeoutSecs) * time.Second)
	}

	return &Model{
		Config:       cfg,
		Streamer:     streamer,
		Store:        store,
		SearchIndex:  index,
		Conv:         conv,
		Permissions:  permissions,
		Executor:     executor,
		Orchestrator: tools.NewOrchestrator(permissions, executor),
	}
}

// Send starts a new turn with the given user text. Blank input is a silent
// no-op: no view is touched and no call is spawned.
func (m *Model) Send(text string) (tea.Cmd, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	if m.Streaming {
		return nil, ErrStillStreaming
	}
	if m.Config.APIKey() == "" {
		return nil, ErrNoAPIKey
	}

	m.Conv.AppendUser(text)
	m.beginTurn()
	return m.startProviderCall(), nil
}

// Retry discards the last assistant reply and reissues the call with the
// existing history. Preconditions are checked before any view is touched.
func (m *Model) Retry() (tea.Cmd, error) {
	if m.Streaming {
		return nil, ErrStillStreaming
	}
	if m.Config.APIKey() == "" {
		return nil, ErrNoAPIKey
	}
	if err := m.Conv.RemoveLastAssistant(); err != nil {
		return nil, err
	}

	m.beginTurn()
	return m.startProviderCall(), nil
}

// EditLast pulls the last user message out of the conversation for
// re-editing, removing its reply with it.
func (m *Model) EditLast() (string, error) {
	if m.Streaming {
		return "", ErrStillStreaming
	}
	return m.Conv.TakeLastUserMessage()
}

// beginTurn opens the assistant placeholder and a fresh stream session
// under a new turn id.
func (m *Model) beginTurn() {
	m.Conv.AppendAssistantPlaceholder()
	m.Turn++
	m.Streaming = true
	m.Session = StreamSession{StartTime: time.Now()}
}

// ApplyChunk folds one streamed chunk into the session and transcript.
func (m *Model) ApplyChunk(chunk string) {
	m.Session.Append(chunk)
	m.Conv.SetStreamText(m.Session.Buffer)
}

// FinishTurn commits a completed turn: the accumulated text becomes the
// final assistant message and the conversation is persisted immediately.
func (m *Model) FinishTurn() tea.Cmd {
	m.Streaming = false
	m.LastTurnTime = m.Session.Elapsed()
	m.Orchestrator.Reset()

	if m.Session.Buffer != "" {
		m.Conv.CommitAssistant(m.Session.Buffer)
	} else {
		m.Conv.DropEmptyPlaceholder()
	}
	m.Session = StreamSession{}
	return m.saveCmd()
}

// FailTurn aborts the current turn on a transport or protocol error.
// Partial output already streamed is preserved only when non-empty.
func (m *Model) FailTurn() tea.Cmd {
	m.Streaming = false
	m.Orchestrator.Reset()

	var cmd tea.Cmd
	if m.Session.Buffer != "" {
		m.Conv.CommitAssistant(m.Session.Buffer)
		cmd = m.saveCmd()
	} else {
		m.Conv.DropEmptyPlaceholder()
	}
	m.Session = StreamSession{}
	return cmd
}

// CancelStream cooperatively cancels the in-flight turn. Accumulated
// partial output is committed as a final assistant message.
func (m *Model) CancelStream() tea.Cmd {
	if !m.Streaming {
		return nil
	}
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}
	return m.FailTurn()
}

// BeginToolResolution handles a tool-use payload: the raw response is
// appended verbatim to the wire history so tool_use ids stay resolvable,
// the streamed text is fixed into the open entry, and the orchestrator
// takes over. Returns false if the payload contains no tool calls, in
// which case the caller finishes the turn normally.
func (m *Model) BeginToolResolution(raw []byte) (bool, error) {
	calls := tools.ParseCalls(raw)
	if len(calls) == 0 {
		return false, nil
	}

	if err := m.Conv.AppendRawAssistantBlocks(raw); err != nil {
		return false, err
	}
	// The payload itself is the authoritative source of the reply text;
	// fall back to it when no chunks preceded the tool calls.
	text := m.Session.Buffer
	if text == "" {
		text = strings.Join(tools.TextBlocks(raw), "\n")
	}
	m.Conv.SetStreamText(text)
	m.Session.Buffer = ""
	m.Orchestrator.Begin(calls)
	return true, nil
}

// StepTools advances the orchestrator, attaching any produced invocations
// to the transcript.
func (m *Model) StepTools() tools.StepOutcome {
	out := m.Orchestrator.Step()
	for _, inv := range out.Invocations {
		m.Conv.AddInvocation(inv)
	}
	return out
}

// ResolveTool applies the user's confirmation decision and resumes.
func (m *Model) ResolveTool(d tools.Decision) tools.StepOutcome {
	out := m.Orchestrator.Resolve(d)
	for _, inv := range out.Invocations {
		m.Conv.AddInvocation(inv)
	}
	return out
}

// ContinueAfterTools sends all tool results back and issues the
// continuation call under the same turn.
func (m *Model) ContinueAfterTools() (tea.Cmd, error) {
	blocks, err := m.Orchestrator.ResultBlocks()
	if err != nil {
		return nil, err
	}
	m.Orchestrator.Reset()

	m.Conv.AppendToolResultBlocks(blocks)
	m.Conv.AppendAssistantPlaceholder()
	m.Session.Buffer = ""
	return m.startProviderCall(), nil
}

// Save persists the conversation immediately instead of waiting for the
// turn to complete.
func (m *Model) Save() tea.Cmd {
	if len(m.Conv.Entries) == 0 {
		return nil
	}
	return m.saveCmd()
}

// NewConversation persists the current chat and starts a fresh one.
func (m *Model) NewConversation() tea.Cmd {
	var save tea.Cmd
	if len(m.Conv.Entries) > 0 {
		save = m.saveCmd()
	}
	m.Conv.Clear()
	m.Turn++ // orphan any in-flight events
	m.Streaming = false
	m.Session = StreamSession{}
	m.Orchestrator.Reset()
	return save
}

// LoadConversation swaps in a persisted conversation.
func (m *Model) LoadConversation(rec *storage.Conversation) {
	m.Conv = LoadRecord(rec)
	m.Turn++
	m.Streaming = false
	m.Session = StreamSession{}
	m.Orchestrator.Reset()
	m.Config.LastConversationID = rec.ID
	m.Config.Save()
}

// SetStreamer swaps the active provider client, for /provider and /model.
func (m *Model) SetStreamer(s provider.Streamer) {
	m.Streamer = s
}

// saveCmd snapshots and persists the conversation off the update loop,
// indexing it for search as a side effect.
func (m *Model) saveCmd() tea.Cmd {
	rec := m.Conv.Snapshot()
	store := m.Store
	index := m.SearchIndex
	cfg := m.Config
	return func() tea.Msg {
		if err := store.Save(rec); err != nil {
			return ConversationSavedMsg{Err: err}
		}
		if index != nil {
			if err := index.Index(rec); err != nil && config.Debug {
				config.DebugLog.Printf("[Model] search index update failed: %v", err)
			}
		}
		if cfg.LastConversationID != rec.ID {
			cfg.LastConversationID = rec.ID
			cfg.Save()
		}
		return ConversationSavedMsg{}
	}
}
