package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/teddytennant/Pro-Chat/provider"
	"github.com/teddytennant/Pro-Chat/storage"
	"github.com/teddytennant/Pro-Chat/tools"
)

var (
	// ErrNoAPIKey means credentials for the active provider are unresolved.
	ErrNoAPIKey = errors.New("no API key configured")
	// ErrStillStreaming rejects mutations while a turn is in flight.
	ErrStillStreaming = errors.New("a response is still streaming")
	// ErrNoAssistantMessage means there is no assistant message to retry.
	ErrNoAssistantMessage = errors.New("no assistant message to retry")
	// ErrNoUserMessage means there is no user message to resend or edit.
	ErrNoUserMessage = errors.New("no user message")
)

// Conversation owns the two live message views: the displayed transcript
// (Entries) and the protocol-shaped wire history (Wire). The persisted
// record is derived from Entries at save time rather than maintained as a
// third independently-mutated structure, so the views cannot drift.
//
// Every mutation goes through a named operation here; no caller updates
// one view without the others.
type Conversation struct {
	Entries []ChatEntry
	Wire    []provider.Message
	Record  *storage.Conversation
}

// NewConversationState creates empty views over a fresh record.
func NewConversationState() *Conversation {
	return &Conversation{Record: storage.NewConversation()}
}

// LoadRecord rebuilds both views from a persisted conversation.
func LoadRecord(rec *storage.Conversation) *Conversation {
	c := &Conversation{Record: rec}
	for _, msg := range rec.Messages {
		c.Entries = append(c.Entries, ChatEntry{
			Role:      msg.Role,
			Content:   msg.Content,
			Timestamp: msg.Timestamp,
		})
		switch msg.Role {
		case "user":
			c.Wire = append(c.Wire, provider.UserText(msg.Content))
		case "assistant":
			c.Wire = append(c.Wire, provider.AssistantText(msg.Content))
		}
	}
	return c
}

// Clear resets both views over a fresh record.
func (c *Conversation) Clear() {
	c.Entries = nil
	c.Wire = nil
	c.Record = storage.NewConversation()
}

// AppendUser adds a user message to both views.
func (c *Conversation) AppendUser(text string) {
	c.Entries = append(c.Entries, ChatEntry{
		Role:      "user",
		Content:   text,
		Timestamp: time.Now(),
	})
	c.Wire = append(c.Wire, provider.UserText(text))
}

// AppendAssistantPlaceholder opens an empty assistant entry in the
// transcript only; the wire history gets the assistant message when the
// turn commits.
func (c *Conversation) AppendAssistantPlaceholder() {
	c.Entries = append(c.Entries, ChatEntry{
		Role:      "assistant",
		Timestamp: time.Now(),
	})
}

// SetStreamText updates the open assistant entry with accumulated text.
func (c *Conversation) SetStreamText(text string) {
	if last := c.lastEntry(); last != nil && last.Role == "assistant" {
		last.Content = text
		last.Rendered = ""
	}
}

// CommitAssistant finalizes the open assistant entry and appends the full
// text to the wire history.
func (c *Conversation) CommitAssistant(text string) {
	c.SetStreamText(text)
	c.Wire = append(c.Wire, provider.AssistantText(text))
}

// DropEmptyPlaceholder removes a trailing assistant entry that never
// received text, used when a turn errors or is cancelled before any output.
func (c *Conversation) DropEmptyPlaceholder() {
	last := c.lastEntry()
	if last != nil && last.Role == "assistant" && last.Content == "" && len(last.Invocations) == 0 {
		c.Entries = c.Entries[:len(c.Entries)-1]
	}
}

// RemoveLastAssistant drops the trailing assistant message from both views
// in preparation for a retry. The wire history is scanned in reverse for
// its last assistant message, which is not necessarily the tail when tool
// blocks are present.
func (c *Conversation) RemoveLastAssistant() error {
	last := c.lastEntry()
	if last == nil || last.Role != "assistant" {
		return ErrNoAssistantMessage
	}
	c.Entries = c.Entries[:len(c.Entries)-1]

	for i := len(c.Wire) - 1; i >= 0; i-- {
		if c.Wire[i].Role != "assistant" {
			continue
		}
		end := i + 1
		// A block-form assistant message carries tool_use ids; tool_result
		// messages after it would reference ids that no longer exist once it
		// is removed, so they are removed with it.
		if c.Wire[i].Content.IsBlocks() {
			for end < len(c.Wire) && c.Wire[end].Role == "user" && c.Wire[end].Content.IsBlocks() {
				end++
			}
		}
		c.Wire = append(c.Wire[:i], c.Wire[end:]...)
		break
	}
	if len(c.Wire) == 0 {
		return ErrNoUserMessage
	}
	return nil
}

// TakeLastUserMessage removes the last user message and, if one directly
// follows it, its assistant reply, from both views. The removed user text
// is returned for the editable input buffer.
func (c *Conversation) TakeLastUserMessage() (string, error) {
	userIdx := -1
	for i := len(c.Entries) - 1; i >= 0; i-- {
		if c.Entries[i].Role == "user" {
			userIdx = i
			break
		}
	}
	if userIdx < 0 {
		return "", ErrNoUserMessage
	}
	text := c.Entries[userIdx].Content

	end := userIdx + 1
	if end < len(c.Entries) && c.Entries[end].Role == "assistant" {
		end++
	}
	c.Entries = append(c.Entries[:userIdx], c.Entries[end:]...)

	// Everything on the wire after the last plain-text user message,
	// including any tool blocks, belongs to its reply; truncate from there.
	for i := len(c.Wire) - 1; i >= 0; i-- {
		if c.Wire[i].Role == "user" && !c.Wire[i].Content.IsBlocks() {
			c.Wire = c.Wire[:i]
			break
		}
	}

	return text, nil
}

// AppendRawAssistantBlocks appends a tool-use response's content array
// verbatim as a wire assistant message, keeping provider-side tool_use ids
// resolvable on the continuation call.
func (c *Conversation) AppendRawAssistantBlocks(raw []byte) error {
	var resp struct {
		Content []json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return err
	}
	c.Wire = append(c.Wire, provider.Message{
		Role:    "assistant",
		Content: provider.BlockContent(resp.Content),
	})
	return nil
}

// AppendToolResultBlocks appends the tool_result blocks as one wire user
// message, immediately following the assistant message with the matching
// tool_use ids.
func (c *Conversation) AppendToolResultBlocks(blocks []json.RawMessage) {
	c.Wire = append(c.Wire, provider.Message{
		Role:    "user",
		Content: provider.BlockContent(blocks),
	})
}

// AddInvocation attaches a resolved tool invocation to the open assistant
// entry.
func (c *Conversation) AddInvocation(inv tools.Invocation) {
	if last := c.lastEntry(); last != nil && last.Role == "assistant" {
		last.Invocations = append(last.Invocations, inv)
	}
}

// Snapshot projects the transcript into the persisted record: role and
// plain text only, open placeholders skipped. The title is derived from
// the first user message once one exists.
func (c *Conversation) Snapshot() *storage.Conversation {
	msgs := make([]storage.ConversationMessage, 0, len(c.Entries))
	for _, entry := range c.Entries {
		if entry.Content == "" && len(entry.Invocations) == 0 {
			continue
		}
		msgs = append(msgs, storage.ConversationMessage{
			Role:      entry.Role,
			Content:   entry.Content,
			Timestamp: entry.Timestamp,
		})
	}
	c.Record.Messages = msgs

	if c.Record.Title == "New conversation" {
		for _, entry := range c.Entries {
			if entry.Role == "user" && strings.TrimSpace(entry.Content) != "" {
				c.Record.Title = storage.TitleFromMessage(entry.Content)
				break
			}
		}
	}
	return c.Record
}

func (c *Conversation) lastEntry() *ChatEntry {
	if len(c.Entries) == 0 {
		return nil
	}
	return &c.Entries[len(c.Entries)-1]
}
