package provider

import (
	"encoding/json"
	"fmt"
)

// Message is one entry of the protocol-shaped history resent on every call.
// Content is either plain text or a list of provider-native blocks
// (tool_use / tool_result); the block form is opaque to everything except
// the tool orchestrator.
type Message struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// Content marshals as a JSON string when plain text and as an array when it
// holds provider blocks, which is the shape both wire protocols expect.
type Content struct {
	Text   string
	Blocks []json.RawMessage
}

// TextContent wraps plain text.
func TextContent(s string) Content {
	return Content{Text: s}
}

// BlockContent wraps provider-native content blocks.
func BlockContent(blocks []json.RawMessage) Content {
	return Content{Blocks: blocks}
}

// IsBlocks reports whether the content is in block form.
func (c Content) IsBlocks() bool {
	return c.Blocks != nil
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.Blocks != nil {
		return json.Marshal(c.Blocks)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		c.Text = s
		c.Blocks = nil
		return nil
	}
	var blocks []json.RawMessage
	if err := json.Unmarshal(data, &blocks); err == nil {
		c.Blocks = blocks
		return nil
	}
	return fmt.Errorf("message content is neither string nor block array")
}

// UserText builds a plain user message.
func UserText(s string) Message {
	return Message{Role: "user", Content: TextContent(s)}
}

// AssistantText builds a plain assistant message.
func AssistantText(s string) Message {
	return Message{Role: "assistant", Content: TextContent(s)}
}
