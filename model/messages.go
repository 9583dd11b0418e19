package model

import "github.com/teddytennant/Pro-Chat/storage"

// Stream messages carry the turn they belong to so the coordinator can
// discard events from a cancelled turn that arrive late.

type StreamChunkMsg struct {
	Turn  int
	Chunk string
}

type StreamDoneMsg struct {
	Turn int
}

type StreamErrorMsg struct {
	Turn    int
	Message string
}

// ToolPayloadMsg carries the raw tool-enabled response body for parsing.
type ToolPayloadMsg struct {
	Turn int
	Raw  []byte
}

// StreamClosedMsg signals that the producer goroutine has exited and the
// event channel is drained.
type StreamClosedMsg struct {
	Turn int
}

type ConversationSavedMsg struct {
	Err error
}

type ConversationListMsg struct {
	Conversations []storage.ConversationMetadata
	Err           error
}

type ConversationLoadedMsg struct {
	Conversation *storage.Conversation
	Err          error
}

type SearchResultsMsg struct {
	Query   string
	Matches []storage.MessageMatch
	Err     error
}

type MarkdownRenderedMsg struct {
	EntryIndex int
	Rendered   string
}

type SpinnerTickMsg struct{}

type ClipboardWrittenMsg struct {
	Err error
}
