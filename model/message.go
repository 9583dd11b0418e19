package model

import (
	"time"

	"github.com/teddytennant/Pro-Chat/tools"
)

// ChatEntry represents one message in the displayed transcript. It carries
// UI-only state (tool invocations, collapse flags) that never reaches the
// wire history.
type ChatEntry struct {
	Role        string
	Content     string
	Rendered    string // cached rendered markdown
	Timestamp   time.Time
	Invocations []tools.Invocation
}

// StreamSession is the scratch state of one in-flight assistant turn.
type StreamSession struct {
	Buffer    string
	StartTime time.Time
}

// Append accumulates one chunk of streamed text.
func (s *StreamSession) Append(chunk string) {
	s.Buffer += chunk
}

// Elapsed reports how long the turn has been running.
func (s *StreamSession) Elapsed() time.Duration {
	return time.Since(s.StartTime)
}
