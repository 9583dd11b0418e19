package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teddytennant/Pro-Chat/config"
	appmodel "github.com/teddytennant/Pro-Chat/model"
)

// handleStreamingMessage folds provider events into the conversation.
// Every message carries the turn it belongs to; events from a cancelled or
// superseded turn are dropped without re-arming that turn's pump.
func (a AppView) handleStreamingMessage(msg tea.Msg) (AppView, tea.Cmd) {
	switch msg := msg.(type) {
	case appmodel.StreamChunkMsg:
		if msg.Turn != a.dataModel.Turn {
			return a.dropStale("chunk", msg.Turn)
		}
		a.dataModel.ApplyChunk(msg.Chunk)
		a.updateViewportContent(true)
		return a, a.dataModel.ListenCmd(msg.Turn)

	case appmodel.StreamDoneMsg:
		if msg.Turn != a.dataModel.Turn {
			return a.dropStale("done", msg.Turn)
		}
		return a.finishCurrentTurn()

	case appmodel.StreamErrorMsg:
		if msg.Turn != a.dataModel.Turn {
			return a.dropStale("error", msg.Turn)
		}
		cmd := a.dataModel.FailTurn()
		a.statusMessage = ErrStyle.Render(msg.Message)
		a.updateViewportContent(true)
		return a, cmd

	case appmodel.ToolPayloadMsg:
		if msg.Turn != a.dataModel.Turn {
			return a.dropStale("tool payload", msg.Turn)
		}
		return a.handleToolPayload(msg.Raw)

	case appmodel.StreamClosedMsg:
		// The producer exited. Normally a terminal event already ended the
		// turn; this only matters if the stream died silently.
		if msg.Turn == a.dataModel.Turn && a.dataModel.Streaming && !a.dataModel.Orchestrator.Active() && a.toolConfirm == nil {
			return a.finishCurrentTurn()
		}
		return a, nil
	}

	return a, nil
}

func (a AppView) finishCurrentTurn() (AppView, tea.Cmd) {
	entryIndex := len(a.dataModel.Conv.Entries) - 1
	content := a.dataModel.Session.Buffer

	cmds := []tea.Cmd{a.dataModel.FinishTurn()}
	if content != "" {
		cmds = append(cmds, a.renderMarkdownAsync(entryIndex, content))
	}
	if a.dataModel.Config.NotifyOnComplete {
		fmt.Print("\a")
	}

	a.statusMessage = ""
	a.updateViewportContent(true)
	return a, tea.Batch(cmds...)
}

func (a AppView) dropStale(kind string, turn int) (AppView, tea.Cmd) {
	if config.Debug {
		config.DebugLog.Printf("[UI] dropping stale %s event from turn %d (current %d)", kind, turn, a.dataModel.Turn)
	}
	return a, nil
}
