package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teddytennant/Pro-Chat/tools"
)

// handleToolPayload starts tool resolution for a tool-use response. A
// payload with no tool calls just finishes the turn as a plain reply.
func (a AppView) handleToolPayload(raw []byte) (AppView, tea.Cmd) {
	started, err := a.dataModel.BeginToolResolution(raw)
	if err != nil {
		cmd := a.dataModel.FailTurn()
		a.statusMessage = ErrStyle.Render(fmt.Sprintf("malformed tool response: %v", err))
		a.updateViewportContent(true)
		return a, cmd
	}
	if !started {
		return a.finishCurrentTurn()
	}
	return a.applyToolOutcome(a.dataModel.StepTools())
}

// handleToolConfirmKey consumes exactly one decision for the pending
// confirmation: y allow once, a always allow, n deny once, d deny always.
func (a AppView) handleToolConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var decision tools.Decision
	switch msg.String() {
	case "ctrl+c":
		a.dataModel.Quitting = true
		cmd := a.dataModel.CancelStream()
		return a, tea.Sequence(cmdOrNoop(cmd), tea.Quit)
	case "y", "enter":
		decision = tools.AllowOnce
	case "a":
		decision = tools.AllowAlways
	case "n", "esc":
		decision = tools.DenyOnce
	case "d":
		decision = tools.DenyAlways
	default:
		return a, nil
	}

	a.toolConfirm = nil
	return a.applyToolOutcome(a.dataModel.ResolveTool(decision))
}

// applyToolOutcome advances the UI after an orchestrator step: surface the
// next confirmation, or send results back and continue the turn.
func (a AppView) applyToolOutcome(out tools.StepOutcome) (AppView, tea.Cmd) {
	a.updateViewportContent(true)

	if out.Pending != nil {
		a.toolConfirm = out.Pending
		return a, nil
	}
	if !out.Done {
		return a, nil
	}

	cmd, err := a.dataModel.ContinueAfterTools()
	if err != nil {
		failCmd := a.dataModel.FailTurn()
		a.statusMessage = ErrStyle.Render(fmt.Sprintf("tool continuation failed: %v", err))
		return a, failCmd
	}
	a.updateViewportContent(true)
	return a, tea.Batch(cmd, spinnerTick())
}
