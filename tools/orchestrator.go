package tools

import (
	"encoding/json"
	"fmt"
)

// Decision is the user's answer to a tool confirmation prompt.
type Decision int

const (
	// AllowOnce runs the current call without changing the table.
	AllowOnce Decision = iota
	// AllowAlways writes AutoAllow for the tool, then runs the call.
	AllowAlways
	// DenyOnce rejects the current call without changing the table.
	DenyOnce
	// DenyAlways writes Deny for the tool, then rejects the call.
	DenyAlways
)

// Confirmation is a pending permission prompt surfaced to the UI. Exactly
// one is shown at a time; the orchestrator stays suspended until Resolve.
type Confirmation struct {
	ToolName string
	Args     string
}

// StepOutcome reports the progress of one orchestrator advance.
type StepOutcome struct {
	// Invocations produced by this step, in call order, for display.
	Invocations []Invocation
	// Pending is non-nil when the orchestrator suspended on a confirmation.
	Pending *Confirmation
	// Done is true once every pending call has a result.
	Done bool
}

// Orchestrator sequences one tool-use turn: it walks the parsed calls in
// provider order, consults the permission table per call, runs or rejects
// each, and builds the tool_result blocks for the continuation request.
//
// It is owned by the event coordinator and never called concurrently.
type Orchestrator struct {
	table *PermissionTable
	exec  *Executor

	calls   []Call
	results []*Result // indexed alongside calls; nil means unresolved
	index   int
}

// NewOrchestrator creates an orchestrator over the given permission table
// and executor. The table is shared with the coordinator so runtime policy
// changes persist for the session.
func NewOrchestrator(table *PermissionTable, exec *Executor) *Orchestrator {
	return &Orchestrator{table: table, exec: exec}
}

// Active reports whether a tool-use turn is in flight.
func (o *Orchestrator) Active() bool {
	return len(o.calls) > 0
}

// Begin starts resolving a parsed call list. Any previous pending state is
// discarded.
func (o *Orchestrator) Begin(calls []Call) {
	o.calls = calls
	o.results = make([]*Result, len(calls))
	o.index = 0
}

// Reset clears all pending-call state, used on cancel and turn completion.
func (o *Orchestrator) Reset() {
	o.calls = nil
	o.results = nil
	o.index = 0
}

// Step advances through pending calls until it either suspends on an
// AskFirst confirmation or resolves every call.
func (o *Orchestrator) Step() StepOutcome {
	var out StepOutcome

	for o.index < len(o.calls) {
		call := o.calls[o.index]

		switch o.table.Get(call.Tool.Name()) {
		case AutoAllow:
			out.Invocations = append(out.Invocations, o.runCurrent())
		case Deny:
			out.Invocations = append(out.Invocations, o.rejectCurrent())
		default: // AskFirst
			out.Pending = &Confirmation{
				ToolName: call.Tool.Name(),
				Args:     call.Tool.Summary(),
			}
			return out
		}
	}

	out.Done = true
	return out
}

// Resolve applies the user's decision to the suspended call, then resumes
// stepping through the remainder.
func (o *Orchestrator) Resolve(d Decision) StepOutcome {
	if o.index >= len(o.calls) {
		return StepOutcome{Done: true}
	}
	call := o.calls[o.index]

	var inv Invocation
	switch d {
	case AllowAlways:
		o.table.Set(call.Tool.Name(), AutoAllow)
		inv = o.runCurrent()
	case AllowOnce:
		inv = o.runCurrent()
	case DenyAlways:
		o.table.Set(call.Tool.Name(), Deny)
		inv = o.rejectCurrent()
	default: // DenyOnce
		inv = o.rejectCurrent()
	}

	out := o.Step()
	out.Invocations = append([]Invocation{inv}, out.Invocations...)
	return out
}

func (o *Orchestrator) runCurrent() Invocation {
	call := o.calls[o.index]
	result := o.exec.Run(call.Tool)
	o.results[o.index] = &result
	o.index++

	return Invocation{
		ToolName:  call.Tool.Name(),
		Args:      call.Tool.Summary(),
		Result:    result,
		Collapsed: countLines(result.Output) > 10,
	}
}

func (o *Orchestrator) rejectCurrent() Invocation {
	call := o.calls[o.index]
	result := Err("Tool execution denied by user")
	o.results[o.index] = &result
	o.index++

	return Invocation{
		ToolName: call.Tool.Name(),
		Args:     call.Tool.Summary(),
		Result:   result,
	}
}

// ResultBlocks builds the tool_result content blocks for the continuation
// request: one block per original call, id-matched, in call order. A call
// that somehow has no stored result falls back to a failed "Tool not
// executed" block rather than dropping the id.
func (o *Orchestrator) ResultBlocks() ([]json.RawMessage, error) {
	blocks := make([]json.RawMessage, 0, len(o.calls))
	for i, call := range o.calls {
		result := Err("Tool not executed")
		if o.results[i] != nil {
			result = *o.results[i]
		}

		block, err := json.Marshal(map[string]any{
			"type":        "tool_result",
			"tool_use_id": call.ID,
			"content":     result.Output,
			"is_error":    !result.Success,
		})
		if err != nil {
			return nil, fmt.Errorf("encoding tool_result for %s: %w", call.ID, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

func countLines(s string) int {
	if s == "" {
		return 0
	}
	n := 1
	for _, c := range s {
		if c == '\n' {
			n++
		}
	}
	return n
}
