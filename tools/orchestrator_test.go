package tools

import (
	"encoding/json"
	"testing"
)

func TestPermissionTableDefaults(t *testing.T) {
	table := NewPermissionTable()

	for _, name := range []string{"read_file", "list_files", "search_files"} {
		if got := table.Get(name); got != AutoAllow {
			t.Errorf("Get(%q) = %v, want AutoAllow", name, got)
		}
	}
	for _, name := range []string{"write_file", "execute", "edit_file", "anything_else"} {
		if got := table.Get(name); got != AskFirst {
			t.Errorf("Get(%q) = %v, want AskFirst", name, got)
		}
	}
}

func TestOrchestratorAutoAllowRunsImmediately(t *testing.T) {
	o := NewOrchestrator(NewPermissionTable(), NewExecutor())
	o.Begin([]Call{
		{ID: "t1", Tool: Execute{Command: "echo hi"}},
	})
	// execute defaults to AskFirst; flip it for this test
	o.table.Set("execute", AutoAllow)

	out := o.Step()
	if !out.Done {
		t.Fatal("Step() not done after auto-allowed call")
	}
	if len(out.Invocations) != 1 || !out.Invocations[0].Result.Success {
		t.Fatalf("invocations = %+v", out.Invocations)
	}
}

func TestOrchestratorAskFirstSuspends(t *testing.T) {
	o := NewOrchestrator(NewPermissionTable(), NewExecutor())
	o.Begin([]Call{
		{ID: "t1", Tool: Execute{Command: "echo hi"}},
	})

	out := o.Step()
	if out.Done {
		t.Fatal("Step() finished without confirmation")
	}
	if out.Pending == nil || out.Pending.ToolName != "execute" {
		t.Fatalf("pending = %+v", out.Pending)
	}
	if out.Pending.Args != "$ echo hi" {
		t.Errorf("Args = %q", out.Pending.Args)
	}
}

func TestOrchestratorAlwaysAllowCoversLaterCalls(t *testing.T) {
	table := NewPermissionTable()
	table.Set("search_files", AskFirst) // start with no auto-allow
	o := NewOrchestrator(table, NewExecutor())

	dir := t.TempDir()
	o.Begin([]Call{
		{ID: "t1", Tool: SearchFiles{Pattern: "x", Path: dir}},
		{ID: "t2", Tool: SearchFiles{Pattern: "y", Path: dir}},
	})

	out := o.Step()
	if out.Pending == nil {
		t.Fatal("first search_files must prompt")
	}

	// "always allow" resolves the first call AND the second without a
	// second prompt.
	out = o.Resolve(AllowAlways)
	if !out.Done {
		t.Fatalf("Resolve(AllowAlways) outcome = %+v, want Done", out)
	}
	if len(out.Invocations) != 2 {
		t.Fatalf("invocations = %d, want 2", len(out.Invocations))
	}
	if table.Get("search_files") != AutoAllow {
		t.Error("table not updated to AutoAllow")
	}
}

func TestOrchestratorDenyPolicySynthesizesFailure(t *testing.T) {
	table := NewPermissionTable()
	table.Set("execute", Deny)
	o := NewOrchestrator(table, NewExecutor())
	o.Begin([]Call{
		{ID: "t1", Tool: Execute{Command: "rm -rf /"}},
	})

	out := o.Step()
	if !out.Done {
		t.Fatal("denied call must resolve without a prompt")
	}
	inv := out.Invocations[0]
	if inv.Result.Success {
		t.Error("denied call must fail")
	}
	if inv.Result.Output != "Tool execution denied by user" {
		t.Errorf("output = %q", inv.Result.Output)
	}
}

func TestOrchestratorDenyOnceAndDenyAlways(t *testing.T) {
	table := NewPermissionTable()
	o := NewOrchestrator(table, NewExecutor())
	o.Begin([]Call{
		{ID: "t1", Tool: Execute{Command: "echo a"}},
		{ID: "t2", Tool: Execute{Command: "echo b"}},
	})

	out := o.Step()
	if out.Pending == nil {
		t.Fatal("want prompt for first execute")
	}
	out = o.Resolve(DenyOnce)
	if out.Pending == nil {
		t.Fatal("deny-once must not cover the second call")
	}
	out = o.Resolve(DenyAlways)
	if !out.Done {
		t.Fatal("want done after second decision")
	}
	if table.Get("execute") != Deny {
		t.Error("deny-always must persist in the table")
	}
}

func TestResultBlocksMatchCallIds(t *testing.T) {
	table := NewPermissionTable()
	table.Set("execute", AutoAllow)
	o := NewOrchestrator(table, NewExecutor())
	o.Begin([]Call{
		{ID: "toolu_a", Tool: Execute{Command: "echo ok"}},
		{ID: "toolu_b", Tool: Execute{Command: "exit 1"}},
	})

	if out := o.Step(); !out.Done {
		t.Fatal("want done")
	}

	blocks, err := o.ResultBlocks()
	if err != nil {
		t.Fatalf("ResultBlocks() error = %v", err)
	}
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want one per call", len(blocks))
	}

	type resultBlock struct {
		Type      string `json:"type"`
		ToolUseID string `json:"tool_use_id"`
		Content   string `json:"content"`
		IsError   bool   `json:"is_error"`
	}
	var first, second resultBlock
	json.Unmarshal(blocks[0], &first)
	json.Unmarshal(blocks[1], &second)

	if first.Type != "tool_result" || first.ToolUseID != "toolu_a" || first.IsError {
		t.Errorf("first block = %+v", first)
	}
	if second.ToolUseID != "toolu_b" || !second.IsError {
		t.Errorf("second block = %+v", second)
	}
}

func TestResultBlocksFallbackForUnresolvedCall(t *testing.T) {
	o := NewOrchestrator(NewPermissionTable(), NewExecutor())
	o.Begin([]Call{
		{ID: "toolu_x", Tool: Execute{Command: "echo hi"}},
	})
	// Never stepped; the block must still carry the id with a failure.
	blocks, err := o.ResultBlocks()
	if err != nil {
		t.Fatalf("ResultBlocks() error = %v", err)
	}

	var block struct {
		ToolUseID string `json:"tool_use_id"`
		Content   string `json:"content"`
		IsError   bool   `json:"is_error"`
	}
	json.Unmarshal(blocks[0], &block)
	if block.ToolUseID != "toolu_x" || !block.IsError || block.Content != "Tool not executed" {
		t.Errorf("block = %+v", block)
	}
}
