// Package tools implements the agentic tool layer: the closed set of tools
// the model may request, their JSON definitions, the executor that runs them
// against the local filesystem and shell, the per-tool permission table, and
// the orchestrator that sequences a tool-use turn.
package tools

import "fmt"

// Tool is the closed set of tool requests the model can make. The interface
// is sealed so dispatch is always an exhaustive type switch, never a lookup.
type Tool interface {
	// Name is the wire name used for permission checks and tool_use blocks.
	Name() string
	// Summary is a human-readable argument summary shown in confirmations.
	Summary() string

	isTool()
}

// ReadFile returns a file's contents with line numbers.
type ReadFile struct {
	Path string
}

// WriteFile writes content to a path, creating parent directories.
type WriteFile struct {
	Path    string
	Content string
}

// ListFiles lists files under a directory, optionally glob-filtered.
type ListFiles struct {
	Path    string
	Pattern string // empty means all files, recursively
}

// SearchFiles greps file contents for a regex.
type SearchFiles struct {
	Pattern string
	Path    string // empty means current directory
}

// Execute runs a shell command under sh -c.
type Execute struct {
	Command string
}

// EditFile replaces a unique occurrence of OldText with NewText.
type EditFile struct {
	Path    string
	OldText string
	NewText string
}

func (ReadFile) isTool()    {}
func (WriteFile) isTool()   {}
func (ListFiles) isTool()   {}
func (SearchFiles) isTool() {}
func (Execute) isTool()     {}
func (EditFile) isTool()    {}

func (ReadFile) Name() string    { return "read_file" }
func (WriteFile) Name() string   { return "write_file" }
func (ListFiles) Name() string   { return "list_files" }
func (SearchFiles) Name() string { return "search_files" }
func (Execute) Name() string     { return "execute" }
func (EditFile) Name() string    { return "edit_file" }

func (t ReadFile) Summary() string { return "path: " + t.Path }

func (t WriteFile) Summary() string {
	return fmt.Sprintf("path: %s (%d bytes)", t.Path, len(t.Content))
}

func (t ListFiles) Summary() string {
	if t.Pattern == "" {
		return "path: " + t.Path
	}
	return fmt.Sprintf("path: %s, pattern: %s", t.Path, t.Pattern)
}

func (t SearchFiles) Summary() string {
	if t.Path == "" {
		return "pattern: " + t.Pattern
	}
	return fmt.Sprintf("pattern: %s, path: %s", t.Pattern, t.Path)
}

func (t Execute) Summary() string { return "$ " + t.Command }

func (t EditFile) Summary() string {
	return fmt.Sprintf("path: %s, replacing %d chars", t.Path, len(t.OldText))
}

// Result is the outcome of running a single tool invocation. A failed
// result is reported back to the model, never treated as fatal.
type Result struct {
	Success bool
	Output  string
}

// Ok builds a successful result.
func Ok(output string) Result { return Result{Success: true, Output: output} }

// Err builds a failed result.
func Err(output string) Result { return Result{Success: false, Output: output} }

// Call pairs a provider-assigned id with the parsed tool request. The id is
// echoed back in the matching tool_result block.
type Call struct {
	ID   string
	Tool Tool
}

// Invocation is the display-facing pairing of a call and its outcome.
type Invocation struct {
	ToolName  string
	Args      string
	Result    Result
	Collapsed bool
}
