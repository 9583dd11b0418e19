package tools

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// DefaultCommandTimeout is the wall-clock limit for shell commands.
const DefaultCommandTimeout = 120 * time.Second

// Executor runs tools against the local filesystem and shell. All operations
// are synchronous; only one tool executes at a time by design of the
// orchestrator, so blocking here is acceptable.
type Executor struct {
	commandTimeout time.Duration
}

// NewExecutor creates an executor with the default command timeout.
func NewExecutor() *Executor {
	return &Executor{commandTimeout: DefaultCommandTimeout}
}

// SetCommandTimeout overrides the shell-command timeout.
func (e *Executor) SetCommandTimeout(d time.Duration) {
	e.commandTimeout = d
}

// Run executes a tool and returns its result. Permission checks are the
// caller's responsibility; Run never consults the permission table.
func (e *Executor) Run(tool Tool) Result {
	switch t := tool.(type) {
	case ReadFile:
		return e.readFile(t)
	case WriteFile:
		return e.writeFile(t)
	case ListFiles:
		return e.listFiles(t)
	case SearchFiles:
		return e.searchFiles(t)
	case Execute:
		return e.executeCommand(t)
	case EditFile:
		return e.editFile(t)
	}
	return Err(fmt.Sprintf("unknown tool: %s", tool.Name()))
}

func (e *Executor) readFile(t ReadFile) Result {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Err("File not found: " + t.Path)
		}
		return Err(fmt.Sprintf("Failed to read %s: %v", t.Path, err))
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%6d\t%s", i+1, line)
	}
	return Ok(b.String())
}

func (e *Executor) writeFile(t WriteFile) Result {
	if dir := filepath.Dir(t.Path); dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return Err(fmt.Sprintf("Failed to create directory %s: %v", dir, err))
		}
	}
	if err := os.WriteFile(t.Path, []byte(t.Content), 0600); err != nil {
		return Err(fmt.Sprintf("Failed to write %s: %v", t.Path, err))
	}
	return Ok(fmt.Sprintf("Wrote %d bytes to %s", len(t.Content), t.Path))
}

func (e *Executor) listFiles(t ListFiles) Result {
	info, err := os.Stat(t.Path)
	if err != nil || !info.IsDir() {
		return Err("Directory not found: " + t.Path)
	}

	var matcher *regexp.Regexp
	if t.Pattern != "" {
		matcher, err = globToRegexp(t.Pattern)
		if err != nil {
			return Err(fmt.Sprintf("Invalid glob pattern: %v", err))
		}
	}

	var files []string
	filepath.WalkDir(t.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			files = append(files, fmt.Sprintf("(error: %v)", err))
			return nil
		}
		if path == t.Path {
			return nil
		}
		rel, relErr := filepath.Rel(t.Path, path)
		if relErr != nil {
			return nil
		}
		if matcher == nil || matcher.MatchString(filepath.ToSlash(rel)) {
			files = append(files, path)
		}
		return nil
	})

	if len(files) == 0 {
		return Ok("No files matched the pattern.")
	}
	sort.Strings(files)
	return Ok(strings.Join(files, "\n"))
}

func (e *Executor) searchFiles(t SearchFiles) Result {
	searchPath := t.Path
	if searchPath == "" {
		searchPath = "."
	}

	var cmd *exec.Cmd
	program := "grep"
	if _, err := exec.LookPath("rg"); err == nil {
		program = "rg"
		cmd = exec.Command("rg", "--line-number", "--no-heading", "--color=never", t.Pattern, searchPath)
	} else {
		cmd = exec.Command("grep", "-rn", "--color=never", t.Pattern, searchPath)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	if err == nil || stdout.Len() > 0 {
		if stdout.Len() == 0 {
			return Ok("No matches found.")
		}
		return Ok(stdout.String())
	}

	// rg/grep exit 1 on no matches; that is not a failure.
	if exitErr, ok := err.(*exec.ExitError); ok && exitErr.ExitCode() == 1 && stderr.Len() == 0 {
		return Ok("No matches found.")
	}
	if _, ok := err.(*exec.ExitError); !ok {
		return Err(fmt.Sprintf("Failed to run %s: %v", program, err))
	}
	return Err(fmt.Sprintf("%s error: %s", program, stderr.String()))
}

func (e *Executor) executeCommand(t Execute) Result {
	cmd := exec.Command("sh", "-c", t.Command)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Err(fmt.Sprintf("Failed to spawn command: %v", err))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var waitErr error
	select {
	case waitErr = <-done:
	case <-time.After(e.commandTimeout):
		cmd.Process.Kill()
		<-done // reap
		return Err(fmt.Sprintf("Command timed out after %d seconds", int(e.commandTimeout.Seconds())))
	}

	combined := stdout.String()
	if stderr.Len() > 0 {
		if combined != "" {
			combined += "\n"
		}
		combined += "[stderr]\n" + stderr.String()
	}
	if combined == "" {
		combined = "(no output)"
	}

	if waitErr == nil {
		return Ok(combined)
	}
	code := -1
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		code = exitErr.ExitCode()
	}
	return Err(fmt.Sprintf("Exit code %d\n%s", code, combined))
}

func (e *Executor) editFile(t EditFile) Result {
	data, err := os.ReadFile(t.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return Err("File not found: " + t.Path)
		}
		return Err(fmt.Sprintf("Failed to read %s: %v", t.Path, err))
	}

	contents := string(data)
	count := strings.Count(contents, t.OldText)
	if count == 0 {
		return Err("old_text not found in " + t.Path)
	}
	if count > 1 {
		return Err(fmt.Sprintf(
			"old_text matches %d locations in %s -- provide more context to make it unique",
			count, t.Path))
	}

	updated := strings.Replace(contents, t.OldText, t.NewText, 1)
	if err := os.WriteFile(t.Path, []byte(updated), 0600); err != nil {
		return Err(fmt.Sprintf("Failed to write %s: %v", t.Path, err))
	}
	return Ok(fmt.Sprintf("Applied edit to %s (replaced 1 occurrence)", t.Path))
}

// globToRegexp compiles a glob into a regexp anchored over the whole
// slash-separated relative path. ** crosses directory boundaries, * and ?
// stay within one path segment.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch c {
		case '*':
			if i+1 < len(pattern) && pattern[i+1] == '*' {
				if i+2 < len(pattern) && pattern[i+2] == '/' {
					b.WriteString(`(?:[^/]+/)*`)
					i += 2
				} else {
					b.WriteString(`.*`)
					i++
				}
			} else {
				b.WriteString(`[^/]*`)
			}
		case '?':
			b.WriteString(`[^/]`)
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
