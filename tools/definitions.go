package tools

import "encoding/json"

// Definitions returns the tool-definition array sent under the request's
// "tools" key on tool-enabled calls.
func Definitions() json.RawMessage {
	return json.RawMessage(definitionsJSON)
}

const definitionsJSON = `[
  {
    "name": "read_file",
    "description": "Read the contents of a file at the given path. Returns the file contents with line numbers.",
    "input_schema": {
      "type": "object",
      "properties": {
        "path": {
          "type": "string",
          "description": "Absolute or relative path to the file to read."
        }
      },
      "required": ["path"]
    }
  },
  {
    "name": "write_file",
    "description": "Write content to a file at the given path. Creates parent directories if they do not exist. Overwrites the file if it already exists.",
    "input_schema": {
      "type": "object",
      "properties": {
        "path": {
          "type": "string",
          "description": "Absolute or relative path to the file to write."
        },
        "content": {
          "type": "string",
          "description": "The full content to write to the file."
        }
      },
      "required": ["path", "content"]
    }
  },
  {
    "name": "list_files",
    "description": "List files in a directory, optionally filtered by a glob pattern.",
    "input_schema": {
      "type": "object",
      "properties": {
        "path": {
          "type": "string",
          "description": "Directory path to list files in."
        },
        "pattern": {
          "type": "string",
          "description": "Optional glob pattern to filter files (e.g. \"**/*.go\"). If omitted, all files are listed recursively."
        }
      },
      "required": ["path"]
    }
  },
  {
    "name": "search_files",
    "description": "Search file contents using a regular expression pattern (via ripgrep or grep). Returns matching lines with file paths and line numbers.",
    "input_schema": {
      "type": "object",
      "properties": {
        "pattern": {
          "type": "string",
          "description": "Regular expression pattern to search for."
        },
        "path": {
          "type": "string",
          "description": "Optional directory or file to search in. Defaults to the current directory."
        }
      },
      "required": ["pattern"]
    }
  },
  {
    "name": "execute",
    "description": "Execute a shell command and return its stdout and stderr. The command runs under sh -c with a configurable timeout (default 120 seconds).",
    "input_schema": {
      "type": "object",
      "properties": {
        "command": {
          "type": "string",
          "description": "The shell command to execute."
        }
      },
      "required": ["command"]
    }
  },
  {
    "name": "edit_file",
    "description": "Perform a precise string replacement in a file. The old_text must appear exactly once in the file; it will be replaced with new_text.",
    "input_schema": {
      "type": "object",
      "properties": {
        "path": {
          "type": "string",
          "description": "Path to the file to edit."
        },
        "old_text": {
          "type": "string",
          "description": "The exact text to find (must be unique in the file)."
        },
        "new_text": {
          "type": "string",
          "description": "The text to replace old_text with."
        }
      },
      "required": ["path", "old_text", "new_text"]
    }
  }
]`
