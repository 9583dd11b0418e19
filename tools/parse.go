package tools

import "encoding/json"

type contentBlock struct {
	Type  string          `json:"type"`
	Text  string          `json:"text"`
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

type toolResponse struct {
	Content []contentBlock `json:"content"`
}

// ParseCalls extracts tool_use blocks from a raw Messages API response body,
// in provider-returned order. Malformed or unknown blocks are skipped.
func ParseCalls(raw []byte) []Call {
	var resp toolResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}

	var calls []Call
	for _, block := range resp.Content {
		if block.Type != "tool_use" || block.ID == "" || block.Name == "" {
			continue
		}
		tool, ok := decodeTool(block.Name, block.Input)
		if !ok {
			continue
		}
		calls = append(calls, Call{ID: block.ID, Tool: tool})
	}
	return calls
}

// TextBlocks extracts the plain-text blocks from a raw response body.
func TextBlocks(raw []byte) []string {
	var resp toolResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil
	}

	var texts []string
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != "" {
			texts = append(texts, block.Text)
		}
	}
	return texts
}

func decodeTool(name string, input json.RawMessage) (Tool, bool) {
	// Missing input decodes every field to its zero value.
	if input == nil {
		input = json.RawMessage("{}")
	}

	switch name {
	case "read_file":
		var args struct {
			Path string `json:"path"`
		}
		if json.Unmarshal(input, &args) != nil {
			return nil, false
		}
		return ReadFile{Path: args.Path}, true

	case "write_file":
		var args struct {
			Path    string `json:"path"`
			Content string `json:"content"`
		}
		if json.Unmarshal(input, &args) != nil {
			return nil, false
		}
		return WriteFile{Path: args.Path, Content: args.Content}, true

	case "list_files":
		var args struct {
			Path    string `json:"path"`
			Pattern string `json:"pattern"`
		}
		if json.Unmarshal(input, &args) != nil {
			return nil, false
		}
		if args.Path == "" {
			args.Path = "."
		}
		return ListFiles{Path: args.Path, Pattern: args.Pattern}, true

	case "search_files":
		var args struct {
			Pattern string `json:"pattern"`
			Path    string `json:"path"`
		}
		if json.Unmarshal(input, &args) != nil {
			return nil, false
		}
		return SearchFiles{Pattern: args.Pattern, Path: args.Path}, true

	case "execute":
		var args struct {
			Command string `json:"command"`
		}
		if json.Unmarshal(input, &args) != nil {
			return nil, false
		}
		return Execute{Command: args.Command}, true

	case "edit_file":
		var args struct {
			Path    string `json:"path"`
			OldText string `json:"old_text"`
			NewText string `json:"new_text"`
		}
		if json.Unmarshal(input, &args) != nil {
			return nil, false
		}
		return EditFile{Path: args.Path, OldText: args.OldText, NewText: args.NewText}, true
	}

	return nil, false
}
