package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/teddytennant/Pro-Chat/config"
	appmodel "github.com/teddytennant/Pro-Chat/model"
	"github.com/teddytennant/Pro-Chat/provider"
)

func (a AppView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.loadingSpinner, cmd = a.loadingSpinner.Update(msg)
		if a.dataModel.Streaming {
			a.updateViewportContent(false)
		}
		return a, cmd

	case appmodel.StreamChunkMsg, appmodel.StreamDoneMsg, appmodel.StreamErrorMsg,
		appmodel.ToolPayloadMsg, appmodel.StreamClosedMsg:
		return a.handleStreamingMessage(msg)

	case appmodel.SpinnerTickMsg:
		// keeps the elapsed-seconds readout fresh while streaming
		if a.dataModel.Streaming {
			return a, spinnerTick()
		}
		return a, nil

	case appmodel.MarkdownRenderedMsg:
		if msg.EntryIndex < len(a.dataModel.Conv.Entries) {
			a.dataModel.Conv.Entries[msg.EntryIndex].Rendered = msg.Rendered
			a.updateViewportContent(true)
		}
		return a, nil

	case appmodel.ConversationSavedMsg:
		if msg.Err != nil {
			a.statusMessage = fmt.Sprintf("save failed: %v", msg.Err)
		}
		return a, nil

	case appmodel.ConversationListMsg:
		if msg.Err != nil {
			a.statusMessage = fmt.Sprintf("listing conversations failed: %v", msg.Err)
			a.showHistory = false
			return a, nil
		}
		a.historyList = msg.Conversations
		a.filteredHistory = msg.Conversations
		a.selectedHistoryIdx = 0
		return a, nil

	case appmodel.ConversationLoadedMsg:
		if msg.Err != nil {
			a.statusMessage = fmt.Sprintf("loading conversation failed: %v", msg.Err)
			return a, nil
		}
		a.dataModel.LoadConversation(msg.Conversation)
		a.showHistory = false
		a.statusMessage = fmt.Sprintf("loaded %q", msg.Conversation.Title)
		a.updateViewportContent(true)
		return a, a.rerenderAllMarkdown()

	case appmodel.SearchResultsMsg:
		if msg.Err != nil {
			a.statusMessage = fmt.Sprintf("search failed: %v", msg.Err)
			a.showSearch = false
			return a, nil
		}
		a.searchResults = msg.Matches
		a.searchDone = true
		a.selectedSearchIdx = 0
		return a, nil

	case InitialPromptMsg:
		return a.doSend(msg.Prompt)

	case appmodel.ClipboardWrittenMsg:
		if msg.Err != nil {
			a.statusMessage = fmt.Sprintf("clipboard failed: %v", msg.Err)
		} else {
			a.statusMessage = "copied last response"
		}
		return a, nil
	}

	var cmd tea.Cmd
	a.viewport, cmd = a.viewport.Update(msg)
	return a, cmd
}

func (a AppView) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlay routing: exactly one surface consumes keys at a time.
	switch {
	case a.toolConfirm != nil:
		return a.handleToolConfirmKey(msg)
	case a.showHelp:
		a.showHelp = false
		return a, nil
	case a.showHistory:
		return a.handleHistoryKey(msg)
	case a.showSearch:
		return a.handleSearchKey(msg)
	}

	switch msg.String() {
	case "ctrl+c":
		a.dataModel.Quitting = true
		cmd := a.dataModel.CancelStream()
		return a, tea.Sequence(cmdOrNoop(cmd), tea.Quit)

	case "esc":
		if a.dataModel.Streaming {
			cmd := a.dataModel.CancelStream()
			a.statusMessage = "cancelled"
			a.updateViewportContent(true)
			return a, cmd
		}
		a.statusMessage = ""
		return a, nil

	case "ctrl+r":
		return a.doRetry()

	case "ctrl+e":
		return a.doEditLast()

	case "ctrl+n":
		cmd := a.dataModel.NewConversation()
		a.statusMessage = "new conversation"
		a.updateViewportContent(true)
		return a, cmd

	case "ctrl+h":
		a.showHistory = true
		a.historyFilterMode = false
		a.historyFilterInput.SetValue("")
		return a, a.dataModel.ListConversationsCmd()

	case "ctrl+f":
		a.showSearch = true
		a.searchDone = false
		a.searchResults = nil
		a.searchInput.SetValue("")
		a.searchInput.Focus()
		return a, nil

	case "ctrl+t":
		a.dataModel.ToolsEnabled = !a.dataModel.ToolsEnabled
		a.statusMessage = fmt.Sprintf("tools: %s", onOff(a.dataModel.ToolsEnabled))
		return a, nil

	case "ctrl+y", "alt+y":
		return a, a.copyLastResponse()

	case "f1":
		a.showHelp = true
		return a, nil

	case "enter":
		input := a.textarea.Value()
		a.textarea.Reset()
		if strings.HasPrefix(strings.TrimSpace(input), "/") {
			return a.handleCommand(strings.TrimSpace(input))
		}
		return a.doSend(input)

	case "pgup", "pgdown", "ctrl+u", "ctrl+d":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}

	var cmd tea.Cmd
	a.textarea, cmd = a.textarea.Update(msg)
	return a, cmd
}

func (a AppView) doSend(text string) (tea.Model, tea.Cmd) {
	cmd, err := a.dataModel.Send(text)
	if err != nil {
		a.statusMessage = statusForError(err, a.dataModel)
		return a, nil
	}
	if cmd == nil {
		return a, nil
	}
	a.statusMessage = ""
	a.updateViewportContent(true)
	return a, tea.Batch(cmd, spinnerTick())
}

func (a AppView) doRetry() (tea.Model, tea.Cmd) {
	cmd, err := a.dataModel.Retry()
	if err != nil {
		a.statusMessage = statusForError(err, a.dataModel)
		return a, nil
	}
	a.statusMessage = ""
	a.updateViewportContent(true)
	return a, tea.Batch(cmd, spinnerTick())
}

func (a AppView) doEditLast() (tea.Model, tea.Cmd) {
	text, err := a.dataModel.EditLast()
	if err != nil {
		a.statusMessage = statusForError(err, a.dataModel)
		return a, nil
	}
	a.textarea.SetValue(text)
	a.textarea.Focus()
	a.statusMessage = "editing last message"
	a.updateViewportContent(true)
	return a, nil
}

func (a AppView) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd, args, _ := strings.Cut(input, " ")
	args = strings.TrimSpace(args)

	switch cmd {
	case "/help":
		a.showHelp = true
		return a, nil

	case "/quit":
		a.dataModel.Quitting = true
		c := a.dataModel.CancelStream()
		return a, tea.Sequence(cmdOrNoop(c), tea.Quit)

	case "/new", "/clear":
		c := a.dataModel.NewConversation()
		a.statusMessage = "new conversation"
		a.updateViewportContent(true)
		return a, c

	case "/retry":
		return a.doRetry()

	case "/edit":
		return a.doEditLast()

	case "/history":
		a.showHistory = true
		a.historyFilterMode = false
		a.historyFilterInput.SetValue("")
		return a, a.dataModel.ListConversationsCmd()

	case "/search":
		a.showSearch = true
		a.searchDone = false
		a.searchResults = nil
		a.searchInput.SetValue(args)
		a.searchInput.Focus()
		if args != "" {
			a.searchInput.Blur()
			return a, a.dataModel.SearchCmd(args)
		}
		return a, nil

	case "/tools":
		if args == "" {
			a.dataModel.ToolsEnabled = !a.dataModel.ToolsEnabled
		} else {
			a.dataModel.ToolsEnabled = args == "on"
		}
		perms := make([]string, 0, 6)
		for _, e := range a.dataModel.Permissions.Entries() {
			perms = append(perms, fmt.Sprintf("%s=%s", e.Name, e.Policy))
		}
		a.statusMessage = fmt.Sprintf("tools: %s  %s", onOff(a.dataModel.ToolsEnabled), strings.Join(perms, " "))
		return a, nil

	case "/copy":
		return a, a.copyLastResponse()

	case "/model":
		if args == "" {
			a.statusMessage = "model: " + a.dataModel.Config.Model
			return a, nil
		}
		id := resolveModelAlias(args)
		a.dataModel.Config.Model = id
		a.dataModel.Config.Save()
		a.statusMessage = "model: " + id
		return a, nil

	case "/models":
		a.statusMessage = "model aliases: sonnet/s -> claude-sonnet-4-20250514, opus/o -> claude-opus-4-20250514, " +
			"haiku/h -> claude-haiku-4-5-20251001, gpt4 -> gpt-4o, gpt4m -> gpt-4o-mini"
		return a, nil

	case "/save":
		a.dataModel.Config.Save()
		a.statusMessage = "saved"
		return a, a.dataModel.Save()

	case "/export":
		a.exportConversation(args)
		return a, nil

	case "/provider":
		if args == "" {
			a.statusMessage = "provider: " + a.dataModel.Streamer.Name()
			return a, nil
		}
		a.dataModel.Config.Provider = args
		streamer, err := provider.New(args, a.dataModel.Config.APIKey())
		if err != nil {
			a.statusMessage = err.Error()
			return a, nil
		}
		a.dataModel.SetStreamer(streamer)
		a.dataModel.Config.Save()
		a.statusMessage = "provider: " + args
		return a, nil

	case "/temp":
		if args == "" {
			a.statusMessage = fmt.Sprintf("temperature: %.2f", a.dataModel.Config.Temperature)
			return a, nil
		}
		t, err := strconv.ParseFloat(args, 64)
		if err != nil || t < 0 || t > 2 {
			a.statusMessage = "temperature must be a number between 0 and 2"
			return a, nil
		}
		a.dataModel.Config.Temperature = t
		a.dataModel.Config.Save()
		a.statusMessage = fmt.Sprintf("temperature: %.2f", t)
		return a, nil

	case "/system":
		if args == "" {
			a.statusMessage = "system prompt: " + truncate(a.dataModel.Config.SystemPrompt, 60)
			return a, nil
		}
		a.dataModel.Config.SystemPrompt = args
		a.dataModel.Config.Save()
		a.statusMessage = "system prompt updated"
		return a, nil
	}

	a.statusMessage = fmt.Sprintf("unknown command %q (/help for commands)", cmd)
	return a, nil
}

func (a AppView) copyLastResponse() tea.Cmd {
	var last string
	for i := len(a.dataModel.Conv.Entries) - 1; i >= 0; i-- {
		entry := a.dataModel.Conv.Entries[i]
		if entry.Role == "assistant" && entry.Content != "" {
			last = entry.Content
			break
		}
	}
	if last == "" {
		return func() tea.Msg {
			return appmodel.ClipboardWrittenMsg{Err: fmt.Errorf("no assistant response to copy")}
		}
	}
	return func() tea.Msg {
		return appmodel.ClipboardWrittenMsg{Err: clipboard.WriteAll(last)}
	}
}

// rerenderAllMarkdown schedules markdown rendering for every committed
// assistant entry, used after loading a conversation.
func (a AppView) rerenderAllMarkdown() tea.Cmd {
	var cmds []tea.Cmd
	for i, entry := range a.dataModel.Conv.Entries {
		if entry.Role == "assistant" && entry.Content != "" {
			cmds = append(cmds, a.renderMarkdownAsync(i, entry.Content))
		}
	}
	return tea.Batch(cmds...)
}

func statusForError(err error, m *appmodel.Model) string {
	switch err {
	case appmodel.ErrNoAPIKey:
		return fmt.Sprintf("no API key: set %s or add it to the config file", m.Config.APIKeyEnvVar())
	case appmodel.ErrStillStreaming:
		return "wait for the current response (esc to cancel)"
	case appmodel.ErrNoAssistantMessage:
		return "nothing to retry yet"
	case appmodel.ErrNoUserMessage:
		return "no user message to edit"
	}
	if config.Debug {
		config.DebugLog.Printf("[UI] unexpected error: %v", err)
	}
	return err.Error()
}

func cmdOrNoop(cmd tea.Cmd) tea.Cmd {
	if cmd != nil {
		return cmd
	}
	return func() tea.Msg { return nil }
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
