package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appmodel "github.com/teddytennant/Pro-Chat/model"
	"github.com/teddytennant/Pro-Chat/storage"
	"github.com/teddytennant/Pro-Chat/tools"
)

// AppView is the bubbletea model: it owns the terminal surface and routes
// every message through the single update loop that mutates the data model.
type AppView struct {
	// Reference to core data model
	dataModel *appmodel.Model

	// UI components
	viewport       viewport.Model
	textarea       textarea.Model
	loadingSpinner spinner.Model

	// Window state
	width  int
	height int
	ready  bool

	statusMessage string
	showHelp      bool

	// Tool confirmation overlay
	toolConfirm *tools.Confirmation

	// History picker overlay
	showHistory        bool
	historyList        []storage.ConversationMetadata
	filteredHistory    []storage.ConversationMetadata
	selectedHistoryIdx int
	historyFilterInput textinput.Model
	historyFilterMode  bool

	// Cross-conversation search overlay
	showSearch        bool
	searchInput       textinput.Model
	searchResults     []storage.MessageMatch
	searchDone        bool
	selectedSearchIdx int
}

// NewAppView creates the view over an initialized data model.
func NewAppView(dataModel *appmodel.Model) AppView {
	ta := textarea.New()
	ta.Placeholder = "Send a message... (/help for commands)"
	ta.Prompt = "┃ "
	ta.CharLimit = 0
	ta.SetHeight(3)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accentColor)

	filter := textinput.New()
	filter.Placeholder = "Filter conversations..."

	search := textinput.New()
	search.Placeholder = "Search all conversations..."

	return AppView{
		dataModel:          dataModel,
		textarea:           ta,
		loadingSpinner:     sp,
		historyFilterInput: filter,
		searchInput:        search,
	}
}

func (a AppView) Init() tea.Cmd {
	return tea.Batch(textarea.Blink, a.loadingSpinner.Tick)
}

func (a AppView) View() string {
	if !a.ready {
		return "Initializing..."
	}

	switch {
	case a.showHelp:
		return a.renderHelp()
	case a.toolConfirm != nil:
		return RenderToolConfirmModal(*a.toolConfirm, a.width, a.height)
	case a.showHistory:
		return a.renderHistoryModal()
	case a.showSearch:
		return a.renderSearchModal()
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.viewport.View())
	b.WriteString("\n")
	b.WriteString(a.renderStatusLine())
	b.WriteString("\n")
	b.WriteString(a.textarea.View())
	return b.String()
}

func (a AppView) renderHeader() string {
	title := TitleStyle.Render("Pro-Chat")
	meta := DimStyle.Render(fmt.Sprintf(" %s · %s", a.dataModel.Streamer.Name(), a.dataModel.Config.Model))
	toolsBadge := ""
	if a.dataModel.ToolsEnabled {
		toolsBadge = ToolStyle.Render("  [tools]")
	}
	line := title + meta + toolsBadge
	rule := BorderStyle.Render(strings.Repeat("─", max(0, a.width)))
	return line + "\n" + rule
}

func (a AppView) renderStatusLine() string {
	if a.dataModel.Streaming {
		return StatusStyle.Render(fmt.Sprintf("%s thinking... (esc to cancel, %.0fs)",
			a.loadingSpinner.View(), a.dataModel.Session.Elapsed().Seconds()))
	}
	if a.statusMessage != "" {
		return StatusStyle.Render(a.statusMessage)
	}
	if a.dataModel.LastTurnTime > 0 {
		return StatusStyle.Render(fmt.Sprintf("response in %.1fs · enter send · /help", a.dataModel.LastTurnTime.Seconds()))
	}
	return StatusStyle.Render("enter send · /help commands · ctrl+c quit")
}

func (a *AppView) resize(width, height int) {
	a.width = width
	a.height = height

	headerHeight := 2
	statusHeight := 1
	inputHeight := a.textarea.Height()
	viewportHeight := height - headerHeight - statusHeight - inputHeight - 2
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	if !a.ready {
		a.viewport = viewport.New(width, viewportHeight)
		a.ready = true
	} else {
		a.viewport.Width = width
		a.viewport.Height = viewportHeight
	}
	a.textarea.SetWidth(width)
	a.updateViewportContent(true)
}
