package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/teddytennant/Pro-Chat/storage"
)

func (a AppView) handleHistoryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.historyFilterMode {
		switch msg.String() {
		case "esc":
			a.historyFilterMode = false
			a.historyFilterInput.Blur()
			return a, nil

		case "enter":
			a.historyFilterMode = false
			a.historyFilterInput.Blur()
			return a.openSelectedConversation()

		case "down":
			if a.selectedHistoryIdx < len(a.filteredHistory)-1 {
				a.selectedHistoryIdx++
			}
			return a, nil

		case "up":
			if a.selectedHistoryIdx > 0 {
				a.selectedHistoryIdx--
			}
			return a, nil
		}

		var cmd tea.Cmd
		a.historyFilterInput, cmd = a.historyFilterInput.Update(msg)

		filterValue := a.historyFilterInput.Value()
		if filterValue == "" {
			a.filteredHistory = a.historyList
		} else {
			targets := make([]string, len(a.historyList))
			for i, c := range a.historyList {
				targets[i] = c.Title
			}

			matches := fuzzy.Find(filterValue, targets)
			a.filteredHistory = make([]storage.ConversationMetadata, len(matches))
			for i, match := range matches {
				a.filteredHistory[i] = a.historyList[match.Index]
			}
		}

		if a.selectedHistoryIdx >= len(a.filteredHistory) && len(a.filteredHistory) > 0 {
			a.selectedHistoryIdx = len(a.filteredHistory) - 1
		}
		return a, cmd
	}

	switch msg.String() {
	case "/":
		a.historyFilterMode = true
		a.historyFilterInput.Focus()
		a.historyFilterInput.SetValue("")
		a.filteredHistory = a.historyList
		return a, textinput.Blink

	case "esc", "q":
		a.showHistory = false
		return a, nil

	case "j", "down":
		if a.selectedHistoryIdx < len(a.filteredHistory)-1 {
			a.selectedHistoryIdx++
		}
		return a, nil

	case "k", "up":
		if a.selectedHistoryIdx > 0 {
			a.selectedHistoryIdx--
		}
		return a, nil

	case "x", "delete":
		return a.deleteSelectedConversation()

	case "enter":
		return a.openSelectedConversation()
	}

	return a, nil
}

func (a AppView) openSelectedConversation() (tea.Model, tea.Cmd) {
	if a.selectedHistoryIdx >= len(a.filteredHistory) {
		return a, nil
	}
	meta := a.filteredHistory[a.selectedHistoryIdx]
	return a, a.dataModel.LoadConversationCmd(meta.ID)
}

func (a AppView) deleteSelectedConversation() (tea.Model, tea.Cmd) {
	if a.selectedHistoryIdx >= len(a.filteredHistory) {
		return a, nil
	}
	meta := a.filteredHistory[a.selectedHistoryIdx]
	if meta.ID == a.dataModel.Conv.Record.ID {
		a.statusMessage = "cannot delete the open conversation"
		a.showHistory = false
		return a, nil
	}
	if err := a.dataModel.Store.Delete(meta.ID); err != nil {
		a.statusMessage = fmt.Sprintf("delete failed: %v", err)
		a.showHistory = false
		return a, nil
	}
	if a.dataModel.SearchIndex != nil {
		a.dataModel.SearchIndex.Remove(meta.ID)
	}
	return a, a.dataModel.ListConversationsCmd()
}

func (a AppView) renderHistoryModal() string {
	modalWidth := 70
	if a.width < modalWidth+6 {
		modalWidth = a.width - 6
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Conversations")

	var lines []string
	if a.historyFilterMode {
		lines = append(lines, a.historyFilterInput.View())
	}
	if len(a.filteredHistory) == 0 {
		lines = append(lines, DimStyle.Render("no conversations"))
	}

	maxRows := a.height - 8
	if maxRows < 3 {
		maxRows = 3
	}
	for i, meta := range a.filteredHistory {
		if i >= maxRows {
			lines = append(lines, DimStyle.Render(fmt.Sprintf("... %d more", len(a.filteredHistory)-maxRows)))
			break
		}
		row := fmt.Sprintf("%s  %s (%d msgs)",
			meta.UpdatedAt.Format("Jan 02 15:04"),
			runewidth.Truncate(meta.Title, modalWidth-30, "..."),
			meta.MessageCount)
		if i == a.selectedHistoryIdx {
			lines = append(lines, SelectedStyle.Render("> "+row))
		} else {
			lines = append(lines, "  "+row)
		}
	}

	listSection := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth).
		Render(strings.Join(lines, "\n"))

	footer := FormatFooter("j/k", "Navigate", "Enter", "Open", "/", "Filter", "x", "Delete", "Esc", "Close")
	footerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	content := strings.Join([]string{titleSection, listSection, footerSection}, "\n")
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}

func (a AppView) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.showSearch = false
		return a, nil

	case "enter":
		if !a.searchDone {
			query := strings.TrimSpace(a.searchInput.Value())
			if query == "" {
				return a, nil
			}
			a.searchInput.Blur()
			return a, a.dataModel.SearchCmd(query)
		}
		if a.selectedSearchIdx < len(a.searchResults) {
			match := a.searchResults[a.selectedSearchIdx]
			a.showSearch = false
			return a, a.dataModel.LoadConversationCmd(match.ConversationID)
		}
		return a, nil

	case "down", "ctrl+n":
		if a.searchDone && a.selectedSearchIdx < len(a.searchResults)-1 {
			a.selectedSearchIdx++
		}
		return a, nil

	case "up", "ctrl+p":
		if a.searchDone && a.selectedSearchIdx > 0 {
			a.selectedSearchIdx--
		}
		return a, nil
	}

	if !a.searchDone {
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a AppView) renderSearchModal() string {
	modalWidth := 70
	if a.width < modalWidth+6 {
		modalWidth = a.width - 6
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(accentColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render("Search all conversations")

	var lines []string
	lines = append(lines, a.searchInput.View())
	if a.searchDone {
		if len(a.searchResults) == 0 {
			lines = append(lines, DimStyle.Render("no matches"))
		}
		maxRows := a.height - 9
		if maxRows < 3 {
			maxRows = 3
		}
		for i, match := range a.searchResults {
			if i >= maxRows {
				lines = append(lines, DimStyle.Render(fmt.Sprintf("... %d more", len(a.searchResults)-maxRows)))
				break
			}
			row := fmt.Sprintf("%s: %s",
				runewidth.Truncate(match.ConversationTitle, 24, "..."),
				runewidth.Truncate(match.Preview, modalWidth-30, "..."))
			if i == a.selectedSearchIdx {
				lines = append(lines, SelectedStyle.Render("> "+row))
			} else {
				lines = append(lines, "  "+row)
			}
		}
	}

	listSection := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth).
		Render(strings.Join(lines, "\n"))

	footer := FormatFooter("Enter", "Search/Open", "↑/↓", "Navigate", "Esc", "Close")
	footerSection := lipgloss.NewStyle().
		Foreground(dimColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Render(footer)

	content := strings.Join([]string{titleSection, listSection, footerSection}, "\n")
	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, content)
}
