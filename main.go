package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teddytennant/Pro-Chat/config"
	"github.com/teddytennant/Pro-Chat/model"
	"github.com/teddytennant/Pro-Chat/provider"
	"github.com/teddytennant/Pro-Chat/storage"
	"github.com/teddytennant/Pro-Chat/ui"
)

const Version = "v0.2.0"

func main() {
	var (
		flagProvider     = flag.String("provider", "", "provider to use (anthropic or openai)")
		flagModel        = flag.String("model", "", "model id to use for this session")
		flagConversation = flag.String("conversation", "", "conversation id to resume")
		flagPrompt       = flag.String("prompt", "", "send this prompt immediately on startup")
		flagVersion      = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *flagVersion {
		fmt.Println("pro-chat", Version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override the config for this session only.
	if *flagProvider != "" {
		cfg.Provider = *flagProvider
	}
	if *flagModel != "" {
		cfg.Model = *flagModel
	}

	config.InitDebugLog(config.GetDataDir())

	streamer, err := provider.New(cfg.Provider, cfg.APIKey())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	store, err := storage.NewConversationStore(config.GetConversationsDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize conversation storage: %v\n", err)
		os.Exit(1)
	}

	index, err := storage.NewSearchIndex(config.GetDataDir())
	if err != nil {
		// Search is optional; the client works without the index.
		if config.Debug {
			config.DebugLog.Printf("[Main] search index unavailable: %v", err)
		}
		index = nil
	} else {
		defer index.Close()
		if err := index.Rebuild(store); err != nil && config.Debug {
			config.DebugLog.Printf("[Main] search index rebuild failed: %v", err)
		}
	}

	resume := resolveStartingConversation(store, cfg, *flagConversation)

	dataModel := model.NewModel(cfg, streamer, store, index, resume)
	view := ui.NewAppView(dataModel)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	p := tea.NewProgram(view, opts...)

	// A -prompt flag fires one send as soon as the program is running.
	if *flagPrompt != "" {
		prompt := *flagPrompt
		go p.Send(ui.InitialPromptMsg{Prompt: prompt})
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// resolveStartingConversation picks the conversation to open: the explicit
// flag first, then the last one used, otherwise none.
func resolveStartingConversation(store *storage.ConversationStore, cfg *config.Config, flagID string) *storage.Conversation {
	if flagID != "" {
		rec, err := store.Load(flagID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load conversation %s: %v\n", flagID, err)
			os.Exit(1)
		}
		return rec
	}
	if cfg.LastConversationID != "" {
		if rec, err := store.Load(cfg.LastConversationID); err == nil {
			return rec
		}
	}
	return nil
}
