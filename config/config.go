package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

const defaultSystemPrompt = "You are a helpful AI assistant. When writing code, you are precise and produce clean, working code. You format responses using markdown. When asked to edit files or write code, use the available tools to read, write, and edit files directly. Be concise but thorough."

// Config holds all user-facing settings, persisted as TOML at
// ~/.config/pro-chat/config.toml.
type Config struct {
	Provider           string  `toml:"provider"`
	Model              string  `toml:"model"`
	AnthropicAPIKey    string  `toml:"anthropic_api_key,omitempty"`
	OpenAIAPIKey       string  `toml:"openai_api_key,omitempty"`
	MaxTokens          int     `toml:"max_tokens"`
	Temperature        float64 `toml:"temperature"`
	SystemPrompt       string  `toml:"system_prompt,omitempty"`
	CommandTimeoutSecs int     `toml:"command_timeout_secs"`
	NotifyOnComplete   bool    `toml:"notify_on_complete"`
	LastConversationID string  `toml:"last_conversation_id,omitempty"`
}

var Debug = false
var DebugLog *log.Logger

// Default returns a Config with every field at its default value.
func Default() *Config {
	return &Config{
		Provider:           "anthropic",
		Model:              "claude-sonnet-4-20250514",
		MaxTokens:          8192,
		Temperature:        0.7,
		SystemPrompt:       defaultSystemPrompt,
		CommandTimeoutSecs: 120,
		NotifyOnComplete:   true,
	}
}

// Load reads the config file, creating it with defaults on first run.
func Load() (*Config, error) {
	path := GetConfigFilePath()
	cfg := Default()

	if !FileExists(path) {
		if err := cfg.Save(); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.CommandTimeoutSecs <= 0 {
		cfg.CommandTimeoutSecs = 120
	}
	return cfg, nil
}

// Save writes the config back to disk (0600 - may contain API keys).
func (c *Config) Save() error {
	path := GetConfigFilePath()
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// APIKey resolves the API key for the active provider: the config file value
// wins, the environment variable is the fallback. Empty means unresolved.
func (c *Config) APIKey() string {
	switch c.Provider {
	case "openai":
		if c.OpenAIAPIKey != "" {
			return c.OpenAIAPIKey
		}
		return os.Getenv("OPENAI_API_KEY")
	default:
		if c.AnthropicAPIKey != "" {
			return c.AnthropicAPIKey
		}
		return os.Getenv("ANTHROPIC_API_KEY")
	}
}

// APIKeyEnvVar names the environment variable for the active provider, for
// error messages.
func (c *Config) APIKeyEnvVar() string {
	if c.Provider == "openai" {
		return "OPENAI_API_KEY"
	}
	return "ANTHROPIC_API_KEY"
}

func CheckDebug() bool {
	debug := os.Getenv("PRO_CHAT_DEBUG")
	return debug == "true" || debug == "1"
}

// InitDebugLog opens the debug log when PRO_CHAT_DEBUG is set. TUI programs
// cannot write diagnostics to stdout, so everything goes to a file.
func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	logPath := filepath.Join(dataDir, "debug.log")

	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open debug log at %s: %v\n", logPath, err)
		return
	}

	Debug = true
	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (PRO_CHAT_DEBUG=%s) ===", os.Getenv("PRO_CHAT_DEBUG"))
}
