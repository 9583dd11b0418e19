package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// GetConfigDir returns the platform-specific configuration directory.
// Linux/Mac: ~/.config/pro-chat
// Windows: C:\Users\username\.config\pro-chat
func GetConfigDir() string {
	if runtime.GOOS == "windows" {
		userProfile := os.Getenv("USERPROFILE")
		return filepath.Join(userProfile, ".config", "pro-chat")
	}

	home := os.Getenv("HOME")
	return filepath.Join(home, ".config", "pro-chat")
}

// GetDataDir returns the platform-specific data directory.
// Linux/Mac: ~/.local/share/pro-chat
// Windows: C:\Users\username\AppData\Local\pro-chat
func GetDataDir() string {
	if runtime.GOOS == "windows" {
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			localAppData = filepath.Join(userProfile, "AppData", "Local")
		}
		return filepath.Join(localAppData, "pro-chat")
	}

	home := os.Getenv("HOME")
	return filepath.Join(home, ".local", "share", "pro-chat")
}

// GetConfigFilePath returns the path to config.toml.
func GetConfigFilePath() string {
	return filepath.Join(GetConfigDir(), "config.toml")
}

// GetConversationsDir returns the directory holding persisted conversations.
func GetConversationsDir() string {
	return filepath.Join(GetDataDir(), "conversations")
}

// GetHomeDir returns the user's home directory across platforms.
func GetHomeDir() string {
	if runtime.GOOS == "windows" {
		home := os.Getenv("USERPROFILE")
		if home == "" {
			home = os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
		}
		if home == "" {
			home = "C:\\"
		}
		return home
	}
	home := os.Getenv("HOME")
	if home == "" {
		home = "/"
	}
	return home
}

// ExpandPath expands ~ and environment variables in a path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		path = filepath.Join(GetHomeDir(), path[2:])
	}

	path = os.ExpandEnv(path)

	return filepath.Clean(path)
}

// EnsureDir creates a directory if it doesn't exist (0700 - user-only access).
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0700)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
