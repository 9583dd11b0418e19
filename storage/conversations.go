// Package storage persists conversations as JSON documents under the user
// data directory and maintains a sqlite index for cross-conversation search.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxTitleLength caps auto-generated conversation titles.
const MaxTitleLength = 60

// ConversationMessage is one persisted record: role and plain text only,
// tool blocks are never written to disk.
type ConversationMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is the durable form of a chat, one JSON file per id.
type Conversation struct {
	ID        string                `json:"id"`
	Title     string                `json:"title"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
	Messages  []ConversationMessage `json:"messages"`
}

// ConversationMetadata is the listing view: everything but the messages.
type ConversationMetadata struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// NewConversation creates an empty conversation with a fresh id.
func NewConversation() *Conversation {
	now := time.Now()
	return &Conversation{
		ID:        uuid.New().String(),
		Title:     "New conversation",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ConversationStore reads and writes conversation files.
type ConversationStore struct {
	dir string
}

// NewConversationStore creates the store, making the directory if needed.
func NewConversationStore(dir string) (*ConversationStore, error) {
	// 0700 - conversation files contain private chat history
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("creating conversations directory: %w", err)
	}
	return &ConversationStore{dir: dir}, nil
}

func (s *ConversationStore) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes a conversation to disk, assigning an id if missing and
// bumping UpdatedAt.
func (s *ConversationStore) Save(c *Conversation) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding conversation %s: %w", c.ID, err)
	}
	// 0600 - private chat history
	if err := os.WriteFile(s.path(c.ID), data, 0600); err != nil {
		return fmt.Errorf("writing conversation %s: %w", c.ID, err)
	}
	return nil
}

// Load reads one conversation by id.
func (s *ConversationStore) Load(id string) (*Conversation, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		return nil, fmt.Errorf("reading conversation %s: %w", id, err)
	}
	var c Conversation
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding conversation %s: %w", id, err)
	}
	return &c, nil
}

// List returns metadata for every stored conversation, most recently
// updated first. Unreadable files are skipped.
func (s *ConversationStore) List() ([]ConversationMetadata, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading conversations directory: %w", err)
	}

	var list []ConversationMetadata
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			continue
		}
		var c Conversation
		if err := json.Unmarshal(data, &c); err != nil {
			continue
		}
		list = append(list, ConversationMetadata{
			ID:           c.ID,
			Title:        c.Title,
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
			MessageCount: len(c.Messages),
		})
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].UpdatedAt.After(list[j].UpdatedAt)
	})
	return list, nil
}

// Latest returns the most recently updated conversation, or nil if none
// exist.
func (s *ConversationStore) Latest() (*Conversation, error) {
	list, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return s.Load(list[0].ID)
}

// Delete removes a conversation file.
func (s *ConversationStore) Delete(id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		return fmt.Errorf("deleting conversation %s: %w", id, err)
	}
	return nil
}

// TitleFromMessage derives a conversation title from the first user
// message: first line, truncated with an ellipsis past the cap.
func TitleFromMessage(text string) string {
	title := strings.TrimSpace(text)
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}
	if title == "" {
		return "New conversation"
	}
	if len(title) > MaxTitleLength {
		title = title[:MaxTitleLength] + "..."
	}
	return title
}
