package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// MessageMatch is one hit from a cross-conversation search.
type MessageMatch struct {
	ConversationID    string
	ConversationTitle string
	MessageIndex      int
	Role              string
	Content           string
	Preview           string
	Timestamp         time.Time
}

// SearchIndex maintains a sqlite table of all persisted messages so the
// /search command does not reread every conversation file per query.
type SearchIndex struct {
	db *sql.DB
}

// NewSearchIndex opens (or creates) index.db in the given data directory.
func NewSearchIndex(dataDir string) (*SearchIndex, error) {
	dbPath := filepath.Join(dataDir, "index.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening search index: %w", err)
	}

	si := &SearchIndex{db: db}
	if err := si.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return si, nil
}

func (si *SearchIndex) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		conversation_id    TEXT NOT NULL,
		conversation_title TEXT NOT NULL,
		message_index      INTEGER NOT NULL,
		role               TEXT NOT NULL,
		content            TEXT NOT NULL,
		timestamp          TEXT NOT NULL,
		PRIMARY KEY (conversation_id, message_index)
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
	`
	_, err := si.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("initializing search index schema: %w", err)
	}
	return nil
}

// Index replaces the rows for one conversation with its current messages.
// Called on every save; system messages are not indexed.
func (si *SearchIndex) Index(c *Conversation) error {
	tx, err := si.db.Begin()
	if err != nil {
		return fmt.Errorf("starting index transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE conversation_id = ?`, c.ID); err != nil {
		return fmt.Errorf("clearing index rows for %s: %w", c.ID, err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO messages
			(conversation_id, conversation_title, message_index, role, content, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing index insert: %w", err)
	}
	defer stmt.Close()

	for i, msg := range c.Messages {
		if msg.Role == "system" {
			continue
		}
		if _, err := stmt.Exec(c.ID, c.Title, i, msg.Role, msg.Content, msg.Timestamp.Format(time.RFC3339)); err != nil {
			return fmt.Errorf("indexing message %d of %s: %w", i, c.ID, err)
		}
	}

	return tx.Commit()
}

// Remove drops a deleted conversation's rows from the index.
func (si *SearchIndex) Remove(conversationID string) error {
	_, err := si.db.Exec(`DELETE FROM messages WHERE conversation_id = ?`, conversationID)
	if err != nil {
		return fmt.Errorf("removing index rows for %s: %w", conversationID, err)
	}
	return nil
}

// Search returns case-insensitive substring matches across every indexed
// conversation, newest first.
func (si *SearchIndex) Search(query string) ([]MessageMatch, error) {
	if strings.TrimSpace(query) == "" {
		return []MessageMatch{}, nil
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := si.db.Query(`
		SELECT conversation_id, conversation_title, message_index, role, content, timestamp
		FROM messages
		WHERE content LIKE ? ESCAPE '\'
		ORDER BY timestamp DESC`, pattern)
	if err != nil {
		return nil, fmt.Errorf("querying search index: %w", err)
	}
	defer rows.Close()

	var matches []MessageMatch
	for rows.Next() {
		var m MessageMatch
		var ts string
		if err := rows.Scan(&m.ConversationID, &m.ConversationTitle, &m.MessageIndex, &m.Role, &m.Content, &ts); err != nil {
			return nil, fmt.Errorf("scanning search row: %w", err)
		}
		m.Timestamp, _ = time.Parse(time.RFC3339, ts)
		m.Preview = previewOf(m.Content)
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// Rebuild reindexes every conversation in the store, used on startup to
// pick up files written by other means.
func (si *SearchIndex) Rebuild(store *ConversationStore) error {
	list, err := store.List()
	if err != nil {
		return err
	}
	for _, meta := range list {
		c, err := store.Load(meta.ID)
		if err != nil {
			continue
		}
		if err := si.Index(c); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (si *SearchIndex) Close() error {
	return si.db.Close()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func previewOf(content string) string {
	preview := strings.ReplaceAll(content, "\n", " ")
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	return preview
}
