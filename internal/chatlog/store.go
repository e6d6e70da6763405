// Package chatlog persists feedback conversation turns for diagnostics.
// The dialogue engine never reads these rows back; session state stays with
// the caller.
package chatlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/kyotake/machivoice/internal/db"
)

// Store appends conversation turns to the chat log.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Append records one turn: the caller's message history and the generated
// answer. A fresh chat id is minted when chatID is empty; the id in effect
// is returned so the caller can correlate subsequent turns.
func (s *Store) Append(ctx context.Context, chatID string, messages any, generated string) (string, error) {
	if chatID == "" {
		chatID = uuid.New().String()
	}

	encoded, err := json.Marshal(messages)
	if err != nil {
		return chatID, fmt.Errorf("marshalling messages: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chat_logs (id, chat_id, messages, generated)
		VALUES (?, ?, ?, ?)`,
		uuid.New().String(), chatID, string(encoded), generated,
	)
	if err != nil {
		return chatID, fmt.Errorf("inserting chat log: %w", err)
	}
	return chatID, nil
}

// Turn is one logged conversation turn.
type Turn struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chat_id"`
	Messages  json.RawMessage `json:"messages"`
	Generated string          `json:"generated"`
}

// History returns the logged turns of one chat, oldest first.
func (s *Store) History(ctx context.Context, chatID string) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, messages, generated
		FROM chat_logs
		WHERE chat_id = ?
		ORDER BY created_at ASC, rowid ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("querying chat log: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t        Turn
			messages string
		)
		if err := rows.Scan(&t.ID, &t.ChatID, &messages, &t.Generated); err != nil {
			return nil, fmt.Errorf("scanning chat log: %w", err)
		}
		t.Messages = json.RawMessage(messages)
		turns = append(turns, t)
	}
	return turns, rows.Err()
}
