package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/kyotake/machivoice/internal/db"
)

// Opinion is a filed feedback record.
type Opinion struct {
	ID          string    `json:"id"`
	Contact     string    `json:"contact"`
	Description string    `json:"description"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store persists filed opinions.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// PutOpinion inserts a filed opinion.
func (s *Store) PutOpinion(ctx context.Context, op Opinion) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO opinions (id, contact, description, latitude, longitude)
		VALUES (?, ?, ?, ?, ?)`,
		op.ID, op.Contact, op.Description, op.Latitude, op.Longitude,
	)
	if err != nil {
		return fmt.Errorf("inserting opinion: %w", err)
	}
	return nil
}

// ListOpinions returns the most recently filed opinions, newest first.
func (s *Store) ListOpinions(ctx context.Context, limit int) ([]Opinion, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, contact, description, latitude, longitude, created_at
		FROM opinions
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying opinions: %w", err)
	}
	defer rows.Close()

	var opinions []Opinion
	for rows.Next() {
		var (
			op Opinion
			ts string
		)
		if err := rows.Scan(&op.ID, &op.Contact, &op.Description, &op.Latitude, &op.Longitude, &ts); err != nil {
			return nil, fmt.Errorf("scanning opinion: %w", err)
		}
		op.CreatedAt = parseTimestamp(ts)
		opinions = append(opinions, op)
	}
	return opinions, rows.Err()
}

// parseTimestamp parses the layouts sqlite hands back for DATETIME columns.
func parseTimestamp(ts string) time.Time {
	if t, err := time.Parse(time.DateTime, ts); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t
	}
	return time.Time{}
}
