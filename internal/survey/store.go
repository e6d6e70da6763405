package survey

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kyotake/machivoice/internal/db"
)

// Entry is one recorded engagement survey result.
type Entry struct {
	ID        string    `json:"id"`
	UID       string    `json:"uid"`
	Score     int       `json:"score"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists survey entries.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Insert records a new survey entry for the given user.
func (s *Store) Insert(ctx context.Context, uid string, score int, note string) (*Entry, error) {
	entry := Entry{
		ID:    uuid.New().String(),
		UID:   uid,
		Score: score,
		Note:  note,
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO survey_entries (id, uid, score, note)
		VALUES (?, ?, ?, ?)`,
		entry.ID, entry.UID, entry.Score, entry.Note,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting survey entry: %w", err)
	}
	return &entry, nil
}

// LatestForUID returns the user's most recent entry, or nil when the user
// has no survey history.
func (s *Store) LatestForUID(ctx context.Context, uid string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, uid, score, note, created_at
		FROM survey_entries
		WHERE uid = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`, uid)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return entry, err
}

// LatestThisMonth returns the most recent entry of the current month for
// every user that submitted one.
func (s *Store) LatestThisMonth(ctx context.Context) ([]Entry, error) {
	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uid, score, note, created_at
		FROM survey_entries
		WHERE rowid IN (
			SELECT MAX(rowid) FROM survey_entries
			WHERE created_at >= ?
			GROUP BY uid
		)`, startOfMonth.Format(time.DateTime))
	if err != nil {
		return nil, fmt.Errorf("querying survey entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(sc scanner) (*Entry, error) {
	var (
		e  Entry
		ts string
	)
	if err := sc.Scan(&e.ID, &e.UID, &e.Score, &e.Note, &ts); err != nil {
		return nil, err
	}
	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.CreatedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.CreatedAt = t
	}
	return &e, nil
}
