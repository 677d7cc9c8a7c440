package conversation

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PostgresStore persists conversation turns in the conversations table so
// history survives restarts and is shared across bot instances.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// History implements Store.
func (s *PostgresStore) History(ctx context.Context, userID int64) ([]Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT role, text, occurred_at FROM conversations WHERE user_id = $1 ORDER BY occurred_at, id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("query history for user %d: %w", userID, err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var t Turn
		if err := rows.Scan(&t.Role, &t.Text, &t.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return turns, nil
}

// Append implements Store.
func (s *PostgresStore) Append(ctx context.Context, userID int64, turn Turn) error {
	if !ValidRole(turn.Role) {
		return ErrInvalidRole
	}
	occurredAt := turn.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (user_id, role, text, occurred_at) VALUES ($1, $2, $3, $4)`,
		userID, turn.Role, turn.Text, occurredAt)
	if err != nil {
		return fmt.Errorf("insert turn for user %d: %w", userID, err)
	}
	return nil
}

// Clear implements Store.
func (s *PostgresStore) Clear(ctx context.Context, userID int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("clear history for user %d: %w", userID, err)
	}
	return nil
}

// ClearAll implements Store.
func (s *PostgresStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM conversations`); err != nil {
		return fmt.Errorf("clear all histories: %w", err)
	}
	return nil
}

// Stats implements Store.
func (s *PostgresStore) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id), COUNT(*) FROM conversations`).
		Scan(&st.Users, &st.Messages)
	if err != nil {
		return Stats{}, fmt.Errorf("count conversations: %w", err)
	}
	return st, nil
}
