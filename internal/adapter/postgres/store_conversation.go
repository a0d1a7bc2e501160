package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Strob0t/TokenCalc/internal/domain"
	"github.com/Strob0t/TokenCalc/internal/domain/conversation"
)

func (s *Store) CreateSession(ctx context.Context, sess *conversation.Session) (*conversation.Session, error) {
	var created conversation.Session
	err := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (account_id)
		 VALUES ($1)
		 RETURNING id, account_id, created_at, updated_at`,
		sess.AccountID,
	).Scan(&created.ID, &created.AccountID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &created, nil
}

func (s *Store) GetSession(ctx context.Context, id string) (*conversation.Session, error) {
	var sess conversation.Session
	err := s.pool.QueryRow(ctx,
		`SELECT id, account_id, created_at, updated_at FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.ID, &sess.AccountID, &sess.CreatedAt, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &sess, nil
}

func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete session %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, sessionID string) ([]conversation.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, session_id, role, text, created_at
		 FROM messages WHERE session_id = $1 ORDER BY created_at, id`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var result []conversation.Message
	for rows.Next() {
		var m conversation.Message
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Text, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		result = append(result, m)
	}
	return result, rows.Err()
}

// AppendMessages inserts the user turn and the model turn atomically, so
// a partial pipeline failure never leaves a half-updated transcript.
func (s *Store) AppendMessages(ctx context.Context, sessionID string, msgs []conversation.Message) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, m := range msgs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO messages (session_id, role, text) VALUES ($1, $2, $3)`,
			sessionID, m.Role, m.Text); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE sessions SET updated_at = now() WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("touch session: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
