package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/powderplan/powderplan/internal/domain"
)

// PostgresSessionStore backs sessions with a Postgres table so multiple
// server replicas can share continuation tokens. Same contract as the
// in-memory store: put replaces, delete is idempotent, no expiry.
type PostgresSessionStore struct {
	db *pgxpool.Pool
}

func NewPostgresSessionStore(db *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{db: db}
}

// EnsureSchema creates the sessions table if it does not exist.
func (s *PostgresSessionStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			token TEXT NOT NULL,
			context JSONB NOT NULL DEFAULT '{}',
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (s *PostgresSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	sess := &domain.Session{ID: id}
	var contextJSON []byte

	err := s.db.QueryRow(ctx,
		`SELECT token, context, updated_at FROM sessions WHERE id = $1`,
		id,
	).Scan(&sess.Token, &contextJSON, &sess.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if len(contextJSON) > 0 {
		if err := json.Unmarshal(contextJSON, &sess.Context); err != nil {
			return nil, fmt.Errorf("decode session context: %w", err)
		}
	}
	return sess, nil
}

func (s *PostgresSessionStore) Put(ctx context.Context, sess *domain.Session) error {
	contextJSON, err := json.Marshal(sess.Context)
	if err != nil {
		return fmt.Errorf("encode session context: %w", err)
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO sessions (id, token, context, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (id) DO UPDATE
		 SET token = EXCLUDED.token, context = EXCLUDED.context, updated_at = now()`,
		sess.ID, sess.Token, contextJSON,
	)
	return err
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}
