package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// SQL keeps the value in the cart_store table created by database.Migrate.
// It works on both sqlite3 and postgres.
type SQL struct {
	db        *sqlx.DB
	namespace string
}

func NewSQL(db *sqlx.DB, namespace string) *SQL {
	return &SQL{db: db, namespace: namespace}
}

func (s *SQL) Load(ctx context.Context) ([]byte, error) {
	const q = `SELECT value FROM cart_store WHERE namespace = ?`

	var v string
	err := s.db.GetContext(ctx, &v, s.db.Rebind(q), s.namespace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("selecting cart_store[%s]: %w", s.namespace, err)
	}
	return []byte(v), nil
}

func (s *SQL) Save(ctx context.Context, data []byte) error {
	const q = `
	INSERT INTO cart_store (namespace, value, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT (namespace) DO UPDATE
	SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(q), s.namespace, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("upserting cart_store[%s]: %w", s.namespace, err)
	}
	return nil
}
