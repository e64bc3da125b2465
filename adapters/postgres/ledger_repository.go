package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"liquigen/internal/errors"
	"liquigen/ports"

	"github.com/jmoiron/sqlx"
)

// processedKey is one row of processed_keys
type processedKey struct {
	ID          int64     `db:"id"`
	EntityKey   string    `db:"entity_key"`
	ProcessedAt time.Time `db:"processed_at"`
}

// LedgerRepositoryImpl implements the idempotency ledger on PostgreSQL
type LedgerRepositoryImpl struct {
	db *sqlx.DB
}

// NewLedgerRepository creates a new PostgreSQL ledger
func NewLedgerRepository(db *sqlx.DB) *LedgerRepositoryImpl {
	return &LedgerRepositoryImpl{db: db}
}

var _ ports.LedgerPort = (*LedgerRepositoryImpl)(nil)

// HasBeenProcessed reports whether any row carries key
func (r *LedgerRepositoryImpl) HasBeenProcessed(ctx context.Context, key string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS (SELECT 1 FROM processed_keys WHERE entity_key = $1)
	`, key)
	if err != nil {
		return false, errors.LedgerFailure("lookup", key, err)
	}
	return exists, nil
}

// MarkProcessed appends a row for key. Earlier rows are never touched.
func (r *LedgerRepositoryImpl) MarkProcessed(ctx context.Context, key string) error {
	if key == "" || strings.ContainsAny(key, "\r\n") {
		return errors.LedgerFailure("append", key, fmt.Errorf("key must be a single non-empty line"))
	}

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO processed_keys (entity_key, processed_at)
		VALUES (:entity_key, NOW())
	`, processedKey{EntityKey: key})
	if err != nil {
		return errors.LedgerFailure("append", key, err)
	}
	return nil
}

// Keys returns every recorded key in insertion order, repeats included
func (r *LedgerRepositoryImpl) Keys(ctx context.Context) ([]string, error) {
	var rows []processedKey
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, entity_key, processed_at
		FROM processed_keys
		ORDER BY id
	`)
	if err != nil {
		return nil, errors.LedgerFailure("read", "processed_keys", err)
	}

	keys := make([]string, 0, len(rows))
	for _, row := range rows {
		keys = append(keys, row.EntityKey)
	}
	return keys, nil
}
