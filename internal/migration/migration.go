package migration

import (
	"context"

	"liquigen/internal/errors"
	"liquigen/internal/logging"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the tables the postgres ledger backend needs
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.0.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order. Every statement is
// idempotent, so running twice is safe.
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createProcessedKeysTable(ctx, db); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to create processed_keys table")
	}

	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(errors.WithCode(errors.CodeDatabaseError, err), "failed to create indexes")
	}

	logging.FromContext(ctx).Info().Str("version", r.version).Msg("ledger schema up to date")
	return nil
}

// processed_keys is append-only. entity_key is not unique; repeated marks
// are kept as separate rows.
func (r *MigrationRunner) createProcessedKeysTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS processed_keys (
			id BIGSERIAL PRIMARY KEY,
			entity_key TEXT NOT NULL,
			processed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_processed_keys_entity_key ON processed_keys(entity_key)",
		"CREATE INDEX IF NOT EXISTS idx_processed_keys_processed_at ON processed_keys(processed_at DESC)",
	}

	for _, idxSQL := range indexes {
		if _, err := db.ExecContext(ctx, idxSQL); err != nil {
			return err
		}
	}

	return nil
}
