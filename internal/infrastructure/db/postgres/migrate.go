package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// migrations are applied in order, each in its own transaction.
var migrations = []struct {
	Version string
	SQL     string
}{
	{
		Version: "000001_create_media_files",
		SQL: `
			CREATE TABLE IF NOT EXISTS media_files (
				identifier   VARCHAR(255) PRIMARY KEY,
				display_name TEXT         NOT NULL,
				size_bytes   BIGINT       NOT NULL,
				created_at   TIMESTAMPTZ  NOT NULL DEFAULT clock_timestamp()
			);
		`,
	},
	{
		Version: "000002_index_media_files_created_at",
		SQL: `
			CREATE INDEX IF NOT EXISTS idx_media_files_created_at
				ON media_files (created_at DESC, identifier DESC);
		`,
	},
}

// Migrator is the subset of *pgxpool.Pool needed to apply migrations.
type Migrator interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

const (
	createMigrationsTable = `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		)
	`
	selectMigrationApplied = `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`
	insertMigration        = `INSERT INTO schema_migrations (version) VALUES ($1)`
)

// RunMigrations applies all pending migrations.
func RunMigrations(ctx context.Context, db Migrator, logger *zap.Logger) error {
	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		if err := db.QueryRow(ctx, selectMigrationApplied, m.Version).Scan(&applied); err != nil {
			return fmt.Errorf("failed to check migration status for %s: %w", m.Version, err)
		}
		if applied {
			continue
		}

		tx, err := db.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}
		if _, err := tx.Exec(ctx, insertMigration, m.Version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}

		logger.Info("applied migration", zap.String("version", m.Version))
	}

	return nil
}
