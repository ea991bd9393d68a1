package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const createTableQuery = `
CREATE TABLE IF NOT EXISTS seed_identifiers (
	seed_url   TEXT    NOT NULL,
	position   INTEGER NOT NULL,
	identifier TEXT    NOT NULL,
	PRIMARY KEY (seed_url, position)
)`

type postgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository stores the identifiers of each seed in
// seed_identifiers, replacing rows from earlier runs of the same seed.
func NewPostgresRepository(ctx context.Context, db *pgxpool.Pool) (IdentifierRepository, error) {
	if _, err := db.Exec(ctx, createTableQuery); err != nil {
		return nil, fmt.Errorf("failed to create seed_identifiers table: %w", err)
	}

	return &postgresRepository{
		db: db,
	}, nil
}

func (r *postgresRepository) SaveIdentifiers(ctx context.Context, seedURL string, ids []string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM seed_identifiers WHERE seed_url = $1`, seedURL); err != nil {
		return fmt.Errorf("failed to clear identifiers for %s: %w", seedURL, err)
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"seed_identifiers"},
		[]string{"seed_url", "position", "identifier"},
		pgx.CopyFromSlice(len(ids), func(i int) ([]any, error) {
			return []any{seedURL, i, ids[i]}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to save identifiers for %s: %w", seedURL, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit identifiers for %s: %w", seedURL, err)
	}
	return nil
}

func (r *postgresRepository) Close() error {
	r.db.Close()
	return nil
}
