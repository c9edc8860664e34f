// Package repository provides persistence implementations for the identity
// and secret stores using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
)

// PostgresSecretRepository implements per-user secret persistence against a
// PostgreSQL database. Secrets are only ever addressed by (owner, name).
type PostgresSecretRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresSecretRepository creates a new PostgresSecretRepository using
// the provided *sql.DB.
func NewPostgresSecretRepository(db *sql.DB) *PostgresSecretRepository {
	return &PostgresSecretRepository{DB: db}
}

// Get retrieves a single secret by name for the given owner. Returns a
// SecretNotFound error if the owner has no secret with that name.
func (r *PostgresSecretRepository) Get(ctx context.Context, ownerID, name string) (*models.Secret, error) {
	var s models.Secret
	s.Name = name
	err := r.DB.QueryRowContext(ctx, `
		SELECT value, kind FROM user_secrets WHERE user_id = $1 AND name = $2
	`, ownerID, name).Scan(&s.Value, &s.Kind)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Newf(apperrors.SecretNotFound, "secret %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("query secret: %w", err)
	}
	return &s, nil
}

// Upsert inserts or overwrites the given secrets for one owner within a
// transaction.
func (r *PostgresSecretRepository) Upsert(ctx context.Context, ownerID string, secrets []models.Secret) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, s := range secrets {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO user_secrets (user_id, name, value, kind)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, name) DO UPDATE SET
				value = EXCLUDED.value,
				kind = EXCLUDED.kind
		`, ownerID, s.Name, s.Value, string(s.Kind)); err != nil {
			return fmt.Errorf("upsert secret: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
