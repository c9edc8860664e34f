// Package repository provides persistence implementations for the identity
// and secret stores using a PostgreSQL database.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/reanahub/reana-relay/internal/apperrors"
	"github.com/reanahub/reana-relay/internal/models"
)

// UserFilter is a conjunction of optional lookup criteria. Empty fields
// are not filtered on.
type UserFilter struct {
	ID          string
	Email       string
	AccessToken string
}

// PostgresUserRepository implements user persistence against a PostgreSQL
// database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries and transactions.
	DB *sql.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the
// given database connection.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db}
}

// GetByToken returns the user owning the given access token, or nil if no
// user matches.
func (r *PostgresUserRepository) GetByToken(ctx context.Context, token string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, email, access_token FROM users WHERE access_token = $1`, token)
}

// GetByID returns the user with the given id, or nil if no user matches.
func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT id, email, access_token FROM users WHERE id = $1`, id)
}

func (r *PostgresUserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Email, &u.AccessToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user inside a transaction. A uniqueness-constraint
// violation rolls back and surfaces as a Conflict error, leaving the store
// unchanged.
func (r *PostgresUserRepository) Create(ctx context.Context, user models.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, access_token) VALUES ($1, $2, $3)
	`, user.ID, user.Email, user.AccessToken); err != nil {
		if isIntegrityViolation(err) {
			return apperrors.Wrap(apperrors.Conflict, "could not create user, possible constraint violation", err)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// FindOrCreateByEmail returns the user with the given email, creating it
// via newUser if absent. The read and the insert happen in one transaction
// so that of two concurrent identical calls exactly one wins; the loser
// observes a Conflict.
func (r *PostgresUserRepository) FindOrCreateByEmail(ctx context.Context, email string, newUser func() models.User) (*models.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var u models.User
	err = tx.QueryRowContext(ctx, `
		SELECT id, email, access_token FROM users WHERE email = $1
	`, email).Scan(&u.ID, &u.Email, &u.AccessToken)
	if err == nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit: %w", err)
		}
		return &u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("query user: %w", err)
	}

	u = newUser()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO users (id, email, access_token) VALUES ($1, $2, $3)
	`, u.ID, u.Email, u.AccessToken); err != nil {
		if isIntegrityViolation(err) {
			return nil, apperrors.Wrap(apperrors.Conflict, "could not create user, possible constraint violation", err)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return &u, nil
}

// List returns all users matching the filter. Empty filter fields match
// everything.
func (r *PostgresUserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := `SELECT id, email, access_token FROM users`
	var conds []string
	var args []any
	add := func(column, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	add("id", filter.ID)
	add("email", filter.Email)
	add("access_token", filter.AccessToken)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.AccessToken); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ImportAll inserts the given users in one transaction. Any
// uniqueness-constraint violation rolls the whole import back so that none
// of the rows are persisted.
func (r *PostgresUserRepository) ImportAll(ctx context.Context, users []models.User) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, u := range users {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO users (id, email, access_token) VALUES ($1, $2, $3)
		`, u.ID, u.Email, u.AccessToken); err != nil {
			if isIntegrityViolation(err) {
				return apperrors.Wrap(apperrors.Conflict,
					fmt.Sprintf("could not import user %s, possible constraint violation", u.ID), err)
			}
			return fmt.Errorf("insert user: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isIntegrityViolation reports whether err is a PostgreSQL integrity
// constraint violation (SQLSTATE class 23).
func isIntegrityViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Class() == "23"
	}
	return false
}
