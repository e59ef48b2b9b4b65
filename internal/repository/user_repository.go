package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/emailbuilder/emailbuilder/internal/database"
)

// UserRepository reads recipient addresses from the host application's
// user table. The table and column names come from configuration.
type UserRepository struct {
	db    *database.Postgres
	query string
}

// NewUserRepository creates a new UserRepository over table, reading
// emailColumn for rows whose idColumn matches.
func NewUserRepository(db *database.Postgres, table, idColumn, emailColumn string) *UserRepository {
	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s = $1`,
		pq.QuoteIdentifier(emailColumn),
		pq.QuoteIdentifier(table),
		pq.QuoteIdentifier(idColumn),
	)
	return &UserRepository{db: db, query: query}
}

// EmailForUser returns the email address of a user
func (r *UserRepository) EmailForUser(ctx context.Context, userID string) (string, error) {
	var email sql.NullString
	err := r.db.QueryRowContext(ctx, r.query, userID).Scan(&email)
	if err == sql.ErrNoRows {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up user email: %w", err)
	}
	if !email.Valid || email.String == "" {
		return "", ErrNotFound
	}
	return email.String, nil
}
