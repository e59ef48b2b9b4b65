package repository

import (
	"context"
	"fmt"

	"github.com/emailbuilder/emailbuilder/internal/database"
)

// BodyColumnType returns the Postgres data type of email_templates.body
func BodyColumnType(ctx context.Context, db *database.Postgres) (string, error) {
	var dataType string
	err := db.QueryRowContext(ctx, `
		SELECT data_type FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = 'email_templates' AND column_name = 'body'`,
	).Scan(&dataType)
	if err != nil {
		return "", fmt.Errorf("failed to inspect body column: %w", err)
	}
	return dataType, nil
}

// EnsureJSONBody converts email_templates.body to JSONB, wrapping existing
// bodies as JSON strings. It reports whether the column was changed.
func EnsureJSONBody(ctx context.Context, db *database.Postgres) (bool, error) {
	dataType, err := BodyColumnType(ctx, db)
	if err != nil {
		return false, err
	}
	if dataType == "jsonb" {
		return false, nil
	}

	if _, err := db.ExecContext(ctx,
		`ALTER TABLE email_templates ALTER COLUMN body TYPE JSONB USING to_jsonb(body)`,
	); err != nil {
		return false, fmt.Errorf("failed to alter body column: %w", err)
	}
	return true, nil
}
