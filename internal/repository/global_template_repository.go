package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/emailbuilder/emailbuilder/internal/database"
	"github.com/emailbuilder/emailbuilder/internal/model"
)

// GlobalTemplateRepository handles global header/footer default persistence
type GlobalTemplateRepository struct {
	db *database.Postgres
}

// NewGlobalTemplateRepository creates a new GlobalTemplateRepository
func NewGlobalTemplateRepository(db *database.Postgres) *GlobalTemplateRepository {
	return &GlobalTemplateRepository{db: db}
}

func globalSelectColumns() string {
	cols := append([]string{"id"}, appearanceColumns()...)
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

// Create inserts a new global template row
func (r *GlobalTemplateRepository) Create(ctx context.Context, g *model.GlobalEmailTemplate) error {
	cols := append([]string{"id"}, appearanceColumns()...)
	cols = append(cols, "created_at", "updated_at")

	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf(`INSERT INTO global_email_templates (%s) VALUES (%s)`,
		strings.Join(cols, ", "), strings.Join(params, ", "))

	args := []interface{}{g.ID}
	args = append(args, appearanceArgs(&g.Appearance)...)
	args = append(args, g.CreatedAt, g.UpdatedAt)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to create global email template: %w", err)
	}
	return nil
}

// GetByID retrieves a global template row by ID
func (r *GlobalTemplateRepository) GetByID(ctx context.Context, id string) (*model.GlobalEmailTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM global_email_templates WHERE id = $1`, globalSelectColumns())
	g, err := scanGlobal(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan global email template: %w", err)
	}
	return g, nil
}

// List returns all global rows in fallback precedence order (oldest first)
func (r *GlobalTemplateRepository) List(ctx context.Context) ([]model.GlobalEmailTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM global_email_templates ORDER BY created_at, id`, globalSelectColumns())
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query global email templates: %w", err)
	}
	defer rows.Close()

	globals := []model.GlobalEmailTemplate{}
	for rows.Next() {
		g, err := scanGlobal(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan global email template row: %w", err)
		}
		globals = append(globals, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate global email template rows: %w", err)
	}
	return globals, nil
}

// Update overwrites the header/footer fields of a global row
func (r *GlobalTemplateRepository) Update(ctx context.Context, g *model.GlobalEmailTemplate) error {
	cols := append(appearanceColumns(), "updated_at")
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}

	query := fmt.Sprintf(`UPDATE global_email_templates SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(cols)+1)

	args := appearanceArgs(&g.Appearance)
	args = append(args, g.UpdatedAt, g.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update global email template: %w", err)
	}
	return requireAffected(result)
}

// Delete removes a global row
func (r *GlobalTemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM global_email_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete global email template: %w", err)
	}
	return requireAffected(result)
}

func scanGlobal(row rowScanner) (*model.GlobalEmailTemplate, error) {
	var g model.GlobalEmailTemplate
	dest := []interface{}{&g.ID}
	for _, p := range g.Appearance.Pointers() {
		dest = append(dest, p)
	}
	dest = append(dest, &g.CreatedAt, &g.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &g, nil
}
