package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/emailbuilder/emailbuilder/internal/database"
	"github.com/emailbuilder/emailbuilder/internal/model"
)

// Body column types accepted by template.body_column_type
const (
	BodyColumnText     = "text"
	BodyColumnLongText = "long_text"
	BodyColumnJSON     = "json"
)

// appearanceColumns lists the header/footer columns in model.Fields order
func appearanceColumns() []string {
	cols := make([]string, len(model.Fields))
	for i, f := range model.Fields {
		cols[i] = string(f)
	}
	return cols
}

// TemplateRepository handles email template persistence.
// Callers are expected to pass an already normalized key and placeholder set.
type TemplateRepository struct {
	db       *database.Postgres
	jsonBody bool
}

// NewTemplateRepository creates a new TemplateRepository. bodyColumnType
// must match the type the migrations gave the body column.
func NewTemplateRepository(db *database.Postgres, bodyColumnType string) *TemplateRepository {
	return &TemplateRepository{
		db:       db,
		jsonBody: bodyColumnType == BodyColumnJSON,
	}
}

func (r *TemplateRepository) selectColumns() string {
	body := "body"
	if r.jsonBody {
		body = "body #>> '{}'"
	}
	cols := append([]string{"id", "key", "name", "subject", body, "placeholders"}, appearanceColumns()...)
	cols = append(cols, "header", "footer", "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

func (r *TemplateRepository) bodyParam(n int) string {
	if r.jsonBody {
		return fmt.Sprintf("to_jsonb($%d::text)", n)
	}
	return fmt.Sprintf("$%d", n)
}

// Create inserts a new email template
func (r *TemplateRepository) Create(ctx context.Context, t *model.EmailTemplate) error {
	placeholders, err := encodePlaceholders(t.Placeholders)
	if err != nil {
		return err
	}

	cols := append([]string{"id", "key", "name", "subject", "body", "placeholders"}, appearanceColumns()...)
	cols = append(cols, "header", "footer", "created_at", "updated_at")

	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	params[4] = r.bodyParam(5)

	query := fmt.Sprintf(`INSERT INTO email_templates (%s) VALUES (%s)`,
		strings.Join(cols, ", "), strings.Join(params, ", "))

	args := []interface{}{t.ID, t.Key, t.Name, t.Subject, t.Body, placeholders}
	args = append(args, appearanceArgs(&t.Appearance)...)
	args = append(args, t.Header, t.Footer, t.CreatedAt, t.UpdatedAt)

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create email template: %w", err)
	}
	return nil
}

// GetByID retrieves an email template by ID
func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*model.EmailTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_templates WHERE id = $1`, r.selectColumns())
	return r.scanTemplate(r.db.QueryRowContext(ctx, query, id))
}

// GetByKey retrieves an email template by its normalized key
func (r *TemplateRepository) GetByKey(ctx context.Context, key string) (*model.EmailTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_templates WHERE key = $1`, r.selectColumns())
	return r.scanTemplate(r.db.QueryRowContext(ctx, query, key))
}

// List returns all email templates ordered by key
func (r *TemplateRepository) List(ctx context.Context) ([]model.EmailTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM email_templates ORDER BY key`, r.selectColumns())
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query email templates: %w", err)
	}
	defer rows.Close()

	templates := []model.EmailTemplate{}
	for rows.Next() {
		t, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email template row: %w", err)
		}
		templates = append(templates, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate email template rows: %w", err)
	}
	return templates, nil
}

// Update overwrites every mutable column of an existing template
func (r *TemplateRepository) Update(ctx context.Context, t *model.EmailTemplate) error {
	placeholders, err := encodePlaceholders(t.Placeholders)
	if err != nil {
		return err
	}

	cols := append([]string{"key", "name", "subject", "body", "placeholders"}, appearanceColumns()...)
	cols = append(cols, "header", "footer", "updated_at")

	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	sets[3] = "body = " + r.bodyParam(4)

	query := fmt.Sprintf(`UPDATE email_templates SET %s WHERE id = $%d`,
		strings.Join(sets, ", "), len(cols)+1)

	args := []interface{}{t.Key, t.Name, t.Subject, t.Body, placeholders}
	args = append(args, appearanceArgs(&t.Appearance)...)
	args = append(args, t.Header, t.Footer, t.UpdatedAt, t.ID)

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update email template: %w", err)
	}
	return requireAffected(result)
}

// Delete removes an email template
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete email template: %w", err)
	}
	return requireAffected(result)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *TemplateRepository) scanTemplate(row *sql.Row) (*model.EmailTemplate, error) {
	t, err := r.scan(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan email template: %w", err)
	}
	return t, nil
}

func (r *TemplateRepository) scan(row rowScanner) (*model.EmailTemplate, error) {
	var t model.EmailTemplate
	var placeholders []byte

	dest := []interface{}{&t.ID, &t.Key, &t.Name, &t.Subject, &t.Body, &placeholders}
	for _, p := range t.Appearance.Pointers() {
		dest = append(dest, p)
	}
	dest = append(dest, &t.Header, &t.Footer, &t.CreatedAt, &t.UpdatedAt)

	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	t.Placeholders = decodePlaceholders(placeholders)
	return &t, nil
}

func appearanceArgs(a *model.Appearance) []interface{} {
	ptrs := a.Pointers()
	args := make([]interface{}, len(ptrs))
	for i, p := range ptrs {
		args[i] = *p
	}
	return args
}

func encodePlaceholders(p []string) ([]byte, error) {
	if p == nil {
		p = []string{}
	}
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode placeholders: %w", err)
	}
	return b, nil
}

// decodePlaceholders reads the JSON column; NULL or malformed content is
// treated as an empty set.
func decodePlaceholders(b []byte) []string {
	out := []string{}
	if len(b) == 0 {
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil || out == nil {
		return []string{}
	}
	return out
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
