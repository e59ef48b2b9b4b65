package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

// ErrTemplateNotFound is returned when no template exists for a key
var ErrTemplateNotFound = errors.New("email template not found")

// TemplateFinder loads a template by its normalized key
type TemplateFinder interface {
	GetByKey(ctx context.Context, key string) (*model.EmailTemplate, error)
}

// DefaultsFinder loads the global header/footer rows in precedence order
type DefaultsFinder interface {
	List(ctx context.Context) ([]model.GlobalEmailTemplate, error)
}

// Renderer turns a stored template plus caller data into a RenderedEmail
type Renderer struct {
	templates TemplateFinder
	defaults  DefaultsFinder
}

// NewRenderer creates a new Renderer
func NewRenderer(templates TemplateFinder, defaults DefaultsFinder) *Renderer {
	return &Renderer{
		templates: templates,
		defaults:  defaults,
	}
}

// RenderByKey loads the template for key and resolves every field against
// data. It does not deliver anything.
func (r *Renderer) RenderByKey(ctx context.Context, key string, data map[string]string) (*model.RenderedEmail, error) {
	normalized := NormalizeKey(key)
	if normalized == "" {
		return nil, fmt.Errorf("%w: empty key %q", ErrTemplateNotFound, key)
	}

	tmpl, err := r.templates.GetByKey(ctx, normalized)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, normalized)
		}
		return nil, fmt.Errorf("failed to load template %s: %w", normalized, err)
	}

	globals, err := r.defaults.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load global defaults: %w", err)
	}

	return Render(tmpl, GlobalDefaults(globals), data), nil
}

// Render resolves an already-loaded template. It is the pure core of
// RenderByKey and is also used for previews of unsaved templates.
func Render(tmpl *model.EmailTemplate, defaults GlobalDefaults, data map[string]string) *model.RenderedEmail {
	placeholders := NormalizePlaceholderList(tmpl.Placeholders)

	out := &model.RenderedEmail{
		Key:     tmpl.Key,
		Subject: Substitute(tmpl.Subject, placeholders, data),
		Body:    Substitute(tmpl.Body, placeholders, data),
	}
	for _, field := range model.Fields {
		out.Set(field, Substitute(ResolveField(tmpl, field, defaults), placeholders, data))
	}
	return out
}
