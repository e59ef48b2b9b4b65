package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/cache"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

// Audit actions for template administration
const (
	AuditActionTemplateCreate = "template.create"
	AuditActionTemplateUpdate = "template.update"
	AuditActionTemplateDelete = "template.delete"
	AuditActionGlobalCreate   = "global_template.create"
	AuditActionGlobalUpdate   = "global_template.update"
	AuditActionGlobalDelete   = "global_template.delete"
)

// TemplateStore is the persistence surface for email templates
type TemplateStore interface {
	Create(ctx context.Context, t *model.EmailTemplate) error
	GetByID(ctx context.Context, id string) (*model.EmailTemplate, error)
	GetByKey(ctx context.Context, key string) (*model.EmailTemplate, error)
	List(ctx context.Context) ([]model.EmailTemplate, error)
	Update(ctx context.Context, t *model.EmailTemplate) error
	Delete(ctx context.Context, id string) error
}

// GlobalTemplateStore is the persistence surface for global defaults
type GlobalTemplateStore interface {
	Create(ctx context.Context, g *model.GlobalEmailTemplate) error
	GetByID(ctx context.Context, id string) (*model.GlobalEmailTemplate, error)
	List(ctx context.Context) ([]model.GlobalEmailTemplate, error)
	Update(ctx context.Context, g *model.GlobalEmailTemplate) error
	Delete(ctx context.Context, id string) error
}

// AuditStore persists the administrative change trail
type AuditStore interface {
	Create(ctx context.Context, log *model.AuditLog) error
	ListByResource(ctx context.Context, resourceType, resourceID string, limit int) ([]model.AuditLog, error)
}

// Audited resource types
const (
	ResourceTemplate       = "email_template"
	ResourceGlobalTemplate = "global_email_template"
)

// historyLimit caps the entries returned by TemplateHistory
const historyLimit = 100

// TemplateInput carries author-supplied template fields. On update, nil
// fields and an unset Placeholders value leave the stored value untouched.
type TemplateInput struct {
	Key          *string               `json:"key"`
	Name         *string               `json:"name"`
	Subject      *string               `json:"subject"`
	Body         *string               `json:"body"`
	Placeholders model.RawPlaceholders `json:"placeholders"`
	model.Appearance
	Header *bool `json:"header"`
	Footer *bool `json:"footer"`
}

// GlobalTemplateInput carries global default fields; nil fields are left
// untouched on update.
type GlobalTemplateInput struct {
	model.Appearance
}

// TemplateService manages templates and global defaults. It is the only
// write path to storage and applies key/placeholder normalization.
type TemplateService struct {
	templates TemplateStore
	globals   GlobalTemplateStore
	cache     cache.TemplateCache
	audit     AuditStore
	log       *logger.Logger
	now       func() time.Time
}

// NewTemplateService creates a new TemplateService. tc may be nil.
func NewTemplateService(templates TemplateStore, globals GlobalTemplateStore, tc cache.TemplateCache, log *logger.Logger) *TemplateService {
	return &TemplateService{
		templates: templates,
		globals:   globals,
		cache:     tc,
		log:       log.WithComponent("template_service"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithAuditStore persists audit entries in addition to logging them
func (s *TemplateService) WithAuditStore(a AuditStore) *TemplateService {
	s.audit = a
	return s
}

// CreateTemplate validates, normalizes and stores a new template
func (s *TemplateService) CreateTemplate(ctx context.Context, actor string, in TemplateInput) (*model.EmailTemplate, error) {
	name := deref(in.Name)
	rawKey := deref(in.Key)
	if rawKey == "" {
		rawKey = name
	}
	if name == "" {
		name = rawKey
	}

	now := s.now()
	t := &model.EmailTemplate{
		ID:           uuid.New().String(),
		Key:          builder.NormalizeKey(rawKey),
		Name:         name,
		Subject:      deref(in.Subject),
		Body:         deref(in.Body),
		Placeholders: builder.NormalizePlaceholders(&in.Placeholders),
		Appearance:   in.Appearance,
		Header:       derefBool(in.Header),
		Footer:       derefBool(in.Footer),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validateTemplate(t); err != nil {
		return nil, err
	}

	if err := s.templates.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	s.record(ctx, actor, AuditActionTemplateCreate, ResourceTemplate, t.ID, map[string]interface{}{"key": t.Key})
	return t, nil
}

// UpdateTemplate applies the supplied fields to an existing template
func (s *TemplateService) UpdateTemplate(ctx context.Context, actor, id string, in TemplateInput) (*model.EmailTemplate, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	oldKey := t.Key

	if in.Key != nil {
		t.Key = builder.NormalizeKey(*in.Key)
	}
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Subject != nil {
		t.Subject = *in.Subject
	}
	if in.Body != nil {
		t.Body = *in.Body
	}
	if in.Placeholders.IsSet() {
		t.Placeholders = builder.NormalizePlaceholders(&in.Placeholders)
	} else {
		t.Placeholders = builder.NormalizePlaceholderList(t.Placeholders)
	}
	mergeAppearance(&t.Appearance, in.Appearance)
	if in.Header != nil {
		t.Header = *in.Header
	}
	if in.Footer != nil {
		t.Footer = *in.Footer
	}
	t.UpdatedAt = s.now()

	if err := validateTemplate(t); err != nil {
		return nil, err
	}
	if err := s.templates.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update template: %w", err)
	}

	s.invalidate(ctx, oldKey)
	if t.Key != oldKey {
		s.invalidate(ctx, t.Key)
	}

	s.record(ctx, actor, AuditActionTemplateUpdate, ResourceTemplate, t.ID, map[string]interface{}{"key": t.Key})
	return t, nil
}

// GetTemplate returns a template by ID
func (s *TemplateService) GetTemplate(ctx context.Context, id string) (*model.EmailTemplate, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.templates.GetByID(ctx, id)
}

// ListTemplates returns every template
func (s *TemplateService) ListTemplates(ctx context.Context) ([]model.EmailTemplate, error) {
	return s.templates.List(ctx)
}

// DeleteTemplate removes a template and its cache entry
func (s *TemplateService) DeleteTemplate(ctx context.Context, actor, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	s.invalidate(ctx, t.Key)

	s.record(ctx, actor, AuditActionTemplateDelete, ResourceTemplate, id, map[string]interface{}{"key": t.Key})
	return nil
}

// CreateGlobalTemplate stores a new global defaults row
func (s *TemplateService) CreateGlobalTemplate(ctx context.Context, actor string, in GlobalTemplateInput) (*model.GlobalEmailTemplate, error) {
	now := s.now()
	g := &model.GlobalEmailTemplate{
		ID:         uuid.New().String(),
		Appearance: in.Appearance,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.globals.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to create global template: %w", err)
	}

	s.record(ctx, actor, AuditActionGlobalCreate, ResourceGlobalTemplate, g.ID, nil)
	return g, nil
}

// UpdateGlobalTemplate applies the supplied fields to a global row
func (s *TemplateService) UpdateGlobalTemplate(ctx context.Context, actor, id string, in GlobalTemplateInput) (*model.GlobalEmailTemplate, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	g, err := s.globals.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load global template: %w", err)
	}
	mergeAppearance(&g.Appearance, in.Appearance)
	g.UpdatedAt = s.now()

	if err := s.globals.Update(ctx, g); err != nil {
		return nil, fmt.Errorf("failed to update global template: %w", err)
	}

	s.record(ctx, actor, AuditActionGlobalUpdate, ResourceGlobalTemplate, g.ID, nil)
	return g, nil
}

// GetGlobalTemplate returns a global row by ID
func (s *TemplateService) GetGlobalTemplate(ctx context.Context, id string) (*model.GlobalEmailTemplate, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	return s.globals.GetByID(ctx, id)
}

// ListGlobalTemplates returns every global row in fallback order
func (s *TemplateService) ListGlobalTemplates(ctx context.Context) ([]model.GlobalEmailTemplate, error) {
	return s.globals.List(ctx)
}

// DeleteGlobalTemplate removes a global row
func (s *TemplateService) DeleteGlobalTemplate(ctx context.Context, actor, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	if err := s.globals.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete global template: %w", err)
	}
	s.record(ctx, actor, AuditActionGlobalDelete, ResourceGlobalTemplate, id, nil)
	return nil
}

// PreviewTemplate renders an unsaved template against the current global
// defaults. Nothing is stored.
func (s *TemplateService) PreviewTemplate(ctx context.Context, in TemplateInput, data map[string]string) (*model.RenderedEmail, error) {
	t := &model.EmailTemplate{
		Key:          builder.NormalizeKey(deref(in.Key)),
		Subject:      deref(in.Subject),
		Body:         deref(in.Body),
		Placeholders: builder.NormalizePlaceholders(&in.Placeholders),
		Appearance:   in.Appearance,
		Header:       derefBool(in.Header),
		Footer:       derefBool(in.Footer),
	}

	globals, err := s.globals.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load global defaults: %w", err)
	}
	return builder.Render(t, builder.GlobalDefaults(globals), data), nil
}

// TemplateHistory returns the recorded changes to a template, newest first
func (s *TemplateService) TemplateHistory(ctx context.Context, id string) ([]model.AuditLog, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	if _, err := s.templates.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if s.audit == nil {
		return []model.AuditLog{}, nil
	}
	logs, err := s.audit.ListByResource(ctx, ResourceTemplate, id, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load template history: %w", err)
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return logs, nil
}

// record logs an audit event and stores it when an AuditStore is set.
// A storage failure never fails the change that was already committed.
func (s *TemplateService) record(ctx context.Context, actor, action, resourceType, resourceID string, metadata map[string]interface{}) {
	s.log.AuditLog(actor, action, resourceType, resourceID, metadata)
	if s.audit == nil {
		return
	}
	entry := &model.AuditLog{
		ID:           uuid.New().String(),
		Actor:        actor,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Metadata:     metadata,
		CreatedAt:    s.now(),
	}
	if err := s.audit.Create(ctx, entry); err != nil {
		s.log.Warn().Err(err).Str("action", action).Msg("failed to persist audit log")
	}
}

func (s *TemplateService) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, key); err != nil {
		s.log.Warn().Err(err).Str("template_key", key).Msg("failed to invalidate cached template")
	}
}

// checkID rejects IDs that cannot exist; the id columns are UUIDs
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: malformed id %q", repository.ErrNotFound, id)
	}
	return nil
}

func validateTemplate(t *model.EmailTemplate) error {
	switch {
	case t.Key == "":
		return fmt.Errorf("%w: key must contain at least one letter or digit", ErrInvalidTemplate)
	case t.Subject == "":
		return fmt.Errorf("%w: subject is required", ErrInvalidTemplate)
	case t.Body == "":
		return fmt.Errorf("%w: body is required", ErrInvalidTemplate)
	}
	return nil
}

// mergeAppearance copies every non-nil field of src into dst
func mergeAppearance(dst *model.Appearance, src model.Appearance) {
	dstPtrs := dst.Pointers()
	for i, p := range src.Pointers() {
		if *p != nil {
			*dstPtrs[i] = *p
		}
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
