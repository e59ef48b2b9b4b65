package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

func newTemplateService() (*TemplateService, *memTemplates, *memGlobals, *recordingCache) {
	templates := newMemTemplates()
	globals := &memGlobals{}
	tc := &recordingCache{}
	return NewTemplateService(templates, globals, tc, logger.Nop()), templates, globals, tc
}

func TestCreateTemplate_NormalizesKeyAndPlaceholders(t *testing.T) {
	svc, _, _, _ := newTemplateService()

	created, err := svc.CreateTemplate(context.Background(), "admin", TemplateInput{
		Key:          strPtr("Welcome Email!"),
		Name:         strPtr("Welcome"),
		Subject:      strPtr("Hi {name}"),
		Body:         strPtr("<p>{name}</p>"),
		Placeholders: *model.PlaceholderText("Name, Order ID"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "welcome_email", created.Key)
	assert.Equal(t, []string{"name", "order", "id"}, created.Placeholders)
	assert.False(t, created.CreatedAt.IsZero())
}

func TestCreateTemplate_KeyDerivedFromName(t *testing.T) {
	svc, _, _, _ := newTemplateService()

	created, err := svc.CreateTemplate(context.Background(), "admin", TemplateInput{
		Name:    strPtr("Password Reset"),
		Subject: strPtr("Reset"),
		Body:    strPtr("body"),
	})
	require.NoError(t, err)

	assert.Equal(t, "password_reset", created.Key)
	assert.Equal(t, []string{}, created.Placeholders)
}

func TestCreateTemplate_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   TemplateInput
	}{
		{"no key", TemplateInput{Key: strPtr("!!!"), Subject: strPtr("s"), Body: strPtr("b")}},
		{"no subject", TemplateInput{Key: strPtr("k"), Body: strPtr("b")}},
		{"no body", TemplateInput{Key: strPtr("k"), Subject: strPtr("s")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newTemplateService()
			_, err := svc.CreateTemplate(context.Background(), "admin", tt.in)
			assert.ErrorIs(t, err, ErrInvalidTemplate)
		})
	}
}

func TestCreateTemplate_DuplicateKey(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	in := TemplateInput{Key: strPtr("welcome"), Subject: strPtr("s"), Body: strPtr("b")}

	_, err := svc.CreateTemplate(context.Background(), "admin", in)
	require.NoError(t, err)

	in.Key = strPtr("Welcome")
	_, err = svc.CreateTemplate(context.Background(), "admin", in)
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUpdateTemplate_KeepsPlaceholdersWhenOmitted(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	created, err := svc.CreateTemplate(context.Background(), "admin", TemplateInput{
		Key:          strPtr("welcome"),
		Subject:      strPtr("s"),
		Body:         strPtr("b"),
		Placeholders: *model.PlaceholderList([]string{"name", "total"}),
	})
	require.NoError(t, err)

	var in TemplateInput
	require.NoError(t, json.Unmarshal([]byte(`{"subject":"New subject"}`), &in))

	updated, err := svc.UpdateTemplate(context.Background(), "admin", created.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "New subject", updated.Subject)
	assert.Equal(t, []string{"name", "total"}, updated.Placeholders)
}

func TestUpdateTemplate_NullClearsPlaceholders(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	created, err := svc.CreateTemplate(context.Background(), "admin", TemplateInput{
		Key:          strPtr("welcome"),
		Subject:      strPtr("s"),
		Body:         strPtr("b"),
		Placeholders: *model.PlaceholderText("name"),
	})
	require.NoError(t, err)

	var in TemplateInput
	require.NoError(t, json.Unmarshal([]byte(`{"placeholders":null}`), &in))

	updated, err := svc.UpdateTemplate(context.Background(), "admin", created.ID, in)
	require.NoError(t, err)
	assert.Equal(t, []string{}, updated.Placeholders)
}

func TestUpdateTemplate_MergesAppearanceAndInvalidatesBothKeys(t *testing.T) {
	svc, _, _, tc := newTemplateService()
	created, err := svc.CreateTemplate(context.Background(), "admin", TemplateInput{
		Key:        strPtr("welcome"),
		Subject:    strPtr("s"),
		Body:       strPtr("b"),
		Appearance: model.Appearance{HeaderText: strPtr("Hello"), FooterText: strPtr("Bye")},
	})
	require.NoError(t, err)

	updated, err := svc.UpdateTemplate(context.Background(), "admin", created.ID, TemplateInput{
		Key:        strPtr("onboarding"),
		Appearance: model.Appearance{FooterText: strPtr("See you")},
		Header:     boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, "onboarding", updated.Key)
	assert.Equal(t, "Hello", *updated.HeaderText)
	assert.Equal(t, "See you", *updated.FooterText)
	assert.True(t, updated.Header)
	assert.Equal(t, []string{"welcome", "onboarding"}, tc.invalidated)
}

func TestUpdateTemplate_NotFound(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	_, err := svc.UpdateTemplate(context.Background(), "admin", "missing", TemplateInput{})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestDeleteTemplate(t *testing.T) {
	svc, templates, _, tc := newTemplateService()
	created, err := svc.CreateTemplate(context.Background(), "admin", TemplateInput{
		Key: strPtr("welcome"), Subject: strPtr("s"), Body: strPtr("b"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteTemplate(context.Background(), "admin", created.ID))

	_, err = templates.GetByID(context.Background(), created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Equal(t, []string{"welcome"}, tc.invalidated)

	err = svc.DeleteTemplate(context.Background(), "admin", created.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGlobalTemplateCRUD(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	ctx := context.Background()

	g, err := svc.CreateGlobalTemplate(ctx, "admin", GlobalTemplateInput{
		Appearance: model.Appearance{HeaderImage: strPtr("logo.png")},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, g.ID)

	g, err = svc.UpdateGlobalTemplate(ctx, "admin", g.ID, GlobalTemplateInput{
		Appearance: model.Appearance{FooterText: strPtr("Acme Inc.")},
	})
	require.NoError(t, err)
	assert.Equal(t, "logo.png", *g.HeaderImage)
	assert.Equal(t, "Acme Inc.", *g.FooterText)

	list, err := svc.ListGlobalTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, svc.DeleteGlobalTemplate(ctx, "admin", g.ID))
	_, err = svc.GetGlobalTemplate(ctx, g.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPreviewTemplate_UsesGlobalDefaults(t *testing.T) {
	svc, _, globals, _ := newTemplateService()
	globals.rows = []model.GlobalEmailTemplate{{
		ID:         "g1",
		Appearance: model.Appearance{FooterText: strPtr("Thanks, {name}")},
	}}

	rendered, err := svc.PreviewTemplate(context.Background(), TemplateInput{
		Key:          strPtr("draft"),
		Subject:      strPtr("Hi {name}"),
		Body:         strPtr("Body"),
		Placeholders: *model.PlaceholderText("name"),
	}, map[string]string{"name": "Ada"})
	require.NoError(t, err)

	assert.Equal(t, "Hi Ada", rendered.Subject)
	assert.Equal(t, "Thanks, Ada", rendered.FooterText)
}

func TestPlaceholderRoundTrip(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	created, err := svc.CreateTemplate(context.Background(), "admin", TemplateInput{
		Key:          strPtr("welcome"),
		Subject:      strPtr("s"),
		Body:         strPtr("b"),
		Placeholders: *model.PlaceholderText("First Name, order-id, first name"),
	})
	require.NoError(t, err)

	display := builder.PlaceholdersToDisplayString(created.Placeholders)
	assert.Equal(t, created.Placeholders, builder.NormalizePlaceholders(model.PlaceholderText(display)))
}

func TestTemplateHistory_RecordsChanges(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	audit := &memAudit{}
	svc.WithAuditStore(audit)
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, "alice", TemplateInput{
		Key:     strPtr("welcome"),
		Subject: strPtr("Hi"),
		Body:    strPtr("Hello"),
	})
	require.NoError(t, err)

	_, err = svc.UpdateTemplate(ctx, "bob", created.ID, TemplateInput{Subject: strPtr("Hey")})
	require.NoError(t, err)

	history, err := svc.TemplateHistory(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, AuditActionTemplateUpdate, history[0].Action)
	assert.Equal(t, "bob", history[0].Actor)
	assert.Equal(t, AuditActionTemplateCreate, history[1].Action)
	assert.Equal(t, "welcome", history[1].Metadata["key"])
}

func TestTemplateHistory_WithoutStore(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, "alice", TemplateInput{
		Key:     strPtr("welcome"),
		Subject: strPtr("Hi"),
		Body:    strPtr("Hello"),
	})
	require.NoError(t, err)

	history, err := svc.TemplateHistory(ctx, created.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	_, err = svc.TemplateHistory(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRecord_StoreFailureDoesNotFailChange(t *testing.T) {
	svc, _, _, _ := newTemplateService()
	svc.WithAuditStore(&memAudit{err: assert.AnError})

	_, err := svc.CreateTemplate(context.Background(), "alice", TemplateInput{
		Key:     strPtr("welcome"),
		Subject: strPtr("Hi"),
		Body:    strPtr("Hello"),
	})
	assert.NoError(t, err)
}
