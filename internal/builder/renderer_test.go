package builder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

type mockTemplateFinder struct {
	mock.Mock
}

func (m *mockTemplateFinder) GetByKey(ctx context.Context, key string) (*model.EmailTemplate, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.EmailTemplate), args.Error(1)
}

type staticDefaults []model.GlobalEmailTemplate

func (s staticDefaults) List(ctx context.Context) ([]model.GlobalEmailTemplate, error) {
	return s, nil
}

type failingDefaults struct{}

func (failingDefaults) List(ctx context.Context) ([]model.GlobalEmailTemplate, error) {
	return nil, errors.New("connection refused")
}

func welcomeTemplate() *model.EmailTemplate {
	return &model.EmailTemplate{
		Key:          "welcome_email",
		Subject:      "Welcome {name}",
		Body:         "<p>Hello {name}, your order {order_id} is ready. {secret}</p>",
		Placeholders: []string{"name", "order_id"},
		Appearance: model.Appearance{
			HeaderText:  strPtr("Hi {name}"),
			HeaderImage: strPtr(""),
		},
	}
}

func TestRenderByKey(t *testing.T) {
	finder := new(mockTemplateFinder)
	finder.On("GetByKey", mock.Anything, "welcome_email").Return(welcomeTemplate(), nil)

	defaults := staticDefaults{
		{Appearance: model.Appearance{
			HeaderImage: strPtr("logo.png"),
			HeaderText:  strPtr("global header"),
			FooterText:  strPtr("Sent to {name}"),
		}},
	}

	r := NewRenderer(finder, defaults)
	out, err := r.RenderByKey(context.Background(), "Welcome Email!", map[string]string{"name": "Ann", "secret": "s3"})
	require.NoError(t, err)

	assert.Equal(t, "welcome_email", out.Key)
	assert.Equal(t, "Welcome Ann", out.Subject)
	assert.Equal(t, "<p>Hello Ann, your order  is ready. {secret}</p>", out.Body)
	assert.Equal(t, "logo.png", out.HeaderImage)
	assert.Equal(t, "Hi Ann", out.HeaderText)
	assert.Equal(t, "Sent to Ann", out.FooterText)
	assert.Equal(t, "", out.FooterImage)
	finder.AssertExpectations(t)
}

func TestRenderByKey_NotFound(t *testing.T) {
	finder := new(mockTemplateFinder)
	finder.On("GetByKey", mock.Anything, "missing_key").Return(nil, repository.ErrNotFound)

	r := NewRenderer(finder, staticDefaults{})
	_, err := r.RenderByKey(context.Background(), "missing_key", map[string]string{})
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderByKey_EmptyKey(t *testing.T) {
	finder := new(mockTemplateFinder)
	r := NewRenderer(finder, staticDefaults{})

	_, err := r.RenderByKey(context.Background(), "***", nil)
	assert.ErrorIs(t, err, ErrTemplateNotFound)
	finder.AssertNotCalled(t, "GetByKey", mock.Anything, mock.Anything)
}

func TestRenderByKey_RepositoryError(t *testing.T) {
	finder := new(mockTemplateFinder)
	finder.On("GetByKey", mock.Anything, "welcome").Return(nil, fmt.Errorf("query failed"))

	r := NewRenderer(finder, staticDefaults{})
	_, err := r.RenderByKey(context.Background(), "welcome", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrTemplateNotFound)
}

func TestRenderByKey_DefaultsError(t *testing.T) {
	finder := new(mockTemplateFinder)
	finder.On("GetByKey", mock.Anything, "welcome_email").Return(welcomeTemplate(), nil)

	r := NewRenderer(finder, failingDefaults{})
	_, err := r.RenderByKey(context.Background(), "welcome_email", nil)
	assert.Error(t, err)
}

func TestRender_RenormalizesStoredPlaceholders(t *testing.T) {
	tmpl := &model.EmailTemplate{
		Subject:      "{first_name}",
		Body:         "{first_name}{first_name}",
		Placeholders: []string{"first name", "first_name", ""},
	}
	out := Render(tmpl, nil, map[string]string{"first_name": "Zed"})
	assert.Equal(t, "Zed", out.Subject)
	assert.Equal(t, "ZedZed", out.Body)
}
