package repository

import (
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailbuilder/emailbuilder/internal/model"
)

func TestSelectColumns_BodyColumnType(t *testing.T) {
	text := NewTemplateRepository(nil, BodyColumnLongText)
	assert.Contains(t, text.selectColumns(), "subject, body, placeholders")
	assert.Equal(t, "$5", text.bodyParam(5))

	js := NewTemplateRepository(nil, BodyColumnJSON)
	assert.Contains(t, js.selectColumns(), "body #>> '{}'")
	assert.Equal(t, "to_jsonb($4::text)", js.bodyParam(4))
}

func TestSelectColumns_FooterColumnsFollowHeader(t *testing.T) {
	cols := NewTemplateRepository(nil, BodyColumnText).selectColumns()
	header := strings.Index(cols, "header_background_color")
	footer := strings.Index(cols, "footer_image")
	require.True(t, header > 0 && footer > 0)
	assert.Less(t, header, footer)
}

func TestPlaceholderCodec(t *testing.T) {
	b, err := encodePlaceholders(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	b, err = encodePlaceholders([]string{"name", "order_id"})
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "order_id"}, decodePlaceholders(b))

	assert.Equal(t, []string{}, decodePlaceholders(nil))
	assert.Equal(t, []string{}, decodePlaceholders([]byte("null")))
	assert.Equal(t, []string{}, decodePlaceholders([]byte(`{"bad":1}`)))
}

func TestAppearanceArgs(t *testing.T) {
	img := "logo.png"
	args := appearanceArgs(&model.Appearance{HeaderImage: &img})
	require.Len(t, args, len(model.Fields))
	assert.Equal(t, &img, args[0])
	assert.Nil(t, args[1])
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(assert.AnError))
}

func TestUserRepository_QuotesIdentifiers(t *testing.T) {
	r := NewUserRepository(nil, "app_users", "id", "primary email")
	assert.Equal(t, `SELECT "primary email" FROM "app_users" WHERE "id" = $1`, r.query)
}
