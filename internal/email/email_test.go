package email

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/model"
)

func TestLayoutRenderer_FullLayout(t *testing.T) {
	r := NewLayoutRenderer("https://cdn.example.com/")
	msg, err := r.Render("ann@example.com", &model.RenderedEmail{
		Subject:               "Welcome <Ann>",
		Body:                  "<p>Hello <b>Ann</b></p>",
		HeaderImage:           "img/logo.png",
		HeaderText:            "<h1>Acme</h1>",
		HeaderTextColor:       "#ffffff",
		HeaderBackgroundColor: "red; background-image: url(evil)",
		FooterText:            "Bye &amp; thanks",
		FooterBottomImage:     "https://other.example.com/bottom.png",
	})
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, "Welcome <Ann>", msg.Subject)
	assert.Contains(t, msg.HTMLBody, "<title>Welcome &lt;Ann&gt;</title>")
	assert.Contains(t, msg.HTMLBody, `<img src="https://cdn.example.com/img/logo.png" />`)
	assert.Contains(t, msg.HTMLBody, "<h1>Acme</h1>")
	assert.Contains(t, msg.HTMLBody, "<p>Hello <b>Ann</b></p>")
	assert.Contains(t, msg.HTMLBody, "color: #ffffff")
	assert.NotContains(t, msg.HTMLBody, "evil")
	assert.Contains(t, msg.HTMLBody, `<img src="https://other.example.com/bottom.png" />`)
	assert.NotContains(t, msg.HTMLBody, "footer_image")

	assert.Equal(t, "Acme\n\nHello Ann\n\nBye & thanks", msg.TextBody)
}

func TestLayoutRenderer_OmitsEmptySections(t *testing.T) {
	r := NewLayoutRenderer("")
	msg, err := r.Render("a@example.com", &model.RenderedEmail{Subject: "S", Body: "Just the body"})
	require.NoError(t, err)

	assert.NotContains(t, msg.HTMLBody, "<img")
	assert.NotContains(t, msg.HTMLBody, "<div")
	assert.Equal(t, "Just the body", msg.TextBody)
}

func TestBuildMIME(t *testing.T) {
	raw, err := buildMIME("no-reply@acme.test", "Acme", Message{
		To:       "ann@example.com",
		Subject:  "Hi",
		HTMLBody: "<p>Hi</p>",
		TextBody: "Hi",
	})
	require.NoError(t, err)
	out := string(raw)
	assert.Contains(t, out, "From: \"Acme\" <no-reply@acme.test>\r\n")
	assert.Contains(t, out, "To: ann@example.com\r\n")
	assert.Contains(t, out, "Subject: Hi\r\n")
	assert.Contains(t, out, "multipart/alternative")
	assert.Contains(t, out, "Content-Transfer-Encoding: quoted-printable")
	assert.Less(t, strings.Index(out, "text/plain"), strings.Index(out, "text/html"))

	htmlOnly, err := buildMIME("a@acme.test", "", Message{To: "b@acme.test", Subject: "S", HTMLBody: "<p>x</p>"})
	require.NoError(t, err)
	assert.Contains(t, string(htmlOnly), "Content-Type: text/html; charset=UTF-8")
	assert.NotContains(t, string(htmlOnly), "multipart")
}

func TestBuildMIME_EncodesSubject(t *testing.T) {
	raw, err := buildMIME("a@acme.test", "", Message{To: "b@acme.test", Subject: "Grüße", TextBody: "x"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "=?UTF-8?q?Gr=C3=BC=C3=9Fe?=")
}

func TestBuildMIME_WrapsLongLines(t *testing.T) {
	long := strings.Repeat("<td>cell</td>", 200)
	raw, err := buildMIME("a@acme.test", "", Message{To: "b@acme.test", Subject: "S", HTMLBody: long})
	require.NoError(t, err)

	for _, line := range strings.Split(string(raw), "\r\n") {
		assert.LessOrEqual(t, len(line), 78)
	}
}

func TestMessageValidate(t *testing.T) {
	assert.ErrorIs(t, Message{Subject: "S"}.Validate(), ErrNoRecipient)
	assert.NoError(t, Message{To: "a@acme.test"}.Validate())
}

func TestNewSMTPSender_Validation(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{From: "a@acme.test"})
	assert.Error(t, err)

	_, err = NewSMTPSender(SMTPConfig{Host: "smtp.acme.test"})
	assert.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.acme.test", Port: 465, From: "a@acme.test", TLSMode: "ssl"})
	require.NoError(t, err)
	assert.True(t, s.dialer.SSL)
}

func TestNewSender(t *testing.T) {
	s, err := NewSender(context.Background(), config.EmailConfig{Provider: "log"}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &LogSender{}, s)
	assert.NoError(t, s.Send(context.Background(), Message{To: "a@acme.test"}))

	_, err = NewSender(context.Background(), config.EmailConfig{Provider: "gmail"}, logger.Nop())
	assert.Error(t, err, "gmail needs credentials")

	_, err = NewSender(context.Background(), config.EmailConfig{Provider: "fax"}, logger.Nop())
	assert.Error(t, err)
}

func TestLogSender_KeepsBodyOutOfInfo(t *testing.T) {
	var buf bytes.Buffer
	log := &logger.Logger{Logger: zerolog.New(&buf).Level(zerolog.InfoLevel)}
	msg := Message{To: "ann@example.com", Subject: "Reset", TextBody: "reset: https://acme.test/r/secret-token"}

	require.NoError(t, NewLogSender(log).Send(context.Background(), msg))
	assert.Contains(t, buf.String(), `"text_bytes":39`)
	assert.NotContains(t, buf.String(), "secret-token")

	buf.Reset()
	log = &logger.Logger{Logger: zerolog.New(&buf).Level(zerolog.DebugLevel)}
	require.NoError(t, NewLogSender(log).Send(context.Background(), msg))
	assert.Contains(t, buf.String(), "secret-token")
}
