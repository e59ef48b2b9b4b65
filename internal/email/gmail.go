package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/emailbuilder/emailbuilder/internal/config"
)

// GmailSender delivers through the Gmail API as a single mailbox
type GmailSender struct {
	service  *gmail.Service
	from     string
	fromName string
}

// NewGmailSender authenticates with a refresh token when one is configured,
// and otherwise with service account credentials impersonating the sender
// through domain-wide delegation.
func NewGmailSender(ctx context.Context, cfg config.GmailEmailConfig, fromName string) (*GmailSender, error) {
	if cfg.SenderAddress == "" {
		return nil, errors.New("gmail: sender address is required")
	}

	var ts oauth2.TokenSource
	switch {
	case cfg.RefreshToken != "":
		oauthCfg := &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{gmail.GmailSendScope},
		}
		ts = oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	case cfg.CredentialsJSON != "":
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gmail.GmailSendScope)
		if err != nil {
			return nil, fmt.Errorf("gmail: failed to parse credentials: %w", err)
		}
		jwtConfig.Subject = cfg.SenderAddress
		ts = jwtConfig.TokenSource(ctx)
	default:
		return nil, errors.New("gmail: credentials JSON or refresh token is required")
	}

	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail: failed to create service: %w", err)
	}

	return &GmailSender{service: svc, from: cfg.SenderAddress, fromName: fromName}, nil
}

// Send uploads msg as a raw MIME message from the sender mailbox
func (g *GmailSender) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	mimeMsg, err := buildMIME(g.from, g.fromName, msg)
	if err != nil {
		return fmt.Errorf("gmail: failed to build message: %w", err)
	}
	raw := base64.URLEncoding.EncodeToString(mimeMsg)
	if _, err := g.service.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail: failed to send email: %w", err)
	}
	return nil
}

// buildMIME renders msg through go-mail, the same builder the SMTP sender
// uses, so bodies are quoted-printable and stay within line length limits.
func buildMIME(from, fromName string, msg Message) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buildSMTPMessage(from, fromName, msg).WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
