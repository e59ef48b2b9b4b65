package email

import (
	"context"
	"fmt"

	"github.com/emailbuilder/emailbuilder/internal/config"
	"github.com/emailbuilder/emailbuilder/internal/logger"
)

// NewSender builds the configured delivery provider
func NewSender(ctx context.Context, cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	switch cfg.Provider {
	case "gmail":
		sender, err := NewGmailSender(ctx, cfg.Gmail, cfg.FromName)
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "smtp":
		s := cfg.SMTP
		sender, err := NewSMTPSender(SMTPConfig{
			Host:     s.Host,
			Port:     s.Port,
			Username: s.Username,
			Password: s.Password,
			From:     s.From,
			FromName: cfg.FromName,
			TLSMode:  s.TLSMode,
		})
		if err != nil {
			return nil, err
		}
		return sender, nil
	case "log", "":
		return NewLogSender(log), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
