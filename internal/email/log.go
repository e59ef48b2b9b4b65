package email

import (
	"context"

	"github.com/emailbuilder/emailbuilder/internal/logger"
)

// LogSender writes messages to the log instead of delivering them.
// Useful for development or when no provider is configured.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a new LogSender
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log.WithComponent("log_sender")}
}

// Send logs the message envelope. Bodies can carry reset links and other
// secrets, so the text body only appears at debug level.
func (s *LogSender) Send(ctx context.Context, msg Message) error {
	s.log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Int("html_bytes", len(msg.HTMLBody)).
		Int("text_bytes", len(msg.TextBody)).
		Msg("email logged instead of sent")
	s.log.Debug().
		Str("to", msg.To).
		Str("text_body", msg.TextBody).
		Msg("logged email body")
	return nil
}
