package email

import (
	"context"
	"errors"
	"strings"
)

// ErrNoRecipient is returned by providers for a message without a To address
var ErrNoRecipient = errors.New("email: message has no recipient")

// Sender delivers a laid-out message through one provider
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Message is a rendered email ready for a provider. Either body may be
// empty; providers send multipart/alternative when both are set.
type Message struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// Validate checks the fields every provider needs
func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return ErrNoRecipient
	}
	return nil
}
