package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/email"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/metrics"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
)

// Renderer renders a stored template by key
type Renderer interface {
	RenderByKey(ctx context.Context, key string, data map[string]string) (*model.RenderedEmail, error)
}

// UserDirectory resolves a user ID to an email address
type UserDirectory interface {
	EmailForUser(ctx context.Context, userID string) (string, error)
}

// SendQueue schedules a send for a background worker and returns the job ID
type SendQueue interface {
	EnqueueSend(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (string, error)
}

// MailService renders templates and delivers them to recipients.
type MailService struct {
	renderer Renderer
	layout   *email.LayoutRenderer
	sender   email.Sender
	users    UserDirectory
	queue    SendQueue
	log      *logger.Logger
}

// NewMailService creates a new MailService. users and queue may be nil, in
// which case user recipients and Enqueue are rejected.
func NewMailService(
	renderer Renderer,
	layout *email.LayoutRenderer,
	sender email.Sender,
	users UserDirectory,
	queue SendQueue,
	log *logger.Logger,
) *MailService {
	return &MailService{
		renderer: renderer,
		layout:   layout,
		sender:   sender,
		users:    users,
		queue:    queue,
		log:      log.WithComponent("mail_service"),
	}
}

// Render renders a template by key and records render metrics
func (s *MailService) Render(ctx context.Context, key string, data map[string]string) (*model.RenderedEmail, error) {
	start := time.Now()
	rendered, err := s.renderer.RenderByKey(ctx, key, data)
	metrics.RenderDuration.Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.Renders.WithLabelValues("ok").Inc()
	case errors.Is(err, builder.ErrTemplateNotFound):
		metrics.Renders.WithLabelValues("not_found").Inc()
	default:
		metrics.Renders.WithLabelValues("error").Inc()
	}
	return rendered, err
}

// SendByKey renders the template for key and delivers it to recipient.
// A delivery failure still returns the rendered email alongside
// ErrDeliveryFailed.
func (s *MailService) SendByKey(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (*model.RenderedEmail, error) {
	to, err := s.resolveRecipient(ctx, recipient)
	if err != nil {
		return nil, err
	}

	rendered, err := s.Render(ctx, key, data)
	if err != nil {
		return nil, err
	}

	log := s.log.WithTemplateKey(rendered.Key)

	msg, err := s.layout.Render(to, rendered)
	if err != nil {
		metrics.Deliveries.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("recipient", recipient.String()).Msg("failed to build email layout")
		return rendered, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		metrics.Deliveries.WithLabelValues("failed").Inc()
		log.Error().Err(err).Str("recipient", recipient.String()).Msg("failed to send email")
		return rendered, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	metrics.Deliveries.WithLabelValues("sent").Inc()
	log.Info().Str("recipient", recipient.String()).Msg("email sent")
	return rendered, nil
}

// Enqueue validates the recipient and schedules a background send
func (s *MailService) Enqueue(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (string, error) {
	if s.queue == nil {
		return "", ErrQueueUnavailable
	}
	if err := ValidateRecipient(recipient); err != nil {
		return "", err
	}
	normalized := builder.NormalizeKey(key)
	if normalized == "" {
		return "", fmt.Errorf("%w: empty key %q", builder.ErrTemplateNotFound, key)
	}

	id, err := s.queue.EnqueueSend(ctx, recipient, normalized, data)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue email: %w", err)
	}

	metrics.Deliveries.WithLabelValues("enqueued").Inc()
	s.log.Info().
		Str("task_id", id).
		Str("template_key", normalized).
		Str("recipient", recipient.String()).
		Msg("email enqueued")
	return id, nil
}

// ValidateRecipient checks the shape of a recipient without any lookups
func ValidateRecipient(r model.Recipient) error {
	switch r.Kind {
	case model.RecipientAddress:
		if _, err := parseAddress(r.Email); err != nil {
			return err
		}
	case model.RecipientUser:
		if strings.TrimSpace(r.UserID) == "" {
			return fmt.Errorf("%w: user id is required", ErrInvalidRecipient)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRecipient, r.Kind)
	}
	return nil
}

func (s *MailService) resolveRecipient(ctx context.Context, r model.Recipient) (string, error) {
	if err := ValidateRecipient(r); err != nil {
		return "", err
	}
	if r.Kind == model.RecipientAddress {
		return parseAddress(r.Email)
	}

	if s.users == nil {
		return "", fmt.Errorf("%w: user lookup is not configured", ErrRecipientNotFound)
	}
	addr, err := s.users.EmailForUser(ctx, r.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", fmt.Errorf("%w: user %s", ErrRecipientNotFound, r.UserID)
		}
		return "", fmt.Errorf("failed to look up user email: %w", err)
	}
	return parseAddress(addr)
}

func parseAddress(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRecipient, raw)
	}
	return addr.Address, nil
}
