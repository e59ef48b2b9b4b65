package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/logger"
	"github.com/emailbuilder/emailbuilder/internal/middleware"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/repository"
	"github.com/emailbuilder/emailbuilder/internal/service"
)

// maxBodyBytes bounds request bodies; template bodies are HTML documents
const maxBodyBytes = 1 << 20

// TemplateAdmin is the template administration surface used by the handlers
type TemplateAdmin interface {
	CreateTemplate(ctx context.Context, actor string, in service.TemplateInput) (*model.EmailTemplate, error)
	UpdateTemplate(ctx context.Context, actor, id string, in service.TemplateInput) (*model.EmailTemplate, error)
	GetTemplate(ctx context.Context, id string) (*model.EmailTemplate, error)
	ListTemplates(ctx context.Context) ([]model.EmailTemplate, error)
	DeleteTemplate(ctx context.Context, actor, id string) error
	PreviewTemplate(ctx context.Context, in service.TemplateInput, data map[string]string) (*model.RenderedEmail, error)
	TemplateHistory(ctx context.Context, id string) ([]model.AuditLog, error)

	CreateGlobalTemplate(ctx context.Context, actor string, in service.GlobalTemplateInput) (*model.GlobalEmailTemplate, error)
	UpdateGlobalTemplate(ctx context.Context, actor, id string, in service.GlobalTemplateInput) (*model.GlobalEmailTemplate, error)
	GetGlobalTemplate(ctx context.Context, id string) (*model.GlobalEmailTemplate, error)
	ListGlobalTemplates(ctx context.Context) ([]model.GlobalEmailTemplate, error)
	DeleteGlobalTemplate(ctx context.Context, actor, id string) error
}

// Mailer renders and delivers templates
type Mailer interface {
	Render(ctx context.Context, key string, data map[string]string) (*model.RenderedEmail, error)
	SendByKey(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (*model.RenderedEmail, error)
	Enqueue(ctx context.Context, recipient model.Recipient, key string, data map[string]string) (string, error)
}

// HealthChecker is a dependency that can report its health
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds all HTTP handlers
type Handler struct {
	log       *logger.Logger
	templates TemplateAdmin
	mailer    Mailer
	checks    map[string]HealthChecker
}

// New creates a new Handler instance. checks names the dependencies
// reported by /health and required by /ready.
func New(log *logger.Logger, templates TemplateAdmin, mailer Mailer, checks map[string]HealthChecker) *Handler {
	return &Handler{
		log:       log.WithComponent("http"),
		templates: templates,
		mailer:    mailer,
		checks:    checks,
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"code":    code,
			"message": message,
		},
	})
}

func readJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if r.Body == nil {
		return io.EOF
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// readOptionalJSON is readJSON where an empty body is allowed
func readOptionalJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	if err := readJSON(w, r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// writeServiceError maps domain errors to HTTP responses
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, builder.ErrTemplateNotFound), errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, repository.ErrDuplicate):
		writeError(w, http.StatusConflict, "DUPLICATE_KEY", "A template with this key already exists")
	case errors.Is(err, service.ErrInvalidTemplate), errors.Is(err, service.ErrInvalidRecipient):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, service.ErrRecipientNotFound):
		writeError(w, http.StatusUnprocessableEntity, "RECIPIENT_NOT_FOUND", err.Error())
	case errors.Is(err, service.ErrQueueUnavailable):
		writeError(w, http.StatusServiceUnavailable, "QUEUE_UNAVAILABLE", err.Error())
	default:
		h.log.Error().Err(err).
			Str("request_id", middleware.GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg(msg)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", msg)
	}
}

func actor(r *http.Request) string {
	return middleware.GetActor(r.Context())
}
