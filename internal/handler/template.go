package handler

import (
	"net/http"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/service"
)

// TemplateResponse is a template plus its display form of placeholders
type TemplateResponse struct {
	*model.EmailTemplate
	PlaceholdersDisplay string `json:"placeholdersDisplay"`
}

func newTemplateResponse(t *model.EmailTemplate) TemplateResponse {
	return TemplateResponse{
		EmailTemplate:       t,
		PlaceholdersDisplay: builder.PlaceholdersToDisplayString(t.Placeholders),
	}
}

// PreviewRequest is an unsaved template plus sample data
type PreviewRequest struct {
	Template service.TemplateInput `json:"template"`
	Data     map[string]string     `json:"data"`
}

// ListTemplates handles GET /api/v1/templates
func (h *Handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.templates.ListTemplates(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list templates")
		return
	}

	out := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		out = append(out, newTemplateResponse(&templates[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"templates": out})
}

// CreateTemplate handles POST /api/v1/templates
func (h *Handler) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var in service.TemplateInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	t, err := h.templates.CreateTemplate(r.Context(), actor(r), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, newTemplateResponse(t))
}

// GetTemplate handles GET /api/v1/templates/{id}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := h.templates.GetTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to load template")
		return
	}
	writeJSON(w, http.StatusOK, newTemplateResponse(t))
}

// UpdateTemplate handles PUT /api/v1/templates/{id}
func (h *Handler) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	var in service.TemplateInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	t, err := h.templates.UpdateTemplate(r.Context(), actor(r), r.PathValue("id"), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update template")
		return
	}
	writeJSON(w, http.StatusOK, newTemplateResponse(t))
}

// DeleteTemplate handles DELETE /api/v1/templates/{id}
func (h *Handler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.DeleteTemplate(r.Context(), actor(r), r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// TemplateHistory handles GET /api/v1/templates/{id}/history
func (h *Handler) TemplateHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.templates.TemplateHistory(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to load template history")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": history})
}

// PreviewTemplate handles POST /api/v1/templates/preview
func (h *Handler) PreviewTemplate(w http.ResponseWriter, r *http.Request) {
	var req PreviewRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	rendered, err := h.templates.PreviewTemplate(r.Context(), req.Template, req.Data)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to preview template")
		return
	}
	writeJSON(w, http.StatusOK, rendered)
}
