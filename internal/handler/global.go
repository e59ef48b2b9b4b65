package handler

import (
	"net/http"

	"github.com/emailbuilder/emailbuilder/internal/service"
)

// ListGlobalTemplates handles GET /api/v1/global-templates
func (h *Handler) ListGlobalTemplates(w http.ResponseWriter, r *http.Request) {
	globals, err := h.templates.ListGlobalTemplates(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to list global templates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"globalTemplates": globals})
}

// CreateGlobalTemplate handles POST /api/v1/global-templates
func (h *Handler) CreateGlobalTemplate(w http.ResponseWriter, r *http.Request) {
	var in service.GlobalTemplateInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	g, err := h.templates.CreateGlobalTemplate(r.Context(), actor(r), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to create global template")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// GetGlobalTemplate handles GET /api/v1/global-templates/{id}
func (h *Handler) GetGlobalTemplate(w http.ResponseWriter, r *http.Request) {
	g, err := h.templates.GetGlobalTemplate(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to load global template")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// UpdateGlobalTemplate handles PUT /api/v1/global-templates/{id}
func (h *Handler) UpdateGlobalTemplate(w http.ResponseWriter, r *http.Request) {
	var in service.GlobalTemplateInput
	if err := readJSON(w, r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	g, err := h.templates.UpdateGlobalTemplate(r.Context(), actor(r), r.PathValue("id"), in)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to update global template")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// DeleteGlobalTemplate handles DELETE /api/v1/global-templates/{id}
func (h *Handler) DeleteGlobalTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.DeleteGlobalTemplate(r.Context(), actor(r), r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err, "Failed to delete global template")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
