package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/emailbuilder/emailbuilder/internal/builder"
	"github.com/emailbuilder/emailbuilder/internal/model"
	"github.com/emailbuilder/emailbuilder/internal/service"
)

// RenderRequest carries placeholder values for a render
type RenderRequest struct {
	Data map[string]string `json:"data"`
}

// SendRequest carries the recipient and placeholder values for a send
type SendRequest struct {
	Recipient model.Recipient   `json:"recipient"`
	Data      map[string]string `json:"data"`
}

// NormalizeRequest is the input of the authoring normalization utility
type NormalizeRequest struct {
	Key          string                `json:"key"`
	Placeholders model.RawPlaceholders `json:"placeholders"`
}

// NormalizeResponse is the normalized form of a NormalizeRequest
type NormalizeResponse struct {
	Key                 string   `json:"key"`
	Placeholders        []string `json:"placeholders"`
	PlaceholdersDisplay string   `json:"placeholdersDisplay"`
}

// RenderTemplate handles POST /api/v1/templates/{key}/render
func (h *Handler) RenderTemplate(w http.ResponseWriter, r *http.Request) {
	var req RenderRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	rendered, err := h.mailer.Render(r.Context(), r.PathValue("key"), req.Data)
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to render template")
		return
	}
	writeJSON(w, http.StatusOK, rendered)
}

// SendTemplate handles POST /api/v1/templates/{key}/send. With ?async=true
// the send is queued and 202 is returned with the task ID.
func (h *Handler) SendTemplate(w http.ResponseWriter, r *http.Request) {
	var req SendRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	key := r.PathValue("key")

	if async, _ := strconv.ParseBool(r.URL.Query().Get("async")); async {
		taskID, err := h.mailer.Enqueue(r.Context(), req.Recipient, key, req.Data)
		if err != nil {
			h.writeServiceError(w, r, err, "Failed to enqueue email")
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"status": "queued",
			"taskId": taskID,
		})
		return
	}

	rendered, err := h.mailer.SendByKey(r.Context(), req.Recipient, key, req.Data)
	if errors.Is(err, service.ErrDeliveryFailed) {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"status": "failed",
			"email":  rendered,
			"error": map[string]interface{}{
				"code":    "DELIVERY_FAILED",
				"message": "The email was rendered but could not be delivered",
			},
		})
		return
	}
	if err != nil {
		h.writeServiceError(w, r, err, "Failed to send email")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "sent",
		"email":  rendered,
	})
}

// Normalize handles POST /api/v1/normalize
func (h *Handler) Normalize(w http.ResponseWriter, r *http.Request) {
	var req NormalizeRequest
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	placeholders := builder.NormalizePlaceholders(&req.Placeholders)
	writeJSON(w, http.StatusOK, NormalizeResponse{
		Key:                 builder.NormalizeKey(req.Key),
		Placeholders:        placeholders,
		PlaceholdersDisplay: builder.PlaceholdersToDisplayString(placeholders),
	})
}
