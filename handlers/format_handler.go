package handlers

import (
	"net/http"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/services"
)

type FormatHandler struct {
	formatService *services.FormatService
}

func NewFormatHandler(formatService *services.FormatService) *FormatHandler {
	return &FormatHandler{formatService: formatService}
}

// Create validates and stores a format definition.
// POST /formats
func (h *FormatHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string                 `json:"name"`
		Settings *models.FormatSettings `json:"settings"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	format, err := h.formatService.Create(r.Context(), input.Name, input.Settings)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"format": format}, nil)
}

// List returns every stored format.
// GET /formats
func (h *FormatHandler) List(w http.ResponseWriter, r *http.Request) {
	formats, err := h.formatService.GetAll(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"formats": formats}, nil)
}

// Get returns one format with parsed settings.
// GET /formats/{formatID}
func (h *FormatHandler) Get(w http.ResponseWriter, r *http.Request) {
	formatID, err := urlParamInt(r, "formatID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	format, err := h.formatService.GetByID(r.Context(), formatID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"format": format}, nil)
}

// Delete removes an unused format.
// DELETE /formats/{formatID}
func (h *FormatHandler) Delete(w http.ResponseWriter, r *http.Request) {
	formatID, err := urlParamInt(r, "formatID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.formatService.Delete(r.Context(), formatID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "format deleted"}, nil)
}
