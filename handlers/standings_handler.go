package handlers

import (
	"net/http"

	"github.com/beachcomp/tournament-engine/services"
)

type StandingsHandler struct {
	standingsService *services.StandingsService
}

func NewStandingsHandler(standingsService *services.StandingsService) *StandingsHandler {
	return &StandingsHandler{standingsService: standingsService}
}

// Get computes standings for a scope. Empty stage_key means cumulative across
// stages; scope defaults to "overall", pool standings use "pool:<name>".
// GET /tournaments/{tournamentID}/standings?stage_key=&scope=
func (h *StandingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := r.URL.Query().Get("stage_key")
	scope := r.URL.Query().Get("scope")

	entries, err := h.standingsService.Compute(r.Context(), tournamentID, stageKey, scope)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"standings": entries}, nil)
}

// SetOverride stores a manual ranking for a scope.
// PUT /tournaments/{tournamentID}/standings/override
func (h *StandingsHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		StageKey string `json:"stage_key"`
		Scope    string `json:"scope"`
		TeamIDs  []int  `json:"team_ids"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.standingsService.SetOverride(r.Context(), tournamentID, input.StageKey, input.Scope, input.TeamIDs); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "override stored"}, nil)
}

// ClearOverride removes a manual ranking, restoring the computed order.
// DELETE /tournaments/{tournamentID}/standings/override?stage_key=&scope=
func (h *StandingsHandler) ClearOverride(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := r.URL.Query().Get("stage_key")
	scope := r.URL.Query().Get("scope")

	if err := h.standingsService.ClearOverride(r.Context(), tournamentID, stageKey, scope); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "override cleared"}, nil)
}
