package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beachcomp/tournament-engine/services"
)

type PoolHandler struct {
	poolService *services.PoolService
}

func NewPoolHandler(poolService *services.PoolService) *PoolHandler {
	return &PoolHandler{poolService: poolService}
}

// InitializePools creates the stage's empty pools per the format definition.
// POST /tournaments/{tournamentID}/stages/{stageKey}/pools
func (h *PoolHandler) InitializePools(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	pools, err := h.poolService.InitializePools(r.Context(), tournamentID, stageKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"pools": pools}, nil)
}

// AutoFill distributes teams into the stage's pools serpentine-style.
// POST /tournaments/{tournamentID}/stages/{stageKey}/pools/autofill?force=true
func (h *PoolHandler) AutoFill(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")
	force := r.URL.Query().Get("force") == "true"

	pools, err := h.poolService.AutoFillSerpentine(r.Context(), tournamentID, stageKey, force)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"pools": pools}, nil)
}

// List returns the stage's pools.
// GET /tournaments/{tournamentID}/stages/{stageKey}/pools
func (h *PoolHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	pools, err := h.poolService.ListByStage(r.Context(), tournamentID, stageKey)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"pools": pools}, nil)
}

// ReassignTeam moves a team between pools (or repositions it within one).
// PUT /pools/{poolID}/teams/{teamID}
func (h *PoolHandler) ReassignTeam(w http.ResponseWriter, r *http.Request) {
	poolID, err := urlParamInt(r, "poolID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		TargetPoolID int `json:"target_pool_id"`
		TargetIndex  int `json:"target_index"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.TargetPoolID == 0 {
		input.TargetPoolID = poolID
	}

	if err := h.poolService.ReassignTeam(r.Context(), poolID, teamID, input.TargetPoolID, input.TargetIndex); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "team reassigned"}, nil)
}
