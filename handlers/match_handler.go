package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/repositories"
	"github.com/beachcomp/tournament-engine/services"
)

type MatchHandler struct {
	matchService      *services.MatchService
	generationService *services.GenerationService
}

func NewMatchHandler(matchService *services.MatchService, generationService *services.GenerationService) *MatchHandler {
	return &MatchHandler{matchService: matchService, generationService: generationService}
}

// GenerateStage creates a stage's full match set.
// POST /tournaments/{tournamentID}/stages/{stageKey}/matches
func (h *MatchHandler) GenerateStage(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	stageKey := chi.URLParam(r, "stageKey")

	var input struct {
		Force bool             `json:"force"`
		Seeds map[string][]int `json:"seeds"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	matches, err := h.generationService.GenerateStage(r.Context(), tournamentID, stageKey, input.Seeds, input.Force)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"matches": matches}, nil)
}

// List returns a tournament's matches, optionally narrowed by query params.
// GET /tournaments/{tournamentID}/matches?stage_key=&phase=&bracket_id=&status=
func (h *MatchHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var filter repositories.MatchFilter
	q := r.URL.Query()
	if v := q.Get("stage_key"); v != "" {
		filter.StageKey = &v
	}
	if v := q.Get("phase"); v != "" {
		phase := models.MatchPhase(v)
		filter.Phase = &phase
	}
	if v := q.Get("bracket_id"); v != "" {
		filter.BracketID = &v
	}
	if v := q.Get("status"); v != "" {
		status := models.MatchStatus(v)
		filter.Status = &status
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID, filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil)
}

// Get returns one match.
// GET /matches/{matchID}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.GetByID(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

// UpdateStatus sets the informational lifecycle status.
// PUT /matches/{matchID}/status
func (h *MatchHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		Status models.MatchStatus `json:"status"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.matchService.UpdateStatus(r.Context(), matchID, input.Status)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

// Finalize snapshots the scoring device into an immutable result.
// POST /matches/{matchID}/finalize
func (h *MatchHandler) Finalize(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input struct {
		FinalizedBy string `json:"finalized_by"`
	}
	if r.ContentLength > 0 {
		if err := readJSON(w, r, &input); err != nil {
			badRequestResponse(w, r, err)
			return
		}
	}

	match, err := h.matchService.Finalize(r.Context(), matchID, input.FinalizedBy)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

// Unfinalize reverts a finalized match to ended.
// POST /matches/{matchID}/unfinalize
func (h *MatchHandler) Unfinalize(w http.ResponseWriter, r *http.Request) {
	matchID, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	match, err := h.matchService.Unfinalize(r.Context(), matchID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil)
}

// Recompute re-resolves bracket dependencies on demand, a maintenance escape
// hatch; normal operation triggers it from finalize/unfinalize.
// POST /tournaments/{tournamentID}/brackets/recompute?bracket_id=
func (h *MatchHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	var bracketID *string
	if v := r.URL.Query().Get("bracket_id"); v != "" {
		bracketID = &v
	}

	diff, err := h.matchService.RecomputeBrackets(r.Context(), tournamentID, bracketID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{
		"updated_match_ids": matchIDList(diff.Updated),
		"cleared_match_ids": diff.ClearedIDs,
	}, nil)
}

func matchIDList(matches []*models.Match) []int {
	ids := make([]int, len(matches))
	for i, m := range matches {
		ids[i] = m.ID
	}
	return ids
}
