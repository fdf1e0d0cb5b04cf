package handlers

import (
	"net/http"

	"github.com/beachcomp/tournament-engine/models"
	"github.com/beachcomp/tournament-engine/services"
)

const maxCrestUploadSize = 5 << 20 // 5MB

type TeamHandler struct {
	teamService *services.TeamService
}

func NewTeamHandler(teamService *services.TeamService) *TeamHandler {
	return &TeamHandler{teamService: teamService}
}

type teamInput struct {
	Name      string   `json:"name"`
	ShortName string   `json:"short_name"`
	Seed      int      `json:"seed"`
	Lat       *float64 `json:"lat"`
	Lon       *float64 `json:"lon"`
}

// Create registers a team in a tournament.
// POST /tournaments/{tournamentID}/teams
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var input teamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	team := &models.Team{
		TournamentID: tournamentID,
		Name:         input.Name,
		ShortName:    input.ShortName,
		Seed:         input.Seed,
		Lat:          input.Lat,
		Lon:          input.Lon,
	}
	if err := h.teamService.Create(r.Context(), team); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil)
}

// List returns a tournament's roster ordered by seed.
// GET /tournaments/{tournamentID}/teams
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	teams, err := h.teamService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil)
}

// Get returns one team.
// GET /teams/{teamID}
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	team, err := h.teamService.GetByID(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil)
}

// Update edits a team. Competitive fields are locked once the team appears in
// a finalized result.
// PUT /teams/{teamID}
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	existing, err := h.teamService.GetByID(r.Context(), teamID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	var input teamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	existing.Name = input.Name
	existing.ShortName = input.ShortName
	existing.Seed = input.Seed
	existing.Lat = input.Lat
	existing.Lon = input.Lon

	if err := h.teamService.Update(r.Context(), existing); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"team": existing}, nil)
}

// Delete removes a team not yet referenced by a finalized match.
// DELETE /teams/{teamID}
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if err := h.teamService.Delete(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"message": "team deleted"}, nil)
}

// UploadCrest stores a crest image for the team (multipart field "crest").
// POST /teams/{teamID}/crest
func (h *TeamHandler) UploadCrest(w http.ResponseWriter, r *http.Request) {
	teamID, err := urlParamInt(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCrestUploadSize)
	if err := r.ParseMultipartForm(maxCrestUploadSize); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	file, header, err := r.FormFile("crest")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	team, err := h.teamService.UploadCrest(r.Context(), teamID, header.Filename, contentType, file)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil)
}
