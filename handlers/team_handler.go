package handlers

import (
	"net/http"

	"github.com/padelhub/tournament-system/services"
)

type TeamHandler struct {
	teamService  services.TeamService
	matchService services.MatchService
}

func NewTeamHandler(teamService services.TeamService, matchService services.MatchService) *TeamHandler {
	return &TeamHandler{
		teamService:  teamService,
		matchService: matchService,
	}
}

type teamRequest struct {
	Name string `json:"name" validate:"required"`
}

type addMemberRequest struct {
	PlayerID int `json:"player_id" validate:"required,gt=0"`
}

func (h *TeamHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req teamRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	team, err := h.teamService.Create(r.Context(), services.TeamInput{Name: req.Name})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TeamHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	team, err := h.teamService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TeamHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teamService.List(r.Context())
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TeamHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req teamRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	team, err := h.teamService.Update(r.Context(), id, services.TeamInput{Name: req.Name})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *TeamHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.teamService.Delete(r.Context(), id); err != nil {
		mapServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddMemberHandler обрабатывает POST /team/{teamID}/add-member
func (h *TeamHandler) AddMemberHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req addMemberRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	team, err := h.teamService.AddMember(r.Context(), teamID, req.PlayerID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// RemoveMemberHandler обрабатывает DELETE /team/{teamID}/members/{playerID}
func (h *TeamHandler) RemoveMemberHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	playerID, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	team, err := h.teamService.RemoveMember(r.Context(), teamID, playerID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"team": team}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ListMatchesHandler обрабатывает GET /team/{teamID}/matches
func (h *TeamHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if _, err := h.teamService.GetByID(r.Context(), teamID); err != nil {
		mapServiceError(w, err)
		return
	}

	matches, err := h.matchService.ListByTeam(r.Context(), teamID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
