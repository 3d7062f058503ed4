package handlers

import (
	"net/http"

	"github.com/padelhub/tournament-system/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	matchService      services.MatchService
	scheduleService   services.ScheduleService
	weatherService    services.WeatherService
}

func NewTournamentHandler(
	tournamentService services.TournamentService,
	matchService services.MatchService,
	scheduleService services.ScheduleService,
	weatherService services.WeatherService,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: tournamentService,
		matchService:      matchService,
		scheduleService:   scheduleService,
		weatherService:    weatherService,
	}
}

type tournamentRequest struct {
	Name      string  `json:"name" validate:"required"`
	StartDate string  `json:"start_date" validate:"required"`
	Prize     *string `json:"prize"`
}

type registerTeamRequest struct {
	TeamID int `json:"team_id" validate:"required,gt=0"`
}

type scheduleMatchesRequest struct {
	CourtIDs  []int    `json:"court_ids" validate:"required,min=1,dive,gt=0"`
	StartDate string   `json:"start_date" validate:"required"`
	TimeSlots []string `json:"time_slots" validate:"required,min=1"`
}

type checkWeatherRequest struct {
	Location string `json:"location"`
}

// CreateHandler обрабатывает POST /tournament
func (h *TournamentHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req tournamentRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.Create(r.Context(), services.TournamentInput{
		Name:      req.Name,
		StartDate: req.StartDate,
		Prize:     req.Prize,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// GetByIDHandler обрабатывает GET /tournament/{tournamentID}
func (h *TournamentHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, err := h.tournamentService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": tournament}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ListHandler обрабатывает GET /tournament
func (h *TournamentHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	tournaments, err := h.tournamentService.List(r.Context())
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// RegisterTeamHandler обрабатывает POST /tournament/{tournamentID}/register-team
func (h *TournamentHandler) RegisterTeamHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req registerTeamRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	registration, err := h.tournamentService.RegisterTeam(r.Context(), tournamentID, req.TeamID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"registration": registration}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// StartGroupPhaseHandler обрабатывает POST /tournament/{tournamentID}/start-group-phase
func (h *TournamentHandler) StartGroupPhaseHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	matchCount, err := h.tournamentService.StartGroupPhase(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches_generated": matchCount}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// StartKnockoutPhaseHandler обрабатывает POST /tournament/{tournamentID}/start-knockout-phase
func (h *TournamentHandler) StartKnockoutPhaseHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	matchCount, err := h.tournamentService.StartKnockoutPhase(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches_generated": matchCount}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// StandingsHandler обрабатывает GET /tournament/{tournamentID}/standings
func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	tournament, table, err := h.tournamentService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	response := jsonResponse{
		"tournament_id":   tournament.ID,
		"tournament_name": tournament.Name,
		"standings":       table,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ListMatchesHandler обрабатывает GET /tournament/{tournamentID}/matches
func (h *TournamentHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	matches, err := h.matchService.ListByTournament(r.Context(), tournamentID)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ScheduleMatchesHandler обрабатывает POST /tournament/{tournamentID}/schedule-matches
func (h *TournamentHandler) ScheduleMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req scheduleMatchesRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	scheduledCount, err := h.scheduleService.ScheduleMatches(r.Context(), tournamentID, services.ScheduleInput{
		CourtIDs:  req.CourtIDs,
		StartDate: req.StartDate,
		TimeSlots: req.TimeSlots,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"scheduled_count": scheduledCount}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// CheckAllWeatherHandler обрабатывает POST /tournament/{tournamentID}/check-all-weather.
// Тело не обязательно; location переопределяет локацию кортов.
func (h *TournamentHandler) CheckAllWeatherHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req checkWeatherRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	summary, err := h.weatherService.CheckTournament(r.Context(), tournamentID, req.Location)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	response := jsonResponse{
		"tournament_id": tournamentID,
		"summary":       summary,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
