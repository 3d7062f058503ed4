package handlers

import (
	"net/http"

	"github.com/padelhub/tournament-system/services"
)

type MatchHandler struct {
	matchService    services.MatchService
	scheduleService services.ScheduleService
	weatherService  services.WeatherService
}

func NewMatchHandler(
	matchService services.MatchService,
	scheduleService services.ScheduleService,
	weatherService services.WeatherService,
) *MatchHandler {
	return &MatchHandler{
		matchService:    matchService,
		scheduleService: scheduleService,
		weatherService:  weatherService,
	}
}

type recordResultRequest struct {
	Team1Score *int `json:"team1_score" validate:"required,gte=0"`
	Team2Score *int `json:"team2_score" validate:"required,gte=0"`
}

type cancelMatchRequest struct {
	TeamID int    `json:"team_id" validate:"required,gt=0"`
	Reason string `json:"reason"`
}

type validateScheduleRequest struct {
	CourtID   int    `json:"court_id" validate:"required,gt=0"`
	Date      string `json:"date" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
}

// ListHandler обрабатывает GET /match
func (h *MatchHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matchService.List(r.Context())
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// GetByIDHandler обрабатывает GET /match/{matchID}
func (h *MatchHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// RecordResultHandler обрабатывает POST /match/{matchID}/record-result
func (h *MatchHandler) RecordResultHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req recordResultRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.RecordResult(r.Context(), id, services.RecordResultInput{
		Team1Score: *req.Team1Score,
		Team2Score: *req.Team2Score,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// CancelHandler обрабатывает POST /match/{matchID}/cancel
func (h *MatchHandler) CancelHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req cancelMatchRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchService.Cancel(r.Context(), id, services.CancelMatchInput{
		TeamID: req.TeamID,
		Reason: req.Reason,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// CheckWeatherHandler обрабатывает POST /match/{matchID}/check-weather.
// Тело не обязательно; location переопределяет локацию корта.
func (h *MatchHandler) CheckWeatherHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req checkWeatherRequest
	if err := readOptionalJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	outcome, err := h.weatherService.CheckMatch(r.Context(), id, req.Location)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, outcome, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// ValidateScheduleHandler обрабатывает POST /match/{matchID}/validate-schedule
func (h *MatchHandler) ValidateScheduleHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req validateScheduleRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	validation, err := h.scheduleService.ValidateSlot(r.Context(), id, services.ValidateSlotInput{
		CourtID:   req.CourtID,
		Date:      req.Date,
		StartTime: req.StartTime,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, validation, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
