package handlers

import (
	"net/http"

	"github.com/padelhub/tournament-system/services"
)

type CourtHandler struct {
	courtService services.CourtService
}

func NewCourtHandler(courtService services.CourtService) *CourtHandler {
	return &CourtHandler{courtService: courtService}
}

type courtRequest struct {
	Name        string  `json:"name" validate:"required"`
	Location    *string `json:"location"`
	IsIndoor    bool    `json:"is_indoor"`
	IsAvailable bool    `json:"is_available"`
}

type availabilityRequest struct {
	IsAvailable *bool `json:"is_available" validate:"required"`
}

func (h *CourtHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req courtRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	court, err := h.courtService.Create(r.Context(), services.CourtInput{
		Name:        req.Name,
		Location:    req.Location,
		IsIndoor:    req.IsIndoor,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *CourtHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	court, err := h.courtService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *CourtHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	courts, err := h.courtService.List(r.Context())
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"courts": courts}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *CourtHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req courtRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	court, err := h.courtService.Update(r.Context(), id, services.CourtInput{
		Name:        req.Name,
		Location:    req.Location,
		IsIndoor:    req.IsIndoor,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

// SetAvailabilityHandler обрабатывает PATCH /court/{courtID}/availability
func (h *CourtHandler) SetAvailabilityHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req availabilityRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	court, err := h.courtService.SetAvailability(r.Context(), id, *req.IsAvailable)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"court": court}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *CourtHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "courtID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.courtService.Delete(r.Context(), id); err != nil {
		mapServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
