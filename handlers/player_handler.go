package handlers

import (
	"net/http"

	"github.com/padelhub/tournament-system/services"
)

type PlayerHandler struct {
	playerService services.PlayerService
}

func NewPlayerHandler(playerService services.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: playerService}
}

type playerRequest struct {
	Name          string  `json:"name" validate:"required"`
	Rank          int     `json:"rank" validate:"gte=0"`
	LicenseNumber *string `json:"license_number"`
}

func (h *PlayerHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	player, err := h.playerService.Create(r.Context(), services.PlayerInput{
		Name:          req.Name,
		Rank:          req.Rank,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *PlayerHandler) GetByIDHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	player, err := h.playerService.GetByID(r.Context(), id)
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *PlayerHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	players, err := h.playerService.List(r.Context())
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *PlayerHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var req playerRequest
	if err := readValidatedJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	player, err := h.playerService.Update(r.Context(), id, services.PlayerInput{
		Name:          req.Name,
		Rank:          req.Rank,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		mapServiceError(w, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, err)
	}
}

func (h *PlayerHandler) DeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "playerID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	if err := h.playerService.Delete(r.Context(), id); err != nil {
		mapServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
