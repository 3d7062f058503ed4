package handlers

import (
	"net/http"

	"github.com/padelhub/tournament-system/services"
)

type WeatherHandler struct {
	weatherService services.WeatherService
}

func NewWeatherHandler(weatherService services.WeatherService) *WeatherHandler {
	return &WeatherHandler{weatherService: weatherService}
}

// TestHandler обрабатывает GET /weather/test — проба связности с оракулом.
// Локация берётся из query-параметра, иначе из конфигурации.
func (h *WeatherHandler) TestHandler(w http.ResponseWriter, r *http.Request) {
	location := r.URL.Query().Get("location")

	queried, forecast, err := h.weatherService.TestOracle(r.Context(), location)
	if err != nil {
		errorResponse(w, http.StatusBadGateway, "weather oracle unavailable: "+err.Error())
		return
	}

	response := jsonResponse{
		"location": queried,
		"weather":  forecast,
		"message":  "weather oracle is reachable",
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		serverErrorResponse(w, err)
	}
}
