package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type OpenWeatherClientConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// OpenWeatherClient — клиент OpenWeatherMap current weather API.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewOpenWeatherClient(cfg OpenWeatherClientConfig) (*OpenWeatherClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openweather: API key is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("openweather: base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &OpenWeatherClient{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type openWeatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
	} `json:"wind"`
	Rain    map[string]float64 `json:"rain"` // volume per window, mm
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
}

// GetForecast запрашивает текущую погоду по локации. API отдаёт только
// текущие условия, поэтому date/startTime в запрос не попадают — решение
// принимается по погоде на момент проверки.
func (c *OpenWeatherClient) GetForecast(ctx context.Context, location string, _ time.Time, _ string) (*Forecast, error) {
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("openweather: build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openweather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openweather: unexpected status %d for location %q", resp.StatusCode, location)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("openweather: decode response: %w", err)
	}
	if len(payload.Weather) == 0 {
		return nil, fmt.Errorf("openweather: response missing weather block for location %q", location)
	}

	// API отдаёт объём осадков в мм, не вероятность; грубая эвристика
	// перевода, ограниченная сверху 100%.
	rainProbability := 0
	if volume, ok := payload.Rain["1h"]; ok {
		rainProbability = int(volume * 20)
		if rainProbability > 100 {
			rainProbability = 100
		}
	}

	return &Forecast{
		Temperature:     payload.Main.Temp,
		RainProbability: rainProbability,
		WindSpeed:       payload.Wind.Speed * 3.6, // m/s -> km/h
		Condition:       strings.ToLower(payload.Weather[0].Main),
	}, nil
}
