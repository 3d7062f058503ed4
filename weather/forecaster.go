// Package weather provides the external weather oracle used by the
// adjudicator to decide whether an outdoor booking can go ahead.
package weather

import (
	"context"
	"time"
)

// Пороговые значения пригодности погоды для игры на открытом корте.
const (
	MaxRainProbability = 60 // percent
	MaxWindSpeed       = 40 // km/h
)

type Forecast struct {
	Temperature     float64 `json:"temperature"`      // Celsius
	RainProbability int     `json:"rain_probability"` // 0-100%
	WindSpeed       float64 `json:"wind_speed"`       // km/h
	Condition       string  `json:"condition"`        // "clear", "rain", "clouds", ...
}

// Unsuitable сообщает, что играть на улице нельзя.
func (f *Forecast) Unsuitable() bool {
	return f.RainProbability >= MaxRainProbability || f.WindSpeed >= MaxWindSpeed
}

// Forecaster — внешний погодный оракул. Вызов блокирующий, с ограниченным
// таймаутом; ошибка и таймаут равнозначны (политика fail closed).
type Forecaster interface {
	GetForecast(ctx context.Context, location string, date time.Time, startTime string) (*Forecast, error)
}
