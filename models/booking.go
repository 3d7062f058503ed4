package models

import "time"

// CourtBooking — бронирование корта под матч, ровно одно на матч.
// Инвариант БД: уникальность (court_id, booking_date, start_time).
type CourtBooking struct {
	ID          int       `json:"id" db:"id"`
	MatchID     int       `json:"match_id" db:"match_id"`
	CourtID     int       `json:"court_id" db:"court_id"`
	BookingDate time.Time `json:"booking_date" db:"booking_date"`
	StartTime   string    `json:"start_time" db:"start_time"` // "HH:MM"
	EndTime     string    `json:"end_time" db:"end_time"`     // "HH:MM"

	// Снимок последней проверки погоды. IsWeatherSuitable трёхзначный:
	// nil — не проверялось либо оракул был недоступен.
	Temperature       *float64   `json:"temperature,omitempty" db:"temperature"`
	RainProbability   *int       `json:"rain_probability,omitempty" db:"rain_probability"`
	WindSpeed         *float64   `json:"wind_speed,omitempty" db:"wind_speed"`
	WeatherCondition  *string    `json:"weather_condition,omitempty" db:"weather_condition"`
	IsWeatherSuitable *bool      `json:"is_weather_suitable,omitempty" db:"is_weather_suitable"`
	WeatherCheckedAt  *time.Time `json:"weather_checked_at,omitempty" db:"weather_checked_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Court *Court `json:"court,omitempty" db:"-"`
}
