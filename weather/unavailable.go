package weather

import (
	"context"
	"errors"
	"time"
)

// ErrOracleDisabled возвращается, когда погодный оракул не сконфигурирован.
var ErrOracleDisabled = errors.New("weather oracle is not configured")

// Unavailable — заглушка оракула для запуска без API-ключа. Каждый вызов
// завершается ошибкой, что по политике fail closed даёт no_action.
type Unavailable struct{}

func (Unavailable) GetForecast(_ context.Context, _ string, _ time.Time, _ string) (*Forecast, error) {
	return nil, ErrOracleDisabled
}
