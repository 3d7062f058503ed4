package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL  string
	JWTSecretKey string
	AdminKey     string
	ServerPort   int

	// Weather oracle settings.
	WeatherAPIKey        string
	WeatherAPIBaseURL    string
	WeatherTimeout       time.Duration
	WeatherFreshness     time.Duration
	WeatherSweepInterval time.Duration
	DefaultLocation      string

	// Scheduling and bracket settings.
	ScheduleHorizonDays int
	KnockoutQualifiers  int
}

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	weatherTimeoutSec, err := intEnv("WEATHER_TIMEOUT_SECONDS", 5)
	if err != nil {
		return nil, err
	}
	freshnessMin, err := intEnv("WEATHER_FRESHNESS_MINUTES", 60)
	if err != nil {
		return nil, err
	}
	sweepMin, err := intEnv("WEATHER_SWEEP_MINUTES", 0) // 0 disables the background sweep
	if err != nil {
		return nil, err
	}
	horizonDays, err := intEnv("SCHEDULE_HORIZON_DAYS", 30)
	if err != nil {
		return nil, err
	}
	if horizonDays <= 0 {
		return nil, fmt.Errorf("SCHEDULE_HORIZON_DAYS must be positive, got %d", horizonDays)
	}
	qualifiers, err := intEnv("KNOCKOUT_QUALIFIERS", 4)
	if err != nil {
		return nil, err
	}
	if qualifiers < 2 {
		return nil, fmt.Errorf("KNOCKOUT_QUALIFIERS must be at least 2, got %d", qualifiers)
	}

	baseURL := os.Getenv("WEATHER_API_BASE_URL")
	if baseURL == "" {
		baseURL = "https://api.openweathermap.org/data/2.5/weather"
	}

	location := os.Getenv("DEFAULT_WEATHER_LOCATION")
	if location == "" {
		location = "Tunis,TN"
	}

	cfg := &Config{
		DatabaseURL:          dbURL,
		JWTSecretKey:         jwtKey,
		AdminKey:             os.Getenv("ADMIN_KEY"),
		ServerPort:           port,
		WeatherAPIKey:        os.Getenv("WEATHER_API_KEY"),
		WeatherAPIBaseURL:    baseURL,
		WeatherTimeout:       time.Duration(weatherTimeoutSec) * time.Second,
		WeatherFreshness:     time.Duration(freshnessMin) * time.Minute,
		WeatherSweepInterval: time.Duration(sweepMin) * time.Minute,
		DefaultLocation:      location,
		ScheduleHorizonDays:  horizonDays,
		KnockoutQualifiers:   qualifiers,
	}

	return cfg, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}
