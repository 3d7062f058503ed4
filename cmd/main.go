package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-co-op/gocron/v2"
	_ "github.com/lib/pq"

	"github.com/padelhub/tournament-system/config"
	"github.com/padelhub/tournament-system/db"
	"github.com/padelhub/tournament-system/handlers"
	"github.com/padelhub/tournament-system/repositories"
	api "github.com/padelhub/tournament-system/routes"
	"github.com/padelhub/tournament-system/services"
	"github.com/padelhub/tournament-system/weather"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	// Погодный оракул. Без API-ключа проверки погоды всегда возвращают
	// no_action (fail closed), остальное приложение работает как обычно.
	var forecaster weather.Forecaster
	if cfg.WeatherAPIKey != "" {
		client, err := weather.NewOpenWeatherClient(weather.OpenWeatherClientConfig{
			APIKey:  cfg.WeatherAPIKey,
			BaseURL: cfg.WeatherAPIBaseURL,
			Timeout: cfg.WeatherTimeout,
		})
		if err != nil {
			logger.Error("failed to initialize weather client", slog.Any("error", err))
			os.Exit(1)
		}
		forecaster = client
		logger.Info("weather oracle initialized")
	} else {
		forecaster = weather.Unavailable{}
		logger.Warn("WEATHER_API_KEY is not set, weather checks are disabled")
	}

	// Инициализация репозиториев
	userRepo := repositories.NewPostgresUserRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	courtRepo := repositories.NewPostgresCourtRepository(dbConn)
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	bookingRepo := repositories.NewPostgresBookingRepository(dbConn)
	txManager := repositories.NewTxManager(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	authService := services.NewAuthService(userRepo, cfg.JWTSecretKey, cfg.AdminKey)
	playerService := services.NewPlayerService(playerRepo)
	teamService := services.NewTeamService(teamRepo, playerRepo)
	courtService := services.NewCourtService(courtRepo)
	tournamentService := services.NewTournamentService(
		tournamentRepo, teamRepo, matchRepo, bookingRepo, txManager, cfg.KnockoutQualifiers)
	matchService := services.NewMatchService(
		matchRepo, tournamentRepo, bookingRepo, txManager, cfg.KnockoutQualifiers)
	scheduleService := services.NewScheduleService(
		tournamentRepo, matchRepo, courtRepo, bookingRepo, txManager, cfg.ScheduleHorizonDays)
	weatherService := services.NewWeatherService(
		matchRepo, bookingRepo, courtRepo, tournamentRepo, txManager, forecaster,
		services.WeatherServiceConfig{
			OracleTimeout:   cfg.WeatherTimeout,
			Freshness:       cfg.WeatherFreshness,
			HorizonDays:     cfg.ScheduleHorizonDays,
			DefaultLocation: cfg.DefaultLocation,
		}, logger)
	logger.Info("services initialized")

	// Периодическая фоновая проверка погоды активных турниров
	var sweeper gocron.Scheduler
	if cfg.WeatherSweepInterval > 0 {
		sweeper, err = gocron.NewScheduler()
		if err != nil {
			logger.Error("failed to create weather sweep scheduler", slog.Any("error", err))
			os.Exit(1)
		}
		_, err = sweeper.NewJob(
			gocron.DurationJob(cfg.WeatherSweepInterval),
			gocron.NewTask(func() {
				if err := weatherService.SweepActiveTournaments(context.Background()); err != nil {
					logger.Error("weather sweep run failed", slog.Any("error", err))
				}
			}),
		)
		if err != nil {
			logger.Error("failed to register weather sweep job", slog.Any("error", err))
			os.Exit(1)
		}
		sweeper.Start()
		defer func() { _ = sweeper.Shutdown() }()
		logger.Info("weather sweep scheduler started", slog.Duration("interval", cfg.WeatherSweepInterval))
	}

	// Инициализация обработчиков HTTP
	authHandler := handlers.NewAuthHandler(authService)
	playerHandler := handlers.NewPlayerHandler(playerService)
	teamHandler := handlers.NewTeamHandler(teamService, matchService)
	courtHandler := handlers.NewCourtHandler(courtService)
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, matchService, scheduleService, weatherService)
	matchHandler := handlers.NewMatchHandler(matchService, scheduleService, weatherService)
	weatherHandler := handlers.NewWeatherHandler(weatherService)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		cfg.JWTSecretKey,
		authHandler,
		playerHandler,
		teamHandler,
		courtHandler,
		tournamentHandler,
		matchHandler,
		weatherHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}
