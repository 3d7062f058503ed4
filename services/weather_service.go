package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
	"github.com/padelhub/tournament-system/weather"
)

// WeatherAction — исход арбитража погоды для одного бронирования.
type WeatherAction string

const (
	ActionNone      WeatherAction = "no_action"
	ActionRelocated WeatherAction = "relocated"
	ActionPostponed WeatherAction = "postponed"
	ActionSkipped   WeatherAction = "skipped"
)

// Предел одновременных проверок в пакетном режиме.
const weatherCheckParallelism = 4

type WeatherOutcome struct {
	MatchID      int               `json:"match_id"`
	Action       WeatherAction     `json:"action_taken"`
	Reason       string            `json:"reason"`
	Weather      *weather.Forecast `json:"weather,omitempty"`
	OldCourt     *string           `json:"old_court,omitempty"`
	NewCourt     *string           `json:"new_court,omitempty"`
	OriginalDate *string           `json:"original_date,omitempty"`
	NewDate      *string           `json:"new_date,omitempty"`
}

type WeatherSummary struct {
	TotalChecked int              `json:"total_checked"`
	Relocated    int              `json:"relocated_count"`
	Postponed    int              `json:"postponed_count"`
	Skipped      int              `json:"skipped_count"`
	NoAction     int              `json:"no_action_count"`
	Results      []WeatherOutcome `json:"results"`
}

type WeatherService interface {
	// CheckMatch проверяет погоду бронирования одного матча и при
	// непригодности переносит его на крытый корт либо на другой день.
	// Непустой location перекрывает локацию корта.
	CheckMatch(ctx context.Context, matchID int, location string) (*WeatherOutcome, error)

	// CheckTournament прогоняет арбитраж по всем уличным бронированиям
	// незавершённых матчей турнира с сегодняшней даты.
	CheckTournament(ctx context.Context, tournamentID int, location string) (*WeatherSummary, error)

	// TestOracle дергает погодный оракул напрямую — проба связности.
	// Возвращает фактически опрошенную локацию.
	TestOracle(ctx context.Context, location string) (string, *weather.Forecast, error)

	// SweepActiveTournaments — периодическая фоновая проверка всех
	// активных турниров.
	SweepActiveTournaments(ctx context.Context) error
}

type WeatherServiceConfig struct {
	OracleTimeout   time.Duration
	Freshness       time.Duration
	HorizonDays     int
	DefaultLocation string
}

type weatherService struct {
	matchRepo      repositories.MatchRepository
	bookingRepo    repositories.BookingRepository
	courtRepo      repositories.CourtRepository
	tournamentRepo repositories.TournamentRepository
	txManager      repositories.TxManager
	forecaster     weather.Forecaster
	cfg            WeatherServiceConfig
	logger         *slog.Logger

	now func() time.Time
}

func NewWeatherService(
	matchRepo repositories.MatchRepository,
	bookingRepo repositories.BookingRepository,
	courtRepo repositories.CourtRepository,
	tournamentRepo repositories.TournamentRepository,
	txManager repositories.TxManager,
	forecaster weather.Forecaster,
	cfg WeatherServiceConfig,
	logger *slog.Logger,
) WeatherService {
	if cfg.OracleTimeout <= 0 {
		cfg.OracleTimeout = 5 * time.Second
	}
	if cfg.Freshness <= 0 {
		cfg.Freshness = time.Hour
	}
	if cfg.HorizonDays <= 0 {
		cfg.HorizonDays = 30
	}
	return &weatherService{
		matchRepo:      matchRepo,
		bookingRepo:    bookingRepo,
		courtRepo:      courtRepo,
		tournamentRepo: tournamentRepo,
		txManager:      txManager,
		forecaster:     forecaster,
		cfg:            cfg,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *weatherService) CheckMatch(ctx context.Context, matchID int, location string) (*WeatherOutcome, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	if match.Status != models.MatchStatusPending {
		return nil, ErrMatchAlreadyFinished
	}

	booking, err := s.bookingRepo.GetByMatchID(ctx, nil, matchID)
	if err != nil {
		if errors.Is(err, repositories.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}

	court, err := s.courtRepo.GetByID(ctx, booking.CourtID)
	if err != nil {
		return nil, err
	}

	return s.adjudicate(ctx, matchID, booking, court, location)
}

func (s *weatherService) CheckTournament(ctx context.Context, tournamentID int, location string) (*WeatherSummary, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	today := dateOnly(s.now())
	bookings, err := s.bookingRepo.ListOutdoorPendingByTournament(ctx, tournamentID, today)
	if err != nil {
		return nil, err
	}

	results := make([]WeatherOutcome, len(bookings))

	// Ограниченный параллелизм; каждая проверка изолирована — ошибка
	// одного бронирования не прерывает остальные.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(weatherCheckParallelism)
	for i := range bookings {
		i := i
		g.Go(func() error {
			booking := bookings[i]
			outcome, err := s.adjudicate(gctx, booking.MatchID, &booking, booking.Court, location)
			if err != nil {
				s.logger.Warn("weather check failed",
					slog.Int("match_id", booking.MatchID),
					slog.Any("error", err))
				results[i] = WeatherOutcome{
					MatchID: booking.MatchID,
					Action:  ActionNone,
					Reason:  "check failed: " + err.Error(),
				}
				return nil
			}
			results[i] = *outcome
			return nil
		})
	}
	_ = g.Wait()

	summary := &WeatherSummary{
		TotalChecked: len(results),
		Results:      results,
	}
	for _, r := range results {
		switch r.Action {
		case ActionRelocated:
			summary.Relocated++
		case ActionPostponed:
			summary.Postponed++
		case ActionSkipped:
			summary.Skipped++
		default:
			summary.NoAction++
		}
	}
	return summary, nil
}

func (s *weatherService) TestOracle(ctx context.Context, location string) (string, *weather.Forecast, error) {
	if location == "" {
		location = s.cfg.DefaultLocation
	}
	octx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	defer cancel()
	forecast, err := s.forecaster.GetForecast(octx, location, s.now(), "")
	return location, forecast, err
}

func (s *weatherService) SweepActiveTournaments(ctx context.Context) error {
	active, err := s.tournamentRepo.ListByStatuses(ctx, []models.TournamentStatus{
		models.StatusGroupPhase,
		models.StatusKnockoutPhase,
	})
	if err != nil {
		return fmt.Errorf("failed to list active tournaments: %w", err)
	}

	for _, t := range active {
		summary, err := s.CheckTournament(ctx, t.ID, "")
		if err != nil {
			s.logger.Error("weather sweep failed for tournament",
				slog.Int("tournament_id", t.ID),
				slog.Any("error", err))
			continue
		}
		if summary.TotalChecked > 0 {
			s.logger.Info("weather sweep",
				slog.Int("tournament_id", t.ID),
				slog.Int("checked", summary.TotalChecked),
				slog.Int("relocated", summary.Relocated),
				slog.Int("postponed", summary.Postponed),
				slog.Int("skipped", summary.Skipped))
		}
	}
	return nil
}

// adjudicate — решение по одному бронированию. Оракул опрашивается вне
// транзакции; сама мутация (релокация/перенос + снимок погоды) выполняется
// в отдельной сериализуемой транзакции, чтобы пакетная и ручная проверки
// не могли раздвоить слот.
func (s *weatherService) adjudicate(ctx context.Context, matchID int, booking *models.CourtBooking, court *models.Court, locationOverride string) (*WeatherOutcome, error) {
	if court.IsIndoor {
		return &WeatherOutcome{
			MatchID: matchID,
			Action:  ActionNone,
			Reason:  "court is indoor, weather does not affect play",
		}, nil
	}

	// Свежая проверка уже есть — оракул не дергается повторно.
	if booking.WeatherCheckedAt != nil && booking.IsWeatherSuitable != nil &&
		s.now().Sub(*booking.WeatherCheckedAt) < s.cfg.Freshness {
		reason := "recent check: weather is suitable"
		if !*booking.IsWeatherSuitable {
			reason = "recent check: already adjudicated as unsuitable"
		}
		return &WeatherOutcome{
			MatchID: matchID,
			Action:  ActionNone,
			Reason:  reason,
		}, nil
	}

	location := s.cfg.DefaultLocation
	if court.Location != nil && *court.Location != "" {
		location = *court.Location
	}
	if locationOverride != "" {
		location = locationOverride
	}

	octx, cancel := context.WithTimeout(ctx, s.cfg.OracleTimeout)
	forecast, err := s.forecaster.GetForecast(octx, location, booking.BookingDate, booking.StartTime)
	cancel()
	if err != nil {
		// Fail closed: недоступный оракул никогда не трактуется как
		// «погода хорошая» и ничего не переносит. Фиксируется только
		// момент попытки; is_weather_suitable остаётся NULL, так что
		// следующая проверка снова опросит оракул.
		s.logger.Warn("weather oracle unavailable",
			slog.Int("match_id", matchID),
			slog.Any("error", err))
		attempt := repositories.WeatherUpdate{CheckedAt: s.now()}
		if uerr := s.bookingRepo.UpdateWeather(ctx, nil, booking.ID, attempt); uerr != nil {
			s.logger.Warn("failed to stamp weather attempt",
				slog.Int("booking_id", booking.ID),
				slog.Any("error", uerr))
		}
		return &WeatherOutcome{
			MatchID: matchID,
			Action:  ActionNone,
			Reason:  "weather oracle unavailable",
		}, nil
	}

	suitable := !forecast.Unsuitable()
	snapshot := repositories.WeatherUpdate{
		Temperature:      &forecast.Temperature,
		RainProbability:  &forecast.RainProbability,
		WindSpeed:        &forecast.WindSpeed,
		WeatherCondition: &forecast.Condition,
		IsSuitable:       &suitable,
		CheckedAt:        s.now(),
	}

	outcome := &WeatherOutcome{MatchID: matchID, Weather: forecast}
	err = s.txManager.WithinSerializableTx(ctx, func(exec repositories.SQLExecutor) error {
		if suitable {
			outcome.Action = ActionNone
			outcome.Reason = "weather is suitable for outdoor play"
			return s.bookingRepo.UpdateWeather(ctx, exec, booking.ID, snapshot)
		}

		// Relocate: свободный крытый корт на той же дате и слоте.
		indoorCourts, err := s.courtRepo.ListIndoorAvailable(ctx, exec)
		if err != nil {
			return err
		}
		for _, indoor := range indoorCourts {
			taken, err := s.bookingRepo.ExistsAt(ctx, exec, indoor.ID, booking.BookingDate, booking.StartTime)
			if err != nil {
				return err
			}
			if taken {
				continue
			}
			if err := s.bookingRepo.Relocate(ctx, exec, booking.ID, indoor.ID); err != nil {
				return err
			}
			outcome.Action = ActionRelocated
			outcome.Reason = fmt.Sprintf("bad weather (%s), relocated to indoor court %q", forecast.Condition, indoor.Name)
			outcome.OldCourt = &court.Name
			outcome.NewCourt = &indoor.Name
			return s.bookingRepo.UpdateWeather(ctx, exec, booking.ID, snapshot)
		}

		// Postpone: первый свободный день на том же корте и слоте,
		// в пределах горизонта планирования.
		for day := 1; day < s.cfg.HorizonDays; day++ {
			date := dateOnly(booking.BookingDate).AddDate(0, 0, day)
			taken, err := s.bookingRepo.ExistsAt(ctx, exec, booking.CourtID, date, booking.StartTime)
			if err != nil {
				return err
			}
			if taken {
				continue
			}
			if err := s.bookingRepo.Postpone(ctx, exec, booking.ID, date); err != nil {
				return err
			}
			originalDate := dateOnly(booking.BookingDate).Format("2006-01-02")
			newDate := date.Format("2006-01-02")
			outcome.Action = ActionPostponed
			outcome.Reason = fmt.Sprintf("bad weather (%s), postponed to %s (no indoor court free)", forecast.Condition, newDate)
			outcome.OriginalDate = &originalDate
			outcome.NewDate = &newDate
			return s.bookingRepo.UpdateWeather(ctx, exec, booking.ID, snapshot)
		}

		// Горизонт исчерпан: бронирование остаётся на месте с пометкой
		// о непригодной погоде, матч не отменяется.
		outcome.Action = ActionSkipped
		outcome.Reason = fmt.Sprintf("bad weather (%s), no alternative found within horizon", forecast.Condition)
		return s.bookingRepo.UpdateWeather(ctx, exec, booking.ID, snapshot)
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}
