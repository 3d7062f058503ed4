package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/weather"
)

type fakeForecaster struct {
	mu           sync.Mutex
	calls        int
	lastLocation string
	forecast     *weather.Forecast
	bySlot       map[string]*weather.Forecast // ответы по времени начала матча
	err          error
}

func (fc *fakeForecaster) GetForecast(_ context.Context, location string, _ time.Time, startTime string) (*weather.Forecast, error) {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	fc.calls++
	fc.lastLocation = location
	if fc.err != nil {
		return nil, fc.err
	}
	if f, ok := fc.bySlot[startTime]; ok {
		return f, nil
	}
	return fc.forecast, nil
}

func (fc *fakeForecaster) callCount() int {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.calls
}

func (fc *fakeForecaster) lastQueriedLocation() string {
	fc.mu.Lock()
	defer fc.mu.Unlock()
	return fc.lastLocation
}

func newWeatherTestService(f *fixture, fc *fakeForecaster, cfg WeatherServiceConfig) WeatherService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewWeatherService(
		&stubMatchRepo{f: f},
		&stubBookingRepo{f: f},
		&stubCourtRepo{f: f},
		&stubTournamentRepo{f: f},
		stubTxManager{},
		fc,
		cfg,
		logger,
	)
}

func clearSkies() *weather.Forecast {
	return &weather.Forecast{Temperature: 22, RainProbability: 10, WindSpeed: 12, Condition: "clear"}
}

func heavyRain() *weather.Forecast {
	return &weather.Forecast{Temperature: 15, RainProbability: 90, WindSpeed: 20, Condition: "rain"}
}

func (f *fixture) addBookedMatch(tournamentID, courtID int, date time.Time, slot string) (*models.Match, *models.CourtBooking) {
	match := f.addMatch(models.Match{
		TournamentID: tournamentID, Phase: models.PhaseGroup,
		Team1ID: 1, Team2ID: 2,
	})
	booking := f.addBooking(models.CourtBooking{
		MatchID:     match.ID,
		CourtID:     courtID,
		BookingDate: date,
		StartTime:   slot,
		EndTime:     slotEndTime(slot),
	})
	return match, booking
}

func TestCheckMatchIndoorCourtNoAction(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: heavyRain()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	tournament := f.addTournament(models.StatusGroupPhase)
	court := f.addCourt(models.Court{Name: "hall", IsIndoor: true, IsAvailable: true})
	match, _ := f.addBookedMatch(tournament.ID, court.ID, dateOnly(time.Now().AddDate(0, 0, 1)), "10:00")

	outcome, err := svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, outcome.Action)
	assert.Zero(t, fc.callCount()) // оракул не опрашивается для крытых кортов
}

func TestCheckMatchSuitableWeatherWritesSnapshot(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: clearSkies()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	tournament := f.addTournament(models.StatusGroupPhase)
	court := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	match, booking := f.addBookedMatch(tournament.ID, court.ID, dateOnly(time.Now().AddDate(0, 0, 1)), "10:00")

	outcome, err := svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, outcome.Action)
	require.NotNil(t, outcome.Weather)
	assert.Equal(t, "clear", outcome.Weather.Condition)

	stored := f.bookings[booking.ID]
	require.NotNil(t, stored.IsWeatherSuitable)
	assert.True(t, *stored.IsWeatherSuitable)
	assert.NotNil(t, stored.WeatherCheckedAt)
	assert.Equal(t, court.ID, stored.CourtID) // бронирование не тронуто
}

func TestCheckMatchRelocatesToIndoor(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: heavyRain()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	tournament := f.addTournament(models.StatusGroupPhase)
	outdoor := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	indoor := f.addCourt(models.Court{Name: "hall", IsIndoor: true, IsAvailable: true})
	match, booking := f.addBookedMatch(tournament.ID, outdoor.ID, dateOnly(time.Now().AddDate(0, 0, 1)), "10:00")

	outcome, err := svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ActionRelocated, outcome.Action)
	require.NotNil(t, outcome.OldCourt)
	assert.Equal(t, outdoor.Name, *outcome.OldCourt)
	require.NotNil(t, outcome.NewCourt)
	assert.Equal(t, indoor.Name, *outcome.NewCourt)

	stored := f.bookings[booking.ID]
	assert.Equal(t, indoor.ID, stored.CourtID)
	require.NotNil(t, stored.IsWeatherSuitable)
	assert.False(t, *stored.IsWeatherSuitable)
}

func TestCheckMatchPostponesWhenIndoorBusy(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: heavyRain()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	tournament := f.addTournament(models.StatusGroupPhase)
	outdoor := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	indoor := f.addCourt(models.Court{Name: "hall", IsIndoor: true, IsAvailable: true})

	date := dateOnly(time.Now().AddDate(0, 0, 1))
	// Крытый корт занят на этой же дате и слоте.
	f.addBookedMatch(tournament.ID, indoor.ID, date, "10:00")
	match, booking := f.addBookedMatch(tournament.ID, outdoor.ID, date, "10:00")

	outcome, err := svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ActionPostponed, outcome.Action)

	nextDay := date.AddDate(0, 0, 1)
	require.NotNil(t, outcome.OriginalDate)
	assert.Equal(t, date.Format("2006-01-02"), *outcome.OriginalDate)
	require.NotNil(t, outcome.NewDate)
	assert.Equal(t, nextDay.Format("2006-01-02"), *outcome.NewDate)

	stored := f.bookings[booking.ID]
	assert.True(t, nextDay.Equal(stored.BookingDate))
	assert.Equal(t, outdoor.ID, stored.CourtID) // тот же корт, другой день
}

func TestCheckMatchSkippedWhenHorizonExhausted(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: heavyRain()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{HorizonDays: 1})
	tournament := f.addTournament(models.StatusGroupPhase)
	outdoor := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	date := dateOnly(time.Now().AddDate(0, 0, 1))
	match, booking := f.addBookedMatch(tournament.ID, outdoor.ID, date, "10:00")

	outcome, err := svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ActionSkipped, outcome.Action)

	// Бронирование остаётся на месте, но снимок погоды записан.
	stored := f.bookings[booking.ID]
	assert.True(t, date.Equal(stored.BookingDate))
	require.NotNil(t, stored.IsWeatherSuitable)
	assert.False(t, *stored.IsWeatherSuitable)
}

func TestCheckMatchFreshCheckSkipsOracle(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: heavyRain()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{Freshness: time.Hour})
	tournament := f.addTournament(models.StatusGroupPhase)
	court := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	match, booking := f.addBookedMatch(tournament.ID, court.ID, dateOnly(time.Now().AddDate(0, 0, 1)), "10:00")

	suitable := true
	checkedAt := time.Now().Add(-time.Minute)
	f.bookings[booking.ID].IsWeatherSuitable = &suitable
	f.bookings[booking.ID].WeatherCheckedAt = &checkedAt

	outcome, err := svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, outcome.Action)
	assert.Contains(t, outcome.Reason, "recent check")
	assert.Zero(t, fc.callCount())
}

func TestCheckMatchOracleFailureIsNoAction(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{err: errors.New("connection refused")}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{Freshness: time.Hour})
	tournament := f.addTournament(models.StatusGroupPhase)
	court := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	match, booking := f.addBookedMatch(tournament.ID, court.ID, dateOnly(time.Now().AddDate(0, 0, 1)), "10:00")

	outcome, err := svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ActionNone, outcome.Action)
	assert.Equal(t, "weather oracle unavailable", outcome.Reason)

	// Фиксируется только момент попытки: пригодность остаётся NULL,
	// бронирование не тронуто.
	stored := f.bookings[booking.ID]
	require.NotNil(t, stored.WeatherCheckedAt)
	assert.Nil(t, stored.IsWeatherSuitable)
	assert.Equal(t, court.ID, stored.CourtID)

	// Штамп без вердикта не считается свежей проверкой — повторный
	// вызов снова опрашивает оракул.
	_, err = svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 2, fc.callCount())
}

func TestCheckMatchLocationOverride(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: clearSkies()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{DefaultLocation: "Madrid,ES"})
	tournament := f.addTournament(models.StatusGroupPhase)
	courtCity := "Valencia,ES"
	court := f.addCourt(models.Court{Name: "open", Location: &courtCity, IsAvailable: true})
	match, _ := f.addBookedMatch(tournament.ID, court.ID, dateOnly(time.Now().AddDate(0, 0, 1)), "10:00")

	_, err := svc.CheckMatch(context.Background(), match.ID, "Barcelona,ES")
	require.NoError(t, err)
	assert.Equal(t, "Barcelona,ES", fc.lastQueriedLocation())

	// Без переопределения берётся локация корта. Снимок сбрасывается,
	// чтобы свежая проверка не закоротила повторный опрос.
	for _, b := range f.bookings {
		b.WeatherCheckedAt = nil
		b.IsWeatherSuitable = nil
	}
	_, err = svc.CheckMatch(context.Background(), match.ID, "")
	require.NoError(t, err)
	assert.Equal(t, courtCity, fc.lastQueriedLocation())
}

func TestCheckMatchFinishedMatchRejected(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: clearSkies()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	tournament := f.addTournament(models.StatusGroupPhase)
	match := f.addMatch(models.Match{
		TournamentID: tournament.ID, Team1ID: 1, Team2ID: 2,
		Status: models.MatchStatusFinished,
	})

	_, err := svc.CheckMatch(context.Background(), match.ID, "")
	assert.ErrorIs(t, err, ErrMatchAlreadyFinished)
}

func TestCheckMatchWithoutBooking(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: clearSkies()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	tournament := f.addTournament(models.StatusGroupPhase)
	match := f.addMatch(models.Match{TournamentID: tournament.ID, Team1ID: 1, Team2ID: 2})

	_, err := svc.CheckMatch(context.Background(), match.ID, "")
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCheckTournamentSummarizesOutcomes(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{
		bySlot: map[string]*weather.Forecast{
			"10:00": clearSkies(),
			"12:00": heavyRain(),
		},
	}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	tournament := f.addTournament(models.StatusGroupPhase)
	outdoor := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	indoor := f.addCourt(models.Court{Name: "hall", IsIndoor: true, IsAvailable: true})

	date := dateOnly(time.Now().AddDate(0, 0, 1))
	f.addBookedMatch(tournament.ID, outdoor.ID, date, "10:00")
	rainy, rainyBooking := f.addBookedMatch(tournament.ID, outdoor.ID, date, "12:00")

	// Крытые и завершённые матчи в выборку не попадают.
	f.addBookedMatch(tournament.ID, indoor.ID, date, "14:00")
	finished, _ := f.addBookedMatch(tournament.ID, outdoor.ID, date, "16:00")
	f.matches[finished.ID].Status = models.MatchStatusFinished

	summary, err := svc.CheckTournament(context.Background(), tournament.ID, "")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalChecked)
	assert.Equal(t, 1, summary.NoAction)
	assert.Equal(t, 1, summary.Relocated)
	assert.Equal(t, 0, summary.Postponed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Len(t, summary.Results, 2)

	// Дождевой матч уехал в зал.
	for _, r := range summary.Results {
		if r.MatchID == rainy.ID {
			assert.Equal(t, ActionRelocated, r.Action)
		}
	}
	assert.Equal(t, indoor.ID, f.bookings[rainyBooking.ID].CourtID)
}

func TestCheckTournamentUnknownTournament(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: clearSkies()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})

	_, err := svc.CheckTournament(context.Background(), 404, "")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestSweepActiveTournaments(t *testing.T) {
	f := newFixture()
	fc := &fakeForecaster{forecast: clearSkies()}
	svc := newWeatherTestService(f, fc, WeatherServiceConfig{})
	active := f.addTournament(models.StatusGroupPhase)
	f.addTournament(models.StatusWaiting) // неактивный — не проверяется
	outdoor := f.addCourt(models.Court{Name: "open", IsAvailable: true})
	f.addBookedMatch(active.ID, outdoor.ID, dateOnly(time.Now().AddDate(0, 0, 1)), "10:00")

	err := svc.SweepActiveTournaments(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, fc.callCount())
}
