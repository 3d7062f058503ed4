package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/padelhub/tournament-system/models"
)

var (
	ErrBookingNotFound     = errors.New("court booking not found")
	ErrBookingSlotTaken    = errors.New("court is already booked at this date and time")
	ErrMatchAlreadyBooked  = errors.New("match already has a court booking")
	ErrBookingCourtInvalid = errors.New("booking court conflict or invalid")
)

// SlotKey идентифицирует тройку (корт, дата, время начала).
type SlotKey struct {
	CourtID   int
	Date      string // "2006-01-02"
	StartTime string // "HH:MM"
}

func NewSlotKey(courtID int, date time.Time, startTime string) SlotKey {
	return SlotKey{CourtID: courtID, Date: date.Format("2006-01-02"), StartTime: startTime}
}

type BookingRepository interface {
	Create(ctx context.Context, exec SQLExecutor, booking *models.CourtBooking) error
	GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.CourtBooking, error)
	ExistsAt(ctx context.Context, exec SQLExecutor, courtID int, date time.Time, startTime string) (bool, error)
	ListOccupiedSlots(ctx context.Context, exec SQLExecutor, courtIDs []int, from, to time.Time) ([]SlotKey, error)
	ListOutdoorPendingByTournament(ctx context.Context, tournamentID int, onOrAfter time.Time) ([]models.CourtBooking, error)

	Relocate(ctx context.Context, exec SQLExecutor, id, newCourtID int) error
	Postpone(ctx context.Context, exec SQLExecutor, id int, newDate time.Time) error
	UpdateWeather(ctx context.Context, exec SQLExecutor, id int, update WeatherUpdate) error
}

// WeatherUpdate — снимок проверки погоды, записываемый на бронирование.
// Указатели nil затирают соответствующие колонки в NULL (недоступный оракул).
type WeatherUpdate struct {
	Temperature      *float64
	RainProbability  *int
	WindSpeed        *float64
	WeatherCondition *string
	IsSuitable       *bool
	CheckedAt        time.Time
}

type postgresBookingRepository struct {
	db *sql.DB
}

func NewPostgresBookingRepository(db *sql.DB) BookingRepository {
	return &postgresBookingRepository{db: db}
}

func (r *postgresBookingRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const bookingColumns = `id, match_id, court_id, booking_date, start_time, end_time,
	temperature, rain_probability, wind_speed, weather_condition,
	is_weather_suitable, weather_checked_at, created_at`

func (r *postgresBookingRepository) Create(ctx context.Context, exec SQLExecutor, booking *models.CourtBooking) error {
	query := `
		INSERT INTO court_bookings (match_id, court_id, booking_date, start_time, end_time)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		booking.MatchID, booking.CourtID, booking.BookingDate, booking.StartTime, booking.EndTime,
	).Scan(&booking.ID, &booking.CreatedAt)
	return r.handleBookingError(err)
}

func (r *postgresBookingRepository) GetByMatchID(ctx context.Context, exec SQLExecutor, matchID int) (*models.CourtBooking, error) {
	query := `SELECT ` + bookingColumns + ` FROM court_bookings WHERE match_id = $1`

	b := &models.CourtBooking{}
	err := r.executor(exec).QueryRowContext(ctx, query, matchID).Scan(
		&b.ID, &b.MatchID, &b.CourtID, &b.BookingDate, &b.StartTime, &b.EndTime,
		&b.Temperature, &b.RainProbability, &b.WindSpeed, &b.WeatherCondition,
		&b.IsWeatherSuitable, &b.WeatherCheckedAt, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to scan booking of match %d: %w", matchID, err)
	}
	return b, nil
}

func (r *postgresBookingRepository) ExistsAt(ctx context.Context, exec SQLExecutor, courtID int, date time.Time, startTime string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM court_bookings
			WHERE court_id = $1 AND booking_date = $2 AND start_time = $3
		)`

	var exists bool
	err := r.executor(exec).QueryRowContext(ctx, query, courtID, date, startTime).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check slot (court %d, %s, %s): %w", courtID, date.Format("2006-01-02"), startTime, err)
	}
	return exists, nil
}

func (r *postgresBookingRepository) ListOccupiedSlots(ctx context.Context, exec SQLExecutor, courtIDs []int, from, to time.Time) ([]SlotKey, error) {
	if len(courtIDs) == 0 {
		return []SlotKey{}, nil
	}

	query := `
		SELECT court_id, booking_date, start_time
		FROM court_bookings
		WHERE court_id = ANY($1) AND booking_date >= $2 AND booking_date <= $3`

	rows, err := r.executor(exec).QueryContext(ctx, query, pq.Array(courtIDs), from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query occupied slots: %w", err)
	}
	defer rows.Close()

	slots := make([]SlotKey, 0)
	for rows.Next() {
		var courtID int
		var date time.Time
		var startTime string
		if err := rows.Scan(&courtID, &date, &startTime); err != nil {
			return nil, fmt.Errorf("failed to scan occupied slot row: %w", err)
		}
		slots = append(slots, NewSlotKey(courtID, date, startTime))
	}
	return slots, rows.Err()
}

// ListOutdoorPendingByTournament — вход пакетной проверки погоды:
// бронирования незавершённых матчей турнира на открытых кортах, начиная
// с указанной даты. Корт подгружается сразу.
func (r *postgresBookingRepository) ListOutdoorPendingByTournament(ctx context.Context, tournamentID int, onOrAfter time.Time) ([]models.CourtBooking, error) {
	query := `
		SELECT b.id, b.match_id, b.court_id, b.booking_date, b.start_time, b.end_time,
		       b.temperature, b.rain_probability, b.wind_speed, b.weather_condition,
		       b.is_weather_suitable, b.weather_checked_at, b.created_at,
		       c.id, c.name, c.location, c.is_indoor, c.is_available, c.created_at
		FROM court_bookings b
		JOIN matches m ON m.id = b.match_id
		JOIN courts c ON c.id = b.court_id
		WHERE m.tournament_id = $1 AND m.status = 'pending'
		  AND c.is_indoor = FALSE AND b.booking_date >= $2
		ORDER BY b.booking_date ASC, b.start_time ASC, b.id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID, onOrAfter)
	if err != nil {
		return nil, fmt.Errorf("failed to query outdoor bookings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	bookings := make([]models.CourtBooking, 0)
	for rows.Next() {
		var b models.CourtBooking
		var c models.Court
		if err := rows.Scan(
			&b.ID, &b.MatchID, &b.CourtID, &b.BookingDate, &b.StartTime, &b.EndTime,
			&b.Temperature, &b.RainProbability, &b.WindSpeed, &b.WeatherCondition,
			&b.IsWeatherSuitable, &b.WeatherCheckedAt, &b.CreatedAt,
			&c.ID, &c.Name, &c.Location, &c.IsIndoor, &c.IsAvailable, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan outdoor booking row: %w", err)
		}
		b.Court = &c
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (r *postgresBookingRepository) Relocate(ctx context.Context, exec SQLExecutor, id, newCourtID int) error {
	query := `UPDATE court_bookings SET court_id = $1 WHERE id = $2`

	result, err := r.executor(exec).ExecContext(ctx, query, newCourtID, id)
	if err != nil {
		return r.handleBookingError(err)
	}
	return checkAffectedRows(result, ErrBookingNotFound)
}

func (r *postgresBookingRepository) Postpone(ctx context.Context, exec SQLExecutor, id int, newDate time.Time) error {
	query := `UPDATE court_bookings SET booking_date = $1 WHERE id = $2`

	result, err := r.executor(exec).ExecContext(ctx, query, newDate, id)
	if err != nil {
		return r.handleBookingError(err)
	}
	return checkAffectedRows(result, ErrBookingNotFound)
}

func (r *postgresBookingRepository) UpdateWeather(ctx context.Context, exec SQLExecutor, id int, update WeatherUpdate) error {
	query := `
		UPDATE court_bookings
		SET temperature = $1, rain_probability = $2, wind_speed = $3,
		    weather_condition = $4, is_weather_suitable = $5, weather_checked_at = $6
		WHERE id = $7`

	result, err := r.executor(exec).ExecContext(ctx, query,
		update.Temperature, update.RainProbability, update.WindSpeed,
		update.WeatherCondition, update.IsSuitable, update.CheckedAt, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update weather of booking %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrBookingNotFound)
}

func (r *postgresBookingRepository) handleBookingError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "court_bookings_court_id_booking_date_start_time_key":
			return ErrBookingSlotTaken
		case "court_bookings_match_id_key":
			return ErrMatchAlreadyBooked
		case "court_bookings_court_id_fkey":
			return ErrBookingCourtInvalid
		}
	}
	return err
}
