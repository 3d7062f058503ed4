package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/padelhub/tournament-system/models"
)

var (
	ErrMatchNotFound    = errors.New("match not found")
	ErrMatchNotPending  = errors.New("match is not pending")
	ErrMatchTeamInvalid = errors.New("match team conflict or invalid")
)

// MatchFilter сужает выборку матчей турнира.
type MatchFilter struct {
	Phase  *models.MatchPhase
	Status *models.MatchStatus
	Round  *int
}

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter MatchFilter) ([]models.Match, error)
	List(ctx context.Context) ([]models.Match, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.Match, error)
	ListPendingUnscheduled(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Match, error)

	// UpdateResult завершает матч атомарно: счёт, статус и победитель
	// пишутся одним UPDATE со сторожем status='pending'. Ноль затронутых
	// строк означает, что матч уже завершён (ErrMatchNotPending).
	UpdateResult(ctx context.Context, exec SQLExecutor, id int, team1Score, team2Score int, winnerID *int) error
	UpdateForfeit(ctx context.Context, exec SQLExecutor, id int, winnerID, cancelledByTeamID int, reason string) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, phase, round_num, team1_id, team2_id,
	team1_score, team2_score, status, winner_id,
	cancelled_by_team_id, cancellation_reason, created_at`

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		INSERT INTO matches (tournament_id, phase, round_num, team1_id, team2_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`

	err := r.executor(exec).QueryRowContext(ctx, query,
		match.TournamentID, match.Phase, match.RoundNum, match.Team1ID, match.Team2ID, match.Status,
	).Scan(&match.ID, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create match: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	for _, match := range matches {
		if err := r.Create(ctx, exec, match); err != nil {
			return err
		}
	}
	return nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := r.scanMatch(r.executor(exec).QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID int, filter MatchFilter) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholder := 2

	if filter.Phase != nil {
		queryBuilder.WriteString(" AND phase = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.Phase)
		placeholder++
	}
	if filter.Status != nil {
		queryBuilder.WriteString(" AND status = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.Status)
		placeholder++
	}
	if filter.Round != nil {
		queryBuilder.WriteString(" AND round_num = $" + strconv.Itoa(placeholder))
		args = append(args, *filter.Round)
	}

	// id растёт в порядке генерации; этот порядок — «bracket order» раунда.
	queryBuilder.WriteString(" ORDER BY round_num ASC NULLS FIRST, id ASC")

	return r.queryMatches(ctx, r.executor(exec), queryBuilder.String(), args...)
}

func (r *postgresMatchRepository) List(ctx context.Context) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches ORDER BY id ASC`
	return r.queryMatches(ctx, r.db, query)
}

func (r *postgresMatchRepository) ListByTeam(ctx context.Context, teamID int) ([]models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE team1_id = $1 OR team2_id = $1 ORDER BY id ASC`
	return r.queryMatches(ctx, r.db, query, teamID)
}

// ListPendingUnscheduled возвращает незавершённые матчи без бронирования
// в порядке генерации — вход планировщика кортов.
func (r *postgresMatchRepository) ListPendingUnscheduled(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.Match, error) {
	query := `
		SELECT ` + prefixedMatchColumns("m") + `
		FROM matches m
		LEFT JOIN court_bookings b ON b.match_id = m.id
		WHERE m.tournament_id = $1 AND m.status = 'pending' AND b.id IS NULL
		ORDER BY m.id ASC`
	return r.queryMatches(ctx, r.executor(exec), query, tournamentID)
}

func (r *postgresMatchRepository) UpdateResult(ctx context.Context, exec SQLExecutor, id int, team1Score, team2Score int, winnerID *int) error {
	query := `
		UPDATE matches
		SET team1_score = $1, team2_score = $2, winner_id = $3, status = 'finished'
		WHERE id = $4 AND status = 'pending'`

	result, err := r.executor(exec).ExecContext(ctx, query, team1Score, team2Score, winnerID, id)
	if err != nil {
		return fmt.Errorf("failed to record result of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotPending)
}

func (r *postgresMatchRepository) UpdateForfeit(ctx context.Context, exec SQLExecutor, id int, winnerID, cancelledByTeamID int, reason string) error {
	query := `
		UPDATE matches
		SET winner_id = $1, cancelled_by_team_id = $2, cancellation_reason = $3, status = 'finished'
		WHERE id = $4 AND status = 'pending'`

	result, err := r.executor(exec).ExecContext(ctx, query, winnerID, cancelledByTeamID, reason, id)
	if err != nil {
		return fmt.Errorf("failed to record forfeit of match %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrMatchNotPending)
}

func (r *postgresMatchRepository) queryMatches(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) ([]models.Match, error) {
	rows, err := exec.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches: %w", err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var m models.Match
		if err := rows.Scan(
			&m.ID, &m.TournamentID, &m.Phase, &m.RoundNum, &m.Team1ID, &m.Team2ID,
			&m.Team1Score, &m.Team2Score, &m.Status, &m.WinnerID,
			&m.CancelledByTeamID, &m.CancellationReason, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) scanMatch(row *sql.Row, m *models.Match) error {
	return row.Scan(
		&m.ID, &m.TournamentID, &m.Phase, &m.RoundNum, &m.Team1ID, &m.Team2ID,
		&m.Team1Score, &m.Team2Score, &m.Status, &m.WinnerID,
		&m.CancelledByTeamID, &m.CancellationReason, &m.CreatedAt,
	)
}

func prefixedMatchColumns(alias string) string {
	cols := strings.Split(matchColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}
