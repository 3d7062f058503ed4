package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/padelhub/tournament-system/models"
)

var (
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrTournamentNameConflict   = errors.New("tournament name already exists")
	ErrTournamentStatusConflict = errors.New("tournament status changed concurrently")
	ErrRegistrationConflict     = errors.New("team is already registered for this tournament")
)

type TournamentRepository interface {
	Create(ctx context.Context, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)
	ListByStatuses(ctx context.Context, statuses []models.TournamentStatus) ([]models.Tournament, error)

	// UpdateStatus переводит статус только из ожидаемого текущего (CAS).
	// Ноль затронутых строк означает конкурентный переход и возвращает
	// ErrTournamentStatusConflict.
	UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error

	RegisterTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.TournamentTeam, error)
	ListRegistrations(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentTeam, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) executor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) Create(ctx context.Context, tournament *models.Tournament) error {
	query := `
		INSERT INTO tournaments (name, status, start_date, prize)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query,
		tournament.Name, tournament.Status, tournament.StartDate, tournament.Prize,
	).Scan(&tournament.ID, &tournament.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Constraint == "tournaments_name_key" {
			return ErrTournamentNameConflict
		}
		return fmt.Errorf("failed to create tournament: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Tournament, error) {
	query := `SELECT id, name, status, start_date, prize, created_at FROM tournaments WHERE id = $1`

	t := &models.Tournament{}
	err := r.executor(exec).QueryRowContext(ctx, query, id).
		Scan(&t.ID, &t.Name, &t.Status, &t.StartDate, &t.Prize, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament by id %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) List(ctx context.Context) ([]models.Tournament, error) {
	query := `SELECT id, name, status, start_date, prize, created_at FROM tournaments ORDER BY start_date ASC, id ASC`
	return r.queryTournaments(ctx, query)
}

func (r *postgresTournamentRepository) ListByStatuses(ctx context.Context, statuses []models.TournamentStatus) ([]models.Tournament, error) {
	raw := make([]string, 0, len(statuses))
	for _, s := range statuses {
		raw = append(raw, string(s))
	}
	query := `SELECT id, name, status, start_date, prize, created_at FROM tournaments WHERE status = ANY($1) ORDER BY id ASC`
	return r.queryTournaments(ctx, query, pq.Array(raw))
}

func (r *postgresTournamentRepository) UpdateStatus(ctx context.Context, exec SQLExecutor, id int, from, to models.TournamentStatus) error {
	query := `UPDATE tournaments SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.executor(exec).ExecContext(ctx, query, to, id, from)
	if err != nil {
		return fmt.Errorf("failed to update status of tournament %d: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentStatusConflict)
}

func (r *postgresTournamentRepository) RegisterTeam(ctx context.Context, exec SQLExecutor, tournamentID, teamID int) (*models.TournamentTeam, error) {
	query := `
		INSERT INTO tournament_teams (tournament_id, team_id)
		VALUES ($1, $2)
		RETURNING id, registered_at`

	reg := &models.TournamentTeam{TournamentID: tournamentID, TeamID: teamID}
	err := r.executor(exec).QueryRowContext(ctx, query, tournamentID, teamID).
		Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "tournament_teams_tournament_id_team_id_key":
				return nil, ErrRegistrationConflict
			case "tournament_teams_tournament_id_fkey":
				return nil, ErrTournamentNotFound
			case "tournament_teams_team_id_fkey":
				return nil, ErrTeamNotFound
			}
		}
		return nil, fmt.Errorf("failed to register team %d for tournament %d: %w", teamID, tournamentID, err)
	}
	return reg, nil
}

// ListRegistrations возвращает заявки в порядке регистрации — этот порядок
// фиксирует детерминизм генерации пар и последний тай-брейк таблицы.
func (r *postgresTournamentRepository) ListRegistrations(ctx context.Context, exec SQLExecutor, tournamentID int) ([]models.TournamentTeam, error) {
	query := `
		SELECT tt.id, tt.tournament_id, tt.team_id, tt.registered_at,
		       t.id, t.name, t.ranking, t.created_at
		FROM tournament_teams tt
		JOIN teams t ON t.id = tt.team_id
		WHERE tt.tournament_id = $1
		ORDER BY tt.registered_at ASC, tt.id ASC`

	rows, err := r.executor(exec).QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query registrations for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	regs := make([]models.TournamentTeam, 0)
	for rows.Next() {
		var reg models.TournamentTeam
		var team models.Team
		if err := rows.Scan(
			&reg.ID, &reg.TournamentID, &reg.TeamID, &reg.RegisteredAt,
			&team.ID, &team.Name, &team.Ranking, &team.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration row: %w", err)
		}
		reg.Team = &team
		regs = append(regs, reg)
	}
	return regs, rows.Err()
}

func (r *postgresTournamentRepository) queryTournaments(ctx context.Context, query string, args ...interface{}) ([]models.Tournament, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]models.Tournament, 0)
	for rows.Next() {
		var t models.Tournament
		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &t.StartDate, &t.Prize, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan tournament row: %w", err)
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}
