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
	ErrTeamNotFound       = errors.New("team not found")
	ErrTeamNameConflict   = errors.New("team name already in use")
	ErrTeamMemberNotFound = errors.New("team member not found")
	ErrTeamMemberConflict = errors.New("player is already a member of this team")
	ErrTeamInUse          = errors.New("team is referenced by a tournament or match")
)

type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, team *models.Team) error
	Delete(ctx context.Context, id int) error

	AddMember(ctx context.Context, teamID, playerID int) (*models.TeamMember, error)
	RemoveMember(ctx context.Context, teamID, playerID int) error
	ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error)
	UpdateRanking(ctx context.Context, teamID, ranking int) error
}

type postgresTeamRepository struct {
	db *sql.DB
}

func NewPostgresTeamRepository(db *sql.DB) TeamRepository {
	return &postgresTeamRepository{db: db}
}

func (r *postgresTeamRepository) Create(ctx context.Context, team *models.Team) error {
	query := `
		INSERT INTO teams (name, ranking)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.QueryRowContext(ctx, query, team.Name, team.Ranking).
		Scan(&team.ID, &team.CreatedAt)
	return r.handleTeamError(err)
}

func (r *postgresTeamRepository) GetByID(ctx context.Context, id int) (*models.Team, error) {
	query := `SELECT id, name, ranking, created_at FROM teams WHERE id = $1`

	team := &models.Team{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&team.ID, &team.Name, &team.Ranking, &team.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to scan team by id %d: %w", id, err)
	}

	members, err := r.ListMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	team.Members = members
	return team, nil
}

func (r *postgresTeamRepository) List(ctx context.Context) ([]models.Team, error) {
	query := `SELECT id, name, ranking, created_at FROM teams ORDER BY ranking ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := make([]models.Team, 0)
	for rows.Next() {
		var t models.Team
		if err := rows.Scan(&t.ID, &t.Name, &t.Ranking, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team row: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		members, err := r.ListMembers(ctx, teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Members = members
	}
	return teams, nil
}

func (r *postgresTeamRepository) Update(ctx context.Context, team *models.Team) error {
	query := `UPDATE teams SET name = $1, ranking = $2 WHERE id = $3`

	result, err := r.db.ExecContext(ctx, query, team.Name, team.Ranking, team.ID)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM teams WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return r.handleTeamError(err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) AddMember(ctx context.Context, teamID, playerID int) (*models.TeamMember, error) {
	query := `
		INSERT INTO team_members (team_id, player_id)
		VALUES ($1, $2)
		RETURNING id`

	member := &models.TeamMember{TeamID: teamID, PlayerID: playerID}
	err := r.db.QueryRowContext(ctx, query, teamID, playerID).Scan(&member.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Constraint {
			case "team_members_team_id_player_id_key":
				return nil, ErrTeamMemberConflict
			case "team_members_team_id_fkey":
				return nil, ErrTeamNotFound
			case "team_members_player_id_fkey":
				return nil, ErrPlayerNotFound
			}
		}
		return nil, fmt.Errorf("failed to add member to team %d: %w", teamID, err)
	}
	return member, nil
}

func (r *postgresTeamRepository) RemoveMember(ctx context.Context, teamID, playerID int) error {
	query := `DELETE FROM team_members WHERE team_id = $1 AND player_id = $2`

	result, err := r.db.ExecContext(ctx, query, teamID, playerID)
	if err != nil {
		return fmt.Errorf("failed to remove member from team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamMemberNotFound)
}

func (r *postgresTeamRepository) ListMembers(ctx context.Context, teamID int) ([]models.TeamMember, error) {
	query := `
		SELECT tm.id, tm.team_id, tm.player_id, p.id, p.name, p.rank, p.license_number, p.created_at
		FROM team_members tm
		JOIN players p ON p.id = tm.player_id
		WHERE tm.team_id = $1
		ORDER BY tm.id ASC`

	rows, err := r.db.QueryContext(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members of team %d: %w", teamID, err)
	}
	defer rows.Close()

	members := make([]models.TeamMember, 0, models.TeamSize)
	for rows.Next() {
		var m models.TeamMember
		var p models.Player
		if err := rows.Scan(&m.ID, &m.TeamID, &m.PlayerID, &p.ID, &p.Name, &p.Rank, &p.LicenseNumber, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team member row: %w", err)
		}
		m.Player = &p
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *postgresTeamRepository) UpdateRanking(ctx context.Context, teamID, ranking int) error {
	query := `UPDATE teams SET ranking = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, ranking, teamID)
	if err != nil {
		return fmt.Errorf("failed to update ranking of team %d: %w", teamID, err)
	}
	return checkAffectedRows(result, ErrTeamNotFound)
}

func (r *postgresTeamRepository) handleTeamError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Constraint {
		case "teams_name_key":
			return ErrTeamNameConflict
		case "tournament_teams_team_id_fkey", "matches_team1_id_fkey", "matches_team2_id_fkey":
			return ErrTeamInUse
		}
	}
	return err
}
