package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

type TeamService interface {
	Create(ctx context.Context, input TeamInput) (*models.Team, error)
	GetByID(ctx context.Context, id int) (*models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Update(ctx context.Context, id int, input TeamInput) (*models.Team, error)
	Delete(ctx context.Context, id int) error

	AddMember(ctx context.Context, teamID, playerID int) (*models.Team, error)
	RemoveMember(ctx context.Context, teamID, playerID int) (*models.Team, error)
}

type TeamInput struct {
	Name string
}

type teamService struct {
	teamRepo   repositories.TeamRepository
	playerRepo repositories.PlayerRepository
}

func NewTeamService(teamRepo repositories.TeamRepository, playerRepo repositories.PlayerRepository) TeamService {
	return &teamService{
		teamRepo:   teamRepo,
		playerRepo: playerRepo,
	}
}

func (s *teamService) Create(ctx context.Context, input TeamInput) (*models.Team, error) {
	team := &models.Team{Name: input.Name}
	if err := s.teamRepo.Create(ctx, team); err != nil {
		return nil, s.mapTeamError(err)
	}
	team.Members = []models.TeamMember{}
	return team, nil
}

func (s *teamService) GetByID(ctx context.Context, id int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapTeamError(err)
	}
	return team, nil
}

func (s *teamService) List(ctx context.Context) ([]models.Team, error) {
	teams, err := s.teamRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	return teams, nil
}

func (s *teamService) Update(ctx context.Context, id int, input TeamInput) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapTeamError(err)
	}

	team.Name = input.Name
	if err := s.teamRepo.Update(ctx, team); err != nil {
		return nil, s.mapTeamError(err)
	}
	return team, nil
}

func (s *teamService) Delete(ctx context.Context, id int) error {
	if err := s.teamRepo.Delete(ctx, id); err != nil {
		return s.mapTeamError(err)
	}
	return nil
}

// AddMember добавляет игрока в команду (не более двух) и пересчитывает
// рейтинг команды как сумму рангов участников.
func (s *teamService) AddMember(ctx context.Context, teamID, playerID int) (*models.Team, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		return nil, s.mapTeamError(err)
	}
	if len(team.Members) >= models.TeamSize {
		return nil, ErrTeamFull
	}

	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repositories.ErrPlayerNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}

	if _, err := s.teamRepo.AddMember(ctx, teamID, playerID); err != nil {
		return nil, s.mapTeamError(err)
	}
	return s.recalculateRanking(ctx, teamID)
}

func (s *teamService) RemoveMember(ctx context.Context, teamID, playerID int) (*models.Team, error) {
	if err := s.teamRepo.RemoveMember(ctx, teamID, playerID); err != nil {
		return nil, s.mapTeamError(err)
	}
	return s.recalculateRanking(ctx, teamID)
}

func (s *teamService) recalculateRanking(ctx context.Context, teamID int) (*models.Team, error) {
	members, err := s.teamRepo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	ranking := 0
	for _, m := range members {
		if m.Player != nil {
			ranking += m.Player.Rank
		}
	}
	if err := s.teamRepo.UpdateRanking(ctx, teamID, ranking); err != nil {
		return nil, s.mapTeamError(err)
	}

	return s.GetByID(ctx, teamID)
}

func (s *teamService) mapTeamError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrTeamNotFound):
		return ErrTeamNotFound
	case errors.Is(err, repositories.ErrTeamNameConflict):
		return ErrTeamNameConflict
	case errors.Is(err, repositories.ErrTeamMemberConflict):
		return ErrValidationFailed
	case errors.Is(err, repositories.ErrTeamMemberNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrTeamInUse):
		return ErrResourceInUse
	default:
		return err
	}
}
