package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

type PlayerService interface {
	Create(ctx context.Context, input PlayerInput) (*models.Player, error)
	GetByID(ctx context.Context, id int) (*models.Player, error)
	List(ctx context.Context) ([]models.Player, error)
	Update(ctx context.Context, id int, input PlayerInput) (*models.Player, error)
	Delete(ctx context.Context, id int) error
}

type PlayerInput struct {
	Name          string
	Rank          int
	LicenseNumber *string
}

type playerService struct {
	playerRepo repositories.PlayerRepository
}

func NewPlayerService(playerRepo repositories.PlayerRepository) PlayerService {
	return &playerService{playerRepo: playerRepo}
}

func (s *playerService) Create(ctx context.Context, input PlayerInput) (*models.Player, error) {
	player := &models.Player{
		Name:          input.Name,
		Rank:          input.Rank,
		LicenseNumber: input.LicenseNumber,
	}
	if err := s.playerRepo.Create(ctx, player); err != nil {
		return nil, s.mapPlayerError(err)
	}
	return player, nil
}

func (s *playerService) GetByID(ctx context.Context, id int) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapPlayerError(err)
	}
	return player, nil
}

func (s *playerService) List(ctx context.Context) ([]models.Player, error) {
	players, err := s.playerRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	return players, nil
}

func (s *playerService) Update(ctx context.Context, id int, input PlayerInput) (*models.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapPlayerError(err)
	}

	player.Name = input.Name
	player.Rank = input.Rank
	player.LicenseNumber = input.LicenseNumber

	if err := s.playerRepo.Update(ctx, player); err != nil {
		return nil, s.mapPlayerError(err)
	}
	return player, nil
}

func (s *playerService) Delete(ctx context.Context, id int) error {
	if err := s.playerRepo.Delete(ctx, id); err != nil {
		return s.mapPlayerError(err)
	}
	return nil
}

func (s *playerService) mapPlayerError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrPlayerNotFound):
		return ErrPlayerNotFound
	case errors.Is(err, repositories.ErrPlayerLicenseConflict):
		return ErrLicenseConflict
	case errors.Is(err, repositories.ErrPlayerInUse):
		return ErrResourceInUse
	default:
		return err
	}
}
