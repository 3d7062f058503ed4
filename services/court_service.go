package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

type CourtService interface {
	Create(ctx context.Context, input CourtInput) (*models.Court, error)
	GetByID(ctx context.Context, id int) (*models.Court, error)
	List(ctx context.Context) ([]models.Court, error)
	Update(ctx context.Context, id int, input CourtInput) (*models.Court, error)
	SetAvailability(ctx context.Context, id int, available bool) (*models.Court, error)
	Delete(ctx context.Context, id int) error
}

type CourtInput struct {
	Name        string
	Location    *string
	IsIndoor    bool
	IsAvailable bool
}

type courtService struct {
	courtRepo repositories.CourtRepository
}

func NewCourtService(courtRepo repositories.CourtRepository) CourtService {
	return &courtService{courtRepo: courtRepo}
}

func (s *courtService) Create(ctx context.Context, input CourtInput) (*models.Court, error) {
	court := &models.Court{
		Name:        input.Name,
		Location:    input.Location,
		IsIndoor:    input.IsIndoor,
		IsAvailable: input.IsAvailable,
	}
	if err := s.courtRepo.Create(ctx, court); err != nil {
		return nil, s.mapCourtError(err)
	}
	return court, nil
}

func (s *courtService) GetByID(ctx context.Context, id int) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapCourtError(err)
	}
	return court, nil
}

func (s *courtService) List(ctx context.Context) ([]models.Court, error) {
	courts, err := s.courtRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courts: %w", err)
	}
	return courts, nil
}

func (s *courtService) Update(ctx context.Context, id int, input CourtInput) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapCourtError(err)
	}

	court.Name = input.Name
	court.Location = input.Location
	court.IsIndoor = input.IsIndoor
	court.IsAvailable = input.IsAvailable

	if err := s.courtRepo.Update(ctx, court); err != nil {
		return nil, s.mapCourtError(err)
	}
	return court, nil
}

// SetAvailability выводит корт из ротации (или возвращает обратно), не
// трогая остальные поля. Планировщик и релокация игнорируют недоступные корты.
func (s *courtService) SetAvailability(ctx context.Context, id int, available bool) (*models.Court, error) {
	court, err := s.courtRepo.GetByID(ctx, id)
	if err != nil {
		return nil, s.mapCourtError(err)
	}

	court.IsAvailable = available
	if err := s.courtRepo.Update(ctx, court); err != nil {
		return nil, s.mapCourtError(err)
	}
	return court, nil
}

func (s *courtService) Delete(ctx context.Context, id int) error {
	if err := s.courtRepo.Delete(ctx, id); err != nil {
		return s.mapCourtError(err)
	}
	return nil
}

func (s *courtService) mapCourtError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrCourtNotFound):
		return ErrCourtNotFound
	case errors.Is(err, repositories.ErrCourtInUse):
		return ErrResourceInUse
	default:
		return err
	}
}
