package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

type ScheduleService interface {
	// ScheduleMatches раздаёт незапланированным pending-матчам турнира
	// тройки (корт, дата, слот). Всё или ничего: при нехватке ёмкости в
	// горизонте не создаётся ни одного бронирования.
	ScheduleMatches(ctx context.Context, tournamentID int, input ScheduleInput) (int, error)

	// ValidateSlot отвечает, свободна ли конкретная тройка, с причиной отказа.
	ValidateSlot(ctx context.Context, matchID int, input ValidateSlotInput) (*SlotValidation, error)
}

type ScheduleInput struct {
	CourtIDs  []int
	StartDate string   // "2006-01-02"
	TimeSlots []string // "HH:MM", порядок обхода задаёт вызывающий
}

type ValidateSlotInput struct {
	CourtID   int
	Date      string
	StartTime string
}

type SlotValidation struct {
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type scheduleService struct {
	tournamentRepo repositories.TournamentRepository
	matchRepo      repositories.MatchRepository
	courtRepo      repositories.CourtRepository
	bookingRepo    repositories.BookingRepository
	txManager      repositories.TxManager
	horizonDays    int
}

func NewScheduleService(
	tournamentRepo repositories.TournamentRepository,
	matchRepo repositories.MatchRepository,
	courtRepo repositories.CourtRepository,
	bookingRepo repositories.BookingRepository,
	txManager repositories.TxManager,
	horizonDays int,
) ScheduleService {
	return &scheduleService{
		tournamentRepo: tournamentRepo,
		matchRepo:      matchRepo,
		courtRepo:      courtRepo,
		bookingRepo:    bookingRepo,
		txManager:      txManager,
		horizonDays:    horizonDays,
	}
}

func (s *scheduleService) ScheduleMatches(ctx context.Context, tournamentID int, input ScheduleInput) (int, error) {
	if len(input.CourtIDs) == 0 {
		return 0, ErrNoCourtsProvided
	}
	if len(input.TimeSlots) == 0 {
		return 0, ErrNoTimeSlots
	}
	slots := make([]string, 0, len(input.TimeSlots))
	for _, raw := range input.TimeSlots {
		slot, err := parseTimeSlot(raw)
		if err != nil {
			return 0, err
		}
		slots = append(slots, slot)
	}
	startDate, err := parseDate(input.StartDate)
	if err != nil {
		return 0, err
	}
	startDate = dateOnly(startDate)

	scheduled := 0
	err = s.txManager.WithinSerializableTx(ctx, func(exec repositories.SQLExecutor) error {
		scheduled = 0

		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status != models.StatusGroupPhase && tournament.Status != models.StatusKnockoutPhase {
			return ErrTournamentNotActive
		}

		// Порядок запроса сохраняется: планировщик обходит корты так,
		// как их перечислил оператор.
		courts, err := s.courtRepo.ListByIDs(ctx, exec, input.CourtIDs)
		if err != nil {
			if errors.Is(err, repositories.ErrCourtNotFound) {
				return ErrCourtNotFound
			}
			return err
		}

		matches, err := s.matchRepo.ListPendingUnscheduled(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(matches) == 0 {
			return nil
		}

		if len(matches) > len(courts)*len(slots)*s.horizonDays {
			return ErrScheduleCapacityExceeded
		}

		horizonEnd := startDate.AddDate(0, 0, s.horizonDays-1)
		occupiedList, err := s.bookingRepo.ListOccupiedSlots(ctx, exec, input.CourtIDs, startDate, horizonEnd)
		if err != nil {
			return err
		}
		occupied := make(map[repositories.SlotKey]bool, len(occupiedList))
		for _, key := range occupiedList {
			occupied[key] = true
		}

		// Обход: дата → корт → слот. Заполняем стартовую дату целиком,
		// прежде чем шагнуть на следующую.
		next := 0
		for day := 0; day < s.horizonDays && next < len(matches); day++ {
			date := startDate.AddDate(0, 0, day)
			for _, court := range courts {
				for _, slot := range slots {
					if next >= len(matches) {
						break
					}
					key := repositories.NewSlotKey(court.ID, date, slot)
					if occupied[key] {
						continue
					}

					booking := &models.CourtBooking{
						MatchID:     matches[next].ID,
						CourtID:     court.ID,
						BookingDate: date,
						StartTime:   slot,
						EndTime:     slotEndTime(slot),
					}
					if err := s.bookingRepo.Create(ctx, exec, booking); err != nil {
						return err
					}
					occupied[key] = true
					next++
					scheduled++
				}
			}
		}

		// Занятые конкурентами слоты могли съесть формальную ёмкость.
		if next < len(matches) {
			return ErrScheduleCapacityExceeded
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return scheduled, nil
}

func (s *scheduleService) ValidateSlot(ctx context.Context, matchID int, input ValidateSlotInput) (*SlotValidation, error) {
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

	court, err := s.courtRepo.GetByID(ctx, input.CourtID)
	if err != nil {
		if errors.Is(err, repositories.ErrCourtNotFound) {
			return nil, ErrCourtNotFound
		}
		return nil, err
	}

	slot, err := parseTimeSlot(input.StartTime)
	if err != nil {
		return nil, err
	}
	date, err := parseDate(input.Date)
	if err != nil {
		return nil, err
	}

	if !court.IsAvailable {
		return &SlotValidation{Available: false, Reason: fmt.Sprintf("court %q is not available", court.Name)}, nil
	}

	taken, err := s.bookingRepo.ExistsAt(ctx, nil, court.ID, dateOnly(date), slot)
	if err != nil {
		return nil, err
	}
	if taken {
		return &SlotValidation{
			Available: false,
			Reason:    fmt.Sprintf("court %q is already booked on %s at %s", court.Name, date.Format("2006-01-02"), slot),
		}, nil
	}
	return &SlotValidation{Available: true}, nil
}
