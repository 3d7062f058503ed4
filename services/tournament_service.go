package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/padelhub/tournament-system/brackets"
	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
	"github.com/padelhub/tournament-system/standings"
)

type TournamentService interface {
	Create(ctx context.Context, input TournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context) ([]models.Tournament, error)

	RegisterTeam(ctx context.Context, tournamentID, teamID int) (*models.TournamentTeam, error)
	StartGroupPhase(ctx context.Context, tournamentID int) (int, error)
	StartKnockoutPhase(ctx context.Context, tournamentID int) (int, error)

	// Standings возвращает турнир вместе с таблицей: дашборду нужно имя
	// турнира рядом с местами.
	Standings(ctx context.Context, tournamentID int) (*models.Tournament, []models.Standing, error)
}

type TournamentInput struct {
	Name      string
	StartDate string // "2006-01-02"
	Prize     *string
}

type tournamentService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	bookingRepo    repositories.BookingRepository
	txManager      repositories.TxManager
	qualifiers     int
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	bookingRepo repositories.BookingRepository,
	txManager repositories.TxManager,
	qualifiers int,
) TournamentService {
	return &tournamentService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		bookingRepo:    bookingRepo,
		txManager:      txManager,
		qualifiers:     qualifiers,
	}
}

func (s *tournamentService) Create(ctx context.Context, input TournamentInput) (*models.Tournament, error) {
	startDate, err := parseDate(input.StartDate)
	if err != nil {
		return nil, err
	}

	tournament := &models.Tournament{
		Name:      input.Name,
		Status:    models.StatusWaiting,
		StartDate: startDate,
		Prize:     input.Prize,
	}
	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNameConflict) {
			return nil, ErrTournamentNameConflict
		}
		return nil, err
	}
	return tournament, nil
}

// GetByID возвращает турнир с вложенными заявками и матчами; к матчам
// подгружаются бронирования.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	regs, err := s.tournamentRepo.ListRegistrations(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	tournament.Teams = regs

	matches, err := s.matchRepo.ListByTournament(ctx, nil, id, repositories.MatchFilter{})
	if err != nil {
		return nil, err
	}
	if err := s.attachBookings(ctx, matches); err != nil {
		return nil, err
	}
	tournament.Matches = matches

	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	return tournaments, nil
}

// RegisterTeam заявляет команду в турнир. Заявки принимаются только в
// статусе waiting и только от полностью сформированных команд.
func (s *tournamentService) RegisterTeam(ctx context.Context, tournamentID, teamID int) (*models.TournamentTeam, error) {
	team, err := s.teamRepo.GetByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, repositories.ErrTeamNotFound) {
			return nil, ErrTeamNotFound
		}
		return nil, err
	}
	if !team.IsComplete() {
		return nil, ErrTeamIncomplete
	}

	var registration *models.TournamentTeam
	err = s.txManager.WithinSerializableTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status != models.StatusWaiting {
			return ErrRegistrationClosed
		}

		registration, err = s.tournamentRepo.RegisterTeam(ctx, exec, tournamentID, teamID)
		if err != nil {
			if errors.Is(err, repositories.ErrRegistrationConflict) {
				return ErrTeamAlreadyRegistered
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	registration.Team = team
	return registration, nil
}

// StartGroupPhase переводит турнир waiting → group_phase и генерирует
// круговые матчи группового этапа. Из двух конкурентных вызовов ровно один
// выигрывает CAS по статусу, второй получает PhaseAlreadyStarted.
func (s *tournamentService) StartGroupPhase(ctx context.Context, tournamentID int) (int, error) {
	created := 0
	err := s.txManager.WithinSerializableTx(ctx, func(exec repositories.SQLExecutor) error {
		created = 0

		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		if tournament.Status != models.StatusWaiting {
			return ErrPhaseAlreadyStarted
		}

		regs, err := s.tournamentRepo.ListRegistrations(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		teamIDs := make([]int, 0, len(regs))
		for _, reg := range regs {
			teamIDs = append(teamIDs, reg.TeamID)
		}

		pairings, err := brackets.GenerateRoundRobinPairings(teamIDs)
		if err != nil {
			if errors.Is(err, brackets.ErrInsufficientTeams) {
				return ErrNotEnoughTeams
			}
			return err
		}

		matches := make([]*models.Match, 0, len(pairings))
		for _, p := range pairings {
			matches = append(matches, &models.Match{
				TournamentID: tournamentID,
				Phase:        models.PhaseGroup,
				Team1ID:      p.Team1ID,
				Team2ID:      p.Team2ID,
				Status:       models.MatchStatusPending,
			})
		}
		if err := s.matchRepo.CreateBatch(ctx, exec, matches); err != nil {
			return err
		}
		created = len(matches)

		err = s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusWaiting, models.StatusGroupPhase)
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			return ErrPhaseAlreadyStarted
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// StartKnockoutPhase закрывает групповой этап и генерирует первый раунд
// плей-офф по посеву из таблицы. Требует завершённости всех групповых матчей.
func (s *tournamentService) StartKnockoutPhase(ctx context.Context, tournamentID int) (int, error) {
	created := 0
	err := s.txManager.WithinSerializableTx(ctx, func(exec repositories.SQLExecutor) error {
		created = 0

		tournament, err := s.tournamentRepo.GetByID(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return err
		}
		switch tournament.Status {
		case models.StatusGroupPhase:
		case models.StatusWaiting:
			return ErrGroupPhaseIncomplete
		default:
			return ErrPhaseAlreadyStarted
		}

		table, err := s.groupStandings(ctx, exec, tournamentID)
		if err != nil {
			return err
		}

		groupMatches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, groupPhaseFilter())
		if err != nil {
			return err
		}
		for _, m := range groupMatches {
			if m.Status != models.MatchStatusFinished {
				return ErrGroupPhaseIncomplete
			}
		}

		seeds := qualifiedSeeds(table, s.qualifiers)
		pairings, _, err := brackets.SeedInitialRound(seeds)
		if err != nil {
			if errors.Is(err, brackets.ErrInsufficientQualifiers) {
				return ErrInsufficientQualifiers
			}
			return err
		}

		round := 1
		matches := make([]*models.Match, 0, len(pairings))
		for _, p := range pairings {
			matches = append(matches, &models.Match{
				TournamentID: tournamentID,
				Phase:        models.PhaseKnockout,
				RoundNum:     &round,
				Team1ID:      p.Team1ID,
				Team2ID:      p.Team2ID,
				Status:       models.MatchStatusPending,
			})
		}
		if err := s.matchRepo.CreateBatch(ctx, exec, matches); err != nil {
			return err
		}
		created = len(matches)

		err = s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusGroupPhase, models.StatusKnockoutPhase)
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			return ErrPhaseAlreadyStarted
		}
		return err
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (s *tournamentService) Standings(ctx context.Context, tournamentID int) (*models.Tournament, []models.Standing, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, nil, ErrTournamentNotFound
		}
		return nil, nil, err
	}
	table, err := s.groupStandings(ctx, nil, tournamentID)
	if err != nil {
		return nil, nil, err
	}
	return tournament, table, nil
}

func (s *tournamentService) groupStandings(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]models.Standing, error) {
	regs, err := s.tournamentRepo.ListRegistrations(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, groupPhaseFilter())
	if err != nil {
		return nil, err
	}
	return standings.Calculate(regs, matches), nil
}

func (s *tournamentService) attachBookings(ctx context.Context, matches []models.Match) error {
	for i := range matches {
		booking, err := s.bookingRepo.GetByMatchID(ctx, nil, matches[i].ID)
		if err != nil {
			if errors.Is(err, repositories.ErrBookingNotFound) {
				continue
			}
			return err
		}
		matches[i].Booking = booking
	}
	return nil
}

func groupPhaseFilter() repositories.MatchFilter {
	phase := models.PhaseGroup
	return repositories.MatchFilter{Phase: &phase}
}

// qualifiedSeeds берёт верх таблицы: не больше limit команд, в порядке мест.
func qualifiedSeeds(table []models.Standing, limit int) []int {
	if limit > len(table) {
		limit = len(table)
	}
	seeds := make([]int, 0, limit)
	for _, row := range table[:limit] {
		seeds = append(seeds, row.TeamID)
	}
	return seeds
}
