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

type MatchService interface {
	GetByID(ctx context.Context, id int) (*models.Match, error)
	List(ctx context.Context) ([]models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error)
	ListByTeam(ctx context.Context, teamID int) ([]models.Match, error)

	RecordResult(ctx context.Context, matchID int, input RecordResultInput) (*models.Match, error)
	Cancel(ctx context.Context, matchID int, input CancelMatchInput) (*models.Match, error)
}

type RecordResultInput struct {
	Team1Score int
	Team2Score int
}

type CancelMatchInput struct {
	TeamID int
	Reason string
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	tournamentRepo repositories.TournamentRepository
	bookingRepo    repositories.BookingRepository
	txManager      repositories.TxManager
	qualifiers     int
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	tournamentRepo repositories.TournamentRepository,
	bookingRepo repositories.BookingRepository,
	txManager repositories.TxManager,
	qualifiers int,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		tournamentRepo: tournamentRepo,
		bookingRepo:    bookingRepo,
		txManager:      txManager,
		qualifiers:     qualifiers,
	}
}

func (s *matchService) GetByID(ctx context.Context, id int) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	s.attachBooking(ctx, match)
	return match, nil
}

func (s *matchService) List(ctx context.Context) ([]models.Match, error) {
	matches, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) ListByTournament(ctx context.Context, tournamentID int) ([]models.Match, error) {
	if _, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID, repositories.MatchFilter{})
	if err != nil {
		return nil, err
	}
	for i := range matches {
		s.attachBooking(ctx, &matches[i])
	}
	return matches, nil
}

func (s *matchService) ListByTeam(ctx context.Context, teamID int) ([]models.Match, error) {
	matches, err := s.matchRepo.ListByTeam(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches of team %d: %w", teamID, err)
	}
	return matches, nil
}

// RecordResult фиксирует счёт завершающегося матча. Матч должен быть
// pending; ничья допустима только в группе (winner остаётся NULL). После
// результата в плей-офф проверяется завершённость раунда и при необходимости
// генерируется следующий — либо турнир закрывается.
func (s *matchService) RecordResult(ctx context.Context, matchID int, input RecordResultInput) (*models.Match, error) {
	if input.Team1Score < 0 || input.Team2Score < 0 {
		return nil, ErrNegativeScore
	}

	var updated *models.Match
	err := s.txManager.WithinSerializableTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.Status != models.MatchStatusPending {
			return ErrMatchAlreadyFinished
		}

		var winnerID *int
		switch {
		case input.Team1Score > input.Team2Score:
			winnerID = &match.Team1ID
		case input.Team2Score > input.Team1Score:
			winnerID = &match.Team2ID
		default:
			if match.Phase == models.PhaseKnockout {
				return ErrKnockoutTieNotAllowed
			}
		}

		err = s.matchRepo.UpdateResult(ctx, exec, matchID, input.Team1Score, input.Team2Score, winnerID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotPending) {
				return ErrMatchAlreadyFinished
			}
			return err
		}

		if match.Phase == models.PhaseKnockout && match.RoundNum != nil {
			if err := s.advanceKnockout(ctx, exec, match.TournamentID, *match.RoundNum); err != nil {
				return err
			}
		}

		updated, err = s.matchRepo.GetByID(ctx, exec, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.attachBooking(ctx, updated)
	return updated, nil
}

// Cancel оформляет техническое поражение: команда снимается с матча,
// соперник объявляется победителем. Продвижение сетки — как при обычном
// результате.
func (s *matchService) Cancel(ctx context.Context, matchID int, input CancelMatchInput) (*models.Match, error) {
	var updated *models.Match
	err := s.txManager.WithinSerializableTx(ctx, func(exec repositories.SQLExecutor) error {
		match, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return err
		}
		if match.Status != models.MatchStatusPending {
			return ErrMatchAlreadyFinished
		}

		var winnerID int
		switch input.TeamID {
		case match.Team1ID:
			winnerID = match.Team2ID
		case match.Team2ID:
			winnerID = match.Team1ID
		default:
			return ErrTeamNotInMatch
		}

		reason := input.Reason
		if reason == "" {
			reason = fmt.Sprintf("team %d forfeited", input.TeamID)
		}

		err = s.matchRepo.UpdateForfeit(ctx, exec, matchID, winnerID, input.TeamID, reason)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotPending) {
				return ErrMatchAlreadyFinished
			}
			return err
		}

		if match.Phase == models.PhaseKnockout && match.RoundNum != nil {
			if err := s.advanceKnockout(ctx, exec, match.TournamentID, *match.RoundNum); err != nil {
				return err
			}
		}

		updated, err = s.matchRepo.GetByID(ctx, exec, matchID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.attachBooking(ctx, updated)
	return updated, nil
}

// advanceKnockout вызывается после каждого результата в плей-офф. Если в
// текущем раунде остались незавершённые матчи — ничего не делает. Иначе
// собирает участников следующего раунда (победители в порядке сетки, затем
// прошедшие по bye после первого раунда) и либо создаёт матчи раунда R+1,
// либо, когда остался единственный участник, закрывает турнир.
func (s *matchService) advanceKnockout(ctx context.Context, exec repositories.SQLExecutor, tournamentID, round int) error {
	phase := models.PhaseKnockout
	knockoutMatches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, repositories.MatchFilter{Phase: &phase})
	if err != nil {
		return err
	}

	winners := make([]int, 0)
	for _, m := range knockoutMatches {
		if m.RoundNum == nil {
			continue
		}
		switch {
		case *m.RoundNum == round:
			if m.Status != models.MatchStatusFinished {
				return nil // round still in progress
			}
			if m.WinnerID != nil {
				winners = append(winners, *m.WinnerID)
			}
		case *m.RoundNum > round:
			return nil // next round already generated
		}
	}

	var byes []int
	if round == 1 {
		byes, err = s.firstRoundByes(ctx, exec, tournamentID, knockoutMatches)
		if err != nil {
			return err
		}
	}

	if len(winners)+len(byes) == 1 {
		err := s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusKnockoutPhase, models.StatusFinished)
		if errors.Is(err, repositories.ErrTournamentStatusConflict) {
			return ErrTournamentNotFinishable
		}
		return err
	}

	pairings, err := brackets.PairNextRound(winners, byes)
	if err != nil {
		return fmt.Errorf("%w: tournament %d round %d", ErrIncompleteRound, tournamentID, round)
	}

	nextRound := round + 1
	matches := make([]*models.Match, 0, len(pairings))
	for _, p := range pairings {
		matches = append(matches, &models.Match{
			TournamentID: tournamentID,
			Phase:        models.PhaseKnockout,
			RoundNum:     &nextRound,
			Team1ID:      p.Team1ID,
			Team2ID:      p.Team2ID,
			Status:       models.MatchStatusPending,
		})
	}
	return s.matchRepo.CreateBatch(ctx, exec, matches)
}

// firstRoundByes восстанавливает bye-команды первого раунда: верх таблицы
// группового этапа за вычетом команд, сыгравших в первом раунде. Групповые
// матчи после старта плей-офф неизменяемы, поэтому таблица стабильна.
func (s *matchService) firstRoundByes(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, knockoutMatches []models.Match) ([]int, error) {
	played := make(map[int]bool)
	for _, m := range knockoutMatches {
		if m.RoundNum != nil && *m.RoundNum == 1 {
			played[m.Team1ID] = true
			played[m.Team2ID] = true
		}
	}

	regs, err := s.tournamentRepo.ListRegistrations(ctx, exec, tournamentID)
	if err != nil {
		return nil, err
	}
	groupPhase := models.PhaseGroup
	groupMatches, err := s.matchRepo.ListByTournament(ctx, exec, tournamentID, repositories.MatchFilter{Phase: &groupPhase})
	if err != nil {
		return nil, err
	}

	table := standings.Calculate(regs, groupMatches)
	seeds := qualifiedSeeds(table, s.qualifiers)

	byes := make([]int, 0)
	for _, teamID := range seeds {
		if !played[teamID] {
			byes = append(byes, teamID)
		}
	}
	return byes, nil
}

func (s *matchService) attachBooking(ctx context.Context, match *models.Match) {
	if match == nil {
		return
	}
	booking, err := s.bookingRepo.GetByMatchID(ctx, nil, match.ID)
	if err != nil {
		return
	}
	match.Booking = booking
}
