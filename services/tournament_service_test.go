package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/padelhub/tournament-system/models"
	"github.com/padelhub/tournament-system/repositories"
)

func newTournamentService(f *fixture, qualifiers int) TournamentService {
	return NewTournamentService(
		&stubTournamentRepo{f: f},
		&stubTeamRepo{f: f},
		&stubMatchRepo{f: f},
		&stubBookingRepo{f: f},
		stubTxManager{},
		qualifiers,
	)
}

func TestRegisterTeamRequiresWaitingStatus(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusGroupPhase)
	team := f.addCompleteTeam("alpha")

	_, err := svc.RegisterTeam(context.Background(), tournament.ID, team.ID)
	assert.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestRegisterTeamRequiresCompleteTeam(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusWaiting)
	team := f.addTeam("solo") // без игроков

	_, err := svc.RegisterTeam(context.Background(), tournament.ID, team.ID)
	assert.ErrorIs(t, err, ErrTeamIncomplete)
}

func TestRegisterTeamRejectsDuplicate(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusWaiting)
	team := f.addCompleteTeam("alpha")

	_, err := svc.RegisterTeam(context.Background(), tournament.ID, team.ID)
	require.NoError(t, err)

	_, err = svc.RegisterTeam(context.Background(), tournament.ID, team.ID)
	assert.ErrorIs(t, err, ErrTeamAlreadyRegistered)
}

func TestStartGroupPhaseGeneratesRoundRobin(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusWaiting)
	for _, name := range []string{"a", "b", "c", "d"} {
		team := f.addCompleteTeam(name)
		f.register(tournament.ID, team.ID)
	}

	created, err := svc.StartGroupPhase(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, created) // 4*3/2

	updated, err := svc.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusGroupPhase, updated.Status)
	assert.Len(t, updated.Matches, 6)
	for _, m := range updated.Matches {
		assert.Equal(t, models.PhaseGroup, m.Phase)
		assert.Equal(t, models.MatchStatusPending, m.Status)
		assert.Nil(t, m.RoundNum)
	}
}

func TestStartGroupPhaseRequiresTwoTeams(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusWaiting)
	team := f.addCompleteTeam("lonely")
	f.register(tournament.ID, team.ID)

	_, err := svc.StartGroupPhase(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}

func TestStartGroupPhaseRejectsSecondStart(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusWaiting)
	for _, name := range []string{"a", "b"} {
		team := f.addCompleteTeam(name)
		f.register(tournament.ID, team.ID)
	}

	_, err := svc.StartGroupPhase(context.Background(), tournament.ID)
	require.NoError(t, err)

	_, err = svc.StartGroupPhase(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrPhaseAlreadyStarted)
}

func TestStartKnockoutPhaseRequiresFinishedGroupMatches(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusGroupPhase)
	teamA := f.addCompleteTeam("a")
	teamB := f.addCompleteTeam("b")
	f.register(tournament.ID, teamA.ID)
	f.register(tournament.ID, teamB.ID)
	f.addMatch(models.Match{
		TournamentID: tournament.ID, Phase: models.PhaseGroup,
		Team1ID: teamA.ID, Team2ID: teamB.ID,
	})

	_, err := svc.StartKnockoutPhase(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrGroupPhaseIncomplete)
}

func TestStartKnockoutPhaseSeedsTopQualifiers(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusGroupPhase)

	teams := make([]*models.Team, 0, 5)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		team := f.addCompleteTeam(name)
		teams = append(teams, team)
		f.register(tournament.ID, team.ID)
	}

	// Результаты подобраны так, чтобы порядок таблицы был a > b > c > d > e:
	// каждая команда обыгрывает все команды ниже себя.
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			winScore, loseScore := 6, 2
			m := f.addMatch(models.Match{
				TournamentID: tournament.ID, Phase: models.PhaseGroup,
				Team1ID: teams[i].ID, Team2ID: teams[j].ID,
			})
			f.matches[m.ID].Status = models.MatchStatusFinished
			f.matches[m.ID].Team1Score = &winScore
			f.matches[m.ID].Team2Score = &loseScore
			f.matches[m.ID].WinnerID = &f.matches[m.ID].Team1ID
		}
	}

	created, err := svc.StartKnockoutPhase(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, created) // топ-4: 1v4 и 2v3, без bye

	phase := models.PhaseKnockout
	knockout, err := (&stubMatchRepo{f: f}).ListByTournament(context.Background(), nil, tournament.ID, repositories.MatchFilter{Phase: &phase})
	require.NoError(t, err)
	require.Len(t, knockout, 2)

	assert.Equal(t, teams[0].ID, knockout[0].Team1ID) // посев 1
	assert.Equal(t, teams[3].ID, knockout[0].Team2ID) // посев 4
	assert.Equal(t, teams[1].ID, knockout[1].Team1ID) // посев 2
	assert.Equal(t, teams[2].ID, knockout[1].Team2ID) // посев 3

	updated, err := svc.GetByID(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusKnockoutPhase, updated.Status)
}

func TestStartKnockoutPhaseWithByes(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 3) // топ-3 → сетка на 4, один bye
	tournament := f.addTournament(models.StatusGroupPhase)

	teams := make([]*models.Team, 0, 3)
	for _, name := range []string{"a", "b", "c"} {
		team := f.addCompleteTeam(name)
		teams = append(teams, team)
		f.register(tournament.ID, team.ID)
	}
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			winScore, loseScore := 6, 1
			m := f.addMatch(models.Match{
				TournamentID: tournament.ID, Phase: models.PhaseGroup,
				Team1ID: teams[i].ID, Team2ID: teams[j].ID,
			})
			f.matches[m.ID].Status = models.MatchStatusFinished
			f.matches[m.ID].Team1Score = &winScore
			f.matches[m.ID].Team2Score = &loseScore
			f.matches[m.ID].WinnerID = &f.matches[m.ID].Team1ID
		}
	}

	created, err := svc.StartKnockoutPhase(context.Background(), tournament.ID)
	require.NoError(t, err)
	// Посеянные 1 и 2 играют, посев 3 проходит по bye.
	assert.Equal(t, 1, created)

	phase := models.PhaseKnockout
	knockout, _ := (&stubMatchRepo{f: f}).ListByTournament(context.Background(), nil, tournament.ID, repositories.MatchFilter{Phase: &phase})
	require.Len(t, knockout, 1)
	assert.Equal(t, teams[0].ID, knockout[0].Team1ID)
	assert.Equal(t, teams[1].ID, knockout[0].Team2ID)
}

func TestStartKnockoutPhaseFromWaitingFails(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusWaiting)

	_, err := svc.StartKnockoutPhase(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrGroupPhaseIncomplete)
}

func TestStartKnockoutPhaseAlreadyStarted(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusKnockoutPhase)

	_, err := svc.StartKnockoutPhase(context.Background(), tournament.ID)
	assert.ErrorIs(t, err, ErrPhaseAlreadyStarted)
}

func TestStandingsForUnknownTournament(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)

	_, _, err := svc.Standings(context.Background(), 404)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestStandingsReturnsTournamentWithTable(t *testing.T) {
	f := newFixture()
	svc := newTournamentService(f, 4)
	tournament := f.addTournament(models.StatusGroupPhase)
	teamA := f.addCompleteTeam("a")
	teamB := f.addCompleteTeam("b")
	f.register(tournament.ID, teamA.ID)
	f.register(tournament.ID, teamB.ID)

	winScore, loseScore := 6, 3
	m := f.addMatch(models.Match{
		TournamentID: tournament.ID, Phase: models.PhaseGroup,
		Team1ID: teamA.ID, Team2ID: teamB.ID,
	})
	f.matches[m.ID].Status = models.MatchStatusFinished
	f.matches[m.ID].Team1Score = &winScore
	f.matches[m.ID].Team2Score = &loseScore
	f.matches[m.ID].WinnerID = &f.matches[m.ID].Team1ID

	got, table, err := svc.Standings(context.Background(), tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.Name, got.Name)
	require.Len(t, table, 2)
	assert.Equal(t, 1, table[0].Position)
	assert.Equal(t, teamA.ID, table[0].TeamID)
	assert.Equal(t, 2, table[1].Position)
	assert.Equal(t, teamB.ID, table[1].TeamID)
}
