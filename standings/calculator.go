// Package standings computes the group-phase table of a tournament.
// The table is derived data: it is recalculated on demand from finished
// group matches and is never persisted.
package standings

import (
	"sort"

	"github.com/padelhub/tournament-system/models"
)

// Очки за исход матча группового этапа.
const (
	PointsWin  = 2
	PointsDraw = 1
	PointsLoss = 0
)

// Calculate строит таблицу по заявленным командам и матчам турнира.
// Учитываются только завершённые матчи группового этапа; команды без
// сыгранных матчей остаются в таблице с нулями и опускаются вниз.
//
// Сортировка: очки ↓, победы ↓, разница забитых/пропущенных ↓, затем
// порядок заявки (стабильная сортировка фиксирует его как последний
// тай-брейк — неоднозначных мест по построению не бывает).
func Calculate(registrations []models.TournamentTeam, matches []models.Match) []models.Standing {
	rows := make([]models.Standing, 0, len(registrations))
	index := make(map[int]int, len(registrations))

	for _, reg := range registrations {
		index[reg.TeamID] = len(rows)
		rows = append(rows, models.Standing{
			TeamID: reg.TeamID,
			Team:   reg.Team,
		})
	}

	for _, match := range matches {
		if match.Phase != models.PhaseGroup || match.Status != models.MatchStatusFinished {
			continue
		}
		i1, ok1 := index[match.Team1ID]
		i2, ok2 := index[match.Team2ID]
		if !ok1 || !ok2 {
			continue
		}

		rows[i1].MatchesPlayed++
		rows[i2].MatchesPlayed++

		if match.Team1Score != nil && match.Team2Score != nil {
			diff := *match.Team1Score - *match.Team2Score
			rows[i1].ScoreDifference += diff
			rows[i2].ScoreDifference -= diff
		}

		switch {
		case match.WinnerID == nil:
			rows[i1].Draws++
			rows[i2].Draws++
			rows[i1].Points += PointsDraw
			rows[i2].Points += PointsDraw
		case *match.WinnerID == match.Team1ID:
			rows[i1].Wins++
			rows[i1].Points += PointsWin
			rows[i2].Losses++
		default:
			rows[i2].Wins++
			rows[i2].Points += PointsWin
			rows[i1].Losses++
		}
	}

	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].Wins != rows[j].Wins {
			return rows[i].Wins > rows[j].Wins
		}
		return rows[i].ScoreDifference > rows[j].ScoreDifference
	})

	for i := range rows {
		rows[i].Position = i + 1
	}

	return rows
}
