package models

import "time"

type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusFinished MatchStatus = "finished"
)

type MatchPhase string

const (
	PhaseGroup    MatchPhase = "group"
	PhaseKnockout MatchPhase = "knockout"
)

type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Phase        MatchPhase  `json:"phase" db:"phase"`
	RoundNum     *int        `json:"round_num,omitempty" db:"round_num"`
	Team1ID      int         `json:"team1_id" db:"team1_id"`
	Team2ID      int         `json:"team2_id" db:"team2_id"`
	Team1Score   *int        `json:"team1_score,omitempty" db:"team1_score"`
	Team2Score   *int        `json:"team2_score,omitempty" db:"team2_score"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`

	// Forfeit info
	CancelledByTeamID  *int    `json:"cancelled_by_team_id,omitempty" db:"cancelled_by_team_id"`
	CancellationReason *string `json:"cancellation_reason,omitempty" db:"cancellation_reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Booking *CourtBooking `json:"court_booking,omitempty" db:"-"`
}
