package models

import "time"

// TournamentStatus представляет статусы турнира, соответствующие ENUM в БД.
// Переходы только вперёд: waiting → group_phase → knockout_phase → finished.
type TournamentStatus string

const (
	StatusWaiting       TournamentStatus = "waiting"
	StatusGroupPhase    TournamentStatus = "group_phase"
	StatusKnockoutPhase TournamentStatus = "knockout_phase"
	StatusFinished      TournamentStatus = "finished"
)

// Tournament представляет турнир.
type Tournament struct {
	ID        int              `json:"id" db:"id"`
	Name      string           `json:"name" db:"name"`
	Status    TournamentStatus `json:"status" db:"status"`
	StartDate time.Time        `json:"start_date" db:"start_date"`
	Prize     *string          `json:"prize,omitempty" db:"prize"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`

	// Опциональные связанные сущности (не мапятся напрямую)
	Teams   []TournamentTeam `json:"teams,omitempty" db:"-"`
	Matches []Match          `json:"matches,omitempty" db:"-"`
}

// TournamentTeam — заявка команды в турнир. Порядок заявок фиксирует
// детерминированный порядок генерации пар и последний тай-брейк таблицы.
type TournamentTeam struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	TeamID       int       `json:"team_id" db:"team_id"`
	RegisteredAt time.Time `json:"registered_at" db:"registered_at"`

	Team *Team `json:"team,omitempty" db:"-"`
}
