package models

import "time"

// TeamSize — пары, как в падел: ровно два игрока в полностью
// сформированной команде.
const TeamSize = 2

type Team struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Ranking   int       `json:"ranking" db:"ranking"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	Members []TeamMember `json:"members,omitempty" db:"-"`
}

// IsComplete сообщает, может ли команда быть заявлена в турнир.
func (t *Team) IsComplete() bool {
	return len(t.Members) == TeamSize
}

type TeamMember struct {
	ID       int `json:"id" db:"id"`
	TeamID   int `json:"team_id" db:"team_id"`
	PlayerID int `json:"player_id" db:"player_id"`

	Player *Player `json:"player,omitempty" db:"-"`
}
