package models

// Standing — строка турнирной таблицы. Производные данные: считаются
// по завершённым матчам группового этапа и нигде не хранятся.
type Standing struct {
	Position        int   `json:"position"`
	TeamID          int   `json:"team_id"`
	Team            *Team `json:"team,omitempty"`
	MatchesPlayed   int   `json:"matches_played"`
	Wins            int   `json:"wins"`
	Losses          int   `json:"losses"`
	Draws           int   `json:"draws"`
	Points          int   `json:"points"`
	ScoreDifference int   `json:"score_difference"`
}
