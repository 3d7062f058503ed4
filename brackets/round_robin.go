package brackets

import (
	"errors"
	"fmt"
)

var ErrInsufficientTeams = errors.New("not enough teams for round robin (minimum 2 required)")

// Pairing — одна пара команд будущего матча.
type Pairing struct {
	Team1ID int
	Team2ID int
}

// GenerateRoundRobinPairings строит пары группового этапа: каждая команда
// играет с каждой ровно один раз, n*(n-1)/2 матчей. Порядок детерминирован
// порядком teamIDs (порядок заявки), поэтому повторная генерация по тому же
// входу воспроизводима.
func GenerateRoundRobinPairings(teamIDs []int) ([]Pairing, error) {
	if len(teamIDs) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInsufficientTeams, len(teamIDs))
	}

	pairings := make([]Pairing, 0, len(teamIDs)*(len(teamIDs)-1)/2)
	for i := 0; i < len(teamIDs); i++ {
		for j := i + 1; j < len(teamIDs); j++ {
			pairings = append(pairings, Pairing{
				Team1ID: teamIDs[i],
				Team2ID: teamIDs[j],
			})
		}
	}
	return pairings, nil
}
