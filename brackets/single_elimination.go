package brackets

import (
	"errors"
	"fmt"
)

var (
	ErrInsufficientQualifiers = errors.New("not enough qualifiers for a knockout bracket (minimum 2 required)")
	ErrUnevenRound            = errors.New("odd number of entrants for knockout round")
)

// SeedInitialRound строит первый раунд плей-офф по посеву (seeds — id команд
// в порядке мест таблицы, seeds[0] — первое место).
//
// Размер сетки — ближайшая степень двойки не меньше числа посеянных; если
// посеянных меньше, недостающие места закрываются bye: их получают команды
// с НИЗШИМ посевом и проходят во второй раунд без матча. Оставшиеся команды
// спариваются «сильнейший против слабейшего из оставшихся»: 1 против m,
// 2 против m-1 и так далее.
func SeedInitialRound(seeds []int) (pairings []Pairing, byes []int, err error) {
	n := len(seeds)
	if n < 2 {
		return nil, nil, fmt.Errorf("%w: found %d", ErrInsufficientQualifiers, n)
	}

	bracketSize := 1
	for bracketSize < n {
		bracketSize <<= 1
	}
	numByes := bracketSize - n

	playing := n - numByes // always even: n and bracketSize share parity mod 2 here
	byes = append([]int(nil), seeds[playing:]...)

	pairings = make([]Pairing, 0, playing/2)
	for i := 0; i < playing/2; i++ {
		pairings = append(pairings, Pairing{
			Team1ID: seeds[i],
			Team2ID: seeds[playing-1-i],
		})
	}
	return pairings, byes, nil
}

// PairNextRound спаривает участников следующего раунда в порядке сетки:
// победители в порядке своих матчей, затем прошедшие по bye. Количество
// участников после первого раунда всегда чётно по построению сетки.
func PairNextRound(winners []int, byes []int) ([]Pairing, error) {
	entrants := make([]int, 0, len(winners)+len(byes))
	entrants = append(entrants, winners...)
	entrants = append(entrants, byes...)

	if len(entrants) < 2 {
		return nil, fmt.Errorf("%w: found %d", ErrInsufficientQualifiers, len(entrants))
	}
	if len(entrants)%2 != 0 {
		return nil, fmt.Errorf("%w: %d entrants", ErrUnevenRound, len(entrants))
	}

	pairings := make([]Pairing, 0, len(entrants)/2)
	for i := 0; i < len(entrants); i += 2 {
		pairings = append(pairings, Pairing{
			Team1ID: entrants[i],
			Team2ID: entrants[i+1],
		})
	}
	return pairings, nil
}
