package card

import (
	"errors"
	"math/rand"
)

// ErrNoPlayers is returned when a deal is requested with no seated players.
var ErrNoPlayers = errors.New("cannot deal with no seated players")

// Deal distributes the table bitset across n seats. Every seat receives
// floor(popcount(table)/n) cards drawn uniformly without replacement;
// the remainder stays on the table. Hands are returned in seat order.
func Deal(table Bitset, n int, rng *rand.Rand) (hands []Bitset, remainder Bitset, err error) {
	if n <= 0 {
		return nil, Bitset{}, ErrNoPlayers
	}

	pool := table.Indices()
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	perSeat := len(pool) / n
	hands = make([]Bitset, n)
	next := 0
	for seat := 0; seat < n; seat++ {
		for c := 0; c < perSeat; c++ {
			hands[seat].Set(pool[next])
			next++
		}
	}

	for ; next < len(pool); next++ {
		remainder.Set(pool[next])
	}
	return hands, remainder, nil
}
