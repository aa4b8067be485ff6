package card

import (
	"fmt"
	"math/bits"
	"strings"
)

// Bits is the fixed width of every card bitset: 3 decks x 52 cards.
// A game with fewer decks simply never sets the high bits.
const Bits = 156

const words = (Bits + 63) / 64

// Bitset is a fixed 156-bit vector. Each bit identifies one physical card
// slot; a bit is set in at most one hand or the table at any time.
type Bitset struct {
	w [words]uint64
}

// Parse decodes the 156-character '0'/'1' column format used for the
// cards, cards_on_table and last_cards columns. Index 0 is the first byte.
func Parse(s string) (Bitset, error) {
	var b Bitset
	if len(s) != Bits {
		return b, fmt.Errorf("card bitset must be %d characters, got %d", Bits, len(s))
	}
	for i := 0; i < Bits; i++ {
		switch s[i] {
		case '1':
			b.w[i/64] |= 1 << (i % 64)
		case '0':
		default:
			return Bitset{}, fmt.Errorf("card bitset has invalid character %q at %d", s[i], i)
		}
	}
	return b, nil
}

// String encodes the bitset back into the 156-character column format.
func (b Bitset) String() string {
	var sb strings.Builder
	sb.Grow(Bits)
	for i := 0; i < Bits; i++ {
		if b.Has(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

func (b Bitset) Has(i int) bool {
	return i >= 0 && i < Bits && b.w[i/64]&(1<<(i%64)) != 0
}

func (b *Bitset) Set(i int) {
	if i >= 0 && i < Bits {
		b.w[i/64] |= 1 << (i % 64)
	}
}

func (b *Bitset) Clear(i int) {
	if i >= 0 && i < Bits {
		b.w[i/64] &^= 1 << (i % 64)
	}
}

// Union returns the bitwise OR of both sets, used to move a whole table
// pile into a hand.
func (b Bitset) Union(o Bitset) Bitset {
	var r Bitset
	for i := range r.w {
		r.w[i] = b.w[i] | o.w[i]
	}
	return r
}

// Without returns b with every bit of mask cleared. Callers must check
// Contains first; bits in mask that b lacks are simply absent from the result.
func (b Bitset) Without(mask Bitset) Bitset {
	var r Bitset
	for i := range r.w {
		r.w[i] = b.w[i] &^ mask.w[i]
	}
	return r
}

// Contains reports whether every set bit of sub is also set in b.
func (b Bitset) Contains(sub Bitset) bool {
	for i := range b.w {
		if sub.w[i]&^b.w[i] != 0 {
			return false
		}
	}
	return true
}

func (b Bitset) Count() int {
	n := 0
	for _, w := range b.w {
		n += bits.OnesCount64(w)
	}
	return n
}

func (b Bitset) IsEmpty() bool {
	for _, w := range b.w {
		if w != 0 {
			return false
		}
	}
	return true
}

// Indices returns the positions of all set bits in ascending order.
func (b Bitset) Indices() []int {
	idx := make([]int, 0, b.Count())
	for i := 0; i < Bits; i++ {
		if b.Has(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// Layout maps bit positions to ranks for a given deck count. The mapping is
// contiguous blocks of Decks*4 bits per rank over the first Decks*52 bits,
// and it is the single mapping shared by dealing, play validation and bluff
// verification.
type Layout struct {
	Decks int // 1..3
}

// Ranks is the number of distinct card ranks.
const Ranks = 13

func (l Layout) CardsPerRank() int { return l.Decks * 4 }

// Size is the number of card slots actually in play for this deck count.
func (l Layout) Size() int { return l.Decks * 52 }

// InPlay returns the full deck-in-play population: the first Decks*52 bits.
func (l Layout) InPlay() Bitset {
	var b Bitset
	for i := 0; i < l.Size(); i++ {
		b.Set(i)
	}
	return b
}

// RankOf maps a bit position to its rank, 0..12. Positions outside the
// in-play range return -1.
func (l Layout) RankOf(i int) int {
	if i < 0 || i >= l.Size() {
		return -1
	}
	return i / l.CardsPerRank()
}

func (l Layout) ValidRank(r int) bool { return r >= 0 && r < Ranks }

// AllOfRank reports whether every set bit in b maps to rank. An empty
// bitset vacuously satisfies any rank.
func (l Layout) AllOfRank(b Bitset, rank int) bool {
	for _, i := range b.Indices() {
		if l.RankOf(i) != rank {
			return false
		}
	}
	return true
}
