package card

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoundTrip(t *testing.T) {
	raw := strings.Repeat("10", 78)
	b, err := Parse(raw)
	assert.NoError(t, err)
	assert.Equal(t, raw, b.String())
	assert.Equal(t, 78, b.Count())
}

func TestParseRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"too short", strings.Repeat("0", 155)},
		{"too long", strings.Repeat("0", 157)},
		{"bad character", strings.Repeat("0", 155) + "2"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestGenesisEncoding(t *testing.T) {
	// The initial table for a d-deck game is d*52 ones padded with zeros.
	for decks := 1; decks <= 3; decks++ {
		table := Layout{Decks: decks}.InPlay()
		want := strings.Repeat("1", decks*52) + strings.Repeat("0", (3-decks)*52)
		assert.Equal(t, want, table.String())
		assert.Equal(t, decks*52, table.Count())
	}
}

func TestSetClearHas(t *testing.T) {
	var b Bitset
	b.Set(0)
	b.Set(63)
	b.Set(64)
	b.Set(155)
	assert.True(t, b.Has(0))
	assert.True(t, b.Has(63))
	assert.True(t, b.Has(64))
	assert.True(t, b.Has(155))
	assert.Equal(t, 4, b.Count())

	b.Clear(63)
	assert.False(t, b.Has(63))
	assert.Equal(t, 3, b.Count())

	// Out-of-range positions are ignored, not panics.
	b.Set(156)
	b.Set(-1)
	assert.Equal(t, 3, b.Count())
	assert.False(t, b.Has(156))
}

func TestUnionWithoutContains(t *testing.T) {
	var hand, mask Bitset
	hand.Set(1)
	hand.Set(2)
	hand.Set(70)
	mask.Set(2)
	mask.Set(70)

	assert.True(t, hand.Contains(mask))
	assert.False(t, mask.Contains(hand))

	rest := hand.Without(mask)
	assert.Equal(t, []int{1}, rest.Indices())

	back := rest.Union(mask)
	assert.Equal(t, hand, back)
	assert.True(t, back.Contains(rest))
}

func TestIsEmpty(t *testing.T) {
	var b Bitset
	assert.True(t, b.IsEmpty())
	b.Set(100)
	assert.False(t, b.IsEmpty())
}

func TestLayoutRankOf(t *testing.T) {
	tests := []struct {
		name  string
		decks int
		pos   int
		want  int
	}{
		{"one deck first card", 1, 0, 0},
		{"one deck last of rank 0", 1, 3, 0},
		{"one deck first of rank 1", 1, 4, 1},
		{"one deck last card", 1, 51, 12},
		{"one deck out of play", 1, 52, -1},
		{"two decks rank block of 8", 2, 7, 0},
		{"two decks first of rank 1", 2, 8, 1},
		{"three decks last card", 3, 155, 12},
		{"negative position", 1, -1, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := Layout{Decks: tt.decks}
			assert.Equal(t, tt.want, l.RankOf(tt.pos))
		})
	}
}

func TestLayoutValidRank(t *testing.T) {
	l := Layout{Decks: 1}
	assert.True(t, l.ValidRank(0))
	assert.True(t, l.ValidRank(12))
	assert.False(t, l.ValidRank(-1))
	assert.False(t, l.ValidRank(13))
}

func TestAllOfRank(t *testing.T) {
	l := Layout{Decks: 2}

	var honest Bitset
	honest.Set(8) // rank 1
	honest.Set(15)
	assert.True(t, l.AllOfRank(honest, 1))
	assert.False(t, l.AllOfRank(honest, 2))

	dishonest := honest
	dishonest.Set(16) // rank 2 slips in
	assert.False(t, l.AllOfRank(dishonest, 1))

	var empty Bitset
	assert.True(t, l.AllOfRank(empty, 5))
}
