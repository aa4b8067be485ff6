package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
)

const fixtureGameID = int64(7)

// seatedFixture builds a one-deck game owned by user 101 with n connected
// players in seats 1..n (row ids 1..n, user ids 101..) and the genesis
// snapshot holding the full deck.
func seatedFixture(n int) *memStore {
	ms := &memStore{
		game: &models.Game{ID: fixtureGameID, Decks: 1, OwnerID: 101},
	}
	for i := 0; i < n; i++ {
		seat := i + 1
		ms.players = append(ms.players, &models.GamePlayer{
			ID:       int64(i + 1),
			GameID:   fixtureGameID,
			UserID:   int64(101 + i),
			PlayerID: &seat,
		})
	}
	ms.snaps = append(ms.snaps, &models.GameTableSnapshot{
		ID:           1,
		GameID:       fixtureGameID,
		CardsOnTable: card.Layout{Decks: 1}.InPlay(),
	})
	return ms
}

// startedFixture is a running game with explicit hands, one per seat, and
// the turn on seat 1. The table starts empty so tests control every card.
func startedFixture(hands ...card.Bitset) *memStore {
	ms := seatedFixture(len(hands))
	ms.game.Started = true
	for i := range hands {
		ms.players[i].Cards = hands[i]
	}
	ms.snaps[0].CardsOnTable = card.Bitset{}
	ms.snaps[0].CurrentUserID = int64Ptr(1)
	return ms
}

func bits(idx ...int) card.Bitset {
	var b card.Bitset
	for _, i := range idx {
		b.Set(i)
	}
	return b
}

func TestConnectAssignsSeatsInOrder(t *testing.T) {
	ctx := context.Background()
	ms := &memStore{game: &models.Game{ID: fixtureGameID, Decks: 1, OwnerID: 101}}
	for i := 0; i < 3; i++ {
		ms.players = append(ms.players, &models.GamePlayer{
			ID:           int64(i + 1),
			GameID:       fixtureGameID,
			UserID:       int64(101 + i),
			Disconnected: true,
		})
	}
	ms.snaps = append(ms.snaps, &models.GameTableSnapshot{
		ID: 1, GameID: fixtureGameID, CardsOnTable: card.Layout{Decks: 1}.InPlay(),
	})
	e := New(ms)

	for i := 0; i < 3; i++ {
		state, err := e.Connect(ctx, fixtureGameID, int64(101+i))
		assert.NoError(t, err)
		assert.Equal(t, i+1, *state.Self.Seat)
	}
	for i, p := range ms.players {
		assert.Equal(t, i+1, *p.PlayerID)
		assert.False(t, p.Disconnected)
	}
}

func TestConnectIdempotent(t *testing.T) {
	ctx := context.Background()
	ms := seatedFixture(2)
	e := New(ms)

	before := ms.applies
	state, err := e.Connect(ctx, fixtureGameID, 101)
	assert.NoError(t, err)
	assert.Equal(t, 1, *state.Self.Seat)
	// Already seated and connected: nothing to write.
	assert.Equal(t, before, ms.applies)
}

func TestConnectGameFull(t *testing.T) {
	ctx := context.Background()
	ms := seatedFixture(MaxSeats)
	ms.players = append(ms.players, &models.GamePlayer{
		ID: 10, GameID: fixtureGameID, UserID: 200, Disconnected: true,
	})
	e := New(ms)

	_, err := e.Connect(ctx, fixtureGameID, 200)
	assert.ErrorIs(t, err, ErrGameFull)
}

func TestConnectAfterStartRejected(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(4))
	ms.players = append(ms.players, &models.GamePlayer{
		ID: 3, GameID: fixtureGameID, UserID: 200, Disconnected: true,
	})
	e := New(ms)

	_, err := e.Connect(ctx, fixtureGameID, 200)
	assert.ErrorIs(t, err, ErrGameStarted)
}

func TestConnectOutsiderRejected(t *testing.T) {
	ctx := context.Background()
	e := New(seatedFixture(2))

	_, err := e.Connect(ctx, fixtureGameID, 999)
	assert.ErrorIs(t, err, ErrNotAParticipant)
}

func TestConnectUnknownGame(t *testing.T) {
	ctx := context.Background()
	e := New(seatedFixture(2))

	_, err := e.Connect(ctx, 42, 101)
	assert.ErrorIs(t, err, ErrGameNotFound)
}

func TestConnectRecoversAbandonedTurn(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(4, 5))
	ms.players[0].Disconnected = true
	ms.players[1].Disconnected = true
	ms.snaps[0].CurrentUserID = int64Ptr(2)
	ms.snaps[0].CurrentSet = intPtr(3)
	ms.snaps[0].CardsOnTable = bits(12)
	e := New(ms)

	state, err := e.Connect(ctx, fixtureGameID, 101)
	assert.NoError(t, err)

	// The reconnecting seat pulled the turn back; the table carried over.
	snap := ms.latest()
	assert.Equal(t, int64(1), *snap.CurrentUserID)
	assert.Equal(t, 3, *snap.CurrentSet)
	assert.Equal(t, bits(12), snap.CardsOnTable)
	assert.Equal(t, 1, *state.Table.CurrentSeat)
}

func TestConnectNoRecoveryWhileOthersConnected(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(4))
	ms.players[0].Disconnected = true
	ms.snaps[0].CurrentUserID = int64Ptr(2)
	e := New(ms)

	_, err := e.Connect(ctx, fixtureGameID, 101)
	assert.NoError(t, err)
	assert.Len(t, ms.snaps, 1)
}

func TestStartDealsEvenly(t *testing.T) {
	ctx := context.Background()
	ms := seatedFixture(2)
	e := New(ms)

	assert.NoError(t, e.Start(ctx, fixtureGameID, 101))
	assert.True(t, ms.game.Started)
	assert.Equal(t, 26, ms.players[0].Cards.Count())
	assert.Equal(t, 26, ms.players[1].Cards.Count())

	snap := ms.latest()
	assert.True(t, snap.CardsOnTable.IsEmpty())
	assert.Equal(t, int64(1), *snap.CurrentUserID)

	union := ms.players[0].Cards.Union(ms.players[1].Cards)
	assert.Equal(t, card.Layout{Decks: 1}.InPlay(), union)
}

func TestStartLeavesRemainderOnTable(t *testing.T) {
	ctx := context.Background()
	ms := seatedFixture(3)
	e := New(ms)

	assert.NoError(t, e.Start(ctx, fixtureGameID, 101))
	for _, p := range ms.players {
		assert.Equal(t, 17, p.Cards.Count())
	}
	assert.Equal(t, 1, ms.latest().CardsOnTable.Count())
}

func TestStartOwnerOnly(t *testing.T) {
	ctx := context.Background()
	e := New(seatedFixture(2))

	err := e.Start(ctx, fixtureGameID, 102)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestStartTwiceRejected(t *testing.T) {
	ctx := context.Background()
	ms := seatedFixture(2)
	e := New(ms)

	assert.NoError(t, e.Start(ctx, fixtureGameID, 101))
	assert.ErrorIs(t, e.Start(ctx, fixtureGameID, 101), ErrGameStarted)
}

func TestStartNeedsSeatedPlayers(t *testing.T) {
	ctx := context.Background()
	ms := &memStore{game: &models.Game{ID: fixtureGameID, Decks: 1, OwnerID: 101}}
	ms.players = append(ms.players, &models.GamePlayer{
		ID: 1, GameID: fixtureGameID, UserID: 101, Disconnected: true,
	})
	ms.snaps = append(ms.snaps, &models.GameTableSnapshot{
		ID: 1, GameID: fixtureGameID, CardsOnTable: card.Layout{Decks: 1}.InPlay(),
	})
	e := New(ms)

	assert.ErrorIs(t, e.Start(ctx, fixtureGameID, 101), ErrInsufficientPlayers)
}

func TestPlayMovesCardsToTable(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1, 4), bits(8, 9))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))

	assert.Equal(t, bits(1, 4), ms.players[0].Cards)
	assert.Equal(t, 1, ms.players[0].NoAction)

	snap := ms.latest()
	assert.Equal(t, 0, *snap.CurrentSet)
	assert.Equal(t, bits(0), snap.CardsOnTable)
	assert.Equal(t, bits(0), snap.LastCards)
	assert.Equal(t, int64(1), *snap.LastUserID)
	assert.Equal(t, int64(2), *snap.CurrentUserID)
}

func TestPlayStacksOnOpenPile(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(2, 8))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	assert.NoError(t, e.Play(ctx, fixtureGameID, 102, bits(8), 2))

	snap := ms.latest()
	assert.Equal(t, bits(0, 8), snap.CardsOnTable)
	assert.Equal(t, bits(8), snap.LastCards)
	assert.Equal(t, 2, *snap.CurrentSet)
	assert.Equal(t, int64(1), *snap.CurrentUserID)
}

func TestPlayRejections(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name string
		run  func(e *Engine) error
		want error
	}{
		{
			"not started",
			func(e *Engine) error { return e.Play(ctx, fixtureGameID, 101, bits(0), 0) },
			ErrNotStarted,
		},
		{
			"not your turn",
			func(e *Engine) error { return e.Play(ctx, fixtureGameID, 102, bits(8), 2) },
			ErrNotYourTurn,
		},
		{
			"claimed rank out of range",
			func(e *Engine) error { return e.Play(ctx, fixtureGameID, 101, bits(0), 13) },
			ErrValidation,
		},
		{
			"empty mask",
			func(e *Engine) error { return e.Play(ctx, fixtureGameID, 101, card.Bitset{}, 0) },
			ErrInvalidMove,
		},
		{
			"cards outside the deck in play",
			func(e *Engine) error { return e.Play(ctx, fixtureGameID, 101, bits(60), 0) },
			ErrInvalidMove,
		},
		{
			"cards not in hand",
			func(e *Engine) error { return e.Play(ctx, fixtureGameID, 101, bits(8), 2) },
			ErrInvalidMove,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := startedFixture(bits(0, 1), bits(8, 9))
			if tt.want == ErrNotStarted {
				ms.game.Started = false
			}
			e := New(ms)

			assert.ErrorIs(t, tt.run(e), tt.want)
			// A rejected action never reaches the ledger.
			assert.Equal(t, 0, ms.applies)
			assert.Len(t, ms.snaps, 1)
		})
	}
}

func TestPlayWithStolenCardsRejected(t *testing.T) {
	ctx := context.Background()
	// Bit 8 sits in seat 2's hand; seat 1 cannot play it.
	ms := startedFixture(bits(0), bits(8))
	e := New(ms)

	assert.ErrorIs(t, e.Play(ctx, fixtureGameID, 101, bits(8), 2), ErrInvalidMove)
	assert.Equal(t, bits(8), ms.players[1].Cards)
}

func TestCallBluffHonestClaim(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(8, 9))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	assert.NoError(t, e.CallBluff(ctx, fixtureGameID, 102))

	// The claim held, so the caller eats the pile.
	assert.Equal(t, bits(0, 8, 9), ms.players[1].Cards)
	assert.Equal(t, bits(1), ms.players[0].Cards)

	snap := ms.latest()
	assert.True(t, snap.CardsOnTable.IsEmpty())
	assert.Nil(t, snap.CurrentSet)
	assert.Nil(t, snap.LastUserID)
	assert.Equal(t, int64(1), *snap.CurrentUserID)
	assert.Equal(t, int64(2), *snap.BluffCallerID)
	assert.False(t, *snap.BluffSuccessful)
}

func TestCallBluffDishonestClaim(t *testing.T) {
	ctx := context.Background()
	// Bit 4 is rank 1; claiming rank 0 with it is a lie.
	ms := startedFixture(bits(0, 4), bits(8, 9))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(4), 0))
	assert.NoError(t, e.CallBluff(ctx, fixtureGameID, 102))

	assert.Equal(t, bits(0, 4), ms.players[0].Cards)
	assert.Equal(t, bits(8, 9), ms.players[1].Cards)

	snap := ms.latest()
	assert.True(t, *snap.BluffSuccessful)
	assert.Equal(t, int64(2), *snap.CurrentUserID)
}

func TestCallBluffJudgesWholePile(t *testing.T) {
	ctx := context.Background()
	// Seat 1 lies first; seat 2 stacks honest rank-2 cards on top. The
	// whole pile is judged, so seat 2's claim is still dishonest.
	ms := startedFixture(bits(0, 1), bits(8, 9), bits(12))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 2))
	assert.NoError(t, e.Play(ctx, fixtureGameID, 102, bits(8, 9), 2))
	assert.NoError(t, e.CallBluff(ctx, fixtureGameID, 103))

	assert.Equal(t, bits(0, 8, 9), ms.players[1].Cards)
	assert.True(t, *ms.latest().BluffSuccessful)
}

func TestCallBluffDeclaresWinner(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(8, 9))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	assert.NoError(t, e.CallBluff(ctx, fixtureGameID, 102))

	// Honest final play survived a challenge: seat 1 is out of cards.
	assert.Equal(t, int64(101), *ms.game.WinnerID)
	assert.Nil(t, ms.latest().CurrentUserID)
}

func TestCallBluffNoOpenClaim(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(8))
	e := New(ms)

	assert.ErrorIs(t, e.CallBluff(ctx, fixtureGameID, 101), ErrInvalidMove)
}

func TestCallBluffOwnPlayRejected(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(8, 9))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	assert.NoError(t, e.Skip(ctx, fixtureGameID, 102))

	// The turn came back to the player of the open pile.
	assert.Equal(t, int64(1), *ms.latest().CurrentUserID)
	assert.ErrorIs(t, e.CallBluff(ctx, fixtureGameID, 101), ErrInvalidMove)
}

func TestSkipCarriesOpenPile(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(8, 9), bits(12, 13))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	assert.NoError(t, e.Skip(ctx, fixtureGameID, 102))

	snap := ms.latest()
	assert.Equal(t, 0, *snap.CurrentSet)
	assert.Equal(t, bits(0), snap.CardsOnTable)
	assert.Equal(t, int64(1), *snap.LastUserID)
	assert.Equal(t, int64(3), *snap.CurrentUserID)
	assert.True(t, *snap.DidSkip)
	assert.Equal(t, 1, ms.players[1].NoAction)
}

func TestSkipAroundDiscardsPile(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(8, 9))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	assert.NoError(t, e.Skip(ctx, fixtureGameID, 102))
	assert.NoError(t, e.Skip(ctx, fixtureGameID, 101))

	// The round went uncontested: the pile leaves play and the same seat
	// opens fresh.
	snap := ms.latest()
	assert.True(t, snap.CardsOnTable.IsEmpty())
	assert.Nil(t, snap.CurrentSet)
	assert.Nil(t, snap.LastUserID)
	assert.Equal(t, int64(1), *snap.CurrentUserID)
	assert.True(t, *snap.DidSkip)
	assert.Nil(t, ms.game.WinnerID)
}

func TestSkipDeclaresWinner(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(8, 9))
	e := New(ms)

	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	// Seat 2 declines to challenge; the turn would return to an empty hand.
	assert.NoError(t, e.Skip(ctx, fixtureGameID, 102))

	assert.Equal(t, int64(101), *ms.game.WinnerID)
	assert.Nil(t, ms.latest().CurrentUserID)
}

func TestSkipNotYourTurn(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(8))
	e := New(ms)

	assert.ErrorIs(t, e.Skip(ctx, fixtureGameID, 102), ErrNotYourTurn)
}

func TestDisconnectForcesSkip(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(8, 9), bits(12, 13))
	ms.snaps[0].CurrentSet = intPtr(2)
	ms.snaps[0].CardsOnTable = bits(50)
	ms.snaps[0].LastCards = bits(50)
	ms.snaps[0].LastUserID = int64Ptr(3)
	e := New(ms)

	applies := ms.applies
	assert.NoError(t, e.Disconnect(ctx, fixtureGameID, 101))

	// One transaction: the forced skip and the disconnect flag together.
	assert.Equal(t, applies+1, ms.applies)
	assert.True(t, ms.players[0].Disconnected)

	snap := ms.latest()
	assert.True(t, *snap.DidSkip)
	assert.Equal(t, bits(50), snap.CardsOnTable)
	assert.Equal(t, int64(2), *snap.CurrentUserID)
}

func TestDisconnectSoleConnectedKeepsTurn(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(8, 9))
	ms.players[1].Disconnected = true
	e := New(ms)

	assert.NoError(t, e.Disconnect(ctx, fixtureGameID, 101))
	assert.True(t, ms.players[0].Disconnected)
	assert.Equal(t, int64(1), *ms.latest().CurrentUserID)
}

func TestDisconnectOffTurnWritesNoSnapshot(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(8))
	e := New(ms)

	assert.NoError(t, e.Disconnect(ctx, fixtureGameID, 102))
	assert.True(t, ms.players[1].Disconnected)
	assert.Len(t, ms.snaps, 1)
}

func TestTurnForwardsPastDisconnectedSeat(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1), bits(8, 9))
	ms.players[0].Disconnected = true
	e := New(ms)

	// The recorded current seat is gone; the next connected seat acts, and
	// no snapshot was written just to forward the turn.
	assert.Len(t, ms.snaps, 1)
	assert.NoError(t, e.Play(ctx, fixtureGameID, 102, bits(8), 2))
	assert.Equal(t, bits(9), ms.players[1].Cards)
}

func TestStateForHidesOtherHands(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0, 1, 4), bits(8, 9))
	e := New(ms)

	state, err := e.StateFor(ctx, fixtureGameID, 101)
	assert.NoError(t, err)
	assert.Equal(t, bits(0, 1, 4).String(), state.Self.Cards)
	assert.Equal(t, 3, state.Self.CardCount)

	assert.Len(t, state.Players, 1)
	assert.Equal(t, 2, state.Players[0].Seat)
	assert.Equal(t, 2, state.Players[0].CardCount)
}

func TestCardConservationAcrossTransitions(t *testing.T) {
	ctx := context.Background()
	ms := seatedFixture(3)
	e := New(ms)
	assert.NoError(t, e.Start(ctx, fixtureGameID, 101))

	// Cards only move between hands, the table and the discard pile.
	discarded := 0
	total := func() int {
		n := ms.latest().CardsOnTable.Count() + discarded
		for _, p := range ms.players {
			n += p.Cards.Count()
		}
		return n
	}
	assert.Equal(t, 52, total())

	mask := bits(ms.players[0].Cards.Indices()[0])
	rank := card.Layout{Decks: 1}.RankOf(mask.Indices()[0])
	assert.NoError(t, e.Play(ctx, fixtureGameID, 101, mask, rank))
	assert.Equal(t, 52, total())

	assert.NoError(t, e.Skip(ctx, fixtureGameID, 102))
	assert.Equal(t, 52, total())

	assert.NoError(t, e.Skip(ctx, fixtureGameID, 103))
	assert.Equal(t, 52, total())

	// Uncontested round: the open pile left play.
	discarded += mask.Count() + 1 // plus the undealt remainder discarded with it
	assert.NoError(t, e.Skip(ctx, fixtureGameID, 101))
	assert.Equal(t, 52, total())
}

func TestApplyFailurePropagates(t *testing.T) {
	ctx := context.Background()
	ms := startedFixture(bits(0), bits(8))
	ms.failApply = true
	e := New(ms)

	assert.Error(t, e.Play(ctx, fixtureGameID, 101, bits(0), 0))
	assert.Len(t, ms.snaps, 1)
}
