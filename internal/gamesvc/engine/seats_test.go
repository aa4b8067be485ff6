package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
)

func seatRow(id int64, seat int, disconnected bool) *models.GamePlayer {
	return &models.GamePlayer{
		ID:           id,
		GameID:       fixtureGameID,
		UserID:       100 + id,
		PlayerID:     &seat,
		Disconnected: disconnected,
	}
}

func TestNextPlayerCircular(t *testing.T) {
	players := []*models.GamePlayer{
		seatRow(1, 1, false),
		seatRow(2, 2, false),
		seatRow(3, 3, false),
	}

	tests := []struct {
		name string
		from int
		want int64
	}{
		{"middle of the table", 1, 2},
		{"wraps past the highest seat", 3, 1},
		{"last to first", 2, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := nextPlayer(players, tt.from, false)
			assert.Equal(t, tt.want, next.ID)
		})
	}
}

func TestNextPlayerSeatGaps(t *testing.T) {
	// Seats 2, 5 and 9: rotation follows seat order, not density.
	players := []*models.GamePlayer{
		seatRow(1, 2, false),
		seatRow(2, 5, false),
		seatRow(3, 9, false),
	}

	assert.Equal(t, int64(2), nextPlayer(players, 2, false).ID)
	assert.Equal(t, int64(3), nextPlayer(players, 5, false).ID)
	assert.Equal(t, int64(1), nextPlayer(players, 9, false).ID)
}

func TestNextPlayerSkipsDisconnected(t *testing.T) {
	players := []*models.GamePlayer{
		seatRow(1, 1, false),
		seatRow(2, 2, true),
		seatRow(3, 3, false),
	}

	assert.Equal(t, int64(3), nextPlayer(players, 1, true).ID)
	assert.Equal(t, int64(2), nextPlayer(players, 1, false).ID)
}

func TestNextPlayerNoEligibleSeat(t *testing.T) {
	sole := []*models.GamePlayer{seatRow(1, 1, false)}
	assert.Nil(t, nextPlayer(sole, 1, false))

	allGone := []*models.GamePlayer{
		seatRow(1, 1, false),
		seatRow(2, 2, true),
	}
	assert.Nil(t, nextPlayer(allGone, 1, true))
	assert.Nil(t, nextPlayer(nil, 1, false))
}

func TestNextPlayerIgnoresUnseated(t *testing.T) {
	players := []*models.GamePlayer{
		seatRow(1, 1, false),
		{ID: 2, GameID: fixtureGameID, UserID: 102, Disconnected: true},
		seatRow(3, 2, false),
	}
	assert.Equal(t, int64(3), nextPlayer(players, 1, true).ID)
}

func TestCurrentPlayerForwarding(t *testing.T) {
	players := []*models.GamePlayer{
		seatRow(1, 1, true),
		seatRow(2, 2, true),
		seatRow(3, 3, false),
	}
	snap := &models.GameTableSnapshot{GameID: fixtureGameID, CurrentUserID: int64Ptr(1)}

	// Forwarded past two disconnected seats without touching the ledger.
	cur := currentPlayer(players, snap)
	assert.Equal(t, int64(3), cur.ID)
	assert.True(t, isCurrentTurn(players, snap, players[2]))
	assert.False(t, isCurrentTurn(players, snap, players[0]))
}

func TestCurrentPlayerAllDisconnected(t *testing.T) {
	players := []*models.GamePlayer{
		seatRow(1, 1, true),
		seatRow(2, 2, true),
	}
	snap := &models.GameTableSnapshot{GameID: fixtureGameID, CurrentUserID: int64Ptr(2)}

	// No connected seat to forward to: the recorded seat stands.
	assert.Equal(t, int64(2), currentPlayer(players, snap).ID)
}

func TestCurrentPlayerNoTurn(t *testing.T) {
	players := []*models.GamePlayer{seatRow(1, 1, false)}
	snap := &models.GameTableSnapshot{GameID: fixtureGameID}

	assert.Nil(t, currentPlayer(players, snap))
	assert.False(t, isCurrentTurn(players, snap, players[0]))
}

func TestSeatedOrdering(t *testing.T) {
	players := []*models.GamePlayer{
		seatRow(1, 3, false),
		{ID: 2, GameID: fixtureGameID, UserID: 102},
		seatRow(3, 1, false),
	}

	s := seated(players)
	assert.Len(t, s, 2)
	assert.Equal(t, int64(3), s[0].ID)
	assert.Equal(t, int64(1), s[1].ID)
	assert.Equal(t, 3, maxSeat(players))
}
