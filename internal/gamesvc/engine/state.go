package engine

import (
	"github.com/vediprashant/bluff-api/internal/comm"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
)

// buildState renders one participant's perspective: their own hand as a
// bitset, every other seat as counts only.
func buildState(game *models.Game, players []*models.GamePlayer, snap *models.GameTableSnapshot, self *models.GamePlayer) *comm.GameState {
	state := &comm.GameState{
		Game: comm.GameView{
			ID:       game.ID,
			Decks:    game.Decks,
			Started:  game.Started,
			OwnerID:  game.OwnerID,
			WinnerID: game.WinnerID,
		},
		Self: comm.SelfView{
			Seat:         self.PlayerID,
			Cards:        self.Cards.String(),
			CardCount:    self.Cards.Count(),
			Disconnected: self.Disconnected,
		},
	}

	for _, p := range seated(players) {
		if p.ID == self.ID {
			continue
		}
		state.Players = append(state.Players, comm.PlayerView{
			Seat:         *p.PlayerID,
			UserID:       p.UserID,
			Name:         p.UserName,
			Disconnected: p.Disconnected,
			CardCount:    p.Cards.Count(),
			NoAction:     p.NoAction,
		})
	}

	state.Table = comm.TableView{
		CurrentSet:      snap.CurrentSet,
		TableCount:      snap.CardsOnTable.Count(),
		LastCount:       snap.LastCards.Count(),
		LastSeat:        seatOf(players, snap.LastUserID),
		CurrentSeat:     effectiveCurrentSeat(players, snap),
		BluffCallerSeat: seatOf(players, snap.BluffCallerID),
		BluffSuccessful: snap.BluffSuccessful,
		DidSkip:         snap.DidSkip,
	}
	return state
}

func seatOf(players []*models.GamePlayer, rowID *int64) *int {
	p := playerByRowID(players, rowID)
	if p == nil || !p.Seated() {
		return nil
	}
	return p.PlayerID
}

// effectiveCurrentSeat applies disconnect forwarding so clients render the
// seat that can actually act, not the stale recorded one.
func effectiveCurrentSeat(players []*models.GamePlayer, snap *models.GameTableSnapshot) *int {
	cur := currentPlayer(players, snap)
	if cur == nil {
		return nil
	}
	return cur.PlayerID
}
