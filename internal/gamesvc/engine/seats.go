package engine

import (
	"sort"

	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
)

// MaxSeats is the hard cap of active seats per game.
const MaxSeats = 9

// seated returns players holding a seat number, ordered by seat.
func seated(players []*models.GamePlayer) []*models.GamePlayer {
	var out []*models.GamePlayer
	for _, p := range players {
		if p.Seated() {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return *out[i].PlayerID < *out[j].PlayerID })
	return out
}

func maxSeat(players []*models.GamePlayer) int {
	m := 0
	for _, p := range players {
		if p.Seated() && *p.PlayerID > m {
			m = *p.PlayerID
		}
	}
	return m
}

func playerByRowID(players []*models.GamePlayer, id *int64) *models.GamePlayer {
	if id == nil {
		return nil
	}
	for _, p := range players {
		if p.ID == *id {
			return p
		}
	}
	return nil
}

func playerByUser(players []*models.GamePlayer, userID int64) *models.GamePlayer {
	for _, p := range players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// nextPlayer returns the seated player with the minimum positive circular
// seat distance from fromSeat, optionally restricted to connected seats.
// Returns nil when no other eligible seat exists.
func nextPlayer(players []*models.GamePlayer, fromSeat int, requireConnected bool) *models.GamePlayer {
	span := maxSeat(players)
	if span == 0 {
		return nil
	}

	var best *models.GamePlayer
	bestDist := 0
	for _, p := range seated(players) {
		if *p.PlayerID == fromSeat {
			continue
		}
		if requireConnected && p.Disconnected {
			continue
		}
		d := *p.PlayerID - fromSeat
		if d <= 0 {
			d += span
		}
		if best == nil || d < bestDist {
			best, bestDist = p, d
		}
	}
	return best
}

// currentPlayer resolves the seat whose turn it effectively is: the latest
// snapshot's current user, forwarded to the next connected seat when the
// recorded one is disconnected. Forwarding never writes a snapshot; the
// ledger only moves when an action is accepted.
func currentPlayer(players []*models.GamePlayer, snap *models.GameTableSnapshot) *models.GamePlayer {
	recorded := playerByRowID(players, snap.CurrentUserID)
	if recorded == nil {
		return nil
	}
	if !recorded.Disconnected {
		return recorded
	}
	if next := nextPlayer(players, *recorded.PlayerID, true); next != nil {
		return next
	}
	return recorded
}

func isCurrentTurn(players []*models.GamePlayer, snap *models.GameTableSnapshot, p *models.GamePlayer) bool {
	cur := currentPlayer(players, snap)
	return cur != nil && cur.ID == p.ID
}
