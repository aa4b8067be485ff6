package engine

import (
	"context"
	"errors"
	"time"

	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
)

// memStore is an in-memory Store for engine tests. Reads return deep
// copies so the engine cannot leak uncommitted mutations into canonical
// state; Apply is the only way state changes.
type memStore struct {
	game    *models.Game
	players []*models.GamePlayer
	snaps   []*models.GameTableSnapshot

	applies   int
	failApply bool
}

func (m *memStore) Game(ctx context.Context, gameID int64) (*models.Game, error) {
	if m.game == nil || m.game.ID != gameID {
		return nil, nil
	}
	g := *m.game
	return &g, nil
}

func (m *memStore) Players(ctx context.Context, gameID int64) ([]*models.GamePlayer, error) {
	var out []*models.GamePlayer
	for _, p := range m.players {
		if p.GameID != gameID {
			continue
		}
		cp := *p
		if p.PlayerID != nil {
			seat := *p.PlayerID
			cp.PlayerID = &seat
		}
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memStore) LatestSnapshot(ctx context.Context, gameID int64) (*models.GameTableSnapshot, error) {
	var latest *models.GameTableSnapshot
	for _, s := range m.snaps {
		if s.GameID == gameID {
			latest = s
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) Apply(ctx context.Context, mut *Mutation) error {
	if m.failApply {
		return errors.New("simulated transaction failure")
	}
	m.applies++

	for _, u := range mut.Players {
		for _, p := range m.players {
			if p.ID != u.ID {
				continue
			}
			if u.Seat != nil {
				seat := *u.Seat
				p.PlayerID = &seat
			}
			if u.Disconnected != nil {
				p.Disconnected = *u.Disconnected
			}
			if u.Cards != nil {
				p.Cards = *u.Cards
			}
			if u.NoAction != nil {
				p.NoAction = *u.NoAction
			}
		}
	}

	if g := mut.Game; g != nil {
		if g.Started != nil {
			m.game.Started = *g.Started
		}
		if g.WinnerID != nil {
			w := *g.WinnerID
			m.game.WinnerID = &w
		}
	}

	if mut.Snapshot != nil {
		snap := *mut.Snapshot
		snap.ID = int64(len(m.snaps) + 1)
		snap.CreatedAt = time.Now()
		m.snaps = append(m.snaps, &snap)
	}
	return nil
}

func (m *memStore) latest() *models.GameTableSnapshot {
	return m.snaps[len(m.snaps)-1]
}

func (m *memStore) player(userID int64) *models.GamePlayer {
	for _, p := range m.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}
