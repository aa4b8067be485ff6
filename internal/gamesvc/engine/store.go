package engine

import (
	"context"

	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
	"github.com/vediprashant/bluff-api/internal/gamesvc/models"
)

// Store is the persistence boundary of the engine. Reads always see the
// latest committed state; Apply commits a whole action atomically.
type Store interface {
	Game(ctx context.Context, gameID int64) (*models.Game, error)
	Players(ctx context.Context, gameID int64) ([]*models.GamePlayer, error)
	LatestSnapshot(ctx context.Context, gameID int64) (*models.GameTableSnapshot, error)

	// Apply commits the mutation in one transaction: player row updates,
	// the new snapshot and the game update are all-or-nothing.
	Apply(ctx context.Context, m *Mutation) error
}

// PlayerUpdate patches a game_players row. Nil fields are left untouched.
type PlayerUpdate struct {
	ID           int64
	Seat         *int
	Disconnected *bool
	Cards        *card.Bitset
	NoAction     *int
}

// GameUpdate patches a games row. Nil fields are left untouched; WinnerID
// is only ever set, never cleared.
type GameUpdate struct {
	ID       int64
	Started  *bool
	WinnerID *int64
}

// Mutation is the unit of change produced by one accepted action.
type Mutation struct {
	GameID   int64
	Game     *GameUpdate
	Players  []PlayerUpdate
	Snapshot *models.GameTableSnapshot
}

func boolPtr(b bool) *bool    { return &b }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }
