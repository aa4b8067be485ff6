package models

import (
	"time"

	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
)

type GamePlayer struct {
	ID           int64       `json:"id"`           // Primary key
	GameID       int64       `json:"game_id"`      // FK to games(id)
	UserID       int64       `json:"user_id"`      // FK to users(user_id)
	PlayerID     *int        `json:"player_id"`    // Seat number 1..9, nil = invited but never joined
	Disconnected bool        `json:"disconnected"` // Default true until the first socket connect
	NoAction     int         `json:"no_action"`    // Count of accepted actions by this seat
	Cards        card.Bitset `json:"-"`            // Personal hand, stored as a 156-char column
	UserName     string      `json:"user_name"`    // Joined from users for display
	CreatedAt    time.Time   `json:"created_at"`   // Timestamp
	UpdatedAt    time.Time   `json:"updated_at"`   // Timestamp
}

// Seated reports whether the player has ever joined and holds a seat.
func (p *GamePlayer) Seated() bool {
	return p.PlayerID != nil
}
