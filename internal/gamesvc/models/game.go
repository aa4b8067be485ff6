package models

import "time"

type Game struct {
	ID        int64     `json:"id"`         // Primary key
	Decks     int       `json:"decks"`      // Number of decks in play, 1..3
	Started   bool      `json:"started"`    // Set once the owner deals
	OwnerID   int64     `json:"owner_id"`   // FK to users(user_id), seat 1
	WinnerID  *int64    `json:"winner_id"`  // FK to users(user_id), nil until someone wins
	CreatedAt time.Time `json:"created_at"` // Timestamp
	UpdatedAt time.Time `json:"updated_at"` // Timestamp
}

// Completed reports whether the game has a winner.
func (g *Game) Completed() bool {
	return g.WinnerID != nil
}
