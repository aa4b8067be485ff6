package models

import (
	"time"

	"github.com/vediprashant/bluff-api/internal/gamesvc/card"
)

// GameTableSnapshot is one immutable state of the shared table. Snapshots
// are append-only and ordered by id; the latest row for a game is the
// authoritative current state. All cards sit on the table until the game
// has started.
type GameTableSnapshot struct {
	ID              int64       `json:"id"`               // Primary key, monotonic per game
	GameID          int64       `json:"game_id"`          // FK to games(id)
	CurrentSet      *int        `json:"current_set"`      // Claimed rank 0..12, nil = no active claim
	CardsOnTable    card.Bitset `json:"-"`                // Face-down pile, not yet claimed by anyone
	LastCards       card.Bitset `json:"-"`                // Most recent play, judged on a bluff call
	LastUserID      *int64      `json:"last_user_id"`     // FK to game_players(id), seat of the last play
	CurrentUserID   *int64      `json:"current_user_id"`  // FK to game_players(id), nil = no eligible seat
	BluffCallerID   *int64      `json:"bluff_caller_id"`  // FK to game_players(id)
	BluffSuccessful *bool       `json:"bluff_successful"` // True when the judged claim was dishonest
	DidSkip         *bool       `json:"did_skip"`         // Marks a snapshot produced by a skip
	CreatedAt       time.Time   `json:"created_at"`       // Timestamp
}
