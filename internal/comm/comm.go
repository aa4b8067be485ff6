package comm

import (
	"encoding/json"
)

// WSMessage is the envelope shared by the websocket gateway and the game
// service over NATS. SocketId, UserId and GameId are bound by the gateway
// after authentication and never trusted from the client payload.
type WSMessage struct {
	Type     string          `json:"type"` // e.g. "init", "play", "game-state"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
	UserId   int64           `json:"userid,omitempty"`
	GameId   int64           `json:"gameid,omitempty"`
}

// Inbound action payloads.

type InitRequest struct {
	GameID int64 `json:"game_id"`
}

type PlayRequest struct {
	Cards string `json:"cards"` // 156-char bitset of the cards placed face-down
	Set   int    `json:"set"`   // claimed rank 0..12
}

// ActionError reports a rejected action to its originator only.
type ActionError struct {
	Action  string `json:"action"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// InitResponse answers an init, successful or not.
type InitResponse struct {
	InitSuccess bool       `json:"init_success"`
	Message     string     `json:"message,omitempty"`
	State       *GameState `json:"state,omitempty"`
}

// GameState is one participant's view of the latest table snapshot. Own
// cards travel as a full bitset; everyone else is counts only.
type GameState struct {
	Game    GameView     `json:"game"`
	Players []PlayerView `json:"game_players"`
	Self    SelfView     `json:"self"`
	Table   TableView    `json:"game_table"`
}

type GameView struct {
	ID       int64  `json:"id"`
	Decks    int    `json:"decks"`
	Started  bool   `json:"started"`
	OwnerID  int64  `json:"owner_id"`
	WinnerID *int64 `json:"winner_id"`
}

type PlayerView struct {
	Seat         int    `json:"player_id"`
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	Disconnected bool   `json:"disconnected"`
	CardCount    int    `json:"card_count"`
	NoAction     int    `json:"no_action"`
}

type SelfView struct {
	Seat         *int   `json:"player_id"`
	Cards        string `json:"cards"`
	CardCount    int    `json:"card_count"`
	Disconnected bool   `json:"disconnected"`
}

type TableView struct {
	CurrentSet      *int  `json:"current_set"`
	TableCount      int   `json:"cards_on_table"`
	LastCount       int   `json:"last_cards"`
	LastSeat        *int  `json:"last_user"`
	CurrentSeat     *int  `json:"current_user"`
	BluffCallerSeat *int  `json:"bluff_caller"`
	BluffSuccessful *bool `json:"bluff_successful"`
	DidSkip         *bool `json:"did_skip"`
}
