package engine

import "errors"

// Action-boundary errors. All of these reject the offending action to its
// originator and leave the ledger untouched.
var (
	ErrValidation          = errors.New("validation failed")
	ErrGameNotFound        = errors.New("game not found")
	ErrNotAParticipant     = errors.New("not a participant of this game")
	ErrNotYourTurn         = errors.New("not your turn")
	ErrInvalidMove         = errors.New("invalid move")
	ErrGameFull            = errors.New("game is full")
	ErrGameStarted         = errors.New("game already started")
	ErrNotStarted          = errors.New("game has not started")
	ErrInsufficientPlayers = errors.New("not enough seated players")
)

// ErrorCode maps an engine error to the wire code reported to the acting
// connection. Unknown errors report as an internal failure and are safe to
// retry, no partial state exists after a failed apply.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrGameNotFound):
		return "game_not_found"
	case errors.Is(err, ErrNotAParticipant):
		return "not_a_participant"
	case errors.Is(err, ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, ErrInvalidMove):
		return "invalid_move"
	case errors.Is(err, ErrGameFull):
		return "game_full"
	case errors.Is(err, ErrGameStarted):
		return "game_already_started"
	case errors.Is(err, ErrNotStarted):
		return "game_not_started"
	case errors.Is(err, ErrInsufficientPlayers):
		return "insufficient_players"
	default:
		return "internal_error"
	}
}
