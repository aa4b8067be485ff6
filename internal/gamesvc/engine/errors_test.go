package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrValidation, "validation_error"},
		{ErrGameNotFound, "game_not_found"},
		{ErrNotAParticipant, "not_a_participant"},
		{ErrNotYourTurn, "not_your_turn"},
		{ErrInvalidMove, "invalid_move"},
		{ErrGameFull, "game_full"},
		{ErrGameStarted, "game_already_started"},
		{ErrNotStarted, "game_not_started"},
		{ErrInsufficientPlayers, "insufficient_players"},
		{errors.New("pool exhausted"), "internal_error"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorCode(tt.err))
			// Wrapped errors keep their code.
			assert.Equal(t, tt.want, ErrorCode(fmt.Errorf("context: %w", tt.err)))
		})
	}
}
