package websocket

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/playhub/tictactoe-backend/internal/apperror"
	"github.com/playhub/tictactoe-backend/internal/repository"
	"github.com/playhub/tictactoe-backend/internal/service"
)

func TestClassifyError(t *testing.T) {
	cases := []struct {
		err  error
		kind string
	}{
		{apperror.ErrInvalidCell, "invalid_move"},
		{apperror.ErrCellOccupied, "invalid_move"},
		{fmt.Errorf("failed to submit move: %w", apperror.ErrNotYourTurn), "not_your_turn"},
		{apperror.ErrInvalidState, "invalid_state"},
		{apperror.ErrNotAPlayer, "not_a_player"},
		{apperror.ErrNoActiveOutcome, "no_active_outcome"},
		{apperror.ErrRoomFull, "room_full"},
		{apperror.ErrGameIsNotStarted, "game_not_started"},
		{apperror.ErrGameFinished, "game_finished"},
		{repository.ErrSessionNotFound, "room_not_found"},
		{service.ErrEmptyMessage, "empty_message"},
		{errors.New("redis: connection refused"), "transport_failure"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.kind, classifyError(tc.err), "for error %v", tc.err)
	}
}
