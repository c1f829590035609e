package websocket

import (
	"encoding/json"
	"errors"

	"github.com/playhub/tictactoe-backend/internal/apperror"
	"github.com/playhub/tictactoe-backend/internal/entity"
	"github.com/playhub/tictactoe-backend/internal/repository"
	"github.com/playhub/tictactoe-backend/internal/service"
)

const (
	actionJoin    = "room:join"
	actionMove    = "room:move"
	actionRematch = "room:rematch"
	actionChat    = "room:chat"
	actionUpdate  = "room:update"
	actionError   = "error"
)

type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	RoomKey string              `json:"room_key,omitempty"`
	Cell    *int                `json:"cell,omitempty"`
	Text    string              `json:"text,omitempty"`
	Role    entity.Role         `json:"role,omitempty"`
	Session *entity.GameSession `json:"session,omitempty"`
	Error   string              `json:"error,omitempty"`
	Kind    string              `json:"kind,omitempty"`
}

// classifyError maps a rejection to the wire-level error kind. Anything not
// in the validation taxonomy is a transport failure and up to the caller to
// retry.
func classifyError(err error) string {
	switch {
	case errors.Is(err, apperror.ErrInvalidMove):
		return "invalid_move"
	case errors.Is(err, apperror.ErrNotYourTurn):
		return "not_your_turn"
	case errors.Is(err, apperror.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, apperror.ErrNotAPlayer):
		return "not_a_player"
	case errors.Is(err, apperror.ErrNoActiveOutcome):
		return "no_active_outcome"
	case errors.Is(err, apperror.ErrRoomFull):
		return "room_full"
	case errors.Is(err, apperror.ErrGameIsNotStarted):
		return "game_not_started"
	case errors.Is(err, apperror.ErrGameFinished):
		return "game_finished"
	case errors.Is(err, repository.ErrSessionNotFound):
		return "room_not_found"
	case errors.Is(err, service.ErrEmptyMessage):
		return "empty_message"
	default:
		return "transport_failure"
	}
}
