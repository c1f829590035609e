package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidMove  = errors.New("invalid move")
	ErrInvalidCell  = fmt.Errorf("%w: cell index out of range", ErrInvalidMove)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrInvalidMove)

	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrGameIsNotStarted = errors.New("game is not started")
	ErrGameFinished     = errors.New("game is already finished")

	ErrInvalidState = errors.New("board is terminal or full")

	ErrNotAPlayer       = errors.New("caller is not a player in this room")
	ErrNoActiveOutcome  = errors.New("game has no outcome yet")
	ErrRoomFull         = errors.New("room already has two players")
	ErrSessionCorrupted = errors.New("session record has no player X")
)
