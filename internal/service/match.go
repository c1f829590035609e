package service

import (
	"fmt"
	"math/rand"

	"github.com/playhub/tictactoe-backend/internal/apperror"
	"github.com/playhub/tictactoe-backend/internal/entity"
)

// Match is a transient single-player game against the bot. It lives only on
// the caller's side and is never persisted.
type Match struct {
	Board     entity.Board
	HumanMark entity.Mark
	BotMark   entity.Mark
	TurnMark  entity.Mark

	strategy Strategy
}

// NewMatch starts a bot game with randomly assigned marks. X always opens,
// so when the bot draws X the caller should let it move first via BotMove.
func NewMatch(difficulty Difficulty, rng *rand.Rand) (*Match, error) {
	strategy, err := NewStrategy(difficulty, rng)
	if err != nil {
		return nil, fmt.Errorf("failed to create strategy: %w", err)
	}

	humanMark, botMark := randomMarks(rng)

	return &Match{
		Board:     entity.NewBoard(),
		HumanMark: humanMark,
		BotMark:   botMark,
		TurnMark:  entity.MarkX,
		strategy:  strategy,
	}, nil
}

func randomMarks(rng *rand.Rand) (entity.Mark, entity.Mark) {
	if rng.Intn(2) == 0 {
		return entity.MarkX, entity.MarkO
	}
	return entity.MarkO, entity.MarkX
}

// HumanMove applies the human's move if it is their turn.
func (that *Match) HumanMove(cell int) error {
	return that.applyMove(that.HumanMark, cell)
}

// BotMove asks the strategy for a cell and applies it, returning the cell.
func (that *Match) BotMove() (int, error) {
	if that.TurnMark != that.BotMark {
		return 0, apperror.ErrNotYourTurn
	}

	cell, err := that.strategy.SelectMove(that.Board, that.BotMark, that.HumanMark)
	if err != nil {
		return 0, fmt.Errorf("bot failed to select move: %w", err)
	}

	if err = that.applyMove(that.BotMark, cell); err != nil {
		return 0, fmt.Errorf("bot failed to make turn: %w", err)
	}

	return cell, nil
}

func (that *Match) applyMove(mark entity.Mark, cell int) error {
	if that.Outcome().IsTerminal() {
		return apperror.ErrGameFinished
	}

	if that.TurnMark != mark {
		return apperror.ErrNotYourTurn
	}

	board, err := entity.ApplyMove(that.Board, cell, mark)
	if err != nil {
		return err
	}

	that.Board = board
	that.TurnMark = that.TurnMark.Other()

	return nil
}

// Outcome is always derived from the board, never stored.
func (that *Match) Outcome() entity.Outcome {
	return entity.Evaluate(that.Board)
}

// Reset clears the board for another round with the same marks.
func (that *Match) Reset() {
	that.Board = entity.NewBoard()
	that.TurnMark = entity.MarkX
}
