package service

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/playhub/tictactoe-backend/internal/apperror"
	"github.com/playhub/tictactoe-backend/internal/entity"
)

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Strategy picks the bot's next move. The board must still be playable:
// at least one empty cell and no winner yet.
type Strategy interface {
	SelectMove(board entity.Board, botMark, humanMark entity.Mark) (int, error)
}

// NewStrategy returns the strategy for a difficulty level. The rand source is
// injected so games can be replayed deterministically in tests.
func NewStrategy(difficulty Difficulty, rng *rand.Rand) (Strategy, error) {
	switch difficulty {
	case DifficultyEasy:
		return &easyStrategy{rng: rng}, nil
	case DifficultyMedium:
		return &mediumStrategy{rng: rng}, nil
	case DifficultyHard:
		return &hardStrategy{}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDifficulty, difficulty)
	}
}

// confirmPlayable rejects terminal or full boards before any strategy runs.
func confirmPlayable(board entity.Board) ([]int, error) {
	if entity.Evaluate(board) != entity.OutcomeInProgress {
		return nil, fmt.Errorf("%w: game is already decided", apperror.ErrInvalidState)
	}

	available := board.AvailableCells()
	if len(available) == 0 {
		return nil, fmt.Errorf("%w: no available cells", apperror.ErrInvalidState)
	}

	return available, nil
}

// easyStrategy plays a uniformly random empty cell.
type easyStrategy struct {
	rng *rand.Rand
}

func (that *easyStrategy) SelectMove(board entity.Board, _, _ entity.Mark) (int, error) {
	available, err := confirmPlayable(board)
	if err != nil {
		return 0, err
	}

	return available[that.rng.Intn(len(available))], nil
}

// mediumStrategy plays randomly half the time. The other half it scans for a
// cell that would block the opponent's immediate win, then for its own
// immediate win, then falls back to random. The block scan runs before the
// win scan; that ordering is what keeps medium beatable.
type mediumStrategy struct {
	rng *rand.Rand
}

func (that *mediumStrategy) SelectMove(board entity.Board, botMark, humanMark entity.Mark) (int, error) {
	available, err := confirmPlayable(board)
	if err != nil {
		return 0, err
	}

	if that.rng.Float64() < 0.5 {
		return available[that.rng.Intn(len(available))], nil
	}

	for _, cell := range available {
		tentative, _ := entity.ApplyMove(board, cell, humanMark)
		if entity.Evaluate(tentative) == entity.WinOutcome(humanMark) {
			return cell, nil
		}
	}

	for _, cell := range available {
		tentative, _ := entity.ApplyMove(board, cell, botMark)
		if entity.Evaluate(tentative) == entity.WinOutcome(botMark) {
			return cell, nil
		}
	}

	return available[that.rng.Intn(len(available))], nil
}

// hardStrategy runs full minimax over the remaining game tree. With at most
// 9 plies no pruning is needed. It never loses: the result against any
// opponent is a draw or a bot win.
type hardStrategy struct{}

func (that *hardStrategy) SelectMove(board entity.Board, botMark, humanMark entity.Mark) (int, error) {
	available, err := confirmPlayable(board)
	if err != nil {
		return 0, err
	}

	bestCell := available[0]
	bestScore := -2 // below the lowest reachable score

	for _, cell := range available {
		tentative, _ := entity.ApplyMove(board, cell, botMark)

		score := minimax(tentative, botMark, humanMark, false)
		if score > bestScore {
			bestScore = score
			bestCell = cell
		}
	}

	return bestCell, nil
}

// minimax scores a board from the bot's perspective: +1 bot win, -1 human
// win, 0 draw, with no depth discount. The bot's turns maximize, the
// human's minimize.
func minimax(board entity.Board, botMark, humanMark entity.Mark, maximizing bool) int {
	switch entity.Evaluate(board) {
	case entity.WinOutcome(botMark):
		return 1
	case entity.WinOutcome(humanMark):
		return -1
	case entity.OutcomeDraw:
		return 0
	}

	if maximizing {
		best := -2
		for _, cell := range board.AvailableCells() {
			tentative, _ := entity.ApplyMove(board, cell, botMark)
			if score := minimax(tentative, botMark, humanMark, false); score > best {
				best = score
			}
		}
		return best
	}

	best := 2
	for _, cell := range board.AvailableCells() {
		tentative, _ := entity.ApplyMove(board, cell, humanMark)
		if score := minimax(tentative, botMark, humanMark, true); score < best {
			best = score
		}
	}
	return best
}
