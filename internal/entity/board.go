package entity

import (
	"fmt"

	"github.com/playhub/tictactoe-backend/internal/apperror"
)

const BoardSize = 9

// Mark is the content of a single board cell. Empty cells carry an explicit
// tag so a serialized board is never ambiguous about unset values.
type Mark string

const (
	MarkEmpty Mark = "-"
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Other returns the opposing player mark.
func (that Mark) Other() Mark {
	if that == MarkX {
		return MarkO
	}
	return MarkX
}

// Outcome classifies a board: still playable, won by one side, or drawn.
type Outcome string

const (
	OutcomeInProgress Outcome = "in_progress"
	OutcomeWinX       Outcome = "win_x"
	OutcomeWinO       Outcome = "win_o"
	OutcomeDraw       Outcome = "draw"
)

func (that Outcome) IsTerminal() bool {
	return that != OutcomeInProgress
}

// Winner returns the winning mark for win_x/win_o outcomes.
func (that Outcome) Winner() (Mark, bool) {
	switch that {
	case OutcomeWinX:
		return MarkX, true
	case OutcomeWinO:
		return MarkO, true
	default:
		return MarkEmpty, false
	}
}

// WinOutcome maps a mark to the outcome in which that mark won.
func WinOutcome(mark Mark) Outcome {
	if mark == MarkX {
		return OutcomeWinX
	}
	return OutcomeWinO
}

// Board is a 3x3 grid in row-major order: rows {0,1,2},{3,4,5},{6,7,8}.
type Board [BoardSize]Mark

var WinCombos = [8][3]int{
	{0, 1, 2},
	{3, 4, 5},
	{6, 7, 8},
	{0, 3, 6},
	{1, 4, 7},
	{2, 5, 8},
	{0, 4, 8},
	{2, 4, 6},
}

func NewBoard() Board {
	var board Board
	for i := range board {
		board[i] = MarkEmpty
	}
	return board
}

// ApplyMove returns a copy of the board with the mark placed on the given
// cell. The input board is never mutated.
func ApplyMove(board Board, cell int, mark Mark) (Board, error) {
	if cell < 0 || cell >= BoardSize {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrInvalidCell, cell)
	}

	if board[cell] != MarkEmpty {
		return board, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	board[cell] = mark

	return board, nil
}

// Evaluate scans all 8 winning lines; if none is complete it returns
// OutcomeDraw on a full board and OutcomeInProgress otherwise. On a legally
// built board at most one line can be complete, so scan order does not matter.
func Evaluate(board Board) Outcome {
	for _, combo := range WinCombos {
		a, b, c := board[combo[0]], board[combo[1]], board[combo[2]]
		if a != MarkEmpty && a == b && b == c {
			return WinOutcome(a)
		}
	}

	for _, cell := range board {
		if cell == MarkEmpty {
			return OutcomeInProgress
		}
	}

	return OutcomeDraw
}

// AvailableCells returns the indexes of empty cells in ascending order.
func (that Board) AvailableCells() []int {
	cells := make([]int, 0, BoardSize)
	for i, cell := range that {
		if cell == MarkEmpty {
			cells = append(cells, i)
		}
	}
	return cells
}
