package mcts

import (
	"errors"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

// Other types, which didn't fit to MCTS or Tree files

type SeedGeneratorFnType func() int64

// Sequence of tracked nodes from the root to the selected leaf
type Path []NodeID

// Returned when asking for a move in a finished game
var ErrNoLegalMoves = errors.New("no legal moves in a terminal position")

// Principal variation line
type SearchLine struct {
	BestMove uttt.Move
	Moves    []uttt.Move
	Eval     float64
	Visits   int64
	Terminal bool
	Draw     bool
}
