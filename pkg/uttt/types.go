package uttt

import "errors"

// Type defines for the position
type (
	Player         int8 // Also used as the cell value, PlayerNone meaning empty
	Outcome        int8 // Result of the game, see Outcome* constants
	BoardType      [9][9]Player
	SubBoardStatus uint8
)

const (
	PlayerNone Player = 0
	PlayerX    Player = 1
	PlayerO    Player = -1
)

// Game outcomes, the values of won games match the winner's Player value
const (
	OutcomeDraw    Outcome = 0
	OutcomeX       Outcome = 1
	OutcomeO       Outcome = -1
	OutcomeOngoing Outcome = 2
)

const (
	SubBoardOpen SubBoardStatus = iota
	SubBoardWonX
	SubBoardWonO
	SubBoardDrawn
)

// Sentinel for the 'forced' field, meaning the mover can play on any open sub-board
const Unrestricted int8 = -1

var (
	ErrIllegalMove     = errors.New("illegal move")
	ErrInvalidState    = errors.New("invalid state")
	ErrInvalidNotation = errors.New("invalid notation")
)

// Get the opponent
func (p Player) Opponent() Player {
	return -p
}

func (p Player) String() string {
	switch p {
	case PlayerX:
		return "x"
	case PlayerO:
		return "o"
	}
	return "-"
}

// Returns the player that won the game, PlayerNone for draw or ongoing game
func (o Outcome) Winner() Player {
	if o == OutcomeX || o == OutcomeO {
		return Player(o)
	}
	return PlayerNone
}

// Whether the game has ended (win or draw)
func (o Outcome) Terminal() bool {
	return o != OutcomeOngoing
}

func (o Outcome) String() string {
	switch o {
	case OutcomeX:
		return "x won"
	case OutcomeO:
		return "o won"
	case OutcomeDraw:
		return "draw"
	}
	return "ongoing"
}

func (s SubBoardStatus) String() string {
	switch s {
	case SubBoardWonX:
		return "won by x"
	case SubBoardWonO:
		return "won by o"
	case SubBoardDrawn:
		return "drawn"
	}
	return "open"
}
