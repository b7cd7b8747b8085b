package uttt

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// State is an immutable Ultimate Tic Tac Toe position. It's a plain value type,
// two states compare equal with == when they describe the same position,
// so it can be used directly as a map key.
type State struct {
	boards BoardType // [sub-board][cell]
	meta   [9]Player // winner of each sub-board, PlayerNone if open or drawn
	forced int8      // sub-board the mover must play in, or Unrestricted
	mover  Player
	hash   uint64
}

// Length of the byte encoding used for hashing
const _encodedSize = 9*9 + 9 + 2

// Empty board, X to move, no restriction
func NewState() State {
	s := State{forced: Unrestricted, mover: PlayerX}
	s.hash = s.computeHash()
	return s
}

// Build a state from its raw parts. Cell and meta values must be in {-1, 0, 1},
// mover must be X or O, and forced must be either Unrestricted or an index of a
// sub-board that is still open and has at least one empty cell.
func FromParts(boards BoardType, meta [9]Player, forced int, mover Player) (State, error) {
	for b := range boards {
		for c, v := range boards[b] {
			if v < PlayerO || v > PlayerX {
				return State{}, fmt.Errorf("%w: cell [%d][%d] = %d", ErrInvalidState, b, c, v)
			}
		}
		if meta[b] < PlayerO || meta[b] > PlayerX {
			return State{}, fmt.Errorf("%w: meta[%d] = %d", ErrInvalidState, b, meta[b])
		}
	}

	if mover != PlayerX && mover != PlayerO {
		return State{}, fmt.Errorf("%w: mover = %d", ErrInvalidState, mover)
	}

	s := State{boards: boards, meta: meta, forced: Unrestricted, mover: mover}
	if forced != int(Unrestricted) {
		if forced < 0 || forced > 8 {
			return State{}, fmt.Errorf("%w: forced = %d", ErrInvalidState, forced)
		}
		if !s.playable(forced) {
			return State{}, fmt.Errorf("%w: forced sub-board %d is decided or full", ErrInvalidState, forced)
		}
		s.forced = int8(forced)
	}

	s.hash = s.computeHash()
	return s, nil
}

// Getters

func (s State) Mover() Player {
	return s.mover
}

// Returns the forced sub-board index, ok is false if the mover is unrestricted
func (s State) Forced() (index int, ok bool) {
	if s.forced == Unrestricted {
		return -1, false
	}
	return int(s.forced), true
}

func (s State) Boards() BoardType {
	return s.boards
}

func (s State) Board(bigIndex int) [9]Player {
	return s.boards[bigIndex]
}

func (s State) Cell(bigIndex, smallIndex int) Player {
	return s.boards[bigIndex][smallIndex]
}

func (s State) Meta() [9]Player {
	return s.meta
}

// Stable 64-bit hash of the position, computed once per state
func (s State) Hash() uint64 {
	return s.hash
}

// Status of given sub-board, note that drawn boards are still 0 in the meta board
func (s State) SubBoardStatus(bigIndex int) SubBoardStatus {
	switch s.meta[bigIndex] {
	case PlayerX:
		return SubBoardWonX
	case PlayerO:
		return SubBoardWonO
	}
	if !hasEmpty(&s.boards[bigIndex]) {
		return SubBoardDrawn
	}
	return SubBoardOpen
}

// Count of the marks on the whole board, returns (x marks, o marks)
func (s State) Marks() (x, o int) {
	for b := range s.boards {
		for _, v := range s.boards[b] {
			switch v {
			case PlayerX:
				x++
			case PlayerO:
				o++
			}
		}
	}
	return x, o
}

// Whether the mover can still play in given sub-board
func (s *State) playable(bigIndex int) bool {
	return s.meta[bigIndex] == PlayerNone && hasEmpty(&s.boards[bigIndex])
}

func hasEmpty(board *[9]Player) bool {
	for _, v := range board {
		if v == PlayerNone {
			return true
		}
	}
	return false
}

// Make a move for the current mover and return the resulting state. The receiver
// is not modified. The move is NOT validated: applying a move outside of
// LegalMoves yields a corrupted state, use TryApplyMove for untrusted input.
func (s State) ApplyMove(move Move) State {
	bigIndex, smallIndex := move.BigIndex(), move.SmallIndex()
	next := s

	next.boards[bigIndex][smallIndex] = s.mover

	// Won sub-boards are permanent
	if next.meta[bigIndex] == PlayerNone && CheckLine(next.boards[bigIndex], s.mover) {
		next.meta[bigIndex] = s.mover
	}

	// The opponent is sent to the sub-board matching the played cell,
	// unless that board is already decided or full
	if next.playable(smallIndex) {
		next.forced = int8(smallIndex)
	} else {
		next.forced = Unrestricted
	}

	next.mover = s.mover.Opponent()
	next.hash = next.computeHash()
	return next
}

// Verifies legality of given move, then if it's valid, applies it
func (s State) TryApplyMove(move Move) (State, error) {
	if !s.IsLegal(move) {
		return s, fmt.Errorf("%w: %s, possible moves=[%s]", ErrIllegalMove, move, s.moveList().String())
	}
	return s.ApplyMove(move), nil
}

func (s State) computeHash() uint64 {
	var buf [_encodedSize]byte
	i := 0
	for b := range s.boards {
		for _, v := range s.boards[b] {
			buf[i] = byte(v + 1)
			i++
		}
	}
	for _, v := range s.meta {
		buf[i] = byte(v + 1)
		i++
	}
	buf[i] = byte(s.forced + 1)
	buf[i+1] = byte(s.mover + 1)
	return xxhash.Checksum64(buf[:])
}
