package uttt

import "strings"

// Move packs the sub-board index in the high nibble and the cell index in the low one
type Move uint8

const (
	_moveBigIndexMask   = 0b11110000
	_moveSmallIndexMask = 0b1111
)

// Returned by MoveFromString on malformed input
const MoveIllegal Move = 255

// MoveList is a fixed capacity buffer for move generation. Moves holds the
// generated moves, only the first Size entries are valid, the rest is stale
// data from earlier use. Read it through Slice.
type MoveList struct {
	Moves [9 * 9]Move
	Size  uint8
}

// Make a new move list struct
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Create a move, based on sub-board and cell indexes
func MakeMove(bigIndex, smallIndex int) Move {
	return Move((smallIndex & _moveSmallIndexMask) | ((bigIndex << 4) & _moveBigIndexMask))
}

// Reset the movelist, simply sets the size to 0
func (ml *MoveList) Clear() {
	ml.Size = 0
}

// Get the actual slice of valid moves
func (ml *MoveList) Slice() []Move {
	return ml.Moves[0:ml.Size]
}

func (ml *MoveList) Len() int {
	return int(ml.Size)
}

// Appends a new move to the list of moves
func (ml *MoveList) Append(bigIndex, smallIndex int) {
	ml.Moves[ml.Size] = Move((smallIndex & _moveSmallIndexMask) | ((bigIndex << 4) & _moveBigIndexMask))
	ml.Size++
}

// Convert movelist into a string, uses move notation with space seperation
func (ml *MoveList) String() string {
	if ml.Size == 0 {
		return "empty"
	}

	strMoves := make([]string, ml.Size)
	for i, m := range ml.Slice() {
		strMoves[i] = m.String()
	}
	return strings.Join(strMoves, " ")
}

// Get the sub-board index of a move
func (m Move) BigIndex() int {
	return int((m & _moveBigIndexMask) >> 4)
}

// Get the cell index within the sub-board
func (m Move) SmallIndex() int {
	return int(m & _moveSmallIndexMask)
}

func (m Move) Valid() bool {
	return m.BigIndex() < 9 && m.SmallIndex() < 9
}

// Get string representation of the move, will contain
// a/b/c 1/2/3 as coorinates, for example big index = 7,
// small index = 2 -> <big index part><small index part>
// -> B1c3
//
//	     	A    B    C
//			 0 | 1 | 2	3
//			-----------
//			 3 | 4 | 5	2
//			-----------
//		     6 | 7 | 8	1
func (m Move) String() string {
	if !m.Valid() {
		return "(none)"
	}

	si, bi := m.SmallIndex(), m.BigIndex()
	builder := strings.Builder{}
	builder.WriteByte('A' + byte(bi%3))
	builder.WriteByte('3' - byte(bi/3))
	builder.WriteByte('a' + byte(si%3))
	builder.WriteByte('3' - byte(si/3))
	return builder.String()
}

// Convert given move notation (should be done with Move.String()) to Move
func MoveFromString(str string) Move {
	if len(str) != 4 {
		return MoveIllegal
	}

	_cmp := func(i int, letter byte) bool {
		return (str[i] >= letter && str[i] <= letter+2) &&
			(str[i+1] >= '1' && str[i+1] <= '3')
	}

	if _cmp(0, 'A') && _cmp(2, 'a') {
		return MakeMove(
			int((str[0]-'A')+('3'-str[1])*3),
			int((str[2]-'a')+('3'-str[3])*3))
	}

	return MoveIllegal
}
