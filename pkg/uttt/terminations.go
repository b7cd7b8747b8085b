package uttt

// horizontal, vertical and diagonal patterns as bitboards
var _winningBitboardPatterns = [8]uint16{
	0b000000111, 0b000111000, 0b111000000,
	0b001001001, 0b010010010, 0b100100100,
	0b100010001, 0b001010100,
}

// Convert given 3x3 board into a bitboard of the player's marks
func toBitboard(board *[9]Player, p Player) (bitboard uint16) {
	for i, v := range board {
		if v == p {
			bitboard |= 1 << i
		}
	}
	return bitboard
}

// Check if the player holds any of the 8 lines (3 rows, 3 columns, 2 diagonals)
func CheckLine(board [9]Player, p Player) bool {
	if p == PlayerNone {
		return false
	}

	bitboard := toBitboard(&board, p)
	for i := 0; i < len(_winningBitboardPatterns); i++ {
		if bitboard&_winningBitboardPatterns[i] == _winningBitboardPatterns[i] {
			return true
		}
	}
	return false
}

// Whether the player who just moved has won the meta board
func (s *State) metaWon() bool {
	return CheckLine(s.meta, s.mover.Opponent())
}

// Get the result of the game. Only the player who just moved can have completed
// a meta line, so only their win is checked. Otherwise the game goes on as long as
// any open sub-board still has an empty cell, when none does it's a draw.
func (s State) Outcome() Outcome {
	if s.metaWon() {
		return Outcome(s.mover.Opponent())
	}

	for i := range s.meta {
		if s.meta[i] == PlayerNone && hasEmpty(&s.boards[i]) {
			return OutcomeOngoing
		}
	}

	return OutcomeDraw
}

// Same as Outcome().Terminal()
func (s State) IsTerminal() bool {
	return s.Outcome().Terminal()
}
