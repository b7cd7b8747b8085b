package uttt

// Generate all legal moves in given position into the movelist,
// sub-board major and cell minor order. A finished game has no moves.
func (s *State) GenerateMoves(movelist *MoveList) {
	movelist.Clear()

	if s.metaWon() {
		return
	}

	if s.forced != Unrestricted {
		bi := int(s.forced)
		for si, v := range s.boards[bi] {
			if v == PlayerNone {
				movelist.Append(bi, si)
			}
		}
		return
	}

	for bi := range s.boards {
		if s.meta[bi] != PlayerNone {
			continue
		}
		for si, v := range s.boards[bi] {
			if v == PlayerNone {
				movelist.Append(bi, si)
			}
		}
	}
}

func (s State) moveList() *MoveList {
	movelist := NewMoveList()
	s.GenerateMoves(movelist)
	return movelist
}

// Get the legal moves as a freshly allocated slice
func (s State) LegalMoves() []Move {
	movelist := s.moveList()
	moves := make([]Move, movelist.Len())
	copy(moves, movelist.Slice())
	return moves
}

// Check if given move is legal
func (s State) IsLegal(move Move) bool {
	if !move.Valid() || s.metaWon() {
		return false
	}

	bi, si := move.BigIndex(), move.SmallIndex()
	if s.forced != Unrestricted && bi != int(s.forced) {
		return false
	}

	return s.meta[bi] == PlayerNone && s.boards[bi][si] == PlayerNone
}
