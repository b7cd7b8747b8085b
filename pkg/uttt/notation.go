package uttt

import (
	"fmt"
	"strings"
)

const (
	StartingPosition string = "9/9/9/9/9/9/9/9/9 x -"
)

// String notation for the position, much like the FEN representation of a chessboard:
//
//	X/X/X/X/X/X/X/X/X <turn> <forced>
//
// where `X` is one sub-board, cells in index order, 'x' and 'o' for the marks
// and digits for runs of empty cells. For example the sub-board
//
//	o | x | x
//	x | o |
//	o |   |
//
// is written as oxxxo1o2.
//
// <turn> - either 'x' or 'o'
//
// <forced> - sub-board index 0-8 the mover must play in, or '-' if unrestricted
//
// Examples:
//
// * 9/9/9/9/9/9/9/9/9 x -
//
// * 9/9/9/7x1/4xo3/8x/9/4o4/o8 x 0
func (s State) Notation() string {
	builder := strings.Builder{}

	for bi := range s.boards {
		counter := 0
		for _, v := range s.boards[bi] {
			if v == PlayerNone {
				counter++
				continue
			}
			if counter > 0 {
				builder.WriteByte('0' + byte(counter))
				counter = 0
			}
			builder.WriteString(v.String())
		}

		if counter > 0 {
			builder.WriteByte('0' + byte(counter))
		}
		if bi != 8 {
			builder.WriteByte('/')
		}
	}

	builder.WriteByte(' ')
	builder.WriteString(s.mover.String())
	builder.WriteByte(' ')
	if s.forced == Unrestricted {
		builder.WriteByte('-')
	} else {
		builder.WriteByte('0' + byte(s.forced))
	}

	return builder.String()
}

func (s State) String() string {
	return s.Notation()
}

// Create the state from given notation string, the meta board is derived
// from the sub-boards
func ParseNotation(notation string) (State, error) {
	if notation == "startpos" {
		notation = StartingPosition
	}

	fields := strings.Fields(notation)
	if len(fields) != 3 {
		return State{}, fmt.Errorf("%w: expected 3 sections, got %d", ErrInvalidNotation, len(fields))
	}

	squares := strings.Split(fields[0], "/")
	if len(squares) != 9 {
		return State{}, fmt.Errorf("%w: expected 9 sub-boards, got %d", ErrInvalidNotation, len(squares))
	}

	var boards BoardType
	var meta [9]Player
	for bi, square := range squares {
		smallIndex := 0
		for _, v := range square {
			switch {
			case v == 'x' || v == 'o':
				if smallIndex >= 9 {
					return State{}, fmt.Errorf("%w: too many cells in sub-board %d", ErrInvalidNotation, bi)
				}
				boards[bi][smallIndex] = playerFromRune(v)
				smallIndex++
			case '1' <= v && v <= '9':
				smallIndex += int(v - '0')
			default:
				return State{}, fmt.Errorf("%w: unexpected token %q in sub-board %d", ErrInvalidNotation, v, bi)
			}
		}

		if smallIndex != 9 {
			return State{}, fmt.Errorf("%w: sub-board %d has %d cells", ErrInvalidNotation, bi, smallIndex)
		}

		xWon, oWon := CheckLine(boards[bi], PlayerX), CheckLine(boards[bi], PlayerO)
		if xWon && oWon {
			return State{}, fmt.Errorf("%w: sub-board %d won by both players", ErrInvalidNotation, bi)
		}
		if xWon {
			meta[bi] = PlayerX
		} else if oWon {
			meta[bi] = PlayerO
		}
	}

	var mover Player
	switch fields[1] {
	case "x":
		mover = PlayerX
	case "o":
		mover = PlayerO
	default:
		return State{}, fmt.Errorf("%w: invalid side %q", ErrInvalidNotation, fields[1])
	}

	forced := int(Unrestricted)
	if f := fields[2]; len(f) == 1 && f[0] >= '0' && f[0] <= '8' {
		forced = int(f[0] - '0')
	} else if f != "-" {
		return State{}, fmt.Errorf("%w: invalid forced sub-board %q, expected a digit 0-8", ErrInvalidNotation, f)
	}

	s, err := FromParts(boards, meta, forced, mover)
	if err != nil {
		return State{}, fmt.Errorf("%w: %w", ErrInvalidNotation, err)
	}
	return s, nil
}

func playerFromRune(r rune) Player {
	switch r {
	case 'x':
		return PlayerX
	case 'o':
		return PlayerO
	}
	return PlayerNone
}
