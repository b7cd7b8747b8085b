package session

import (
	"errors"
	"fmt"
	"strings"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

var ErrInvalidKeypad = errors.New("invalid keypad input")

// Numeric keypad layout, the top row (7 8 9) maps to the indices 0 1 2
var _keypadToIndex = [10]int{-1, 6, 7, 8, 3, 4, 5, 0, 1, 2}

var _indexToKeypad = [9]byte{'7', '8', '9', '4', '5', '6', '1', '2', '3'}

// Parse two keypad digits, the first selects the sub-board, the second the cell.
// For example "79" is the top right cell of the top left sub-board.
func ParseKeypad(input string) (uttt.Move, error) {
	input = strings.TrimSpace(input)
	if len(input) != 2 {
		return uttt.MoveIllegal, fmt.Errorf("%w: %q, expected two digits", ErrInvalidKeypad, input)
	}

	var idx [2]int
	for i := range idx {
		d := input[i]
		if d < '1' || d > '9' {
			return uttt.MoveIllegal, fmt.Errorf("%w: %q, digits must be in 1-9", ErrInvalidKeypad, input)
		}
		idx[i] = _keypadToIndex[d-'0']
	}

	return uttt.MakeMove(idx[0], idx[1]), nil
}

// Keypad digit of given sub-board or cell index
func KeypadDigit(index int) byte {
	if index < 0 || index > 8 {
		return '?'
	}
	return _indexToKeypad[index]
}

// Keypad form of the move, inverse of ParseKeypad
func KeypadString(move uttt.Move) string {
	if !move.Valid() {
		return ""
	}
	return string([]byte{KeypadDigit(move.BigIndex()), KeypadDigit(move.SmallIndex())})
}
