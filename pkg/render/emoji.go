package render

import (
	"strings"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

const (
	_emojiX      = ":blue_square:"
	_emojiO      = ":red_square:"
	_emojiWonX   = ":blue_circle:"
	_emojiWonO   = ":red_circle:"
	_emojiForced = ":yellow_square:"
	_emojiEmpty  = ":white_large_square:"
	_emojiGap    = "      "
)

// Chat friendly board made of emoji shortcodes, one line per board row with
// an empty line between the sub-board rows. Won sub-boards are drawn with
// circles, the playable cells of the forced sub-board in yellow.
func Emoji(s uttt.State) string {
	forced, isForced := s.Forced()
	b := strings.Builder{}

	for row := 0; row < 9; row++ {
		if row != 0 && row%3 == 0 {
			b.WriteByte('\n')
		}
		for col := 0; col < 9; col++ {
			if col != 0 && col%3 == 0 {
				b.WriteString(_emojiGap)
			}
			big := (row/3)*3 + col/3
			small := (row%3)*3 + col%3
			b.WriteString(emojiCell(s, big, small, isForced && forced == big))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func emojiCell(s uttt.State, big, small int, forced bool) string {
	switch s.Meta()[big] {
	case uttt.PlayerX:
		return _emojiWonX
	case uttt.PlayerO:
		return _emojiWonO
	}

	switch s.Cell(big, small) {
	case uttt.PlayerX:
		return _emojiX
	case uttt.PlayerO:
		return _emojiO
	}
	if forced {
		return _emojiForced
	}
	return _emojiEmpty
}
