package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

func TestTerminalAscii(t *testing.T) {
	s := uttt.NewState().ApplyMove(uttt.MakeMove(0, 4)).ApplyMove(uttt.MakeMove(4, 8))

	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, s, WithProfile(termenv.Ascii), WithStatus()))

	want := strings.Join([]string{
		" . . . | . . . | . . .",
		" . X . | . . . | . . .",
		" . . . | . . . | . . .",
		_separator,
		" . . . | . . . | . . .",
		" . . . | . . . | . . .",
		" . . . | . . O | . . .",
		_separator,
		" . . . | . . . | . . .",
		" . . . | . . . | . . .",
		" . . . | . . . | . . .",
		"x to move in C1",
		"",
	}, "\n")
	require.Equal(t, want, buf.String())
}

func TestTerminalColours(t *testing.T) {
	s := uttt.NewState().ApplyMove(uttt.MakeMove(0, 4))

	var buf bytes.Buffer
	require.NoError(t, Terminal(&buf, s, WithProfile(termenv.ANSI256), WithLastMove(uttt.MakeMove(0, 4))))
	require.Contains(t, buf.String(), "\x1b[")
	require.Contains(t, buf.String(), "X")
}

func TestStatus(t *testing.T) {
	require.Equal(t, "x to move anywhere", status(uttt.NewState()))

	var meta [9]uttt.Player
	meta[2], meta[4], meta[6] = uttt.PlayerO, uttt.PlayerO, uttt.PlayerO
	s, err := uttt.FromParts(uttt.BoardType{}, meta, int(uttt.Unrestricted), uttt.PlayerX)
	require.NoError(t, err)
	require.Equal(t, "o wins", status(s))
}

func TestEmoji(t *testing.T) {
	s := uttt.NewState().ApplyMove(uttt.MakeMove(0, 4))
	lines := strings.Split(Emoji(s), "\n")

	// 9 rows, 2 blank separators, trailing newline
	require.Len(t, lines, 12)
	require.Equal(t, "", lines[3])
	require.Equal(t, "", lines[7])

	empty3 := strings.Repeat(_emojiEmpty, 3)
	forced3 := strings.Repeat(_emojiForced, 3)
	require.Equal(t, _emojiEmpty+_emojiX+_emojiEmpty+_emojiGap+empty3+_emojiGap+empty3, lines[1])
	require.Equal(t, empty3+_emojiGap+forced3+_emojiGap+empty3, lines[4])
}

func TestEmojiWonBoard(t *testing.T) {
	var boards uttt.BoardType
	boards[0][0], boards[0][1], boards[0][2] = uttt.PlayerX, uttt.PlayerX, uttt.PlayerX
	boards[3][0], boards[3][4] = uttt.PlayerO, uttt.PlayerO
	var meta [9]uttt.Player
	meta[0] = uttt.PlayerX

	s, err := uttt.FromParts(boards, meta, int(uttt.Unrestricted), uttt.PlayerO)
	require.NoError(t, err)

	lines := strings.Split(Emoji(s), "\n")
	for _, line := range lines[:3] {
		require.True(t, strings.HasPrefix(line, strings.Repeat(_emojiWonX, 3)+_emojiGap), line)
	}
	require.Equal(t, 0, strings.Count(Emoji(s), _emojiForced))
	require.Equal(t, 2, strings.Count(Emoji(s), _emojiO))
}
