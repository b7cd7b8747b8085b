package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

type options struct {
	profile    termenv.Profile
	hasProfile bool
	lastMove   uttt.Move
	status     bool
}

type Option func(*options)

// Force the colour profile, by default it's detected from the writer
func WithProfile(p termenv.Profile) Option {
	return func(o *options) {
		o.profile = p
		o.hasProfile = true
	}
}

// Underline the cell of the last played move
func WithLastMove(m uttt.Move) Option {
	return func(o *options) { o.lastMove = m }
}

// Print the mover, forced sub-board and outcome below the board
func WithStatus() Option {
	return func(o *options) { o.status = true }
}

const _separator = "-------+-------+-------"

// Write the 9x9 grid to w. X marks are blue, O marks are red, cells of a won
// sub-board are filled with the winner's colour, and the empty cells of the
// forced sub-board are yellow.
func Terminal(w io.Writer, s uttt.State, opts ...Option) error {
	o := options{lastMove: uttt.MoveIllegal}
	for _, opt := range opts {
		opt(&o)
	}

	var out *termenv.Output
	if o.hasProfile {
		out = termenv.NewOutput(w, termenv.WithProfile(o.profile))
	} else {
		out = termenv.NewOutput(w)
	}

	forced, isForced := s.Forced()
	b := strings.Builder{}
	for row := 0; row < 9; row++ {
		if row != 0 && row%3 == 0 {
			b.WriteString(_separator)
			b.WriteByte('\n')
		}

		for col := 0; col < 9; col++ {
			if col != 0 && col%3 == 0 {
				b.WriteString(" |")
			}
			big := (row/3)*3 + col/3
			small := (row%3)*3 + col%3

			b.WriteByte(' ')
			b.WriteString(cell(out, s, big, small, isForced && forced == big, o.lastMove))
		}
		b.WriteByte('\n')
	}

	if o.status {
		b.WriteString(status(s))
		b.WriteByte('\n')
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func cell(out *termenv.Output, s uttt.State, big, small int, forced bool, last uttt.Move) string {
	p := s.Cell(big, small)
	text := "."
	switch p {
	case uttt.PlayerX:
		text = "X"
	case uttt.PlayerO:
		text = "O"
	}

	style := out.String(text)
	switch s.SubBoardStatus(big) {
	case uttt.SubBoardWonX:
		style = style.Background(out.Color("4")).Foreground(out.Color("15"))
	case uttt.SubBoardWonO:
		style = style.Background(out.Color("1")).Foreground(out.Color("15"))
	default:
		switch {
		case p == uttt.PlayerX:
			style = style.Foreground(out.Color("12")).Bold()
		case p == uttt.PlayerO:
			style = style.Foreground(out.Color("9")).Bold()
		case forced:
			style = style.Foreground(out.Color("11"))
		default:
			style = style.Faint()
		}
	}

	if last.Valid() && last == uttt.MakeMove(big, small) {
		style = style.Underline()
	}
	return style.String()
}

// One line summary of the state
func status(s uttt.State) string {
	if outcome := s.Outcome(); outcome.Terminal() {
		if outcome == uttt.OutcomeDraw {
			return "draw"
		}
		return fmt.Sprintf("%s wins", outcome.Winner())
	}

	if forced, ok := s.Forced(); ok {
		return fmt.Sprintf("%s to move in %s", s.Mover(), boardName(forced))
	}
	return fmt.Sprintf("%s to move anywhere", s.Mover())
}

// Sub-board name in the same coordinates as the move notation, "A3" is the top left
func boardName(big int) string {
	return string([]byte{'A' + byte(big%3), '3' - byte(big/3)})
}
