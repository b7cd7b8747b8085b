package main

/*

Play Ultimate Tic-Tac-Toe against the engine in the terminal.

Moves are two keypad digits: the first one selects the sub-board, the second
one the cell, laid out like a numeric keypad:

	7 8 9
	4 5 6
	1 2 3

So "79" is the top right cell of the top left sub-board. Other commands:
'ai' lets the engine play for the side to move, 'emoji' prints the board
as emoji shortcodes, 'reset' starts over and 'quit' exits.

*/

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/IlikeChooros/go-uttt/internal/config"
	"github.com/IlikeChooros/go-uttt/pkg/render"
	"github.com/IlikeChooros/go-uttt/pkg/session"
	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

type game struct {
	ctrl *session.Controller
	out  io.Writer
	last uttt.Move
}

func (g *game) show() {
	if err := render.Terminal(g.out, g.ctrl.State(), render.WithLastMove(g.last), render.WithStatus()); err != nil {
		fmt.Fprintln(g.out, err)
	}
}

// Announce the result and start a new game, returns false if the game goes on
func (g *game) gameOver() bool {
	outcome := g.ctrl.IsTerminal()
	if !outcome.Terminal() {
		return false
	}

	if winner := outcome.Winner(); winner != uttt.PlayerNone {
		fmt.Fprintf(g.out, "Player %s wins!\n", winner)
	} else {
		fmt.Fprintln(g.out, "Draw!")
	}
	g.ctrl.Reset()
	g.last = uttt.MoveIllegal
	fmt.Fprintln(g.out, "Game has been reset.")
	g.show()
	return true
}

func (g *game) engineTurn(ctx context.Context) error {
	analysis, err := g.ctrl.PlayBestMove(ctx)
	if err != nil {
		return err
	}
	g.last = analysis.Move

	fmt.Fprintf(g.out, "AI simulations: %d\n", analysis.Visits)
	fmt.Fprintf(g.out, "AI evaluation before: %.4f\n", analysis.Eval)
	if !math.IsNaN(analysis.EvalAfter) {
		fmt.Fprintf(g.out, "AI evaluation after: %.4f\n", analysis.EvalAfter)
	}
	fmt.Fprintf(g.out, "AI plays %s (%s), pv: %v\n",
		session.KeypadString(analysis.Move), analysis.Move, analysis.Pv)
	g.show()
	return nil
}

func (g *game) humanTurn(ctx context.Context, input string) error {
	move, err := session.ParseKeypad(input)
	if err != nil {
		return err
	}
	if _, err := g.ctrl.SubmitMove(move); err != nil {
		return err
	}
	g.last = move
	fmt.Fprintln(g.out, "You played:")
	g.show()

	if g.gameOver() {
		return nil
	}
	if err := g.engineTurn(ctx); err != nil {
		return err
	}
	g.gameOver()
	return nil
}

func main() {
	cfg, err := config.Parse("uttt", os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := cfg.Logger(os.Stderr)
	g := &game{
		ctrl: session.NewController(logger, cfg.EngineOptions(logger)...),
		out:  os.Stdout,
		last: uttt.MoveIllegal,
	}

	fmt.Println("Ultimate Tic-Tac-Toe, you play x. Type two keypad digits to move, 'quit' to exit.")
	g.show()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}

		cmd := strings.TrimPrefix(strings.TrimSpace(scanner.Text()), ".")
		switch cmd {
		case "":
			continue
		case "quit", "exit":
			return
		case "reset":
			g.ctrl.Reset()
			g.last = uttt.MoveIllegal
			fmt.Println("Game has been reset.")
			g.show()
		case "emoji":
			fmt.Print(render.Emoji(g.ctrl.State()))
		case "ai":
			if err := g.engineTurn(ctx); err != nil {
				fmt.Println(err)
				continue
			}
			g.gameOver()
		default:
			err := g.humanTurn(ctx, cmd)
			switch {
			case errors.Is(err, uttt.ErrIllegalMove):
				fmt.Println("Invalid play, please try again.")
			case err != nil:
				fmt.Println(err)
			}
		}

		if ctx.Err() != nil {
			return
		}
	}
}
