package session

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

var ErrGameOver = errors.New("game is over")

// Result of an engine turn. Evals are average values in [-1, 1], each one
// from the perspective of the player to move in the evaluated state.
type Analysis struct {
	Move       uttt.Move
	Visits     int64   // root visits, accumulated over the whole session
	Eval       float64 // root eval, before the move
	EvalAfter  float64 // eval of the resulting state, NaN if it was never visited
	Cycles     int     // iterations run by this search
	Pv         []uttt.Move
	StopReason mcts.StopReason
}

// Controller owns one game: the current root state, the played moves and a
// search tree reused between the engine turns. Not safe for concurrent use.
type Controller struct {
	engine  *mcts.MCTS
	state   uttt.State
	history []uttt.Move
	logger  zerolog.Logger
}

// Create a controller at the starting position, opts configure the engine
func NewController(logger zerolog.Logger, opts ...mcts.Option) *Controller {
	opts = append(opts, mcts.WithLogger(logger))
	return &Controller{
		engine:  mcts.NewMCTS(opts...),
		state:   uttt.NewState(),
		history: make([]uttt.Move, 0, 81),
		logger:  logger,
	}
}

// Back to the starting position, all search statistics are dropped
func (c *Controller) Reset() {
	c.engine.Reset()
	c.state = uttt.NewState()
	c.history = c.history[:0]
	c.logger.Debug().Msg("session reset")
}

func (c *Controller) State() uttt.State {
	return c.state
}

// Moves played since the last reset
func (c *Controller) History() []uttt.Move {
	return append([]uttt.Move(nil), c.history...)
}

// Outcome of the current state, OutcomeOngoing while the game goes on
func (c *Controller) IsTerminal() uttt.Outcome {
	return c.state.Outcome()
}

func (c *Controller) Engine() *mcts.MCTS {
	return c.engine
}

// Play a move for the current mover
func (c *Controller) SubmitMove(move uttt.Move) (uttt.State, error) {
	if c.state.IsTerminal() {
		return c.state, ErrGameOver
	}

	next, err := c.state.TryApplyMove(move)
	if err != nil {
		return c.state, err
	}

	c.state = next
	c.history = append(c.history, move)
	return c.state, nil
}

// Search the current state and return the engine's choice, without playing it
func (c *Controller) RequestBestMove(ctx context.Context) (Analysis, error) {
	if c.state.IsTerminal() {
		return Analysis{}, ErrGameOver
	}

	c.engine.SetContext(ctx)
	defer c.engine.SetContext(nil)

	move, err := c.engine.BestMove(c.state)
	if err != nil {
		return Analysis{}, fmt.Errorf("best move: %w", err)
	}

	stats, _ := c.engine.RootStats(c.state)
	analysis := Analysis{
		Move:       move,
		Visits:     stats.Visits,
		Eval:       stats.AvgValue(),
		EvalAfter:  math.NaN(),
		Cycles:     c.engine.Cycles(),
		Pv:         c.engine.Pv(c.state),
		StopReason: c.engine.StopReason(),
	}
	if after, ok := c.engine.RootStats(c.state.ApplyMove(move)); ok && after.Visits > 0 {
		analysis.EvalAfter = after.AvgValue()
	}

	c.logger.Info().
		Stringer("move", move).
		Int64("visits", analysis.Visits).
		Float64("eval", analysis.Eval).
		Int("cycles", analysis.Cycles).
		Stringer("stop", analysis.StopReason).
		Msg("engine move")
	return analysis, nil
}

// Search and play the engine's move
func (c *Controller) PlayBestMove(ctx context.Context) (Analysis, error) {
	analysis, err := c.RequestBestMove(ctx)
	if err != nil {
		return analysis, err
	}

	if _, err := c.SubmitMove(analysis.Move); err != nil {
		return analysis, err
	}
	return analysis, nil
}
