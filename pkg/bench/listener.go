package bench

import (
	"github.com/rs/zerolog"
)

// Receives arena progress. Methods are called from the worker goroutines,
// so implementations must be safe for concurrent use.
type Listener interface {
	OnMoveMade(info VersusWorkerInfo)
	OnFinishedGame(info VersusWorkerInfo)
	OnFinishedWork(info VersusWorkerInfo)
	Summary(summary VersusSummaryInfo)
}

// Ignores every event
type DefaultListener struct{}

func (DefaultListener) OnMoveMade(VersusWorkerInfo)     {}
func (DefaultListener) OnFinishedGame(VersusWorkerInfo) {}
func (DefaultListener) OnFinishedWork(VersusWorkerInfo) {}
func (DefaultListener) Summary(VersusSummaryInfo)       {}

// Logs finished games and the final summary
type LogListener struct {
	DefaultListener
	Logger zerolog.Logger
}

func (l LogListener) OnFinishedGame(info VersusWorkerInfo) {
	l.Logger.Info().
		Int("worker", info.WorkerID).
		Str("game", info.GameID).
		Int("moves", info.GameMoveNum).
		Stringer("winner", info.Result).
		Bool("p1_x", info.P1IsX).
		Int("p1_wins", info.P1Wins).
		Int("p2_wins", info.P2Wins).
		Int("draws", info.Draws).
		Msg("game finished")
}

func (l LogListener) OnFinishedWork(info VersusWorkerInfo) {
	l.Logger.Debug().
		Int("worker", info.WorkerID).
		Int("games", info.FinishedGames).
		Msg("worker done")
}

func (l LogListener) Summary(s VersusSummaryInfo) {
	l.Logger.Info().
		Int("games", s.TotalGames).
		Str("p1", s.P1Name).
		Int("p1_wins", s.P1Wins).
		Str("p2", s.P2Name).
		Int("p2_wins", s.P2Wins).
		Int("draws", s.Draws).
		Int("first_to_move_wins", s.FirstToMoveWins).
		Int("second_to_move_wins", s.SecondToMoveWins).
		Msg("arena summary")
}
