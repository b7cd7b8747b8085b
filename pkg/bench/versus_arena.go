package bench

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/record"
	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

/*
Arena benchmark subpackage, allows to play a series of games between two
different engine configurations. Games run in parallel on worker goroutines,
each search is single threaded.
*/

type VersusArena struct {
	VersusArenaStats
	Player1  PlayerConfig
	Player2  PlayerConfig
	NGames   int
	NWorkers int
	recorder *record.Writer
	logger   zerolog.Logger
}

func NewVersusArena(p1, p2 PlayerConfig) *VersusArena {
	return &VersusArena{
		Player1:  p1,
		Player2:  p2,
		NGames:   100,
		NWorkers: 2,
		logger:   zerolog.Nop(),
	}
}

func (va *VersusArena) Setup(nGames, nWorkers int) *VersusArena {
	va.NGames = max(nGames, 0)
	va.NWorkers = max(nWorkers, 1)
	return va
}

// Every finished game is appended to given writer, flushing is left to the caller
func (va *VersusArena) WithRecorder(w *record.Writer) *VersusArena {
	va.recorder = w
	return va
}

func (va *VersusArena) WithLogger(logger zerolog.Logger) *VersusArena {
	va.logger = logger
	return va
}

func (va *VersusArena) summary() VersusSummaryInfo {
	return VersusSummaryInfo{
		TotalGames:       va.Total(),
		P1Wins:           va.P1Wins(),
		P2Wins:           va.P2Wins(),
		Draws:            va.Draws(),
		FirstToMoveWins:  va.FirstToMoveWins(),
		SecondToMoveWins: va.SecondToMoveWins(),
		Workers:          va.NWorkers,
		P1Name:           va.Player1.Name,
		P2Name:           va.Player2.Name,
	}
}

// Play all the games and block until they are done. Cancelling the context
// aborts the running games (they are not counted) and returns the context error
// together with the summary of the finished ones.
func (va *VersusArena) Run(ctx context.Context, listener Listener) (VersusSummaryInfo, error) {
	if listener == nil {
		listener = DefaultListener{}
	}

	// Equally distributed work between the workers
	nWorkers := max(1, min(va.NWorkers, va.NGames))
	nGames := va.NGames / nWorkers
	rest := va.NGames % nWorkers

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < nWorkers; i++ {
		games := nGames
		if i < rest {
			games++
		}
		id := i
		g.Go(func() error {
			return va.worker(gctx, id, games, listener)
		})
	}

	err := g.Wait()
	summary := va.summary()
	listener.Summary(summary)
	if err != nil {
		return summary, err
	}
	return summary, ctx.Err()
}

func (va *VersusArena) worker(ctx context.Context, id, nGames int, listener Listener) error {
	p1 := va.Player1.newEngine(va.logger, id)
	p2 := va.Player2.newEngine(va.logger, id)
	p1.SetContext(ctx)
	p2.SetContext(ctx)

	// colours are drawn per game
	r := mcts.NewRand(mcts.SeedGeneratorFn() + int64(id))
	finished := 0

	for i := 0; i < nGames; i++ {
		p1IsX := r.Intn(2) == 0
		if err := va.playGame(ctx, p1, p2, p1IsX, id, nGames, finished, listener); err != nil {
			return err
		}
		finished++
	}

	listener.OnFinishedWork(VersusWorkerInfo{
		WorkerID:      id,
		NGames:        nGames,
		FinishedGames: finished,
		P1Wins:        va.P1Wins(),
		P2Wins:        va.P2Wins(),
		Draws:         va.Draws(),
		P1Name:        va.Player1.Name,
		P2Name:        va.Player2.Name,
	})
	return nil
}

func (va *VersusArena) playGame(
	ctx context.Context, p1, p2 *mcts.MCTS, p1IsX bool,
	workerID, nGames, finishedGames int, listener Listener,
) error {
	// fresh trees, statistics are kept only within a game
	p1.Reset()
	p2.Reset()

	engines := map[uttt.Player]*mcts.MCTS{uttt.PlayerX: p2, uttt.PlayerO: p1}
	names := map[uttt.Player]string{uttt.PlayerX: va.Player2.Name, uttt.PlayerO: va.Player1.Name}
	if p1IsX {
		engines[uttt.PlayerX], engines[uttt.PlayerO] = p1, p2
		names[uttt.PlayerX], names[uttt.PlayerO] = va.Player1.Name, va.Player2.Name
	}

	game := record.NewGame()
	moves := make([]uttt.Move, 0, 81)
	state := uttt.NewState()

	info := func() VersusWorkerInfo {
		return VersusWorkerInfo{
			WorkerID:      workerID,
			NGames:        nGames,
			FinishedGames: finishedGames,
			GameID:        game.ID(),
			GameMoveNum:   len(moves),
			Moves:         moves,
			State:         state,
			P1IsX:         p1IsX,
			P1Wins:        va.P1Wins(),
			P2Wins:        va.P2Wins(),
			Draws:         va.Draws(),
			P1Name:        va.Player1.Name,
			P2Name:        va.Player2.Name,
		}
	}

	for !state.IsTerminal() {
		if err := ctx.Err(); err != nil {
			return err
		}

		engine := engines[state.Mover()]
		move, err := engine.BestMove(state)
		if err != nil {
			return fmt.Errorf("worker %d: %w", workerID, err)
		}
		// the search may have been interrupted, don't play its move
		if err := ctx.Err(); err != nil {
			return err
		}

		stats, _ := engine.RootStats(state)
		game.Add(state, move, names[state.Mover()], stats.Visits, stats.AvgValue())

		state = state.ApplyMove(move)
		moves = append(moves, move)
		listener.OnMoveMade(info())
	}

	outcome := computeOutcome(state)
	result := toAgentResult(outcome, p1IsX)
	va.add(result, outcome)

	if va.recorder != nil {
		va.recorder.Append(game.Finish(state.Outcome())...)
	}

	done := info()
	done.FinishedGames++
	done.Result = result
	listener.OnFinishedGame(done)
	return nil
}
