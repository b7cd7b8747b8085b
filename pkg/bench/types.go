package bench

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/IlikeChooros/go-uttt/pkg/mcts"
	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

type VersusMatchResult int

const (
	VersusPl1Win VersusMatchResult = 1
	VersusPl2Win VersusMatchResult = -1
	VersusDraw   VersusMatchResult = 0
)

func (r VersusMatchResult) String() string {
	switch r {
	case VersusPl1Win:
		return "player1"
	case VersusPl2Win:
		return "player2"
	}
	return "draw"
}

// Engine configuration of one arena player
type PlayerConfig struct {
	Name        string
	Limits      *mcts.Limits
	Exploration float64 // 0 uses mcts.ExplorationParam
	Seed        int64   // 0 uses mcts.SeedGeneratorFn
}

func (pc PlayerConfig) newEngine(logger zerolog.Logger, workerID int) *mcts.MCTS {
	opts := []mcts.Option{mcts.WithLogger(logger)}
	if pc.Limits != nil {
		// each engine gets its own copy, the limiter keeps a pointer
		limits := *pc.Limits
		opts = append(opts, mcts.WithLimits(&limits))
	}
	if pc.Exploration > 0 {
		opts = append(opts, mcts.WithExplorationParam(pc.Exploration))
	}

	seed := pc.Seed
	if seed == 0 {
		seed = mcts.SeedGeneratorFn()
	}
	opts = append(opts, mcts.WithSeed(seed+int64(workerID)))
	return mcts.NewMCTS(opts...)
}

// Results of the finished games, safe for concurrent use
type VersusArenaStats struct {
	p1Wins, p2Wins, draws             atomic.Uint32
	firstToMoveWins, secondToMoveWins atomic.Uint32
}

func (vas *VersusArenaStats) Total() int {
	return vas.P1Wins() + vas.P2Wins() + vas.Draws()
}

func (vas *VersusArenaStats) P1Wins() int           { return int(vas.p1Wins.Load()) }
func (vas *VersusArenaStats) P2Wins() int           { return int(vas.p2Wins.Load()) }
func (vas *VersusArenaStats) Draws() int            { return int(vas.draws.Load()) }
func (vas *VersusArenaStats) FirstToMoveWins() int  { return int(vas.firstToMoveWins.Load()) }
func (vas *VersusArenaStats) SecondToMoveWins() int { return int(vas.secondToMoveWins.Load()) }

func (vas *VersusArenaStats) add(result VersusMatchResult, outcome GameOutcome) {
	switch result {
	case VersusDraw:
		vas.draws.Add(1)
		return
	case VersusPl1Win:
		vas.p1Wins.Add(1)
	case VersusPl2Win:
		vas.p2Wins.Add(1)
	}

	if outcome.FirstPlayerWon {
		vas.firstToMoveWins.Add(1)
	} else {
		vas.secondToMoveWins.Add(1)
	}
}

type VersusWorkerInfo struct {
	WorkerID      int
	NGames        int // games assigned to this worker
	FinishedGames int // games finished by this worker
	GameID        string
	GameMoveNum   int
	Moves         []uttt.Move
	State         uttt.State
	P1IsX         bool
	Result        VersusMatchResult // valid in OnFinishedGame
	P1Wins        int
	P2Wins        int
	Draws         int
	P1Name        string
	P2Name        string
}

type VersusSummaryInfo struct {
	TotalGames       int    `json:"total_games"`
	P1Wins           int    `json:"player1_wins"`
	P2Wins           int    `json:"player2_wins"`
	FirstToMoveWins  int    `json:"first_to_move_wins"`
	SecondToMoveWins int    `json:"second_to_move_wins"`
	Draws            int    `json:"draws"`
	Workers          int    `json:"workers"`
	P1Name           string `json:"player1_name"`
	P2Name           string `json:"player2_name"`
}

// represents result from the first-player's perspective in a single game
type GameOutcome struct {
	FirstPlayerWon bool
	IsDraw         bool
}

// maps a game outcome to which agent won, given player assignments
func toAgentResult(outcome GameOutcome, p1WentFirst bool) VersusMatchResult {
	if outcome.IsDraw {
		return VersusDraw
	}

	if p1WentFirst == outcome.FirstPlayerWon {
		return VersusPl1Win
	}
	return VersusPl2Win
}

// determines winner based on the final state, x always moves first
func computeOutcome(state uttt.State) GameOutcome {
	outcome := state.Outcome()
	if !outcome.Terminal() {
		panic("computeOutcome: position not terminated")
	}

	if outcome == uttt.OutcomeDraw {
		return GameOutcome{IsDraw: true}
	}
	return GameOutcome{FirstPlayerWon: outcome == uttt.OutcomeX}
}
