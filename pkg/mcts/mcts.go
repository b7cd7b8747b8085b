package mcts

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"slices"

	"github.com/rs/zerolog"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

type TreeStats struct {
	maxdepth int
	cps      uint32
	cycles   int
}

// Single threaded Monte Carlo Tree Search over Ultimate Tic Tac Toe states.
// The tree (memo store) is kept between searches, so statistics accumulate
// across all the moves of a session. Not safe for concurrent use.
type MCTS struct {
	TreeStats
	Tree             *Tree
	Limiter          *Limiter
	listener         *StatsListener
	random           *rand.Rand
	explorationParam float64
	logger           zerolog.Logger
	root             NodeID

	// scratch buffers, reused between iterations
	movelist   uttt.MoveList
	childStats []NodeStats
	candidates []NodeID
}

type Option func(*MCTS)

// Set the exploration constant of UCB1
func WithExplorationParam(c float64) Option {
	return func(m *MCTS) { m.SetExplorationParam(c) }
}

// Use given random generator for the unvisited child choice and the rollouts
func WithRand(r *rand.Rand) Option {
	return func(m *MCTS) {
		if r != nil {
			m.random = r
		}
	}
}

// Seed the default (Mersenne Twister) random generator
func WithSeed(seed int64) Option {
	return func(m *MCTS) { m.random = NewRand(seed) }
}

func WithLimits(limits *Limits) Option {
	return func(m *MCTS) {
		if limits != nil {
			m.Limiter.SetLimits(limits)
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *MCTS) { m.logger = logger }
}

func WithListener(listener StatsListener) Option {
	return func(m *MCTS) { m.SetListener(listener) }
}

// Create new, empty tree
func NewMCTS(opts ...Option) *MCTS {
	listener := NewStatsListener()
	m := &MCTS{
		Tree:             NewTree(),
		Limiter:          NewLimiter(DefaultLimits()),
		listener:         &listener,
		explorationParam: ExplorationParam,
		logger:           zerolog.Nop(),
		root:             NoNode,
		childStats:       make([]NodeStats, 0, 81),
		candidates:       make([]NodeID, 0, 81),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.random == nil {
		m.random = NewRand(SeedGeneratorFn())
	}

	return m
}

func (mcts *MCTS) SetExplorationParam(c float64) {
	mcts.explorationParam = max(0, c)
}

func (mcts *MCTS) ExplorationParam() float64 {
	return mcts.explorationParam
}

func (mcts *MCTS) ResetListener() {
	mcts.listener.OnCycle(nil).OnDepth(nil).OnStop(nil)
}

func (mcts *MCTS) StatsListener() *StatsListener {
	return mcts.listener
}

func (mcts *MCTS) SetListener(listener StatsListener) {
	*mcts.listener = listener
}

// Adds custom context to the limiter, enabling cancellation through it
//
// Example:
//
//	ctx, cancel := context.WithCancel(context.Background())
//
//	tree.SetContext(ctx)
//	go func() {
//	    time.Sleep(2 * time.Second)
//	    cancel() // Cancel the search after 2 seconds
//	}()
//
//	tree.BestMove(state)
func (mcts *MCTS) SetContext(ctx context.Context) {
	mcts.Limiter.SetContext(ctx)
}

// Stop the search, checked between iterations
func (mcts *MCTS) Stop() {
	mcts.Limiter.SetStop(true)
}

// Maxiumum depth reached during the last search, note that usually MaxDepth != len(pv)
func (mcts *MCTS) MaxDepth() int {
	return mcts.maxdepth
}

// Total number of iterations ran during the last search
func (mcts *MCTS) Cycles() int {
	return mcts.cycles
}

// Get cycles per second statistic
func (mcts *MCTS) Cps() uint32 {
	return mcts.cps
}

// Get the reason why the search was stopped, valid after search ends
func (mcts *MCTS) StopReason() StopReason {
	return mcts.Limiter.StopReason()
}

func (mcts *MCTS) SetLimits(limits *Limits) {
	mcts.Limiter.SetLimits(limits)
}

func (mcts *MCTS) Limits() *Limits {
	return mcts.Limiter.Limits()
}

// Discard every statistic, the tree starts from scratch
func (mcts *MCTS) Reset() {
	mcts.Tree.Reset()
	mcts.root = NoNode
	mcts.TreeStats = TreeStats{}
}

func (mcts *MCTS) String() string {
	return fmt.Sprintf("MCTS={Size=%d, Tracked=%d, Stats:{maxdepth=%d, cps=%d, cycles=%d}, Limits=%v}",
		mcts.Tree.Size(), mcts.Tree.Tracked(), mcts.MaxDepth(), mcts.Cps(), mcts.Cycles(), mcts.Limits())
}

// Visits and value of given state, ok is false if the search never reached it
func (mcts *MCTS) RootStats(state uttt.State) (NodeStats, bool) {
	return mcts.Tree.Stats(state)
}

// Index of the most visited child, scanning in move order with later
// ties winning. Returns -1 if no child was visited.
func (mcts *MCTS) bestChild(id NodeID) int {
	var threshold int64 = 0
	best := -1
	for i, child := range mcts.Tree.Children(id) {
		v := mcts.Tree.NodeStats(child).Visits
		if !mcts.Tree.IsTracked(child) || v == 0 {
			continue
		}
		if v >= threshold {
			threshold = v
			best = i
		}
	}
	return best
}

// Get the principal variation (ie. the best sequence of moves) from given node
func (mcts *MCTS) pv(id NodeID) (moves []uttt.Move, terminal bool) {
	moves = make([]uttt.Move, 0, mcts.maxdepth+1)
	for {
		if mcts.Tree.Outcome(id).Terminal() {
			return moves, true
		}

		i := mcts.bestChild(id)
		if i < 0 {
			return moves, false
		}
		moves = append(moves, mcts.Tree.Moves(id)[i])
		id = mcts.Tree.Children(id)[i]
	}
}

// Principal variation from given state, following the most visited children
func (mcts *MCTS) Pv(state uttt.State) []uttt.Move {
	id, ok := mcts.Tree.Lookup(state)
	if !ok {
		return nil
	}
	moves, _ := mcts.pv(id)
	return moves
}

// Returns 'n' best lines of the last searched root, ordered by visits
func (mcts *MCTS) MultiPv(n int) []SearchLine {
	if mcts.root == NoNode {
		return nil
	}

	moves := mcts.Tree.Moves(mcts.root)
	children := mcts.Tree.Children(mcts.root)
	order := make([]int, 0, len(children))
	for i, child := range children {
		if mcts.Tree.IsTracked(child) {
			order = append(order, i)
		}
	}

	// later moves first on equal visits, same as RootMove
	slices.SortFunc(order, func(a, b int) int {
		va, vb := mcts.Tree.NodeStats(children[a]).Visits, mcts.Tree.NodeStats(children[b]).Visits
		if va < vb {
			return 1
		} else if va > vb {
			return -1
		}
		return b - a
	})

	lines := make([]SearchLine, 0, min(n, len(order)))
	for _, i := range order[:min(n, len(order))] {
		child := children[i]
		stats := mcts.Tree.NodeStats(child)
		pv, terminal := mcts.pv(child)
		lines = append(lines, SearchLine{
			BestMove: moves[i],
			Moves:    append([]uttt.Move{moves[i]}, pv...),
			// child's value is from the opponent's perspective
			Eval:     -stats.AvgValue(),
			Visits:   stats.Visits,
			Terminal: terminal,
			Draw:     terminal && mcts.leafOutcome(child, pv) == uttt.OutcomeDraw,
		})
	}
	return lines
}

func (mcts *MCTS) leafOutcome(id NodeID, pv []uttt.Move) uttt.Outcome {
	for _, m := range pv {
		i := slices.Index(mcts.Tree.Moves(id), m)
		id = mcts.Tree.Children(id)[i]
	}
	return mcts.Tree.Outcome(id)
}

// Current evaluation of the searched root, from its mover's perspective, NaN if never visited
func (mcts *MCTS) RootScore() float64 {
	if mcts.root == NoNode || mcts.Tree.NodeStats(mcts.root).Visits == 0 {
		return math.NaN()
	}
	return mcts.Tree.NodeStats(mcts.root).AvgValue()
}
