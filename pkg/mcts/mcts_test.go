package mcts

import (
	"context"
	"fmt"
	"math"
	"os"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

func TestMain(m *testing.M) {
	SetSeedGeneratorFn(func() int64 {
		return 42
	})
	fmt.Printf("Using seed %d\n", SeedGeneratorFn())

	os.Exit(m.Run())
}

func cyclesLimit(cycles uint32) *Limits {
	return InfiniteLimits().SetCycles(cycles)
}

// X owns sub-boards 0 and 4, and must play in sub-board 8 where the
// cell 8 completes the diagonal of both sub-board 8 and the meta board.
func winInOne(t *testing.T) uttt.State {
	t.Helper()
	var boards uttt.BoardType
	for _, c := range []int{0, 1, 2} {
		boards[0][c] = uttt.PlayerX
	}
	for _, c := range []int{3, 4, 5} {
		boards[4][c] = uttt.PlayerX
	}
	boards[8][0], boards[8][4] = uttt.PlayerX, uttt.PlayerX
	boards[8][1], boards[8][2] = uttt.PlayerO, uttt.PlayerO
	boards[1][0], boards[1][1], boards[2][0], boards[3][0] = uttt.PlayerO, uttt.PlayerO, uttt.PlayerO, uttt.PlayerO

	var meta [9]uttt.Player
	meta[0], meta[4] = uttt.PlayerX, uttt.PlayerX

	s, err := uttt.FromParts(boards, meta, 8, uttt.PlayerX)
	require.NoError(t, err)
	return s
}

func TestUCB1Select(t *testing.T) {
	c := ExplorationParam

	// child value is from the opponent's view, so the -5 child is the better one
	children := []NodeStats{{Visits: 10, Value: -5}, {Visits: 10, Value: 5}}
	require.Equal(t, 0, UCB1Select(20, children, c))

	// later ties win
	children = []NodeStats{{Visits: 10, Value: 2}, {Visits: 10, Value: 2}}
	require.Equal(t, 1, UCB1Select(20, children, c))

	// unvisited children are always picked first
	children = []NodeStats{{Visits: 10, Value: -10}, {}, {Visits: 3, Value: 0}}
	require.Equal(t, 1, UCB1Select(13, children, c))
	require.True(t, math.IsInf(UCB1Score(13, NodeStats{}, c), 1))

	require.Equal(t, -1, UCB1Select(0, nil, c))
}

func TestUCB1Score(t *testing.T) {
	score := UCB1Score(100, NodeStats{Visits: 10, Value: -4}, 1.0)
	want := 0.4 + math.Sqrt(math.Log(100)/10)
	require.InDelta(t, want, score, 1e-12)

	// without exploration it's just the negated average
	require.InDelta(t, -0.5, UCB1Score(100, NodeStats{Visits: 4, Value: 2}, 0), 1e-12)
}

func TestUCB1ScoreUnvisitedParent(t *testing.T) {
	score := UCB1Score(0, NodeStats{Visits: 1, Value: 1}, ExplorationParam)
	require.False(t, math.IsNaN(score))
	require.InDelta(t, -1.0, score, 1e-12)

	children := []NodeStats{{Visits: 1, Value: 1}, {Visits: 1, Value: -1}}
	require.Equal(t, 1, UCB1Select(0, children, ExplorationParam))
}

// Every child of the root was already reached through other lines,
// while the root itself has no visits yet
func TestSearchFromUnvisitedRoot(t *testing.T) {
	root := uttt.NewState().ApplyMove(uttt.MakeMove(0, 4))
	tree := NewMCTS(WithLimits(cyclesLimit(50)), WithSeed(2))
	for _, m := range root.LegalMoves() {
		id := tree.Tree.Track(root.ApplyMove(m))
		tree.Tree.update(id, uttt.OutcomeDraw)
	}
	_, ok := tree.RootStats(root)
	require.False(t, ok)

	var move uttt.Move
	var err error
	require.NotPanics(t, func() {
		move, err = tree.BestMove(root)
	})
	require.NoError(t, err)
	require.Contains(t, root.LegalMoves(), move)

	stats, ok := tree.RootStats(root)
	require.True(t, ok)
	require.Equal(t, int64(50), stats.Visits)
}

func TestBestMoveIsLegal(t *testing.T) {
	tree := NewMCTS(WithLimits(cyclesLimit(300)), WithSeed(1))
	state := uttt.NewState()

	for !state.IsTerminal() {
		move, err := tree.BestMove(state)
		require.NoError(t, err)
		require.True(t, state.IsLegal(move), "move %v is not legal in %s", move, state.Notation())
		require.Contains(t, state.LegalMoves(), move)
		state = state.ApplyMove(move)
	}

	_, err := tree.BestMove(state)
	require.ErrorIs(t, err, ErrNoLegalMoves)
}

func TestBestMoveZeroBudget(t *testing.T) {
	state := uttt.NewState().ApplyMove(uttt.MakeMove(0, 4))

	tree := NewMCTS(WithLimits(InfiniteLimits().SetMovetime(0)))
	move, err := tree.BestMove(state)
	require.NoError(t, err)
	require.Equal(t, 0, tree.Cycles())
	require.Equal(t, state.LegalMoves()[0], move)
	require.Equal(t, uttt.MakeMove(4, 0), move)

	tree = NewMCTS(WithLimits(cyclesLimit(0)))
	move, err = tree.BestMove(state)
	require.NoError(t, err)
	require.Equal(t, uttt.MakeMove(4, 0), move)
	require.Equal(t, StopCycles, tree.StopReason())
}

func TestRootMoveTies(t *testing.T) {
	root := uttt.NewState().ApplyMove(uttt.MakeMove(0, 4))

	// visits per root child index, children left out stay untracked
	setup := func(visits map[int]int) *MCTS {
		tree := NewMCTS(WithLimits(cyclesLimit(0)))
		children := tree.Tree.Children(tree.Tree.Track(root))
		for i, n := range visits {
			tree.Tree.track(children[i])
			for j := 0; j < n; j++ {
				tree.Tree.update(children[i], uttt.OutcomeDraw)
			}
		}
		return tree
	}

	cases := []struct {
		name   string
		visits map[int]int
		want   uttt.Move
	}{
		{"later tie wins", map[int]int{2: 1, 5: 1}, uttt.MakeMove(4, 5)},
		{"tracked without visits is skipped", map[int]int{2: 1, 3: 0, 5: 1, 7: 0}, uttt.MakeMove(4, 5)},
		{"most visited wins", map[int]int{2: 2, 5: 1, 8: 1}, uttt.MakeMove(4, 2)},
		{"nothing visited", map[int]int{1: 0}, uttt.MakeMove(4, 0)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tree := setup(tc.visits)
			move, err := tree.BestMove(root)
			require.NoError(t, err)
			require.Equal(t, 0, tree.Cycles())
			require.Equal(t, tc.want, move)
			require.Equal(t, tc.want, tree.RootMove())
		})
	}
}

func TestBestMoveFindsWin(t *testing.T) {
	state := winInOne(t)
	require.Len(t, state.LegalMoves(), 5)

	tree := NewMCTS(WithLimits(cyclesLimit(3000)), WithSeed(3))
	move, err := tree.BestMove(state)
	require.NoError(t, err)
	require.Equal(t, uttt.MakeMove(8, 8), move)
	require.Equal(t, uttt.OutcomeX, state.ApplyMove(move).Outcome())

	lines := tree.MultiPv(1)
	require.Len(t, lines, 1)
	require.True(t, lines[0].Terminal)
	require.False(t, lines[0].Draw)
	require.Greater(t, lines[0].Eval, 0.9)
}

func TestTerminalRoot(t *testing.T) {
	var meta [9]uttt.Player
	meta[0], meta[4], meta[8] = uttt.PlayerX, uttt.PlayerX, uttt.PlayerX
	state, err := uttt.FromParts(uttt.BoardType{}, meta, int(uttt.Unrestricted), uttt.PlayerO)
	require.NoError(t, err)

	tree := NewMCTS(WithLimits(cyclesLimit(10)))
	move, err := tree.BestMove(state)
	require.ErrorIs(t, err, ErrNoLegalMoves)
	require.False(t, move.Valid())

	// terminal leaves are returned as-is
	path := tree.Traverse(state)
	require.Equal(t, []uttt.State{state}, path)
	require.Equal(t, uttt.OutcomeX, tree.Rollout(state))
}

func TestBackpropagateSigns(t *testing.T) {
	tree := NewMCTS()
	root := uttt.NewState()
	child := root.ApplyMove(uttt.MakeMove(0, 0))

	path := Path{tree.Tree.Track(root), tree.Tree.Track(child)}

	tree.Backpropagate(path, uttt.OutcomeX)
	tree.Backpropagate(path, uttt.OutcomeX)
	tree.Backpropagate(path, uttt.OutcomeO)
	tree.Backpropagate(path, uttt.OutcomeDraw)

	rootStats, ok := tree.RootStats(root)
	require.True(t, ok)
	require.Equal(t, NodeStats{Visits: 4, Value: 1}, rootStats)

	childStats, ok := tree.RootStats(child)
	require.True(t, ok)
	require.Equal(t, NodeStats{Visits: 4, Value: -1}, childStats)
	require.InDelta(t, -0.25, childStats.AvgValue(), 1e-12)
}

func TestTraverseTracksOneState(t *testing.T) {
	tree := NewMCTS(WithSeed(5))
	root := uttt.NewState()
	tree.Tree.Track(root)

	for i := 0; i < 200; i++ {
		before := tree.Tree.Tracked()
		path := tree.Traverse(root)
		require.Equal(t, before+1, tree.Tree.Tracked(), "iteration %d", i)
		require.Equal(t, root, path[0])

		leaf := path[len(path)-1]
		stats, ok := tree.RootStats(leaf)
		require.True(t, ok)
		require.Equal(t, int64(0), stats.Visits)

		// every step of the path is a legal move
		for j := 1; j < len(path); j++ {
			found := slices.ContainsFunc(path[j-1].LegalMoves(), func(m uttt.Move) bool {
				return path[j-1].ApplyMove(m) == path[j]
			})
			require.True(t, found)
		}

		ids := make(Path, len(path))
		for j, s := range path {
			ids[j], _ = tree.Tree.Lookup(s)
		}
		tree.Backpropagate(ids, tree.Rollout(leaf))
	}

	// 81 root children, so after 200 iterations the root is fully expanded
	id, ok := tree.Tree.Lookup(root)
	require.True(t, ok)
	for _, child := range tree.Tree.Children(id) {
		require.True(t, tree.Tree.IsTracked(child))
	}
}

func TestStatsPersistAcrossSearches(t *testing.T) {
	tree := NewMCTS(WithLimits(cyclesLimit(200)))
	root := uttt.NewState()

	_, err := tree.BestMove(root)
	require.NoError(t, err)
	stats, ok := tree.RootStats(root)
	require.True(t, ok)
	require.Equal(t, int64(200), stats.Visits)
	tracked := tree.Tree.Tracked()

	_, err = tree.BestMove(root)
	require.NoError(t, err)
	stats, _ = tree.RootStats(root)
	require.Equal(t, int64(400), stats.Visits)
	require.Greater(t, tree.Tree.Tracked(), tracked)

	// searching a reached child reuses its statistics
	child := root.ApplyMove(tree.RootMove())
	childStats, ok := tree.RootStats(child)
	require.True(t, ok)
	_, err = tree.BestMove(child)
	require.NoError(t, err)
	after, _ := tree.RootStats(child)
	require.Equal(t, childStats.Visits+200, after.Visits)

	tree.Reset()
	require.Equal(t, 0, tree.Tree.Tracked())
	require.Equal(t, 0, tree.Tree.Size())
	_, ok = tree.RootStats(root)
	require.False(t, ok)
}

func TestNodesLimitPerSearch(t *testing.T) {
	tree := NewMCTS(WithLimits(InfiniteLimits().SetNodes(50)), WithSeed(4))
	root := uttt.NewState()
	tree.Tree.Track(root)

	for i := 0; i < 3; i++ {
		before := tree.Tree.Tracked()
		_, err := tree.BestMove(root)
		require.NoError(t, err)
		require.Equal(t, StopNodes, tree.StopReason(), "search %d", i)
		require.Equal(t, 50, tree.Cycles(), "search %d", i)
		require.Equal(t, before+50, tree.Tree.Tracked(), "search %d", i)
	}
}

func TestCyclesPerSecond(t *testing.T) {
	require.Equal(t, uint32(2000), cyclesPerSecond(1000, 500))
	require.Equal(t, uint32(3000), cyclesPerSecond(3, 0))
	// cycles * 1000 doesn't fit in 32 bits here
	require.Equal(t, uint32(10_000_000), cyclesPerSecond(10_000_000, 1000))
	require.Equal(t, uint32(math.MaxUint32), cyclesPerSecond(math.MaxUint32, 1))
}

func TestSearchIsReproducible(t *testing.T) {
	root := uttt.NewState().ApplyMove(uttt.MakeMove(4, 4))

	run := func() (uttt.Move, NodeStats, []uttt.Move) {
		tree := NewMCTS(WithLimits(cyclesLimit(1000)), WithSeed(11))
		move, err := tree.BestMove(root)
		require.NoError(t, err)
		stats, _ := tree.RootStats(root)
		return move, stats, tree.Pv(root)
	}

	move1, stats1, pv1 := run()
	move2, stats2, pv2 := run()
	require.Equal(t, move1, move2)
	require.Equal(t, stats1, stats2)
	require.Equal(t, pv1, pv2)
	require.NotEmpty(t, pv1)
	require.Equal(t, move1, pv1[0])
}

func TestSearchWithListener(t *testing.T) {
	var (
		depthCalls, cycleCalls, stopCalls int
		stopStats                         ListenerTreeStats
	)

	listener := NewStatsListener()
	listener.
		OnDepth(func(stats ListenerTreeStats) {
			depthCalls++
			t.Logf("depth %d cycle %d eval %.2f pv %v", stats.Maxdepth, stats.Cycles, stats.Lines[0].Eval, stats.Lines[0].Moves)
		}).
		OnCycle(func(ListenerTreeStats) { cycleCalls++ }).
		SetCycleInterval(100).
		OnStop(func(stats ListenerTreeStats) {
			stopCalls++
			stopStats = stats
		}).
		SetMultiPv(3)

	tree := NewMCTS(WithLimits(cyclesLimit(1000)), WithListener(listener))
	_, err := tree.BestMove(uttt.NewState())
	require.NoError(t, err)

	require.Positive(t, depthCalls)
	require.Equal(t, 10, cycleCalls)
	require.Equal(t, 1, stopCalls)
	require.Equal(t, StopCycles, stopStats.StopReason)
	require.Equal(t, 1000, stopStats.Cycles)
	require.Len(t, stopStats.Lines, 3)
	require.GreaterOrEqual(t, stopStats.Lines[0].Visits, stopStats.Lines[1].Visits)
	require.GreaterOrEqual(t, stopStats.Lines[1].Visits, stopStats.Lines[2].Visits)
	require.Equal(t, tree.RootMove(), stopStats.Lines[0].BestMove)
}

func TestSearchContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tree := NewMCTS(WithLimits(InfiniteLimits()))
	tree.SetContext(ctx)
	move, err := tree.BestMove(uttt.NewState())
	require.NoError(t, err)
	require.Equal(t, 0, tree.Cycles())
	require.Equal(t, uttt.MakeMove(0, 0), move)
	require.Equal(t, StopInterrupt, tree.StopReason())
}

func TestTreeLookup(t *testing.T) {
	tree := NewTree()
	a := uttt.NewState()
	b := a.ApplyMove(uttt.MakeMove(2, 3))

	_, ok := tree.Lookup(a)
	require.False(t, ok)

	idA := tree.Track(a)
	require.Equal(t, idA, tree.Track(a))
	require.Equal(t, 1, tree.Tracked())

	children := tree.Children(idA)
	require.Len(t, children, 81)
	require.Equal(t, 82, tree.Size())
	require.Equal(t, 1, tree.Tracked())

	idB, ok := tree.Lookup(b)
	require.True(t, ok)
	require.Equal(t, children[2*9+3], idB)
	require.False(t, tree.IsTracked(idB))
	require.Equal(t, b, tree.State(idB))
	require.Equal(t, uttt.OutcomeOngoing, tree.Outcome(idB))
	require.Positive(t, tree.MemoryUsage())
}

func BenchmarkSearch(b *testing.B) {
	tree := NewMCTS(WithLimits(cyclesLimit(uint32(b.N))))
	b.ResetTimer()
	_, _ = tree.BestMove(uttt.NewState())
}
