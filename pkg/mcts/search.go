package mcts

import (
	"math"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

// Run the search from given root until the limiter stops it, then return
// the most visited root move. Statistics from previous calls are reused.
func (mcts *MCTS) BestMove(root uttt.State) (uttt.Move, error) {
	id := mcts.Tree.Track(root)
	if mcts.Tree.Outcome(id).Terminal() {
		mcts.root = id
		return uttt.MoveIllegal, ErrNoLegalMoves
	}

	mcts.Search(root)
	return mcts.RootMove(), nil
}

// This function only sets the limits, resets the counters, and the stop flag
// doesn't actually start the search
func (mcts *MCTS) setupSearch() {
	mcts.Limiter.Reset()
	mcts.TreeStats = TreeStats{}
}

// Actual search function implementation, simply calls:
//
// 1. traverse - to choose the most promising node, inserting one new state
//
// 2. rollout - to simulate a random game from it, and get the outcome
//
// 3. backpropagate - to increment counters up to the root
//
// Until runs out of the allocated time, nodes or cycles. The nodes limit counts
// only the states tracked by this call, so a reused tree keeps its budget.
func (mcts *MCTS) Search(root uttt.State) {
	mcts.setupSearch()
	mcts.root = mcts.Tree.Track(root)
	start := mcts.Tree.Tracked()

	for mcts.Limiter.Ok(uint32(mcts.Tree.Tracked()-start), uint32(mcts.cycles)) {
		path := mcts.traverse(mcts.root)
		result := mcts.Rollout(mcts.Tree.State(path[len(path)-1]))
		mcts.Backpropagate(path, result)

		// Increment cycle count and store the cps
		mcts.cycles++
		mcts.cps = cyclesPerSecond(mcts.cycles, mcts.Limiter.Elapsed())

		if depth := len(path) - 1; depth > mcts.maxdepth {
			mcts.maxdepth = depth
			mcts.listener.invoke(mcts.listener.onDepth, mcts)
		}
		mcts.listener.invokeCycle(mcts)
	}

	mcts.Limiter.EvaluateStopReason(uint32(mcts.Tree.Tracked()-start), uint32(mcts.cycles))
	mcts.listener.invoke(mcts.listener.onStop, mcts)

	mcts.logger.Debug().
		Int("cycles", mcts.cycles).
		Uint32("cps", mcts.cps).
		Int("maxdepth", mcts.maxdepth).
		Int("tracked", mcts.Tree.Tracked()).
		Stringer("stop", mcts.Limiter.StopReason()).
		Msg("search finished")
}

// Saturates at MaxUint32 instead of wrapping on long searches
func cyclesPerSecond(cycles int, elapsedMs uint32) uint32 {
	cps := uint64(cycles) * 1000 / uint64(max(elapsedMs, 1))
	return uint32(min(cps, math.MaxUint32))
}

// Most visited move of the last searched root, scanning the moves in their
// generation order with later ties winning. Never visited children are
// skipped, if none was visited the first legal move is returned.
func (mcts *MCTS) RootMove() uttt.Move {
	if mcts.root == NoNode {
		return uttt.MoveIllegal
	}

	moves := mcts.Tree.Moves(mcts.root)
	if len(moves) == 0 {
		return uttt.MoveIllegal
	}
	if i := mcts.bestChild(mcts.root); i >= 0 {
		return moves[i]
	}
	return moves[0]
}

// Descend from the given state with UCB1 while every child is tracked.
// Returns the visited path, the last element is either a terminal state
// or a freshly tracked child picked at random.
func (mcts *MCTS) Traverse(root uttt.State) []uttt.State {
	ids := mcts.traverse(mcts.Tree.Track(root))
	path := make([]uttt.State, len(ids))
	for i, id := range ids {
		path[i] = mcts.Tree.State(id)
	}
	return path
}

func (mcts *MCTS) traverse(root NodeID) Path {
	path := make(Path, 1, mcts.maxdepth+2)
	path[0] = root
	node := root

	for {
		if mcts.Tree.Outcome(node).Terminal() {
			return path
		}

		children := mcts.Tree.Children(node)
		mcts.candidates = mcts.candidates[:0]
		mcts.childStats = mcts.childStats[:0]
		for _, child := range children {
			if !mcts.Tree.IsTracked(child) {
				mcts.candidates = append(mcts.candidates, child)
			}
			mcts.childStats = append(mcts.childStats, mcts.Tree.NodeStats(child))
		}

		if len(mcts.candidates) > 0 {
			child := mcts.candidates[mcts.random.Intn(len(mcts.candidates))]
			mcts.Tree.track(child)
			return append(path, child)
		}

		// fully expanded
		i := UCB1Select(mcts.Tree.NodeStats(node).Visits, mcts.childStats, mcts.explorationParam)
		if i < 0 {
			return path
		}
		node = children[i]
		path = append(path, node)
	}
}

// Play uniformly random moves until the game ends, returns the final outcome
func (mcts *MCTS) Rollout(state uttt.State) uttt.Outcome {
	for {
		if outcome := state.Outcome(); outcome.Terminal() {
			return outcome
		}

		state.GenerateMoves(&mcts.movelist)
		state = state.ApplyMove(mcts.movelist.Moves[mcts.random.Intn(int(mcts.movelist.Size))])
	}
}

// Add a visit to every node of the path and score the result from each
// node's own mover perspective
func (mcts *MCTS) Backpropagate(path Path, result uttt.Outcome) {
	for _, id := range path {
		mcts.Tree.update(id, result)
	}
}
