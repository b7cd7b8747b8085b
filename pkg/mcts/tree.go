package mcts

import (
	"unsafe"

	"github.com/IlikeChooros/go-uttt/pkg/uttt"
)

// Index of a node in the tree's arena
type NodeID int32

const NoNode NodeID = -1

type node struct {
	state   uttt.State
	outcome uttt.Outcome // cached, states are immutable
	next    NodeID       // next node with the same hash bucket

	// Whether this state has a visit/value entry, nodes may exist in the arena
	// only as someone's (not yet visited) child
	tracked bool
	stats   NodeStats

	expanded bool
	moves    []uttt.Move
	children []NodeID // children[i] is the state after moves[i]
}

// Tree is the search memo store: visits and value per state plus the cached
// legal moves and successor states of each state. Entries are never evicted,
// the whole tree is dropped on session reset.
type Tree struct {
	nodes   []node
	index   map[uint64]NodeID // state hash -> first node in the bucket
	tracked int
}

func NewTree() *Tree {
	return &Tree{
		nodes: make([]node, 0, 1024),
		index: make(map[uint64]NodeID, 1024),
	}
}

// Drop every entry
func (t *Tree) Reset() {
	t.nodes = t.nodes[:0]
	clear(t.index)
	t.tracked = 0
}

// Find the node of given state
func (t *Tree) Lookup(state uttt.State) (NodeID, bool) {
	for id := t.bucket(state.Hash()); id != NoNode; id = t.nodes[id].next {
		if t.nodes[id].state == state {
			return id, true
		}
	}
	return NoNode, false
}

func (t *Tree) bucket(hash uint64) NodeID {
	if id, ok := t.index[hash]; ok {
		return id
	}
	return NoNode
}

// Get or insert the node of given state (without tracking it)
func (t *Tree) node(state uttt.State) NodeID {
	if id, ok := t.Lookup(state); ok {
		return id
	}

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		state:   state,
		outcome: state.Outcome(),
		next:    t.bucket(state.Hash()),
	})
	t.index[state.Hash()] = id
	return id
}

// Make sure given state has a visit/value entry, creates a zeroed one
// the first time the state is seen
func (t *Tree) Track(state uttt.State) NodeID {
	id := t.node(state)
	t.track(id)
	return id
}

func (t *Tree) track(id NodeID) {
	if !t.nodes[id].tracked {
		t.nodes[id].tracked = true
		t.nodes[id].stats = NodeStats{}
		t.tracked++
	}
}

// Whether the node has a visit/value entry
func (t *Tree) IsTracked(id NodeID) bool {
	return t.nodes[id].tracked
}

// Get the stats of given state, ok is false if the state was never reached by the search
func (t *Tree) Stats(state uttt.State) (NodeStats, bool) {
	id, ok := t.Lookup(state)
	if !ok || !t.nodes[id].tracked {
		return NodeStats{}, false
	}
	return t.nodes[id].stats, true
}

func (t *Tree) NodeStats(id NodeID) NodeStats {
	return t.nodes[id].stats
}

func (t *Tree) State(id NodeID) uttt.State {
	return t.nodes[id].state
}

func (t *Tree) Outcome(id NodeID) uttt.Outcome {
	return t.nodes[id].outcome
}

// Legal moves of the node, computed once
func (t *Tree) Moves(id NodeID) []uttt.Move {
	t.expand(id)
	return t.nodes[id].moves
}

// Successor states of the node, in the same order as Moves, computed once
func (t *Tree) Children(id NodeID) []NodeID {
	t.expand(id)
	return t.nodes[id].children
}

func (t *Tree) expand(id NodeID) {
	if t.nodes[id].expanded {
		return
	}

	state := t.nodes[id].state
	moves := state.LegalMoves()
	children := make([]NodeID, len(moves))
	for i, m := range moves {
		// may grow the arena, so don't hold pointers into t.nodes here
		children[i] = t.node(state.ApplyMove(m))
	}

	n := &t.nodes[id]
	n.moves = moves
	n.children = children
	n.expanded = true
}

// Add one visit to the node and update its value with given result
func (t *Tree) update(id NodeID, result uttt.Outcome) {
	n := &t.nodes[id]
	n.stats.Visits++

	mover := n.state.Mover()
	switch result {
	case uttt.Outcome(mover):
		n.stats.Value++
	case uttt.Outcome(mover.Opponent()):
		n.stats.Value--
	}
}

// Number of nodes in the arena (tracked or not)
func (t *Tree) Size() int {
	return len(t.nodes)
}

// Number of states with visit/value entries
func (t *Tree) Tracked() int {
	return t.tracked
}

// Returns approximation of memory usage of the tree structure
func (t *Tree) MemoryUsage() uint64 {
	var usage uint64 = uint64(cap(t.nodes)) * uint64(unsafe.Sizeof(node{}))
	for i := range t.nodes {
		usage += uint64(cap(t.nodes[i].moves)) + uint64(cap(t.nodes[i].children))*4
	}
	return usage
}
