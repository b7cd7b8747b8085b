package mcts

type ListenerTreeStats struct {
	Maxdepth   int
	Cycles     int
	TimeMs     int
	Cps        uint32
	Size       int
	Lines      []SearchLine
	StopReason StopReason
}

// Convert tree statistics to 'ListenerTreeStats' struct
func toListenerStats(tree *MCTS) ListenerTreeStats {
	return ListenerTreeStats{
		Lines:      tree.MultiPv(tree.listener.multiPv),
		Maxdepth:   tree.MaxDepth(),
		Cycles:     tree.Cycles(),
		TimeMs:     int(tree.Limiter.Elapsed()),
		Cps:        tree.Cps(),
		Size:       tree.Tree.Tracked(),
		StopReason: tree.Limiter.StopReason(),
	}
}

// Listener function callback, will recieve current tree statistics, like
// max depth of tree, number of iterations so far
type ListenerFunc func(ListenerTreeStats)

type StatsListener struct {
	// called when 'max depth' increases
	onDepth ListenerFunc

	// called every N full iterations
	onCycle ListenerFunc
	nCycles int

	// called when the search stops
	onStop ListenerFunc

	// number of root lines passed to the callbacks
	multiPv int
}

func NewStatsListener() StatsListener {
	return StatsListener{nCycles: 1, multiPv: 1}
}

// Attach new on max depth change callback
func (listener *StatsListener) OnDepth(onDepth ListenerFunc) *StatsListener {
	listener.onDepth = onDepth
	return listener
}

// Attach new on iteration callback, this will slow down the search,
// because of pv evaluation, so use it with a large interval
func (listener *StatsListener) OnCycle(onCycle ListenerFunc) *StatsListener {
	listener.onCycle = onCycle
	return listener
}

func (listener *StatsListener) SetCycleInterval(n int) *StatsListener {
	listener.nCycles = max(n, 1)
	return listener
}

// Attach 'on search end' callback, makes 'StopReason' available in the stats
func (listener *StatsListener) OnStop(onStop ListenerFunc) *StatsListener {
	listener.onStop = onStop
	return listener
}

func (listener *StatsListener) SetMultiPv(n int) *StatsListener {
	listener.multiPv = max(n, 1)
	return listener
}

func (listener *StatsListener) invokeCycle(tree *MCTS) {
	if listener.onCycle != nil && tree.Cycles()%listener.nCycles == 0 {
		listener.onCycle(toListenerStats(tree))
	}
}

func (listener *StatsListener) invoke(f ListenerFunc, tree *MCTS) {
	if f != nil {
		f(toListenerStats(tree))
	}
}
