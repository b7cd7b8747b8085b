package mcts

import "time"

// Exploration parameter used in UCB1 formula, higher values increase exploration
// while lower values increase exploitation. Theoretical perfect value is sqrt(2),
// the default 1.03125 is the value the engine was tuned with.
var ExplorationParam float64 = 1.03125

// Set the default exploration parameter used by new trees
func SetExplorationParam(c float64) {
	ExplorationParam = max(0.0, c)
}

// Default thinking time per move, in milliseconds
const DefaultMovetime int = 5000

var SeedGeneratorFn SeedGeneratorFnType = func() int64 {
	return time.Now().UnixNano()
}

// Set custom seed generator function for random number generators in MCTS,
// by default uses current time in nanoseconds
func SetSeedGeneratorFn(f SeedGeneratorFnType) {
	if f != nil {
		SeedGeneratorFn = f
	}
}
