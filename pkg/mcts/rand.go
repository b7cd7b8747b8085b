package mcts

import (
	"math/rand"

	"github.com/bszcz/mt19937_64"
)

// Create a Mersenne Twister backed random generator with given seed,
// used for the unvisited child choice and the rollouts
func NewRand(seed int64) *rand.Rand {
	source := mt19937_64.New()
	source.Seed(seed)
	return rand.New(source)
}
