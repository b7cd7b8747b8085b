package mcts

import "math"

// UCB 1 : w/n + C * sqrt(ln(N)/n), where w is the negated value of the child.
// Child's value is stored from the perspective of the player moving at the child,
// that's the parent mover's opponent, so maximizing -value/n picks the parent
// mover's best reply. Children with no visits score +Inf. A parent without
// visits (its children reached through other lines) counts as visited once.
func UCB1Score(parentVisits int64, child NodeStats, c float64) float64 {
	if child.Visits == 0 {
		return math.Inf(1)
	}

	n := float64(child.Visits)
	w := -float64(child.Value)
	return w/n + c*math.Sqrt(math.Log(float64(max(parentVisits, 1)))/n)
}

// Pick the child with the highest UCB1 score, the last candidate with
// score >= current best wins the ties. Returns -1 for empty children.
func UCB1Select(parentVisits int64, children []NodeStats, c float64) int {
	best := math.Inf(-1)
	index := -1

	for i := range children {
		if score := UCB1Score(parentVisits, children[i], c); score >= best {
			best = score
			index = i
		}
	}

	return index
}
