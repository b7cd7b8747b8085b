package mcts

// Visit count and signed value accumulator of a tracked state. The value is
// kept from the perspective of the player about to move in that state:
// +1 for every simulation that player won, -1 for every loss.
type NodeStats struct {
	Visits int64
	Value  int64
}

// Average value for this node, 0 if it was never visited
func (stats NodeStats) AvgValue() float64 {
	if stats.Visits == 0 {
		return 0
	}
	return float64(stats.Value) / float64(stats.Visits)
}
