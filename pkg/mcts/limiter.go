package mcts

import (
	"context"
	"sync/atomic"
	"time"
	"unsafe"
)

type StopReason int

const (
	StopNone      StopReason = 0
	StopInterrupt StopReason = 1 // Stopped by user, by calling .Stop() or context cancellation
	StopMovetime  StopReason = 2 // Time limit reached
	StopNodes     StopReason = 4 // Tree size limit reached
	StopCycles    StopReason = 8 // Cycle limit reached
)

func (sr StopReason) String() string {
	if sr == StopNone {
		return "None"
	}

	reasons := []struct {
		flag StopReason
		name string
	}{
		{StopInterrupt, "Interrupt"},
		{StopMovetime, "Movetime"},
		{StopNodes, "Nodes"},
		{StopCycles, "Cycles"},
	}

	var result string
	for _, r := range reasons {
		if sr&r.flag == r.flag {
			if result != "" {
				result += "|"
			}
			result += r.name
		}
	}

	return result
}

// Decides when the search loop ends. It's consulted only between full
// iterations, so a search may overrun the movetime by one rollout.
type Limiter struct {
	limits   *Limits
	start    time.Time
	deadline time.Duration // negative when unset
	stop     atomic.Bool
	reason   StopReason
	ctx      context.Context
}

func NewLimiter(limits *Limits) *Limiter {
	if limits == nil {
		limits = DefaultLimits()
	}
	return &Limiter{
		limits:   limits,
		start:    time.Now(),
		deadline: -1,
		ctx:      context.Background(),
	}
}

// Called on search setup: restarts the clock and clears the stop flag
func (l *Limiter) Reset() {
	l.start = time.Now()
	l.deadline = -1
	if l.limits.Movetime >= 0 {
		l.deadline = time.Duration(l.limits.Movetime) * time.Millisecond
	}
	l.stop.Store(false)
	l.reason = StopNone
}

func (l *Limiter) SetContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	l.ctx = ctx
}

func (l *Limiter) SetLimits(limits *Limits) {
	l.limits = limits
}

func (l *Limiter) Limits() *Limits {
	return l.limits
}

// Set the stop signal, safe to call from other goroutines
func (l *Limiter) SetStop(v bool) {
	l.stop.Store(v)
}

// Get the stop signal, also set by the context cancellation
func (l *Limiter) Stop() bool {
	select {
	case <-l.ctx.Done():
		l.stop.Store(true)
	default:
	}
	return l.stop.Load()
}

// Get elapsed time in ms (from the last 'Reset' call), at least 1
func (l *Limiter) Elapsed() uint32 {
	return uint32(max(time.Since(l.start).Milliseconds(), 1))
}

func (l *Limiter) timeUp() bool {
	return l.deadline >= 0 && time.Since(l.start) >= l.deadline
}

func toMask(val bool, offset int) StopReason {
	return StopReason(*(*byte)(unsafe.Pointer(&val))) << offset
}

// Bitmask of the reached limits, see StopReason
func (l *Limiter) LimitMask(size, cycles uint32) StopReason {
	mask := toMask(l.Stop(), 0)
	if l.limits.Infinite {
		return mask
	}

	mask |= toMask(l.timeUp(), 1)
	mask |= toMask(l.limits.Nodes <= size, 2)
	mask |= toMask(l.limits.Cycles <= cycles, 3)
	return mask
}

// Whether the search can run another iteration
func (l *Limiter) Ok(size, cycles uint32) bool {
	return l.LimitMask(size, cycles) == StopNone
}

// Evaluate stop reason based on current state, called once after the search ends
func (l *Limiter) EvaluateStopReason(size, cycles uint32) {
	l.reason = l.LimitMask(size, cycles)
}

// Get the reason why the search was stopped, valid after search ends
func (l *Limiter) StopReason() StopReason {
	return l.reason
}
