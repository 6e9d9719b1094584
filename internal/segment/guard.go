package segment

import (
	"context"
	"time"
)

// guard is the cooperative stop signal shared by the pipeline stages.
// Caller cancellation and the wall-clock budget are the same
// mechanism: long-running loops poll stopped after bounded units of
// work and wind down with whatever they have.
type guard struct {
	ctx      context.Context
	deadline time.Time
}

// newGuard derives a guard from the caller's context and the run
// budget. A zero timeout disables the deadline; a negative timeout is
// treated as already expired, which tests use to force the fallback
// path.
func newGuard(ctx context.Context, start time.Time, timeout time.Duration) *guard {
	g := &guard{ctx: ctx}
	if timeout != 0 {
		g.deadline = start.Add(timeout)
	}
	return g
}

func (g *guard) stopped() bool {
	select {
	case <-g.ctx.Done():
		return true
	default:
	}
	return !g.deadline.IsZero() && time.Now().After(g.deadline)
}
