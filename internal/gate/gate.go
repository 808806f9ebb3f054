// Package gate bounds how many pipeline runs execute at once. It is pure
// admission control: a counting permit pool with no view into the work it
// admits.
package gate

import "context"

const DefaultLimit = 50

type Gate struct {
	slots chan struct{}
}

func New(limit int) *Gate {
	if limit <= 0 {
		limit = DefaultLimit
	}

	return &Gate{slots: make(chan struct{}, limit)}
}

// Acquire blocks until a permit is free or ctx is done. Waiters are not
// served in strict FIFO order; only the capacity bound holds.
func (g *Gate) Acquire(ctx context.Context) error {
	select {
	case g.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a permit. Must be called exactly once per successful
// Acquire, success or failure of the admitted work.
func (g *Gate) Release() {
	<-g.slots
}

func (g *Gate) Limit() int {
	return cap(g.slots)
}
