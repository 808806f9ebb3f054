package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacityBound(t *testing.T) {
	t.Parallel()

	const limit = 3
	const submissions = 20

	g := New(limit)

	var current, peak, completed int32
	wg := sync.WaitGroup{}

	for i := 0; i < submissions; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if !assert.NoError(t, g.Acquire(context.Background())) {
				return
			}
			defer g.Release()

			cur := atomic.AddInt32(&current, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if cur <= p || atomic.CompareAndSwapInt32(&peak, p, cur) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)

			atomic.AddInt32(&current, -1)
			atomic.AddInt32(&completed, 1)
		}()
	}

	wg.Wait()

	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(limit))
	assert.Equal(t, int32(submissions), atomic.LoadInt32(&completed))
}

func TestAcquireAbandonedOnCancel(t *testing.T) {
	t.Parallel()

	g := New(1)
	require.NoError(t, g.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := g.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	g.Release()

	// Capacity freed; the next acquire is immediate.
	require.NoError(t, g.Acquire(context.Background()))
	g.Release()
}

func TestDefaultLimit(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultLimit, New(0).Limit())
	assert.Equal(t, DefaultLimit, New(-5).Limit())
	assert.Equal(t, 7, New(7).Limit())
}
