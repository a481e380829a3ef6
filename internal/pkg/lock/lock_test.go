package lock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockWithTimeout(t *testing.T) {
	ctx := context.Background()

	t.Run("AcquiresFreeLock", func(t *testing.T) {
		cl := NewChannelLock()
		assert.True(t, cl.LockWithTimeout(ctx, 1, time.Second))
		cl.Unlock(1)
	})

	t.Run("TimesOutOnHeldLock", func(t *testing.T) {
		cl := NewChannelLock()
		cl.Lock(2)
		assert.False(t, cl.LockWithTimeout(ctx, 2, 20*time.Millisecond))
		cl.Unlock(2)
	})

	t.Run("LockFreeAfterTimeout", func(t *testing.T) {
		cl := NewChannelLock()
		cl.Lock(3)
		require.False(t, cl.LockWithTimeout(ctx, 3, 10*time.Millisecond))
		cl.Unlock(3)

		// The timed-out waiter releases the mutex once it gets it, so a
		// later acquisition must go through.
		assert.True(t, cl.LockWithTimeout(ctx, 3, time.Second))
		cl.Unlock(3)
	})
}

func TestWithLockContext(t *testing.T) {
	ctx := context.Background()

	t.Run("RunsWhenFree", func(t *testing.T) {
		cl := NewChannelLock()
		ran := false
		err := cl.WithLockContext(ctx, 1, time.Second, func() error {
			ran = true
			return nil
		})
		require.NoError(t, err)
		assert.True(t, ran)
	})

	t.Run("TimeoutWhenHeld", func(t *testing.T) {
		cl := NewChannelLock()
		cl.Lock(2)

		err := cl.WithLockContext(ctx, 2, 20*time.Millisecond, func() error {
			t.Error("fn must not run when the lock cannot be acquired")
			return nil
		})
		assert.True(t, errors.Is(err, ErrLockTimeout))
		cl.Unlock(2)
	})

	t.Run("PropagatesFnError", func(t *testing.T) {
		cl := NewChannelLock()
		sentinel := errors.New("boom")
		err := cl.WithLockContext(ctx, 3, time.Second, func() error {
			return sentinel
		})
		assert.True(t, errors.Is(err, sentinel))
	})

	t.Run("SerializesCallers", func(t *testing.T) {
		cl := NewChannelLock()
		counter := 0

		var wg sync.WaitGroup
		wg.Add(10)
		for i := 0; i < 10; i++ {
			go func() {
				defer wg.Done()
				err := cl.WithLockContext(ctx, 4, time.Second, func() error {
					counter++
					return nil
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		assert.Equal(t, 10, counter)
	})
}
