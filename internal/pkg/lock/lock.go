// Package lock provides channel-level locking. Every mutation of a
// channel's game state or scores happens under that channel's lock, so
// inbound events for one channel are handled strictly one at a time.
package lock

import (
	"context"
	"sync"
	"time"
)

// channelMutex wraps a mutex so instances can cycle through the pool.
type channelMutex struct {
	mu sync.Mutex
}

// ChannelLock provides per-channel locking. Locks for different channels
// are independent; operations on distinct channels never block each other.
type ChannelLock struct {
	locks sync.Map // map[int64]*channelMutex
	pool  sync.Pool
}

// NewChannelLock creates a new ChannelLock instance.
func NewChannelLock() *ChannelLock {
	return &ChannelLock{
		pool: sync.Pool{
			New: func() any {
				return &channelMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given channel ID.
func (cl *ChannelLock) getLock(channelID int64) *channelMutex {
	if v, ok := cl.locks.Load(channelID); ok {
		return v.(*channelMutex)
	}

	newLock := cl.pool.Get().(*channelMutex)

	actual, loaded := cl.locks.LoadOrStore(channelID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool.
		cl.pool.Put(newLock)
	}
	return actual.(*channelMutex)
}

// Lock acquires the lock for a channel.
func (cl *ChannelLock) Lock(channelID int64) {
	cl.getLock(channelID).mu.Lock()
}

// Unlock releases the lock for a channel.
func (cl *ChannelLock) Unlock(channelID int64) {
	if v, ok := cl.locks.Load(channelID); ok {
		v.(*channelMutex).mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (cl *ChannelLock) TryLock(channelID int64) bool {
	return cl.getLock(channelID).mu.TryLock()
}

// LockWithTimeout attempts to acquire the lock with a timeout.
// Returns true if the lock was acquired, false if the timeout elapsed.
func (cl *ChannelLock) LockWithTimeout(ctx context.Context, channelID int64, timeout time.Duration) bool {
	lock := cl.getLock(channelID)

	done := make(chan struct{})
	go func() {
		lock.mu.Lock()
		close(done)
	}()

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case <-done:
		return true
	case <-timeoutCtx.Done():
		// The waiting goroutine will eventually acquire the mutex;
		// release it again once it does.
		go func() {
			<-done
			lock.mu.Unlock()
		}()
		return false
	}
}

// WithLock executes fn while holding the channel's lock.
func (cl *ChannelLock) WithLock(channelID int64, fn func() error) error {
	cl.Lock(channelID)
	defer cl.Unlock(channelID)
	return fn()
}

// WithLockContext executes fn while holding the channel's lock, giving up
// after timeout and honoring context cancellation.
func (cl *ChannelLock) WithLockContext(ctx context.Context, channelID int64, timeout time.Duration, fn func() error) error {
	if !cl.LockWithTimeout(ctx, channelID, timeout) {
		return ErrLockTimeout
	}
	defer cl.Unlock(channelID)

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fn()
	}
}
