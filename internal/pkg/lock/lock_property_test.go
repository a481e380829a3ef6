package lock

import (
	"sync"
	"sync/atomic"
	"testing"

	"pgregory.net/rapid"
)

// TestConcurrentScoreSafetyProperty checks that concurrent score mutations
// on the same channel, each performed under the channel lock, end up
// equivalent to a sequential execution.
func TestConcurrentScoreSafetyProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		initialScore := rapid.Int64Range(0, 1000).Draw(t, "initialScore")
		numOps := rapid.IntRange(2, 20).Draw(t, "numOps")

		deltas := make([]int64, numOps)
		expected := initialScore
		for i := 0; i < numOps; i++ {
			deltas[i] = rapid.Int64Range(-5, 5).Draw(t, "delta")
			expected += deltas[i]
		}

		channelID := rapid.Int64Range(1, 1000000).Draw(t, "channelID")
		cl := NewChannelLock()
		score := initialScore

		var wg sync.WaitGroup
		wg.Add(numOps)
		for _, d := range deltas {
			go func(delta int64) {
				defer wg.Done()
				cl.Lock(channelID)
				defer cl.Unlock(channelID)
				score += delta
			}(d)
		}
		wg.Wait()

		if score != expected {
			t.Fatalf("Score mismatch with locking: expected %d, got %d", expected, score)
		}
	})
}

// TestWithLockSerializationProperty checks that WithLock serializes
// read-modify-write cycles.
func TestWithLockSerializationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numOps := rapid.IntRange(5, 30).Draw(t, "numOps")
		channelID := rapid.Int64Range(1, 1000000).Draw(t, "channelID")

		cl := NewChannelLock()
		counter := int64(0)

		var wg sync.WaitGroup
		wg.Add(numOps)
		for i := 0; i < numOps; i++ {
			go func() {
				defer wg.Done()
				_ = cl.WithLock(channelID, func() error {
					counter++
					return nil
				})
			}()
		}
		wg.Wait()

		if counter != int64(numOps) {
			t.Fatalf("Counter mismatch with WithLock: expected %d, got %d", numOps, counter)
		}
	})
}

// TestIndependentChannelLocksProperty checks that locks for different
// channels do not interfere with each other's mutations.
func TestIndependentChannelLocksProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		numChannels := rapid.IntRange(2, 10).Draw(t, "numChannels")
		opsPerChannel := rapid.IntRange(5, 20).Draw(t, "opsPerChannel")

		cl := NewChannelLock()
		scores := make([]*int64, numChannels)
		for i := range scores {
			scores[i] = new(int64)
		}

		var wg sync.WaitGroup
		wg.Add(numChannels * opsPerChannel)
		for i := 0; i < numChannels; i++ {
			channelID := int64(i + 1)
			for j := 0; j < opsPerChannel; j++ {
				go func(idx int, id int64) {
					defer wg.Done()
					cl.Lock(id)
					defer cl.Unlock(id)
					*scores[idx]++
				}(i, channelID)
			}
		}
		wg.Wait()

		for i := range scores {
			if *scores[i] != int64(opsPerChannel) {
				t.Fatalf("Channel %d score mismatch: expected %d, got %d", i+1, opsPerChannel, *scores[i])
			}
		}
	})
}

// TestTryLockExclusivityProperty checks that TryLock never admits two
// holders at once and that the lock is free again after all attempts.
func TestTryLockExclusivityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		channelID := rapid.Int64Range(1, 1000000).Draw(t, "channelID")
		numAttempts := rapid.IntRange(5, 20).Draw(t, "numAttempts")

		cl := NewChannelLock()

		var successCount atomic.Int32
		var wg sync.WaitGroup
		wg.Add(numAttempts)
		startCh := make(chan struct{})

		for i := 0; i < numAttempts; i++ {
			go func() {
				defer wg.Done()
				<-startCh
				if cl.TryLock(channelID) {
					successCount.Add(1)
					cl.Unlock(channelID)
				}
			}()
		}

		close(startCh)
		wg.Wait()

		if successCount.Load() < 1 {
			t.Fatalf("At least one TryLock should succeed, got %d successes", successCount.Load())
		}

		if !cl.TryLock(channelID) {
			t.Fatal("Lock should be available after all attempts complete")
		}
		cl.Unlock(channelID)
	})
}

// TestLockUnlockSymmetryProperty checks that every Lock paired with an
// Unlock leaves the lock available.
func TestLockUnlockSymmetryProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		channelID := rapid.Int64Range(1, 1000000).Draw(t, "channelID")
		numCycles := rapid.IntRange(1, 50).Draw(t, "numCycles")

		cl := NewChannelLock()
		for i := 0; i < numCycles; i++ {
			cl.Lock(channelID)
			cl.Unlock(channelID)
		}

		if !cl.TryLock(channelID) {
			t.Fatal("Lock should be available after symmetric lock/unlock cycles")
		}
		cl.Unlock(channelID)
	})
}
