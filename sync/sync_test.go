package sync

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingYielder struct {
	n int
}

func (y *countingYielder) Yield() { y.n++ }

func TestSpinlockTryLockExclusive(t *testing.T) {
	var l Spinlock
	require.True(t, l.TryLock())
	require.False(t, l.TryLock())
	l.Unlock()
	require.True(t, l.TryLock())
}

func TestSpinlockUnlockWhenAlreadyUnlockedIsNoop(t *testing.T) {
	var l Spinlock
	l.Unlock()
	require.True(t, l.TryLock())
}

func TestMutexOwnershipEnforced(t *testing.T) {
	m := NewMutex("test")
	require.False(t, m.Locked())
	require.Equal(t, -1, m.Owner())

	require.True(t, m.TryLock(1))
	require.True(t, m.Locked())
	require.Equal(t, 1, m.Owner())

	// a different task's unlock is a no-op.
	m.Unlock(2)
	require.True(t, m.Locked())

	m.Unlock(1)
	require.False(t, m.Locked())
	require.Equal(t, -1, m.Owner())
}

func TestMutexLockYieldsOnContention(t *testing.T) {
	m := NewMutex("test")
	require.True(t, m.TryLock(1))

	y := &countingYielder{}
	done := make(chan struct{})
	go func() {
		m.Lock(2, y)
		close(done)
	}()

	// give the contended goroutine a chance to spin at least once.
	for y.n == 0 {
	}
	m.Unlock(1)
	<-done
	require.Equal(t, 2, m.Owner())
	require.GreaterOrEqual(t, y.n, 1)
}

func TestSemaphoreWaitSignalRoundTrip(t *testing.T) {
	s := NewSemaphore("test", 1, 2)
	require.Equal(t, int32(1), s.Count())

	s.Wait(nil)
	require.Equal(t, int32(0), s.Count())
	require.False(t, s.TryWait())

	s.Signal()
	require.Equal(t, int32(1), s.Count())
	s.Signal()
	require.Equal(t, int32(2), s.Count())

	// signaling past max is a no-op.
	s.Signal()
	require.Equal(t, int32(2), s.Count())
}

func TestSemaphoreWaitYieldsUntilSignaled(t *testing.T) {
	s := NewSemaphore("test", 0, 1)
	y := &countingYielder{}

	done := make(chan struct{})
	go func() {
		s.Wait(y)
		close(done)
	}()

	for y.n == 0 {
	}
	s.Signal()
	<-done
	require.Equal(t, int32(0), s.Count())
}

func TestSemaphoreConservationUnderConcurrentUse(t *testing.T) {
	const permits = 3
	const workers = 20
	s := NewSemaphore("pool", permits, permits)

	var mu sync.Mutex
	inFlight := 0
	maxSeen := 0
	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			s.Wait(nil)
			mu.Lock()
			inFlight++
			if inFlight > maxSeen {
				maxSeen = inFlight
			}
			mu.Unlock()

			mu.Lock()
			inFlight--
			mu.Unlock()
			s.Signal()
		}()
	}

	wg.Wait()
	require.LessOrEqual(t, maxSeen, permits)
	require.Equal(t, int32(permits), s.Count())
}
