package sync

import "sync/atomic"

// Mutex is an owned lock: only the task that successfully locked it may
// unlock it, and unlocking from any other task is a silent no-op rather
// than a panic, matching the original mutex_unlock's owner check.
// Contended Lock calls yield instead of busy-spinning, since a mutex is
// meant to guard sections long enough that burning the losing task's
// whole time slice on CAS retries would be wasteful.
type Mutex struct {
	locked atomic.Bool
	owner  atomic.Int64
	name   string
}

// NewMutex returns an unlocked, unowned Mutex.
func NewMutex(name string) *Mutex {
	m := &Mutex{name: name}
	m.owner.Store(-1)
	return m
}

// Name returns the mutex's diagnostic name.
func (m *Mutex) Name() string { return m.name }

// Lock claims the mutex on behalf of taskID, yielding through y on every
// contended attempt.
func (m *Mutex) Lock(taskID int, y Yielder) {
	for !m.locked.CompareAndSwap(false, true) {
		if y != nil {
			y.Yield()
		}
	}
	m.owner.Store(int64(taskID))
}

// TryLock makes a single claim attempt and reports whether it succeeded.
func (m *Mutex) TryLock(taskID int) bool {
	if !m.locked.CompareAndSwap(false, true) {
		return false
	}
	m.owner.Store(int64(taskID))
	return true
}

// Unlock releases the mutex if taskID is the current owner; otherwise it
// does nothing.
func (m *Mutex) Unlock(taskID int) {
	if m.owner.Load() != int64(taskID) {
		return
	}
	m.owner.Store(-1)
	m.locked.Store(false)
}

// Locked reports whether the mutex is currently held, mirroring the
// original's mutex_is_locked introspection.
func (m *Mutex) Locked() bool {
	return m.locked.Load()
}

// Owner returns the id of the task currently holding the mutex, or -1 if
// it is unlocked.
func (m *Mutex) Owner() int {
	return int(m.owner.Load())
}
