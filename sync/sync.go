// Package sync provides the kernel's blocking-capable synchronization
// primitives: a spinlock, a mutex, and a counting semaphore, all built
// on atomic compare-and-swap rather than a disable-interrupts critical
// section. It shares its import path's base name with the standard
// library's sync package; a caller that needs both imports this one
// under an alias.
package sync

// Yielder is the one piece of scheduler behavior the blocking primitives
// need: the ability to give up the remainder of the current task's time
// slice while waiting for a lock or a semaphore count to become
// available, instead of busy-spinning through the wait. *sched.Scheduler
// satisfies this with its own Yield method; passing it through an
// interface here avoids an import cycle (sched does not, and should not,
// depend on this package).
type Yielder interface {
	Yield()
}
