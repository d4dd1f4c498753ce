//go:build !arm

package irq

import "sync/atomic"

// masked tracks nested Disable/Enable calls on hosted builds, where
// there is no real CPU interrupt mask to toggle. It exists so tests can
// assert that code claiming a critical section actually bracketed it
// with Disable/Enable correctly.
var masked atomic.Int32

// Enable un-masks IRQs. On a hosted build this only updates the
// observability counter; there is no real interrupt line to unmask.
func Enable() {
	masked.Add(-1)
}

// Disable masks IRQs.
func Disable() {
	masked.Add(1)
}

// Masked reports whether IRQs are currently considered masked. Hosted
// test helper only; not part of the hardware contract.
func Masked() bool {
	return masked.Load() > 0
}
