// Package kernelerr defines the coarse error kinds shared by every
// subsystem of the kernel core. Callers compare with errors.Is; no
// subsystem defines its own parallel error type.
package kernelerr

import "errors"

var (
	// ErrInvalid means an argument was rejected, e.g. a nil task function
	// or a sector range outside a block device.
	ErrInvalid = errors.New("invalid argument")

	// ErrNoSlot means a fixed-capacity table (task table, block registry)
	// was full.
	ErrNoSlot = errors.New("no free slot")

	// ErrTimeout means a bounded wait expired before completion.
	ErrTimeout = errors.New("operation timed out")

	// ErrDeviceError means a peripheral reported failure: SD error bits,
	// an unexpected interrupt status, or a mailbox call that was rejected.
	ErrDeviceError = errors.New("device error")

	// ErrNotFound means a named lookup (block device, task) had no match.
	ErrNotFound = errors.New("not found")
)
