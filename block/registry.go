package block

import (
	"fmt"

	"github.com/ktstephano/bcm283x-kernel/kernelerr"
)

// MaxDevices is the registry's fixed capacity.
const MaxDevices = 4

// Logger is the minimal sink Registry logs an overflowing registration
// attempt to.
type Logger interface {
	Logf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Logf(string, ...any) {}

// Registry is a fixed-capacity, append-only table of named block
// devices, looked up by linear scan. It never reorders or evicts an
// entry once registered.
type Registry struct {
	devices [MaxDevices]Device
	count   int
	log     Logger
}

// NewRegistry returns an empty Registry. log may be nil.
func NewRegistry(log Logger) *Registry {
	if log == nil {
		log = nopLogger{}
	}
	return &Registry{log: log}
}

// Register appends d to the table. If the table is already full, the
// attempt is logged, d is discarded, and an error wrapping
// kernelerr.ErrNoSlot is returned; the table itself is left unchanged.
func (r *Registry) Register(d Device) error {
	if r.count >= MaxDevices {
		r.log.Logf("block: registry full, dropping device %q", d.Name())
		return fmt.Errorf("block: register %q: %w", d.Name(), kernelerr.ErrNoSlot)
	}
	r.devices[r.count] = d
	r.count++
	return nil
}

// Get returns the device registered under name.
func (r *Registry) Get(name string) (Device, error) {
	for i := 0; i < r.count; i++ {
		if r.devices[i].Name() == name {
			return r.devices[i], nil
		}
	}
	return nil, fmt.Errorf("block: get %q: %w", name, kernelerr.ErrNotFound)
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	return r.count
}
