package block

import (
	"errors"
	"testing"

	"github.com/ktstephano/bcm283x-kernel/kernelerr"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	name    string
	sectors uint64
}

func (f *fakeDevice) Name() string                              { return f.name }
func (f *fakeDevice) SectorSize() int                            { return 512 }
func (f *fakeDevice) SectorCount() uint64                        { return f.sectors }
func (f *fakeDevice) ReadSectors(start uint64, buf []byte) error { return nil }
func (f *fakeDevice) WriteSectors(start uint64, buf []byte) error {
	return nil
}

func TestRegisterAndGet(t *testing.T) {
	r := NewRegistry(nil)
	d := &fakeDevice{name: "sd0", sectors: 1024}
	require.NoError(t, r.Register(d))

	got, err := r.Get("sd0")
	require.NoError(t, err)
	require.Same(t, d, got)
	require.Equal(t, 1, r.Count())
}

func TestGetUnknownNameFails(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Get("missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, kernelerr.ErrNotFound))
}

func TestRegisterOverflowFails(t *testing.T) {
	r := NewRegistry(nil)
	for i := 0; i < MaxDevices; i++ {
		require.NoError(t, r.Register(&fakeDevice{name: string(rune('a' + i))}))
	}
	err := r.Register(&fakeDevice{name: "overflow"})
	require.Error(t, err)
	require.True(t, errors.Is(err, kernelerr.ErrNoSlot))
	require.Equal(t, MaxDevices, r.Count())
}
