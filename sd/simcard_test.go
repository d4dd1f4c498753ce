package sd

import (
	"testing"

	"github.com/ktstephano/bcm283x-kernel/platform"
	"github.com/stretchr/testify/require"
)

func newSimCardDriver(t *testing.T) (*Driver, *SimCard) {
	t.Helper()
	sim := platform.NewSim()
	backing := make([]byte, 1024*512*2)
	card := NewSimCard(sim, backing)
	d := NewDriver(Config{Bus: sim})
	return d, card
}

func TestSimCardWriteThenReadRoundTrips(t *testing.T) {
	d, card := newSimCardDriver(t)
	require.NoError(t, d.Init())
	require.Equal(t, card.SectorCount(), d.SectorCount())

	want := make([]byte, 512)
	for i := range want {
		want[i] = byte(i * 7)
	}
	require.NoError(t, d.WriteSectors(0, want))

	got := make([]byte, 512)
	require.NoError(t, d.ReadSectors(0, got))
	require.Equal(t, want, got)
}

func TestSimCardRoundTripsMultipleSectorsAtOffset(t *testing.T) {
	d, _ := newSimCardDriver(t)
	require.NoError(t, d.Init())

	want := make([]byte, 512*3)
	for i := range want {
		want[i] = byte(i*3 + 1)
	}
	const startSector = 5
	require.NoError(t, d.WriteSectors(startSector, want))

	got := make([]byte, len(want))
	require.NoError(t, d.ReadSectors(startSector, got))
	require.Equal(t, want, got)
}
