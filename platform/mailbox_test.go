package platform

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetPowerStateUsesTransferResult(t *testing.T) {
	bus := NewSim()
	m := NewMailbox(bus)

	var gotBuf [8]uint32
	m.SetTransfer(func(m *Mailbox, channel uint32) bool {
		require.Equal(t, uint32(PropertyChannel), channel)
		gotBuf = m.buf
		return true
	})

	require.True(t, m.SetPowerState(DeviceSD, true))
	require.Equal(t, uint32(TagSetPowerState), gotBuf[2])
	require.Equal(t, uint32(DeviceSD), gotBuf[5])
	require.Equal(t, uint32(powerOnWait), gotBuf[6])
}

func TestSetPowerStateOffClearsWaitBit(t *testing.T) {
	bus := NewSim()
	m := NewMailbox(bus)

	var gotState uint32
	m.SetTransfer(func(m *Mailbox, channel uint32) bool {
		gotState = m.buf[6]
		return true
	})

	m.SetPowerState(DeviceSD, false)
	require.Equal(t, uint32(0), gotState)
}

func TestGetClockRateReadsResponseSlot(t *testing.T) {
	bus := NewSim()
	m := NewMailbox(bus)

	m.SetTransfer(func(m *Mailbox, channel uint32) bool {
		m.buf[6] = 50_000_000
		return true
	})

	require.Equal(t, uint32(50_000_000), m.GetClockRate(ClockEMMC))
}

func TestGetClockRateReturnsZeroOnTransferFailure(t *testing.T) {
	bus := NewSim()
	m := NewMailbox(bus)

	m.SetTransfer(func(m *Mailbox, channel uint32) bool { return false })

	require.Equal(t, uint32(0), m.GetClockRate(ClockEMMC))
}

func TestDoorbellTransferRoundTrip(t *testing.T) {
	bus := NewSim()
	m := NewMailbox(bus)

	// Simulate the GPU: once software writes the request token to
	// mboxWrite, stamp the success code into the response buffer (real
	// hardware would DMA this into the shared buffer the token's address
	// bits point at) and echo the token back on mboxRead, so the real
	// doorbellTransfer polling loop completes on its first pass.
	bus.OnWrite(mboxWrite, func(s *Sim, _ uint32, _, token uint32) {
		m.buf[1] = 0x80000000
		s.Poke(mboxRead, token)
	})

	require.True(t, m.SetPowerState(DeviceSD, true))
}
