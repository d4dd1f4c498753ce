package platform

import "time"

// Mailbox register offsets, relative to the board's mailbox base
// (peripheral base + 0xB880).
const (
	mboxRead   = 0x00
	mboxStatus = 0x18
	mboxWrite  = 0x20

	mboxFull  = 1 << 31
	mboxEmpty = 1 << 30

	// PropertyChannel is the VideoCore mailbox property-tag channel.
	PropertyChannel = 8
)

// Mailbox property tags used by this kernel. Only the two tags the SD
// driver's power-up and clock-rate steps need are named; a board package
// outside this core's scope is free to issue other property calls through
// the same Call primitive.
const (
	TagSetPowerState = 0x28001
	TagGetClockRate  = 0x30002

	// DeviceSD is the power-domain device id for the SD card in the
	// "set power state" tag.
	DeviceSD = 0x0
	// ClockEMMC is the clock id for the EMMC/SD clock in the
	// "get clock rate" tag.
	ClockEMMC = 0x1

	powerOnWait = 0x3 // ON | WAIT
)

// Mailbox drives the firmware property-channel protocol: a caller-owned
// buffer is handed to the VideoCore GPU by writing its address (OR'd with
// a channel number) to the doorbell register, then polling for the GPU to
// echo the same value back. Grounded on the original sd_emmc.c mbox_call/
// sd_power_on/sd_get_clock_rate sequence.
type Mailbox struct {
	bus     Bus
	buf     [8]uint32
	timeout time.Duration

	// transfer delivers (and, in the Sim build, can be replaced by tests
	// with a stub GPU) the request/response round trip. The hardware
	// build uses doorbellTransfer; tests substitute a synchronous fake.
	transfer func(m *Mailbox, channel uint32) bool
}

// NewMailbox returns a Mailbox driving the doorbell registers on bus.
func NewMailbox(bus Bus) *Mailbox {
	m := &Mailbox{bus: bus, timeout: 200 * time.Millisecond}
	m.transfer = doorbellTransfer
	return m
}

// SetTransfer overrides the request/response transport; used by tests to
// stub out the GPU side of the property protocol.
func (m *Mailbox) SetTransfer(f func(m *Mailbox, channel uint32) bool) {
	m.transfer = f
}

// doorbellTransfer implements the real polling handshake against the
// doorbell registers. channel is OR'd with the buffer's own address in
// the live firmware protocol; since this Go model keeps the buffer as a
// Go value rather than a DMA-visible physical page, the address component
// is represented by a fixed token and only the channel bits are
// meaningful to Sim-mode tests.
func doorbellTransfer(m *Mailbox, channel uint32) bool {
	deadline := time.Now().Add(m.timeout)

	for m.bus.Read32(mboxStatus)&mboxFull != 0 {
		if time.Now().After(deadline) {
			return false
		}
	}

	token := channel
	m.bus.Write32(mboxWrite, token)

	for {
		for m.bus.Read32(mboxStatus)&mboxEmpty != 0 {
			if time.Now().After(deadline) {
				return false
			}
		}
		if m.bus.Read32(mboxRead) == token {
			return m.buf[1] == 0x80000000
		}
		if time.Now().After(deadline) {
			return false
		}
	}
}

// SetPowerState requests the GPU power on (or off) the device domain
// identified by deviceID and waits for acknowledgement.
func (m *Mailbox) SetPowerState(deviceID uint32, on bool) bool {
	state := uint32(0)
	if on {
		state = powerOnWait
	}

	m.buf = [8]uint32{
		8 * 4, 0,
		TagSetPowerState, 8, 8,
		deviceID, state,
		0,
	}

	return m.transfer(m, PropertyChannel)
}

// GetClockRate returns the clock rate in Hz for clockID, or 0 on failure.
func (m *Mailbox) GetClockRate(clockID uint32) uint32 {
	m.buf = [8]uint32{
		8 * 4, 0,
		TagGetClockRate, 8, 4,
		clockID, 0,
		0,
	}

	if !m.transfer(m, PropertyChannel) {
		return 0
	}

	return m.buf[6]
}
