package sd

import (
	"testing"

	"github.com/ktstephano/bcm283x-kernel/platform"
	"github.com/stretchr/testify/require"
)

// fakeCard wires a platform.Sim's write hooks to behave enough like an
// EMMC controller with an SDHC card attached to drive Driver.Init and a
// single-sector read/write round trip deterministically, without any
// real hardware.
type fakeCard struct {
	sim *platform.Sim

	inTransfer bool
	isRead     bool
	wordIdx    int
	readWords  []uint32
	written    []uint32
}

func newFakeCard(sim *platform.Sim) *fakeCard {
	f := &fakeCard{sim: sim}

	sim.OnWrite(regControl1, f.onControl1)
	sim.OnWrite(regCmdTM, f.onCmdTM)
	sim.OnWrite(regInterrupt, f.onInterruptAck)
	sim.OnWrite(regData, f.onDataWrite)

	return f
}

func (f *fakeCard) onControl1(s *platform.Sim, offset, old, new uint32) {
	if new&control1SRSTHC != 0 {
		s.Poke(regControl1, new&^control1SRSTHC)
	}
	if new&0xFFE0 != 0 && new&control1ClkStable == 0 {
		platform.Set(s, regControl1, control1ClkStable)
	}
}

func (f *fakeCard) onCmdTM(s *platform.Sim, offset, old, new uint32) {
	index := new >> cmdTMIndexShift

	switch index {
	case 0: // CMD0
	case 8: // CMD8
		s.Poke(regResp0, sdIfCondPattern)
	case 55: // CMD55
	case 41: // ACMD41
		s.Poke(regResp0, uint32(0xC0FF8000))
	case 2: // CMD2
	case 3: // CMD3
		s.Poke(regResp0, 0xAAAA0000)
	case 9: // CMD9: SDHC-shaped CSD, C_SIZE=0 -> 1024 sectors
		s.Poke(regResp0, 0)
		s.Poke(regResp1, 0)
		s.Poke(regResp2, 0)
		s.Poke(regResp3, 1<<30)
	case 7: // CMD7
	case 6: // ACMD6
	case 16: // CMD16
	case 17: // CMD17: read
		f.beginTransfer(true)
	case 24: // CMD24: write
		f.beginTransfer(false)
	}

	platform.Set(s, regInterrupt, intCmdDone)
}

func (f *fakeCard) beginTransfer(isRead bool) {
	f.isRead = isRead
	f.inTransfer = true
	f.wordIdx = 0
	f.written = f.written[:0]

	readyBit := uint32(intWriteReady)
	if isRead {
		readyBit = intReadReady
	}
	platform.Set(f.sim, regInterrupt, readyBit)
}

// onInterruptAck fires whenever the driver acks a pending bit by
// clearing it. When that bit is the FIFO ready bit, this is the one
// moment it is safe to place the word the driver is about to read (just
// before it reads it) and to decide whether another FIFO round follows
// or the transfer is complete.
func (f *fakeCard) onInterruptAck(s *platform.Sim, offset, old, new uint32) {
	if !f.inTransfer {
		return
	}
	readyBit := uint32(intWriteReady)
	if f.isRead {
		readyBit = intReadReady
	}
	wasReady := old&readyBit != 0 && new&readyBit == 0
	if !wasReady {
		return
	}

	if f.isRead {
		s.Poke(regData, f.readWords[f.wordIdx])
	}

	f.wordIdx++
	if f.wordIdx >= sectorWords {
		f.inTransfer = false
		platform.Set(s, regInterrupt, intDataDone)
		return
	}
	platform.Set(s, regInterrupt, readyBit)
}

func (f *fakeCard) onDataWrite(s *platform.Sim, offset, old, new uint32) {
	f.written = append(f.written, new)
}

func newTestDriver(t *testing.T) (*Driver, *platform.Sim, *fakeCard) {
	t.Helper()
	sim := platform.NewSim()
	card := newFakeCard(sim)
	card.readWords = make([]uint32, sectorWords)
	for i := range card.readWords {
		card.readWords[i] = uint32(i) * 0x01010101
	}

	d := NewDriver(Config{Bus: sim})
	return d, sim, card
}

func TestDriverInitSucceedsAndParsesCSD(t *testing.T) {
	d, _, _ := newTestDriver(t)
	require.NoError(t, d.Init())
	require.Equal(t, uint64(1024), d.SectorCount())
	require.True(t, d.highCapacity)
	require.Equal(t, 512, d.SectorSize())
}

func TestReadSectorsReturnsFIFOWords(t *testing.T) {
	d, _, card := newTestDriver(t)
	require.NoError(t, d.Init())

	buf := make([]byte, 512)
	require.NoError(t, d.ReadSectors(0, buf))

	for i := 0; i < sectorWords; i++ {
		got := uint32(buf[i*4]) | uint32(buf[i*4+1])<<8 | uint32(buf[i*4+2])<<16 | uint32(buf[i*4+3])<<24
		require.Equal(t, card.readWords[i], got, "word %d", i)
	}
}

func TestWriteSectorsDeliversWordsToFIFO(t *testing.T) {
	d, _, card := newTestDriver(t)
	require.NoError(t, d.Init())

	buf := make([]byte, 512)
	for i := 0; i < sectorWords; i++ {
		v := uint32(i) + 1
		buf[i*4] = byte(v)
		buf[i*4+1] = byte(v >> 8)
		buf[i*4+2] = byte(v >> 16)
		buf[i*4+3] = byte(v >> 24)
	}

	require.NoError(t, d.WriteSectors(0, buf))
	require.Len(t, card.written, sectorWords)
	for i := 0; i < sectorWords; i++ {
		require.Equal(t, uint32(i)+1, card.written[i])
	}
}

func TestTransferRejectsOutOfRangeSectors(t *testing.T) {
	d, _, _ := newTestDriver(t)
	require.NoError(t, d.Init())

	buf := make([]byte, 512)
	err := d.ReadSectors(d.SectorCount(), buf)
	require.Error(t, err)
}

func TestTransferRejectsMisshapenBuffer(t *testing.T) {
	d, _, _ := newTestDriver(t)
	require.NoError(t, d.Init())

	err := d.ReadSectors(0, make([]byte, 511))
	require.Error(t, err)
}
