package sd

import "github.com/ktstephano/bcm283x-kernel/platform"

// SimCard wires a platform.Sim's write hooks to behave like an
// EMMC controller with a high-capacity (SDHC-shaped CSD) card attached,
// backed by an ordinary byte slice instead of a real card's flash array.
// It drives Driver.Init and arbitrary ReadSectors/WriteSectors traffic
// end to end with no hardware, and is the fake the hosted simulator
// command wires up in place of real silicon. Grounded on the
// single-sector test double in driver_test.go, generalized to a
// multi-sector backing store addressed by the command argument the
// driver actually writes for each transfer rather than canned per-sector
// responses.
type SimCard struct {
	sim *platform.Sim

	backing []byte
	sectors uint64

	inTransfer bool
	isRead     bool
	wordIdx    int // next word ready to hand the driver on a read
	writeIdx   int // next word slot to receive on a write
	curSector  uint64
}

// simCardCSDGranularitySectors is the CSD v1 C_SIZE encoding's unit:
// sectorCount = (C_SIZE+1)*1024, so capacity is only representable in
// multiples of 1024 sectors (512KiB).
const simCardCSDGranularitySectors = 1024

// NewSimCard returns a SimCard backed by backing, installs its write
// hooks on sim, and returns it. backing's length is rounded down to the
// nearest whole multiple of 1024 sectors to stay representable in the
// CSD v1 encoding Init parses; any remainder is left unaddressable.
func NewSimCard(sim *platform.Sim, backing []byte) *SimCard {
	sectors := uint64(len(backing)) / 512
	sectors -= sectors % simCardCSDGranularitySectors
	if sectors == 0 {
		sectors = simCardCSDGranularitySectors
	}

	c := &SimCard{sim: sim, backing: backing, sectors: sectors}
	sim.OnWrite(regControl1, c.onControl1)
	sim.OnWrite(regCmdTM, c.onCmdTM)
	sim.OnWrite(regInterrupt, c.onInterruptAck)
	sim.OnWrite(regData, c.onDataWrite)
	return c
}

// SectorCount reports the capacity SimCard will report through CMD9,
// after CSD-granularity rounding.
func (c *SimCard) SectorCount() uint64 { return c.sectors }

func (c *SimCard) onControl1(s *platform.Sim, offset, old, new uint32) {
	if new&control1SRSTHC != 0 {
		s.Poke(regControl1, new&^control1SRSTHC)
	}
	if new&0xFFE0 != 0 && new&control1ClkStable == 0 {
		platform.Set(s, regControl1, control1ClkStable)
	}
}

func (c *SimCard) onCmdTM(s *platform.Sim, offset, old, new uint32) {
	index := new >> cmdTMIndexShift
	arg := s.Read32(regArg1)

	switch index {
	case 8: // CMD8
		s.Poke(regResp0, sdIfCondPattern)
	case 41: // ACMD41
		s.Poke(regResp0, uint32(0xC0FF8000))
	case 3: // CMD3
		s.Poke(regResp0, 0xAAAA0000)
	case 9: // CMD9: SDHC-shaped CSD; C_SIZE derived from c.sectors.
		// parseCSD reassembles the 22-bit C_SIZE as
		// (r[2]&0x3F)<<16 | r[1]>>16, so the low 16 bits live in r[1]'s
		// top half and the high 6 bits in r[2]'s bottom bits.
		cSize := uint32(c.sectors/simCardCSDGranularitySectors) - 1
		s.Poke(regResp0, 0)
		s.Poke(regResp1, (cSize&0xFFFF)<<16)
		s.Poke(regResp2, (cSize>>16)&0x3F)
		s.Poke(regResp3, 1<<30)
	case 17: // CMD17: read
		c.beginTransfer(true, uint64(arg))
	case 24: // CMD24: write
		c.beginTransfer(false, uint64(arg))
	}

	platform.Set(s, regInterrupt, intCmdDone)
}

func (c *SimCard) beginTransfer(isRead bool, sector uint64) {
	c.isRead = isRead
	c.inTransfer = true
	c.wordIdx = 0
	c.writeIdx = 0
	c.curSector = sector

	readyBit := uint32(intWriteReady)
	if isRead {
		readyBit = intReadReady
	}
	platform.Set(c.sim, regInterrupt, readyBit)
}

func (c *SimCard) onInterruptAck(s *platform.Sim, offset, old, new uint32) {
	if !c.inTransfer {
		return
	}
	readyBit := uint32(intWriteReady)
	if c.isRead {
		readyBit = intReadReady
	}
	wasReady := old&readyBit != 0 && new&readyBit == 0
	if !wasReady {
		return
	}

	if c.isRead {
		s.Poke(regData, c.readWord())
	}

	c.wordIdx++
	if c.wordIdx >= sectorWords {
		c.inTransfer = false
		platform.Set(s, regInterrupt, intDataDone)
		return
	}
	platform.Set(s, regInterrupt, readyBit)
}

// onDataWrite records each word the driver pushes into the FIFO in
// arrival order, independent of wordIdx (which onInterruptAck advances
// for the ready-bit handshake and which, for a write transfer, the ack
// that precedes this very word's write has already stepped past it).
func (c *SimCard) onDataWrite(s *platform.Sim, offset, old, new uint32) {
	if !c.inTransfer || c.isRead {
		return
	}
	off := int(c.curSector)*512 + c.writeIdx*4
	c.backing[off] = byte(new)
	c.backing[off+1] = byte(new >> 8)
	c.backing[off+2] = byte(new >> 16)
	c.backing[off+3] = byte(new >> 24)
	c.writeIdx++
}

func (c *SimCard) readWord() uint32 {
	off := int(c.curSector)*512 + c.wordIdx*4
	b := c.backing[off : off+4]
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
}
