package sd

import (
	"encoding/binary"
	"fmt"

	"github.com/ktstephano/bcm283x-kernel/kernelerr"
	"github.com/ktstephano/bcm283x-kernel/platform"
)

// ReadSectors implements block.Device. It reads len(buf)/512 whole
// sectors starting at start into buf; len(buf) must be a multiple of
// 512.
func (d *Driver) ReadSectors(start uint64, buf []byte) error {
	return d.transfer(start, buf, cmdReadBlock, true)
}

// WriteSectors implements block.Device.
func (d *Driver) WriteSectors(start uint64, buf []byte) error {
	return d.transfer(start, buf, cmdWriteBlock, false)
}

func (d *Driver) transfer(start uint64, buf []byte, c command, isRead bool) error {
	if len(buf)%512 != 0 {
		return fmt.Errorf("sd: transfer: buffer not a multiple of 512 bytes: %w", kernelerr.ErrInvalid)
	}
	count := uint64(len(buf)) / 512
	if count == 0 {
		return nil
	}
	if start+count > d.sectorCount {
		return fmt.Errorf("sd: transfer: sector range [%d,%d) exceeds device (%d sectors): %w",
			start, start+count, d.sectorCount, kernelerr.ErrInvalid)
	}

	for i := uint64(0); i < count; i++ {
		sector := start + i
		chunk := buf[i*512 : (i+1)*512]
		if err := d.transferOneSector(sector, chunk, c, isRead); err != nil {
			return err
		}
	}
	return nil
}

// transferOneSector drains or fills exactly one 512-byte sector through
// the controller's word-at-a-time FIFO, polling the per-word ready bit
// before each access (the original's sd_read/sd_write block loop). The
// command argument is the sector index on a high-capacity card and the
// byte offset (sector * 512) on a standard-capacity one.
func (d *Driver) transferOneSector(sector uint64, chunk []byte, c command, isRead bool) error {
	if !platform.WaitFor(d.bus, regStatus, 1, 1, 0, d.dataTimeout) {
		return fmt.Errorf("sd: data line busy before sector %d: %w", sector, kernelerr.ErrTimeout)
	}

	d.bus.Write32(regBlkSizeCnt, 512|(1<<16))

	arg := uint32(sector)
	if !d.highCapacity {
		arg = uint32(sector * 512)
	}

	if _, err := d.issue(c, arg); err != nil {
		return fmt.Errorf("sd: sector %d: %w", sector, err)
	}

	readyBit := uint32(intWriteReady)
	if isRead {
		readyBit = intReadReady
	}

	for w := 0; w < sectorWords; w++ {
		if !platform.WaitFor(d.bus, regInterrupt, 0, readyBit, readyBit, d.dataTimeout) {
			return fmt.Errorf("sd: sector %d: FIFO not ready: %w", sector, kernelerr.ErrTimeout)
		}
		platform.Clear(d.bus, regInterrupt, readyBit)

		if isRead {
			word := d.bus.Read32(regData)
			binary.LittleEndian.PutUint32(chunk[w*4:], word)
		} else {
			word := binary.LittleEndian.Uint32(chunk[w*4:])
			d.bus.Write32(regData, word)
		}
	}

	if !platform.WaitFor(d.bus, regInterrupt, 1, 1, 1, d.dataTimeout) {
		return fmt.Errorf("sd: sector %d: transfer did not complete: %w", sector, kernelerr.ErrTimeout)
	}
	platform.Clear(d.bus, regInterrupt, intDataDone)
	return nil
}
