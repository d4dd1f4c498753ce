package sd

import (
	"fmt"
	"time"

	"github.com/ktstephano/bcm283x-kernel/kernelerr"
	"github.com/ktstephano/bcm283x-kernel/platform"
)

// command describes one SD command's index and expected response shape.
// The set below covers exactly the commands the initialization sequence
// and block transfers need — no general-purpose command issuing API,
// since nothing in this kernel needs one.
type command struct {
	index    uint32
	flags    uint32
	isData   bool
	dataRead bool
}

var (
	cmdGoIdle       = command{index: 0, flags: cmdTMRespNone}
	cmdSendIfCond   = command{index: 8, flags: cmdTMResp48 | cmdTMCRCCheckEn | cmdTMIdxCheckEn}
	cmdAppCmd       = command{index: 55, flags: cmdTMResp48 | cmdTMCRCCheckEn | cmdTMIdxCheckEn}
	cmdSDSendOpCond = command{index: 41, flags: cmdTMResp48}
	cmdAllSendCID   = command{index: 2, flags: cmdTMResp136 | cmdTMCRCCheckEn}
	cmdSendRelAddr  = command{index: 3, flags: cmdTMResp48 | cmdTMCRCCheckEn | cmdTMIdxCheckEn}
	cmdSendCSD      = command{index: 9, flags: cmdTMResp136 | cmdTMCRCCheckEn}
	cmdSelectCard   = command{index: 7, flags: cmdTMResp48Busy | cmdTMCRCCheckEn | cmdTMIdxCheckEn}
	cmdSetBusWidth  = command{index: 6, flags: cmdTMResp48 | cmdTMCRCCheckEn | cmdTMIdxCheckEn}
	cmdSetBlockLen  = command{index: 16, flags: cmdTMResp48 | cmdTMCRCCheckEn | cmdTMIdxCheckEn}
	cmdReadBlock    = command{index: 17, flags: cmdTMResp48 | cmdTMCRCCheckEn | cmdTMIdxCheckEn | cmdTMIsData | cmdTMDataDirRead, isData: true, dataRead: true}
	cmdWriteBlock   = command{index: 24, flags: cmdTMResp48 | cmdTMCRCCheckEn | cmdTMIdxCheckEn | cmdTMIsData, isData: true, dataRead: false}
)

type response [4]uint32

// issue waits for the command line to be free, writes ARG1/CMDTM, and
// waits for CMD_DONE (or an error bit) to appear in INTERRUPT, returning
// the raw response registers. It mirrors tamago's usdhc cmd() shape:
// inhibit-wait, issue, completion-poll, error-check.
func (d *Driver) issue(c command, arg uint32) (response, error) {
	if !platform.WaitFor(d.bus, regStatus, 0, 1, 0, d.cmdTimeout) {
		return response{}, fmt.Errorf("sd: command line busy: %w", kernelerr.ErrTimeout)
	}

	d.bus.Write32(regArg1, arg)
	word := (c.index << cmdTMIndexShift) | c.flags
	d.bus.Write32(regCmdTM, word)

	deadline := time.Now().Add(d.cmdTimeout)
	for {
		irpt := d.bus.Read32(regInterrupt)
		if irpt&intErrMask != 0 {
			platform.Clear(d.bus, regInterrupt, intErrMask)
			return response{}, fmt.Errorf("sd: command %d error 0x%x: %w", c.index, irpt, kernelerr.ErrDeviceError)
		}
		if irpt&intCmdDone != 0 {
			platform.Clear(d.bus, regInterrupt, intCmdDone)
			break
		}
		if time.Now().After(deadline) {
			return response{}, fmt.Errorf("sd: command %d: %w", c.index, kernelerr.ErrTimeout)
		}
	}

	return response{
		d.bus.Read32(regResp0),
		d.bus.Read32(regResp1),
		d.bus.Read32(regResp2),
		d.bus.Read32(regResp3),
	}, nil
}

func readBit(bus platform.Bus, offset, mask uint32) bool {
	return bus.Read32(offset)&mask != 0
}
