package irq

import (
	"testing"

	"github.com/ktstephano/bcm283x-kernel/platform"
	"github.com/ktstephano/bcm283x-kernel/sched"
	"github.com/stretchr/testify/require"
)

func TestTimerInitProgramsRegistersAndUnmasksIRQ(t *testing.T) {
	regs := platform.NewSim()
	enable := platform.NewSim()
	timer := NewTimer(regs, enable)

	timer.Init(1000)

	require.Equal(t, uint32(1000), regs.Read32(regLoad))
	require.Equal(t, uint32(1000), regs.Read32(regReload))
	require.Equal(t, uint32(0), regs.Read32(regPreDivider))
	require.NotZero(t, regs.Read32(regCtrl)&ctrlTimerEnable)
	require.NotZero(t, regs.Read32(regCtrl)&ctrlIRQEnable)
	require.Equal(t, uint32(basicIRQTimerBit), enable.Read32(0))
}

func TestAckClearsInterruptAndAdvancesTicks(t *testing.T) {
	regs := platform.NewSim()
	enable := platform.NewSim()
	timer := NewTimer(regs, enable)

	require.Equal(t, uint32(0), timer.Ticks())
	timer.Ack()
	require.Equal(t, uint32(1), timer.Ticks())
	require.Equal(t, uint32(1), regs.Read32(regIRQClr))
	timer.Ack()
	require.Equal(t, uint32(2), timer.Ticks())
}

func TestDispatchResumesInterruptedTaskWhenAlone(t *testing.T) {
	regs := platform.NewSim()
	enable := platform.NewSim()
	timer := NewTimer(regs, enable)

	var calls []string
	s := sched.NewScheduler(0, func(oldSP *uintptr, newSP uintptr) { calls = append(calls, "switch") }, timer.Ticks, sched.NopLogger{})
	_, err := s.Create("only", func() {}, 0)
	require.NoError(t, err)
	s.Start()

	interrupted := uintptr(0x1000)
	next := Dispatch(timer, s, interrupted)

	require.Equal(t, interrupted, next)
	require.Equal(t, uint32(1), timer.Ticks())
}

func TestDispatchSwitchesWhenAnotherTaskIsReady(t *testing.T) {
	regs := platform.NewSim()
	enable := platform.NewSim()
	timer := NewTimer(regs, enable)

	s := sched.NewScheduler(0, func(oldSP *uintptr, newSP uintptr) {}, timer.Ticks, sched.NopLogger{})
	_, err := s.Create("a", func() {}, 0)
	require.NoError(t, err)
	b, err := s.Create("b", func() {}, 0)
	require.NoError(t, err)
	s.Start()

	next := Dispatch(timer, s, uintptr(0x2000))

	require.Equal(t, b, s.CurrentID())
	require.NotEqual(t, uintptr(0x2000), next)
}
